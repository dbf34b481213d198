package policy

import "strings"

// Assessment is the aggregate outcome of evaluating one transcript
// against a rule set.
type Assessment struct {
	Units      []UnitKind
	Severity   Severity
	Rationales []RationaleEntry
	Critical   bool
}

// Evaluate runs every rule against the entire accumulated transcript
// and aggregates the matches. It is pure: no I/O, no mutation of the
// rule set, and identical output for identical input. Severity is the
// maximum across all matching rules, never decided by the first match.
func Evaluate(transcript string, rules []Rule) Assessment {
	out := Assessment{Severity: SeverityLow}
	if strings.TrimSpace(transcript) == "" {
		return out
	}

	seen := make(map[UnitKind]bool)
	for _, rule := range rules {
		if rule.Match == nil || !rule.Match(transcript) {
			continue
		}
		for _, unit := range rule.Units {
			if !seen[unit] {
				seen[unit] = true
				out.Units = append(out.Units, unit)
			}
			out.Rationales = append(out.Rationales, RationaleEntry{
				Unit:      unit,
				Rationale: rule.Rationale,
				Severity:  rule.Severity,
			})
		}
		if rule.Severity > out.Severity {
			out.Severity = rule.Severity
		}
		if rule.Critical {
			out.Critical = true
		}
	}
	return out
}

// Deduplicate collapses rationale entries down to one per unit kind,
// keeping the entry with the highest severity. On a severity tie the
// first entry in input order wins.
func Deduplicate(entries []RationaleEntry) []RationaleEntry {
	out := make([]RationaleEntry, 0, len(entries))
	index := make(map[UnitKind]int)
	for _, e := range entries {
		i, ok := index[e.Unit]
		if !ok {
			index[e.Unit] = len(out)
			out = append(out, e)
			continue
		}
		if e.Severity > out[i].Severity {
			out[i] = e
		}
	}
	return out
}
