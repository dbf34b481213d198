package assess

import "github.com/sirenlab/calltriage/internal/policy"

// Report is the result of scoring one transcript outside a live
// session, e.g. through the synchronous assessment endpoint.
type Report struct {
	Units          []policy.UnitKind       `json:"units"`
	Rationales     []policy.RationaleEntry `json:"rationales"`
	Severity       policy.Severity         `json:"severity"`
	Critical       bool                    `json:"critical"`
	SuggestedCount int                     `json:"suggestedCount,omitempty"`
}

// Assess evaluates a raw transcript against the rule set and attaches
// the victim-count heuristic when the transcript is long enough to
// support one.
func Assess(transcript string, rules []policy.Rule) Report {
	result := policy.Evaluate(transcript, rules)
	report := Report{
		Units:      result.Units,
		Rationales: policy.Deduplicate(result.Rationales),
		Severity:   result.Severity,
		Critical:   result.Critical,
	}
	if n, ok := policy.SuggestVictimCount(transcript); ok {
		report.SuggestedCount = n
	}
	return report
}
