package policy

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

type ruleFile struct {
	Rules []ruleSpec `toml:"rule"`
}

type ruleSpec struct {
	ID        string     `toml:"id"`
	Keywords  []string   `toml:"keywords"`
	Units     []UnitKind `toml:"units"`
	Severity  Severity   `toml:"severity"`
	Rationale string     `toml:"rationale"`
	Critical  bool       `toml:"critical"`
}

// LoadRules reads a TOML rule table from path. Each [[rule]] block
// carries an id, keyword list, unit kinds, severity name, rationale,
// and an optional critical flag. Rules keep file order.
func LoadRules(path string) ([]Rule, error) {
	var file ruleFile
	if _, err := toml.DecodeFile(path, &file); err != nil {
		return nil, fmt.Errorf("failed to parse rule file %s: %w", path, err)
	}
	if len(file.Rules) == 0 {
		return nil, fmt.Errorf("rule file %s defines no rules", path)
	}

	rules := make([]Rule, 0, len(file.Rules))
	seen := make(map[string]bool)
	for i, spec := range file.Rules {
		if spec.ID == "" {
			return nil, fmt.Errorf("rule %d in %s has no id", i, path)
		}
		if seen[spec.ID] {
			return nil, fmt.Errorf("duplicate rule id %q in %s", spec.ID, path)
		}
		seen[spec.ID] = true
		if len(spec.Keywords) == 0 {
			return nil, fmt.Errorf("rule %q in %s has no keywords", spec.ID, path)
		}
		if len(spec.Units) == 0 {
			return nil, fmt.Errorf("rule %q in %s recommends no units", spec.ID, path)
		}
		rules = append(rules, Rule{
			ID:        spec.ID,
			Match:     Keywords(spec.Keywords...),
			Units:     spec.Units,
			Severity:  spec.Severity,
			Rationale: spec.Rationale,
			Critical:  spec.Critical,
		})
	}
	return rules, nil
}
