package assess

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/sirenlab/calltriage/internal/policy"
)

func TestAssess(t *testing.T) {
	rules := policy.DefaultRules()

	t.Run("collision with victim count", func(t *testing.T) {
		report := Assess("Three people are hurt in a car accident", rules)

		for _, u := range []policy.UnitKind{policy.UnitPolice, policy.UnitFire, policy.UnitBLS} {
			if !containsUnit(report.Units, u) {
				t.Errorf("Assess() units = %v, missing %q", report.Units, u)
			}
		}
		if report.Severity != policy.SeverityMedium {
			t.Errorf("Assess() severity = %v, want medium", report.Severity)
		}
		if report.Critical {
			t.Errorf("Assess() critical = true, want false")
		}
		if report.SuggestedCount != 3 {
			t.Errorf("Assess() suggestedCount = %d, want 3", report.SuggestedCount)
		}
	})

	t.Run("short transcript omits count", func(t *testing.T) {
		report := Assess("two people hurt", rules)
		if report.SuggestedCount != 0 {
			t.Errorf("Assess() suggestedCount = %d, want 0 below minimum length", report.SuggestedCount)
		}

		// omitted from the wire form as well
		body, err := json.Marshal(report)
		if err != nil {
			t.Fatalf("json.Marshal() error = %v", err)
		}
		if strings.Contains(string(body), "suggestedCount") {
			t.Errorf("suggestedCount should be omitted when absent: %s", body)
		}
	})

	t.Run("critical transcript", func(t *testing.T) {
		report := Assess("She's not breathing, no pulse", rules)
		if !report.Critical {
			t.Errorf("Assess() critical = false, want true")
		}
		if report.Severity != policy.SeverityCritical {
			t.Errorf("Assess() severity = %v, want critical", report.Severity)
		}
	})

	t.Run("rationales are deduplicated", func(t *testing.T) {
		report := Assess("He fell, he is hurt and injured, and he is bleeding badly", rules)
		seen := make(map[policy.UnitKind]bool)
		for _, e := range report.Rationales {
			if seen[e.Unit] {
				t.Errorf("duplicate rationale for unit %q", e.Unit)
			}
			seen[e.Unit] = true
		}
	})
}
