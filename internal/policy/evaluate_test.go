package policy

import (
	"reflect"
	"testing"
)

func hasUnit(units []UnitKind, want UnitKind) bool {
	for _, u := range units {
		if u == want {
			return true
		}
	}
	return false
}

func TestEvaluate_CallerScenarios(t *testing.T) {
	rules := DefaultRules()

	tests := []struct {
		name         string
		transcript   string
		wantUnits    []UnitKind
		rejectUnits  []UnitKind
		wantSeverity Severity
		wantCritical bool
	}{
		{
			name:         "cardiac arrest",
			transcript:   "She's not breathing, no pulse",
			wantUnits:    []UnitKind{UnitBLS, UnitALS},
			rejectUnits:  []UnitKind{UnitPolice, UnitFire, UnitTactical},
			wantSeverity: SeverityCritical,
			wantCritical: true,
		},
		{
			name:         "minor fall",
			transcript:   "I think I fell and hurt my arm",
			wantUnits:    []UnitKind{UnitBLS},
			rejectUnits:  []UnitKind{UnitALS, UnitPolice, UnitFire, UnitTactical},
			wantSeverity: SeverityMedium,
			wantCritical: false,
		},
		{
			name:         "kitchen fire with entrapment",
			transcript:   "There's a fire in the kitchen and someone is stuck",
			wantUnits:    []UnitKind{UnitFire, UnitBLS},
			wantSeverity: SeverityCritical,
			wantCritical: true,
		},
		{
			name:         "traffic collision with injuries",
			transcript:   "Three people are hurt in a car accident",
			wantUnits:    []UnitKind{UnitPolice, UnitFire, UnitBLS},
			rejectUnits:  []UnitKind{UnitTactical},
			wantSeverity: SeverityMedium,
			wantCritical: false,
		},
		{
			name:         "active shooter",
			transcript:   "There is an active shooter at the mall",
			wantUnits:    []UnitKind{UnitTactical, UnitPolice},
			wantSeverity: SeverityCritical,
			wantCritical: true,
		},
		{
			name:         "no emergency language",
			transcript:   "I would like to order a pizza",
			wantUnits:    nil,
			wantSeverity: SeverityLow,
			wantCritical: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Evaluate(tt.transcript, rules)

			for _, u := range tt.wantUnits {
				if !hasUnit(got.Units, u) {
					t.Errorf("Evaluate() units = %v, missing %q", got.Units, u)
				}
			}
			for _, u := range tt.rejectUnits {
				if hasUnit(got.Units, u) {
					t.Errorf("Evaluate() units = %v, should not contain %q", got.Units, u)
				}
			}
			if got.Severity != tt.wantSeverity {
				t.Errorf("Evaluate() severity = %v, want %v", got.Severity, tt.wantSeverity)
			}
			if got.Critical != tt.wantCritical {
				t.Errorf("Evaluate() critical = %v, want %v", got.Critical, tt.wantCritical)
			}
		})
	}
}

func TestEvaluate_Deterministic(t *testing.T) {
	rules := DefaultRules()
	transcript := "There's a fire and two people are trapped, one is not breathing"

	first := Evaluate(transcript, rules)
	for i := 0; i < 10; i++ {
		got := Evaluate(transcript, rules)
		if !reflect.DeepEqual(got, first) {
			t.Fatalf("Evaluate() run %d = %+v, want %+v", i, got, first)
		}
	}
}

func TestEvaluate_EmptyTranscript(t *testing.T) {
	rules := DefaultRules()

	for _, transcript := range []string{"", "   ", "\n\t "} {
		got := Evaluate(transcript, rules)
		if len(got.Units) != 0 {
			t.Errorf("Evaluate(%q) units = %v, want none", transcript, got.Units)
		}
		if got.Severity != SeverityLow {
			t.Errorf("Evaluate(%q) severity = %v, want low", transcript, got.Severity)
		}
		if len(got.Rationales) != 0 {
			t.Errorf("Evaluate(%q) rationales = %v, want none", transcript, got.Rationales)
		}
		if got.Critical {
			t.Errorf("Evaluate(%q) critical = true, want false", transcript)
		}
	}
}

func TestEvaluate_SeverityIsMaxAcrossMatches(t *testing.T) {
	rules := []Rule{
		{ID: "a", Match: Keywords("alpha"), Units: []UnitKind{UnitBLS}, Severity: SeverityCritical, Rationale: "a", Critical: true},
		{ID: "b", Match: Keywords("beta"), Units: []UnitKind{UnitBLS}, Severity: SeverityMedium, Rationale: "b"},
	}

	// the low-severity rule matching last must not pull the result down
	got := Evaluate("beta then alpha", rules)
	if got.Severity != SeverityCritical {
		t.Errorf("Evaluate() severity = %v, want critical", got.Severity)
	}
	if !got.Critical {
		t.Errorf("Evaluate() critical = false, want true")
	}
}

func TestEvaluate_SameUnitFromMultipleRules(t *testing.T) {
	rules := []Rule{
		{ID: "a", Match: Keywords("alpha"), Units: []UnitKind{UnitBLS, UnitFire}, Severity: SeverityMedium, Rationale: "a"},
		{ID: "b", Match: Keywords("beta"), Units: []UnitKind{UnitBLS}, Severity: SeverityHigh, Rationale: "b"},
	}

	got := Evaluate("alpha beta", rules)
	if len(got.Units) != 2 {
		t.Fatalf("Evaluate() units = %v, want 2 distinct", got.Units)
	}
	// rationales keep one entry per (rule, unit) pair before deduplication
	if len(got.Rationales) != 3 {
		t.Errorf("Evaluate() rationales = %d entries, want 3", len(got.Rationales))
	}
}

func TestDeduplicate(t *testing.T) {
	tests := []struct {
		name    string
		entries []RationaleEntry
		want    []RationaleEntry
	}{
		{
			name:    "empty input",
			entries: nil,
			want:    []RationaleEntry{},
		},
		{
			name: "distinct units untouched",
			entries: []RationaleEntry{
				{Unit: UnitBLS, Rationale: "a", Severity: SeverityMedium},
				{Unit: UnitFire, Rationale: "b", Severity: SeverityHigh},
			},
			want: []RationaleEntry{
				{Unit: UnitBLS, Rationale: "a", Severity: SeverityMedium},
				{Unit: UnitFire, Rationale: "b", Severity: SeverityHigh},
			},
		},
		{
			name: "higher severity wins",
			entries: []RationaleEntry{
				{Unit: UnitBLS, Rationale: "minor", Severity: SeverityMedium},
				{Unit: UnitBLS, Rationale: "major", Severity: SeverityCritical},
			},
			want: []RationaleEntry{
				{Unit: UnitBLS, Rationale: "major", Severity: SeverityCritical},
			},
		},
		{
			name: "tie keeps first in input order",
			entries: []RationaleEntry{
				{Unit: UnitPolice, Rationale: "first", Severity: SeverityHigh},
				{Unit: UnitPolice, Rationale: "second", Severity: SeverityHigh},
			},
			want: []RationaleEntry{
				{Unit: UnitPolice, Rationale: "first", Severity: SeverityHigh},
			},
		},
		{
			name: "unit order follows first appearance",
			entries: []RationaleEntry{
				{Unit: UnitFire, Rationale: "a", Severity: SeverityLow},
				{Unit: UnitBLS, Rationale: "b", Severity: SeverityLow},
				{Unit: UnitFire, Rationale: "c", Severity: SeverityCritical},
			},
			want: []RationaleEntry{
				{Unit: UnitFire, Rationale: "c", Severity: SeverityCritical},
				{Unit: UnitBLS, Rationale: "b", Severity: SeverityLow},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Deduplicate(tt.entries)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Deduplicate() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestDeduplicate_OnePerUnitWithMaxSeverity(t *testing.T) {
	entries := []RationaleEntry{
		{Unit: UnitBLS, Rationale: "a", Severity: SeverityLow},
		{Unit: UnitALS, Rationale: "b", Severity: SeverityMedium},
		{Unit: UnitBLS, Rationale: "c", Severity: SeverityHigh},
		{Unit: UnitALS, Rationale: "d", Severity: SeverityLow},
		{Unit: UnitBLS, Rationale: "e", Severity: SeverityMedium},
	}

	got := Deduplicate(entries)

	seen := make(map[UnitKind]int)
	for _, e := range got {
		seen[e.Unit]++
	}
	for unit, n := range seen {
		if n != 1 {
			t.Errorf("unit %q appears %d times, want 1", unit, n)
		}
	}

	for _, e := range got {
		max := SeverityLow
		for _, in := range entries {
			if in.Unit == e.Unit && in.Severity > max {
				max = in.Severity
			}
		}
		if e.Severity != max {
			t.Errorf("unit %q kept severity %v, want max %v", e.Unit, e.Severity, max)
		}
	}
}
