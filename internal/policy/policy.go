package policy

import "fmt"

// UnitKind identifies a dispatchable response-resource category.
type UnitKind string

const (
	UnitBLS      UnitKind = "bls"      // basic life support medical
	UnitALS      UnitKind = "als"      // advanced life support medical
	UnitPolice   UnitKind = "police"   // law enforcement
	UnitFire     UnitKind = "fire"     // fire and rescue
	UnitTactical UnitKind = "tactical" // SWAT / tactical response
)

// Units lists every known unit kind in display order.
var Units = []UnitKind{UnitBLS, UnitALS, UnitPolice, UnitFire, UnitTactical}

// ParseUnit converts a string into a known UnitKind.
func ParseUnit(s string) (UnitKind, error) {
	for _, u := range Units {
		if string(u) == s {
			return u, nil
		}
	}
	return "", fmt.Errorf("unknown unit kind: %q", s)
}

// UnmarshalText implements encoding.TextUnmarshaler so unit kinds
// decoded from config or wire payloads are validated on the way in.
func (u *UnitKind) UnmarshalText(text []byte) error {
	parsed, err := ParseUnit(string(text))
	if err != nil {
		return err
	}
	*u = parsed
	return nil
}

// Severity is a totally ordered urgency level. Higher values are more
// urgent; comparisons go through the numeric value, never the name.
type Severity int

const (
	SeverityLow Severity = iota
	SeverityMedium
	SeverityHigh
	SeverityCritical
)

var severityNames = map[Severity]string{
	SeverityLow:      "low",
	SeverityMedium:   "medium",
	SeverityHigh:     "high",
	SeverityCritical: "critical",
}

func (s Severity) String() string {
	if name, ok := severityNames[s]; ok {
		return name
	}
	return fmt.Sprintf("severity(%d)", int(s))
}

// ParseSeverity converts a severity name into its ranked value.
func ParseSeverity(s string) (Severity, error) {
	for sev, name := range severityNames {
		if name == s {
			return sev, nil
		}
	}
	return SeverityLow, fmt.Errorf("unknown severity: %q", s)
}

// MarshalText encodes the severity as its name ("low" .. "critical").
func (s Severity) MarshalText() ([]byte, error) {
	name, ok := severityNames[s]
	if !ok {
		return nil, fmt.Errorf("cannot encode severity %d", int(s))
	}
	return []byte(name), nil
}

func (s *Severity) UnmarshalText(text []byte) error {
	parsed, err := ParseSeverity(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Rule maps transcript text onto recommended unit kinds. Rules are
// immutable once loaded; the evaluator never mutates them.
type Rule struct {
	ID        string
	Match     func(text string) bool
	Units     []UnitKind
	Severity  Severity
	Rationale string
	Critical  bool
}

// RationaleEntry ties one recommended unit kind to the rule text and
// severity that justified it.
type RationaleEntry struct {
	Unit      UnitKind `json:"unit"`
	Rationale string   `json:"rationale"`
	Severity  Severity `json:"severity"`
}
