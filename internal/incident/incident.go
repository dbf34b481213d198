package incident

import (
	"strings"

	"github.com/sirenlab/calltriage/internal/policy"
)

// State is the accumulated understanding of one live call: the running
// transcript plus the current recommendation derived from it. Exactly
// one State exists per session and only that session's coordinator
// touches it, so it carries no locking.
type State struct {
	transcript string
	units      []policy.UnitKind
	rationales []policy.RationaleEntry
	severity   policy.Severity
}

// Snapshot is a point-in-time copy of a State's recommendation, safe
// to hand across the transport boundary.
type Snapshot struct {
	Transcript string
	Units      []policy.UnitKind
	Rationales []policy.RationaleEntry
	Severity   policy.Severity
}

func NewState() *State {
	return &State{}
}

// AppendTranscript joins a trimmed text segment onto the running
// transcript. Empty or whitespace-only segments leave the state
// untouched; the return value reports whether anything was added.
func (s *State) AppendTranscript(segment string) bool {
	segment = strings.TrimSpace(segment)
	if segment == "" {
		return false
	}
	if s.transcript == "" {
		s.transcript = segment
	} else {
		s.transcript += " " + segment
	}
	return true
}

func (s *State) Transcript() string {
	return s.transcript
}

func (s *State) Severity() policy.Severity {
	return s.severity
}

// SetRecommendations replaces the recommended unit set and rationale
// list wholesale. Severity changes only when a value is supplied.
func (s *State) SetRecommendations(units []policy.UnitKind, entries []policy.RationaleEntry, severity *policy.Severity) {
	s.units = append([]policy.UnitKind(nil), units...)
	s.rationales = append([]policy.RationaleEntry(nil), entries...)
	if severity != nil {
		s.severity = *severity
	}
}

// Snapshot copies the current recommendation. Later mutation of the
// state never shows through the returned value.
func (s *State) Snapshot() Snapshot {
	return Snapshot{
		Transcript: s.transcript,
		Units:      append([]policy.UnitKind(nil), s.units...),
		Rationales: append([]policy.RationaleEntry(nil), s.rationales...),
		Severity:   s.severity,
	}
}

// Reset returns the state to its initial empty form, as on session
// teardown or reuse.
func (s *State) Reset() {
	s.transcript = ""
	s.units = nil
	s.rationales = nil
	s.severity = policy.SeverityLow
}
