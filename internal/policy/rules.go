package policy

import (
	"regexp"
	"strings"
)

// Keywords compiles a list of words and phrases into a case-insensitive
// whole-word matcher. Phrases match literally, so "car accident" will
// not fire on "scar accident".
func Keywords(words ...string) func(string) bool {
	parts := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.TrimSpace(w)
		if w == "" {
			continue
		}
		parts = append(parts, regexp.QuoteMeta(w))
	}
	if len(parts) == 0 {
		return func(string) bool { return false }
	}
	re := regexp.MustCompile(`(?i)\b(?:` + strings.Join(parts, `|`) + `)\b`)
	return re.MatchString
}

// DefaultRules returns the built-in triage rule table. The order is
// stable: it decides unit ordering in evaluator output and the
// first-encountered tie-break during deduplication.
func DefaultRules() []Rule {
	return []Rule{
		{
			ID:        "cardiac-arrest",
			Match:     Keywords("not breathing", "no pulse", "cardiac arrest", "heart stopped", "cpr"),
			Units:     []UnitKind{UnitBLS, UnitALS},
			Severity:  SeverityCritical,
			Rationale: "caller reports signs of cardiac arrest",
			Critical:  true,
		},
		{
			ID:        "breathing-difficulty",
			Match:     Keywords("can't breathe", "cant breathe", "trouble breathing", "difficulty breathing", "short of breath", "gasping"),
			Units:     []UnitKind{UnitBLS, UnitALS},
			Severity:  SeverityHigh,
			Rationale: "respiratory distress",
		},
		{
			ID:        "choking",
			Match:     Keywords("choking", "choked", "something stuck in throat"),
			Units:     []UnitKind{UnitBLS},
			Severity:  SeverityHigh,
			Rationale: "possible airway obstruction",
		},
		{
			ID:        "unconscious",
			Match:     Keywords("unconscious", "unresponsive", "passed out", "fainted", "won't wake up", "wont wake up"),
			Units:     []UnitKind{UnitBLS, UnitALS},
			Severity:  SeverityHigh,
			Rationale: "patient unconscious or unresponsive",
		},
		{
			ID:        "chest-pain",
			Match:     Keywords("chest pain", "chest pressure", "heart attack"),
			Units:     []UnitKind{UnitBLS, UnitALS},
			Severity:  SeverityHigh,
			Rationale: "possible cardiac event",
		},
		{
			ID:        "stroke",
			Match:     Keywords("stroke", "face drooping", "slurred speech", "can't move one side", "numb on one side"),
			Units:     []UnitKind{UnitBLS, UnitALS},
			Severity:  SeverityHigh,
			Rationale: "possible stroke",
		},
		{
			ID:        "severe-bleeding",
			Match:     Keywords("bleeding out", "severe bleeding", "bleeding badly", "blood everywhere", "won't stop bleeding"),
			Units:     []UnitKind{UnitBLS, UnitALS},
			Severity:  SeverityHigh,
			Rationale: "uncontrolled bleeding",
		},
		{
			ID:        "overdose",
			Match:     Keywords("overdose", "overdosed", "took too many pills", "poisoned", "poisoning"),
			Units:     []UnitKind{UnitBLS, UnitALS},
			Severity:  SeverityHigh,
			Rationale: "suspected overdose or poisoning",
		},
		{
			ID:        "general-injury",
			Match:     Keywords("fell", "fall", "hurt", "injured", "injury", "broken", "twisted", "bleeding"),
			Units:     []UnitKind{UnitBLS},
			Severity:  SeverityMedium,
			Rationale: "reported injury",
		},
		{
			ID:        "structure-fire",
			Match:     Keywords("fire", "flames", "smoke", "burning", "on fire", "house is on fire"),
			Units:     []UnitKind{UnitFire, UnitBLS},
			Severity:  SeverityCritical,
			Rationale: "active fire reported",
			Critical:  true,
		},
		{
			ID:        "entrapment",
			Match:     Keywords("stuck", "trapped", "pinned", "can't get out", "cant get out"),
			Units:     []UnitKind{UnitFire, UnitBLS},
			Severity:  SeverityHigh,
			Rationale: "person trapped, extrication may be needed",
		},
		{
			ID:        "gas-leak",
			Match:     Keywords("gas leak", "smell gas", "smells like gas", "carbon monoxide"),
			Units:     []UnitKind{UnitFire},
			Severity:  SeverityHigh,
			Rationale: "possible hazardous gas",
		},
		{
			ID:        "drowning",
			Match:     Keywords("drowning", "drowned", "under the water", "fell in the river", "fell in the lake"),
			Units:     []UnitKind{UnitFire, UnitBLS, UnitALS},
			Severity:  SeverityCritical,
			Rationale: "possible drowning, water rescue needed",
			Critical:  true,
		},
		{
			ID:        "traffic-collision",
			Match:     Keywords("car accident", "car crash", "vehicle collision", "traffic accident", "hit by a car", "rear-ended", "rollover", "motorcycle accident"),
			Units:     []UnitKind{UnitPolice, UnitFire, UnitBLS},
			Severity:  SeverityMedium,
			Rationale: "traffic collision reported",
		},
		{
			ID:        "shooting",
			Match:     Keywords("shots fired", "shooting", "shot", "gunshot", "stabbed", "stabbing"),
			Units:     []UnitKind{UnitPolice, UnitBLS, UnitALS},
			Severity:  SeverityCritical,
			Rationale: "penetrating trauma, scene may be unsafe",
			Critical:  true,
		},
		{
			ID:        "weapon-threat",
			Match:     Keywords("gun", "knife", "armed", "weapon", "threatening us"),
			Units:     []UnitKind{UnitPolice},
			Severity:  SeverityHigh,
			Rationale: "weapon reported on scene",
		},
		{
			ID:        "active-shooter",
			Match:     Keywords("active shooter", "hostage", "hostages", "barricaded"),
			Units:     []UnitKind{UnitTactical, UnitPolice},
			Severity:  SeverityCritical,
			Rationale: "tactical threat in progress",
			Critical:  true,
		},
		{
			ID:        "assault",
			Match:     Keywords("assault", "assaulted", "attacked", "attacking", "beat up", "fighting"),
			Units:     []UnitKind{UnitPolice, UnitBLS},
			Severity:  SeverityMedium,
			Rationale: "physical altercation reported",
		},
		{
			ID:        "burglary",
			Match:     Keywords("break in", "breaking in", "broke into", "burglar", "robbery", "robbed", "intruder", "someone in my house"),
			Units:     []UnitKind{UnitPolice},
			Severity:  SeverityMedium,
			Rationale: "property crime reported",
		},
	}
}
