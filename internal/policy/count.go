package policy

import (
	"regexp"
	"strconv"
	"strings"
)

// MinCountTranscript is the minimum transcript length, in bytes,
// before the victim-count heuristic is applied. Shorter transcripts
// rarely carry enough context for the count to mean anything.
const MinCountTranscript = 24

var numberWords = map[string]int{
	"one": 1, "two": 2, "three": 3, "four": 4,
	"five": 5, "six": 6, "seven": 7, "eight": 8,
	"nine": 9, "ten": 10, "eleven": 11, "twelve": 12,
}

// countPattern matches a count (digits or a spelled-out number) right
// before a victim noun, e.g. "three people", "2 patients".
var countPattern = regexp.MustCompile(
	`(?i)\b(\d{1,2}|one|two|three|four|five|six|seven|eight|nine|ten|eleven|twelve)\s+` +
		`(?:people|persons?|victims?|patients?|casualt(?:y|ies)|kids?|child(?:ren)?|passengers?|men|women|guys|injured)\b`,
)

// SuggestVictimCount infers how many victims or patients a transcript
// mentions. The second return value reports whether a count was found;
// transcripts shorter than MinCountTranscript never produce one. When
// several counts appear the largest wins.
func SuggestVictimCount(transcript string) (int, bool) {
	if len(transcript) < MinCountTranscript {
		return 0, false
	}

	best := 0
	for _, m := range countPattern.FindAllStringSubmatch(transcript, -1) {
		word := strings.ToLower(m[1])
		n, ok := numberWords[word]
		if !ok {
			parsed, err := strconv.Atoi(word)
			if err != nil {
				continue
			}
			n = parsed
		}
		if n > best {
			best = n
		}
	}
	if best == 0 {
		return 0, false
	}
	return best, true
}
