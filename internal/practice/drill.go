package practice

import (
	"github.com/recite-labs/recite/internal/align"
)

// Drill is one short re-practice phrase derived from a scored attempt.
type Drill struct {
	// Phrase is the snippet to read again: the misread span with one correct
	// word of context on each side.
	Phrase string `json:"phrase"`

	// Focus is the misread reference span itself.
	Focus string `json:"focus"`
}

// BuildDrills derives drill phrases from the bad reference spans of a scored
// attempt. Each contiguous run of bad tokens becomes one drill, padded with
// one correctly-read token on each side so the snippet is speakable in
// isolation. Phrases are rebuilt from the original reference words, not the
// normalised tokens, so numbers keep their written form instead of the
// placeholder and the result is safe to hand to speech synthesis. Drills
// appear in reference order, de-duplicated by phrase. limit caps the number
// of drills; limit <= 0 means no cap.
func BuildDrills(res align.Result, limit int) []Drill {
	drills := []Drill{}
	seen := make(map[string]bool)

	marks := res.Marks
	for i := 0; i < len(marks); {
		if marks[i] != align.MarkBad {
			i++
			continue
		}

		// Extend over the contiguous bad run.
		lo := i
		for i < len(marks) && marks[i] == align.MarkBad {
			i++
		}
		hi := i

		focus := joinRange(res, lo, hi)

		// One token of correct context on each side, when available.
		phraseLo, phraseHi := lo, hi
		if phraseLo > 0 {
			phraseLo--
		}
		if phraseHi < len(res.ReferenceTokens) {
			phraseHi++
		}
		phrase := joinRange(res, phraseLo, phraseHi)

		if seen[phrase] {
			continue
		}
		seen[phrase] = true
		drills = append(drills, Drill{Phrase: phrase, Focus: focus})
		if limit > 0 && len(drills) == limit {
			break
		}
	}
	return drills
}

func joinRange(res align.Result, lo, hi int) string {
	s := ""
	for i := lo; i < hi; i++ {
		if s != "" {
			s += " "
		}
		s += refWord(res, i)
	}
	return s
}

// refWord returns the source word for reference token i, falling back to the
// token text when the result carries no captured words (hand-built results).
func refWord(res align.Result, i int) string {
	if i < len(res.ReferenceWords) {
		return res.ReferenceWords[i]
	}
	return string(res.ReferenceTokens[i])
}
