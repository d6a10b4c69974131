package align

import "github.com/antzucaro/matchr"

// Closeness thresholds. A phonetically-overlapping pair only needs moderate
// string similarity to count as a near miss; a pair with no phonetic overlap
// must be very similar on spelling alone.
const (
	phoneticThreshold = 0.70
	fuzzyThreshold    = 0.85
)

// Closeness grades a replace mismatch by how near the spoken span was to the
// reference span. Near misses are usually a single mangled phoneme or an
// accent artefact and make good drill targets; far misses suggest the word
// was not attempted at all.
type Closeness string

const (
	// ClosenessNone — the mismatch kind carries no grade (delete, insert).
	ClosenessNone Closeness = ""

	// ClosenessNear — the spans sound or read almost alike.
	ClosenessNear Closeness = "near"

	// ClosenessFar — the spans share little phonetic or textual similarity.
	ClosenessFar Closeness = "far"
)

// classifyCloseness grades a replace mismatch. A span pair is near when it
// shares at least one Double Metaphone code and scores at least
// phoneticThreshold on Jaro-Winkler, or when Jaro-Winkler alone reaches
// fuzzyThreshold.
func classifyCloseness(refSpan, hypSpan []Token) Closeness {
	refText := joinTokens(refSpan)
	hypText := joinTokens(hypSpan)

	jw := bestSimilarity(refSpan, hypSpan, refText, hypText)

	if codesOverlap(spanCodes(refSpan), spanCodes(hypSpan)) {
		if jw >= phoneticThreshold {
			return ClosenessNear
		}
	} else if jw >= fuzzyThreshold {
		return ClosenessNear
	}
	return ClosenessFar
}

// spanCodes returns the union of all Double Metaphone codes for the span's
// tokens. Empty codes (tokens too short or without consonants) are excluded.
func spanCodes(span []Token) map[string]struct{} {
	codes := make(map[string]struct{}, len(span)*2)
	for _, t := range span {
		p, s := matchr.DoubleMetaphone(string(t))
		if p != "" {
			codes[p] = struct{}{}
		}
		if s != "" {
			codes[s] = struct{}{}
		}
	}
	return codes
}

// codesOverlap reports whether the two code sets share at least one code.
func codesOverlap(a, b map[string]struct{}) bool {
	if len(a) > len(b) {
		a, b = b, a
	}
	for code := range a {
		if _, ok := b[code]; ok {
			return true
		}
	}
	return false
}

// bestSimilarity computes the highest Jaro-Winkler score between the spans,
// comparing the full joined texts and every token pair. The pairwise pass
// handles length-skewed replaces where one mangled word hides inside a longer
// span.
func bestSimilarity(refSpan, hypSpan []Token, refText, hypText string) float64 {
	score := matchr.JaroWinkler(refText, hypText, false)
	for _, rt := range refSpan {
		for _, ht := range hypSpan {
			if s := matchr.JaroWinkler(string(rt), string(ht), false); s > score {
				score = s
			}
		}
	}
	return score
}
