// Package align implements the text normalisation and sequence-alignment
// scoring engine behind Recite's pronunciation feedback.
//
// Scoring is a two-step pure-function pipeline:
//
//  1. [Tokenize] converts raw text into canonical comparison tokens —
//     case-folded, punctuation-stripped, with digit sequences and spelled-out
//     number words collapsed into a single placeholder class so that "20" and
//     "twenty" compare equal.
//
//  2. [Score] aligns the reference token sequence against the transcript
//     token sequence, derives a 0–100 match percentage, and classifies every
//     discrepancy as a replaced, dropped, or inserted span.
//
// Both entry points are total functions over any pair of strings: malformed
// or empty input degrades to an empty token sequence or a zero score, never
// an error. All values are owned by the caller; the package holds no state
// and is safe for concurrent use.
package align

import (
	"strings"
)

// Token is a single normalised comparison unit: either a lowercase ASCII word
// (letters and interior apostrophes) or the [NumToken] placeholder.
type Token string

// NumToken is the canonical placeholder every digit sequence and spelled-out
// number word collapses into, so that written and spoken numerals align.
const NumToken Token = "<num>"

// numberWords is the fixed vocabulary of spelled-out numbers that normalise
// to [NumToken]: zero through nineteen, the tens, and the magnitude words.
// Multi-word numbers are deliberately NOT merged — "twenty three" becomes two
// placeholder tokens. Merging would change token counts and therefore scores
// for any passage containing multi-word numbers.
var numberWords = map[Token]struct{}{
	"zero": {}, "one": {}, "two": {}, "three": {}, "four": {},
	"five": {}, "six": {}, "seven": {}, "eight": {}, "nine": {},
	"ten": {}, "eleven": {}, "twelve": {}, "thirteen": {}, "fourteen": {},
	"fifteen": {}, "sixteen": {}, "seventeen": {}, "eighteen": {}, "nineteen": {},
	"twenty": {}, "thirty": {}, "forty": {}, "fifty": {},
	"sixty": {}, "seventy": {}, "eighty": {}, "ninety": {},
	"hundred": {}, "thousand": {}, "million": {}, "billion": {},
}

// Tokenize converts text into its ordered sequence of comparison tokens.
//
// The input is lowercased, maximal digit runs (with an optional single
// decimal or group separator, as in "3.14" or "1,5") collapse into
// [NumToken], then maximal runs of ASCII letters and apostrophes are
// extracted as word tokens; every other character is a separator and
// produces no token. Word tokens matching the number-word vocabulary are
// replaced by [NumToken].
//
// Empty or punctuation-only input yields a nil slice. Letters outside plain
// a–z (accented or otherwise non-ASCII) are not matched by the word-run
// extraction and are silently dropped.
func Tokenize(text string) []Token {
	tokens, _ := TokenizeWords(text)
	return tokens
}

// TokenizeWords tokenises like [Tokenize] and additionally returns, aligned
// 1:1 with the tokens, the lowercased source word each token came from. For
// [NumToken] entries the source keeps the digits or number word as written
// ("20", "twenty"), which is what display text and speech prompts need
// instead of the placeholder.
func TokenizeWords(text string) ([]Token, []string) {
	s := strings.ToLower(text)

	var tokens []Token
	var words []string
	for i := 0; i < len(s); {
		if strings.HasPrefix(s[i:], string(NumToken)) {
			// Already-normalised text round-trips unchanged.
			tokens = append(tokens, NumToken)
			words = append(words, string(NumToken))
			i += len(NumToken)
			continue
		}
		if isDigit(s[i]) {
			j := digitRunEnd(s, i)
			tokens = append(tokens, NumToken)
			words = append(words, s[i:j])
			i = j
			continue
		}
		if !isWordByte(s[i]) {
			i++
			continue
		}
		j := i
		for j < len(s) && isWordByte(s[j]) {
			j++
		}
		if w, ok := wordToken(s[i:j]); ok {
			tokens = append(tokens, w)
			words = append(words, strings.Trim(s[i:j], "'"))
		}
		i = j
	}
	return tokens, words
}

// isWordByte reports whether b may appear in a word run.
func isWordByte(b byte) bool {
	return (b >= 'a' && b <= 'z') || b == '\''
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

// digitRunEnd returns the end of the maximal digit run starting at i,
// admitting one interior decimal or group separator ("1999", "3.14", "1,5").
func digitRunEnd(s string, i int) int {
	j := i
	for j < len(s) && isDigit(s[j]) {
		j++
	}
	if j+1 < len(s) && (s[j] == '.' || s[j] == ',') && isDigit(s[j+1]) {
		j++
		for j < len(s) && isDigit(s[j]) {
			j++
		}
	}
	return j
}

// wordToken canonicalises one extracted run: stray apostrophes at either end
// are trimmed so only interior ones survive ("don't" keeps its apostrophe, a
// quote mark alone yields nothing), and number words collapse to [NumToken].
func wordToken(run string) (Token, bool) {
	run = strings.Trim(run, "'")
	if run == "" {
		return "", false
	}
	t := Token(run)
	if _, ok := numberWords[t]; ok {
		return NumToken, true
	}
	return t, true
}

// joinTokens renders a token span as display text, space-separated.
func joinTokens(tokens []Token) string {
	parts := make([]string, len(tokens))
	for i, t := range tokens {
		parts[i] = string(t)
	}
	return strings.Join(parts, " ")
}
