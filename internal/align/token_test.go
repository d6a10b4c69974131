package align_test

import (
	"reflect"
	"testing"

	"github.com/recite-labs/recite/internal/align"
)

func TestTokenize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want []align.Token
	}{
		{
			name: "empty input",
			in:   "",
			want: nil,
		},
		{
			name: "punctuation only",
			in:   "?! … —,,",
			want: nil,
		},
		{
			name: "case folding and punctuation stripping",
			in:   "The YEAR was 1999.",
			want: []align.Token{"the", "year", "was", align.NumToken},
		},
		{
			name: "word numbers and digit numbers collapse alike",
			in:   "twenty dogs, 20 cats",
			want: []align.Token{align.NumToken, "dogs", align.NumToken, "cats"},
		},
		{
			name: "decimal stays one placeholder",
			in:   "pi is 3.14 roughly",
			want: []align.Token{"pi", "is", align.NumToken, "roughly"},
		},
		{
			name: "comma separator inside number",
			in:   "about 1,5 litres",
			want: []align.Token{"about", align.NumToken, "litres"},
		},
		{
			name: "interior apostrophe kept",
			in:   "don't worry",
			want: []align.Token{"don't", "worry"},
		},
		{
			name: "quote marks trimmed from word runs",
			in:   "'hello' she said",
			want: []align.Token{"hello", "she", "said"},
		},
		{
			name: "multi-word numbers stay separate placeholders",
			in:   "twenty three birds",
			want: []align.Token{align.NumToken, align.NumToken, "birds"},
		},
		{
			name: "non-ascii letters dropped",
			in:   "café communiqué",
			want: []align.Token{"caf", "communiqu"},
		},
		{
			name: "digits glued to letters split apart",
			in:   "room101",
			want: []align.Token{"room", align.NumToken},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := align.Tokenize(tt.in)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Tokenize(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestTokenizeWords_KeepsWrittenForm(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		in        string
		wantToks  []align.Token
		wantWords []string
	}{
		{
			name:      "digits keep their written form",
			in:        "Read page 20 aloud.",
			wantToks:  []align.Token{"read", "page", align.NumToken, "aloud"},
			wantWords: []string{"read", "page", "20", "aloud"},
		},
		{
			name:      "number words keep their spelling",
			in:        "twenty three birds",
			wantToks:  []align.Token{align.NumToken, align.NumToken, "birds"},
			wantWords: []string{"twenty", "three", "birds"},
		},
		{
			name:      "decimal survives as one word",
			in:        "pi is 3.14",
			wantToks:  []align.Token{"pi", "is", align.NumToken},
			wantWords: []string{"pi", "is", "3.14"},
		},
		{
			name:      "empty input",
			in:        "",
			wantToks:  nil,
			wantWords: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			toks, words := align.TokenizeWords(tt.in)
			if !reflect.DeepEqual(toks, tt.wantToks) {
				t.Errorf("tokens = %v, want %v", toks, tt.wantToks)
			}
			if !reflect.DeepEqual(words, tt.wantWords) {
				t.Errorf("words = %v, want %v", words, tt.wantWords)
			}
		})
	}
}

func TestTokenize_Idempotent(t *testing.T) {
	t.Parallel()

	// Tokenizing already-normalised text must be a fixed point.
	inputs := []string{
		"the year was <num>",
		"don't stop",
		"good morning class",
	}
	for _, in := range inputs {
		first := align.Tokenize(in)
		again := align.Tokenize(joinBack(first))
		if !reflect.DeepEqual(first, again) {
			t.Errorf("Tokenize not idempotent for %q: first %v, again %v", in, first, again)
		}
	}
}

func joinBack(tokens []align.Token) string {
	out := ""
	for i, tok := range tokens {
		if i > 0 {
			out += " "
		}
		out += string(tok)
	}
	return out
}
