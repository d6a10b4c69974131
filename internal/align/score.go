package align

// Sentinel span texts used in [Mismatch] records. Callers rendering
// mismatches should recognise these literals and substitute their own
// presentation when needed.
const (
	// ExtraSentinel is the reference-side text of an insert mismatch — the
	// speaker said something the passage never asked for.
	ExtraSentinel = "(extra)"

	// MissingSentinel is the hypothesis-side text of a delete mismatch —
	// nothing was heard where the passage expected words.
	MissingSentinel = "(missing)"
)

// Mark tags one reference token for highlighting.
type Mark uint8

const (
	// MarkOK — the token sits inside an equal span; it was read correctly.
	MarkOK Mark = iota

	// MarkBad — the token sits inside a replace or delete span.
	MarkBad
)

// String returns "ok" or "bad".
func (m Mark) String() string {
	if m == MarkBad {
		return "bad"
	}
	return "ok"
}

// Mismatch is one reference/hypothesis discrepancy derived from a non-equal
// alignment opcode.
type Mismatch struct {
	// Kind is OpReplace, OpDelete, or OpInsert. Equal spans produce no record.
	Kind OpKind `json:"kind"`

	// Reference is the space-joined reference span text, or [ExtraSentinel]
	// for an insert (which has no reference span).
	Reference string `json:"reference"`

	// Hypothesis is the space-joined hypothesis span text, or
	// [MissingSentinel] for a delete (nothing was heard).
	Hypothesis string `json:"hypothesis"`

	// Closeness grades how near the spoken span was to the reference span.
	// Only replace mismatches carry a grade; see [Closeness].
	Closeness Closeness `json:"closeness,omitempty"`
}

// Result is the complete outcome of one [Score] call. All fields are plain
// values owned by the caller; nothing is retained by the package.
type Result struct {
	// Score is the match percentage in [0, 100]: the share of reference
	// tokens covered by equal alignment spans.
	Score float64

	// Mismatches lists every non-equal span left to right in reference order.
	Mismatches []Mismatch

	// ReferenceTokens and HypothesisTokens are the tokenised inputs.
	ReferenceTokens  []Token
	HypothesisTokens []Token

	// ReferenceWords holds, aligned 1:1 with ReferenceTokens, the lowercased
	// source word each reference token came from. Number placeholders keep
	// their written form ("20", "twenty"), so spans rebuilt from these words
	// are safe to display or speak.
	ReferenceWords []string

	// Marks tags each reference token ok or bad, aligned 1:1 with
	// ReferenceTokens. Insert spans mark nothing — they have no reference
	// tokens.
	Marks []Mark
}

// Score tokenises both texts, aligns the sequences, and grades the attempt.
//
// An empty reference short-circuits to a zero score with no mismatches and no
// marks; the hypothesis is still tokenised so callers can display what was
// heard. Score never fails: any two strings produce a well-formed [Result].
func Score(referenceText, hypothesisText string) Result {
	ref, refWords := TokenizeWords(referenceText)
	hyp := Tokenize(hypothesisText)

	res := Result{
		Mismatches:       []Mismatch{},
		ReferenceTokens:  ref,
		HypothesisTokens: hyp,
		ReferenceWords:   refWords,
	}
	if len(ref) == 0 {
		return res
	}

	res.Marks = make([]Mark, len(ref))
	matched := 0
	for _, op := range Diff(ref, hyp) {
		switch op.Kind {
		case OpEqual:
			matched += op.RefHi - op.RefLo
		case OpReplace:
			markBad(res.Marks, op)
			res.Mismatches = append(res.Mismatches, Mismatch{
				Kind:       OpReplace,
				Reference:  joinTokens(ref[op.RefLo:op.RefHi]),
				Hypothesis: joinTokens(hyp[op.HypLo:op.HypHi]),
				Closeness:  classifyCloseness(ref[op.RefLo:op.RefHi], hyp[op.HypLo:op.HypHi]),
			})
		case OpDelete:
			markBad(res.Marks, op)
			res.Mismatches = append(res.Mismatches, Mismatch{
				Kind:       OpDelete,
				Reference:  joinTokens(ref[op.RefLo:op.RefHi]),
				Hypothesis: MissingSentinel,
			})
		case OpInsert:
			res.Mismatches = append(res.Mismatches, Mismatch{
				Kind:       OpInsert,
				Reference:  ExtraSentinel,
				Hypothesis: joinTokens(hyp[op.HypLo:op.HypHi]),
			})
		}
	}

	res.Score = 100 * float64(matched) / float64(max(1, len(ref)))
	return res
}

func markBad(marks []Mark, op Op) {
	for i := op.RefLo; i < op.RefHi; i++ {
		marks[i] = MarkBad
	}
}
