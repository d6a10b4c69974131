package align

import "sort"

// OpKind classifies one contiguous span relationship between the reference
// and hypothesis token sequences.
type OpKind string

const (
	// OpEqual is a maximal run of identical tokens present in both sequences.
	OpEqual OpKind = "equal"

	// OpReplace is a reference span aligned with a differing hypothesis span
	// of possibly different length.
	OpReplace OpKind = "replace"

	// OpDelete is a reference span with no corresponding hypothesis tokens —
	// words the speaker omitted.
	OpDelete OpKind = "delete"

	// OpInsert is a hypothesis span with no corresponding reference tokens —
	// extraneous spoken words.
	OpInsert OpKind = "insert"
)

// Op describes one opcode of the alignment partition. The half-open index
// ranges [RefLo, RefHi) and [HypLo, HypHi) address the reference and
// hypothesis token sequences respectively; for OpDelete the hypothesis range
// is empty, for OpInsert the reference range is empty.
type Op struct {
	Kind  OpKind
	RefLo int
	RefHi int
	HypLo int
	HypHi int
}

// Diff computes the opcode partition of ref against hyp: an ordered, gap-free
// sequence of [Op] values that covers both sequences completely.
//
// The algorithm is the classic longest-common-block recursion: find the
// longest contiguous run of tokens common to both sequences, keep it as an
// equal block, and repeat on the stretches before and after it. Gaps between
// equal blocks become replace, delete, or insert opcodes depending on which
// side has leftover tokens.
func Diff(ref, hyp []Token) []Op {
	blocks := matchingBlocks(ref, hyp)

	var ops []Op
	ri, hi := 0, 0
	for _, b := range blocks {
		// Leftover tokens before this block form a non-equal opcode.
		switch {
		case ri < b.ref && hi < b.hyp:
			ops = append(ops, Op{OpReplace, ri, b.ref, hi, b.hyp})
		case ri < b.ref:
			ops = append(ops, Op{OpDelete, ri, b.ref, hi, hi})
		case hi < b.hyp:
			ops = append(ops, Op{OpInsert, ri, ri, hi, b.hyp})
		}
		if b.size > 0 {
			ops = append(ops, Op{OpEqual, b.ref, b.ref + b.size, b.hyp, b.hyp + b.size})
		}
		ri, hi = b.ref+b.size, b.hyp+b.size
	}
	return ops
}

// block is one maximal matching run: ref[ref:ref+size] == hyp[hyp:hyp+size].
type block struct {
	ref, hyp, size int
}

// matchingBlocks returns all maximal common blocks in ascending order,
// terminated by a zero-length sentinel at (len(ref), len(hyp)) so that
// [Diff] emits trailing non-equal opcodes.
func matchingBlocks(ref, hyp []Token) []block {
	type span struct{ rlo, rhi, hlo, hhi int }

	var blocks []block
	queue := []span{{0, len(ref), 0, len(hyp)}}
	for len(queue) > 0 {
		s := queue[len(queue)-1]
		queue = queue[:len(queue)-1]

		b := longestBlock(ref, hyp, s.rlo, s.rhi, s.hlo, s.hhi)
		if b.size == 0 {
			continue
		}
		blocks = append(blocks, b)
		queue = append(queue,
			span{s.rlo, b.ref, s.hlo, b.hyp},
			span{b.ref + b.size, s.rhi, b.hyp + b.size, s.hhi},
		)
	}

	sort.Slice(blocks, func(i, j int) bool {
		if blocks[i].ref != blocks[j].ref {
			return blocks[i].ref < blocks[j].ref
		}
		return blocks[i].hyp < blocks[j].hyp
	})

	// Merge adjacent blocks so equal runs are maximal.
	merged := blocks[:0]
	for _, b := range blocks {
		if n := len(merged); n > 0 &&
			merged[n-1].ref+merged[n-1].size == b.ref &&
			merged[n-1].hyp+merged[n-1].size == b.hyp {
			merged[n-1].size += b.size
			continue
		}
		merged = append(merged, b)
	}

	return append(merged, block{len(ref), len(hyp), 0})
}

// longestBlock finds the longest run of tokens common to ref[rlo:rhi] and
// hyp[hlo:hhi]. Ties break toward the earliest reference position, then the
// earliest hypothesis position, keeping the partition canonical.
func longestBlock(ref, hyp []Token, rlo, rhi, hlo, hhi int) block {
	best := block{ref: rlo, hyp: hlo}

	// runs[h] is the length of the common run ending at ref[r] and hyp[h].
	runs := make(map[int]int)
	for r := rlo; r < rhi; r++ {
		next := make(map[int]int)
		for h := hlo; h < hhi; h++ {
			if ref[r] != hyp[h] {
				continue
			}
			k := runs[h-1] + 1
			next[h] = k
			if k > best.size {
				best = block{ref: r - k + 1, hyp: h - k + 1, size: k}
			}
		}
		runs = next
	}
	return best
}
