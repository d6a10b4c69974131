package practice_test

import (
	"testing"

	"github.com/recite-labs/recite/internal/align"
	"github.com/recite-labs/recite/internal/practice"
)

func TestBuildDrills_SingleBadSpan(t *testing.T) {
	t.Parallel()
	res := align.Score("the quick brown fox jumps", "the quick brown dog jumps")

	drills := practice.BuildDrills(res, 0)
	if len(drills) != 1 {
		t.Fatalf("got %d drills, want 1: %+v", len(drills), drills)
	}
	if drills[0].Focus != "fox" {
		t.Errorf("focus = %q, want %q", drills[0].Focus, "fox")
	}
	if drills[0].Phrase != "brown fox jumps" {
		t.Errorf("phrase = %q, want %q", drills[0].Phrase, "brown fox jumps")
	}
}

func TestBuildDrills_SpanAtEdges(t *testing.T) {
	t.Parallel()
	// First and last reference tokens misread; context only extends inward.
	res := align.Score("objection sustained your honor", "rejection sustained your armor")

	drills := practice.BuildDrills(res, 0)
	if len(drills) != 2 {
		t.Fatalf("got %d drills, want 2: %+v", len(drills), drills)
	}
	if drills[0].Phrase != "objection sustained" {
		t.Errorf("drill[0].Phrase = %q, want %q", drills[0].Phrase, "objection sustained")
	}
	if drills[1].Phrase != "your honor" {
		t.Errorf("drill[1].Phrase = %q, want %q", drills[1].Phrase, "your honor")
	}
}

func TestBuildDrills_NumbersKeepWrittenForm(t *testing.T) {
	t.Parallel()
	// A misread next to a numeral must not leak the number placeholder into
	// the drill phrase, which is later spoken back by synthesis.
	res := align.Score("read page 20 aloud", "read playing twenty two aloud")

	drills := practice.BuildDrills(res, 0)
	if len(drills) != 1 {
		t.Fatalf("got %d drills, want 1: %+v", len(drills), drills)
	}
	if drills[0].Focus != "page" {
		t.Errorf("focus = %q, want %q", drills[0].Focus, "page")
	}
	if drills[0].Phrase != "read page 20" {
		t.Errorf("phrase = %q, want %q", drills[0].Phrase, "read page 20")
	}
}

func TestBuildDrills_DroppedNumberFocus(t *testing.T) {
	t.Parallel()
	res := align.Score("wait 10 minutes", "wait minutes")

	drills := practice.BuildDrills(res, 0)
	if len(drills) != 1 {
		t.Fatalf("got %d drills, want 1: %+v", len(drills), drills)
	}
	if drills[0].Focus != "10" {
		t.Errorf("focus = %q, want %q", drills[0].Focus, "10")
	}
	if drills[0].Phrase != "wait 10 minutes" {
		t.Errorf("phrase = %q, want %q", drills[0].Phrase, "wait 10 minutes")
	}
}

func TestBuildDrills_PerfectAttempt(t *testing.T) {
	t.Parallel()
	res := align.Score("good morning", "good morning")

	drills := practice.BuildDrills(res, 0)
	if len(drills) != 0 {
		t.Fatalf("got %d drills for a perfect attempt, want 0", len(drills))
	}
}

func TestBuildDrills_InsertionsProduceNoDrills(t *testing.T) {
	t.Parallel()
	// Extra spoken words have no reference span to re-practice.
	res := align.Score("good morning", "oh good morning class")

	drills := practice.BuildDrills(res, 0)
	if len(drills) != 0 {
		t.Fatalf("got %d drills, want 0: %+v", len(drills), drills)
	}
}

func TestBuildDrills_Limit(t *testing.T) {
	t.Parallel()
	res := align.Score("alpha beta gamma delta epsilon", "alpha wrong gamma wrong epsilon")

	drills := practice.BuildDrills(res, 1)
	if len(drills) != 1 {
		t.Fatalf("got %d drills, want 1 (limit)", len(drills))
	}
}

func TestBuildDrills_Deduplicates(t *testing.T) {
	t.Parallel()
	// The same misread span in two places yields one drill.
	res := align.Result{
		ReferenceTokens: []align.Token{"say", "precise", "again", "say", "precise", "again"},
		Marks: []align.Mark{
			align.MarkOK, align.MarkBad, align.MarkOK,
			align.MarkOK, align.MarkBad, align.MarkOK,
		},
	}

	drills := practice.BuildDrills(res, 0)
	if len(drills) != 1 {
		t.Fatalf("got %d drills, want 1 after dedup: %+v", len(drills), drills)
	}
	if drills[0].Phrase != "say precise again" {
		t.Errorf("phrase = %q", drills[0].Phrase)
	}
}
