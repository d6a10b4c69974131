package coach_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/recite-labs/recite/internal/align"
	"github.com/recite-labs/recite/internal/coach"
	llmmock "github.com/recite-labs/recite/pkg/provider/llm/mock"
)

func TestCoach_Tip(t *testing.T) {
	t.Parallel()
	mock := llmmock.New("Try breaking 'evidentiary' into syllables: ev-i-DEN-shi-ary. You're close!")
	c := coach.New(mock)

	res := align.Score("the evidentiary hearing", "the evidentary hearing")
	tip, err := c.Tip(t.Context(), "the evidentiary hearing", res)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tip == "" {
		t.Fatal("expected a tip, got empty string")
	}

	if len(mock.Requests) != 1 {
		t.Fatalf("provider called %d times, want 1", len(mock.Requests))
	}
	req := mock.Requests[0]
	if req.SystemPrompt == "" {
		t.Error("request missing system prompt")
	}
	if len(req.Messages) != 1 || req.Messages[0].Role != "user" {
		t.Fatalf("unexpected messages: %+v", req.Messages)
	}
	content := req.Messages[0].Content
	if !strings.Contains(content, "evidentiary") {
		t.Errorf("prompt should name the misread word, got: %s", content)
	}
	if !strings.Contains(content, "nearly right") {
		t.Errorf("prompt should carry the closeness grade, got: %s", content)
	}
}

func TestCoach_Tip_PerfectAttemptSkipsProvider(t *testing.T) {
	t.Parallel()
	mock := llmmock.New("should never be asked")
	c := coach.New(mock)

	res := align.Score("good morning", "good morning")
	tip, err := c.Tip(t.Context(), "good morning", res)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tip != "" {
		t.Errorf("tip = %q, want empty for a perfect attempt", tip)
	}
	if len(mock.Requests) != 0 {
		t.Errorf("provider called %d times, want 0", len(mock.Requests))
	}
}

func TestCoach_Tip_Disabled(t *testing.T) {
	t.Parallel()
	c := coach.New(nil)
	if c.Enabled() {
		t.Error("coach with nil provider should not be enabled")
	}

	res := align.Score("a b", "a c")
	_, err := c.Tip(t.Context(), "a b", res)
	if !errors.Is(err, coach.ErrDisabled) {
		t.Fatalf("err = %v, want ErrDisabled", err)
	}
}

func TestCoach_Tip_ProviderError(t *testing.T) {
	t.Parallel()
	mock := &llmmock.Provider{Err: errors.New("rate limited")}
	c := coach.New(mock)

	res := align.Score("a b", "a c")
	_, err := c.Tip(t.Context(), "a b", res)
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !strings.Contains(err.Error(), "coach:") {
		t.Errorf("error should be wrapped with package prefix, got: %v", err)
	}
}
