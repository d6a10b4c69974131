// Package coach turns a scored attempt into a short, encouraging
// pronunciation tip using an LLM. The coach is optional: with no provider
// configured, [Coach.Tip] reports that coaching is disabled.
package coach

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/recite-labs/recite/internal/align"
	"github.com/recite-labs/recite/pkg/provider/llm"
	"github.com/recite-labs/recite/pkg/types"
)

// ErrDisabled is returned by [Coach.Tip] when no LLM provider is configured.
var ErrDisabled = errors.New("coach: no llm provider configured")

const systemPrompt = `You are a friendly pronunciation coach for people practicing reading aloud.
Given the target sentence and what the speech recogniser heard, give ONE short tip
(at most two sentences) focused on the most important misread word. Mention the word,
how to approach saying it, and be encouraging. Do not repeat the full sentence back.`

// maxTipTokens bounds the completion so tips stay short.
const maxTipTokens = 120

// Coach generates pronunciation tips from alignment results.
type Coach struct {
	provider llm.Provider
}

// New creates a Coach backed by provider. A nil provider disables coaching.
func New(provider llm.Provider) *Coach {
	return &Coach{provider: provider}
}

// Enabled reports whether an LLM provider is configured.
func (c *Coach) Enabled() bool {
	return c != nil && c.provider != nil
}

// Tip asks the LLM for one short coaching tip about the attempt. A perfect
// attempt (no mismatches) returns "" without calling the provider. Returns
// [ErrDisabled] when no provider is configured.
func (c *Coach) Tip(ctx context.Context, reference string, res align.Result) (string, error) {
	if !c.Enabled() {
		return "", ErrDisabled
	}
	if len(res.Mismatches) == 0 {
		return "", nil
	}

	resp, err := c.provider.Complete(ctx, llm.CompletionRequest{
		SystemPrompt: systemPrompt,
		Messages: []types.Message{
			{Role: "user", Content: buildUserPrompt(reference, res)},
		},
		Temperature: 0.7,
		MaxTokens:   maxTipTokens,
	})
	if err != nil {
		return "", fmt.Errorf("coach: complete: %w", err)
	}
	return strings.TrimSpace(resp.Content), nil
}

// buildUserPrompt renders the attempt for the model: the target text, the
// heard text, and the word-level differences with their closeness grades.
func buildUserPrompt(reference string, res align.Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Target: %s\n", reference)
	fmt.Fprintf(&b, "Heard: %s\n", joinTokens(res.HypothesisTokens))
	fmt.Fprintf(&b, "Score: %.0f/100\n", res.Score)
	b.WriteString("Differences:\n")
	for _, m := range res.Mismatches {
		switch m.Kind {
		case align.OpReplace:
			fmt.Fprintf(&b, "- said %q instead of %q", m.Hypothesis, m.Reference)
			if m.Closeness == align.ClosenessNear {
				b.WriteString(" (close, nearly right)")
			}
			b.WriteByte('\n')
		case align.OpDelete:
			fmt.Fprintf(&b, "- skipped %q\n", m.Reference)
		case align.OpInsert:
			fmt.Fprintf(&b, "- added %q\n", m.Hypothesis)
		}
	}
	return b.String()
}

func joinTokens(tokens []align.Token) string {
	parts := make([]string, len(tokens))
	for i, t := range tokens {
		parts[i] = string(t)
	}
	return strings.Join(parts, " ")
}
