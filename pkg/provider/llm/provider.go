// Package llm defines the Provider interface for Large Language Model
// backends.
//
// Recite uses an LLM for exactly one optional job: turning a scored attempt
// into a short coaching paragraph. The interface is therefore a single
// blocking completion call — no streaming, no tool calling.
//
// Implementations must be safe for concurrent use.
package llm

import (
	"context"

	"github.com/recite-labs/recite/pkg/types"
)

// Usage holds token accounting information returned by the LLM backend.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// CompletionRequest carries everything the LLM needs to produce a response.
// At minimum Messages must be non-empty.
type CompletionRequest struct {
	// Messages is the ordered conversation. The last message is typically
	// from the "user" role and drives the response.
	Messages []types.Message

	// SystemPrompt is an optional high-priority instruction injected before
	// the conversation.
	SystemPrompt string

	// Temperature controls output randomness in [0.0, 2.0]. Zero means use
	// the provider default.
	Temperature float64

	// MaxTokens caps the number of completion tokens. Zero means provider
	// default.
	MaxTokens int
}

// CompletionResponse is the result of a [Provider.Complete] call.
type CompletionResponse struct {
	// Content is the generated text.
	Content string

	// Usage holds token counts when the backend reports them.
	Usage Usage
}

// Provider is the abstraction over any LLM backend.
type Provider interface {
	// Complete performs one blocking completion. Returns a non-nil response
	// on success.
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
}
