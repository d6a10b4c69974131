// Package mock provides a configurable in-memory llm.Provider for tests.
package mock

import (
	"context"
	"sync"

	"github.com/recite-labs/recite/pkg/provider/llm"
)

// Compile-time interface check.
var _ llm.Provider = (*Provider)(nil)

// Provider is a test double for llm.Provider. Safe for concurrent use.
type Provider struct {
	mu sync.Mutex

	// Content is returned by every Complete call.
	Content string

	// Err, when non-nil, is returned instead of Content.
	Err error

	// Requests holds the recorded requests in order.
	Requests []llm.CompletionRequest
}

// New returns a Provider that answers every completion with content.
func New(content string) *Provider {
	return &Provider{Content: content}
}

// Complete implements llm.Provider.
func (p *Provider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.mu.Lock()
	p.Requests = append(p.Requests, req)
	err := p.Err
	content := p.Content
	p.mu.Unlock()

	if err != nil {
		return nil, err
	}
	return &llm.CompletionResponse{Content: content}, nil
}
