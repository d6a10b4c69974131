// Package mock provides a configurable in-memory tts.Provider for tests.
package mock

import (
	"context"
	"sync"

	"github.com/recite-labs/recite/pkg/provider/tts"
	"github.com/recite-labs/recite/pkg/types"
)

// Compile-time interface check.
var _ tts.Provider = (*Provider)(nil)

// Provider is a test double for tts.Provider. By default each call returns a
// clip derived from the input text so tests can tell clips apart. Safe for
// concurrent use.
type Provider struct {
	mu sync.Mutex

	// Clip, when non-nil, is returned verbatim by every Synthesize call.
	Clip []byte

	// Err, when non-nil, is returned instead of audio.
	Err error

	// Texts holds the synthesised texts in call order.
	Texts []string
}

// New returns an empty mock provider.
func New() *Provider {
	return &Provider{}
}

// Synthesize implements tts.Provider.
func (p *Provider) Synthesize(ctx context.Context, text string, _ types.VoiceProfile) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.mu.Lock()
	p.Texts = append(p.Texts, text)
	err := p.Err
	clip := p.Clip
	p.mu.Unlock()

	if err != nil {
		return nil, err
	}
	if clip != nil {
		return clip, nil
	}
	return []byte("audio:" + text), nil
}

// CallCount returns the number of Synthesize invocations so far.
func (p *Provider) CallCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.Texts)
}
