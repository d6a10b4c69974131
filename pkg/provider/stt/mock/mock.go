// Package mock provides a configurable in-memory stt.Provider for tests.
package mock

import (
	"context"
	"sync"

	"github.com/recite-labs/recite/pkg/provider/stt"
	"github.com/recite-labs/recite/pkg/types"
)

// Compile-time interface check.
var _ stt.Provider = (*Provider)(nil)

// Call records the arguments of one Transcribe invocation.
type Call struct {
	Audio []byte
	Cfg   stt.RecognizeConfig
}

// Provider is a test double for stt.Provider. Configure Transcript / Err
// before use; Calls accumulates every invocation. Safe for concurrent use.
type Provider struct {
	mu sync.Mutex

	// Transcript is returned by every Transcribe call.
	Transcript types.Transcript

	// Err, when non-nil, is returned instead of Transcript.
	Err error

	// Calls holds the recorded invocations in order.
	Calls []Call
}

// New returns a Provider that transcribes everything as text.
func New(text string) *Provider {
	return &Provider{Transcript: types.Transcript{Text: text, Confidence: 1}}
}

// Transcribe implements stt.Provider.
func (p *Provider) Transcribe(ctx context.Context, audio []byte, cfg stt.RecognizeConfig) (types.Transcript, error) {
	if err := ctx.Err(); err != nil {
		return types.Transcript{}, err
	}

	p.mu.Lock()
	p.Calls = append(p.Calls, Call{Audio: audio, Cfg: cfg})
	err := p.Err
	tr := p.Transcript
	p.mu.Unlock()

	if err != nil {
		return types.Transcript{}, err
	}
	return tr, nil
}

// CallCount returns the number of Transcribe invocations so far.
func (p *Provider) CallCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.Calls)
}
