// Package tts defines the Provider interface for Text-to-Speech backends.
//
// A TTS provider turns one practice phrase into one complete audio clip. The
// client plays the same clip at normal, slow, or fast playbackRate, so a
// single synthesis per (phrase, voice) pair suffices; callers are expected to
// cache clips (see the practice session manager) rather than re-synthesise.
//
// Implementations must be safe for concurrent use.
package tts

import (
	"context"
	"errors"

	"github.com/recite-labs/recite/pkg/types"
)

// ErrUnavailable is returned when synthesis cannot be performed at all
// (no provider configured, circuit open). Callers should degrade to
// text-only drills rather than fail the whole request.
var ErrUnavailable = errors.New("tts: synthesis unavailable")

// Provider is the abstraction over any TTS backend.
type Provider interface {
	// Synthesize renders text with the given voice and returns the complete
	// encoded audio clip. The voice's ID selects the provider-specific model
	// or speaker; an empty ID lets the provider pick its default.
	Synthesize(ctx context.Context, text string, voice types.VoiceProfile) ([]byte, error)
}
