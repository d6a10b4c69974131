// Package stt defines the Provider interface for Speech-to-Text backends.
//
// An STT provider wraps a prerecorded transcription service (e.g., Deepgram)
// and exposes a uniform one-shot interface: the learner records a clip, the
// client uploads it whole, and the provider returns a single authoritative
// [types.Transcript]. Recite never inspects the audio itself — the transcript
// is the only thing the scoring engine consumes.
//
// Implementations must be safe for concurrent use; one attempt per call, any
// number of calls in flight.
package stt

import (
	"context"

	"github.com/recite-labs/recite/pkg/types"
)

// RecognizeConfig carries the per-request recognition hints for a
// [Provider.Transcribe] call.
type RecognizeConfig struct {
	// MIMEType is the media type of the uploaded audio (e.g., "audio/webm",
	// "audio/wav"). Providers that sniff the container may ignore it.
	MIMEType string

	// Language is the BCP-47 language tag for recognition (e.g., "en", "en-GB").
	// An empty string lets the provider auto-detect, if supported.
	Language string

	// Keywords is a list of vocabulary hints that increase recognition
	// probability for uncommon words in the reference passage, so the score
	// reflects pronunciation rather than recognition vocabulary gaps.
	Keywords []types.KeywordBoost
}

// Provider is the abstraction over any prerecorded STT backend.
//
// Implementations must be safe for concurrent use.
type Provider interface {
	// Transcribe submits one complete audio clip and returns the provider's
	// best transcript. The audio bytes are an opaque container — format
	// conversion is the caller's concern.
	//
	// Returns an error if the provider cannot process the clip
	// (authentication failure, unsupported format, ctx cancelled). An empty
	// clip may legitimately yield an empty transcript without error.
	Transcribe(ctx context.Context, audio []byte, cfg RecognizeConfig) (types.Transcript, error)
}
