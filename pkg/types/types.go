// Package types defines the shared types used across all Recite packages.
//
// These types form the lingua franca between the STT/TTS/LLM providers, the
// alignment scorer, and the HTTP server. They are intentionally minimal — each
// package defines its own domain types, but cross-cutting data structures live
// here to avoid circular imports.
package types

import "time"

// Transcript represents a speech-to-text result for one uploaded recording.
type Transcript struct {
	// Text is the transcribed speech content.
	Text string

	// Confidence is the overall confidence score (0.0–1.0). May be zero if the
	// provider does not report confidence.
	Confidence float64

	// Words contains per-word detail when available (Deepgram reports it).
	// May be nil for providers that don't support word-level output.
	Words []WordDetail

	// Duration is the length of the recognised speech.
	Duration time.Duration
}

// WordDetail holds per-word metadata from STT providers that support it.
type WordDetail struct {
	Word       string
	Start      time.Duration
	End        time.Duration
	Confidence float64
}

// KeywordBoost represents a keyword to boost in STT recognition.
// Used to improve recognition of uncommon words in a practice passage.
type KeywordBoost struct {
	// Keyword is the text to boost (e.g., "communiqué").
	Keyword string

	// Boost is the intensity of the boost (provider-specific scale).
	Boost float64
}

// VoiceProfile describes a TTS voice used for practice playback.
type VoiceProfile struct {
	// ID is the provider-specific voice identifier (e.g., "aura-2-draco-en").
	ID string

	// Name is the human-readable voice name.
	Name string

	// Provider identifies which TTS provider this voice belongs to.
	Provider string

	// Metadata holds provider-specific voice attributes (gender, accent, etc.).
	Metadata map[string]string
}

// Message represents a single message in an LLM conversation.
type Message struct {
	// Role is one of "system", "user", or "assistant".
	Role string

	// Content is the text content of the message.
	Content string
}
