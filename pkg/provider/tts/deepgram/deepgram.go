// Package deepgram provides a Deepgram Aura-backed TTS provider using the
// Deepgram speak WebSocket API. It implements the tts.Provider interface.
package deepgram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/coder/websocket"

	"github.com/recite-labs/recite/pkg/types"
)

const (
	speakEndpoint     = "wss://api.deepgram.com/v1/speak"
	defaultVoice      = "aura-2-draco-en"
	defaultEncoding   = "linear16"
	defaultSampleRate = 24000
)

// Option is a functional option for configuring the Deepgram Provider.
type Option func(*Provider)

// WithVoice sets the default Aura voice model (e.g., "aura-2-draco-en").
func WithVoice(voice string) Option {
	return func(p *Provider) {
		p.voice = voice
	}
}

// WithEncoding sets the output encoding (e.g., "linear16", "mp3").
func WithEncoding(encoding string) Option {
	return func(p *Provider) {
		p.encoding = encoding
	}
}

// WithSampleRate sets the output sample rate in Hz.
func WithSampleRate(rate int) Option {
	return func(p *Provider) {
		p.sampleRate = rate
	}
}

// WithEndpoint overrides the speak endpoint. Intended for tests and proxies.
func WithEndpoint(endpoint string) Option {
	return func(p *Provider) {
		p.endpoint = endpoint
	}
}

// Provider implements tts.Provider backed by the Deepgram Aura speak API.
type Provider struct {
	apiKey     string
	voice      string
	encoding   string
	sampleRate int
	endpoint   string
}

// New creates a new Deepgram Provider. apiKey must be non-empty.
func New(apiKey string, opts ...Option) (*Provider, error) {
	if apiKey == "" {
		return nil, errors.New("deepgram: apiKey must not be empty")
	}
	p := &Provider{
		apiKey:     apiKey,
		voice:      defaultVoice,
		encoding:   defaultEncoding,
		sampleRate: defaultSampleRate,
	}
	for _, o := range opts {
		o(p)
	}
	return p, nil
}

// ---- WebSocket message types ----

// speakMessage is the JSON payload sent to Deepgram for the text to render.
type speakMessage struct {
	Type string `json:"type"` // "Speak"
	Text string `json:"text"`
}

// controlMessage is a typed command without payload ("Flush", "Close").
type controlMessage struct {
	Type string `json:"type"`
}

// eventMessage is a JSON event received from Deepgram over the WebSocket.
// Audio arrives separately as binary frames.
type eventMessage struct {
	Type        string `json:"type"` // "Metadata", "Flushed", "Warning", "Error"
	Description string `json:"description,omitempty"`
}

// Synthesize opens a WebSocket to Deepgram, sends text followed by a flush,
// and collects binary audio frames until the Flushed event arrives. The
// concatenated frames form one complete clip in the configured encoding.
func (p *Provider) Synthesize(ctx context.Context, text string, voice types.VoiceProfile) ([]byte, error) {
	if text == "" {
		return nil, errors.New("deepgram: text must not be empty")
	}

	wsURL, err := p.buildURL(voice)
	if err != nil {
		return nil, fmt.Errorf("deepgram: build URL: %w", err)
	}

	headers := http.Header{}
	headers.Set("Authorization", "Token "+p.apiKey)

	conn, _, err := websocket.Dial(ctx, wsURL, &websocket.DialOptions{
		HTTPHeader: headers,
	})
	if err != nil {
		return nil, fmt.Errorf("deepgram: dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "done")

	// Clips can exceed the default 32 KiB read limit.
	conn.SetReadLimit(1 << 22)

	speak, _ := json.Marshal(speakMessage{Type: "Speak", Text: text})
	if err := conn.Write(ctx, websocket.MessageText, speak); err != nil {
		return nil, fmt.Errorf("deepgram: send text: %w", err)
	}
	flush, _ := json.Marshal(controlMessage{Type: "Flush"})
	if err := conn.Write(ctx, websocket.MessageText, flush); err != nil {
		return nil, fmt.Errorf("deepgram: send flush: %w", err)
	}

	var clip []byte
	for {
		msgType, msg, err := conn.Read(ctx)
		if err != nil {
			return nil, fmt.Errorf("deepgram: read: %w", err)
		}

		if msgType == websocket.MessageBinary {
			clip = append(clip, msg...)
			continue
		}

		event, ok := parseEvent(msg)
		if !ok {
			continue
		}
		switch event.Type {
		case "Flushed":
			// All audio for the flushed text has been delivered.
			return clip, nil
		case "Error":
			return nil, fmt.Errorf("deepgram: synthesis error: %s", event.Description)
		}
	}
}

// buildURL constructs the speak endpoint URL. voice.ID overrides the
// provider-level default voice model.
func (p *Provider) buildURL(voice types.VoiceProfile) (string, error) {
	endpoint := p.endpoint
	if endpoint == "" {
		endpoint = speakEndpoint
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", err
	}

	model := voice.ID
	if model == "" {
		model = p.voice
	}

	q := u.Query()
	q.Set("model", model)
	q.Set("encoding", p.encoding)
	q.Set("sample_rate", strconv.Itoa(p.sampleRate))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// parseEvent parses a raw text frame into an eventMessage.
// Returns (zero, false) if the frame should be ignored.
func parseEvent(data []byte) (eventMessage, bool) {
	var ev eventMessage
	if err := json.Unmarshal(data, &ev); err != nil {
		return eventMessage{}, false
	}
	return ev, ev.Type != ""
}
