// Package server exposes the Recite HTTP API: scoring uploaded read-aloud
// attempts, serving drill audio, and querying attempt history.
package server

import (
	"encoding/json"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/recite-labs/recite/internal/coach"
	"github.com/recite-labs/recite/internal/health"
	"github.com/recite-labs/recite/internal/history"
	"github.com/recite-labs/recite/internal/observe"
	"github.com/recite-labs/recite/internal/practice"
	"github.com/recite-labs/recite/pkg/provider/stt"
	"github.com/recite-labs/recite/pkg/types"
)

// Config carries the scoring and playback settings the handlers need.
type Config struct {
	// Language is the recognition language passed to the STT provider.
	Language string

	// Voice is the default TTS voice for drill playback.
	Voice types.VoiceProfile

	// PassScore is the score at or above which an attempt counts as passed.
	PassScore float64

	// DrillLimit caps drills per attempt. Zero means no cap.
	DrillLimit int
}

// Server holds the request handlers and their dependencies. Construct with
// [New]; all dependencies except the STT provider may be nil, in which case
// the corresponding features degrade gracefully.
type Server struct {
	cfg      Config
	stt      stt.Provider
	recorder history.Recorder
	sessions *practice.Manager
	coach    *coach.Coach
	phrases  []practice.PhraseSetFile
	metrics  *observe.Metrics
	health   *health.Handler
}

// New wires a Server from its dependencies.
func New(cfg Config, sttProvider stt.Provider, recorder history.Recorder, sessions *practice.Manager, tipCoach *coach.Coach, phrases []practice.PhraseSetFile, metrics *observe.Metrics, healthHandler *health.Handler) *Server {
	if recorder == nil {
		recorder = history.NewMemStore()
	}
	if sessions == nil {
		sessions = practice.NewManager(nil, 1)
	}
	if tipCoach == nil {
		tipCoach = coach.New(nil)
	}
	if metrics == nil {
		metrics = observe.DefaultMetrics()
	}
	if healthHandler == nil {
		healthHandler = health.New()
	}
	return &Server{
		cfg:      cfg,
		stt:      sttProvider,
		recorder: recorder,
		sessions: sessions,
		coach:    tipCoach,
		phrases:  phrases,
		metrics:  metrics,
		health:   healthHandler,
	}
}

// Routes builds the full route table: API endpoints wrapped in the observe
// middleware, plus health probes and the Prometheus scrape endpoint.
func (s *Server) Routes() http.Handler {
	api := http.NewServeMux()
	api.HandleFunc("POST /api/attempts", s.handleScoreAttempt)
	api.HandleFunc("GET /api/attempts", s.handleListAttempts)
	api.HandleFunc("GET /api/trouble-words", s.handleTroubleWords)
	api.HandleFunc("POST /api/tts", s.handleSynthesize)
	api.HandleFunc("GET /api/phrases", s.handlePhrases)
	api.HandleFunc("POST /api/sessions/reset", s.handleResetSession)

	root := http.NewServeMux()
	root.Handle("/api/", observe.Middleware(s.metrics)(api))
	s.health.Register(root)
	root.Handle("GET /metrics", promhttp.Handler())
	return root
}

// errorBody is the JSON error envelope shared by all handlers.
type errorBody struct {
	Error string `json:"error"`
}

// writeJSON encodes v as JSON with the given status code. On encoding failure
// it falls back to a plain-text 500 response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error":"encode response"}`, http.StatusInternalServerError)
	}
}

// writeError sends a JSON error body and logs server-side failures.
func writeError(w http.ResponseWriter, r *http.Request, status int, msg string, err error) {
	if err != nil {
		observe.Logger(r.Context()).Error(msg, "status", status, "error", err)
	}
	writeJSON(w, status, errorBody{Error: msg})
}
