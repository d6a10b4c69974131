package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/recite-labs/recite/internal/practice"
	"github.com/recite-labs/recite/pkg/provider/tts"
	"github.com/recite-labs/recite/pkg/types"
)

// maxSynthesizeChars bounds the text accepted for synthesis so a single
// request cannot tie up the TTS provider with an essay.
const maxSynthesizeChars = 2000

// synthesizeRequest is the JSON body for POST /api/tts.
type synthesizeRequest struct {
	SessionID string `json:"session_id"`
	Text      string `json:"text"`
	Voice     string `json:"voice"`
}

// handleSynthesize returns the spoken rendition of a phrase, serving from the
// session's clip cache when the phrase was prefetched after a scored attempt.
func (s *Server) handleSynthesize(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req synthesizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid JSON body", nil)
		return
	}
	if req.Text == "" {
		writeError(w, r, http.StatusBadRequest, "text is required", nil)
		return
	}
	if len(req.Text) > maxSynthesizeChars {
		writeError(w, r, http.StatusBadRequest, "text too long", nil)
		return
	}
	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = defaultSessionID
	}

	voice := s.cfg.Voice
	if req.Voice != "" {
		voice = types.VoiceProfile{ID: req.Voice, Name: req.Voice, Provider: s.cfg.Voice.Provider}
	}

	start := time.Now()
	clip, err := s.sessions.Audio(ctx, sessionID, req.Text, voice)
	s.metrics.TTSDuration.Record(ctx, time.Since(start).Seconds())
	if err != nil {
		if errors.Is(err, tts.ErrUnavailable) {
			writeError(w, r, http.StatusServiceUnavailable, "text-to-speech is not configured", nil)
			return
		}
		s.metrics.RecordProviderError(ctx, "tts", "synthesize")
		writeError(w, r, http.StatusBadGateway, "speech synthesis failed", err)
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(clip)
}

// phrasesResponse is the JSON body for GET /api/phrases.
type phrasesResponse struct {
	Sets []practice.PhraseSetFile `json:"sets"`
}

// handlePhrases lists the phrase sets loaded at startup.
func (s *Server) handlePhrases(w http.ResponseWriter, r *http.Request) {
	sets := s.phrases
	if sets == nil {
		sets = []practice.PhraseSetFile{}
	}
	writeJSON(w, http.StatusOK, phrasesResponse{Sets: sets})
}

// resetRequest is the JSON body for POST /api/sessions/reset.
type resetRequest struct {
	SessionID string `json:"session_id"`
}

// handleResetSession drops a session's cached clips and last reference so the
// next attempt starts from a clean slate.
func (s *Server) handleResetSession(w http.ResponseWriter, r *http.Request) {
	var req resetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid JSON body", nil)
		return
	}
	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = defaultSessionID
	}
	s.sessions.Reset(sessionID)
	w.WriteHeader(http.StatusNoContent)
}
