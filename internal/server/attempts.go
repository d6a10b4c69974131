package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/recite-labs/recite/internal/align"
	"github.com/recite-labs/recite/internal/coach"
	"github.com/recite-labs/recite/internal/history"
	"github.com/recite-labs/recite/internal/observe"
	"github.com/recite-labs/recite/internal/practice"
	"github.com/recite-labs/recite/pkg/provider/stt"
	"github.com/recite-labs/recite/pkg/types"
)

// maxUploadBytes bounds one attempt recording (a minute of browser-encoded
// audio is well under this).
const maxUploadBytes = 16 << 20

// defaultSessionID groups attempts when the client sends no session.
const defaultSessionID = "default"

// keywordBoost is the recognition boost applied to reference vocabulary.
const keywordBoost = 1.5

// attemptResponse is the JSON body returned by POST /api/attempts.
type attemptResponse struct {
	ID               int64            `json:"id,omitempty"`
	SessionID        string           `json:"session_id"`
	Reference        string           `json:"reference"`
	Transcript       string           `json:"transcript"`
	Score            float64          `json:"score"`
	Passed           bool             `json:"passed"`
	Mismatches       []align.Mismatch `json:"mismatches"`
	ReferenceTokens  []string         `json:"reference_tokens"`
	HypothesisTokens []string         `json:"hypothesis_tokens"`
	Marks            []string         `json:"marks"`
	Drills           []practice.Drill `json:"drills"`
	Tip              string           `json:"tip,omitempty"`
}

// handleScoreAttempt scores one uploaded recording against its reference
// text. Multipart form fields: "file" (the audio clip), "reference" (the
// text that was read), optional "session_id".
func (s *Server) handleScoreAttempt(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := observe.Logger(ctx)

	if s.stt == nil {
		writeError(w, r, http.StatusServiceUnavailable, "speech recognition is not configured", nil)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, r, http.StatusBadRequest, "parse multipart form", err)
		return
	}

	reference := strings.TrimSpace(r.FormValue("reference"))
	if reference == "" {
		writeError(w, r, http.StatusBadRequest, "missing reference text", nil)
		return
	}
	sessionID := r.FormValue("session_id")
	if sessionID == "" {
		sessionID = defaultSessionID
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "missing audio file", err)
		return
	}
	defer file.Close()

	audio, err := io.ReadAll(file)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "read audio file", err)
		return
	}

	mimeType := r.FormValue("media_type")
	if mimeType == "" {
		mimeType = header.Header.Get("Content-Type")
	}

	// Transcribe, boosting the reference vocabulary so recognition gaps do
	// not masquerade as pronunciation errors.
	sttStart := time.Now()
	transcript, err := s.stt.Transcribe(ctx, audio, stt.RecognizeConfig{
		MIMEType: mimeType,
		Language: s.cfg.Language,
		Keywords: referenceKeywords(reference),
	})
	s.metrics.STTDuration.Record(ctx, time.Since(sttStart).Seconds())
	if err != nil {
		s.metrics.RecordProviderError(ctx, "stt", "transcribe")
		writeError(w, r, http.StatusBadGateway, "transcription failed", err)
		return
	}

	res := align.Score(reference, transcript.Text)
	passed := res.Score >= s.cfg.PassScore
	s.metrics.RecordAttempt(ctx, res.Score, passed)

	drills := practice.BuildDrills(res, s.cfg.DrillLimit)
	if len(drills) > 0 {
		s.metrics.DrillsServed.Add(ctx, int64(len(drills)))
	}

	attempt := &history.Attempt{
		SessionID:     sessionID,
		Reference:     reference,
		Transcript:    transcript.Text,
		Score:         res.Score,
		Passed:        passed,
		Mismatches:    res.Mismatches,
		AudioDuration: transcript.Duration,
	}
	if err := s.recorder.SaveAttempt(ctx, attempt); err != nil {
		// History is best-effort: the learner still gets the score.
		log.Warn("save attempt failed", "session", sessionID, "error", err)
	}

	var tip string
	if s.coach.Enabled() && !passed {
		llmStart := time.Now()
		tip, err = s.coach.Tip(ctx, reference, res)
		s.metrics.LLMDuration.Record(ctx, time.Since(llmStart).Seconds())
		if err != nil && !errors.Is(err, coach.ErrDisabled) {
			s.metrics.RecordProviderError(ctx, "llm", "coach")
			log.Warn("coach tip failed", "error", err)
		}
	}

	s.sessions.SetLastReference(sessionID, reference)

	// Warm the drill audio cache in the background so playback is instant.
	if len(drills) > 0 {
		texts := make([]string, len(drills))
		for i, d := range drills {
			texts[i] = d.Phrase
		}
		go s.sessions.Prefetch(context.WithoutCancel(ctx), sessionID, texts, s.cfg.Voice)
	}

	log.Info("attempt scored",
		"session", sessionID,
		"score", res.Score,
		"passed", passed,
		"mismatches", len(res.Mismatches),
	)

	writeJSON(w, http.StatusOK, attemptResponse{
		ID:               attempt.ID,
		SessionID:        sessionID,
		Reference:        reference,
		Transcript:       transcript.Text,
		Score:            res.Score,
		Passed:           passed,
		Mismatches:       res.Mismatches,
		ReferenceTokens:  tokenStrings(res.ReferenceTokens),
		HypothesisTokens: tokenStrings(res.HypothesisTokens),
		Marks:            markStrings(res.Marks),
		Drills:           drills,
		Tip:              tip,
	})
}

// handleListAttempts returns recent attempts. Query parameters: session_id
// (empty for all sessions), limit (default 20).
func (s *Server) handleListAttempts(w http.ResponseWriter, r *http.Request) {
	limit, err := queryLimit(r, 20)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid limit", err)
		return
	}

	attempts, err := s.recorder.ListAttempts(r.Context(), r.URL.Query().Get("session_id"), limit)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "list attempts", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"attempts": attempts})
}

// handleTroubleWords returns the most frequently misread words. Query
// parameters: session_id (empty for all sessions), limit (default 10).
func (s *Server) handleTroubleWords(w http.ResponseWriter, r *http.Request) {
	limit, err := queryLimit(r, 10)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid limit", err)
		return
	}

	words, err := s.recorder.TroubleWords(r.Context(), r.URL.Query().Get("session_id"), limit)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "trouble words", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"words": words})
}

// referenceKeywords turns the reference passage's distinct tokens into STT
// vocabulary hints. Number placeholders are skipped.
func referenceKeywords(reference string) []types.KeywordBoost {
	var boosts []types.KeywordBoost
	seen := make(map[align.Token]bool)
	for _, tok := range align.Tokenize(reference) {
		if tok == align.NumToken || seen[tok] {
			continue
		}
		seen[tok] = true
		boosts = append(boosts, types.KeywordBoost{Keyword: string(tok), Boost: keywordBoost})
	}
	return boosts
}

func tokenStrings(tokens []align.Token) []string {
	out := make([]string, len(tokens))
	for i, t := range tokens {
		out[i] = string(t)
	}
	return out
}

func markStrings(marks []align.Mark) []string {
	out := make([]string, len(marks))
	for i, m := range marks {
		out[i] = m.String()
	}
	return out
}

// queryLimit parses the limit query parameter, falling back to def.
func queryLimit(r *http.Request, def int) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, errors.New("limit must be non-negative")
	}
	return n, nil
}
