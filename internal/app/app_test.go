package app_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/recite-labs/recite/internal/app"
	"github.com/recite-labs/recite/internal/config"
	"github.com/recite-labs/recite/internal/history"
	sttmock "github.com/recite-labs/recite/pkg/provider/stt/mock"
	ttsmock "github.com/recite-labs/recite/pkg/provider/tts/mock"
)

// testConfig returns a minimal valid config with the mock STT provider.
func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Providers.STT.Name = "mock"
	return cfg
}

// testProviders returns providers with a mock STT backend.
func testProviders() *app.Providers {
	return &app.Providers{
		STT: sttmock.New("good morning"),
	}
}

// postAttempt drives POST /api/attempts through the app's handler.
func postAttempt(t *testing.T, h http.Handler, reference string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("reference", reference); err != nil {
		t.Fatalf("write reference: %v", err)
	}
	fw, err := mw.CreateFormFile("file", "attempt.webm")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := fw.Write([]byte("fake-audio")); err != nil {
		t.Fatalf("write audio: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	req := httptest.NewRequest("POST", "/api/attempts", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestNew_ServesAPIWithDefaults(t *testing.T) {
	t.Parallel()

	a, err := app.New(t.Context(), testConfig(), testProviders())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	h := a.Handler()

	for _, path := range []string{"/healthz", "/readyz", "/api/phrases"} {
		req := httptest.NewRequest("GET", path, nil)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("GET %s: status = %d, want %d", path, rec.Code, http.StatusOK)
		}
	}
}

func TestNew_WithRecorder(t *testing.T) {
	t.Parallel()

	store := history.NewMemStore()
	a, err := app.New(t.Context(), testConfig(), testProviders(), app.WithRecorder(store))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if rec := postAttempt(t, a.Handler(), "good morning"); rec.Code != http.StatusOK {
		t.Fatalf("score status = %d, want %d (body %s)", rec.Code, http.StatusOK, rec.Body)
	}

	attempts, err := store.ListAttempts(t.Context(), "", 10)
	if err != nil {
		t.Fatalf("ListAttempts: %v", err)
	}
	if len(attempts) != 1 {
		t.Fatalf("attempts = %d, want 1 (injected store should receive saves)", len(attempts))
	}
	if attempts[0].Score != 100 {
		t.Errorf("score = %v, want 100", attempts[0].Score)
	}
}

func TestNew_FileHistoryBackend(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.History.FilePath = filepath.Join(t.TempDir(), "attempts.jsonl")

	a, err := app.New(t.Context(), cfg, testProviders())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if rec := postAttempt(t, a.Handler(), "good morning"); rec.Code != http.StatusOK {
		t.Fatalf("score status = %d, want %d", rec.Code, http.StatusOK)
	}

	req := httptest.NewRequest("GET", "/api/attempts", nil)
	rec := httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d, want %d", rec.Code, http.StatusOK)
	}
	var body struct {
		Attempts []history.Attempt `json:"attempts"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(body.Attempts) != 1 {
		t.Errorf("attempts = %d, want 1", len(body.Attempts))
	}
}

func TestNew_LoadsPhraseSets(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "warmups.yaml")
	yaml := "set:\n  name: Warm-ups\n  language: en\nphrases:\n  - text: Good morning, class.\n"
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatalf("write phrase set: %v", err)
	}

	cfg := testConfig()
	cfg.Practice.PhraseSets = []string{path}

	a, err := app.New(t.Context(), cfg, testProviders())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	req := httptest.NewRequest("GET", "/api/phrases", nil)
	rec := httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, req)

	var body struct {
		Sets []struct {
			Set struct {
				Name string `json:"name"`
			} `json:"set"`
		} `json:"sets"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode phrases: %v", err)
	}
	if len(body.Sets) != 1 || body.Sets[0].Set.Name != "Warm-ups" {
		t.Errorf("sets = %+v, want the Warm-ups set", body.Sets)
	}
}

func TestNew_BrokenPhraseSetFailsStartup(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.Practice.PhraseSets = []string{filepath.Join(t.TempDir(), "missing.yaml")}

	if _, err := app.New(t.Context(), cfg, testProviders()); err == nil {
		t.Fatal("New succeeded, want error for missing phrase set")
	}
}

func TestNew_TTSWiredThroughSessions(t *testing.T) {
	t.Parallel()

	providers := testProviders()
	providers.TTS = ttsmock.New()

	a, err := app.New(t.Context(), testConfig(), providers)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	req := httptest.NewRequest("POST", "/api/tts", bytes.NewReader([]byte(`{"text":"hello"}`)))
	rec := httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, http.StatusOK, rec.Body)
	}
	if got := rec.Body.String(); got != "audio:hello" {
		t.Errorf("body = %q, want %q", got, "audio:hello")
	}
}

func TestNew_STTFailoverToFallback(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.Providers.STT.Fallback = &config.FallbackEntry{Name: "mock"}

	providers := testProviders()
	providers.STT = &sttmock.Provider{Err: errors.New("primary down")}
	secondary := sttmock.New("good morning")
	providers.STTFallback = secondary

	a, err := app.New(t.Context(), cfg, providers)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	rec := postAttempt(t, a.Handler(), "good morning")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, http.StatusOK, rec.Body)
	}
	if secondary.CallCount() != 1 {
		t.Errorf("fallback called %d times, want 1", secondary.CallCount())
	}

	var reply struct {
		Score float64 `json:"score"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&reply); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if reply.Score != 100 {
		t.Errorf("score = %v, want 100 (transcript from the fallback)", reply.Score)
	}
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.Server.ListenAddr = "127.0.0.1:0"

	a, err := app.New(t.Context(), cfg, testProviders())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Run returned %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Second)
	defer shutdownCancel()
	if err := a.Shutdown(shutdownCtx); err != nil {
		t.Errorf("Shutdown: %v", err)
	}
}

func TestShutdown_Idempotent(t *testing.T) {
	t.Parallel()

	a, err := app.New(t.Context(), testConfig(), testProviders())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := a.Shutdown(ctx); err != nil {
		t.Errorf("first Shutdown: %v", err)
	}
	if err := a.Shutdown(ctx); err != nil {
		t.Errorf("second Shutdown: %v", err)
	}
}
