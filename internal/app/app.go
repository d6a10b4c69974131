// Package app wires all Recite subsystems into a running HTTP service.
//
// The App struct owns the full lifecycle: New creates and connects all
// subsystems, Run serves the API until the context is cancelled, and
// Shutdown tears everything down in order.
//
// For testing, inject mock implementations via functional options
// (WithRecorder, WithMetrics, etc.). When an option is not provided, New
// creates real implementations from the config.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/recite-labs/recite/internal/coach"
	"github.com/recite-labs/recite/internal/config"
	"github.com/recite-labs/recite/internal/health"
	"github.com/recite-labs/recite/internal/history"
	"github.com/recite-labs/recite/internal/observe"
	"github.com/recite-labs/recite/internal/practice"
	"github.com/recite-labs/recite/internal/resilience"
	"github.com/recite-labs/recite/internal/server"
	"github.com/recite-labs/recite/pkg/provider/llm"
	"github.com/recite-labs/recite/pkg/provider/stt"
	"github.com/recite-labs/recite/pkg/provider/tts"
	"github.com/recite-labs/recite/pkg/types"
)

// Providers holds one interface value per provider slot. Nil means the
// provider is not configured. Populated by main.go via the config registry.
type Providers struct {
	STT stt.Provider
	TTS tts.Provider
	LLM llm.Provider

	// Secondary providers built from the providers.<slot>.fallback config
	// blocks. A nil field leaves the slot without failover.
	STTFallback stt.Provider
	TTSFallback tts.Provider
	LLMFallback llm.Provider
}

// App owns all subsystem lifetimes and serves the Recite API.
type App struct {
	cfg       *config.Config
	providers *Providers

	// Subsystems — initialised in New, torn down in Shutdown.
	stt      stt.Provider
	recorder history.Recorder
	sessions *practice.Manager
	coach    *coach.Coach
	phrases  []practice.PhraseSetFile
	metrics  *observe.Metrics
	checkers []health.Checker
	srv      *http.Server

	// closers are called in order during Shutdown.
	closers []func() error

	// stopOnce guards the Shutdown path.
	stopOnce sync.Once
}

// Option is a functional option for New. Use these to inject test doubles.
type Option func(*App)

// WithRecorder injects an attempt recorder instead of creating one from config.
func WithRecorder(r history.Recorder) Option {
	return func(a *App) { a.recorder = r }
}

// WithMetrics injects a metrics bundle instead of using the global default.
func WithMetrics(m *observe.Metrics) Option {
	return func(a *App) { a.metrics = m }
}

// New creates an App by wiring all subsystems together. The providers struct
// comes from main.go (populated via the config registry). Use Option functions
// to inject test doubles for any subsystem.
//
// New performs all initialisation synchronously: history store connection,
// phrase-set loading, session manager and coach construction, and the HTTP
// route table.
func New(ctx context.Context, cfg *config.Config, providers *Providers, opts ...Option) (*App, error) {
	a := &App{
		cfg:       cfg,
		providers: providers,
	}
	for _, o := range opts {
		o(a)
	}

	if a.metrics == nil {
		a.metrics = observe.DefaultMetrics()
	}

	if err := a.initHistory(ctx); err != nil {
		return nil, fmt.Errorf("app: init history: %w", err)
	}

	if err := a.initPhrases(); err != nil {
		return nil, fmt.Errorf("app: init phrases: %w", err)
	}

	a.initPractice()

	a.srv = &http.Server{
		Addr:              cfg.Server.ListenAddr,
		Handler:           a.buildRoutes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return a, nil
}

// initHistory sets up the attempt store: PostgreSQL when a DSN is configured,
// a JSONL file when a path is, an in-memory store otherwise.
func (a *App) initHistory(ctx context.Context) error {
	if a.recorder != nil {
		return nil // injected
	}

	switch {
	case a.cfg.History.PostgresDSN != "":
		store, err := history.NewStore(ctx, a.cfg.History.PostgresDSN)
		if err != nil {
			return err
		}
		a.recorder = store
		a.checkers = append(a.checkers, health.Checker{Name: "postgres", Check: store.Ping})
		a.closers = append(a.closers, func() error {
			store.Close()
			return nil
		})
		slog.Info("attempt history in PostgreSQL")

	case a.cfg.History.FilePath != "":
		store, err := history.NewFileStore(a.cfg.History.FilePath)
		if err != nil {
			return err
		}
		a.recorder = store
		slog.Info("attempt history in file", "path", a.cfg.History.FilePath)

	default:
		a.recorder = history.NewMemStore()
		slog.Warn("no history backend configured, attempts are kept in memory only")
	}
	return nil
}

// initPhrases loads the configured phrase-set files. A broken file aborts
// startup rather than surfacing at request time.
func (a *App) initPhrases() error {
	sets, err := practice.LoadPhraseSets(a.cfg.Practice.PhraseSets)
	if err != nil {
		return err
	}
	a.phrases = sets
	for _, ps := range sets {
		slog.Info("loaded phrase set", "name", ps.Set.Name, "phrases", len(ps.Phrases))
	}
	return nil
}

// initPractice builds the session manager and coach on top of the configured
// providers. Each configured provider is wrapped in a circuit breaker so a
// flapping backend fails fast instead of stalling every request, and slots
// with a fallback block in config get their secondary registered behind the
// primary.
func (a *App) initPractice() {
	a.stt = a.providers.STT
	if a.stt != nil {
		group := resilience.NewSTTFallback(a.stt, a.cfg.Providers.STT.Name,
			resilience.SlotConfig(resilience.SlotSTT))
		if fb := a.providers.STTFallback; fb != nil {
			name := fallbackName(a.cfg.Providers.STT)
			group.AddFallback(name, fb)
			slog.Info("stt failover enabled", "fallback", name)
		}
		a.stt = group
	}

	ttsProv := a.providers.TTS
	if ttsProv != nil {
		group := resilience.NewTTSFallback(ttsProv, a.cfg.Providers.TTS.Name,
			resilience.SlotConfig(resilience.SlotTTS))
		if fb := a.providers.TTSFallback; fb != nil {
			name := fallbackName(a.cfg.Providers.TTS)
			group.AddFallback(name, fb)
			slog.Info("tts failover enabled", "fallback", name)
		}
		ttsProv = group
	}

	llmProv := a.providers.LLM
	if llmProv != nil {
		group := resilience.NewLLMFallback(llmProv, a.cfg.Providers.LLM.Name,
			resilience.SlotConfig(resilience.SlotLLM))
		if fb := a.providers.LLMFallback; fb != nil {
			name := fallbackName(a.cfg.Providers.LLM)
			group.AddFallback(name, fb)
			slog.Info("llm failover enabled", "fallback", name)
		}
		llmProv = group
	}

	a.sessions = practice.NewManager(ttsProv, a.cfg.Practice.PrefetchWorkers)
	a.sessions.OnSessionCountChange = func(delta int64) {
		a.metrics.ActiveSessions.Add(context.Background(), delta)
	}
	a.coach = coach.New(llmProv)
}

// fallbackName resolves the log/breaker label for a slot's secondary.
func fallbackName(entry config.ProviderEntry) string {
	if entry.Fallback != nil && entry.Fallback.Name != "" {
		return entry.Fallback.Name
	}
	return "fallback"
}

// buildRoutes assembles the HTTP handler tree.
func (a *App) buildRoutes() http.Handler {
	srvCfg := server.Config{
		Language:   a.cfg.Practice.Language,
		Voice:      a.voiceProfile(),
		PassScore:  a.cfg.Practice.PassScore,
		DrillLimit: a.cfg.Practice.DrillLimit,
	}
	s := server.New(srvCfg, a.stt, a.recorder, a.sessions, a.coach, a.phrases,
		a.metrics, health.New(a.checkers...))
	return s.Routes()
}

// voiceProfile resolves the default playback voice from config.
func (a *App) voiceProfile() types.VoiceProfile {
	return types.VoiceProfile{
		ID:       a.cfg.Practice.Voice,
		Name:     a.cfg.Practice.Voice,
		Provider: a.cfg.Providers.TTS.Name,
	}
}

// Handler exposes the HTTP route table, mainly for tests that drive the API
// without a network listener.
func (a *App) Handler() http.Handler {
	return a.srv.Handler
}

// Run serves the API and blocks until ctx is cancelled or the listener fails.
// When ctx is done, Run returns ctx.Err(); call Shutdown to drain in-flight
// requests.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		var err error
		if tlsCfg := a.cfg.Server.TLS; tlsCfg != nil {
			err = a.srv.ListenAndServeTLS(tlsCfg.CertFile, tlsCfg.KeyFile)
		} else {
			err = a.srv.ListenAndServe()
		}
		errCh <- err
	}()

	slog.Info("app running", "addr", a.cfg.Server.ListenAddr, "tls", a.cfg.Server.TLS != nil)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("app: serve: %w", err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown drains the HTTP server, then tears down all subsystems in init
// order. It respects the context deadline: if ctx expires before all closers
// finish, remaining closers are skipped and the context error is returned.
func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error
	a.stopOnce.Do(func() {
		slog.Info("shutting down", "closers", len(a.closers))

		if err := a.srv.Shutdown(ctx); err != nil {
			slog.Warn("http server shutdown error", "err", err)
		}

		for i, closer := range a.closers {
			select {
			case <-ctx.Done():
				slog.Warn("shutdown deadline exceeded", "remaining", len(a.closers)-i)
				shutdownErr = ctx.Err()
				return
			default:
			}
			if err := closer(); err != nil {
				slog.Warn("closer error", "index", i, "err", err)
			}
		}

		slog.Info("shutdown complete")
	})
	return shutdownErr
}
