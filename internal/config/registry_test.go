package config_test

import (
	"errors"
	"testing"

	"github.com/recite-labs/recite/internal/config"
	"github.com/recite-labs/recite/pkg/provider/stt"
	sttmock "github.com/recite-labs/recite/pkg/provider/stt/mock"
	"github.com/recite-labs/recite/pkg/provider/tts"
	ttsmock "github.com/recite-labs/recite/pkg/provider/tts/mock"
)

func TestRegistry_CreateUnregistered(t *testing.T) {
	t.Parallel()
	reg := config.NewRegistry()
	_, err := reg.CreateSTT(config.ProviderEntry{Name: "nope"})
	if !errors.Is(err, config.ErrProviderNotRegistered) {
		t.Fatalf("expected ErrProviderNotRegistered, got %v", err)
	}
}

func TestRegistry_RegisterAndCreate(t *testing.T) {
	t.Parallel()
	reg := config.NewRegistry()
	reg.RegisterSTT("mock", func(config.ProviderEntry) (stt.Provider, error) {
		return sttmock.New("hello"), nil
	})
	reg.RegisterTTS("mock", func(config.ProviderEntry) (tts.Provider, error) {
		return &ttsmock.Provider{}, nil
	})

	p, err := reg.CreateSTT(config.ProviderEntry{Name: "mock"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p == nil {
		t.Fatal("expected non-nil provider")
	}
	if _, err := reg.CreateTTS(config.ProviderEntry{Name: "mock"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRegistry_Overwrite(t *testing.T) {
	t.Parallel()
	reg := config.NewRegistry()
	reg.RegisterSTT("mock", func(config.ProviderEntry) (stt.Provider, error) {
		return sttmock.New("first"), nil
	})
	reg.RegisterSTT("mock", func(config.ProviderEntry) (stt.Provider, error) {
		return sttmock.New("second"), nil
	})
	p, err := reg.CreateSTT(config.ProviderEntry{Name: "mock"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	tr, err := p.Transcribe(t.Context(), nil, stt.RecognizeConfig{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tr.Text != "second" {
		t.Errorf("transcript = %q, want %q", tr.Text, "second")
	}
}
