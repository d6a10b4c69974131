package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

// ValidProviderNames maps each provider category to the implementation names
// the server ships with. Validation consults this map; alternative
// registrations via [Registry] are still honoured at construction time, but
// unknown names produce a warning.
var ValidProviderNames = map[string][]string{
	"stt": {"deepgram", "mock"},
	"tts": {"deepgram", "mock"},
	"llm": {"openai", "anthropic", "gemini", "ollama", "deepseek", "mistral", "groq", "llamacpp", "llamafile", "mock"},
}

// Load reads and validates the configuration file at path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()
	return LoadFromReader(f)
}

// LoadFromReader decodes YAML configuration from r and validates it.
// Unknown fields are rejected so typos surface immediately.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns a configuration populated with sensible defaults.
// Values present in the loaded file override these.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			ListenAddr: ":8080",
			LogLevel:   LogInfo,
		},
		Practice: PracticeConfig{
			Language:        "en",
			Voice:           "aura-2-draco-en",
			PassScore:       80,
			PrefetchWorkers: 3,
		},
	}
}

// Validate checks the configuration for hard errors and logs warnings for
// soft issues. It returns all hard errors joined together.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.ListenAddr == "" {
		errs = append(errs, errors.New("config: server.listen_addr must not be empty"))
	}
	if !c.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("config: server.log_level %q is not one of debug, info, warn, error", c.Server.LogLevel))
	}
	if tls := c.Server.TLS; tls != nil {
		if tls.CertFile == "" || tls.KeyFile == "" {
			errs = append(errs, errors.New("config: server.tls requires both cert_file and key_file"))
		}
	}

	if c.Providers.STT.Name == "" {
		errs = append(errs, errors.New("config: providers.stt.name must be set"))
	}
	if c.Practice.PassScore < 0 || c.Practice.PassScore > 100 {
		errs = append(errs, fmt.Errorf("config: practice.pass_score %v must be in [0, 100]", c.Practice.PassScore))
	}
	if c.Practice.DrillLimit < 0 {
		errs = append(errs, fmt.Errorf("config: practice.drill_limit %d must not be negative", c.Practice.DrillLimit))
	}
	if c.Practice.PrefetchWorkers < 1 {
		errs = append(errs, fmt.Errorf("config: practice.prefetch_workers %d must be at least 1", c.Practice.PrefetchWorkers))
	}

	for kind, entry := range map[string]ProviderEntry{
		"stt": c.Providers.STT, "tts": c.Providers.TTS, "llm": c.Providers.LLM,
	} {
		warnUnknownProvider(kind, entry.Name)
		if fb := entry.Fallback; fb != nil {
			if fb.Name == "" {
				errs = append(errs, fmt.Errorf("config: providers.%s.fallback.name must be set", kind))
			} else {
				warnUnknownProvider(kind, fb.Name)
			}
		}
	}

	if c.Providers.TTS.Name == "" {
		slog.Warn("no TTS provider configured, drill audio endpoints will be unavailable")
	}
	if c.Providers.LLM.Name == "" {
		slog.Warn("no LLM provider configured, coaching tips are disabled")
	}
	if c.History.PostgresDSN == "" && c.History.FilePath == "" {
		slog.Warn("no history backend configured, attempts are kept in memory only")
	}

	return errors.Join(errs...)
}

func warnUnknownProvider(kind, name string) {
	if name == "" {
		return
	}
	for _, known := range ValidProviderNames[kind] {
		if name == known {
			return
		}
	}
	slog.Warn("provider name is not built in, expecting a custom registration", "kind", kind, "name", name)
}
