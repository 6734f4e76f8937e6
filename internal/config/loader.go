package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// ValidProviderNames lists known provider names per provider kind.
// Used by [Validate] to warn about unrecognised provider names.
var ValidProviderNames = map[string][]string{
	"vocab":     {"rest"},
	"tokenizer": {"kagome"},
}

// DefaultListenAddr is used when server.listen_addr is unset.
const DefaultListenAddr = ":8080"

// Load reads the YAML configuration file at path and returns a validated [Config].
// It is a convenience wrapper around [LoadFromReader] and [Validate].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r and validates the result.
// Useful in tests where configs are constructed from string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	applyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyDefaults fills unset fields with their documented defaults.
func applyDefaults(cfg *Config) {
	if cfg.Server.ListenAddr == "" {
		cfg.Server.ListenAddr = DefaultListenAddr
	}
	if cfg.Server.LogLevel == "" {
		cfg.Server.LogLevel = LogInfo
	}
	if cfg.Reading.TargetLang == "" {
		cfg.Reading.TargetLang = "en"
	}
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	if !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}

	if cfg.Server.TLS != nil {
		if cfg.Server.TLS.CertFile == "" || cfg.Server.TLS.KeyFile == "" {
			errs = append(errs, errors.New("server.tls requires both cert_file and key_file"))
		}
	}

	// Provider name validation — warn for unknown provider names.
	validateProviderName("vocab", cfg.Vocab.Name)
	validateProviderName("tokenizer", cfg.Tokenizer.Name)

	if cfg.Vocab.Name == "" {
		errs = append(errs, errors.New("vocab.name is required; translation and classification need a backend"))
	}
	if cfg.Vocab.Name == "rest" && cfg.Vocab.BaseURL == "" {
		errs = append(errs, errors.New("vocab.base_url is required when vocab.name is rest"))
	}
	if cfg.Vocab.Timeout < 0 {
		errs = append(errs, fmt.Errorf("vocab.timeout %s must not be negative", cfg.Vocab.Timeout))
	}

	if cfg.Reading.SourceLang != "" && !looksLikeLangCode(cfg.Reading.SourceLang) {
		errs = append(errs, fmt.Errorf("reading.source_lang %q does not look like an ISO 639-1 code", cfg.Reading.SourceLang))
	}
	if !looksLikeLangCode(cfg.Reading.TargetLang) {
		errs = append(errs, fmt.Errorf("reading.target_lang %q does not look like an ISO 639-1 code", cfg.Reading.TargetLang))
	}

	if cfg.Cache.Path == "" {
		slog.Warn("cache.path is empty; sentence translations will not be cached across sessions")
	}

	return errors.Join(errs...)
}

// looksLikeLangCode accepts two lowercase ASCII letters.
func looksLikeLangCode(code string) bool {
	if len(code) != 2 {
		return false
	}
	for _, c := range code {
		if c < 'a' || c > 'z' {
			return false
		}
	}
	return true
}

// validateProviderName logs a warning if name is non-empty and not found in
// the [ValidProviderNames] list for the given kind.
func validateProviderName(kind, name string) {
	if name == "" {
		return
	}
	known, ok := ValidProviderNames[kind]
	if !ok {
		return
	}
	if slices.Contains(known, name) {
		return
	}
	slog.Warn("unknown provider name — may be a typo or third-party provider",
		"kind", kind,
		"name", name,
		"known", known,
	)
}
