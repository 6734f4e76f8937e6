// Package config provides the configuration schema, loader, and provider
// registry for the Lector reading assistant server.
package config

import "time"

// LogLevel controls log verbosity for the Lector server.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// Config is the root configuration structure for Lector.
// It is typically loaded from a YAML file using [Load] or [LoadFromReader].
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Vocab     ProviderEntry   `yaml:"vocab"`
	Tokenizer TokenizerConfig `yaml:"tokenizer"`
	Cache     CacheConfig     `yaml:"cache"`
	Reading   ReadingConfig   `yaml:"reading"`
}

// ServerConfig holds network and logging settings for the Lector server.
type ServerConfig struct {
	// ListenAddr is the TCP address the server listens on (e.g., ":8080").
	ListenAddr string `yaml:"listen_addr"`

	// LogLevel controls verbosity.
	LogLevel LogLevel `yaml:"log_level"`

	// TLS configures TLS for the server. When nil, the server runs plain HTTP.
	TLS *TLSConfig `yaml:"tls"`
}

// TLSConfig holds TLS certificate paths for enabling HTTPS.
type TLSConfig struct {
	// CertFile is the path to the PEM-encoded TLS certificate.
	CertFile string `yaml:"cert_file"`

	// KeyFile is the path to the PEM-encoded TLS private key.
	KeyFile string `yaml:"key_file"`
}

// ProviderEntry is the common configuration block for pluggable backends.
// The Name field is used to look up the constructor in the [Registry].
type ProviderEntry struct {
	// Name selects the registered provider implementation (e.g., "rest").
	Name string `yaml:"name"`

	// BaseURL is the provider's API endpoint.
	BaseURL string `yaml:"base_url"`

	// APIKey is the authentication key for the provider's API if any.
	APIKey string `yaml:"api_key"`

	// Timeout bounds each request to the provider. Zero means the
	// provider's default.
	Timeout time.Duration `yaml:"timeout"`

	// Options holds provider-specific configuration values not covered by
	// the standard fields above.
	Options map[string]any `yaml:"options"`
}

// TokenizerConfig selects the tokenizer used for pre-segmented page
// rendering. An empty name disables tokenized pages; plain whitespace
// segmentation is always available.
type TokenizerConfig struct {
	// Name selects the registered tokenizer (e.g., "kagome").
	Name string `yaml:"name"`
}

// CacheConfig holds settings for the local sentence-translation cache.
type CacheConfig struct {
	// Path is the sqlite database file. Empty disables the cache.
	Path string `yaml:"path"`
}

// ReadingConfig holds the default language pair for new reading sessions.
// Clients may override both per session.
type ReadingConfig struct {
	// SourceLang is the document language (ISO 639-1, e.g. "es").
	SourceLang string `yaml:"source_lang"`

	// TargetLang is the translation target language (ISO 639-1, e.g. "en").
	TargetLang string `yaml:"target_lang"`
}
