// Copyright 2026 The LogAnalyser Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"slices"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rabiesofany/TheLogAnalyserApp/lib/classify"
)

// DefaultPath is where Load looks when LOGANALYSER_CONFIG is unset.
const DefaultPath = "/etc/loganalyser/config.yaml"

// defaultProviderTimeout bounds one model call when the configured
// timeout is missing or unparseable.
const defaultProviderTimeout = 90 * time.Second

// ProviderKind selects which model API the service talks to.
type ProviderKind string

const (
	// ProviderAnthropic targets the Anthropic Messages API.
	ProviderAnthropic ProviderKind = "anthropic"
	// ProviderOpenAI targets the OpenAI Chat Completions API.
	ProviderOpenAI ProviderKind = "openai"
)

// Config is the top-level configuration for the analyzer.
type Config struct {
	// ListenAddress is the host:port the HTTP service binds.
	// Default: 127.0.0.1:8900
	ListenAddress string `yaml:"listen_address"`

	// Provider configures the model API used for classification and
	// fix suggestions.
	Provider ProviderConfig `yaml:"provider"`

	// Suggestions configures the per-error suggestion fan-out.
	Suggestions SuggestionsConfig `yaml:"suggestions"`

	// Logging configures the slog handler.
	Logging LoggingConfig `yaml:"logging"`
}

// ProviderConfig configures the model API.
type ProviderConfig struct {
	// Kind selects the API dialect: anthropic or openai.
	// Default: anthropic
	Kind ProviderKind `yaml:"kind"`

	// Model is the model identifier sent with every request.
	Model string `yaml:"model"`

	// APIKey is the credential for the provider. ${VAR} and
	// ${VAR:-default} patterns are expanded from the environment, so
	// the file never has to hold the key itself.
	// Default: ${ANTHROPIC_API_KEY}
	APIKey string `yaml:"api_key"`

	// BaseURL overrides the provider's public endpoint. Set it to
	// route through a gateway or an API-compatible server. Empty
	// targets the public API.
	BaseURL string `yaml:"base_url"`

	// MaxTokens caps the response size for both classification and
	// suggestion calls. Zero keeps each call's own default (1024 for
	// classification, 2048 for suggestions).
	MaxTokens int `yaml:"max_tokens"`

	// Timeout bounds one model call, in time.ParseDuration syntax.
	// Default: 90s
	Timeout string `yaml:"timeout"`
}

// SuggestionsConfig configures the fix-suggestion fan-out.
type SuggestionsConfig struct {
	// Workers bounds how many suggestion calls run concurrently.
	// Default: 3
	Workers int `yaml:"workers"`

	// MaxPerError caps the suggestions kept per parsed error.
	// Default: 3
	MaxPerError int `yaml:"max_per_error"`
}

// LoggingConfig configures the slog handler.
type LoggingConfig struct {
	// Level is the minimum level emitted: debug, info, warn, error.
	// Default: info
	Level string `yaml:"level"`

	// Format selects the handler: text or json.
	// Default: text
	Format string `yaml:"format"`
}

// Default returns the built-in configuration. It is the base every
// load starts from, and it is complete: with ANTHROPIC_API_KEY set in
// the environment, the service runs without any file at all.
func Default() *Config {
	return &Config{
		ListenAddress: "127.0.0.1:8900",
		Provider: ProviderConfig{
			Kind:    ProviderAnthropic,
			Model:   classify.DefaultModel,
			APIKey:  "${ANTHROPIC_API_KEY}",
			Timeout: "90s",
		},
		Suggestions: SuggestionsConfig{
			Workers:     3,
			MaxPerError: 3,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load loads configuration from the path in LOGANALYSER_CONFIG. When
// the variable is unset it falls back to DefaultPath, and when no file
// exists there either it returns the built-in defaults with ${VAR}
// expansion applied. A path set explicitly in the environment must
// exist.
func Load() (*Config, error) {
	if path := os.Getenv("LOGANALYSER_CONFIG"); path != "" {
		return LoadFile(path)
	}

	cfg, err := LoadFile(DefaultPath)
	if errors.Is(err, os.ErrNotExist) {
		cfg = Default()
		cfg.expandVariables()
		return cfg, nil
	}
	return cfg, err
}

// LoadFile loads configuration from a specific file path. The file is
// unmarshalled over the defaults, so it only needs to name the fields
// it changes. Environment variables do not override file values; the
// only expansion performed is ${VAR} patterns in credential fields.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	cfg.expandVariables()
	return cfg, nil
}

// expandVariables expands ${VAR} patterns in the fields that may
// reference secrets.
func (c *Config) expandVariables() {
	c.Provider.APIKey = expandVars(c.Provider.APIKey)
	c.Provider.BaseURL = expandVars(c.Provider.BaseURL)
}

// varPattern matches ${VAR} and ${VAR:-default}.
var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 3 {
			return match
		}
		if value := os.Getenv(parts[1]); value != "" {
			return value
		}
		return parts[2]
	})
}

// Validate checks the configuration and reports every problem found,
// joined into one error.
func (c *Config) Validate() error {
	var errs []error

	if c.ListenAddress == "" {
		errs = append(errs, fmt.Errorf("listen_address is required"))
	}

	if c.Provider.Kind != ProviderAnthropic && c.Provider.Kind != ProviderOpenAI {
		errs = append(errs, fmt.Errorf("provider.kind must be %s or %s, got %q",
			ProviderAnthropic, ProviderOpenAI, c.Provider.Kind))
	}
	if c.Provider.Model == "" {
		errs = append(errs, fmt.Errorf("provider.model is required"))
	}
	if c.Provider.APIKey == "" {
		errs = append(errs, fmt.Errorf("provider.api_key is required; "+
			"set the environment variable it references or put the key in the file"))
	}
	if c.Provider.MaxTokens < 0 {
		errs = append(errs, fmt.Errorf("provider.max_tokens must not be negative, got %d", c.Provider.MaxTokens))
	}

	timeout, err := time.ParseDuration(c.Provider.Timeout)
	switch {
	case err != nil:
		errs = append(errs, fmt.Errorf("provider.timeout is not a duration: %w", err))
	case timeout <= 0:
		errs = append(errs, fmt.Errorf("provider.timeout must be positive, got %s", timeout))
	}

	if c.Suggestions.Workers < 1 {
		errs = append(errs, fmt.Errorf("suggestions.workers must be at least 1, got %d", c.Suggestions.Workers))
	}
	if c.Suggestions.MaxPerError < 1 {
		errs = append(errs, fmt.Errorf("suggestions.max_per_error must be at least 1, got %d", c.Suggestions.MaxPerError))
	}

	levels := []string{"debug", "info", "warn", "error"}
	if !slices.Contains(levels, c.Logging.Level) {
		errs = append(errs, fmt.Errorf("logging.level must be one of: %v", levels))
	}
	formats := []string{"text", "json"}
	if !slices.Contains(formats, c.Logging.Format) {
		errs = append(errs, fmt.Errorf("logging.format must be one of: %v", formats))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// TimeoutDuration returns the parsed per-request timeout. Values that
// do not parse fall back to the 90s default; Validate reports them.
func (c ProviderConfig) TimeoutDuration() time.Duration {
	timeout, err := time.ParseDuration(c.Timeout)
	if err != nil || timeout <= 0 {
		return defaultProviderTimeout
	}
	return timeout
}

// SlogLevel maps the configured level name onto slog's levels.
// Unknown names map to info.
func (c LoggingConfig) SlogLevel() slog.Level {
	switch c.Level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
