// Package config provides configuration loading and validation for the admin CLI and server.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/jonathan/recruit-grader/internal/logging"
)

// EnvPrefix prefixes every environment variable the loader reads.
const EnvPrefix = "RECRUIT_"

// FileEnv names the environment variable holding an optional YAML config path.
const FileEnv = EnvPrefix + "CONFIG"

// Config is the runtime configuration of the grading engine.
type Config struct {
	// Storage
	DatabaseURL string `koanf:"database_url"` // PostgreSQL connection URL
	Cycle       string `koanf:"cycle"`        // Active recruitment cycle, e.g. "fall-2026"

	// Logging
	LogLevel  string `koanf:"log_level"`  // debug, info, warn, error
	LogFormat string `koanf:"log_format"` // text or json

	// Batch operations
	BatchSize int `koanf:"batch_size"` // Maximum rows per assignment insert batch

	// Server
	Addr              string  `koanf:"addr"`                 // HTTP listen address
	RateLimitPerMin   int     `koanf:"rate_limit_per_min"`   // Batch operations per admin per minute
	RateLimitBurst    int     `koanf:"rate_limit_burst"`     // Burst capacity for batch operations
	JWTSecret         string  `koanf:"jwt_secret"`           // HMAC secret for admin bearer tokens
	JWTExpirationHrs  int     `koanf:"jwt_expiration_hours"` // Lifetime of issued tokens
	ShutdownGraceSecs float64 `koanf:"shutdown_grace_secs"`  // Graceful shutdown timeout

	// Observability
	MetricsEnabled bool   `koanf:"metrics_enabled"` // Expose /metrics
	TraceOutput    string `koanf:"trace_output"`    // File receiving stdout-exported spans; empty disables tracing
}

// Defaults returns the configuration used when nothing overrides a key.
func Defaults() Config {
	return Config{
		LogLevel:          "info",
		LogFormat:         "text",
		BatchSize:         500,
		Addr:              ":8080",
		RateLimitPerMin:   30,
		RateLimitBurst:    5,
		JWTExpirationHrs:  24,
		ShutdownGraceSecs: 10,
		MetricsEnabled:    true,
	}
}

// Load builds a Config by layering, lowest precedence first:
//  1. Defaults()
//  2. the YAML file at path, or at $RECRUIT_CONFIG when path is empty
//  3. RECRUIT_* environment variables
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path == "" {
		path = os.Getenv(FileEnv)
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	// RECRUIT_BATCH_SIZE -> batch_size
	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to read config environment: %w", err)
	}

	cfg := Defaults()
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}

// Validate checks that the configuration has valid values.
// Note: DatabaseURL, Cycle and JWTSecret are checked by the commands that need them.
func (c *Config) Validate() error {
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("config error: 'log_format' must be text or json, got %q", c.LogFormat)
	}
	if c.BatchSize < 1 {
		return fmt.Errorf("config error: 'batch_size' must be positive")
	}
	if c.RateLimitPerMin < 0 || c.RateLimitBurst < 0 {
		return fmt.Errorf("config error: rate limits must be non-negative")
	}
	if c.ShutdownGraceSecs < 0 {
		return fmt.Errorf("config error: 'shutdown_grace_secs' must be non-negative")
	}
	return nil
}

// RequireCycle returns an error when no cycle is configured.
func (c *Config) RequireCycle() error {
	if strings.TrimSpace(c.Cycle) == "" {
		return fmt.Errorf("config error: 'cycle' is required (set %sCYCLE or --cycle)", EnvPrefix)
	}
	return nil
}

// LogOptions returns the logging options of the configuration.
func (c *Config) LogOptions() logging.Options {
	return logging.Options{Level: c.LogLevel, Format: c.LogFormat}
}
