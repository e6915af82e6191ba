// Package config loads and validates service configuration via Viper.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Search    SearchConfig    `mapstructure:"search"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port                  int `mapstructure:"port"`
	RequestTimeoutSeconds int `mapstructure:"request_timeout_seconds"`
}

// AuthConfig defines API authentication toggles.
type AuthConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	APIKey  string `mapstructure:"api_key"`
}

// SearchConfig governs registry and worker behavior.
type SearchConfig struct {
	// DefaultRatePerMinute is the throttle applied when a start
	// request carries no usable rate cap.
	DefaultRatePerMinute int `mapstructure:"default_rate_per_minute"`
	// MaxConcurrentJobs caps in-flight searches; requests beyond the
	// cap are rejected.
	MaxConcurrentJobs int `mapstructure:"max_concurrent_jobs"`
	// PausePollMs bounds the suspended worker's re-check interval.
	PausePollMs int `mapstructure:"pause_poll_ms"`
	// HeartbeatEvery sets the candidate stride between telemetry
	// heartbeats.
	HeartbeatEvery int `mapstructure:"heartbeat_every"`
}

// RateLimitConfig throttles inbound HTTP requests. RPS <= 0 disables
// the limiter.
type RateLimitConfig struct {
	RPS   float64 `mapstructure:"rps"`
	Burst int     `mapstructure:"burst"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("SEEDSEARCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 5000)
	v.SetDefault("server.request_timeout_seconds", 60)
	v.SetDefault("auth.enabled", false)
	v.SetDefault("search.default_rate_per_minute", 20000)
	v.SetDefault("search.max_concurrent_jobs", 64)
	v.SetDefault("search.pause_poll_ms", 250)
	v.SetDefault("search.heartbeat_every", 500)
	v.SetDefault("ratelimit.rps", 0)
	v.SetDefault("ratelimit.burst", 10)
	v.SetDefault("logging.development", true)
}

// Validate rejects configurations the service cannot run with.
func (c Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Search.MaxConcurrentJobs <= 0 {
		return fmt.Errorf("search.max_concurrent_jobs must be positive")
	}
	if c.Search.DefaultRatePerMinute <= 0 {
		return fmt.Errorf("search.default_rate_per_minute must be positive")
	}
	if c.Search.PausePollMs <= 0 {
		return fmt.Errorf("search.pause_poll_ms must be positive")
	}
	if c.Auth.Enabled && c.Auth.APIKey == "" {
		return fmt.Errorf("auth.api_key required when auth is enabled")
	}
	return nil
}
