// Package config handles configuration loading and validation for the
// price proxy. Values are loaded from an optional YAML file and overridden
// by CRYPTOPAIR_* environment variables.
package config

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so YAML config files can use Go duration
// strings ("5s", "500ms") instead of raw nanosecond integers.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config represents the complete application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Upstream UpstreamConfig `yaml:"upstream"`
	Cache    CacheConfig    `yaml:"cache"`
	Breaker  BreakerConfig  `yaml:"breaker"`
	Retry    RetryConfig    `yaml:"retry"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	// ListenAddr is the address the HTTP server binds to.
	ListenAddr string `yaml:"listen_addr"`

	// ShutdownTimeout bounds graceful shutdown on SIGINT/SIGTERM.
	ShutdownTimeout Duration `yaml:"shutdown_timeout"`
}

// UpstreamConfig contains settings for the upstream price API.
type UpstreamConfig struct {
	// BaseURL is the upstream API base URL.
	BaseURL string `yaml:"base_url"`

	// APIKey is the optional upstream API key (also via CRYPTOPAIR_UPSTREAM__API_KEY).
	APIKey string `yaml:"api_key"`

	// CallTimeout bounds a single upstream attempt, independent of the
	// overall retry budget.
	CallTimeout Duration `yaml:"call_timeout"`
}

// CacheConfig contains cache sizing and freshness settings.
type CacheConfig struct {
	// TTL is the freshness window for cached prices.
	TTL Duration `yaml:"ttl"`

	// Capacity is the maximum number of entries in the memory tier.
	Capacity int `yaml:"capacity"`

	// StaleRetention is how long entries are retained in the Redis tier
	// past their TTL, for stale fallback during upstream outages.
	StaleRetention Duration `yaml:"stale_retention"`

	// RedisAddr enables the shared Redis tier when non-empty.
	RedisAddr string `yaml:"redis_addr"`

	// RedisDB selects the Redis database.
	RedisDB int `yaml:"redis_db"`
}

// BreakerConfig contains circuit breaker tuning.
type BreakerConfig struct {
	// FailureThreshold is the number of consecutive failures that trips
	// the breaker open.
	FailureThreshold int `yaml:"failure_threshold"`

	// RecoveryTimeout is how long the breaker stays open before probing.
	RecoveryTimeout Duration `yaml:"recovery_timeout"`

	// ProbeBudget is the number of trial calls admitted in half-open state.
	ProbeBudget int `yaml:"probe_budget"`
}

// RetryConfig contains retry policy tuning.
type RetryConfig struct {
	// MaxAttempts is the total number of upstream attempts per fetch.
	MaxAttempts int `yaml:"max_attempts"`

	// BaseDelay is the backoff before the first retry.
	BaseDelay Duration `yaml:"base_delay"`

	// MaxDelay caps the exponential backoff.
	MaxDelay Duration `yaml:"max_delay"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

// Default returns the default configuration. The values mirror the tuning
// the service ran with in production: a short freshness window, a large
// memory tier, and a breaker that recovers after a minute.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			ListenAddr:      ":8080",
			ShutdownTimeout: Duration(10 * time.Second),
		},
		Upstream: UpstreamConfig{
			BaseURL:     "https://api.coingecko.com/api/v3",
			CallTimeout: Duration(10 * time.Second),
		},
		Cache: CacheConfig{
			TTL:            Duration(5 * time.Second),
			Capacity:       50000,
			StaleRetention: Duration(10 * time.Minute),
		},
		Breaker: BreakerConfig{
			FailureThreshold: 5,
			RecoveryTimeout:  Duration(60 * time.Second),
			ProbeBudget:      1,
		},
		Retry: RetryConfig{
			MaxAttempts: 3,
			BaseDelay:   Duration(500 * time.Millisecond),
			MaxDelay:    Duration(30 * time.Second),
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Validate checks the configuration for values the core cannot run with.
func (c *Config) Validate() error {
	if c.Cache.TTL <= 0 {
		return fmt.Errorf("cache.ttl must be positive (got %v)", c.Cache.TTL.Std())
	}
	if c.Cache.Capacity <= 0 {
		return fmt.Errorf("cache.capacity must be positive (got %d)", c.Cache.Capacity)
	}
	if c.Cache.StaleRetention < c.Cache.TTL {
		return fmt.Errorf("cache.stale_retention must be >= cache.ttl (got %v < %v)",
			c.Cache.StaleRetention.Std(), c.Cache.TTL.Std())
	}
	if c.Breaker.FailureThreshold <= 0 {
		return fmt.Errorf("breaker.failure_threshold must be positive (got %d)", c.Breaker.FailureThreshold)
	}
	if c.Breaker.RecoveryTimeout <= 0 {
		return fmt.Errorf("breaker.recovery_timeout must be positive (got %v)", c.Breaker.RecoveryTimeout.Std())
	}
	if c.Breaker.ProbeBudget <= 0 {
		return fmt.Errorf("breaker.probe_budget must be positive (got %d)", c.Breaker.ProbeBudget)
	}
	if c.Retry.MaxAttempts <= 0 {
		return fmt.Errorf("retry.max_attempts must be positive (got %d)", c.Retry.MaxAttempts)
	}
	if c.Retry.BaseDelay <= 0 {
		return fmt.Errorf("retry.base_delay must be positive (got %v)", c.Retry.BaseDelay.Std())
	}
	if c.Retry.MaxDelay < c.Retry.BaseDelay {
		return fmt.Errorf("retry.max_delay must be >= retry.base_delay (got %v < %v)",
			c.Retry.MaxDelay.Std(), c.Retry.BaseDelay.Std())
	}
	if c.Upstream.BaseURL == "" {
		return fmt.Errorf("upstream.base_url is required")
	}
	if c.Upstream.CallTimeout <= 0 {
		return fmt.Errorf("upstream.call_timeout must be positive (got %v)", c.Upstream.CallTimeout.Std())
	}
	return nil
}
