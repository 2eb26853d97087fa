package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix for all environment variable overrides.
const EnvPrefix = "CRYPTOPAIR"

// Load builds the configuration with the following precedence (later wins):
//  1. Defaults
//  2. YAML file at path (skipped when path is empty or the file is absent)
//  3. CRYPTOPAIR_* environment variables
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// Optional file.
		case err != nil:
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config file %s: %w", path, err)
			}
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// LoadFromEnv loads configuration using CRYPTOPAIR_CONFIG as the file path
// when set, falling back to defaults plus env overrides.
func LoadFromEnv() (*Config, error) {
	return Load(os.Getenv(EnvPrefix + "_CONFIG"))
}

// applyEnvOverrides applies environment variable overrides.
// Format: CRYPTOPAIR_SECTION__KEY=value
func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv(EnvPrefix + "_SERVER__LISTEN_ADDR"); v != "" {
		cfg.Server.ListenAddr = v
	}
	if v := os.Getenv(EnvPrefix + "_UPSTREAM__BASE_URL"); v != "" {
		cfg.Upstream.BaseURL = v
	}
	if v := os.Getenv(EnvPrefix + "_UPSTREAM__API_KEY"); v != "" {
		cfg.Upstream.APIKey = v
	}
	if err := envDuration(EnvPrefix+"_UPSTREAM__CALL_TIMEOUT", &cfg.Upstream.CallTimeout); err != nil {
		return err
	}
	if err := envDuration(EnvPrefix+"_CACHE__TTL", &cfg.Cache.TTL); err != nil {
		return err
	}
	if err := envInt(EnvPrefix+"_CACHE__CAPACITY", &cfg.Cache.Capacity); err != nil {
		return err
	}
	if err := envDuration(EnvPrefix+"_CACHE__STALE_RETENTION", &cfg.Cache.StaleRetention); err != nil {
		return err
	}
	if v := os.Getenv(EnvPrefix + "_CACHE__REDIS_ADDR"); v != "" {
		cfg.Cache.RedisAddr = v
	}
	if err := envInt(EnvPrefix+"_CACHE__REDIS_DB", &cfg.Cache.RedisDB); err != nil {
		return err
	}
	if err := envInt(EnvPrefix+"_BREAKER__FAILURE_THRESHOLD", &cfg.Breaker.FailureThreshold); err != nil {
		return err
	}
	if err := envDuration(EnvPrefix+"_BREAKER__RECOVERY_TIMEOUT", &cfg.Breaker.RecoveryTimeout); err != nil {
		return err
	}
	if err := envInt(EnvPrefix+"_BREAKER__PROBE_BUDGET", &cfg.Breaker.ProbeBudget); err != nil {
		return err
	}
	if err := envInt(EnvPrefix+"_RETRY__MAX_ATTEMPTS", &cfg.Retry.MaxAttempts); err != nil {
		return err
	}
	if err := envDuration(EnvPrefix+"_RETRY__BASE_DELAY", &cfg.Retry.BaseDelay); err != nil {
		return err
	}
	if err := envDuration(EnvPrefix+"_RETRY__MAX_DELAY", &cfg.Retry.MaxDelay); err != nil {
		return err
	}
	if v := os.Getenv(EnvPrefix + "_LOG__LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	return nil
}

func envDuration(name string, dst *Duration) error {
	v := os.Getenv(name)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	*dst = Duration(d)
	return nil
}

func envInt(name string, dst *int) error {
	v := os.Getenv(name)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	*dst = n
	return nil
}
