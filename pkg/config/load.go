package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of environment variable overrides.
const EnvPrefix = "TOKENGATE_"

// LoadConfig loads configuration from a YAML file at the specified path.
// It applies default values, validates the configuration, and returns any errors.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("configuration file %q: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML, applies defaults and validates the result.
// Unknown fields are rejected.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides named TOKENGATE_SECTION_FIELD
// (e.g. TOKENGATE_LIMITER_CAPACITY). Environment variables take precedence
// over the file.
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}

	if err := applyEnvOverrides(cfg, os.LookupEnv); err != nil {
		return nil, err
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config, lookup func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(EnvPrefix + name); ok && v != "" {
			*dst = v
		}
	}
	num := func(name string, dst *int) error {
		v, ok := lookup(EnvPrefix + name)
		if !ok || v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s%s=%q: %w", EnvPrefix, name, v, err)
		}
		*dst = n
		return nil
	}
	dur := func(name string, dst *time.Duration) error {
		v, ok := lookup(EnvPrefix + name)
		if !ok || v == "" {
			return nil
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s%s=%q: %w", EnvPrefix, name, v, err)
		}
		*dst = d
		return nil
	}

	str("LIMITER_NAME", &cfg.Limiter.Name)
	str("LIMITER_MODE", &cfg.Limiter.Mode)
	str("SERVER_LISTEN_ADDRESS", &cfg.Server.ListenAddress)
	str("REDIS_ADDRESS", &cfg.Redis.Address)
	str("REDIS_PASSWORD", &cfg.Redis.Password)
	str("LOGGING_LEVEL", &cfg.Logging.Level)
	str("LOGGING_FORMAT", &cfg.Logging.Format)
	str("STATS_SCHEDULE", &cfg.Stats.Schedule)

	for name, dst := range map[string]*int{
		"LIMITER_CAPACITY":      &cfg.Limiter.Capacity,
		"LIMITER_REFILL_AMOUNT": &cfg.Limiter.RefillAmount,
		"REDIS_DB":              &cfg.Redis.DB,
	} {
		if err := num(name, dst); err != nil {
			return err
		}
	}

	for name, dst := range map[string]*time.Duration{
		"LIMITER_REFILL_INTERVAL": &cfg.Limiter.RefillInterval,
		"LIMITER_MAX_WAIT":        &cfg.Limiter.MaxWait,
	} {
		if err := dur(name, dst); err != nil {
			return err
		}
	}
	return nil
}
