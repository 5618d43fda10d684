// Package config loads the YAML configuration of processes that embed a
// tokengate limiter: limiter parameters, HTTP server, metrics, the Redis
// backend of the example service, stats reporting and logging.
package config

import (
	"time"

	"github.com/vnykmshr/tokengate/pkg/ratelimit/bucket"
)

// Config is the root configuration structure.
type Config struct {
	// Limiter holds the token bucket parameters.
	Limiter LimiterConfig `yaml:"limiter"`

	// Server holds the HTTP listener settings.
	Server ServerConfig `yaml:"server"`

	// Metrics controls the Prometheus endpoint.
	Metrics MetricsConfig `yaml:"metrics"`

	// Redis configures the backend used by the downstream handler.
	Redis RedisConfig `yaml:"redis"`

	// Stats configures the periodic limiter statistics report.
	Stats StatsConfig `yaml:"stats"`

	// Logging configures the structured logger.
	Logging LoggingConfig `yaml:"logging"`
}

// LimiterConfig describes one token bucket.
type LimiterConfig struct {
	// Name labels metrics and log records.
	Name string `yaml:"name"`

	// Capacity is the maximum number of tokens.
	Capacity int `yaml:"capacity"`

	// RefillAmount is the number of tokens added every RefillInterval.
	RefillAmount int `yaml:"refill_amount"`

	// RefillInterval is the period between refills, e.g. "100ms".
	RefillInterval time.Duration `yaml:"refill_interval"`

	// Mode is "reject" (answer 429) or "wait" (queue until capacity frees up).
	Mode string `yaml:"mode"`

	// MaxWait bounds how long a request may wait in "wait" mode.
	MaxWait time.Duration `yaml:"max_wait"`
}

// RateConfig converts the limiter section into a validated bucket.RateConfig.
func (c LimiterConfig) RateConfig() (bucket.RateConfig, error) {
	return bucket.NewRateConfig(c.Capacity, c.RefillAmount, c.RefillInterval)
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	ListenAddress   string        `yaml:"listen_address"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// MetricsConfig controls Prometheus exposure.
type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Path      string `yaml:"path"`
	Namespace string `yaml:"namespace"`
}

// RedisConfig configures the Redis client. An empty Address disables Redis.
type RedisConfig struct {
	Address  string        `yaml:"address"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	Key      string        `yaml:"key"`
	Timeout  time.Duration `yaml:"timeout"`
}

// StatsConfig configures the periodic statistics reporter.
type StatsConfig struct {
	Enabled bool `yaml:"enabled"`

	// Schedule is a cron expression or descriptor such as "@every 30s".
	Schedule string `yaml:"schedule"`
}

// LoggingConfig configures the structured logger.
type LoggingConfig struct {
	// Level is one of "debug", "info", "warn", "error".
	Level string `yaml:"level"`

	// Format is "json" or "text".
	Format string `yaml:"format"`
}
