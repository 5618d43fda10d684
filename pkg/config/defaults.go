package config

import "time"

// Default values for configuration fields.
const (
	// Limiter defaults
	DefaultLimiterName           = "default"
	DefaultLimiterCapacity       = 100
	DefaultLimiterRefillAmount   = 10
	DefaultLimiterRefillInterval = time.Second
	DefaultLimiterMode           = ModeReject
	DefaultLimiterMaxWait        = 5 * time.Second

	// Server defaults
	DefaultListenAddress   = "127.0.0.1:8080"
	DefaultReadTimeout     = 30 * time.Second
	DefaultWriteTimeout    = 30 * time.Second
	DefaultShutdownTimeout = 10 * time.Second

	// Metrics defaults
	DefaultMetricsPath      = "/metrics"
	DefaultMetricsNamespace = "tokengate"

	// Redis defaults
	DefaultRedisKey     = "tokengate:visits"
	DefaultRedisTimeout = 2 * time.Second

	// Stats defaults
	DefaultStatsSchedule = "@every 30s"

	// Logging defaults
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// Limiter modes.
const (
	ModeReject = "reject"
	ModeWait   = "wait"
)

// ApplyDefaults fills zero-valued fields with their defaults.
func ApplyDefaults(cfg *Config) {
	l := &cfg.Limiter
	if l.Name == "" {
		l.Name = DefaultLimiterName
	}
	if l.Capacity == 0 {
		l.Capacity = DefaultLimiterCapacity
	}
	if l.RefillAmount == 0 {
		l.RefillAmount = DefaultLimiterRefillAmount
	}
	if l.RefillInterval == 0 {
		l.RefillInterval = DefaultLimiterRefillInterval
	}
	if l.Mode == "" {
		l.Mode = DefaultLimiterMode
	}
	if l.MaxWait == 0 {
		l.MaxWait = DefaultLimiterMaxWait
	}

	s := &cfg.Server
	if s.ListenAddress == "" {
		s.ListenAddress = DefaultListenAddress
	}
	if s.ReadTimeout == 0 {
		s.ReadTimeout = DefaultReadTimeout
	}
	if s.WriteTimeout == 0 {
		s.WriteTimeout = DefaultWriteTimeout
	}
	if s.ShutdownTimeout == 0 {
		s.ShutdownTimeout = DefaultShutdownTimeout
	}

	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = DefaultMetricsPath
	}
	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = DefaultMetricsNamespace
	}

	if cfg.Redis.Key == "" {
		cfg.Redis.Key = DefaultRedisKey
	}
	if cfg.Redis.Timeout == 0 {
		cfg.Redis.Timeout = DefaultRedisTimeout
	}

	if cfg.Stats.Schedule == "" {
		cfg.Stats.Schedule = DefaultStatsSchedule
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = DefaultLogLevel
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = DefaultLogFormat
	}
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}
