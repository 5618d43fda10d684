package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/robfig/cron/v3"

	tgerrors "github.com/vnykmshr/tokengate/pkg/common/errors"
	"github.com/vnykmshr/tokengate/pkg/common/validation"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "limiter.capacity").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError collects every FieldError found in a configuration.
type ValidationError struct {
	Errors []FieldError
}

func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "configuration validation failed with %d errors:\n", len(e.Errors))
	for _, err := range e.Errors {
		fmt.Fprintf(&sb, "  - %s\n", err.Error())
	}
	return sb.String()
}

// Unwrap lets errors.Is(err, errors.ErrInvalidConfiguration) hold.
func (e ValidationError) Unwrap() error {
	return tgerrors.ErrInvalidConfiguration
}

// Validate validates the entire configuration, collecting all field errors.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateLimiter(&cfg.Limiter)...)
	errs = append(errs, validateServer(&cfg.Server)...)
	errs = append(errs, validateMetrics(&cfg.Metrics)...)
	errs = append(errs, validateStats(&cfg.Stats)...)
	errs = append(errs, validateLogging(&cfg.Logging)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}
	return nil
}

func validateLimiter(cfg *LimiterConfig) []FieldError {
	var errs []FieldError

	if err := validation.ValidateNotEmpty("config", "limiter.name", cfg.Name); err != nil {
		errs = append(errs, FieldError{Field: "limiter.name", Message: err.Error()})
	}

	if _, err := cfg.RateConfig(); err != nil {
		field := "limiter"
		var verr *tgerrors.ValidationError
		if errors.As(err, &verr) {
			field = "limiter." + verr.Field
		}
		errs = append(errs, FieldError{Field: field, Message: err.Error()})
	}

	switch cfg.Mode {
	case ModeReject, ModeWait:
	default:
		errs = append(errs, FieldError{
			Field:   "limiter.mode",
			Message: fmt.Sprintf("unknown mode %q (want %q or %q)", cfg.Mode, ModeReject, ModeWait),
		})
	}

	if cfg.MaxWait < 0 {
		errs = append(errs, FieldError{Field: "limiter.max_wait", Message: "max wait must not be negative"})
	}
	return errs
}

func validateServer(cfg *ServerConfig) []FieldError {
	var errs []FieldError

	if cfg.ListenAddress == "" {
		errs = append(errs, FieldError{Field: "server.listen_address", Message: "listen address is required"})
	}
	if cfg.ReadTimeout < 0 {
		errs = append(errs, FieldError{Field: "server.read_timeout", Message: "read timeout must not be negative"})
	}
	if cfg.WriteTimeout < 0 {
		errs = append(errs, FieldError{Field: "server.write_timeout", Message: "write timeout must not be negative"})
	}
	return errs
}

func validateMetrics(cfg *MetricsConfig) []FieldError {
	if cfg.Enabled && !strings.HasPrefix(cfg.Path, "/") {
		return []FieldError{{Field: "metrics.path", Message: "path must start with /"}}
	}
	return nil
}

func validateStats(cfg *StatsConfig) []FieldError {
	if !cfg.Enabled {
		return nil
	}
	if _, err := cron.ParseStandard(cfg.Schedule); err != nil {
		return []FieldError{{Field: "stats.schedule", Message: err.Error()}}
	}
	return nil
}

func validateLogging(cfg *LoggingConfig) []FieldError {
	var errs []FieldError

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		errs = append(errs, FieldError{Field: "logging.level", Message: err.Error()})
	}

	switch cfg.Format {
	case "json", "text":
	default:
		errs = append(errs, FieldError{
			Field:   "logging.format",
			Message: fmt.Sprintf("unknown format %q (want \"json\" or \"text\")", cfg.Format),
		})
	}
	return errs
}
