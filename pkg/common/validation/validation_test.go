package validation

import (
	"testing"
	"time"

	"github.com/vnykmshr/tokengate/pkg/common/errors"
)

func TestValidatePositive(t *testing.T) {
	tests := []struct {
		name      string
		module    string
		field     string
		value     int
		wantError bool
	}{
		{"positive value", "test", "count", 10, false},
		{"positive value 1", "test", "count", 1, false},
		{"zero value", "test", "count", 0, true},
		{"negative value", "test", "count", -1, true},
		{"large positive", "test", "count", 1000000, false},
		{"large negative", "test", "count", -1000000, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePositive(tt.module, tt.field, tt.value)

			if tt.wantError {
				if err == nil {
					t.Error("expected error, got nil")
				}
				if !errors.IsValidationError(err) {
					t.Errorf("expected ValidationError, got %T", err)
				}
			} else {
				if err != nil {
					t.Errorf("expected no error, got %v", err)
				}
			}
		})
	}
}

func TestValidatePositiveDuration(t *testing.T) {
	tests := []struct {
		name      string
		value     time.Duration
		wantError bool
	}{
		{"one nanosecond", time.Nanosecond, false},
		{"one second", time.Second, false},
		{"zero", 0, true},
		{"negative", -time.Millisecond, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePositiveDuration("test", "interval", tt.value)
			if tt.wantError && !errors.IsValidationError(err) {
				t.Errorf("expected ValidationError, got %v", err)
			}
			if !tt.wantError && err != nil {
				t.Errorf("expected no error, got %v", err)
			}
		})
	}
}

func TestValidateAtMost(t *testing.T) {
	if err := ValidateAtMost("test", "refill", 5, "capacity", 5); err != nil {
		t.Errorf("equal values should pass, got %v", err)
	}
	if err := ValidateAtMost("test", "refill", 4, "capacity", 5); err != nil {
		t.Errorf("smaller value should pass, got %v", err)
	}

	err := ValidateAtMost("test", "refill", 6, "capacity", 5)
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	want := "test: invalid refill=6 (exceeds capacity) - value must not be greater than capacity"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestValidateNotNil(t *testing.T) {
	if err := ValidateNotNil("test", "handler", struct{}{}); err != nil {
		t.Errorf("expected no error, got %v", err)
	}
	if err := ValidateNotNil("test", "handler", nil); !errors.IsValidationError(err) {
		t.Errorf("expected ValidationError, got %v", err)
	}
}

func TestValidateNotEmpty(t *testing.T) {
	if err := ValidateNotEmpty("test", "name", "api"); err != nil {
		t.Errorf("expected no error, got %v", err)
	}
	if err := ValidateNotEmpty("test", "name", ""); !errors.IsValidationError(err) {
		t.Errorf("expected ValidationError, got %v", err)
	}
}
