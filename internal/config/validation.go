package config

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"unicode/utf8"

	"keying/internal/shift"
)

// Threshold bounds for keyboard.long_press_threshold_ms.
const (
	MinLongPressMs = 1
	MaxLongPressMs = 2000
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Unwrap lets errors.Is match ErrInvalidConfig.
func (e ValidationErrors) Unwrap() error { return ErrInvalidConfig }

// Fields returns the failing field names in order.
func (e ValidationErrors) Fields() []string {
	fields := make([]string, len(e))
	for i, err := range e {
		fields[i] = err.Field
	}
	return fields
}

// ValidateConfig performs comprehensive validation of the configuration.
func ValidateConfig(c *Config) error {
	var errs ValidationErrors

	if c.Version != Version {
		errs = append(errs, ValidationError{
			Field:   "version",
			Message: fmt.Sprintf("unsupported version %d (current: %d)", c.Version, Version),
		})
	}

	errs = append(errs, validateKeyboard(&c.Keyboard)...)
	errs = append(errs, validateLogging(&c.Logging)...)
	errs = append(errs, validateIBus(&c.IBus)...)
	errs = append(errs, validateMetrics(&c.Metrics)...)

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func validateKeyboard(k *KeyboardConfig) ValidationErrors {
	var errs ValidationErrors

	if k.LongPressThresholdMs < MinLongPressMs || k.LongPressThresholdMs > MaxLongPressMs {
		errs = append(errs, *RangeError("keyboard.long_press_threshold_ms", MinLongPressMs, MaxLongPressMs))
	}

	if k.WordSeparators == "" {
		errs = append(errs, *RequiredFieldError("keyboard.word_separators"))
	} else if !utf8.ValidString(k.WordSeparators) {
		errs = append(errs, ValidationError{
			Field:   "keyboard.word_separators",
			Message: "not valid UTF-8",
		})
	}

	if n := utf8.RuneCountInString(k.LongPressMappings); n%2 != 0 {
		errs = append(errs, ValidationError{
			Field:   "keyboard.long_press_mappings",
			Message: fmt.Sprintf("must hold pairs of characters, got %d characters", n),
		})
	}

	if _, ok := shift.ParseMode(k.StartMode); !ok {
		errs = append(errs, ValidationError{
			Field:   "keyboard.start_mode",
			Message: fmt.Sprintf("invalid mode: %s (valid: alphabetic, symbolic)", k.StartMode),
		})
	}

	return errs
}

func validateLogging(l *LoggingConfig) ValidationErrors {
	var errs ValidationErrors

	switch l.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, ValidationError{
			Field:   "logging.level",
			Message: fmt.Sprintf("invalid log level: %s (valid: debug, info, warn, error)", l.Level),
		})
	}

	switch l.Format {
	case "text", "json":
	default:
		errs = append(errs, ValidationError{
			Field:   "logging.format",
			Message: fmt.Sprintf("invalid log format: %s (valid: text, json)", l.Format),
		})
	}

	switch l.Output {
	case "stdout", "stderr":
	case "file", "both":
		if l.FilePath == "" {
			errs = append(errs, ValidationError{
				Field:   "logging.file_path",
				Message: fmt.Sprintf("file path is required when output is '%s'", l.Output),
			})
		}
	default:
		errs = append(errs, ValidationError{
			Field:   "logging.output",
			Message: fmt.Sprintf("invalid log output: %s (valid: stdout, stderr, file, both)", l.Output),
		})
	}

	if l.MaxSizeMB < 1 {
		errs = append(errs, ValidationError{
			Field:   "logging.max_size_mb",
			Message: "max size must be at least 1 MB",
		})
	}

	if l.MaxBackups < 0 {
		errs = append(errs, ValidationError{
			Field:   "logging.max_backups",
			Message: "max backups cannot be negative",
		})
	}

	return errs
}

func validateIBus(i *IBusConfig) ValidationErrors {
	var errs ValidationErrors

	if i.BusName == "" {
		errs = append(errs, *RequiredFieldError("ibus.bus_name"))
	} else if strings.Count(i.BusName, ".") < 1 || strings.HasPrefix(i.BusName, ".") || strings.HasSuffix(i.BusName, ".") {
		errs = append(errs, ValidationError{
			Field:   "ibus.bus_name",
			Message: fmt.Sprintf("not a well-known D-Bus name: %s", i.BusName),
		})
	}

	if i.EngineName == "" {
		errs = append(errs, *RequiredFieldError("ibus.engine_name"))
	}

	return errs
}

func validateMetrics(m *MetricsConfig) ValidationErrors {
	var errs ValidationErrors

	if !m.Enabled {
		return errs
	}
	if _, _, err := net.SplitHostPort(m.Address); err != nil {
		errs = append(errs, ValidationError{
			Field:   "metrics.address",
			Message: fmt.Sprintf("invalid listen address: %v", err),
		})
	}

	return errs
}

// RequiredFieldError creates a validation error for a required field.
func RequiredFieldError(field string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: "required field is missing",
	}
}

// RangeError creates a validation error for an out-of-range value.
func RangeError(field string, min, max interface{}) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: fmt.Sprintf("value must be between %v and %v", min, max),
	}
}

// ErrInvalidConfig is returned when validation fails.
var ErrInvalidConfig = errors.New("invalid configuration")
