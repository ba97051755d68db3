package config

import (
	"fmt"
	"slices"
	"strings"
)

// ValidationError is a single invalid setting.
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors collects every problem found in one pass.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e)))
	for i, err := range e {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// ValidLogLevels returns the accepted log.level values.
func ValidLogLevels() []string {
	return []string{"debug", "info", "warn", "error"}
}

// Validate returns every invalid value in c.
func (c *Config) Validate() []ValidationError {
	var errs []ValidationError

	if c.Bridge.TimeoutSeconds < 0 {
		errs = append(errs, ValidationError{
			Field:   "bridge.timeout_seconds",
			Value:   c.Bridge.TimeoutSeconds,
			Message: "must be 0 (no timeout) or positive",
		})
	}
	if strings.TrimSpace(c.Bridge.Dir) == "" && strings.TrimSpace(c.Bridge.Path) == "" {
		errs = append(errs, ValidationError{
			Field:   "bridge.dir",
			Value:   c.Bridge.Dir,
			Message: "must be set when bridge.path is empty",
		})
	}

	if !slices.Contains(ValidLogLevels(), strings.ToLower(c.Log.Level)) {
		errs = append(errs, ValidationError{
			Field:   "log.level",
			Value:   c.Log.Level,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidLogLevels(), ", ")),
		})
	}
	if c.Log.File && c.Log.Dir == "" {
		errs = append(errs, ValidationError{
			Field:   "log.dir",
			Value:   c.Log.Dir,
			Message: "required when log.file is enabled",
		})
	}

	if c.History.RetentionDays < 0 {
		errs = append(errs, ValidationError{
			Field:   "history.retention_days",
			Value:   c.History.RetentionDays,
			Message: "must be 0 (keep forever) or positive",
		})
	}
	if c.History.Enabled && c.History.Dir == "" {
		errs = append(errs, ValidationError{
			Field:   "history.dir",
			Value:   c.History.Dir,
			Message: "required when history is enabled",
		})
	}

	if c.Watch.IntervalMs < 100 {
		errs = append(errs, ValidationError{
			Field:   "watch.interval_ms",
			Value:   c.Watch.IntervalMs,
			Message: "must be at least 100",
		})
	}

	return errs
}
