package config

import (
	"fmt"
	"strings"

	"github.com/taskdist/taskdist/internal/logging"
)

// ValidationError represents a single validation failure.
type ValidationError struct {
	Field   string // The config field path (e.g., "logging.level")
	Value   any    // The invalid value
	Message string // Human-readable error description
}

// Error implements the error interface for ValidationError.
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

// Error implements the error interface for ValidationErrors.
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

// ValidationWarning represents a suspicious but acceptable config value.
type ValidationWarning struct {
	Field   string
	Value   any
	Message string
}

// String returns the human-readable form of the warning.
func (w ValidationWarning) String() string {
	return fmt.Sprintf("%s: %s (got: %v)", w.Field, w.Message, w.Value)
}

// Validate checks the Config for invalid values. Hard failures come back as
// errors; conditions that merely starve the runner (a worker count of zero)
// come back as warnings.
func (c *Config) Validate() ([]ValidationError, []ValidationWarning) {
	var errors []ValidationError
	var warnings []ValidationWarning

	if c.Workers < 0 {
		errors = append(errors, ValidationError{
			Field:   "workers",
			Value:   c.Workers,
			Message: "must be non-negative",
		})
	}
	// Zero workers means loaded tasks are never consumed. Accepted, but
	// worth telling the user about.
	if c.Workers == 0 {
		warnings = append(warnings, ValidationWarning{
			Field:   "workers",
			Value:   c.Workers,
			Message: "no workers configured; tasks will be queued but never run",
		})
	}

	if !logging.IsValidLevel(c.Logging.Level) {
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Value:   c.Logging.Level,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidLogLevels(), ", ")),
		})
	}

	if c.Taskfiles.Dir == "" {
		errors = append(errors, ValidationError{
			Field:   "taskfiles.dir",
			Value:   c.Taskfiles.Dir,
			Message: "must not be empty",
		})
	}

	return errors, warnings
}

// ValidLogLevels returns the list of valid log levels.
func ValidLogLevels() []string {
	return []string{"debug", "info", "warn", "error"}
}
