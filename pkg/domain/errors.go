package domain

import (
	"errors"
	"fmt"
)

// ErrElementNotFound is the recoverable driver condition: the selector did not
// resolve within the driver's bounded wait. Fallback actions recover from it.
var ErrElementNotFound = errors.New("element not found")

// ErrResultNotFound is returned when a result ID cannot be found in the store.
var ErrResultNotFound = errors.New("result not found")

// Configuration errors. They signal a malformed script and are never recovered.
var (
	ErrUnknownActionType   = errors.New("unknown action type")
	ErrUnknownDriverMethod = errors.New("unknown driver method")
	ErrInvalidArguments    = errors.New("invalid action arguments")
	ErrNestedFallback      = errors.New("fallback cannot wrap another fallback")
	ErrInvalidPath         = errors.New("invalid state path")
)

// ElementNotFoundError reports the selector that could not be resolved.
type ElementNotFoundError struct {
	Selector Selector
}

func (e *ElementNotFoundError) Error() string {
	return fmt.Sprintf("element not found by %s: %s", e.Selector.Strategy(), e.Selector.Value)
}

// Is makes errors.Is(err, ErrElementNotFound) match.
func (e *ElementNotFoundError) Is(target error) bool {
	return target == ErrElementNotFound
}

// ConfigError wraps one of the configuration sentinels with detail.
type ConfigError struct {
	Err    error
	Detail string
}

func (e *ConfigError) Error() string {
	if e.Detail == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%v: %s", e.Err, e.Detail)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// NewConfigError builds a ConfigError with a formatted detail.
func NewConfigError(err error, format string, args ...any) *ConfigError {
	return &ConfigError{Err: err, Detail: fmt.Sprintf(format, args...)}
}

// PathConflictError is raised under ConflictError when a write would have to
// walk through a leaf value.
type PathConflictError struct {
	Path    string
	Segment string
}

func (e *PathConflictError) Error() string {
	return fmt.Sprintf("state path %q: segment %q holds a value, not a mapping", e.Path, e.Segment)
}

// IsConfigError reports whether err stems from a malformed script.
func IsConfigError(err error) bool {
	var cfgErr *ConfigError
	var conflict *PathConflictError
	return errors.As(err, &cfgErr) || errors.As(err, &conflict)
}

// TaskError is an unrecoverable failure that aborted a task.
// Step is 1-based, matching the log output.
type TaskError struct {
	TaskID int
	Step   int
	Err    error
}

func (e *TaskError) Error() string {
	return fmt.Sprintf("task %d action %d: %v", e.TaskID, e.Step, e.Err)
}

func (e *TaskError) Unwrap() error {
	return e.Err
}
