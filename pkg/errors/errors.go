// Package errors provides the error handling and warning system for trainlog.
// It distinguishes recoverable configuration problems (reported, then worked
// around) from usage errors (returned to the caller) and provides structured
// error information for both.
package errors

import (
	"fmt"
	"log"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

// ===========================================================================
//
//	Global warning handling
//
// ===========================================================================
var (
	warningMutex   sync.Mutex
	warningHandler = func(w error) {
		// Default handler logs to standard error.
		log.Printf("trainlog-warning: %v\n", w)
	}
	// zerolog sink, lazily wired to avoid an import cycle with pkg/log.
	zerologWarnFunc func(warning error)
)

// SetWarningHandler sets the warning handler for the whole library.
// Recoverable configuration problems (bad regex patterns, averaging requested
// for non-numeric keys) are routed through this handler instead of failing
// the training loop.
//
// Example:
//
//	errors.SetWarningHandler(func(w error) {
//	    // drop warnings
//	})
func SetWarningHandler(handler func(w error)) {
	warningMutex.Lock()
	defer warningMutex.Unlock()
	warningHandler = handler
}

// SetZerologWarnFunc wires a zerolog-backed warning sink (set by pkg/log to
// avoid a circular import).
func SetZerologWarnFunc(warnFunc func(warning error)) {
	warningMutex.Lock()
	defer warningMutex.Unlock()
	zerologWarnFunc = warnFunc
}

// Warn emits a warning. When a zerolog sink is configured it is preferred,
// otherwise the plain handler runs.
func Warn(w error) {
	warningMutex.Lock()
	defer warningMutex.Unlock()

	if zerologWarnFunc != nil {
		zerologWarnFunc(w)
		return
	}

	if warningHandler != nil {
		warningHandler(w)
	}
}

// ===========================================================================
//
//	Usage errors
//
// ===========================================================================

// UsageError reports an incorrect call sequence from the training loop, such
// as starting a batch past n_batches. It is returned to the caller and never
// mutates logger state.
type UsageError struct {
	Op     string
	Reason string
}

func (e *UsageError) Error() string {
	return fmt.Sprintf("trainlog: %s: %s", e.Op, e.Reason)
}

// MarshalZerologObject adds structured error information to a zerolog event.
func (e *UsageError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Str("reason", e.Reason).
		Str("type", "UsageError")
}

// NewUsageError creates a UsageError with a stack trace attached.
func NewUsageError(op, reason string) error {
	err := &UsageError{Op: op, Reason: reason}
	return errors.WithStack(err)
}

// StateError is a UsageError flavor for invalid lifecycle transitions, e.g.
// calling Log after the tracker reached its terminal state.
type StateError struct {
	Op    string
	State string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("trainlog: %s: invalid in state %s", e.Op, e.State)
}

// MarshalZerologObject adds structured error information to a zerolog event.
func (e *StateError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Str("state", e.State).
		Str("type", "StateError")
}

// NewStateError creates a StateError with a stack trace attached.
func NewStateError(op, state string) error {
	err := &StateError{Op: op, State: state}
	return errors.WithStack(err)
}

// ===========================================================================
//
//	Configuration errors
//
// ===========================================================================

// ConfigError reports a recoverable configuration problem. The offending
// attribute falls back to its built-in default (or averaging is skipped) and
// the error is routed through Warn rather than returned.
type ConfigError struct {
	Attribute string // "style", "width", "average", "pattern"
	Key       string // logged key or pattern text
	Reason    string
}

func (e *ConfigError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("trainlog: invalid %s configuration for %q: %s", e.Attribute, e.Key, e.Reason)
	}
	return fmt.Sprintf("trainlog: invalid %s configuration: %s", e.Attribute, e.Reason)
}

// MarshalZerologObject adds structured error information to a zerolog event.
func (e *ConfigError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("attribute", e.Attribute).
		Str("key", e.Key).
		Str("reason", e.Reason).
		Str("type", "ConfigError")
}

// NewConfigError creates a ConfigError with a stack trace attached.
func NewConfigError(attribute, key, reason string) error {
	err := &ConfigError{Attribute: attribute, Key: key, Reason: reason}
	return errors.WithStack(err)
}

// ===========================================================================
//
//	Value type errors
//
// ===========================================================================

// TypeKindError reports arithmetic requested on a non-numeric logged value,
// e.g. averaging a string metric. Raised at the value store boundary; the
// caller decides whether it is fatal.
type TypeKindError struct {
	Op       string
	Key      string
	Value    interface{}
	Expected string
}

func (e *TypeKindError) Error() string {
	return fmt.Sprintf("trainlog: %s: value %v for key %q is %T, expected %s",
		e.Op, e.Value, e.Key, e.Value, e.Expected)
}

// MarshalZerologObject adds structured error information to a zerolog event.
func (e *TypeKindError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Str("key", e.Key).
		Interface("value", e.Value).
		Str("expected", e.Expected).
		Str("type", "TypeKindError")
}

// NewTypeKindError creates a TypeKindError with a stack trace attached.
func NewTypeKindError(op, key string, value interface{}, expected string) error {
	err := &TypeKindError{Op: op, Key: key, Value: value, Expected: expected}
	return errors.WithStack(err)
}

// ValidationError reports an invalid constructor or option parameter, such as
// a non-positive epoch count.
type ValidationError struct {
	ParamName string
	Reason    string
	Value     interface{}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("trainlog: validation failed for parameter '%s': %s (got: %v)", e.ParamName, e.Reason, e.Value)
}

// MarshalZerologObject adds structured error information to a zerolog event.
func (e *ValidationError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("param_name", e.ParamName).
		Str("reason", e.Reason).
		Interface("value", e.Value).
		Str("type", "ValidationError")
}

// NewValidationError creates a ValidationError with a stack trace attached.
func NewValidationError(param, reason string, value interface{}) error {
	err := &ValidationError{ParamName: param, Reason: reason, Value: value}
	return errors.WithStack(err)
}

// ===========================================================================
//
//	cockroachdb/errors wrappers
//
// ===========================================================================

// Is reports whether err matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As reports whether err can be cast to target's type.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Wrap wraps an existing error with a message.
func Wrap(err error, message string) error {
	return errors.Wrap(err, message)
}

// Wrapf wraps an existing error with a format string.
func Wrapf(err error, format string, args ...interface{}) error {
	return errors.Wrapf(err, format, args...)
}

// New creates a new error.
func New(message string) error {
	return errors.New(message)
}

// Newf creates a new formatted error.
func Newf(format string, args ...interface{}) error {
	return errors.Newf(format, args...)
}

// WithStack attaches a stack trace to an error.
func WithStack(err error) error {
	return errors.WithStack(err)
}
