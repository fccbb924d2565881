package errors

import (
	"errors"
	"fmt"
)

// Common error types used across the ledgerguard library

var (
	// ErrInsufficientBuffer indicates that a depletion was attempted while the
	// buffer held zero capacity
	ErrInsufficientBuffer = errors.New("insufficient buffer")

	// ErrRateLimitExceeded indicates that a depletion asked for more than the
	// currently available capacity
	ErrRateLimitExceeded = errors.New("rate limit exceeded")

	// ErrRateTooHigh indicates a regeneration rate above the configured maximum
	ErrRateTooHigh = errors.New("rate above maximum")

	// ErrClockRegression indicates that a supplied timestamp precedes the
	// state's last update
	ErrClockRegression = errors.New("clock moved backwards")

	// ErrArithmeticOverflow indicates that a computed value exceeds the range
	// of its storage type
	ErrArithmeticOverflow = errors.New("arithmetic overflow")

	// ErrArithmeticUnderflow indicates that an unsigned subtraction would have
	// gone negative
	ErrArithmeticUnderflow = errors.New("arithmetic underflow")

	// ErrDivisionByZero indicates a division with a zero divisor
	ErrDivisionByZero = errors.New("division by zero")

	// ErrClosed indicates that an operation was attempted on a closed resource
	ErrClosed = errors.New("resource is closed")

	// ErrTimeout indicates that an operation timed out
	ErrTimeout = errors.New("operation timed out")

	// ErrInvalidConfiguration indicates invalid configuration parameters
	ErrInvalidConfiguration = errors.New("invalid configuration")
)

// IsCapacityViolation returns true if the error indicates a buffer with too
// little capacity for the requested depletion. These clear on their own as the
// buffer regenerates
func IsCapacityViolation(err error) bool {
	return errors.Is(err, ErrInsufficientBuffer) || errors.Is(err, ErrRateLimitExceeded)
}

// IsNumericViolation returns true if the error indicates unsigned arithmetic
// that could not be represented. These are not recoverable by retrying
func IsNumericViolation(err error) bool {
	return errors.Is(err, ErrArithmeticOverflow) ||
		errors.Is(err, ErrArithmeticUnderflow) ||
		errors.Is(err, ErrDivisionByZero)
}

// IsRetryable returns true if the error indicates a condition that might
// be resolved by retrying the operation
func IsRetryable(err error) bool {
	return errors.Is(err, ErrTimeout) || IsCapacityViolation(err)
}

// ValidationError describes a configuration value that failed validation.
// It unwraps to ErrInvalidConfiguration so callers can match the whole
// category with errors.Is
type ValidationError struct {
	Module string
	Field  string
	Value  interface{}
	Reason string
	Hint   string
}

func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("%s: invalid %s=%v (%s)", e.Module, e.Field, e.Value, e.Reason)
	if e.Hint != "" {
		msg += " - " + e.Hint
	}
	return msg
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidConfiguration
}

// NewValidationError creates a ValidationError for the given module and field
func NewValidationError(module, field string, value interface{}, reason string) *ValidationError {
	return &ValidationError{
		Module: module,
		Field:  field,
		Value:  value,
		Reason: reason,
	}
}

// WithHint attaches a remediation hint and returns the same error for chaining
func (e *ValidationError) WithHint(hint string) *ValidationError {
	e.Hint = hint
	return e
}

// OperationError wraps a failure from a named operation with optional context.
// It unwraps to its cause so sentinel checks pass through
type OperationError struct {
	Module    string
	Operation string
	Cause     error
	Context   string
}

func (e *OperationError) Error() string {
	msg := fmt.Sprintf("%s.%s failed: %v", e.Module, e.Operation, e.Cause)
	if e.Context != "" {
		msg += " (" + e.Context + ")"
	}
	return msg
}

func (e *OperationError) Unwrap() error {
	return e.Cause
}

// NewOperationError creates an OperationError wrapping cause
func NewOperationError(module, operation string, cause error) *OperationError {
	return &OperationError{
		Module:    module,
		Operation: operation,
		Cause:     cause,
	}
}

// WithContext attaches extra detail and returns the same error for chaining
func (e *OperationError) WithContext(context string) *OperationError {
	e.Context = context
	return e
}

// IsValidationError returns true if err is or wraps a ValidationError
func IsValidationError(err error) bool {
	var verr *ValidationError
	return errors.As(err, &verr)
}
