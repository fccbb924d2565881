// Package validation provides common validation utilities for the ledgerguard library.
package validation

import (
	lgerrors "github.com/vnykmshr/ledgerguard/pkg/common/errors"
)

// ValidatePositive validates that an integer value is positive (> 0).
// Returns a ValidationError if the value is not positive.
func ValidatePositive(module, field string, value int) error {
	if value <= 0 {
		return lgerrors.NewValidationError(module, field, value, "must be positive").
			WithHint("value must be greater than 0")
	}
	return nil
}

// ValidatePositiveUint validates that an unsigned value is positive (> 0).
// Returns a ValidationError if the value is zero.
func ValidatePositiveUint(module, field string, value uint64) error {
	if value == 0 {
		return lgerrors.NewValidationError(module, field, value, "must be positive").
			WithHint("value must be greater than 0")
	}
	return nil
}

// ValidateAtMost validates that an unsigned value does not exceed limit.
// Returns a ValidationError if the value is above the limit.
func ValidateAtMost(module, field string, value, limit uint64) error {
	if value > limit {
		return lgerrors.NewValidationError(module, field, value, "exceeds maximum").
			WithHint("value must not exceed the configured maximum")
	}
	return nil
}

// ValidateNotNil validates that an interface value is not nil.
// Returns a ValidationError if the value is nil.
func ValidateNotNil(module, field string, value interface{}) error {
	if value == nil {
		return lgerrors.NewValidationError(module, field, nil, "cannot be nil").
			WithHint("provide a valid " + field)
	}
	return nil
}

// ValidateNotEmpty validates that a string value is not empty.
// Returns a ValidationError if the string is empty.
func ValidateNotEmpty(module, field string, value string) error {
	if value == "" {
		return lgerrors.NewValidationError(module, field, value, "cannot be empty").
			WithHint("provide a non-empty " + field)
	}
	return nil
}
