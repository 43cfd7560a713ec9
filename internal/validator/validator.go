// Package validator accumulates field-level validation errors so they can be
// reported together.
package validator

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Validator holds a map of field names to their validation error messages.
// A Validator with an empty Errors map is considered valid.
type Validator struct {
	Errors map[string]string
}

// New creates and returns a fresh, empty Validator.
func New() *Validator {
	return &Validator{Errors: make(map[string]string)}
}

// Valid returns true if the Errors map contains no entries.
func (v *Validator) Valid() bool {
	return len(v.Errors) == 0
}

// AddError records key as failing with the given message.
// The first failure for a field is the one that is reported.
func (v *Validator) AddError(key, message string) {
	if _, exists := v.Errors[key]; !exists {
		v.Errors[key] = message
	}
}

// Check adds an error for key with message only when ok is false.
//
//	v.Check(validator.NotBlank(name), "stoneName", "must be provided")
func (v *Validator) Check(ok bool, key, message string) {
	if !ok {
		v.AddError(key, message)
	}
}

// NotBlank reports whether value has any non-whitespace content.
func NotBlank(value string) bool {
	return strings.TrimSpace(value) != ""
}

// NotNegative reports whether value, when it parses as a number, is zero or greater.
// Values that do not parse are accepted; callers decide how to coerce them.
func NotNegative(value string) bool {
	d, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil {
		return true
	}
	return !d.IsNegative()
}
