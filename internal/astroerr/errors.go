// Package astroerr defines the error kinds shared by the astrodynamics core.
//
// Core packages never log; they return one of these errors and let the
// caller decide how to surface it.
package astroerr

import (
	"errors"
	"fmt"
)

var (
	// ErrDomain marks an input that lies outside a function's mathematical domain.
	ErrDomain = errors.New("domain error")

	// ErrModel marks a request that needs model data which is not available.
	ErrModel = errors.New("model error")
)

// DomainError reports an invalid input value.
type DomainError struct {
	Op     string // operation that rejected the input, e.g. "kepler.ToCartesian"
	Field  string // offending field or parameter, may be empty
	Value  any    // offending value, may be nil
	Reason string
}

func (e *DomainError) Error() string {
	switch {
	case e.Field != "" && e.Value != nil:
		return fmt.Sprintf("%s: %s=%v: %s", e.Op, e.Field, e.Value, e.Reason)
	case e.Field != "":
		return fmt.Sprintf("%s: %s: %s", e.Op, e.Field, e.Reason)
	default:
		return fmt.Sprintf("%s: %s", e.Op, e.Reason)
	}
}

func (e *DomainError) Is(target error) bool { return target == ErrDomain }

// Domain builds a DomainError.
func Domain(op, field string, value any, reason string) error {
	return &DomainError{Op: op, Field: field, Value: value, Reason: reason}
}

// ModelError reports missing or out-of-range model data, such as an epoch
// outside the leap-second table or an unsupported geopotential degree.
type ModelError struct {
	Op    string
	Model string
	Err   error
}

func (e *ModelError) Error() string {
	return fmt.Sprintf("%s: model %s: %v", e.Op, e.Model, e.Err)
}

func (e *ModelError) Unwrap() error { return e.Err }

func (e *ModelError) Is(target error) bool { return target == ErrModel }

// Model builds a ModelError with a formatted cause.
func Model(op, model, format string, args ...any) error {
	return &ModelError{Op: op, Model: model, Err: fmt.Errorf(format, args...)}
}
