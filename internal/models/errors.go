package models

import (
	"errors"
	"fmt"
)

var (
	// ErrDivisionUndefined marks an ROI requested against a zero total investment.
	ErrDivisionUndefined = errors.New("roi undefined: total investment is zero")
	// ErrNoComparables marks an analysis left with no usable comps.
	ErrNoComparables = errors.New("no usable comparable properties")
)

// InvalidInputError is a structurally invalid caller-supplied value.
type InvalidInputError struct {
	Field  string
	Value  interface{}
	Reason string
}

func (e *InvalidInputError) Error() string {
	if e.Value == nil {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid %s (%v): %s", e.Field, e.Value, e.Reason)
}

// InsufficientDataError is a comp that cannot be used because facts are missing.
type InsufficientDataError struct {
	PropertyID string
	Missing    string
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("property %s: insufficient data: %s", e.PropertyID, e.Missing)
}

// IsInvalidInput reports whether err is or wraps an InvalidInputError.
func IsInvalidInput(err error) bool {
	var target *InvalidInputError
	return errors.As(err, &target)
}
