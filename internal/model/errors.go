package model

import (
	"errors"
	"fmt"
)

var (
	// ErrDataUnavailable marks an upstream fetch that produced no usable profile.
	ErrDataUnavailable = errors.New("data unavailable")
	// ErrInvalidConfiguration marks a rejected standard selection.
	ErrInvalidConfiguration = errors.New("invalid configuration")
)

// ConfigError describes a rejected threshold or selection field.
type ConfigError struct {
	Field  string
	Value  any
	Reason string
}

func (e *ConfigError) Error() string {
	if e.Value == nil {
		return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid configuration: %s=%v: %s", e.Field, e.Value, e.Reason)
}

func (e *ConfigError) Unwrap() error { return ErrInvalidConfiguration }

// DataError wraps an upstream fetch failure for one ticker.
type DataError struct {
	Ticker string
	Err    error
}

func (e *DataError) Error() string { return e.Err.Error() }

func (e *DataError) Unwrap() []error { return []error{ErrDataUnavailable, e.Err} }
