package model

import (
	"errors"
	"fmt"
)

var (
	// ErrInsufficientData means no usable financial history exists.
	ErrInsufficientData = errors.New("insufficient data")
	// ErrUnresolvableSecurity means the identifier maps to no known security.
	ErrUnresolvableSecurity = errors.New("unresolvable security")
)

// InsufficientDataError is returned when a security has zero usable
// financial periods as of the requested date.
type InsufficientDataError struct {
	Security SecurityKey
	Reason   string
}

func (e *InsufficientDataError) Error() string {
	if e.Security.IsZero() {
		return fmt.Sprintf("%v: %s", ErrInsufficientData, e.Reason)
	}
	return fmt.Sprintf("%v for %s: %s", ErrInsufficientData, e.Security, e.Reason)
}

func (e *InsufficientDataError) Unwrap() error { return ErrInsufficientData }

// UnresolvableSecurityError is returned when an identifier cannot be mapped
// to any security.
type UnresolvableSecurityError struct {
	Identifier string
}

func (e *UnresolvableSecurityError) Error() string {
	return fmt.Sprintf("%v: %q", ErrUnresolvableSecurity, e.Identifier)
}

func (e *UnresolvableSecurityError) Unwrap() error { return ErrUnresolvableSecurity }
