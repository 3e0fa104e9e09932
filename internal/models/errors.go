package models

import (
	"errors"
	"fmt"
)

// LifecycleErrorKind enumerates the validation failures the lifecycle
// engine surfaces synchronously. None of these are retried internally;
// the API layer translates them to user-facing responses.
type LifecycleErrorKind string

const (
	ErrInvalidDateRange  LifecycleErrorKind = "invalid_date_range"
	ErrRoomUnavailable   LifecycleErrorKind = "room_unavailable"
	ErrInvalidTransition LifecycleErrorKind = "invalid_transition"
	ErrTooEarly          LifecycleErrorKind = "too_early"
	ErrUnknownBooking    LifecycleErrorKind = "unknown_booking"
)

// LifecycleError is a typed validation failure from the lifecycle engine
type LifecycleError struct {
	Kind    LifecycleErrorKind
	Message string
}

func (e *LifecycleError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// NewLifecycleError builds a LifecycleError with a formatted message.
func NewLifecycleError(kind LifecycleErrorKind, format string, args ...interface{}) *LifecycleError {
	return &LifecycleError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// NewInvalidTransition builds the invalid_transition error for an operation
// applied to a booking in the wrong state.
func NewInvalidTransition(op string, from BookingStatus) *LifecycleError {
	return NewLifecycleError(ErrInvalidTransition, "%s is not allowed from status %q", op, from)
}

// IsLifecycleError reports whether err is a LifecycleError of the given kind.
func IsLifecycleError(err error, kind LifecycleErrorKind) bool {
	var le *LifecycleError
	if errors.As(err, &le) {
		return le.Kind == kind
	}
	return false
}

// LifecycleErrorFrom extracts the LifecycleError from err, if any.
func LifecycleErrorFrom(err error) (*LifecycleError, bool) {
	var le *LifecycleError
	if errors.As(err, &le) {
		return le, true
	}
	return nil, false
}
