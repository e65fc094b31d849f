package store

import (
	"context"
	"errors"
)

// Kind is the stable, backend-agnostic failure classification surfaced to
// callers. Raw backend codes never leave this package.
type Kind string

const (
	PermissionDenied   Kind = "permission_denied"
	Unavailable        Kind = "unavailable"
	FailedPrecondition Kind = "failed_precondition"
	Unknown            Kind = "unknown"
)

// Error is a normalized store failure: a stable kind plus a human-readable
// message, nothing backend-specific.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// ErrNotFound is used internally by implementations for missing records.
// It normalizes to FailedPrecondition when it escapes.
var ErrNotFound = errors.New("expense not found")

// NewError builds a normalized error with the canonical message for a kind.
func NewError(kind Kind) *Error {
	switch kind {
	case PermissionDenied:
		return &Error{Kind: PermissionDenied, Message: "You do not have permission to perform this action"}
	case Unavailable:
		return &Error{Kind: Unavailable, Message: "Service is currently unavailable. Please try again later"}
	case FailedPrecondition:
		return &Error{Kind: FailedPrecondition, Message: "Database operation failed. Please check your connection"}
	default:
		return &Error{Kind: Unknown, Message: "An unexpected error occurred"}
	}
}

// Normalize maps any store-layer error to the fixed taxonomy. Already
// normalized errors pass through unchanged; everything else collapses to a
// generic kind so no backend detail leaks to the caller.
func Normalize(err error) *Error {
	if err == nil {
		return nil
	}
	var se *Error
	if errors.As(err, &se) {
		return se
	}
	switch {
	case errors.Is(err, ErrNotFound):
		return NewError(FailedPrecondition)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return NewError(Unavailable)
	default:
		return NewError(Unknown)
	}
}
