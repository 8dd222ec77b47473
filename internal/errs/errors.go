// Package errs provides the kinded error type used across schemagraph.
//
// The connection layer classifies native driver errors into *errs.Error so
// the accessors can apply their failure policy (fatal, soft, missing
// capability) without importing driver packages.
//
// Usage:
//
//	// In the connection layer, wrap native errors:
//	return errs.Wrap(errs.ErrKindPermissionDenied, "catalog query denied", pgErr)
//
//	// In an accessor, branch on the kind:
//	if errs.IsUnsupported(err) {
//	    return nil, nil
//	}
package errs

import (
	"errors"
	"fmt"
)

// ErrKind categorises an error without exposing driver-specific codes.
type ErrKind int

const (
	ErrKindUnknown          ErrKind = iota
	ErrKindNotFound                 // unknown object
	ErrKindConnectionFailed         // cannot reach or authenticate to the server
	ErrKindTimeout                  // context deadline / cancellation
	ErrKindQueryFailed              // catalog query failed
	ErrKindInvalidInput             // bad arguments from the caller
	ErrKindPermissionDenied         // access denied on a catalog object
	ErrKindUnsupported              // catalog feature missing on this engine/version
	ErrKindInvalidState             // operation not allowed in the current phase
)

func (k ErrKind) String() string {
	switch k {
	case ErrKindNotFound:
		return "not_found"
	case ErrKindConnectionFailed:
		return "connection_failed"
	case ErrKindTimeout:
		return "timeout"
	case ErrKindQueryFailed:
		return "query_failed"
	case ErrKindInvalidInput:
		return "invalid_input"
	case ErrKindPermissionDenied:
		return "permission_denied"
	case ErrKindUnsupported:
		return "unsupported"
	case ErrKindInvalidState:
		return "invalid_state"
	default:
		return "unknown"
	}
}

// Error is the single error type produced by schemagraph packages.
type Error struct {
	Kind    ErrKind
	Message string
	Cause   error // original driver-level error, preserved for logging
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

// Unwrap allows errors.Is / errors.As to traverse the cause chain.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates an *Error with the given kind and message and no cause.
func New(kind ErrKind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// Newf is New with a format string.
func Newf(kind ErrKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an *Error with the given kind, message, and an underlying cause.
func Wrap(kind ErrKind, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, Cause: cause}
}

// IsNotFound reports whether err represents an unknown object.
func IsNotFound(err error) bool {
	return KindOf(err) == ErrKindNotFound
}

// IsTimeout reports whether err was caused by a deadline or context cancellation.
func IsTimeout(err error) bool {
	return KindOf(err) == ErrKindTimeout
}

// IsConnectionFailed reports whether err is a connectivity or auth failure.
func IsConnectionFailed(err error) bool {
	return KindOf(err) == ErrKindConnectionFailed
}

// IsQueryFailed reports whether err is a catalog query failure.
func IsQueryFailed(err error) bool {
	return KindOf(err) == ErrKindQueryFailed
}

// IsInvalidInput reports whether err was caused by bad input from the caller.
func IsInvalidInput(err error) bool {
	return KindOf(err) == ErrKindInvalidInput
}

// IsPermissionDenied reports whether err is an access control failure.
func IsPermissionDenied(err error) bool {
	return KindOf(err) == ErrKindPermissionDenied
}

// IsUnsupported reports whether err means the engine lacks a catalog feature.
func IsUnsupported(err error) bool {
	return KindOf(err) == ErrKindUnsupported
}

// IsInvalidState reports whether err was raised by a phase check.
func IsInvalidState(err error) bool {
	return KindOf(err) == ErrKindInvalidState
}

// IsFatal reports whether err must never be softened: the server is gone
// or the caller gave up.
func IsFatal(err error) bool {
	k := KindOf(err)
	return k == ErrKindConnectionFailed || k == ErrKindTimeout
}

// KindOf extracts the ErrKind from any error in the chain.
func KindOf(err error) ErrKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ErrKindUnknown
}
