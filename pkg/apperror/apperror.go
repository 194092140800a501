// Package apperror carries the machine-readable error kinds surfaced to API callers.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is a machine-readable error kind.
type Kind string

const (
	KindUnauthorized           Kind = "UNAUTHORIZED"
	KindForbidden              Kind = "FORBIDDEN"
	KindValidation             Kind = "VALIDATION_ERROR"
	KindNotFound               Kind = "NOT_FOUND"
	KindInsufficientFunds      Kind = "INSUFFICIENT_FUNDS"
	KindSlotUnavailable        Kind = "SLOT_UNAVAILABLE"
	KindInvalidStateForReview  Kind = "INVALID_STATE_FOR_REVIEW"
	KindInvalidStateForDispute Kind = "INVALID_STATE_FOR_DISPUTE"
	KindInvalidState           Kind = "INVALID_STATE"
	KindInternal               Kind = "INTERNAL_ERROR"
)

// HTTPStatus maps the kind to a response status code.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindValidation, KindInsufficientFunds,
		KindInvalidStateForReview, KindInvalidStateForDispute, KindInvalidState:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindSlotUnavailable:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Error is the domain error returned by use cases.
type Error struct {
	Kind    Kind              // Machine-readable kind
	Message string            // User-facing message
	Details map[string]string // Field level details for validation failures
	Cause   error             // Wrapped underlying error, never shown to callers
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Kind == t.Kind
	}
	return false
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

func Unauthorized(message string) *Error { return New(KindUnauthorized, message) }
func Forbidden(message string) *Error    { return New(KindForbidden, message) }
func NotFound(message string) *Error     { return New(KindNotFound, message) }

func Validation(message string, details map[string]string) *Error {
	return &Error{Kind: KindValidation, Message: message, Details: details}
}

func Internal(message string, cause error) *Error {
	return Wrap(KindInternal, message, cause)
}

// As returns the *Error in err's chain, if any.
func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// KindOf resolves the kind of any error; errors without one are internal.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	if appErr, ok := As(err); ok {
		return appErr.Kind
	}
	return KindInternal
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
