// Package apperr defines the typed error kinds shared across Byaboneka+
// Core subsystems, and the HTTP status each maps to. It replaces inline
// gin.H error responses scattered across handlers with one place, the
// way a mature Gin service structures error handling.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is one of the error kinds enumerated in 
type Kind string

const (
	KindInvalidInput    Kind = "invalid_input"
	KindUnauthenticated Kind = "unauthenticated"
	KindForbidden       Kind = "forbidden"
	KindNotFound        Kind = "not_found"
	KindConflict        Kind = "conflict"
	KindRateLimited     Kind = "rate_limited"
	KindCooldown        Kind = "cooldown"
	KindBlocked         Kind = "blocked"
	KindExpired         Kind = "expired"
	KindTransientStore  Kind = "transient_store"
	KindInternal        Kind = "internal"
)

// FieldError is one field-level validation failure.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error is the typed error propagated out of every subsystem. Handlers
// pass an *Error (or a plain error, rendered as KindInternal) to the
// internal/api fail helper, which applies the standard response envelope.
type Error struct {
	Kind    Kind
	Message string
	Fields  []FieldError
	// wrapped is the underlying cause, never serialized to the client.
	wrapped error
}

func (e *Error) Error() string {
	if e.wrapped != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.wrapped)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.wrapped }

// New builds an *Error of the given kind with a user-facing message.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf builds an *Error with a formatted message.
func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches an internal cause to an error kind without leaking it to
// the client; the wrapped error is only available via errors.Unwrap for
// logging.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, wrapped: cause}
}

// WithFields attaches field-level validation detail (KindInvalidInput).
func (e *Error) WithFields(fields ...FieldError) *Error {
	e.Fields = fields
	return e
}

// HTTPStatus maps a Kind to its HTTP status code.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindInvalidInput:
		return http.StatusBadRequest
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindRateLimited, KindCooldown:
		return http.StatusTooManyRequests
	case KindBlocked:
		return http.StatusForbidden
	case KindExpired:
		return http.StatusConflict
	case KindTransientStore, KindInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// As extracts an *Error from a generic error, or reports false if err is
// not (or does not wrap) one.
func As(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}
