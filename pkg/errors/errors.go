package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
)

// Code is the stable, client-facing error identifier.
type Code string

const (
	CodeValidation   Code = "VALIDATION_ERROR"
	CodeUnauthorized Code = "UNAUTHORIZED"
	CodeNotFound     Code = "NOT_FOUND"
	CodeConflict     Code = "CONFLICT"
	CodeIdempotency  Code = "IDEMPOTENCY_KEY_REUSED"
	CodeRateLimit    Code = "RATE_LIMIT_EXCEEDED"
	CodeInternal     Code = "INTERNAL_ERROR"
	CodeDependency   Code = "DEPENDENCY_ERROR"
)

type Metadata struct {
	HTTPStatus     int
	Retryable      bool
	PublicMessage  string
	DetailsAllowed bool
}

func meta(status int, public string, opts ...func(*Metadata)) Metadata {
	m := Metadata{HTTPStatus: status, PublicMessage: public}
	for _, o := range opts {
		o(&m)
	}
	return m
}

func retryable(m *Metadata)   { m.Retryable = true }
func withDetails(m *Metadata) { m.DetailsAllowed = true }

var metadata = map[Code]Metadata{
	CodeValidation:   meta(http.StatusBadRequest, "validation failed", withDetails),
	CodeUnauthorized: meta(http.StatusUnauthorized, "invalid session"),
	CodeNotFound:     meta(http.StatusNotFound, "resource not found"),
	CodeConflict:     meta(http.StatusConflict, "conflict detected"),
	CodeIdempotency:  meta(http.StatusConflict, "idempotency key reused", withDetails),
	CodeRateLimit:    meta(http.StatusTooManyRequests, "rate limit exceeded"),
	CodeInternal:     meta(http.StatusInternalServerError, "internal server error", retryable),
	CodeDependency:   meta(http.StatusServiceUnavailable, "dependency unavailable", retryable, withDetails),
}

// MetadataFor treats unknown codes as internal.
func MetadataFor(code Code) Metadata {
	if m, ok := metadata[code]; ok {
		return m
	}
	return metadata[CodeInternal]
}

// Error carries a Code plus the message shown to callers. The cause stays
// server-side and only reaches logs.
type Error struct {
	code    Code
	message string
	details any
	cause   error
}

func New(code Code, message string) *Error {
	return &Error{code: code, message: message}
}

func Newf(code Code, format string, args ...any) *Error {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap with a nil err is the same as New.
func Wrap(code Code, err error, message string) *Error {
	return &Error{code: code, message: message, cause: err}
}

func (e *Error) Code() Code {
	if e == nil {
		return CodeInternal
	}
	return e.code
}

func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

func (e *Error) Details() any {
	if e == nil {
		return nil
	}
	return e.details
}

func (e *Error) WithDetails(details any) *Error {
	if e != nil {
		e.details = details
	}
	return e
}

func (e *Error) Error() string {
	switch {
	case e == nil:
		return ""
	case e.cause == nil:
		return string(e.code) + ": " + e.message
	default:
		return fmt.Sprintf("%s: %s: %v", e.code, e.message, e.cause)
	}
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// As returns the outermost *Error in the chain.
func As(err error) *Error {
	var typed *Error
	if err != nil && stdErrors.As(err, &typed) {
		return typed
	}
	return nil
}

func IsCode(err error, code Code) bool {
	return As(err).codeOr("") == code
}

func (e *Error) codeOr(fallback Code) Code {
	if e == nil {
		return fallback
	}
	return e.code
}
