package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an application error. Every kind maps to one HTTP status.
type Kind string

const (
	KindValidation      Kind = "validation"
	KindUnauthenticated Kind = "unauthenticated"
	KindForbidden       Kind = "forbidden"
	KindNotFound        Kind = "not_found"
	KindLimitExceeded   Kind = "limit_exceeded"
	KindUpstream        Kind = "upstream"
	KindConfig          Kind = "config"
	KindInternal        Kind = "internal"
)

var statusByKind = map[Kind]int{
	KindValidation:      http.StatusBadRequest,
	KindUnauthenticated: http.StatusUnauthorized,
	KindForbidden:       http.StatusForbidden,
	KindNotFound:        http.StatusNotFound,
	KindLimitExceeded:   http.StatusTooManyRequests,
	KindUpstream:        http.StatusInternalServerError,
	KindConfig:          http.StatusInternalServerError,
	KindInternal:        http.StatusInternalServerError,
}

// Error is the single error type surfaced by services. Message is safe to
// show to a client; Cause is for logs only.
type Error struct {
	Kind    Kind
	Status  int
	Message string
	Cause   error
	Details map[string]interface{}
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// WithDetail attaches a client-visible detail (e.g. usage numbers on a 429).
func (e *Error) WithDetail(key string, value interface{}) *Error {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Status: StatusOf(kind), Message: message}
}

func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Status: StatusOf(kind), Message: message, Cause: cause}
}

// StatusOf returns the HTTP status for kind, 500 for unknown kinds.
func StatusOf(kind Kind) int {
	if status, ok := statusByKind[kind]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// As extracts an *Error from err's chain.
func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsKind reports whether err carries an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	appErr, ok := As(err)
	return ok && appErr.Kind == kind
}

// Convenience constructors.

func Validation(message string) *Error {
	return New(KindValidation, message)
}

// MissingField is the validation error for an absent or blank required field.
func MissingField(field string) *Error {
	return New(KindValidation, fmt.Sprintf("%s is required", field)).WithDetail("field", field)
}

func Unauthenticated(message string) *Error {
	return New(KindUnauthenticated, message)
}

func Forbidden(message string) *Error {
	return New(KindForbidden, message)
}

func NotFound(resource string) *Error {
	return New(KindNotFound, fmt.Sprintf("%s not found", resource))
}

func LimitExceeded(message string) *Error {
	return New(KindLimitExceeded, message)
}

func Upstream(message string, cause error) *Error {
	return Wrap(KindUpstream, message, cause)
}

func Config(message string) *Error {
	return New(KindConfig, message)
}

func Internal(cause error) *Error {
	return Wrap(KindInternal, "internal server error", cause)
}
