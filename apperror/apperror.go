// Package apperror defines the error taxonomy shared by every layer of the
// service and its mapping onto HTTP status codes.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

type Kind string

const (
	KindValidation  Kind = "validation_error"
	KindAuth        Kind = "auth_error"
	KindNotFound    Kind = "not_found"
	KindRateLimited Kind = "rate_limit_error"
	KindUpstream    Kind = "upstream_unavailable"
	KindStorage     Kind = "storage_error"
	KindInternal    Kind = "internal_error"
)

// Status returns the HTTP status code for the kind.
func (k Kind) Status() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindAuth:
		return http.StatusUnauthorized
	case KindNotFound:
		return http.StatusNotFound
	case KindRateLimited:
		return http.StatusTooManyRequests
	case KindUpstream:
		return http.StatusServiceUnavailable
	case KindStorage:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

type Error struct {
	Kind      Kind
	Message   string
	Details   map[string]any
	Timestamp time.Time
	Err       error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// With attaches a detail entry and returns the same error.
func (e *Error) With(key string, value any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

func newError(kind Kind, err error, message string) *Error {
	return &Error{
		Kind:      kind,
		Message:   message,
		Timestamp: time.Now(),
		Err:       err,
	}
}

func Validation(message string) *Error {
	return newError(KindValidation, nil, message)
}

func Auth(message string) *Error {
	return newError(KindAuth, nil, message)
}

func NotFound(message string) *Error {
	return newError(KindNotFound, nil, message)
}

func RateLimited(message string) *Error {
	return newError(KindRateLimited, nil, message)
}

func Upstream(err error, message string) *Error {
	return newError(KindUpstream, err, message)
}

// Storage reports a write that one store accepted while its paired write failed,
// or a store that refused the write outright.
func Storage(err error, message, ownerID, docID string) *Error {
	return newError(KindStorage, err, message).
		With("user_id", ownerID).
		With("doc_id", docID)
}

func Internal(err error, message string) *Error {
	return newError(KindInternal, err, message)
}

// As extracts the first *Error in err's chain.
func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// KindOf reports the kind of err, KindInternal when it carries none.
func KindOf(err error) Kind {
	if appErr, ok := As(err); ok {
		return appErr.Kind
	}
	return KindInternal
}

func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}
