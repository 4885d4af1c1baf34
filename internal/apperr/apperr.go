// Package apperr defines the closed set of error kinds surfaced by the API.
// Services return *Error values; the HTTP layer translates them once.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an application error.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindUnauthorized
	KindInvalidCredentials
	KindInvalidPassword
	KindEmailInUse
	KindAlreadyFavorited
	KindNotFound
	KindUpstream
	KindConfig
)

// String returns the wire code of the kind.
func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "ValidationError"
	case KindUnauthorized:
		return "Unauthorized"
	case KindInvalidCredentials:
		return "InvalidCredentials"
	case KindInvalidPassword:
		return "InvalidPassword"
	case KindEmailInUse:
		return "EmailInUse"
	case KindAlreadyFavorited:
		return "AlreadyFavorited"
	case KindNotFound:
		return "NotFound"
	case KindUpstream:
		return "UpstreamError"
	case KindConfig:
		return "ConfigError"
	default:
		return "InternalError"
	}
}

// Status returns the default HTTP status for the kind.
func (k Kind) Status() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindUnauthorized, KindInvalidCredentials, KindInvalidPassword:
		return http.StatusUnauthorized
	case KindEmailInUse, KindAlreadyFavorited:
		return http.StatusConflict
	case KindNotFound:
		return http.StatusNotFound
	case KindUpstream:
		return http.StatusBadGateway
	case KindConfig:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Error is a classified application error.
type Error struct {
	Kind    Kind
	Message string
	// ID carries the conflicting resource id for KindAlreadyFavorited.
	ID string
	// Code overrides the wire code, used to relay upstream error codes verbatim.
	Code string
	// HTTPStatus overrides Kind.Status() when non-zero.
	HTTPStatus int
	Err        error
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

// WireCode returns the code written to clients.
func (e *Error) WireCode() string {
	if e.Code != "" {
		return e.Code
	}
	return e.Kind.String()
}

// Status returns the HTTP status written to clients.
func (e *Error) Status() int {
	if e.HTTPStatus != 0 {
		return e.HTTPStatus
	}
	return e.Kind.Status()
}

// New constructs an Error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap constructs an Error of the given kind around a cause.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func Validation(message string) *Error {
	return New(KindValidation, message)
}

func Unauthorized(message string) *Error {
	return New(KindUnauthorized, message)
}

func NotFound(message string) *Error {
	return New(KindNotFound, message)
}

func Internal(err error) *Error {
	return Wrap(KindInternal, "Something went wrong", err)
}

// AlreadyFavorited reports a duplicate favorite and carries the existing id.
func AlreadyFavorited(id string) *Error {
	return &Error{Kind: KindAlreadyFavorited, Message: "Article already in favorites", ID: id}
}

// As extracts an *Error from err. Unclassified errors become KindInternal.
func As(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal(err)
}

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var appErr *Error
	return errors.As(err, &appErr) && appErr.Kind == kind
}
