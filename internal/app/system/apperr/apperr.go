// Package apperr defines the error kinds returned by Flowmatic services and
// their mapping onto HTTP status codes.
//
// Services return an *Error carrying a Kind and a user-facing message.
// Callers test the kind with errors.Is against the Kind sentinels:
//
//	if errors.Is(err, apperr.NotFound) { ... }
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a business-rule failure.
type Kind string

// Error kinds.
const (
	NotFound     Kind = "RESOURCE_NOT_FOUND"
	BadRequest   Kind = "BAD_REQUEST"
	Unauthorized Kind = "ACCESS_UNAUTHORIZED"
	Forbidden    Kind = "FORBIDDEN"
	Conflict     Kind = "CONFLICT"
	Internal     Kind = "INTERNAL_SERVER_ERROR"
)

// Error implements error so a bare Kind can be used as an errors.Is target.
func (k Kind) Error() string { return string(k) }

// Error is a classified failure with a message safe to show to clients.
type Error struct {
	Kind    Kind
	Message string
	Err     error // optional cause, never shown to clients
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Is reports whether target is this error's Kind.
func (e *Error) Is(target error) bool {
	k, ok := target.(Kind)
	return ok && k == e.Kind
}

func (e *Error) Unwrap() error { return e.Err }

// New returns an *Error of the given kind.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// Wrap returns an *Error of the given kind that wraps cause.
func Wrap(kind Kind, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, Err: cause}
}

func NotFoundf(format string, args ...any) *Error {
	return New(NotFound, fmt.Sprintf(format, args...))
}

func BadRequestf(format string, args ...any) *Error {
	return New(BadRequest, fmt.Sprintf(format, args...))
}

func Unauthorizedf(format string, args ...any) *Error {
	return New(Unauthorized, fmt.Sprintf(format, args...))
}

func Forbiddenf(format string, args ...any) *Error {
	return New(Forbidden, fmt.Sprintf(format, args...))
}

func Conflictf(format string, args ...any) *Error {
	return New(Conflict, fmt.Sprintf(format, args...))
}

// KindOf returns the kind of err, or Internal when err is not classified.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	var k Kind
	if errors.As(err, &k) {
		return k
	}
	return Internal
}

// Message returns the client-facing message for err. Unclassified errors get
// a generic message so internals never leak.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "Internal Server Error"
}

// HTTPStatus maps err onto an HTTP status code.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case NotFound:
		return http.StatusNotFound
	case BadRequest:
		return http.StatusBadRequest
	case Unauthorized:
		return http.StatusUnauthorized
	case Forbidden:
		return http.StatusForbidden
	case Conflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
