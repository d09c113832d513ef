package errprocess

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// Kind classifies an error for callers and for HTTP status mapping.
type Kind string

const (
	// KindNotFound unresolved user or conversation
	KindNotFound Kind = "not_found"
	// KindInvalidArgument malformed or oversized input
	KindInvalidArgument Kind = "invalid_argument"
	// KindUnauthorized missing or invalid credential
	KindUnauthorized Kind = "unauthorized"
	// KindStorage transient I/O failure against the durable store or cache
	KindStorage Kind = "storage_error"
)

// Error carries a kind together with a message and an optional cause.
type Error struct {
	Kind  Kind
	Msg   string
	Cause error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Cause)
	}
	return e.Msg
}

// Unwrap exposes the cause for errors.Is / errors.As chains
func (e *Error) Unwrap() error {
	return e.Cause
}

// NotFound builds a not_found error
func NotFound(msg string) error {
	return &Error{Kind: KindNotFound, Msg: msg}
}

// InvalidArgument builds an invalid_argument error
func InvalidArgument(msg string) error {
	return &Error{Kind: KindInvalidArgument, Msg: msg}
}

// Unauthorized builds an unauthorized error
func Unauthorized(msg string) error {
	return &Error{Kind: KindUnauthorized, Msg: msg}
}

// Storage wraps a durable store or cache failure as storage_error
func Storage(msg string, cause error) error {
	return &Error{Kind: KindStorage, Msg: msg, Cause: cause}
}

// KindOf returns the kind of err, defaulting to storage_error for
// untyped errors reaching a boundary.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindStorage
}

// Is reports whether err carries the given kind
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// HTTPStatus maps an error kind to its HTTP status code
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindNotFound:
		return fiber.StatusNotFound
	case KindInvalidArgument:
		return fiber.StatusBadRequest
	case KindUnauthorized:
		return fiber.StatusUnauthorized
	default:
		return fiber.StatusInternalServerError
	}
}
