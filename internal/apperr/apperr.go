package apperr

import (
	"errors"
	"fmt"
)

// Kinds of failure a service can report. The api package maps each kind to an
// HTTP status code; anything that is not one of these is an internal error.
var (
	ErrValidation = errors.New("validation error")
	ErrConflict   = errors.New("conflict")
	ErrAuth       = errors.New("authentication error")
	ErrNotFound   = errors.New("not found")
	ErrConfig     = errors.New("misconfiguration")
)

// Error carries a kind, a message that is safe to show to clients and an
// optional underlying cause.
type Error struct {
	Kind    error
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}

	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is the kind of e, so errors.Is(err, ErrConflict) works
// through any amount of wrapping.
func (e *Error) Is(target error) bool {
	return e.Kind == target
}

func Validation(msg string) *Error { return &Error{Kind: ErrValidation, Message: msg} }

func Conflict(msg string) *Error { return &Error{Kind: ErrConflict, Message: msg} }

func Auth(msg string) *Error { return &Error{Kind: ErrAuth, Message: msg} }

func NotFound(msg string) *Error { return &Error{Kind: ErrNotFound, Message: msg} }

func Config(msg string) *Error { return &Error{Kind: ErrConfig, Message: msg} }

// Wrap attaches cause to a new error of the given kind.
func Wrap(kind error, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, Err: cause}
}

// MessageOf returns the client-facing message of err, or fallback when err does
// not carry one.
func MessageOf(err error, fallback string) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}

	return fallback
}
