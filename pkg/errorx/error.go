package errorx

import (
	"errors"
	"fmt"
)

// Error is returned by domains to the delivery layers. Message is safe to
// show to callers, internal details are logged instead.
type Error struct {
	Code    Code
	Message string
}

func New(code Code, format string, a ...any) Error {
	return Error{Code: code, Message: fmt.Sprintf(format, a...)}
}

func (e Error) Error() string {
	return fmt.Sprintf("%d: %s", e.Code, e.Message)
}

// CodeOf returns the code carried by err, or the Unknown code if err is not
// an Error.
func CodeOf(err error) Code {
	var errx Error
	if !errors.As(err, &errx) {
		return Unknown.Code
	}

	return errx.Code
}

// Is reports whether err is an Error with the given code.
func Is(err error, code Code) bool {
	return err != nil && CodeOf(err) == code
}

// Retryable reports whether the same request may succeed later. Only
// transient storage failures and exhausted version conflicts are retryable.
func Retryable(err error) bool {
	return Is(err, Unavailable)
}
