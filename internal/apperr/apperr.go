// Package apperr defines the errors that are surfaced to API callers.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind int

const (
	KindInternal Kind = iota
	KindInput
	KindExtraction
)

// Error is a user-facing error. Message is safe to return to the caller.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Input reports bad or missing input. Maps to 400.
func Input(message string) *Error {
	return &Error{Kind: KindInput, Message: message}
}

// Extraction reports an unreadable upload. Maps to 500.
func Extraction(message string, err error) *Error {
	return &Error{Kind: KindExtraction, Message: message, Err: err}
}

// Internal wraps an unexpected failure. Maps to 500.
func Internal(message string, err error) *Error {
	return &Error{Kind: KindInternal, Message: message, Err: err}
}

// HTTPStatus maps err to a status code. Unknown errors are 500.
func HTTPStatus(err error) int {
	var appErr *Error
	if errors.As(err, &appErr) && appErr.Kind == KindInput {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// IsInput reports whether err is an input error.
func IsInput(err error) bool {
	var appErr *Error
	return errors.As(err, &appErr) && appErr.Kind == KindInput
}
