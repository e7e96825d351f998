package store

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is a structural storage failure with an HTTP status code.
// The store only reports what happened to the rows; services decide
// what the failure means for the caller.
type Error struct {
	Code    int    // HTTP status code
	Message string // User-facing message
	Err     error  // Underlying error (optional)
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error with the same code, so WithMessage variants
// still satisfy errors.Is(err, ErrNotFound).
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// HTTPCode returns the HTTP status code associated with this error.
func (e *Error) HTTPCode() int { return e.Code }

// WithMessage returns a new error with a custom message.
func (e *Error) WithMessage(msg string) *Error {
	return &Error{
		Code:    e.Code,
		Message: msg,
		Err:     e.Err,
	}
}

// WithCause wraps an underlying error.
func (e *Error) WithCause(err error) *Error {
	return &Error{
		Code:    e.Code,
		Message: e.Message,
		Err:     err,
	}
}

// Sentinel errors.
var (
	ErrNotFound = &Error{
		Code:    http.StatusNotFound,
		Message: "resource not found",
	}

	ErrAlreadyExists = &Error{
		Code:    http.StatusConflict,
		Message: "resource already exists",
	}

	ErrInvalidInput = &Error{
		Code:    http.StatusBadRequest,
		Message: "invalid input",
	}
)

// Typed not-found variants used by the SQLite store.
var (
	ErrTagNotFound     = ErrNotFound.WithMessage("tag not found")
	ErrNoteNotFound    = ErrNotFound.WithMessage("note not found")
	ErrUserNotFound    = ErrNotFound.WithMessage("user not found")
	ErrLinkNotFound    = ErrNotFound.WithMessage("tag is not linked to this note")
	ErrTagLinkNotFound = ErrNotFound.WithMessage("tags are not linked")

	ErrTagNameExists = ErrAlreadyExists.WithMessage("tag name already exists")
	ErrLinkExists    = ErrAlreadyExists.WithMessage("tag is already linked to this note")
	ErrTagLinkExists = ErrAlreadyExists.WithMessage("tags are already linked")
	ErrEmailExists   = ErrAlreadyExists.WithMessage("email already registered")

	ErrEmptyTagName = ErrInvalidInput.WithMessage("tag name is empty")
	ErrSelfLink     = ErrInvalidInput.WithMessage("a tag cannot be linked to itself")
)
