// Package apperr holds the error values shared by services and the HTTP layer.
package apperr

import "github.com/pkg/errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("permission denied")
	ErrUnauthorized = errors.New("not authenticated")
	ErrConflict     = errors.New("conflict")
)

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{Err: err, Fields: flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

// NotFound wraps ErrNotFound with a message naming the missing thing.
func NotFound(what string) error {
	return errors.Wrap(ErrNotFound, what+" not found")
}

// Conflict wraps ErrConflict with msg.
func Conflict(msg string) error {
	return errors.Wrap(ErrConflict, msg)
}

func Forbidden(msg string) error {
	return errors.Wrap(ErrForbidden, msg)
}

// Message returns the outermost message of a wrapped sentinel, e.g.
// "university not found" for NotFound("university").
func Message(err error) string {
	msg := err.Error()
	for _, sentinel := range []error{ErrNotFound, ErrForbidden, ErrUnauthorized, ErrConflict} {
		suffix := ": " + sentinel.Error()
		if len(msg) > len(suffix) && msg[len(msg)-len(suffix):] == suffix {
			return msg[:len(msg)-len(suffix)]
		}
	}
	return msg
}
