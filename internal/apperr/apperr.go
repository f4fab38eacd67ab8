package apperr

import (
	"errors"
	"fmt"
)

// Kind is the stable classification every caller-facing error carries.
type Kind string

const (
	Validation       Kind = "validation"
	Conflict         Kind = "conflict"
	UnsupportedMedia Kind = "unsupported_media"
	PayloadTooLarge  Kind = "payload_too_large"
	NotFound         Kind = "not_found"
	Closed           Kind = "closed"
	InvalidState     Kind = "invalid_state"
	Authorization    Kind = "authorization"
	Storage          Kind = "storage"
	Internal         Kind = "internal"
)

type Error struct {
	Kind    Kind
	Message string
	Details any
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind to an underlying error. The message is what callers see.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// WithDetails returns a copy carrying field-level details for the response body.
func (e *Error) WithDetails(details any) *Error {
	cp := *e
	cp.Details = details
	return &cp
}

// DetailsOf returns the details of the outermost *Error in the chain.
func DetailsOf(err error) any {
	var e *Error
	if errors.As(err, &e) {
		return e.Details
	}
	return nil
}

// KindOf walks the chain and returns the first kind found, Internal otherwise.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}

	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}

	return Internal
}

// MessageOf returns the user-facing message of the outermost *Error in the chain.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "internal error"
}

func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}
