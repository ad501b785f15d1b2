package domain

import (
	"errors"
	"fmt"
)

// Error kinds shared by every layer. Match them with errors.Is.
var (
	// ErrValidation: a required selection or parameter is missing or malformed.
	ErrValidation = errors.New("validation error")
	// ErrQuery: the catalog could not answer (unreachable, malformed filter, timeout).
	ErrQuery = errors.New("query error")
	// ErrNotFound: a record looked up by id does not exist.
	ErrNotFound = errors.New("not found")
)

// Error carries a kind, a user-facing message and the underlying cause.
type Error struct {
	Kind    error
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap exposes both the kind and the cause to errors.Is / errors.As.
func (e *Error) Unwrap() []error {
	if e.Cause != nil {
		return []error{e.Kind, e.Cause}
	}
	return []error{e.Kind}
}

func Validation(msg string) error {
	return &Error{Kind: ErrValidation, Message: msg}
}

func Query(msg string, cause error) error {
	return &Error{Kind: ErrQuery, Message: msg, Cause: cause}
}

// MalformedFilter reports criteria the catalog cannot run. It is a query
// failure that also matches ErrValidation, so callers may treat it as bad input.
func MalformedFilter(err error) error {
	return &Error{Kind: ErrQuery, Message: "malformed filter: " + Message(err), Cause: ErrValidation}
}

func NotFound(msg string) error {
	return &Error{Kind: ErrNotFound, Message: msg}
}

// Message returns the user-facing text of err, without the cause chain.
func Message(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
