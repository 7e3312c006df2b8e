package imagestore

import (
	"errors"
	"fmt"
)

// Kind classifies store failures for callers.
type Kind int

const (
	// KindStorage covers disk and document I/O failures and anything unclassified.
	KindStorage Kind = iota
	// KindValidation means the caller sent malformed or missing input.
	KindValidation
	// KindNotFound means no record matched.
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not found"
	default:
		return "storage"
	}
}

// Error is returned by every store operation. Message is safe to show to
// clients; Err keeps the underlying cause for logs.
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

func validationError(format string, args ...interface{}) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func notFoundError(format string, args ...interface{}) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func storageError(message string, err error) *Error {
	return &Error{Kind: KindStorage, Message: message, Err: err}
}

// KindOf reports the kind of err. Errors that did not come from the store
// count as storage failures.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindStorage
}

// PublicMessage returns the client-safe message for err.
func PublicMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "Internal storage error"
}

func IsValidation(err error) bool {
	return err != nil && KindOf(err) == KindValidation
}

func IsNotFound(err error) bool {
	return err != nil && KindOf(err) == KindNotFound
}
