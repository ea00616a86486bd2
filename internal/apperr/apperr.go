// Package apperr defines the error taxonomy shared by the rating, ledger and
// standings services. Handlers map these onto HTTP status codes; everything
// else is treated as an internal error.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an application error.
type Kind int

const (
	// KindValidation marks malformed or out-of-range input. Rejected before
	// any state change.
	KindValidation Kind = iota
	// KindConflict marks an operation that already happened (duplicate vote,
	// double finalization). The operation is a no-op.
	KindConflict
	// KindNotFound marks a reference to an unknown model, debate or topic.
	KindNotFound
	// KindInvariant marks a caller bug: an operation attempted against state
	// that should make it impossible (e.g. finalizing a non-terminal debate).
	KindInvariant
)

// Error is an application error with a classification.
type Error struct {
	Knd Kind
	Msg string
	Err error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// Kind extracts the classification from err, or -1 if err is not an *Error.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Knd
	}
	return -1
}

// Validation creates a validation error.
func Validation(format string, args ...interface{}) error {
	return &Error{Knd: KindValidation, Msg: fmt.Sprintf(format, args...)}
}

// Conflict creates a conflict error.
func Conflict(format string, args ...interface{}) error {
	return &Error{Knd: KindConflict, Msg: fmt.Sprintf(format, args...)}
}

// NotFound creates a not-found error.
func NotFound(format string, args ...interface{}) error {
	return &Error{Knd: KindNotFound, Msg: fmt.Sprintf(format, args...)}
}

// Invariant creates an invariant-violation error.
func Invariant(format string, args ...interface{}) error {
	return &Error{Knd: KindInvariant, Msg: fmt.Sprintf(format, args...)}
}

// Wrap attaches a cause to an application error kind.
func Wrap(kind Kind, err error, format string, args ...interface{}) error {
	return &Error{Knd: kind, Msg: fmt.Sprintf(format, args...), Err: err}
}

// IsValidation reports whether err is a validation error.
func IsValidation(err error) bool { return KindOf(err) == KindValidation }

// IsConflict reports whether err is a conflict error.
func IsConflict(err error) bool { return KindOf(err) == KindConflict }

// IsNotFound reports whether err is a not-found error.
func IsNotFound(err error) bool { return KindOf(err) == KindNotFound }

// IsInvariant reports whether err is an invariant violation.
func IsInvariant(err error) bool { return KindOf(err) == KindInvariant }
