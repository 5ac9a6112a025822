package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies a failure the way the transport layer needs to report it.
// Services wrap kinds with context via Errorf; handlers unwrap with KindOf.
type Kind int

const (
	// Internal is the fallback for anything a service did not classify.
	Internal Kind = iota
	// NotFound: a referenced order/candidate/coupon/payment/service/user does not exist.
	NotFound
	// InvalidState: operation attempted outside its allowed state
	// (expired coupon, deleting a paid order, reviewing an unfinished order).
	InvalidState
	// Forbidden: requester lacks ownership or the admin role.
	Forbidden
	// Conflict: duplicate claim, duplicate review, order already paid.
	Conflict
	// Validation: malformed enum value or missing required field.
	Validation
)

type kindError struct {
	kind Kind
	msg  string
	err  error
}

func (e *kindError) Error() string {
	if e.err != nil {
		return e.msg + ": " + e.err.Error()
	}
	return e.msg
}

func (e *kindError) Unwrap() error { return e.err }

// New builds a classified error with a user-facing message.
func New(kind Kind, msg string) error {
	return &kindError{kind: kind, msg: msg}
}

// Errorf is New with fmt verbs. %w wrapping is supported.
func Errorf(kind Kind, format string, args ...interface{}) error {
	inner := fmt.Errorf(format, args...)
	return &kindError{kind: kind, msg: inner.Error(), err: errors.Unwrap(inner)}
}

// Wrap attaches a kind and message to an underlying error.
func Wrap(kind Kind, err error, msg string) error {
	return &kindError{kind: kind, msg: msg, err: err}
}

// KindOf returns the classification of err, or Internal when unclassified.
func KindOf(err error) Kind {
	var ke *kindError
	if errors.As(err, &ke) {
		return ke.kind
	}
	return Internal
}

// Is reports whether err carries the given kind anywhere in its chain.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}
