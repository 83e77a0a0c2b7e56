// Package apperr defines the error taxonomy surfaced by the query layer.
//
// Callers classify failures with errors.Is against the Err* sentinels or with
// KindOf; the transport maps each kind to a status code.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error by who is at fault and whether a retry can help.
type Kind int

const (
	KindInternal   Kind = iota // unexpected failure, details not exposed
	KindValidation             // malformed input, never retried
	KindNotFound               // referenced user or instrument absent
	KindConflict               // unique constraint, e.g. email already registered
	KindStore                  // persistent store I/O, safe to retry
)

// Sentinels matched by (*Error).Is.
var (
	ErrInternal   = errors.New("internal error")
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
	ErrStore      = errors.New("store error")
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindStore:
		return "store"
	default:
		return "internal"
	}
}

func (k Kind) sentinel() error {
	switch k {
	case KindValidation:
		return ErrValidation
	case KindNotFound:
		return ErrNotFound
	case KindConflict:
		return ErrConflict
	case KindStore:
		return ErrStore
	default:
		return ErrInternal
	}
}

// Error is a classified failure. Msg is safe to show to callers; Err carries
// the underlying cause for logs.
type Error struct {
	Kind Kind
	Op   string // operation that failed, e.g. "portfolio"
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Err != nil && e.Msg != "":
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Msg, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	default:
		return fmt.Sprintf("%s: %s", e.Op, e.Msg)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrNotFound) match any *Error of that kind.
func (e *Error) Is(target error) bool {
	return target == e.Kind.sentinel()
}

// Validation reports malformed caller input.
func Validation(op, msg string) error {
	return &Error{Kind: KindValidation, Op: op, Msg: msg}
}

// NotFound reports a missing referenced entity, named by what.
func NotFound(op, what string) error {
	return &Error{Kind: KindNotFound, Op: op, Msg: what + " not found"}
}

// Conflict reports a uniqueness violation.
func Conflict(op, msg string) error {
	return &Error{Kind: KindConflict, Op: op, Msg: msg}
}

// Store wraps a persistent store failure.
func Store(op string, err error) error {
	return &Error{Kind: KindStore, Op: op, Err: err}
}

// Internal wraps an unexpected failure.
func Internal(op string, err error) error {
	return &Error{Kind: KindInternal, Op: op, Err: err}
}

// KindOf returns the kind of err, KindInternal for unclassified errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Message returns the caller-safe message for err.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Msg != "" && e.Kind != KindStore && e.Kind != KindInternal {
		return e.Msg
	}
	return "something went wrong"
}
