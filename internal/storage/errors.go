// Package storage defines the transactional data store port and its typed
// error taxonomy. The pgx implementation lives in storage/postgres; tests use
// in-memory fakes built against the same interfaces.
package storage

import (
	"errors"
	"fmt"
)

// Kind classifies store failures so callers can map them to HTTP statuses
// and retry policy without inspecting driver errors.
type Kind int

const (
	// KindNotFound: entity missing in tenant scope.
	KindNotFound Kind = iota + 1
	// KindConflict: unique violation.
	KindConflict
	// KindInvariant: check-constraint or referential violation.
	KindInvariant
	// KindTransient: retry permitted (connection resets, timeouts).
	KindTransient
	// KindFatal: data store outage or programming error.
	KindFatal
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindInvariant:
		return "invariant"
	case KindTransient:
		return "transient"
	case KindFatal:
		return "fatal"
	}
	return "unknown"
}

// Error is the typed failure returned by every store operation.
type Error struct {
	Kind Kind
	Op   string // e.g. "games.bulk_insert"
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// NewError wraps err with a kind and operation label.
func NewError(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// NotFound builds a KindNotFound error for the given entity.
func NotFound(op, entity, id string) *Error {
	return &Error{Kind: KindNotFound, Op: op, Err: fmt.Errorf("%s %s not found", entity, id)}
}

// KindOf extracts the Kind from err, or KindFatal for untyped errors.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindFatal
}

func IsNotFound(err error) bool  { return KindOf(err) == KindNotFound }
func IsConflict(err error) bool  { return KindOf(err) == KindConflict }
func IsInvariant(err error) bool { return KindOf(err) == KindInvariant }
func IsTransient(err error) bool { return KindOf(err) == KindTransient }
