package domain

import (
	"errors"
	"fmt"
)

// Kind classifies every error a lifecycle operation can return.
type Kind string

const (
	KindNotFound   Kind = "not_found"
	KindConflict   Kind = "conflict"
	KindForbidden  Kind = "forbidden"
	KindBadRequest Kind = "bad_request"
	KindInternal   Kind = "internal"
)

// KindOf reports the Kind of err. Errors that are not domain errors are Internal.
func KindOf(err error) Kind {
	var (
		notFound   *NotFoundError
		transition *TransitionError
		conflict   *ConflictError
		stale      *StaleVersionError
		forbidden  *ForbiddenError
		validation *ValidationError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &notFound):
		return KindNotFound
	case errors.As(err, &transition), errors.As(err, &conflict), errors.As(err, &stale):
		return KindConflict
	case errors.As(err, &forbidden):
		return KindForbidden
	case errors.As(err, &validation):
		return KindBadRequest
	default:
		return KindInternal
	}
}

// NotFoundError is returned when a referenced entity does not exist.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Entity, e.ID)
}

// TransitionError is returned when a state transition is not allowed.
type TransitionError struct {
	Entity  string
	Event   string
	Current string
	Reason  string
}

func (e *TransitionError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s %s: %s", e.Entity, e.Event, e.Reason)
	}
	return fmt.Sprintf("event %q is not valid from state %q", e.Event, e.Current)
}

// ConflictError is returned when the current state of a valid entity forbids
// an operation that is not a plain state transition (uniqueness, overlaps).
type ConflictError struct {
	Entity string
	Reason string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s: %s", e.Entity, e.Reason)
}

// StaleVersionError is returned by repositories when an update was computed
// from an outdated copy of the entity.
type StaleVersionError struct {
	Entity  string
	ID      string
	Version int64
}

func (e *StaleVersionError) Error() string {
	return fmt.Sprintf("%s %q was modified concurrently (version %d is stale)", e.Entity, e.ID, e.Version)
}

// ForbiddenError is returned when the actor may not act on this entity instance.
type ForbiddenError struct {
	ActorID string
	Action  string
}

func (e *ForbiddenError) Error() string {
	return fmt.Sprintf("actor %q is not allowed to %s", e.ActorID, e.Action)
}

// ValidationError is returned for malformed input.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
