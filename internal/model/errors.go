package model

import (
	"errors"
	"fmt"
)

// Sentinel errors for errors.Is checks. The typed errors below wrap these so
// callers can branch on category without losing context.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrForbidden    = errors.New("forbidden")
	ErrInvalidState = errors.New("invalid state")
	ErrValidation   = errors.New("validation error")
	ErrUnauthorized = errors.New("unauthorized")
)

// NotFoundError marks a lookup by id (or name) that matched nothing.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Entity, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// ConflictError marks a unique-key violation, e.g. subject+level or username.
type ConflictError struct {
	Entity string
	Key    string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s with %s already exists", e.Entity, e.Key)
}

func (e *ConflictError) Unwrap() error { return ErrConflict }

// ForbiddenError marks a caller lacking ownership or role for an action.
type ForbiddenError struct {
	Action string
	Reason string
}

func (e *ForbiddenError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("not authorized to %s: %s", e.Action, e.Reason)
	}
	return fmt.Sprintf("not authorized to %s", e.Action)
}

func (e *ForbiddenError) Unwrap() error { return ErrForbidden }

// InvalidStateError marks a transition or mutation not permitted in the
// entity's current status.
type InvalidStateError struct {
	Entity  string
	ID      string
	Current string
	Action  string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("cannot %s %s %s %q", e.Action, e.Current, e.Entity, e.ID)
}

func (e *InvalidStateError) Unwrap() error { return ErrInvalidState }

// ValidationError marks malformed input.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	}
	return e.Reason
}

func (e *ValidationError) Unwrap() error { return ErrValidation }
