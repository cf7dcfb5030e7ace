package domain

import (
	"errors"
	"fmt"
)

// Precondition errors, returned before any mutation.
var (
	ErrSessionFull            = errors.New("session is full")
	ErrAlreadySignedUp        = errors.New("already signed up for another session of this activity")
	ErrManagerEmailRequired   = errors.New("no manager email is set for this user")
	ErrSessionAlreadyStarted  = errors.New("session has already started")
	ErrSessionNotStarted      = errors.New("session has not started yet")
	ErrCancellationNotAllowed = errors.New("cancellations are not allowed for this session")
	ErrNotFound               = errors.New("not found")
)

// ValidationError reports a bad field on input the engine still defends
// against even though callers pre-validate.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// PersistenceError wraps a storage failure. The append/supersede pair
// rolls back as a unit, so a PersistenceError always leaves the prior
// current record intact.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failure in %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// NotificationError reports a failed notice. It never aborts a committed
// booking state; workflows attach it to an otherwise successful result.
type NotificationError struct {
	Notice string
	Err    error
}

func (e *NotificationError) Error() string {
	return fmt.Sprintf("failed to send %s notice: %v", e.Notice, e.Err)
}

func (e *NotificationError) Unwrap() error { return e.Err }
