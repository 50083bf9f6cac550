package domain

import (
	"errors"
	"fmt"
)

var ErrNotFound = errors.New("record not found")

// ValidationError is returned when a transition is missing a mandatory
// field or is not allowed from the record's current status.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Message
	}
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
}

// PermissionError is returned when the actor may not perform the action.
type PermissionError struct {
	ActorID string
	Action  string
}

// Expected marks refusals that are logged at warn rather than error.
func (e *ValidationError) Expected() bool { return true }

func (e *PermissionError) Expected() bool { return true }

func (e *ConflictError) Expected() bool { return true }

func (e *PermissionError) Error() string {
	return fmt.Sprintf("permission denied: %s may not %s", e.ActorID, e.Action)
}

// ConflictError is returned when a compare-and-swap on status lost a race.
type ConflictError struct {
	RecordID       string
	ExpectedStatus RecordStatus
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("conflict: record %s is no longer %s", e.RecordID, e.ExpectedStatus)
}

// StoreError wraps transport failures from the record store.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s failed: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

func IsPermission(err error) bool {
	var p *PermissionError
	return errors.As(err, &p)
}

func IsConflict(err error) bool {
	var c *ConflictError
	return errors.As(err, &c)
}

func IsStore(err error) bool {
	var s *StoreError
	return errors.As(err, &s)
}
