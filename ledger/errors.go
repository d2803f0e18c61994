package ledger

import (
	"errors"
	"fmt"
)

// InvalidInputError reports a malformed creation or update payload.
type InvalidInputError struct {
	Field  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// NotFoundError reports an unknown event, participant or person id.
type NotFoundError struct {
	Kind string
	ID   uint
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Kind, e.ID)
}

// ConflictError reports a mutation that is not allowed in the current state,
// such as paying an already-paid participant.
type ConflictError struct {
	Reason string
}

func (e *ConflictError) Error() string {
	return e.Reason
}

func invalid(field, reason string) error {
	return &InvalidInputError{Field: field, Reason: reason}
}

func IsInvalidInput(err error) bool {
	var target *InvalidInputError
	return errors.As(err, &target)
}

func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

func IsConflict(err error) bool {
	var target *ConflictError
	return errors.As(err, &target)
}

// DeliveryError reports pending participants a Reminder could not reach.
// Participants not listed in Failed were reminded.
type DeliveryError struct {
	Failed    []uint // participant ids
	Attempted int
	Err       error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("reminder failed for %d of %d participants: %v", len(e.Failed), e.Attempted, e.Err)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}

// Partial reports whether at least one participant was reached.
func (e *DeliveryError) Partial() bool {
	return len(e.Failed) < e.Attempted
}
