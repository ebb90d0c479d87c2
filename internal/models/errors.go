package models

import "fmt"

// ValidationError indicates malformed input: missing fields, an out-of-range
// quantity, an unknown enum value.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

// NotFoundError indicates a referenced order or catalog item does not exist.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with ID %s not found", e.Resource, e.ID)
}

// UnavailableError indicates an item is off sale or its category is inactive.
type UnavailableError struct {
	Msg string
}

func (e *UnavailableError) Error() string {
	return e.Msg
}

// AuthorizationError indicates the actor is neither the order's owner nor an
// administrator.
type AuthorizationError struct {
	Msg string
}

func (e *AuthorizationError) Error() string {
	return e.Msg
}

// StateConflictError indicates an operation that is illegal for the order's
// current status.
type StateConflictError struct {
	Op     string
	Status OrderStatus
}

func (e *StateConflictError) Error() string {
	return fmt.Sprintf("cannot %s while order is %s", e.Op, e.Status)
}

// PersistenceError wraps an underlying store failure, including transaction
// aborts. Retryable is set for timeouts; everything else is terminal for the
// request.
type PersistenceError struct {
	Err       error
	Retryable bool
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failure: %v", e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// ConsistencyError indicates a should-never-happen state, such as an order
// total that does not match its summed line items after a write. It aborts
// the enclosing transaction instead of silently repairing.
type ConsistencyError struct {
	Msg string
}

func (e *ConsistencyError) Error() string {
	return e.Msg
}
