package errors

import "fmt"

// ErrNotFound is returned when a resource is not found
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ErrValidation is returned when validation fails
type ErrValidation struct {
	Message string
	Fields  map[string]string
}

func (e *ErrValidation) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "validation failed"
}

// ErrConflict is returned when a unique constraint is violated (e.g. duplicate prefix)
type ErrConflict struct {
	Message string
}

func (e *ErrConflict) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "conflict"
}

// ErrAllocation is returned when the atomic sequence increment for a product set
// did not produce a value. It is fatal for the calling creation flow: no code is
// reserved and no product may be created.
type ErrAllocation struct {
	SetID   string
	Message string
}

func (e *ErrAllocation) Error() string {
	return fmt.Sprintf("failed to allocate product code for set %s: %s", e.SetID, e.Message)
}
