package event

import (
	"errors"
	"fmt"
)

// Sentinel errors for the event manager.
var (
	// ErrInvalidCapacity is returned when a table or queue size is outside 1..MaxCapacity.
	ErrInvalidCapacity = errors.New("invalid capacity")

	// ErrInvalidPriority is returned when a priority name cannot be parsed.
	ErrInvalidPriority = errors.New("invalid priority")

	// ErrUnknownCode is returned when an event code name cannot be parsed.
	ErrUnknownCode = errors.New("unknown event code")
)

// CapacityError describes a rejected capacity setting.
type CapacityError struct {
	// Name is the setting that was rejected (e.g. "dispatch table size").
	Name string

	// Size is the rejected value.
	Size int
}

// Error implements the error interface.
func (e *CapacityError) Error() string {
	return fmt.Sprintf("%s %d outside 1..%d", e.Name, e.Size, MaxCapacity)
}

// Is allows errors.Is to match CapacityError with ErrInvalidCapacity.
func (e *CapacityError) Is(target error) bool {
	return target == ErrInvalidCapacity
}

// checkCapacity validates a table or queue size.
func checkCapacity(name string, size int) error {
	if size < 1 || size > MaxCapacity {
		return &CapacityError{Name: name, Size: size}
	}
	return nil
}
