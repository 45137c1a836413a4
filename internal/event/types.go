package event

import (
	"fmt"
	"strings"
)

// Priority selects the queue an event is posted to.
type Priority int

const (
	// PriorityLow is the routine queue. It is the zero value and the default.
	PriorityLow Priority = iota

	// PriorityHigh events are always drained before any low priority event.
	PriorityHigh
)

// String returns a human-readable priority name.
func (p Priority) String() string {
	if p == PriorityHigh {
		return "high"
	}
	return "low"
}

// normalize maps unknown priority values onto the low priority queue.
func (p Priority) normalize() Priority {
	if p == PriorityHigh {
		return PriorityHigh
	}
	return PriorityLow
}

// ParsePriority parses "high" or "low" (case-insensitive).
// An empty string selects the default, PriorityLow.
func ParsePriority(s string) (Priority, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "low":
		return PriorityLow, nil
	case "high":
		return PriorityHigh, nil
	default:
		return PriorityLow, fmt.Errorf("%w: %q", ErrInvalidPriority, s)
	}
}

// Record is one queued event.
type Record struct {
	// Code identifies the event.
	Code int

	// Param is caller-supplied auxiliary data, interpreted by listeners.
	Param int
}

// Listener is the interface for event listeners.
type Listener interface {
	// HandleEvent is called once for each dispatched event whose code the
	// listener is registered for.
	HandleEvent(code, param int)
}

// ListenerFunc is a function adapter for Listener.
//
// A ListenerFunc is identified by its code pointer, not by its captured
// variables. Closures created from the same function literal, and method
// values of the same method on different receivers, are the same listener:
// registering a second one for a code fails, and RemoveListenerAll removes
// the entries of all of them. Use a pointer type implementing Listener when
// instances must be told apart.
type ListenerFunc func(code, param int)

// HandleEvent implements the Listener interface.
func (f ListenerFunc) HandleEvent(code, param int) {
	f(code, param)
}

// Capacity limits.
const (
	// DefaultDispatchTableSize is the default number of listener slots.
	DefaultDispatchTableSize = 8

	// DefaultEventQueueSize is the default number of slots per queue.
	DefaultEventQueueSize = 8

	// MaxCapacity is the hard ceiling for both capacities.
	MaxCapacity = 255
)
