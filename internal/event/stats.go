package event

import (
	"sync/atomic"
	"time"
)

// Stats contains event manager statistics.
type Stats struct {
	// QueuedHigh and QueuedLow count events accepted by each queue.
	QueuedHigh uint64 `json:"queued_high"`
	QueuedLow  uint64 `json:"queued_low"`

	// DroppedHigh and DroppedLow count events rejected by a full queue.
	DroppedHigh uint64 `json:"dropped_high"`
	DroppedLow  uint64 `json:"dropped_low"`

	// Retired is the number of events popped and dispatched.
	Retired uint64 `json:"retired"`

	// Unhandled is the number of retired events that invoked nobody.
	Unhandled uint64 `json:"unhandled"`

	// Invocations is the total number of listener calls, default included.
	Invocations uint64 `json:"invocations"`

	// DefaultInvocations is the number of default listener calls.
	DefaultInvocations uint64 `json:"default_invocations"`

	// Panics is the number of listener calls that panicked.
	Panics uint64 `json:"panics"`

	// ListenerTime is the cumulative time spent inside listeners, and
	// AvgListenerTime the mean per invocation.
	ListenerTime    time.Duration `json:"listener_time_ns"`
	AvgListenerTime time.Duration `json:"avg_listener_time_ns"`
}

// counters holds the live statistics.
type counters struct {
	queued      [2]atomic.Uint64
	dropped     [2]atomic.Uint64
	retired     atomic.Uint64
	unhandled   atomic.Uint64
	invocations atomic.Uint64
	defaults    atomic.Uint64
	panics      atomic.Uint64
}

func (c *counters) snapshot() Stats {
	return Stats{
		QueuedHigh:         c.queued[PriorityHigh].Load(),
		QueuedLow:          c.queued[PriorityLow].Load(),
		DroppedHigh:        c.dropped[PriorityHigh].Load(),
		DroppedLow:         c.dropped[PriorityLow].Load(),
		Retired:            c.retired.Load(),
		Unhandled:          c.unhandled.Load(),
		Invocations:        c.invocations.Load(),
		DefaultInvocations: c.defaults.Load(),
		Panics:             c.panics.Load(),
	}
}

func (c *counters) reset() {
	for i := range c.queued {
		c.queued[i].Store(0)
		c.dropped[i].Store(0)
	}
	c.retired.Store(0)
	c.unhandled.Store(0)
	c.invocations.Store(0)
	c.defaults.Store(0)
	c.panics.Store(0)
}
