package event

// Observer receives notifications about queue and dispatch activity.
// Implementations are called synchronously on the hot path and must not
// block; QueueEvent notifications arrive on producer goroutines.
type Observer interface {
	// EventQueued is called after an event was accepted into a queue.
	EventQueued(pri Priority, code int)

	// EventDropped is called when an event was rejected by a full queue.
	EventDropped(pri Priority, code int)

	// EventRetired is called after an event was popped and dispatched to
	// invocations listeners (zero if nobody handled it).
	EventRetired(pri Priority, code, invocations int)

	// ListenerPanicked is called when a listener panicked while handling code.
	ListenerPanicked(code int)
}

// NopObserver is an Observer that does nothing.
type NopObserver struct{}

func (NopObserver) EventQueued(Priority, int)       {}
func (NopObserver) EventDropped(Priority, int)      {}
func (NopObserver) EventRetired(Priority, int, int) {}
func (NopObserver) ListenerPanicked(int)            {}
