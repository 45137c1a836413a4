package event

import (
	"github.com/rs/zerolog"

	"github.com/dshills/evmgr/internal/event/dispatch"
)

// Manager owns a dispatch table and a pair of priority queues and drains
// queued events into registered listeners. The Registry methods are
// available directly on the Manager.
type Manager struct {
	*Registry

	high *Queue
	low  *Queue

	dispatcher *dispatch.SyncDispatcher
	observer   Observer
	logger     zerolog.Logger

	// pending has one slot and is signaled on every successful QueueEvent.
	pending chan struct{}

	stats counters
}

// NewManager creates an event manager. Every table and queue is allocated
// here, once; capacities cannot change afterwards.
func NewManager(opts ...Option) (*Manager, error) {
	cfg := defaultManagerConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	registry, err := NewRegistry(cfg.dispatchTableSize)
	if err != nil {
		return nil, err
	}
	high, err := NewQueue(cfg.eventQueueSize)
	if err != nil {
		return nil, err
	}
	low, err := NewQueue(cfg.eventQueueSize)
	if err != nil {
		return nil, err
	}

	registry.logger = cfg.logger

	var dispatchOpts []dispatch.SyncOption
	if cfg.panicHandler != nil {
		dispatchOpts = append(dispatchOpts, dispatch.WithPanicHandler(cfg.panicHandler))
	}

	return &Manager{
		Registry:   registry,
		high:       high,
		low:        low,
		dispatcher: dispatch.NewSyncDispatcher(dispatchOpts...),
		observer:   cfg.observer,
		logger:     cfg.logger,
		pending:    make(chan struct{}, 1),
	}, nil
}

// queue returns the queue for pri. Unknown priorities select the low queue.
func (m *Manager) queue(pri Priority) *Queue {
	if pri == PriorityHigh {
		return m.high
	}
	return m.low
}

// QueueEvent appends (code, param) to the queue selected by pri.
// It returns false, without side effects, if that queue is full.
// QueueEvent never blocks and never allocates; it is safe to call from any
// goroutine.
func (m *Manager) QueueEvent(code, param int, pri Priority) bool {
	pri = pri.normalize()

	if !m.queue(pri).Push(Record{Code: code, Param: param}) {
		m.stats.dropped[pri].Add(1)
		m.observer.EventDropped(pri, code)
		m.logger.Debug().Int("code", code).Str("priority", pri.String()).Msg("event queue full, event dropped")
		return false
	}

	m.stats.queued[pri].Add(1)
	m.observer.EventQueued(pri, code)

	select {
	case m.pending <- struct{}{}:
	default:
	}
	return true
}

// Post queues (code, param) at low priority.
func (m *Manager) Post(code, param int) bool {
	return m.QueueEvent(code, param, PriorityLow)
}

// IsEventQueueEmpty reports whether the queue selected by pri is empty.
func (m *Manager) IsEventQueueEmpty(pri Priority) bool {
	return m.queue(pri).IsEmpty()
}

// IsEventQueueFull reports whether the queue selected by pri is full.
func (m *Manager) IsEventQueueFull(pri Priority) bool {
	return m.queue(pri).IsFull()
}

// NumEventsInQueue returns the number of events in the queue selected by pri.
func (m *Manager) NumEventsInQueue(pri Priority) int {
	return m.queue(pri).Len()
}

// EventQueueCapacity returns the number of slots in each queue.
func (m *Manager) EventQueueCapacity() int {
	return m.low.Cap()
}

// Pending returns a channel that receives a value after events are queued.
// The channel has a single slot, so several QueueEvent calls may produce one
// signal; a receiver must drain until the queues are empty.
func (m *Manager) Pending() <-chan struct{} {
	return m.pending
}

// ProcessEvent retires one event, taken from the high priority queue if it
// is non-empty and from the low priority queue otherwise.
//
// Every enabled listener registered for the event's code is called in table
// order. If none was, the default listener is called when it is installed
// and enabled. The event is retired whether or not anyone handled it.
//
// No lock is held while a listener runs, so listeners may change the table.
// A listener removed during the scan can cause the entry shifted into its
// slot to be skipped for this event.
//
// Returns the number of listener calls made; 0 if both queues were empty.
func (m *Manager) ProcessEvent() int {
	n, _ := m.processOne()
	return n
}

// ProcessAllEvents calls ProcessEvent until both queues are empty and
// returns the total number of listener calls.
//
// If producers queue events as fast as they are processed, ProcessAllEvents
// does not return.
func (m *Manager) ProcessAllEvents() int {
	total := 0
	for !m.high.IsEmpty() || !m.low.IsEmpty() {
		total += m.ProcessEvent()
	}
	return total
}

// ProcessEvents retires at most limit events and returns the number of
// events retired and listener calls made.
func (m *Manager) ProcessEvents(limit int) (events, invocations int) {
	for events < limit {
		n, ok := m.processOne()
		if !ok {
			break
		}
		events++
		invocations += n
	}
	return events, invocations
}

// Stats returns a snapshot of the manager's counters.
func (m *Manager) Stats() Stats {
	s := m.stats.snapshot()
	ds := m.dispatcher.Stats()
	s.ListenerTime = ds.TotalDuration
	s.AvgListenerTime = ds.AvgDuration
	return s
}

// ResetStats resets all counters to zero.
func (m *Manager) ResetStats() {
	m.stats.reset()
	m.dispatcher.ResetStats()
}

// processOne pops and dispatches a single event.
// ok is false if both queues were empty.
func (m *Manager) processOne() (invocations int, ok bool) {
	pri := PriorityHigh
	rec, ok := m.high.Pop()
	if !ok {
		pri = PriorityLow
		rec, ok = m.low.Pop()
	}
	if !ok {
		return 0, false
	}

	invocations = m.dispatch(rec)

	m.stats.retired.Add(1)
	if invocations == 0 {
		m.stats.unhandled.Add(1)
	}
	m.observer.EventRetired(pri, rec.Code, invocations)
	return invocations, true
}

// dispatch calls every enabled listener registered for rec.Code, or the
// default listener if there were none.
func (m *Manager) dispatch(rec Record) int {
	handled := 0
	for i := 0; ; i++ {
		l, inRange := m.Registry.match(i, rec.Code)
		if !inRange {
			break
		}
		if l == nil {
			continue
		}
		m.invoke(rec, l)
		handled++
	}

	if handled == 0 {
		if l := m.Registry.fallback(); l != nil {
			m.invoke(rec, l)
			m.stats.defaults.Add(1)
			handled = 1
		}
	}

	m.stats.invocations.Add(uint64(handled))
	return handled
}

// invoke calls a single listener through the dispatcher.
func (m *Manager) invoke(rec Record, l Listener) {
	result := m.dispatcher.Dispatch(rec.Code, rec.Param, l)
	if !result.Panicked {
		return
	}

	m.stats.panics.Add(1)
	m.observer.ListenerPanicked(rec.Code)
	m.logger.Error().
		Int("code", rec.Code).
		Int("param", rec.Param).
		Interface("panic", result.PanicValue).
		Msg("listener panicked")
}
