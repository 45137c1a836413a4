// Package event provides the fixed-memory event manager for evmgr.
//
// Producers (timer loops, file watchers, network handlers, key readers) post
// small integer events into one of two bounded queues. Consumers register
// interest in event codes in a bounded listener table. A single driving loop
// drains the queues and calls every enabled listener registered for each
// event's code.
//
// # Architecture
//
//	   producers                  Manager                     consumer loop
//	┌─────────────┐   QueueEvent  ┌───────────────────────┐   ProcessEvent
//	│ ticker      │──────────────▶│ high queue [M]Record  │◀──────────────┐
//	│ watcher     │               │ low queue  [M]Record  │               │
//	│ http        │               ├───────────────────────┤               │
//	│ keyboard    │               │ Registry   [N]entry   │───▶ listeners │
//	└─────────────┘               │ default listener      │               │
//	                              └───────────────────────┘───────────────┘
//
// Every table and queue is allocated once, when the Manager is built, and
// never grows. Capacities are 1..255; the defaults are 8 listeners and 8
// events per queue.
//
// # Priorities
//
// Events go to the low priority queue unless PriorityHigh is given. A drain
// step always takes from the high queue first, and only takes from the low
// queue when the high queue is empty. Each queue is FIFO.
//
// # Listeners
//
// A listener is registered for one event code. The same listener may be
// registered for several codes, and several listeners may share a code, but
// a given (code, listener) pair is stored at most once, so AddListener is
// idempotent. Each entry carries its own enabled flag.
//
// Plain functions are registered through ListenerFunc and are identified by
// their code pointer: two closures created from the same function literal are
// the same listener. Stateful listeners should implement Listener on a
// comparable type, usually a pointer.
//
// A default listener, held outside the table, is called for an event that
// had no enabled matching listener. A matching but disabled listener still
// suppresses the default.
//
// # Basic Usage
//
//	mgr, err := event.NewManager(event.WithLogger(logger))
//	if err != nil {
//	    return err
//	}
//
//	mgr.AddListener(event.EventKeyPress, event.ListenerFunc(onKey))
//	mgr.SetDefaultListener(event.ListenerFunc(onUnhandled))
//
//	// From any goroutine:
//	mgr.QueueEvent(event.EventKeyPress, 'a', event.PriorityHigh)
//
//	// From the driving loop:
//	for {
//	    <-mgr.Pending()
//	    mgr.ProcessAllEvents()
//	}
//
// # Failure Reporting
//
// Table and queue operations never panic and never block. They report
// capacity exhaustion, missing entries and invalid listeners through bool or
// count results and leave state untouched on failure. Only construction
// returns errors.
//
// # Thread Safety
//
// QueueEvent and the queue queries are safe to call from any goroutine at
// any time. ProcessEvent and ProcessAllEvents assume a single consumer.
// Registry operations are guarded and may run concurrently with dispatch;
// a listener may register or remove listeners from inside its callback.
//
// ProcessAllEvents does not return while producers keep pace with it. Use
// ProcessEvents with a limit when the loop must bound its time slice.
//
// # Subpackages
//
//   - dispatch: listener invocation with panic recovery
package event
