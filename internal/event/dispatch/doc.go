// Package dispatch provides listener invocation for the event manager.
//
// The dispatch package runs listeners synchronously in the caller's
// goroutine with panic recovery and timing. The event manager drains a
// record from its queues and hands every matching listener to a
// SyncDispatcher, one after another, in table order.
//
// # Panic Recovery
//
// A listener that panics does not take the drain loop down with it. The
// panic is recovered, reported via a configurable PanicHandler, and recorded
// in the Result. The record that triggered it is still retired.
//
// # Usage
//
//	dispatcher := dispatch.NewSyncDispatcher(
//	    dispatch.WithPanicHandler(func(code, param int, v any, stack []byte) {
//	        log.Printf("listener panic on %d: %v\n%s", code, v, stack)
//	    }),
//	)
//	result := dispatcher.Dispatch(code, param, listener)
//	if result.IsPanic() {
//	    // listener misbehaved
//	}
//
// Dispatch never allocates on the success path.
package dispatch
