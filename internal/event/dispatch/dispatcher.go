package dispatch

import "time"

// Handler is the interface for event listeners.
// This mirrors the event.Listener interface to avoid circular imports.
type Handler interface {
	HandleEvent(code, param int)
}

// Dispatcher is the interface for listener dispatchers.
type Dispatcher interface {
	// Dispatch invokes a handler with the given event code and parameter.
	Dispatch(code, param int, handler Handler) Result
}

// Result represents the outcome of a single listener invocation.
type Result struct {
	// Panicked is true if the handler panicked.
	Panicked bool

	// PanicValue is the value passed to panic(), if Panicked is true.
	PanicValue any

	// PanicStack is the stack trace at the point of panic.
	PanicStack []byte

	// Duration is how long the handler took to execute.
	Duration time.Duration
}

// IsSuccess returns true if the handler returned normally.
func (r Result) IsSuccess() bool {
	return !r.Panicked
}

// IsPanic returns true if the result indicates a panic.
func (r Result) IsPanic() bool {
	return r.Panicked
}

// PanicHandler is called when a handler panics during execution.
// It receives the event being processed, the panic value, and the stack trace.
type PanicHandler func(code, param int, panicValue any, stack []byte)

// defaultPanicHandler is a no-op panic handler.
func defaultPanicHandler(code, param int, panicValue any, stack []byte) {}
