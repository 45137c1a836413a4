package event

import (
	"github.com/rs/zerolog"

	"github.com/dshills/evmgr/internal/event/dispatch"
)

// Option configures a Manager.
type Option func(*managerConfig)

// managerConfig contains configuration for the event manager.
type managerConfig struct {
	// dispatchTableSize is the number of listener slots.
	dispatchTableSize int

	// eventQueueSize is the number of slots in each priority queue.
	eventQueueSize int

	// logger receives cold-path diagnostics.
	logger zerolog.Logger

	// observer receives queue and dispatch notifications.
	observer Observer

	// panicHandler is called when a listener panics.
	panicHandler dispatch.PanicHandler
}

// defaultManagerConfig returns the default configuration.
func defaultManagerConfig() managerConfig {
	return managerConfig{
		dispatchTableSize: DefaultDispatchTableSize,
		eventQueueSize:    DefaultEventQueueSize,
		logger:            zerolog.Nop(),
		observer:          NopObserver{},
	}
}

// WithDispatchTableSize sets the number of listener slots (1..MaxCapacity).
func WithDispatchTableSize(size int) Option {
	return func(c *managerConfig) {
		c.dispatchTableSize = size
	}
}

// WithEventQueueSize sets the number of slots per priority queue (1..MaxCapacity).
func WithEventQueueSize(size int) Option {
	return func(c *managerConfig) {
		c.eventQueueSize = size
	}
}

// WithLogger sets the logger used for registration changes, drops and panics.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *managerConfig) {
		c.logger = logger
	}
}

// WithObserver sets the observer notified of queue and dispatch activity.
func WithObserver(o Observer) Option {
	return func(c *managerConfig) {
		if o != nil {
			c.observer = o
		}
	}
}

// WithPanicHandler sets the handler called when a listener panics.
func WithPanicHandler(h dispatch.PanicHandler) Option {
	return func(c *managerConfig) {
		c.panicHandler = h
	}
}
