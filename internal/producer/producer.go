// Package producer contains event sources that feed an event manager from
// their own goroutines.
//
// Every producer depends only on Queuer, runs until its context is
// cancelled, and counts the events the manager accepted and rejected. A full
// queue is not an error: the event is dropped and counted.
//
//	mgr, _ := event.NewManager()
//	tick := producer.NewTicker(mgr, time.Second, event.EventTimer0, event.PriorityLow)
//	go tick.Run(ctx)
package producer

import (
	"context"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/dshills/evmgr/internal/event"
)

// Queuer accepts events. *event.Manager implements it.
type Queuer interface {
	QueueEvent(code, param int, pri event.Priority) bool
}

// Producer is an event source.
type Producer interface {
	// Run posts events until ctx is done.
	Run(ctx context.Context) error

	// Stats returns the producer's counters.
	Stats() Stats
}

// Stats counts posting outcomes.
type Stats struct {
	Posted  uint64
	Dropped uint64
}

// Option configures a producer.
type Option func(*options)

type options struct {
	logger zerolog.Logger
}

func defaultOptions() options {
	return options{logger: zerolog.Nop()}
}

// WithLogger sets the producer's logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// poster posts to a Queuer and counts the outcome.
type poster struct {
	q      Queuer
	pri    event.Priority
	logger zerolog.Logger

	posted  atomic.Uint64
	dropped atomic.Uint64
}

func (p *poster) post(code, param int) bool {
	if p.q.QueueEvent(code, param, p.pri) {
		p.posted.Add(1)
		return true
	}
	p.dropped.Add(1)
	p.logger.Debug().Str("code", event.CodeName(code)).Int("param", param).Msg("event dropped")
	return false
}

func (p *poster) stats() Stats {
	return Stats{Posted: p.posted.Load(), Dropped: p.dropped.Load()}
}
