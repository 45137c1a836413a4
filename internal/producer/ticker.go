package producer

import (
	"context"
	"time"

	"github.com/dshills/evmgr/internal/event"
)

// Ticker posts (code, n) every interval, where n counts ticks from 1.
type Ticker struct {
	poster
	interval time.Duration
	code     int
}

// NewTicker creates a ticker. A non-positive interval is replaced by one
// second.
func NewTicker(q Queuer, interval time.Duration, code int, pri event.Priority, opts ...Option) *Ticker {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if interval <= 0 {
		interval = time.Second
	}
	return &Ticker{
		poster:   poster{q: q, pri: pri, logger: o.logger},
		interval: interval,
		code:     code,
	}
}

// Run posts ticks until ctx is done. It always returns nil.
func (t *Ticker) Run(ctx context.Context) error {
	tk := time.NewTicker(t.interval)
	defer tk.Stop()

	t.logger.Debug().Dur("interval", t.interval).Str("code", event.CodeName(t.code)).Msg("ticker started")

	n := 0
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-tk.C:
			n++
			t.post(t.code, n)
		}
	}
}

// Stats returns the ticker's counters.
func (t *Ticker) Stats() Stats {
	return t.stats()
}
