package producer

import (
	"context"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/evmgr/internal/event"
)

// Keyboard posts terminal input read from a tcell screen:
//
//   - a printable key posts (EventChar, rune)
//   - any other key posts (EventKeyPress, tcell.Key)
//   - a resize posts (EventPaint, 0)
//
// The caller owns the screen and must have initialized it.
type Keyboard struct {
	poster
	screen   tcell.Screen
	quitKeys map[tcell.Key]bool
}

// NewKeyboard creates a keyboard producer reading from screen. Pressing one
// of quitKeys makes Run return without posting the key.
func NewKeyboard(q Queuer, screen tcell.Screen, pri event.Priority, quitKeys []tcell.Key, opts ...Option) *Keyboard {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	quit := make(map[tcell.Key]bool, len(quitKeys))
	for _, k := range quitKeys {
		quit[k] = true
	}

	return &Keyboard{
		poster:   poster{q: q, pri: pri, logger: o.logger},
		screen:   screen,
		quitKeys: quit,
	}
}

// Run posts input events until ctx is done, a quit key is pressed, or the
// screen is finalized. It always returns nil.
func (k *Keyboard) Run(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() {
		_ = k.screen.PostEvent(tcell.NewEventInterrupt(nil))
	})
	defer stop()

	for {
		ev := k.screen.PollEvent()
		if ev == nil {
			return nil
		}

		switch e := ev.(type) {
		case *tcell.EventInterrupt:
			if ctx.Err() != nil {
				return nil
			}

		case *tcell.EventKey:
			if k.quitKeys[e.Key()] {
				k.logger.Debug().Str("key", tcell.KeyNames[e.Key()]).Msg("quit key pressed")
				return nil
			}
			if e.Key() == tcell.KeyRune {
				k.post(event.EventChar, int(e.Rune()))
			} else {
				k.post(event.EventKeyPress, int(e.Key()))
			}

		case *tcell.EventResize:
			k.post(event.EventPaint, 0)
		}
	}
}

// Stats returns the keyboard's counters.
func (k *Keyboard) Stats() Stats {
	return k.stats()
}
