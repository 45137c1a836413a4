// Package console renders dispatched events on a terminal screen.
//
// A Console is an event.Listener. Register it for the codes to display, or
// install it as the default listener to display everything nobody else
// handled. EventPaint forces a full repaint, which is what the keyboard
// producer posts after a terminal resize.
package console

import (
	"fmt"
	"sync"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/evmgr/internal/event"
)

// DefaultHistory is the number of events a Console remembers.
const DefaultHistory = 64

// Console is a tcell-backed event listener.
type Console struct {
	mu     sync.Mutex
	screen tcell.Screen

	// history is a ring buffer of formatted events; next is the slot the
	// next event is written to.
	history []string
	next    int
	count   int
	total   uint64

	title  string
	status func() string

	headerStyle tcell.Style
	textStyle   tcell.Style
}

// Option configures a Console.
type Option func(*Console)

// WithHistory sets how many recent events are kept.
func WithHistory(n int) Option {
	return func(c *Console) {
		if n > 0 {
			c.history = make([]string, n)
		}
	}
}

// WithTitle sets the header title.
func WithTitle(title string) Option {
	return func(c *Console) {
		c.title = title
	}
}

// WithStatus sets a function whose result is shown in the header.
func WithStatus(fn func() string) Option {
	return func(c *Console) {
		c.status = fn
	}
}

// New creates a console drawing on screen. The caller owns the screen.
func New(screen tcell.Screen, opts ...Option) *Console {
	c := &Console{
		screen:      screen,
		history:     make([]string, DefaultHistory),
		title:       "evmgr",
		headerStyle: tcell.StyleDefault.Reverse(true),
		textStyle:   tcell.StyleDefault,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// HandleEvent implements event.Listener.
func (c *Console) HandleEvent(code, param int) {
	c.mu.Lock()
	c.total++
	if code != event.EventPaint {
		c.history[c.next] = formatEvent(c.total, code, param)
		c.next = (c.next + 1) % len(c.history)
		if c.count < len(c.history) {
			c.count++
		}
	}
	c.mu.Unlock()

	c.Draw(code == event.EventPaint)
}

// Lines returns the remembered events, newest first.
func (c *Console) Lines() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.linesLocked()
}

func (c *Console) linesLocked() []string {
	lines := make([]string, 0, c.count)
	for i := 1; i <= c.count; i++ {
		k := (c.next - i + len(c.history)) % len(c.history)
		lines = append(lines, c.history[k])
	}
	return lines
}

// Draw renders the header and as many recent events as fit. With full set,
// the whole screen is resynchronized, as needed after a resize.
func (c *Console) Draw(full bool) {
	var status string
	if c.status != nil {
		status = c.status()
	}

	c.mu.Lock()
	lines := c.linesLocked()
	total := c.total
	c.mu.Unlock()

	c.screen.Clear()
	width, height := c.screen.Size()

	header := fmt.Sprintf(" %s  events=%d  %s", c.title, total, status)
	c.fill(0, width, c.headerStyle)
	c.put(0, 0, width, header, c.headerStyle)

	for i, line := range lines {
		y := i + 2
		if y >= height {
			break
		}
		c.put(0, y, width, line, c.textStyle)
	}

	if full {
		c.screen.Sync()
		return
	}
	c.screen.Show()
}

// put writes s at (x, y), clipped to width.
func (c *Console) put(x, y, width int, s string, style tcell.Style) {
	for _, r := range s {
		if x >= width {
			return
		}
		c.screen.SetContent(x, y, r, nil, style)
		x++
	}
}

// fill paints row y blank in style.
func (c *Console) fill(y, width int, style tcell.Style) {
	for x := 0; x < width; x++ {
		c.screen.SetContent(x, y, ' ', nil, style)
	}
}

// formatEvent renders one event line. Character events show the rune.
func formatEvent(seq uint64, code, param int) string {
	name := event.CodeName(code)
	if code == event.EventChar && param > ' ' && param < 0x110000 {
		return fmt.Sprintf("%6d  %-10s %q", seq, name, rune(param))
	}
	return fmt.Sprintf("%6d  %-10s %d", seq, name, param)
}
