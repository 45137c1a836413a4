package event

import (
	"sync"

	"github.com/rs/zerolog"
)

// entry is one slot of the dispatch table.
type entry struct {
	code     int
	listener Listener
	id       listenerID
	enabled  bool
}

// Registry is the fixed-capacity dispatch table mapping (code, listener)
// pairs to an enabled flag, plus an optional default listener.
// It is safe for concurrent use.
type Registry struct {
	mu sync.RWMutex

	// entries is allocated once; entries[:count] are occupied, packed in
	// registration order.
	entries []entry
	count   int

	defaultListener Listener
	defaultEnabled  bool

	logger zerolog.Logger
}

// NewRegistry creates a dispatch table with room for size listeners.
// The size must be within 1..MaxCapacity.
func NewRegistry(size int) (*Registry, error) {
	if err := checkCapacity("dispatch table size", size); err != nil {
		return nil, err
	}
	return &Registry{
		entries: make([]entry, size),
		logger:  zerolog.Nop(),
	}, nil
}

// AddListener registers l for code with the entry enabled.
// It returns false if l is invalid, the pair is already registered, or the
// table is full.
func (r *Registry) AddListener(code int, l Listener) bool {
	id, ok := identify(l)
	if !ok {
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.search(code, id) >= 0 {
		return false
	}
	if r.count == len(r.entries) {
		r.logger.Warn().Int("code", code).Int("capacity", len(r.entries)).Msg("dispatch table full")
		return false
	}

	r.entries[r.count] = entry{code: code, listener: l, id: id, enabled: true}
	r.count++

	r.logger.Debug().Int("code", code).Int("listeners", r.count).Msg("listener added")
	return true
}

// RemoveListener removes the (code, l) pair.
// Other entries for the same code or the same listener are unaffected.
func (r *Registry) RemoveListener(code int, l Listener) bool {
	id, ok := identify(l)
	if !ok {
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	k := r.search(code, id)
	if k < 0 {
		return false
	}
	r.removeAt(k)

	r.logger.Debug().Int("code", code).Int("listeners", r.count).Msg("listener removed")
	return true
}

// RemoveListenerAll removes every entry for l regardless of code.
// Returns the number of entries removed.
func (r *Registry) RemoveListenerAll(l Listener) int {
	id, ok := identify(l)
	if !ok {
		return 0
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for i := 0; i < r.count; {
		if r.entries[i].id == id {
			r.removeAt(i)
			removed++
			continue
		}
		i++
	}

	if removed > 0 {
		r.logger.Debug().Int("removed", removed).Int("listeners", r.count).Msg("listener removed from all codes")
	}
	return removed
}

// EnableListener sets the enabled flag of the (code, l) pair.
// Returns false if the pair is not registered.
func (r *Registry) EnableListener(code int, l Listener, enable bool) bool {
	id, ok := identify(l)
	if !ok {
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	k := r.search(code, id)
	if k < 0 {
		return false
	}
	r.entries[k].enabled = enable
	return true
}

// IsListenerEnabled reports whether the (code, l) pair is registered and
// enabled. An unregistered pair reports false.
func (r *Registry) IsListenerEnabled(code int, l Listener) bool {
	id, ok := identify(l)
	if !ok {
		return false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	k := r.search(code, id)
	return k >= 0 && r.entries[k].enabled
}

// SetDefaultListener installs and enables the listener called for events
// with no enabled matching listener. Returns false if l is invalid.
func (r *Registry) SetDefaultListener(l Listener) bool {
	if _, ok := identify(l); !ok {
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.defaultListener = l
	r.defaultEnabled = true
	return true
}

// RemoveDefaultListener clears and disables the default listener.
func (r *Registry) RemoveDefaultListener() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.defaultListener = nil
	r.defaultEnabled = false
}

// EnableDefaultListener sets the default listener's enabled flag, whether or
// not one is installed.
func (r *Registry) EnableDefaultListener(enable bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.defaultEnabled = enable
}

// IsListenerListEmpty reports whether the table has no entries.
func (r *Registry) IsListenerListEmpty() bool {
	return r.NumListeners() == 0
}

// IsListenerListFull reports whether the table has no free slot.
func (r *Registry) IsListenerListFull() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.count == len(r.entries)
}

// NumListeners returns the number of entries in the table.
func (r *Registry) NumListeners() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.count
}

// Capacity returns the number of slots in the table.
func (r *Registry) Capacity() int {
	return len(r.entries)
}

// match returns the listener in slot i if it is enabled and registered for
// code. inRange is false once i is past the last occupied slot.
func (r *Registry) match(i, code int) (l Listener, inRange bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if i >= r.count {
		return nil, false
	}
	e := &r.entries[i]
	if e.code == code && e.enabled {
		return e.listener, true
	}
	return nil, true
}

// fallback returns the default listener if one is installed and enabled.
func (r *Registry) fallback() Listener {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.defaultEnabled {
		return r.defaultListener
	}
	return nil
}

// search returns the slot index of the (code, id) pair, or -1.
// Caller must hold r.mu.
func (r *Registry) search(code int, id listenerID) int {
	for i := 0; i < r.count; i++ {
		if r.entries[i].code == code && r.entries[i].id == id {
			return i
		}
	}
	return -1
}

// removeAt deletes slot k, shifting later entries down to keep table order.
// Caller must hold r.mu.
func (r *Registry) removeAt(k int) {
	copy(r.entries[k:r.count], r.entries[k+1:r.count])
	r.count--
	r.entries[r.count] = entry{}
}
