package event

import (
	"bytes"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
)

func newTestManager(t *testing.T, opts ...Option) *Manager {
	t.Helper()
	m, err := NewManager(opts...)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	return m
}

// countingObserver records observer callbacks.
type countingObserver struct {
	mu       sync.Mutex
	queued   map[Priority]int
	dropped  map[Priority]int
	retired  []int
	panicked []int
}

func newCountingObserver() *countingObserver {
	return &countingObserver{
		queued:  make(map[Priority]int),
		dropped: make(map[Priority]int),
	}
}

func (o *countingObserver) EventQueued(pri Priority, code int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.queued[pri]++
}

func (o *countingObserver) EventDropped(pri Priority, code int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.dropped[pri]++
}

func (o *countingObserver) EventRetired(pri Priority, code, invocations int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.retired = append(o.retired, invocations)
}

func (o *countingObserver) ListenerPanicked(code int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.panicked = append(o.panicked, code)
}

func TestNewManager_Defaults(t *testing.T) {
	m := newTestManager(t)

	if m.Capacity() != DefaultDispatchTableSize {
		t.Errorf("expected table capacity %d, got %d", DefaultDispatchTableSize, m.Capacity())
	}
	if m.EventQueueCapacity() != DefaultEventQueueSize {
		t.Errorf("expected queue capacity %d, got %d", DefaultEventQueueSize, m.EventQueueCapacity())
	}
	for _, pri := range []Priority{PriorityHigh, PriorityLow} {
		if !m.IsEventQueueEmpty(pri) {
			t.Errorf("expected %s queue to be empty", pri)
		}
	}
}

func TestNewManager_InvalidCapacity(t *testing.T) {
	tests := []struct {
		name string
		opt  Option
	}{
		{"table too large", WithDispatchTableSize(256)},
		{"table zero", WithDispatchTableSize(0)},
		{"queue too large", WithEventQueueSize(1000)},
		{"queue negative", WithEventQueueSize(-1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := NewManager(tt.opt)
			if !errors.Is(err, ErrInvalidCapacity) {
				t.Errorf("expected ErrInvalidCapacity, got %v", err)
			}
			if m != nil {
				t.Error("expected nil manager on error")
			}
		})
	}
}

func TestManager_SingleEvent(t *testing.T) {
	m := newTestManager(t)
	a := &recorder{}

	m.AddListener(5, a)

	if !m.QueueEvent(5, 42, PriorityLow) {
		t.Fatal("expected QueueEvent to succeed")
	}
	if n := m.ProcessEvent(); n != 1 {
		t.Errorf("expected 1 invocation, got %d", n)
	}
	if len(a.calls) != 1 || a.calls[0] != (Record{Code: 5, Param: 42}) {
		t.Errorf("expected listener called with (5, 42), got %v", a.calls)
	}
	if n := m.NumEventsInQueue(PriorityLow); n != 0 {
		t.Errorf("expected empty low queue, got %d", n)
	}
}

func TestManager_NilPointerListenerRejected(t *testing.T) {
	m := newTestManager(t)
	var nilRec *recorder

	if m.AddListener(1, nilRec) {
		t.Error("expected AddListener to reject a nil pointer")
	}
	if m.SetDefaultListener(nilRec) {
		t.Error("expected SetDefaultListener to reject a nil pointer")
	}
	if n := m.NumListeners(); n != 0 {
		t.Errorf("expected no listeners, got %d", n)
	}

	m.Post(1, 0)
	m.Post(2, 0)
	if n := m.ProcessAllEvents(); n != 0 {
		t.Errorf("expected 0 invocations, got %d", n)
	}
	if s := m.Stats(); s.Panics != 0 || s.Unhandled != 2 {
		t.Errorf("expected 2 unhandled and no panics, got %+v", s)
	}
}

func TestManager_ProcessEvent_Empty(t *testing.T) {
	m := newTestManager(t)

	if n := m.ProcessEvent(); n != 0 {
		t.Errorf("expected 0 invocations on empty queues, got %d", n)
	}
	if m.Stats().Retired != 0 {
		t.Error("nothing should be retired from empty queues")
	}
}

func TestManager_QueueFull(t *testing.T) {
	m := newTestManager(t)

	for x := 0; x < 8; x++ {
		if !m.QueueEvent(x, x, PriorityHigh) {
			t.Fatalf("QueueEvent(%d) failed before capacity", x)
		}
	}
	if !m.IsEventQueueFull(PriorityHigh) {
		t.Error("expected high queue to be full")
	}
	if m.QueueEvent(8, 8, PriorityHigh) {
		t.Error("expected 9th QueueEvent to fail")
	}
	if n := m.NumEventsInQueue(PriorityHigh); n != 8 {
		t.Errorf("expected 8 queued events, got %d", n)
	}
	if m.IsEventQueueFull(PriorityLow) {
		t.Error("low queue should be unaffected")
	}

	m.SetDefaultListener(ListenerFunc(noopA))
	if n := m.ProcessAllEvents(); n != 8 {
		t.Errorf("expected ProcessAllEvents to return 8, got %d", n)
	}
	if !m.IsEventQueueEmpty(PriorityHigh) {
		t.Error("expected high queue to be empty")
	}

	stats := m.Stats()
	if stats.DroppedHigh != 1 || stats.QueuedHigh != 8 {
		t.Errorf("unexpected stats %+v", stats)
	}
}

func TestManager_FIFO(t *testing.T) {
	m := newTestManager(t)
	a := &recorder{}
	for code := 0; code < 4; code++ {
		m.AddListener(code, a)
	}

	want := []Record{{0, 10}, {3, 11}, {1, 12}, {0, 13}, {2, 14}}
	for _, rec := range want {
		m.QueueEvent(rec.Code, rec.Param, PriorityLow)
	}
	for range want {
		m.ProcessEvent()
	}

	if len(a.calls) != len(want) {
		t.Fatalf("expected %d calls, got %d", len(want), len(a.calls))
	}
	for i := range want {
		if a.calls[i] != want[i] {
			t.Errorf("call %d: expected %+v, got %+v", i, want[i], a.calls[i])
		}
	}
}

func TestManager_HighPriorityFirst(t *testing.T) {
	m := newTestManager(t)
	a := &recorder{}
	m.AddListener(1, a)
	m.AddListener(2, a)

	m.QueueEvent(1, 0, PriorityLow)
	m.QueueEvent(1, 1, PriorityLow)
	m.QueueEvent(2, 2, PriorityHigh)

	m.ProcessEvent()
	if len(a.calls) != 1 || a.calls[0].Code != 2 {
		t.Fatalf("expected high priority event first, got %v", a.calls)
	}
	if m.NumEventsInQueue(PriorityLow) != 2 {
		t.Error("low queue should be untouched while high queue had events")
	}

	m.QueueEvent(2, 3, PriorityHigh)
	m.ProcessAllEvents()

	got := []int{}
	for _, c := range a.calls {
		got = append(got, c.Param)
	}
	want := []int{2, 3, 0, 1}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected params %v, got %v", want, got)
		}
	}
}

func TestManager_UnknownPriorityUsesLowQueue(t *testing.T) {
	m := newTestManager(t)

	m.QueueEvent(1, 1, Priority(7))

	if m.NumEventsInQueue(PriorityLow) != 1 {
		t.Error("expected unknown priority to land in the low queue")
	}
	if m.NumEventsInQueue(Priority(7)) != 1 {
		t.Error("queries with unknown priority should read the low queue")
	}
}

func TestManager_Post(t *testing.T) {
	m := newTestManager(t)

	if !m.Post(3, 4) {
		t.Fatal("expected Post to succeed")
	}
	if m.NumEventsInQueue(PriorityLow) != 1 || m.NumEventsInQueue(PriorityHigh) != 0 {
		t.Error("expected Post to queue at low priority")
	}
}

func TestManager_MultipleListeners_TableOrder(t *testing.T) {
	m := newTestManager(t)
	var order []string

	first := &namedListener{name: "first", out: &order}
	second := &namedListener{name: "second", out: &order}
	other := &namedListener{name: "other", out: &order}

	m.AddListener(1, first)
	m.AddListener(2, other)
	m.AddListener(1, second)

	m.Post(1, 0)
	if n := m.ProcessEvent(); n != 2 {
		t.Errorf("expected 2 invocations, got %d", n)
	}
	if len(order) != 2 || order[0] != "first" || order[1] != "second" {
		t.Errorf("expected [first second], got %v", order)
	}
}

type namedListener struct {
	name string
	out  *[]string
}

func (l *namedListener) HandleEvent(code, param int) {
	*l.out = append(*l.out, l.name)
}

func TestManager_DisabledListenerSkipped(t *testing.T) {
	m := newTestManager(t)
	a, b := &recorder{}, &recorder{}

	m.AddListener(1, a)
	m.AddListener(1, b)
	m.EnableListener(1, a, false)

	m.Post(1, 0)
	if n := m.ProcessEvent(); n != 1 {
		t.Errorf("expected 1 invocation, got %d", n)
	}
	if len(a.calls) != 0 {
		t.Error("disabled listener should not be called")
	}
	if len(b.calls) != 1 {
		t.Error("enabled listener should be called")
	}
}

func TestManager_DefaultListener(t *testing.T) {
	tests := []struct {
		name        string
		setup       func(m *Manager, matched, def *recorder)
		wantCount   int
		wantDefault int
		wantMatched int
	}{
		{
			name: "no listeners, default installed",
			setup: func(m *Manager, matched, def *recorder) {
				m.SetDefaultListener(def)
			},
			wantCount:   1,
			wantDefault: 1,
		},
		{
			name:      "no listeners, no default",
			setup:     func(m *Manager, matched, def *recorder) {},
			wantCount: 0,
		},
		{
			name: "default disabled",
			setup: func(m *Manager, matched, def *recorder) {
				m.SetDefaultListener(def)
				m.EnableDefaultListener(false)
			},
			wantCount: 0,
		},
		{
			name: "default removed",
			setup: func(m *Manager, matched, def *recorder) {
				m.SetDefaultListener(def)
				m.RemoveDefaultListener()
			},
			wantCount: 0,
		},
		{
			name: "matching listener suppresses default",
			setup: func(m *Manager, matched, def *recorder) {
				m.SetDefaultListener(def)
				m.AddListener(9, matched)
			},
			wantCount:   1,
			wantMatched: 1,
		},
		{
			name: "only disabled matches, default fires",
			setup: func(m *Manager, matched, def *recorder) {
				m.SetDefaultListener(def)
				m.AddListener(9, matched)
				m.EnableListener(9, matched, false)
			},
			wantCount:   1,
			wantDefault: 1,
		},
		{
			name: "listener for another code, default fires",
			setup: func(m *Manager, matched, def *recorder) {
				m.SetDefaultListener(def)
				m.AddListener(10, matched)
			},
			wantCount:   1,
			wantDefault: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestManager(t)
			matched, def := &recorder{}, &recorder{}
			tt.setup(m, matched, def)

			m.Post(9, 1)
			if n := m.ProcessEvent(); n != tt.wantCount {
				t.Errorf("expected %d invocations, got %d", tt.wantCount, n)
			}
			if len(def.calls) != tt.wantDefault {
				t.Errorf("expected %d default calls, got %d", tt.wantDefault, len(def.calls))
			}
			if len(matched.calls) != tt.wantMatched {
				t.Errorf("expected %d matched calls, got %d", tt.wantMatched, len(matched.calls))
			}
			if !m.IsEventQueueEmpty(PriorityLow) {
				t.Error("event must be retired even when unhandled")
			}
		})
	}
}

func TestManager_ProcessEvents_Limit(t *testing.T) {
	m := newTestManager(t)
	a := &recorder{}
	m.AddListener(1, a)

	for i := 0; i < 5; i++ {
		m.Post(1, i)
	}

	events, calls := m.ProcessEvents(3)
	if events != 3 || calls != 3 {
		t.Errorf("expected (3, 3), got (%d, %d)", events, calls)
	}
	if m.NumEventsInQueue(PriorityLow) != 2 {
		t.Errorf("expected 2 events left, got %d", m.NumEventsInQueue(PriorityLow))
	}

	events, _ = m.ProcessEvents(10)
	if events != 2 {
		t.Errorf("expected 2 events, got %d", events)
	}
	if events, _ = m.ProcessEvents(0); events != 0 {
		t.Errorf("expected a zero limit to process nothing, got %d", events)
	}
}

func TestManager_ListenerMutatesRegistry(t *testing.T) {
	m := newTestManager(t)
	late := &recorder{}

	var self Listener
	self = ListenerFunc(func(code, param int) {
		m.RemoveListener(code, self)
		m.AddListener(code, late)
	})
	m.AddListener(1, self)

	m.Post(1, 0)
	m.ProcessEvent()

	if m.IsListenerEnabled(1, self) {
		t.Error("listener should have removed itself")
	}
	if !m.IsListenerEnabled(1, late) {
		t.Error("listener added from a callback should be registered")
	}

	m.Post(1, 0)
	if n := m.ProcessEvent(); n != 1 || len(late.calls) != 1 {
		t.Errorf("expected late listener to handle the next event, got n=%d calls=%d", n, len(late.calls))
	}
}

func TestManager_ListenerQueuesEvent(t *testing.T) {
	m := newTestManager(t)
	chain := &recorder{}

	m.AddListener(1, ListenerFunc(func(code, param int) {
		if param < 3 {
			m.Post(1, param+1)
		}
	}))
	m.AddListener(1, chain)

	m.Post(1, 0)
	if n := m.ProcessAllEvents(); n != 8 {
		t.Errorf("expected 8 invocations over 4 events, got %d", n)
	}
	if len(chain.calls) != 4 {
		t.Errorf("expected 4 chained events, got %d", len(chain.calls))
	}
}

func TestManager_ListenerPanic(t *testing.T) {
	var buf bytes.Buffer
	obs := newCountingObserver()
	var reported any

	m := newTestManager(t,
		WithLogger(zerolog.New(&buf)),
		WithObserver(obs),
		WithPanicHandler(func(code, param int, v any, stack []byte) {
			reported = v
		}),
	)
	after := &recorder{}

	m.AddListener(1, ListenerFunc(func(code, param int) {
		panic("sensor offline")
	}))
	m.AddListener(1, after)

	m.Post(1, 0)
	if n := m.ProcessEvent(); n != 2 {
		t.Errorf("expected 2 invocations (panic counts), got %d", n)
	}
	if len(after.calls) != 1 {
		t.Error("listeners after a panicking one should still run")
	}
	if reported != "sensor offline" {
		t.Errorf("expected panic handler to receive value, got %v", reported)
	}
	if m.Stats().Panics != 1 {
		t.Errorf("expected 1 panic in stats, got %d", m.Stats().Panics)
	}
	if len(obs.panicked) != 1 || obs.panicked[0] != 1 {
		t.Errorf("expected observer to see panic on code 1, got %v", obs.panicked)
	}
	if !strings.Contains(buf.String(), "listener panicked") {
		t.Errorf("expected panic to be logged, got %q", buf.String())
	}
}

func TestManager_Observer(t *testing.T) {
	obs := newCountingObserver()
	m := newTestManager(t, WithEventQueueSize(1), WithObserver(obs))
	m.AddListener(1, &recorder{})

	m.QueueEvent(1, 0, PriorityHigh)
	m.QueueEvent(1, 0, PriorityHigh)
	m.QueueEvent(2, 0, PriorityLow)
	m.ProcessAllEvents()

	if obs.queued[PriorityHigh] != 1 || obs.queued[PriorityLow] != 1 {
		t.Errorf("unexpected queued counts %v", obs.queued)
	}
	if obs.dropped[PriorityHigh] != 1 {
		t.Errorf("unexpected dropped counts %v", obs.dropped)
	}
	if len(obs.retired) != 2 || obs.retired[0] != 1 || obs.retired[1] != 0 {
		t.Errorf("unexpected retired invocations %v", obs.retired)
	}
}

func TestManager_Stats(t *testing.T) {
	m := newTestManager(t)
	m.AddListener(1, &recorder{})
	m.SetDefaultListener(&recorder{})

	m.Post(1, 0)
	m.Post(2, 0)
	m.QueueEvent(1, 0, PriorityHigh)
	m.ProcessAllEvents()

	stats := m.Stats()
	if stats.QueuedLow != 2 || stats.QueuedHigh != 1 {
		t.Errorf("unexpected queued stats %+v", stats)
	}
	if stats.Retired != 3 {
		t.Errorf("expected 3 retired, got %d", stats.Retired)
	}
	if stats.Invocations != 3 || stats.DefaultInvocations != 1 {
		t.Errorf("unexpected invocation stats %+v", stats)
	}

	m.RemoveDefaultListener()
	m.Post(2, 0)
	m.ProcessEvent()
	if m.Stats().Unhandled != 1 {
		t.Errorf("expected 1 unhandled, got %d", m.Stats().Unhandled)
	}

	m.ResetStats()
	if m.Stats() != (Stats{}) {
		t.Errorf("expected zero stats after reset, got %+v", m.Stats())
	}
}

func TestManager_Pending(t *testing.T) {
	m := newTestManager(t)

	select {
	case <-m.Pending():
		t.Fatal("no signal expected before any event")
	default:
	}

	m.Post(1, 0)
	m.Post(1, 1)

	select {
	case <-m.Pending():
	default:
		t.Fatal("expected a pending signal after QueueEvent")
	}

	select {
	case <-m.Pending():
		t.Fatal("signals should coalesce into one slot")
	default:
	}
}

func TestManager_ConcurrentProducers(t *testing.T) {
	m := newTestManager(t, WithEventQueueSize(MaxCapacity))
	var mu sync.Mutex
	seen := 0
	m.AddListener(1, ListenerFunc(func(code, param int) {
		mu.Lock()
		seen++
		mu.Unlock()
	}))

	const producers = 4
	const perProducer = 500

	var accepted sync.WaitGroup
	var total int64
	var totalMu sync.Mutex
	done := make(chan struct{})

	for p := 0; p < producers; p++ {
		accepted.Add(1)
		go func() {
			defer accepted.Done()
			n := 0
			for i := 0; i < perProducer; i++ {
				if m.QueueEvent(1, i, Priority(i%2)) {
					n++
				}
			}
			totalMu.Lock()
			total += int64(n)
			totalMu.Unlock()
		}()
	}

	go func() {
		accepted.Wait()
		close(done)
	}()

	invocations := 0
loop:
	for {
		select {
		case <-done:
			break loop
		default:
			invocations += m.ProcessEvent()
		}
	}
	invocations += m.ProcessAllEvents()

	stats := m.Stats()
	if int64(invocations) != total {
		t.Errorf("expected %d invocations, got %d", total, invocations)
	}
	if stats.QueuedHigh+stats.QueuedLow+stats.DroppedHigh+stats.DroppedLow != producers*perProducer {
		t.Errorf("every QueueEvent call should be either queued or dropped: %+v", stats)
	}
	if seen != invocations {
		t.Errorf("listener saw %d events, manager reported %d", seen, invocations)
	}
}
