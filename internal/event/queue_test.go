package event

import (
	"errors"
	"sync"
	"testing"
)

func newTestQueue(t *testing.T, size int) *Queue {
	t.Helper()
	q, err := NewQueue(size)
	if err != nil {
		t.Fatalf("NewQueue(%d): %v", size, err)
	}
	return q
}

func TestNewQueue_InvalidSize(t *testing.T) {
	for _, size := range []int{0, -5, MaxCapacity + 1} {
		if _, err := NewQueue(size); !errors.Is(err, ErrInvalidCapacity) {
			t.Errorf("NewQueue(%d): expected ErrInvalidCapacity, got %v", size, err)
		}
	}
}

func TestQueue_FIFO(t *testing.T) {
	q := newTestQueue(t, 4)

	for i := 0; i < 4; i++ {
		if !q.Push(Record{Code: i, Param: i * 10}) {
			t.Fatalf("Push(%d) failed", i)
		}
	}

	for i := 0; i < 4; i++ {
		rec, ok := q.Pop()
		if !ok {
			t.Fatalf("Pop %d: queue unexpectedly empty", i)
		}
		if rec.Code != i || rec.Param != i*10 {
			t.Errorf("Pop %d: got %+v", i, rec)
		}
	}

	if _, ok := q.Pop(); ok {
		t.Error("expected Pop on empty queue to fail")
	}
}

func TestQueue_Full(t *testing.T) {
	q := newTestQueue(t, 2)

	q.Push(Record{Code: 1})
	q.Push(Record{Code: 2})

	if !q.IsFull() {
		t.Error("expected queue to be full")
	}
	if q.Push(Record{Code: 3}) {
		t.Error("expected Push on full queue to fail")
	}
	if q.Len() != 2 {
		t.Errorf("expected length 2 after rejected push, got %d", q.Len())
	}

	q.Pop()
	if !q.Push(Record{Code: 3}) {
		t.Error("expected Push to succeed after a pop")
	}
}

func TestQueue_WrapAround(t *testing.T) {
	q := newTestQueue(t, 3)

	next := 0
	want := 0
	for round := 0; round < 10; round++ {
		for !q.IsFull() {
			q.Push(Record{Code: next})
			next++
		}
		for i := 0; i < 2; i++ {
			rec, ok := q.Pop()
			if !ok {
				t.Fatal("unexpected empty queue")
			}
			if rec.Code != want {
				t.Fatalf("round %d: expected code %d, got %d", round, want, rec.Code)
			}
			want++
		}
	}
}

func TestQueue_EmptyAndFullDistinguished(t *testing.T) {
	q := newTestQueue(t, 1)

	if !q.IsEmpty() || q.IsFull() {
		t.Error("new queue should be empty, not full")
	}
	q.Push(Record{})
	if q.IsEmpty() || !q.IsFull() {
		t.Error("single-slot queue with one record should be full, not empty")
	}
	if q.Cap() != 1 {
		t.Errorf("expected capacity 1, got %d", q.Cap())
	}
}

func TestQueue_ConcurrentProducers(t *testing.T) {
	q := newTestQueue(t, MaxCapacity)

	const producers = 5
	const perProducer = 40

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				q.Push(Record{Code: p, Param: i})
			}
		}(p)
	}
	wg.Wait()

	if q.Len() != producers*perProducer {
		t.Fatalf("expected %d records, got %d", producers*perProducer, q.Len())
	}

	// Each producer's records must come out in its own order.
	last := make(map[int]int)
	for {
		rec, ok := q.Pop()
		if !ok {
			break
		}
		if prev, seen := last[rec.Code]; seen && rec.Param <= prev {
			t.Fatalf("producer %d: param %d after %d", rec.Code, rec.Param, prev)
		}
		last[rec.Code] = rec.Param
	}
}
