package event

import "sync"

// Queue is a fixed-capacity FIFO ring buffer of event records.
// Push and Pop are safe to call from any goroutine.
type Queue struct {
	mu      sync.Mutex
	records []Record
	head    int
	count   int
}

// NewQueue creates a queue with room for size records.
// The size must be within 1..MaxCapacity.
func NewQueue(size int) (*Queue, error) {
	if err := checkCapacity("event queue size", size); err != nil {
		return nil, err
	}
	return &Queue{records: make([]Record, size)}, nil
}

// Push appends rec at the tail. It returns false, leaving the queue
// unchanged, if the queue is full.
func (q *Queue) Push(rec Record) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.count == len(q.records) {
		return false
	}
	tail := (q.head + q.count) % len(q.records)
	q.records[tail] = rec
	q.count++
	return true
}

// Pop removes and returns the record at the head.
// ok is false if the queue is empty.
func (q *Queue) Pop() (rec Record, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.count == 0 {
		return Record{}, false
	}
	rec = q.records[q.head]
	q.records[q.head] = Record{}
	q.head = (q.head + 1) % len(q.records)
	q.count--
	return rec, true
}

// Len returns the number of queued records.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return q.count
}

// Cap returns the number of slots in the queue.
func (q *Queue) Cap() int {
	return len(q.records)
}

// IsEmpty reports whether the queue holds no records.
func (q *Queue) IsEmpty() bool {
	return q.Len() == 0
}

// IsFull reports whether the queue has no free slot.
func (q *Queue) IsFull() bool {
	return q.Len() == len(q.records)
}
