// Package framequeue holds the most recent converted frames for consumers.
package framequeue

import (
	"sync"

	"github.com/user/screensettle/pkg/pipeline"
)

// DefaultCapacity is the number of entries kept before the oldest is evicted.
const DefaultCapacity = 1

// Queue is a bounded buffer of queue entries. Pushing past capacity evicts
// the oldest entry; Fetch pops the newest. It is safe for concurrent use.
type Queue struct {
	capacity int

	mu      sync.Mutex
	entries []pipeline.QueueEntry
	evicted int64
	onEvict func(pipeline.QueueEntry)
}

// New creates a Queue. A non-positive capacity uses DefaultCapacity.
func New(capacity int) *Queue {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Queue{
		capacity: capacity,
		entries:  make([]pipeline.QueueEntry, 0, capacity),
	}
}

// OnEvict sets a callback invoked, under the queue lock, for each evicted entry.
func (q *Queue) OnEvict(fn func(pipeline.QueueEntry)) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.onEvict = fn
}

// Capacity returns the maximum number of entries.
func (q *Queue) Capacity() int {
	return q.capacity
}

// Push appends an entry, evicting the oldest entries while the queue is full.
func (q *Queue) Push(entry pipeline.QueueEntry) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.entries) >= q.capacity {
		oldest := q.entries[0]
		q.entries[0] = pipeline.QueueEntry{}
		q.entries = q.entries[1:]
		q.evicted++
		if q.onEvict != nil {
			q.onEvict(oldest)
		}
	}
	q.entries = append(q.entries, entry)
}

// Fetch removes and returns the most recently pushed entry.
func (q *Queue) Fetch() (pipeline.QueueEntry, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	n := len(q.entries)
	if n == 0 {
		return pipeline.QueueEntry{}, false
	}
	entry := q.entries[n-1]
	q.entries[n-1] = pipeline.QueueEntry{}
	q.entries = q.entries[:n-1]
	return entry, true
}

// Clear drops all entries. It returns how many were dropped.
func (q *Queue) Clear() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	n := len(q.entries)
	clear(q.entries)
	q.entries = q.entries[:0]
	return n
}

// Len returns the number of queued entries.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}

// Evicted returns how many entries were dropped to make room.
func (q *Queue) Evicted() int64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.evicted
}
