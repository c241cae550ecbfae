package framequeue

import (
	"sync"
	"testing"
	"time"

	"github.com/user/screensettle/pkg/pipeline"
)

func entryAt(ms int) pipeline.QueueEntry {
	return pipeline.QueueEntry{
		Data:       []byte{byte(ms)},
		CapturedAt: time.Unix(0, 0).Add(time.Duration(ms) * time.Millisecond),
		Width:      1,
		Height:     1,
	}
}

func TestQueue_EvictsOldest(t *testing.T) {
	q := New(1)

	var evicted []pipeline.QueueEntry
	q.OnEvict(func(e pipeline.QueueEntry) { evicted = append(evicted, e) })

	a, b := entryAt(1), entryAt(2)
	q.Push(a)
	q.Push(b)

	if q.Len() != 1 {
		t.Fatalf("expected 1 entry, got %d", q.Len())
	}
	if q.Evicted() != 1 {
		t.Errorf("expected 1 eviction, got %d", q.Evicted())
	}
	if len(evicted) != 1 || !evicted[0].CapturedAt.Equal(a.CapturedAt) {
		t.Errorf("expected the first entry to be evicted, got %v", evicted)
	}

	got, ok := q.Fetch()
	if !ok {
		t.Fatal("expected an entry")
	}
	if !got.CapturedAt.Equal(b.CapturedAt) {
		t.Errorf("expected the second entry, got %v", got.CapturedAt)
	}
}

func TestQueue_FetchPopsNewest(t *testing.T) {
	q := New(3)
	for i := 1; i <= 3; i++ {
		q.Push(entryAt(i))
	}

	for want := 3; want >= 1; want-- {
		got, ok := q.Fetch()
		if !ok {
			t.Fatalf("expected entry %d", want)
		}
		if got.Data[0] != byte(want) {
			t.Errorf("expected entry %d, got %d", want, got.Data[0])
		}
	}

	if _, ok := q.Fetch(); ok {
		t.Error("expected empty queue")
	}
}

func TestQueue_FetchIsOneShot(t *testing.T) {
	q := New(1)
	q.Push(entryAt(1))

	if _, ok := q.Fetch(); !ok {
		t.Fatal("expected an entry")
	}
	if _, ok := q.Fetch(); ok {
		t.Error("expected entry to be handed out at most once")
	}
}

func TestQueue_CapacityBound(t *testing.T) {
	q := New(2)
	for i := 0; i < 10; i++ {
		q.Push(entryAt(i))
		if q.Len() > 2 {
			t.Fatalf("queue exceeded capacity: %d", q.Len())
		}
	}
	if q.Evicted() != 8 {
		t.Errorf("expected 8 evictions, got %d", q.Evicted())
	}
}

func TestQueue_Clear(t *testing.T) {
	q := New(2)
	q.Push(entryAt(1))
	q.Push(entryAt(2))

	if n := q.Clear(); n != 2 {
		t.Errorf("expected 2 cleared, got %d", n)
	}
	if q.Len() != 0 {
		t.Errorf("expected empty queue, got %d", q.Len())
	}
}

func TestQueue_DefaultCapacity(t *testing.T) {
	if q := New(0); q.Capacity() != DefaultCapacity {
		t.Errorf("expected capacity %d, got %d", DefaultCapacity, q.Capacity())
	}
}

func TestQueue_Concurrent(t *testing.T) {
	q := New(4)

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				q.Push(entryAt(i))
			}
		}()
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				q.Fetch()
			}
		}()
	}
	wg.Wait()

	if q.Len() > q.Capacity() {
		t.Errorf("queue exceeded capacity: %d", q.Len())
	}
}
