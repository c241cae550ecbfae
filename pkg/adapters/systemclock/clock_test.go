package systemclock

import (
	"testing"
	"time"
)

func TestClock_AfterFunc(t *testing.T) {
	c := New()

	fired := make(chan struct{})
	c.AfterFunc(10*time.Millisecond, func() { close(fired) })

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("expected timer to fire")
	}
}

func TestClock_Stop(t *testing.T) {
	c := New()

	fired := make(chan struct{}, 1)
	timer := c.AfterFunc(time.Hour, func() { fired <- struct{}{} })
	if !timer.Stop() {
		t.Error("expected Stop to report a pending timer")
	}
	if timer.Stop() {
		t.Error("expected second Stop to report false")
	}
}
