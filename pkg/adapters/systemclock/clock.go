// Package systemclock provides a ports.Clock backed by the time package.
package systemclock

import (
	"time"

	"github.com/user/screensettle/pkg/ports"
)

// Clock implements ports.Clock using wall-clock time.
type Clock struct{}

// New creates a new Clock.
func New() *Clock {
	return &Clock{}
}

// Now returns the current time.
func (c *Clock) Now() time.Time {
	return time.Now()
}

// AfterFunc waits for d and then calls f on its own goroutine.
func (c *Clock) AfterFunc(d time.Duration, f func()) ports.Timer {
	return time.AfterFunc(d, f)
}

// Ensure Clock implements ports.Clock
var _ ports.Clock = (*Clock)(nil)
