// Package stabilizer implements the debounce engine that waits for screen
// content to stop changing before handing a frame downstream.
package stabilizer

import (
	"sync"
	"time"

	"github.com/user/screensettle/pkg/pipeline"
	"github.com/user/screensettle/pkg/ports"
)

// DefaultDelay is how long content must stay unchanged before it is emitted.
const DefaultDelay = 1000 * time.Millisecond

// State is the externally visible stabilizer state.
type State int

const (
	// Idle means no frame is waiting to settle.
	Idle State = iota
	// Armed means a frame is waiting for its delay to elapse.
	Armed
)

// String returns the state name.
func (s State) String() string {
	if s == Armed {
		return "armed"
	}
	return "idle"
}

// Fingerprinter computes the identity of a frame.
type Fingerprinter interface {
	Fingerprint(frame pipeline.CapturedFrame) uint64
}

// EmitFunc receives settled frames. It is called while the stabilizer lock
// is held and must not call back into the Stabilizer.
type EmitFunc func(frame pipeline.CapturedFrame)

// Stats counts stabilizer decisions.
type Stats struct {
	Unchanged int64
	Armed     int64
	Emitted   int64
	Cancelled int64
	Stale     int64
}

// Stabilizer is safe for concurrent use. Timer callbacks and frame arrivals
// are serialized by a single mutex, and every armed timer carries a token so
// that a callback from a superseded timer is ignored.
type Stabilizer struct {
	delay  time.Duration
	clock  ports.Clock
	hasher Fingerprinter
	emit   EmitFunc
	logger ports.Logger

	mu             sync.Mutex
	state          State
	hasFingerprint bool
	fingerprint    uint64
	lastFrame      *pipeline.CapturedFrame
	pendingToken   uint64
	timer          ports.Timer
	stopped        bool
	stats          Stats
}

// New creates a Stabilizer. A non-positive delay uses DefaultDelay.
func New(delay time.Duration, clock ports.Clock, hasher Fingerprinter, emit EmitFunc, logger ports.Logger) *Stabilizer {
	if delay <= 0 {
		delay = DefaultDelay
	}
	return &Stabilizer{
		delay:  delay,
		clock:  clock,
		hasher: hasher,
		emit:   emit,
		logger: logger.WithComponent("stabilizer"),
	}
}

// Delay returns the configured debounce delay.
func (s *Stabilizer) Delay() time.Duration {
	return s.delay
}

// OnFrame feeds a frame. A frame identical to the pending one replaces it
// without touching the deadline, so the newest copy is the one emitted.
// Anything else replaces the pending frame and restarts the delay.
// It reports whether a new timer was armed.
func (s *Stabilizer) OnFrame(frame pipeline.CapturedFrame) bool {
	fp := s.hasher.Fingerprint(frame)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return false
	}

	if s.hasFingerprint && fp == s.fingerprint {
		s.stats.Unchanged++
		if s.state == Armed {
			s.lastFrame = &frame
		}
		return false
	}

	s.stopTimerLocked()
	s.pendingToken++
	token := s.pendingToken

	s.lastFrame = &frame
	s.fingerprint = fp
	s.hasFingerprint = true
	s.state = Armed
	s.stats.Armed++

	s.timer = s.clock.AfterFunc(s.delay, func() {
		s.expire(token)
	})

	s.logger.Debug("Frame changed, waiting %d ms to settle", s.delay.Milliseconds())
	return true
}

// expire runs when the timer armed with token fires.
func (s *Stabilizer) expire(token uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped || token != s.pendingToken || s.lastFrame == nil {
		s.stats.Stale++
		return
	}

	frame := *s.lastFrame
	s.lastFrame = nil
	s.timer = nil
	s.state = Idle
	s.stats.Emitted++

	s.logger.Debug("Frame settled: %dx%d", frame.Width, frame.Height)
	if s.emit != nil {
		s.emit(frame)
	}
}

// Cancel drops any pending frame without emitting it. The fingerprint is
// forgotten so the next frame always arms a new timer.
func (s *Stabilizer) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == Armed {
		s.stats.Cancelled++
	}
	s.resetLocked()
}

// Stop cancels pending work and ignores further frames until Reset.
// Timer callbacks that race with Stop become no-ops.
func (s *Stabilizer) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.resetLocked()
	s.stopped = true
}

// Reset clears all state and accepts frames again.
func (s *Stabilizer) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.resetLocked()
	s.stopped = false
	s.stats = Stats{}
}

// State returns the current state.
func (s *Stabilizer) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Stats returns a snapshot of the counters.
func (s *Stabilizer) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

func (s *Stabilizer) resetLocked() {
	s.stopTimerLocked()
	s.pendingToken++
	s.lastFrame = nil
	s.hasFingerprint = false
	s.fingerprint = 0
	s.state = Idle
}

func (s *Stabilizer) stopTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}
