// Package screensource provides a frame source that polls the primary
// display using github.com/vova616/screenshot.
package screensource

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/vova616/screenshot"

	"github.com/user/screensettle/pkg/pipeline"
	"github.com/user/screensettle/pkg/ports"
)

// DefaultFPS is the polling rate when none is configured.
const DefaultFPS = 5

// GrabFunc captures the region, or the whole screen when region is empty.
type GrabFunc func(region image.Rectangle) (*image.RGBA, error)

// Grab captures from the display.
func Grab(region image.Rectangle) (*image.RGBA, error) {
	if region.Empty() {
		return screenshot.CaptureScreen()
	}
	return screenshot.CaptureRect(region)
}

// Options configures the screen source.
type Options struct {
	FPS float64
	// Region limits capture to part of the screen; empty means full screen.
	Region image.Rectangle
}

// Source implements ports.FrameSource by polling the screen.
type Source struct {
	opts   Options
	grab   GrabFunc
	clock  ports.Clock
	logger ports.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a screen source. A nil grab uses Grab.
func New(opts Options, grab GrabFunc, clock ports.Clock, logger ports.Logger) *Source {
	if opts.FPS <= 0 {
		opts.FPS = DefaultFPS
	}
	if grab == nil {
		grab = Grab
	}
	return &Source{
		opts:   opts,
		grab:   grab,
		clock:  clock,
		logger: logger.WithComponent("screen"),
	}
}

// Interval returns the time between polls.
func (s *Source) Interval() time.Duration {
	return time.Duration(float64(time.Second) / s.opts.FPS)
}

// Start probes the display once and begins polling.
func (s *Source) Start(ctx context.Context) (<-chan pipeline.CapturedFrame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return nil, errors.New("screen source already started")
	}

	first, err := s.grab(s.opts.Region)
	if err != nil {
		return nil, fmt.Errorf("capture screen: %w", err)
	}
	if first == nil || first.Bounds().Empty() {
		return nil, errors.New("capture screen: empty image")
	}

	ctx, cancel := context.WithCancel(ctx)
	frames := make(chan pipeline.CapturedFrame, 1)
	s.cancel = cancel
	s.done = make(chan struct{})

	frames <- pipeline.FrameFromImage(first, s.clock.Now())
	go s.loop(ctx, frames, s.done)

	b := first.Bounds()
	s.logger.Info("Polling screen %dx%d at %.1f fps", b.Dx(), b.Dy(), s.opts.FPS)
	return frames, nil
}

func (s *Source) loop(ctx context.Context, frames chan<- pipeline.CapturedFrame, done chan<- struct{}) {
	defer close(done)
	defer close(frames)

	ticker := time.NewTicker(s.Interval())
	defer ticker.Stop()

	failures := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		img, err := s.grab(s.opts.Region)
		if err != nil || img == nil {
			failures++
			if failures == 1 {
				s.logger.Warn("Screen capture failed: %s", err)
			}
			continue
		}
		if failures > 0 {
			s.logger.Debug("Screen capture recovered after %d failures", failures)
			failures = 0
		}

		select {
		case frames <- pipeline.FrameFromImage(img, s.clock.Now()):
		case <-ctx.Done():
			return
		default:
		}
	}
}

// Stop ends polling and closes the frame channel.
func (s *Source) Stop() error {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()
	<-done
	return nil
}

var _ ports.FrameSource = (*Source)(nil)
