package screensource

import (
	"context"
	"errors"
	"image"
	"image/color"
	"sync/atomic"
	"testing"
	"time"

	"github.com/user/screensettle/pkg/adapters/logger"
	"github.com/user/screensettle/pkg/adapters/systemclock"
)

func fakeGrab(calls *atomic.Int32, failAfter int32) GrabFunc {
	return func(region image.Rectangle) (*image.RGBA, error) {
		n := calls.Add(1)
		if failAfter > 0 && n > failAfter {
			return nil, errors.New("display gone")
		}
		img := image.NewRGBA(image.Rect(0, 0, 8, 6))
		img.Set(0, 0, color.RGBA{R: uint8(n), A: 255})
		return img, nil
	}
}

func TestSource_StartDeliversFrames(t *testing.T) {
	var calls atomic.Int32
	s := New(Options{FPS: 200}, fakeGrab(&calls, 0), systemclock.New(), logger.NewNoop())

	frames, err := s.Start(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := 0
	timeout := time.After(2 * time.Second)
	for got < 3 {
		select {
		case f := <-frames:
			if f.Width != 8 || f.Height != 6 {
				t.Fatalf("expected 8x6, got %dx%d", f.Width, f.Height)
			}
			got++
		case <-timeout:
			t.Fatalf("expected 3 frames, got %d", got)
		}
	}

	if err := s.Stop(); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	for range frames {
	}
	if err := s.Stop(); err != nil {
		t.Errorf("expected second Stop to be a no-op, got %v", err)
	}
}

func TestSource_StartFailsWhenScreenUnavailable(t *testing.T) {
	grab := func(region image.Rectangle) (*image.RGBA, error) {
		return nil, errors.New("no display")
	}
	s := New(Options{}, grab, systemclock.New(), logger.NewNoop())

	if _, err := s.Start(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if err := s.Stop(); err != nil {
		t.Errorf("expected Stop to be a no-op, got %v", err)
	}
}

func TestSource_KeepsRunningThroughFailures(t *testing.T) {
	var calls atomic.Int32
	s := New(Options{FPS: 500}, fakeGrab(&calls, 1), systemclock.New(), logger.NewNoop())

	frames, err := s.Start(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	<-frames // probe frame

	deadline := time.Now().Add(2 * time.Second)
	for calls.Load() < 5 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if calls.Load() < 5 {
		t.Fatalf("expected polling to continue, got %d calls", calls.Load())
	}

	s.Stop()
	if _, ok := <-frames; ok {
		t.Error("expected frame channel to be closed after Stop")
	}
}

func TestSource_ContextCancelClosesChannel(t *testing.T) {
	var calls atomic.Int32
	s := New(Options{FPS: 100}, fakeGrab(&calls, 0), systemclock.New(), logger.NewNoop())

	ctx, cancel := context.WithCancel(context.Background())
	frames, err := s.Start(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cancel()

	timeout := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-frames:
			if !ok {
				return
			}
		case <-timeout:
			t.Fatal("expected channel to close after cancel")
		}
	}
}

func TestSource_Interval(t *testing.T) {
	s := New(Options{FPS: 4}, nil, systemclock.New(), logger.NewNoop())
	if s.Interval() != 250*time.Millisecond {
		t.Errorf("expected 250ms, got %v", s.Interval())
	}
	if New(Options{}, nil, systemclock.New(), logger.NewNoop()).Interval() != 200*time.Millisecond {
		t.Error("expected default 5 fps")
	}
}
