package mocks

import (
	"context"
	"sync"

	"github.com/user/screensettle/pkg/pipeline"
	"github.com/user/screensettle/pkg/ports"
)

// FrameSource is a mock implementation of ports.FrameSource and ports.ScrollSource.
// Without StartFunc it hands out channels that tests feed with Send and Scroll.
type FrameSource struct {
	StartFunc func(ctx context.Context) (<-chan pipeline.CapturedFrame, error)
	StopFunc  func() error

	mu      sync.Mutex
	frames  chan pipeline.CapturedFrame
	scrolls chan pipeline.ScrollSignal
	closed  bool
	stops   int
}

// NewFrameSource creates a mock source with buffered channels.
func NewFrameSource() *FrameSource {
	return &FrameSource{
		frames:  make(chan pipeline.CapturedFrame, 16),
		scrolls: make(chan pipeline.ScrollSignal, 16),
	}
}

func (m *FrameSource) Start(ctx context.Context) (<-chan pipeline.CapturedFrame, error) {
	if m.StartFunc != nil {
		return m.StartFunc(ctx)
	}
	return m.frames, nil
}

func (m *FrameSource) Stop() error {
	m.mu.Lock()
	m.stops++
	m.mu.Unlock()
	if m.StopFunc != nil {
		return m.StopFunc()
	}
	return nil
}

func (m *FrameSource) ScrollSignals() <-chan pipeline.ScrollSignal {
	return m.scrolls
}

// Send delivers a frame to the consumer.
func (m *FrameSource) Send(frame pipeline.CapturedFrame) {
	m.frames <- frame
}

// Scroll delivers a scroll signal to the consumer.
func (m *FrameSource) Scroll(sig pipeline.ScrollSignal) {
	m.scrolls <- sig
}

// Close closes the frame channel, ending the session.
func (m *FrameSource) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.closed {
		m.closed = true
		close(m.frames)
	}
}

// Stops returns how many times Stop was called.
func (m *FrameSource) Stops() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stops
}

var (
	_ ports.FrameSource  = (*FrameSource)(nil)
	_ ports.ScrollSource = (*FrameSource)(nil)
)
