package mocks

import (
	"image"
	"sync"

	"github.com/user/screensettle/pkg/ports"
)

// DebugSink is a mock implementation of ports.DebugSink.
// SaveStableFrameFunc, when set, replaces the recording of stable frames.
type DebugSink struct {
	SaveStableFrameFunc func(index int, img image.Image) error

	mu sync.RWMutex

	enabled bool

	StableFrames    map[int]image.Image
	ConvertedFrames map[int][]byte
	Previews        map[int]image.Image
	SessionJSON     []byte
}

// NewDebugSink creates a new mock DebugSink.
func NewDebugSink(enabled bool) *DebugSink {
	return &DebugSink{
		enabled:         enabled,
		StableFrames:    make(map[int]image.Image),
		ConvertedFrames: make(map[int][]byte),
		Previews:        make(map[int]image.Image),
	}
}

func (m *DebugSink) Enabled() bool {
	return m.enabled
}

func (m *DebugSink) SaveStableFrame(index int, img image.Image) error {
	if m.SaveStableFrameFunc != nil {
		return m.SaveStableFrameFunc(index, img)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.StableFrames[index] = img
	return nil
}

func (m *DebugSink) SaveConvertedFrame(index int, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ConvertedFrames[index] = data
	return nil
}

func (m *DebugSink) SavePreview(index int, img image.Image) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Previews[index] = img
	return nil
}

func (m *DebugSink) SaveSessionJSON(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SessionJSON = data
	return nil
}

// Counts returns the number of stable frames, converted frames and previews saved.
func (m *DebugSink) Counts() (stable, converted, previews int) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.StableFrames), len(m.ConvertedFrames), len(m.Previews)
}

// Session returns the saved session JSON.
func (m *DebugSink) Session() []byte {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.SessionJSON
}

var _ ports.DebugSink = (*DebugSink)(nil)
