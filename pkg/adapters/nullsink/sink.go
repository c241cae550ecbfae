// Package nullsink provides a no-op debug sink implementation.
package nullsink

import (
	"image"

	"github.com/user/screensettle/pkg/ports"
)

// Sink is a no-op implementation of ports.DebugSink.
// It discards all debug output.
type Sink struct{}

// New creates a new NullSink.
func New() *Sink {
	return &Sink{}
}

// Enabled returns false as this sink discards all output.
func (s *Sink) Enabled() bool {
	return false
}

func (s *Sink) SaveStableFrame(index int, img image.Image) error { return nil }

func (s *Sink) SaveConvertedFrame(index int, data []byte) error { return nil }

func (s *Sink) SavePreview(index int, img image.Image) error { return nil }

func (s *Sink) SaveSessionJSON(data []byte) error { return nil }

// Ensure Sink implements ports.DebugSink
var _ ports.DebugSink = (*Sink)(nil)
