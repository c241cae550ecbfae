// Package detect decides whether consecutive frames differ.
//
// Fingerprint gives a cheap identity for a frame by sampling a sparse grid.
// DifferenceRatio counts the share of pixels whose color moved noticeably.
// Detector combines both over a frame stream to tell scrolling content from
// content that is merely changing.
package detect

import (
	"sync"

	"github.com/user/screensettle/pkg/pipeline"
)

// Default tuning values.
const (
	DefaultGridSize        = 16
	DefaultPixelThreshold  = 20
	DefaultScrollRatio     = 0.4
	DefaultMinScrollFrames = 1
)

// Fingerprint hashes a gridSize x gridSize sample of the frame's red channel.
// The hash is seeded with the frame dimensions, so frames of different sizes
// never collide. Sample points outside the pixel buffer are skipped.
func Fingerprint(frame pipeline.CapturedFrame, gridSize int) uint64 {
	if gridSize <= 0 {
		gridSize = DefaultGridSize
	}

	var hash uint64 = 17
	hash = 31*hash + uint64(frame.Width)
	hash = 31*hash + uint64(frame.Height)

	stepY := max(1, frame.Height/gridSize)
	stepX := max(1, frame.Width/gridSize)

	for y := 0; y < frame.Height; y += stepY {
		for x := 0; x < frame.Width; x += stepX {
			i := frame.Offset(x, y)
			if i < 0 || i >= len(frame.Pixels) {
				continue
			}
			hash = 31*hash + uint64(frame.Pixels[i])
		}
	}
	return hash
}

// DifferenceRatio returns the fraction of pixels in [0, 1] where any of the
// R, G or B channels differs by more than threshold. Frames whose dimensions
// or buffer lengths differ are not comparable and yield 0.
func DifferenceRatio(prev, curr pipeline.CapturedFrame, threshold int) float64 {
	if prev.Width != curr.Width || prev.Height != curr.Height || len(prev.Pixels) != len(curr.Pixels) {
		return 0
	}
	total := prev.Width * prev.Height
	if total == 0 {
		return 0
	}

	different := 0
	for y := 0; y < prev.Height; y++ {
		for x := 0; x < prev.Width; x++ {
			a := prev.Offset(x, y)
			b := curr.Offset(x, y)
			if a+2 >= len(prev.Pixels) || b+2 >= len(curr.Pixels) {
				continue
			}
			for c := 0; c < 3; c++ {
				if absDiff(prev.Pixels[a+c], curr.Pixels[b+c]) > threshold {
					different++
					break
				}
			}
		}
	}
	return float64(different) / float64(total)
}

func absDiff(a, b byte) int {
	if a > b {
		return int(a - b)
	}
	return int(b - a)
}

// Classification is the Detector's verdict about a frame.
type Classification int

const (
	// Static means the frame is either unchanged or changed in place.
	Static Classification = iota
	// Scrolling means most of the frame moved relative to its predecessor.
	Scrolling
)

// String returns the classification name.
func (c Classification) String() string {
	if c == Scrolling {
		return "scrolling"
	}
	return "static"
}

// Options configures a Detector.
type Options struct {
	GridSize        int
	PixelThreshold  int
	ScrollRatio     float64
	MinScrollFrames int
}

// DefaultOptions returns the default detector options.
func DefaultOptions() Options {
	return Options{
		GridSize:        DefaultGridSize,
		PixelThreshold:  DefaultPixelThreshold,
		ScrollRatio:     DefaultScrollRatio,
		MinScrollFrames: DefaultMinScrollFrames,
	}
}

// Detector classifies a stream of frames. It is safe for concurrent use.
type Detector struct {
	opts Options

	mu          sync.Mutex
	prev        *pipeline.CapturedFrame
	consecutive int
}

// New creates a Detector. Zero option fields fall back to defaults.
func New(opts Options) *Detector {
	d := DefaultOptions()
	if opts.GridSize > 0 {
		d.GridSize = opts.GridSize
	}
	if opts.PixelThreshold > 0 {
		d.PixelThreshold = opts.PixelThreshold
	}
	if opts.ScrollRatio > 0 {
		d.ScrollRatio = opts.ScrollRatio
	}
	if opts.MinScrollFrames > 0 {
		d.MinScrollFrames = opts.MinScrollFrames
	}
	return &Detector{opts: d}
}

// Options returns the effective options.
func (d *Detector) Options() Options {
	return d.opts
}

// Fingerprint hashes the frame with the detector's grid size.
func (d *Detector) Fingerprint(frame pipeline.CapturedFrame) uint64 {
	return Fingerprint(frame, d.opts.GridSize)
}

// Observe compares the frame with the previous one and remembers it.
// A dimension change resets the baseline and is reported as Static.
func (d *Detector) Observe(frame pipeline.CapturedFrame) Classification {
	d.mu.Lock()
	defer d.mu.Unlock()

	prev := d.prev
	d.prev = &frame

	if prev == nil || prev.Width != frame.Width || prev.Height != frame.Height {
		d.consecutive = 0
		return Static
	}

	ratio := DifferenceRatio(*prev, frame, d.opts.PixelThreshold)
	if ratio <= d.opts.ScrollRatio {
		d.consecutive = 0
		return Static
	}

	d.consecutive++
	if d.consecutive >= d.opts.MinScrollFrames {
		return Scrolling
	}
	return Static
}

// Reset forgets the previous frame.
func (d *Detector) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.prev = nil
	d.consecutive = 0
}
