package capture

import (
	"time"

	"github.com/user/screensettle/pkg/detect"
	"github.com/user/screensettle/pkg/framequeue"
	"github.com/user/screensettle/pkg/stabilizer"
)

// Default values for Options.
const (
	DefaultMaxFrameAge    = 2000 * time.Millisecond
	DefaultScrollThrottle = 100 * time.Millisecond
)

// Options contains the tuning of a Pipeline.
type Options struct {
	// StabilizationDelay is how long content must stay unchanged.
	StabilizationDelay time.Duration

	// MaxQueueSize bounds the number of settled frames waiting for a consumer.
	MaxQueueSize int

	// MaxFrameAge is used by FetchLatest when the caller passes no limit.
	MaxFrameAge time.Duration

	// Detector tunes fingerprinting and content scroll detection.
	Detector detect.Options

	// DetectScrolling cancels pending frames when the content itself scrolls.
	DetectScrolling bool

	// ScrollThrottle ignores scroll signals closer together than this.
	ScrollThrottle time.Duration
}

// DefaultOptions returns Options with default values.
func DefaultOptions() Options {
	return Options{
		StabilizationDelay: stabilizer.DefaultDelay,
		MaxQueueSize:       framequeue.DefaultCapacity,
		MaxFrameAge:        DefaultMaxFrameAge,
		Detector:           detect.DefaultOptions(),
		DetectScrolling:    false,
		ScrollThrottle:     DefaultScrollThrottle,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.StabilizationDelay <= 0 {
		o.StabilizationDelay = d.StabilizationDelay
	}
	if o.MaxQueueSize <= 0 {
		o.MaxQueueSize = d.MaxQueueSize
	}
	if o.MaxFrameAge <= 0 {
		o.MaxFrameAge = d.MaxFrameAge
	}
	if o.ScrollThrottle < 0 {
		o.ScrollThrottle = 0
	}
	return o
}
