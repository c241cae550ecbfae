package ports

import (
	"context"

	"github.com/user/screensettle/pkg/pipeline"
)

// FrameSource is an opaque producer of raw display frames.
type FrameSource interface {
	// Start begins producing frames. The returned channel is closed when the
	// source ends on its own or after Stop; a closed channel ends the session.
	Start(ctx context.Context) (<-chan pipeline.CapturedFrame, error)

	// Stop releases the source. It is safe to call more than once.
	Stop() error
}

// ScrollSource is implemented by frame sources that can also observe
// user scroll gestures.
type ScrollSource interface {
	// ScrollSignals returns a channel of scroll notifications. It is valid
	// only after Start has succeeded.
	ScrollSignals() <-chan pipeline.ScrollSignal
}
