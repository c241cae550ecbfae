package capture

import "errors"

var (
	// ErrSourceUnavailable is returned when the frame source is missing or fails to start.
	ErrSourceUnavailable = errors.New("capture: frame source unavailable")

	// ErrAlreadyRunning is returned when a session is started while another is active.
	ErrAlreadyRunning = errors.New("capture: session already running")

	// ErrNotCapturing is returned when frames are requested outside a session.
	ErrNotCapturing = errors.New("capture: not capturing")

	// ErrNoFrameAvailable is returned when the queue is empty.
	ErrNoFrameAvailable = errors.New("capture: no frame available")

	// ErrFrameTooOld is returned when the newest settled frame exceeds the requested age.
	// The stale frame is consumed.
	ErrFrameTooOld = errors.New("capture: frame too old")
)
