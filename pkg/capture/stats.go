package capture

import (
	"sync/atomic"
	"time"

	"github.com/user/screensettle/pkg/pipeline"
)

// Stats is a snapshot of session counters.
type Stats struct {
	Capturing bool      `json:"capturing"`
	StartedAt time.Time `json:"started_at"`
	StoppedAt time.Time `json:"stopped_at,omitempty"`
	Width     int       `json:"width"`
	Height    int       `json:"height"`

	FramesReceived     int64 `json:"frames_received"`
	FramesOutOfOrder   int64 `json:"frames_out_of_order"`
	FramesUnchanged    int64 `json:"frames_unchanged"`
	TimersArmed        int64 `json:"timers_armed"`
	StaleTimers        int64 `json:"stale_timers"`
	FramesSettled      int64 `json:"frames_settled"`
	ConversionFailures int64 `json:"conversion_failures"`
	ScrollCancels      int64 `json:"scroll_cancels"`
	ScrollsThrottled   int64 `json:"scrolls_throttled"`
	ContentScrolls     int64 `json:"content_scrolls"`
	QueueEvictions     int64 `json:"queue_evictions"`
	FramesFetched      int64 `json:"frames_fetched"`
	FramesTooOld       int64 `json:"frames_too_old"`

	LastColor pipeline.RGB `json:"last_color"`
}

// Duration returns how long the session ran, or has run so far.
func (s Stats) Duration(now time.Time) time.Duration {
	if s.StartedAt.IsZero() {
		return 0
	}
	if !s.StoppedAt.IsZero() {
		return s.StoppedAt.Sub(s.StartedAt)
	}
	return now.Sub(s.StartedAt)
}

type counters struct {
	received       atomic.Int64
	outOfOrder     atomic.Int64
	settled        atomic.Int64
	convertFailed  atomic.Int64
	scrollCancels  atomic.Int64
	throttled      atomic.Int64
	contentScrolls atomic.Int64
	fetched        atomic.Int64
	tooOld         atomic.Int64
}

func (c *counters) reset() {
	c.received.Store(0)
	c.outOfOrder.Store(0)
	c.settled.Store(0)
	c.convertFailed.Store(0)
	c.scrollCancels.Store(0)
	c.throttled.Store(0)
	c.contentScrolls.Store(0)
	c.fetched.Store(0)
	c.tooOld.Store(0)
}
