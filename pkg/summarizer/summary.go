// Package summarizer produces human-readable reports of capture sessions.
package summarizer

import (
	"time"

	"github.com/user/screensettle/pkg/capture"
	"github.com/user/screensettle/pkg/pipeline"
	"github.com/user/screensettle/pkg/stages/convert"
)

// Summary contains all data collected during a capture session.
type Summary struct {
	// Metadata
	GeneratedAt time.Time `json:"generated_at"`

	Session  SessionInfo `json:"session"`
	Settings Settings    `json:"settings"`
	Frames   FrameInfo   `json:"frames"`
	Scroll   ScrollInfo  `json:"scroll"`

	// LastColor is the dominant color of the last settled frame.
	LastColor pipeline.RGB `json:"last_color"`
}

// SessionInfo describes the source and span of the session.
type SessionInfo struct {
	Source     string    `json:"source"`
	Target     string    `json:"target,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	StoppedAt  time.Time `json:"stopped_at"`
	DurationMs int64     `json:"duration_ms"`
	Width      int       `json:"width"`
	Height     int       `json:"height"`
	// FrameBytes is the size of one converted frame.
	FrameBytes int64 `json:"frame_bytes"`
}

// Settings contains the capture configuration.
type Settings struct {
	StabilizationDelayMs int    `json:"stabilization_delay_ms"`
	MaxQueueSize         int    `json:"max_queue_size"`
	MaxFrameAgeMs        int    `json:"max_frame_age_ms"`
	ChromaOrder          string `json:"chroma_order"`
	ChromaRounding       string `json:"chroma_rounding"`
	DetectScrolling      bool   `json:"detect_scrolling"`
	ScrollThrottleMs     int    `json:"scroll_throttle_ms"`
}

// FrameInfo counts frames through the pipeline.
type FrameInfo struct {
	Received           int64 `json:"received"`
	OutOfOrder         int64 `json:"out_of_order"`
	Unchanged          int64 `json:"unchanged"`
	TimersArmed        int64 `json:"timers_armed"`
	StaleTimers        int64 `json:"stale_timers"`
	Settled            int64 `json:"settled"`
	ConversionFailures int64 `json:"conversion_failures"`
	Evicted            int64 `json:"evicted"`
	Fetched            int64 `json:"fetched"`
	TooOld             int64 `json:"too_old"`
}

// ScrollInfo counts scroll handling.
type ScrollInfo struct {
	Cancels        int64 `json:"cancels"`
	Throttled      int64 `json:"throttled"`
	ContentScrolls int64 `json:"content_scrolls"`
}

// NewSummary creates a new Summary with the current timestamp.
func NewSummary() *Summary {
	return &Summary{
		GeneratedAt: time.Now(),
	}
}

// Builder provides a fluent interface for building a Summary.
type Builder struct {
	summary *Summary
}

// NewBuilder creates a new Builder.
func NewBuilder() *Builder {
	return &Builder{
		summary: NewSummary(),
	}
}

// WithSource sets the source kind and what it captured (URL, directory, region).
func (b *Builder) WithSource(kind, target string) *Builder {
	b.summary.Session.Source = kind
	b.summary.Session.Target = target
	return b
}

// WithSettings sets capture settings.
func (b *Builder) WithSettings(settings Settings) *Builder {
	b.summary.Settings = settings
	return b
}

// WithStats copies session statistics.
func (b *Builder) WithStats(st capture.Stats) *Builder {
	s := b.summary
	s.Session.StartedAt = st.StartedAt
	s.Session.StoppedAt = st.StoppedAt
	s.Session.Width = st.Width
	s.Session.Height = st.Height
	if !st.StoppedAt.IsZero() {
		s.Session.DurationMs = st.Duration(st.StoppedAt).Milliseconds()
	}
	if st.Width > 0 && st.Height > 0 {
		s.Session.FrameBytes = int64(convert.OutputSize(st.Width, st.Height))
	}

	s.Frames = FrameInfo{
		Received:           st.FramesReceived,
		OutOfOrder:         st.FramesOutOfOrder,
		Unchanged:          st.FramesUnchanged,
		TimersArmed:        st.TimersArmed,
		StaleTimers:        st.StaleTimers,
		Settled:            st.FramesSettled,
		ConversionFailures: st.ConversionFailures,
		Evicted:            st.QueueEvictions,
		Fetched:            st.FramesFetched,
		TooOld:             st.FramesTooOld,
	}
	s.Scroll = ScrollInfo{
		Cancels:        st.ScrollCancels,
		Throttled:      st.ScrollsThrottled,
		ContentScrolls: st.ContentScrolls,
	}
	s.LastColor = st.LastColor
	return b
}

// Build returns the constructed Summary.
func (b *Builder) Build() *Summary {
	return b.summary
}
