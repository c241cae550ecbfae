// Package capture coordinates a capture session: frames flow from a source
// through change detection and stabilization into conversion and the frame
// queue, while scroll signals cancel whatever is pending.
package capture

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/user/screensettle/pkg/detect"
	"github.com/user/screensettle/pkg/framequeue"
	"github.com/user/screensettle/pkg/pipeline"
	"github.com/user/screensettle/pkg/ports"
	"github.com/user/screensettle/pkg/stabilizer"
)

// Pipeline owns one capture session at a time.
//
// Lock order: the stabilizer lock may be held while p.mu is taken (settled
// frames are handled under it), so p.mu is never held while calling into
// the stabilizer.
type Pipeline struct {
	process pipeline.Stage[pipeline.CapturedFrame, pipeline.QueueEntry]
	preview pipeline.Stage[pipeline.PreviewInput, image.Image]
	clock   ports.Clock
	sink    ports.DebugSink
	logger  ports.Logger
	opts    Options

	detector   *detect.Detector
	stabilizer *stabilizer.Stabilizer
	queue      *framequeue.Queue
	counters   counters

	// lifecycle serializes StartSession and StopSession.
	lifecycle sync.Mutex

	mu             sync.Mutex
	current        *session
	startedAt      time.Time
	lastCapturedAt time.Time
	lastScrollAt   time.Time
	width, height  int
	lastColor      pipeline.RGB
	evictBase      int64
	lastStats      Stats
	onSettled      func(pipeline.QueueEntry)
}

type session struct {
	source ports.FrameSource
	cancel context.CancelFunc
	done   chan struct{}

	// debug is nil unless the sink is enabled.
	debug     chan debugJob
	debugDone chan struct{}
}

// debugJob is one settled frame waiting to be written to the debug sink.
type debugJob struct {
	index int
	frame pipeline.CapturedFrame
	entry pipeline.QueueEntry
}

// debugBacklog bounds how many settled frames may wait for the debug sink.
const debugBacklog = 8

// New creates a new Pipeline. process converts settled frames into queue
// entries; preview may be nil when no overlay preview is wanted.
func New(
	process pipeline.Stage[pipeline.CapturedFrame, pipeline.QueueEntry],
	preview pipeline.Stage[pipeline.PreviewInput, image.Image],
	clock ports.Clock,
	sink ports.DebugSink,
	logger ports.Logger,
	opts Options,
) *Pipeline {
	opts = opts.withDefaults()
	p := &Pipeline{
		process:  process,
		preview:  preview,
		clock:    clock,
		sink:     sink,
		logger:   logger.WithComponent("capture"),
		opts:     opts,
		detector: detect.New(opts.Detector),
		queue:    framequeue.New(opts.MaxQueueSize),
	}
	p.stabilizer = stabilizer.New(opts.StabilizationDelay, clock, p.detector, p.handleSettled, logger)
	p.stabilizer.Stop()
	p.queue.OnEvict(func(e pipeline.QueueEntry) {
		p.logger.Debug("Evicted queued frame captured at %s", e.CapturedAt.Format("15:04:05.000"))
	})
	return p
}

// Options returns the effective options.
func (p *Pipeline) Options() Options {
	return p.opts
}

// OnSettled registers a callback for every frame that settles and is queued.
// The callback must not block and must not call back into the Pipeline.
func (p *Pipeline) OnSettled(fn func(pipeline.QueueEntry)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onSettled = fn
}

// StartSession starts consuming frames from source.
func (p *Pipeline) StartSession(ctx context.Context, source ports.FrameSource) error {
	if source == nil {
		return fmt.Errorf("%w: no source", ErrSourceUnavailable)
	}

	p.lifecycle.Lock()
	defer p.lifecycle.Unlock()

	p.mu.Lock()
	running := p.current != nil
	p.mu.Unlock()
	if running {
		return ErrAlreadyRunning
	}

	sessCtx, cancel := context.WithCancel(ctx)
	frames, err := source.Start(sessCtx)
	if err != nil {
		cancel()
		source.Stop()
		p.logger.Error("Failed to start frame source: %s", err)
		return fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
	}

	var scrolls <-chan pipeline.ScrollSignal
	if ss, ok := source.(ports.ScrollSource); ok {
		scrolls = ss.ScrollSignals()
	}

	p.detector.Reset()
	p.queue.Clear()
	p.counters.reset()
	p.stabilizer.Reset()

	s := &session{
		source: source,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	if p.sink.Enabled() {
		s.debug = make(chan debugJob, debugBacklog)
		s.debugDone = make(chan struct{})
		go p.debugLoop(s)
	}

	p.mu.Lock()
	p.current = s
	p.startedAt = p.clock.Now()
	p.lastCapturedAt = time.Time{}
	p.lastScrollAt = time.Time{}
	p.width, p.height = 0, 0
	p.lastColor = pipeline.RGB{}
	p.evictBase = p.queue.Evicted()
	p.mu.Unlock()

	go p.run(sessCtx, s, frames, scrolls)

	p.logger.Info("Capture session started (delay %d ms, queue %d)", p.opts.StabilizationDelay.Milliseconds(), p.opts.MaxQueueSize)
	return nil
}

// run is the single task that drives a session's state machine.
func (p *Pipeline) run(ctx context.Context, s *session, frames <-chan pipeline.CapturedFrame, scrolls <-chan pipeline.ScrollSignal) {
	defer close(s.done)

	for {
		select {
		case <-ctx.Done():
			go p.stopSession(s)
			return
		case frame, ok := <-frames:
			if !ok {
				p.logger.Info("Frame source closed, ending session")
				go p.stopSession(s)
				return
			}
			p.OnFrame(frame)
		case sig, ok := <-scrolls:
			if !ok {
				scrolls = nil
				continue
			}
			p.OnScrollSignal(sig)
		}
	}
}

// StopSession ends the active session. It is safe to call at any time.
func (p *Pipeline) StopSession() {
	p.mu.Lock()
	s := p.current
	p.mu.Unlock()
	p.stopSession(s)
}

func (p *Pipeline) stopSession(s *session) {
	if s == nil {
		return
	}

	p.lifecycle.Lock()
	defer p.lifecycle.Unlock()

	p.mu.Lock()
	if p.current != s {
		p.mu.Unlock()
		return
	}
	p.current = nil
	p.mu.Unlock()

	// Timers first, so nothing settles while the source is torn down.
	p.stabilizer.Stop()
	s.cancel()
	if err := s.source.Stop(); err != nil {
		p.logger.Warn("Failed to stop frame source: %s", err)
	}
	<-s.done

	// No settled frame can be queued for the debug loop once the stabilizer
	// is stopped.
	if s.debug != nil {
		close(s.debug)
		<-s.debugDone
	}

	stats := p.snapshot(false)
	stats.StoppedAt = p.clock.Now()

	p.queue.Clear()
	p.detector.Reset()

	p.mu.Lock()
	p.lastStats = stats
	p.mu.Unlock()

	if p.sink.Enabled() {
		if data, err := json.MarshalIndent(stats, "", "  "); err == nil {
			if err := p.sink.SaveSessionJSON(data); err != nil {
				p.logger.Warn("Failed to save debug output: %s", err)
			}
		}
	}

	p.logger.Info("Capture session stopped: %d frames received, %d settled", stats.FramesReceived, stats.FramesSettled)
}

// Capturing reports whether a session is active.
func (p *Pipeline) Capturing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current != nil
}

// Done returns a channel closed when the active session's frame loop ends.
// Without an active session the channel is already closed.
func (p *Pipeline) Done() <-chan struct{} {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return p.current.done
}

// OnFrame feeds a frame into the active session. Frames arriving outside a
// session or older than their predecessor are dropped.
func (p *Pipeline) OnFrame(frame pipeline.CapturedFrame) {
	p.mu.Lock()
	if p.current == nil {
		p.mu.Unlock()
		p.logger.Debug("Ignoring frame outside a session")
		return
	}
	if !p.lastCapturedAt.IsZero() && frame.CapturedAt.Before(p.lastCapturedAt) {
		p.mu.Unlock()
		p.counters.outOfOrder.Add(1)
		p.logger.Warn("Dropping out-of-order frame captured at %s", frame.CapturedAt.Format("15:04:05.000"))
		return
	}
	p.lastCapturedAt = frame.CapturedAt
	if p.width != 0 && (p.width != frame.Width || p.height != frame.Height) {
		p.logger.Info("Display resized from %dx%d to %dx%d", p.width, p.height, frame.Width, frame.Height)
	}
	p.width, p.height = frame.Width, frame.Height
	p.mu.Unlock()

	p.counters.received.Add(1)

	if p.opts.DetectScrolling && p.detector.Observe(frame) == detect.Scrolling {
		p.counters.contentScrolls.Add(1)
		p.logger.Debug("Content is scrolling")
		p.cancelPending()
		return
	}

	p.stabilizer.OnFrame(frame)
}

// OnScrollSignal cancels any pending frame and flushes the queue.
// Signals closer than the throttle interval to the last accepted one are ignored.
func (p *Pipeline) OnScrollSignal(sig pipeline.ScrollSignal) {
	ts := sig.Timestamp
	if ts.IsZero() {
		ts = p.clock.Now()
	}

	p.mu.Lock()
	if p.current == nil {
		p.mu.Unlock()
		return
	}
	if last := p.lastScrollAt; !last.IsZero() && ts.Sub(last) >= 0 && ts.Sub(last) < p.opts.ScrollThrottle {
		p.mu.Unlock()
		p.counters.throttled.Add(1)
		return
	}
	p.lastScrollAt = ts
	p.mu.Unlock()

	p.counters.scrollCancels.Add(1)
	p.logger.Debug("Scroll from %s (delta %d), cancelling pending frame", sig.SourceID, sig.Delta)
	p.cancelPending()
}

func (p *Pipeline) cancelPending() {
	p.stabilizer.Cancel()
	if n := p.queue.Clear(); n > 0 {
		p.logger.Debug("Discarded %d queued frames", n)
	}
}

// handleSettled runs under the stabilizer lock for every settled frame.
// Debug output is handed to the session's debug loop so file I/O never
// happens under that lock.
func (p *Pipeline) handleSettled(frame pipeline.CapturedFrame) {
	entry, err := p.process.Execute(context.Background(), frame)
	if err != nil {
		p.counters.convertFailed.Add(1)
		p.logger.Warn("Dropping settled frame: %s", err)
		return
	}

	p.queue.Push(entry)
	index := int(p.counters.settled.Add(1))

	p.mu.Lock()
	if entry.Sampled {
		p.lastColor = entry.Color
	}
	notify := p.onSettled
	s := p.current
	p.mu.Unlock()

	p.logger.Debug("Queued settled frame %d (%dx%d, %s)", index, entry.Width, entry.Height, entry.Color.Hex())

	if s != nil && s.debug != nil {
		select {
		case s.debug <- debugJob{index: index, frame: frame, entry: entry}:
		default:
			p.logger.Warn("Debug output is falling behind, skipping frame %d", index)
		}
	}
	if notify != nil {
		notify(entry)
	}
}

// debugLoop writes settled frames to the debug sink until the session's
// debug channel is closed.
func (p *Pipeline) debugLoop(s *session) {
	defer close(s.debugDone)
	for job := range s.debug {
		p.saveDebug(job.index, job.frame, job.entry)
	}
}

func (p *Pipeline) saveDebug(index int, frame pipeline.CapturedFrame, entry pipeline.QueueEntry) {
	img := frame.Image()
	if err := p.sink.SaveStableFrame(index, img); err != nil {
		p.logger.Warn("Failed to save debug output: %s", err)
	}
	if err := p.sink.SaveConvertedFrame(index, entry.Data); err != nil {
		p.logger.Warn("Failed to save debug output: %s", err)
	}
	if p.preview == nil {
		return
	}
	preview, err := p.preview.Execute(context.Background(), pipeline.PreviewInput{Frame: img, Entry: entry})
	if err != nil {
		p.logger.Warn("Failed to render preview: %s", err)
		return
	}
	if err := p.sink.SavePreview(index, preview); err != nil {
		p.logger.Warn("Failed to save debug output: %s", err)
	}
}

// FetchLatest pops the newest settled frame. A frame older than maxAge is
// consumed and reported as ErrFrameTooOld. A non-positive maxAge uses the
// configured MaxFrameAge.
func (p *Pipeline) FetchLatest(maxAge time.Duration) (pipeline.QueueEntry, error) {
	if !p.Capturing() {
		return pipeline.QueueEntry{}, ErrNotCapturing
	}
	if maxAge <= 0 {
		maxAge = p.opts.MaxFrameAge
	}

	entry, ok := p.queue.Fetch()
	if !ok {
		return pipeline.QueueEntry{}, ErrNoFrameAvailable
	}

	age := entry.Age(p.clock.Now())
	if age > maxAge {
		p.counters.tooOld.Add(1)
		p.logger.Warn("Discarding frame %d ms old (limit %d ms)", age.Milliseconds(), maxAge.Milliseconds())
		return pipeline.QueueEntry{}, fmt.Errorf("%w: %d ms old", ErrFrameTooOld, age.Milliseconds())
	}

	p.counters.fetched.Add(1)
	return entry, nil
}

// Stats returns the counters of the active session, or of the last
// finished session when none is active.
func (p *Pipeline) Stats() Stats {
	p.mu.Lock()
	capturing := p.current != nil
	last := p.lastStats
	p.mu.Unlock()

	if !capturing && !last.StartedAt.IsZero() {
		return last
	}
	return p.snapshot(capturing)
}

func (p *Pipeline) snapshot(capturing bool) Stats {
	st := p.stabilizer.Stats()

	p.mu.Lock()
	defer p.mu.Unlock()

	return Stats{
		Capturing:          capturing,
		StartedAt:          p.startedAt,
		Width:              p.width,
		Height:             p.height,
		FramesReceived:     p.counters.received.Load(),
		FramesOutOfOrder:   p.counters.outOfOrder.Load(),
		FramesUnchanged:    st.Unchanged,
		TimersArmed:        st.Armed,
		StaleTimers:        st.Stale,
		FramesSettled:      p.counters.settled.Load(),
		ConversionFailures: p.counters.convertFailed.Load(),
		ScrollCancels:      p.counters.scrollCancels.Load(),
		ScrollsThrottled:   p.counters.throttled.Load(),
		ContentScrolls:     p.counters.contentScrolls.Load(),
		QueueEvictions:     p.queue.Evicted() - p.evictBase,
		FramesFetched:      p.counters.fetched.Load(),
		FramesTooOld:       p.counters.tooOld.Load(),
		LastColor:          p.lastColor,
	}
}
