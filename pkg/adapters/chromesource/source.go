// Package chromesource provides a frame source that screencasts a Chrome tab
// using chromedp.
package chromesource

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"

	"github.com/user/screensettle/pkg/pipeline"
	"github.com/user/screensettle/pkg/ports"
)

// bindingName is the page-side function the scroll script reports through.
const bindingName = "__screensettleScroll"

// scrollScript reports scroll offsets and wheel gestures to the binding.
const scrollScript = `(() => {
	let last = window.scrollY;
	const report = (dy) => {
		if (dy !== 0 && typeof window.` + bindingName + ` === 'function') {
			window.` + bindingName + `(JSON.stringify({dy: Math.round(dy)}));
		}
	};
	window.addEventListener('scroll', () => {
		const y = window.scrollY;
		report(y - last);
		last = y;
	}, {passive: true, capture: true});
	window.addEventListener('wheel', (e) => report(e.deltaY), {passive: true});
})();`

// Channel sizes. Frames beyond the buffer are dropped; only the latest matters.
const (
	frameBuffer  = 4
	scrollBuffer = 32
)

// ErrChromeNotFound is returned when no Chrome executable can be located.
var ErrChromeNotFound = errors.New("chrome not found: install Chrome/Chromium, set CHROME_PATH, or use --chrome-path")

// Options configures the Chrome source.
type Options struct {
	URL        string
	ChromePath string
	Headless   bool
	Width      int
	Height     int
	// Quality is the screencast JPEG quality (1-100).
	Quality int
}

// Source implements ports.FrameSource and ports.ScrollSource on a Chrome tab.
type Source struct {
	opts     Options
	renderer ports.Renderer
	logger   ports.Logger

	mu          sync.Mutex
	active      bool
	allocCancel context.CancelFunc
	tabCtx      context.Context
	tabCancel   context.CancelFunc
	frames      chan pipeline.CapturedFrame
	scrolls     chan pipeline.ScrollSignal
	dropped     int
}

// New creates a Chrome source. Frames are decoded with renderer.
func New(opts Options, renderer ports.Renderer, logger ports.Logger) *Source {
	if opts.Quality <= 0 || opts.Quality > 100 {
		opts.Quality = 80
	}
	return &Source{
		opts:     opts,
		renderer: renderer,
		logger:   logger.WithComponent("chrome"),
	}
}

// Start launches Chrome, opens the URL and begins the screencast.
func (s *Source) Start(ctx context.Context) (<-chan pipeline.CapturedFrame, error) {
	s.mu.Lock()
	if s.active {
		s.mu.Unlock()
		return nil, errors.New("chrome source already started")
	}
	s.mu.Unlock()

	chromePath := ResolveChromePath(s.opts.ChromePath)
	if chromePath == "" {
		return nil, ErrChromeNotFound
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, s.allocatorOptions(chromePath)...)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx)

	s.mu.Lock()
	s.active = true
	s.allocCancel = allocCancel
	s.tabCtx = tabCtx
	s.tabCancel = tabCancel
	s.frames = make(chan pipeline.CapturedFrame, frameBuffer)
	s.scrolls = make(chan pipeline.ScrollSignal, scrollBuffer)
	s.dropped = 0
	frames := s.frames
	s.mu.Unlock()

	chromedp.ListenTarget(tabCtx, s.handleEvent)

	err := chromedp.Run(tabCtx,
		runtime.AddBinding(bindingName),
		chromedp.ActionFunc(func(ctx context.Context) error {
			_, err := page.AddScriptToEvaluateOnNewDocument(scrollScript).Do(ctx)
			return err
		}),
		emulation.SetDeviceMetricsOverride(int64(s.opts.Width), int64(s.opts.Height), 1, false),
		chromedp.Navigate(s.opts.URL),
		page.StartScreencast().
			WithFormat(page.ScreencastFormatJpeg).
			WithQuality(int64(s.opts.Quality)).
			WithEveryNthFrame(1),
	)
	if err != nil {
		s.Stop()
		return nil, fmt.Errorf("start screencast: %w", err)
	}

	// Chrome exiting on its own ends the session.
	go func() {
		<-tabCtx.Done()
		s.closeChannels()
	}()

	s.logger.Info("Screencasting %s at %dx%d", s.opts.URL, s.opts.Width, s.opts.Height)
	return frames, nil
}

// ScrollSignals returns scroll gestures observed in the page.
func (s *Source) ScrollSignals() <-chan pipeline.ScrollSignal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scrolls
}

// Stop ends the screencast and shuts Chrome down.
func (s *Source) Stop() error {
	s.mu.Lock()
	tabCtx, tabCancel, allocCancel := s.tabCtx, s.tabCancel, s.allocCancel
	s.tabCtx, s.tabCancel, s.allocCancel = nil, nil, nil
	s.mu.Unlock()

	if tabCtx != nil {
		stopCtx, cancel := context.WithTimeout(tabCtx, 2*time.Second)
		chromedp.Run(stopCtx, page.StopScreencast())
		cancel()
	}
	s.closeChannels()

	if tabCancel != nil {
		tabCancel()
	}
	if allocCancel != nil {
		allocCancel()
	}
	return nil
}

func (s *Source) closeChannels() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return
	}
	s.active = false
	close(s.frames)
	close(s.scrolls)
	if s.dropped > 0 {
		s.logger.Debug("Dropped %d screencast frames", s.dropped)
	}
}

func (s *Source) handleEvent(ev interface{}) {
	switch e := ev.(type) {
	case *page.EventScreencastFrame:
		s.mu.Lock()
		tabCtx := s.tabCtx
		s.mu.Unlock()
		if tabCtx != nil {
			go chromedp.Run(tabCtx, page.ScreencastFrameAck(e.SessionID))
		}

		frame, err := s.decodeFrame(e.Data, time.Now())
		if err != nil {
			s.logger.Warn("Failed to decode screencast frame: %s", err)
			return
		}
		s.mu.Lock()
		if s.active {
			select {
			case s.frames <- frame:
			default:
				s.dropped++
			}
		}
		s.mu.Unlock()

	case *runtime.EventBindingCalled:
		if e.Name != bindingName {
			return
		}
		sig, err := ParseScrollPayload(e.Payload, time.Now())
		if err != nil {
			s.logger.Debug("Ignoring scroll payload: %s", err)
			return
		}
		s.mu.Lock()
		if s.active {
			select {
			case s.scrolls <- sig:
			default:
			}
		}
		s.mu.Unlock()
	}
}

func (s *Source) decodeFrame(b64 string, at time.Time) (pipeline.CapturedFrame, error) {
	data, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return pipeline.CapturedFrame{}, fmt.Errorf("decode base64: %w", err)
	}
	img, err := s.renderer.DecodeImage(data, ports.FormatJPEG)
	if err != nil {
		return pipeline.CapturedFrame{}, err
	}
	return pipeline.FrameFromImage(img, at), nil
}

func (s *Source) allocatorOptions(chromePath string) []chromedp.ExecAllocatorOption {
	opts := []chromedp.ExecAllocatorOption{
		chromedp.ExecPath(chromePath),
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-background-networking", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-sync", true),
		chromedp.Flag("mute-audio", true),
		chromedp.Flag("disable-gpu", true),
	}
	if s.opts.Headless {
		opts = append(opts, chromedp.Flag("headless", "new"))
	}
	if s.opts.Width > 0 && s.opts.Height > 0 {
		opts = append(opts, chromedp.WindowSize(s.opts.Width, s.opts.Height))
	}
	return opts
}

// scrollPayload is the JSON reported by the page script.
type scrollPayload struct {
	DY *float64 `json:"dy"`
}

// ParseScrollPayload converts a binding payload into a scroll signal
// stamped with now.
func ParseScrollPayload(payload string, now time.Time) (pipeline.ScrollSignal, error) {
	var p scrollPayload
	if err := json.Unmarshal([]byte(payload), &p); err != nil {
		return pipeline.ScrollSignal{}, fmt.Errorf("parse scroll payload: %w", err)
	}
	if p.DY == nil {
		return pipeline.ScrollSignal{}, errors.New("scroll payload has no dy")
	}
	return pipeline.ScrollSignal{
		SourceID:  "chrome",
		Timestamp: now,
		Delta:     int(*p.DY),
	}, nil
}

var (
	_ ports.FrameSource  = (*Source)(nil)
	_ ports.ScrollSource = (*Source)(nil)
)
