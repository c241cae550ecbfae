// Package dirsource provides a frame source fed by image files that an
// external mirroring tool drops into a directory.
package dirsource

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/user/screensettle/pkg/pipeline"
	"github.com/user/screensettle/pkg/ports"
)

// imageExts are the file extensions picked up by the watcher.
var imageExts = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".bmp":  true,
	".webp": true,
}

// IsImageFile reports whether name looks like a frame file. Hidden files
// are skipped so in-progress temp files are never read.
func IsImageFile(name string) bool {
	base := filepath.Base(name)
	if strings.HasPrefix(base, ".") {
		return false
	}
	return imageExts[strings.ToLower(filepath.Ext(base))]
}

// Source implements ports.FrameSource on a watched directory.
type Source struct {
	dir      string
	fs       ports.FileSystem
	renderer ports.Renderer
	clock    ports.Clock
	logger   ports.Logger

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	cancel  context.CancelFunc
	done    chan struct{}
}

// New creates a directory source.
func New(dir string, fs ports.FileSystem, renderer ports.Renderer, clock ports.Clock, logger ports.Logger) *Source {
	return &Source{
		dir:      dir,
		fs:       fs,
		renderer: renderer,
		clock:    clock,
		logger:   logger.WithComponent("dir"),
	}
}

// Start watches the directory. The newest existing image, if any, is
// delivered first.
func (s *Source) Start(ctx context.Context) (<-chan pipeline.CapturedFrame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.watcher != nil {
		return nil, errors.New("dir source already started")
	}

	names, err := s.fs.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read watch dir: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(s.dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch %s: %w", s.dir, err)
	}

	frames := make(chan pipeline.CapturedFrame, 1)
	for i := len(names) - 1; i >= 0; i-- {
		if !IsImageFile(names[i]) {
			continue
		}
		if frame, err := s.load(filepath.Join(s.dir, names[i])); err == nil {
			frames <- frame
			break
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	s.watcher = watcher
	s.cancel = cancel
	s.done = make(chan struct{})
	go s.loop(ctx, watcher, frames, s.done)

	s.logger.Info("Watching %s for frames", s.dir)
	return frames, nil
}

func (s *Source) loop(ctx context.Context, watcher *fsnotify.Watcher, frames chan pipeline.CapturedFrame, done chan<- struct{}) {
	defer close(done)
	defer close(frames)

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if !IsImageFile(event.Name) {
				continue
			}

			frame, err := s.load(event.Name)
			if err != nil {
				// Usually a file still being written; its next Write event retries.
				s.logger.Debug("Skipping %s: %s", filepath.Base(event.Name), err)
				continue
			}
			offerLatest(frames, frame)

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			s.logger.Warn("Watcher error: %s", err)
		}
	}
}

func (s *Source) load(path string) (pipeline.CapturedFrame, error) {
	data, err := s.fs.ReadFile(path)
	if err != nil {
		return pipeline.CapturedFrame{}, err
	}
	img, err := s.renderer.DecodeImage(data, ports.FormatAuto)
	if err != nil {
		return pipeline.CapturedFrame{}, err
	}
	return pipeline.FrameFromImage(img, s.clock.Now()), nil
}

// offerLatest sends frame, replacing an unread older frame if the
// buffer is full. Only the loop sends, so the retry cannot block.
func offerLatest(frames chan pipeline.CapturedFrame, frame pipeline.CapturedFrame) {
	select {
	case frames <- frame:
		return
	default:
	}
	select {
	case <-frames:
	default:
	}
	select {
	case frames <- frame:
	default:
	}
}

// Stop closes the watcher and the frame channel.
func (s *Source) Stop() error {
	s.mu.Lock()
	watcher, cancel, done := s.watcher, s.cancel, s.done
	s.watcher, s.cancel, s.done = nil, nil, nil
	s.mu.Unlock()

	if watcher == nil {
		return nil
	}
	cancel()
	<-done
	return watcher.Close()
}

var _ ports.FrameSource = (*Source)(nil)
