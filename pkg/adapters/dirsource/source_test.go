package dirsource

import (
	"context"
	"image"
	"path/filepath"
	"testing"
	"time"

	"github.com/user/screensettle/pkg/adapters/ggrenderer"
	"github.com/user/screensettle/pkg/adapters/logger"
	"github.com/user/screensettle/pkg/adapters/osfilesystem"
	"github.com/user/screensettle/pkg/adapters/systemclock"
	"github.com/user/screensettle/pkg/pipeline"
	"github.com/user/screensettle/pkg/ports"
)

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	data, err := ggrenderer.New().EncodeImage(image.NewRGBA(image.Rect(0, 0, w, h)), ports.FormatPNG, 0)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if err := osfilesystem.New().WriteFile(path, data); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func newSource(dir string) *Source {
	return New(dir, osfilesystem.New(), ggrenderer.New(), systemclock.New(), logger.NewNoop())
}

func receive(t *testing.T, frames <-chan pipeline.CapturedFrame) pipeline.CapturedFrame {
	t.Helper()
	select {
	case f, ok := <-frames:
		if !ok {
			t.Fatal("frame channel closed")
		}
		return f
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for a frame")
	}
	return pipeline.CapturedFrame{}
}

func TestIsImageFile(t *testing.T) {
	tests := map[string]bool{
		"frame.png":          true,
		"/a/b/FRAME.JPG":     true,
		"x.webp":             true,
		"notes.txt":          false,
		".frame.png.tmp-123": false,
		"/tmp/.hidden.png":   false,
		"frame-0001.yuv":     false,
	}
	for name, want := range tests {
		if got := IsImageFile(name); got != want {
			t.Errorf("IsImageFile(%q): expected %v, got %v", name, want, got)
		}
	}
}

func TestSource_DeliversExistingNewestFirst(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "frame-0001.png"), 4, 4)
	writePNG(t, filepath.Join(dir, "frame-0002.png"), 6, 3)

	s := newSource(dir)
	frames, err := s.Start(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer s.Stop()

	f := receive(t, frames)
	if f.Width != 6 || f.Height != 3 {
		t.Errorf("expected newest frame 6x3, got %dx%d", f.Width, f.Height)
	}
}

func TestSource_DeliversNewFiles(t *testing.T) {
	dir := t.TempDir()
	s := newSource(dir)
	frames, err := s.Start(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := osfilesystem.New().WriteFile(filepath.Join(dir, "notes.txt"), []byte("hi")); err != nil {
		t.Fatalf("write: %v", err)
	}
	writePNG(t, filepath.Join(dir, "frame.png"), 10, 7)

	f := receive(t, frames)
	if f.Width != 10 || f.Height != 7 {
		t.Errorf("expected 10x7, got %dx%d", f.Width, f.Height)
	}

	if err := s.Stop(); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	for range frames {
	}
	if err := s.Stop(); err != nil {
		t.Errorf("expected second Stop to be a no-op, got %v", err)
	}
}

func TestSource_MissingDir(t *testing.T) {
	s := newSource(filepath.Join(t.TempDir(), "missing"))
	if _, err := s.Start(context.Background()); err == nil {
		t.Error("expected error for missing directory")
	}
}

func TestOfferLatest_ReplacesUnread(t *testing.T) {
	frames := make(chan pipeline.CapturedFrame, 1)
	offerLatest(frames, pipeline.CapturedFrame{Width: 1})
	offerLatest(frames, pipeline.CapturedFrame{Width: 2})

	if f := <-frames; f.Width != 2 {
		t.Errorf("expected latest frame, got width %d", f.Width)
	}
}
