package filesink

import (
	"errors"
	"image"
	"path/filepath"
	"strings"
	"testing"

	"github.com/user/screensettle/pkg/mocks"
	"github.com/user/screensettle/pkg/ports"
)

// testBaseDir is a platform-independent base directory for tests
var testBaseDir = filepath.Join("debug")

func TestSink_Enabled(t *testing.T) {
	sink := New(testBaseDir, mocks.NewFileSystem(), &mocks.Renderer{})

	if !sink.Enabled() {
		t.Error("expected Enabled to return true")
	}
}

func TestSink_SaveSessionJSON(t *testing.T) {
	fs := mocks.NewFileSystem()
	sink := New(testBaseDir, fs, &mocks.Renderer{})

	data := []byte(`{"frames_settled": 3}`)
	if err := sink.SaveSessionJSON(data); err != nil {
		t.Fatalf("SaveSessionJSON failed: %v", err)
	}

	expectedPath := filepath.Join(testBaseDir, "session.json")
	saved, ok := fs.File(expectedPath)
	if !ok {
		t.Fatalf("expected file to be saved at %s", expectedPath)
	}
	if string(saved) != string(data) {
		t.Errorf("expected %q, got %q", data, saved)
	}
}

func TestSink_SaveConvertedFrame(t *testing.T) {
	fs := mocks.NewFileSystem()
	sink := New(testBaseDir, fs, &mocks.Renderer{})

	data := []byte{16, 16, 16, 16, 128, 128}
	if err := sink.SaveConvertedFrame(7, data); err != nil {
		t.Fatalf("SaveConvertedFrame failed: %v", err)
	}

	expectedPath := filepath.Join(testBaseDir, "frames", "converted", "frame-0007.yuv")
	saved, ok := fs.File(expectedPath)
	if !ok {
		t.Fatalf("expected file to be saved at %s", expectedPath)
	}
	if len(saved) != len(data) {
		t.Errorf("expected %d bytes, got %d", len(data), len(saved))
	}
}

func TestSink_SaveStableFrameAndPreview(t *testing.T) {
	fs := mocks.NewFileSystem()
	var formats []ports.ImageFormat
	renderer := &mocks.Renderer{
		EncodeImageFunc: func(img image.Image, format ports.ImageFormat, quality int) ([]byte, error) {
			formats = append(formats, format)
			return []byte{0x89, 0x50, 0x4E, 0x47}, nil // PNG header
		},
	}
	sink := New(testBaseDir, fs, renderer)

	img := image.NewRGBA(image.Rect(0, 0, 10, 10))
	if err := sink.SaveStableFrame(1, img); err != nil {
		t.Fatalf("SaveStableFrame failed: %v", err)
	}
	if err := sink.SavePreview(1, img); err != nil {
		t.Fatalf("SavePreview failed: %v", err)
	}

	for _, p := range []string{
		filepath.Join(testBaseDir, "frames", "stable", "frame-0001.png"),
		filepath.Join(testBaseDir, "previews", "frame-0001.png"),
	} {
		if _, ok := fs.File(p); !ok {
			t.Errorf("expected file to be saved at %s", p)
		}
	}
	for _, f := range formats {
		if f != ports.FormatPNG {
			t.Errorf("expected PNG encoding, got %d", f)
		}
	}
}

func TestSink_EncodeError(t *testing.T) {
	fs := mocks.NewFileSystem()
	renderer := &mocks.Renderer{
		EncodeImageFunc: func(img image.Image, format ports.ImageFormat, quality int) ([]byte, error) {
			return nil, errors.New("boom")
		},
	}
	sink := New(testBaseDir, fs, renderer)

	err := sink.SavePreview(0, image.NewRGBA(image.Rect(0, 0, 1, 1)))
	if err == nil || !strings.Contains(err.Error(), "boom") {
		t.Errorf("expected encode error, got %v", err)
	}
	if len(fs.Files()) != 0 {
		t.Errorf("expected no files written, got %d", len(fs.Files()))
	}
}

func TestSink_MkdirError(t *testing.T) {
	fs := mocks.NewFileSystem()
	fs.MkdirAllFunc = func(path string) error { return errors.New("read-only") }
	sink := New(testBaseDir, fs, &mocks.Renderer{})

	if err := sink.SaveConvertedFrame(0, []byte{1}); err == nil {
		t.Error("expected error when directory cannot be created")
	}
}
