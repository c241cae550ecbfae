// Package filesink provides a file-based debug sink implementation.
package filesink

import (
	"fmt"
	"image"
	"path/filepath"

	"github.com/user/screensettle/pkg/ports"
)

// Sink saves debug output under a base directory:
//
//	frames/stable/frame-0000.png     settled frames as captured
//	frames/converted/frame-0000.yuv  converted planar buffers
//	previews/frame-0000.png          color overlay previews
//	session.json                     session statistics
type Sink struct {
	baseDir  string
	fs       ports.FileSystem
	renderer ports.Renderer
}

// New creates a new FileSink.
func New(baseDir string, fs ports.FileSystem, renderer ports.Renderer) *Sink {
	return &Sink{
		baseDir:  baseDir,
		fs:       fs,
		renderer: renderer,
	}
}

// Enabled returns true as this sink saves output.
func (s *Sink) Enabled() bool {
	return true
}

// SaveStableFrame saves a settled frame as PNG.
func (s *Sink) SaveStableFrame(index int, img image.Image) error {
	return s.savePNG(filepath.Join("frames", "stable"), index, img)
}

// SaveConvertedFrame saves a converted frame buffer as raw bytes.
func (s *Sink) SaveConvertedFrame(index int, data []byte) error {
	dir := filepath.Join(s.baseDir, "frames", "converted")
	if err := s.fs.MkdirAll(dir); err != nil {
		return err
	}
	path := filepath.Join(dir, fmt.Sprintf("frame-%04d.yuv", index))
	return s.fs.WriteFile(path, data)
}

// SavePreview saves a preview image as PNG.
func (s *Sink) SavePreview(index int, img image.Image) error {
	return s.savePNG("previews", index, img)
}

// SaveSessionJSON saves the session statistics as JSON.
func (s *Sink) SaveSessionJSON(data []byte) error {
	path := filepath.Join(s.baseDir, "session.json")
	return s.fs.WriteFile(path, data)
}

func (s *Sink) savePNG(subdir string, index int, img image.Image) error {
	dir := filepath.Join(s.baseDir, subdir)
	if err := s.fs.MkdirAll(dir); err != nil {
		return err
	}
	data, err := s.renderer.EncodeImage(img, ports.FormatPNG, 0)
	if err != nil {
		return fmt.Errorf("encode %s frame: %w", filepath.Base(subdir), err)
	}
	path := filepath.Join(dir, fmt.Sprintf("frame-%04d.png", index))
	return s.fs.WriteFile(path, data)
}

// Ensure Sink implements ports.DebugSink
var _ ports.DebugSink = (*Sink)(nil)
