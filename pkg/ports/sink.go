package ports

import (
	"image"
)

// DebugSink abstracts debug output for intermediate results.
type DebugSink interface {
	// Enabled returns true if debug output is enabled.
	Enabled() bool

	// SaveStableFrame saves the frame the stabilizer settled on.
	SaveStableFrame(index int, img image.Image) error

	// SaveConvertedFrame saves the planar luma + chroma buffer of a settled frame.
	SaveConvertedFrame(index int, data []byte) error

	// SavePreview saves an overlay preview rendered for a settled frame.
	SavePreview(index int, img image.Image) error

	// SaveSessionJSON saves the session statistics as JSON.
	SaveSessionJSON(data []byte) error
}
