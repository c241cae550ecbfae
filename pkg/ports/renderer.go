package ports

import (
	"image"
	"image/color"
)

// ImageFormat selects an image codec.
type ImageFormat int

const (
	FormatJPEG ImageFormat = iota
	FormatPNG
	// FormatAuto sniffs the format from the data. Decoding only.
	FormatAuto
)

// String returns the lower-case codec name.
func (f ImageFormat) String() string {
	switch f {
	case FormatJPEG:
		return "jpeg"
	case FormatPNG:
		return "png"
	case FormatAuto:
		return "auto"
	default:
		return "unknown"
	}
}

// Renderer decodes frames from image sources and draws debug previews.
type Renderer interface {
	// DecodeImage decodes screencast frames and files dropped into a watch dir.
	DecodeImage(data []byte, format ImageFormat) (image.Image, error)

	// EncodeImage encodes debug output. quality applies to JPEG only.
	EncodeImage(img image.Image, format ImageFormat, quality int) ([]byte, error)

	// ResizeImage scales img to exactly width x height.
	ResizeImage(img image.Image, width, height int) image.Image

	// CreateCanvas returns a canvas filled with bg.
	CreateCanvas(width, height int, bg color.Color) Canvas
}

// Canvas is a drawing surface for overlay previews.
// Coordinates are in pixels with the origin at the top left.
type Canvas interface {
	DrawImageScaled(img image.Image, x, y, width, height int)
	DrawRect(x, y, w, h int, c color.Color)
	DrawRoundedRect(x, y, w, h, radius int, c color.Color)
	DrawRectStroke(x, y, w, h int, c color.Color, strokeWidth float64)

	// DrawText draws text vertically centered on y. x is the left edge,
	// center or right edge depending on style.Align.
	DrawText(text string, x, y int, style TextStyle)

	ToImage() image.Image
}

// TextStyle defines text rendering properties. An empty FontPath or one
// that fails to load selects the built-in monospace face.
type TextStyle struct {
	FontSize float64
	FontPath string
	Color    color.Color
	Align    TextAlign
}

// TextAlign specifies how DrawText anchors text on x.
type TextAlign int

const (
	AlignLeft TextAlign = iota
	AlignCenter
	AlignRight
)
