package pipeline

import (
	"bytes"
	"fmt"
	"image"
	"time"
)

// =============================================================================
// Frame Types
// =============================================================================

// BytesPerPixel is the dense pixel stride of an interleaved RGBA frame.
const BytesPerPixel = 4

// CapturedFrame is one raw interleaved 4-channel image from a frame source.
// Channel order is R, G, B, A. Ownership moves from stage to stage without copying.
type CapturedFrame struct {
	Pixels     []byte
	CapturedAt time.Time
	Width      int
	Height     int

	// RowStride is the byte distance between row starts (0 means Width*PixelStride).
	RowStride int
	// PixelStride is the byte distance between pixels in a row (0 means 4).
	PixelStride int
}

// Strides returns the effective row and pixel strides.
func (f CapturedFrame) Strides() (rowStride, pixelStride int) {
	pixelStride = f.PixelStride
	if pixelStride == 0 {
		pixelStride = BytesPerPixel
	}
	rowStride = f.RowStride
	if rowStride == 0 {
		rowStride = f.Width * pixelStride
	}
	return rowStride, pixelStride
}

// Offset returns the byte offset of pixel (x, y).
func (f CapturedFrame) Offset(x, y int) int {
	rowStride, pixelStride := f.Strides()
	return y*rowStride + x*pixelStride
}

// Equal reports whether two frames are structurally identical.
func (f CapturedFrame) Equal(other CapturedFrame) bool {
	fr, fp := f.Strides()
	or, op := other.Strides()
	return f.Width == other.Width &&
		f.Height == other.Height &&
		fr == or && fp == op &&
		f.CapturedAt.Equal(other.CapturedAt) &&
		bytes.Equal(f.Pixels, other.Pixels)
}

// Image returns a dense copy of the frame as an *image.RGBA.
// Pixels that fall outside the buffer are left transparent.
func (f CapturedFrame) Image() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, f.Width, f.Height))
	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			src := f.Offset(x, y)
			if src+3 >= len(f.Pixels) {
				continue
			}
			dst := img.PixOffset(x, y)
			copy(img.Pix[dst:dst+4], f.Pixels[src:src+4])
		}
	}
	return img
}

// FrameFromImage converts any image into a dense CapturedFrame.
func FrameFromImage(img image.Image, capturedAt time.Time) CapturedFrame {
	b := img.Bounds()
	rgba, ok := img.(*image.RGBA)
	if !ok || b.Min != (image.Point{}) || rgba.Stride != b.Dx()*BytesPerPixel {
		dense := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		for y := 0; y < b.Dy(); y++ {
			for x := 0; x < b.Dx(); x++ {
				dense.Set(x, y, img.At(b.Min.X+x, b.Min.Y+y))
			}
		}
		rgba = dense
	}
	return CapturedFrame{
		Pixels:     rgba.Pix,
		CapturedAt: capturedAt,
		Width:      b.Dx(),
		Height:     b.Dy(),
	}
}

// =============================================================================
// Queue Types
// =============================================================================

// ChromaOrder selects the byte order of the interleaved chroma plane.
type ChromaOrder int

const (
	// ChromaVU writes V before U (NV21).
	ChromaVU ChromaOrder = iota
	// ChromaUV writes U before V (NV12).
	ChromaUV
)

// String returns the conventional name of the layout.
func (o ChromaOrder) String() string {
	switch o {
	case ChromaVU:
		return "nv21"
	case ChromaUV:
		return "nv12"
	default:
		return "unknown"
	}
}

// ParseChromaOrder parses "nv21" or "nv12".
func ParseChromaOrder(s string) (ChromaOrder, error) {
	switch s {
	case "", "nv21":
		return ChromaVU, nil
	case "nv12":
		return ChromaUV, nil
	default:
		return ChromaVU, fmt.Errorf("unknown chroma order: %q", s)
	}
}

// QueueEntry is a converted, stabilized frame ready for consumers.
type QueueEntry struct {
	// Data holds the luma plane followed by the interleaved chroma plane.
	Data       []byte
	CapturedAt time.Time
	Width      int
	Height     int
	Layout     ChromaOrder

	// Color is the dominant color of the frame, zero until sampled.
	Color   RGB
	Sampled bool
}

// Age returns how old the entry is relative to now.
func (e QueueEntry) Age(now time.Time) time.Duration {
	return now.Sub(e.CapturedAt)
}

// =============================================================================
// Color Types
// =============================================================================

// RGB is an opaque 8-bit color.
type RGB struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// NeutralGray is the fallback color when nothing can be sampled.
var NeutralGray = RGB{R: 136, G: 136, B: 136}

// Hex returns the color as #rrggbb.
func (c RGB) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// Luminance returns the relative luminance in [0, 1] using Rec. 601 weights.
func (c RGB) Luminance() float64 {
	return (0.299*float64(c.R) + 0.587*float64(c.G) + 0.114*float64(c.B)) / 255
}

// =============================================================================
// Signal Types
// =============================================================================

// ScrollSignal tells the pipeline that on-screen content is moving.
type ScrollSignal struct {
	SourceID  string
	Timestamp time.Time
	Delta     int
}

// PreviewInput is the input of the overlay preview stage.
type PreviewInput struct {
	Frame *image.RGBA
	Entry QueueEntry
}
