package mocks

import (
	"fmt"
	"image"
	"image/color"
	"sync"

	"github.com/user/screensettle/pkg/ports"
)

// Renderer is a mock implementation of ports.Renderer.
// Canvases it creates record their draw calls.
type Renderer struct {
	CreateCanvasFunc func(width, height int, bg color.Color) ports.Canvas
	DecodeImageFunc  func(data []byte, format ports.ImageFormat) (image.Image, error)
	EncodeImageFunc  func(img image.Image, format ports.ImageFormat, quality int) ([]byte, error)
	ResizeImageFunc  func(img image.Image, width, height int) image.Image

	mu       sync.Mutex
	canvases []*Canvas
}

func (m *Renderer) CreateCanvas(width, height int, bg color.Color) ports.Canvas {
	if m.CreateCanvasFunc != nil {
		return m.CreateCanvasFunc(width, height, bg)
	}
	c := &Canvas{Width: width, Height: height, Background: bg}
	m.mu.Lock()
	m.canvases = append(m.canvases, c)
	m.mu.Unlock()
	return c
}

func (m *Renderer) DecodeImage(data []byte, format ports.ImageFormat) (image.Image, error) {
	if m.DecodeImageFunc != nil {
		return m.DecodeImageFunc(data, format)
	}
	return image.NewRGBA(image.Rect(0, 0, 100, 100)), nil
}

func (m *Renderer) EncodeImage(img image.Image, format ports.ImageFormat, quality int) ([]byte, error) {
	if m.EncodeImageFunc != nil {
		return m.EncodeImageFunc(img, format, quality)
	}
	return []byte{}, nil
}

func (m *Renderer) ResizeImage(img image.Image, width, height int) image.Image {
	if m.ResizeImageFunc != nil {
		return m.ResizeImageFunc(img, width, height)
	}
	return image.NewRGBA(image.Rect(0, 0, width, height))
}

// Canvases returns the canvases created so far.
func (m *Renderer) Canvases() []*Canvas {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*Canvas(nil), m.canvases...)
}

var _ ports.Renderer = (*Renderer)(nil)

// Canvas is a mock implementation of ports.Canvas.
type Canvas struct {
	Width      int
	Height     int
	Background color.Color

	// Ops lists the draw calls in order, e.g. "rect 0,0 10x10".
	Ops []string
	// Texts lists the strings passed to DrawText with their styles.
	Texts []DrawnText
}

// DrawnText is one recorded DrawText call.
type DrawnText struct {
	Text  string
	X, Y  int
	Style ports.TextStyle
}

func (m *Canvas) DrawImageScaled(img image.Image, x, y, width, height int) {
	m.Ops = append(m.Ops, fmt.Sprintf("image %d,%d %dx%d", x, y, width, height))
}

func (m *Canvas) DrawRect(x, y, w, h int, c color.Color) {
	m.Ops = append(m.Ops, fmt.Sprintf("rect %d,%d %dx%d", x, y, w, h))
}

func (m *Canvas) DrawRoundedRect(x, y, w, h, radius int, c color.Color) {
	r, g, b, _ := c.RGBA()
	m.Ops = append(m.Ops, fmt.Sprintf("rounded %d,%d %dx%d #%02X%02X%02X", x, y, w, h, r>>8, g>>8, b>>8))
}

func (m *Canvas) DrawRectStroke(x, y, w, h int, c color.Color, strokeWidth float64) {
	m.Ops = append(m.Ops, fmt.Sprintf("stroke %d,%d %dx%d", x, y, w, h))
}

func (m *Canvas) DrawText(text string, x, y int, style ports.TextStyle) {
	m.Ops = append(m.Ops, "text "+text)
	m.Texts = append(m.Texts, DrawnText{Text: text, X: x, Y: y, Style: style})
}

func (m *Canvas) ToImage() image.Image {
	return image.NewRGBA(image.Rect(0, 0, m.Width, m.Height))
}

var _ ports.Canvas = (*Canvas)(nil)
