// Package preview renders a settled frame with its dominant color swatch.
package preview

import (
	"context"
	"errors"
	"image"
	"image/color"
	"strings"

	"github.com/user/screensettle/pkg/pipeline"
	"github.com/user/screensettle/pkg/ports"
)

// Layout constants in output pixels.
const (
	DefaultMaxWidth = 480
	bandHeight      = 64
	bandPadding     = 8
	swatchRadius    = 8
	fontSize        = 20
)

// ErrNoFrame is returned when the input carries no image.
var ErrNoFrame = errors.New("preview: no frame to render")

// Theme controls the preview colors.
type Theme struct {
	Background color.Color
	Border     color.Color
	FontPath   string
}

// DefaultTheme returns the default preview theme.
func DefaultTheme() Theme {
	return Theme{
		Background: color.RGBA{R: 0x1a, G: 0x1a, B: 0x2e, A: 255},
		Border:     color.RGBA{R: 0x44, G: 0x44, B: 0x55, A: 255},
	}
}

// Stage renders overlay previews.
type Stage struct {
	renderer ports.Renderer
	theme    Theme
	maxWidth int
	logger   ports.Logger
}

// NewStage creates a new preview stage. maxWidth <= 0 uses DefaultMaxWidth.
func NewStage(renderer ports.Renderer, theme Theme, maxWidth int, logger ports.Logger) *Stage {
	if maxWidth <= 0 {
		maxWidth = DefaultMaxWidth
	}
	if theme.Background == nil {
		theme.Background = DefaultTheme().Background
	}
	if theme.Border == nil {
		theme.Border = DefaultTheme().Border
	}
	return &Stage{
		renderer: renderer,
		theme:    theme,
		maxWidth: maxWidth,
		logger:   logger.WithComponent("preview"),
	}
}

// Execute draws the frame scaled to fit the preview width with a band
// underneath holding the dominant color swatch and its hex value.
func (s *Stage) Execute(ctx context.Context, input pipeline.PreviewInput) (image.Image, error) {
	if input.Frame == nil || input.Frame.Bounds().Empty() {
		return nil, ErrNoFrame
	}

	fw, fh := scaledSize(input.Frame.Bounds().Dx(), input.Frame.Bounds().Dy(), s.maxWidth)
	canvas := s.renderer.CreateCanvas(fw, fh+bandHeight, s.theme.Background)

	canvas.DrawImageScaled(input.Frame, 0, 0, fw, fh)
	canvas.DrawRectStroke(0, 0, fw, fh, s.theme.Border, 1)

	swatch := input.Entry.Color
	if !input.Entry.Sampled {
		swatch = pipeline.NeutralGray
	}
	sx, sy := bandPadding, fh+bandPadding
	sw, sh := fw-2*bandPadding, bandHeight-2*bandPadding
	canvas.DrawRoundedRect(sx, sy, sw, sh, swatchRadius, color.RGBA{R: swatch.R, G: swatch.G, B: swatch.B, A: 255})

	label := strings.ToUpper(swatch.Hex())
	if input.Entry.Sampled {
		label += "  " + input.Entry.Layout.String()
	}
	canvas.DrawText(label, fw/2, sy+sh/2, ports.TextStyle{
		FontSize: fontSize,
		FontPath: s.theme.FontPath,
		Color:    ContrastColor(swatch),
		Align:    ports.AlignCenter,
	})

	s.logger.Debug("Rendered %dx%d preview", fw, fh+bandHeight)
	return canvas.ToImage(), nil
}

// ContrastColor returns black on light colors and white on dark ones.
func ContrastColor(c pipeline.RGB) color.Color {
	if c.Luminance() > 0.5 {
		return color.Black
	}
	return color.White
}

// scaledSize fits w x h into maxWidth, keeping the aspect ratio.
func scaledSize(w, h, maxWidth int) (int, int) {
	if w <= maxWidth {
		return w, h
	}
	sh := h * maxWidth / w
	if sh < 1 {
		sh = 1
	}
	return maxWidth, sh
}

var _ pipeline.Stage[pipeline.PreviewInput, image.Image] = (*Stage)(nil)
