// Package colorsample estimates the dominant color of a frame from a fixed,
// center-weighted constellation of sample points.
package colorsample

import (
	"context"
	"math"

	"github.com/user/screensettle/pkg/pipeline"
	"github.com/user/screensettle/pkg/ports"
)

// Sample positions as fractions of each axis. Edges are excluded.
var fractions = [...]float64{1.0 / 16, 1.0 / 8, 1.0 / 4, 3.0 / 8, 1.0 / 2, 5.0 / 8, 3.0 / 4, 7.0 / 8, 15.0 / 16}

// Per-axis weights; a point's weight is the product of its column and row weight.
var axisWeights = [...]float64{1.0, 1.1, 1.2, 1.3, 1.5, 1.3, 1.2, 1.1, 1.0}

// PixelReader returns the color at (x, y), or false if it cannot be read.
type PixelReader func(x, y int) (pipeline.RGB, bool)

// DominantColor returns the weighted mean color of the sample points.
// With no readable sample it returns pipeline.NeutralGray.
func DominantColor(width, height int, read PixelReader) pipeline.RGB {
	if width <= 0 || height <= 0 || read == nil {
		return pipeline.NeutralGray
	}

	var sumR, sumG, sumB, sumW float64
	for yi, fy := range fractions {
		y := clampInt(int(fy*float64(height)), 0, height-1)
		for xi, fx := range fractions {
			x := clampInt(int(fx*float64(width)), 0, width-1)
			c, ok := read(x, y)
			if !ok {
				continue
			}
			w := axisWeights[xi] * axisWeights[yi]
			sumR += w * float64(c.R)
			sumG += w * float64(c.G)
			sumB += w * float64(c.B)
			sumW += w
		}
	}

	if sumW == 0 {
		return pipeline.NeutralGray
	}
	return pipeline.RGB{
		R: clampByte(sumR / sumW),
		G: clampByte(sumG / sumW),
		B: clampByte(sumB / sumW),
	}
}

// FrameReader reads pixels from an interleaved RGBA frame.
func FrameReader(frame pipeline.CapturedFrame) PixelReader {
	return func(x, y int) (pipeline.RGB, bool) {
		if x < 0 || y < 0 || x >= frame.Width || y >= frame.Height {
			return pipeline.RGB{}, false
		}
		i := frame.Offset(x, y)
		if i+2 >= len(frame.Pixels) {
			return pipeline.RGB{}, false
		}
		return pipeline.RGB{R: frame.Pixels[i], G: frame.Pixels[i+1], B: frame.Pixels[i+2]}, true
	}
}

// YUVReader reads pixels from a converted luma + interleaved chroma buffer.
func YUVReader(data []byte, width, height int, order pipeline.ChromaOrder) PixelReader {
	chromaStride := 2 * ((width + 1) / 2)
	lumaSize := width * height
	return func(x, y int) (pipeline.RGB, bool) {
		if x < 0 || y < 0 || x >= width || y >= height {
			return pipeline.RGB{}, false
		}
		yi := y*width + x
		ci := lumaSize + (y/2)*chromaStride + (x/2)*2
		if yi >= len(data) || ci+1 >= len(data) {
			return pipeline.RGB{}, false
		}

		v, u := data[ci], data[ci+1]
		if order == pipeline.ChromaUV {
			u, v = v, u
		}
		return yuvToRGB(data[yi], u, v), true
	}
}

// EntryReader reads pixels from a queue entry's converted buffer.
func EntryReader(entry pipeline.QueueEntry) PixelReader {
	return YUVReader(entry.Data, entry.Width, entry.Height, entry.Layout)
}

func yuvToRGB(yy, u, v byte) pipeline.RGB {
	y := (float64(yy) - 16) * 1.164
	cu := float64(u) - 128
	cv := float64(v) - 128
	return pipeline.RGB{
		R: clampByte(y + 1.596*cv),
		G: clampByte(y - 0.392*cu - 0.813*cv),
		B: clampByte(y + 2.017*cu),
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampByte(v float64) uint8 {
	v = math.Round(v)
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

// Stage fills in the dominant color of a converted queue entry.
type Stage struct {
	logger ports.Logger
}

// NewStage creates a new color sampling stage.
func NewStage(logger ports.Logger) *Stage {
	return &Stage{logger: logger.WithComponent("colorsample")}
}

// Execute implements pipeline.Stage.
func (s *Stage) Execute(ctx context.Context, entry pipeline.QueueEntry) (pipeline.QueueEntry, error) {
	if err := ctx.Err(); err != nil {
		return entry, err
	}
	entry.Color = DominantColor(entry.Width, entry.Height, EntryReader(entry))
	entry.Sampled = true
	s.logger.Debug("Dominant color %s", entry.Color.Hex())
	return entry, nil
}

// Ensure Stage implements pipeline.Stage
var _ pipeline.Stage[pipeline.QueueEntry, pipeline.QueueEntry] = (*Stage)(nil)
