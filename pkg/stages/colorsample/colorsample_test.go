package colorsample

import (
	"context"
	"testing"

	"github.com/user/screensettle/pkg/adapters/logger"
	"github.com/user/screensettle/pkg/pipeline"
	"github.com/user/screensettle/pkg/stages/convert"
)

func solid(w, h int, c pipeline.RGB) pipeline.CapturedFrame {
	pix := make([]byte, w*h*4)
	for i := 0; i < len(pix); i += 4 {
		pix[i], pix[i+1], pix[i+2], pix[i+3] = c.R, c.G, c.B, 255
	}
	return pipeline.CapturedFrame{Pixels: pix, Width: w, Height: h}
}

func near(a, b pipeline.RGB, tolerance int) bool {
	d := func(x, y uint8) int {
		if x > y {
			return int(x - y)
		}
		return int(y - x)
	}
	return d(a.R, b.R) <= tolerance && d(a.G, b.G) <= tolerance && d(a.B, b.B) <= tolerance
}

func TestDominantColor_Uniform(t *testing.T) {
	c := pipeline.RGB{R: 12, G: 200, B: 99}
	got := DominantColor(64, 48, FrameReader(solid(64, 48, c)))
	if got != c {
		t.Errorf("expected %v, got %v", c, got)
	}
}

func TestDominantColor_NoSamples(t *testing.T) {
	none := func(x, y int) (pipeline.RGB, bool) { return pipeline.RGB{}, false }

	if got := DominantColor(64, 48, none); got != pipeline.NeutralGray {
		t.Errorf("expected neutral gray, got %v", got)
	}
	if got := DominantColor(0, 0, none); got != pipeline.NeutralGray {
		t.Errorf("expected neutral gray for empty image, got %v", got)
	}
}

func TestDominantColor_SkipsUnreadablePoints(t *testing.T) {
	c := pipeline.RGB{R: 40, G: 50, B: 60}
	leftOnly := func(x, y int) (pipeline.RGB, bool) {
		if x >= 32 {
			return pipeline.RGB{R: 255, G: 255, B: 255}, false
		}
		return c, true
	}

	if got := DominantColor(64, 64, leftOnly); got != c {
		t.Errorf("expected %v, got %v", c, got)
	}
}

func TestDominantColor_CenterWeighted(t *testing.T) {
	// White center column against a black background pulls the mean above
	// the unweighted share of one ninth.
	reader := func(x, y int) (pipeline.RGB, bool) {
		if x == 32 {
			return pipeline.RGB{R: 255, G: 255, B: 255}, true
		}
		return pipeline.RGB{}, true
	}

	got := DominantColor(64, 64, reader)
	unweighted := 255 / 9
	if int(got.R) <= unweighted {
		t.Errorf("expected center weighting above %d, got %d", unweighted, got.R)
	}
	// Center column weight 1.5 out of a total of 10.7.
	if got.R != 36 {
		t.Errorf("expected 36, got %d", got.R)
	}
}

func TestDominantColor_TinyImage(t *testing.T) {
	c := pipeline.RGB{R: 1, G: 2, B: 3}
	if got := DominantColor(1, 1, FrameReader(solid(1, 1, c))); got != c {
		t.Errorf("expected %v, got %v", c, got)
	}
}

func TestYUVReader_RoundTrip(t *testing.T) {
	tests := []struct {
		name string
		c    pipeline.RGB
	}{
		{"black", pipeline.RGB{}},
		{"white", pipeline.RGB{R: 255, G: 255, B: 255}},
		{"red", pipeline.RGB{R: 255}},
		{"teal", pipeline.RGB{R: 0, G: 128, B: 128}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, order := range []pipeline.ChromaOrder{pipeline.ChromaVU, pipeline.ChromaUV} {
				data, err := convert.Convert(solid(6, 4, tt.c), convert.Options{Order: order})
				if err != nil {
					t.Fatalf("convert: %v", err)
				}
				got := DominantColor(6, 4, YUVReader(data, 6, 4, order))
				if !near(got, tt.c, 4) {
					t.Errorf("%s: expected about %v, got %v", order, tt.c, got)
				}
			}
		})
	}
}

func TestYUVReader_ShortBuffer(t *testing.T) {
	read := YUVReader(make([]byte, 4), 4, 4, pipeline.ChromaVU)
	if _, ok := read(3, 3); ok {
		t.Error("expected read past the buffer to fail")
	}
}

func TestStage_Execute(t *testing.T) {
	data, err := convert.Convert(solid(8, 8, pipeline.RGB{R: 255}), convert.Options{})
	if err != nil {
		t.Fatalf("convert: %v", err)
	}

	stage := NewStage(logger.NewNoop())
	entry, err := stage.Execute(context.Background(), pipeline.QueueEntry{Data: data, Width: 8, Height: 8})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !entry.Sampled {
		t.Error("expected entry to be marked sampled")
	}
	if !near(entry.Color, pipeline.RGB{R: 255}, 4) {
		t.Errorf("expected about red, got %v", entry.Color)
	}
}
