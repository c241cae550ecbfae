package convert

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/user/screensettle/pkg/adapters/logger"
	"github.com/user/screensettle/pkg/pipeline"
)

type px struct{ r, g, b byte }

func frameOf(w, h int, pixels ...px) pipeline.CapturedFrame {
	buf := make([]byte, 0, w*h*4)
	for _, p := range pixels {
		buf = append(buf, p.r, p.g, p.b, 255)
	}
	return pipeline.CapturedFrame{Pixels: buf, Width: w, Height: h}
}

var (
	black = px{0, 0, 0}
	white = px{255, 255, 255}
	red   = px{255, 0, 0}
	blue  = px{0, 0, 255}
)

func TestConvert_BlackFrame(t *testing.T) {
	out, err := Convert(frameOf(2, 2, black, black, black, black), Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := []byte{16, 16, 16, 16, 128, 128}
	if !bytes.Equal(out, expected) {
		t.Errorf("expected %v, got %v", expected, out)
	}
}

func TestConvert_KnownColors(t *testing.T) {
	tests := []struct {
		name     string
		pixel    px
		opts     Options
		expected []byte
	}{
		{"white", white, Options{}, []byte{235, 128, 128}},
		{"red nv21", red, Options{}, []byte{82, 239, 90}},
		{"red nv12", red, Options{Order: pipeline.ChromaUV}, []byte{82, 90, 239}},
		{"red biased", red, Options{Rounding: BiasedShift}, []byte{82, 240, 90}},
		{"blue nv21", blue, Options{}, []byte{41, 110, 239}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Convert(frameOf(1, 1, tt.pixel), tt.opts)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !bytes.Equal(out, tt.expected) {
				t.Errorf("expected %v, got %v", tt.expected, out)
			}
		})
	}
}

func TestConvert_EdgeBlockAveragesInBoundsPixels(t *testing.T) {
	// The trailing block holds a single blue pixel and must not be diluted.
	out, err := Convert(frameOf(3, 1, red, red, blue), Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := []byte{82, 82, 41, 239, 90, 110, 239}
	if !bytes.Equal(out, expected) {
		t.Errorf("expected %v, got %v", expected, out)
	}
}

func TestConvert_OutputSize(t *testing.T) {
	tests := []struct {
		w, h     int
		expected int
	}{
		{2, 2, 6},
		{3, 3, 17},
		{1, 1, 3},
		{4, 3, 20},
		{1920, 1080, 1920*1080 + 1920*1080/2},
	}

	for _, tt := range tests {
		if got := OutputSize(tt.w, tt.h); got != tt.expected {
			t.Errorf("OutputSize(%d, %d): expected %d, got %d", tt.w, tt.h, tt.expected, got)
		}
	}

	pixels := make([]px, 9)
	out, err := Convert(frameOf(3, 3, pixels...), Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 17 {
		t.Errorf("expected 17 bytes for 3x3, got %d", len(out))
	}
}

func TestConvert_RowStrideIndependence(t *testing.T) {
	dense := frameOf(4, 2,
		red, white, blue, black,
		px{10, 20, 30}, px{200, 100, 50}, px{7, 7, 7}, px{90, 180, 45},
	)

	rowStride := 24
	padded := pipeline.CapturedFrame{
		Pixels:    bytes.Repeat([]byte{0xAB}, rowStride*2),
		Width:     4,
		Height:    2,
		RowStride: rowStride,
	}
	for y := 0; y < 2; y++ {
		copy(padded.Pixels[y*rowStride:], dense.Pixels[y*16:(y+1)*16])
	}

	want, err := Convert(dense, Options{})
	if err != nil {
		t.Fatalf("dense: unexpected error: %v", err)
	}
	got, err := Convert(padded, Options{})
	if err != nil {
		t.Fatalf("padded: unexpected error: %v", err)
	}
	if !bytes.Equal(want, got) {
		t.Errorf("expected padded output %v to equal dense output %v", got, want)
	}
}

func TestConvert_Errors(t *testing.T) {
	tests := []struct {
		name  string
		frame pipeline.CapturedFrame
	}{
		{"short buffer", pipeline.CapturedFrame{Pixels: make([]byte, 15), Width: 2, Height: 2}},
		{"zero width", pipeline.CapturedFrame{Pixels: make([]byte, 16), Width: 0, Height: 2}},
		{"row stride too small", pipeline.CapturedFrame{Pixels: make([]byte, 64), Width: 4, Height: 2, RowStride: 8}},
		{"pixel stride too small", pipeline.CapturedFrame{Pixels: make([]byte, 64), Width: 2, Height: 2, PixelStride: 2, RowStride: 8}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Convert(tt.frame, Options{})
			if !errors.Is(err, ErrConversionFailed) {
				t.Errorf("expected ErrConversionFailed, got %v", err)
			}
		})
	}
}

func TestParseRounding(t *testing.T) {
	if r, err := ParseRounding("biased"); err != nil || r != BiasedShift {
		t.Errorf("expected biased, got %v (%v)", r, err)
	}
	if r, err := ParseRounding(""); err != nil || r != ShiftThenOffset {
		t.Errorf("expected shift default, got %v (%v)", r, err)
	}
	if _, err := ParseRounding("round"); err == nil {
		t.Error("expected error for unknown rounding")
	}
}

func TestStage_Execute(t *testing.T) {
	stage := NewStage(Options{}, logger.NewNoop())

	at := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	frame := frameOf(2, 2, black, black, black, black)
	frame.CapturedAt = at

	entry, err := stage.Execute(context.Background(), frame)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !entry.CapturedAt.Equal(at) {
		t.Errorf("expected capture time to be preserved, got %v", entry.CapturedAt)
	}
	if entry.Width != 2 || entry.Height != 2 {
		t.Errorf("expected 2x2, got %dx%d", entry.Width, entry.Height)
	}
	if entry.Layout != pipeline.ChromaVU {
		t.Errorf("expected nv21 layout, got %s", entry.Layout)
	}
	if len(entry.Data) != 6 {
		t.Errorf("expected 6 bytes, got %d", len(entry.Data))
	}
}

func TestStage_Execute_Error(t *testing.T) {
	stage := NewStage(Options{}, logger.NewNoop())

	_, err := stage.Execute(context.Background(), pipeline.CapturedFrame{Width: 2, Height: 2})
	if !errors.Is(err, ErrConversionFailed) {
		t.Errorf("expected ErrConversionFailed, got %v", err)
	}
}
