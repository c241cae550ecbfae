// Package convert provides the pixel conversion stage.
//
// Interleaved RGBA frames are converted into a full-resolution luma plane
// followed by an interleaved, 2x2-subsampled chroma plane (NV21 by default).
package convert

import (
	"context"
	"errors"
	"fmt"

	"github.com/user/screensettle/pkg/pipeline"
	"github.com/user/screensettle/pkg/ports"
)

// ErrConversionFailed is returned when a frame's buffer or geometry is unusable.
var ErrConversionFailed = errors.New("convert: conversion failed")

// Rounding selects how the chroma term is rounded.
type Rounding int

const (
	// ShiftThenOffset computes 128 + (x >> 8).
	ShiftThenOffset Rounding = iota
	// BiasedShift computes ((x + 128) >> 8) + 128.
	BiasedShift
)

// String returns the configuration name of the rounding mode.
func (r Rounding) String() string {
	switch r {
	case ShiftThenOffset:
		return "shift"
	case BiasedShift:
		return "biased"
	default:
		return "unknown"
	}
}

// ParseRounding parses "shift" or "biased".
func ParseRounding(s string) (Rounding, error) {
	switch s {
	case "", "shift":
		return ShiftThenOffset, nil
	case "biased":
		return BiasedShift, nil
	default:
		return ShiftThenOffset, fmt.Errorf("unknown chroma rounding: %q", s)
	}
}

// Options configures the output layout.
type Options struct {
	Order    pipeline.ChromaOrder
	Rounding Rounding
}

// OutputSize returns the converted buffer size for the given dimensions.
func OutputSize(width, height int) int {
	return width*height + 2*((height+1)/2)*((width+1)/2)
}

// Convert converts an interleaved RGBA frame into a planar luma + interleaved
// chroma buffer. Pixels are addressed through the frame's strides, so padded
// rows produce the same output as dense ones.
func Convert(frame pipeline.CapturedFrame, opts Options) ([]byte, error) {
	w, h := frame.Width, frame.Height
	rowStride, pixelStride := frame.Strides()

	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("%w: invalid dimensions %dx%d", ErrConversionFailed, w, h)
	}
	if pixelStride < 3 {
		return nil, fmt.Errorf("%w: pixel stride %d too small", ErrConversionFailed, pixelStride)
	}
	if rowStride < w*pixelStride {
		return nil, fmt.Errorf("%w: row stride %d shorter than row of %d pixels", ErrConversionFailed, rowStride, w)
	}
	if len(frame.Pixels) < rowStride*h {
		return nil, fmt.Errorf("%w: buffer has %d bytes, need %d", ErrConversionFailed, len(frame.Pixels), rowStride*h)
	}

	out := make([]byte, OutputSize(w, h))
	pix := frame.Pixels

	// Luma plane.
	yi := 0
	for row := 0; row < h; row++ {
		base := row * rowStride
		for col := 0; col < w; col++ {
			i := base + col*pixelStride
			r, g, b := int(pix[i]), int(pix[i+1]), int(pix[i+2])
			out[yi] = clamp(((66*r + 129*g + 25*b + 128) >> 8) + 16)
			yi++
		}
	}

	// Chroma plane, one pair per 2x2 block.
	ci := w * h
	for row := 0; row < h; row += 2 {
		for col := 0; col < w; col += 2 {
			var sumR, sumG, sumB, n int
			for dy := 0; dy < 2 && row+dy < h; dy++ {
				for dx := 0; dx < 2 && col+dx < w; dx++ {
					i := (row+dy)*rowStride + (col+dx)*pixelStride
					sumR += int(pix[i])
					sumG += int(pix[i+1])
					sumB += int(pix[i+2])
					n++
				}
			}
			r, g, b := sumR/n, sumG/n, sumB/n

			v := chroma(112*r-94*g-18*b, opts.Rounding)
			u := chroma(-38*r-74*g+112*b, opts.Rounding)
			if opts.Order == pipeline.ChromaUV {
				out[ci], out[ci+1] = u, v
			} else {
				out[ci], out[ci+1] = v, u
			}
			ci += 2
		}
	}

	return out, nil
}

func chroma(x int, rounding Rounding) byte {
	if rounding == BiasedShift {
		return clamp(((x + 128) >> 8) + 128)
	}
	return clamp(128 + (x >> 8))
}

func clamp(v int) byte {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return byte(v)
}

// Stage converts settled frames into queue entries.
type Stage struct {
	opts   Options
	logger ports.Logger
}

// NewStage creates a new conversion stage.
func NewStage(opts Options, logger ports.Logger) *Stage {
	return &Stage{
		opts:   opts,
		logger: logger.WithComponent("convert"),
	}
}

// Execute implements pipeline.Stage.
func (s *Stage) Execute(ctx context.Context, frame pipeline.CapturedFrame) (pipeline.QueueEntry, error) {
	if err := ctx.Err(); err != nil {
		return pipeline.QueueEntry{}, err
	}

	data, err := Convert(frame, s.opts)
	if err != nil {
		return pipeline.QueueEntry{}, err
	}

	s.logger.Debug("Converted %dx%d frame to %s (%d bytes)", frame.Width, frame.Height, s.opts.Order, len(data))

	return pipeline.QueueEntry{
		Data:       data,
		CapturedAt: frame.CapturedAt,
		Width:      frame.Width,
		Height:     frame.Height,
		Layout:     s.opts.Order,
	}, nil
}

// Ensure Stage implements pipeline.Stage
var _ pipeline.Stage[pipeline.CapturedFrame, pipeline.QueueEntry] = (*Stage)(nil)
