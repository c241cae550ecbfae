package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/ideamans/go-l10n"
	"github.com/urfave/cli/v2"

	"github.com/user/screensettle/pkg/adapters/ggrenderer"
	"github.com/user/screensettle/pkg/adapters/osfilesystem"
	"github.com/user/screensettle/pkg/pipeline"
	"github.com/user/screensettle/pkg/ports"
	"github.com/user/screensettle/pkg/stages/colorsample"
	"github.com/user/screensettle/pkg/stages/convert"
)

// ErrOutputExists is returned when the output file exists and overwriting
// was not requested.
var ErrOutputExists = errors.New("output file already exists")

// convertJob describes a single still image conversion.
type convertJob struct {
	Input  string
	Output string
	// Width scales the image before conversion, keeping the aspect ratio.
	// Zero keeps the original size.
	Width   int
	Force   bool
	Options convert.Options
}

// ConvertResult describes a converted still image.
type ConvertResult struct {
	Input  string `json:"input"`
	Output string `json:"output"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Layout string `json:"layout"`
	Bytes  int    `json:"bytes"`
	Color  string `json:"color"`
}

func convertCommand() *cli.Command {
	flags := []cli.Flag{
		&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: l10n.T("Output file path (default: input name with .yuv)")},
		&cli.StringFlag{Name: "chroma-order", Value: "nv21", Usage: l10n.T("Chroma layout (nv21, nv12)"), Category: l10n.T(catConvert)},
		&cli.StringFlag{Name: "rounding", Value: "shift", Usage: l10n.T("Chroma rounding (shift, biased)"), Category: l10n.T(catConvert)},
		&cli.IntFlag{Name: "width", Aliases: []string{"w"}, Usage: l10n.T("Scale the image to this width before converting")},
		&cli.BoolFlag{Name: "force", Aliases: []string{"f"}, Usage: l10n.T("Overwrite an existing output file")},
		&cli.BoolFlag{Name: "json", Usage: l10n.T("Print the result as JSON")},
	}

	return &cli.Command{
		Name:      "convert",
		Usage:     l10n.T("Convert a still image to planar YUV"),
		UsageText: "screensettle convert [options] <image>",
		Flags:     append(flags, loggingFlags()...),
		Action:    runConvert,
	}
}

func runConvert(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit(l10n.T("exactly one input image is required"), 2)
	}
	input := c.Args().First()
	output := c.String("output")
	if output == "" {
		output = strings.TrimSuffix(input, filepath.Ext(input)) + ".yuv"
	}

	order, err := pipeline.ParseChromaOrder(c.String("chroma-order"))
	if err != nil {
		return err
	}
	rounding, err := convert.ParseRounding(c.String("rounding"))
	if err != nil {
		return err
	}

	if c.Int("width") < 0 {
		return fmt.Errorf("width must not be negative, got %d", c.Int("width"))
	}

	job := convertJob{
		Input:   input,
		Output:  output,
		Width:   c.Int("width"),
		Force:   c.Bool("force"),
		Options: convert.Options{Order: order, Rounding: rounding},
	}
	result, err := convertFile(c.Context, job, osfilesystem.New(), ggrenderer.New(), newLogger(c, ""))
	if err != nil {
		return err
	}

	if c.Bool("json") {
		enc := json.NewEncoder(c.App.Writer)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	fmt.Fprintln(c.App.Writer, l10n.F("Converted %s (%dx%d) to %s", result.Input, result.Width, result.Height, result.Output))
	fmt.Fprintln(c.App.Writer, l10n.F("Layout: %s, %d bytes, dominant color %s", result.Layout, result.Bytes, result.Color))
	return nil
}

// convertFile runs a single image through the same stages as a settled frame.
func convertFile(ctx context.Context, job convertJob, fs ports.FileSystem, renderer ports.Renderer, log ports.Logger) (ConvertResult, error) {
	if !job.Force {
		exists, err := fs.Exists(job.Output)
		if err != nil {
			return ConvertResult{}, err
		}
		if exists {
			return ConvertResult{}, fmt.Errorf("%w: %s", ErrOutputExists, job.Output)
		}
	}

	data, err := fs.ReadFile(job.Input)
	if err != nil {
		return ConvertResult{}, fmt.Errorf("read %s: %w", job.Input, err)
	}
	img, err := renderer.DecodeImage(data, ports.FormatAuto)
	if err != nil {
		return ConvertResult{}, fmt.Errorf("decode %s: %w", job.Input, err)
	}
	if b := img.Bounds(); job.Width > 0 && job.Width != b.Dx() {
		h := b.Dy() * job.Width / b.Dx()
		if h < 1 {
			h = 1
		}
		img = renderer.ResizeImage(img, job.Width, h)
	}

	process := pipeline.Then[pipeline.CapturedFrame, pipeline.QueueEntry, pipeline.QueueEntry](
		convert.NewStage(job.Options, log),
		colorsample.NewStage(log),
	)
	entry, err := process.Execute(ctx, pipeline.FrameFromImage(img, time.Now()))
	if err != nil {
		return ConvertResult{}, err
	}

	if err := fs.WriteFile(job.Output, entry.Data); err != nil {
		return ConvertResult{}, fmt.Errorf("write %s: %w", job.Output, err)
	}

	return ConvertResult{
		Input:  job.Input,
		Output: job.Output,
		Width:  entry.Width,
		Height: entry.Height,
		Layout: entry.Layout.String(),
		Bytes:  len(entry.Data),
		Color:  entry.Color.Hex(),
	}, nil
}
