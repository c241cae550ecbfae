package main

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"os/signal"
	"syscall"

	"github.com/ideamans/go-l10n"
	"github.com/urfave/cli/v2"

	"github.com/user/screensettle/pkg/adapters/chromesource"
	"github.com/user/screensettle/pkg/adapters/dirsource"
	"github.com/user/screensettle/pkg/adapters/filesink"
	"github.com/user/screensettle/pkg/adapters/ggrenderer"
	"github.com/user/screensettle/pkg/adapters/nullsink"
	"github.com/user/screensettle/pkg/adapters/osfilesystem"
	"github.com/user/screensettle/pkg/adapters/screensource"
	"github.com/user/screensettle/pkg/adapters/systemclock"
	"github.com/user/screensettle/pkg/adapters/wsserver"
	"github.com/user/screensettle/pkg/capture"
	"github.com/user/screensettle/pkg/config"
	"github.com/user/screensettle/pkg/pipeline"
	"github.com/user/screensettle/pkg/ports"
	"github.com/user/screensettle/pkg/stages/colorsample"
	"github.com/user/screensettle/pkg/stages/convert"
	"github.com/user/screensettle/pkg/stages/preview"
	"github.com/user/screensettle/pkg/summarizer"
)

func watchCommand() *cli.Command {
	flags := []cli.Flag{
		&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: l10n.T("Configuration file (.yaml or .ini)")},

		&cli.StringFlag{Name: "source", Aliases: []string{"s"}, Usage: l10n.T("Frame source (screen, chrome, dir)"), Category: l10n.T(catSource)},
		&cli.StringFlag{Name: "url", Usage: l10n.T("Page to screencast with the chrome source"), Category: l10n.T(catSource)},
		&cli.StringFlag{Name: "watch-dir", Usage: l10n.T("Directory watched by the dir source"), Category: l10n.T(catSource)},
		&cli.StringFlag{Name: "region", Usage: l10n.T("Screen region as x,y,w,h (default: full screen)"), Category: l10n.T(catSource)},
		&cli.Float64Flag{Name: "fps", Usage: l10n.T("Screen polling rate"), Category: l10n.T(catSource)},
		&cli.StringFlag{Name: "chrome-path", Usage: l10n.T("Path to Chrome executable (falls back to CHROME_PATH env, then system default)"), Category: l10n.T(catSource)},
		&cli.BoolFlag{Name: "no-headless", Usage: l10n.T("Show the Chrome window"), Category: l10n.T(catSource)},

		&cli.IntFlag{Name: "delay", Usage: l10n.T("Stabilization delay in milliseconds"), Category: l10n.T(catCapture)},
		&cli.IntFlag{Name: "queue", Usage: l10n.T("Settled frames kept for consumers"), Category: l10n.T(catCapture)},
		&cli.IntFlag{Name: "max-age", Usage: l10n.T("Default maximum frame age in milliseconds"), Category: l10n.T(catCapture)},
		&cli.BoolFlag{Name: "detect-scrolling", Usage: l10n.T("Treat large frame-to-frame changes as scrolling"), Category: l10n.T(catCapture)},

		&cli.StringFlag{Name: "chroma-order", Usage: l10n.T("Chroma layout (nv21, nv12)"), Category: l10n.T(catConvert)},
		&cli.StringFlag{Name: "rounding", Usage: l10n.T("Chroma rounding (shift, biased)"), Category: l10n.T(catConvert)},

		&cli.StringFlag{Name: "listen", Usage: l10n.T("Address of the frame server"), Category: l10n.T(catServer)},

		&cli.BoolFlag{Name: "debug", Aliases: []string{"d"}, Usage: l10n.T("Save settled frames and previews"), Category: l10n.T(catDebug)},
		&cli.StringFlag{Name: "debug-dir", Usage: l10n.T("Directory for debug output"), Category: l10n.T(catDebug)},
		&cli.StringFlag{Name: "summary", Usage: l10n.T("Write a session summary to this path (.md or .json)"), Category: l10n.T(catDebug)},
	}

	return &cli.Command{
		Name:      "watch",
		Usage:     l10n.T("Capture settled frames and serve them"),
		UsageText: "screensettle watch [options]",
		Flags:     append(flags, loggingFlags()...),
		Action:    runWatch,
	}
}

// loadConfig reads the config file, if any, and applies flag overrides.
func loadConfig(c *cli.Context) (config.Config, error) {
	cfg := config.Defaults()
	if path := c.String("config"); path != "" {
		loaded, err := config.LoadFromFile(path)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}

	if c.IsSet("source") {
		cfg.Source.Kind = c.String("source")
	}
	if c.IsSet("url") {
		cfg.Source.URL = c.String("url")
	}
	if c.IsSet("watch-dir") {
		cfg.Source.WatchDir = c.String("watch-dir")
	}
	if c.IsSet("region") {
		cfg.Source.Region = c.String("region")
	}
	if c.IsSet("fps") {
		cfg.Source.FPS = c.Float64("fps")
	}
	if c.IsSet("chrome-path") {
		cfg.Source.ChromePath = c.String("chrome-path")
	}
	if c.Bool("no-headless") {
		cfg.Source.Headless = false
	}
	if c.IsSet("delay") {
		cfg.StabilizationDelayMs = c.Int("delay")
	}
	if c.IsSet("queue") {
		cfg.MaxQueueSize = c.Int("queue")
	}
	if c.IsSet("max-age") {
		cfg.MaxFrameAgeMs = c.Int("max-age")
	}
	if c.IsSet("detect-scrolling") {
		cfg.DetectScrolling = c.Bool("detect-scrolling")
	}
	if c.IsSet("chroma-order") {
		cfg.ChromaOrder = c.String("chroma-order")
	}
	if c.IsSet("rounding") {
		cfg.ChromaRounding = c.String("rounding")
	}
	if c.IsSet("listen") {
		cfg.Listen = c.String("listen")
	}
	if c.IsSet("debug") {
		cfg.Debug = c.Bool("debug")
	}
	if c.IsSet("debug-dir") {
		cfg.DebugDir = c.String("debug-dir")
	}
	if c.IsSet("summary") {
		cfg.SummaryPath = c.String("summary")
	}

	return cfg, cfg.Validate()
}

func runWatch(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	log := newLogger(c, cfg.LogLevel)

	ctx, cancel := context.WithCancel(c.Context)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			log.Warn("Interrupted, shutting down...")
			cancel()
		case <-ctx.Done():
		}
	}()

	fs := osfilesystem.New()
	renderer := ggrenderer.New()
	clock := systemclock.New()

	var sink ports.DebugSink = nullsink.New()
	if cfg.Debug {
		if err := fs.MkdirAll(cfg.DebugDir); err != nil {
			return fmt.Errorf("create debug directory: %w", err)
		}
		sink = filesink.New(cfg.DebugDir, fs, renderer)
	}

	convOpts, err := cfg.ToConvertOptions()
	if err != nil {
		return err
	}
	process := pipeline.Then[pipeline.CapturedFrame, pipeline.QueueEntry, pipeline.QueueEntry](
		convert.NewStage(convOpts, log),
		colorsample.NewStage(log),
	)
	var previewStage pipeline.Stage[pipeline.PreviewInput, image.Image]
	if cfg.Debug {
		theme := preview.DefaultTheme()
		theme.Background = config.ParseColor(cfg.PreviewBackground)
		previewStage = preview.NewStage(renderer, theme, 0, log)
	}

	pipe := capture.New(process, previewStage, clock, sink, log, cfg.ToCaptureOptions())

	source, target, err := newSource(cfg, fs, renderer, clock, log)
	if err != nil {
		return err
	}

	server := wsserver.New(pipe, clock, log)
	pipe.OnSettled(server.Notify)

	if err := pipe.StartSession(ctx, source); err != nil {
		return err
	}

	serveErr := make(chan error, 1)
	go func() { serveErr <- server.ListenAndServe(ctx, cfg.Listen) }()

	select {
	case <-ctx.Done():
	case <-pipe.Done():
	case err = <-serveErr:
	}
	cancel()
	pipe.StopSession()

	if cfg.SummaryPath != "" {
		if werr := writeSummary(cfg, target, pipe.Stats(), fs); werr != nil {
			log.Warn("Failed to write summary: %s", werr)
		} else {
			log.Info("Summary saved to %s", cfg.SummaryPath)
		}
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// newSource builds the configured frame source and describes its target.
func newSource(cfg config.Config, fs ports.FileSystem, renderer ports.Renderer, clock ports.Clock, log ports.Logger) (ports.FrameSource, string, error) {
	switch cfg.Source.Kind {
	case config.SourceChrome:
		return chromesource.New(chromesource.Options{
			URL:        cfg.Source.URL,
			ChromePath: cfg.Source.ChromePath,
			Headless:   cfg.Source.Headless,
			Width:      cfg.Source.Width,
			Height:     cfg.Source.Height,
			Quality:    cfg.Source.Quality,
		}, renderer, log), cfg.Source.URL, nil
	case config.SourceDir:
		return dirsource.New(cfg.Source.WatchDir, fs, renderer, clock, log), cfg.Source.WatchDir, nil
	default:
		region, err := config.ParseRegion(cfg.Source.Region)
		if err != nil {
			return nil, "", err
		}
		return screensource.New(screensource.Options{FPS: cfg.Source.FPS, Region: region}, nil, clock, log), cfg.Source.Region, nil
	}
}

func writeSummary(cfg config.Config, target string, st capture.Stats, fs ports.FileSystem) error {
	summary := summarizer.NewBuilder().
		WithSource(cfg.Source.Kind, target).
		WithSettings(summarizer.Settings{
			StabilizationDelayMs: cfg.StabilizationDelayMs,
			MaxQueueSize:         cfg.MaxQueueSize,
			MaxFrameAgeMs:        cfg.MaxFrameAgeMs,
			ChromaOrder:          cfg.ChromaOrder,
			ChromaRounding:       cfg.ChromaRounding,
			DetectScrolling:      cfg.DetectScrolling,
			ScrollThrottleMs:     cfg.ScrollThrottleMs,
		}).
		WithStats(st).
		Build()

	formatter := summarizer.FormatterFor(cfg.SummaryPath,
		summarizer.WithTranslator(l10n.T),
		summarizer.WithVersion(version),
	)
	return summarizer.NewWriter(formatter, fs).Write(cfg.SummaryPath, summary)
}
