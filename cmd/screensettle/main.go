// Package main provides the CLI entry point for screensettle.
package main

import (
	"fmt"
	"os"

	"github.com/ideamans/go-l10n"
	"github.com/urfave/cli/v2"

	"github.com/user/screensettle/pkg/adapters/logger"
	"github.com/user/screensettle/pkg/ports"
)

var version = "dev"

// Flag categories
const (
	catSource  = "Source"
	catCapture = "Stabilization"
	catConvert = "Conversion"
	catServer  = "Server"
	catDebug   = "Debug"
	catLogging = "Logging"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, l10n.F("Error: %s", err))
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "screensettle",
		Usage:   l10n.T("Capture settled screen frames as planar YUV"),
		Version: version,
		Description: l10n.T("screensettle watches a display, waits for the picture to stop changing, " +
			"and serves the settled frame as NV21/NV12 with its dominant color."),
		Commands: []*cli.Command{
			watchCommand(),
			convertCommand(),
			{
				Name:  "version",
				Usage: l10n.T("Show version information"),
				Action: func(c *cli.Context) error {
					fmt.Fprintln(c.App.Writer, l10n.F("screensettle version %s", version))
					return nil
				},
			},
		},
	}
}

func loggingFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "log-level",
			Aliases:  []string{"l"},
			Value:    "info",
			Usage:    l10n.T("Log level (debug, info, warn, error)"),
			Category: l10n.T(catLogging),
		},
		&cli.BoolFlag{
			Name:     "quiet",
			Aliases:  []string{"Q"},
			Usage:    l10n.T("Suppress all log output"),
			Category: l10n.T(catLogging),
		},
	}
}

// newLogger builds the console logger from the logging flags, falling back
// to level when the flag was not given.
func newLogger(c *cli.Context, level string) ports.Logger {
	if c.Bool("quiet") {
		return logger.NewNoop()
	}
	if c.IsSet("log-level") || level == "" {
		level = c.String("log-level")
	}
	return logger.NewConsole(ports.ParseLogLevel(level))
}
