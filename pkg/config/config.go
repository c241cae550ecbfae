// Package config provides configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/ini.v1"
	"gopkg.in/yaml.v3"

	"github.com/user/screensettle/pkg/capture"
	"github.com/user/screensettle/pkg/detect"
	"github.com/user/screensettle/pkg/pipeline"
	"github.com/user/screensettle/pkg/stages/convert"
)

// Source kinds.
const (
	SourceScreen = "screen"
	SourceChrome = "chrome"
	SourceDir    = "dir"
)

// Config represents the full configuration for screensettle.
type Config struct {
	// Stabilization
	StabilizationDelayMs int `yaml:"stabilization_delay_ms"`
	MaxQueueSize         int `yaml:"max_queue_size"`
	MaxFrameAgeMs        int `yaml:"max_frame_age_ms"`
	ScrollThrottleMs     int `yaml:"scroll_throttle_ms"`

	// Change detection
	FingerprintGrid      int     `yaml:"fingerprint_grid"`
	PixelDiffThreshold   int     `yaml:"pixel_diff_threshold"`
	ScrollRatioThreshold float64 `yaml:"scroll_ratio_threshold"`
	MinScrollFrames      int     `yaml:"min_scroll_frames"`
	DetectScrolling      bool    `yaml:"detect_scrolling"`

	// Conversion
	ChromaOrder    string `yaml:"chroma_order"`
	ChromaRounding string `yaml:"chroma_rounding"`

	// Frame source
	Source SourceConfig `yaml:"source"`

	// Consumer endpoint
	Listen string `yaml:"listen"`

	// Debug
	Debug             bool   `yaml:"debug"`
	DebugDir          string `yaml:"debug_dir"`
	PreviewBackground string `yaml:"preview_background"`
	SummaryPath       string `yaml:"summary_path"`
	LogLevel          string `yaml:"log_level"`
}

// SourceConfig selects and tunes the frame source.
type SourceConfig struct {
	Kind string `yaml:"kind"`

	// Screen. Region is "x,y,w,h"; empty captures the full screen.
	Region string  `yaml:"region"`
	FPS    float64 `yaml:"fps"`

	// Chrome
	URL        string `yaml:"url"`
	ChromePath string `yaml:"chrome_path"`
	Headless   bool   `yaml:"headless"`
	Width      int    `yaml:"width"`
	Height     int    `yaml:"height"`
	Quality    int    `yaml:"quality"`

	// Directory
	WatchDir string `yaml:"watch_dir"`
}

// Defaults returns a Config with default values.
func Defaults() Config {
	return Config{
		StabilizationDelayMs: 1000,
		MaxQueueSize:         1,
		MaxFrameAgeMs:        2000,
		ScrollThrottleMs:     100,

		FingerprintGrid:      detect.DefaultGridSize,
		PixelDiffThreshold:   detect.DefaultPixelThreshold,
		ScrollRatioThreshold: detect.DefaultScrollRatio,
		MinScrollFrames:      detect.DefaultMinScrollFrames,
		DetectScrolling:      false,

		ChromaOrder:    "nv21",
		ChromaRounding: "shift",

		Source: SourceConfig{
			Kind:     SourceScreen,
			FPS:      5,
			Headless: true,
			Width:    1280,
			Height:   800,
			Quality:  80,
		},

		Listen: "127.0.0.1:8765",

		DebugDir:          "./debug",
		PreviewBackground: "#1a1a2e",
		LogLevel:          "info",
	}
}

// LoadFromFile loads configuration from a YAML or INI file, chosen by extension.
func LoadFromFile(path string) (Config, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ini":
		return LoadFromINI(path)
	default:
		return LoadFromYAML(path)
	}
}

// LoadFromYAML loads configuration from a YAML file on top of Defaults.
func LoadFromYAML(path string) (Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}

	return cfg, nil
}

// LoadFromINI loads configuration from an INI file on top of Defaults.
// Keys live in the [capture], [source] and [debug] sections.
func LoadFromINI(path string) (Config, error) {
	d := Defaults()

	file, err := ini.Load(path)
	if err != nil {
		return d, fmt.Errorf("failed to load config file: %w", err)
	}

	cfg := d
	c := file.Section("capture")
	cfg.StabilizationDelayMs = c.Key("stabilization_delay_ms").MustInt(d.StabilizationDelayMs)
	cfg.MaxQueueSize = c.Key("max_queue_size").MustInt(d.MaxQueueSize)
	cfg.MaxFrameAgeMs = c.Key("max_frame_age_ms").MustInt(d.MaxFrameAgeMs)
	cfg.ScrollThrottleMs = c.Key("scroll_throttle_ms").MustInt(d.ScrollThrottleMs)
	cfg.FingerprintGrid = c.Key("fingerprint_grid").MustInt(d.FingerprintGrid)
	cfg.PixelDiffThreshold = c.Key("pixel_diff_threshold").MustInt(d.PixelDiffThreshold)
	cfg.ScrollRatioThreshold = c.Key("scroll_ratio_threshold").MustFloat64(d.ScrollRatioThreshold)
	cfg.MinScrollFrames = c.Key("min_scroll_frames").MustInt(d.MinScrollFrames)
	cfg.DetectScrolling = c.Key("detect_scrolling").MustBool(d.DetectScrolling)
	cfg.ChromaOrder = c.Key("chroma_order").MustString(d.ChromaOrder)
	cfg.ChromaRounding = c.Key("chroma_rounding").MustString(d.ChromaRounding)
	cfg.Listen = c.Key("listen").MustString(d.Listen)

	s := file.Section("source")
	cfg.Source.Kind = s.Key("kind").MustString(d.Source.Kind)
	cfg.Source.Region = s.Key("region").MustString(d.Source.Region)
	cfg.Source.FPS = s.Key("fps").MustFloat64(d.Source.FPS)
	cfg.Source.URL = s.Key("url").MustString(d.Source.URL)
	cfg.Source.ChromePath = s.Key("chrome_path").MustString(d.Source.ChromePath)
	cfg.Source.Headless = s.Key("headless").MustBool(d.Source.Headless)
	cfg.Source.Width = s.Key("width").MustInt(d.Source.Width)
	cfg.Source.Height = s.Key("height").MustInt(d.Source.Height)
	cfg.Source.Quality = s.Key("quality").MustInt(d.Source.Quality)
	cfg.Source.WatchDir = s.Key("watch_dir").MustString(d.Source.WatchDir)

	g := file.Section("debug")
	cfg.Debug = g.Key("enabled").MustBool(d.Debug)
	cfg.DebugDir = g.Key("dir").MustString(d.DebugDir)
	cfg.PreviewBackground = g.Key("preview_background").MustString(d.PreviewBackground)
	cfg.SummaryPath = g.Key("summary_path").MustString(d.SummaryPath)
	cfg.LogLevel = g.Key("log_level").MustString(d.LogLevel)

	return cfg, nil
}

// Validate checks that the configuration is usable.
func (c Config) Validate() error {
	var errs []error

	if c.StabilizationDelayMs <= 0 {
		errs = append(errs, fmt.Errorf("stabilization_delay_ms must be positive, got %d", c.StabilizationDelayMs))
	}
	if c.MaxQueueSize < 1 {
		errs = append(errs, fmt.Errorf("max_queue_size must be at least 1, got %d", c.MaxQueueSize))
	}
	if c.MaxFrameAgeMs <= 0 {
		errs = append(errs, fmt.Errorf("max_frame_age_ms must be positive, got %d", c.MaxFrameAgeMs))
	}
	if c.ScrollThrottleMs < 0 {
		errs = append(errs, fmt.Errorf("scroll_throttle_ms must not be negative, got %d", c.ScrollThrottleMs))
	}
	if c.ScrollRatioThreshold <= 0 || c.ScrollRatioThreshold > 1 {
		errs = append(errs, fmt.Errorf("scroll_ratio_threshold must be in (0, 1], got %v", c.ScrollRatioThreshold))
	}
	if _, err := pipeline.ParseChromaOrder(c.ChromaOrder); err != nil {
		errs = append(errs, err)
	}
	if _, err := convert.ParseRounding(c.ChromaRounding); err != nil {
		errs = append(errs, err)
	}

	switch c.Source.Kind {
	case SourceScreen:
		if c.Source.FPS <= 0 {
			errs = append(errs, fmt.Errorf("source fps must be positive, got %v", c.Source.FPS))
		}
		if _, err := ParseRegion(c.Source.Region); err != nil {
			errs = append(errs, err)
		}
	case SourceChrome:
		if c.Source.URL == "" {
			errs = append(errs, errors.New("source url is required for the chrome source"))
		}
	case SourceDir:
		if c.Source.WatchDir == "" {
			errs = append(errs, errors.New("source watch_dir is required for the dir source"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown source kind: %q", c.Source.Kind))
	}

	return errors.Join(errs...)
}

// ToCaptureOptions converts Config to capture.Options.
func (c Config) ToCaptureOptions() capture.Options {
	return capture.Options{
		StabilizationDelay: time.Duration(c.StabilizationDelayMs) * time.Millisecond,
		MaxQueueSize:       c.MaxQueueSize,
		MaxFrameAge:        time.Duration(c.MaxFrameAgeMs) * time.Millisecond,
		ScrollThrottle:     time.Duration(c.ScrollThrottleMs) * time.Millisecond,
		DetectScrolling:    c.DetectScrolling,
		Detector: detect.Options{
			GridSize:        c.FingerprintGrid,
			PixelThreshold:  c.PixelDiffThreshold,
			ScrollRatio:     c.ScrollRatioThreshold,
			MinScrollFrames: c.MinScrollFrames,
		},
	}
}

// ToConvertOptions converts Config to convert.Options.
func (c Config) ToConvertOptions() (convert.Options, error) {
	order, err := pipeline.ParseChromaOrder(c.ChromaOrder)
	if err != nil {
		return convert.Options{}, err
	}
	rounding, err := convert.ParseRounding(c.ChromaRounding)
	if err != nil {
		return convert.Options{}, err
	}
	return convert.Options{Order: order, Rounding: rounding}, nil
}

// ParseRegion parses an "x,y,w,h" capture region. Empty input yields an
// empty rectangle.
func ParseRegion(s string) (image.Rectangle, error) {
	if strings.TrimSpace(s) == "" {
		return image.Rectangle{}, nil
	}
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return image.Rectangle{}, fmt.Errorf("source region must be x,y,w,h, got %q", s)
	}
	var v [4]int
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return image.Rectangle{}, fmt.Errorf("source region: %w", err)
		}
		v[i] = n
	}
	if v[2] <= 0 || v[3] <= 0 {
		return image.Rectangle{}, fmt.Errorf("source region must have a positive size, got %q", s)
	}
	return image.Rect(v[0], v[1], v[0]+v[2], v[1]+v[3]), nil
}

// ParseColor parses a #rrggbb hex color. Malformed input yields black.
func ParseColor(hex string) color.Color {
	hex = strings.TrimPrefix(hex, "#")
	if len(hex) != 6 {
		return color.Black
	}

	var rgb [3]uint8
	for i := range rgb {
		rgb[i] = hexValue(hex[2*i])<<4 | hexValue(hex[2*i+1])
	}
	return color.RGBA{R: rgb[0], G: rgb[1], B: rgb[2], A: 255}
}

func hexValue(c byte) uint8 {
	switch {
	case c >= '0' && c <= '9':
		return c - '0'
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10
	default:
		return 0
	}
}
