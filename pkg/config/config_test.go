package config

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/user/screensettle/pkg/pipeline"
	"github.com/user/screensettle/pkg/stages/convert"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestDefaults_Valid(t *testing.T) {
	cfg := Defaults()
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected defaults to be valid, got %v", err)
	}

	opts := cfg.ToCaptureOptions()
	if opts.StabilizationDelay != time.Second {
		t.Errorf("expected 1s delay, got %v", opts.StabilizationDelay)
	}
	if opts.MaxFrameAge != 2*time.Second {
		t.Errorf("expected 2s max age, got %v", opts.MaxFrameAge)
	}
	if opts.MaxQueueSize != 1 {
		t.Errorf("expected queue size 1, got %d", opts.MaxQueueSize)
	}
	if opts.ScrollThrottle != 100*time.Millisecond {
		t.Errorf("expected 100ms throttle, got %v", opts.ScrollThrottle)
	}
}

func TestLoadFromFile_YAML(t *testing.T) {
	path := writeFile(t, "config.yaml", `
stabilization_delay_ms: 750
max_queue_size: 3
chroma_order: nv12
chroma_rounding: biased
detect_scrolling: true
source:
  kind: chrome
  url: https://example.com
`)

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.StabilizationDelayMs != 750 {
		t.Errorf("expected 750, got %d", cfg.StabilizationDelayMs)
	}
	if cfg.MaxQueueSize != 3 {
		t.Errorf("expected 3, got %d", cfg.MaxQueueSize)
	}
	if !cfg.DetectScrolling {
		t.Error("expected detect_scrolling to be true")
	}
	if cfg.Source.Kind != SourceChrome || cfg.Source.URL != "https://example.com" {
		t.Errorf("unexpected source: %+v", cfg.Source)
	}
	// Unset keys keep their defaults.
	if cfg.MaxFrameAgeMs != 2000 {
		t.Errorf("expected default max age, got %d", cfg.MaxFrameAgeMs)
	}
	if cfg.Source.Width != 1280 {
		t.Errorf("expected default width, got %d", cfg.Source.Width)
	}

	conv, err := cfg.ToConvertOptions()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if conv.Order != pipeline.ChromaUV || conv.Rounding != convert.BiasedShift {
		t.Errorf("unexpected convert options: %+v", conv)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected config to be valid, got %v", err)
	}
}

func TestLoadFromFile_INI(t *testing.T) {
	path := writeFile(t, "settings.ini", `
[capture]
stabilization_delay_ms = 500
scroll_ratio_threshold = 0.25
min_scroll_frames = 2

[source]
kind = dir
watch_dir = /tmp/frames

[debug]
enabled = true
dir = /tmp/debug
log_level = debug
`)

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.StabilizationDelayMs != 500 {
		t.Errorf("expected 500, got %d", cfg.StabilizationDelayMs)
	}
	if cfg.ScrollRatioThreshold != 0.25 {
		t.Errorf("expected 0.25, got %v", cfg.ScrollRatioThreshold)
	}
	if cfg.MinScrollFrames != 2 {
		t.Errorf("expected 2, got %d", cfg.MinScrollFrames)
	}
	if cfg.Source.Kind != SourceDir || cfg.Source.WatchDir != "/tmp/frames" {
		t.Errorf("unexpected source: %+v", cfg.Source)
	}
	if !cfg.Debug || cfg.DebugDir != "/tmp/debug" || cfg.LogLevel != "debug" {
		t.Errorf("unexpected debug settings: %v %s %s", cfg.Debug, cfg.DebugDir, cfg.LogLevel)
	}
	if cfg.MaxQueueSize != 1 {
		t.Errorf("expected default queue size, got %d", cfg.MaxQueueSize)
	}

	opts := cfg.ToCaptureOptions()
	if opts.Detector.ScrollRatio != 0.25 || opts.Detector.MinScrollFrames != 2 {
		t.Errorf("unexpected detector options: %+v", opts.Detector)
	}
}

func TestLoadFromFile_Missing(t *testing.T) {
	if _, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing YAML file")
	}
	if _, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.ini")); err == nil {
		t.Error("expected error for missing INI file")
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		want   string
	}{
		{"delay", func(c *Config) { c.StabilizationDelayMs = 0 }, "stabilization_delay_ms"},
		{"queue", func(c *Config) { c.MaxQueueSize = 0 }, "max_queue_size"},
		{"age", func(c *Config) { c.MaxFrameAgeMs = -1 }, "max_frame_age_ms"},
		{"ratio", func(c *Config) { c.ScrollRatioThreshold = 1.5 }, "scroll_ratio_threshold"},
		{"chroma", func(c *Config) { c.ChromaOrder = "yuy2" }, "chroma order"},
		{"rounding", func(c *Config) { c.ChromaRounding = "nearest" }, "chroma rounding"},
		{"chrome url", func(c *Config) { c.Source.Kind = SourceChrome }, "url"},
		{"watch dir", func(c *Config) { c.Source.Kind = SourceDir }, "watch_dir"},
		{"kind", func(c *Config) { c.Source.Kind = "camera" }, "unknown source kind"},
		{"region", func(c *Config) { c.Source.Region = "1,2,3" }, "x,y,w,h"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error mentioning %q, got %v", tt.want, err)
			}
		})
	}
}

func TestParseRegion(t *testing.T) {
	r, err := ParseRegion("10, 20, 300, 200")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r != image.Rect(10, 20, 310, 220) {
		t.Errorf("expected (10,20)-(310,220), got %v", r)
	}

	if r, err := ParseRegion(""); err != nil || !r.Empty() {
		t.Errorf("expected empty region, got %v (%v)", r, err)
	}
	for _, bad := range []string{"a,b,c,d", "0,0,0,10", "1,2"} {
		if _, err := ParseRegion(bad); err == nil {
			t.Errorf("expected error for %q", bad)
		}
	}
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		in   string
		want color.Color
	}{
		{"#1a1a2e", color.RGBA{R: 0x1a, G: 0x1a, B: 0x2e, A: 255}},
		{"FFFFFF", color.RGBA{R: 255, G: 255, B: 255, A: 255}},
		{"#abc", color.Black},
		{"", color.Black},
	}

	for _, tt := range tests {
		if got := ParseColor(tt.in); got != tt.want {
			t.Errorf("ParseColor(%q): expected %v, got %v", tt.in, tt.want, got)
		}
	}
}
