package ports

import "testing"

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want LogLevel
	}{
		{"debug", LevelDebug},
		{"INFO", LevelInfo},
		{"warn", LevelWarn},
		{"warning", LevelWarn},
		{" error ", LevelError},
		{"quiet", LevelQuiet},
		{"verbose", LevelInfo},
		{"", LevelInfo},
	}

	for _, tt := range tests {
		if got := ParseLogLevel(tt.in); got != tt.want {
			t.Errorf("ParseLogLevel(%q): expected %v, got %v", tt.in, tt.want, got)
		}
	}
}

func TestLogLevel_String(t *testing.T) {
	for _, level := range []LogLevel{LevelDebug, LevelInfo, LevelWarn, LevelError, LevelQuiet} {
		if got := ParseLogLevel(level.String()); got != level {
			t.Errorf("expected %v to round-trip, got %v", level, got)
		}
	}
	if LogLevel(42).String() != "unknown" {
		t.Errorf("expected unknown, got %s", LogLevel(42).String())
	}
}
