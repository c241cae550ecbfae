package logger

import (
	"bytes"
	"strings"
	"testing"

	"github.com/user/screensettle/pkg/ports"
)

func TestConsoleLogger_Levels(t *testing.T) {
	var out, errOut bytes.Buffer
	log := NewConsoleWriter(ports.LevelInfo, &out, &errOut, false)

	log.Debug("hidden %d", 1)
	log.Info("shown %d", 2)
	log.Warn("careful %s", "now")
	log.Error("broken")

	if strings.Contains(out.String(), "hidden") {
		t.Errorf("expected debug to be filtered, got %q", out.String())
	}
	if out.String() != "shown 2\n" {
		t.Errorf("expected %q, got %q", "shown 2\n", out.String())
	}
	if errOut.String() != "warn: careful now\nerror: broken\n" {
		t.Errorf("unexpected stderr output %q", errOut.String())
	}
}

func TestConsoleLogger_Quiet(t *testing.T) {
	var out, errOut bytes.Buffer
	log := NewConsoleWriter(ports.LevelQuiet, &out, &errOut, false)

	log.Info("a")
	log.Error("b")

	if out.Len() != 0 || errOut.Len() != 0 {
		t.Errorf("expected no output, got %q and %q", out.String(), errOut.String())
	}
}

func TestConsoleLogger_WithComponent(t *testing.T) {
	var out bytes.Buffer
	log := NewConsoleWriter(ports.LevelDebug, &out, &out, false)

	log.WithComponent("capture").Debug("settled %dx%d", 4, 2)

	if out.String() != "[capture] settled 4x2\n" {
		t.Errorf("unexpected output %q", out.String())
	}
}

func TestConsoleLogger_Color(t *testing.T) {
	var out bytes.Buffer
	log := NewConsoleWriter(ports.LevelDebug, &out, &out, true)

	log.WithComponent("queue").Warn("full")

	got := out.String()
	if !strings.HasPrefix(got, colorYellow) || !strings.Contains(got, colorCyan+"[queue]") {
		t.Errorf("expected colored output, got %q", got)
	}
	if strings.Contains(got, "warn:") {
		t.Errorf("expected no level tag when colored, got %q", got)
	}
}

func TestNoopLogger(t *testing.T) {
	var log ports.Logger = NewNoop()
	log = log.WithComponent("x")
	log.Error("nothing %d", 1)
}
