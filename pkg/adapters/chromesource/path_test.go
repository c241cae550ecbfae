package chromesource

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func TestResolveChromePath_ExplicitPath(t *testing.T) {
	t.Setenv("CHROME_PATH", "/env/chrome")

	if got := ResolveChromePath("/custom/path/to/chrome"); got != "/custom/path/to/chrome" {
		t.Errorf("expected explicit path to be returned, got %s", got)
	}
}

func TestResolveChromePath_EnvVar(t *testing.T) {
	t.Setenv("CHROME_PATH", "/env/chrome")

	if got := ResolveChromePath(""); got != "/env/chrome" {
		t.Errorf("expected CHROME_PATH to be used, got %s", got)
	}
}

func TestResolveChromePath_SystemDefault(t *testing.T) {
	t.Setenv("CHROME_PATH", "")

	// Empty is valid when no browser is installed.
	t.Logf("System default Chrome path: %q", ResolveChromePath(""))
}

func TestChromeCandidates(t *testing.T) {
	env := map[string]string{
		"PROGRAMFILES": `C:\Program Files`,
	}
	getenv := func(k string) string { return env[k] }

	win := chromeCandidates("windows", getenv)
	if len(win) != 2 {
		t.Fatalf("expected 2 windows candidates, got %v", win)
	}
	if !strings.Contains(win[0], "Chromium") {
		t.Errorf("expected Chromium first, got %s", win[0])
	}

	linux := chromeCandidates("linux", getenv)
	if len(linux) == 0 || linux[0] != "chromium" {
		t.Errorf("expected chromium first on linux, got %v", linux)
	}

	if got := chromeCandidates("plan9", getenv); got != nil {
		t.Errorf("expected no candidates, got %v", got)
	}
}

func TestResolveExecutable(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses unix paths")
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "chrome")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"), 0755); err != nil {
		t.Fatalf("write: %v", err)
	}

	if got := resolveExecutable(path); got != path {
		t.Errorf("expected %s, got %s", path, got)
	}
	if got := resolveExecutable(filepath.Join(dir, "missing")); got != "" {
		t.Errorf("expected empty for missing file, got %s", got)
	}
	if got := resolveExecutable("definitely-not-a-browser-binary"); got != "" {
		t.Errorf("expected empty for unknown command, got %s", got)
	}
}
