package summarizer

import (
	"fmt"
	"strings"
	"time"
)

// MarkdownFormatter renders a Summary as Markdown tables.
type MarkdownFormatter struct {
	translate func(string) string
	version   string
}

// MarkdownOption configures a MarkdownFormatter.
type MarkdownOption func(*MarkdownFormatter)

// WithTranslator translates labels, e.g. with l10n.T.
func WithTranslator(t func(string) string) MarkdownOption {
	return func(f *MarkdownFormatter) { f.translate = t }
}

// WithVersion adds the tool version to the footer.
func WithVersion(v string) MarkdownOption {
	return func(f *MarkdownFormatter) { f.version = v }
}

// NewMarkdownFormatter creates a formatter.
func NewMarkdownFormatter(opts ...MarkdownOption) *MarkdownFormatter {
	f := &MarkdownFormatter{translate: func(s string) string { return s }}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Format implements Formatter.
func (f *MarkdownFormatter) Format(s *Summary) string {
	var b strings.Builder
	t := f.translate

	fmt.Fprintf(&b, "# %s\n\n", t("Capture Session Summary"))

	f.section(&b, t("Session"), [][2]string{
		{t("Source"), sourceLabel(s.Session)},
		{t("Started"), formatTime(s.Session.StartedAt)},
		{t("Stopped"), formatTime(s.Session.StoppedAt)},
		{t("Duration"), formatDuration(s.Session.DurationMs)},
		{t("Frame Size"), frameSize(s.Session)},
		{t("Converted Frame"), formatBytes(s.Session.FrameBytes)},
	})

	f.section(&b, t("Settings"), [][2]string{
		{t("Stabilization Delay"), fmt.Sprintf("%d ms", s.Settings.StabilizationDelayMs)},
		{t("Queue Size"), fmt.Sprintf("%d", s.Settings.MaxQueueSize)},
		{t("Max Frame Age"), fmt.Sprintf("%d ms", s.Settings.MaxFrameAgeMs)},
		{t("Chroma Layout"), s.Settings.ChromaOrder + " / " + s.Settings.ChromaRounding},
		{t("Content Scroll Detection"), f.onOff(s.Settings.DetectScrolling)},
		{t("Scroll Throttle"), fmt.Sprintf("%d ms", s.Settings.ScrollThrottleMs)},
	})

	f.section(&b, t("Frames"), [][2]string{
		{t("Received"), fmt.Sprintf("%d", s.Frames.Received)},
		{t("Unchanged"), fmt.Sprintf("%d", s.Frames.Unchanged)},
		{t("Out of Order"), fmt.Sprintf("%d", s.Frames.OutOfOrder)},
		{t("Timers Armed"), fmt.Sprintf("%d", s.Frames.TimersArmed)},
		{t("Settled"), fmt.Sprintf("%d", s.Frames.Settled)},
		{t("Conversion Failures"), fmt.Sprintf("%d", s.Frames.ConversionFailures)},
		{t("Evicted"), fmt.Sprintf("%d", s.Frames.Evicted)},
		{t("Fetched"), fmt.Sprintf("%d", s.Frames.Fetched)},
		{t("Too Old"), fmt.Sprintf("%d", s.Frames.TooOld)},
		{t("Settle Rate"), percent(s.Frames.Settled, s.Frames.TimersArmed)},
	})

	f.section(&b, t("Scrolling"), [][2]string{
		{t("Scroll Cancels"), fmt.Sprintf("%d", s.Scroll.Cancels)},
		{t("Throttled Signals"), fmt.Sprintf("%d", s.Scroll.Throttled)},
		{t("Content Scrolls"), fmt.Sprintf("%d", s.Scroll.ContentScrolls)},
	})

	if s.Frames.Settled > 0 {
		fmt.Fprintf(&b, "**%s**: `%s`\n\n", t("Last Dominant Color"), strings.ToUpper(s.LastColor.Hex()))
	}

	fmt.Fprintf(&b, "---\n\n%s %s", t("Generated at"), s.GeneratedAt.Format(time.RFC3339))
	if f.version != "" {
		fmt.Fprintf(&b, " (screensettle %s)", f.version)
	}
	b.WriteString("\n")
	return b.String()
}

func (f *MarkdownFormatter) section(b *strings.Builder, title string, rows [][2]string) {
	fmt.Fprintf(b, "## %s\n\n", title)
	fmt.Fprintf(b, "| %s | %s |\n", f.translate("Item"), f.translate("Value"))
	b.WriteString("|---|---|\n")
	for _, r := range rows {
		fmt.Fprintf(b, "| %s | %s |\n", r[0], r[1])
	}
	b.WriteString("\n")
}

func (f *MarkdownFormatter) onOff(v bool) string {
	if v {
		return f.translate("On")
	}
	return f.translate("Off")
}

func sourceLabel(s SessionInfo) string {
	if s.Source == "" {
		return "N/A"
	}
	if s.Target == "" {
		return s.Source
	}
	return fmt.Sprintf("%s (%s)", s.Source, s.Target)
}

func frameSize(s SessionInfo) string {
	if s.Width <= 0 || s.Height <= 0 {
		return "N/A"
	}
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "N/A"
	}
	return t.Format(time.RFC3339)
}

func formatDuration(ms int64) string {
	if ms <= 0 {
		return "N/A"
	}
	return (time.Duration(ms) * time.Millisecond).String()
}

func percent(n, of int64) string {
	if of <= 0 {
		return "N/A"
	}
	return fmt.Sprintf("%.1f%%", 100*float64(n)/float64(of))
}

// formatBytes formats a byte count with binary units.
func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit && exp < 2; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.2f %cB", float64(n)/float64(div), "KMG"[exp])
}

var _ Formatter = (*MarkdownFormatter)(nil)
