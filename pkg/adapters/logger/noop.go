package logger

import "github.com/user/screensettle/pkg/ports"

// NoopLogger discards everything. It backs --quiet and unit tests.
type NoopLogger struct{}

// NewNoop creates a new no-op logger.
func NewNoop() *NoopLogger { return &NoopLogger{} }

func (l *NoopLogger) Debug(string, ...interface{}) {}
func (l *NoopLogger) Info(string, ...interface{}) {}
func (l *NoopLogger) Warn(string, ...interface{}) {}
func (l *NoopLogger) Error(string, ...interface{}) {}

// WithComponent returns l; component names are never printed.
func (l *NoopLogger) WithComponent(string) ports.Logger { return l }

var (
	_ ports.Logger = (*NoopLogger)(nil)
	_ ports.Logger = (*ConsoleLogger)(nil)
)
