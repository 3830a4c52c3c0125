package types

import (
	"os"

	"github.com/charmbracelet/log"
)

// Logger is the logging contract every anvil component is handed through
// Config. It is deliberately small — structured key/value pairs plus the
// four levels the driver and executor actually emit at.
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
	With(keyvals ...any) Logger
}

// charmLogger adapts github.com/charmbracelet/log to the Logger interface.
type charmLogger struct {
	l *log.Logger
}

// DefaultLogger returns a Logger writing structured, leveled output to
// stderr, matching the level contextureai-contexture's app wiring uses for
// its own charmbracelet/log instance.
func DefaultLogger() Logger {
	l := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Level:           log.InfoLevel,
	})
	return &charmLogger{l: l}
}

func (c *charmLogger) Debugf(format string, args ...any) { c.l.Debugf(format, args...) }
func (c *charmLogger) Infof(format string, args ...any)  { c.l.Infof(format, args...) }
func (c *charmLogger) Warnf(format string, args ...any)  { c.l.Warnf(format, args...) }
func (c *charmLogger) Errorf(format string, args ...any) { c.l.Errorf(format, args...) }

func (c *charmLogger) With(keyvals ...any) Logger {
	return &charmLogger{l: c.l.With(keyvals...)}
}

// NopLogger discards everything. Useful in tests that don't want log noise
// but still need a non-nil Logger to satisfy Config's default.
func NopLogger() Logger {
	l := log.NewWithOptions(os.Stderr, log.Options{})
	l.SetLevel(log.FatalLevel + 1)
	return &charmLogger{l: l}
}
