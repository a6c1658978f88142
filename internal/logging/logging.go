// Package logging gives every subsystem (URI parsing, the sourcetable
// driver, the connection state machine, the reporter) a common seam to
// log through, backed by logrus the way the rest of the pack does it.
package logging

import (
	"io"
	"os"

	log "github.com/sirupsen/logrus"
)

// Logger is the six-level seam subsystems log through. Data, IO, and
// Spin exist as distinct levels so a caller can turn up sourcetable/fix
// chatter without drowning in per-byte socket noise, or the reverse.
type Logger interface {
	Error(format string, args ...any)
	Warn(format string, args ...any)
	Data(format string, args ...any)
	IO(format string, args ...any)
	Spin(format string, args ...any)
	Raw(format string, args ...any)

	// WithField returns a Logger that tags every subsequent line with
	// key=value, mirroring logrus.WithField.
	WithField(key string, value any) Logger
}

type logrusLogger struct {
	entry *log.Entry
}

// New builds a Logger writing to w at level, with component tagging it
// the way the pack's casters tag request_id/path/method.
func New(w io.Writer, level log.Level, component string) Logger {
	base := log.New()
	base.SetOutput(w)
	base.SetLevel(level)
	base.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	return &logrusLogger{entry: base.WithField("component", component)}
}

// Default builds a Logger writing to stderr at InfoLevel.
func Default(component string) Logger {
	return New(os.Stderr, log.InfoLevel, component)
}

func (l *logrusLogger) Error(format string, args ...any) { l.entry.Errorf(format, args...) }
func (l *logrusLogger) Warn(format string, args ...any)  { l.entry.Warnf(format, args...) }

// Data logs protocol-level state (sourcetable records, fix updates) at
// Debug so it is visible without the wire-level Spin/Raw chatter.
func (l *logrusLogger) Data(format string, args ...any) {
	l.entry.WithField("level_kind", "data").Debugf(format, args...)
}

// IO logs socket reads/writes at Debug, tagged separately from Data so
// the two can be filtered independently downstream.
func (l *logrusLogger) IO(format string, args ...any) {
	l.entry.WithField("level_kind", "io").Debugf(format, args...)
}

// Spin logs poll-loop iterations (state machine ticks that made no
// progress) at Trace, the noisiest tier.
func (l *logrusLogger) Spin(format string, args ...any) {
	l.entry.WithField("level_kind", "spin").Tracef(format, args...)
}

// Raw logs the exact bytes exchanged on the wire at Trace.
func (l *logrusLogger) Raw(format string, args ...any) {
	l.entry.WithField("level_kind", "raw").Tracef(format, args...)
}

func (l *logrusLogger) WithField(key string, value any) Logger {
	return &logrusLogger{entry: l.entry.WithField(key, value)}
}
