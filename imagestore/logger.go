package imagestore

import (
	"io"
	"log"
	"os"
	"strings"
	"sync/atomic"
)

// LogLevel orders log messages by severity. A logger prints messages at
// or below its level.
type LogLevel int32

const (
	LogLevelNone LogLevel = iota
	LogLevelError
	LogLevelWarning
	LogLevelInfo
	LogLevelDebug
)

var levelNames = map[LogLevel]string{
	LogLevelNone:    "NONE",
	LogLevelError:   "ERROR",
	LogLevelWarning: "WARNING",
	LogLevelInfo:    "INFO",
	LogLevelDebug:   "DEBUG",
}

func (l LogLevel) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return "UNKNOWN"
}

// ParseLogLevel maps a config string to a LogLevel. Unknown values mean info.
func ParseLogLevel(s string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none", "off":
		return LogLevelNone
	case "error":
		return LogLevelError
	case "warn", "warning":
		return LogLevelWarning
	case "debug":
		return LogLevelDebug
	default:
		return LogLevelInfo
	}
}

// Logger receives the store's operational messages.
type Logger interface {
	Debug(format string, args ...interface{})
	Info(format string, args ...interface{})
	Warning(format string, args ...interface{})
	Error(format string, args ...interface{})
	SetLevel(level LogLevel)
	GetLevel() LogLevel
}

// DefaultLogger writes leveled lines through the standard log package.
// The level may be changed while requests are in flight.
type DefaultLogger struct {
	level  atomic.Int32
	logger *log.Logger
}

// NewDefaultLogger creates a logger writing to out, or stdout when out is nil.
func NewDefaultLogger(level LogLevel, out io.Writer) *DefaultLogger {
	if out == nil {
		out = os.Stdout
	}
	l := &DefaultLogger{logger: log.New(out, "imagestore: ", log.LstdFlags)}
	l.level.Store(int32(level))
	return l
}

func (l *DefaultLogger) logf(level LogLevel, format string, args []interface{}) {
	if l.GetLevel() < level {
		return
	}
	l.logger.Printf("["+level.String()+"] "+format, args...)
}

func (l *DefaultLogger) Debug(format string, args ...interface{}) {
	l.logf(LogLevelDebug, format, args)
}

func (l *DefaultLogger) Info(format string, args ...interface{}) {
	l.logf(LogLevelInfo, format, args)
}

func (l *DefaultLogger) Warning(format string, args ...interface{}) {
	l.logf(LogLevelWarning, format, args)
}

func (l *DefaultLogger) Error(format string, args ...interface{}) {
	l.logf(LogLevelError, format, args)
}

func (l *DefaultLogger) SetLevel(level LogLevel) {
	l.level.Store(int32(level))
}

func (l *DefaultLogger) GetLevel() LogLevel {
	return LogLevel(l.level.Load())
}
