package anpp

import (
	"io"

	"avaneesh/anpp-go/pkg/internal/logger"
)

// LogLevel represents logging level
type LogLevel = logger.Level

const (
	// LevelDebug shows all log messages (most verbose)
	LevelDebug = logger.LevelDebug
	// LevelInfo shows info, warn, and error messages (default)
	LevelInfo = logger.LevelInfo
	// LevelWarn shows warn and error messages
	LevelWarn = logger.LevelWarn
	// LevelError shows only error messages
	LevelError = logger.LevelError
)

// Logger is the printf-style logger accepted by NewDevice
type Logger = logger.Logger

// SetLogLevel replaces the global logger with one writing at level
func SetLogLevel(level LogLevel) {
	logger.SetDefault(logger.NewDefaultLogger(level))
}

// EnableFrameDebug enables or disables detailed frame debugging
// When enabled, shows hex dumps of all ANPP frames sent and received at debug level
func EnableFrameDebug(enable bool) {
	logger.SetFrameDebug(enable)
}

// ParseLogLevel maps "debug", "info", "warn" or "error" to a level
func ParseLogLevel(s string) (LogLevel, error) {
	return logger.ParseLevel(s)
}

// NewLogger returns a text logger writing to w at level
func NewLogger(w io.Writer, level LogLevel) Logger {
	return logger.NewWriterLogger(w, level)
}

// SetLogger replaces the global logger used by devices created without one
func SetLogger(l Logger) {
	logger.SetDefault(l)
}
