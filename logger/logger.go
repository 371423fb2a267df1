// Package logger is the logging hook used by the stream filters.
//
// Filters never write to stdout or stderr on their own. Tolerated corruption
// (a truncated Flate trailer, an LZW stream without EOD, a bad hex digit) is
// reported through a single LogFunc that callers may replace:
//
//	logger.SetLogger(func(level logger.LogLevel, msg string, keyvals ...interface{}) {
//	    log.Println(level, msg, keyvals)
//	})
//
// The default LogFunc discards everything.
package logger

import "sync/atomic"

// LogLevel represents log severity
type LogLevel string

const (
	DebugLevel LogLevel = "debug"
	WarnLevel  LogLevel = "warn"
	ErrorLevel LogLevel = "error"
)

// LogFunc is a single logger function that handles all levels.
// keyvals alternate between string keys and arbitrary values.
type LogFunc func(level LogLevel, msg string, keyvals ...interface{})

func discard(LogLevel, string, ...interface{}) {}

var logFunc atomic.Pointer[LogFunc]

func init() {
	f := LogFunc(discard)
	logFunc.Store(&f)
}

// SetLogger sets the global logger function. A nil f restores the
// discarding default.
func SetLogger(f LogFunc) {
	if f == nil {
		f = discard
	}
	logFunc.Store(&f)
}

// Swap installs f like SetLogger and returns the logger it replaced, so
// that a caller can put it back.
func Swap(f LogFunc) LogFunc {
	if f == nil {
		f = discard
	}
	return *logFunc.Swap(&f)
}

func emit(level LogLevel, msg string, keyvals []interface{}) {
	(*logFunc.Load())(level, msg, keyvals...)
}

// Debug logs a message at debug level
func Debug(msg string, keyvals ...interface{}) {
	emit(DebugLevel, msg, keyvals)
}

// Warn logs a message at warn level. Filters use it for corruption they
// recover from.
func Warn(msg string, keyvals ...interface{}) {
	emit(WarnLevel, msg, keyvals)
}

// Error logs a message at error level
func Error(msg string, keyvals ...interface{}) {
	emit(ErrorLevel, msg, keyvals)
}
