package logging

import (
	"os"
	"sync"

	"github.com/charmbracelet/log"
)

// Logger wraps the charmbracelet logger so call sites do not depend on the
// underlying package directly.
type Logger struct {
	*log.Logger
}

var (
	logger *Logger
	once   sync.Once
)

// CreateLogger sets up the process-wide logger. Safe to call more than once.
func CreateLogger() {
	once.Do(func() {
		baseLogger := log.New(os.Stderr)

		if os.Getenv("DEBUG") == "1" {
			baseLogger = log.NewWithOptions(os.Stderr, log.Options{
				ReportCaller:    true,
				ReportTimestamp: true,
				Prefix:          "databox",
			})
			baseLogger.SetLevel(log.DebugLevel)
		} else {
			baseLogger.SetLevel(log.InfoLevel)
		}

		logger = &Logger{Logger: baseLogger}
	})
}

func ensureInitialized() {
	if logger == nil {
		CreateLogger()
	}
}

// Debug logs debug messages if debug logging is enabled.
func Debug(msg interface{}, keyvals ...interface{}) {
	ensureInitialized()
	logger.Debug(msg, keyvals...)
}

// Info logs informational messages.
func Info(msg interface{}, keyvals ...interface{}) {
	ensureInitialized()
	logger.Info(msg, keyvals...)
}

// Warn logs warning messages.
func Warn(msg interface{}, keyvals ...interface{}) {
	ensureInitialized()
	logger.Warn(msg, keyvals...)
}

// Error logs error messages.
func Error(msg interface{}, keyvals ...interface{}) {
	ensureInitialized()
	logger.Error(msg, keyvals...)
}

// Fatal logs a fatal message and exits the program.
func Fatal(msg interface{}, keyvals ...interface{}) {
	ensureInitialized()
	logger.Fatal(msg, keyvals...)
}

// GetLogger returns the shared Logger instance.
func GetLogger() *Logger {
	ensureInitialized()
	return logger
}
