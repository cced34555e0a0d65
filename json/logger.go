package json

import (
	"sync"

	"go.uber.org/zap"
)

var (
	logger     *zap.Logger
	loggerOnce sync.Once
)

// Logger returns the JSON transport's logger instance.
// It uses a no-op logger by default.
func Logger() *zap.Logger {
	loggerOnce.Do(func() {
		if logger == nil {
			logger = zap.NewNop()
		}
	})
	return logger
}

// SetLogger configures the JSON transport's logger and turns on debug
// tracing through it. This must be called before any transcoding calls.
func SetLogger(l *zap.Logger) {
	logger = l
	debug = l != nil
}

// debug gates the verbose debugf tracing; SetLogger flips it.
var debug = false

func debugf(format string, args ...any) {
	if debug {
		Logger().Sugar().Debugf(format, args...)
	}
}
