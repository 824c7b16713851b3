package runner

import (
	"sync"

	"go.uber.org/zap"
)

var (
	logger     *zap.Logger
	loggerOnce sync.Once
)

// Logger returns the runner package's logger. Bindings, copies and kernel
// builds are logged at debug level, build and execution failures at error
// level. It is a no-op logger until one is configured.
func Logger() *zap.Logger {
	loggerOnce.Do(func() {
		if logger == nil {
			logger = zap.NewNop()
		}
	})
	return logger
}

// SetLogger configures the runner package's logger; nil restores the no-op
// logger. Call it before any Runner is created.
func SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	logger = l
}
