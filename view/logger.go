package view

import (
	"sync"

	"go.uber.org/zap"
)

var (
	logger     *zap.Logger
	loggerOnce sync.Once
)

// Logger returns the view package's logger. Every fatal violation is
// logged at error level with its kind, label, indices and extents before
// the policy acts. It is a no-op logger until one is configured.
func Logger() *zap.Logger {
	loggerOnce.Do(func() {
		if logger == nil {
			logger = zap.NewNop()
		}
	})
	return logger
}

// SetLogger configures the view package's logger; nil restores the no-op
// logger. Call it before any view is constructed.
func SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	logger = l
}
