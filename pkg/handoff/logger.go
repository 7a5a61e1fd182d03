package handoff

import (
	"sync/atomic"

	"go.uber.org/zap"
)

var loggerPtr atomic.Pointer[zap.Logger]

func init() {
	loggerPtr.Store(zap.NewNop())
}

// SetLogger configures the logger used by the package. By default nothing is
// logged; nil restores that. Safe for concurrent use.
//
// Levels: Debug for state transitions, Info for window lifecycle, Warn for
// tolerated present failures and stalled joins, Error for fatal worker
// outcomes.
func SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	loggerPtr.Store(l.Named("handoff"))
}

// Logger returns the current logger.
func Logger() *zap.Logger {
	return loggerPtr.Load()
}
