// Package extensibility provides pluggable pieces around the engine: event
// sources for the runner and decorators for registered hooks.
package extensibility

import (
	"time"

	"go.uber.org/zap"

	"github.com/comalice/safetychart"
)

// LoggingHooks returns a copy of hs in which every registered action is
// wrapped with debug logs before and after it runs. Empty slots stay empty,
// so logging never turns an unregistered hook into a registered one.
func LoggingHooks(hs safetychart.HookSet, logger *zap.Logger) safetychart.HookSet {
	if logger == nil {
		return hs
	}
	out := hs
	for _, h := range safetychart.HookIDs() {
		inner := hs.Get(h)
		if inner == nil {
			continue
		}
		out.Set(h, logged(h, inner, logger))
	}
	return out
}

func logged(h safetychart.HookID, inner safetychart.Action, logger *zap.Logger) safetychart.Action {
	return func() {
		logger.Debug("hook start", zap.Stringer("hook", h))
		start := time.Now()
		inner()
		logger.Debug("hook done", zap.Stringer("hook", h), zap.Duration("took", time.Since(start)))
	}
}
