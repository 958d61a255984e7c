package production

import (
	"go.uber.org/zap"

	"github.com/comalice/safetychart"
)

// LoggingObserver logs every applied transition.
type LoggingObserver struct {
	logger *zap.Logger
}

var _ safetychart.Observer = (*LoggingObserver)(nil)

// NewLoggingObserver returns an observer that logs on l. A nil l logs nothing.
func NewLoggingObserver(l *zap.Logger) *LoggingObserver {
	if l == nil {
		l = zap.NewNop()
	}
	return &LoggingObserver{logger: l}
}

func (o *LoggingObserver) OnTransition(t safetychart.Transition) {
	fields := []zap.Field{
		zap.Stringer("event", t.Event),
		zap.Stringer("from", t.From),
		zap.Stringer("to", t.To),
	}
	if t.To.Top == safetychart.Faulted {
		o.logger.Warn("entered fault state", fields...)
		return
	}
	o.logger.Info("transition", fields...)
}

// CompositeObserver fans one transition out to several observers, in order.
type CompositeObserver []safetychart.Observer

func (c CompositeObserver) OnTransition(t safetychart.Transition) {
	for _, o := range c {
		if o != nil {
			o.OnTransition(t)
		}
	}
}
