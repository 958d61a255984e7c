package core

import (
	"time"

	"go.uber.org/zap"
)

// Option applies configuration to a Runner via the functional options pattern.
type Option func(*Runner)

// WithQueueSize configures the event queue buffer size.
func WithQueueSize(size int) Option {
	return func(r *Runner) {
		if size > 0 {
			r.queue = make(chan request, size)
		}
	}
}

// WithEventSource feeds the events of s into the runner once started.
func WithEventSource(s EventSource) Option {
	return func(r *Runner) {
		r.eventSource = s
	}
}

// WithPublisher configures where applied transitions are published.
func WithPublisher(p EventPublisher) Option {
	return func(r *Runner) {
		r.publisher = p
	}
}

// WithLogger configures the runner's logger.
func WithLogger(l *zap.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithMachineID names the machine in published metadata.
func WithMachineID(id string) Option {
	return func(r *Runner) {
		if id != "" {
			r.machineID = id
		}
	}
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) {
		if now != nil {
			r.now = now
		}
	}
}
