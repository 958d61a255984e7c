// Package core runs a safetychart.Machine behind a single-writer event loop.
// Any number of producers may Post or Send events; the loop applies them one
// at a time, so hooks never race with each other and never need a lock.
package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/comalice/safetychart"
)

var (
	ErrNotStarted    = errors.New("runner not started")
	ErrRunnerStopped = errors.New("runner stopped")
	ErrQueueFull     = errors.New("event queue full (backpressure)")
)

const defaultQueueSize = 64

// EventSource feeds events into a Runner until its channel is closed.
type EventSource interface {
	Events() <-chan safetychart.Event
}

// TransitionMetadata accompanies every published transition.
type TransitionMetadata struct {
	MachineID  string    `json:"machineID" yaml:"machineID"`
	Transition string    `json:"transition" yaml:"transition"`
	Timestamp  time.Time `json:"timestamp" yaml:"timestamp"`
}

// EventPublisher receives every applied transition.
type EventPublisher interface {
	Publish(ctx context.Context, t safetychart.Transition, md TransitionMetadata) error
	Close() error
}

type request struct {
	ev    safetychart.Event
	reply chan safetychart.Snapshot
}

// Runner owns a Machine and applies events to it from one goroutine.
//
// Hooks running inside the loop may call Post to feed follow-up events; those
// are applied after the current event completes. Hooks must not call Send,
// which waits for the loop and would deadlock.
type Runner struct {
	m *safetychart.Machine

	machineID   string
	queue       chan request
	eventSource EventSource
	publisher   EventPublisher
	logger      *zap.Logger
	now         func() time.Time

	mu      sync.RWMutex
	snap    safetychart.Snapshot
	changed chan struct{}
	started bool
	stopped bool

	done chan struct{}
	wg   sync.WaitGroup
}

// NewRunner wraps m. The caller must not dispatch on m directly afterwards.
func NewRunner(m *safetychart.Machine, opts ...Option) *Runner {
	r := &Runner{
		m:         m,
		machineID: safetychart.ChartID,
		queue:     make(chan request, defaultQueueSize),
		logger:    zap.NewNop(),
		now:       time.Now,
		snap:      m.Snapshot(),
		changed:   make(chan struct{}),
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Start launches the event loop. It is a no-op when already started.
// Cancelling ctx stops the runner.
func (r *Runner) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopped {
		return ErrRunnerStopped
	}
	if r.started {
		return nil
	}
	r.started = true

	r.wg.Add(1)
	go r.loop(ctx)

	if r.eventSource != nil {
		r.wg.Add(1)
		go r.pump(r.eventSource.Events())
	}

	go func() {
		select {
		case <-ctx.Done():
			_ = r.Stop()
		case <-r.done:
		}
	}()

	r.logger.Debug("runner started", zap.String("machine", r.machineID), zap.Stringer("state", r.snap))
	return nil
}

// Stop ends the event loop and waits for it. Events still queued are dropped.
// Safe to call multiple times.
func (r *Runner) Stop() error {
	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return nil
	}
	r.stopped = true
	close(r.done)
	r.mu.Unlock()

	r.wg.Wait()
	r.logger.Debug("runner stopped", zap.String("machine", r.machineID), zap.Int("dropped", len(r.queue)))
	return nil
}

// Post enqueues ev without blocking.
func (r *Runner) Post(ev safetychart.Event) error {
	if err := r.accepting(); err != nil {
		return err
	}
	select {
	case r.queue <- request{ev: ev}:
		return nil
	default:
		return fmt.Errorf("post %s: %w", ev, ErrQueueFull)
	}
}

// Send enqueues ev and waits until it has been applied, returning the
// resulting snapshot.
func (r *Runner) Send(ctx context.Context, ev safetychart.Event) (safetychart.Snapshot, error) {
	if err := r.accepting(); err != nil {
		return r.Snapshot(), err
	}
	req := request{ev: ev, reply: make(chan safetychart.Snapshot, 1)}
	select {
	case r.queue <- req:
	case <-ctx.Done():
		return r.Snapshot(), ctx.Err()
	case <-r.done:
		return r.Snapshot(), ErrRunnerStopped
	}
	select {
	case s := <-req.reply:
		return s, nil
	case <-ctx.Done():
		return r.Snapshot(), ctx.Err()
	case <-r.done:
		return r.Snapshot(), ErrRunnerStopped
	}
}

// Snapshot returns the state after the most recently applied event.
func (r *Runner) Snapshot() safetychart.Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snap
}

// Await blocks until cond holds for the current snapshot, ctx is done or the
// runner stops.
func (r *Runner) Await(ctx context.Context, cond func(safetychart.Snapshot) bool) (safetychart.Snapshot, error) {
	for {
		r.mu.RLock()
		s, changed := r.snap, r.changed
		r.mu.RUnlock()
		if cond(s) {
			return s, nil
		}
		select {
		case <-changed:
		case <-ctx.Done():
			return s, ctx.Err()
		case <-r.done:
			return s, ErrRunnerStopped
		}
	}
}

func (r *Runner) accepting() error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	switch {
	case r.stopped:
		return ErrRunnerStopped
	case !r.started:
		return ErrNotStarted
	}
	return nil
}

func (r *Runner) loop(ctx context.Context) {
	defer r.wg.Done()
	for {
		select {
		case <-r.done:
			return
		case req := <-r.queue:
			r.apply(ctx, req)
		}
	}
}

// apply dispatches one event and publishes the transition before answering a
// Send. A panicking hook is not recovered: the machine may be half way
// through a transition and must not keep running.
func (r *Runner) apply(ctx context.Context, req request) {
	before := r.m.Snapshot()
	_, applied := safetychart.Next(before, req.ev)

	r.m.Dispatch(req.ev)
	after := r.m.Snapshot()

	r.mu.Lock()
	r.snap = after
	close(r.changed)
	r.changed = make(chan struct{})
	r.mu.Unlock()

	if applied {
		r.publish(ctx, safetychart.Transition{Event: req.ev, From: before, To: after})
	} else {
		r.logger.Debug("event ignored", zap.Stringer("event", req.ev), zap.Stringer("state", before))
	}

	if req.reply != nil {
		req.reply <- after
	}
}

func (r *Runner) publish(ctx context.Context, t safetychart.Transition) {
	if r.publisher == nil {
		return
	}
	md := TransitionMetadata{
		MachineID:  r.machineID,
		Transition: fmt.Sprintf("%s -> %s", t.From, t.To),
		Timestamp:  r.now(),
	}
	// Transitions applied while stopping are still recorded.
	if err := r.publisher.Publish(context.WithoutCancel(ctx), t, md); err != nil {
		r.logger.Warn("publish transition", zap.String("transition", md.Transition), zap.Error(err))
	}
}

func (r *Runner) pump(events <-chan safetychart.Event) {
	defer r.wg.Done()
	for {
		select {
		case <-r.done:
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			select {
			case r.queue <- request{ev: ev}:
			case <-r.done:
				return
			}
		}
	}
}
