// Package testutil provides helpers shared by the safetychart test suites.
package testutil

import (
	"sync"

	"github.com/comalice/safetychart"
)

// Recorder registers an action on every hook slot and records the order in
// which they fire. It is safe for concurrent use so it can back runner tests.
type Recorder struct {
	mu    sync.Mutex
	fired []safetychart.HookID
}

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Hooks returns a HookSet with a recording action on every slot.
func (r *Recorder) Hooks() safetychart.HookSet {
	var hs safetychart.HookSet
	for _, h := range safetychart.HookIDs() {
		hs.Set(h, r.Action(h))
	}
	return hs
}

// Action returns the recording action for slot h.
func (r *Recorder) Action(h safetychart.HookID) safetychart.Action {
	return func() {
		r.mu.Lock()
		r.fired = append(r.fired, h)
		r.mu.Unlock()
	}
}

// Fired returns a copy of the recorded hooks in firing order.
func (r *Recorder) Fired() []safetychart.HookID {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]safetychart.HookID, len(r.fired))
	copy(out, r.fired)
	return out
}

// Count returns how many times slot h fired.
func (r *Recorder) Count(h safetychart.HookID) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, f := range r.fired {
		if f == h {
			n++
		}
	}
	return n
}

// Reset forgets everything recorded so far.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.fired = nil
	r.mu.Unlock()
}

// Drive dispatches events in order and returns the machine for chaining.
func Drive(m *safetychart.Machine, events ...safetychart.Event) *safetychart.Machine {
	for _, ev := range events {
		m.Dispatch(ev)
	}
	return m
}

// Reach returns the shortest event sequence that leads a fresh machine to s,
// or false if s is not reachable.
func Reach(s safetychart.Snapshot) ([]safetychart.Event, bool) {
	type node struct {
		snap safetychart.Snapshot
		path []safetychart.Event
	}
	start := safetychart.Snapshot{Top: safetychart.Idle, Sub: safetychart.None}
	seen := map[safetychart.Snapshot]bool{start: true}
	queue := []node{{snap: start}}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		if n.snap == s {
			return n.path, true
		}
		for _, ev := range safetychart.Events() {
			next, ok := safetychart.Next(n.snap, ev)
			if !ok || seen[next] {
				continue
			}
			seen[next] = true
			path := append(append([]safetychart.Event(nil), n.path...), ev)
			queue = append(queue, node{snap: next, path: path})
		}
	}
	return nil, false
}
