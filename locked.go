package safetychart

import "sync"

// Locked serializes access to a Machine so it can be driven from several
// goroutines. Hooks still run under the lock and must not call back into it.
type Locked struct {
	mu sync.Mutex
	m  *Machine
}

// NewLocked wraps m. The caller must not use m directly afterwards.
func NewLocked(m *Machine) *Locked {
	return &Locked{m: m}
}

// Dispatch applies ev under the lock.
func (l *Locked) Dispatch(ev Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.m.Dispatch(ev)
}

// Snapshot returns the current (top, substate) pair.
func (l *Locked) Snapshot() Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.m.Snapshot()
}

// TopState returns the current top state.
func (l *Locked) TopState() TopState {
	return l.Snapshot().Top
}

// LoaderSubstate returns the current loader substate.
func (l *Locked) LoaderSubstate() LoaderSubstate {
	return l.Snapshot().Sub
}

// SetHook replaces the action on slot h under the lock.
func (l *Locked) SetHook(h HookID, a Action) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.m.SetHook(h, a)
}
