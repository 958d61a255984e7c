// Package safetychart implements the hierarchical state machine that governs
// the safety workflow of a build cell: powering on and off, fault handling,
// and the nested build-plate loading sequence.
//
// A Machine starts in Idle and changes state only through Dispatch. Side
// effects are attached as Actions on hook slots and run synchronously inside
// Dispatch, exit before entry. Events that do not apply to the current state
// are dropped silently and fire nothing.
//
// A Machine is not safe for concurrent use. Wrap it in a Locked, or feed it
// from a single goroutine. Hooks and observers must not call Dispatch on the
// machine that is running them.
package safetychart

import "errors"

// ErrReentrantDispatch is the panic value raised when Dispatch is called from
// inside a hook or observer of the same machine.
var ErrReentrantDispatch = errors.New("safetychart: reentrant dispatch")

// Transition describes one applied event.
type Transition struct {
	Event Event    `json:"event" yaml:"event"`
	From  Snapshot `json:"from" yaml:"from"`
	To    Snapshot `json:"to" yaml:"to"`
}

// Observer is notified after every applied transition, once all hooks have
// run. Ignored events are never observed.
type Observer interface {
	OnTransition(t Transition)
}

// ObserverFunc adapts a plain function to Observer.
type ObserverFunc func(t Transition)

func (f ObserverFunc) OnTransition(t Transition) { f(t) }

// Option configures a Machine at construction.
type Option func(*Machine)

// WithHooks installs a copy of hs.
func WithHooks(hs HookSet) Option {
	return func(m *Machine) {
		m.hooks = hs
	}
}

// WithObserver appends o to the observers. Nil observers are skipped.
func WithObserver(o Observer) Option {
	return func(m *Machine) {
		if o != nil {
			m.observers = append(m.observers, o)
		}
	}
}

// Machine is the build cell safety state machine.
type Machine struct {
	top   TopState
	sub   LoaderSubstate
	hooks HookSet

	observers   []Observer
	dispatching bool
}

// New returns a machine in (Idle, None). Construction fires no hook.
func New(opts ...Option) *Machine {
	m := &Machine{top: Idle, sub: None}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// TopState returns the current top state.
func (m *Machine) TopState() TopState { return m.top }

// LoaderSubstate returns the current loader substate, None outside BuildPlateLoader.
func (m *Machine) LoaderSubstate() LoaderSubstate { return m.sub }

// Snapshot returns the current (top, substate) pair.
func (m *Machine) Snapshot() Snapshot { return Snapshot{Top: m.top, Sub: m.sub} }

// SetHook registers a on slot h, replacing the previous action. A nil a
// un-registers the slot.
func (m *Machine) SetHook(h HookID, a Action) { m.hooks.Set(h, a) }

// SetHooks replaces every slot with the actions of hs.
func (m *Machine) SetHooks(hs HookSet) { m.hooks = hs }

// Hooks returns a copy of the registered hooks.
func (m *Machine) Hooks() HookSet { return m.hooks }

// Dispatch applies ev. It never fails: an event with no transition from the
// current state, including values outside the Event range, is a no-op.
//
// Order of side effects for a top-level change is exit(old), enter(new), then
// the OpenDoor entry when the new state is BuildPlateLoader. Leaving the loader,
// by Fault, by an unloaded plate or by completion, resets the substate to None
// without a hook of its own.
func (m *Machine) Dispatch(ev Event) {
	if m.dispatching {
		panic(ErrReentrantDispatch)
	}
	r := lookup(m.top, m.sub, ev)
	if r.kind == ignore {
		return
	}

	m.dispatching = true
	defer func() { m.dispatching = false }()

	from := m.Snapshot()
	switch r.kind {
	case toTop:
		m.changeTop(r.top)
	case toSub:
		m.enterSub(r.sub)
	case complete:
		m.sub = Final
		m.changeTop(Active)
	}
	m.notify(Transition{Event: ev, From: from, To: m.Snapshot()})
}

func (m *Machine) changeTop(next TopState) {
	// The loader's substate is gone before its exit hook runs.
	m.sub = None
	if h, ok := ExitHook(m.top); ok {
		m.hooks.fire(h)
	}
	m.top = next
	if h, ok := EnterHook(next); ok {
		m.hooks.fire(h)
	}
	if next == BuildPlateLoader {
		m.enterSub(OpenDoor)
	}
}

func (m *Machine) enterSub(next LoaderSubstate) {
	m.sub = next
	if h, ok := EntryHook(next); ok {
		m.hooks.fire(h)
	}
}

func (m *Machine) notify(t Transition) {
	for _, o := range m.observers {
		o.OnTransition(t)
	}
}
