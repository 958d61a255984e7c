package safetychart

import (
	"errors"
	"fmt"
)

// HookBuilder provides a fluent API for assembling a HookSet by state or by
// hook name. Invalid registrations are collected and reported by Build.
type HookBuilder struct {
	hooks HookSet
	errs  []error
}

// NewHookBuilder returns an empty builder.
func NewHookBuilder() *HookBuilder {
	return &HookBuilder{}
}

// OnEnter registers a on the entry of top state s.
func (b *HookBuilder) OnEnter(s TopState, a Action) *HookBuilder {
	h, ok := EnterHook(s)
	if !ok {
		b.errs = append(b.errs, fmt.Errorf("enter hook for top state %d: %w", int(s), ErrUnknownName))
		return b
	}
	b.hooks.Set(h, a)
	return b
}

// OnExit registers a on the exit of top state s.
func (b *HookBuilder) OnExit(s TopState, a Action) *HookBuilder {
	h, ok := ExitHook(s)
	if !ok {
		b.errs = append(b.errs, fmt.Errorf("exit hook for top state %d: %w", int(s), ErrUnknownName))
		return b
	}
	b.hooks.Set(h, a)
	return b
}

// OnEntry registers a on the entry of loader substate s.
// None and Final have no entry slot.
func (b *HookBuilder) OnEntry(s LoaderSubstate, a Action) *HookBuilder {
	h, ok := EntryHook(s)
	if !ok {
		b.errs = append(b.errs, fmt.Errorf("loader substate %s has no entry hook", s))
		return b
	}
	b.hooks.Set(h, a)
	return b
}

// Bind registers a on the slot named name, e.g. "Active.exit" or "OpenDoor.entry".
func (b *HookBuilder) Bind(name string, a Action) *HookBuilder {
	h, err := ParseHookID(name)
	if err != nil {
		b.errs = append(b.errs, err)
		return b
	}
	b.hooks.Set(h, a)
	return b
}

// Cell binds the loader requests of c.
func (b *HookBuilder) Cell(c Cell) *HookBuilder {
	if c == nil {
		b.errs = append(b.errs, errors.New("nil cell"))
		return b
	}
	BindCell(&b.hooks, c)
	return b
}

// Build returns the assembled hooks, or every registration error joined.
func (b *HookBuilder) Build() (HookSet, error) {
	if len(b.errs) > 0 {
		return HookSet{}, errors.Join(b.errs...)
	}
	return b.hooks, nil
}
