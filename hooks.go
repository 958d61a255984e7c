package safetychart

import (
	"fmt"
	"strings"
)

// Action is a side effect registered on a hook slot.
type Action func()

// HookID names one hook slot: a top-state entry or exit, or a loader substate entry.
type HookID int

const (
	IdleEnter HookID = iota
	IdleExit
	ActiveEnter
	ActiveExit
	FaultedEnter
	FaultedExit
	BuildPlateLoaderEnter
	BuildPlateLoaderExit
	OpenDoorEntry
	DoorOpenedEntry
	BuildPlateLoadedEntry

	hookCount
)

var hookNames = [hookCount]string{
	IdleEnter:             "Idle.enter",
	IdleExit:              "Idle.exit",
	ActiveEnter:           "Active.enter",
	ActiveExit:            "Active.exit",
	FaultedEnter:          "Faulted.enter",
	FaultedExit:           "Faulted.exit",
	BuildPlateLoaderEnter: "BuildPlateLoader.enter",
	BuildPlateLoaderExit:  "BuildPlateLoader.exit",
	OpenDoorEntry:         "OpenDoor.entry",
	DoorOpenedEntry:       "DoorOpened.entry",
	BuildPlateLoadedEntry: "BuildPlateLoaded.entry",
}

func (h HookID) String() string {
	if h < 0 || h >= hookCount {
		return "Unknown"
	}
	return hookNames[h]
}

// Valid reports whether h is one of the declared hook slots.
func (h HookID) Valid() bool { return h >= 0 && h < hookCount }

// HookIDs lists every hook slot in declaration order.
func HookIDs() []HookID {
	out := make([]HookID, 0, hookCount)
	for h := HookID(0); h < hookCount; h++ {
		out = append(out, h)
	}
	return out
}

// ParseHookID resolves a hook slot from its "<State>.enter", "<State>.exit"
// or "<Substate>.entry" name, ignoring case.
func ParseHookID(name string) (HookID, error) {
	for h, n := range hookNames {
		if strings.EqualFold(n, strings.TrimSpace(name)) {
			return HookID(h), nil
		}
	}
	return 0, fmt.Errorf("hook %q: %w", name, ErrUnknownName)
}

// EnterHook returns the entry slot of a top state.
func EnterHook(s TopState) (HookID, bool) {
	if !s.Valid() {
		return 0, false
	}
	return HookID(2 * int(s)), true
}

// ExitHook returns the exit slot of a top state.
func ExitHook(s TopState) (HookID, bool) {
	if !s.Valid() {
		return 0, false
	}
	return HookID(2*int(s) + 1), true
}

// EntryHook returns the entry slot of a loader substate. None and Final have none.
func EntryHook(s LoaderSubstate) (HookID, bool) {
	switch s {
	case OpenDoor:
		return OpenDoorEntry, true
	case DoorOpened:
		return DoorOpenedEntry, true
	case BuildPlateLoaded:
		return BuildPlateLoadedEntry, true
	}
	return 0, false
}

// HookSet holds at most one Action per hook slot. The zero value has nothing
// registered and is ready to use. Copies are independent.
type HookSet struct {
	actions [hookCount]Action
}

// Set registers a on slot h, replacing any previous action. A nil a
// un-registers the slot. Unknown slots are ignored.
func (hs *HookSet) Set(h HookID, a Action) {
	if !h.Valid() {
		return
	}
	hs.actions[h] = a
}

// Clear un-registers slot h.
func (hs *HookSet) Clear(h HookID) { hs.Set(h, nil) }

// Get returns the action registered on slot h, or nil.
func (hs HookSet) Get(h HookID) Action {
	if !h.Valid() {
		return nil
	}
	return hs.actions[h]
}

// Registered reports whether slot h has an action.
func (hs HookSet) Registered(h HookID) bool { return hs.Get(h) != nil }

// fire runs the action on slot h if one is registered.
func (hs *HookSet) fire(h HookID) {
	if a := hs.Get(h); a != nil {
		a()
	}
}

// Cell is the hardware-facing capability driven by the loader substates.
// The machine only asks; the Cell decides how and reports back through events.
type Cell interface {
	RequestDoorOpen()
	RequestLoadBuildPlateNotification()
	RequestDoorClose()
}

// BindCell registers c's requests on the loader substate entry slots.
func BindCell(hs *HookSet, c Cell) {
	hs.Set(OpenDoorEntry, c.RequestDoorOpen)
	hs.Set(DoorOpenedEntry, c.RequestLoadBuildPlateNotification)
	hs.Set(BuildPlateLoadedEntry, c.RequestDoorClose)
}
