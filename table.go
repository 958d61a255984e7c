package safetychart

// ruleKind says what a table cell does. The zero value ignores the event,
// so every (state, event) pair left out of a table literal is a no-op.
type ruleKind uint8

const (
	ignore   ruleKind = iota
	toTop             // leave the current top state and enter rule.top
	toSub             // move the loader to rule.sub
	complete          // loader reached Final: completion transition to Active
	delegate          // route to the loader substate table
)

type rule struct {
	kind ruleKind
	top  TopState
	sub  LoaderSubstate
}

// topRules is indexed by [current top][event].
// The BuildPlateLoader row handles Fault itself; every other event falls
// through to loaderRules, which is how the fault escape pre-empts the substates.
var topRules = [topStateCount][eventCount]rule{
	Idle: {
		EvPowerOn: {kind: toTop, top: Active},
	},
	Active: {
		EvPowerOff:    {kind: toTop, top: Idle},
		EvFault:       {kind: toTop, top: Faulted},
		EvStartLoader: {kind: toTop, top: BuildPlateLoader},
	},
	Faulted: {
		EvPowerOn: {kind: toTop, top: Active},
	},
	BuildPlateLoader: {
		EvPowerOn:            {kind: delegate},
		EvPowerOff:           {kind: delegate},
		EvFault:              {kind: toTop, top: Faulted},
		EvStartLoader:        {kind: delegate},
		EvDoorOpened:         {kind: delegate},
		EvBuildPlateLoaded:   {kind: delegate},
		EvDoorClosed:         {kind: delegate},
		EvBuildPlateUnloaded: {kind: delegate},
	},
}

// loaderRules is indexed by [current substate][event]. The None and Final
// rows are empty: None is never current inside the loader and Final is left
// in the same dispatch that enters it.
var loaderRules = [loaderSubstateCount][eventCount]rule{
	OpenDoor: {
		EvDoorOpened: {kind: toSub, sub: DoorOpened},
	},
	DoorOpened: {
		EvBuildPlateLoaded: {kind: toSub, sub: BuildPlateLoaded},
	},
	BuildPlateLoaded: {
		EvDoorClosed:         {kind: complete},
		EvBuildPlateUnloaded: {kind: toTop, top: Faulted},
	},
}

// lookup resolves the rule for ev in (top, sub).
func lookup(top TopState, sub LoaderSubstate, ev Event) rule {
	if !top.Valid() || !sub.Valid() || !ev.Valid() {
		return rule{}
	}
	r := topRules[top][ev]
	if r.kind == delegate {
		r = loaderRules[sub][ev]
	}
	return r
}

// Next reports the snapshot that ev would lead to from s, without firing
// any hook. ok is false when ev is ignored in s.
func Next(s Snapshot, ev Event) (next Snapshot, ok bool) {
	r := lookup(s.Top, s.Sub, ev)
	switch r.kind {
	case toTop:
		next = Snapshot{Top: r.top}
		if r.top == BuildPlateLoader {
			next.Sub = OpenDoor
		}
		return next, true
	case toSub:
		return Snapshot{Top: s.Top, Sub: r.sub}, true
	case complete:
		return Snapshot{Top: Active}, true
	}
	return s, false
}
