package safetychart

import (
	"fmt"
	"strings"
)

// Event is one of the discrete inputs accepted by Machine.Dispatch.
// Events carry no payload.
type Event int

const (
	EvPowerOn Event = iota
	EvPowerOff
	EvFault
	EvStartLoader
	EvDoorOpened
	EvBuildPlateLoaded
	EvDoorClosed
	EvBuildPlateUnloaded

	eventCount
)

var eventNames = [eventCount]string{
	EvPowerOn:            "PowerOn",
	EvPowerOff:           "PowerOff",
	EvFault:              "Fault",
	EvStartLoader:        "StartLoader",
	EvDoorOpened:         "DoorOpened",
	EvBuildPlateLoaded:   "BuildPlateLoaded",
	EvDoorClosed:         "DoorClosed",
	EvBuildPlateUnloaded: "BuildPlateUnloaded",
}

func (e Event) String() string {
	if e < 0 || e >= eventCount {
		return "Unknown"
	}
	return eventNames[e]
}

// Valid reports whether e is one of the declared events.
func (e Event) Valid() bool { return e >= 0 && e < eventCount }

// Events lists every event in declaration order.
func Events() []Event {
	out := make([]Event, 0, eventCount)
	for e := Event(0); e < eventCount; e++ {
		out = append(out, e)
	}
	return out
}

// ParseEvent resolves an event by name, ignoring case and an optional "Ev" prefix.
func ParseEvent(name string) (Event, error) {
	n := strings.TrimSpace(name)
	if len(n) > 2 && strings.EqualFold(n[:2], "ev") {
		if _, err := parseEventName(n); err != nil {
			n = n[2:]
		}
	}
	e, err := parseEventName(n)
	if err != nil {
		return 0, fmt.Errorf("event %q: %w", name, ErrUnknownName)
	}
	return e, nil
}

func parseEventName(n string) (Event, error) {
	for e, s := range eventNames {
		if strings.EqualFold(s, n) {
			return Event(e), nil
		}
	}
	return 0, ErrUnknownName
}

func (e Event) MarshalText() ([]byte, error) { return []byte(e.String()), nil }

func (e *Event) UnmarshalText(b []byte) error {
	v, err := ParseEvent(string(b))
	if err != nil {
		return err
	}
	*e = v
	return nil
}
