package safetychart

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownName is returned by the Parse* helpers for names outside the chart.
var ErrUnknownName = errors.New("unknown name")

// TopState is the outer operating mode of the machine.
type TopState int

const (
	Idle TopState = iota
	Active
	Faulted
	BuildPlateLoader

	topStateCount
)

var topStateNames = [topStateCount]string{
	Idle:             "Idle",
	Active:           "Active",
	Faulted:          "Faulted",
	BuildPlateLoader: "BuildPlateLoader",
}

func (s TopState) String() string {
	if s < 0 || s >= topStateCount {
		return "Unknown"
	}
	return topStateNames[s]
}

// Valid reports whether s is one of the declared top states.
func (s TopState) Valid() bool { return s >= 0 && s < topStateCount }

// TopStates lists every top state in declaration order.
func TopStates() []TopState {
	out := make([]TopState, 0, topStateCount)
	for s := TopState(0); s < topStateCount; s++ {
		out = append(out, s)
	}
	return out
}

// ParseTopState resolves a top state by name, ignoring case.
func ParseTopState(name string) (TopState, error) {
	for s, n := range topStateNames {
		if strings.EqualFold(n, name) {
			return TopState(s), nil
		}
	}
	return 0, fmt.Errorf("top state %q: %w", name, ErrUnknownName)
}

// LoaderSubstate is the nested state of the build-plate loader.
// It is None whenever the top state is not BuildPlateLoader.
type LoaderSubstate int

const (
	None LoaderSubstate = iota
	OpenDoor
	DoorOpened
	BuildPlateLoaded
	Final

	loaderSubstateCount
)

var loaderSubstateNames = [loaderSubstateCount]string{
	None:             "None",
	OpenDoor:         "OpenDoor",
	DoorOpened:       "DoorOpened",
	BuildPlateLoaded: "BuildPlateLoaded",
	Final:            "Final",
}

func (s LoaderSubstate) String() string {
	if s < 0 || s >= loaderSubstateCount {
		return "Unknown"
	}
	return loaderSubstateNames[s]
}

// Valid reports whether s is one of the declared loader substates.
func (s LoaderSubstate) Valid() bool { return s >= 0 && s < loaderSubstateCount }

// LoaderSubstates lists every loader substate in declaration order.
func LoaderSubstates() []LoaderSubstate {
	out := make([]LoaderSubstate, 0, loaderSubstateCount)
	for s := LoaderSubstate(0); s < loaderSubstateCount; s++ {
		out = append(out, s)
	}
	return out
}

// ParseLoaderSubstate resolves a loader substate by name, ignoring case.
func ParseLoaderSubstate(name string) (LoaderSubstate, error) {
	for s, n := range loaderSubstateNames {
		if strings.EqualFold(n, name) {
			return LoaderSubstate(s), nil
		}
	}
	return 0, fmt.Errorf("loader substate %q: %w", name, ErrUnknownName)
}

// ErrInconsistentSnapshot is returned for a (top, substate) pair that cannot
// be observed between dispatches.
var ErrInconsistentSnapshot = errors.New("inconsistent snapshot")

// Snapshot is the (top, substate) pair observed at one instant.
type Snapshot struct {
	Top TopState       `json:"top" yaml:"top"`
	Sub LoaderSubstate `json:"sub" yaml:"sub"`
}

func (s Snapshot) String() string {
	if s.Sub == None {
		return s.Top.String()
	}
	return s.Top.String() + "/" + s.Sub.String()
}

// Consistent reports whether the pair can be observed between dispatches:
// outside the loader the substate is None, inside it is one of the three
// working substates.
func (s Snapshot) Consistent() bool {
	if s.Top != BuildPlateLoader {
		return s.Sub == None
	}
	return s.Sub != None && s.Sub != Final && s.Sub.Valid()
}

// ParseSnapshot parses the String form, "Top" or "Top/Sub". Pairs that no
// event sequence can produce, such as "Idle/OpenDoor", are rejected.
func ParseSnapshot(text string) (Snapshot, error) {
	top, sub, nested := strings.Cut(strings.TrimSpace(text), "/")
	t, err := ParseTopState(top)
	if err != nil {
		return Snapshot{}, err
	}
	s := Snapshot{Top: t}
	if nested {
		if s.Sub, err = ParseLoaderSubstate(sub); err != nil {
			return Snapshot{}, err
		}
	}
	if !s.Consistent() {
		return Snapshot{}, fmt.Errorf("snapshot %q: %w", text, ErrInconsistentSnapshot)
	}
	return s, nil
}

func (s TopState) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *TopState) UnmarshalText(b []byte) error {
	v, err := ParseTopState(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

func (s LoaderSubstate) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *LoaderSubstate) UnmarshalText(b []byte) error {
	v, err := ParseLoaderSubstate(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}
