// Package legacy keeps the flat integer command interface of the first cell
// controller alive on top of the state machine.
package legacy

import (
	"errors"
	"fmt"

	"github.com/comalice/safetychart"
)

// ErrUnknownCommand is returned for commands outside 0..6.
var ErrUnknownCommand = errors.New("unknown command")

// commands is indexed by the old code: powerOn, powerOff, fault, start,
// doorOpened, plateArrived, doorClosed.
var commands = [...]safetychart.Event{
	safetychart.EvPowerOn,
	safetychart.EvPowerOff,
	safetychart.EvFault,
	safetychart.EvStartLoader,
	safetychart.EvDoorOpened,
	safetychart.EvBuildPlateLoaded,
	safetychart.EvDoorClosed,
}

// Driver runs old commands against a machine. It is safe for concurrent use.
type Driver struct {
	m *safetychart.Locked
}

func NewDriver(m *safetychart.Locked) *Driver { return &Driver{m: m} }

// Run applies cmd. Commands that do not apply to the current state are ignored.
func (d *Driver) Run(cmd int) error {
	if cmd < 0 || cmd >= len(commands) {
		return fmt.Errorf("command %d: %w", cmd, ErrUnknownCommand)
	}
	d.m.Dispatch(commands[cmd])
	return nil
}

// Dump reports the old pair: mode 0=off, 1=on, 2=fault; step 1..3 counts the
// loader substates and is 0 outside the loader.
func (d *Driver) Dump() (mode, step int) {
	s := d.m.Snapshot()
	switch s.Top {
	case safetychart.Idle:
		return 0, 0
	case safetychart.Faulted:
		return 2, 0
	case safetychart.BuildPlateLoader:
		return 1, int(s.Sub) // OpenDoor, DoorOpened, BuildPlateLoaded are 1..3
	}
	return 1, 0
}
