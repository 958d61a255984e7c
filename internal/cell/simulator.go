// Package cell simulates the build cell hardware driven by the loader
// substates: a door actuator and a build plate sensor.
package cell

import (
	"context"
	"sync"

	"github.com/looplab/fsm"
	"go.uber.org/zap"

	"github.com/comalice/safetychart"
)

const (
	DoorClosed = "closed"
	DoorOpen   = "open"

	eventOpen  = "open"
	eventClose = "close"
)

// Poster accepts events for later dispatch. core.Runner satisfies it.
type Poster interface {
	Post(ev safetychart.Event) error
}

// Simulator implements safetychart.Cell. Every request completes at once
// and reports back by posting the matching event.
type Simulator struct {
	mu         sync.Mutex
	door       *fsm.FSM
	plate      bool
	faultArmed bool

	poster Poster
	logger *zap.Logger
}

var _ safetychart.Cell = (*Simulator)(nil)

// Option configures a Simulator.
type Option func(*Simulator)

// WithLogger sets the simulator's logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Simulator) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithFaultInjection arms a fault for the first request.
func WithFaultInjection() Option {
	return func(s *Simulator) { s.faultArmed = true }
}

// NewSimulator returns a cell with the door closed and no plate, reporting
// to p.
func NewSimulator(p Poster, opts ...Option) *Simulator {
	s := &Simulator{poster: p, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	s.door = newDoor(s.logger)
	return s
}

func newDoor(logger *zap.Logger) *fsm.FSM {
	return fsm.NewFSM(
		DoorClosed,
		fsm.Events{
			{Name: eventOpen, Src: []string{DoorClosed}, Dst: DoorOpen},
			{Name: eventClose, Src: []string{DoorOpen}, Dst: DoorClosed},
		},
		fsm.Callbacks{
			"enter_state": func(_ context.Context, e *fsm.Event) {
				logger.Debug("door moved", zap.String("from", e.Src), zap.String("to", e.Dst))
			},
		},
	)
}

// ArmFault makes the next request report Fault instead of completing.
func (s *Simulator) ArmFault() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faultArmed = true
}

// Door returns the door state, DoorClosed or DoorOpen.
func (s *Simulator) Door() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.door.Current()
}

// PlatePresent reports whether a build plate sits in the cell.
func (s *Simulator) PlatePresent() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.plate
}

// RequestDoorOpen drives the door open and reports DoorOpened.
func (s *Simulator) RequestDoorOpen() {
	s.actuate(eventOpen, safetychart.EvDoorOpened)
}

// RequestDoorClose drives the door closed and reports DoorClosed.
func (s *Simulator) RequestDoorClose() {
	s.actuate(eventClose, safetychart.EvDoorClosed)
}

// RequestLoadBuildPlateNotification places a plate and reports
// BuildPlateLoaded. Loading through a closed door is a fault.
func (s *Simulator) RequestLoadBuildPlateNotification() {
	s.mu.Lock()
	ev := safetychart.EvBuildPlateLoaded
	switch {
	case s.takeFault():
		ev = safetychart.EvFault
	case s.door.Current() != DoorOpen:
		s.logger.Warn("plate load requested with door closed")
		ev = safetychart.EvFault
	default:
		s.plate = true
	}
	s.mu.Unlock()
	s.post(ev)
}

// RemovePlate takes the plate out and reports BuildPlateUnloaded.
func (s *Simulator) RemovePlate() {
	s.mu.Lock()
	had := s.plate
	s.plate = false
	s.mu.Unlock()
	if had {
		s.post(safetychart.EvBuildPlateUnloaded)
	}
}

// Reset closes the door and empties the cell without reporting anything,
// as an operator would after a fault.
func (s *Simulator) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.door.SetState(DoorClosed)
	s.plate = false
	s.faultArmed = false
}

func (s *Simulator) actuate(action string, done safetychart.Event) {
	s.mu.Lock()
	ev := done
	if s.takeFault() {
		ev = safetychart.EvFault
	} else if err := s.door.Event(context.Background(), action); err != nil {
		s.logger.Warn("door actuator rejected request", zap.String("action", action), zap.Error(err))
		ev = safetychart.EvFault
	}
	s.mu.Unlock()
	s.post(ev)
}

// takeFault consumes an armed fault. Callers hold s.mu.
func (s *Simulator) takeFault() bool {
	if !s.faultArmed {
		return false
	}
	s.faultArmed = false
	s.logger.Info("injecting fault")
	return true
}

func (s *Simulator) post(ev safetychart.Event) {
	if err := s.poster.Post(ev); err != nil {
		s.logger.Error("post event", zap.Stringer("event", ev), zap.Error(err))
	}
}
