package primitives

import (
	"errors"
	"fmt"
)

// StateType defines the kinds of states a chart may describe.
type StateType string

const (
	Atomic   StateType = "atomic"
	Compound StateType = "compound"
	Final    StateType = "final"
)

// StateConfig describes a state and, for compound states, its children.
type StateConfig struct {
	ID       string         `json:"id" yaml:"id"`
	Type     StateType      `json:"type" yaml:"type"`
	Initial  string         `json:"initial,omitempty" yaml:"initial,omitempty"`
	Entry    []string       `json:"entry,omitempty" yaml:"entry,omitempty"`
	Exit     []string       `json:"exit,omitempty" yaml:"exit,omitempty"`
	Children []*StateConfig `json:"children,omitempty" yaml:"children,omitempty"`
}

// NewStateConfig creates a new StateConfig with ID and Type.
func NewStateConfig(id string, typ StateType) *StateConfig {
	return &StateConfig{
		ID:   id,
		Type: typ,
	}
}

// WithInitial sets the initial child state ID.
func (s *StateConfig) WithInitial(initial string) *StateConfig {
	s.Initial = initial
	return s
}

// AddEntry adds an entry hook name.
func (s *StateConfig) AddEntry(hook string) *StateConfig {
	s.Entry = append(s.Entry, hook)
	return s
}

// AddExit adds an exit hook name.
func (s *StateConfig) AddExit(hook string) *StateConfig {
	s.Exit = append(s.Exit, hook)
	return s
}

// AddChild adds a child state.
func (s *StateConfig) AddChild(child *StateConfig) *StateConfig {
	s.Children = append(s.Children, child)
	return s
}

// State creates and adds a child state (atomic by default, or specified type).
// Returns the child for fluent chaining.
func (s *StateConfig) State(id string, typ ...StateType) *StateConfig {
	t := Atomic
	if len(typ) > 0 {
		t = typ[0]
	}
	child := NewStateConfig(id, t)
	s.AddChild(child)
	return child
}

// Child returns the direct child with the given ID, or nil.
func (s *StateConfig) Child(id string) *StateConfig {
	for _, c := range s.Children {
		if c.ID == id {
			return c
		}
	}
	return nil
}

// Validate performs recursive validation of the StateConfig tree.
func (s *StateConfig) Validate() error {
	if s.ID == "" {
		return errors.New("state ID is required")
	}

	switch s.Type {
	case Atomic, Final:
		if s.Initial != "" {
			return fmt.Errorf("%s state %s cannot have Initial", s.Type, s.ID)
		}
		if len(s.Children) > 0 {
			return fmt.Errorf("%s state %s cannot have Children", s.Type, s.ID)
		}
		if s.Type == Final && len(s.Entry)+len(s.Exit) > 0 {
			return fmt.Errorf("final state %s cannot have hooks", s.ID)
		}
	case Compound:
		if len(s.Children) == 0 {
			return fmt.Errorf("compound state %s requires Children", s.ID)
		}
		if s.Initial == "" {
			return fmt.Errorf("compound state %s requires Initial child", s.ID)
		}
		if s.Child(s.Initial) == nil {
			return fmt.Errorf("initial child %q not found in children of %s", s.Initial, s.ID)
		}
	default:
		return fmt.Errorf("invalid state type %q for state %s", s.Type, s.ID)
	}

	seen := make(map[string]bool, len(s.Children))
	for i, child := range s.Children {
		if seen[child.ID] {
			return fmt.Errorf("duplicate child %q in %s", child.ID, s.ID)
		}
		seen[child.ID] = true
		if err := child.Validate(); err != nil {
			return fmt.Errorf("child %d (%s) of %s failed validation: %w", i, child.ID, s.ID, err)
		}
	}

	return nil
}
