package primitives

import (
	"errors"
	"fmt"
	"strings"
)

// ChartConfig is the complete description of a chart.
type ChartConfig struct {
	ID          string             `json:"id" yaml:"id"`
	Initial     string             `json:"initial" yaml:"initial"`
	States      []*StateConfig     `json:"states" yaml:"states"`
	Transitions []TransitionConfig `json:"transitions" yaml:"transitions"`
}

// Validate validates the entire chart:
// - Non-empty ID and Initial
// - Initial exists among the top-level states
// - All states validate (recursive)
// - All transition sources and targets resolve
func (c *ChartConfig) Validate() error {
	if c.ID == "" {
		return errors.New("chart ID is required")
	}
	if c.Initial == "" {
		return errors.New("initial state ID is required")
	}
	if len(c.States) == 0 {
		return errors.New("states are required and cannot be empty")
	}

	seen := make(map[string]bool, len(c.States))
	for _, s := range c.States {
		if s == nil {
			return errors.New("nil state")
		}
		if seen[s.ID] {
			return fmt.Errorf("duplicate state %q", s.ID)
		}
		seen[s.ID] = true
		if err := s.Validate(); err != nil {
			return fmt.Errorf("state %q validation failed: %w", s.ID, err)
		}
	}
	if !seen[c.Initial] {
		return fmt.Errorf("initial state %q not found in states", c.Initial)
	}

	var errs []error
	for i := range c.Transitions {
		t := &c.Transitions[i]
		if err := t.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("transition %d: %w", i, err))
			continue
		}
		if _, err := c.FindState(t.Source); err != nil {
			errs = append(errs, fmt.Errorf("transition %d source: %w", i, err))
		}
		if _, err := c.FindState(t.Target); err != nil {
			errs = append(errs, fmt.Errorf("transition %d target: %w", i, err))
		}
	}
	return errors.Join(errs...)
}

// FindState resolves a state by hierarchical path (e.g. "parent.child").
func (c *ChartConfig) FindState(path string) (*StateConfig, error) {
	if path == "" {
		return nil, errors.New("path cannot be empty")
	}
	segments := strings.Split(path, ".")
	var current *StateConfig
	for _, s := range c.States {
		if s.ID == segments[0] {
			current = s
			break
		}
	}
	if current == nil {
		return nil, fmt.Errorf("state %q not found", segments[0])
	}
	for i := 1; i < len(segments); i++ {
		next := current.Child(segments[i])
		if next == nil {
			return nil, fmt.Errorf("child %q not found in %q", segments[i], strings.Join(segments[:i], "."))
		}
		current = next
	}
	return current, nil
}

// Paths returns the path of every state, parents before children.
func (c *ChartConfig) Paths() []string {
	var out []string
	var walk func(prefix string, s *StateConfig)
	walk = func(prefix string, s *StateConfig) {
		p := s.ID
		if prefix != "" {
			p = prefix + "." + s.ID
		}
		out = append(out, p)
		for _, child := range s.Children {
			walk(p, child)
		}
	}
	for _, s := range c.States {
		walk("", s)
	}
	return out
}

// TransitionsFrom returns the transitions whose source is path.
func (c *ChartConfig) TransitionsFrom(path string) []TransitionConfig {
	var out []TransitionConfig
	for _, t := range c.Transitions {
		if t.Source == path {
			out = append(out, t)
		}
	}
	return out
}
