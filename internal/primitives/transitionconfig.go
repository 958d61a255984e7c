package primitives

import (
	"errors"
	"fmt"
	"strings"
)

// TransitionKind distinguishes how a transition is triggered.
type TransitionKind string

const (
	// External transitions are triggered by a dispatched event.
	External TransitionKind = "external"
	// Completion transitions fire when a compound state reaches its final child.
	Completion TransitionKind = "completion"
	// Escape transitions are handled by a compound state ahead of its children.
	Escape TransitionKind = "escape"
)

// TransitionConfig describes one edge of the chart. Source and Target are
// dot-separated state paths, e.g. "BuildPlateLoader.OpenDoor".
type TransitionConfig struct {
	Source string         `json:"source" yaml:"source"`
	Event  string         `json:"event,omitempty" yaml:"event,omitempty"`
	Target string         `json:"target" yaml:"target"`
	Kind   TransitionKind `json:"kind" yaml:"kind"`
}

// Validate checks TransitionConfig fields and path syntax.
func (t *TransitionConfig) Validate() error {
	switch t.Kind {
	case External, Escape:
		if t.Event == "" {
			return fmt.Errorf("%s transition requires an event", t.Kind)
		}
	case Completion:
		if t.Event != "" {
			return errors.New("completion transition cannot have an event")
		}
	default:
		return fmt.Errorf("invalid transition kind %q", t.Kind)
	}
	if err := validatePath(t.Source); err != nil {
		return fmt.Errorf("source: %w", err)
	}
	if err := validatePath(t.Target); err != nil {
		return fmt.Errorf("target: %w", err)
	}
	return nil
}

// Label renders the transition for diagrams.
func (t *TransitionConfig) Label() string {
	switch t.Kind {
	case Completion:
		return "[done]"
	case Escape:
		return t.Event + " (escape)"
	}
	return t.Event
}

func validatePath(path string) error {
	if path == "" {
		return errors.New("path is required")
	}
	for i, seg := range strings.Split(path, ".") {
		if seg == "" {
			return fmt.Errorf("invalid path %q: empty segment at index %d", path, i)
		}
		for _, r := range seg {
			if !((r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' || r == '-') {
				return fmt.Errorf("invalid path %q: invalid character '%c' at index %d", path, r, i)
			}
		}
	}
	return nil
}
