package safetychart

import "github.com/comalice/safetychart/internal/primitives"

// ChartID identifies the chart in exported descriptions.
const ChartID = "safety"

// Chart describes the transition tables as a serializable chart. The
// description is derived from the tables the engine runs on, so it cannot
// drift from the behavior.
func Chart() primitives.ChartConfig {
	c := primitives.ChartConfig{ID: ChartID, Initial: Idle.String()}

	for _, s := range TopStates() {
		typ := primitives.Atomic
		if s == BuildPlateLoader {
			typ = primitives.Compound
		}
		sc := primitives.NewStateConfig(s.String(), typ)
		if h, ok := EnterHook(s); ok {
			sc.AddEntry(h.String())
		}
		if h, ok := ExitHook(s); ok {
			sc.AddExit(h.String())
		}
		if s == BuildPlateLoader {
			sc.WithInitial(OpenDoor.String())
			for _, sub := range LoaderSubstates() {
				switch sub {
				case None:
					continue
				case Final:
					sc.State(sub.String(), primitives.Final)
				default:
					child := sc.State(sub.String())
					if h, ok := EntryHook(sub); ok {
						child.AddEntry(h.String())
					}
				}
			}
		}
		c.States = append(c.States, sc)
	}

	for _, s := range TopStates() {
		for _, ev := range Events() {
			r := topRules[s][ev]
			if r.kind != toTop {
				continue
			}
			kind := primitives.External
			if s == BuildPlateLoader {
				kind = primitives.Escape
			}
			c.Transitions = append(c.Transitions, primitives.TransitionConfig{
				Source: s.String(),
				Event:  ev.String(),
				Target: r.top.String(),
				Kind:   kind,
			})
		}
	}

	loader := BuildPlateLoader.String()
	for _, sub := range LoaderSubstates() {
		for _, ev := range Events() {
			r := loaderRules[sub][ev]
			t := primitives.TransitionConfig{
				Source: loader + "." + sub.String(),
				Event:  ev.String(),
				Kind:   primitives.External,
			}
			switch r.kind {
			case toSub:
				t.Target = loader + "." + r.sub.String()
			case toTop:
				t.Target = r.top.String()
			case complete:
				t.Target = loader + "." + Final.String()
			default:
				continue
			}
			c.Transitions = append(c.Transitions, t)
		}
	}
	c.Transitions = append(c.Transitions, primitives.TransitionConfig{
		Source: loader,
		Target: Active.String(),
		Kind:   primitives.Completion,
	})

	return c
}
