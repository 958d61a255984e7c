// Package benchmarks measures the engine behind its concurrent front ends.
package benchmarks

import (
	"context"

	"github.com/comalice/safetychart"
	"github.com/comalice/safetychart/internal/core"
)

// LoaderCycle is one full power-on, load and power-off sequence. Applying it
// from Idle returns to Idle.
var LoaderCycle = []safetychart.Event{
	safetychart.EvPowerOn,
	safetychart.EvStartLoader,
	safetychart.EvDoorOpened,
	safetychart.EvBuildPlateLoaded,
	safetychart.EvDoorClosed,
	safetychart.EvPowerOff,
}

// StartRunner starts a runner over a fresh machine configured by opts.
func StartRunner(ctx context.Context, queueSize int, opts ...safetychart.Option) (*core.Runner, *safetychart.Machine, error) {
	m := safetychart.New(opts...)
	r := core.NewRunner(m, core.WithQueueSize(queueSize))
	if err := r.Start(ctx); err != nil {
		return nil, nil, err
	}
	return r, m, nil
}
