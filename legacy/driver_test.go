package legacy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comalice/safetychart"
)

func newDriver() *Driver {
	return NewDriver(safetychart.NewLocked(safetychart.New()))
}

func assertDump(t *testing.T, d *Driver, mode, step int, msg string) {
	t.Helper()
	gotMode, gotStep := d.Dump()
	assert.Equal(t, [2]int{mode, step}, [2]int{gotMode, gotStep}, msg)
}

func TestDriverFullCycle(t *testing.T) {
	d := newDriver()
	steps := []struct {
		cmd        int
		mode, step int
	}{
		{0, 1, 0},
		{3, 1, 1},
		{4, 1, 2},
		{5, 1, 3},
		{6, 1, 0},
		{1, 0, 0},
	}
	for _, s := range steps {
		require.NoError(t, d.Run(s.cmd))
		assertDump(t, d, s.mode, s.step, "after command")
	}
}

func TestDriverFaultAndRecovery(t *testing.T) {
	d := newDriver()
	for _, cmd := range []int{0, 3, 2} {
		require.NoError(t, d.Run(cmd))
	}
	assertDump(t, d, 2, 0, "faulted")

	require.NoError(t, d.Run(0))
	assertDump(t, d, 1, 0, "recovered")
}

func TestDriverFollowsStateMachine(t *testing.T) {
	d := newDriver()
	// The old driver allowed powering off from any mode; Idle ignores it.
	require.NoError(t, d.Run(1))
	require.NoError(t, d.Run(2))
	assertDump(t, d, 0, 0, "fault is ignored while off")

	for _, cmd := range []int{0, 3, 1} {
		require.NoError(t, d.Run(cmd))
	}
	assertDump(t, d, 1, 1, "power off is ignored inside the loader")
}

func TestDriverUnknownCommand(t *testing.T) {
	d := newDriver()
	for _, cmd := range []int{-1, 7, 42} {
		assert.ErrorIs(t, d.Run(cmd), ErrUnknownCommand)
	}
	assertDump(t, d, 0, 0, "unchanged")
}
