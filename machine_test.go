package safetychart_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/comalice/safetychart"
	"github.com/comalice/safetychart/testutil"
)

// reachable lists every snapshot a fresh machine can rest in.
var reachable = []Snapshot{
	{Top: Idle, Sub: None},
	{Top: Active, Sub: None},
	{Top: Faulted, Sub: None},
	{Top: BuildPlateLoader, Sub: OpenDoor},
	{Top: BuildPlateLoader, Sub: DoorOpened},
	{Top: BuildPlateLoader, Sub: BuildPlateLoaded},
}

// machineAt drives a fresh machine to s and then attaches a fresh recorder,
// so only hooks fired after setup are observed.
func machineAt(t *testing.T, s Snapshot) (*Machine, *testutil.Recorder) {
	t.Helper()
	path, ok := testutil.Reach(s)
	require.True(t, ok, "snapshot %s not reachable", s)
	m := testutil.Drive(New(), path...)
	require.Equal(t, s, m.Snapshot())

	r := testutil.NewRecorder()
	for _, h := range HookIDs() {
		m.SetHook(h, r.Action(h))
	}
	return m, r
}

func TestNewStartsIdleWithoutHooks(t *testing.T) {
	r := testutil.NewRecorder()
	m := New(WithHooks(r.Hooks()))

	assert.Equal(t, Idle, m.TopState())
	assert.Equal(t, None, m.LoaderSubstate())
	assert.Empty(t, r.Fired(), "construction is not an entry event")
}

func TestPowerOnFromIdle(t *testing.T) {
	m, r := machineAt(t, Snapshot{Top: Idle})

	m.Dispatch(EvPowerOn)

	assert.Equal(t, Snapshot{Top: Active}, m.Snapshot())
	assert.Equal(t, []HookID{IdleExit, ActiveEnter}, r.Fired())
}

func TestStartLoaderEntersOpenDoor(t *testing.T) {
	m, r := machineAt(t, Snapshot{Top: Active})

	m.Dispatch(EvStartLoader)

	assert.Equal(t, Snapshot{Top: BuildPlateLoader, Sub: OpenDoor}, m.Snapshot())
	assert.Equal(t, []HookID{ActiveExit, BuildPlateLoaderEnter, OpenDoorEntry}, r.Fired())
}

func TestLoaderRunsToCompletion(t *testing.T) {
	m, r := machineAt(t, Snapshot{Top: BuildPlateLoader, Sub: OpenDoor})

	m.Dispatch(EvDoorOpened)
	assert.Equal(t, Snapshot{Top: BuildPlateLoader, Sub: DoorOpened}, m.Snapshot())

	m.Dispatch(EvBuildPlateLoaded)
	assert.Equal(t, Snapshot{Top: BuildPlateLoader, Sub: BuildPlateLoaded}, m.Snapshot())

	m.Dispatch(EvDoorClosed)
	assert.Equal(t, Snapshot{Top: Active, Sub: None}, m.Snapshot())

	assert.Equal(t, []HookID{DoorOpenedEntry, BuildPlateLoadedEntry, BuildPlateLoaderExit, ActiveEnter}, r.Fired())
	assert.Equal(t, 1, r.Count(BuildPlateLoadedEntry), "door close requested once")
}

func TestCompletionOrdering(t *testing.T) {
	m, r := machineAt(t, Snapshot{Top: BuildPlateLoader, Sub: BuildPlateLoaded})

	m.Dispatch(EvDoorClosed)

	assert.Equal(t, Snapshot{Top: Active}, m.Snapshot())
	assert.Equal(t, []HookID{BuildPlateLoaderExit, ActiveEnter}, r.Fired())
}

func TestFaultEscapesEveryLoaderSubstate(t *testing.T) {
	for _, sub := range []LoaderSubstate{OpenDoor, DoorOpened, BuildPlateLoaded} {
		t.Run(sub.String(), func(t *testing.T) {
			m, r := machineAt(t, Snapshot{Top: BuildPlateLoader, Sub: sub})

			m.Dispatch(EvFault)

			assert.Equal(t, Snapshot{Top: Faulted, Sub: None}, m.Snapshot())
			assert.Equal(t, []HookID{BuildPlateLoaderExit, FaultedEnter}, r.Fired())
		})
	}
}

func TestFaultFromDoorOpenedDoesNotReplayEntries(t *testing.T) {
	r := testutil.NewRecorder()
	m := New(WithHooks(r.Hooks()))
	testutil.Drive(m, EvPowerOn, EvStartLoader, EvDoorOpened)
	require.Equal(t, 1, r.Count(OpenDoorEntry))
	require.Equal(t, 1, r.Count(DoorOpenedEntry))
	r.Reset()

	m.Dispatch(EvFault)

	assert.Equal(t, Snapshot{Top: Faulted}, m.Snapshot())
	assert.Equal(t, []HookID{BuildPlateLoaderExit, FaultedEnter}, r.Fired())
}

func TestFaultFromActive(t *testing.T) {
	m, r := machineAt(t, Snapshot{Top: Active})

	m.Dispatch(EvFault)

	assert.Equal(t, Snapshot{Top: Faulted}, m.Snapshot())
	assert.Equal(t, []HookID{ActiveExit, FaultedEnter}, r.Fired())
}

func TestPowerOnRecoversFromFault(t *testing.T) {
	m, r := machineAt(t, Snapshot{Top: Faulted})

	m.Dispatch(EvPowerOff)
	assert.Equal(t, Snapshot{Top: Faulted}, m.Snapshot(), "power off is ignored while faulted")

	m.Dispatch(EvPowerOn)
	assert.Equal(t, Snapshot{Top: Active}, m.Snapshot())
	assert.Equal(t, []HookID{FaultedExit, ActiveEnter}, r.Fired())
}

func TestPowerOffFromActive(t *testing.T) {
	m, r := machineAt(t, Snapshot{Top: Active})

	m.Dispatch(EvPowerOff)

	assert.Equal(t, Snapshot{Top: Idle}, m.Snapshot())
	assert.Equal(t, []HookID{ActiveExit, IdleEnter}, r.Fired())
}

func TestPlateUnloadedAbortsToFaulted(t *testing.T) {
	m, r := machineAt(t, Snapshot{Top: BuildPlateLoader, Sub: BuildPlateLoaded})

	m.Dispatch(EvBuildPlateUnloaded)

	assert.Equal(t, Snapshot{Top: Faulted}, m.Snapshot())
	assert.Equal(t, []HookID{BuildPlateLoaderExit, FaultedEnter}, r.Fired())
}

func TestPowerOffInIdleIsSilent(t *testing.T) {
	m, r := machineAt(t, Snapshot{Top: Idle})

	m.Dispatch(EvPowerOff)

	assert.Equal(t, Snapshot{Top: Idle}, m.Snapshot())
	assert.Empty(t, r.Fired())
}

func TestIgnoredEventsAreSilent(t *testing.T) {
	for _, s := range reachable {
		for _, ev := range Events() {
			if _, ok := Next(s, ev); ok {
				continue
			}
			t.Run(s.String()+"/"+ev.String(), func(t *testing.T) {
				m, r := machineAt(t, s)
				var observed int
				m2 := New(WithHooks(m.Hooks()), WithObserver(ObserverFunc(func(Transition) { observed++ })))
				testutil.Drive(m2, mustReach(t, s)...)
				r.Reset()
				observed = 0

				m.Dispatch(ev)
				m2.Dispatch(ev)

				assert.Equal(t, s, m.Snapshot())
				assert.Equal(t, s, m2.Snapshot())
				assert.Empty(t, r.Fired())
				assert.Zero(t, observed)
			})
		}
	}
}

func TestOutOfRangeEventIsIgnored(t *testing.T) {
	m, r := machineAt(t, Snapshot{Top: Active})

	m.Dispatch(Event(-1))
	m.Dispatch(Event(99))

	assert.Equal(t, Snapshot{Top: Active}, m.Snapshot())
	assert.Empty(t, r.Fired())
}

func TestDispatchAgreesWithNext(t *testing.T) {
	for _, s := range reachable {
		for _, ev := range Events() {
			m, _ := machineAt(t, s)
			want, _ := Next(s, ev)

			m.Dispatch(ev)

			assert.Equal(t, want, m.Snapshot(), "%s on %s", ev, s)
			assert.True(t, m.Snapshot().Consistent(), "%s on %s", ev, s)
		}
	}
}

func TestMissingHookDoesNotBlockTransition(t *testing.T) {
	r := testutil.NewRecorder()
	hs := r.Hooks()
	hs.Clear(ActiveEnter)
	hs.Clear(OpenDoorEntry)
	m := New(WithHooks(hs))

	testutil.Drive(m, EvPowerOn, EvStartLoader)

	assert.Equal(t, Snapshot{Top: BuildPlateLoader, Sub: OpenDoor}, m.Snapshot())
	assert.Equal(t, []HookID{IdleExit, ActiveExit, BuildPlateLoaderEnter}, r.Fired())
}

func TestNoHooksAtAll(t *testing.T) {
	m := New()
	testutil.Drive(m, EvPowerOn, EvStartLoader, EvDoorOpened, EvBuildPlateLoaded, EvDoorClosed)
	assert.Equal(t, Snapshot{Top: Active}, m.Snapshot())
}

func TestSetHookLastWriteWins(t *testing.T) {
	var first, second int
	m := New()
	m.SetHook(IdleExit, func() { first++ })
	m.SetHook(IdleExit, func() { second++ })

	m.Dispatch(EvPowerOn)
	assert.Zero(t, first)
	assert.Equal(t, 1, second)

	m.SetHook(ActiveExit, func() { first++ })
	m.SetHook(ActiveExit, nil)
	m.Dispatch(EvPowerOff)
	assert.Zero(t, first, "nil un-registers")
}

func TestHooksSeeStateOfTheirSide(t *testing.T) {
	var m *Machine
	var seen []Snapshot
	record := func() { seen = append(seen, m.Snapshot()) }
	m = New()
	m.SetHook(ActiveExit, record)
	m.SetHook(BuildPlateLoaderEnter, record)
	m.SetHook(OpenDoorEntry, record)

	testutil.Drive(m, EvPowerOn, EvStartLoader)

	assert.Equal(t, []Snapshot{
		{Top: Active},
		{Top: BuildPlateLoader, Sub: None},
		{Top: BuildPlateLoader, Sub: OpenDoor},
	}, seen)
}

func TestLoaderExitSeesNoSubstate(t *testing.T) {
	tests := []struct {
		name   string
		events []Event
		next   TopState
	}{
		{"fault escape", []Event{EvPowerOn, EvStartLoader, EvDoorOpened, EvFault}, Faulted},
		{"unloaded plate", []Event{EvPowerOn, EvStartLoader, EvDoorOpened, EvBuildPlateLoaded, EvBuildPlateUnloaded}, Faulted},
		{"completion", []Event{EvPowerOn, EvStartLoader, EvDoorOpened, EvBuildPlateLoaded, EvDoorClosed}, Active},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var m *Machine
			var seen []Snapshot
			record := func() { seen = append(seen, m.Snapshot()) }
			m = New()
			m.SetHook(BuildPlateLoaderExit, record)
			m.SetHook(FaultedEnter, record)
			m.SetHook(ActiveEnter, record)

			testutil.Drive(m, tt.events...)

			require.GreaterOrEqual(t, len(seen), 2)
			last := seen[len(seen)-2:]
			assert.Equal(t, []Snapshot{
				{Top: BuildPlateLoader, Sub: None},
				{Top: tt.next, Sub: None},
			}, last)
		})
	}
}

func TestObserverSeesAppliedTransitions(t *testing.T) {
	var got []Transition
	m := New(WithObserver(ObserverFunc(func(tr Transition) { got = append(got, tr) })), WithObserver(nil))

	testutil.Drive(m, EvPowerOff, EvPowerOn, EvStartLoader, EvDoorClosed, EvFault)

	assert.Equal(t, []Transition{
		{Event: EvPowerOn, From: Snapshot{Top: Idle}, To: Snapshot{Top: Active}},
		{Event: EvStartLoader, From: Snapshot{Top: Active}, To: Snapshot{Top: BuildPlateLoader, Sub: OpenDoor}},
		{Event: EvFault, From: Snapshot{Top: BuildPlateLoader, Sub: OpenDoor}, To: Snapshot{Top: Faulted}},
	}, got)
}

func TestObserverRunsAfterHooks(t *testing.T) {
	var order []string
	m := New(WithObserver(ObserverFunc(func(Transition) { order = append(order, "observer") })))
	m.SetHook(IdleExit, func() { order = append(order, "exit") })
	m.SetHook(ActiveEnter, func() { order = append(order, "enter") })

	m.Dispatch(EvPowerOn)

	assert.Equal(t, []string{"exit", "enter", "observer"}, order)
}

func TestReentrantDispatchPanics(t *testing.T) {
	var m *Machine
	m = New()
	m.SetHook(ActiveEnter, func() { m.Dispatch(EvFault) })

	assert.PanicsWithValue(t, ErrReentrantDispatch, func() { m.Dispatch(EvPowerOn) })

	// The outer dispatch unwound; the machine accepts events again.
	m.SetHook(ActiveEnter, nil)
	m.Dispatch(EvFault)
	assert.Equal(t, Snapshot{Top: Faulted}, m.Snapshot())
}

func TestHooksReturnsCopy(t *testing.T) {
	m := New()
	hs := m.Hooks()
	hs.Set(IdleExit, func() { t.Fatal("copy leaked into machine") })

	m.Dispatch(EvPowerOn)
	assert.False(t, m.Hooks().Registered(IdleExit))
}

func TestSetHooksReplacesAllSlots(t *testing.T) {
	m := New()
	m.SetHook(IdleExit, func() { t.Fatal("replaced hook fired") })

	var entered int
	var hs HookSet
	hs.Set(ActiveEnter, func() { entered++ })
	m.SetHooks(hs)

	m.Dispatch(EvPowerOn)
	assert.Equal(t, 1, entered)
	assert.False(t, m.Hooks().Registered(IdleExit))
}

func mustReach(t *testing.T, s Snapshot) []Event {
	t.Helper()
	path, ok := testutil.Reach(s)
	require.True(t, ok)
	return path
}
