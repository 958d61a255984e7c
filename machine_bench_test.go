package safetychart

import "testing"

// BenchmarkDispatchLoaderCycle measures one full power-on/load/power-off cycle.
func BenchmarkDispatchLoaderCycle(b *testing.B) {
	m := New()
	noop := func() {}
	for _, h := range HookIDs() {
		m.SetHook(h, noop)
	}
	cycle := []Event{EvPowerOn, EvStartLoader, EvDoorOpened, EvBuildPlateLoaded, EvDoorClosed, EvPowerOff}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for _, ev := range cycle {
			m.Dispatch(ev)
		}
	}
}

// BenchmarkDispatchIgnored measures the cost of dropping an inapplicable event.
func BenchmarkDispatchIgnored(b *testing.B) {
	m := New()
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		m.Dispatch(EvDoorClosed)
	}
}
