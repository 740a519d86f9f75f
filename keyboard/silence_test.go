package keyboard

import "testing"

func TestSilenceMonitorWarnsAfterQuietRun(t *testing.T) {
	m := newSilenceMonitor()
	for i := 0; i < warnAfterTicks-1; i++ {
		if ev := m.Tick(false); ev != silenceNone {
			t.Fatalf("tick %d: event %v before threshold", i, ev)
		}
	}
	if ev := m.Tick(false); ev != silenceWarn {
		t.Fatalf("expected warn at threshold, got %v", ev)
	}
	// Warning fires once, not every tick.
	if ev := m.Tick(false); ev != silenceNone {
		t.Fatalf("warn repeated: %v", ev)
	}
}

func TestSilenceMonitorHysteresisClear(t *testing.T) {
	m := newSilenceMonitor()
	for i := 0; i < warnAfterTicks; i++ {
		m.Tick(false)
	}

	// A single loud sample does not clear the warning.
	if ev := m.Tick(true); ev != silenceNone {
		t.Fatalf("cleared on one speech tick: %v", ev)
	}
	for i := 0; i < clearAfterTicks-2; i++ {
		if ev := m.Tick(true); ev != silenceNone {
			t.Fatalf("cleared early: %v", ev)
		}
	}
	if ev := m.Tick(true); ev != silenceWarnClear {
		t.Fatalf("expected clear after sustained speech, got %v", ev)
	}
}

func TestSilenceMonitorSpeechResetsRun(t *testing.T) {
	m := newSilenceMonitor()
	for i := 0; i < warnAfterTicks-1; i++ {
		m.Tick(false)
	}
	m.Tick(true) // resets the silent run
	for i := 0; i < warnAfterTicks-1; i++ {
		if ev := m.Tick(false); ev != silenceNone {
			t.Fatalf("warned too early after reset: %v", ev)
		}
	}
	if ev := m.Tick(false); ev != silenceWarn {
		t.Fatalf("expected warn, got %v", ev)
	}
}
