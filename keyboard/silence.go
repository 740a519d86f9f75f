package keyboard

// speechThresholdDB separates voice from room noise on the dBFS scale
// the capture layer reports.
const speechThresholdDB = -50.0

// warnAfterTicks is 8 seconds of level samples at the 100 ms cadence.
const warnAfterTicks = 80

// clearAfterTicks of continuous speech clear an active warning
// (hysteresis, so the warning does not flap on a single loud sample).
const clearAfterTicks = 3

type silenceEvent int

const (
	silenceNone silenceEvent = iota
	silenceWarn
	silenceWarnClear
)

// silenceMonitor watches the per-tick speech flag during a recording
// and raises a warning when the user appears to be holding the key
// without speaking.
type silenceMonitor struct {
	silentRun int
	speechRun int
	warned    bool
}

func newSilenceMonitor() *silenceMonitor {
	return &silenceMonitor{}
}

func (m *silenceMonitor) Tick(speech bool) silenceEvent {
	if speech {
		m.silentRun = 0
		m.speechRun++
		if m.warned && m.speechRun >= clearAfterTicks {
			m.warned = false
			return silenceWarnClear
		}
		return silenceNone
	}

	m.speechRun = 0
	m.silentRun++
	if !m.warned && m.silentRun >= warnAfterTicks {
		m.warned = true
		return silenceWarn
	}
	return silenceNone
}
