// Package permission models process-wide microphone permission state.
package permission

import "sync"

type State int

const (
	Undetermined State = iota
	Denied
	Granted
)

func (s State) String() string {
	switch s {
	case Granted:
		return "granted"
	case Denied:
		return "denied"
	default:
		return "undetermined"
	}
}

// Provider exposes the current microphone permission and a way to
// request it. Request resolves asynchronously; the callback receives
// the resulting state.
type Provider interface {
	Current() State
	Request(done func(State))
}

// Prober determines permission by attempting a short probe of the
// capture device the first time it is asked, then caches the answer.
// Desktop platforms gate microphone access at device-open time, so an
// open/close round trip is the honest check.
type Prober struct {
	probe func() error

	mu    sync.Mutex
	state State
}

func NewProber(probe func() error) *Prober {
	return &Prober{probe: probe}
}

func (p *Prober) Current() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

func (p *Prober) Request(done func(State)) {
	go func() {
		p.mu.Lock()
		if p.state == Undetermined {
			if err := p.probe(); err != nil {
				p.state = Denied
			} else {
				p.state = Granted
			}
		}
		s := p.state
		p.mu.Unlock()
		if done != nil {
			done(s)
		}
	}()
}

// Static always reports a fixed state; used in tests and on platforms
// with no permission gate.
type Static struct {
	state State
}

func NewStatic(s State) *Static { return &Static{state: s} }

func (s *Static) Current() State { return s.state }

func (s *Static) Request(done func(State)) {
	if done != nil {
		done(s.state)
	}
}
