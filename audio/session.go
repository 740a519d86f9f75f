package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"sync"
	"time"
)

var (
	ErrPermissionDenied  = errors.New("microphone permission denied")
	ErrDeviceUnavailable = errors.New("audio device unavailable")
	ErrAlreadyActive     = errors.New("capture already active")
	ErrNotActive         = errors.New("capture not active")
)

const (
	// LevelInterval is the cadence of loudness samples while recording.
	LevelInterval = 100 * time.Millisecond

	// LevelFloorDB is the quietest reported level; silence and empty
	// metering windows both clamp to it.
	LevelFloorDB = -60.0
)

// Artifact is one finished recording: a temporary PCM WAV file owned by
// the session that produced it until explicitly released.
type Artifact struct {
	Path  string
	Bytes int64
}

// Remove deletes the artifact file. Safe to call any number of times.
func (a Artifact) Remove() error {
	if a.Path == "" {
		return nil
	}
	if err := os.Remove(a.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove artifact: %w", err)
	}
	return nil
}

// LevelFunc receives one loudness reading in dBFS, LevelFloorDB..0.
type LevelFunc func(db float64)

// PermissionFunc reports whether microphone access is currently granted.
type PermissionFunc func() bool

// CaptureSession records one utterance at a time from a CaptureDevice
// into a fresh temporary WAV artifact, emitting LevelFunc readings every
// LevelInterval while active. At most one recording is in flight; Start
// while active fails with ErrAlreadyActive.
type CaptureSession struct {
	dev     CaptureDevice
	perm    PermissionFunc
	tempDir string // "" means os.TempDir

	mu       sync.Mutex
	active   bool
	path     string
	stopTick chan struct{}
	tickDone chan struct{}

	// wmu guards the writer and metering accumulators, which the
	// platform capture thread touches concurrently with Stop.
	wmu        sync.Mutex
	wav        *wavWriter
	sumSquares float64
	samples    int
}

func NewCaptureSession(dev CaptureDevice, perm PermissionFunc) *CaptureSession {
	return &CaptureSession{dev: dev, perm: perm}
}

// Start begins writing PCM to a new uniquely named temporary file and
// starts the level meter. The onLevel callback fires from the meter
// goroutine until Stop or Discard.
func (s *CaptureSession) Start(onLevel LevelFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.perm != nil && !s.perm() {
		return ErrPermissionDenied
	}
	if s.active {
		return ErrAlreadyActive
	}

	dir := s.tempDir
	if dir == "" {
		dir = os.TempDir()
	}
	f, err := os.CreateTemp(dir, "voicekey-*.wav")
	if err != nil {
		return fmt.Errorf("create artifact: %w", err)
	}
	w, err := newWAVWriter(f)
	if err != nil {
		f.Close()
		os.Remove(f.Name())
		return err
	}

	s.wmu.Lock()
	s.wav = w
	s.sumSquares = 0
	s.samples = 0
	s.wmu.Unlock()
	s.path = f.Name()

	s.dev.SetCallback(s.onData)
	if err := s.dev.Start(); err != nil {
		s.dev.ClearCallback()
		s.wmu.Lock()
		s.wav = nil
		s.wmu.Unlock()
		w.discard()
		os.Remove(s.path)
		s.path = ""
		return fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}

	s.active = true
	s.stopTick = make(chan struct{})
	s.tickDone = make(chan struct{})
	go s.meter(onLevel, s.stopTick, s.tickDone)
	return nil
}

// Stop halts capture and metering and returns the finalized artifact.
// Ownership of the artifact transfers to the caller. A second Stop, or
// Stop without Start, returns ErrNotActive.
func (s *CaptureSession) Stop() (Artifact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.active {
		return Artifact{}, ErrNotActive
	}
	s.active = false

	close(s.stopTick)
	<-s.tickDone

	s.dev.Stop()
	s.dev.ClearCallback()

	s.wmu.Lock()
	w := s.wav
	s.wav = nil
	s.wmu.Unlock()

	path := s.path
	s.path = ""

	size, err := w.Finalize()
	if err != nil {
		os.Remove(path)
		return Artifact{}, err
	}
	return Artifact{Path: path, Bytes: size}, nil
}

// Discard stops capture if active and deletes any partial artifact.
// Safe to call at any time, including after Stop.
func (s *CaptureSession) Discard() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active {
		s.active = false
		close(s.stopTick)
		<-s.tickDone
		s.dev.Stop()
		s.dev.ClearCallback()

		s.wmu.Lock()
		w := s.wav
		s.wav = nil
		s.wmu.Unlock()
		if w != nil {
			w.discard()
		}
	}
	if s.path != "" {
		os.Remove(s.path)
		s.path = ""
	}
}

// Active reports whether a recording is in flight.
func (s *CaptureSession) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

func (s *CaptureSession) onData(data []byte, _ uint32) {
	s.wmu.Lock()
	defer s.wmu.Unlock()
	if s.wav == nil {
		return
	}
	s.wav.Write(data)
	for i := 0; i+1 < len(data); i += 2 {
		sample := float64(int16(binary.LittleEndian.Uint16(data[i:]))) / 32768.0
		s.sumSquares += sample * sample
		s.samples++
	}
}

func (s *CaptureSession) meter(onLevel LevelFunc, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(LevelInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.wmu.Lock()
			sum, n := s.sumSquares, s.samples
			s.sumSquares, s.samples = 0, 0
			s.wmu.Unlock()
			if onLevel != nil {
				onLevel(levelDB(sum, n))
			}
		}
	}
}

// levelDB converts an accumulated sum of squared normalized samples to a
// dBFS reading clamped to LevelFloorDB..0.
func levelDB(sumSquares float64, samples int) float64 {
	if samples == 0 {
		return LevelFloorDB
	}
	rms := math.Sqrt(sumSquares / float64(samples))
	if rms <= 0 {
		return LevelFloorDB
	}
	db := 20 * math.Log10(rms)
	if db < LevelFloorDB {
		return LevelFloorDB
	}
	if db > 0 {
		return 0
	}
	return db
}
