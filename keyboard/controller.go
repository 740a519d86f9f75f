package keyboard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"voicekey/audio"
	"voicekey/permission"
	"voicekey/transcriber"
)

const (
	// DefaultConfirmDelay is how long the success status lingers
	// before the idle affordance returns.
	DefaultConfirmDelay = 1500 * time.Millisecond

	StatusReady      = "Ready to record"
	StatusRecording  = "Recording..."
	StatusProcessing = "Processing..."
	StatusInserted   = "Text inserted"
	StatusNoMic      = "Microphone permission required"
)

type Config struct {
	MinArtifactBytes int64
	ConfirmDelay     time.Duration
}

// Controller is the session state machine: Idle -> Recording ->
// Processing -> Idle, with error transitions straight back to Idle.
// It is the sole writer of session state; start intents received while
// not Idle are ignored, so overlapping sessions cannot exist.
type Controller struct {
	capture  Capture
	client   transcriber.Client
	inserter TextInserter
	perm     permission.Provider
	sink     EventSink

	minBytes     int64
	confirmDelay time.Duration

	mu       sync.Mutex
	state    State
	gen      uint64
	cancel   context.CancelFunc
	artifact *audio.Artifact
	mon      *silenceMonitor
	closed   bool
}

func NewController(capture Capture, client transcriber.Client, inserter TextInserter, perm permission.Provider, sink EventSink, cfg Config) *Controller {
	if sink == nil {
		sink = NopSink{}
	}
	if cfg.MinArtifactBytes == 0 {
		cfg.MinArtifactBytes = transcriber.MinArtifactBytes
	}
	if cfg.ConfirmDelay == 0 {
		cfg.ConfirmDelay = DefaultConfirmDelay
	}
	return &Controller{
		capture:      capture,
		client:       client,
		inserter:     inserter,
		perm:         perm,
		sink:         sink,
		minBytes:     cfg.MinArtifactBytes,
		confirmDelay: cfg.ConfirmDelay,
	}
}

// State returns the current session state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Start begins a recording session. A start intent while a session is
// already in flight is a no-op.
func (c *Controller) Start() {
	c.mu.Lock()
	if c.closed || c.state != StateIdle {
		c.mu.Unlock()
		return
	}
	if c.perm != nil && c.perm.Current() != permission.Granted {
		c.mu.Unlock()
		c.sink.Status(StatusNoMic)
		return
	}

	c.gen++
	gen := c.gen
	c.mon = newSilenceMonitor()

	if err := c.capture.Start(func(db float64) { c.onLevel(gen, db) }); err != nil {
		c.mu.Unlock()
		c.sink.Status(statusFor(err))
		return
	}
	c.state = StateRecording
	c.mu.Unlock()

	c.sink.RecordingStarted()
	c.sink.Status(StatusRecording)
}

// Stop finalizes capture and, once the artifact passes the length
// check, runs transcription asynchronously. The transition to
// Processing happens immediately, regardless of what follows.
func (c *Controller) Stop() {
	c.mu.Lock()
	if c.state != StateRecording {
		c.mu.Unlock()
		return
	}
	c.state = StateProcessing
	gen := c.gen
	c.mu.Unlock()

	// Finalizing capture waits for the level meter goroutine, and that
	// goroutine takes c.mu in onLevel. The lock must not be held here.
	art, err := c.capture.Stop()

	c.sink.RecordingStopped()
	c.sink.NoVoiceWarning(false)
	c.sink.Busy(true)
	c.sink.Status(StatusProcessing)

	if err != nil {
		c.settle(gen, nil, fmt.Sprintf("Recording failed: %v", err))
		return
	}
	if art.Bytes < c.minBytes {
		c.settle(gen, &art, "Recording too short")
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	c.mu.Lock()
	if gen != c.gen || c.state != StateProcessing {
		// Torn down between unlock and here.
		c.mu.Unlock()
		cancel()
		art.Remove()
		return
	}
	c.cancel = cancel
	c.artifact = &art
	c.mu.Unlock()

	go func() {
		began := time.Now()
		text, terr := c.client.Transcribe(ctx, art)
		cancel()
		c.complete(gen, art, text, terr, time.Since(began))
	}()
}

// Close tears the controller down: capture force-stopped, any partial
// or pending artifact deleted, the in-flight transcription abandoned.
// Synchronous and idempotent.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.gen++
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	art := c.artifact
	c.artifact = nil
	c.state = StateIdle
	c.mu.Unlock()

	c.capture.Discard()
	if art != nil {
		art.Remove()
	}
}

func (c *Controller) onLevel(gen uint64, db float64) {
	c.mu.Lock()
	if gen != c.gen || c.state != StateRecording {
		c.mu.Unlock()
		return
	}
	mon := c.mon
	c.mu.Unlock()

	c.sink.Level(db)
	switch mon.Tick(db > speechThresholdDB) {
	case silenceWarn:
		c.sink.NoVoiceWarning(true)
	case silenceWarnClear:
		c.sink.NoVoiceWarning(false)
	}
}

// settle resolves a session back to Idle without a transcription
// result, releasing the artifact if one exists.
func (c *Controller) settle(gen uint64, art *audio.Artifact, status string) {
	c.mu.Lock()
	if gen != c.gen || c.state != StateProcessing {
		c.mu.Unlock()
		if art != nil {
			art.Remove()
		}
		return
	}
	c.state = StateIdle
	c.gen++
	c.mu.Unlock()

	var bytes int64
	if art != nil {
		bytes = art.Bytes
		art.Remove()
	}
	c.sink.Busy(false)
	c.sink.Status(status)
	c.sink.Completed(status, bytes, 0)
}

// complete handles the transcription outcome. A stale generation means
// the controller was torn down while the call was in flight; the result
// is discarded.
func (c *Controller) complete(gen uint64, art audio.Artifact, text string, err error, took time.Duration) {
	c.mu.Lock()
	if gen != c.gen || c.state != StateProcessing {
		c.mu.Unlock()
		art.Remove()
		return
	}
	c.cancel = nil
	c.artifact = nil
	c.state = StateIdle
	c.gen++
	confirmGen := c.gen
	c.mu.Unlock()

	art.Remove()
	c.sink.Busy(false)

	if err != nil {
		status := statusFor(err)
		c.sink.Status(status)
		c.sink.Completed(status, art.Bytes, took)
		return
	}

	out := EnsureTrailingSpace(text)
	if ierr := c.inserter.Insert(out); ierr != nil {
		c.sink.Status("Could not insert text")
		c.sink.Completed("Could not insert text", art.Bytes, took)
		return
	}
	c.sink.Inserted(out)
	c.sink.Status(StatusInserted)
	c.sink.Completed(StatusInserted, art.Bytes, took)

	time.AfterFunc(c.confirmDelay, func() {
		c.mu.Lock()
		stillIdle := !c.closed && c.state == StateIdle && c.gen == confirmGen
		c.mu.Unlock()
		if stillIdle {
			c.sink.Status(StatusReady)
		}
	})
}

// statusFor converts a terminal session error to the human-readable
// status the UI shows.
func statusFor(err error) string {
	var netErr *transcriber.NetworkError
	var srvErr *transcriber.ServerError
	var svcErr *transcriber.ServiceError

	switch {
	case errors.Is(err, audio.ErrPermissionDenied):
		return StatusNoMic
	case errors.Is(err, audio.ErrDeviceUnavailable):
		return fmt.Sprintf("Recording failed: %v", err)
	case errors.Is(err, transcriber.ErrTooShort):
		return "Recording too short"
	case errors.Is(err, transcriber.ErrUnauthorized):
		return "Invalid API key"
	case errors.Is(err, transcriber.ErrEmptyResponse):
		return "No response data"
	case errors.Is(err, transcriber.ErrMalformedResponse):
		return "Invalid response format"
	case errors.Is(err, transcriber.ErrNoSpeech):
		return "No speech detected"
	case errors.As(err, &netErr):
		if netErr.Offline {
			return "No internet connection"
		}
		return "Network error"
	case errors.As(err, &srvErr):
		return fmt.Sprintf("API error (%d)", srvErr.Status)
	case errors.As(err, &svcErr):
		return "API Error: " + svcErr.Message
	default:
		return fmt.Sprintf("Error: %v", err)
	}
}
