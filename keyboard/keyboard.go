// Package keyboard coordinates one push-to-talk session at a time:
// microphone capture, transcription upload, and insertion of the
// result at the cursor, with guaranteed cleanup on every exit path.
package keyboard

import (
	"strings"
	"time"

	"voicekey/audio"
)

type State int

const (
	StateIdle State = iota
	StateRecording
	StateProcessing
)

func (s State) String() string {
	switch s {
	case StateRecording:
		return "recording"
	case StateProcessing:
		return "processing"
	default:
		return "idle"
	}
}

// TextInserter places text at the current input cursor. It is invoked
// at most once per successful session, with already-normalized text.
type TextInserter interface {
	Insert(text string) error
}

// Capture is the slice of audio.CaptureSession the controller drives.
type Capture interface {
	Start(onLevel audio.LevelFunc) error
	Stop() (audio.Artifact, error)
	Discard()
}

// EventSink receives the controller's observable side effects. The UI
// shell implements it; implementations must not call back into the
// controller.
type EventSink interface {
	RecordingStarted()
	RecordingStopped()
	Level(db float64)
	Status(text string)
	Busy(busy bool)
	Inserted(text string)
	NoVoiceWarning(active bool)
	// Completed fires once per session that reached Processing, with
	// the terminal status, the artifact size, and the upload duration.
	// Sessions settled before upload report a zero duration.
	Completed(status string, audioBytes int64, took time.Duration)
}

// NopSink discards all events.
type NopSink struct{}

func (NopSink) RecordingStarted() {}
func (NopSink) RecordingStopped() {}
func (NopSink) Level(float64) {}
func (NopSink) Status(string) {}
func (NopSink) Busy(bool) {}
func (NopSink) Inserted(string) {}
func (NopSink) NoVoiceWarning(bool) {}
func (NopSink) Completed(string, int64, time.Duration) {}

// EnsureTrailingSpace appends a single space so the next dictation does
// not run into this one, unless the text already ends with a space or
// sentence-final punctuation.
func EnsureTrailingSpace(text string) string {
	if text == "" {
		return text
	}
	for _, suffix := range []string{" ", ".", "!", "?"} {
		if strings.HasSuffix(text, suffix) {
			return text
		}
	}
	return text + " "
}
