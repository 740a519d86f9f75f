package main

import (
	"sync/atomic"
	"time"

	"voicekey/log"
)

// tuiSink projects controller events onto the Bubble Tea program and
// the diagnostic log. It implements keyboard.EventSink.
type tuiSink struct {
	inserted atomic.Int64
}

func (s *tuiSink) RecordingStarted() {
	log.Info("recording_start")
	tuiSend(RecordingStartMsg{})
}

func (s *tuiSink) RecordingStopped() {
	log.Info("recording_stop")
	tuiSend(RecordingStopMsg{})
}

func (s *tuiSink) Level(db float64) {
	tuiSend(LevelMsg{DB: db})
}

func (s *tuiSink) Status(text string) {
	tuiSend(StatusMsg{Text: text})
}

func (s *tuiSink) Busy(busy bool) {
	tuiSend(BusyMsg{Busy: busy})
}

func (s *tuiSink) Inserted(text string) {
	s.inserted.Add(1)
	log.TranscriptionText(text)
	tuiSend(TranscriptionMsg{Text: text})
}

func (s *tuiSink) NoVoiceWarning(active bool) {
	if active {
		log.Info("no_voice_warning")
	}
	tuiSend(NoVoiceWarningMsg{Active: active})
}

func (s *tuiSink) Completed(status string, audioBytes int64, took time.Duration) {
	log.Transcription(status, audioBytes, took)
}

// InsertedCount reports how many transcriptions this run produced.
func (s *tuiSink) InsertedCount() int {
	return int(s.inserted.Load())
}
