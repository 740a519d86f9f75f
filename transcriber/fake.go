package transcriber

import (
	"context"
	"sync"

	"voicekey/audio"
)

// Fake is a scripted Client for tests. It records every call so tests
// can assert that short artifacts never reach the network layer.
type Fake struct {
	Text  string
	Err   error
	Delay chan struct{} // when non-nil, Transcribe blocks until closed

	mu    sync.Mutex
	calls []audio.Artifact
}

func NewFake(text string, err error) *Fake {
	return &Fake{Text: text, Err: err}
}

func (f *Fake) Transcribe(ctx context.Context, artifact audio.Artifact) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, artifact)
	f.mu.Unlock()

	if f.Delay != nil {
		select {
		case <-f.Delay:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if f.Err != nil {
		return "", f.Err
	}
	return f.Text, nil
}

func (f *Fake) Calls() []audio.Artifact {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]audio.Artifact(nil), f.calls...)
}
