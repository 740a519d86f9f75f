// Package transcriber turns a recorded audio artifact into text via a
// remote speech-to-text HTTP endpoint.
package transcriber

import (
	"context"
	"errors"
	"fmt"

	"voicekey/audio"
)

// MinArtifactBytes is the smallest artifact worth uploading; anything
// shorter is treated as an empty press and rejected locally.
const MinArtifactBytes = 1000

var (
	ErrTooShort          = errors.New("recording too short")
	ErrUnauthorized      = errors.New("invalid API key")
	ErrEmptyResponse     = errors.New("empty response body")
	ErrMalformedResponse = errors.New("invalid response format")
	ErrNoSpeech          = errors.New("no speech detected")
)

// ServerError is a non-200, non-401 HTTP status from the endpoint.
type ServerError struct {
	Status int
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("API error (%d)", e.Status)
}

// ServiceError is an error object reported inside a parseable body.
type ServiceError struct {
	Message string
}

func (e *ServiceError) Error() string {
	return "API error: " + e.Message
}

// NetworkError is a transport-level failure before any HTTP status was
// received. Offline is set when the failure looks like missing
// connectivity rather than a generic transport problem.
type NetworkError struct {
	Offline bool
	Err     error
}

func (e *NetworkError) Error() string {
	if e.Offline {
		return "no internet connection: " + e.Err.Error()
	}
	return "network error: " + e.Err.Error()
}

func (e *NetworkError) Unwrap() error { return e.Err }

// Client transcribes one artifact per call. Implementations do not
// retry; a failure is terminal for the session that produced the
// artifact.
type Client interface {
	Transcribe(ctx context.Context, artifact audio.Artifact) (string, error)
}
