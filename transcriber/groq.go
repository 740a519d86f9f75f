package transcriber

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"os"
	"strings"
	"syscall"
	"time"

	"voicekey/audio"
)

const (
	DefaultURL     = "https://api.groq.com/openai/v1/audio/transcriptions"
	DefaultModel   = "whisper-large-v3"
	DefaultTimeout = 30 * time.Second
)

// Config carries the injected endpoint settings. APIKey is required;
// everything else falls back to defaults.
type Config struct {
	APIKey   string
	URL      string
	Model    string
	Language string // optional ISO 639-1 hint, empty means auto-detect
	Timeout  time.Duration
	MinBytes int64
}

// Groq uploads WAV artifacts to a whisper-style transcription endpoint
// and interprets the JSON response.
type Groq struct {
	cfg    Config
	client *http.Client
}

func NewGroq(cfg Config) *Groq {
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MinBytes == 0 {
		cfg.MinBytes = MinArtifactBytes
	}
	return &Groq{
		cfg: cfg,
		client: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        4,
				MaxIdleConnsPerHost: 4,
				IdleConnTimeout:     90 * time.Second,
				ForceAttemptHTTP2:   true,
			},
		},
	}
}

// Warm pre-establishes the TLS connection so the first real upload does
// not pay the handshake cost. Errors are ignored.
func (g *Groq) Warm() {
	req, err := http.NewRequest(http.MethodHead, g.cfg.URL, nil)
	if err != nil {
		return
	}
	resp, err := g.client.Do(req)
	if err != nil {
		return
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}

type apiResponse struct {
	Text  *string `json:"text"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Transcribe uploads the artifact and returns the trimmed transcript.
// Artifacts below Config.MinBytes are rejected locally with ErrTooShort,
// without touching the network.
func (g *Groq) Transcribe(ctx context.Context, artifact audio.Artifact) (string, error) {
	if artifact.Bytes < g.cfg.MinBytes {
		return "", ErrTooShort
	}

	audioData, err := os.ReadFile(artifact.Path)
	if err != nil {
		return "", err
	}
	if int64(len(audioData)) < g.cfg.MinBytes {
		return "", ErrTooShort
	}

	body, contentType, err := buildForm(audioData, g.cfg.Model, g.cfg.Language)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.cfg.URL, body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+g.cfg.APIKey)
	req.Header.Set("Content-Type", contentType)

	resp, err := g.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", &NetworkError{Offline: isOffline(err), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return "", ErrUnauthorized
	}
	if resp.StatusCode != http.StatusOK {
		return "", &ServerError{Status: resp.StatusCode}
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &NetworkError{Err: err}
	}
	if len(raw) == 0 {
		return "", ErrEmptyResponse
	}

	var parsed apiResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", ErrMalformedResponse
	}
	if parsed.Error != nil {
		return "", &ServiceError{Message: parsed.Error.Message}
	}
	if parsed.Text == nil {
		return "", ErrNoSpeech
	}
	text := strings.TrimSpace(*parsed.Text)
	if text == "" {
		return "", ErrNoSpeech
	}
	return text, nil
}

// isOffline distinguishes "no connectivity" from a generic transport
// failure where the cause is recognizable.
func isOffline(err error) bool {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	for _, errno := range []syscall.Errno{syscall.ENETUNREACH, syscall.EHOSTUNREACH, syscall.ENETDOWN} {
		if errors.Is(err, errno) {
			return true
		}
	}
	return false
}
