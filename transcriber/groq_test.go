package transcriber

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"voicekey/audio"
)

func writeArtifact(t *testing.T, size int) audio.Artifact {
	t.Helper()
	path := filepath.Join(t.TempDir(), "audio.wav")
	data := make([]byte, size)
	copy(data, "RIFF")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return audio.Artifact{Path: path, Bytes: int64(size)}
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Groq, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	g := NewGroq(Config{APIKey: "test-key", URL: srv.URL})
	return g, srv
}

func TestTranscribeSuccess(t *testing.T) {
	var gotAuth, gotCT string
	g, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotCT = r.Header.Get("Content-Type")
		if err := r.ParseMultipartForm(10 << 20); err != nil {
			t.Errorf("server could not parse form: %v", err)
		}
		if got := r.FormValue("model"); got != "whisper-large-v3" {
			t.Errorf("model = %q", got)
		}
		if got := r.FormValue("response_format"); got != "json" {
			t.Errorf("response_format = %q", got)
		}
		f, hdr, err := r.FormFile("file")
		if err != nil {
			t.Errorf("missing file part: %v", err)
		} else {
			f.Close()
			if hdr.Filename != "audio.wav" {
				t.Errorf("filename = %q", hdr.Filename)
			}
		}
		w.Write([]byte(`{"text":"  hi  "}`))
	})

	text, err := g.Transcribe(context.Background(), writeArtifact(t, 2000))
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if text != "hi" {
		t.Errorf("text = %q, want %q (trimmed)", text, "hi")
	}
	if gotAuth != "Bearer test-key" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if gotCT == "" {
		t.Error("Content-Type not set")
	}
}

func TestTranscribeTooShortSkipsNetwork(t *testing.T) {
	called := false
	g, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	_, err := g.Transcribe(context.Background(), writeArtifact(t, 999))
	if !errors.Is(err, ErrTooShort) {
		t.Fatalf("err = %v, want ErrTooShort", err)
	}
	if called {
		t.Error("short artifact reached the network")
	}
}

func TestTranscribeStatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		check  func(t *testing.T, err error)
	}{
		{
			name: "unauthorized", status: 401, body: `{"error":{"message":"bad key"}}`,
			check: func(t *testing.T, err error) {
				if !errors.Is(err, ErrUnauthorized) {
					t.Errorf("err = %v, want ErrUnauthorized", err)
				}
			},
		},
		{
			name: "server error", status: 500, body: `oops`,
			check: func(t *testing.T, err error) {
				var se *ServerError
				if !errors.As(err, &se) || se.Status != 500 {
					t.Errorf("err = %v, want ServerError(500)", err)
				}
			},
		},
		{
			name: "empty body", status: 200, body: ``,
			check: func(t *testing.T, err error) {
				if !errors.Is(err, ErrEmptyResponse) {
					t.Errorf("err = %v, want ErrEmptyResponse", err)
				}
			},
		},
		{
			name: "malformed body", status: 200, body: `not json`,
			check: func(t *testing.T, err error) {
				if !errors.Is(err, ErrMalformedResponse) {
					t.Errorf("err = %v, want ErrMalformedResponse", err)
				}
			},
		},
		{
			name: "service error", status: 200, body: `{"error":{"message":"rate limited"}}`,
			check: func(t *testing.T, err error) {
				var se *ServiceError
				if !errors.As(err, &se) || se.Message != "rate limited" {
					t.Errorf("err = %v, want ServiceError(rate limited)", err)
				}
			},
		},
		{
			name: "whitespace text", status: 200, body: `{"text": "  "}`,
			check: func(t *testing.T, err error) {
				if !errors.Is(err, ErrNoSpeech) {
					t.Errorf("err = %v, want ErrNoSpeech", err)
				}
			},
		},
		{
			name: "missing text", status: 200, body: `{}`,
			check: func(t *testing.T, err error) {
				if !errors.Is(err, ErrNoSpeech) {
					t.Errorf("err = %v, want ErrNoSpeech", err)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})
			_, err := g.Transcribe(context.Background(), writeArtifact(t, 2000))
			if err == nil {
				t.Fatal("expected error")
			}
			tt.check(t, err)
		})
	}
}

func TestTranscribeNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close() // nothing listening anymore

	g := NewGroq(Config{APIKey: "k", URL: url})
	_, err := g.Transcribe(context.Background(), writeArtifact(t, 2000))
	var ne *NetworkError
	if !errors.As(err, &ne) {
		t.Fatalf("err = %v, want NetworkError", err)
	}
}

func TestTranscribeCanceled(t *testing.T) {
	block := make(chan struct{})
	g, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		<-block
	})
	defer close(block)

	art := writeArtifact(t, 2000)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := g.Transcribe(ctx, art)
		done <- err
	}()
	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}
