package transcriber

import (
	"bytes"
	"io"
	"mime"
	"mime/multipart"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestBuildFormPartOrder(t *testing.T) {
	audioData := []byte("RIFFfakewavpayload")
	body, contentType, err := buildForm(audioData, "whisper-large-v3", "")
	if err != nil {
		t.Fatalf("buildForm: %v", err)
	}

	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := uuid.Parse(params["boundary"]); err != nil {
		t.Errorf("boundary %q is not a UUID: %v", params["boundary"], err)
	}

	r := multipart.NewReader(bytes.NewReader(body.Bytes()), params["boundary"])

	p1, err := r.NextPart()
	if err != nil {
		t.Fatal(err)
	}
	if p1.FormName() != "model" {
		t.Errorf("part 1 = %q, want model", p1.FormName())
	}
	v1, _ := io.ReadAll(p1)
	if string(v1) != "whisper-large-v3" {
		t.Errorf("model = %q", v1)
	}

	p2, err := r.NextPart()
	if err != nil {
		t.Fatal(err)
	}
	if p2.FormName() != "response_format" {
		t.Errorf("part 2 = %q, want response_format", p2.FormName())
	}
	v2, _ := io.ReadAll(p2)
	if string(v2) != "json" {
		t.Errorf("response_format = %q", v2)
	}

	p3, err := r.NextPart()
	if err != nil {
		t.Fatal(err)
	}
	if p3.FormName() != "file" {
		t.Errorf("part 3 = %q, want file", p3.FormName())
	}
	if p3.FileName() != "audio.wav" {
		t.Errorf("filename = %q, want audio.wav", p3.FileName())
	}
	if ct := p3.Header.Get("Content-Type"); ct != "audio/wav" {
		t.Errorf("file content type = %q, want audio/wav", ct)
	}
	v3, _ := io.ReadAll(p3)
	if !bytes.Equal(v3, audioData) {
		t.Errorf("file payload = %q, want %q", v3, audioData)
	}

	if _, err := r.NextPart(); err != io.EOF {
		t.Errorf("expected exactly three parts, got extra: %v", err)
	}
}

func TestBuildFormLanguageHint(t *testing.T) {
	body, contentType, err := buildForm([]byte("payload"), "m", "en")
	if err != nil {
		t.Fatalf("buildForm: %v", err)
	}
	_, params, _ := mime.ParseMediaType(contentType)
	r := multipart.NewReader(bytes.NewReader(body.Bytes()), params["boundary"])

	var names []string
	for {
		p, err := r.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatal(err)
		}
		if p.FormName() == "language" {
			v, _ := io.ReadAll(p)
			if string(v) != "en" {
				t.Errorf("language = %q, want en", v)
			}
		}
		names = append(names, p.FormName())
	}
	want := []string{"model", "response_format", "language", "file"}
	if len(names) != len(want) {
		t.Fatalf("parts = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("part %d = %q, want %q", i, names[i], want[i])
		}
	}
}

func TestBuildFormBoundaryCollision(t *testing.T) {
	collided := "00000000-0000-0000-0000-000000000001"
	fresh := "00000000-0000-0000-0000-000000000002"

	calls := 0
	orig := newBoundary
	newBoundary = func() string {
		calls++
		if calls == 1 {
			return collided
		}
		return fresh
	}
	defer func() { newBoundary = orig }()

	// Audio payload that contains the first candidate boundary.
	audioData := []byte("prefix--" + collided + "--suffix")
	body, contentType, err := buildForm(audioData, "m", "")
	if err != nil {
		t.Fatalf("buildForm: %v", err)
	}
	if !strings.Contains(contentType, fresh) {
		t.Fatalf("content type %q does not carry the regenerated boundary", contentType)
	}

	// The regenerated boundary still frames a parseable body.
	_, params, _ := mime.ParseMediaType(contentType)
	r := multipart.NewReader(bytes.NewReader(body.Bytes()), params["boundary"])
	seen := 0
	for {
		p, err := r.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("parse with boundary in payload: %v", err)
		}
		if p.FormName() == "file" {
			data, _ := io.ReadAll(p)
			if !bytes.Equal(data, audioData) {
				t.Error("audio payload corrupted by boundary handling")
			}
		}
		seen++
	}
	if seen != 3 {
		t.Errorf("parts = %d, want 3", seen)
	}
}
