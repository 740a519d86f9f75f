package transcriber

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/textproto"

	"github.com/google/uuid"
)

// newBoundary is stubbed in tests to force boundary collisions.
var newBoundary = uuid.NewString

// buildForm encodes the transcription request body: model, then
// response_format, an optional language hint, then the audio payload
// as "file" with a fixed filename and content type. The boundary is a
// fresh UUID, regenerated if the audio bytes happen to contain it, so
// binary payloads can never break the framing.
func buildForm(audioData []byte, model, language string) (body *bytes.Buffer, contentType string, err error) {
	boundary := newBoundary()
	for bytes.Contains(audioData, []byte(boundary)) {
		boundary = newBoundary()
	}

	body = &bytes.Buffer{}
	w := multipart.NewWriter(body)
	if err := w.SetBoundary(boundary); err != nil {
		return nil, "", fmt.Errorf("set boundary: %w", err)
	}

	if err := w.WriteField("model", model); err != nil {
		return nil, "", fmt.Errorf("write model field: %w", err)
	}
	if err := w.WriteField("response_format", "json"); err != nil {
		return nil, "", fmt.Errorf("write response_format field: %w", err)
	}
	if language != "" {
		if err := w.WriteField("language", language); err != nil {
			return nil, "", fmt.Errorf("write language field: %w", err)
		}
	}

	h := textproto.MIMEHeader{}
	h.Set("Content-Disposition", `form-data; name="file"; filename="audio.wav"`)
	h.Set("Content-Type", "audio/wav")
	part, err := w.CreatePart(h)
	if err != nil {
		return nil, "", fmt.Errorf("create file part: %w", err)
	}
	if _, err := part.Write(audioData); err != nil {
		return nil, "", fmt.Errorf("write audio payload: %w", err)
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close form: %w", err)
	}
	return body, w.FormDataContentType(), nil
}
