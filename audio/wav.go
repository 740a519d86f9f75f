package audio

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

// WAVHeaderSize is the size of a canonical RIFF header for a single
// PCM data chunk.
const WAVHeaderSize = 44

// wavWriter streams 16-bit mono PCM into a file behind a RIFF header.
// The header is written with zero chunk sizes up front and patched by
// Finalize once the payload length is known.
type wavWriter struct {
	f       *os.File
	payload uint32
}

func newWAVWriter(f *os.File) (*wavWriter, error) {
	w := &wavWriter{f: f}
	if err := w.writeHeader(); err != nil {
		return nil, fmt.Errorf("wav header: %w", err)
	}
	return w, nil
}

func (w *wavWriter) writeHeader() error {
	var hdr [WAVHeaderSize]byte
	copy(hdr[0:4], "RIFF")
	binary.LittleEndian.PutUint32(hdr[4:8], 36+w.payload)
	copy(hdr[8:12], "WAVE")
	copy(hdr[12:16], "fmt ")
	binary.LittleEndian.PutUint32(hdr[16:20], 16) // PCM fmt chunk size
	binary.LittleEndian.PutUint16(hdr[20:22], 1)  // linear PCM, no compression
	binary.LittleEndian.PutUint16(hdr[22:24], Channels)
	binary.LittleEndian.PutUint32(hdr[24:28], SampleRate)
	binary.LittleEndian.PutUint32(hdr[28:32], SampleRate*Channels*BitDepth/8)
	binary.LittleEndian.PutUint16(hdr[32:34], Channels*BitDepth/8)
	binary.LittleEndian.PutUint16(hdr[34:36], BitDepth)
	copy(hdr[36:40], "data")
	binary.LittleEndian.PutUint32(hdr[40:44], w.payload)
	_, err := w.f.Write(hdr[:])
	return err
}

func (w *wavWriter) Write(p []byte) (int, error) {
	n, err := w.f.Write(p)
	w.payload += uint32(n)
	return n, err
}

// Finalize patches the RIFF sizes, flushes and closes the file, and
// returns the total file size in bytes.
func (w *wavWriter) Finalize() (int64, error) {
	if _, err := w.f.Seek(0, io.SeekStart); err != nil {
		w.f.Close()
		return 0, fmt.Errorf("wav finalize: %w", err)
	}
	if err := w.writeHeader(); err != nil {
		w.f.Close()
		return 0, fmt.Errorf("wav finalize: %w", err)
	}
	if err := w.f.Sync(); err != nil {
		w.f.Close()
		return 0, fmt.Errorf("wav sync: %w", err)
	}
	if err := w.f.Close(); err != nil {
		return 0, fmt.Errorf("wav close: %w", err)
	}
	return int64(WAVHeaderSize) + int64(w.payload), nil
}

func (w *wavWriter) discard() {
	w.f.Close()
}
