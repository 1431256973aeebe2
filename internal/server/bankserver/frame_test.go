package bankserver

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"testing"

	"github.com/yndnr/bankmesh-go/internal/core/domain"
)

func TestNewFramer(t *testing.T) {
	tests := []struct {
		mode    string
		max     int
		wantErr bool
	}{
		{"", 1024, false},
		{"raw", 1024, false},
		{"RAW", 1024, false},
		{"length", 1024, false},
		{"chunked", 1024, true},
		{"raw", 0, true},
	}
	for _, tt := range tests {
		_, err := NewFramer(tt.mode, tt.max)
		if (err != nil) != tt.wantErr {
			t.Errorf("NewFramer(%q, %d) error = %v, wantErr %v", tt.mode, tt.max, err, tt.wantErr)
		}
		if err != nil && !errors.Is(err, domain.ErrConfig) {
			t.Errorf("NewFramer(%q) error = %v, want ErrConfig", tt.mode, err)
		}
	}
}

// chunkReader hands out one chunk per Read call.
type chunkReader struct {
	chunks [][]byte
}

func (r *chunkReader) Read(p []byte) (int, error) {
	if len(r.chunks) == 0 {
		return 0, io.EOF
	}
	n := copy(p, r.chunks[0])
	r.chunks[0] = r.chunks[0][n:]
	if len(r.chunks[0]) == 0 {
		r.chunks = r.chunks[1:]
	}
	return n, nil
}

func TestRawFramer(t *testing.T) {
	f, _ := NewFramer(FramingRaw, 8)

	r := &chunkReader{chunks: [][]byte{[]byte("abc"), []byte("0123456789")}}

	msg, err := f.ReadMessage(r)
	if err != nil || string(msg) != "abc" {
		t.Fatalf("first read = %q, %v", msg, err)
	}
	// A read never returns more than max bytes.
	msg, err = f.ReadMessage(r)
	if err != nil || string(msg) != "01234567" {
		t.Fatalf("second read = %q, %v", msg, err)
	}
	msg, err = f.ReadMessage(r)
	if err != nil || string(msg) != "89" {
		t.Fatalf("third read = %q, %v", msg, err)
	}
	if _, err := f.ReadMessage(r); !errors.Is(err, io.EOF) {
		t.Fatalf("read after close = %v, want io.EOF", err)
	}

	var buf bytes.Buffer
	if err := f.WriteMessage(&buf, []byte("Your transaction is successful")); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "Your transaction is successful" {
		t.Errorf("raw write should be unframed, got %q", buf.String())
	}
}

func TestLengthFramer_RoundTrip(t *testing.T) {
	f, _ := NewFramer(FramingLength, 64)

	var buf bytes.Buffer
	for _, m := range []string{"first", "", "third message"} {
		if err := f.WriteMessage(&buf, []byte(m)); err != nil {
			t.Fatalf("WriteMessage(%q) error = %v", m, err)
		}
	}
	if got := binary.BigEndian.Uint32(buf.Bytes()[:4]); got != 5 {
		t.Fatalf("prefix = %d, want 5", got)
	}

	// Deliver the stream one byte at a time; framing must not depend on
	// read boundaries.
	var chunks [][]byte
	for _, b := range buf.Bytes() {
		chunks = append(chunks, []byte{b})
	}
	r := &chunkReader{chunks: chunks}

	for _, want := range []string{"first", "", "third message"} {
		msg, err := f.ReadMessage(r)
		if err != nil {
			t.Fatalf("ReadMessage() error = %v", err)
		}
		if string(msg) != want {
			t.Errorf("ReadMessage() = %q, want %q", msg, want)
		}
	}
	if _, err := f.ReadMessage(r); !errors.Is(err, io.EOF) {
		t.Errorf("ReadMessage() at end = %v, want io.EOF", err)
	}
}

func TestLengthFramer_Errors(t *testing.T) {
	f, _ := NewFramer(FramingLength, 16)

	tooBig := []byte{0, 0, 0, 17}
	if _, err := f.ReadMessage(bytes.NewReader(tooBig)); !errors.Is(err, domain.ErrFrameTooLarge) {
		t.Errorf("oversized frame error = %v, want ErrFrameTooLarge", err)
	}

	truncatedHeader := []byte{0, 0}
	if _, err := f.ReadMessage(bytes.NewReader(truncatedHeader)); !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("truncated header error = %v, want io.ErrUnexpectedEOF", err)
	}

	truncatedBody := []byte{0, 0, 0, 4, 'a', 'b'}
	if _, err := f.ReadMessage(bytes.NewReader(truncatedBody)); !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("truncated body error = %v, want io.ErrUnexpectedEOF", err)
	}
}
