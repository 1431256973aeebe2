package bankserver

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/yndnr/bankmesh-go/internal/core/domain"
)

// Framing modes.
const (
	FramingRaw    = "raw"
	FramingLength = "length"
)

// Framer splits a byte stream into messages.
type Framer interface {
	// ReadMessage returns the next message, or io.EOF once the peer has
	// closed the stream.
	ReadMessage(r io.Reader) ([]byte, error)
	// WriteMessage writes p as one message.
	WriteMessage(w io.Writer, p []byte) error
}

// NewFramer returns the Framer for mode. maxSize bounds inbound messages.
func NewFramer(mode string, maxSize int) (Framer, error) {
	if maxSize < 1 {
		return nil, domain.ErrConfig.WithDetails("max message size must be positive")
	}
	switch strings.ToLower(mode) {
	case "", FramingRaw:
		return &rawFramer{max: maxSize}, nil
	case FramingLength:
		return &lengthFramer{max: maxSize}, nil
	default:
		return nil, domain.ErrConfig.WithDetails(fmt.Sprintf("unknown framing %q", mode))
	}
}

// rawFramer treats whatever a single read returns as one message.
type rawFramer struct {
	max int
}

func (f *rawFramer) ReadMessage(r io.Reader) ([]byte, error) {
	buf := make([]byte, f.max)
	n, err := r.Read(buf)
	if n > 0 {
		return buf[:n], nil
	}
	if err == nil {
		return nil, io.ErrNoProgress
	}
	return nil, err
}

func (f *rawFramer) WriteMessage(w io.Writer, p []byte) error {
	_, err := w.Write(p)
	return err
}

// lengthFramer prefixes every message with its length as a big-endian
// uint32.
type lengthFramer struct {
	max int
}

const lengthPrefixSize = 4

func (f *lengthFramer) ReadMessage(r io.Reader) ([]byte, error) {
	var hdr [lengthPrefixSize]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("read frame header: %w", err)
		}
		return nil, err
	}

	size := binary.BigEndian.Uint32(hdr[:])
	if uint64(size) > uint64(f.max) {
		return nil, domain.ErrFrameTooLarge.WithDetails(fmt.Sprintf("%d > %d", size, f.max))
	}

	buf := make([]byte, size)
	if _, err := io.ReadFull(r, buf); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return nil, fmt.Errorf("read frame body: %w", err)
	}
	return buf, nil
}

func (f *lengthFramer) WriteMessage(w io.Writer, p []byte) error {
	if uint64(len(p)) > math.MaxUint32 {
		return domain.ErrFrameTooLarge
	}
	buf := make([]byte, lengthPrefixSize+len(p))
	binary.BigEndian.PutUint32(buf, uint32(len(p)))
	copy(buf[lengthPrefixSize:], p)
	_, err := w.Write(buf)
	return err
}
