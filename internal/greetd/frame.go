package greetd

import (
	"encoding/binary"
	"fmt"
	"io"
)

// MaxFrameSize bounds a single message. greetd messages are tiny; anything
// larger means the stream is out of sync.
const MaxFrameSize = 1 << 20

// WriteFrame writes payload prefixed with its native-endian length in a
// single write.
func WriteFrame(w io.Writer, payload []byte) error {
	if len(payload) > MaxFrameSize {
		return fmt.Errorf("frame of %d bytes exceeds limit", len(payload))
	}
	buf := make([]byte, 4+len(payload))
	binary.NativeEndian.PutUint32(buf, uint32(len(payload)))
	copy(buf[4:], payload)
	defer wipe(buf)

	if _, err := w.Write(buf); err != nil {
		return fmt.Errorf("failed to write frame: %w", err)
	}
	return nil
}

// ReadFrame reads one length-prefixed message.
func ReadFrame(r io.Reader) ([]byte, error) {
	var header [4]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, fmt.Errorf("failed to read frame header: %w", err)
	}

	n := binary.NativeEndian.Uint32(header[:])
	if n > MaxFrameSize {
		return nil, fmt.Errorf("frame length %d exceeds limit", n)
	}

	payload := make([]byte, n)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, fmt.Errorf("failed to read payload: %w", err)
	}
	return payload, nil
}

func wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
