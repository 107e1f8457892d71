package silkfile

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Reader reads packets from a SILK v3 file.
type Reader struct {
	r       *bufio.Reader
	tencent bool
	eof     bool
	buf     [MaxPacketSize]byte
}

// NewReader reads and checks the file header.
func NewReader(r io.Reader) (*Reader, error) {
	sr := &Reader{r: bufio.NewReader(r)}

	first, err := sr.r.Peek(1)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadMagic, err)
	}
	if first[0] == TencentPrefix {
		sr.tencent = true
		sr.r.Discard(1)
	}

	var magic [len(Magic)]byte
	if _, err := io.ReadFull(sr.r, magic[:]); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadMagic, err)
	}
	if string(magic[:]) != Magic {
		return nil, ErrBadMagic
	}
	return sr, nil
}

// ReadPacket returns the next packet, or io.EOF at the end marker or the
// end of the stream. An empty, non-nil packet marks a slot without payload.
// The returned slice is only valid until the next call.
func (sr *Reader) ReadPacket() ([]byte, error) {
	if sr.eof {
		return nil, io.EOF
	}
	var n [2]byte
	if _, err := io.ReadFull(sr.r, n[:]); err != nil {
		sr.eof = true
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, ErrTruncated
	}
	size := binary.LittleEndian.Uint16(n[:])
	if size == endMarker {
		sr.eof = true
		return nil, io.EOF
	}
	if int(size) > MaxPacketSize {
		sr.eof = true
		return nil, ErrPacketTooLarge
	}
	p := sr.buf[:size]
	if _, err := io.ReadFull(sr.r, p); err != nil {
		sr.eof = true
		return nil, ErrTruncated
	}
	return p, nil
}

// Tencent reports whether the file carries the WeChat/QQ prefix byte.
func (sr *Reader) Tencent() bool {
	return sr.tencent
}
