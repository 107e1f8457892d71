package silkfile

import "errors"

var (
	// ErrBadMagic indicates the stream does not start with "#!SILK_V3".
	ErrBadMagic = errors.New("silkfile: missing #!SILK_V3 header")

	// ErrTruncated indicates the stream ended inside a packet.
	ErrTruncated = errors.New("silkfile: truncated packet")

	// ErrPacketTooLarge indicates a packet longer than MaxPacketSize.
	ErrPacketTooLarge = errors.New("silkfile: packet too large")

	// ErrClosed indicates a write after Close.
	ErrClosed = errors.New("silkfile: writer closed")
)
