package silkfile

import (
	"encoding/binary"
	"fmt"
	"io"
)

const (
	// Magic starts every SILK v3 file.
	Magic = "#!SILK_V3"

	// TencentPrefix is the byte WeChat and QQ write before Magic.
	TencentPrefix = 0x02

	// MaxPacketSize is the largest payload a packet may carry.
	MaxPacketSize = 1024

	endMarker = 0xFFFF
)

// WriterConfig configures a Writer.
type WriterConfig struct {
	// Tencent selects the WeChat/QQ layout: a 0x02 byte before the magic
	// and no end marker.
	Tencent bool
}

// Writer writes packets to a SILK v3 file.
type Writer struct {
	w       io.Writer
	cfg     WriterConfig
	packets int
	closed  bool
}

// NewWriter writes the file header to w and returns a Writer.
func NewWriter(w io.Writer) (*Writer, error) {
	return NewWriterWithConfig(w, WriterConfig{})
}

// NewWriterWithConfig is NewWriter with explicit layout options.
func NewWriterWithConfig(w io.Writer, cfg WriterConfig) (*Writer, error) {
	var hdr []byte
	if cfg.Tencent {
		hdr = append(hdr, TencentPrefix)
	}
	hdr = append(hdr, Magic...)
	if _, err := w.Write(hdr); err != nil {
		return nil, fmt.Errorf("silkfile: write header: %w", err)
	}
	return &Writer{w: w, cfg: cfg}, nil
}

// WritePacket appends one packet. An empty packet records a slot without
// payload.
func (sw *Writer) WritePacket(packet []byte) error {
	if sw.closed {
		return ErrClosed
	}
	if len(packet) > MaxPacketSize {
		return ErrPacketTooLarge
	}
	var n [2]byte
	binary.LittleEndian.PutUint16(n[:], uint16(len(packet)))
	if _, err := sw.w.Write(n[:]); err != nil {
		return fmt.Errorf("silkfile: write length: %w", err)
	}
	if _, err := sw.w.Write(packet); err != nil {
		return fmt.Errorf("silkfile: write packet: %w", err)
	}
	sw.packets++
	return nil
}

// Close writes the end marker. It does not close the underlying writer.
func (sw *Writer) Close() error {
	if sw.closed {
		return nil
	}
	sw.closed = true
	if sw.cfg.Tencent {
		return nil
	}
	var n [2]byte
	binary.LittleEndian.PutUint16(n[:], endMarker)
	if _, err := sw.w.Write(n[:]); err != nil {
		return fmt.Errorf("silkfile: write end marker: %w", err)
	}
	return nil
}

// PacketCount returns the number of packets written.
func (sw *Writer) PacketCount() int {
	return sw.packets
}
