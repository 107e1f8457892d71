// errors.go defines public error types for the gosilk package.

package gosilk

import (
	"errors"
	"fmt"

	"github.com/thesyncim/gosilk/silk"
)

// Public error types for encoding and decoding operations.
var (
	// ErrInvalidSampleRate indicates an unsupported sample rate.
	// Valid API rates are 8000, 12000, 16000, 24000 and 48000; the internal
	// rate is capped at 24000.
	ErrInvalidSampleRate = errors.New("gosilk: invalid sample rate")

	// ErrInvalidChannels indicates a channel count other than 1. Zero
	// selects mono.
	ErrInvalidChannels = errors.New("gosilk: invalid channels (must be 1)")

	// ErrInvalidPacketSize indicates a packet duration other than 20, 40,
	// 60, 80 or 100 ms.
	ErrInvalidPacketSize = errors.New("gosilk: invalid packet size (must be 20, 40, 60, 80 or 100 ms)")

	// ErrInvalidBitrate indicates a negative bitrate. Positive values are
	// clamped to 5000..100000.
	ErrInvalidBitrate = errors.New("gosilk: invalid bitrate")

	// ErrInvalidComplexity indicates the complexity is out of range.
	ErrInvalidComplexity = errors.New("gosilk: invalid complexity (must be 0-2)")

	// ErrInvalidPacketLoss indicates an invalid packet loss percentage.
	ErrInvalidPacketLoss = errors.New("gosilk: invalid packet loss percentage (must be 0-100)")

	// ErrInvalidCNGFrames indicates a negative comfort noise hysteresis.
	ErrInvalidCNGFrames = errors.New("gosilk: invalid comfort noise frame count")

	// ErrInvalidFrameSize indicates the PCM buffer does not hold exactly one
	// frame (encoder) or is too small for one frame (decoder).
	ErrInvalidFrameSize = errors.New("gosilk: invalid frame size")

	// ErrBufferTooSmall indicates the packet did not fit in the output
	// buffer. The packet is dropped.
	ErrBufferTooSmall = errors.New("gosilk: output buffer too small")

	// ErrPacketTooLarge indicates a payload over 1024 bytes. The frame is
	// concealed.
	ErrPacketTooLarge = errors.New("gosilk: packet too large")

	// ErrCorruptPacket indicates a payload that could not be decoded. The
	// frame is concealed.
	ErrCorruptPacket = errors.New("gosilk: corrupt packet")

	// ErrNoFECData indicates the packet carries no redundant copy of the
	// requested frame.
	ErrNoFECData = errors.New("gosilk: no FEC data")

	// ErrInvalidFECOffset indicates a loss distance other than 1 or 2.
	ErrInvalidFECOffset = errors.New("gosilk: invalid FEC offset (must be 1 or 2)")
)

// codecErrors maps the sentinels of the codec core to the public ones.
var codecErrors = []struct {
	internal, public error
}{
	{silk.ErrInvalidSampleRate, ErrInvalidSampleRate},
	{silk.ErrInvalidComplexity, ErrInvalidComplexity},
	{silk.ErrInvalidPacketSize, ErrInvalidPacketSize},
	{silk.ErrInvalidLossRate, ErrInvalidPacketLoss},
	{silk.ErrInvalidFrameSize, ErrInvalidFrameSize},
	{silk.ErrPayloadBufferTooShort, ErrBufferTooSmall},
	{silk.ErrPayloadTooLarge, ErrPacketTooLarge},
	{silk.ErrPayloadCorrupt, ErrCorruptPacket},
	{silk.ErrNoLBRRData, ErrNoFECData},
	{silk.ErrInvalidLBRROffset, ErrInvalidFECOffset},
}

// wrapCodecError returns err wrapped with the matching public sentinel so
// that errors.Is works with both.
func wrapCodecError(err error) error {
	if err == nil {
		return nil
	}
	for _, m := range codecErrors {
		if errors.Is(err, m.internal) {
			return fmt.Errorf("%w: %w", m.public, err)
		}
	}
	return fmt.Errorf("gosilk: %w", err)
}
