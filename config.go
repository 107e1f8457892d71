// config.go defines the encoder and decoder configuration.

package gosilk

import (
	"io"
	"slices"

	"github.com/sirupsen/logrus"

	"github.com/thesyncim/gosilk/plc"
	"github.com/thesyncim/gosilk/silk"
)

// EncoderConfig configures an Encoder.
type EncoderConfig struct {
	// SampleRate is the rate of the PCM passed to Encode, in Hz.
	SampleRate int

	// MaxInternalSampleRate caps the rate the codec works at: 8000, 12000,
	// 16000 or 24000. Zero selects the highest of those not above
	// SampleRate.
	MaxInternalSampleRate int

	// Channels must be 1. Zero selects mono.
	Channels int

	// PacketSizeMs is the packet duration: 20, 40, 60, 80 or 100.
	PacketSizeMs int

	// Bitrate is the target rate in bits per second.
	Bitrate int

	// Complexity trades quality for speed, 0 (fastest) to 2 (best).
	Complexity int

	// PacketLossPercentage is the expected network loss. It steers the
	// amount of redundancy spent on in-band FEC.
	PacketLossPercentage int

	InbandFEC bool
	DTX       bool

	// Logger receives debug events. Nil discards them.
	Logger logrus.FieldLogger

	// Observer receives per-packet statistics. Nil disables reporting.
	Observer Observer
}

// DefaultEncoderConfig returns a configuration for wideband VoIP at the
// given API rate: 20 ms packets at 25 kbit/s, highest complexity.
func DefaultEncoderConfig(sampleRate int) EncoderConfig {
	return EncoderConfig{
		SampleRate:   sampleRate,
		Channels:     1,
		PacketSizeMs: 20,
		Bitrate:      25000,
		Complexity:   2,
	}
}

// Validate reports the first invalid field.
func (c EncoderConfig) Validate() error {
	if !validAPIRate(c.SampleRate) {
		return ErrInvalidSampleRate
	}
	if c.MaxInternalSampleRate != 0 && !validInternalRate(c.MaxInternalSampleRate) {
		return ErrInvalidSampleRate
	}
	if c.Channels != 0 && c.Channels != 1 {
		return ErrInvalidChannels
	}
	switch c.PacketSizeMs {
	case 20, 40, 60, 80, 100:
	default:
		return ErrInvalidPacketSize
	}
	if c.Bitrate < 0 {
		return ErrInvalidBitrate
	}
	if c.Complexity < 0 || c.Complexity > 2 {
		return ErrInvalidComplexity
	}
	if c.PacketLossPercentage < 0 || c.PacketLossPercentage > 100 {
		return ErrInvalidPacketLoss
	}
	return nil
}

func (c EncoderConfig) control() silk.EncoderControl {
	maxRate := c.MaxInternalSampleRate
	if maxRate == 0 {
		maxRate = defaultMaxInternalRate(c.SampleRate)
	}
	return silk.EncoderControl{
		APISampleRate:         c.SampleRate,
		MaxInternalSampleRate: maxRate,
		PacketSizeMs:          c.PacketSizeMs,
		BitRate:               c.Bitrate,
		PacketLossPercentage:  c.PacketLossPercentage,
		Complexity:            c.Complexity,
		UseInbandFEC:          c.InbandFEC,
		UseDTX:                c.DTX,
	}
}

// DecoderConfig configures a Decoder.
type DecoderConfig struct {
	// SampleRate is the rate of the PCM returned by Decode, in Hz.
	SampleRate int

	// Channels must be 1. Zero selects mono.
	Channels int

	// CNGEnterFrames is the number of consecutive inactive frames after
	// which losses are filled with comfort noise; CNGExitFrames the number
	// of active frames that end it. Zero selects the defaults.
	CNGEnterFrames int
	CNGExitFrames  int

	// Logger receives debug events. Nil discards them.
	Logger logrus.FieldLogger

	// Observer receives per-frame statistics. Nil disables reporting.
	Observer Observer
}

// DefaultDecoderConfig returns a decoder configuration for the given output
// rate with the default comfort noise hysteresis.
func DefaultDecoderConfig(sampleRate int) DecoderConfig {
	d := plc.DefaultConfig()
	return DecoderConfig{
		SampleRate:     sampleRate,
		Channels:       1,
		CNGEnterFrames: d.CNGEnterFrames,
		CNGExitFrames:  d.CNGExitFrames,
	}
}

// Validate reports the first invalid field.
func (c DecoderConfig) Validate() error {
	if !validAPIRate(c.SampleRate) {
		return ErrInvalidSampleRate
	}
	if c.Channels != 0 && c.Channels != 1 {
		return ErrInvalidChannels
	}
	if c.CNGEnterFrames < 0 || c.CNGExitFrames < 0 {
		return ErrInvalidCNGFrames
	}
	return nil
}

// validAPIRate accepts any rate in 8..48 kHz that divides into whole 20 ms
// frames, such as 32000, 22050 or 44100.
func validAPIRate(rate int) bool {
	return rate >= 8000 && rate <= 48000 && rate%50 == 0
}

var internalRates = []int{8000, 12000, 16000, 24000}

func validInternalRate(rate int) bool {
	return slices.Contains(internalRates, rate)
}

// defaultMaxInternalRate is the highest internal rate the API rate can
// carry.
func defaultMaxInternalRate(apiRate int) int {
	best := internalRates[0]
	for _, r := range internalRates {
		if r <= apiRate {
			best = r
		}
	}
	return best
}

// loggerOrDiscard returns l, or a logger that drops everything when l is
// nil.
func loggerOrDiscard(l logrus.FieldLogger) logrus.FieldLogger {
	if l != nil {
		return l
	}
	discard := logrus.New()
	discard.SetOutput(io.Discard)
	discard.SetLevel(logrus.PanicLevel)
	return discard
}
