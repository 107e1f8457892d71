// encoder.go implements the public Encoder API.

package gosilk

import (
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/thesyncim/gosilk/silk"
)

// Encoder encodes 20 ms frames of mono PCM into SILK packets.
//
// An Encoder instance maintains internal state and is NOT safe for concurrent use.
// Each goroutine should create its own Encoder instance.
type Encoder struct {
	enc *silk.Encoder
	cfg EncoderConfig
	log logrus.FieldLogger
	obs Observer

	internalRate int
	inDTX        bool
}

// NewEncoder creates an encoder from cfg.
//
// Returns an error if the configuration is invalid.
func NewEncoder(cfg EncoderConfig) (*Encoder, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	enc, err := silk.NewEncoder(cfg.control())
	if err != nil {
		return nil, wrapCodecError(err)
	}
	e := &Encoder{
		enc: enc,
		cfg: cfg,
		log: loggerOrDiscard(cfg.Logger).WithField("component", "encoder"),
		obs: observerOrNop(cfg.Observer),
	}
	e.internalRate = enc.InternalSampleRate()
	e.log.WithFields(logrus.Fields{
		"sample_rate":   cfg.SampleRate,
		"internal_rate": e.internalRate,
		"packet_ms":     cfg.PacketSizeMs,
		"bitrate":       cfg.Bitrate,
		"complexity":    cfg.Complexity,
		"quantizer":     enc.Variant(),
	}).Debug("encoder configured")
	return e, nil
}

// Encode codes one frame of pcm, FrameSize samples at the configured rate,
// into packet.
//
// Returns the packet length once a packet is complete. While the frames of
// a longer packet are being collected, and while DTX suppresses silence,
// Encode returns 0 and a nil error. len(packet) is the largest packet the
// caller accepts; a packet that does not fit is dropped with
// ErrBufferTooSmall.
func (e *Encoder) Encode(pcm []int16, packet []byte) (int, error) {
	n, err := e.enc.Encode(pcm, packet)
	if err != nil {
		err = wrapCodecError(err)
		if errors.Is(err, ErrBufferTooSmall) {
			e.obs.PayloadDiscarded(err)
			e.log.WithField("max_bytes", len(packet)).Debug("packet dropped")
		}
		return 0, err
	}
	e.obs.FrameEncoded()

	if rate := e.enc.InternalSampleRate(); rate != e.internalRate {
		e.log.WithFields(logrus.Fields{
			"from": e.internalRate,
			"to":   rate,
		}).Debug("internal sample rate switched")
		e.internalRate = rate
	}

	dtx := e.enc.InDTX()
	if dtx != e.inDTX {
		if dtx {
			e.log.Debug("entering DTX")
		} else {
			e.log.Debug("leaving DTX")
		}
		e.inDTX = dtx
	}
	if dtx {
		e.obs.FrameSuppressed()
	}
	if n > 0 {
		e.obs.PacketEncoded(n)
	}
	return n, nil
}

// Reset clears the stream state, keeping the configuration.
func (e *Encoder) Reset() {
	e.enc.Reset()
	e.inDTX = false
}

// Config returns the active configuration.
func (e *Encoder) Config() EncoderConfig {
	return e.cfg
}

// Reconfigure validates cfg and applies it at the next packet boundary.
// The logger and observer of cfg replace the current ones.
func (e *Encoder) Reconfigure(cfg EncoderConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.SampleRate != e.cfg.SampleRate {
		return ErrInvalidSampleRate
	}
	if err := e.enc.Control(cfg.control()); err != nil {
		return wrapCodecError(err)
	}
	e.cfg = cfg
	e.log = loggerOrDiscard(cfg.Logger).WithField("component", "encoder")
	e.obs = observerOrNop(cfg.Observer)
	e.log.WithFields(logrus.Fields{
		"bitrate":     cfg.Bitrate,
		"complexity":  cfg.Complexity,
		"packet_ms":   cfg.PacketSizeMs,
		"packet_loss": cfg.PacketLossPercentage,
		"fec":         cfg.InbandFEC,
		"dtx":         cfg.DTX,
	}).Debug("configuration applied")
	return nil
}

// SetBitrate sets the target bitrate in bits per second.
func (e *Encoder) SetBitrate(bitrate int) error {
	cfg := e.cfg
	cfg.Bitrate = bitrate
	return e.Reconfigure(cfg)
}

// SetComplexity sets the complexity, 0 to 2.
func (e *Encoder) SetComplexity(complexity int) error {
	cfg := e.cfg
	cfg.Complexity = complexity
	return e.Reconfigure(cfg)
}

// SetPacketLoss sets the expected packet loss percentage.
func (e *Encoder) SetPacketLoss(percentage int) error {
	cfg := e.cfg
	cfg.PacketLossPercentage = percentage
	return e.Reconfigure(cfg)
}

// SetInbandFEC enables or disables in-band forward error correction.
func (e *Encoder) SetInbandFEC(enabled bool) error {
	cfg := e.cfg
	cfg.InbandFEC = enabled
	return e.Reconfigure(cfg)
}

// SetDTX enables or disables discontinuous transmission.
func (e *Encoder) SetDTX(enabled bool) error {
	cfg := e.cfg
	cfg.DTX = enabled
	return e.Reconfigure(cfg)
}

// FrameSize returns the number of samples Encode expects per call.
func (e *Encoder) FrameSize() int {
	return e.enc.FrameSize()
}

// Delay returns the algorithmic delay in samples at the configured rate.
func (e *Encoder) Delay() int {
	return e.enc.Delay()
}

// InternalSampleRate returns the rate the codec currently works at.
func (e *Encoder) InternalSampleRate() int {
	return e.enc.InternalSampleRate()
}

// InDTX reports whether the last frame was suppressed by DTX.
func (e *Encoder) InDTX() bool {
	return e.inDTX
}

// FECEnabled reports whether redundant frames are currently produced. This
// needs InbandFEC, a packet loss above 1% and enough bitrate.
func (e *Encoder) FECEnabled() bool {
	return e.enc.LBRREnabled()
}
