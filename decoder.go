// decoder.go implements the public Decoder API.

package gosilk

import (
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/thesyncim/gosilk/plc"
	"github.com/thesyncim/gosilk/silk"
)

// Decoder decodes SILK packets into mono PCM.
//
// A Decoder instance maintains internal state and is NOT safe for concurrent use.
// Each goroutine should create its own Decoder instance.
type Decoder struct {
	dec *silk.Decoder
	cfg DecoderConfig
	log logrus.FieldLogger
	obs Observer

	mode      plc.Mode
	fecOffset int
}

// NewDecoder creates a decoder from cfg.
//
// Returns an error if the configuration is invalid.
func NewDecoder(cfg DecoderConfig) (*Decoder, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	dec, err := silk.NewDecoder(silk.DecoderControl{
		APISampleRate:  cfg.SampleRate,
		CNGEnterFrames: cfg.CNGEnterFrames,
		CNGExitFrames:  cfg.CNGExitFrames,
	})
	if err != nil {
		return nil, wrapCodecError(err)
	}
	d := &Decoder{
		dec: dec,
		cfg: cfg,
		log: loggerOrDiscard(cfg.Logger).WithField("component", "decoder"),
		obs: observerOrNop(cfg.Observer),
	}
	d.log.WithField("sample_rate", cfg.SampleRate).Debug("decoder configured")
	return d, nil
}

// Decode decodes one frame of payload into pcm and returns the number of
// samples written. An empty payload marks a lost packet and the frame is
// concealed.
//
// A packet may hold several frames. While more is true the caller must call
// Decode again with the same payload to get the next one.
//
// A payload that is too large or corrupt is concealed too: the concealed
// samples are returned along with ErrPacketTooLarge or ErrCorruptPacket.
// pcm must hold at least FrameSize samples.
func (d *Decoder) Decode(payload []byte, pcm []int16) (n int, more bool, err error) {
	lost := len(payload) == 0
	n, more, err = d.dec.Decode(payload, lost, pcm)
	if err != nil {
		err = wrapCodecError(err)
		if n == 0 {
			return 0, false, err
		}
		lost = true
		d.obs.PayloadDiscarded(err)
		d.log.WithError(err).WithField("bytes", len(payload)).Debug("payload discarded, concealing frame")
	}

	mode := d.dec.LossMode()
	if lost {
		d.obs.FrameConcealed(mode)
	} else {
		d.obs.FrameDecoded()
	}
	d.trackMode(mode)

	if off := d.dec.FECOffset(); off != d.fecOffset {
		d.log.WithFields(logrus.Fields{
			"from": d.fecOffset,
			"to":   off,
		}).Debug("in-band FEC offset changed")
		d.fecOffset = off
	}
	return n, more, err
}

func (d *Decoder) trackMode(mode plc.Mode) {
	if mode == d.mode {
		return
	}
	switch {
	case mode == plc.ModeComfortNoise:
		d.log.Debug("entering comfort noise")
	case d.mode == plc.ModeComfortNoise:
		d.log.WithField("mode", mode.String()).Debug("leaving comfort noise")
	}
	d.mode = mode
}

// DecodePacket decodes every frame of payload into pcm and returns the
// total number of samples written. An empty payload conceals as many frames
// as the last packet had.
//
// Errors from individual frames do not stop decoding; the first one is
// returned with the samples of all frames.
func (d *Decoder) DecodePacket(payload []byte, pcm []int16) (int, error) {
	frames := 1
	if len(payload) == 0 {
		frames = max(d.dec.PacketFrames(), 1)
	}
	var (
		total    int
		firstErr error
	)
	for i := 0; ; i++ {
		if len(pcm)-total < d.FrameSize() {
			return total, ErrInvalidFrameSize
		}
		n, more, err := d.Decode(payload, pcm[total:])
		if err != nil {
			if n == 0 {
				return total, err
			}
			if firstErr == nil {
				firstErr = err
			}
		}
		total += n
		if len(payload) == 0 {
			if i+1 >= frames {
				break
			}
		} else if !more {
			break
		}
	}
	return total, firstErr
}

// DecodeFEC rebuilds a lost packet from the redundancy carried in next, the
// packet lossOffset packets later. When next carries no redundant copy the
// packet is concealed instead.
func (d *Decoder) DecodeFEC(next []byte, lossOffset int, pcm []int16) (int, error) {
	lbrr, err := SearchLBRR(next, lossOffset)
	if err != nil {
		if errors.Is(err, ErrInvalidFECOffset) {
			return 0, err
		}
		d.log.WithError(err).Debug("no FEC data, concealing packet")
		return d.DecodePacket(nil, pcm)
	}
	n, err := d.DecodePacket(lbrr, pcm)
	if err == nil {
		d.obs.FECRecovered()
		d.log.WithFields(logrus.Fields{
			"offset": lossOffset,
			"bytes":  len(lbrr),
		}).Debug("packet recovered from FEC")
	}
	return n, err
}

// Reset clears the stream state, keeping the configuration.
func (d *Decoder) Reset() {
	d.dec.Reset()
	d.mode = plc.ModeNormal
	d.fecOffset = 0
}

// FrameSize returns the number of samples produced per frame.
func (d *Decoder) FrameSize() int {
	return d.dec.FrameSize()
}

// PacketFrames returns the number of frames in the last packet.
func (d *Decoder) PacketFrames() int {
	return d.dec.PacketFrames()
}

// FECOffset returns how many packets back the redundancy of recent packets
// reaches: 0 when the stream carries none, otherwise 1 or 2.
func (d *Decoder) FECOffset() int {
	return d.dec.FECOffset()
}

// InternalSampleRate returns the coded rate of the last frame.
func (d *Decoder) InternalSampleRate() int {
	return d.dec.InternalSampleRate()
}

// LossMode returns the concealment mode of the last frame.
func (d *Decoder) LossMode() plc.Mode {
	return d.dec.LossMode()
}
