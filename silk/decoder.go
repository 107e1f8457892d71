package silk

import (
	"errors"

	"github.com/thesyncim/gosilk/plc"
	"github.com/thesyncim/gosilk/rangecoding"
)

// DecoderControl configures a Decoder.
type DecoderControl struct {
	APISampleRate int // output rate in Hz: 8000..48000, a multiple of 50

	// Comfort-noise hysteresis; zero values select the defaults.
	CNGEnterFrames int
	CNGExitFrames  int
}

func (c *DecoderControl) validate() error {
	if !validAPIRate(c.APISampleRate) {
		return ErrInvalidSampleRate
	}
	return nil
}

// decoderControl holds the dequantized parameters of one frame.
type decoderControl struct {
	pitchL      [nbSubfr]int
	gainsQ16    [nbSubfr]int32
	predCoefQ12 [2][maxLPCOrder]int16
	ltpCoefQ14  [nbSubfr * ltpOrder]int16
	ltpScaleQ14 int32
	si          sideInfo
}

// decoderScratch holds the per-frame working buffers.
type decoderScratch struct {
	pulses  [maxFrameLength]int16
	out     [maxFrameLength]int16
	sLTP    [2 * maxFrameLength]int16
	sLTPQ15 [2 * maxFrameLength]int32
	resQ14  [maxSubfrLength]int32
	cngSig  [maxFrameLength + maxLPCOrder]int32
}

// Decoder is a SILK decoder for one mono stream. A Decoder is not safe for
// concurrent use.
type Decoder struct {
	ctl DecoderControl

	fsKHz       int
	frameLength int
	subfrLength int
	lpcOrder    int

	rc               rangecoding.Decoder
	nFramesDecoded   int
	nFramesInPacket  int
	moreFrames       bool
	nBytesLeft       int
	frameTermination int
	prevTypeOffset   int
	vadFlag          bool

	// In-band FEC tracking.
	noFECCounter    int
	inbandFECOffset int

	firstFrameAfterReset bool
	lastGainIndex        int
	prevNLSFQ15          [maxLPCOrder]int16
	prevSignalType       int
	lagPrev              int
	lossCnt              int

	// Synthesis state. outBuf holds the previous frame in its first half;
	// the current frame is reconstructed into the second.
	prevGainQ16 int32
	excQ14      [maxFrameLength]int32
	outBuf      [2 * maxFrameLength]int16
	sLPCQ14     [maxSubfrLength + maxLPCOrder]int32

	hpState [2]int32
	plc     plcState
	cng     cngState
	loss    *plc.State

	resampler   Resampler
	resamplerFs int // internal rate the resampler was set up for

	dc      decoderControl
	scratch *decoderScratch
}

// NewDecoder creates a decoder with the given configuration.
func NewDecoder(ctl DecoderControl) (*Decoder, error) {
	if err := ctl.validate(); err != nil {
		return nil, err
	}
	d := &Decoder{
		ctl:     ctl,
		scratch: new(decoderScratch),
		loss: plc.NewState(plc.Config{
			CNGEnterFrames: ctl.CNGEnterFrames,
			CNGExitFrames:  ctl.CNGExitFrames,
		}),
	}
	d.Reset()
	return d, nil
}

// Reset clears all stream state, keeping the configuration.
func (d *Decoder) Reset() {
	ctl, scratch, loss := d.ctl, d.scratch, d.loss
	*d = Decoder{ctl: ctl, scratch: scratch, loss: loss}
	d.loss.Reset()
	d.setFs(maxFsKHz)
	d.prevGainQ16 = 65536
	d.cng.reset(d.lpcOrder)
	d.plc.reset(d.frameLength)
}

// setFs switches the internal rate, resetting the synthesis state that
// depends on it.
func (d *Decoder) setFs(fsKHz int) {
	if fsKHz == d.fsKHz {
		return
	}
	d.fsKHz = fsKHz
	d.frameLength = frameLengthMs * fsKHz
	d.subfrLength = subfrLengthMs * fsKHz
	d.lpcOrder = lpcOrderFor(fsKHz)

	d.sLPCQ14 = [len(d.sLPCQ14)]int32{}
	d.outBuf = [len(d.outBuf)]int16{}
	d.prevNLSFQ15 = [maxLPCOrder]int16{}
	d.lagPrev = 100
	d.lastGainIndex = 1
	d.prevSignalType = typeVoiced
	d.firstFrameAfterReset = true
}

// Decode decodes one frame of payload into pcm at the API rate and returns
// the number of samples written. A payload may carry several frames: while
// more is true the caller must call Decode again with the same payload.
// With lost set, payload is ignored and the frame is concealed.
//
// A corrupt or oversized payload is concealed as well; the concealed
// samples are returned together with the error.
func (d *Decoder) Decode(payload []byte, lost bool, pcm []int16) (n int, more bool, err error) {
	if len(pcm) < frameLengthMs*d.ctl.APISampleRate/1000 {
		return 0, false, ErrInvalidFrameSize
	}
	if !d.moreFrames {
		d.nFramesDecoded = 0
	}
	if !d.moreFrames && !lost && len(payload) > rangecoding.MaxPayloadBytes {
		lost = true
		err = ErrPayloadTooLarge
	}

	out := d.scratch.out[:]
	length, used, ferr := d.decodeFrame(payload, lost, out)
	if err == nil {
		err = ferr
	}

	if used {
		if d.nBytesLeft > 0 && d.frameTermination == moreFrames && d.nFramesDecoded < maxFramesPerPkt {
			d.moreFrames = true
		} else {
			d.moreFrames = false
			d.nFramesInPacket = d.nFramesDecoded
			d.trackFEC()
		}
	}

	if d.fsKHz*1000 == d.ctl.APISampleRate {
		d.resamplerFs = 0
		n = copy(pcm, out[:length])
	} else {
		if d.resamplerFs != d.fsKHz {
			if rerr := d.resampler.init(d.fsKHz*1000, d.ctl.APISampleRate); rerr != nil {
				return 0, false, rerr
			}
			d.resamplerFs = d.fsKHz
		}
		n = d.resampler.Process(pcm, out[:length])
	}
	if d.lossCnt > 0 {
		d.limitConcealEnergy(pcm[:n])
	}
	return n, d.moreFrames, err
}

// trackFEC follows the frame terminators of active packets to learn the
// delay of the in-band redundancy the encoder sends.
func (d *Decoder) trackFEC() {
	if !d.vadFlag {
		return
	}
	switch d.frameTermination {
	case lastFrame:
		d.noFECCounter++
		if d.noFECCounter > noLBRRThres {
			d.inbandFECOffset = 0
		}
	case lbrrVer1:
		d.inbandFECOffset = 1
		d.noFECCounter = 0
	case lbrrVer2:
		d.inbandFECOffset = 2
		d.noFECCounter = 0
	}
}

// decodeFrame decodes or conceals one frame at the internal rate into out.
// used reports whether payload bytes were consumed.
func (d *Decoder) decodeFrame(payload []byte, lost bool, out []int16) (length int, used bool, err error) {
	dc := &d.dc
	*dc = decoderControl{}
	length = d.frameLength

	if !lost {
		fsOld := d.fsKHz
		if d.nFramesDecoded == 0 {
			d.rc.Init(payload)
		}
		pulses := d.scratch.pulses[:]
		rcErr := d.decodeParams(dc, pulses)
		used = true

		if rcErr != nil {
			d.nBytesLeft = 0
			lost = true
			d.setFs(fsOld)
			length = d.frameLength
			if errors.Is(rcErr, rangecoding.ErrPayloadTooLong) {
				err = ErrPayloadTooLarge
			} else {
				err = ErrPayloadCorrupt
			}
		} else {
			d.nFramesDecoded++
			length = d.frameLength
			d.decodeCore(dc, out[:length], pulses[:length])
			d.plc.update(d, dc)
			d.lossCnt = 0
			d.prevSignalType = dc.si.signalType
			d.firstFrameAfterReset = false
			d.loss.RecordFrame(d.vadFlag)
		}
	}

	mode := plc.ModeNormal
	if lost {
		mode = d.loss.RecordLoss()
		d.plc.conceal(d, dc, out[:length])
		d.lossCnt++
		if mode == plc.ModeComfortNoise {
			clear(out[:length])
		}
	}

	copy(d.outBuf[:length], out[:length])

	d.plc.glue(d, out[:length])
	d.cng.apply(d, dc, out[:length], mode == plc.ModeComfortNoise)

	biquad(out[:length], out[:length], &decHPB, &decHPA[rateIndex(d.fsKHz)], &d.hpState)

	d.lagPrev = dc.pitchL[nbSubfr-1]
	return length, used, err
}

// limitConcealEnergy keeps consecutive concealed frames of the API-rate
// output from gaining energy.
func (d *Decoder) limitConcealEnergy(x []int16) {
	if len(x) == 0 {
		return
	}
	g := d.loss.LimitGain(meanEnergy(x))
	if g >= 1 {
		return
	}
	for i, v := range x {
		x[i] = int16(float64(v) * g)
	}
	d.loss.RecordConcealEnergy(meanEnergy(x))
}

func meanEnergy(x []int16) float64 {
	var nrg float64
	for _, v := range x {
		nrg += float64(v) * float64(v)
	}
	return nrg / float64(len(x))
}

// FrameSize returns the number of API-rate samples produced per frame.
func (d *Decoder) FrameSize() int {
	return frameLengthMs * d.ctl.APISampleRate / 1000
}

// PacketFrames returns the number of frames in the last complete packet.
func (d *Decoder) PacketFrames() int {
	return d.nFramesInPacket
}

// FECOffset returns the packet distance of the in-band redundancy seen in
// recent active packets: 0 (none), 1 or 2.
func (d *Decoder) FECOffset() int {
	return d.inbandFECOffset
}

// InternalSampleRate returns the internal rate of the last decoded frame
// in Hz.
func (d *Decoder) InternalSampleRate() int {
	return d.fsKHz * 1000
}

// LossMode returns the concealment mode of the last frame.
func (d *Decoder) LossMode() plc.Mode {
	return d.loss.Mode()
}

// SearchLBRR returns the redundant copy, embedded in payload, of the packet
// lossOffset packets earlier, or ErrNoLBRRData when payload carries none.
// The returned slice aliases payload. The decoder state is not used, only
// fsKHz to seed the parse; the rate is read from the payload.
func SearchLBRR(payload []byte, lossOffset int) ([]byte, error) {
	if lossOffset < 1 || lossOffset > maxLBRRDelay {
		return nil, ErrInvalidLBRROffset
	}
	if len(payload) > rangecoding.MaxPayloadBytes {
		return nil, ErrPayloadTooLarge
	}

	var (
		rc     rangecoding.Decoder
		si     sideInfo
		pulses [maxFrameLength]int16
	)
	rc.Init(payload)
	fsKHz := maxFsKHz
	prevTypeOffset := 0
	for nFrames := 0; nFrames < maxFramesPerPkt; nFrames++ {
		fsKHz = decodeIndices(&rc, &si, fsKHz, nFrames == 0, prevTypeOffset)
		prevTypeOffset = si.typeOffset()
		decodePulses(&rc, pulses[:frameLengthMs*fsKHz], si.signalType, si.quantOffsetType)
		rc.Decode(vadFlagCDF, 0)
		term := rc.Decode(frameTerminationCDF, 0)
		if rc.Err() != nil {
			return nil, ErrPayloadCorrupt
		}
		left := rc.Remaining()
		if term > moreFrames && (term-1)&lossOffset != 0 && left >= 0 {
			if left == 0 {
				return nil, ErrNoLBRRData
			}
			return payload[len(payload)-left:], nil
		}
		if left <= 0 || term != moreFrames {
			break
		}
	}
	return nil, ErrNoLBRRData
}
