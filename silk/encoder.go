package silk

import "github.com/thesyncim/gosilk/rangecoding"

// EncoderControl configures an Encoder. Changes made through Control take
// effect at the next packet boundary.
type EncoderControl struct {
	APISampleRate         int // input rate in Hz: 8000..48000, a multiple of 50
	MaxInternalSampleRate int // highest internal rate in Hz: 8000, 12000, 16000 or 24000
	PacketSizeMs          int // 20, 40, 60, 80 or 100
	BitRate               int // target rate in bps, clamped to 5000..100000
	PacketLossPercentage  int // expected loss, 0..100
	Complexity            int // 0..2
	UseInbandFEC          bool
	UseDTX                bool
}

// validate checks the control and clamps the bitrate.
func (c *EncoderControl) validate() error {
	if !validAPIRate(c.APISampleRate) {
		return ErrInvalidSampleRate
	}
	switch c.MaxInternalSampleRate {
	case 8000, 12000, 16000, 24000:
	default:
		return ErrInvalidSampleRate
	}
	switch c.PacketSizeMs {
	case 20, 40, 60, 80, 100:
	default:
		return ErrInvalidPacketSize
	}
	if c.PacketLossPercentage < 0 || c.PacketLossPercentage > 100 {
		return ErrInvalidLossRate
	}
	if c.Complexity < 0 || c.Complexity > 2 {
		return ErrInvalidComplexity
	}
	c.BitRate = silkLimitInt(c.BitRate, minTargetRateBps, maxTargetRateBps)
	return nil
}

// validAPIRate reports whether fsHz can be used at the API: any rate in
// 8000..48000 Hz that holds a whole number of samples per 20 ms frame.
func validAPIRate(fsHz int) bool {
	return fsHz >= minResamplerHz && fsHz <= maxResamplerHz && fsHz%(1000/frameLengthMs) == 0
}

// complexitySettings are the analysis parameters of one complexity level.
type complexitySettings struct {
	pitchEstThreshold float64
	pitchLPCOrder     int
	shapingLPCOrder   int
	nStates           int
	useInterpNLSFs    bool
	ltpLowComplexity  bool
	nlsfSurvivors     int
}

// encoderControl is the floating-point analysis result of one frame.
type encoderControl struct {
	gains         [nbSubfr]float64
	predCoefQ12   [2][maxLPCOrder]int16
	ltpCoef       [nbSubfr * ltpOrder]float64
	ltpScale      float64
	pitchL        [nbSubfr]int
	ar            [nbSubfr * maxShapeLPCOrder]float64
	lfMAShp       [nbSubfr]float64
	lfARShp       [nbSubfr]float64
	tilt          [nbSubfr]float64
	harmShapeGain [nbSubfr]float64
	lambda        float64
	inputQuality  float64
	codingQuality float64
	sparseness    float64
	currentSNRdB  float64
	predGain      float64
	ltpRedCodGain float64
	resNrg        [nbSubfr]float64
}

// shapeState carries the noise shaping smoothers and the gain index
// across frames.
type shapeState struct {
	lastGainIndex     int
	harmShapeGainSmth float64
	tiltSmth          float64
}

// predictState carries the prediction parameters needed by the next frame.
type predictState struct {
	prevNLSFq         [maxLPCOrder]int16
	prevLTPredCodGain float64
	hpLTPredCodGain   float64
}

// encoderScratch holds the per-frame working buffers. It is allocated once
// with the encoder.
type encoderScratch struct {
	in16       [maxFrameLength]int16
	hpOut      [maxFrameLength]int16
	x16        [maxFrameLength]int16
	pulses     [maxFrameLength]int8
	pulsesLBRR [maxFrameLength]int8

	resPitch  [2*maxFrameLength + laPitchMax]float64
	wsig      [findPitchLPCWinMax]float64
	xWindowed [shapeLPCWinMax]float64
	lpcInPre  [nbSubfr * (maxLPCOrder + maxSubfrLength)]float64
	lpcRes    [2 * (maxLPCOrder + maxSubfrLength)]float64

	pitch     pitchScratch
	msvq      msvqScratch
	nsq       nsqScratch
	nsqParams nsqParams
}

// Encoder is a SILK encoder for one mono stream. An Encoder is not safe for
// concurrent use.
type Encoder struct {
	ctl EncoderControl // requested configuration

	// Active configuration.
	apiFsHz          int
	maxInternalFsKHz int
	packetSizeMs     int
	targetRateBps    int
	packetLossPerc   int
	complexity       int
	useInbandFEC     bool
	useDTX           bool
	cs               complexitySettings
	variant          nsqVariant

	// Internal rate and derived lengths.
	fsKHz             int
	frameLength       int
	subfrLength       int
	ltpMemLength      int
	laPitch           int
	laShape           int
	shapeWinLength    int
	pitchLPCWinLength int
	predictLPCOrder   int

	// Rate control.
	snrDB                float64
	bitrateDiff          int64
	bitrateThresholdUp   int
	bitrateThresholdDown int
	bufferedInChannelMs  float64

	// In-band FEC.
	lbrrEnabled           bool
	lbrrGainIncreases     int
	inbandFECSNRComp      float64
	lbrrPrevLastGainIndex int
	lbrrUsage             int
	nBytesLBRR            int
	lbrr                  lbrrRing

	// Voice activity and DTX.
	speechActivityQ8     int
	inputTiltQ15         int
	inputQualityBandsQ15 [vadNBands]int
	vadFlag              bool
	noSpeechCounter      int
	inDTX                bool

	// Frame-to-frame analysis state.
	prevSignalType       int
	prevLag              int
	ltpCorr              float64
	firstFrameAfterReset bool
	frameCounter         int
	shape                shapeState
	pred                 predictState

	// x_buf: ltpMemLength of history, the frame being coded and laShape
	// samples of lookahead.
	xBuf [2*maxFrameLength + laShapeMax]float64

	si  sideInfo
	enc encoderControl

	vad       vadState
	hp        hpState
	lp        lpState
	nsq       nsqState
	nsqLBRR   nsqState
	resampler Resampler

	rc               rangecoding.Encoder
	rcLBRR           rangecoding.Encoder
	rcBuf            [rangecoding.MaxPayloadBytes]byte
	rcLBRRBuf        [rangecoding.MaxPayloadBytes]byte
	nFramesInPayload int
	nBytesInPayload  int
	prevTypeOffset   int

	scratch *encoderScratch
}

// NewEncoder creates an encoder with the given configuration.
func NewEncoder(ctl EncoderControl) (*Encoder, error) {
	if err := ctl.validate(); err != nil {
		return nil, err
	}
	e := &Encoder{scratch: new(encoderScratch)}
	e.ctl = ctl
	e.Reset()
	if err := e.configure(); err != nil {
		return nil, err
	}
	return e, nil
}

// Reset clears all stream state, keeping the configuration. The internal
// rate is chosen again from the bitrate.
func (e *Encoder) Reset() {
	ctl, scratch := e.ctl, e.scratch
	*e = Encoder{ctl: ctl, scratch: scratch}
	e.vad.reset()
	e.hp.reset()
	e.nsq.reset()
	e.nsqLBRR.reset()
	e.firstFrameAfterReset = true
	e.lbrrPrevLastGainIndex = 10
	e.shape.lastGainIndex = 10
}

// Control requests a new configuration. It is validated immediately and
// applied at the start of the next packet.
func (e *Encoder) Control(ctl EncoderControl) error {
	if err := ctl.validate(); err != nil {
		return err
	}
	e.ctl = ctl
	if e.nFramesInPayload == 0 {
		return e.configure()
	}
	return nil
}

// SetComplexity selects the analysis parameters and quantizer variant for
// complexity 0 (fastest) to 2 (best).
func (e *Encoder) SetComplexity(complexity int) error {
	if complexity < 0 || complexity > 2 {
		return ErrInvalidComplexity
	}
	e.complexity = complexity
	e.ctl.Complexity = complexity
	switch complexity {
	case 0:
		e.cs = complexitySettings{
			pitchLPCOrder:    8,
			shapingLPCOrder:  12,
			nStates:          1,
			useInterpNLSFs:   false,
			ltpLowComplexity: true,
			nlsfSurvivors:    maxNLSFMSVQSurvivorsLC,
		}
	case 1:
		e.cs = complexitySettings{
			pitchLPCOrder:   12,
			shapingLPCOrder: 14,
			nStates:         2,
			nlsfSurvivors:   maxNLSFMSVQSurvivorsMC,
		}
	default:
		e.cs = complexitySettings{
			pitchLPCOrder:   16,
			shapingLPCOrder: 16,
			nStates:         maxDelDecStates,
			useInterpNLSFs:  true,
			nlsfSurvivors:   maxNLSFMSVQSurvivors,
		}
	}
	e.cs.pitchEstThreshold = pitchEstThreshold[complexity]
	if e.predictLPCOrder > 0 && e.cs.pitchLPCOrder > e.predictLPCOrder {
		e.cs.pitchLPCOrder = e.predictLPCOrder
	}

	e.variant = nsqGreedy
	if e.cs.nStates > 1 {
		e.variant = nsqDelayedDecision
	}
	return nil
}

// Encode codes one 20 ms frame of pcm at the API rate into out. When the
// frame completes a packet, the packet length is returned; while a
// multi-frame packet is being assembled, or while the encoder is in DTX,
// n is 0. len(out) is the largest packet the caller accepts; a packet that
// does not fit is dropped with ErrPayloadBufferTooShort.
func (e *Encoder) Encode(pcm []int16, out []byte) (int, error) {
	if len(pcm) != e.apiFrameLength() {
		return 0, ErrInvalidFrameSize
	}
	if e.nFramesInPayload == 0 {
		if err := e.configure(); err != nil {
			return 0, err
		}
	}

	in := e.scratch.in16[:e.frameLength]
	e.resampler.Process(in, pcm)

	n, err := e.encodeFrame(in, out)
	if err != nil {
		return 0, err
	}
	if n > 0 && e.useDTX && e.inDTX {
		return 0, nil
	}
	return n, nil
}

// apiFrameLength is the frame length the next Encode call expects. A
// pending Control takes effect at the next packet boundary, so inside a
// packet the active rate applies.
func (e *Encoder) apiFrameLength() int {
	fsHz := e.apiFsHz
	if e.nFramesInPayload == 0 {
		fsHz = e.ctl.APISampleRate
	}
	return frameLengthMs * fsHz / 1000
}

// FrameSize returns the number of API-rate samples Encode expects.
func (e *Encoder) FrameSize() int {
	return e.apiFrameLength()
}

// Delay returns the algorithmic delay in API-rate samples.
func (e *Encoder) Delay() int {
	return laShapeMs * e.apiFsHz / 1000
}

// InDTX reports whether the last frame was suppressed by discontinuous
// transmission.
func (e *Encoder) InDTX() bool {
	return e.useDTX && e.inDTX
}

// InternalSampleRate returns the current internal rate in Hz.
func (e *Encoder) InternalSampleRate() int {
	return e.fsKHz * 1000
}

// SpeechActivityQ8 returns the speech activity of the last frame (0..255).
func (e *Encoder) SpeechActivityQ8() int {
	return e.speechActivityQ8
}

// SNRdB returns the current target SNR derived from the bitrate.
func (e *Encoder) SNRdB() float64 {
	return e.snrDB
}

// LBRREnabled reports whether redundant frames are being produced.
func (e *Encoder) LBRREnabled() bool {
	return e.lbrrEnabled
}

// Complexity returns the active complexity.
func (e *Encoder) Complexity() int {
	return e.complexity
}

// Variant returns the name of the active quantizer.
func (e *Encoder) Variant() string {
	return e.variant.String()
}
