package silk

// Noise shaping quantization. The input is divided by the subframe gain,
// predicted from the reconstructed history (short-term LPC plus long-term
// LTP), shaped by AR, harmonic, tilt and low-frequency feedback filters,
// and the residual is quantized with a rate-distortion trade-off. The
// reconstruction mirrors the decoder exactly.

// nsqState persists across frames.
type nsqState struct {
	xq            [2 * maxFrameLength]int16
	sLTPShpQ14    [2 * maxFrameLength]int32
	sLPCQ14       [maxSubfrLength + nsqLPCBufLength]int32
	sAR2Q14       [maxShapeLPCOrder]int32
	sLFARShpQ14   int32
	sDiffShpQ14   int32
	lagPrev       int
	sLTPBufIdx    int
	sLTPShpBufIdx int
	randSeed      int32
	prevGainQ16   int32
	rewhiteFlag   bool
}

func (s *nsqState) reset() {
	*s = nsqState{}
	s.prevGainQ16 = 65536
	s.lagPrev = 100
}

// nsqParams is the fixed-point quantizer control for one frame.
type nsqParams struct {
	frameLength     int
	subfrLength     int
	ltpMemLength    int
	predictLPCOrder int
	shapingLPCOrder int
	nStates         int

	signalType      int
	quantOffsetType int
	nlsfInterpQ2    int
	seed            int

	predCoefQ12      [2][maxLPCOrder]int16
	ltpCoefQ14       [nbSubfr * ltpOrder]int16
	arShpQ13         [nbSubfr * maxShapeLPCOrder]int16
	harmShapeGainQ14 [nbSubfr]int32
	tiltQ14          [nbSubfr]int32
	lfShpQ14         [nbSubfr]int32
	gainsQ16         [nbSubfr]int32
	pitchL           [nbSubfr]int
	lambdaQ10        int32
	ltpScaleQ14      int32
}

func (p *nsqParams) interpolated() bool {
	return p.nlsfInterpQ2 < 4
}

// predCoef returns the LPC coefficients in effect for subframe k.
func (p *nsqParams) predCoef(k int) []int16 {
	half := k >> 1
	if !p.interpolated() {
		half = 1
	}
	return p.predCoefQ12[half][:p.predictLPCOrder]
}

// rewhitenAt reports whether the LTP state is re-derived from the
// reconstruction at subframe k: on the first subframe, and on the third
// when the first half used interpolated coefficients.
func (p *nsqParams) rewhitenAt(k int) bool {
	if p.interpolated() {
		return k&1 == 0
	}
	return k == 0
}

type nsqScratch struct {
	sLTPQ15        [2 * maxFrameLength]int32
	sLTP           [2 * maxFrameLength]int16
	xScQ10         [maxSubfrLength]int32
	delDec         [maxDelDecStates]nsqDelDecState
	delayedGainQ10 [decisionDelay]int32
}

// quantize runs the greedy quantizer over one frame of x16, writing the
// excitation to pulses.
func (s *nsqState) quantize(sc *nsqScratch, p *nsqParams, x16 []int16, pulses []int8) {
	s.randSeed = int32(p.seed)
	lag := s.lagPrev
	offsetQ10 := quantizationOffsetsQ10[p.signalType][p.quantOffsetType]

	sLTPQ15 := sc.sLTPQ15[:p.ltpMemLength+p.frameLength]
	sLTP := sc.sLTP[:p.ltpMemLength+p.frameLength]
	s.sLTPShpBufIdx = p.ltpMemLength
	s.sLTPBufIdx = p.ltpMemLength

	for k := 0; k < nbSubfr; k++ {
		aQ12 := p.predCoef(k)
		bQ14 := p.ltpCoefQ14[k*ltpOrder : (k+1)*ltpOrder]
		arShpQ13 := p.arShpQ13[k*maxShapeLPCOrder : k*maxShapeLPCOrder+p.shapingLPCOrder]
		harmPacked := p.harmShapeGainQ14[k]>>2 | (p.harmShapeGainQ14[k]>>1)<<16

		s.rewhiteFlag = false
		if p.signalType == typeVoiced {
			lag = p.pitchL[k]
			if p.rewhitenAt(k) {
				start := p.ltpMemLength - lag - p.predictLPCOrder - ltpOrder/2
				lpcAnalysisFilter(sLTP[start:], s.xq[start+k*p.subfrLength:], aQ12, p.ltpMemLength-start, p.predictLPCOrder)
				s.rewhiteFlag = true
				s.sLTPBufIdx = p.ltpMemLength
			}
		}

		xSc := sc.xScQ10[:p.subfrLength]
		s.scaleStates(p, x16[k*p.subfrLength:], xSc, sLTP, sLTPQ15, k)

		off := p.ltpMemLength + k*p.subfrLength
		s.quantizeSubframe(p.signalType, xSc, pulses[k*p.subfrLength:(k+1)*p.subfrLength],
			s.xq[off:off+p.subfrLength], sLTPQ15, aQ12, bQ14, arShpQ13, lag, harmPacked,
			p.tiltQ14[k], p.lfShpQ14[k], p.gainsQ16[k], p.lambdaQ10, offsetQ10)
	}

	s.lagPrev = p.pitchL[nbSubfr-1]
	copy(s.xq[:p.ltpMemLength], s.xq[p.frameLength:p.frameLength+p.ltpMemLength])
	copy(s.sLTPShpQ14[:p.ltpMemLength], s.sLTPShpQ14[p.frameLength:p.frameLength+p.ltpMemLength])
}

// scaleStates normalizes the input of subframe k by its gain and rescales
// the filter states when the gain changed.
func (s *nsqState) scaleStates(p *nsqParams, x16 []int16, xScQ10 []int32, sLTP []int16, sLTPQ15 []int32, k int) {
	lag := p.pitchL[k]
	invGainQ31 := silkInverse32VarQ(max(p.gainsQ16[k], 1), 47)
	invGainQ26 := silkRSHIFT_ROUND(invGainQ31, 5)
	for i := range xScQ10 {
		xScQ10[i] = silkSMULWW(int32(x16[i]), invGainQ26)
	}

	if s.rewhiteFlag {
		if k == 0 {
			invGainQ31 = silkSMULWB(invGainQ31, p.ltpScaleQ14) << 2
		}
		for i := s.sLTPBufIdx - lag - ltpOrder/2; i < s.sLTPBufIdx; i++ {
			sLTPQ15[i] = silkSMULWB(invGainQ31, int32(sLTP[i]))
		}
	}

	if p.gainsQ16[k] == s.prevGainQ16 {
		return
	}
	gainAdjQ16 := silkDiv32VarQ(s.prevGainQ16, p.gainsQ16[k], 16)
	for i := s.sLTPShpBufIdx - p.ltpMemLength; i < s.sLTPShpBufIdx; i++ {
		s.sLTPShpQ14[i] = silkSMULWW(gainAdjQ16, s.sLTPShpQ14[i])
	}
	if p.signalType == typeVoiced && !s.rewhiteFlag {
		for i := s.sLTPBufIdx - lag - ltpOrder/2; i < s.sLTPBufIdx; i++ {
			sLTPQ15[i] = silkSMULWW(gainAdjQ16, sLTPQ15[i])
		}
	}
	s.sLFARShpQ14 = silkSMULWW(gainAdjQ16, s.sLFARShpQ14)
	s.sDiffShpQ14 = silkSMULWW(gainAdjQ16, s.sDiffShpQ14)
	for i := 0; i < nsqLPCBufLength; i++ {
		s.sLPCQ14[i] = silkSMULWW(gainAdjQ16, s.sLPCQ14[i])
	}
	for i := range s.sAR2Q14 {
		s.sAR2Q14[i] = silkSMULWW(gainAdjQ16, s.sAR2Q14[i])
	}
	s.prevGainQ16 = p.gainsQ16[k]
}

// quantizeLevels returns the two reconstruction candidates around the
// residual rQ10 and their rate terms.
func quantizeLevels(rQ10, offsetQ10, lambdaQ10 int32) (q1Q10, q2Q10, rd1, rd2 int32) {
	q1Q10 = rQ10 - offsetQ10
	q1Q0 := q1Q10 >> 10
	switch {
	case q1Q0 > 0:
		q1Q10 = q1Q0<<10 - quantLevelAdjustQ10 + offsetQ10
		q2Q10 = q1Q10 + 1024
		rd1 = silkSMULBB(q1Q10, lambdaQ10)
		rd2 = silkSMULBB(q2Q10, lambdaQ10)
	case q1Q0 == 0:
		q1Q10 = offsetQ10
		q2Q10 = q1Q10 + 1024 - quantLevelAdjustQ10
		rd1 = silkSMULBB(q1Q10, lambdaQ10)
		rd2 = silkSMULBB(q2Q10, lambdaQ10)
	case q1Q0 == -1:
		q2Q10 = offsetQ10
		q1Q10 = q2Q10 - (1024 - quantLevelAdjustQ10)
		rd1 = silkSMULBB(-q1Q10, lambdaQ10)
		rd2 = silkSMULBB(q2Q10, lambdaQ10)
	default:
		q1Q10 = q1Q0<<10 + quantLevelAdjustQ10 + offsetQ10
		q2Q10 = q1Q10 + 1024
		rd1 = silkSMULBB(-q1Q10, lambdaQ10)
		rd2 = silkSMULBB(-q2Q10, lambdaQ10)
	}
	return q1Q10, q2Q10, rd1, rd2
}

func (s *nsqState) quantizeSubframe(signalType int, xScQ10 []int32, pulses []int8, xq []int16,
	sLTPQ15 []int32, aQ12, bQ14, arShpQ13 []int16, lag int, harmPackedQ14, tiltQ14, lfShpQ14,
	gainQ16, lambdaQ10, offsetQ10 int32) {
	shpLag := s.sLTPShpBufIdx - lag + harmShapeFIRTaps/2
	predLag := s.sLTPBufIdx - lag + ltpOrder/2
	gainQ10 := gainQ16 >> 6
	lpcIdx := nsqLPCBufLength - 1

	for i := range xScQ10 {
		s.randSeed = silkRAND(s.randSeed)

		lpcPredQ10 := shortTermPrediction(s.sLPCQ14[:], lpcIdx, aQ12)

		var ltpPredQ13 int32
		if signalType == typeVoiced {
			ltpPredQ13 = 2
			for j := 0; j < ltpOrder; j++ {
				ltpPredQ13 = silkSMLAWB(ltpPredQ13, sLTPQ15[predLag-j], int32(bQ14[j]))
			}
			predLag++
		}

		nARQ12 := noiseShapeFeedback(s.sDiffShpQ14, s.sAR2Q14[:], arShpQ13)
		nARQ12 = silkSMLAWB(nARQ12, s.sLFARShpQ14, tiltQ14)

		nLFQ12 := silkSMULWB(s.sLTPShpQ14[s.sLTPShpBufIdx-1], lfShpQ14)
		nLFQ12 = silkSMLAWT(nLFQ12, s.sLFARShpQ14, lfShpQ14)

		tmp1 := lpcPredQ10<<2 - nARQ12 - nLFQ12
		if lag > 0 {
			nLTPQ13 := silkSMULWB(silkAddSat32(s.sLTPShpQ14[shpLag], s.sLTPShpQ14[shpLag-2]), harmPackedQ14)
			nLTPQ13 = silkSMLAWT(nLTPQ13, s.sLTPShpQ14[shpLag-1], harmPackedQ14)
			nLTPQ13 <<= 1
			shpLag++
			tmp1 = silkRSHIFT_ROUND(ltpPredQ13-nLTPQ13+tmp1<<1, 3)
		} else {
			tmp1 = silkRSHIFT_ROUND(tmp1, 2)
		}

		rQ10 := xScQ10[i] - tmp1
		if s.randSeed < 0 {
			rQ10 = -rQ10
		}
		rQ10 = silkLimit32(rQ10, -(31 << 10), 30<<10)

		q1Q10, q2Q10, rd1, rd2 := quantizeLevels(rQ10, offsetQ10, lambdaQ10)
		rr := rQ10 - q1Q10
		rd1 = silkSMLABB(rd1, rr, rr)
		rr = rQ10 - q2Q10
		rd2 = silkSMLABB(rd2, rr, rr)
		if rd2 < rd1 {
			q1Q10 = q2Q10
		}

		pulses[i] = int8(silkRSHIFT_ROUND(q1Q10, 10))

		excQ14 := q1Q10 << 4
		if s.randSeed < 0 {
			excQ14 = -excQ14
		}
		lpcExcQ14 := excQ14 + ltpPredQ13<<1
		xqQ14 := lpcExcQ14 + lpcPredQ10<<4
		xq[i] = silkSAT16(silkRSHIFT_ROUND(silkSMULWW(xqQ14, gainQ10), 8))

		lpcIdx++
		s.sLPCQ14[lpcIdx] = xqQ14
		s.sDiffShpQ14 = xqQ14 - xScQ10[i]<<4
		sLFARShpQ14 := s.sDiffShpQ14 - nARQ12<<2
		s.sLFARShpQ14 = sLFARShpQ14
		s.sLTPShpQ14[s.sLTPShpBufIdx] = sLFARShpQ14 - nLFQ12<<2
		sLTPQ15[s.sLTPBufIdx] = lpcExcQ14 << 1
		s.sLTPShpBufIdx++
		s.sLTPBufIdx++

		s.randSeed += int32(pulses[i])
	}

	n := len(xScQ10)
	copy(s.sLPCQ14[:nsqLPCBufLength], s.sLPCQ14[n:n+nsqLPCBufLength])
}
