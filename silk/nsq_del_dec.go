package silk

import "math"

// Delayed-decision noise shaping quantization. Up to maxDelDecStates
// candidate paths are kept; each sample extends every path with its two
// best quantization levels and the worst first choice is replaced by the
// best second choice. Output is emitted decisionDelay samples late, from
// the path with the lowest accumulated rate-distortion cost.

type nsqDelDecState struct {
	sLPCQ14   [maxSubfrLength + nsqLPCBufLength]int32
	randState [decisionDelay]int32
	qQ10      [decisionDelay]int32
	xqQ14     [decisionDelay]int32
	predQ15   [decisionDelay]int32
	shapeQ14  [decisionDelay]int32
	sAR2Q14   [maxShapeLPCOrder]int32
	lfARQ14   int32
	diffQ14   int32
	seed      int32
	seedInit  int32
	rdQ10     int32
}

type nsqSampleState struct {
	qQ10       int32
	rdQ10      int32
	xqQ14      int32
	lfARQ14    int32
	diffQ14    int32
	sLTPShpQ14 int32
	lpcExcQ14  int32
}

const rdPenaltyQ10 = math.MaxInt32 >> 4

// delDecRun carries the bookkeeping shared by the subframes of one frame.
type delDecRun struct {
	states      []nsqDelDecState
	smplBufIdx  int
	delay       int
	gains       *[decisionDelay]int32
	pulses      []int8
	xq          []int16
	frameOffset int
}

func (r *delDecRun) winner() int {
	best := 0
	for k := 1; k < len(r.states); k++ {
		if r.states[k].rdQ10 < r.states[best].rdQ10 {
			best = k
		}
	}
	return best
}

// flush writes the last delay samples of path w ending at sample end of
// the frame.
func (r *delDecRun) flush(s *nsqState, w, end int) {
	dd := &r.states[w]
	last := r.smplBufIdx + r.delay
	for i := 0; i < r.delay; i++ {
		last--
		if last < 0 {
			last = decisionDelay - 1
		}
		if last >= decisionDelay {
			last -= decisionDelay
		}
		out := end - r.delay + i
		r.pulses[out] = int8(silkRSHIFT_ROUND(dd.qQ10[last], 10))
		r.xq[out] = silkSAT16(silkRSHIFT_ROUND(silkSMULWW(dd.xqQ14[last], r.gains[last]), 8))
		s.sLTPShpQ14[s.sLTPShpBufIdx-r.delay+i] = dd.shapeQ14[last]
	}
}

// quantizeDelDec runs the delayed-decision quantizer over one frame and
// returns the seed of the winning path, which must be coded in place of
// p.seed.
func (s *nsqState) quantizeDelDec(sc *nsqScratch, p *nsqParams, x16 []int16, pulses []int8) int {
	nStates := silkLimitInt(p.nStates, 1, maxDelDecStates)
	lag := s.lagPrev
	offsetQ10 := quantizationOffsetsQ10[p.signalType][p.quantOffsetType]

	states := sc.delDec[:nStates]
	for k := range states {
		dd := &states[k]
		*dd = nsqDelDecState{}
		dd.seed = int32((k + p.seed) & 3)
		dd.seedInit = dd.seed
		dd.lfARQ14 = s.sLFARShpQ14
		dd.diffQ14 = s.sDiffShpQ14
		dd.shapeQ14[0] = s.sLTPShpQ14[p.ltpMemLength-1]
		copy(dd.sLPCQ14[:nsqLPCBufLength], s.sLPCQ14[:nsqLPCBufLength])
		dd.sAR2Q14 = s.sAR2Q14
	}

	delay := min(decisionDelay, p.subfrLength)
	if p.signalType == typeVoiced {
		for k := 0; k < nbSubfr; k++ {
			delay = min(delay, p.pitchL[k]-ltpOrder/2-1)
		}
	} else if lag > 0 {
		delay = min(delay, lag-ltpOrder/2-1)
	}
	delay = max(delay, 1)

	sLTPQ15 := sc.sLTPQ15[:p.ltpMemLength+p.frameLength]
	sLTP := sc.sLTP[:p.ltpMemLength+p.frameLength]
	s.sLTPShpBufIdx = p.ltpMemLength
	s.sLTPBufIdx = p.ltpMemLength

	run := delDecRun{
		states: states,
		delay:  delay,
		gains:  &sc.delayedGainQ10,
		pulses: pulses,
		xq:     s.xq[p.ltpMemLength : p.ltpMemLength+p.frameLength],
	}
	sc.delayedGainQ10 = [decisionDelay]int32{}

	subfr := 0
	for k := 0; k < nbSubfr; k++ {
		aQ12 := p.predCoef(k)
		bQ14 := p.ltpCoefQ14[k*ltpOrder : (k+1)*ltpOrder]
		arShpQ13 := p.arShpQ13[k*maxShapeLPCOrder : k*maxShapeLPCOrder+p.shapingLPCOrder]
		harmPacked := p.harmShapeGainQ14[k]>>2 | (p.harmShapeGainQ14[k]>>1)<<16

		s.rewhiteFlag = false
		if p.signalType == typeVoiced {
			lag = p.pitchL[k]
			if p.rewhitenAt(k) {
				if k == 2 {
					// Commit to the best path before the LTP state is
					// re-derived from the reconstruction.
					w := run.winner()
					for i := range states {
						if i != w {
							states[i].rdQ10 += rdPenaltyQ10
						}
					}
					run.flush(s, w, run.frameOffset)
					subfr = 0
				}
				start := p.ltpMemLength - lag - p.predictLPCOrder - ltpOrder/2
				lpcAnalysisFilter(sLTP[start:], s.xq[start+k*p.subfrLength:], aQ12, p.ltpMemLength-start, p.predictLPCOrder)
				s.sLTPBufIdx = p.ltpMemLength
				s.rewhiteFlag = true
			}
		}

		xSc := sc.xScQ10[:p.subfrLength]
		s.scaleStatesDelDec(p, states, x16[k*p.subfrLength:], xSc, sLTP, sLTPQ15, k, delay)

		s.quantizeSubframeDelDec(&run, p.signalType, xSc, sLTPQ15, aQ12, bQ14, arShpQ13, lag,
			harmPacked, p.tiltQ14[k], p.lfShpQ14[k], p.gainsQ16[k], p.lambdaQ10, offsetQ10, subfr)

		run.frameOffset += p.subfrLength
		subfr++
	}

	w := run.winner()
	dd := &states[w]
	run.flush(s, w, p.frameLength)
	copy(s.sLPCQ14[:nsqLPCBufLength], dd.sLPCQ14[p.subfrLength:p.subfrLength+nsqLPCBufLength])
	s.sAR2Q14 = dd.sAR2Q14
	s.sLFARShpQ14 = dd.lfARQ14
	s.sDiffShpQ14 = dd.diffQ14
	s.lagPrev = p.pitchL[nbSubfr-1]

	copy(s.xq[:p.ltpMemLength], s.xq[p.frameLength:p.frameLength+p.ltpMemLength])
	copy(s.sLTPShpQ14[:p.ltpMemLength], s.sLTPShpQ14[p.frameLength:p.frameLength+p.ltpMemLength])
	return int(dd.seedInit)
}

func (s *nsqState) scaleStatesDelDec(p *nsqParams, states []nsqDelDecState, x16 []int16, xScQ10 []int32,
	sLTP []int16, sLTPQ15 []int32, k, delay int) {
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
		for i := s.sLTPBufIdx - lag - ltpOrder/2; i < s.sLTPBufIdx-delay; i++ {
			sLTPQ15[i] = silkSMULWW(gainAdjQ16, sLTPQ15[i])
		}
	}
	for j := range states {
		dd := &states[j]
		dd.lfARQ14 = silkSMULWW(gainAdjQ16, dd.lfARQ14)
		dd.diffQ14 = silkSMULWW(gainAdjQ16, dd.diffQ14)
		for i := 0; i < nsqLPCBufLength; i++ {
			dd.sLPCQ14[i] = silkSMULWW(gainAdjQ16, dd.sLPCQ14[i])
		}
		for i := range dd.sAR2Q14 {
			dd.sAR2Q14[i] = silkSMULWW(gainAdjQ16, dd.sAR2Q14[i])
		}
		for i := 0; i < decisionDelay; i++ {
			dd.predQ15[i] = silkSMULWW(gainAdjQ16, dd.predQ15[i])
			dd.shapeQ14[i] = silkSMULWW(gainAdjQ16, dd.shapeQ14[i])
		}
	}
	s.prevGainQ16 = p.gainsQ16[k]
}

func (s *nsqState) quantizeSubframeDelDec(r *delDecRun, signalType int, xScQ10, sLTPQ15 []int32,
	aQ12, bQ14, arShpQ13 []int16, lag int, harmPackedQ14, tiltQ14, lfShpQ14, gainQ16,
	lambdaQ10, offsetQ10 int32, subfr int) {
	var sample [maxDelDecStates][2]nsqSampleState
	states := r.states

	shpLag := s.sLTPShpBufIdx - lag + harmShapeFIRTaps/2
	predLag := s.sLTPBufIdx - lag + ltpOrder/2
	gainQ10 := gainQ16 >> 6

	for i := range xScQ10 {
		var ltpPredQ14 int32
		if signalType == typeVoiced {
			ltpPredQ14 = 2
			for j := 0; j < ltpOrder; j++ {
				ltpPredQ14 = silkSMLAWB(ltpPredQ14, sLTPQ15[predLag-j], int32(bQ14[j]))
			}
			ltpPredQ14 <<= 1
			predLag++
		}

		var nLTPQ14 int32
		if lag > 0 {
			nLTPQ14 = silkSMULWB(silkAddSat32(s.sLTPShpQ14[shpLag], s.sLTPShpQ14[shpLag-2]), harmPackedQ14)
			nLTPQ14 = silkSMLAWT(nLTPQ14, s.sLTPShpQ14[shpLag-1], harmPackedQ14)
			nLTPQ14 = ltpPredQ14 - nLTPQ14<<2
			shpLag++
		}

		for k := range states {
			dd := &states[k]
			ss := &sample[k]
			dd.seed = silkRAND(dd.seed)

			lpcPredQ14 := shortTermPrediction(dd.sLPCQ14[:], nsqLPCBufLength-1+i, aQ12) << 4

			nARQ14 := noiseShapeFeedback(dd.diffQ14, dd.sAR2Q14[:], arShpQ13)
			nARQ14 = silkSMLAWB(nARQ14, dd.lfARQ14, tiltQ14) << 2

			nLFQ14 := silkSMULWB(dd.shapeQ14[r.smplBufIdx], lfShpQ14)
			nLFQ14 = silkSMLAWT(nLFQ14, dd.lfARQ14, lfShpQ14) << 2

			tmp := silkRSHIFT_ROUND(nLTPQ14+lpcPredQ14-(nARQ14+nLFQ14), 4)
			rQ10 := xScQ10[i] - tmp
			if dd.seed < 0 {
				rQ10 = -rQ10
			}
			rQ10 = silkLimit32(rQ10, -(31 << 10), 30<<10)

			q1Q10, q2Q10, rd1, rd2 := quantizeLevels(rQ10, offsetQ10, lambdaQ10)
			rr := rQ10 - q1Q10
			rd1 = silkSMLABB(rd1, rr, rr) >> 10
			rr = rQ10 - q2Q10
			rd2 = silkSMLABB(rd2, rr, rr) >> 10

			if rd1 < rd2 {
				ss[0].rdQ10, ss[0].qQ10 = dd.rdQ10+rd1, q1Q10
				ss[1].rdQ10, ss[1].qQ10 = dd.rdQ10+rd2, q2Q10
			} else {
				ss[0].rdQ10, ss[0].qQ10 = dd.rdQ10+rd2, q2Q10
				ss[1].rdQ10, ss[1].qQ10 = dd.rdQ10+rd1, q1Q10
			}

			for j := range ss {
				excQ14 := ss[j].qQ10 << 4
				if dd.seed < 0 {
					excQ14 = -excQ14
				}
				ss[j].lpcExcQ14 = excQ14 + ltpPredQ14
				ss[j].xqQ14 = ss[j].lpcExcQ14 + lpcPredQ14
				ss[j].diffQ14 = ss[j].xqQ14 - xScQ10[i]<<4
				ss[j].lfARQ14 = ss[j].diffQ14 - nARQ14
				ss[j].sLTPShpQ14 = ss[j].lfARQ14 - nLFQ14
			}
		}

		r.smplBufIdx--
		if r.smplBufIdx < 0 {
			r.smplBufIdx = decisionDelay - 1
		}
		last := r.smplBufIdx + r.delay
		if last >= decisionDelay {
			last -= decisionDelay
		}

		winner := 0
		for k := 1; k < len(states); k++ {
			if sample[k][0].rdQ10 < sample[winner][0].rdQ10 {
				winner = k
			}
		}

		// Paths that diverged from the winner before the output point can
		// no longer be emitted.
		winnerRand := states[winner].randState[last]
		for k := range states {
			if states[k].randState[last] != winnerRand {
				sample[k][0].rdQ10 += rdPenaltyQ10
				sample[k][1].rdQ10 += rdPenaltyQ10
			}
		}

		rdMaxInd, rdMinInd := 0, 0
		for k := 1; k < len(states); k++ {
			if sample[k][0].rdQ10 > sample[rdMaxInd][0].rdQ10 {
				rdMaxInd = k
			}
			if sample[k][1].rdQ10 < sample[rdMinInd][1].rdQ10 {
				rdMinInd = k
			}
		}
		if sample[rdMinInd][1].rdQ10 < sample[rdMaxInd][0].rdQ10 {
			states[rdMaxInd] = states[rdMinInd]
			sample[rdMaxInd][0] = sample[rdMinInd][1]
		}

		if subfr > 0 || i >= r.delay {
			dd := &states[winner]
			out := r.frameOffset + i - r.delay
			r.pulses[out] = int8(silkRSHIFT_ROUND(dd.qQ10[last], 10))
			r.xq[out] = silkSAT16(silkRSHIFT_ROUND(silkSMULWW(dd.xqQ14[last], r.gains[last]), 8))
			s.sLTPShpQ14[s.sLTPShpBufIdx-r.delay] = dd.shapeQ14[last]
			sLTPQ15[s.sLTPBufIdx-r.delay] = dd.predQ15[last]
		}
		s.sLTPShpBufIdx++
		s.sLTPBufIdx++

		for k := range states {
			dd := &states[k]
			ss := &sample[k][0]
			dd.lfARQ14 = ss.lfARQ14
			dd.diffQ14 = ss.diffQ14
			dd.sLPCQ14[nsqLPCBufLength+i] = ss.xqQ14
			dd.xqQ14[r.smplBufIdx] = ss.xqQ14
			dd.qQ10[r.smplBufIdx] = ss.qQ10
			dd.predQ15[r.smplBufIdx] = ss.lpcExcQ14 << 1
			dd.shapeQ14[r.smplBufIdx] = ss.sLTPShpQ14
			dd.seed += silkRSHIFT_ROUND(ss.qQ10, 10)
			dd.randState[r.smplBufIdx] = dd.seed
			dd.rdQ10 = ss.rdQ10
		}
		r.gains[r.smplBufIdx] = gainQ10
	}

	n := len(xScQ10)
	for k := range states {
		dd := &states[k]
		copy(dd.sLPCQ14[:nsqLPCBufLength], dd.sLPCQ14[n:n+nsqLPCBufLength])
	}
}
