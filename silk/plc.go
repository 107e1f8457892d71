package silk

// plcState holds what packet loss concealment needs from the last received
// frame.
type plcState struct {
	pitchLQ8        int32
	ltpCoefQ14      [ltpOrder]int16
	prevLPCQ12      [maxLPCOrder]int16
	prevLTPScaleQ14 int32
	prevGainQ16     [2]int32
	randSeed        int32
	randScaleQ14    int32

	lastFrameLost   bool
	concEnergy      int32
	concEnergyShift int
}

func (p *plcState) reset(frameLength int) {
	*p = plcState{}
	p.pitchLQ8 = int32(frameLength) << 7
	p.prevGainQ16 = [2]int32{1 << 16, 1 << 16}
}

// update stores the pitch and filters of a received frame for concealing
// the next one.
func (p *plcState) update(d *Decoder, dc *decoderControl) {
	if dc.si.signalType == typeVoiced {
		var ltpGainQ14 int32
		for j := 0; j*d.subfrLength < dc.pitchL[nbSubfr-1] && j < nbSubfr; j++ {
			k := nbSubfr - 1 - j
			b := dc.ltpCoefQ14[k*ltpOrder : (k+1)*ltpOrder]
			var sum int32
			for _, v := range b {
				sum += int32(v)
			}
			if sum > ltpGainQ14 {
				ltpGainQ14 = sum
				copy(p.ltpCoefQ14[:], b)
				p.pitchLQ8 = int32(dc.pitchL[k]) << 8
			}
		}

		p.ltpCoefQ14 = [ltpOrder]int16{}
		p.ltpCoefQ14[ltpOrder/2] = int16(ltpGainQ14)

		// Keep the pitch gain within a range that neither dies out at
		// once nor rings.
		switch {
		case ltpGainQ14 < vPitchGainStartMinQ14:
			scaleQ10 := (int32(vPitchGainStartMinQ14) << 10) / max(ltpGainQ14, 1)
			for i := range p.ltpCoefQ14 {
				p.ltpCoefQ14[i] = int16(silkSMULBB(int32(p.ltpCoefQ14[i]), scaleQ10) >> 10)
			}
		case ltpGainQ14 > vPitchGainStartMaxQ14:
			scaleQ14 := (int32(vPitchGainStartMaxQ14) << 14) / max(ltpGainQ14, 1)
			for i := range p.ltpCoefQ14 {
				p.ltpCoefQ14[i] = int16(silkSMULBB(int32(p.ltpCoefQ14[i]), scaleQ14) >> 14)
			}
		}
	} else {
		p.pitchLQ8 = int32(d.fsKHz*maxPitchLagMs) << 8
		p.ltpCoefQ14 = [ltpOrder]int16{}
	}

	p.prevLPCQ12 = dc.predCoefQ12[1]
	p.prevLTPScaleQ14 = dc.ltpScaleQ14
	p.prevGainQ16[0] = dc.gainsQ16[nbSubfr-2]
	p.prevGainQ16[1] = dc.gainsQ16[nbSubfr-1]
}

// conceal synthesizes a lost frame by continuing the last pitch period with
// decaying gain, mixed with noise drawn from the last excitation.
func (p *plcState) conceal(d *Decoder, dc *decoderControl, out []int16) {
	L := d.frameLength
	subfr := d.subfrLength
	order := d.lpcOrder
	sc := d.scratch

	var prevGainQ10 [2]int32
	prevGainQ10[0] = p.prevGainQ16[0] >> 6
	prevGainQ10[1] = p.prevGainQ16[1] >> 6

	if d.firstFrameAfterReset {
		p.prevLPCQ12 = [maxLPCOrder]int16{}
	}

	// Draw noise from the quieter of the last two subframes.
	nrg1, shift1, nrg2, shift2 := excitationEnergies(d.excQ14[:L], prevGainQ10, subfr)
	var randBuf []int32
	if nrg1>>uint(shift2) < nrg2>>uint(shift1) {
		randBuf = d.excQ14[max(0, (nbSubfr-1)*subfr-randBufSize):]
	} else {
		randBuf = d.excQ14[max(0, nbSubfr*subfr-randBufSize):]
	}

	bQ14 := p.ltpCoefQ14
	randScaleQ14 := p.randScaleQ14
	att := min(nbAtt-1, d.lossCnt)
	harmGainQ15 := harmAttQ15[att]
	randGainQ15 := plcRandAttenuateUVQ15[att]
	if d.prevSignalType == typeVoiced {
		randGainQ15 = plcRandAttenuateVQ15[att]
	}

	bwExpander(p.prevLPCQ12[:order], plcBWECoefQ16)

	if d.lossCnt == 0 {
		randScaleQ14 = 1 << 14
		if d.prevSignalType == typeVoiced {
			for _, b := range bQ14 {
				randScaleQ14 -= int32(b)
			}
			randScaleQ14 = max(plcRandScaleMinQ14, randScaleQ14)
			randScaleQ14 = silkSMULBB(randScaleQ14, p.prevLTPScaleQ14) >> 14
		} else {
			// Lower the noise for strongly predictive filters.
			invGainQ30 := lpcInversePredGain(p.prevLPCQ12[:order])
			downScaleQ30 := min(int32(1<<30)>>log2InvLPCGainHighThres, invGainQ30)
			downScaleQ30 = max(int32(1<<30)>>log2InvLPCGainLowThres, downScaleQ30)
			downScaleQ30 <<= log2InvLPCGainHighThres
			randGainQ15 = silkSMULWB(downScaleQ30, randGainQ15) >> 14
		}
	}

	seed := p.randSeed
	lag := int(silkRSHIFT_ROUND(p.pitchLQ8, 8))

	// Rewhiten the last output with the previous filter.
	sLTP := sc.sLTP[:L]
	sLTPQ14 := sc.sLTPQ15[:2*L]
	idx := silkLimitInt(L-lag-order-ltpOrder/2, 0, L-order)
	lpcAnalysisFilter(sLTP[idx:], d.outBuf[idx:L], p.prevLPCQ12[:order], L-idx, order)
	invGainQ30 := silkInverse32VarQ(max(p.prevGainQ16[1], 1), 46)
	invGainQ30 = min(invGainQ30, 0x7FFFFFFF>>1)
	for i := idx + order; i < L; i++ {
		sLTPQ14[i] = silkSMULWB(invGainQ30, int32(sLTP[i]))
	}

	sLTPBufIdx := L
	maxLagQ8 := int32(maxPitchLagMs*d.fsKHz) << 8
	for k := 0; k < nbSubfr; k++ {
		predLag := sLTPBufIdx - lag + ltpOrder/2
		for i := 0; i < subfr; i++ {
			ltpPredQ12 := int32(2)
			for j := 0; j < ltpOrder; j++ {
				ltpPredQ12 = silkSMLAWB(ltpPredQ12, sLTPQ14[predLag-j], int32(bQ14[j]))
			}
			predLag++

			seed = silkRAND(seed)
			r := (seed >> 25) & randBufMask
			sLTPQ14[sLTPBufIdx] = silkSMLAWB(ltpPredQ12, randBuf[r], randScaleQ14) << 2
			sLTPBufIdx++
		}

		for j := range bQ14 {
			bQ14[j] = int16(silkSMULBB(harmGainQ15, int32(bQ14[j])) >> 15)
		}
		randScaleQ14 = silkSMULBB(randScaleQ14, randGainQ15) >> 15

		// Slowly lengthen the period.
		p.pitchLQ8 = silkSMLAWB(p.pitchLQ8, p.pitchLQ8, pitchDriftFACQ16)
		p.pitchLQ8 = min(p.pitchLQ8, maxLagQ8)
		lag = int(silkRSHIFT_ROUND(p.pitchLQ8, 8))
	}

	// Short-term synthesis in place over the concealed excitation.
	sLPC := sLTPQ14[L-maxLPCOrder : 2*L]
	copy(sLPC[:maxLPCOrder], d.sLPCQ14[:maxLPCOrder])
	aQ12 := p.prevLPCQ12[:order]
	for i := 0; i < L; i++ {
		predQ10 := shortTermPrediction(sLPC, maxLPCOrder+i-1, aQ12)
		sLPC[maxLPCOrder+i] = silkAddSat32(sLPC[maxLPCOrder+i], silkLShiftSAT32(predQ10, 4))
		out[i] = silkSAT16(silkRSHIFT_ROUND(silkSMULWW(sLPC[maxLPCOrder+i], prevGainQ10[1]), 8))
	}
	copy(d.sLPCQ14[:maxLPCOrder], sLPC[L:L+maxLPCOrder])

	p.randSeed = seed
	p.randScaleQ14 = randScaleQ14
	for k := range dc.pitchL {
		dc.pitchL[k] = lag
	}
}

// excitationEnergies returns the energies of the last two subframes of exc
// scaled by their gains.
func excitationEnergies(excQ14 []int32, prevGainQ10 [2]int32, subfr int) (nrg1 int32, shift1 int, nrg2 int32, shift2 int) {
	var buf [2 * maxSubfrLength]int16
	for k := 0; k < 2; k++ {
		src := excQ14[(nbSubfr-2+k)*subfr:]
		for i := 0; i < subfr; i++ {
			buf[k*subfr+i] = silkSAT16(silkSMULWW(src[i], prevGainQ10[k]) >> 8)
		}
	}
	nrg1, shift1 = silkSumSqrShift(buf[:subfr])
	nrg2, shift2 = silkSumSqrShift(buf[subfr : 2*subfr])
	return nrg1, shift1, nrg2, shift2
}

// glue smooths the transition from concealed to received frames: the
// energy of the last concealed frame is kept, and a louder first received
// frame is faded in from that level.
func (p *plcState) glue(d *Decoder, frame []int16) {
	if d.lossCnt > 0 {
		p.concEnergy, p.concEnergyShift = silkSumSqrShift(frame)
		p.lastFrameLost = true
		return
	}
	if !p.lastFrameLost {
		return
	}
	p.lastFrameLost = false

	nrg, shift := silkSumSqrShift(frame)
	conc := p.concEnergy
	switch {
	case shift > p.concEnergyShift:
		conc >>= uint(shift - p.concEnergyShift)
	case shift < p.concEnergyShift:
		nrg >>= uint(p.concEnergyShift - shift)
	}
	if nrg <= conc {
		return
	}

	lz := silkCLZ32(conc) - 1
	conc <<= uint(lz)
	nrg >>= uint(max(24-lz, 0))
	fracQ24 := conc / max(nrg, 1)

	gainQ16 := silkSqrtApprox(fracQ24) << 4
	slopeQ16 := ((1 << 16) - gainQ16) / int32(len(frame))
	slopeQ16 <<= 2
	for i := range frame {
		frame[i] = int16(silkSMULWB(gainQ16, int32(frame[i])))
		gainQ16 += slopeQ16
		if gainQ16 > 1<<16 {
			break
		}
	}
}
