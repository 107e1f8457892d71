package silk

// decodeCore reconstructs one frame from the excitation pulses and the
// dequantized parameters. It mirrors the reconstruction in the noise shaping
// quantizer so that decoder and encoder stay in step.
func (d *Decoder) decodeCore(dc *decoderControl, out []int16, pulses []int16) {
	L := d.frameLength
	subfr := d.subfrLength
	order := d.lpcOrder
	si := &dc.si
	sc := d.scratch

	offsetQ10 := quantizationOffsetsQ10[si.signalType][si.quantOffsetType]
	interpolated := si.nlsfInterpQ2 < 4

	seed := int32(si.seed)
	for i := 0; i < L; i++ {
		seed = silkRAND(seed)
		exc := int32(pulses[i]) << 14
		switch {
		case exc > 0:
			exc -= quantLevelAdjustQ10 << 4
		case exc < 0:
			exc += quantLevelAdjustQ10 << 4
		}
		exc += offsetQ10 << 4
		if seed < 0 {
			exc = -exc
		}
		d.excQ14[i] = exc
		seed += int32(pulses[i])
	}

	xq := d.outBuf[L : 2*L]
	sLTP := sc.sLTP[:2*L]
	sLTPQ15 := sc.sLTPQ15[:2*L]
	sLTPBufIdx := L
	lag := 0

	for k := 0; k < nbSubfr; k++ {
		excQ14 := d.excQ14[k*subfr : (k+1)*subfr]
		aQ12 := dc.predCoefQ12[k>>1][:order]
		bQ14 := dc.ltpCoefQ14[k*ltpOrder : (k+1)*ltpOrder]
		signalType := si.signalType
		ltpScaleQ14 := dc.ltpScaleQ14

		gainQ10 := dc.gainsQ16[k] >> 6
		invGainQ31 := silkInverse32VarQ(max(dc.gainsQ16[k], 1), 47)

		gainAdjQ16 := int32(1 << 16)
		if dc.gainsQ16[k] != d.prevGainQ16 {
			gainAdjQ16 = silkDiv32VarQ(d.prevGainQ16, dc.gainsQ16[k], 16)
			for i := 0; i < maxLPCOrder; i++ {
				d.sLPCQ14[i] = silkSMULWW(gainAdjQ16, d.sLPCQ14[i])
			}
		}
		d.prevGainQ16 = dc.gainsQ16[k]

		// After a loss, a voiced frame followed by an unvoiced one keeps a
		// weak pitch pulse for the first half of the frame.
		if d.lossCnt > 0 && d.prevSignalType == typeVoiced && signalType != typeVoiced && k < nbSubfr/2 {
			var forced [ltpOrder]int16
			forced[ltpOrder/2] = 1 << 12
			bQ14 = forced[:]
			signalType = typeVoiced
			dc.pitchL[k] = d.lagPrev
			ltpScaleQ14 = 1 << 14
		}

		if signalType == typeVoiced {
			lag = dc.pitchL[k]
			if k == 0 || (k == 2 && interpolated) {
				start := silkLimitInt(L-lag-order-ltpOrder/2, 0, L-order)
				lpcAnalysisFilter(sLTP[start:], d.outBuf[start+k*subfr:], aQ12, L-start, order)
				if k == 0 {
					invGainQ31 = silkSMULWB(invGainQ31, ltpScaleQ14) << 2
				}
				for i := 0; i < lag+ltpOrder/2; i++ {
					sLTPQ15[sLTPBufIdx-i-1] = silkSMULWB(invGainQ31, int32(sLTP[L-i-1]))
				}
			} else if gainAdjQ16 != 1<<16 {
				for i := 0; i < lag+ltpOrder/2; i++ {
					sLTPQ15[sLTPBufIdx-i-1] = silkSMULWW(gainAdjQ16, sLTPQ15[sLTPBufIdx-i-1])
				}
			}
		}

		resQ14 := sc.resQ14[:subfr]
		if signalType == typeVoiced {
			predLag := sLTPBufIdx - lag + ltpOrder/2
			for i := 0; i < subfr; i++ {
				ltpPredQ13 := int32(2)
				for j := 0; j < ltpOrder; j++ {
					ltpPredQ13 = silkSMLAWB(ltpPredQ13, sLTPQ15[predLag-j], int32(bQ14[j]))
				}
				predLag++
				resQ14[i] = excQ14[i] + ltpPredQ13<<1
				sLTPQ15[sLTPBufIdx] = resQ14[i] << 1
				sLTPBufIdx++
			}
		} else {
			copy(resQ14, excQ14)
		}

		sub := xq[k*subfr : (k+1)*subfr]
		d.lpcSynthesis(resQ14, aQ12, gainQ10, sub)
	}

	copy(out, xq)
}

// lpcSynthesis runs the short-term synthesis filter over one subframe of
// Q14 residual, writing the gain-scaled output to out.
func (d *Decoder) lpcSynthesis(resQ14 []int32, aQ12 []int16, gainQ10 int32, out []int16) {
	s := d.sLPCQ14[:]
	for i := range resQ14 {
		predQ10 := shortTermPrediction(s, maxLPCOrder+i-1, aQ12)
		s[maxLPCOrder+i] = silkAddSat32(resQ14[i], silkLShiftSAT32(predQ10, 4))
		out[i] = silkSAT16(silkRSHIFT_ROUND(silkSMULWW(s[maxLPCOrder+i], gainQ10), 8))
	}
	n := len(resQ14)
	copy(s[:maxLPCOrder], s[n:n+maxLPCOrder])
}
