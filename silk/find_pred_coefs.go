package silk

import "math"

// findPredCoefs runs the long-term and short-term prediction analysis of a
// frame: LTP taps and their quantization for voiced frames, then LPC on the
// LTP residual, NLSF quantization and the residual energies used by the
// gain processing.
func (e *Encoder) findPredCoefs(ctl *encoderControl, resPitch []float64) {
	sc := e.scratch
	si := &e.si
	order := e.predictLPCOrder
	blk := e.subfrLength + order

	var invGains, wght [nbSubfr]float64
	for k := 0; k < nbSubfr; k++ {
		invGains[k] = 1 / ctl.gains[k]
		wght[k] = invGains[k] * invGains[k]
	}

	lpcInPre := sc.lpcInPre[:nbSubfr*blk]
	if si.signalType == typeVoiced {
		var WLTP [nbSubfr * ltpOrder * ltpOrder]float64
		ctl.ltpRedCodGain = e.findLTP(ctl.ltpCoef[:], WLTP[:], resPitch, ctl.pitchL[:], wght[:])

		muLTP := 0.01 * (1.5 - ctl.codingQuality)
		quantLTPGains(ctl.ltpCoef[:], &si.ltpIndex, &si.perIndex, WLTP[:], muLTP, e.cs.ltpLowComplexity)
		e.ltpScaleCtrl(ctl)

		ltpAnalysisFilter(lpcInPre, e.xBuf[:], e.ltpMemLength-order, ctl.ltpCoef[:], ctl.pitchL[:],
			invGains[:], e.subfrLength, order)
	} else {
		for k := 0; k < nbSubfr; k++ {
			src := e.xBuf[e.ltpMemLength-order+k*e.subfrLength:]
			scaleCopyVectorFLP(lpcInPre[k*blk:(k+1)*blk], src[:blk], invGains[k])
		}
		ctl.ltpCoef = [len(ctl.ltpCoef)]float64{}
		ctl.ltpRedCodGain = 0
		si.perIndex = 0
		si.ltpIndex = [nbSubfr]int{}
		si.ltpScaleIndex = 0
		ctl.ltpScale = 0
	}

	// Limit the LPC prediction gain: on the first frame after a reset the
	// history is missing, later frames allow more gain when the LTP already
	// removed much of the periodicity.
	var minInvGain float64
	if e.firstFrameAfterReset {
		minInvGain = 1.0 / maxPredPowerGainQ
	} else {
		minInvGain = math.Pow(2, ctl.ltpRedCodGain/3) / maxPredPowerGainQ
		minInvGain /= 0.25 + 0.75*ctl.codingQuality
	}

	var nlsfQ15 [maxLPCOrder]int16
	useInterp := e.cs.useInterpNLSFs && !e.firstFrameAfterReset
	si.nlsfInterpQ2 = findLPC(nlsfQ15[:], e.pred.prevNLSFq[:], useInterp, order, lpcInPre, blk, minInvGain, sc.lpcRes[:])

	e.processNLSFs(ctl, nlsfQ15[:])

	var a0, a1 [maxLPCOrder]float64
	lpcQ12ToFLP(a0[:order], ctl.predCoefQ12[0][:order])
	lpcQ12ToFLP(a1[:order], ctl.predCoefQ12[1][:order])
	residualEnergyFLP(ctl.resNrg[:], lpcInPre, [2][]float64{a0[:order], a1[:order]}, ctl.gains[:],
		e.subfrLength, nbSubfr, order, sc.lpcRes[:])

	copy(e.pred.prevNLSFq[:order], nlsfQ15[:order])
}
