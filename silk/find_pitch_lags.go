package silk

import "math"

const (
	findPitchWhiteNoiseFraction = 1e-3
	findPitchBandwidthExpansion = 0.99
)

// findPitchLags whitens the analysis buffer with a low-order LPC fit and runs
// the pitch search on the residual, which is kept in resPitch for the LTP
// analysis and the sparseness measure. It decides the signal type.
func (e *Encoder) findPitchLags(ctl *encoderControl, resPitch []float64) {
	sc := e.scratch
	order := e.cs.pitchLPCOrder
	bufLen := e.ltpMemLength + e.frameLength + e.laPitch
	xBuf := e.xBuf[:bufLen]

	// Window the end of the buffer: sine slopes over the pitch lookahead at
	// both sides, flat in between.
	winLen := e.pitchLPCWinLength
	x := xBuf[bufLen-winLen:]
	w := sc.wsig[:winLen]
	flat := winLen - 2*e.laPitch
	applySineWindowFLP(w, x, 1, e.laPitch)
	copy(w[e.laPitch:e.laPitch+flat], x[e.laPitch:])
	applySineWindowFLP(w[e.laPitch+flat:], x[e.laPitch+flat:], 2, e.laPitch)

	var (
		autoCorr [maxLPCOrder + 1]float64
		refl     [maxLPCOrder]float64
		a        [maxLPCOrder]float64
	)
	autocorrelationFLP(autoCorr[:order+1], w, order+1)
	autoCorr[0] += autoCorr[0]*findPitchWhiteNoiseFraction + 1

	resNrg := schurFLP(refl[:], autoCorr[:], order)
	ctl.predGain = autoCorr[0] / math.Max(resNrg, 1)

	k2aFLP(a[:], refl[:], order)
	bwexpanderFLP(a[:order], findPitchBandwidthExpansion)
	lpcAnalysisFilterFLP(resPitch, a[:order], xBuf, bufLen, order)

	if e.firstFrameAfterReset {
		e.setUnvoiced(ctl)
		return
	}

	// Harder to become voiced after an unvoiced frame, easier with high
	// speech activity and for low-pass input.
	thrhld := 0.5
	thrhld -= 0.004 * float64(order)
	thrhld -= 0.1 * math.Sqrt(float64(e.speechActivityQ8)/256)
	thrhld += 0.14 * float64(e.prevSignalType)
	thrhld -= 0.12 * float64(e.inputTiltQ15) / 32768

	res := pitchAnalysisCore(&sc.pitch, resPitch, e.prevLag, &e.ltpCorr,
		e.cs.pitchEstThreshold, thrhld, e.fsKHz, e.complexity)
	if !res.voiced {
		e.setUnvoiced(ctl)
		return
	}
	e.si.signalType = typeVoiced
	e.si.lagIndex = res.lagIndex
	e.si.contourIndex = res.contourIndex
	ctl.pitchL = res.pitchL
}

func (e *Encoder) setUnvoiced(ctl *encoderControl) {
	e.si.signalType = typeUnvoiced
	e.si.lagIndex = 0
	e.si.contourIndex = 0
	ctl.pitchL = [nbSubfr]int{}
	e.ltpCorr = 0
}
