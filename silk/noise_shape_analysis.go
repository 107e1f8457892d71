package silk

import "math"

// Noise shaping tuning.
const (
	bgSNRDecrDB                         = 2.0
	harmSNRIncrDB                       = 2.0
	energyVariationThresholdQntOffset   = 0.6
	bandwidthExpansion                  = 0.94
	shapeWhiteNoiseFraction             = 5e-5
	lowFreqShaping                      = 4.0
	lowQualityLowFreqShapingDecr        = 0.5
	hpNoiseCoef                         = 0.25
	harmHPNoiseCoef                     = 0.35
	harmonicShaping                     = 0.3
	highRateOrLowQualityHarmonicShaping = 0.2
	subfrSmthCoef                       = 0.4
)

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

// noiseShapeAnalysis derives the per-subframe shaping filters and gains from
// the windowed input and decides the quantization offset type of unvoiced
// frames. resPitch points at the pitch residual of the current frame.
func (e *Encoder) noiseShapeAnalysis(ctl *encoderControl, resPitch []float64) {
	sc := e.scratch
	si := &e.si
	sa := float64(e.speechActivityQ8) / 256

	// The SNR target is lowered when the channel is behind schedule and
	// while redundant frames take part of the rate.
	snrAdj := e.snrDB - 0.05*e.bufferedInChannelMs
	if e.lbrrEnabled && e.speechActivityQ8 > lbrrSpeechActivityQ8 {
		snrAdj -= e.inbandFECSNRComp
	}
	ctl.currentSNRdB = snrAdj

	ctl.inputQuality = 0.5 * float64(e.inputQualityBandsQ15[0]+e.inputQualityBandsQ15[1]) / 32768
	ctl.codingQuality = sigmoid(0.25 * (snrAdj - 20))

	// Less bits for background noise.
	b := 1 - sa
	snrAdj -= bgSNRDecrDB * ctl.codingQuality * (0.5 + 0.5*ctl.inputQuality) * b * b

	if si.signalType == typeVoiced {
		snrAdj += harmSNRIncrDB * e.ltpCorr
	} else {
		snrAdj += (-0.4*ctl.currentSNRdB + 6) * (1 - ctl.inputQuality)
	}

	// Sparseness: a strongly fluctuating residual energy over 2 ms segments
	// gets the low quantization offset.
	ctl.sparseness = 0
	if si.signalType == typeVoiced {
		si.quantOffsetType = 0
	} else {
		nSamples := 2 * e.fsKHz
		nSegs := frameLengthMs / 2
		var variation, logPrev float64
		for k := 0; k < nSegs; k++ {
			seg := resPitch[k*nSamples : (k+1)*nSamples]
			logEnergy := math.Log2(float64(nSamples) + energyFLP(seg))
			if k > 0 {
				variation += math.Abs(logEnergy - logPrev)
			}
			logPrev = logEnergy
		}
		ctl.sparseness = sigmoid(0.4 * (variation - 5))
		si.quantOffsetType = 1
		if variation > energyVariationThresholdQntOffset*float64(nSegs-1) {
			si.quantOffsetType = 0
		}
	}

	// More bandwidth expansion for signals with high prediction gain.
	strength := findPitchWhiteNoiseFraction * ctl.predGain
	bwExp := bandwidthExpansion / (1 + strength*strength)

	order := e.cs.shapingLPCOrder
	slope := (e.shapeWinLength - 3*e.fsKHz) / 2
	flat := e.shapeWinLength - 2*slope
	xw := sc.xWindowed[:e.shapeWinLength]
	var (
		autoCorr [maxShapeLPCOrder + 1]float64
		refl     [maxShapeLPCOrder]float64
	)
	for k := 0; k < nbSubfr; k++ {
		// The window is centred on subframe k and reaches laShape into the
		// neighbouring subframes.
		start := e.ltpMemLength - e.laShape + k*e.subfrLength
		x := e.xBuf[start : start+e.shapeWinLength]
		applySineWindowFLP(xw, x, 1, slope)
		copy(xw[slope:slope+flat], x[slope:])
		applySineWindowFLP(xw[slope+flat:], x[slope+flat:], 2, slope)

		autocorrelationFLP(autoCorr[:order+1], xw, order+1)
		autoCorr[0] += autoCorr[0]*shapeWhiteNoiseFraction + 1

		nrg := schurFLP(refl[:], autoCorr[:], order)
		ar := ctl.ar[k*maxShapeLPCOrder : k*maxShapeLPCOrder+order]
		clear(ar)
		k2aFLP(ar, refl[:], order)
		ctl.gains[k] = math.Sqrt(nrg)
		bwexpanderFLP(ar, bwExp)
	}

	// Noise level follows the SNR target, with a floor.
	gainMult := math.Pow(2, -0.16*snrAdj)
	gainAdd := math.Pow(2, 0.16*minQGainDb)
	for k := range ctl.gains {
		ctl.gains[k] = ctl.gains[k]*gainMult + gainAdd
	}

	// Low-frequency shaping, weaker for low input quality.
	strength = lowFreqShaping * (1 + lowQualityLowFreqShapingDecr*(float64(e.inputQualityBandsQ15[0])/32768-1))
	strength *= sa
	var tilt float64
	if si.signalType == typeVoiced {
		for k := 0; k < nbSubfr; k++ {
			b := 0.2/float64(e.fsKHz) + 3/float64(ctl.pitchL[k])
			ctl.lfMAShp[k] = -1 + b
			ctl.lfARShp[k] = 1 - b - b*strength
		}
		tilt = -hpNoiseCoef - (1-hpNoiseCoef)*harmHPNoiseCoef*sa
	} else {
		b := 1.3 / float64(e.fsKHz)
		for k := 0; k < nbSubfr; k++ {
			ctl.lfMAShp[k] = -1 + b
			ctl.lfARShp[k] = 1 - b - b*strength*0.6
		}
		tilt = -hpNoiseCoef
	}

	var harmShapeGain float64
	if si.signalType == typeVoiced {
		// More harmonic shaping at high rates or for noisy input, less for
		// weakly periodic signals.
		harmShapeGain = harmonicShaping +
			highRateOrLowQualityHarmonicShaping*(1-(1-ctl.codingQuality)*ctl.inputQuality)
		harmShapeGain *= math.Sqrt(e.ltpCorr)
	}

	for k := 0; k < nbSubfr; k++ {
		e.shape.harmShapeGainSmth += subfrSmthCoef * (harmShapeGain - e.shape.harmShapeGainSmth)
		ctl.harmShapeGain[k] = e.shape.harmShapeGainSmth
		e.shape.tiltSmth += subfrSmthCoef * (tilt - e.shape.tiltSmth)
		ctl.tilt[k] = e.shape.tiltSmth
	}
}
