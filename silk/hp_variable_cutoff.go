package silk

// Input high-pass with a cutoff that follows the low end of the pitch range
// of voiced speech, smoothed in the log domain.

const (
	variableHPMinFreq     = 80
	variableHPMaxFreq     = 150
	variableHPSmthCoef1   = 0.1
	variableHPSmthCoef2   = 0.015
	variableHPMaxDeltaFrq = 0.4
)

type hpState struct {
	s        [2]int32
	smth1Q15 int32
	smth2Q15 int32
}

func (h *hpState) reset() {
	h.s = [2]int32{}
	h.smth1Q15 = (silkLin2Log(variableHPMinFreq<<16) - 16<<7) << 8
	h.smth2Q15 = h.smth1Q15
}

// cutoffHz updates the smoothers from the previous frame's pitch and returns
// the cutoff frequency.
func (h *hpState) cutoffHz(fsKHz int, prevVoiced bool, prevLag, qualityQ15, speechActivityQ8 int) int32 {
	if prevVoiced && prevLag > 0 {
		pitchFreqHzQ16 := int32((fsKHz * 1000 << 16) / prevLag)
		pitchFreqLogQ7 := silkLin2Log(pitchFreqHzQ16) - 16<<7

		// Lower the estimate for low input quality.
		q := int32(qualityQ15)
		minFreqLogQ7 := silkLin2Log(variableHPMinFreq)
		pitchFreqLogQ7 -= silkSMULWB(silkSMULWB(q<<2, q), pitchFreqLogQ7-minFreqLogQ7)
		pitchFreqLogQ7 += (silkFixConst(0.6, 15) - q) >> 9

		deltaFreqQ7 := pitchFreqLogQ7 - h.smth1Q15>>8
		if deltaFreqQ7 < 0 {
			// Track decreasing pitch frequencies faster.
			deltaFreqQ7 *= 3
		}
		maxDelta := silkFixConst(variableHPMaxDeltaFrq, 7)
		deltaFreqQ7 = silkLimit32(deltaFreqQ7, -maxDelta, maxDelta)

		h.smth1Q15 = silkSMLAWB(h.smth1Q15, int32(speechActivityQ8<<1)*deltaFreqQ7,
			silkFixConst(variableHPSmthCoef1, 16))
	}
	h.smth2Q15 = silkSMLAWB(h.smth2Q15, h.smth1Q15-h.smth2Q15, silkFixConst(variableHPSmthCoef2, 16))

	freq := silkLog2Lin(h.smth2Q15 >> 8)
	return silkLimit32(freq, variableHPMinFreq, variableHPMaxFreq)
}

// filter high-passes in into out with the cutoff for this frame.
func (h *hpState) filter(out, in []int16, fsKHz int, cutoffHz int32) {
	// Cutoff in radians, Q19.
	fcQ19 := silkSMULBB(silkFixConst(0.45*2*3.14159265359/1000, 19), cutoffHz) / int32(fsKHz)

	// b = r*[1 -2 1], a = [1 -2r(1 - 0.5 fc^2) r^2]
	rQ28 := silkFixConst(1.0, 28) - silkFixConst(0.92, 9)*fcQ19
	bQ28 := [3]int32{rQ28, -rQ28 << 1, rQ28}
	rQ22 := rQ28 >> 6
	aQ28 := [2]int32{
		silkSMULWW(rQ22, silkSMULWW(fcQ19, fcQ19)-silkFixConst(2.0, 22)),
		silkSMULWW(rQ22, rQ22),
	}
	biquadAlt(out, in, &bQ28, &aQ28, &h.s)
}
