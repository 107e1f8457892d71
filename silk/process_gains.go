package silk

import "math"

// processGains adjusts the shaping gains to the SNR target, quantizes them
// and sets the quantizer offset of voiced frames and the rate-distortion
// weight lambda.
func (e *Encoder) processGains(ctl *encoderControl, gainsQ16 *[nbSubfr]int32) {
	si := &e.si

	// Voiced frames with high LTP gain need less excitation.
	if si.signalType == typeVoiced {
		s := 1 - 0.5*sigmoid(0.25*(ctl.ltpRedCodGain-12))
		for k := range ctl.gains {
			ctl.gains[k] *= s
		}
	}

	// Limit the quantized signal.
	invMaxSqrVal := math.Pow(2, 0.33*(21-ctl.currentSNRdB)) / float64(e.subfrLength)
	for k := range ctl.gains {
		g := ctl.gains[k]
		g = math.Sqrt(g*g + ctl.resNrg[k]*invMaxSqrVal)
		ctl.gains[k] = math.Min(g, 32767)
	}

	for k := range ctl.gains {
		gainsQ16[k] = float2int(ctl.gains[k] * 65536)
	}
	e.shape.lastGainIndex = gainsQuant(si.gainsIndices[:], gainsQ16[:], e.shape.lastGainIndex, e.nFramesInPayload > 0)
	for k := range ctl.gains {
		ctl.gains[k] = float64(gainsQ16[k]) / 65536
	}

	// Larger offset when the LTP gain is low or the input is low-passed.
	if si.signalType == typeVoiced {
		if ctl.ltpRedCodGain+float64(e.inputTiltQ15)/32768 > 1 {
			si.quantOffsetType = 0
		} else {
			si.quantOffsetType = 1
		}
	}

	offset := float64(quantizationOffsetsQ10[si.signalType][si.quantOffsetType]) / 1024
	sa := float64(e.speechActivityQ8) / 256
	ctl.lambda = 1.2 -
		0.05*float64(e.cs.nStates) -
		0.2*sa -
		0.1*ctl.inputQuality -
		0.2*ctl.codingQuality +
		0.8*offset
}
