package silk

import "math"

// Voice activity detection. The input is split into four bands (0-1, 1-2,
// 2-4 and 4-8 kHz at a 16 kHz input) by a cascade of half-band allpass
// filter banks; each band's energy is tracked against an adaptive noise
// floor and the band SNRs are mapped through a sigmoid to a speech
// activity probability.

const (
	vadNBands                  = 4
	vadInternalSubframesLog2   = 2
	vadInternalSubframes       = 1 << vadInternalSubframesLog2
	vadNoiseLevelSmoothCoefQ16 = 1024
	vadNoiseLevelsBias         = 50
	vadNegativeOffsetQ5        = 128
	vadSNRFactorQ16            = 45000
	vadSNRSmoothCoefQ18        = 4096
)

var vadTiltWeights = [vadNBands]int32{30000, 6000, -12000, -12000}

// Half-band allpass coefficients.
const (
	aFB1_20 = 5394 << 1
	aFB1_21 = -24290
)

type vadState struct {
	anaState       [2]int32
	anaState1      [2]int32
	anaState2      [2]int32
	xnrgSubfr      [vadNBands]int32
	nrgRatioSmthQ8 [vadNBands]int32
	hpState        int16
	nl             [vadNBands]int32
	invNL          [vadNBands]int32
	noiseLevelBias [vadNBands]int32
	counter        int32

	x [maxFrameLength + maxFrameLength/4]int16
}

// vadResult is the per-frame output of the detector.
type vadResult struct {
	speechActivityQ8     int
	inputTiltQ15         int
	inputQualityBandsQ15 [vadNBands]int
}

func (v *vadState) reset() {
	*v = vadState{}
	for b := 0; b < vadNBands; b++ {
		v.noiseLevelBias[b] = max(vadNoiseLevelsBias/int32(b+1), 1)
		v.nl[b] = 100 * v.noiseLevelBias[b]
		v.invNL[b] = math.MaxInt32 / v.nl[b]
		v.nrgRatioSmthQ8[b] = 100 * 256
	}
	v.counter = 15
}

// analyze runs the detector on one frame of 16-bit input at fsKHz.
func (v *vadState) analyze(in []int16, fsKHz int) vadResult {
	var res vadResult
	frameLength := len(in)
	dec1 := frameLength >> 1
	dec2 := frameLength >> 2
	dec := frameLength >> 3

	xOffset := [vadNBands]int{0, dec + dec2, 2*dec + dec2, 2*dec + 2*dec2}
	X := v.x[:xOffset[3]+dec1]

	anaFiltBank1(in, &v.anaState, X[:dec1], X[xOffset[3]:])
	anaFiltBank1(X[:dec1], &v.anaState1, X[:dec2], X[xOffset[2]:])
	anaFiltBank1(X[:dec2], &v.anaState2, X[:dec], X[xOffset[1]:])

	// Differentiate the lowest band.
	X[dec-1] >>= 1
	hpTmp := X[dec-1]
	for i := dec - 1; i > 0; i-- {
		X[i-1] >>= 1
		X[i] -= X[i-1]
	}
	X[0] -= v.hpState
	v.hpState = hpTmp

	var xnrg [vadNBands]int32
	for b := 0; b < vadNBands; b++ {
		bandLen := frameLength >> min(vadNBands-b, vadNBands-1)
		subLen := bandLen >> vadInternalSubframesLog2
		off := 0
		xnrg[b] = v.xnrgSubfr[b]
		var sumSquared int32
		for s := 0; s < vadInternalSubframes; s++ {
			sumSquared = 0
			for i := 0; i < subLen; i++ {
				t := int32(X[xOffset[b]+off+i]) >> 3
				sumSquared = silkSMLABB(sumSquared, t, t)
			}
			// The last subframe overlaps the next frame and counts half.
			if s < vadInternalSubframes-1 {
				xnrg[b] = addPosSat32(xnrg[b], sumSquared)
			} else {
				xnrg[b] = addPosSat32(xnrg[b], sumSquared>>1)
			}
			off += subLen
		}
		v.xnrgSubfr[b] = sumSquared
	}

	v.updateNoiseLevels(&xnrg)

	var sumSquared, inputTilt int32
	var ratioQ8 [vadNBands]int32
	for b := 0; b < vadNBands; b++ {
		speechNrg := xnrg[b] - v.nl[b]
		if speechNrg <= 0 {
			ratioQ8[b] = 256
			continue
		}
		if uint32(xnrg[b])&0xFF800000 == 0 {
			ratioQ8[b] = (xnrg[b] << 8) / (v.nl[b] + 1)
		} else {
			ratioQ8[b] = xnrg[b] / (v.nl[b]>>8 + 1)
		}
		snrQ7 := silkLin2Log(ratioQ8[b]) - 8*128
		sumSquared = silkSMLABB(sumSquared, snrQ7, snrQ7)
		if speechNrg < 1<<20 {
			snrQ7 = silkSMULWB(silkSqrtApprox(speechNrg)<<6, snrQ7)
		}
		inputTilt = silkSMLAWB(inputTilt, vadTiltWeights[b], snrQ7)
	}

	sumSquared /= vadNBands
	pSNRdBQ7 := int32(int16(3 * silkSqrtApprox(sumSquared)))
	saQ15 := sigmQ15(silkSMULWB(vadSNRFactorQ16, pSNRdBQ7) - vadNegativeOffsetQ5)
	res.inputTiltQ15 = int((sigmQ15(inputTilt) - 16384) << 1)

	var speechNrg int32
	for b := 0; b < vadNBands; b++ {
		speechNrg += int32(b+1) * ((xnrg[b] - v.nl[b]) >> 4)
	}
	if frameLength == 20*fsKHz {
		speechNrg >>= 1
	}
	if speechNrg <= 0 {
		saQ15 >>= 1
	} else if speechNrg < 16384 {
		speechNrg = silkSqrtApprox(speechNrg << 16)
		saQ15 = silkSMULWB(32768+speechNrg, saQ15)
	}
	res.speechActivityQ8 = min(int(saQ15>>7), 255)

	smoothCoefQ16 := silkSMULWB(vadSNRSmoothCoefQ18, silkSMULWB(saQ15, saQ15))
	if frameLength == 10*fsKHz {
		smoothCoefQ16 >>= 1
	}
	for b := 0; b < vadNBands; b++ {
		v.nrgRatioSmthQ8[b] = silkSMLAWB(v.nrgRatioSmthQ8[b], ratioQ8[b]-v.nrgRatioSmthQ8[b], smoothCoefQ16)
		snrQ7 := 3 * (silkLin2Log(v.nrgRatioSmthQ8[b]) - 8*128)
		res.inputQualityBandsQ15[b] = int(sigmQ15((snrQ7 - 16*128) >> 4))
	}
	return res
}

func (v *vadState) updateNoiseLevels(x *[vadNBands]int32) {
	// Adapt faster during the first 20 seconds.
	var minCoef int32
	if v.counter < 1000 {
		minCoef = math.MaxInt16 / (v.counter>>4 + 1)
		v.counter++
	}

	for k := 0; k < vadNBands; k++ {
		nl := v.nl[k]
		nrg := addPosSat32(x[k], v.noiseLevelBias[k])
		invNrg := math.MaxInt32 / nrg

		var coef int32
		switch {
		case nrg > nl<<3:
			coef = vadNoiseLevelSmoothCoefQ16 >> 3
		case nrg < nl:
			coef = vadNoiseLevelSmoothCoefQ16
		default:
			coef = silkSMULWB(silkSMULWW(invNrg, nl), vadNoiseLevelSmoothCoefQ16<<1)
		}
		coef = max(coef, minCoef)

		v.invNL[k] = silkSMLAWB(v.invNL[k], invNrg-v.invNL[k], coef)
		nl = math.MaxInt32 / max(v.invNL[k], 1)
		v.nl[k] = min(nl, 0x00FFFFFF)
	}
}

// anaFiltBank1 splits in into a decimated low band and high band with two
// first-order allpass sections.
func anaFiltBank1(in []int16, s *[2]int32, outL, outH []int16) {
	n2 := len(in) >> 1
	for k := 0; k < n2; k++ {
		in32 := int32(in[2*k]) << 10
		y := in32 - s[0]
		x := silkSMLAWB(y, y, aFB1_21)
		out1 := s[0] + x
		s[0] = in32 + x

		in32 = int32(in[2*k+1]) << 10
		y = in32 - s[1]
		x = silkSMULWB(y, aFB1_20)
		out2 := s[1] + x
		s[1] = in32 + x

		outL[k] = silkSAT16(silkRSHIFT_ROUND(out2+out1, 11))
		outH[k] = silkSAT16(silkRSHIFT_ROUND(out2-out1, 11))
	}
}

var (
	sigmLUTSlopeQ10 = [6]int32{237, 153, 73, 30, 12, 7}
	sigmLUTPosQ15   = [6]int32{16384, 23955, 28861, 31213, 32178, 32548}
	sigmLUTNegQ15   = [6]int32{16384, 8812, 3906, 1554, 589, 219}
)

// sigmQ15 is a piecewise linear sigmoid with a Q5 input.
func sigmQ15(inQ5 int32) int32 {
	if inQ5 < 0 {
		inQ5 = -inQ5
		if inQ5 >= 6*32 {
			return 0
		}
		ind := inQ5 >> 5
		return sigmLUTNegQ15[ind] - silkSMULBB(sigmLUTSlopeQ10[ind], inQ5&0x1F)
	}
	if inQ5 >= 6*32 {
		return 32767
	}
	ind := inQ5 >> 5
	return sigmLUTPosQ15[ind] + silkSMULBB(sigmLUTSlopeQ10[ind], inQ5&0x1F)
}

func addPosSat32(a, b int32) int32 {
	if sum := uint32(a) + uint32(b); sum&0x80000000 == 0 {
		return int32(sum)
	}
	return math.MaxInt32
}
