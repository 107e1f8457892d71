package silk

import "math"

// Floating-point signal processing helpers used by the encoder analysis.

const (
	findLPCCondFac = 1e-5
	minInvGain     = 1e-4 // max prediction gain of 40 dB
)

// float2int rounds to nearest and saturates to int32.
func float2int(x float64) int32 {
	r := math.Round(x)
	if r > math.MaxInt32 {
		return math.MaxInt32
	}
	if r < math.MinInt32 {
		return math.MinInt32
	}
	return int32(r)
}

func float2short(x float64) int16 {
	return silkSAT16(float2int(x))
}

func energyFLP(data []float64) float64 {
	var result float64
	n := len(data)
	i := 0
	for ; i < n-3; i += 4 {
		result += data[i+0]*data[i+0] +
			data[i+1]*data[i+1] +
			data[i+2]*data[i+2] +
			data[i+3]*data[i+3]
	}
	for ; i < n; i++ {
		result += data[i] * data[i]
	}
	return result
}

func innerProductFLP(a, b []float64, length int) float64 {
	var result float64
	i := 0
	for ; i < length-3; i += 4 {
		result += a[i+0]*b[i+0] +
			a[i+1]*b[i+1] +
			a[i+2]*b[i+2] +
			a[i+3]*b[i+3]
	}
	for ; i < length; i++ {
		result += a[i] * b[i]
	}
	return result
}

func autocorrelationFLP(out, in []float64, correlationCount int) {
	if correlationCount > len(in) {
		correlationCount = len(in)
	}
	for k := 0; k < correlationCount; k++ {
		out[k] = innerProductFLP(in, in[k:], len(in)-k)
	}
}

func scaleVectorFLP(data []float64, gain float64) {
	for i := range data {
		data[i] *= gain
	}
}

func scaleCopyVectorFLP(out, in []float64, gain float64) {
	for i := range out {
		out[i] = in[i] * gain
	}
}

// schurFLP computes reflection coefficients from an autocorrelation sequence
// and returns the residual energy.
func schurFLP(refl, autoCorr []float64, order int) float64 {
	var C [maxLPCOrder + 1][2]float64
	for k := 0; k <= order; k++ {
		C[k][0] = autoCorr[k]
		C[k][1] = autoCorr[k]
	}
	for k := 0; k < order; k++ {
		rc := -C[k+1][0] / math.Max(C[0][1], 1e-9)
		refl[k] = rc
		for n := 0; n < order-k; n++ {
			c1 := C[n+k+1][0]
			c2 := C[n][1]
			C[n+k+1][0] = c1 + c2*rc
			C[n][1] = c2 + c1*rc
		}
	}
	return C[0][1]
}

// k2aFLP converts reflection coefficients to prediction coefficients.
func k2aFLP(a, rc []float64, order int) {
	for k := 0; k < order; k++ {
		rck := rc[k]
		for n := 0; n < (k+1)>>1; n++ {
			tmp1 := a[n]
			tmp2 := a[k-n-1]
			a[n] = tmp1 + tmp2*rck
			a[k-n-1] = tmp2 + tmp1*rck
		}
		a[k] = -rck
	}
}

func bwexpanderFLP(ar []float64, chirp float64) {
	cfac := chirp
	for i := range ar {
		ar[i] *= cfac
		cfac *= chirp
	}
}

// lpcAnalysisFilterFLP writes the prediction residual of s to r. The first
// order samples of r are zeroed.
func lpcAnalysisFilterFLP(r, a, s []float64, length, order int) {
	for ix := 0; ix < order && ix < length; ix++ {
		r[ix] = 0
	}
	for ix := order; ix < length; ix++ {
		pred := 0.0
		for k := 0; k < order; k++ {
			pred += s[ix-k-1] * a[k]
		}
		r[ix] = s[ix] - pred
	}
}

// applySineWindowFLP multiplies in by a quarter-period sine window, rising
// for winType 1 and falling for winType 2.
func applySineWindowFLP(out, in []float64, winType, length int) {
	freq := math.Pi / float64(2*(length+1))
	for k := 0; k < length; k++ {
		w := math.Sin(freq * float64(k+1))
		if winType == 2 {
			w = math.Cos(freq * float64(k+1))
		}
		out[k] = in[k] * w
	}
}

// burgModifiedFLP estimates order prediction coefficients over nbSubfr
// stacked subframes of subfrLength samples each (including order samples of
// history) and returns the residual energy. The prediction gain is limited
// by minInvGainVal.
func burgModifiedFLP(a, x []float64, minInvGainVal float64, subfrLength, nbSubfr, order int) float64 {
	var (
		af        [maxLPCOrder]float64
		cFirstRow [maxLPCOrder]float64
		cLastRow  [maxLPCOrder]float64
		cAf       [maxLPCOrder + 1]float64
		cAb       [maxLPCOrder + 1]float64
	)

	c0 := energyFLP(x[:nbSubfr*subfrLength])
	for s := 0; s < nbSubfr; s++ {
		xs := x[s*subfrLength:]
		for n := 1; n <= order; n++ {
			cFirstRow[n-1] += innerProductFLP(xs, xs[n:], subfrLength-n)
		}
	}
	cLastRow = cFirstRow

	cAf[0] = c0 + findLPCCondFac*c0 + 1e-9
	cAb[0] = cAf[0]

	invGain := 1.0
	reachedMaxGain := false

	for n := 0; n < order; n++ {
		for s := 0; s < nbSubfr; s++ {
			xs := x[s*subfrLength:]
			tmp1 := xs[n]
			tmp2 := xs[subfrLength-n-1]
			for k := 0; k < n; k++ {
				cFirstRow[k] -= xs[n] * xs[n-k-1]
				cLastRow[k] -= xs[subfrLength-n-1] * xs[subfrLength-n+k]
				tmp1 += xs[n-k-1] * af[k]
				tmp2 += xs[subfrLength-n+k] * af[k]
			}
			for k := 0; k <= n; k++ {
				cAf[k] -= tmp1 * xs[n-k]
				cAb[k] -= tmp2 * xs[subfrLength-n+k-1]
			}
		}

		tmp1 := cFirstRow[n]
		tmp2 := cLastRow[n]
		for k := 0; k < n; k++ {
			tmp1 += cLastRow[n-k-1] * af[k]
			tmp2 += cFirstRow[n-k-1] * af[k]
		}
		cAf[n+1] = tmp1
		cAb[n+1] = tmp2

		num := cAb[n+1]
		nrgB := cAb[0]
		nrgF := cAf[0]
		for k := 0; k < n; k++ {
			num += cAb[n-k] * af[k]
			nrgB += cAb[k+1] * af[k]
			nrgF += cAf[k+1] * af[k]
		}
		if nrgF <= 0 || nrgB <= 0 {
			break
		}

		rc := -2.0 * num / (nrgF + nrgB)
		if g := invGain * (1.0 - rc*rc); g <= minInvGainVal {
			// Clip rc so the maximum prediction gain is hit exactly.
			rc = math.Sqrt(1.0 - minInvGainVal/invGain)
			if num > 0 {
				rc = -rc
			}
			invGain = minInvGainVal
			reachedMaxGain = true
		} else {
			invGain = g
		}

		for k := 0; k < (n+1)>>1; k++ {
			t1 := af[k]
			t2 := af[n-k-1]
			af[k] = t1 + rc*t2
			af[n-k-1] = t2 + rc*t1
		}
		af[n] = rc

		if reachedMaxGain {
			for k := n + 1; k < order; k++ {
				af[k] = 0
			}
			break
		}

		for k := 0; k <= n+1; k++ {
			t := cAf[k]
			cAf[k] += rc * cAb[n-k+1]
			cAb[n-k+1] += rc * t
		}
	}

	var nrgF float64
	if reachedMaxGain {
		for s := 0; s < nbSubfr; s++ {
			c0 -= energyFLP(x[s*subfrLength : s*subfrLength+order])
		}
		nrgF = c0 * invGain
	} else {
		nrgF = cAf[0]
		tmp := 1.0
		for k := 0; k < order; k++ {
			nrgF += cAf[k+1] * af[k]
			tmp += af[k] * af[k]
		}
		nrgF -= findLPCCondFac * c0 * tmp
	}

	for k := 0; k < order; k++ {
		a[k] = -af[k]
	}
	return nrgF
}

// lpcQ12ToFLP converts Q12 prediction coefficients to floating point.
func lpcQ12ToFLP(out []float64, aQ12 []int16) {
	for i, v := range aQ12 {
		out[i] = float64(v) / 4096
	}
}

// residualEnergyFLP returns, per subframe, the energy of the LPC residual of
// x weighted by gains^2. x holds order samples of history before each
// subframe, and a[0] is used for the first half of the frame and a[1] for
// the second.
func residualEnergyFLP(nrgs []float64, x []float64, a [2][]float64, gains []float64, subfrLength, nbSubfr, order int, scratch []float64) {
	shift := order + subfrLength
	lpcRes := scratch[:2*shift]
	for half := 0; half < nbSubfr/2; half++ {
		xs := x[half*2*shift:]
		lpcAnalysisFilterFLP(lpcRes, a[half], xs, 2*shift, order)
		nrgs[half*2] = gains[half*2] * gains[half*2] * energyFLP(lpcRes[order:order+subfrLength])
		nrgs[half*2+1] = gains[half*2+1] * gains[half*2+1] * energyFLP(lpcRes[order+shift:order+shift+subfrLength])
	}
}
