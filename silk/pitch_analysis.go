package silk

import "math"

// Pitch estimation works on 40 ms of whitened signal: 20 ms of history
// followed by the four subframes being analysed.
const (
	pitchLTPMemMs = 20
	pitchFrameMs  = pitchLTPMemMs + nbSubfr*subfrLengthMs

	frameLength8k = pitchFrameMs * 8
	frameLength4k = pitchFrameMs * 4
	sfLength8k    = subfrLengthMs * 8
	sfLength4k    = subfrLengthMs * 4
	minLag8k      = pitchEstMinLagMs * 8
	maxLag8k      = pitchEstMaxLagMs*8 - 1
	minLag4k      = pitchEstMinLagMs * 4
	maxLag4k      = pitchEstMaxLagMs * 4
)

type pitchScratch struct {
	sig8k  [frameLength8k]float64
	sig4k  [frameLength4k]float64
	c4k    [maxLag4k + 1]float64
	c8k    [nbSubfr][maxLag8k + 5]float64
	dSrch  [peDSrchLength]int
	dSrchC [peDSrchLength]float64
	dComp  [maxLag8k + 5]int16
}

// pitchResult is the outcome of one pitch analysis.
type pitchResult struct {
	voiced       bool
	lagIndex     int
	contourIndex int
	pitchL       [nbSubfr]int
}

// pitchAnalysisCore runs the three-stage pitch search on a whitened signal of
// pitchFrameMs at fsKHz: a normalized correlation search at 4 kHz picks
// candidate lags, a contour codebook search at 8 kHz selects the coarse lag,
// and a contour search at the full rate refines it. searchThres1 prunes the
// stage-1 candidates relative to the best one; searchThres2 is the voicing
// threshold on the mean normalized correlation. ltpCorr carries the previous
// frame's correlation in and this frame's out.
func pitchAnalysisCore(sc *pitchScratch, signal []float64, prevLag int, ltpCorr *float64,
	searchThres1, searchThres2 float64, fsKHz, complexity int) pitchResult {
	var res pitchResult
	complexity = silkLimitInt(complexity, 0, 2)
	frameLength := pitchFrameMs * fsKHz
	sfLength := subfrLengthMs * fsKHz
	minLag := pitchEstMinLagMs * fsKHz
	maxLag := pitchEstMaxLagMs*fsKHz - 1

	sig8k := sc.sig8k[:]
	if fsKHz == 8 {
		copy(sig8k, signal[:frameLength8k])
	} else {
		downsampleFLP(sig8k, signal[:frameLength], fsKHz, 8)
	}
	sig4k := sc.sig4k[:]
	for i := range sig4k {
		sig4k[i] = 0.5 * (sig8k[2*i] + sig8k[2*i+1])
	}
	for i := len(sig4k) - 1; i > 0; i-- {
		sig4k[i] += sig4k[i-1]
	}

	// Stage 1: 4 kHz, two blocks of 10 ms.
	C := sc.c4k[:]
	for i := range C {
		C[i] = 0
	}
	for k := 0; k < 2; k++ {
		t0 := sfLength4k*4 + k*sfLength8k
		target := sig4k[t0 : t0+sfLength8k]
		b0 := t0 - minLag4k
		normalizer := energyFLP(target) + energyFLP(sig4k[b0:b0+sfLength8k]) + sfLength8k*4000
		C[minLag4k] += 2 * innerProductFLP(target, sig4k[b0:], sfLength8k) / normalizer
		for d := minLag4k + 1; d <= maxLag4k; d++ {
			b := t0 - d
			normalizer += sig4k[b]*sig4k[b] - sig4k[b+sfLength8k]*sig4k[b+sfLength8k]
			C[d] += 2 * innerProductFLP(target, sig4k[b:], sfLength8k) / normalizer
		}
	}
	for i := maxLag4k; i >= minLag4k; i-- {
		C[i] -= C[i] * float64(i) / 4096
	}

	lengthDSrch := 4 + 2*complexity
	dSrch := sc.dSrch[:lengthDSrch]
	dSrchC := sc.dSrchC[:lengthDSrch]
	for i := range dSrchC {
		dSrchC[i] = math.Inf(-1)
	}
	for d := minLag4k; d <= maxLag4k; d++ {
		if C[d] <= dSrchC[lengthDSrch-1] {
			continue
		}
		p := lengthDSrch - 1
		for p > 0 && dSrchC[p-1] < C[d] {
			dSrchC[p] = dSrchC[p-1]
			dSrch[p] = dSrch[p-1]
			p--
		}
		dSrchC[p] = C[d]
		dSrch[p] = d
	}

	cMax := dSrchC[0]
	if cMax < 0.2 {
		*ltpCorr = 0
		return res
	}

	dComp := sc.dComp[:]
	for i := range dComp {
		dComp[i] = 0
	}
	threshold := searchThres1 * cMax
	for i := 0; i < lengthDSrch; i++ {
		if dSrchC[i] <= threshold {
			break
		}
		dComp[2*dSrch[i]] = 1
	}
	// Widen each candidate to its neighbours at 8 kHz.
	for i := maxLag8k + 3; i >= minLag8k; i-- {
		dComp[i] += dComp[i-1] + dComp[i-2]
	}
	n := 0
	for i := minLag8k; i <= maxLag8k && n < peDSrchLength; i++ {
		if dComp[i+1] > 0 {
			sc.dSrch[n] = i
			n++
		}
	}
	dSrch = sc.dSrch[:n]

	// Stage 2: 8 kHz, correlations at every lag a contour may reach.
	for i := range dComp {
		dComp[i] = 0
	}
	for _, d := range dSrch {
		for off := -1; off <= 2; off++ {
			dComp[d+off] = 1
		}
	}
	for k := 0; k < nbSubfr; k++ {
		t0 := pitchLTPMemMs*8 + k*sfLength8k
		target := sig8k[t0 : t0+sfLength8k]
		eTarget := energyFLP(target) + 1
		row := &sc.c8k[k]
		for lag := minLag8k - 1; lag <= maxLag8k+2; lag++ {
			row[lag] = 0
			if dComp[lag] == 0 {
				continue
			}
			basis := sig8k[t0-lag : t0-lag+sfLength8k]
			if xc := innerProductFLP(target, basis, sfLength8k); xc > 0 {
				row[lag] = 2 * xc / (energyFLP(basis) + eTarget)
			}
		}
	}

	nbCbkSearch := nbCbksStage2
	if fsKHz == 8 {
		nbCbkSearch = nbCbksStage2Ext
	}
	var prevLagLog2 float64
	if prevLag > 0 {
		prevLagLog2 = math.Log2(float64(prevLag*8) / float64(fsKHz))
	}
	ccMax, ccMaxB := -1000.0, -1000.0
	lag, cbIMax := -1, 0
	for _, d := range dSrch {
		ccNew, cbNew := -1000.0, 0
		for j := 0; j < nbCbkSearch; j++ {
			var cc float64
			for k := 0; k < nbSubfr; k++ {
				cc += sc.c8k[k][d+int(pitchCBLagsStage2[k][j])]
			}
			if cc > ccNew {
				ccNew = cc
				cbNew = j
			}
		}
		lagLog2 := math.Log2(float64(d))
		ccNewB := ccNew - peShortlagBias*nbSubfr*lagLog2
		if prevLag > 0 {
			delta := lagLog2 - prevLagLog2
			delta *= delta
			ccNewB -= pePrevlagBias * nbSubfr * (*ltpCorr) * delta / (delta + 0.5)
		}
		if ccNewB > ccMaxB && ccNew > nbSubfr*searchThres2 {
			ccMaxB = ccNewB
			ccMax = ccNew
			lag = d
			cbIMax = cbNew
		}
	}
	if lag == -1 {
		*ltpCorr = 0
		return res
	}
	*ltpCorr = ccMax / nbSubfr
	res.voiced = true

	if fsKHz == 8 {
		res.lagIndex = lag - minLag8k
		res.contourIndex = cbIMax
		decodePitch(res.pitchL[:], res.lagIndex, res.contourIndex, fsKHz)
		return res
	}

	// Stage 3: full rate.
	lagFull := silkLimitInt(lag*fsKHz/8, minLag, maxLag)
	span := (fsKHz + 7) / 8
	startLag := max(lagFull-span, minLag)
	endLag := min(lagFull+span, maxLag)

	eTarget := 1.0
	for k := 0; k < nbSubfr; k++ {
		t0 := pitchLTPMemMs*fsKHz + k*sfLength
		eTarget += energyFLP(signal[t0 : t0+sfLength])
	}
	contourBias := peFlatcontourBias / float64(lagFull)
	nbCbk := pitchNbCbkSearchsStage3[complexity]
	ccMax = -1000
	lagNew := lagFull
	cbIMax = 0
	for d := startLag; d <= endLag; d++ {
		for j := 0; j < nbCbk; j++ {
			if d+int(pitchCBLagsStage3[0][j]) > maxLag {
				continue
			}
			xc, nrg := 0.0, eTarget
			for k := 0; k < nbSubfr; k++ {
				t0 := pitchLTPMemMs*fsKHz + k*sfLength
				lk := silkLimitInt(d+int(pitchCBLagsStage3[k][j]), minLag, maxLag)
				basis := signal[t0-lk : t0-lk+sfLength]
				xc += innerProductFLP(signal[t0:], basis, sfLength)
				nrg += energyFLP(basis)
			}
			var cc float64
			if xc > 0 {
				cc = 2 * xc / nrg * (1 - contourBias*float64(j))
			}
			if cc > ccMax {
				ccMax = cc
				lagNew = d
				cbIMax = j
			}
		}
	}

	res.lagIndex = lagNew - minLag
	res.contourIndex = cbIMax
	decodePitch(res.pitchL[:], res.lagIndex, res.contourIndex, fsKHz)
	return res
}

// decodePitch expands a coded lag and contour into per-subframe lags.
func decodePitch(pitchL []int, lagIndex, contourIndex, fsKHz int) {
	minLag := pitchEstMinLagMs * fsKHz
	maxLag := pitchEstMaxLagMs*fsKHz - 1
	lag := minLag + lagIndex
	for k := 0; k < nbSubfr; k++ {
		var off int
		if fsKHz == 8 {
			off = int(pitchCBLagsStage2[k][contourIndex])
		} else {
			off = int(pitchCBLagsStage3[k][contourIndex])
		}
		pitchL[k] = silkLimitInt(lag+off, minLag, maxLag)
	}
}

// downsampleFLP resamples in from fsInKHz to fsOutKHz with a Hann-windowed
// sinc low-pass at 0.45 fsOut. len(out) output samples are produced; input
// outside the buffer is taken as zero.
func downsampleFLP(out, in []float64, fsInKHz, fsOutKHz int) {
	const halfTaps = 8
	ratio := float64(fsInKHz) / float64(fsOutKHz)
	fc := 0.45 / ratio
	span := float64(halfTaps) * ratio
	for n := range out {
		t := float64(n) * ratio
		lo := max(int(math.Ceil(t-span)), 0)
		hi := min(int(math.Floor(t+span)), len(in)-1)
		var acc float64
		for i := lo; i <= hi; i++ {
			m := float64(i) - t
			h := 2 * fc
			if m != 0 {
				h = math.Sin(2*math.Pi*fc*m) / (math.Pi * m)
			}
			w := 0.5 + 0.5*math.Cos(math.Pi*m/span)
			acc += in[i] * h * w
		}
		out[n] = acc
	}
}
