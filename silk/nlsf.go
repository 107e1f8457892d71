package silk

import "math"

const (
	nlsf2aQA                     = 16
	lpcInvPredGainQA             = 24
	lpcInvPredGainALimitQ24      = 16773022
	maxPredictionPowerGainInvQ30 = 107374 // 1 / maxPredPowerGainQ in Q30
)

func nlsf2aFindPoly(out []int32, cLSF []int32, dd int) {
	out[0] = 1 << nlsf2aQA
	out[1] = -cLSF[0]
	for k := 1; k < dd; k++ {
		ftmp := cLSF[2*k]
		out[k+1] = out[k-1]<<1 - int32(silkRSHIFT_ROUND64(silkSMULL(ftmp, out[k]), nlsf2aQA))
		for n := k; n > 1; n-- {
			out[n] += out[n-2] - int32(silkRSHIFT_ROUND64(silkSMULL(ftmp, out[n-1]), nlsf2aQA))
		}
		out[1] -= ftmp
	}
}

// nlsf2a converts NLSFs in Q15 to LPC coefficients in Q12. The result is not
// guaranteed to be stable; see nlsf2aStable.
func nlsf2a(aQ12 []int16, nlsfQ15 []int16, order int) {
	ordering := nlsf2aOrdering10[:]
	if order == maxLPCOrder {
		ordering = nlsf2aOrdering16[:]
	}

	var cosLSF [maxLPCOrder]int32
	for k := 0; k < order; k++ {
		f := silkLimit32(int32(nlsfQ15[k]), 0, 32767)
		fInt := f >> (15 - 7)
		fFrac := f - fInt<<(15-7)
		cosVal := int32(lsfCosTabQ12[fInt])
		delta := int32(lsfCosTabQ12[fInt+1]) - cosVal
		cosLSF[ordering[k]] = silkRSHIFT_ROUND(cosVal<<8+delta*fFrac, 20-nlsf2aQA)
	}

	dd := order >> 1
	var p, q [maxLPCOrder/2 + 1]int32
	nlsf2aFindPoly(p[:], cosLSF[:order], dd)
	nlsf2aFindPoly(q[:], cosLSF[1:order], dd)

	var a32 [maxLPCOrder]int32
	for k := 0; k < dd; k++ {
		pTmp := p[k+1] + p[k]
		qTmp := q[k+1] - q[k]
		a32[k] = -qTmp - pTmp
		a32[order-k-1] = qTmp - pTmp
	}
	lpcFit(aQ12[:order], a32[:order], 12, nlsf2aQA+1)
}

// nlsf2aStable converts NLSFs to a minimum-phase LPC filter. If the filter is
// still unstable after maxLPCStabilizeIterations bandwidth expansions it is
// replaced by the all-zero filter.
func nlsf2aStable(aQ12 []int16, nlsfQ15 []int16, order int) {
	nlsf2a(aQ12, nlsfQ15, order)
	for i := 0; i < maxLPCStabilizeIterations; i++ {
		if lpcInversePredGain(aQ12[:order]) != 0 {
			return
		}
		bwExpander(aQ12[:order], 65536-silkSMULBB(66, int32(i+1)))
	}
	if lpcInversePredGain(aQ12[:order]) != 0 {
		return
	}
	for i := range aQ12[:order] {
		aQ12[i] = 0
	}
}

// lpcFit converts Q(qIn) coefficients to int16 Q(qOut), applying bandwidth
// expansion until they fit.
func lpcFit(aQout []int16, aQin []int32, qOut, qIn int) {
	order := len(aQin)
	idx := 0
	i := 0
	for ; i < 10; i++ {
		var maxabs int32
		for k := 0; k < order; k++ {
			if v := silkAbs32(aQin[k]); v > maxabs {
				maxabs = v
				idx = k
			}
		}
		maxabs = silkRSHIFT_ROUND(maxabs, qIn-qOut)
		if maxabs <= 32767 {
			break
		}
		maxabs = silkMin32(maxabs, 163838)
		chirpQ16 := silkFixConst(0.999, 16) -
			silkDiv32VarQ((maxabs-32767)<<14, (maxabs*int32(idx+1))>>2, 0)
		bwExpander32(aQin, chirpQ16)
	}

	if i == 10 {
		for k := 0; k < order; k++ {
			aQout[k] = silkSAT16(silkRSHIFT_ROUND(aQin[k], qIn-qOut))
			aQin[k] = int32(aQout[k]) << uint(qIn-qOut)
		}
		return
	}
	for k := 0; k < order; k++ {
		aQout[k] = int16(silkRSHIFT_ROUND(aQin[k], qIn-qOut))
	}
}

// bwExpander applies chirp to Q12 coefficients: a[i] *= chirp^(i+1).
func bwExpander(ar []int16, chirpQ16 int32) {
	n := len(ar)
	if n == 0 {
		return
	}
	chirpMinusOneQ16 := chirpQ16 - 65536
	for i := 0; i < n-1; i++ {
		ar[i] = int16(silkRSHIFT_ROUND(silkMUL(chirpQ16, int32(ar[i])), 16))
		chirpQ16 += silkRSHIFT_ROUND(silkMUL(chirpQ16, chirpMinusOneQ16), 16)
	}
	ar[n-1] = int16(silkRSHIFT_ROUND(silkMUL(chirpQ16, int32(ar[n-1])), 16))
}

func bwExpander32(ar []int32, chirpQ16 int32) {
	n := len(ar)
	if n == 0 {
		return
	}
	chirpMinusOneQ16 := chirpQ16 - 65536
	for i := 0; i < n-1; i++ {
		ar[i] = silkSMULWW(chirpQ16, ar[i])
		chirpQ16 += silkRSHIFT_ROUND(silkMUL(chirpQ16, chirpMinusOneQ16), 16)
	}
	ar[n-1] = silkSMULWW(chirpQ16, ar[n-1])
}

// lpcInversePredGain returns the inverse prediction gain of a Q12 filter in
// Q30, or 0 if the filter is unstable or its prediction gain exceeds
// maxPredPowerGainQ.
func lpcInversePredGain(aQ12 []int16) int32 {
	order := len(aQ12)
	var aQA [maxLPCOrder]int32
	var dcResp int32
	for k, v := range aQ12 {
		dcResp += int32(v)
		aQA[k] = int32(v) << (lpcInvPredGainQA - 12)
	}
	if dcResp >= 4096 {
		return 0
	}

	invGainQ30 := int32(1 << 30)
	for k := order - 1; k > 0; k-- {
		if aQA[k] > lpcInvPredGainALimitQ24 || aQA[k] < -lpcInvPredGainALimitQ24 {
			return 0
		}
		rcQ31 := -(aQA[k] << (31 - lpcInvPredGainQA))
		rcMult1Q30 := int32(1<<30) - silkSMMUL(rcQ31, rcQ31)
		invGainQ30 = silkSMMUL(invGainQ30, rcMult1Q30) << 2
		if invGainQ30 < maxPredictionPowerGainInvQ30 {
			return 0
		}

		mult2Q := int(32 - silkCLZ32(silkAbs32(rcMult1Q30)))
		rcMult2 := silkInverse32VarQ(rcMult1Q30, mult2Q+30)
		for n := 0; n < (k+1)>>1; n++ {
			tmp1 := aQA[n]
			tmp2 := aQA[k-n-1]
			v := silkRSHIFT_ROUND64(silkSMULL(silkSubSat32(tmp1, mul32FracQ31(tmp2, rcQ31)), rcMult2), mult2Q)
			if v > math.MaxInt32 || v < math.MinInt32 {
				return 0
			}
			aQA[n] = int32(v)
			v = silkRSHIFT_ROUND64(silkSMULL(silkSubSat32(tmp2, mul32FracQ31(tmp1, rcQ31)), rcMult2), mult2Q)
			if v > math.MaxInt32 || v < math.MinInt32 {
				return 0
			}
			aQA[k-n-1] = int32(v)
		}
	}

	if aQA[0] > lpcInvPredGainALimitQ24 || aQA[0] < -lpcInvPredGainALimitQ24 {
		return 0
	}
	rcQ31 := -(aQA[0] << (31 - lpcInvPredGainQA))
	rcMult1Q30 := int32(1<<30) - silkSMMUL(rcQ31, rcQ31)
	invGainQ30 = silkSMMUL(invGainQ30, rcMult1Q30) << 2
	if invGainQ30 < maxPredictionPowerGainInvQ30 {
		return 0
	}
	return invGainQ30
}

func mul32FracQ31(a, b int32) int32 {
	return int32(silkRSHIFT_ROUND64(silkSMULL(a, b), 31))
}

// a2nlsf converts Q16 LPC coefficients to NLSFs in Q15 by locating the roots
// of the symmetric and antisymmetric polynomials on the cosine grid. aQ16 may
// be bandwidth expanded in place when roots cannot be found.
func a2nlsf(nlsfQ15 []int16, aQ16 []int32, order int) {
	const (
		binDivSteps   = 3
		maxIterations = 16
	)
	dd := order >> 1
	var pBuf, qBuf [maxLPCOrder/2 + 1]int32
	P, Q := pBuf[:dd+1], qBuf[:dd+1]
	a2nlsfInit(aQ16, P, Q, dd)

	pq := [2][]int32{P, Q}
	p := P

	xlo := int32(lsfCosTabQ12[0])
	ylo := a2nlsfEvalPoly(p, xlo, dd)
	rootIx := 0
	if ylo < 0 {
		nlsfQ15[0] = 0
		p = Q
		ylo = a2nlsfEvalPoly(p, xlo, dd)
		rootIx = 1
	}

	k := 1
	i := 0
	thr := int32(0)
	for {
		xhi := int32(lsfCosTabQ12[k])
		yhi := a2nlsfEvalPoly(p, xhi, dd)

		if (ylo <= 0 && yhi >= thr) || (ylo >= 0 && yhi <= -thr) {
			if yhi == 0 {
				thr = 1
			} else {
				thr = 0
			}
			ffrac := int32(-256)
			for m := 0; m < binDivSteps; m++ {
				xmid := silkRSHIFT_ROUND(xlo+xhi, 1)
				ymid := a2nlsfEvalPoly(p, xmid, dd)
				if (ylo <= 0 && ymid >= 0) || (ylo >= 0 && ymid <= 0) {
					xhi = xmid
					yhi = ymid
				} else {
					xlo = xmid
					ylo = ymid
					ffrac += 128 >> uint(m)
				}
			}
			if silkAbs32(ylo) < 65536 {
				den := ylo - yhi
				nom := ylo<<(8-binDivSteps) + den>>1
				if den != 0 {
					ffrac += nom / den
				}
			} else if den := (ylo - yhi) >> (8 - binDivSteps); den != 0 {
				ffrac += ylo / den
			}
			nlsfQ15[rootIx] = int16(silkMin32(int32(k)<<8+ffrac, 32767))

			rootIx++
			if rootIx >= order {
				return
			}
			p = pq[rootIx&1]
			xlo = int32(lsfCosTabQ12[k-1])
			ylo = int32(1-(rootIx&2)) << 12
			continue
		}

		k++
		xlo = xhi
		ylo = yhi
		thr = 0
		if k <= lsfCosTabSize {
			continue
		}

		i++
		if i > maxIterations {
			// White spectrum.
			spacing := int16((1 << 15) / (order + 1))
			nlsfQ15[0] = spacing
			for n := 1; n < order; n++ {
				nlsfQ15[n] = nlsfQ15[n-1] + spacing
			}
			return
		}

		bwExpander32(aQ16[:order], 65536-int32(1<<uint(i)))
		a2nlsfInit(aQ16, P, Q, dd)
		p = P
		xlo = int32(lsfCosTabQ12[0])
		ylo = a2nlsfEvalPoly(p, xlo, dd)
		rootIx = 0
		if ylo < 0 {
			nlsfQ15[0] = 0
			p = Q
			ylo = a2nlsfEvalPoly(p, xlo, dd)
			rootIx = 1
		}
		k = 1
	}
}

func a2nlsfInit(aQ16 []int32, P, Q []int32, dd int) {
	P[dd] = 1 << 16
	Q[dd] = 1 << 16
	for k := 0; k < dd; k++ {
		P[k] = -aQ16[dd-k-1] - aQ16[dd+k]
		Q[k] = -aQ16[dd-k-1] + aQ16[dd+k]
	}
	// Divide out the zeros at z = -1 and z = 1.
	for k := dd; k > 0; k-- {
		P[k-1] -= P[k]
		Q[k-1] += Q[k]
	}
	a2nlsfTransPoly(P, dd)
	a2nlsfTransPoly(Q, dd)
}

// a2nlsfTransPoly rewrites a polynomial in cos(n*f) as one in cos(f)^n.
func a2nlsfTransPoly(p []int32, dd int) {
	for k := 2; k <= dd; k++ {
		for n := dd; n > k; n-- {
			p[n-2] -= p[n]
		}
		p[k-2] -= p[k] << 1
	}
}

func a2nlsfEvalPoly(p []int32, x int32, dd int) int32 {
	xQ16 := x << 4
	y := p[dd]
	for n := dd - 1; n >= 0; n-- {
		y = int32(int64(p[n]) + (int64(y)*int64(xQ16))>>16)
	}
	return y
}

// a2nlsfFLP converts floating-point LPC coefficients to NLSFs in Q15.
func a2nlsfFLP(nlsfQ15 []int16, a []float64, order int) {
	var aQ16 [maxLPCOrder]int32
	for k := 0; k < order; k++ {
		aQ16[k] = float2int(a[k] * 65536)
	}
	a2nlsf(nlsfQ15, aQ16[:order], order)
}

// nlsfStabilize enforces the minimum spacing deltaMinQ15 between neighbouring
// NLSFs and the band edges. It pushes the closest pair apart around its
// centre for up to nlsfStabilizeMaxLoops iterations and falls back to
// sort-and-clamp if that does not converge.
func nlsfStabilize(nlsfQ15 []int16, deltaMinQ15 []int16) {
	L := len(nlsfQ15)
	var loops int
	for loops = 0; loops < nlsfStabilizeMaxLoops; loops++ {
		minDiff := int32(nlsfQ15[0]) - int32(deltaMinQ15[0])
		I := 0
		for i := 1; i < L; i++ {
			diff := int32(nlsfQ15[i]) - (int32(nlsfQ15[i-1]) + int32(deltaMinQ15[i]))
			if diff < minDiff {
				minDiff = diff
				I = i
			}
		}
		if diff := (1 << 15) - (int32(nlsfQ15[L-1]) + int32(deltaMinQ15[L])); diff < minDiff {
			minDiff = diff
			I = L
		}
		if minDiff >= 0 {
			return
		}

		switch I {
		case 0:
			nlsfQ15[0] = deltaMinQ15[0]
		case L:
			nlsfQ15[L-1] = int16((1 << 15) - int32(deltaMinQ15[L]))
		default:
			var minCenter int32
			for k := 0; k < I; k++ {
				minCenter += int32(deltaMinQ15[k])
			}
			minCenter += int32(deltaMinQ15[I]) >> 1

			maxCenter := int32(1 << 15)
			for k := L; k > I; k-- {
				maxCenter -= int32(deltaMinQ15[k])
			}
			maxCenter -= int32(deltaMinQ15[I]) - int32(deltaMinQ15[I])>>1

			center := silkLimit32(silkRSHIFT_ROUND(int32(nlsfQ15[I-1])+int32(nlsfQ15[I]), 1), minCenter, maxCenter)
			nlsfQ15[I-1] = int16(center - int32(deltaMinQ15[I])>>1)
			nlsfQ15[I] = nlsfQ15[I-1] + deltaMinQ15[I]
		}
	}

	// Fallback: sort, then clamp from both ends.
	insertionSortInt16(nlsfQ15)
	nlsfQ15[0] = max(nlsfQ15[0], deltaMinQ15[0])
	for i := 1; i < L; i++ {
		nlsfQ15[i] = int16(max(int32(nlsfQ15[i]), int32(nlsfQ15[i-1])+int32(deltaMinQ15[i])))
	}
	nlsfQ15[L-1] = int16(min(int32(nlsfQ15[L-1]), (1<<15)-int32(deltaMinQ15[L])))
	for i := L - 2; i >= 0; i-- {
		nlsfQ15[i] = int16(min(int32(nlsfQ15[i]), int32(nlsfQ15[i+1])-int32(deltaMinQ15[i+1])))
	}
}

func insertionSortInt16(a []int16) {
	for i := 1; i < len(a); i++ {
		v := a[i]
		j := i - 1
		for ; j >= 0 && v < a[j]; j-- {
			a[j+1] = a[j]
		}
		a[j+1] = v
	}
}

// nlsfWeightsLaroia computes the Laroia weights of an NLSF vector given in
// [0, 1).
func nlsfWeightsLaroia(w, x []float64) {
	const minDelta = 1e-6
	L := len(x)
	tmp2 := 1 / math.Max(x[1]-x[0], minDelta)
	w[0] = 1/math.Max(x[0], minDelta) + tmp2
	for k := 1; k < L-1; k++ {
		tmp1 := 1 / math.Max(x[k+1]-x[k], minDelta)
		w[k] = tmp1 + tmp2
		tmp2 = tmp1
	}
	w[L-1] = 1/math.Max(1-x[L-1], minDelta) + tmp2
}

// interpolateNLSF sets out = prev + coefQ2/4 * (cur - prev).
func interpolateNLSF(out, prev, cur []int16, coefQ2 int) {
	for i := range out {
		p := int32(prev[i])
		out[i] = int16(p + (int32(coefQ2)*(int32(cur[i])-p))>>2)
	}
}

func nlsfDeltaMin(order int) []int16 {
	if order == maxLPCOrder {
		return nlsfDeltaMinWBQ15[:]
	}
	return nlsfDeltaMinNBQ15[:]
}
