package silk

import "math"

const findLPCChirp = 0.99995

// findLPC estimates the short-term predictor of the frame from x, which holds
// nbSubfr blocks of order history samples plus one subframe each, and returns
// it as NLSFs. With interpolation enabled it also tries to describe the
// first half of the frame by interpolating between prevNLSFq and the
// second-half NLSFs, returning the best interpolation factor in Q2 (4 means
// no interpolation).
func findLPC(nlsfQ15 []int16, prevNLSFq []int16, useInterp bool, order int, x []float64, blkLength int, minInvGain float64, lpcRes []float64) int {
	var (
		a, aTmp [maxLPCOrder]float64
		nlsf0   [maxLPCOrder]int16
		aQ12    [maxLPCOrder]int16
	)
	interpQ2 := 4

	resNrg := burgModifiedFLP(a[:], x, minInvGain, blkLength, nbSubfr, order)
	bwexpanderFLP(a[:order], findLPCChirp)

	if useInterp {
		// Predictor for the last two subframes alone.
		resNrg2nd := burgModifiedFLP(aTmp[:], x[(nbSubfr/2)*blkLength:], minInvGain, blkLength, nbSubfr/2, order)
		bwexpanderFLP(aTmp[:order], findLPCChirp)
		resNrg -= resNrg2nd

		a2nlsfFLP(nlsfQ15, aTmp[:order], order)

		last := math.MaxFloat64
		res := lpcRes[:2*blkLength]
		subfr := blkLength - order
		for k := 3; k >= 0; k-- {
			interpolateNLSF(nlsf0[:order], prevNLSFq[:order], nlsfQ15[:order], k)
			nlsf2aStable(aQ12[:order], nlsf0[:order], order)
			lpcQ12ToFLP(aTmp[:order], aQ12[:order])

			lpcAnalysisFilterFLP(res, aTmp[:order], x, 2*blkLength, order)
			nrg := energyFLP(res[order:order+subfr]) + energyFLP(res[blkLength+order:blkLength+order+subfr])

			if nrg < resNrg {
				resNrg = nrg
				interpQ2 = k
			} else if nrg > last {
				// Energy is rising with less interpolation; stop.
				break
			}
			last = nrg
		}
	}

	if interpQ2 == 4 {
		a2nlsfFLP(nlsfQ15, a[:order], order)
	}
	return interpQ2
}
