package silk

import "math"

// msvqScratch holds the survivor state of the NLSF tree search.
type msvqScratch struct {
	res     [maxNLSFMSVQSurvivors][maxLPCOrder]float64
	resNext [maxNLSFMSVQSurvivors][maxLPCOrder]float64
	rate    [maxNLSFMSVQSurvivors]float64
	rateNxt [maxNLSFMSVQSurvivors]float64
	path    [maxNLSFMSVQSurvivors][nlsfMSVQMaxCBStages]int
	pathNxt [maxNLSFMSVQSurvivors][nlsfMSVQMaxCBStages]int
	candRD  [maxNLSFMSVQSurvivors]float64
	candSrc [maxNLSFMSVQSurvivors]int
	candIdx [maxNLSFMSVQSurvivors]int
}

// msvqEncode quantizes a stabilized NLSF vector with a tree search that keeps
// up to nSurvivors paths per stage, ranked by weighted squared error plus mu
// times the accumulated rate in bits. When several paths survive, the final
// choice also penalizes distance from prevQ15 by muFlucRed. The chosen
// indices are written to indices and the decoded vector to nlsfQOut.
func (cb *nlsfCodebook) msvqEncode(indices []int, nlsfQOut []int16, nlsfQ15 []int16, prevQ15 []int16,
	w []float64, mu, muFlucRed float64, nSurvivors int, sc *msvqScratch) {
	order := cb.order
	nSurvivors = silkLimitInt(nSurvivors, 1, maxNLSFMSVQSurvivors)

	for i := 0; i < order; i++ {
		sc.res[0][i] = float64(nlsfQ15[i]) / 32768
	}
	sc.rate[0] = 0
	prevSurvivors := 1

	for s := range cb.stages {
		st := &cb.stages[s]
		curSurvivors := min(nSurvivors, prevSurvivors*st.nVectors)
		for j := 0; j < curSurvivors; j++ {
			sc.candRD[j] = math.MaxFloat64
		}

		for j := 0; j < prevSurvivors; j++ {
			res := &sc.res[j]
			for k := 0; k < st.nVectors; k++ {
				row := st.vector(k, order)
				var dist float64
				for i := 0; i < order; i++ {
					e := res[i] - float64(row[i])/32768
					dist += w[i] * e * e
				}
				rd := dist + sc.rate[j] + mu*float64(st.rateQ5[k])/32
				if rd >= sc.candRD[curSurvivors-1] {
					continue
				}
				// Insert into the sorted candidate list.
				p := curSurvivors - 1
				for p > 0 && sc.candRD[p-1] > rd {
					sc.candRD[p] = sc.candRD[p-1]
					sc.candSrc[p] = sc.candSrc[p-1]
					sc.candIdx[p] = sc.candIdx[p-1]
					p--
				}
				sc.candRD[p] = rd
				sc.candSrc[p] = j
				sc.candIdx[p] = k
			}
		}

		for j := 0; j < curSurvivors; j++ {
			src := sc.candSrc[j]
			k := sc.candIdx[j]
			row := st.vector(k, order)
			for i := 0; i < order; i++ {
				sc.resNext[j][i] = sc.res[src][i] - float64(row[i])/32768
			}
			sc.rateNxt[j] = sc.rate[src] + mu*float64(st.rateQ5[k])/32
			sc.pathNxt[j] = sc.path[src]
			sc.pathNxt[j][s] = k
		}
		sc.res, sc.resNext = sc.resNext, sc.res
		sc.rate, sc.rateNxt = sc.rateNxt, sc.rate
		sc.path, sc.pathNxt = sc.pathNxt, sc.path
		prevSurvivors = curSurvivors
	}

	best := 0
	if prevSurvivors > 1 {
		bestCost := math.MaxFloat64
		var q [maxLPCOrder]int16
		for j := 0; j < prevSurvivors; j++ {
			cb.decode(q[:], sc.path[j][:len(cb.stages)])
			var wmse, fluc float64
			for i := 0; i < order; i++ {
				e := float64(int32(nlsfQ15[i])-int32(q[i])) / 32768
				wmse += w[i] * e * e
				d := float64(int32(q[i])-int32(prevQ15[i])) / 32768
				fluc += d * d
			}
			if cost := wmse + sc.rate[j] + muFlucRed*fluc; cost < bestCost {
				bestCost = cost
				best = j
			}
		}
	}
	copy(indices, sc.path[best][:len(cb.stages)])
	cb.decode(nlsfQOut, indices)
}
