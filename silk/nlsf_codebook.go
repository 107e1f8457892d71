package silk

import (
	"math"
	"sort"

	"github.com/thesyncim/gosilk/rangecoding"
)

// nlsfCBStage is one stage of a multi-stage NLSF vector quantizer.
type nlsfCBStage struct {
	nVectors int
	cbQ15    []int16 // nVectors rows of order values
	rateQ5   []int   // entropy cost of each vector in Q5 bits
	cdf      []uint16
}

func (s *nlsfCBStage) vector(i, order int) []int16 {
	return s.cbQ15[i*order : (i+1)*order]
}

// nlsfCodebook is an immutable MSVQ codebook for one LPC order and signal
// type.
type nlsfCodebook struct {
	order       int
	stages      []nlsfCBStage
	deltaMinQ15 []int16
}

// Refinement stages per LPC order. Every refinement stage has as many
// vectors as its iCDF has symbols.
const (
	nlsfResidualStages10 = 5
	nlsfResidualStages16 = 7
)

// nlsfStage0ICDF holds the first-stage probabilities, unvoiced and voiced.
var nlsfStage0ICDF = [2][32]uint8{
	{
		212, 178, 148, 129, 108, 96, 85, 82, 79, 77, 61, 59, 57, 56, 51, 49,
		48, 45, 42, 41, 40, 38, 36, 34, 31, 30, 21, 12, 10, 3, 1, 0,
	},
	{
		255, 245, 244, 236, 233, 225, 217, 203, 190, 176, 175, 161, 149, 136, 125, 114,
		102, 91, 81, 71, 60, 52, 43, 35, 28, 20, 19, 18, 12, 11, 5, 0,
	},
}

// nlsfResidualICDF holds the refinement-stage probabilities, one table per
// stage.
var nlsfResidualICDF = [nlsfResidualStages16][]uint8{
	{212, 168, 127, 85, 42, 0},
	{235, 195, 146, 90, 37, 0},
	{218, 175, 133, 91, 47, 0},
	{226, 185, 139, 91, 43, 0},
	{231, 192, 147, 96, 44, 0},
	{238, 206, 164, 113, 58, 0},
	{232, 196, 155, 107, 54, 0},
}

// nlsfCodebooks is indexed by [order == 16][signalType].
var nlsfCodebooks = [2][2]*nlsfCodebook{
	{newNLSFCodebook(minLPCOrder, typeVoiced), newNLSFCodebook(minLPCOrder, typeUnvoiced)},
	{newNLSFCodebook(maxLPCOrder, typeVoiced), newNLSFCodebook(maxLPCOrder, typeUnvoiced)},
}

func nlsfCodebookFor(order, signalType int) *nlsfCodebook {
	if order == maxLPCOrder {
		return nlsfCodebooks[1][signalType]
	}
	return nlsfCodebooks[0][signalType]
}

func newNLSFCodebook(order, signalType int) *nlsfCodebook {
	nResidual := nlsfResidualStages10
	if order == maxLPCOrder {
		nResidual = nlsfResidualStages16
	}
	cb := &nlsfCodebook{
		order:       order,
		stages:      make([]nlsfCBStage, 1+nResidual),
		deltaMinQ15: nlsfDeltaMin(order),
	}

	st := &cb.stages[0]
	st.nVectors = len(nlsfStage0NBQ8)
	st.cbQ15 = make([]int16, st.nVectors*order)
	fillNLSFStage0(st, order)
	vi := 0
	if signalType == typeVoiced {
		vi = 1
	}
	st.cdf = rangecoding.FromICDF(nlsfStage0ICDF[vi][:])

	dirs := nlsfDeviations(&cb.stages[0], order)
	for s := 1; s <= nResidual; s++ {
		fillNLSFResidualStage(&cb.stages[s], dirs, order, s)
	}
	for s := range cb.stages {
		st := &cb.stages[s]
		st.rateQ5 = make([]int, st.nVectors)
		for i := range st.rateQ5 {
			st.rateQ5[i] = rangecoding.Cost(st.cdf, i)
		}
	}
	return cb
}

// fillNLSFStage0 builds the first stage from the narrowband table. For order
// 16 each vector is resampled on the normalized frequency axis, anchored at 0
// and pi.
func fillNLSFStage0(st *nlsfCBStage, order int) {
	for v := 0; v < st.nVectors; v++ {
		row := st.vector(v, order)
		src := &nlsfStage0NBQ8[v]
		if order == minLPCOrder {
			for i := range row {
				row[i] = int16(src[i]) << 7
			}
			continue
		}
		var pts [minLPCOrder + 2]float64
		pts[0] = 0
		for i := 0; i < minLPCOrder; i++ {
			pts[i+1] = float64(src[i]) * 128
		}
		pts[minLPCOrder+1] = 32768
		for j := range row {
			pos := float64(j+1) * float64(minLPCOrder+1) / float64(order+1)
			lo := int(pos)
			frac := pos - float64(lo)
			row[j] = int16(math.Round(pts[lo] + frac*(pts[lo+1]-pts[lo])))
		}
	}
}

// nlsfDeviations returns the first-stage vectors minus their mean, largest
// energy first.
func nlsfDeviations(st *nlsfCBStage, order int) [][]float64 {
	mean := make([]float64, order)
	for v := 0; v < st.nVectors; v++ {
		for i, x := range st.vector(v, order) {
			mean[i] += float64(x) / float64(st.nVectors)
		}
	}
	dirs := make([][]float64, st.nVectors)
	nrg := make([]float64, st.nVectors)
	for v := range dirs {
		dirs[v] = make([]float64, order)
		for i, x := range st.vector(v, order) {
			d := float64(x) - mean[i]
			dirs[v][i] = d
			nrg[v] += d * d
		}
	}
	idx := make([]int, len(dirs))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return nrg[idx[a]] > nrg[idx[b]] })
	out := make([][]float64, len(idx))
	for i, v := range idx {
		out[i] = dirs[v]
	}
	return out
}

// fillNLSFResidualStage builds refinement stage s. The symbol with the widest
// interval maps to the zero vector; the others step by plus or minus one of three
// first-stage deviations, scaled down with the stage number.
func fillNLSFResidualStage(st *nlsfCBStage, dirs [][]float64, order, s int) {
	icdf := nlsfResidualICDF[s-1]
	st.nVectors = len(icdf)
	st.cbQ15 = make([]int16, st.nVectors*order)
	st.cdf = rangecoding.FromICDF(icdf)

	rank := make([]int, st.nVectors)
	prob := make([]int, st.nVectors)
	for i := range rank {
		rank[i] = i
		prob[i] = int(st.cdf[i+1]) - int(st.cdf[i])
	}
	sort.SliceStable(rank, func(a, b int) bool { return prob[rank[a]] > prob[rank[b]] })

	scale := 0.5 * math.Pow(0.7, float64(s-1))
	for r := 1; r < len(rank); r++ {
		d := dirs[3*(s-1)+(r-1)/2]
		g := scale
		if r%2 == 0 {
			g = -scale
		}
		row := st.vector(rank[r], order)
		for i := range row {
			row[i] = int16(math.Round(g * d[i]))
		}
	}
}

// decode sums the stage vectors selected by indices and stabilizes the
// result.
func (cb *nlsfCodebook) decode(nlsfQ15 []int16, indices []int) {
	var acc [maxLPCOrder]int32
	for s := range cb.stages {
		row := cb.stages[s].vector(indices[s], cb.order)
		for i, v := range row {
			acc[i] += int32(v)
		}
	}
	for i := 0; i < cb.order; i++ {
		nlsfQ15[i] = int16(silkLimit32(acc[i], 0, 32767))
	}
	nlsfStabilize(nlsfQ15[:cb.order], cb.deltaMinQ15)
}
