package silk

import "math"

// vqWMatEC finds the codebook row closest to in under the weighting matrix
// W, trading distortion against rate with mu. It returns the index and its
// rate-distortion value.
func vqWMatEC(in, W []float64, cb [][ltpOrder]int8, bitsQ5 []uint8, mu float64) (int, float64) {
	best, bestRD := 0, math.MaxFloat64
	var diff [ltpOrder]float64
	for k, row := range cb {
		for i := range diff {
			diff[i] = in[i] - float64(row[i])/128
		}
		rd := mu * float64(bitsQ5[k]) / 32
		for i := 0; i < ltpOrder; i++ {
			s := W[i*ltpOrder+i] * diff[i]
			for j := i + 1; j < ltpOrder; j++ {
				s += 2 * W[i*ltpOrder+j] * diff[j]
			}
			rd += diff[i] * s
		}
		if rd < bestRD {
			best, bestRD = k, rd
		}
	}
	return best, bestRD
}

// quantLTPGains picks the periodicity codebook and the per-subframe vectors
// minimizing weighted error plus mu times rate, and overwrites b with the
// quantized taps.
func quantLTPGains(b []float64, ltpIndex *[nbSubfr]int, perIndex *int, W []float64, mu float64, lowComplexity bool) {
	const n = ltpOrder
	var idx [nbSubfr]int
	minRD := math.MaxFloat64
	for k := 0; k < nbLTPCbks; k++ {
		cb := ltpVQ(k)
		var rd float64
		for j := 0; j < nbSubfr; j++ {
			i, d := vqWMatEC(b[j*n:(j+1)*n], W[j*n*n:(j+1)*n*n], cb, ltpGainBitsQ5[k], mu)
			idx[j] = i
			rd += d
		}
		if rd < minRD {
			minRD = rd
			*ltpIndex = idx
			*perIndex = k
		}
		if lowComplexity && rd*16384 < ltpGainMiddleAvgRDQ14 {
			break
		}
	}

	cb := ltpVQ(*perIndex)
	for j := 0; j < nbSubfr; j++ {
		row := cb[ltpIndex[j]]
		for i := 0; i < n; i++ {
			b[j*n+i] = float64(row[i]) / 128
		}
	}
}

// ltpScaleCtrl chooses how strongly the LTP state is scaled down at the start
// of a packet. Frames with high and rising LTP gain propagate errors the
// furthest after a loss and get the strongest scaling.
func (e *Encoder) ltpScaleCtrl(ctl *encoderControl) {
	p := &e.pred
	p.hpLTPredCodGain = math.Max(ctl.ltpRedCodGain-p.prevLTPredCodGain, 0) + 0.5*p.hpLTPredCodGain
	p.prevLTPredCodGain = ctl.ltpRedCodGain

	gOut := 0.5*ctl.ltpRedCodGain + 0.5*p.hpLTPredCodGain
	gLimit := sigmoid(0.5 * (gOut - 6))

	e.si.ltpScaleIndex = 0
	if e.nFramesInPayload == 0 {
		roundLoss := max(e.packetLossPerc, 0) + e.packetSizeMs/frameLengthMs - 1
		last := len(ltpScaleThresholds) - 1
		thr1 := ltpScaleThresholds[min(roundLoss, last)]
		thr2 := ltpScaleThresholds[min(roundLoss+1, last)]
		switch {
		case gLimit > thr1:
			e.si.ltpScaleIndex = 2
		case gLimit > thr2:
			e.si.ltpScaleIndex = 1
		}
	}
	ctl.ltpScale = float64(ltpScalesTableQ14[e.si.ltpScaleIndex]) / 16384
}

// ltpAnalysisFilter removes the long-term prediction from x and scales each
// subframe by its inverse gain. x starts preLength samples before the first
// subframe; each output block holds preLength+subfrLength samples.
func ltpAnalysisFilter(res, x []float64, xOff int, b []float64, pitchL []int, invGains []float64, subfrLength, preLength int) {
	blk := subfrLength + preLength
	for k := 0; k < nbSubfr; k++ {
		xs := xOff + k*subfrLength
		out := res[k*blk : (k+1)*blk]
		bk := b[k*ltpOrder : (k+1)*ltpOrder]
		lag := pitchL[k]
		for i := range out {
			v := x[xs+i]
			base := xs + i - lag + ltpOrder/2
			for j := 0; j < ltpOrder; j++ {
				v -= bk[j] * x[base-j]
			}
			out[i] = v * invGains[k]
		}
	}
}
