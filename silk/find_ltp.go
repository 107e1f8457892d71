package silk

import "math"

const (
	ltpDamping             = 0.01
	ltpSmoothing           = 0.1
	regularizationFactor   = 1e-8
	maxResidualNrgAttempts = 10
)

// corrMatrixFLP fills the order x order covariance matrix of x, where row i
// is the signal delayed by order-1-i samples relative to the end of x:
// XX[i][j] = <x[order-1-i:], x[order-1-j:]> over length samples.
func corrMatrixFLP(XX []float64, x []float64, length, order int) {
	p1 := x[order-1:]
	energy := energyFLP(p1[:length])
	XX[0] = energy
	for j := 1; j < order; j++ {
		energy += x[order-1-j]*x[order-1-j] - p1[length-j]*p1[length-j]
		XX[j*order+j] = energy
	}
	for lag := 1; lag < order; lag++ {
		p2 := x[order-1-lag:]
		energy = innerProductFLP(p1, p2, length)
		XX[lag*order] = energy
		XX[lag] = energy
		for j := 1; j < order-lag; j++ {
			energy += x[order-1-j]*x[order-1-lag-j] - p1[length-j]*p2[length-j]
			XX[(lag+j)*order+j] = energy
			XX[j*order+lag+j] = energy
		}
	}
}

// corrVectorFLP computes the correlation of each delayed copy of x with t.
func corrVectorFLP(Xt []float64, x, t []float64, length, order int) {
	for lag := 0; lag < order; lag++ {
		Xt[lag] = innerProductFLP(x[order-1-lag:], t, length)
	}
}

// regularizeCorrelationFLP adds noise to the diagonal of XX and to xx.
func regularizeCorrelationFLP(XX []float64, xx *float64, noise float64, order int) {
	for i := 0; i < order; i++ {
		XX[i*order+i] += noise
	}
	*xx += noise
}

// solveLDLFLP solves A x = b for symmetric positive definite A of size n,
// adding to the diagonal until the factorization is well conditioned.
func solveLDLFLP(A []float64, n int, b, x []float64) {
	var (
		L    [ltpOrder * ltpOrder]float64
		invD [ltpOrder]float64
		v    [ltpOrder]float64
		tmp  [ltpOrder]float64
	)
	diag := 0.0
	for i := 0; i < n; i++ {
		diag += A[i*n+i]
	}
	eps := 1e-9 * diag / float64(n)
	for attempt := 0; ; attempt++ {
		ok := true
		for j := 0; j < n; j++ {
			for k := 0; k < j; k++ {
				v[k] = L[j*n+k] / invD[k]
			}
			d := A[j*n+j]
			for k := 0; k < j; k++ {
				d -= v[k] * L[j*n+k]
			}
			if d < eps && attempt < maxLPCStabilizeIterations {
				for i := 0; i < n; i++ {
					A[i*n+i] += eps
				}
				eps *= 2
				ok = false
				break
			}
			d = math.Max(d, 1e-12)
			invD[j] = 1 / d
			L[j*n+j] = 1
			for i := j + 1; i < n; i++ {
				s := A[i*n+j]
				for k := 0; k < j; k++ {
					s -= L[i*n+k] * v[k]
				}
				L[i*n+j] = s * invD[j]
			}
		}
		if ok {
			break
		}
	}

	// L y = b
	for i := 0; i < n; i++ {
		s := b[i]
		for k := 0; k < i; k++ {
			s -= L[i*n+k] * tmp[k]
		}
		tmp[i] = s
	}
	// D z = y
	for i := 0; i < n; i++ {
		tmp[i] *= invD[i]
	}
	// L' x = z
	for i := n - 1; i >= 0; i-- {
		s := tmp[i]
		for k := i + 1; k < n; k++ {
			s -= L[k*n+i] * x[k]
		}
		x[i] = s
	}
}

// residualEnergyCovarFLP returns the weighted residual energy
// wxx - 2 c'wXx + c'wXX c of a predictor c, regularizing wXX in place if
// numerical error drives the result negative.
func residualEnergyCovarFLP(c, wXX, wXx []float64, wxx float64, n int) float64 {
	reg := regularizationFactor * (wXX[0] + wXX[n*n-1])
	for k := 0; k < maxResidualNrgAttempts; k++ {
		nrg := wxx
		var t float64
		for i := 0; i < n; i++ {
			t += wXx[i] * c[i]
		}
		nrg -= 2 * t
		for i := 0; i < n; i++ {
			t = 0
			for j := i + 1; j < n; j++ {
				t += wXX[i*n+j] * c[j]
			}
			nrg += c[i] * (2*t + wXX[i*n+i]*c[i])
		}
		if nrg > 0 {
			return nrg
		}
		for i := 0; i < n; i++ {
			wXX[i*n+i] += reg
		}
		reg *= 2
	}
	return 1
}

// findLTP estimates the five-tap long-term predictor of each subframe from
// the pitch residual r, which holds ltpMemLength samples of history before
// the frame. WLTP receives the per-subframe error weighting matrices used by
// the gain quantizer. It returns the LTP coding gain in dB.
func (e *Encoder) findLTP(b, WLTP []float64, r []float64, lag []int, wght []float64) float64 {
	const n = ltpOrder
	var (
		w, d, rr, nrg [nbSubfr]float64
		Rr            [n]float64
	)
	subfr := e.subfrLength
	for k := 0; k < nbSubfr; k++ {
		rp := r[e.ltpMemLength+k*subfr:]
		lagPtr := r[e.ltpMemLength+k*subfr-(lag[k]+n/2):]
		Wk := WLTP[k*n*n : (k+1)*n*n]
		bk := b[k*n : (k+1)*n]

		corrMatrixFLP(Wk, lagPtr, subfr, n)
		corrVectorFLP(Rr[:], lagPtr, rp, subfr, n)
		rr[k] = energyFLP(rp[:subfr])

		regu := (1 + rr[k] + Wk[0] + Wk[n*n-1]) * ltpDamping / 3
		regularizeCorrelationFLP(Wk, &rr[k], regu, n)
		solveLDLFLP(Wk, n, Rr[:], bk)

		nrg[k] = residualEnergyCovarFLP(bk, Wk, Rr[:], rr[k], n)
		scaleVectorFLP(Wk, wght[k]/(nrg[k]*wght[k]+0.01*float64(subfr)))
		w[k] = Wk[(n/2)*n+n/2]
	}

	resNrg, ltpResNrg := 0.0, 1e-6
	for k := 0; k < nbSubfr; k++ {
		resNrg += rr[k] * wght[k]
		ltpResNrg += nrg[k] * wght[k]
	}
	codGain := 3 * math.Log2(resNrg/ltpResNrg)

	// Pull the DC gain of each subframe towards the weighted mean.
	var sumW, m float64
	sumW = 1e-3
	for k := 0; k < nbSubfr; k++ {
		for i := 0; i < n; i++ {
			d[k] += b[k*n+i]
		}
		sumW += w[k]
		m += d[k] * w[k]
	}
	m /= sumW
	for k := 0; k < nbSubfr; k++ {
		g := ltpSmoothing / (ltpSmoothing + w[k]) * (m - d[k])
		var deltaB [n]float64
		var sum float64
		for i := 0; i < n; i++ {
			deltaB[i] = math.Max(b[k*n+i], 0.1)
			sum += deltaB[i]
		}
		g /= sum
		for i := 0; i < n; i++ {
			b[k*n+i] += deltaB[i] * g
		}
	}
	return codGain
}
