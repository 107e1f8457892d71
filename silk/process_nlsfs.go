package silk

// processNLSFs quantizes the NLSFs of the frame and converts the quantized
// vector, and its interpolation with the previous frame, to the Q12 predictors
// used by the quantizer. nlsfQ15 is replaced by its quantized value.
func (e *Encoder) processNLSFs(ctl *encoderControl, nlsfQ15 []int16) {
	sc := e.scratch
	si := &e.si
	order := e.predictLPCOrder
	sa := float64(e.speechActivityQ8) / 256

	// Rate weight and fluctuation penalty: stationary voiced speech
	// tolerates less rate and wants smoother trajectories.
	var mu, muFlucRed float64
	if si.signalType == typeVoiced {
		mu = 0.002 - 0.001*sa
		muFlucRed = 0.1 - 0.05*sa
	} else {
		mu = 0.005 - 0.004*sa
		muFlucRed = 0.2 - 0.1*(sa+ctl.sparseness)
	}

	var (
		x, x0, w, w0 [maxLPCOrder]float64
		nlsf0        [maxLPCOrder]int16
		nlsfQ        [maxLPCOrder]int16
	)
	cb := nlsfCodebookFor(order, si.signalType)
	nlsfStabilize(nlsfQ15[:order], cb.deltaMinQ15)

	for i := 0; i < order; i++ {
		x[i] = float64(nlsfQ15[i]) / 32768
	}
	nlsfWeightsLaroia(w[:order], x[:order])

	interp := e.cs.useInterpNLSFs && si.nlsfInterpQ2 < 4
	if interp {
		interpolateNLSF(nlsf0[:order], e.pred.prevNLSFq[:order], nlsfQ15[:order], si.nlsfInterpQ2)
		for i := 0; i < order; i++ {
			x0[i] = float64(nlsf0[i]) / 32768
		}
		nlsfWeightsLaroia(w0[:order], x0[:order])
		f := 0.25 * float64(si.nlsfInterpQ2)
		for i := 0; i < order; i++ {
			w[i] = 0.5 * (w[i] + f*f*w0[i])
		}
	}

	cb.msvqEncode(si.nlsfIndices[:], nlsfQ[:order], nlsfQ15[:order], e.pred.prevNLSFq[:order],
		w[:order], mu, muFlucRed, e.cs.nlsfSurvivors, &sc.msvq)
	copy(nlsfQ15[:order], nlsfQ[:order])

	clear(ctl.predCoefQ12[1][:])
	nlsf2aStable(ctl.predCoefQ12[1][:order], nlsfQ[:order], order)
	if interp {
		interpolateNLSF(nlsf0[:order], e.pred.prevNLSFq[:order], nlsfQ[:order], si.nlsfInterpQ2)
		clear(ctl.predCoefQ12[0][:])
		nlsf2aStable(ctl.predCoefQ12[0][:order], nlsf0[:order], order)
	} else {
		ctl.predCoefQ12[0] = ctl.predCoefQ12[1]
	}
}
