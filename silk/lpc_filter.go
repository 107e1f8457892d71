package silk

// lpcAnalysisFilter computes the prediction residual of in with Q12
// coefficients b. The first order output samples are zeroed.
func lpcAnalysisFilter(out, in []int16, b []int16, length, order int) {
	for i := 0; i < order; i++ {
		out[i] = 0
	}
	for ix := order; ix < length; ix++ {
		var acc int32
		for j := 0; j < order; j++ {
			acc = silkSMLABB(acc, int32(in[ix-1-j]), int32(b[j]))
		}
		acc = int32(in[ix])<<12 - acc
		out[ix] = silkSAT16(silkRSHIFT_ROUND(acc, 12))
	}
}

// shortTermPrediction returns the Q10 LPC prediction for the sample after
// buf[idx], with buf holding Q14 history.
func shortTermPrediction(buf []int32, idx int, aQ12 []int16) int32 {
	order := len(aQ12)
	out := int32(order >> 1)
	for k := 0; k < order; k++ {
		out = silkSMLAWB(out, buf[idx-k], int32(aQ12[k]))
	}
	return out
}

// noiseShapeFeedback runs the AR shaping filter one step: diff enters the
// delay line sAR2 and the Q12 feedback is returned.
func noiseShapeFeedback(diff int32, sAR2 []int32, arQ13 []int16) int32 {
	order := len(arQ13)
	tmp2 := diff
	tmp1 := sAR2[0]
	sAR2[0] = tmp2
	out := int32(order >> 1)
	out = silkSMLAWB(out, tmp2, int32(arQ13[0]))
	for j := 2; j < order; j += 2 {
		tmp2 = sAR2[j-1]
		sAR2[j-1] = tmp1
		out = silkSMLAWB(out, tmp1, int32(arQ13[j-1]))
		tmp1 = sAR2[j]
		sAR2[j] = tmp2
		out = silkSMLAWB(out, tmp2, int32(arQ13[j]))
	}
	sAR2[order-1] = tmp1
	out = silkSMLAWB(out, tmp1, int32(arQ13[order-1]))
	return out << 1
}
