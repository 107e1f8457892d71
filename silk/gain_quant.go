package silk

// Log-domain gain quantization. The first gain of a packet is coded as an
// absolute index; every other gain as a delta to the previous index, with
// the step size doubling for large increases.

const (
	gainOffsetQ7    = (minQGainDb*128)/6 + 16*128
	gainScaleQ16    = (65536 * (nLevelsQGain - 1)) / (((maxQGainDb - minQGainDb) * 128) / 6)
	gainInvScaleQ16 = (65536 * (((maxQGainDb - minQGainDb) * 128) / 6)) / (nLevelsQGain - 1)
)

// gainsQuant quantizes gainQ16 in place and writes the coded symbols to ind:
// an absolute index for subframe 0 when conditional is false, delta symbols
// otherwise. It returns the last absolute index.
func gainsQuant(ind []int, gainQ16 []int32, prevInd int, conditional bool) int {
	for k := range gainQ16 {
		raw := int(silkSMULWB(gainScaleQ16, silkLin2Log(gainQ16[k])-gainOffsetQ7))
		// Round towards the previous index.
		if raw < prevInd {
			raw++
		}
		raw = silkLimitInt(raw, 0, nLevelsQGain-1)

		if k == 0 && !conditional {
			raw = silkLimitInt(raw, prevInd+minDeltaGainQuant, nLevelsQGain-1)
			ind[k] = raw
			prevInd = raw
		} else {
			delta := raw - prevInd
			doubleStepThreshold := 2*maxDeltaGainQuant - nLevelsQGain + prevInd
			if delta > doubleStepThreshold {
				delta = doubleStepThreshold + (delta-doubleStepThreshold+1)>>1
			}
			delta = silkLimitInt(delta, minDeltaGainQuant, maxDeltaGainQuant)
			if delta > doubleStepThreshold {
				prevInd += 2*delta - doubleStepThreshold
			} else {
				prevInd += delta
			}
			prevInd = silkLimitInt(prevInd, 0, nLevelsQGain-1)
			ind[k] = delta - minDeltaGainQuant
		}
		gainQ16[k] = gainIndexToQ16(prevInd)
	}
	return prevInd
}

// gainsDequant reconstructs Q16 gains from coded symbols and returns the
// last absolute index.
func gainsDequant(gainQ16 []int32, ind []int, prevInd int, conditional bool) int {
	for k := range gainQ16 {
		if k == 0 && !conditional {
			// The encoder never lowers the index by more than 4 here; allow
			// more headroom after packet loss.
			prevInd = max(ind[k], prevInd-16)
		} else {
			delta := ind[k] + minDeltaGainQuant
			doubleStepThreshold := 2*maxDeltaGainQuant - nLevelsQGain + prevInd
			if delta > doubleStepThreshold {
				prevInd += 2*delta - doubleStepThreshold
			} else {
				prevInd += delta
			}
		}
		prevInd = silkLimitInt(prevInd, 0, nLevelsQGain-1)
		gainQ16[k] = gainIndexToQ16(prevInd)
	}
	return prevInd
}

func gainIndexToQ16(ind int) int32 {
	return silkLog2Lin(silkMin32(silkSMULWB(gainInvScaleQ16, int32(ind))+gainOffsetQ7, 3967))
}
