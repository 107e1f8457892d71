package silk

import "github.com/thesyncim/gosilk/rangecoding"

// decodeParams reads the indices and pulses of one frame from the range
// decoder and dequantizes them into dc.
func (d *Decoder) decodeParams(dc *decoderControl, pulses []int16) error {
	si := &dc.si
	first := d.nFramesDecoded == 0

	fsKHz := decodeIndices(&d.rc, si, d.fsKHz, first, d.prevTypeOffset)
	if err := d.rc.Err(); err != nil {
		return err
	}
	if fsKHz != d.fsKHz {
		d.setFs(fsKHz)
	}
	d.prevTypeOffset = si.typeOffset()

	d.lastGainIndex = gainsDequant(dc.gainsQ16[:], si.gainsIndices[:], d.lastGainIndex, !first)

	var nlsfQ15, nlsf0Q15 [maxLPCOrder]int16
	order := d.lpcOrder
	cb := nlsfCodebookFor(order, si.signalType)
	cb.decode(nlsfQ15[:order], si.nlsfIndices[:len(cb.stages)])
	nlsf2aStable(dc.predCoefQ12[1][:order], nlsfQ15[:order], order)

	if d.firstFrameAfterReset {
		si.nlsfInterpQ2 = 4
	}
	if si.nlsfInterpQ2 < 4 {
		interpolateNLSF(nlsf0Q15[:order], d.prevNLSFQ15[:order], nlsfQ15[:order], si.nlsfInterpQ2)
		nlsf2aStable(dc.predCoefQ12[0][:order], nlsf0Q15[:order], order)
	} else {
		dc.predCoefQ12[0] = dc.predCoefQ12[1]
	}
	d.prevNLSFQ15 = nlsfQ15

	// Soften the filters right after a loss.
	if d.lossCnt > 0 {
		bwExpander(dc.predCoefQ12[0][:order], bweAfterLossQ16)
		bwExpander(dc.predCoefQ12[1][:order], bweAfterLossQ16)
	}

	if si.signalType == typeVoiced {
		decodePitch(dc.pitchL[:], si.lagIndex, si.contourIndex, d.fsKHz)
		cbLTP := ltpVQ(si.perIndex)
		for k := 0; k < nbSubfr; k++ {
			row := cbLTP[si.ltpIndex[k]]
			for i := 0; i < ltpOrder; i++ {
				dc.ltpCoefQ14[k*ltpOrder+i] = int16(row[i]) << 7
			}
		}
		dc.ltpScaleQ14 = ltpScalesTableQ14[si.ltpScaleIndex]
	} else {
		dc.pitchL = [nbSubfr]int{}
		dc.ltpCoefQ14 = [nbSubfr * ltpOrder]int16{}
		si.perIndex = 0
		dc.ltpScaleQ14 = 0
	}

	decodePulses(&d.rc, pulses[:d.frameLength], si.signalType, si.quantOffsetType)

	d.vadFlag = d.rc.Decode(vadFlagCDF, 0) == 1
	si.vadFlag = d.vadFlag
	d.frameTermination = d.rc.Decode(frameTerminationCDF, 0)

	if err := d.rc.Err(); err != nil {
		return err
	}
	d.nBytesLeft = d.rc.Remaining()
	switch {
	case d.nBytesLeft < 0:
		return rangecoding.ErrReadBeyondBuffer
	case d.nBytesLeft == 0:
		return d.rc.Check()
	}
	return nil
}
