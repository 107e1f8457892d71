package silk

import "github.com/thesyncim/gosilk/rangecoding"

// sideInfo holds the quantization indices of one frame: everything that
// goes into the bitstream except the excitation pulses.
type sideInfo struct {
	signalType      int
	quantOffsetType int
	gainsIndices    [nbSubfr]int
	nlsfIndices     [nlsfMSVQMaxCBStages]int
	nlsfInterpQ2    int
	lagIndex        int
	contourIndex    int
	perIndex        int
	ltpIndex        [nbSubfr]int
	ltpScaleIndex   int
	seed            int
	vadFlag         bool
}

func (si *sideInfo) typeOffset() int {
	return 2*si.signalType + si.quantOffsetType
}

// encodeIndices writes the side information of one frame. firstFrame marks
// the first frame of a packet, which carries the internal rate and codes
// its first gain absolutely. prevTypeOffset is the symbol of the preceding
// frame of the packet.
func encodeIndices(rc *rangecoding.Encoder, si *sideInfo, fsKHz int, firstFrame bool, prevTypeOffset int) {
	order := lpcOrderFor(fsKHz)
	rateIdx := rateIndex(fsKHz)

	if firstFrame {
		rc.Encode(rateCDF, rateIdx)
		rc.Encode(typeOffsetCDF, si.typeOffset())
	} else {
		rc.Encode(typeOffsetJointCDF[prevTypeOffset], si.typeOffset())
	}

	if firstFrame {
		rc.Encode(gainMSBCDF[si.signalType], si.gainsIndices[0]>>3)
		rc.Encode(gainLSBCDF, si.gainsIndices[0]&7)
	} else {
		rc.Encode(deltaGainCDF, si.gainsIndices[0])
	}
	for k := 1; k < nbSubfr; k++ {
		rc.Encode(deltaGainCDF, si.gainsIndices[k])
	}

	cb := nlsfCodebookFor(order, si.signalType)
	for s := range cb.stages {
		rc.Encode(cb.stages[s].cdf, si.nlsfIndices[s])
	}
	rc.Encode(nlsfInterpCDF, si.nlsfInterpQ2)

	if si.signalType == typeVoiced {
		half := fsKHz >> 1
		rc.Encode(pitchLagHighCDF, si.lagIndex/half)
		rc.Encode(pitchLagLowCDF[rateIdx], si.lagIndex%half)
		if fsKHz == 8 {
			rc.Encode(pitchContourNBCDF, si.contourIndex)
		} else {
			rc.Encode(pitchContourCDF, si.contourIndex)
		}
		rc.Encode(ltpPerIndexCDF, si.perIndex)
		for k := 0; k < nbSubfr; k++ {
			rc.Encode(ltpGainCDF[si.perIndex], si.ltpIndex[k])
		}
		rc.Encode(ltpScaleCDF, si.ltpScaleIndex)
	}

	rc.Encode(seedCDF, si.seed)
}

// decodeIndices reads the side information of one frame. On the first frame
// of a packet the internal rate is read and returned; otherwise fsKHz is
// returned unchanged.
func decodeIndices(rc *rangecoding.Decoder, si *sideInfo, fsKHz int, firstFrame bool, prevTypeOffset int) int {
	if firstFrame {
		fsKHz = samplingRatesKHz[rc.Decode(rateCDF, 2)]
	}
	order := lpcOrderFor(fsKHz)
	rateIdx := rateIndex(fsKHz)

	var typeOffset int
	if firstFrame {
		typeOffset = rc.Decode(typeOffsetCDF, 0)
	} else {
		typeOffset = rc.Decode(typeOffsetJointCDF[prevTypeOffset], 0)
	}
	si.signalType = typeOffset >> 1
	si.quantOffsetType = typeOffset & 1

	if firstFrame {
		si.gainsIndices[0] = rc.Decode(gainMSBCDF[si.signalType], 0) << 3
		si.gainsIndices[0] += rc.Decode(gainLSBCDF, 4)
	} else {
		si.gainsIndices[0] = rc.Decode(deltaGainCDF, -minDeltaGainQuant)
	}
	for k := 1; k < nbSubfr; k++ {
		si.gainsIndices[k] = rc.Decode(deltaGainCDF, -minDeltaGainQuant)
	}

	cb := nlsfCodebookFor(order, si.signalType)
	for s := range cb.stages {
		si.nlsfIndices[s] = rc.Decode(cb.stages[s].cdf, 0)
	}
	si.nlsfInterpQ2 = rc.Decode(nlsfInterpCDF, 4)

	if si.signalType == typeVoiced {
		half := fsKHz >> 1
		si.lagIndex = rc.Decode(pitchLagHighCDF, 8) * half
		si.lagIndex += rc.Decode(pitchLagLowCDF[rateIdx], 0)
		if fsKHz == 8 {
			si.contourIndex = rc.Decode(pitchContourNBCDF, 0)
		} else {
			si.contourIndex = rc.Decode(pitchContourCDF, 0)
		}
		si.perIndex = rc.Decode(ltpPerIndexCDF, 1)
		for k := 0; k < nbSubfr; k++ {
			si.ltpIndex[k] = rc.Decode(ltpGainCDF[si.perIndex], 0)
		}
		si.ltpScaleIndex = rc.Decode(ltpScaleCDF, 0)
	} else {
		si.perIndex = 0
		si.ltpIndex = [nbSubfr]int{}
		si.ltpScaleIndex = 0
	}

	si.seed = rc.Decode(seedCDF, 0)
	return fsKHz
}
