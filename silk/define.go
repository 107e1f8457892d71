package silk

// Frame layout.
const (
	nbSubfr         = 4
	frameLengthMs   = 20
	subfrLengthMs   = frameLengthMs / nbSubfr
	maxFsKHz        = 24
	maxFrameLength  = frameLengthMs * maxFsKHz
	maxSubfrLength  = maxFrameLength / nbSubfr
	minLPCOrder     = 10
	maxLPCOrder     = 16
	ltpOrder        = 5
	maxFramesPerPkt = 5

	// MaxFramesPerPacket is the number of 20 ms frames a packet may carry.
	MaxFramesPerPacket = maxFramesPerPkt
)

// Signal types.
const (
	typeVoiced   = 0
	typeUnvoiced = 1
)

// Frame termination symbols.
const (
	lastFrame  = 0
	moreFrames = 1
	lbrrVer1   = 2
	lbrrVer2   = 3
)

// LBRR usage flags.
const (
	noLBRR         = 0
	addLBRRToPlus1 = 1
	addLBRRToPlus2 = 2

	maxLBRRDelay         = 2
	noLBRRThres          = 10
	inbandFECMinRateBps  = 18000
	lbrrLossThres        = 1
	lbrrLossThresPlus2   = 15
	lbrrSpeechActivityQ8 = 128
)

// Gain quantization.
const (
	nLevelsQGain      = 64
	minQGainDb        = 6
	maxQGainDb        = 86
	minDeltaGainQuant = -4
	maxDeltaGainQuant = 36
	nDeltaGainSymbols = maxDeltaGainQuant - minDeltaGainQuant + 1
)

// Quantization offsets (Q10) indexed by [signalType][quantOffsetType].
var quantizationOffsetsQ10 = [2][2]int32{
	{32, 100},  // voiced: low, high
	{100, 256}, // unvoiced: low, high
}

const quantLevelAdjustQ10 = 80

// Pulse coding.
const (
	shellCodecFrameLength = 16
	maxNbShellBlocks      = maxFrameLength / shellCodecFrameLength
	maxPulses             = 16
	nRateLevels           = 9 // the last level codes LSB-shifted blocks
	maxPulsesSymbol       = maxPulses + 1 // escape: shift one LSB out
	maxLShifts            = 10
)

// Pitch.
const (
	pitchEstMinLagMs = 2
	pitchEstMaxLagMs = 18
	nbCbksStage2     = 3
	nbCbksStage2Ext  = 11
	nbCbksStage3Max  = 34
	pitchDriftFACQ16 = 655
	maxPitchLagMs    = 18
)

// NLSF and LPC stabilization.
const (
	nlsfMSVQMaxCBStages       = 10
	maxNLSFMSVQSurvivors      = 16
	maxNLSFMSVQSurvivorsMC    = 4
	maxNLSFMSVQSurvivorsLC    = 2
	nlsfStabilizeMaxLoops     = 20
	maxLPCStabilizeIterations = 20
	nlsfMinSpacingQ15         = 100
)

// Noise shaping quantizer.
const (
	decisionDelay     = 32
	maxDelDecStates   = 4
	nsqLPCBufLength   = maxLPCOrder
	maxShapeLPCOrder  = 16
	harmShapeFIRTaps  = 3
	lambdaMinQ10      = 8
	maxPredPowerGainQ = 1e4
)

// LTP.
const (
	ltpGainMiddleAvgRDQ14 = 11010
	nbLTPCbks             = 3
)

// PLC.
const (
	bweAfterLossQ16         = 63570
	plcBWECoefQ16           = 64881 // 0.99
	vPitchGainStartMinQ14   = 11469
	vPitchGainStartMaxQ14   = 15565
	randBufSize             = 128
	randBufMask             = randBufSize - 1
	nbAtt                   = 2
	log2InvLPCGainHighThres = 3
	log2InvLPCGainLowThres  = 8
	plcRandScaleMinQ14      = 3277
)

var (
	harmAttQ15            = [nbAtt]int32{32440, 31130}
	plcRandAttenuateVQ15  = [nbAtt]int32{31130, 26214}
	plcRandAttenuateUVQ15 = [nbAtt]int32{32440, 29491}
)

// CNG.
const (
	cngBufMaskMax  = 255
	cngGainSmthQ16 = 4634
	cngNLSFSmthQ16 = 16348
	cngResetSeed   = 3176576
)

// DTX.
const (
	noSpeechFramesBeforeDTX = 5
	maxConsecutiveDTX       = 20
)

// Encoder analysis.
const (
	laShapeMs           = 5
	laPitchMs           = 2
	findPitchLPCWinMs   = frameLengthMs + 2*laPitchMs
	shapeLPCWinMs       = subfrLengthMs + 2*laShapeMs
	minTargetRateBps    = 5000
	maxTargetRateBps    = 100000
	maxBufferedMs       = 100
	speechActivityDTXQ8 = 25

	laShapeMax         = laShapeMs * maxFsKHz
	laPitchMax         = laPitchMs * maxFsKHz
	findPitchLPCWinMax = findPitchLPCWinMs * maxFsKHz
	shapeLPCWinMax     = shapeLPCWinMs * maxFsKHz
)

// Internal sampling rates in kHz, indexed by the coded rate symbol.
var samplingRatesKHz = [4]int{8, 12, 16, 24}

func rateIndex(fsKHz int) int {
	for i, r := range samplingRatesKHz {
		if r == fsKHz {
			return i
		}
	}
	return -1
}

func lpcOrderFor(fsKHz int) int {
	if fsKHz <= 12 {
		return minLPCOrder
	}
	return maxLPCOrder
}
