package silk

// Rate control: target bitrate to SNR, per internal sampling rate.
const targetRateTabSize = 8

var (
	targetRateTableNB  = [targetRateTabSize]int{0, 8000, 9000, 11000, 13000, 16000, 22000, maxTargetRateBps}
	targetRateTableMB  = [targetRateTabSize]int{0, 10000, 12000, 14000, 17000, 21000, 28000, maxTargetRateBps}
	targetRateTableWB  = [targetRateTabSize]int{0, 11000, 14000, 17000, 21000, 26000, 36000, maxTargetRateBps}
	targetRateTableSWB = [targetRateTabSize]int{0, 13000, 16000, 19000, 25000, 32000, 46000, maxTargetRateBps}

	snrTableQ1 = [targetRateTabSize]int{19, 31, 35, 39, 43, 47, 54, 64}
)

// Internal rate switching thresholds in bps.
const (
	swb2wbBitrateBps = 25000
	wb2swbBitrateBps = 30000
	wb2mbBitrateBps  = 14000
	mb2wbBitrateBps  = 18000
	mb2nbBitrateBps  = 10000
	nb2mbBitrateBps  = 14000

	accumBitsDiffThreshold = 30000000
)

// LTP scaling thresholds, indexed by expected loss in percent plus the
// number of extra frames in the packet.
var ltpScaleThresholds = [...]float64{0.95, 0.8, 0.5, 0.4, 0.3, 0.2, 0.15, 0.1, 0.08, 0.075, 0.0}

// Decoder output high-pass filters (Q13/Q14), indexed by rateIndex.
var (
	decHPB = [3]int32{8000, -16000, 8000}

	decHPA = [len(samplingRatesKHz)][2]int32{
		{-15885, 7710},
		{-16043, 7859},
		{-16127, 7940},
		{-16220, 8030},
	}
)

// Bandwidth transition low-pass filters (Q28), from the widest band to the
// narrowest.
const (
	transitionNB     = 3
	transitionNA     = 2
	transitionIntNum = 5

	transitionTimeUpMs   = 5120
	transitionTimeDownMs = 2560
	transitionFramesUp   = transitionTimeUpMs / frameLengthMs
	transitionFramesDown = transitionTimeDownMs / frameLengthMs
)

var (
	transitionLPBQ28 = [transitionIntNum][transitionNB]int32{
		{250767114, 501534038, 250767114},
		{209867381, 419732057, 209867381},
		{170987846, 341967853, 170987846},
		{131531482, 263046905, 131531482},
		{89306658, 178584282, 89306658},
	}
	transitionLPAQ28 = [transitionIntNum][transitionNA]int32{
		{506393414, 239854379},
		{411067935, 169683996},
		{306733530, 116694253},
		{185807084, 77959395},
		{35497197, 57401098},
	}
)
