package silk

// Pitch contour codebooks: per-subframe lag offsets relative to the coded
// lag. Stage 2 is used at 8 kHz, stage 3 at higher rates.
var pitchCBLagsStage2 = [nbSubfr][nbCbksStage2Ext]int8{
	{0, 2, -1, -1, -1, 0, 0, 1, 1, 0, 1},
	{0, 1, 0, 0, 0, 0, 0, 1, 0, 0, 0},
	{0, 0, 1, 0, 0, 0, 1, 0, 0, 0, 0},
	{0, -1, 2, 1, 0, 1, 1, 0, 0, -1, -1},
}

var pitchCBLagsStage3 = [nbSubfr][nbCbksStage3Max]int8{
	{0, 0, 1, -1, 0, 1, -1, 0, -1, 1, -2, 2, -2, -2, 2, -3, 2, 3, -3, -4, 3, -4, 4, 4, -5, 5, -6, -5, 6, -7, 6, 5, 8, -9},
	{0, 0, 1, 0, 0, 0, 0, 0, 0, 0, -1, 1, 0, 0, 1, -1, 0, 1, -1, -1, 1, -1, 2, 1, -1, 2, -2, -2, 2, -2, 2, 2, 3, -3},
	{0, 1, 0, 0, 0, 0, 0, 0, 1, 0, 1, 0, 0, 1, -1, 1, 0, 0, 2, 1, -1, 2, -1, -1, 2, -1, 2, 2, -1, 3, -2, -2, -2, 3},
	{0, 1, 0, 0, 1, 0, 1, -1, 2, -1, 2, -1, 2, 3, -2, 3, -2, -2, 4, 4, -3, 5, -3, -4, 6, -4, 6, 5, -5, 8, -6, -5, -7, 9},
}

// Number of stage-3 contours searched, by complexity.
var pitchNbCbkSearchsStage3 = [3]int{16, 24, nbCbksStage3Max}

// Per-complexity pitch estimator settings.
var (
	pitchEstThreshold = [3]float64{0.8, 0.75, 0.7}
	pitchEstLPCOrder  = [3]int{8, 12, 16}
)

const (
	peShortlagBias    = 0.2
	pePrevlagBias     = 0.2
	peFlatcontourBias = 0.05
	peDSrchLength     = 24
)
