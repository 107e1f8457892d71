package silk

import "github.com/thesyncim/gosilk/rangecoding"

// Entropy coding tables. Every table is a 16-bit CDF (0 ... 65535) as used by
// the rangecoding package. Tables taken from 8-bit inverse CDFs are converted
// once at package initialization.

// Frame header.
var (
	rateCDF = []uint16{0, 16000, 32000, 48000, 65535}

	// typeOffsetCDF codes signalType*2 + quantOffsetType for the first frame
	// of a packet.
	typeOffsetCDF = []uint16{0, 37522, 41030, 44212, 65535}

	// typeOffsetJointCDF is conditioned on the previous frame's symbol.
	typeOffsetJointCDF = [4][]uint16{
		{0, 57686, 61230, 62358, 65535},
		{0, 18346, 40067, 43659, 65535},
		{0, 22694, 24279, 35507, 65535},
		{0, 6067, 7215, 13010, 65535},
	}

	vadFlagCDF          = []uint16{0, 22000, 65535}
	frameTerminationCDF = []uint16{0, 20000, 45000, 56000, 65535}
	seedCDF             = []uint16{0, 16384, 32768, 49152, 65535}
	nlsfInterpCDF       = []uint16{0, 3706, 8703, 19226, 30926, 65535}
)

// Gains: the first gain of a packet is coded as MSB (conditioned on the
// signal type) plus a uniform 3-bit LSB, every other gain as a delta.
var (
	gainMSBCDF = [2][]uint16{
		typeVoiced:   rangecoding.FromICDF([]uint8{255, 252, 226, 155, 61, 11, 2, 0}),
		typeUnvoiced: rangecoding.FromICDF([]uint8{254, 237, 192, 132, 70, 23, 4, 0}),
	}
	gainLSBCDF   = rangecoding.Uniform(8)
	deltaGainCDF = rangecoding.FromICDF([]uint8{
		250, 245, 234, 203, 71, 50, 42, 38, 35, 33, 31, 29, 28, 27, 26, 25, 24,
		23, 22, 21, 20, 19, 18, 17, 16, 15, 14, 13, 12, 11, 10, 9, 8, 7, 6, 5,
		4, 3, 2, 1, 0,
	})
)

// LTP.
var (
	ltpPerIndexCDF = rangecoding.FromICDF([]uint8{179, 99, 0})

	ltpGainCDF = [nbLTPCbks][]uint16{
		rangecoding.FromICDF([]uint8{71, 56, 43, 30, 21, 12, 6, 0}),
		rangecoding.FromICDF([]uint8{
			199, 165, 144, 124, 109, 96, 84, 71, 61, 51, 42, 32, 23, 15, 8, 0,
		}),
		rangecoding.FromICDF([]uint8{
			241, 225, 211, 199, 187, 175, 164, 153, 142, 132, 123, 114, 105, 96, 88, 80,
			72, 64, 57, 50, 44, 38, 33, 29, 24, 20, 16, 12, 9, 5, 2, 0,
		}),
	}

	ltpScaleCDF       = []uint16{0, 32000, 48000, 65535}
	ltpScalesTableQ14 = [3]int32{15565, 11469, 8192}
)

// Pitch. The lag index is split into a high part with a trained
// distribution and a uniform low part of fsKHz/2 symbols. The contour index
// uses the stage-2 codebook at 8 kHz and the stage-3 codebook otherwise.
var (
	pitchLagHighCDF = rangecoding.FromICDF([]uint8{
		253, 250, 244, 233, 212, 182, 150, 131, 120, 110, 98, 85, 72, 60, 49, 40,
		32, 25, 19, 15, 13, 11, 9, 8, 7, 6, 5, 4, 3, 2, 1, 0,
	})
	pitchLagLowCDF = [len(samplingRatesKHz)][]uint16{
		rangecoding.FromICDF([]uint8{192, 128, 64, 0}),
		rangecoding.Uniform(6),
		rangecoding.FromICDF([]uint8{224, 192, 160, 128, 96, 64, 32, 0}),
		rangecoding.Uniform(12),
	}
	pitchContourNBCDF = rangecoding.FromICDF([]uint8{188, 176, 155, 138, 119, 97, 67, 43, 26, 10, 0})
	pitchContourCDF   = rangecoding.FromICDF([]uint8{
		223, 201, 183, 167, 152, 138, 124, 111, 98, 88, 79, 70, 62, 56, 50, 44,
		39, 35, 31, 27, 24, 21, 18, 16, 14, 12, 10, 8, 6, 4, 3, 2, 1, 0,
	})
)

// Excitation.
var (
	rateLevelCDF = [2][]uint16{
		typeVoiced:   rangecoding.FromICDF([]uint8{232, 200, 162, 120, 78, 42, 14, 0}),
		typeUnvoiced: rangecoding.FromICDF([]uint8{241, 221, 193, 159, 118, 72, 31, 0}),
	}

	// pulseCountCDF is indexed by rate level. The last level is reserved for
	// blocks that needed an LSB shift.
	pulseCountCDF = buildICDFs([][]uint8{
		{125, 51, 26, 18, 15, 12, 11, 10, 9, 8, 7, 6, 5, 4, 3, 2, 1, 0},
		{198, 105, 45, 22, 15, 12, 11, 10, 9, 8, 7, 6, 5, 4, 3, 2, 1, 0},
		{213, 162, 116, 83, 59, 43, 32, 24, 18, 15, 12, 9, 7, 6, 5, 3, 2, 0},
		{239, 187, 116, 59, 28, 16, 11, 10, 9, 8, 7, 6, 5, 4, 3, 2, 1, 0},
		{250, 229, 188, 135, 86, 51, 30, 19, 13, 10, 8, 6, 5, 4, 3, 2, 1, 0},
		{249, 235, 213, 185, 156, 128, 103, 83, 66, 53, 42, 33, 26, 21, 17, 13, 10, 0},
		{254, 249, 235, 206, 164, 118, 77, 46, 27, 16, 10, 7, 5, 4, 3, 2, 1, 0},
		{255, 253, 249, 239, 220, 191, 156, 119, 85, 57, 37, 23, 15, 10, 6, 4, 2, 0},
		{255, 254, 253, 247, 220, 162, 106, 67, 42, 28, 18, 12, 9, 6, 4, 3, 2, 0},
	})

	// shellSplitCDF[p] codes the pulse count of the left half of a shell
	// partition holding p pulses.
	shellSplitCDF = buildICDFs([][]uint8{
		{0},
		{128, 0},
		{171, 85, 0},
		{192, 128, 64, 0},
		{205, 154, 102, 51, 0},
		{213, 171, 128, 85, 43, 0},
		{219, 183, 146, 110, 73, 37, 0},
		{224, 192, 160, 128, 96, 64, 32, 0},
		{228, 199, 171, 142, 114, 85, 57, 28, 0},
		{230, 205, 179, 154, 128, 102, 77, 51, 26, 0},
		{233, 210, 186, 163, 140, 116, 93, 70, 47, 23, 0},
		{235, 213, 192, 171, 149, 128, 107, 85, 64, 43, 21, 0},
		{236, 216, 197, 177, 158, 138, 118, 99, 79, 59, 39, 20, 0},
		{238, 219, 201, 183, 164, 146, 128, 110, 91, 73, 55, 37, 18, 0},
		{239, 222, 204, 187, 170, 152, 135, 118, 101, 83, 66, 49, 31, 14, 0},
		{240, 224, 208, 192, 176, 160, 144, 128, 112, 96, 80, 64, 48, 32, 16, 0},
		{241, 226, 211, 195, 180, 165, 150, 135, 120, 105, 90, 75, 60, 45, 30, 15, 0},
	})

	lsbCDF = rangecoding.FromICDF([]uint8{136, 0})

	// signCDF is indexed by [signalType][quantOffsetType][min(pulses,6)-1].
	signCDF = buildSignCDFs([2][2][6]uint8{
		typeVoiced: {
			{162, 152, 143, 137, 132, 128},
			{150, 142, 136, 131, 128, 125},
		},
		typeUnvoiced: {
			{185, 168, 155, 146, 138, 133},
			{172, 157, 146, 138, 132, 128},
		},
	})
)

func buildICDFs(icdf [][]uint8) [][]uint16 {
	out := make([][]uint16, len(icdf))
	for i, t := range icdf {
		out[i] = rangecoding.FromICDF(t)
	}
	return out
}

func buildSignCDFs(icdf [2][2][6]uint8) [2][2][6][]uint16 {
	var out [2][2][6][]uint16
	for s := range icdf {
		for q := range icdf[s] {
			for p, v := range icdf[s][q] {
				out[s][q][p] = rangecoding.FromICDF([]uint8{v, 0})
			}
		}
	}
	return out
}
