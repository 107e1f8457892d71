package silk

import (
	"math"

	"github.com/thesyncim/gosilk/rangecoding"
)

// Excitation coding. The frame is cut into blocks of 16 samples. Per block
// the pulse count is coded (with escapes that shift LSBs out while the count
// is too large), then the magnitudes by recursive binary splitting, then the
// shifted-out LSBs and finally the signs of non-zero samples.

// pulseRateLevel picks the rate level whose count table gives the smallest
// total cost for the block sums. shifts[i] > 0 forces the block onto the
// escape path.
func pulseRateLevel(sums, shifts []int, signalType int) int {
	best, bestCost := 0, math.MaxInt
	for r := 0; r < nRateLevels-1; r++ {
		cost := rangecoding.Cost(rateLevelCDF[signalType], r)
		for i, s := range sums {
			if shifts[i] > 0 {
				cost += rangecoding.Cost(pulseCountCDF[r], maxPulsesSymbol)
			} else {
				cost += rangecoding.Cost(pulseCountCDF[r], s)
			}
		}
		if cost < bestCost {
			best, bestCost = r, cost
		}
	}
	return best
}

func signCDFIndex(sum int) int {
	return max(min(sum, 6)-1, 0)
}

// encodePulses codes the excitation q of one frame. len(q) must be a
// multiple of shellCodecFrameLength.
func encodePulses(rc *rangecoding.Encoder, q []int8, signalType, quantOffsetType int) {
	nBlocks := len(q) / shellCodecFrameLength
	var absQ [maxFrameLength]int
	var sums, shifts [maxNbShellBlocks]int

	for i := range q {
		absQ[i] = silkAbsInt(int(q[i]))
	}
	for b := 0; b < nBlocks; b++ {
		blk := absQ[b*shellCodecFrameLength : (b+1)*shellCodecFrameLength]
		for {
			sum := 0
			for _, v := range blk {
				sum += v >> uint(shifts[b])
			}
			if sum <= maxPulses {
				sums[b] = sum
				break
			}
			shifts[b]++
		}
	}

	rateLevel := pulseRateLevel(sums[:nBlocks], shifts[:nBlocks], signalType)
	rc.Encode(rateLevelCDF[signalType], rateLevel)

	for b := 0; b < nBlocks; b++ {
		cdf := pulseCountCDF[rateLevel]
		for k := 0; k < shifts[b]; k++ {
			rc.Encode(cdf, maxPulsesSymbol)
			cdf = pulseCountCDF[nRateLevels-1]
		}
		rc.Encode(cdf, sums[b])
	}

	var shifted [shellCodecFrameLength]int
	for b := 0; b < nBlocks; b++ {
		if sums[b] == 0 {
			continue
		}
		blk := absQ[b*shellCodecFrameLength : (b+1)*shellCodecFrameLength]
		for i, v := range blk {
			shifted[i] = v >> uint(shifts[b])
		}
		shellEncode(rc, shifted[:], sums[b])
	}

	for b := 0; b < nBlocks; b++ {
		if shifts[b] == 0 {
			continue
		}
		blk := absQ[b*shellCodecFrameLength : (b+1)*shellCodecFrameLength]
		for _, v := range blk {
			for j := shifts[b] - 1; j >= 0; j-- {
				rc.Encode(lsbCDF, (v>>uint(j))&1)
			}
		}
	}

	for b := 0; b < nBlocks; b++ {
		if sums[b] == 0 && shifts[b] == 0 {
			continue
		}
		cdf := signCDF[signalType][quantOffsetType][signCDFIndex(sums[b])]
		for _, v := range q[b*shellCodecFrameLength : (b+1)*shellCodecFrameLength] {
			if v != 0 {
				rc.Encode(cdf, int(v>>7)+1)
			}
		}
	}
}

// shellEncode codes the split of sum pulses over x depth first.
func shellEncode(rc *rangecoding.Encoder, x []int, sum int) {
	if len(x) == 1 || sum == 0 {
		return
	}
	half := len(x) / 2
	left := 0
	for _, v := range x[:half] {
		left += v
	}
	rc.Encode(shellSplitCDF[sum], left)
	shellEncode(rc, x[:half], left)
	shellEncode(rc, x[half:], sum-left)
}

// decodePulses reads the excitation of one frame into q.
func decodePulses(rc *rangecoding.Decoder, q []int16, signalType, quantOffsetType int) {
	nBlocks := len(q) / shellCodecFrameLength
	var sums, shifts [maxNbShellBlocks]int

	rateLevel := rc.Decode(rateLevelCDF[signalType], 4)
	for b := 0; b < nBlocks; b++ {
		cdf := pulseCountCDF[rateLevel]
		sums[b] = rc.Decode(cdf, 0)
		for sums[b] == maxPulsesSymbol && rc.Err() == nil {
			shifts[b]++
			if shifts[b] > maxLShifts {
				// A corrupt stream; stop here and let the caller see the
				// zero excitation.
				sums[b] = 0
				break
			}
			sums[b] = rc.Decode(pulseCountCDF[nRateLevels-1], 0)
		}
	}

	var mag [shellCodecFrameLength]int
	for b := 0; b < nBlocks; b++ {
		blk := q[b*shellCodecFrameLength : (b+1)*shellCodecFrameLength]
		mag = [shellCodecFrameLength]int{}
		if sums[b] > 0 {
			shellDecode(rc, mag[:], sums[b])
		}
		for i := range blk {
			blk[i] = int16(mag[i])
		}
	}

	for b := 0; b < nBlocks; b++ {
		if shifts[b] == 0 {
			continue
		}
		blk := q[b*shellCodecFrameLength : (b+1)*shellCodecFrameLength]
		for i := range blk {
			v := int(blk[i])
			for j := 0; j < shifts[b]; j++ {
				v = v<<1 | rc.Decode(lsbCDF, 0)
			}
			blk[i] = int16(v)
		}
	}

	for b := 0; b < nBlocks; b++ {
		if sums[b] == 0 && shifts[b] == 0 {
			continue
		}
		cdf := signCDF[signalType][quantOffsetType][signCDFIndex(sums[b])]
		blk := q[b*shellCodecFrameLength : (b+1)*shellCodecFrameLength]
		for i := range blk {
			if blk[i] != 0 && rc.Decode(cdf, 1) == 0 {
				blk[i] = -blk[i]
			}
		}
	}
}

func shellDecode(rc *rangecoding.Decoder, x []int, sum int) {
	if len(x) == 1 {
		x[0] = sum
		return
	}
	half := len(x) / 2
	left := 0
	if sum > 0 {
		left = min(rc.Decode(shellSplitCDF[sum], sum>>1), sum)
	}
	shellDecode(rc, x[:half], left)
	shellDecode(rc, x[half:], sum-left)
}
