package silk

import "math/bits"

// Fixed-point helpers. Names follow the SigProc macro set; all arithmetic
// wraps in int32 unless the name says SAT.

func silkAbs32(x int32) int32 {
	if x < 0 {
		return -x
	}
	return x
}

func silkAbsInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func silkMin32(a, b int32) int32 {
	if a < b {
		return a
	}
	return b
}

func silkMax32(a, b int32) int32 {
	if a > b {
		return a
	}
	return b
}

func silkLimit32(x, lo, hi int32) int32 {
	if lo > hi {
		lo, hi = hi, lo
	}
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

func silkLimitInt(x, lo, hi int) int {
	if lo > hi {
		lo, hi = hi, lo
	}
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

func silkRSHIFT_ROUND(x int32, shift int) int32 {
	if shift <= 0 {
		return x << uint(-shift)
	}
	if shift == 1 {
		return (x >> 1) + (x & 1)
	}
	return ((x >> uint(shift-1)) + 1) >> 1
}

func silkRSHIFT_ROUND64(x int64, shift int) int64 {
	if shift <= 0 {
		return x
	}
	if shift == 1 {
		return (x >> 1) + (x & 1)
	}
	return ((x >> uint(shift-1)) + 1) >> 1
}

// silkSMULWB is (a * int16(b)) >> 16.
func silkSMULWB(a, b int32) int32 {
	return int32((int64(a) * int64(int16(b))) >> 16)
}

func silkSMLAWB(a, b, c int32) int32 {
	return a + silkSMULWB(b, c)
}

// silkSMULWT is (a * (b >> 16)) >> 16.
func silkSMULWT(a, b int32) int32 {
	return int32((int64(a) * int64(b>>16)) >> 16)
}

func silkSMLAWT(a, b, c int32) int32 {
	return a + silkSMULWT(b, c)
}

func silkSMULBB(a, b int32) int32 {
	return int32(int16(a)) * int32(int16(b))
}

func silkSMLABB(a, b, c int32) int32 {
	return a + silkSMULBB(b, c)
}

func silkSMULWW(a, b int32) int32 {
	return int32((int64(a) * int64(b)) >> 16)
}

func silkSMLAWW(a, b, c int32) int32 {
	return a + silkSMULWW(b, c)
}

func silkSMULL(a, b int32) int64 {
	return int64(a) * int64(b)
}

func silkSMMUL(a, b int32) int32 {
	return int32(silkSMULL(a, b) >> 32)
}

func silkMUL(a, b int32) int32 {
	return a * b
}

func silkSAT16(x int32) int16 {
	if x > 32767 {
		return 32767
	}
	if x < -32768 {
		return -32768
	}
	return int16(x)
}

func silkAddSat32(a, b int32) int32 {
	v := int64(a) + int64(b)
	if v > 0x7FFFFFFF {
		return 0x7FFFFFFF
	}
	if v < -0x80000000 {
		return -0x80000000
	}
	return int32(v)
}

func silkSubSat32(a, b int32) int32 {
	v := int64(a) - int64(b)
	if v > 0x7FFFFFFF {
		return 0x7FFFFFFF
	}
	if v < -0x80000000 {
		return -0x80000000
	}
	return int32(v)
}

func silkLShiftSAT32(x int32, shift int) int32 {
	v := int64(x) << uint(shift)
	if v > 0x7FFFFFFF {
		return 0x7FFFFFFF
	}
	if v < -0x80000000 {
		return -0x80000000
	}
	return int32(v)
}

// silkDiv32VarQ returns (a << q) / b, saturated.
func silkDiv32VarQ(a, b int32, q int) int32 {
	if b == 0 {
		if a >= 0 {
			return 0x7FFFFFFF
		}
		return -0x80000000
	}
	res := (int64(a) << uint(q)) / int64(b)
	if res > 0x7FFFFFFF {
		return 0x7FFFFFFF
	}
	if res < -0x80000000 {
		return -0x80000000
	}
	return int32(res)
}

// silkInverse32VarQ returns (1 << q) / b, saturated.
func silkInverse32VarQ(b int32, q int) int32 {
	if b == 0 {
		return 0x7FFFFFFF
	}
	res := (int64(1) << uint(q)) / int64(b)
	if res > 0x7FFFFFFF {
		return 0x7FFFFFFF
	}
	if res < -0x80000000 {
		return -0x80000000
	}
	return int32(res)
}

func silkCLZ32(x int32) int32 {
	return int32(bits.LeadingZeros32(uint32(x)))
}

// silkCLZ_FRAC returns the leading zero count and the 7 bits following the
// leading one.
func silkCLZ_FRAC(in int32) (lz, fracQ7 int32) {
	lz = silkCLZ32(in)
	fracQ7 = int32(bits.RotateLeft32(uint32(in), -int(24-lz)) & 0x7F)
	return lz, fracQ7
}

// silkSqrtApprox approximates sqrt(x) with about 10 bits of precision.
func silkSqrtApprox(x int32) int32 {
	if x <= 0 {
		return 0
	}
	lz, frac := silkCLZ_FRAC(x)
	var y int32
	if lz&1 != 0 {
		y = 32768
	} else {
		y = 46214 // sqrt(2) * 32768
	}
	y >>= uint(lz >> 1)
	return silkSMLAWB(y, y, silkSMULBB(213, frac))
}

// silkRAND is the linear congruential generator shared by encoder and
// decoder.
func silkRAND(seed int32) int32 {
	return 907633515 + seed*196314165
}

// silkLog2Lin approximates 2^(x/128).
func silkLog2Lin(inLogQ7 int32) int32 {
	if inLogQ7 < 0 {
		return 0
	}
	if inLogQ7 >= 3967 {
		return 0x7FFFFFFF
	}
	out := int32(1) << uint(inLogQ7>>7)
	fracQ7 := inLogQ7 & 0x7F
	interp := silkSMLAWB(fracQ7, silkSMULBB(fracQ7, 128-fracQ7), -174)
	if inLogQ7 < 2048 {
		return out + (silkMUL(out, interp) >> 7)
	}
	return out + (out>>7)*interp
}

// silkLin2Log approximates 128 * log2(x).
func silkLin2Log(inLin int32) int32 {
	if inLin <= 0 {
		return 0
	}
	lz, fracQ7 := silkCLZ_FRAC(inLin)
	return silkSMLAWB(fracQ7, silkMUL(fracQ7, 128-fracQ7), 179) + (31-lz)<<7
}

// silkSumSqrShift returns the energy of x and the right shift applied to
// keep it within 31 bits.
func silkSumSqrShift(x []int16) (nrg int32, shift int) {
	var acc int64
	for _, v := range x {
		acc += int64(v) * int64(v)
	}
	for acc > 0x3FFFFFFF {
		acc >>= 1
		shift++
	}
	return int32(acc), shift
}

func silkFixConst(x float64, q int) int32 {
	return int32(x*float64(int64(1)<<uint(q)) + 0.5)
}
