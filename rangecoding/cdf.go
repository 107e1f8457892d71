package rangecoding

// CDFTop is the final value of every CDF table.
const CDFTop = 0xFFFF

// Uniform returns a CDF with n equiprobable symbols.
func Uniform(n int) []uint16 {
	cdf := make([]uint16, n+1)
	for i := 1; i < n; i++ {
		cdf[i] = uint16(i * CDFTop / n)
	}
	cdf[n] = CDFTop
	return cdf
}

// FromFrequencies builds a CDF from relative symbol frequencies. Every
// symbol receives a non-zero interval so that it stays encodable.
func FromFrequencies(freq []int) []uint16 {
	n := len(freq)
	total := 0
	for _, f := range freq {
		if f > 0 {
			total += f
		}
	}
	cdf := make([]uint16, n+1)
	if total == 0 {
		return Uniform(n)
	}
	// Reserve one count per symbol, spread the rest by frequency.
	spare := CDFTop - n
	acc := 0
	for i, f := range freq {
		if f < 0 {
			f = 0
		}
		acc += f
		cdf[i+1] = uint16(i + 1 + acc*spare/total)
	}
	cdf[n] = CDFTop
	return cdf
}

// FromICDF converts an 8-bit inverse CDF (256 down to 0, first entry
// implied) into a 16-bit CDF. Zero-width entries are widened by one count,
// taking the room from their neighbours when the table ends in a run of
// zeros.
func FromICDF(icdf []uint8) []uint16 {
	n := len(icdf)
	cdf := make([]uint16, n+1)
	for i := 0; i < n; i++ {
		v := (256 - int(icdf[i])) * CDFTop / 256
		v = max(v, int(cdf[i])+1)
		v = min(v, CDFTop-(n-1-i))
		cdf[i+1] = uint16(v)
	}
	cdf[n] = CDFTop
	return cdf
}

// Valid reports whether cdf starts at 0, ends at CDFTop and every symbol has
// a non-empty interval.
func Valid(cdf []uint16) bool {
	if len(cdf) < 2 || cdf[0] != 0 || cdf[len(cdf)-1] != CDFTop {
		return false
	}
	for i := 1; i < len(cdf); i++ {
		if cdf[i] <= cdf[i-1] {
			return false
		}
	}
	return true
}

// Cost returns the approximate cost of coding symbol s in Q5 bits.
func Cost(cdf []uint16, s int) int {
	w := int(cdf[s+1]) - int(cdf[s])
	if w <= 0 {
		return 16 << 5
	}
	return log2Q5(CDFTop) - log2Q5(w)
}

// log2Q5 returns log2(x) in Q5 using a piecewise linear approximation.
func log2Q5(x int) int {
	if x <= 0 {
		return 0
	}
	lz := 0
	for v := x; v > 1; v >>= 1 {
		lz++
	}
	// Fractional part from the bits below the leading one.
	var frac int
	if lz >= 5 {
		frac = (x >> uint(lz-5)) & 31
	} else {
		frac = (x << uint(5-lz)) & 31
	}
	return lz<<5 + frac
}
