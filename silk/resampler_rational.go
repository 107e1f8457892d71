package silk

import "math"

const (
	polyphaseTapsPerSide = 8
	polyphaseKaiserBeta  = 6.0
	minResamplerHz       = 8000
	maxResamplerHz       = 48000
)

// polyphaseFIR converts between any two rates with the ratio up/down
// reduced to lowest terms. Each output sample picks one of up phases of a
// Kaiser-windowed sinc; the cutoff follows the lower of the two Nyquist
// rates. The filter delays the signal by taps/2 input samples.
type polyphaseFIR struct {
	up, down int
	taps     int
	coefs    []float32 // up rows of taps coefficients

	// pos is the position of the next output sample in units of 1/up input
	// samples, relative to the first sample of the next input block.
	pos  int
	hist []float32
	work []float32
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

func newPolyphaseFIR(fsIn, fsOut int) *polyphaseFIR {
	g := gcd(fsIn, fsOut)
	f := &polyphaseFIR{up: fsOut / g, down: fsIn / g}

	// Downsampling widens the filter so the transition band scales with
	// the output rate.
	cutoff := 1.0
	taps := 2 * polyphaseTapsPerSide
	if f.down > f.up {
		cutoff = float64(f.up) / float64(f.down)
		taps = 2 * int(math.Ceil(polyphaseTapsPerSide/cutoff))
	}
	f.taps = taps
	f.coefs = make([]float32, f.up*taps)
	f.hist = make([]float32, taps-1)

	half := float64(taps / 2)
	for ph := 0; ph < f.up; ph++ {
		row := f.coefs[ph*taps : (ph+1)*taps]
		var sum float64
		for t := range row {
			x := float64(t) - half + float64(ph)/float64(f.up)
			v := cutoff * sinc(cutoff*x) * kaiserWindow(x/(half+1), polyphaseKaiserBeta)
			row[t] = float32(v)
			sum += v
		}
		if sum > 0 {
			for t := range row {
				row[t] = float32(float64(row[t]) / sum)
			}
		}
	}
	return f
}

func sinc(x float64) float64 {
	if math.Abs(x) < 1e-10 {
		return 1
	}
	return math.Sin(math.Pi*x) / (math.Pi * x)
}

// kaiserWindow evaluates the Kaiser window at x in (-1, 1).
func kaiserWindow(x, beta float64) float64 {
	if x <= -1 || x >= 1 {
		return 0
	}
	return bessel0(beta*math.Sqrt(1-x*x)) / bessel0(beta)
}

// bessel0 is the modified Bessel function of the first kind, order 0.
func bessel0(x float64) float64 {
	sum, term := 1.0, 1.0
	for k := 1; k < 50; k++ {
		h := x / (2 * float64(k))
		term *= h * h
		sum += term
		if term < 1e-12*sum {
			break
		}
	}
	return sum
}

func (f *polyphaseFIR) reset() {
	clear(f.hist)
	f.pos = 0
}

// outLen returns the number of samples the next call to process produces
// for n input samples.
func (f *polyphaseFIR) outLen(n int) int {
	span := n*f.up - f.pos
	if span <= 0 {
		return 0
	}
	return (span + f.down - 1) / f.down
}

// process filters in and writes outLen(len(in)) samples to out.
func (f *polyphaseFIR) process(out, in []int16) int {
	buf := append(f.work[:0], f.hist...)
	for _, v := range in {
		buf = append(buf, float32(v))
	}
	f.work = buf

	end := len(in) * f.up
	n := 0
	for ; f.pos < end; f.pos += f.down {
		base := len(f.hist) + f.pos/f.up
		row := f.coefs[(f.pos%f.up)*f.taps:][:f.taps]
		var acc float32
		for t, c := range row {
			acc += buf[base-t] * c
		}
		if n < len(out) {
			out[n] = silkSAT16(int32(math.Round(float64(acc))))
		}
		n++
	}
	f.pos -= end
	copy(f.hist, buf[len(buf)-len(f.hist):])
	return min(n, len(out))
}
