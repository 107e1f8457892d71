// Package testsignal generates deterministic signals for codec tests and
// demos.
package testsignal

import (
	"math"
	"math/rand"
)

// Speech returns n samples at fsHz of a 140 Hz glottal pulse train shaped
// by formants at 700 and 1800 Hz. The signal alternates 200 ms of voicing
// with 100 ms of near-silence, so encoders see both active and inactive
// frames.
func Speech(fsHz, n int, seed int64) []int16 {
	rng := rand.New(rand.NewSource(seed))
	out := make([]int16, n)
	fs := float64(fsHz)
	var y1, y2, z1, z2 float64
	r1, f1 := 0.97, 700.0
	r2, f2 := 0.95, 1800.0
	a1, a2 := 2*r1*math.Cos(2*math.Pi*f1/fs), -r1*r1
	b1, b2 := 2*r2*math.Cos(2*math.Pi*f2/fs), -r2*r2
	period := int(fs / 140)
	for i := range out {
		var x float64
		if i%period == 0 {
			x = 3000
		}
		x += 40 * rng.NormFloat64()
		y := x + a1*y1 + a2*y2
		y2, y1 = y1, y
		z := y + b1*z1 + b2*z2
		z2, z1 = z1, z

		t := float64(i%(fsHz*3/10)) / fs
		env := 0.0
		if t < 0.2 {
			env = math.Sin(math.Pi * t / 0.2)
		}
		out[i] = clamp16(0.05 * z * env)
	}
	return out
}

// Sine returns n samples of a tone of the given frequency and peak
// amplitude.
func Sine(fsHz int, freq, amp float64, n int) []int16 {
	out := make([]int16, n)
	for i := range out {
		out[i] = clamp16(amp * math.Sin(2*math.Pi*freq*float64(i)/float64(fsHz)))
	}
	return out
}

// Noise returns n samples of Gaussian noise with the given standard
// deviation.
func Noise(n int, sigma float64, seed int64) []int16 {
	rng := rand.New(rand.NewSource(seed))
	out := make([]int16, n)
	for i := range out {
		out[i] = clamp16(sigma * rng.NormFloat64())
	}
	return out
}

// Energy returns the mean square of x.
func Energy(x []int16) float64 {
	if len(x) == 0 {
		return 0
	}
	var e float64
	for _, v := range x {
		e += float64(v) * float64(v)
	}
	return e / float64(len(x))
}

// Frames splits x into consecutive frames of n samples, dropping a short
// tail.
func Frames(x []int16, n int) [][]int16 {
	var out [][]int16
	for len(x) >= n {
		out = append(out, x[:n:n])
		x = x[n:]
	}
	return out
}

func clamp16(v float64) int16 {
	return int16(math.Max(-32768, math.Min(32767, math.Round(v))))
}
