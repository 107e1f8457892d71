package silk

import (
	"math"
	"testing"
)

func TestSAT16(t *testing.T) {
	tests := []struct {
		in   int32
		want int16
	}{
		{0, 0},
		{32767, 32767},
		{32768, 32767},
		{-32768, -32768},
		{-40000, -32768},
		{1 << 30, 32767},
	}
	for _, tt := range tests {
		if got := silkSAT16(tt.in); got != tt.want {
			t.Errorf("silkSAT16(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestRSHIFTRound(t *testing.T) {
	tests := []struct {
		x     int32
		shift int
		want  int32
	}{
		{5, 1, 3},
		{4, 1, 2},
		{-5, 1, -2},
		{1023, 10, 1},
		{511, 10, 0},
	}
	for _, tt := range tests {
		if got := silkRSHIFT_ROUND(tt.x, tt.shift); got != tt.want {
			t.Errorf("silkRSHIFT_ROUND(%d, %d) = %d, want %d", tt.x, tt.shift, got, tt.want)
		}
	}
}

func TestRANDDeterministic(t *testing.T) {
	a, b := int32(42), int32(42)
	for i := 0; i < 100; i++ {
		a = silkRAND(a)
		b = silkRAND(b)
	}
	if a != b {
		t.Fatalf("silkRAND diverged: %d != %d", a, b)
	}
	if silkRAND(0) != 907633515 {
		t.Fatalf("silkRAND(0) = %d", silkRAND(0))
	}
}

func TestSqrtApprox(t *testing.T) {
	for _, x := range []int32{1, 100, 65536, 1 << 20, 123456789, math.MaxInt32} {
		got := float64(silkSqrtApprox(x))
		want := math.Sqrt(float64(x))
		if math.Abs(got-want) > 0.02*want+1 {
			t.Errorf("silkSqrtApprox(%d) = %.0f, want about %.0f", x, got, want)
		}
	}
	if silkSqrtApprox(0) != 0 || silkSqrtApprox(-5) != 0 {
		t.Error("silkSqrtApprox of non-positive input should be 0")
	}
}

func TestDiv32VarQ(t *testing.T) {
	if got := silkDiv32VarQ(1, 2, 16); got != 32768 {
		t.Errorf("silkDiv32VarQ(1, 2, 16) = %d, want 32768", got)
	}
	if got := silkDiv32VarQ(1<<20, 1, 16); got != math.MaxInt32 {
		t.Errorf("overflow not saturated: %d", got)
	}
	if got := silkDiv32VarQ(-1, 0, 16); got != math.MinInt32 {
		t.Errorf("division by zero = %d, want MinInt32", got)
	}
}

func TestSumSqrShift(t *testing.T) {
	x := []int16{3, 4}
	nrg, shift := silkSumSqrShift(x)
	if nrg != 25 || shift != 0 {
		t.Fatalf("got (%d, %d), want (25, 0)", nrg, shift)
	}

	loud := make([]int16, 480)
	for i := range loud {
		loud[i] = 32767
	}
	nrg, shift = silkSumSqrShift(loud)
	if nrg > 0x3FFFFFFF || nrg <= 0 {
		t.Fatalf("energy %d not normalized", nrg)
	}
	full := float64(nrg) * math.Pow(2, float64(shift))
	want := 480 * 32767.0 * 32767.0
	if math.Abs(full-want)/want > 1e-3 {
		t.Fatalf("reconstructed energy %g, want %g", full, want)
	}
}

func TestLog2LinInverse(t *testing.T) {
	for _, x := range []int32{128, 1000, 65536, 1 << 24} {
		back := silkLog2Lin(silkLin2Log(x))
		if math.Abs(float64(back-x)) > 0.02*float64(x) {
			t.Errorf("log2lin(lin2log(%d)) = %d", x, back)
		}
	}
}
