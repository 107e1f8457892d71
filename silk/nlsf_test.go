package silk

import "testing"

func uniformNLSF(order int) []int16 {
	nlsf := make([]int16, order)
	for i := range nlsf {
		nlsf[i] = int16((i + 1) * 32767 / (order + 1))
	}
	return nlsf
}

func TestNLSF2AStable(t *testing.T) {
	for _, order := range []int{minLPCOrder, maxLPCOrder} {
		aQ12 := make([]int16, order)
		nlsf2aStable(aQ12, uniformNLSF(order), order)
		if lpcInversePredGain(aQ12) == 0 {
			t.Errorf("order %d: filter from uniform NLSFs is unstable", order)
		}
	}
}

func TestNLSFStabilizeSpacing(t *testing.T) {
	tests := []struct {
		name string
		in   []int16
	}{
		{"collapsed", []int16{1000, 1000, 1000, 1000, 1000, 1000, 1000, 1000, 1000, 1000}},
		{"reversed", []int16{30000, 27000, 24000, 21000, 18000, 15000, 12000, 9000, 6000, 3000}},
		{"at edges", []int16{0, 10, 20, 30, 40, 32700, 32710, 32720, 32730, 32767}},
	}
	delta := nlsfDeltaMin(minLPCOrder)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x := append([]int16(nil), tt.in...)
			nlsfStabilize(x, delta)
			if x[0] < delta[0] {
				t.Fatalf("first NLSF %d below %d", x[0], delta[0])
			}
			for i := 1; i < len(x); i++ {
				if int32(x[i])-int32(x[i-1]) < int32(delta[i]) {
					t.Fatalf("spacing at %d is %d, want >= %d (%v)", i, x[i]-x[i-1], delta[i], x)
				}
			}
			if int32(x[len(x)-1]) > 32768-int32(delta[len(x)]) {
				t.Fatalf("last NLSF %d too close to pi", x[len(x)-1])
			}
		})
	}
}

func TestBWExpanderIdentity(t *testing.T) {
	a := []int16{4000, -2000, 1000, -500}
	b := append([]int16(nil), a...)
	bwExpander(b, 65536)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("chirp 1.0 changed coefficient %d: %d -> %d", i, a[i], b[i])
		}
	}
	bwExpander(b, 32768)
	for i := range a {
		if abs16(b[i]) > abs16(a[i]) {
			t.Fatalf("chirp 0.5 grew coefficient %d: %d -> %d", i, a[i], b[i])
		}
	}
}

func TestInterpolateNLSF(t *testing.T) {
	prev := []int16{1000, 2000}
	cur := []int16{3000, 6000}
	out := make([]int16, 2)
	interpolateNLSF(out, prev, cur, 2)
	if out[0] != 2000 || out[1] != 4000 {
		t.Fatalf("half-way interpolation = %v, want [2000 4000]", out)
	}
	interpolateNLSF(out, prev, cur, 4)
	if out[0] != 3000 || out[1] != 6000 {
		t.Fatalf("full interpolation = %v, want cur", out)
	}
}

func TestNLSFCodebookDecodeStable(t *testing.T) {
	for _, order := range []int{minLPCOrder, maxLPCOrder} {
		for _, sig := range []int{typeVoiced, typeUnvoiced} {
			cb := nlsfCodebookFor(order, sig)
			var indices [nlsfMSVQMaxCBStages]int
			nlsf := make([]int16, order)
			cb.decode(nlsf, indices[:len(cb.stages)])
			for i := 1; i < order; i++ {
				if nlsf[i] <= nlsf[i-1] {
					t.Fatalf("order %d type %d: NLSFs not increasing: %v", order, sig, nlsf)
				}
			}
		}
	}
}

func abs16(x int16) int16 {
	if x < 0 {
		return -x
	}
	return x
}
