package silk

import "testing"

func TestGainsQuantDequantAgree(t *testing.T) {
	tests := []struct {
		name        string
		gains       [nbSubfr]int32
		prevInd     int
		conditional bool
	}{
		{"flat", [nbSubfr]int32{100 << 16, 100 << 16, 100 << 16, 100 << 16}, 10, false},
		{"rising", [nbSubfr]int32{10 << 16, 100 << 16, 1000 << 16, 10000 << 16}, 10, false},
		{"falling conditional", [nbSubfr]int32{5000 << 16, 500 << 16, 50 << 16, 5 << 16}, 40, true},
		{"quiet", [nbSubfr]int32{1 << 16, 1 << 16, 2 << 16, 1 << 16}, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ind [nbSubfr]int
			q := tt.gains
			lastEnc := gainsQuant(ind[:], q[:], tt.prevInd, tt.conditional)

			var dq [nbSubfr]int32
			lastDec := gainsDequant(dq[:], ind[:], tt.prevInd, tt.conditional)
			if lastEnc != lastDec {
				t.Fatalf("last index: encoder %d, decoder %d", lastEnc, lastDec)
			}
			if q != dq {
				t.Fatalf("gains differ: encoder %v, decoder %v", q, dq)
			}
		})
	}
}

func TestGainIndexMonotonic(t *testing.T) {
	prev := gainIndexToQ16(0)
	for i := 1; i < nLevelsQGain; i++ {
		g := gainIndexToQ16(i)
		if g <= prev {
			t.Fatalf("gain at index %d (%d) not above index %d (%d)", i, g, i-1, prev)
		}
		prev = g
	}
}
