package rangecoding

import "testing"

func TestTableBuilders(t *testing.T) {
	tests := []struct {
		name string
		cdf  []uint16
		n    int
	}{
		{"uniform 1", Uniform(1), 1},
		{"uniform 3", Uniform(3), 3},
		{"uniform 128", Uniform(128), 128},
		{"frequencies", FromFrequencies([]int{0, 0, 5, 0}), 4},
		{"frequencies all zero", FromFrequencies([]int{0, 0}), 2},
		{"icdf", FromICDF([]uint8{255, 254, 253, 0}), 4},
		{"icdf flat tail", FromICDF([]uint8{128, 0, 0, 0}), 4},
		{"icdf sign pair", FromICDF([]uint8{200, 0}), 2},
		{"icdf certain first", FromICDF([]uint8{0, 0}), 2},
		{"icdf long zero tail", FromICDF([]uint8{250, 100, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0}), 17},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if len(tt.cdf) != tt.n+1 {
				t.Fatalf("len = %d, want %d", len(tt.cdf), tt.n+1)
			}
			if !Valid(tt.cdf) {
				t.Fatalf("invalid cdf %v", tt.cdf)
			}
		})
	}
}

func TestCostOrdering(t *testing.T) {
	cdf := FromFrequencies([]int{100, 10, 1})
	c0, c1, c2 := Cost(cdf, 0), Cost(cdf, 1), Cost(cdf, 2)
	if !(c0 < c1 && c1 < c2) {
		t.Fatalf("costs not ordered by probability: %d %d %d", c0, c1, c2)
	}
	if got := Cost(Uniform(2), 0); got < 28 || got > 36 {
		t.Fatalf("cost of a fair bit = %d Q5, want about 32", got)
	}
}

func TestFromICDFKeepsProbabilities(t *testing.T) {
	cdf := FromICDF([]uint8{192, 128, 0, 0})
	if got := int(cdf[1]); got < 16300 || got > 16400 {
		t.Errorf("first symbol ends at %d, want about a quarter of %d", got, CDFTop)
	}
	if got := int(cdf[2]); got < 32700 || got > 32800 {
		t.Errorf("second symbol ends at %d, want about half of %d", got, CDFTop)
	}
	// The zero-probability tail gets one count per symbol.
	if cdf[3] != CDFTop-1 || cdf[4] != CDFTop {
		t.Errorf("tail = %v, want [%d %d]", cdf[3:], CDFTop-1, CDFTop)
	}
}
