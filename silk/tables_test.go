package silk

import (
	"testing"

	"github.com/thesyncim/gosilk/rangecoding"
)

func symbols(cdf []uint16) int {
	return len(cdf) - 1
}

func TestEntropyTablesValid(t *testing.T) {
	tables := map[string][]uint16{
		"pitch lag high":   pitchLagHighCDF,
		"pitch contour nb": pitchContourNBCDF,
		"pitch contour":    pitchContourCDF,
		"lsb":              lsbCDF,
		"delta gain":       deltaGainCDF,
		"ltp periodicity":  ltpPerIndexCDF,
	}
	for i, cdf := range pitchLagLowCDF {
		tables["pitch lag low "+string(rune('0'+i))] = cdf
	}
	for r, cdf := range pulseCountCDF {
		tables["pulse count "+string(rune('0'+r))] = cdf
	}
	for name, cdf := range tables {
		if !rangecoding.Valid(cdf) {
			t.Errorf("%s: invalid cdf %v", name, cdf)
		}
	}
	for p, cdf := range shellSplitCDF {
		if !rangecoding.Valid(cdf) {
			t.Errorf("shell split %d: invalid cdf %v", p, cdf)
		}
	}
	for s := range signCDF {
		for q := range signCDF[s] {
			for p, cdf := range signCDF[s][q] {
				if !rangecoding.Valid(cdf) || symbols(cdf) != 2 {
					t.Errorf("sign %d/%d/%d: invalid cdf %v", s, q, p, cdf)
				}
			}
		}
	}
}

func TestEntropyTableSizes(t *testing.T) {
	tests := []struct {
		name string
		cdf  []uint16
		want int
	}{
		{"pitch lag high", pitchLagHighCDF, 32},
		{"pitch contour nb", pitchContourNBCDF, nbCbksStage2Ext},
		{"pitch contour", pitchContourCDF, nbCbksStage3Max},
		{"pulse count", pulseCountCDF[0], maxPulsesSymbol + 1},
		{"pulse count after shift", pulseCountCDF[nRateLevels-1], maxPulsesSymbol + 1},
	}
	for _, tt := range tests {
		if got := symbols(tt.cdf); got != tt.want {
			t.Errorf("%s: %d symbols, want %d", tt.name, got, tt.want)
		}
	}
	if len(pulseCountCDF) != nRateLevels {
		t.Errorf("%d pulse count tables, want %d", len(pulseCountCDF), nRateLevels)
	}
	for i, fsKHz := range samplingRatesKHz {
		if got := symbols(pitchLagLowCDF[i]); got != fsKHz/2 {
			t.Errorf("%d kHz: %d low lag symbols, want %d", fsKHz, got, fsKHz/2)
		}
		// High and low parts together cover every lag.
		if lags := 32 * (fsKHz / 2); lags != (pitchEstMaxLagMs-pitchEstMinLagMs)*fsKHz {
			t.Errorf("%d kHz: lag index range %d", fsKHz, lags)
		}
	}
	for p, cdf := range shellSplitCDF {
		if symbols(cdf) != p+1 {
			t.Errorf("shell split %d: %d symbols", p, symbols(cdf))
		}
	}
	if len(shellSplitCDF) != maxPulses+1 {
		t.Errorf("%d shell split tables, want %d", len(shellSplitCDF), maxPulses+1)
	}
}

func TestNLSFResidualStages(t *testing.T) {
	for _, order := range []int{minLPCOrder, maxLPCOrder} {
		for _, sig := range []int{typeVoiced, typeUnvoiced} {
			cb := nlsfCodebookFor(order, sig)
			if !rangecoding.Valid(cb.stages[0].cdf) || cb.stages[0].nVectors != 32 {
				t.Fatalf("order %d type %d: bad first stage", order, sig)
			}
			for s := 1; s < len(cb.stages); s++ {
				st := &cb.stages[s]
				if !rangecoding.Valid(st.cdf) || symbols(st.cdf) != st.nVectors {
					t.Fatalf("order %d stage %d: cdf %v for %d vectors", order, s, st.cdf, st.nVectors)
				}
				// The most probable vector leaves the NLSFs unchanged.
				cheapest := 0
				for i := 0; i < st.nVectors; i++ {
					if st.cdf[i+1]-st.cdf[i] > st.cdf[cheapest+1]-st.cdf[cheapest] {
						cheapest = i
					}
				}
				for i, v := range st.vector(cheapest, order) {
					if v != 0 {
						t.Fatalf("order %d stage %d: cheapest vector %d has %d at %d", order, s, cheapest, v, i)
					}
				}
				nonZero := 0
				for k := 0; k < st.nVectors; k++ {
					for _, v := range st.vector(k, order) {
						if v != 0 {
							nonZero++
							break
						}
					}
				}
				if nonZero != st.nVectors-1 {
					t.Fatalf("order %d stage %d: %d non-zero vectors, want %d", order, s, nonZero, st.nVectors-1)
				}
			}
		}
	}
}
