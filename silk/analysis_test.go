package silk

import (
	"math"
	"math/rand"
	"testing"
)

func TestA2NLSFRoundTrip(t *testing.T) {
	for _, order := range []int{minLPCOrder, maxLPCOrder} {
		nlsf := make([]int16, order)
		rng := rand.New(rand.NewSource(int64(order)))
		for i := range nlsf {
			base := float64(i+1) / float64(order+1)
			nlsf[i] = int16(32768 * (base + 0.01*(rng.Float64()-0.5)))
		}
		nlsfStabilize(nlsf, nlsfDeltaMin(order))

		aQ12 := make([]int16, order)
		nlsf2a(aQ12, nlsf, order)
		aQ16 := make([]int32, order)
		for i, a := range aQ12 {
			aQ16[i] = int32(a) << 4
		}
		got := make([]int16, order)
		a2nlsf(got, aQ16, order)

		for i := range nlsf {
			if d := abs16(got[i] - nlsf[i]); d > 150 {
				t.Errorf("order %d: NLSF %d: got %d, want %d", order, i, got[i], nlsf[i])
			}
		}
	}
}

func TestMSVQEncodeMatchesDecode(t *testing.T) {
	tests := []struct {
		order      int
		signalType int
		survivors  int
	}{
		{minLPCOrder, typeUnvoiced, 1},
		{minLPCOrder, typeVoiced, maxNLSFMSVQSurvivors},
		{maxLPCOrder, typeUnvoiced, maxNLSFMSVQSurvivorsMC},
		{maxLPCOrder, typeVoiced, maxNLSFMSVQSurvivors},
	}
	var sc msvqScratch
	for _, tt := range tests {
		cb := nlsfCodebookFor(tt.order, tt.signalType)
		nlsf := uniformNLSF(tt.order)
		for i := range nlsf {
			nlsf[i] += int16(300 * math.Sin(float64(i)))
		}
		nlsfStabilize(nlsf, cb.deltaMinQ15)

		x := make([]float64, tt.order)
		for i := range x {
			x[i] = float64(nlsf[i]) / 32768
		}
		w := make([]float64, tt.order)
		nlsfWeightsLaroia(w, x)

		indices := make([]int, len(cb.stages))
		q := make([]int16, tt.order)
		cb.msvqEncode(indices, q, nlsf, nlsf, w, 0.001, 0.1, tt.survivors, &sc)

		for s, idx := range indices {
			if idx < 0 || idx >= cb.stages[s].nVectors {
				t.Fatalf("order %d stage %d: index %d out of range", tt.order, s, idx)
			}
		}
		dec := make([]int16, tt.order)
		cb.decode(dec, indices)
		for i := range q {
			if q[i] != dec[i] {
				t.Fatalf("order %d: encoder output %v differs from decode %v", tt.order, q, dec)
			}
		}
	}
}

func TestQuantLTPGainsIndices(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	W := make([]float64, nbSubfr*ltpOrder*ltpOrder)
	for j := 0; j < nbSubfr; j++ {
		for i := 0; i < ltpOrder; i++ {
			W[j*ltpOrder*ltpOrder+i*ltpOrder+i] = 1
		}
	}
	for _, lowComplexity := range []bool{false, true} {
		b := make([]float64, nbSubfr*ltpOrder)
		for i := range b {
			b[i] = 0.2 * rng.Float64()
		}
		b[2], b[7], b[12], b[17] = 0.6, 0.5, 0.55, 0.4

		var idx [nbSubfr]int
		var per int
		quantLTPGains(b, &idx, &per, W, 0.01, lowComplexity)
		if per < 0 || per >= nbLTPCbks {
			t.Fatalf("periodicity index %d", per)
		}
		cb := ltpVQ(per)
		for j, i := range idx {
			if i < 0 || i >= len(cb) {
				t.Fatalf("subframe %d: index %d outside codebook of %d", j, i, len(cb))
			}
			for k := 0; k < ltpOrder; k++ {
				if want := float64(cb[i][k]) / 128; b[j*ltpOrder+k] != want {
					t.Fatalf("subframe %d tap %d: %f, want quantized %f", j, k, b[j*ltpOrder+k], want)
				}
			}
		}
	}
}

func TestPitchAnalysisFindsLag(t *testing.T) {
	tests := []struct {
		fsKHz  int
		period int
	}{
		{8, 57},
		{16, 114},
		{16, 80},
		{24, 171},
	}
	rng := rand.New(rand.NewSource(4))
	for _, tt := range tests {
		sig := make([]float64, (pitchFrameMs+5)*tt.fsKHz)
		for i := range sig {
			if i%tt.period == 0 {
				sig[i] = 1000
			}
			sig[i] += 10 * rng.NormFloat64()
		}
		var sc pitchScratch
		var corr float64
		res := pitchAnalysisCore(&sc, sig, 0, &corr, pitchEstThreshold[2], 0.3, tt.fsKHz, 2)
		if !res.voiced {
			t.Errorf("%d kHz period %d: classified unvoiced", tt.fsKHz, tt.period)
			continue
		}
		for k, lag := range res.pitchL {
			if math.Abs(float64(lag-tt.period)) > 0.03*float64(tt.period)+1 {
				t.Errorf("%d kHz period %d: subframe %d lag %d", tt.fsKHz, tt.period, k, lag)
			}
		}
	}
}

func TestPitchAnalysisRejectsNoise(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	sig := make([]float64, (pitchFrameMs+5)*16)
	for i := range sig {
		sig[i] = 1000 * rng.NormFloat64()
	}
	var sc pitchScratch
	var corr float64
	if res := pitchAnalysisCore(&sc, sig, 0, &corr, pitchEstThreshold[2], 0.5, 16, 2); res.voiced {
		t.Errorf("white noise classified voiced with lags %v", res.pitchL)
	}
}

func TestComplexitySelectsQuantizer(t *testing.T) {
	want := []string{"greedy", "delayed-decision", "delayed-decision"}
	for c, name := range want {
		ctl := defaultControl()
		ctl.Complexity = c
		enc, err := NewEncoder(ctl)
		if err != nil {
			t.Fatal(err)
		}
		if enc.Variant() != name {
			t.Errorf("complexity %d: quantizer %s, want %s", c, enc.Variant(), name)
		}
	}
}
