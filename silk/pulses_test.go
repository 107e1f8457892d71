package silk

import (
	"math/rand"
	"testing"

	"github.com/thesyncim/gosilk/rangecoding"
)

func TestPulsesRoundTrip(t *testing.T) {
	tests := []struct {
		name       string
		length     int
		maxAbs     int
		signalType int
		qoff       int
	}{
		{"nb silence", 160, 0, typeUnvoiced, 0},
		{"nb sparse", 160, 1, typeUnvoiced, 1},
		{"wb voiced", 320, 3, typeVoiced, 0},
		{"swb dense", 480, 6, typeVoiced, 1},
		{"large pulses", 320, 40, typeUnvoiced, 0},
	}
	rng := rand.New(rand.NewSource(7))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := make([]int8, tt.length)
			for i := range q {
				if tt.maxAbs > 0 {
					q[i] = int8(rng.Intn(2*tt.maxAbs+1) - tt.maxAbs)
				}
			}

			var enc rangecoding.Encoder
			buf := make([]byte, rangecoding.MaxPayloadBytes)
			enc.Init(buf)
			encodePulses(&enc, q, tt.signalType, tt.qoff)
			payload := enc.Done()
			if payload == nil {
				t.Fatalf("encode failed: %v", enc.Err())
			}

			var dec rangecoding.Decoder
			dec.Init(payload)
			got := make([]int16, tt.length)
			decodePulses(&dec, got, tt.signalType, tt.qoff)
			if err := dec.Err(); err != nil {
				t.Fatalf("decode failed: %v", err)
			}
			for i := range q {
				if int16(q[i]) != got[i] {
					t.Fatalf("pulse %d: got %d, want %d", i, got[i], q[i])
				}
			}
		})
	}
}

func TestIndicesRoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		fsKHz int
		si    sideInfo
	}{
		{
			name:  "unvoiced nb",
			fsKHz: 8,
			si: sideInfo{
				signalType:      typeUnvoiced,
				quantOffsetType: 1,
				gainsIndices:    [nbSubfr]int{20, 4, 5, 6},
				nlsfInterpQ2:    4,
				seed:            2,
			},
		},
		{
			name:  "voiced wb",
			fsKHz: 16,
			si: sideInfo{
				signalType:    typeVoiced,
				gainsIndices:  [nbSubfr]int{33, 3, 4, 8},
				nlsfIndices:   [nlsfMSVQMaxCBStages]int{3, 1, 0, 2},
				nlsfInterpQ2:  2,
				lagIndex:      100,
				contourIndex:  5,
				perIndex:      1,
				ltpIndex:      [nbSubfr]int{0, 3, 7, 15},
				ltpScaleIndex: 1,
				seed:          3,
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var enc rangecoding.Encoder
			buf := make([]byte, rangecoding.MaxPayloadBytes)
			enc.Init(buf)
			encodeIndices(&enc, &tt.si, tt.fsKHz, true, 0)
			payload := enc.Done()
			if payload == nil {
				t.Fatalf("encode failed: %v", enc.Err())
			}

			var dec rangecoding.Decoder
			dec.Init(payload)
			var got sideInfo
			fs := decodeIndices(&dec, &got, 24, true, 0)
			if fs != tt.fsKHz {
				t.Fatalf("rate = %d kHz, want %d", fs, tt.fsKHz)
			}
			if got != tt.si {
				t.Fatalf("side info mismatch:\ngot  %+v\nwant %+v", got, tt.si)
			}
		})
	}
}
