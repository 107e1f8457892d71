package rangecoding

import (
	"errors"
	"math/rand"
	"testing"
)

// Range coder round-trip tests verify that encode->decode produces identical symbols.

func TestRoundTripRandomSymbols(t *testing.T) {
	tests := []struct {
		name    string
		cdf     []uint16
		numSyms int
	}{
		{"binary", []uint16{0, 40000, 65535}, 200},
		{"uniform 4", Uniform(4), 300},
		{"uniform 41", Uniform(41), 150},
		{"skewed", FromFrequencies([]int{1000, 10, 1, 1, 300}), 400},
		{"icdf", FromICDF([]uint8{179, 99, 0}), 250},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rng := rand.New(rand.NewSource(42))
			nsym := len(tt.cdf) - 1
			syms := make([]int, tt.numSyms)
			for i := range syms {
				syms[i] = rng.Intn(nsym)
			}

			buf := make([]byte, MaxPayloadBytes)
			enc := &Encoder{}
			enc.Init(buf)
			for _, s := range syms {
				enc.Encode(tt.cdf, s)
			}
			payload := enc.Done()
			if err := enc.Err(); err != nil {
				t.Fatalf("encode error: %v", err)
			}

			dec := &Decoder{}
			dec.Init(payload)
			for i, want := range syms {
				got := dec.Decode(tt.cdf, nsym/2)
				if got != want {
					t.Fatalf("symbol %d: got %d, want %d", i, got, want)
				}
			}
			if err := dec.Err(); err != nil {
				t.Fatalf("decode error: %v", err)
			}
			if rem := dec.Remaining(); rem != 0 {
				t.Errorf("remaining bytes = %d, want 0", rem)
			}
			if err := dec.Check(); err != nil {
				t.Errorf("check after decoding: %v", err)
			}
		})
	}
}

func TestRoundTripMixedTables(t *testing.T) {
	tables := [][]uint16{
		Uniform(2),
		Uniform(3),
		FromFrequencies([]int{5, 1, 1, 1, 1, 1, 1, 20}),
		FromICDF([]uint8{224, 112, 44, 15, 3, 2, 1, 0}),
		{0, 37522, 41030, 44212, 65535},
		{0, 20000, 45000, 56000, 65535},
	}
	rng := rand.New(rand.NewSource(7))

	for trial := 0; trial < 50; trial++ {
		n := 1 + rng.Intn(300)
		cdfs := make([][]uint16, n)
		syms := make([]int, n)
		for i := 0; i < n; i++ {
			cdfs[i] = tables[rng.Intn(len(tables))]
			syms[i] = rng.Intn(len(cdfs[i]) - 1)
		}

		enc := &Encoder{}
		enc.Init(make([]byte, MaxPayloadBytes))
		enc.EncodeMulti(cdfs, syms)
		wantBytes, _ := enc.Len()
		payload := enc.Done()
		if payload == nil {
			t.Fatalf("trial %d: encode failed: %v", trial, enc.Err())
		}
		if len(payload) != wantBytes {
			t.Fatalf("trial %d: payload %d bytes, Len reported %d", trial, len(payload), wantBytes)
		}

		dec := &Decoder{}
		dec.Init(payload)
		got := make([]int, n)
		starts := make([]int, n)
		dec.DecodeMulti(cdfs, starts, got)
		for i := range syms {
			if got[i] != syms[i] {
				t.Fatalf("trial %d symbol %d: got %d, want %d", trial, i, got[i], syms[i])
			}
		}
		if err := dec.Check(); err != nil {
			t.Fatalf("trial %d: check: %v", trial, err)
		}
	}
}

func TestEncoderDeterminism(t *testing.T) {
	cdf := FromFrequencies([]int{3, 1, 4, 1, 5, 9, 2, 6})
	syms := []int{0, 5, 5, 7, 2, 1, 4, 4, 3, 0, 6, 5}

	var first []byte
	for run := 0; run < 5; run++ {
		enc := &Encoder{}
		enc.Init(make([]byte, 64))
		for _, s := range syms {
			enc.Encode(cdf, s)
		}
		out := enc.Done()
		if run == 0 {
			first = append([]byte(nil), out...)
			continue
		}
		if string(out) != string(first) {
			t.Fatalf("run %d produced %x, want %x", run, out, first)
		}
	}
}

func TestEncoderWriteBeyondBufferIsSticky(t *testing.T) {
	enc := &Encoder{}
	enc.Init(make([]byte, 2))
	cdf := Uniform(256)
	for i := 0; i < 64; i++ {
		enc.Encode(cdf, i&255)
	}
	if !errors.Is(enc.Err(), ErrWriteBeyondBuffer) {
		t.Fatalf("err = %v, want ErrWriteBeyondBuffer", enc.Err())
	}
	enc.Encode(cdf, 0)
	if !errors.Is(enc.Err(), ErrWriteBeyondBuffer) {
		t.Fatalf("error was not sticky: %v", enc.Err())
	}
	if out := enc.Done(); out != nil {
		t.Fatalf("Done after error returned %d bytes", len(out))
	}
}

func TestEncoderRejectsInvalidSymbol(t *testing.T) {
	enc := &Encoder{}
	enc.Init(make([]byte, 16))
	enc.Encode(Uniform(4), 4)
	if !errors.Is(enc.Err(), ErrCDFOutOfRange) {
		t.Fatalf("err = %v, want ErrCDFOutOfRange", enc.Err())
	}
}

func TestDecoderPayloadTooLong(t *testing.T) {
	dec := &Decoder{}
	dec.Init(make([]byte, MaxPayloadBytes+1))
	if !errors.Is(dec.Err(), ErrPayloadTooLong) {
		t.Fatalf("err = %v, want ErrPayloadTooLong", dec.Err())
	}
	if got := dec.Decode(Uniform(4), 0); got != 0 {
		t.Fatalf("decode after error returned %d", got)
	}
}

func TestDecoderCheckDetectsTruncation(t *testing.T) {
	cdf := Uniform(16)
	enc := &Encoder{}
	enc.Init(make([]byte, 128))
	for i := 0; i < 40; i++ {
		enc.Encode(cdf, i%16)
	}
	payload := enc.Done()
	if len(payload) < 4 {
		t.Fatalf("payload too short for test: %d", len(payload))
	}

	dec := &Decoder{}
	dec.Init(payload[:len(payload)-2])
	for i := 0; i < 40; i++ {
		dec.Decode(cdf, 8)
	}
	if dec.Remaining() >= 0 {
		t.Fatalf("remaining = %d, want negative for truncated payload", dec.Remaining())
	}
	if err := dec.Check(); err == nil {
		t.Fatal("check passed on truncated payload")
	}
}

func TestDecoderShortPayloadPadsWithZeros(t *testing.T) {
	enc := &Encoder{}
	enc.Init(make([]byte, 8))
	enc.Encode([]uint16{0, 65000, 65535}, 0)
	payload := enc.Done()

	dec := &Decoder{}
	dec.Init(payload)
	if got := dec.Decode([]uint16{0, 65000, 65535}, 1); got != 0 {
		t.Fatalf("got %d, want 0", got)
	}
	if err := dec.Err(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
