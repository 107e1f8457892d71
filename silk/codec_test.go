package silk

import (
	"bytes"
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/thesyncim/gosilk/internal/testsignal"
	"github.com/thesyncim/gosilk/plc"
	"github.com/thesyncim/gosilk/rangecoding"
)

func energy(x []int16) float64 {
	var e float64
	for _, v := range x {
		e += float64(v) * float64(v)
	}
	return e
}

func newTestCodec(t *testing.T, ctl EncoderControl) (*Encoder, *Decoder) {
	t.Helper()
	enc, err := NewEncoder(ctl)
	if err != nil {
		t.Fatalf("NewEncoder: %v", err)
	}
	dec, err := NewDecoder(DecoderControl{APISampleRate: ctl.APISampleRate})
	if err != nil {
		t.Fatalf("NewDecoder: %v", err)
	}
	return enc, dec
}

func defaultControl() EncoderControl {
	return EncoderControl{
		APISampleRate:         16000,
		MaxInternalSampleRate: 16000,
		PacketSizeMs:          20,
		BitRate:               25000,
		Complexity:            2,
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	for _, complexity := range []int{0, 1, 2} {
		ctl := defaultControl()
		ctl.Complexity = complexity
		enc, dec := newTestCodec(t, ctl)

		frame := enc.FrameSize()
		in := testsignal.Speech(16000, 50*frame, 1)
		payload := make([]byte, rangecoding.MaxPayloadBytes)
		pcm := make([]int16, dec.FrameSize())

		var inNrg, outNrg float64
		for f := 0; f < 50; f++ {
			x := in[f*frame : (f+1)*frame]
			n, err := enc.Encode(x, payload)
			if err != nil {
				t.Fatalf("complexity %d frame %d: Encode: %v", complexity, f, err)
			}
			if n == 0 {
				t.Fatalf("complexity %d frame %d: no packet for a 20 ms packet size", complexity, f)
			}
			got, more, err := dec.Decode(payload[:n], false, pcm)
			if err != nil {
				t.Fatalf("complexity %d frame %d: Decode: %v", complexity, f, err)
			}
			if more {
				t.Fatalf("complexity %d frame %d: unexpected more frames", complexity, f)
			}
			if got != frame {
				t.Fatalf("complexity %d frame %d: decoded %d samples, want %d", complexity, f, got, frame)
			}
			if f >= 10 {
				inNrg += energy(x)
				outNrg += energy(pcm[:got])
			}
		}
		ratio := outNrg / inNrg
		if ratio < 0.1 || ratio > 10 {
			t.Errorf("complexity %d: output/input energy ratio %.3f", complexity, ratio)
		}
	}
}

func TestMultiFramePacket(t *testing.T) {
	ctl := defaultControl()
	ctl.PacketSizeMs = 60
	enc, dec := newTestCodec(t, ctl)

	frame := enc.FrameSize()
	in := testsignal.Speech(16000, 9*frame, 2)
	payload := make([]byte, rangecoding.MaxPayloadBytes)
	pcm := make([]int16, dec.FrameSize())

	for f := 0; f < 9; f++ {
		n, err := enc.Encode(in[f*frame:(f+1)*frame], payload)
		if err != nil {
			t.Fatalf("frame %d: %v", f, err)
		}
		if f%3 != 2 {
			if n != 0 {
				t.Fatalf("frame %d: packet emitted before it was complete", f)
			}
			continue
		}
		if n == 0 {
			t.Fatalf("frame %d: no packet after three frames", f)
		}
		for k := 0; k < 3; k++ {
			_, more, err := dec.Decode(payload[:n], false, pcm)
			if err != nil {
				t.Fatalf("packet frame %d: %v", k, err)
			}
			if want := k < 2; more != want {
				t.Fatalf("packet frame %d: more = %v, want %v", k, more, want)
			}
		}
		if dec.PacketFrames() != 3 {
			t.Fatalf("PacketFrames = %d, want 3", dec.PacketFrames())
		}
	}
}

func TestResampledOutput(t *testing.T) {
	tests := []struct {
		apiIn, maxInternal, apiOut int
	}{
		{8000, 8000, 48000},
		{16000, 12000, 16000},
		{48000, 24000, 48000},
		{24000, 16000, 8000},
		{44100, 24000, 44100},
		{32000, 16000, 44100},
		{16000, 16000, 32000},
		{22050, 16000, 8000},
	}
	for _, tt := range tests {
		ctl := defaultControl()
		ctl.APISampleRate = tt.apiIn
		ctl.MaxInternalSampleRate = tt.maxInternal
		ctl.BitRate = 40000
		enc, err := NewEncoder(ctl)
		if err != nil {
			t.Fatalf("%+v: NewEncoder: %v", tt, err)
		}
		dec, err := NewDecoder(DecoderControl{APISampleRate: tt.apiOut})
		if err != nil {
			t.Fatalf("%+v: NewDecoder: %v", tt, err)
		}

		frame := enc.FrameSize()
		in := testsignal.Speech(tt.apiIn, 10*frame, 3)
		payload := make([]byte, rangecoding.MaxPayloadBytes)
		pcm := make([]int16, dec.FrameSize())
		for f := 0; f < 10; f++ {
			n, err := enc.Encode(in[f*frame:(f+1)*frame], payload)
			if err != nil {
				t.Fatalf("%+v frame %d: %v", tt, f, err)
			}
			got, _, err := dec.Decode(payload[:n], false, pcm)
			if err != nil {
				t.Fatalf("%+v frame %d: %v", tt, f, err)
			}
			if got != tt.apiOut/50 {
				t.Fatalf("%+v: decoded %d samples, want %d", tt, got, tt.apiOut/50)
			}
		}
		if dec.InternalSampleRate() > tt.maxInternal {
			t.Errorf("%+v: internal rate %d above maximum", tt, dec.InternalSampleRate())
		}
	}
}

func TestPacketLossConcealment(t *testing.T) {
	enc, dec := newTestCodec(t, defaultControl())
	frame := enc.FrameSize()
	in := testsignal.Speech(16000, 30*frame, 4)
	payload := make([]byte, rangecoding.MaxPayloadBytes)
	pcm := make([]int16, frame)

	// Stop in the middle of a syllable.
	for f := 0; f < 21; f++ {
		n, err := enc.Encode(in[f*frame:(f+1)*frame], payload)
		if err != nil {
			t.Fatal(err)
		}
		if _, _, err := dec.Decode(payload[:n], false, pcm); err != nil {
			t.Fatal(err)
		}
	}

	var first, last float64
	for k := 0; k < 10; k++ {
		n, _, err := dec.Decode(nil, true, pcm)
		if err != nil {
			t.Fatalf("loss %d: %v", k, err)
		}
		if n != frame {
			t.Fatalf("loss %d: %d samples, want %d", k, n, frame)
		}
		if dec.LossMode() != plc.ModeConcealing {
			t.Fatalf("loss %d: mode %v, want concealing", k, dec.LossMode())
		}
		e := energy(pcm[:n])
		if k == 0 {
			first = e
		}
		last = e
	}
	if first == 0 {
		t.Fatal("first concealed frame is silent")
	}
	if last >= first {
		t.Errorf("concealment did not fade: first %.0f, tenth %.0f", first, last)
	}
}

func TestConcealmentEnergyNonIncreasing(t *testing.T) {
	for _, apiRate := range []int{16000, 44100} {
		for seed := int64(1); seed <= 6; seed++ {
			for _, cut := range []int{9, 14, 21, 27, 33} {
				ctl := defaultControl()
				ctl.APISampleRate = apiRate
				enc, dec := newTestCodec(t, ctl)
				frame := enc.FrameSize()
				in := testsignal.Speech(apiRate, cut*frame, seed)
				payload := make([]byte, rangecoding.MaxPayloadBytes)
				pcm := make([]int16, dec.FrameSize())
				for f := 0; f < cut; f++ {
					n, err := enc.Encode(in[f*frame:(f+1)*frame], payload)
					if err != nil {
						t.Fatal(err)
					}
					if _, _, err := dec.Decode(payload[:n], false, pcm); err != nil {
						t.Fatal(err)
					}
				}

				prev := math.Inf(1)
				for k := 0; k < 12; k++ {
					n, _, err := dec.Decode(nil, true, pcm)
					if err != nil {
						t.Fatalf("rate %d seed %d cut %d loss %d: %v", apiRate, seed, cut, k, err)
					}
					e := energy(pcm[:n]) / float64(n)
					if e > prev {
						t.Fatalf("rate %d seed %d cut %d: loss %d has energy %.1f, previous %.1f (mode %v)",
							apiRate, seed, cut, k, e, prev, dec.LossMode())
					}
					prev = e
				}
			}
		}
	}
}

func TestCorruptPayloadIsConcealed(t *testing.T) {
	_, dec := newTestCodec(t, defaultControl())
	pcm := make([]int16, dec.FrameSize())

	n, _, err := dec.Decode(make([]byte, rangecoding.MaxPayloadBytes+1), false, pcm)
	if !errors.Is(err, ErrPayloadTooLarge) {
		t.Fatalf("oversized payload: err = %v, want ErrPayloadTooLarge", err)
	}
	if n != dec.FrameSize() {
		t.Fatalf("oversized payload: %d samples, want %d", n, dec.FrameSize())
	}

	// The stream continues normally afterwards.
	if _, _, err := dec.Decode(nil, true, pcm); err != nil {
		t.Fatalf("loss after oversized payload: %v", err)
	}
	if dec.LossMode() != plc.ModeConcealing {
		t.Fatalf("mode = %v, want concealing", dec.LossMode())
	}
}

func TestDecodeRejectsShortOutput(t *testing.T) {
	_, dec := newTestCodec(t, defaultControl())
	if _, _, err := dec.Decode(nil, true, make([]int16, 10)); !errors.Is(err, ErrInvalidFrameSize) {
		t.Fatalf("err = %v, want ErrInvalidFrameSize", err)
	}
}

func TestDTX(t *testing.T) {
	ctl := defaultControl()
	ctl.UseDTX = true
	enc, err := NewEncoder(ctl)
	if err != nil {
		t.Fatal(err)
	}
	silence := make([]int16, enc.FrameSize())
	payload := make([]byte, rangecoding.MaxPayloadBytes)

	sent := make([]bool, 30)
	for f := range sent {
		n, err := enc.Encode(silence, payload)
		if err != nil {
			t.Fatalf("frame %d: %v", f, err)
		}
		sent[f] = n > 0
	}
	for f := 0; f < noSpeechFramesBeforeDTX; f++ {
		if !sent[f] {
			t.Errorf("frame %d suppressed before the DTX hangover ended", f)
		}
	}
	if sent[10] {
		t.Error("frame 10 of silence was transmitted")
	}
	if !sent[maxConsecutiveDTX] {
		t.Errorf("frame %d should be sent to refresh the comfort noise", maxConsecutiveDTX)
	}
}

func TestInbandFEC(t *testing.T) {
	ctl := defaultControl()
	ctl.UseInbandFEC = true
	ctl.PacketLossPercentage = 20
	ctl.BitRate = 32000
	enc, dec := newTestCodec(t, ctl)
	if !enc.LBRREnabled() {
		t.Fatal("LBRR not enabled")
	}

	frame := enc.FrameSize()
	in := testsignal.Speech(16000, 40*frame, 5)
	pcm := make([]int16, frame)
	found := 0
	// redundancy[f] is the redundant packet produced while coding packet f.
	redundancy := make([][]byte, 40)
	for f := 0; f < 40; f++ {
		payload := make([]byte, rangecoding.MaxPayloadBytes)
		n, err := enc.Encode(in[f*frame:(f+1)*frame], payload)
		if err != nil {
			t.Fatal(err)
		}
		redundancy[f] = append([]byte(nil), enc.rcLBRRBuf[:enc.nBytesLBRR]...)
		pkt := payload[:n]
		if _, _, err := dec.Decode(pkt, false, pcm); err != nil {
			t.Fatalf("frame %d: %v", f, err)
		}

		lbrr, err := SearchLBRR(pkt, 2)
		if err != nil {
			if !errors.Is(err, ErrNoLBRRData) {
				t.Fatalf("frame %d: SearchLBRR: %v", f, err)
			}
			continue
		}
		found++
		if f < 2 {
			t.Fatalf("frame %d: redundancy found before any was produced", f)
		}
		if !bytes.Equal(lbrr, redundancy[f-2]) {
			t.Fatalf("frame %d: found %d redundant bytes, want the %d bytes coded two packets earlier",
				f, len(lbrr), len(redundancy[f-2]))
		}
		if !bytes.Equal(lbrr, pkt[len(pkt)-len(lbrr):]) {
			t.Fatalf("frame %d: redundant bytes are not the packet tail", f)
		}
		if _, err := SearchLBRR(pkt, 1); !errors.Is(err, ErrNoLBRRData) {
			t.Fatalf("frame %d: redundancy for offset 2 also reported for offset 1", f)
		}

		// The redundant packet decodes on its own.
		fec, err := NewDecoder(DecoderControl{APISampleRate: 16000})
		if err != nil {
			t.Fatal(err)
		}
		if _, _, err := fec.Decode(lbrr, false, pcm); err != nil {
			t.Fatalf("frame %d: decoding LBRR: %v", f, err)
		}
	}
	if found == 0 {
		t.Fatal("no packet carried redundancy")
	}
	if dec.FECOffset() != 2 {
		t.Errorf("FECOffset = %d, want 2", dec.FECOffset())
	}

	if _, err := SearchLBRR(nil, 3); !errors.Is(err, ErrInvalidLBRROffset) {
		t.Errorf("offset 3: err = %v, want ErrInvalidLBRROffset", err)
	}
}

// dominantPeriod returns the lag in [minLag, maxLag] with the largest
// normalized autocorrelation of x.
func dominantPeriod(x []int16, minLag, maxLag int) int {
	best, bestCorr := 0, math.Inf(-1)
	for lag := minLag; lag <= maxLag; lag++ {
		var xy, xx, yy float64
		for i := lag; i < len(x); i++ {
			a, b := float64(x[i]), float64(x[i-lag])
			xy += a * b
			xx += a * a
			yy += b * b
		}
		if xx == 0 || yy == 0 {
			continue
		}
		if c := xy / math.Sqrt(xx*yy); c > bestCorr {
			best, bestCorr = lag, c
		}
	}
	return best
}

func TestPitchLagEndToEnd(t *testing.T) {
	ctl := defaultControl()
	ctl.BitRate = 30000
	enc, dec := newTestCodec(t, ctl)
	const period = 114 // 140 Hz at 16 kHz
	frame := enc.FrameSize()
	in := make([]int16, 20*frame)
	rng := rand.New(rand.NewSource(9))
	var y float64
	for i := range in {
		var x float64
		if i%period == 0 {
			x = 8000
		}
		y = x + 0.8*y
		in[i] = int16(y + 20*rng.NormFloat64())
	}

	payload := make([]byte, rangecoding.MaxPayloadBytes)
	pcm := make([]int16, dec.FrameSize())
	var out []int16
	voiced := 0
	for f := 0; f < 20; f++ {
		n, err := enc.Encode(in[f*frame:(f+1)*frame], payload)
		if err != nil {
			t.Fatal(err)
		}
		got, _, err := dec.Decode(payload[:n], false, pcm)
		if err != nil {
			t.Fatalf("frame %d: %v", f, err)
		}
		if f < 5 {
			continue
		}
		out = append(out, pcm[:got]...)
		if dec.dc.si.signalType != typeVoiced {
			continue
		}
		voiced++
		want := float64(period*dec.fsKHz) / 16
		for k, lag := range dec.dc.pitchL {
			if math.Abs(float64(lag)-want) > 0.05*want {
				t.Fatalf("frame %d subframe %d: decoded lag %d, want about %.0f", f, k, lag, want)
			}
		}
	}
	if voiced < 10 {
		t.Fatalf("only %d of 15 frames decoded as voiced", voiced)
	}

	// Two to 12 ms covers the period but not its double.
	got := dominantPeriod(out, 32, 192)
	if math.Abs(float64(got)-period) > 0.05*period {
		t.Fatalf("decoded output repeats every %d samples, want about %d", got, period)
	}
}

func TestControlRateChangeWaitsForPacketBoundary(t *testing.T) {
	ctl := defaultControl()
	ctl.PacketSizeMs = 40
	enc, err := NewEncoder(ctl)
	if err != nil {
		t.Fatal(err)
	}
	in16 := testsignal.Speech(16000, 3*320, 6)
	payload := make([]byte, rangecoding.MaxPayloadBytes)

	if n, err := enc.Encode(in16[:320], payload); err != nil || n != 0 {
		t.Fatalf("first frame of a 40 ms packet: n = %d, err = %v", n, err)
	}
	ctl.APISampleRate = 48000
	if err := enc.Control(ctl); err != nil {
		t.Fatal(err)
	}
	if enc.FrameSize() != 320 {
		t.Fatalf("FrameSize inside the packet = %d, want 320", enc.FrameSize())
	}
	if _, err := enc.Encode(make([]int16, 960), payload); !errors.Is(err, ErrInvalidFrameSize) {
		t.Fatalf("48 kHz frame inside a 16 kHz packet: err = %v, want ErrInvalidFrameSize", err)
	}
	n, err := enc.Encode(in16[320:640], payload)
	if err != nil {
		t.Fatalf("second frame at the old rate: %v", err)
	}
	if n == 0 {
		t.Fatal("second frame did not complete the packet")
	}

	if enc.FrameSize() != 960 {
		t.Fatalf("FrameSize after the packet = %d, want 960", enc.FrameSize())
	}
	if _, err := enc.Encode(in16[640:], payload); !errors.Is(err, ErrInvalidFrameSize) {
		t.Fatalf("16 kHz frame after the switch: err = %v, want ErrInvalidFrameSize", err)
	}
	if _, err := enc.Encode(testsignal.Speech(48000, 960, 6), payload); err != nil {
		t.Fatalf("48 kHz frame after the switch: %v", err)
	}
}
