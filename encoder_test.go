package gosilk

import (
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"

	"github.com/thesyncim/gosilk/internal/testsignal"
	"github.com/thesyncim/gosilk/plc"
	"github.com/thesyncim/gosilk/silk"
)

const maxPacket = 1024

// countingObserver records events for assertions.
type countingObserver struct {
	encoded    int
	packets    int
	bytes      int
	suppressed int
	discarded  int
	decoded    int
	fec        int
	concealed  map[plc.Mode]int
}

func newCountingObserver() *countingObserver {
	return &countingObserver{concealed: make(map[plc.Mode]int)}
}

func (o *countingObserver) FrameEncoded() { o.encoded++ }
func (o *countingObserver) FrameSuppressed() { o.suppressed++ }
func (o *countingObserver) FrameDecoded() { o.decoded++ }
func (o *countingObserver) FECRecovered() { o.fec++ }

func (o *countingObserver) PacketEncoded(n int) {
	o.packets++
	o.bytes += n
}

func (o *countingObserver) PayloadDiscarded(error) { o.discarded++ }

func (o *countingObserver) FrameConcealed(mode plc.Mode) { o.concealed[mode]++ }

func TestEncoderConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*EncoderConfig)
		want   error
	}{
		{"default", func(*EncoderConfig) {}, nil},
		{"48k input", func(c *EncoderConfig) { c.SampleRate = 48000 }, nil},
		{"44.1k input", func(c *EncoderConfig) { c.SampleRate = 44100 }, nil},
		{"32k input", func(c *EncoderConfig) { c.SampleRate = 32000 }, nil},
		{"11.025k input", func(c *EncoderConfig) { c.SampleRate = 11025 }, ErrInvalidSampleRate},
		{"96k input", func(c *EncoderConfig) { c.SampleRate = 96000 }, ErrInvalidSampleRate},
		{"10k input", func(c *EncoderConfig) { c.SampleRate = 10000 }, nil},
		{"48k internal", func(c *EncoderConfig) { c.MaxInternalSampleRate = 48000 }, ErrInvalidSampleRate},
		{"stereo", func(c *EncoderConfig) { c.Channels = 2 }, ErrInvalidChannels},
		{"zero channels", func(c *EncoderConfig) { c.Channels = 0 }, nil},
		{"30 ms packet", func(c *EncoderConfig) { c.PacketSizeMs = 30 }, ErrInvalidPacketSize},
		{"100 ms packet", func(c *EncoderConfig) { c.PacketSizeMs = 100 }, nil},
		{"negative bitrate", func(c *EncoderConfig) { c.Bitrate = -1 }, ErrInvalidBitrate},
		{"huge bitrate", func(c *EncoderConfig) { c.Bitrate = 1 << 20 }, nil},
		{"complexity 3", func(c *EncoderConfig) { c.Complexity = 3 }, ErrInvalidComplexity},
		{"loss 101", func(c *EncoderConfig) { c.PacketLossPercentage = 101 }, ErrInvalidPacketLoss},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultEncoderConfig(16000)
			tt.modify(&cfg)
			if err := cfg.Validate(); !errors.Is(err, tt.want) {
				t.Fatalf("Validate() = %v, want %v", err, tt.want)
			}
			enc, err := NewEncoder(cfg)
			if !errors.Is(err, tt.want) {
				t.Fatalf("NewEncoder() error = %v, want %v", err, tt.want)
			}
			if err == nil && enc == nil {
				t.Fatal("NewEncoder returned nil encoder")
			}
		})
	}
}

func TestEncoderFrameSize(t *testing.T) {
	for _, rate := range []int{8000, 10000, 12000, 16000, 24000, 32000, 44100, 48000} {
		enc, err := NewEncoder(DefaultEncoderConfig(rate))
		if err != nil {
			t.Fatalf("rate %d: %v", rate, err)
		}
		if got, want := enc.FrameSize(), rate/50; got != want {
			t.Errorf("rate %d: FrameSize() = %d, want %d", rate, got, want)
		}
		if enc.Delay() <= 0 {
			t.Errorf("rate %d: Delay() = %d", rate, enc.Delay())
		}
		if enc.InternalSampleRate() > min(rate, 24000) {
			t.Errorf("rate %d: internal rate %d above input rate", rate, enc.InternalSampleRate())
		}
	}
}

func TestEncodeRejectsWrongFrameSize(t *testing.T) {
	enc, err := NewEncoder(DefaultEncoderConfig(16000))
	if err != nil {
		t.Fatal(err)
	}
	_, err = enc.Encode(make([]int16, 100), make([]byte, maxPacket))
	if !errors.Is(err, ErrInvalidFrameSize) {
		t.Fatalf("err = %v, want ErrInvalidFrameSize", err)
	}
	if !errors.Is(err, silk.ErrInvalidFrameSize) {
		t.Fatalf("err = %v does not wrap the codec error", err)
	}
}

func TestEncodeBufferTooSmall(t *testing.T) {
	obs := newCountingObserver()
	cfg := DefaultEncoderConfig(16000)
	cfg.Observer = obs
	enc, err := NewEncoder(cfg)
	if err != nil {
		t.Fatal(err)
	}
	in := testsignal.Sine(16000, 440, 8000, enc.FrameSize())
	n, err := enc.Encode(in, make([]byte, 1))
	if !errors.Is(err, ErrBufferTooSmall) {
		t.Fatalf("err = %v, want ErrBufferTooSmall", err)
	}
	if n != 0 {
		t.Fatalf("n = %d, want 0", n)
	}
	if obs.discarded != 1 {
		t.Fatalf("discarded = %d, want 1", obs.discarded)
	}

	// The next packet starts cleanly.
	n, err = enc.Encode(in, make([]byte, maxPacket))
	if err != nil || n == 0 {
		t.Fatalf("after drop: n = %d, err = %v", n, err)
	}
}

func TestMultiFramePacketBuffering(t *testing.T) {
	for _, ms := range []int{20, 40, 60, 80, 100} {
		cfg := DefaultEncoderConfig(16000)
		cfg.PacketSizeMs = ms
		enc, err := NewEncoder(cfg)
		if err != nil {
			t.Fatal(err)
		}
		frames := ms / 20
		in := testsignal.Speech(16000, 2*frames*enc.FrameSize(), 11)
		packets := 0
		for i, f := range testsignal.Frames(in, enc.FrameSize()) {
			n, err := enc.Encode(f, make([]byte, maxPacket))
			if err != nil {
				t.Fatalf("%d ms frame %d: %v", ms, i, err)
			}
			complete := (i+1)%frames == 0
			if complete != (n > 0) {
				t.Fatalf("%d ms frame %d: n = %d", ms, i, n)
			}
			if n > 0 {
				packets++
			}
		}
		if packets != 2 {
			t.Errorf("%d ms: %d packets, want 2", ms, packets)
		}
	}
}

func TestDTXActivationAndRelease(t *testing.T) {
	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	obs := newCountingObserver()

	cfg := DefaultEncoderConfig(16000)
	cfg.DTX = true
	cfg.Logger = logger
	cfg.Observer = obs
	enc, err := NewEncoder(cfg)
	if err != nil {
		t.Fatal(err)
	}
	frame := enc.FrameSize()
	silence := make([]int16, frame)
	for f := 0; f < 20; f++ {
		if _, err := enc.Encode(silence, make([]byte, maxPacket)); err != nil {
			t.Fatal(err)
		}
	}
	if !enc.InDTX() {
		t.Fatal("encoder not in DTX after 20 silent frames")
	}
	if obs.suppressed == 0 {
		t.Fatal("no frames reported as suppressed")
	}

	tone := testsignal.Sine(16000, 300, 10000, 5*frame)
	released := -1
	for f, x := range testsignal.Frames(tone, frame) {
		n, err := enc.Encode(x, make([]byte, maxPacket))
		if err != nil {
			t.Fatal(err)
		}
		if n > 0 {
			released = f
			break
		}
	}
	if released < 0 || released > 2 {
		t.Fatalf("DTX released at frame %d of speech", released)
	}
	if enc.InDTX() {
		t.Fatal("InDTX still true after speech")
	}

	var entered, left bool
	for _, e := range hook.AllEntries() {
		switch e.Message {
		case "entering DTX":
			entered = true
		case "leaving DTX":
			left = true
		}
	}
	if !entered || !left {
		t.Errorf("DTX log events: entered=%v left=%v", entered, left)
	}
}

func TestEncoderSetters(t *testing.T) {
	enc, err := NewEncoder(DefaultEncoderConfig(16000))
	if err != nil {
		t.Fatal(err)
	}
	if err := enc.SetBitrate(12000); err != nil {
		t.Fatal(err)
	}
	if err := enc.SetComplexity(0); err != nil {
		t.Fatal(err)
	}
	if err := enc.SetComplexity(5); !errors.Is(err, ErrInvalidComplexity) {
		t.Fatalf("SetComplexity(5) = %v", err)
	}
	if err := enc.SetPacketLoss(-1); !errors.Is(err, ErrInvalidPacketLoss) {
		t.Fatalf("SetPacketLoss(-1) = %v", err)
	}
	if err := enc.SetPacketLoss(25); err != nil {
		t.Fatal(err)
	}
	if err := enc.SetInbandFEC(true); err != nil {
		t.Fatal(err)
	}
	if err := enc.SetDTX(true); err != nil {
		t.Fatal(err)
	}
	cfg := enc.Config()
	if cfg.Bitrate != 12000 || cfg.Complexity != 0 || cfg.PacketLossPercentage != 25 || !cfg.InbandFEC || !cfg.DTX {
		t.Fatalf("Config() = %+v", cfg)
	}

	cfg.SampleRate = 8000
	if err := enc.Reconfigure(cfg); !errors.Is(err, ErrInvalidSampleRate) {
		t.Fatalf("changing the sample rate: err = %v", err)
	}
}
