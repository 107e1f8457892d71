package metrics

import (
	"fmt"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thesyncim/gosilk"
	"github.com/thesyncim/gosilk/internal/testsignal"
	"github.com/thesyncim/gosilk/plc"
)

// value returns the value of the counter or the sample count of the
// histogram name with the given label pair, or -1 when absent.
func value(t *testing.T, g prometheus.Gatherer, name string, label ...string) float64 {
	t.Helper()
	families, err := g.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
	next:
		for _, m := range mf.GetMetric() {
			for i := 0; i+1 < len(label); i += 2 {
				found := false
				for _, lp := range m.GetLabel() {
					if lp.GetName() == label[i] && lp.GetValue() == label[i+1] {
						found = true
					}
				}
				if !found {
					continue next
				}
			}
			if h := m.GetHistogram(); h != nil {
				return float64(h.GetSampleCount())
			}
			return m.GetCounter().GetValue()
		}
	}
	return -1
}

func TestObserverEvents(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.FrameEncoded()
	m.FrameEncoded()
	m.PacketEncoded(40)
	m.PacketEncoded(60)
	m.FrameSuppressed()
	m.PayloadDiscarded(fmt.Errorf("wrapped: %w", gosilk.ErrCorruptPacket))
	m.PayloadDiscarded(gosilk.ErrBufferTooSmall)
	m.PayloadDiscarded(io.EOF)
	m.FrameDecoded()
	m.FrameConcealed(plc.ModeConcealing)
	m.FrameConcealed(plc.ModeComfortNoise)
	m.FrameConcealed(plc.ModeComfortNoise)
	m.FECRecovered()

	assert.Equal(t, 2.0, value(t, reg, "gosilk_frames_encoded_total"))
	assert.Equal(t, 100.0, value(t, reg, "gosilk_bytes_produced_total"))
	assert.Equal(t, 2.0, value(t, reg, "gosilk_packet_size_bytes"))
	assert.Equal(t, 1.0, value(t, reg, "gosilk_dtx_frames_total"))
	assert.Equal(t, 1.0, value(t, reg, "gosilk_payloads_discarded_total", "reason", "corrupt"))
	assert.Equal(t, 1.0, value(t, reg, "gosilk_payloads_discarded_total", "reason", "buffer_too_small"))
	assert.Equal(t, 1.0, value(t, reg, "gosilk_payloads_discarded_total", "reason", "other"))
	assert.Equal(t, 1.0, value(t, reg, "gosilk_frames_decoded_total"))
	assert.Equal(t, 1.0, value(t, reg, "gosilk_frames_concealed_total", "mode", "plc"))
	assert.Equal(t, 2.0, value(t, reg, "gosilk_frames_concealed_total", "mode", "cng"))
	assert.Equal(t, 1.0, value(t, reg, "gosilk_fec_recoveries_total"))
}

func TestCodecReportsToMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	cfg := gosilk.DefaultEncoderConfig(16000)
	cfg.Observer = m
	enc, err := gosilk.NewEncoder(cfg)
	require.NoError(t, err)

	dcfg := gosilk.DefaultDecoderConfig(16000)
	dcfg.Observer = m
	dec, err := gosilk.NewDecoder(dcfg)
	require.NoError(t, err)

	in := testsignal.Speech(16000, 10*enc.FrameSize(), 1)
	pcm := make([]int16, dec.FrameSize())
	for i, f := range testsignal.Frames(in, enc.FrameSize()) {
		buf := make([]byte, 1024)
		n, err := enc.Encode(f, buf)
		require.NoError(t, err)
		require.Positive(t, n)

		payload := buf[:n]
		if i == 5 {
			payload = nil
		}
		_, _, err = dec.Decode(payload, pcm)
		require.NoError(t, err)
	}

	assert.Equal(t, 10.0, value(t, reg, "gosilk_frames_encoded_total"))
	assert.Equal(t, 10.0, value(t, reg, "gosilk_packet_size_bytes"))
	assert.Equal(t, 9.0, value(t, reg, "gosilk_frames_decoded_total"))
	plcFrames := max(value(t, reg, "gosilk_frames_concealed_total", "mode", "plc"), 0)
	cngFrames := max(value(t, reg, "gosilk_frames_concealed_total", "mode", "cng"), 0)
	assert.Equal(t, 1.0, plcFrames+cngFrames)
}

func TestHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	m.FrameEncoded()

	srv := httptest.NewServer(Handler(reg))
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "gosilk_frames_encoded_total 1")
}

func TestDuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)
	assert.Panics(t, func() { New(reg) })
}
