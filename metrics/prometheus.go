// Package metrics exports codec statistics to Prometheus.
package metrics

import (
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/thesyncim/gosilk"
	"github.com/thesyncim/gosilk/plc"
)

const namespace = "gosilk"

// Metrics contains the Prometheus metrics of one or more codec streams. It
// implements gosilk.Observer and is safe for concurrent use.
type Metrics struct {
	// Encoder metrics
	FramesEncoded   prometheus.Counter
	BytesProduced   prometheus.Counter
	DTXFrames       prometheus.Counter
	PacketSize      prometheus.Histogram
	PayloadsDropped *prometheus.CounterVec

	// Decoder metrics
	FramesDecoded   prometheus.Counter
	FramesConcealed *prometheus.CounterVec
	FECRecoveries   prometheus.Counter
}

var _ gosilk.Observer = (*Metrics)(nil)

// New creates the metrics and registers them with reg. A nil reg uses the
// default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		FramesEncoded: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_encoded_total",
			Help:      "Total number of 20 ms frames passed to the encoder",
		}),
		BytesProduced: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bytes_produced_total",
			Help:      "Total number of payload bytes produced by the encoder",
		}),
		DTXFrames: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dtx_frames_total",
			Help:      "Total number of frames suppressed by discontinuous transmission",
		}),
		PacketSize: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "packet_size_bytes",
			Help:      "Size of encoded packets",
			Buckets:   prometheus.ExponentialBuckets(8, 2, 8), // 8 B to 1 KB
		}),
		PayloadsDropped: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payloads_discarded_total",
			Help:      "Total number of payloads dropped by the encoder or rejected by the decoder",
		}, []string{"reason"}),
		FramesDecoded: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_decoded_total",
			Help:      "Total number of frames decoded from payloads",
		}),
		FramesConcealed: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_concealed_total",
			Help:      "Total number of frames synthesized for lost packets",
		}, []string{"mode"}),
		FECRecoveries: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fec_recoveries_total",
			Help:      "Total number of packets rebuilt from in-band FEC",
		}),
	}
}

// FrameEncoded increments the frames encoded counter
func (m *Metrics) FrameEncoded() {
	m.FramesEncoded.Inc()
}

// PacketEncoded records the size of a finished packet
func (m *Metrics) PacketEncoded(bytes int) {
	m.BytesProduced.Add(float64(bytes))
	m.PacketSize.Observe(float64(bytes))
}

// FrameSuppressed increments the DTX frames counter
func (m *Metrics) FrameSuppressed() {
	m.DTXFrames.Inc()
}

// PayloadDiscarded increments the discarded payloads counter for the reason
// err names
func (m *Metrics) PayloadDiscarded(err error) {
	m.PayloadsDropped.WithLabelValues(reason(err)).Inc()
}

// FrameDecoded increments the frames decoded counter
func (m *Metrics) FrameDecoded() {
	m.FramesDecoded.Inc()
}

// FrameConcealed increments the concealed frames counter. Comfort noise
// frames are counted under mode "cng".
func (m *Metrics) FrameConcealed(mode plc.Mode) {
	label := "plc"
	if mode == plc.ModeComfortNoise {
		label = "cng"
	}
	m.FramesConcealed.WithLabelValues(label).Inc()
}

// FECRecovered increments the FEC recoveries counter
func (m *Metrics) FECRecovered() {
	m.FECRecoveries.Inc()
}

func reason(err error) string {
	switch {
	case errors.Is(err, gosilk.ErrBufferTooSmall):
		return "buffer_too_small"
	case errors.Is(err, gosilk.ErrPacketTooLarge):
		return "too_large"
	case errors.Is(err, gosilk.ErrCorruptPacket):
		return "corrupt"
	}
	return "other"
}

// Handler returns an HTTP handler serving the metrics gathered by g. A nil
// g serves the default registry.
func Handler(g prometheus.Gatherer) http.Handler {
	if g == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
