package gosilk

import "github.com/thesyncim/gosilk/plc"

// Observer receives codec statistics. Implementations are called on the
// encoding or decoding goroutine and must not block. Package metrics
// provides one backed by Prometheus.
type Observer interface {
	// FrameEncoded is called for every frame passed to Encode.
	FrameEncoded()
	// PacketEncoded is called with the size of every finished packet.
	PacketEncoded(bytes int)
	// FrameSuppressed is called for every frame withheld by DTX.
	FrameSuppressed()
	// PayloadDiscarded is called when the encoder drops a packet or the
	// decoder rejects one.
	PayloadDiscarded(err error)

	// FrameDecoded is called for every frame decoded from a payload.
	FrameDecoded()
	// FrameConcealed is called for every frame synthesized without a
	// payload, with the concealment mode used.
	FrameConcealed(mode plc.Mode)
	// FECRecovered is called when a lost packet is rebuilt from the
	// redundancy carried by a later one.
	FECRecovered()
}

// NopObserver ignores all events.
type NopObserver struct{}

func (NopObserver) FrameEncoded() {}
func (NopObserver) PacketEncoded(int) {}
func (NopObserver) FrameSuppressed() {}
func (NopObserver) PayloadDiscarded(error) {}
func (NopObserver) FrameDecoded() {}
func (NopObserver) FrameConcealed(plc.Mode) {}
func (NopObserver) FECRecovered() {}

func observerOrNop(o Observer) Observer {
	if o == nil {
		return NopObserver{}
	}
	return o
}
