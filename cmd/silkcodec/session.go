package main

import (
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand"

	"github.com/sirupsen/logrus"

	"github.com/thesyncim/gosilk"
	"github.com/thesyncim/gosilk/container/silkfile"
	"github.com/thesyncim/gosilk/internal/config"
	"github.com/thesyncim/gosilk/internal/wav"
)

// defaultDecodeRate is the output rate of decode when none is configured;
// SILK files do not record the rate they were encoded at.
const defaultDecodeRate = 16000

// session runs one command.
type session struct {
	cfg   *config.Config
	log   logrus.FieldLogger
	obs   gosilk.Observer
	stats stats

	// framesPerPacket, when known, sets how many frames a lost packet is
	// concealed with before the decoder has seen a packet.
	framesPerPacket int
}

type stats struct {
	frames    int
	packets   int
	bytes     int
	lost      int
	recovered int
	concealed int
	snrDB     float64
}

func (s stats) fields() logrus.Fields {
	f := logrus.Fields{
		"frames":  s.frames,
		"packets": s.packets,
		"bytes":   s.bytes,
	}
	if s.lost > 0 {
		f["lost"] = s.lost
		f["recovered"] = s.recovered
		f["concealed"] = s.concealed
	}
	if s.snrDB != 0 {
		f["snr_db"] = math.Round(s.snrDB*10) / 10
	}
	return f
}

func (s *session) newEncoder(rate int) (*gosilk.Encoder, error) {
	cfg := s.cfg.Encoder.Codec(rate)
	cfg.Logger = s.log
	cfg.Observer = s.obs
	return gosilk.NewEncoder(cfg)
}

func (s *session) newDecoder(inputRate int) (*gosilk.Decoder, error) {
	cfg := s.cfg.Decoder.Codec(inputRate)
	cfg.Logger = s.log
	cfg.Observer = s.obs
	return gosilk.NewDecoder(cfg)
}

func (s *session) encode(in io.Reader, out io.Writer, tencent bool) error {
	pcm, rate, err := wav.Read(in)
	if err != nil {
		return err
	}
	enc, err := s.newEncoder(rate)
	if err != nil {
		return err
	}
	w, err := silkfile.NewWriterWithConfig(out, silkfile.WriterConfig{Tencent: tencent})
	if err != nil {
		return err
	}
	if err := s.encodePCM(enc, pcm, w.WritePacket); err != nil {
		return err
	}
	return w.Close()
}

// encodePCM encodes pcm and passes every packet slot to emit. A slot whose
// packet DTX suppressed is emitted empty. The input is padded with silence
// to a whole packet.
func (s *session) encodePCM(enc *gosilk.Encoder, pcm []int16, emit func([]byte) error) error {
	frame := enc.FrameSize()
	framesPerPacket := s.cfg.Encoder.PacketSizeMs / 20
	if r := len(pcm) % (frame * framesPerPacket); r != 0 {
		pcm = append(pcm, make([]int16, frame*framesPerPacket-r)...)
	}

	packet := make([]byte, silkfile.MaxPacketSize)
	for i := 0; i < len(pcm); i += frame {
		n, err := enc.Encode(pcm[i:i+frame], packet)
		if err != nil {
			return fmt.Errorf("frame %d: %w", s.stats.frames, err)
		}
		s.stats.frames++
		switch {
		case n > 0:
			s.stats.packets++
			s.stats.bytes += n
			if err := emit(packet[:n]); err != nil {
				return err
			}
		case enc.InDTX() && s.stats.frames%framesPerPacket == 0:
			if err := emit(nil); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *session) decode(in io.Reader, out io.Writer) error {
	r, err := silkfile.NewReader(in)
	if err != nil {
		return err
	}
	var packets [][]byte
	for {
		p, err := r.ReadPacket()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
		packets = append(packets, append([]byte{}, p...))
	}
	s.log.WithFields(logrus.Fields{
		"packets": len(packets),
		"tencent": r.Tencent(),
	}).Debug("read silk file")

	dec, err := s.newDecoder(defaultDecodeRate)
	if err != nil {
		return err
	}
	pcm, err := s.decodePackets(dec, packets)
	if err != nil {
		return err
	}
	return wav.Write(out, pcm, s.cfg.Decoder.Codec(defaultDecodeRate).SampleRate)
}

// decodePackets decodes packets in order, dropping some of them as the
// channel configuration asks. A dropped packet is rebuilt from the FEC
// data of one of the next two packets when possible, else concealed.
func (s *session) decodePackets(dec *gosilk.Decoder, packets [][]byte) ([]int16, error) {
	rng := rand.New(rand.NewSource(s.cfg.Channel.Seed))
	lost := make([]bool, len(packets))
	for i := range lost {
		lost[i] = rng.Float64()*100 < s.cfg.Channel.LossPercentage
	}

	buf := make([]int16, 5*dec.FrameSize())
	var out []int16
	for i, p := range packets {
		var (
			n   int
			err error
		)
		if lost[i] {
			s.stats.lost++
			n, err = s.recover(dec, packets, lost, i, buf)
		} else {
			n, err = dec.DecodePacket(p, buf)
		}
		if err != nil {
			if !errors.Is(err, gosilk.ErrCorruptPacket) && !errors.Is(err, gosilk.ErrPacketTooLarge) {
				return nil, fmt.Errorf("packet %d: %w", i, err)
			}
			s.log.WithError(err).WithField("packet", i).Warn("packet concealed")
		}
		s.stats.frames += n / dec.FrameSize()
		out = append(out, buf[:n]...)
	}
	return out, nil
}

func (s *session) recover(dec *gosilk.Decoder, packets [][]byte, lost []bool, i int, buf []int16) (int, error) {
	if s.cfg.Decoder.UseFEC {
		for off := 1; off <= 2 && i+off < len(packets); off++ {
			if lost[i+off] {
				continue
			}
			if _, err := gosilk.SearchLBRR(packets[i+off], off); err == nil {
				s.stats.recovered++
				return dec.DecodeFEC(packets[i+off], off, buf)
			}
		}
	}
	s.stats.concealed++
	n, err := dec.DecodePacket(nil, buf)
	if err != nil {
		return n, err
	}
	for n < s.framesPerPacket*dec.FrameSize() {
		m, _, err := dec.Decode(nil, buf[n:])
		if err != nil {
			return n, err
		}
		n += m
	}
	return n, nil
}

func (s *session) roundtrip(in io.Reader, out io.Writer) error {
	pcm, rate, err := wav.Read(in)
	if err != nil {
		return err
	}
	enc, err := s.newEncoder(rate)
	if err != nil {
		return err
	}
	var packets [][]byte
	err = s.encodePCM(enc, pcm, func(p []byte) error {
		packets = append(packets, append([]byte{}, p...))
		return nil
	})
	if err != nil {
		return err
	}

	dec, err := s.newDecoder(rate)
	if err != nil {
		return err
	}
	s.framesPerPacket = s.cfg.Encoder.PacketSizeMs / 20
	encoded := s.stats.frames
	decoded, err := s.decodePackets(dec, packets)
	if err != nil {
		return err
	}
	s.stats.frames = encoded
	outRate := s.cfg.Decoder.Codec(rate).SampleRate
	if outRate == rate {
		s.stats.snrDB = segmentalSNR(pcm, decoded, enc.Delay())
	}
	return wav.Write(out, decoded, outRate)
}

// segmentalSNR returns the mean SNR in dB over 20 ms segments of ref that
// carry signal, after compensating the codec delay.
func segmentalSNR(ref, got []int16, delay int) float64 {
	if delay >= len(got) {
		return 0
	}
	got = got[delay:]
	n := min(len(ref), len(got))
	seg := 320
	var sum float64
	var count int
	for i := 0; i+seg <= n; i += seg {
		var sig, noise float64
		for j := i; j < i+seg; j++ {
			r := float64(ref[j])
			d := r - float64(got[j])
			sig += r * r
			noise += d * d
		}
		if sig < float64(seg)*100 {
			continue
		}
		snr := 10 * math.Log10(sig/max(noise, 1))
		sum += max(-10, min(snr, 40))
		count++
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}
