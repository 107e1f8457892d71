// Package gosilk implements the SILK speech codec in pure Go.
//
// SILK codes mono speech sampled at 8, 12, 16 or 24 kHz into a range-coded
// bitstream at 5 to 100 kbit/s. The encoder and decoder work on 20 ms
// frames; a packet carries one to five frames.
//
// # Encoding
//
// An Encoder takes one frame of PCM per call at the API sampling rate and
// returns a packet once enough frames have been collected for the
// configured packet size:
//
//	enc, err := gosilk.NewEncoder(gosilk.DefaultEncoderConfig(16000))
//	...
//	n, err := enc.Encode(frame, packet)
//	if n > 0 {
//		send(packet[:n])
//	}
//
// With DTX enabled, silent frames produce no packet at all.
//
// # Decoding
//
// A Decoder returns one frame per call. Pass a nil payload to conceal a
// lost packet. When the encoder runs with in-band FEC, the redundant copy of
// a lost packet can be recovered from a later one with SearchLBRR.
//
// Encoders and decoders are not safe for concurrent use. Independent
// streams may run in separate goroutines.
package gosilk
