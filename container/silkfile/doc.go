// Package silkfile implements the SILK v3 file format used to store raw
// SILK streams.
//
// A file is a magic header followed by length-prefixed packets:
//
//	Bytes 0-8:   "#!SILK_V3" magic
//	Then, per 20 ms packet slot:
//	  Bytes 0-1: payload length, little-endian int16
//	  Bytes 2+:  payload
//	Last:        length 0xFFFF (-1) marks the end of the stream
//
// A zero length marks a slot without payload: a frame suppressed by DTX or
// a packet that was lost before it was stored. Decoders conceal such slots.
//
// Files produced by WeChat and QQ prepend a single 0x02 byte to the magic
// and omit the end marker. The Reader accepts both; the Writer produces the
// Tencent layout when asked to.
package silkfile
