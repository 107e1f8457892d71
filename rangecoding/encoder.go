// Package rangecoding implements the 16-bit CDF arithmetic coder used by the
// SILK bitstream.
//
// Symbols are coded against cumulative distribution tables of uint16 values
// that start at 0, are non-decreasing and end at 65535. The coder keeps a
// 32-bit base and a 16-bit range and emits whole bytes with carry
// propagation into bytes already written. Errors are sticky: once set, every
// further call is a no-op and Err reports the first failure.
package rangecoding

import "math/bits"

// MaxPayloadBytes is the largest payload the coder will read or produce.
const MaxPayloadBytes = 1024

// Encoder is the range encoder. The zero value is not usable; call Init.
type Encoder struct {
	buf  []byte // output buffer
	offs int    // bytes written
	base uint32 // low end of interval (Q32)
	rng  uint32 // interval width (Q16)
	err  error
}

// Init resets the encoder to write into buf.
func (e *Encoder) Init(buf []byte) {
	e.buf = buf
	e.offs = 0
	e.base = 0
	e.rng = 0xFFFF
	e.err = nil
}

// Err returns the first error encountered since Init.
func (e *Encoder) Err() error {
	return e.err
}

// Encode codes symbol s with the given CDF.
func (e *Encoder) Encode(cdf []uint16, s int) {
	if e.err != nil {
		return
	}
	if s < 0 || s+1 >= len(cdf) {
		e.err = ErrCDFOutOfRange
		return
	}
	low := uint32(cdf[s])
	high := uint32(cdf[s+1])
	if high <= low {
		e.err = ErrZeroIntervalWidth
		return
	}

	baseOld := e.base
	e.base += e.rng * low
	rng32 := e.rng * (high - low)

	if e.base < baseOld {
		e.propagateCarry(e.offs)
	}

	if rng32&0xFF000000 != 0 {
		e.rng = rng32 >> 16
		return
	}
	if rng32&0xFFFF0000 != 0 {
		e.rng = rng32 >> 8
	} else {
		e.rng = rng32
		e.writeByte()
	}
	e.writeByte()
}

// EncodeMulti codes syms[k] with cdfs[k] for every k.
func (e *Encoder) EncodeMulti(cdfs [][]uint16, syms []int) {
	for k := range syms {
		e.Encode(cdfs[k], syms[k])
	}
}

// writeByte emits the top byte of base and shifts it out.
func (e *Encoder) writeByte() {
	if e.err != nil {
		return
	}
	if e.offs >= len(e.buf) {
		e.err = ErrWriteBeyondBuffer
		return
	}
	e.buf[e.offs] = byte(e.base >> 24)
	e.offs++
	e.base <<= 8
}

// propagateCarry adds one to the byte string ending before position ix.
func (e *Encoder) propagateCarry(ix int) {
	for ix > 0 {
		ix--
		e.buf[ix]++
		if e.buf[ix] != 0 {
			return
		}
	}
}

// Len returns the number of bytes and bits the payload occupies if it were
// finalized now.
func (e *Encoder) Len() (nBytes, nBits int) {
	nBits = e.offs<<3 + bits.LeadingZeros32(e.rng-1) - 14
	nBytes = (nBits + 7) >> 3
	return nBytes, nBits
}

// Done flushes the remaining state and returns the finalized payload, a
// prefix of the buffer passed to Init. Unused bits in the last byte are set
// to one. Done returns nil if an error occurred.
func (e *Encoder) Done() []byte {
	if e.err != nil {
		return nil
	}
	nBytes, nBits := e.Len()
	if nBytes > len(e.buf) {
		e.err = ErrWriteBeyondBuffer
		return nil
	}

	bitsToStore := nBits - e.offs<<3
	base24 := e.base >> 8
	base24 += 0x00800000 >> uint(bitsToStore-1)
	base24 &= 0xFFFFFFFF << uint(24-bitsToStore)

	if base24&0x01000000 != 0 {
		e.propagateCarry(e.offs)
	}

	if e.offs < len(e.buf) {
		e.buf[e.offs] = byte(base24 >> 16)
		e.offs++
		if bitsToStore > 8 && e.offs < len(e.buf) {
			e.buf[e.offs] = byte(base24 >> 8)
			e.offs++
		}
	}

	if nBits&7 != 0 {
		e.buf[nBytes-1] |= byte(0xFF >> uint(nBits&7))
	}
	return e.buf[:nBytes]
}
