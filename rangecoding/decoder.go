package rangecoding

import "math/bits"

// Decoder is the range decoder. The zero value is not usable; call Init.
type Decoder struct {
	buf  []byte // payload
	offs int    // bytes consumed after the initial 4-byte window
	base uint32 // coded value relative to the interval (Q32)
	rng  uint32 // interval width (Q16)
	err  error
}

// Init resets the decoder to read from buf. Payloads longer than
// MaxPayloadBytes set ErrPayloadTooLong.
func (d *Decoder) Init(buf []byte) {
	d.buf = buf
	d.offs = 0
	d.rng = 0xFFFF
	d.base = 0
	d.err = nil
	if len(buf) > MaxPayloadBytes {
		d.err = ErrPayloadTooLong
		return
	}
	for i := 0; i < 4; i++ {
		d.base <<= 8
		if i < len(buf) {
			d.base |= uint32(buf[i])
		}
	}
}

// Err returns the first error encountered since Init.
func (d *Decoder) Err() error {
	return d.err
}

// Size returns the payload length in bytes.
func (d *Decoder) Size() int {
	return len(d.buf)
}

func (d *Decoder) nextByte() uint32 {
	ix := 4 + d.offs
	d.offs++
	if ix < len(d.buf) {
		return uint32(d.buf[ix])
	}
	return 0
}

// Decode decodes one symbol using cdf. The search for the symbol starts at
// index start, usually the most likely symbol. On error 0 is returned and the
// error is latched.
func (d *Decoder) Decode(cdf []uint16, start int) int {
	if d.err != nil {
		return 0
	}
	if len(cdf) < 2 {
		d.err = ErrCDFOutOfRange
		return 0
	}
	if start < 0 || start >= len(cdf) {
		start = (len(cdf) - 1) >> 1
	}

	ix := start
	high := uint32(cdf[ix])
	low := uint32(0)
	if d.rng*high > d.base {
		for {
			ix--
			if ix < 0 {
				d.err = ErrCDFOutOfRange
				return 0
			}
			low = uint32(cdf[ix])
			if d.rng*low <= d.base {
				break
			}
			high = low
			if high == 0 {
				d.err = ErrCDFOutOfRange
				return 0
			}
		}
	} else {
		for {
			low = high
			ix++
			if ix >= len(cdf) {
				d.err = ErrCDFOutOfRange
				return 0
			}
			high = uint32(cdf[ix])
			if d.rng*high > d.base {
				ix--
				break
			}
			if high == 0xFFFF {
				d.err = ErrCDFOutOfRange
				return 0
			}
		}
	}

	d.base -= d.rng * low
	rng32 := d.rng * (high - low)

	switch {
	case rng32&0xFF000000 != 0:
		d.rng = rng32 >> 16
	case rng32&0xFFFF0000 != 0:
		d.rng = rng32 >> 8
		if d.base>>24 != 0 {
			d.err = ErrNormalizationFailed
			return 0
		}
		d.base = d.base<<8 | d.nextByte()
	default:
		d.rng = rng32
		if d.base>>16 != 0 {
			d.err = ErrNormalizationFailed
			return 0
		}
		d.base = d.base<<8 | d.nextByte()
		d.base = d.base<<8 | d.nextByte()
	}

	if d.rng == 0 {
		d.err = ErrZeroIntervalWidth
		return 0
	}
	return ix
}

// DecodeMulti decodes len(out) symbols, symbol k with cdfs[k] starting the
// search at starts[k].
func (d *Decoder) DecodeMulti(cdfs [][]uint16, starts []int, out []int) {
	for k := range out {
		out[k] = d.Decode(cdfs[k], starts[k])
	}
}

// Len returns the number of bytes and bits consumed so far.
func (d *Decoder) Len() (nBytes, nBits int) {
	nBits = d.offs<<3 + bits.LeadingZeros32(d.rng-1) - 14
	nBytes = (nBits + 7) >> 3
	return nBytes, nBits
}

// Remaining returns the number of payload bytes after the symbols decoded so
// far. A negative value means the decoder read past the payload.
func (d *Decoder) Remaining() int {
	n, _ := d.Len()
	return len(d.buf) - n
}

// Check verifies that the payload was fully consumed and that the padding
// bits of its last byte are all set, as written by Encoder.Done.
func (d *Decoder) Check() error {
	if d.err != nil {
		return d.err
	}
	nBytes, nBits := d.Len()
	if nBytes-1 >= len(d.buf) || nBytes < 1 {
		d.err = ErrDecoderCheckFailed
		return d.err
	}
	if nBits&7 != 0 {
		mask := byte(0xFF >> uint(nBits&7))
		if d.buf[nBytes-1]&mask != mask {
			d.err = ErrDecoderCheckFailed
			return d.err
		}
	}
	return nil
}
