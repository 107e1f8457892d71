package rangecoding

import "errors"

var (
	// ErrWriteBeyondBuffer indicates the encoder ran out of output space.
	ErrWriteBeyondBuffer = errors.New("rangecoding: write beyond buffer")

	// ErrReadBeyondBuffer indicates the decoder consumed more bytes than the
	// payload holds.
	ErrReadBeyondBuffer = errors.New("rangecoding: read beyond buffer")

	// ErrCDFOutOfRange indicates the coded value falls outside the CDF.
	ErrCDFOutOfRange = errors.New("rangecoding: cdf out of range")

	// ErrNormalizationFailed indicates inconsistent state while renormalizing.
	ErrNormalizationFailed = errors.New("rangecoding: normalization failed")

	// ErrZeroIntervalWidth indicates the decoded interval collapsed.
	ErrZeroIntervalWidth = errors.New("rangecoding: zero interval width")

	// ErrDecoderCheckFailed indicates the trailing padding bits of a payload
	// are not all ones, or the payload is shorter than the decoded length.
	ErrDecoderCheckFailed = errors.New("rangecoding: decoder check failed")

	// ErrPayloadTooLong indicates a payload larger than MaxPayloadBytes.
	ErrPayloadTooLong = errors.New("rangecoding: payload too long")
)
