package silk

import "errors"

var (
	// ErrInvalidSampleRate indicates an unsupported API or internal rate.
	ErrInvalidSampleRate = errors.New("silk: invalid sample rate")

	// ErrInvalidComplexity indicates a complexity outside 0..2.
	ErrInvalidComplexity = errors.New("silk: invalid complexity")

	// ErrInvalidPacketSize indicates a packet duration other than 20, 40,
	// 60, 80 or 100 ms.
	ErrInvalidPacketSize = errors.New("silk: invalid packet size")

	// ErrInvalidLossRate indicates a packet loss percentage outside 0..100.
	ErrInvalidLossRate = errors.New("silk: invalid packet loss percentage")

	// ErrInvalidFrameSize indicates an input buffer that is not one frame
	// at the API rate, or an output buffer too small for a decoded frame.
	ErrInvalidFrameSize = errors.New("silk: invalid frame size")

	// ErrPayloadBufferTooShort indicates that the finished packet did not
	// fit in the output buffer. The packet is dropped.
	ErrPayloadBufferTooShort = errors.New("silk: payload buffer too short")

	// ErrPayloadTooLarge indicates a payload longer than the decoder
	// accepts. The frame is concealed.
	ErrPayloadTooLarge = errors.New("silk: payload too large")

	// ErrPayloadCorrupt indicates a payload that does not decode to a
	// valid frame. The frame is concealed.
	ErrPayloadCorrupt = errors.New("silk: corrupt payload")

	// ErrNoLBRRData indicates that a payload carries no redundant copy at
	// the requested distance.
	ErrNoLBRRData = errors.New("silk: no LBRR data")

	// ErrInvalidLBRROffset indicates a loss distance other than 1 or 2.
	ErrInvalidLBRROffset = errors.New("silk: invalid LBRR offset")
)
