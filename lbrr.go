package gosilk

import "github.com/thesyncim/gosilk/silk"

// SearchLBRR returns the low bitrate redundant copy that payload carries of
// the packet lossOffset (1 or 2) packets earlier. The result aliases payload
// and can be passed to Decoder.DecodePacket.
//
// Returns ErrNoFECData when payload carries no copy at that distance.
func SearchLBRR(payload []byte, lossOffset int) ([]byte, error) {
	if len(payload) == 0 && (lossOffset == 1 || lossOffset == 2) {
		return nil, ErrNoFECData
	}
	lbrr, err := silk.SearchLBRR(payload, lossOffset)
	if err != nil {
		return nil, wrapCodecError(err)
	}
	return lbrr, nil
}
