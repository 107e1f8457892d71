package silk

import "github.com/thesyncim/gosilk/rangecoding"

// lbrrEntry is one delayed redundant packet waiting to be appended.
type lbrrEntry struct {
	payload [rangecoding.MaxPayloadBytes]byte
	n       int
	usage   int
}

// lbrrRing holds the redundant encodings of the last maxLBRRDelay packets.
// A packet's redundancy travels in the packet after it (usage plus1) or the
// one after that (plus2).
type lbrrRing struct {
	buf    [maxLBRRDelay]lbrrEntry
	oldest int
}

func (r *lbrrRing) next(i int) int {
	return (i + 1) % maxLBRRDelay
}

// pick returns the entry to append to the packet being finished and the
// frame terminator announcing it.
func (r *lbrrRing) pick() (*lbrrEntry, int) {
	idx := r.next(r.oldest)
	term := lastFrame
	if r.buf[idx].usage == addLBRRToPlus1 {
		term = lbrrVer1
	}
	if r.buf[r.oldest].usage == addLBRRToPlus2 {
		term = lbrrVer2
		idx = r.oldest
	}
	return &r.buf[idx], term
}

// push stores the redundant payload of the packet just finished in the
// oldest slot and advances the ring.
func (r *lbrrRing) push(payload []byte, usage int) {
	ent := &r.buf[r.oldest]
	ent.n = copy(ent.payload[:], payload)
	ent.usage = usage
	r.oldest = r.next(r.oldest)
}

// Rates below which only the parameters, and no excitation, are coded in the
// redundant stream. Indexed by rate index.
var lbrrRateOnlyParamsBps = [len(samplingRatesKHz)]int{13500, 15500, 17500, 19500}

// lbrrCtrl decides how the redundancy of the current frame is used. Only
// active frames get redundancy; high loss rates delay it by two packets so a
// burst of two losses can be recovered.
func (e *Encoder) lbrrCtrl() {
	e.lbrrUsage = noLBRR
	if !e.lbrrEnabled {
		return
	}
	if e.speechActivityQ8 > lbrrSpeechActivityQ8 && e.packetLossPerc > lbrrLossThres {
		e.lbrrUsage = addLBRRToPlus1
		if e.packetLossPerc > lbrrLossThresPlus2 {
			e.lbrrUsage = addLBRRToPlus2
		}
	}
}

// encodeLBRR codes the current frame a second time at a lower rate into the
// redundant stream, using its own quantizer state so the main stream is
// unaffected. The gains are raised by lbrrGainIncreases steps at the start of
// each packet. When the redundant packet is complete its length is kept in
// nBytesLBRR.
func (e *Encoder) encodeLBRR(ctl *encoderControl) {
	e.lbrrCtrl()
	if e.nFramesInPayload == 0 {
		e.nBytesLBRR = 0
	}
	if !e.lbrrEnabled {
		return
	}

	si := e.si
	pulses := e.scratch.pulsesLBRR[:e.frameLength]
	if e.complexity > 0 && e.targetRateBps > lbrrRateOnlyParamsBps[rateIndex(e.fsKHz)] {
		if e.nFramesInPayload == 0 {
			e.nsqLBRR = e.nsq
			e.lbrrPrevLastGainIndex = e.shape.lastGainIndex
			si.gainsIndices[0] = silkLimitInt(si.gainsIndices[0]+e.lbrrGainIncreases, 0, nLevelsQGain-1)
		}
		var gainsQ16 [nbSubfr]int32
		e.lbrrPrevLastGainIndex = gainsDequant(gainsQ16[:], si.gainsIndices[:], e.lbrrPrevLastGainIndex, e.nFramesInPayload > 0)
		e.quantizeFrame(&e.nsqLBRR, ctl, &si, &gainsQ16, pulses)
	} else {
		clear(pulses)
		si.ltpScaleIndex = 0
	}

	rc := &e.rcLBRR
	first := e.nFramesInPayload == 0
	if first {
		rc.Init(e.rcLBRRBuf[:])
	}
	encodeIndices(rc, &si, e.fsKHz, first, e.prevTypeOffset)
	encodePulses(rc, pulses, si.signalType, si.quantOffsetType)
	rc.Encode(vadFlagCDF, boolToInt(si.vadFlag))

	if (e.nFramesInPayload+1)*frameLengthMs < e.packetSizeMs {
		rc.Encode(frameTerminationCDF, moreFrames)
		return
	}
	rc.Encode(frameTerminationCDF, lastFrame)
	if payload := rc.Done(); payload != nil {
		e.nBytesLBRR = len(payload)
	} else {
		e.nBytesLBRR = 0
	}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
