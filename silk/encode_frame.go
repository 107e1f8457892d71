package silk

// encodeFrame runs the analysis and quantization of one frame at the
// internal rate and appends it to the packet being assembled. It returns
// the packet length when the frame completes a packet and 0 otherwise.
func (e *Encoder) encodeFrame(in []int16, out []byte) (int, error) {
	sc := e.scratch
	ctl := &e.enc
	si := &e.si
	*ctl = encoderControl{}
	*si = sideInfo{}

	si.seed = e.frameCounter & 3
	e.frameCounter++

	vr := e.vad.analyze(in, e.fsKHz)
	e.speechActivityQ8 = vr.speechActivityQ8
	e.inputTiltQ15 = vr.inputTiltQ15
	e.inputQualityBandsQ15 = vr.inputQualityBandsQ15
	e.updateDTX()
	si.vadFlag = e.vadFlag

	// High-pass, then the bandwidth transition low-pass.
	hpOut := sc.hpOut[:e.frameLength]
	cutoff := e.hp.cutoffHz(e.fsKHz, e.prevSignalType == typeVoiced, e.prevLag,
		e.inputQualityBandsQ15[0], e.speechActivityQ8)
	e.hp.filter(hpOut, in, e.fsKHz, cutoff)
	e.lp.filter(hpOut)

	// The new samples enter laShape ahead of the frame being coded.
	x := e.xBuf[e.ltpMemLength+e.laShape : e.ltpMemLength+e.laShape+e.frameLength]
	for i, v := range hpOut {
		x[i] = float64(v)
	}
	// Keep the analysis away from denormals on digital silence.
	for k := 0; k < 8; k++ {
		x[k*(e.frameLength>>3)] += float64(1-(k&2)) * 1e-6
	}

	resPitch := sc.resPitch[:e.ltpMemLength+e.frameLength+e.laPitch]
	e.findPitchLags(ctl, resPitch)
	e.noiseShapeAnalysis(ctl, resPitch[e.ltpMemLength:])
	e.findPredCoefs(ctl, resPitch)

	var gainsQ16 [nbSubfr]int32
	e.processGains(ctl, &gainsQ16)

	e.encodeLBRR(ctl)

	pulses := sc.pulses[:e.frameLength]
	e.quantizeFrame(&e.nsq, ctl, si, &gainsQ16, pulses)

	first := e.nFramesInPayload == 0
	if first {
		e.rc.Init(e.rcBuf[:])
		e.nBytesInPayload = 0
	}
	encodeIndices(&e.rc, si, e.fsKHz, first, e.prevTypeOffset)
	encodePulses(&e.rc, pulses, si.signalType, si.quantOffsetType)
	e.rc.Encode(vadFlagCDF, boolToInt(si.vadFlag))
	e.prevTypeOffset = si.typeOffset()

	// Slide the analysis buffer by one frame.
	keep := e.ltpMemLength + e.laShape
	copy(e.xBuf[:keep], e.xBuf[e.frameLength:e.frameLength+keep])

	e.prevSignalType = si.signalType
	e.prevLag = ctl.pitchL[nbSubfr-1]
	e.firstFrameAfterReset = false

	if err := e.rc.Err(); err != nil {
		e.nFramesInPayload = 0
		return 0, err
	}
	e.nFramesInPayload++

	var (
		n      int
		nBytes int
		err    error
	)
	if e.nFramesInPayload*frameLengthMs >= e.packetSizeMs {
		n, err = e.finishPacket(out)
		nBytes = n
	} else {
		e.rc.Encode(frameTerminationCDF, moreFrames)
		nBytes, _ = e.rc.Len()
	}

	// Track how far the produced rate runs ahead of the target.
	e.bufferedInChannelMs += 8000*float64(nBytes-e.nBytesInPayload)/float64(e.targetRateBps) - frameLengthMs
	e.bufferedInChannelMs = min(max(e.bufferedInChannelMs, 0), maxBufferedMs)
	e.nBytesInPayload = nBytes

	if err != nil {
		return 0, err
	}
	return n, nil
}

// finishPacket terminates the packet, copies it to out together with any
// redundant packet that is due, and stores the redundancy of this packet in
// the ring.
func (e *Encoder) finishPacket(out []byte) (int, error) {
	e.nFramesInPayload = 0

	ent, term := e.lbrr.pick()
	e.rc.Encode(frameTerminationCDF, term)
	nBytes, _ := e.rc.Len()
	if len(out) < nBytes {
		return 0, ErrPayloadBufferTooShort
	}
	payload := e.rc.Done()
	if payload == nil {
		return 0, e.rc.Err()
	}
	n := copy(out, payload)
	if term > moreFrames && len(out) >= n+ent.n {
		n += copy(out[n:], ent.payload[:ent.n])
	}
	e.lbrr.push(e.rcLBRRBuf[:e.nBytesLBRR], e.lbrrUsage)
	return n, nil
}

// updateDTX converts the speech activity into the VAD flag and the DTX
// state. Transmission stops after noSpeechFramesBeforeDTX inactive frames
// and is resumed briefly every maxConsecutiveDTX frames.
func (e *Encoder) updateDTX() {
	if e.speechActivityQ8 >= speechActivityDTXQ8 {
		e.noSpeechCounter = 0
		e.inDTX = false
		e.vadFlag = true
		return
	}
	e.vadFlag = false
	e.noSpeechCounter++
	if e.noSpeechCounter > noSpeechFramesBeforeDTX {
		e.inDTX = true
	}
	if e.noSpeechCounter > maxConsecutiveDTX {
		e.noSpeechCounter = 0
		e.inDTX = false
	}
}
