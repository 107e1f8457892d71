package silk

// configure applies the requested configuration. It runs at packet
// boundaries only, so every frame of a packet shares one internal rate and
// packet size.
func (e *Encoder) configure() error {
	c := &e.ctl
	e.apiFsHz = c.APISampleRate
	e.maxInternalFsKHz = c.MaxInternalSampleRate / 1000
	e.packetSizeMs = c.PacketSizeMs
	e.packetLossPerc = c.PacketLossPercentage
	e.useInbandFEC = c.UseInbandFEC
	e.useDTX = c.UseDTX

	fsKHz := e.controlBandwidth(c.BitRate)
	if err := e.setupResampler(fsKHz); err != nil {
		return err
	}
	e.setupFs(fsKHz)
	if err := e.SetComplexity(c.Complexity); err != nil {
		return err
	}
	e.setupRate(c.BitRate)
	e.setupLBRR()
	return nil
}

// controlBandwidth returns the internal rate for the next packet. A fresh
// encoder picks the rate from the bitrate. Afterwards the rate only moves
// one step at a time during speech pauses: down once the bitrate deficit
// accumulated over time is large enough and the transition low-pass has
// run, up as soon as the bitrate allows it.
func (e *Encoder) controlBandwidth(targetRateBps int) int {
	fsKHz := e.fsKHz
	maxKHz := internalRateCap(e.apiFsHz, e.maxInternalFsKHz)

	switch {
	case fsKHz == 0:
		switch {
		case targetRateBps >= swb2wbBitrateBps:
			fsKHz = 24
		case targetRateBps >= wb2mbBitrateBps:
			fsKHz = 16
		case targetRateBps >= mb2nbBitrateBps:
			fsKHz = 12
		default:
			fsKHz = 8
		}
		return min(fsKHz, maxKHz)
	case fsKHz > maxKHz:
		e.lp.stop()
		return maxKHz
	}

	if e.apiFsHz > 8000 {
		e.bitrateDiff += int64(e.packetSizeMs) * int64(targetRateBps-e.bitrateThresholdDown)
		e.bitrateDiff = min(e.bitrateDiff, 0)

		if !e.vadFlag {
			if e.lp.idle() && fsKHz > 8 && e.bitrateDiff <= -accumBitsDiffThreshold {
				e.lp.startDown()
			} else if e.lp.downDone() {
				e.lp.stop()
				e.bitrateDiff = 0
				fsKHz = stepRate(fsKHz, -1)
			}

			if fsKHz == e.fsKHz && e.lp.idle() && fsKHz < maxKHz &&
				targetRateBps >= e.bitrateThresholdUp {
				fsKHz = stepRate(fsKHz, 1)
				e.lp.startUp()
				e.bitrateDiff = 0
			}
		}
	}

	// The filter is no longer needed once a switch up has faded in.
	if e.lp.upDone() && !e.vadFlag {
		e.lp.stop()
	}
	return fsKHz
}

// internalRateCap returns the highest internal rate in kHz that neither
// exceeds the API rate nor maxKHz. It never goes below 8 kHz.
func internalRateCap(apiFsHz, maxKHz int) int {
	capKHz := samplingRatesKHz[0]
	for _, r := range samplingRatesKHz {
		if r*1000 <= apiFsHz && r <= maxKHz {
			capKHz = r
		}
	}
	return capKHz
}

// stepRate moves one entry up or down the list of internal rates.
func stepRate(fsKHz, dir int) int {
	i := silkLimitInt(rateIndex(fsKHz)+dir, 0, len(samplingRatesKHz)-1)
	return samplingRatesKHz[i]
}

func (e *Encoder) setupResampler(fsKHz int) error {
	if e.resampler.fsInHz == e.apiFsHz && e.resampler.fsOutHz == fsKHz*1000 {
		return nil
	}
	return e.resampler.init(e.apiFsHz, fsKHz*1000)
}

// setupFs derives the frame geometry of a new internal rate and resets the
// analysis state that depends on it.
func (e *Encoder) setupFs(fsKHz int) {
	if fsKHz == e.fsKHz {
		return
	}
	e.fsKHz = fsKHz
	e.frameLength = frameLengthMs * fsKHz
	e.subfrLength = subfrLengthMs * fsKHz
	e.ltpMemLength = pitchLTPMemMs * fsKHz
	e.laPitch = laPitchMs * fsKHz
	e.laShape = laShapeMs * fsKHz
	e.shapeWinLength = shapeLPCWinMs * fsKHz
	e.pitchLPCWinLength = findPitchLPCWinMs * fsKHz
	e.predictLPCOrder = lpcOrderFor(fsKHz)

	switch fsKHz {
	case 24:
		e.bitrateThresholdUp, e.bitrateThresholdDown = maxTargetRateBps+1, swb2wbBitrateBps
	case 16:
		e.bitrateThresholdUp, e.bitrateThresholdDown = wb2swbBitrateBps, wb2mbBitrateBps
	case 12:
		e.bitrateThresholdUp, e.bitrateThresholdDown = mb2wbBitrateBps, mb2nbBitrateBps
	default:
		e.bitrateThresholdUp, e.bitrateThresholdDown = nb2mbBitrateBps, 0
	}
	e.bitrateDiff = 0

	e.xBuf = [len(e.xBuf)]float64{}
	e.nsq.reset()
	e.nsqLBRR.reset()
	for i := 0; i < e.predictLPCOrder; i++ {
		e.pred.prevNLSFq[i] = int16((i + 1) * 32768 / (e.predictLPCOrder + 1))
	}
	e.pred.prevLTPredCodGain = 0
	e.pred.hpLTPredCodGain = 0
	e.shape.harmShapeGainSmth = 0
	e.shape.tiltSmth = 0
	e.prevSignalType = typeUnvoiced
	e.prevLag = 100
	e.ltpCorr = 0
	e.firstFrameAfterReset = true
	e.targetRateBps = 0
}

// setupRate maps the target bitrate to a coding SNR by interpolating the
// table of the current internal rate.
func (e *Encoder) setupRate(targetRateBps int) {
	if targetRateBps == e.targetRateBps {
		return
	}
	e.targetRateBps = targetRateBps

	var table *[targetRateTabSize]int
	switch e.fsKHz {
	case 8:
		table = &targetRateTableNB
	case 12:
		table = &targetRateTableMB
	case 16:
		table = &targetRateTableWB
	default:
		table = &targetRateTableSWB
	}
	for k := 1; k < targetRateTabSize; k++ {
		if targetRateBps <= table[k] {
			frac := float64(targetRateBps-table[k-1]) / float64(table[k]-table[k-1])
			e.snrDB = 0.5 * (float64(snrTableQ1[k-1]) + frac*float64(snrTableQ1[k]-snrTableQ1[k-1]))
			return
		}
	}
}

// setupLBRR enables redundant coding when FEC is requested, loss is
// expected and the bitrate leaves room for it. The main stream SNR is
// lowered to compensate for the extra bits.
func (e *Encoder) setupLBRR() {
	e.lbrrEnabled = false
	e.inbandFECSNRComp = 0
	if !e.useInbandFEC || e.packetLossPerc <= lbrrLossThres {
		return
	}
	thresBps := inbandFECMinRateBps - 3000*(len(samplingRatesKHz)-1-rateIndex(e.fsKHz))
	if e.targetRateBps < thresBps {
		return
	}
	e.lbrrEnabled = true
	e.lbrrGainIncreases = max(8-e.packetLossPerc>>1, 0)
	e.inbandFECSNRComp = 6 - 0.5*float64(e.lbrrGainIncreases)
}
