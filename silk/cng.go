package silk

// cngState tracks the spectrum and level of the background noise seen in
// inactive frames, so that losses can be filled with matching noise.
type cngState struct {
	excBufQ14   [maxFrameLength]int32
	smthNLSFQ15 [maxLPCOrder]int16
	synthState  [maxLPCOrder]int32
	smthGainQ16 int32
	randSeed    int32
	fsKHz       int
}

func (c *cngState) reset(order int) {
	step := int32(32767) / int32(order+1)
	acc := int32(0)
	for i := 0; i < order; i++ {
		acc += step
		c.smthNLSFQ15[i] = int16(acc)
	}
	c.smthGainQ16 = 0
	c.randSeed = cngResetSeed
	c.synthState = [maxLPCOrder]int32{}
}

// apply updates the noise model from a received inactive frame, or adds
// comfort noise to a concealed one. With only set, the concealed frame was
// cleared and the noise replaces it at its full estimated level.
func (c *cngState) apply(d *Decoder, dc *decoderControl, frame []int16, only bool) {
	order := d.lpcOrder
	if d.fsKHz != c.fsKHz {
		c.reset(order)
		c.fsKHz = d.fsKHz
	}

	if d.lossCnt == 0 {
		if !d.vadFlag {
			c.learn(d, dc)
		}
		c.synthState = [maxLPCOrder]int32{}
		return
	}

	gainQ16 := c.smthGainQ16
	if !only {
		gainQ16 = c.residualGain(silkSMULWW(d.plc.randScaleQ14, d.plc.prevGainQ16[1]))
	}
	gainQ10 := gainQ16 >> 6

	sig := d.scratch.cngSig[:maxLPCOrder+len(frame)]
	c.excitation(sig[maxLPCOrder:])

	var aQ12 [maxLPCOrder]int16
	nlsf2a(aQ12[:order], c.smthNLSFQ15[:order], order)

	copy(sig[:maxLPCOrder], c.synthState[:])
	for i := range frame {
		predQ10 := shortTermPrediction(sig, maxLPCOrder+i-1, aQ12[:order])
		sig[maxLPCOrder+i] = silkAddSat32(sig[maxLPCOrder+i], silkLShiftSAT32(predQ10, 4))
		v := silkSAT16(silkRSHIFT_ROUND(silkSMULWW(sig[maxLPCOrder+i], gainQ10), 8))
		frame[i] = silkSAT16(int32(frame[i]) + int32(v))
	}
	copy(c.synthState[:], sig[len(frame):len(frame)+maxLPCOrder])
}

// learn smooths the spectrum and gain toward those of an inactive frame and
// keeps the excitation of its loudest subframe.
func (c *cngState) learn(d *Decoder, dc *decoderControl) {
	for i := 0; i < d.lpcOrder; i++ {
		c.smthNLSFQ15[i] += int16(silkSMULWB(int32(d.prevNLSFQ15[i])-int32(c.smthNLSFQ15[i]), cngNLSFSmthQ16))
	}

	subfr := d.subfrLength
	var maxGainQ16 int32
	loudest := 0
	for k := 0; k < nbSubfr; k++ {
		if dc.gainsQ16[k] > maxGainQ16 {
			maxGainQ16 = dc.gainsQ16[k]
			loudest = k
		}
	}
	copy(c.excBufQ14[subfr:nbSubfr*subfr], c.excBufQ14[:(nbSubfr-1)*subfr])
	copy(c.excBufQ14[:subfr], d.excQ14[loudest*subfr:(loudest+1)*subfr])

	for k := 0; k < nbSubfr; k++ {
		c.smthGainQ16 += silkSMULWB(dc.gainsQ16[k]-c.smthGainQ16, cngGainSmthQ16)
	}
}

// residualGain returns the noise gain that, together with the concealment
// noise of gain plcGainQ16, matches the smoothed background level.
func (c *cngState) residualGain(plcGainQ16 int32) int32 {
	if plcGainQ16 >= 1<<21 || c.smthGainQ16 > 1<<23 {
		g := (plcGainQ16 >> 16) * (plcGainQ16 >> 16)
		g = (c.smthGainQ16>>16)*(c.smthGainQ16>>16) - g<<5
		return silkSqrtApprox(g) << 16
	}
	g := silkSMULWW(plcGainQ16, plcGainQ16)
	g = silkSMULWW(c.smthGainQ16, c.smthGainQ16) - g<<5
	return silkSqrtApprox(g) << 8
}

// excitation fills out with samples drawn at random from the stored
// excitation.
func (c *cngState) excitation(out []int32) {
	mask := int32(cngBufMaskMax)
	for mask > int32(len(out)) {
		mask >>= 1
	}
	seed := c.randSeed
	for i := range out {
		seed = silkRAND(seed)
		out[i] = c.excBufQ14[(seed>>24)&mask]
	}
	c.randSeed = seed
}
