package silk

// nsqVariant selects the noise shaping quantizer.
type nsqVariant int

const (
	nsqGreedy nsqVariant = iota
	nsqDelayedDecision
)

func (v nsqVariant) String() string {
	if v == nsqDelayedDecision {
		return "delayed-decision"
	}
	return "greedy"
}

// fillNSQParams converts the floating-point control of one frame to the
// fixed-point formats of the quantizer.
func (e *Encoder) fillNSQParams(p *nsqParams, ctl *encoderControl, si *sideInfo, gainsQ16 *[nbSubfr]int32) {
	p.frameLength = e.frameLength
	p.subfrLength = e.subfrLength
	p.ltpMemLength = e.ltpMemLength
	p.predictLPCOrder = e.predictLPCOrder
	p.shapingLPCOrder = e.cs.shapingLPCOrder
	p.nStates = e.cs.nStates

	p.signalType = si.signalType
	p.quantOffsetType = si.quantOffsetType
	p.nlsfInterpQ2 = si.nlsfInterpQ2
	p.seed = si.seed

	p.predCoefQ12 = ctl.predCoefQ12
	for k := 0; k < nbSubfr; k++ {
		for i := 0; i < e.cs.shapingLPCOrder; i++ {
			p.arShpQ13[k*maxShapeLPCOrder+i] = float2short(ctl.ar[k*maxShapeLPCOrder+i] * 8192)
		}
		p.lfShpQ14[k] = float2int(ctl.lfARShp[k]*16384)<<16 |
			int32(uint16(float2int(ctl.lfMAShp[k]*16384)))
		p.tiltQ14[k] = float2int(ctl.tilt[k] * 16384)
		p.harmShapeGainQ14[k] = float2int(ctl.harmShapeGain[k] * 16384)
		p.gainsQ16[k] = gainsQ16[k]
		p.pitchL[k] = ctl.pitchL[k]
	}
	p.lambdaQ10 = float2int(ctl.lambda * 1024)

	if si.signalType == typeVoiced {
		cb := ltpVQ(si.perIndex)
		for k := 0; k < nbSubfr; k++ {
			row := cb[si.ltpIndex[k]]
			for i := 0; i < ltpOrder; i++ {
				p.ltpCoefQ14[k*ltpOrder+i] = int16(row[i]) << 7
			}
		}
		p.ltpScaleQ14 = ltpScalesTableQ14[si.ltpScaleIndex]
	} else {
		p.ltpCoefQ14 = [nbSubfr * ltpOrder]int16{}
		p.ltpScaleQ14 = 0
	}
}

// quantizeFrame runs the configured quantizer variant on state st. The
// delayed-decision variant picks the seed of the winning path, which is
// written back to si.
func (e *Encoder) quantizeFrame(st *nsqState, ctl *encoderControl, si *sideInfo, gainsQ16 *[nbSubfr]int32, pulses []int8) {
	sc := e.scratch
	p := &sc.nsqParams
	e.fillNSQParams(p, ctl, si, gainsQ16)

	x16 := sc.x16[:e.frameLength]
	frame := e.xBuf[e.ltpMemLength : e.ltpMemLength+e.frameLength]
	for i, v := range frame {
		x16[i] = float2short(v)
	}

	if e.variant == nsqDelayedDecision {
		si.seed = st.quantizeDelDec(&sc.nsq, p, x16, pulses)
		return
	}
	st.quantize(&sc.nsq, p, x16, pulses)
}
