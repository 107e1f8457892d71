package silk

// Resampler converts 16-bit PCM between the API rate and the internal
// rates. The kernel is chosen once from the rate pair:
//
//	equal rates          copy
//	out = 2 x in         2x allpass upsampler
//	out > in             2x allpass upsampler + 12-phase FIR interpolation
//	in = 2 x out         allpass half-band decimator
//	in = 1.5 x out       AR2 + 4-tap FIR 2/3 decimator
//	other down ratios    AR2 + polyphase FIR decimator
//	any other pair       Kaiser-windowed polyphase FIR at the reduced ratio
//
// The fixed kernels consume input through a 1 ms delay line so the output
// lines up with the codec's frame boundaries.

type resamplerMode int

const (
	resamplerCopy resamplerMode = iota
	resamplerUp2HQ
	resamplerIIRFIR
	resamplerDown2
	resamplerDown2_3
	resamplerDownFIR
	resamplerRational
)

func (m resamplerMode) String() string {
	switch m {
	case resamplerCopy:
		return "copy"
	case resamplerUp2HQ:
		return "up2hq"
	case resamplerIIRFIR:
		return "iir_fir"
	case resamplerDown2:
		return "down2"
	case resamplerDown2_3:
		return "down2_3"
	case resamplerDownFIR:
		return "down_fir"
	case resamplerRational:
		return "rational"
	}
	return "unknown"
}

const (
	resamplerOrderFIR12     = 8
	resamplerDownOrderFIR0  = 18
	resamplerDownOrderFIR2  = 36
	resamplerDown2_3Order   = 4
	resamplerMaxBatchSizeMs = 10
	resamplerMaxFsKHz       = 48
	resamplerMaxBatchIn     = resamplerMaxBatchSizeMs * resamplerMaxFsKHz
)

// Allpass coefficients of the 2x upsampler, even and odd branches.
var (
	resamplerUp2HQ0 = [3]int32{1746, 14986, 39083 - 65536}
	resamplerUp2HQ1 = [3]int32{6854, 25769, 55542 - 65536}
)

// Half-band decimator allpass coefficients.
const (
	resamplerDown2Coef0 = 9872
	resamplerDown2Coef1 = 39809 - 65536
)

// Interpolation filters for fractions 1/24, 3/24, ..., 23/24.
var resamplerFracFIR12 = [12][4]int16{
	{189, -600, 617, 30567},
	{117, -159, -1070, 29704},
	{52, 221, -2392, 28276},
	{-4, 529, -3350, 26341},
	{-48, 758, -3956, 23973},
	{-80, 905, -4235, 21254},
	{-99, 972, -4222, 18278},
	{-107, 967, -3957, 15143},
	{-103, 896, -3487, 11950},
	{-91, 773, -2865, 8798},
	{-71, 611, -2143, 5784},
	{-46, 425, -1375, 2996},
}

// Decimation filters: two AR2 coefficients (Q14) followed by the
// symmetric FIR half, one block per phase.
var (
	resampler2_3LQ = [2 + 2*2]int16{-2797, -6507, 4697, 10739, 1567, 8276}

	resampler3_4Coefs = []int16{
		-20694, -13867,
		-49, 64, 17, -157, 353, -496, 163, 11047, 22205,
		-39, 6, 91, -170, 186, 23, -896, 6336, 19928,
		-19, -36, 102, -89, -24, 328, -951, 2568, 15909,
	}
	resampler1_3Coefs = []int16{
		16102, -15162,
		-13, 0, 20, 26, 5, -31, -43, -4, 65, 90, 7, -157, -248, -44, 593, 1583, 2612, 3271,
	}
	resampler1_4Coefs = []int16{
		22500, -15099,
		3, -14, -20, -15, 2, 25, 37, 25, -16, -71, -107, -79, 50, 292, 623, 982, 1288, 1464,
	}
	resampler1_6Coefs = []int16{
		27540, -15257,
		17, 12, 8, 1, -10, -22, -30, -32, -22, 3, 44, 100, 168, 243, 317, 381, 429, 455,
	}
)

// Delay compensation in input samples, for rates 8, 12, 16, 24 and 48 kHz.
var (
	resamplerDelayUp = [5][5]int8{
		/*  8 */ {0, 0, 2, 0, 0},
		/* 12 */ {0, 0, 4, 7, 4},
		/* 16 */ {0, 3, 0, 7, 7},
		/* 24 */ {0, 0, 0, 0, 4},
		/* 48 */ {0, 0, 0, 0, 0},
	}
	resamplerDelayDown = [5][5]int8{
		/*  8 */ {0, 0, 0, 0, 0},
		/* 12 */ {0, 0, 0, 0, 0},
		/* 16 */ {0, 1, 0, 0, 0},
		/* 24 */ {0, 2, 6, 0, 0},
		/* 48 */ {18, 10, 12, 0, 0},
	}
)

func resamplerRateID(fsHz int) int {
	switch fsHz {
	case 8000:
		return 0
	case 12000:
		return 1
	case 16000:
		return 2
	case 24000:
		return 3
	case 48000:
		return 4
	}
	return -1
}

// Resampler is a stateful sample-rate converter. A Resampler is not safe
// for concurrent use.
type Resampler struct {
	mode       resamplerMode
	fsInHz     int
	fsOutHz    int
	fsInKHz    int
	fsOutKHz   int
	inputDelay int
	batchSize  int

	invRatioQ16 int32
	firOrder    int
	firFracs    int
	coefs       []int16
	poly        *polyphaseFIR

	sIIR     [6]int32
	sFIR16   [resamplerOrderFIR12]int16
	sFIR32   [resamplerDownOrderFIR2]int32
	delayBuf [resamplerMaxFsKHz]int16

	buf16 [2*resamplerMaxBatchIn + resamplerOrderFIR12]int16
	buf32 [resamplerMaxBatchIn + resamplerDownOrderFIR2]int32
}

// NewResampler returns a converter from fsIn to fsOut Hz. Both rates must
// lie in 8000..48000. Pairs of 8, 12, 16, 24 and 48 kHz use the fixed
// kernels; any other pair uses the polyphase FIR.
func NewResampler(fsIn, fsOut int) (*Resampler, error) {
	r := &Resampler{}
	if err := r.init(fsIn, fsOut); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Resampler) init(fsIn, fsOut int) error {
	if fsIn < minResamplerHz || fsIn > maxResamplerHz || fsOut < minResamplerHz || fsOut > maxResamplerHz {
		return ErrInvalidSampleRate
	}
	inID, outID := resamplerRateID(fsIn), resamplerRateID(fsOut)
	if inID < 0 || outID < 0 {
		*r = Resampler{
			mode:    resamplerRational,
			fsInHz:  fsIn,
			fsOutHz: fsOut,
			poly:    newPolyphaseFIR(fsIn, fsOut),
		}
		return nil
	}
	*r = Resampler{
		fsInHz:    fsIn,
		fsOutHz:   fsOut,
		fsInKHz:   fsIn / 1000,
		fsOutKHz:  fsOut / 1000,
		batchSize: fsIn / 1000 * resamplerMaxBatchSizeMs,
	}

	up2x := 0
	switch {
	case fsOut == fsIn:
		r.mode = resamplerCopy
	case fsOut > fsIn:
		r.inputDelay = int(resamplerDelayUp[inID][outID])
		if fsOut == 2*fsIn {
			r.mode = resamplerUp2HQ
		} else {
			r.mode = resamplerIIRFIR
			up2x = 1
		}
	default:
		r.inputDelay = int(resamplerDelayDown[inID][outID])
		switch {
		case 2*fsOut == fsIn:
			r.mode = resamplerDown2
		case 3*fsOut == 2*fsIn:
			r.mode = resamplerDown2_3
		default:
			r.mode = resamplerDownFIR
			switch {
			case 4*fsOut == 3*fsIn:
				r.firFracs, r.firOrder, r.coefs = 3, resamplerDownOrderFIR0, resampler3_4Coefs
			case 3*fsOut == fsIn:
				r.firFracs, r.firOrder, r.coefs = 1, resamplerDownOrderFIR2, resampler1_3Coefs
			case 4*fsOut == fsIn:
				r.firFracs, r.firOrder, r.coefs = 1, resamplerDownOrderFIR2, resampler1_4Coefs
			case 6*fsOut == fsIn:
				r.firFracs, r.firOrder, r.coefs = 1, resamplerDownOrderFIR2, resampler1_6Coefs
			default:
				return ErrInvalidSampleRate
			}
		}
	}

	// Rounded up so the interpolator never runs past the input.
	r.invRatioQ16 = int32((fsIn<<(14+up2x))/fsOut) << 2
	for silkSMULWW(r.invRatioQ16, int32(fsOut)) < int32(fsIn<<up2x) {
		r.invRatioQ16++
	}
	return nil
}

// Reset clears the filter state, keeping the rate pair.
func (r *Resampler) Reset() {
	r.sIIR = [6]int32{}
	r.sFIR16 = [resamplerOrderFIR12]int16{}
	r.sFIR32 = [resamplerDownOrderFIR2]int32{}
	r.delayBuf = [resamplerMaxFsKHz]int16{}
	if r.poly != nil {
		r.poly.reset()
	}
}

// OutLen returns the number of samples Process produces for inLen input
// samples.
func (r *Resampler) OutLen(inLen int) int {
	if r.mode == resamplerRational {
		return r.poly.outLen(inLen)
	}
	return inLen * r.fsOutKHz / r.fsInKHz
}

// Process converts in and writes OutLen(len(in)) samples to out. For the
// fixed kernels in must hold a whole number of milliseconds.
func (r *Resampler) Process(out, in []int16) int {
	if r.mode == resamplerRational {
		return r.poly.process(out, in)
	}
	n := r.OutLen(len(in))
	if len(in) < r.fsInKHz {
		return 0
	}
	if r.mode == resamplerCopy {
		copy(out[:n], in)
		return n
	}
	nSamples := r.fsInKHz - r.inputDelay
	copy(r.delayBuf[r.inputDelay:r.fsInKHz], in[:nSamples])
	r.run(out[:r.fsOutKHz], r.delayBuf[:r.fsInKHz])
	r.run(out[r.fsOutKHz:n], in[nSamples:len(in)-r.inputDelay])
	copy(r.delayBuf[:r.inputDelay], in[len(in)-r.inputDelay:])
	return n
}

func (r *Resampler) run(out, in []int16) {
	if len(in) == 0 {
		return
	}
	switch r.mode {
	case resamplerUp2HQ:
		r.up2HQ(out, in)
	case resamplerIIRFIR:
		r.iirFIR(out, in)
	case resamplerDown2:
		r.down2(out, in)
	case resamplerDown2_3:
		r.down2_3(out, in)
	case resamplerDownFIR:
		r.downFIR(out, in)
	}
}

// up2HQ doubles the rate with two third-order allpass branches.
func (r *Resampler) up2HQ(out, in []int16) {
	s := &r.sIIR
	for k, v := range in {
		in32 := int32(v) << 10

		y := in32 - s[0]
		x := silkSMULWB(y, resamplerUp2HQ0[0])
		o1 := s[0] + x
		s[0] = in32 + x

		y = o1 - s[1]
		x = silkSMULWB(y, resamplerUp2HQ0[1])
		o2 := s[1] + x
		s[1] = o1 + x

		y = o2 - s[2]
		x = silkSMLAWB(y, y, resamplerUp2HQ0[2])
		o1 = s[2] + x
		s[2] = o2 + x
		out[2*k] = silkSAT16(silkRSHIFT_ROUND(o1, 10))

		y = in32 - s[3]
		x = silkSMULWB(y, resamplerUp2HQ1[0])
		o1 = s[3] + x
		s[3] = in32 + x

		y = o1 - s[4]
		x = silkSMULWB(y, resamplerUp2HQ1[1])
		o2 = s[4] + x
		s[4] = o1 + x

		y = o2 - s[5]
		x = silkSMLAWB(y, y, resamplerUp2HQ1[2])
		o1 = s[5] + x
		s[5] = o2 + x
		out[2*k+1] = silkSAT16(silkRSHIFT_ROUND(o1, 10))
	}
}

func (r *Resampler) iirFIR(out, in []int16) {
	buf := r.buf16[:]
	copy(buf, r.sFIR16[:])
	outIdx := 0
	var nIn int
	for {
		nIn = min(len(in), r.batchSize)
		r.up2HQ(buf[resamplerOrderFIR12:], in[:nIn])
		outIdx = r.firInterpol(out, outIdx, buf, int32(nIn)<<17)
		in = in[nIn:]
		if len(in) == 0 {
			break
		}
		copy(buf, buf[2*nIn:2*nIn+resamplerOrderFIR12])
	}
	copy(r.sFIR16[:], buf[2*nIn:2*nIn+resamplerOrderFIR12])
}

func (r *Resampler) firInterpol(out []int16, outIdx int, buf []int16, maxIndexQ16 int32) int {
	for idx := int32(0); idx < maxIndexQ16 && outIdx < len(out); idx += r.invRatioQ16 {
		tab := int(silkSMULWB(idx&0xFFFF, 12))
		p := buf[idx>>16:]
		c0 := &resamplerFracFIR12[tab]
		c1 := &resamplerFracFIR12[11-tab]
		res := silkSMULBB(int32(p[0]), int32(c0[0]))
		res = silkSMLABB(res, int32(p[1]), int32(c0[1]))
		res = silkSMLABB(res, int32(p[2]), int32(c0[2]))
		res = silkSMLABB(res, int32(p[3]), int32(c0[3]))
		res = silkSMLABB(res, int32(p[4]), int32(c1[3]))
		res = silkSMLABB(res, int32(p[5]), int32(c1[2]))
		res = silkSMLABB(res, int32(p[6]), int32(c1[1]))
		res = silkSMLABB(res, int32(p[7]), int32(c1[0]))
		out[outIdx] = silkSAT16(silkRSHIFT_ROUND(res, 15))
		outIdx++
	}
	return outIdx
}

func (r *Resampler) down2(out, in []int16) {
	s := &r.sIIR
	for k := 0; k < len(in)>>1; k++ {
		in32 := int32(in[2*k]) << 10
		y := in32 - s[0]
		x := silkSMLAWB(y, y, resamplerDown2Coef1)
		o := s[0] + x
		s[0] = in32 + x

		in32 = int32(in[2*k+1]) << 10
		y = in32 - s[1]
		x = silkSMULWB(y, resamplerDown2Coef0)
		o += s[1] + x
		s[1] = in32 + x

		out[k] = silkSAT16(silkRSHIFT_ROUND(o, 11))
	}
}

// ar2 runs the second-order AR pre-filter, producing Q8 output.
func ar2(s []int32, out []int32, in []int16, a0, a1 int32) {
	for k, v := range in {
		o := s[0] + int32(v)<<8
		out[k] = o
		o <<= 2
		s[0] = silkSMLAWB(s[1], o, a0)
		s[1] = silkSMULWB(o, a1)
	}
}

func (r *Resampler) down2_3(out, in []int16) {
	const order = resamplerDown2_3Order
	c := &resampler2_3LQ
	buf := r.buf32[:]
	copy(buf, r.sFIR32[:order])
	outIdx := 0
	var nIn int
	for {
		nIn = min(len(in), r.batchSize)
		ar2(r.sIIR[:2], buf[order:], in[:nIn], int32(c[0]), int32(c[1]))
		p := buf
		for counter := nIn; counter > 2; counter -= 3 {
			res := silkSMULWB(p[0], int32(c[2]))
			res = silkSMLAWB(res, p[1], int32(c[3]))
			res = silkSMLAWB(res, p[2], int32(c[5]))
			res = silkSMLAWB(res, p[3], int32(c[4]))
			out[outIdx] = silkSAT16(silkRSHIFT_ROUND(res, 6))

			res = silkSMULWB(p[1], int32(c[4]))
			res = silkSMLAWB(res, p[2], int32(c[5]))
			res = silkSMLAWB(res, p[3], int32(c[3]))
			res = silkSMLAWB(res, p[4], int32(c[2]))
			out[outIdx+1] = silkSAT16(silkRSHIFT_ROUND(res, 6))
			outIdx += 2
			p = p[3:]
		}
		in = in[nIn:]
		if len(in) == 0 {
			break
		}
		copy(buf, buf[nIn:nIn+order])
	}
	copy(r.sFIR32[:order], buf[nIn:nIn+order])
}

func (r *Resampler) downFIR(out, in []int16) {
	buf := r.buf32[:]
	copy(buf, r.sFIR32[:r.firOrder])
	fir := r.coefs[2:]
	outIdx := 0
	var nIn int
	for {
		nIn = min(len(in), r.batchSize)
		ar2(r.sIIR[:2], buf[r.firOrder:], in[:nIn], int32(r.coefs[0]), int32(r.coefs[1]))
		for idx := int32(0); idx < int32(nIn)<<16 && outIdx < len(out); idx += r.invRatioQ16 {
			p := buf[idx>>16:]
			var res int32
			if r.firOrder == resamplerDownOrderFIR0 {
				half := resamplerDownOrderFIR0 / 2
				ph := int(silkSMULWB(idx&0xFFFF, int32(r.firFracs)))
				fwd := fir[half*ph:]
				rev := fir[half*(r.firFracs-1-ph):]
				for j := 0; j < half; j++ {
					res = silkSMLAWB(res, p[j], int32(fwd[j]))
				}
				for j := 0; j < half; j++ {
					res = silkSMLAWB(res, p[resamplerDownOrderFIR0-1-j], int32(rev[j]))
				}
			} else {
				for j := 0; j < r.firOrder/2; j++ {
					res = silkSMLAWB(res, p[j]+p[r.firOrder-1-j], int32(fir[j]))
				}
			}
			out[outIdx] = silkSAT16(silkRSHIFT_ROUND(res, 6))
			outIdx++
		}
		in = in[nIn:]
		if len(in) == 0 {
			break
		}
		copy(buf, buf[nIn:nIn+r.firOrder])
	}
	copy(r.sFIR32[:r.firOrder], buf[nIn:nIn+r.firOrder])
}
