package silk

// Bandwidth transition low-pass. While the internal rate is about to switch
// down, the cutoff slides from the widest to the narrowest filter so the
// switch itself is inaudible; after a switch up it slides back.

const (
	lpIdle = iota
	lpDown
	lpUp
)

type lpState struct {
	s       [2]int32
	frameNo int // frames into the transition, 0 when no filter runs
	mode    int
}

func (lp *lpState) idle() bool {
	return lp.frameNo == 0
}

func (lp *lpState) startDown() {
	*lp = lpState{frameNo: 1, mode: lpDown}
}

func (lp *lpState) startUp() {
	*lp = lpState{frameNo: 1, mode: lpUp}
}

func (lp *lpState) stop() {
	*lp = lpState{}
}

// downDone reports whether a down transition has reached the narrowest
// filter, so the internal rate can be lowered.
func (lp *lpState) downDone() bool {
	return lp.mode == lpDown && lp.frameNo >= transitionFramesDown
}

func (lp *lpState) upDone() bool {
	return lp.mode == lpUp && lp.frameNo >= transitionFramesUp
}

// interpolateTransitionTaps returns the filter at position ind + facQ16/65536
// between neighbouring table entries.
func interpolateTransitionTaps(bQ28 *[transitionNB]int32, aQ28 *[transitionNA]int32, ind int, facQ16 int32) {
	if ind >= transitionIntNum-1 || facQ16 <= 0 {
		ind = min(ind, transitionIntNum-1)
		*bQ28 = transitionLPBQ28[ind]
		*aQ28 = transitionLPAQ28[ind]
		return
	}
	lo, hi := &transitionLPBQ28[ind], &transitionLPBQ28[ind+1]
	alo, ahi := &transitionLPAQ28[ind], &transitionLPAQ28[ind+1]
	if facQ16 < 32768 {
		for i := range bQ28 {
			bQ28[i] = silkSMLAWB(lo[i], hi[i]-lo[i], facQ16)
		}
		for i := range aQ28 {
			aQ28[i] = silkSMLAWB(alo[i], ahi[i]-alo[i], facQ16)
		}
		return
	}
	for i := range bQ28 {
		bQ28[i] = silkSMLAWB(hi[i], hi[i]-lo[i], facQ16-65536)
	}
	for i := range aQ28 {
		aQ28[i] = silkSMLAWB(ahi[i], ahi[i]-alo[i], facQ16-65536)
	}
}

// filter runs the transition filter in place on one frame and advances the
// transition.
func (lp *lpState) filter(x []int16) {
	if lp.frameNo == 0 {
		return
	}
	var pos, total int
	if lp.mode == lpDown {
		total = transitionFramesDown
		pos = min(lp.frameNo, total) * (transitionIntNum - 1)
	} else {
		total = transitionFramesUp
		pos = (total - min(lp.frameNo, total)) * (transitionIntNum - 1)
	}
	ind := pos / total
	facQ16 := int32((pos % total) << 16 / total)

	var bQ28 [transitionNB]int32
	var aQ28 [transitionNA]int32
	interpolateTransitionTaps(&bQ28, &aQ28, ind, facQ16)
	if lp.frameNo < total {
		lp.frameNo++
	}
	biquadAlt(x, x, &bQ28, &aQ28, &lp.s)
}
