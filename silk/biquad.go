package silk

// biquad runs a second-order direct form II transposed filter with Q13
// coefficients (A without the leading one, as Q14). in and out may alias.
func biquad(out, in []int16, b *[3]int32, a *[2]int32, s *[2]int32) {
	s0, s1 := s[0], s[1]
	a0Neg, a1Neg := -a[0], -a[1]
	for k, x := range in {
		in16 := int32(x)
		out32 := silkSMLABB(s0, in16, b[0])

		s0 = silkSMLABB(s1, in16, b[1])
		s0 += silkSMULWB(out32, a0Neg) << 3

		s1 = silkSMULWB(out32, a1Neg) << 3
		s1 = silkSMLABB(s1, in16, b[2])

		out[k] = silkSAT16((out32 >> 13) + 1)
	}
	s[0], s[1] = s0, s1
}

// biquadAlt runs a second-order filter with Q28 coefficients, splitting the
// feedback terms into high and low parts to keep full precision. in and out
// may alias.
func biquadAlt(out, in []int16, bQ28 *[3]int32, aQ28 *[2]int32, s *[2]int32) {
	a0L := (-aQ28[0]) & 0x00003FFF
	a0U := (-aQ28[0]) >> 14
	a1L := (-aQ28[1]) & 0x00003FFF
	a1U := (-aQ28[1]) >> 14

	for k, x := range in {
		inVal := int32(x)
		out32Q14 := silkSMLAWB(s[0], bQ28[0], inVal) << 2

		s[0] = s[1] + silkRSHIFT_ROUND(silkSMULWB(out32Q14, a0L), 14)
		s[0] = silkSMLAWB(s[0], out32Q14, a0U)
		s[0] = silkSMLAWB(s[0], bQ28[1], inVal)

		s[1] = silkRSHIFT_ROUND(silkSMULWB(out32Q14, a1L), 14)
		s[1] = silkSMLAWB(s[1], out32Q14, a1U)
		s[1] = silkSMLAWB(s[1], bQ28[2], inVal)

		out[k] = silkSAT16((out32Q14 + (1 << 14) - 1) >> 14)
	}
}
