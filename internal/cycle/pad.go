package cycle

// MinTransformLength is the smallest transform size used, regardless of
// how short the input is.
const MinTransformLength = 8

// PaddedLength returns the smallest power of two >= max(MinTransformLength, m).
func PaddedLength(m int) int {
	n := MinTransformLength
	for n < m {
		n <<= 1
	}
	return n
}

// PadPow2 copies values into a zeroed complex buffer of PaddedLength(len(values)).
func PadPow2(values []float64) []complex128 {
	buf := make([]complex128, PaddedLength(len(values)))
	for i, v := range values {
		buf[i] = complex(v, 0)
	}
	return buf
}
