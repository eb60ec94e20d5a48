package cycle

import (
	"fmt"

	algofft "github.com/MeKo-Christian/algo-fft"
)

// Transform computes the unscaled forward DFT of in:
// out[k] = sum_n in[n]*exp(-2*pi*i*k*n/N). len(in) must be a power of two.
func Transform(in []complex128) ([]complex128, error) {
	n := len(in)
	if n == 0 || n&(n-1) != 0 {
		return nil, fmt.Errorf("%w: %d", errNotPowerOfTwo, n)
	}

	plan, err := algofft.NewPlan64(n)
	if err != nil {
		return nil, fmt.Errorf("create fft plan: %w", err)
	}

	out := make([]complex128, n)
	if err := plan.Forward(out, in); err != nil {
		return nil, fmt.Errorf("forward fft: %w", err)
	}
	return out, nil
}
