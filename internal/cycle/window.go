package cycle

import (
	"fmt"

	"github.com/cwbudde/algo-dsp/dsp/window"
)

// HannWindow returns the symmetric Hann coefficients
// w[i] = 0.5*(1 - cos(2*pi*i/(n-1))). Both end points are zero.
func HannWindow(n int) ([]float64, error) {
	if n < 2 {
		return nil, ErrInsufficientData
	}
	w, err := window.Hann(n)
	if err != nil {
		return nil, fmt.Errorf("hann window: %w", err)
	}
	return w, nil
}

// ApplyHann multiplies values by a Hann window of the same length and
// returns the tapered copy.
func ApplyHann(values []float64) ([]float64, error) {
	w, err := HannWindow(len(values))
	if err != nil {
		return nil, err
	}
	return window.ApplyCoefficients(values, w)
}
