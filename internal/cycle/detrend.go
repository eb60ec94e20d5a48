package cycle

// Detrend fits an ordinary least-squares line against the sample index and
// returns the residuals. The input is not modified.
func Detrend(values []float64) ([]float64, error) {
	n := len(values)
	if n < 2 {
		return nil, ErrInsufficientData
	}

	var sumX, sumY, sumXY, sumXX float64
	for i, y := range values {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}

	fn := float64(n)
	slope := (fn*sumXY - sumX*sumY) / (fn*sumXX - sumX*sumX)
	intercept := (sumY - slope*sumX) / fn

	out := make([]float64, n)
	for i, y := range values {
		out[i] = y - (slope*float64(i) + intercept)
	}
	return out, nil
}
