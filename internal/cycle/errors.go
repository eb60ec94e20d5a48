package cycle

import "errors"

var (
	// ErrInsufficientData is returned when a series is too short to fit a
	// trend line or shape a window (fewer than two values).
	ErrInsufficientData = errors.New("insufficient data: at least 2 values required")
	// ErrNonFiniteValue is returned when the input contains NaN or ±Inf.
	ErrNonFiniteValue = errors.New("series contains a non-finite value")
	// ErrInvalidSamplingInterval is returned for a non-positive or non-finite
	// sampling interval.
	ErrInvalidSamplingInterval = errors.New("sampling interval must be a positive number of days")
	errNotPowerOfTwo           = errors.New("transform length must be a power of two")
)
