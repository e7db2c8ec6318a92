package aggregate

import "math"

// ratio divides and returns 0 instead of NaN or an infinity.
func ratio(numerator, denominator float64) float64 {
	if denominator == 0 {
		return 0
	}
	return clamp(numerator / denominator)
}

func percent(numerator, denominator float64) float64 {
	return ratio(numerator, denominator) * 100
}

// change is the percentage change from previous to current.
func change(current, previous float64) float64 {
	return percent(current-previous, previous)
}

func clamp(value float64) float64 {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0
	}
	return value
}
