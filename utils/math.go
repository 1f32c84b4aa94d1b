package utils

import (
	"math"
)

// Square returns n*n.
func Square(n float64) float64 {
	return n * n
}

// RoundToUint16 rounds v to the nearest integer and clamps it to [0, math.MaxUint16]. NaN maps to 0.
func RoundToUint16(v float64) uint16 {
	if math.IsNaN(v) || v <= 0 {
		return 0
	}
	r := math.Round(v)
	if r >= math.MaxUint16 {
		return math.MaxUint16
	}
	return uint16(r)
}
