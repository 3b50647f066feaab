// Package utils contains small math helpers shared across the module.
package utils

import "math"

// FloatEpsilon is the machine epsilon for float64, the difference between 1.0
// and the next representable value.
const FloatEpsilon = 2.220446049250313e-16

// Float64AlmostEqual returns whether two floats are within epsilon of each other.
// NaN is never almost equal to anything, including NaN.
func Float64AlmostEqual(v1, v2, epsilon float64) bool {
	return math.Abs(v1-v2) <= epsilon
}

// Clamp returns min if value is lesser than min, max if value is greater them max, or
// the value if it is in between min and max.
func Clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
