package reports

import "math"

// PercentChange is (current-reference)/reference*100, or 0 when reference is not positive.
func PercentChange(current, reference float64) float64 {
	if reference <= 0 || math.IsNaN(reference) || math.IsInf(reference, 0) {
		return 0
	}
	change := (current - reference) / reference * 100
	if math.IsNaN(change) || math.IsInf(change, 0) {
		return 0
	}
	return change
}
