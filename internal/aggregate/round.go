package aggregate

import "math"

// round rounds half up, matching how stored dashboards computed percentages.
func round(x float64) int {
	return int(math.Floor(x + 0.5))
}

// percent is round(part/whole*100), or 0 when whole is 0.
func percent(part, whole int) int {
	if whole == 0 {
		return 0
	}
	return round(float64(part) / float64(whole) * 100)
}
