package common

func Lerp(a, b, t float64) float64 {
	return a + t*(b-a)
}

// MoveTowards steps current toward target by at most maxDelta.
func MoveTowards(current, target, maxDelta float64) float64 {
	d := target - current
	if d <= maxDelta && d >= -maxDelta {
		return target
	}
	if d > 0 {
		return current + maxDelta
	}
	return current - maxDelta
}

func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func Approx(a, b, eps float64) bool {
	d := a - b
	return d <= eps && d >= -eps
}
