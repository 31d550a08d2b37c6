package systems

import "math"

const twoPi = 2 * math.Pi

// Clamp functions for common value ranges

// clampFloat clamps v between minVal and maxVal.
func clampFloat(v, minVal, maxVal float64) float64 {
	if v < minVal {
		return minVal
	}
	if v > maxVal {
		return maxVal
	}
	return v
}

// clamp01 clamps v to the [0, 1] range. NaN maps to 0.
func clamp01(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v >= 0 {
		return v
	}
	return 0
}

// Angle normalization

// wrapPhase wraps a phase counter to [0, 2π).
func wrapPhase(p float64) float64 {
	if p >= 0 && p < twoPi {
		return p
	}
	p = math.Mod(p, twoPi)
	if p < 0 {
		p += twoPi
	}
	if p >= twoPi {
		p = 0
	}
	return p
}

// Distance functions

// distanceSq returns the squared distance between two points.
func distanceSq(x1, y1, x2, y2 float64) float64 {
	dx := x1 - x2
	dy := y1 - y2
	return dx*dx + dy*dy
}

// distance returns the Euclidean distance between two points.
func distance(x1, y1, x2, y2 float64) float64 {
	return math.Sqrt(distanceSq(x1, y1, x2, y2))
}

// clampMagnitude scales (x, y) down to at most maxLen. maxLen <= 0 disables.
func clampMagnitude(x, y, maxLen float64) (float64, float64) {
	if maxLen <= 0 {
		return x, y
	}
	lenSq := x*x + y*y
	if lenSq <= maxLen*maxLen {
		return x, y
	}
	scale := maxLen / math.Sqrt(lenSq)
	return x * scale, y * scale
}

// finite reports whether v is neither NaN nor ±Inf.
func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
