package systems

import (
	"math"

	"github.com/pthm-cable/ambient/components"
)

// wrapAxis re-enters a coordinate from the opposite side once it leaves
// [-margin, size+margin). The span is size + 2*margin, so leaving by d on one
// side reappears d inside the other margin.
func wrapAxis(v, size, margin float64) float64 {
	lo := -margin
	hi := size + margin
	if v >= lo && v < hi {
		return v
	}
	span := hi - lo
	v = math.Mod(v-lo, span)
	if v < 0 {
		v += span
	}
	v += lo
	// Mod can round up to exactly hi
	if v >= hi {
		v = lo
	}
	return v
}

// bounceAxis reflects a coordinate off [0, size] and points the velocity
// back inside. Stale positions far outside (after a resize) are clamped.
func bounceAxis(v, vel, base, size float64) (float64, float64, float64) {
	switch {
	case v < 0:
		v = -v
		vel = math.Abs(vel)
		base = math.Abs(base)
	case v > size:
		v = 2*size - v
		vel = -math.Abs(vel)
		base = -math.Abs(base)
	}
	return clampFloat(v, 0, size), vel, base
}

// ApplyBoundary enforces the entity's boundary policy against b.
func ApplyBoundary(pos *components.Position, vel *components.Velocity, m *components.Motion, b Bounds) {
	switch m.Boundary {
	case components.BoundaryBounce:
		pos.X, vel.X, m.BaseVX = bounceAxis(pos.X, vel.X, m.BaseVX, b.Width)
		pos.Y, vel.Y, m.BaseVY = bounceAxis(pos.Y, vel.Y, m.BaseVY, b.Height)
	default:
		pos.X = wrapAxis(pos.X, b.Width, m.Margin)
		pos.Y = wrapAxis(pos.Y, b.Height, m.Margin)
	}
}
