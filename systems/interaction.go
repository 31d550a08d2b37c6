package systems

import (
	"math"

	"github.com/pthm-cable/ambient/components"
)

// Bounds is the surface size in pixels.
type Bounds struct {
	Width, Height float64
}

// Valid reports whether both dimensions are finite and positive.
func (b Bounds) Valid() bool {
	return finite(b.Width) && finite(b.Height) && b.Width > 0 && b.Height > 0
}

// Pointer is the last known cursor position in surface space.
type Pointer struct {
	X, Y    float64
	Present bool // false before the first move and after the pointer leaves
}

// Valid reports whether the pointer can influence entities this frame.
func (p Pointer) Valid() bool {
	return p.Present && finite(p.X) && finite(p.Y)
}

// Influence returns the velocity impulse and highlight intensity the pointer
// applies to an entity at pos. Within the radius both scale with
// (R - d) / R; at or beyond it both are zero. An invalid pointer has no
// effect.
func Influence(pos components.Position, ptr Pointer, m *components.Motion) (fx, fy, highlight float64) {
	if !ptr.Valid() || m.Radius <= 0 {
		return 0, 0, 0
	}

	dx := ptr.X - pos.X
	dy := ptr.Y - pos.Y
	d := math.Sqrt(dx*dx + dy*dy)
	if d >= m.Radius {
		return 0, 0, 0
	}

	w := (m.Radius - d) / m.Radius
	if m.Highlights {
		highlight = w
	}

	// No direction to push along when the pointer sits on the entity
	if d == 0 || m.Interaction == components.InteractNone {
		return 0, 0, highlight
	}

	mag := m.Strength * w / d
	switch m.Interaction {
	case components.InteractAttract:
		fx, fy = dx*mag, dy*mag
	case components.InteractRepel:
		fx, fy = -dx*mag, -dy*mag
	}
	return fx, fy, highlight
}
