// Package components defines ECS components for the entity pool.
package components

import "math"

// Kind identifies the visual actor an entity represents.
type Kind uint8

const (
	KindStar       Kind = iota // Twinkling point, optionally linked by proximity
	KindFlowNode               // Graph node (neural / world-map / tech node)
	KindSignalWave             // Horizontal analog signal trace
	KindFlowPoint              // Data point riding a signal wave
	KindGlyph                  // Floating glyph or falling code character
	KindTypedLine              // Line of text typed and erased over time
	KindDataPacket             // Ephemeral transfer along a connection
)

var kindNames = [...]string{"star", "flow_node", "signal_wave", "flow_point", "glyph", "typed_line", "data_packet"}

// String returns the config name of the kind.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// ParseKind maps a config name to a Kind.
func ParseKind(s string) (Kind, bool) {
	for i, name := range kindNames {
		if name == s {
			return Kind(i), true
		}
	}
	return 0, false
}

// Boundary is the edge policy of a kind, fixed for an entity's lifetime.
type Boundary uint8

const (
	BoundaryWrap   Boundary = iota // Re-enter from the opposite edge past the margin
	BoundaryBounce                 // Reflect velocity at the surface edge
)

// ParseBoundary maps a config name to a Boundary. Unknown names wrap.
func ParseBoundary(s string) Boundary {
	if s == "bounce" {
		return BoundaryBounce
	}
	return BoundaryWrap
}

// InteractionMode selects how the pointer pushes an entity.
type InteractionMode uint8

const (
	InteractNone InteractionMode = iota
	InteractAttract
	InteractRepel
)

// ParseInteractionMode maps a config name to an InteractionMode.
func ParseInteractionMode(s string) InteractionMode {
	switch s {
	case "attract":
		return InteractAttract
	case "repel":
		return InteractRepel
	}
	return InteractNone
}

// DriftMode selects the cosmetic oscillation added to integration.
type DriftMode uint8

const (
	DriftNone DriftMode = iota
	DriftSine
	DriftNoise
)

// ParseDriftMode maps a config name to a DriftMode.
func ParseDriftMode(s string) DriftMode {
	switch s {
	case "sine":
		return DriftSine
	case "noise":
		return DriftNoise
	}
	return DriftNone
}

// Position represents an entity's surface position in pixels.
type Position struct {
	X, Y float64
}

// Velocity represents an entity's velocity in pixels per tick.
type Velocity struct {
	X, Y float64
}

// RGBA is a color with float components nominally in [0, 1].
type RGBA struct {
	R, G, B, A float64
}

// Clamped returns the color with every component clamped to [0, 1].
// NaN components become 0.
func (c RGBA) Clamped() RGBA {
	return RGBA{Clamp01(c.R), Clamp01(c.G), Clamp01(c.B), Clamp01(c.A)}
}

// WithAlpha returns a copy of c with alpha replaced.
func (c RGBA) WithAlpha(a float64) RGBA {
	c.A = a
	return c
}

// RGB8 builds a color from 8-bit channels with full alpha.
func RGB8(r, g, b uint8) RGBA {
	return RGBA{float64(r) / 255, float64(g) / 255, float64(b) / 255, 1}
}

// Style is the visual style token of an entity.
type Style struct {
	Color   RGBA
	Size    float64 // > 0
	Opacity float64 // in [0, 1]
	Glow    float64 // halo strength, 0 disables
	Core    bool    // bright inner core
}

// Pulse is an oscillating counter driving periodic size/opacity changes.
type Pulse struct {
	Phase  float64 // radians in [0, 2π)
	Speed  float64 // radians per tick
	Amount float64 // fraction of size modulated
}

// Factor returns the pulse multiplier in [1-Amount, 1+Amount].
func (p *Pulse) Factor() float64 {
	return 1 + p.Amount*math.Sin(p.Phase)
}

// Motion holds the per-entity movement rules seeded from its kind.
type Motion struct {
	Kind     Kind
	Boundary Boundary
	Margin   float64 // wrap margin in pixels

	BaseVX, BaseVY float64 // seeded velocity that drag relaxes toward
	MaxSpeed       float64 // 0 means unbounded
	Drag           float64 // per-tick relaxation toward base velocity, in [0, 1]
	LinkPull       float64 // spring factor along topology edges

	Drift          DriftMode
	DriftAmplitude float64
	DriftScale     float64
	DriftSpeed     float64

	Interaction InteractionMode
	Radius      float64
	Strength    float64
	Highlights  bool
}

// Highlight is the render-only pointer proximity of an entity.
type Highlight struct {
	Intensity float64 // in [0, 1], 0 when the pointer is out of range
}

// Clamp01 clamps v to [0, 1]; NaN maps to 0.
func Clamp01(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v >= 0 {
		return v
	}
	return 0
}
