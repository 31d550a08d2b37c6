// Package renderer draws the entity pool onto a drawing surface.
package renderer

import (
	"math"

	"github.com/pthm-cable/ambient/components"
	"github.com/pthm-cable/ambient/config"
)

// Color is an 8-bit RGBA color handed to a canvas. Components are never
// outside [0, 255]; float colors are clamped before conversion.
type Color struct {
	R, G, B, A uint8
}

// ToColor clamps c to [0, 1] and converts it to 8 bits.
func ToColor(c components.RGBA) Color {
	c = c.Clamped()
	return Color{to8(c.R), to8(c.G), to8(c.B), to8(c.A)}
}

// ConfigColor converts a config color with the given opacity.
func ConfigColor(c config.Color, opacity float64) Color {
	return Color{c.R, c.G, c.B, to8(components.Clamp01(opacity))}
}

func to8(v float64) uint8 {
	return uint8(math.Round(v * 255))
}

// GradientStop is one color stop of a linear gradient, offset in [0, 1].
type GradientStop struct {
	Offset float64
	Color  Color
}

// Layer is one of the back-to-front render passes.
type Layer uint8

const (
	LayerBackground Layer = iota
	LayerStructure
	LayerEdges
	LayerTrails
	LayerBodies
	LayerOverlays
)

var layerNames = [...]string{"background", "structure", "edges", "trails", "bodies", "overlays"}

func (l Layer) String() string {
	if int(l) < len(layerNames) {
		return layerNames[l]
	}
	return "unknown"
}

// Canvas is the drawing surface handle. Implementations draw immediately;
// the renderer owns ordering.
type Canvas interface {
	// Size returns the surface size in pixels.
	Size() (w, h float64)
	// FillGradient fills the whole surface with a linear gradient running
	// from (x0, y0) to (x1, y1).
	FillGradient(x0, y0, x1, y1 float64, stops []GradientStop)
	FillRect(x, y, w, h float64, c Color)
	FillCircle(x, y, r float64, c Color)
	StrokeCircle(x, y, r, width float64, c Color)
	Line(x0, y0, x1, y1, width float64, c Color)
	Polyline(pts []components.Position, width float64, c Color)
	// Text draws s with its top-left corner at (x, y), rotated by rotation
	// radians about that corner.
	Text(s string, x, y, size, rotation float64, c Color)
}

// LayerMarker is implemented by canvases that want to know which layer is
// being drawn (the recorder uses it to check ordering).
type LayerMarker interface {
	BeginLayer(l Layer)
}

// gradientAt returns the interpolated gradient color at t in [0, 1].
func gradientAt(stops []GradientStop, t float64) Color {
	if len(stops) == 0 {
		return Color{A: 255}
	}
	if t <= stops[0].Offset {
		return stops[0].Color
	}
	for i := 1; i < len(stops); i++ {
		if t <= stops[i].Offset {
			a, b := stops[i-1], stops[i]
			span := b.Offset - a.Offset
			if span <= 0 {
				return b.Color
			}
			f := (t - a.Offset) / span
			return lerpColor(a.Color, b.Color, f)
		}
	}
	return stops[len(stops)-1].Color
}

func lerpColor(a, b Color, f float64) Color {
	mix := func(x, y uint8) uint8 {
		return uint8(math.Round(float64(x) + (float64(y)-float64(x))*f))
	}
	return Color{mix(a.R, b.R), mix(a.G, b.G), mix(a.B, b.B), mix(a.A, b.A)}
}
