package renderer

import (
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"
	"golang.org/x/image/font/gofont/gomono"

	"github.com/pthm-cable/ambient/components"
)

// gradientBand is the height of the strips the background gradient is
// drawn with. Each strip is bilinear, which is exact for a linear gradient
// between two stops.
const gradientBand = 8

// fontBaseSize is the rasterized size of the text atlas.
const fontBaseSize = 48

// RaylibCanvas draws to the current raylib render target. It must be created
// after rl.InitWindow and used between BeginDrawing and EndDrawing.
type RaylibCanvas struct {
	font   rl.Font
	loaded bool
	pts    []rl.Vector2
}

// NewRaylibCanvas loads the text atlas with ASCII plus the given extra runes
// (glyph symbols of the active theme).
func NewRaylibCanvas(extra []rune) *RaylibCanvas {
	codepoints := make([]rune, 0, 95+len(extra))
	for r := rune(32); r < 127; r++ {
		codepoints = append(codepoints, r)
	}
	codepoints = append(codepoints, extra...)

	font := rl.LoadFontFromMemory(".ttf", gomono.TTF, fontBaseSize, codepoints)
	if !rl.IsFontValid(font) {
		return &RaylibCanvas{font: rl.GetFontDefault()}
	}
	rl.SetTextureFilter(font.Texture, rl.FilterBilinear)
	return &RaylibCanvas{font: font, loaded: true}
}

// Close releases the font atlas.
func (c *RaylibCanvas) Close() {
	if c.loaded {
		rl.UnloadFont(c.font)
		c.loaded = false
	}
}

func rlColor(c Color) rl.Color {
	return rl.NewColor(c.R, c.G, c.B, c.A)
}

func (c *RaylibCanvas) Size() (float64, float64) {
	return float64(rl.GetScreenWidth()), float64(rl.GetScreenHeight())
}

func (c *RaylibCanvas) FillGradient(x0, y0, x1, y1 float64, stops []GradientStop) {
	w, h := c.Size()
	dx, dy := x1-x0, y1-y0
	lenSq := dx*dx + dy*dy
	at := func(x, y float64) rl.Color {
		if lenSq == 0 {
			return rlColor(gradientAt(stops, 0))
		}
		t := ((x-x0)*dx + (y-y0)*dy) / lenSq
		return rlColor(gradientAt(stops, components.Clamp01(t)))
	}

	for y := 0.0; y < h; y += gradientBand {
		bh := math.Min(gradientBand, h-y)
		rect := rl.NewRectangle(0, float32(y), float32(w), float32(bh))
		rl.DrawRectangleGradientEx(rect, at(0, y), at(0, y+bh), at(w, y), at(w, y+bh))
	}
}

func (c *RaylibCanvas) FillRect(x, y, w, h float64, col Color) {
	rl.DrawRectangleRec(rl.NewRectangle(float32(x), float32(y), float32(w), float32(h)), rlColor(col))
}

func (c *RaylibCanvas) FillCircle(x, y, r float64, col Color) {
	rl.DrawCircleV(rl.NewVector2(float32(x), float32(y)), float32(r), rlColor(col))
}

func (c *RaylibCanvas) StrokeCircle(x, y, r, width float64, col Color) {
	inner := math.Max(r-width/2, 0)
	rl.DrawRing(rl.NewVector2(float32(x), float32(y)), float32(inner), float32(r+width/2), 0, 360, 48, rlColor(col))
}

func (c *RaylibCanvas) Line(x0, y0, x1, y1, width float64, col Color) {
	rl.DrawLineEx(rl.NewVector2(float32(x0), float32(y0)), rl.NewVector2(float32(x1), float32(y1)), float32(width), rlColor(col))
}

func (c *RaylibCanvas) Polyline(pts []components.Position, width float64, col Color) {
	if len(pts) < 2 {
		return
	}
	c.pts = c.pts[:0]
	for _, p := range pts {
		c.pts = append(c.pts, rl.NewVector2(float32(p.X), float32(p.Y)))
	}
	rl.DrawSplineLinear(c.pts, float32(width), rlColor(col))
}

func (c *RaylibCanvas) Text(s string, x, y, size, rotation float64, col Color) {
	rl.DrawTextPro(c.font, s,
		rl.NewVector2(float32(x), float32(y)),
		rl.NewVector2(0, 0),
		float32(rotation*180/math.Pi),
		float32(size), float32(size)/10,
		rlColor(col))
}
