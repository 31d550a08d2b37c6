package renderer

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"

	"github.com/pthm-cable/ambient/components"
)

// ImageCanvas rasterizes into an in-memory image. It backs headless mode
// and PNG snapshots.
type ImageCanvas struct {
	dc    *gg.Context
	ttf   *truetype.Font
	faces map[int]font.Face // by rounded pixel size
}

// NewImageCanvas creates a canvas of the given pixel size.
func NewImageCanvas(width, height int) (*ImageCanvas, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid canvas size %dx%d", width, height)
	}
	ttf, err := truetype.Parse(gomono.TTF)
	if err != nil {
		return nil, fmt.Errorf("parsing font: %w", err)
	}
	return &ImageCanvas{
		dc:    gg.NewContext(width, height),
		ttf:   ttf,
		faces: make(map[int]font.Face),
	}, nil
}

// Resize replaces the backing image. Contents are discarded.
func (c *ImageCanvas) Resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	c.dc = gg.NewContext(width, height)
}

// Image returns the backing image.
func (c *ImageCanvas) Image() image.Image {
	return c.dc.Image()
}

// SavePNG writes the current image to path.
func (c *ImageCanvas) SavePNG(path string) error {
	return c.dc.SavePNG(path)
}

func nrgba(c Color) color.NRGBA {
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: c.A}
}

func (c *ImageCanvas) Size() (float64, float64) {
	return float64(c.dc.Width()), float64(c.dc.Height())
}

func (c *ImageCanvas) FillGradient(x0, y0, x1, y1 float64, stops []GradientStop) {
	grad := gg.NewLinearGradient(x0, y0, x1, y1)
	for _, st := range stops {
		grad.AddColorStop(st.Offset, nrgba(st.Color))
	}
	w, h := c.Size()
	c.dc.SetFillStyle(grad)
	c.dc.DrawRectangle(0, 0, w, h)
	c.dc.Fill()
}

func (c *ImageCanvas) FillRect(x, y, w, h float64, col Color) {
	c.dc.SetColor(nrgba(col))
	c.dc.DrawRectangle(x, y, w, h)
	c.dc.Fill()
}

func (c *ImageCanvas) FillCircle(x, y, r float64, col Color) {
	if r <= 0 {
		return
	}
	c.dc.SetColor(nrgba(col))
	c.dc.DrawCircle(x, y, r)
	c.dc.Fill()
}

func (c *ImageCanvas) StrokeCircle(x, y, r, width float64, col Color) {
	if r <= 0 {
		return
	}
	c.dc.SetColor(nrgba(col))
	c.dc.SetLineWidth(width)
	c.dc.DrawCircle(x, y, r)
	c.dc.Stroke()
}

func (c *ImageCanvas) Line(x0, y0, x1, y1, width float64, col Color) {
	c.dc.SetColor(nrgba(col))
	c.dc.SetLineWidth(width)
	c.dc.DrawLine(x0, y0, x1, y1)
	c.dc.Stroke()
}

func (c *ImageCanvas) Polyline(pts []components.Position, width float64, col Color) {
	if len(pts) < 2 {
		return
	}
	c.dc.SetColor(nrgba(col))
	c.dc.SetLineWidth(width)
	c.dc.MoveTo(pts[0].X, pts[0].Y)
	for _, p := range pts[1:] {
		c.dc.LineTo(p.X, p.Y)
	}
	c.dc.Stroke()
}

func (c *ImageCanvas) Text(s string, x, y, size, rotation float64, col Color) {
	c.dc.Push()
	defer c.dc.Pop()

	c.dc.SetFontFace(c.face(size))
	c.dc.SetColor(nrgba(col))
	if rotation != 0 {
		c.dc.RotateAbout(rotation, x, y)
	}
	c.dc.DrawStringAnchored(s, x, y, 0, 1)
}

// face returns a cached font face for the pixel size.
func (c *ImageCanvas) face(size float64) font.Face {
	key := int(math.Max(math.Round(size), 1))
	if f, ok := c.faces[key]; ok {
		return f
	}
	f := truetype.NewFace(c.ttf, &truetype.Options{Size: float64(key), Hinting: font.HintingNone})
	c.faces[key] = f
	return f
}
