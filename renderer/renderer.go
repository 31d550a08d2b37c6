package renderer

import (
	"math"
	"math/rand"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/ambient/components"
	"github.com/pthm-cable/ambient/config"
	"github.com/pthm-cable/ambient/systems"
)

const (
	waveStep       = 4.0  // pixels between wave polyline samples
	glowRings      = 3    // concentric halo circles per glowing body
	labelFontSize  = 11.0 // highlight label size
	cursorBlinkHz  = 2.0
	maxTrailJump   = 0.5 // trail segments longer than this fraction of the surface are wrap jumps
	sparkBaseSize  = 2.0
	packetHaloSize = 2.5
)

var white = components.RGBA{R: 1, G: 1, B: 1, A: 1}

// Renderer draws one theme. Entity state is only read; overlay randomness
// (sparks, data labels) comes from the renderer's own source.
type Renderer struct {
	theme *config.ThemeConfig
	rng   *rand.Rand

	background []GradientStop
	wavePts    []components.Position
	outline    []components.Position
}

// NewRenderer creates a renderer for the theme.
func NewRenderer(theme *config.ThemeConfig, rng *rand.Rand) *Renderer {
	r := &Renderer{theme: theme, rng: rng}
	for _, st := range theme.Background.Stops {
		r.background = append(r.background, GradientStop{
			Offset: components.Clamp01(st.Offset),
			Color:  ConfigColor(st.Color, st.Opacity),
		})
	}
	return r
}

// Render draws the pool back to front: background, structure, edges,
// trails, bodies, overlays. t is the render clock in seconds.
func (r *Renderer) Render(c Canvas, p *systems.Pool, edges []components.Connection, packets []components.Packet, t float64) {
	w, h := c.Size()
	if w <= 0 || h <= 0 || p == nil {
		return
	}
	marker, _ := c.(LayerMarker)
	begin := func(l Layer) {
		if marker != nil {
			marker.BeginLayer(l)
		}
	}

	begin(LayerBackground)
	r.drawBackground(c, w, h)

	begin(LayerStructure)
	r.drawGrid(c, w, h)
	r.drawOutline(c, w, h)

	begin(LayerEdges)
	r.drawEdges(c, p, edges)

	begin(LayerTrails)
	for _, e := range p.Order() {
		r.drawTrail(c, p, e, w, h)
	}

	begin(LayerBodies)
	for _, e := range p.Order() {
		r.drawBody(c, p, e, w)
	}

	begin(LayerOverlays)
	r.drawOverlays(c, p, packets, w, h, t)
}

func (r *Renderer) drawBackground(c Canvas, w, h float64) {
	if len(r.background) == 0 {
		c.FillRect(0, 0, w, h, Color{A: 255})
		return
	}
	c.FillGradient(0, 0, w, h, r.background)
}

// drawGrid draws evenly spaced lines; every Nth line is a major line.
func (r *Renderer) drawGrid(c Canvas, w, h float64) {
	g := &r.theme.Grid
	if !g.Enabled || g.Columns <= 0 || g.Rows <= 0 {
		return
	}
	major := ConfigColor(g.MajorColor, g.MajorOpacity)
	minor := ConfigColor(g.MinorColor, g.MinorOpacity)

	for i := 0; i <= g.Columns; i++ {
		x := w * float64(i) / float64(g.Columns)
		if g.MajorColumns > 0 && i%g.MajorColumns == 0 {
			c.Line(x, 0, x, h, g.MajorWidth, major)
		} else {
			c.Line(x, 0, x, h, g.MinorWidth, minor)
		}
	}
	for i := 0; i <= g.Rows; i++ {
		y := h * float64(i) / float64(g.Rows)
		if g.MajorRows > 0 && i%g.MajorRows == 0 {
			c.Line(0, y, w, y, g.MajorWidth, major)
		} else {
			c.Line(0, y, w, y, g.MinorWidth, minor)
		}
	}
}

// drawOutline draws static polylines given in normalized coordinates.
func (r *Renderer) drawOutline(c Canvas, w, h float64) {
	o := &r.theme.Outline
	if len(o.Paths) == 0 {
		return
	}
	col := ConfigColor(o.Color, o.Opacity)
	for _, path := range o.Paths {
		r.outline = r.outline[:0]
		for _, pt := range path {
			if len(pt) < 2 {
				continue
			}
			r.outline = append(r.outline, components.Position{X: pt[0] * w, Y: pt[1] * h})
		}
		if len(r.outline) >= 2 {
			c.Polyline(r.outline, o.Width, col)
		}
	}
}

// drawEdges draws connections with opacity proportional to strength,
// brightened when either endpoint is highlighted.
func (r *Renderer) drawEdges(c Canvas, p *systems.Pool, edges []components.Connection) {
	topo := &r.theme.Topology
	width := topo.Width
	if width <= 0 {
		width = 1
	}
	nodes := p.Nodes()
	for _, e := range edges {
		if e.A < 0 || e.B < 0 || e.A >= len(nodes) || e.B >= len(nodes) {
			continue
		}
		a, b := nodes[e.A], nodes[e.B]
		pa, pb := p.Position(a), p.Position(b)
		hl := math.Max(p.Highlight(a).Intensity, p.Highlight(b).Intensity)

		col := p.Style(a).Color
		col.A *= topo.Opacity * e.Strength * (1 + hl)
		c.Line(pa.X, pa.Y, pb.X, pb.Y, width*(1+hl), ToColor(col))
	}
}

// drawTrail draws fading segments from oldest to newest position.
func (r *Renderer) drawTrail(c Canvas, p *systems.Pool, e ecs.Entity, w, h float64) {
	tr := p.Trail(e)
	if tr == nil || tr.Len() < 2 {
		return
	}
	s := p.Style(e)
	width := math.Max(s.Size*0.5, 1)
	n := tr.Len()
	for i := 1; i < n; i++ {
		a, b := tr.At(i-1), tr.At(i)
		if math.Abs(b.X-a.X) > w*maxTrailJump || math.Abs(b.Y-a.Y) > h*maxTrailJump {
			continue
		}
		col := s.Color
		col.A *= s.Opacity * 0.5 * float64(i) / float64(n)
		c.Line(a.X, a.Y, b.X, b.Y, width, ToColor(col))
	}
}

func (r *Renderer) drawBody(c Canvas, p *systems.Pool, e ecs.Entity, w float64) {
	m := p.Motion(e)
	switch m.Kind {
	case components.KindSignalWave:
		r.drawWave(c, p, e, w)
	case components.KindGlyph:
		r.drawGlyph(c, p, e)
	case components.KindTypedLine:
		// drawn with the overlays
	default:
		r.drawOrb(c, p, e)
	}
}

// drawWave draws a signal trace with a soft wide underlay for glow.
func (r *Renderer) drawWave(c Canvas, p *systems.Pool, e ecs.Entity, w float64) {
	wave := p.Wave(e)
	if wave == nil {
		return
	}
	s := p.Style(e)
	r.wavePts = r.wavePts[:0]
	for x := 0.0; x <= w+waveStep; x += waveStep {
		r.wavePts = append(r.wavePts, components.Position{X: x, Y: wave.Y(x)})
	}

	glow := s.Color
	glow.A *= s.Opacity * 0.2
	c.Polyline(r.wavePts, wave.Thickness*4, ToColor(glow))

	col := s.Color
	col.A *= s.Opacity
	c.Polyline(r.wavePts, wave.Thickness, ToColor(col))
}

func (r *Renderer) drawGlyph(c Canvas, p *systems.Pool, e ecs.Entity) {
	g := p.Glyph(e)
	if g == nil || g.Symbol == "" {
		return
	}
	pos, s := p.Position(e), p.Style(e)
	col := s.Color
	col.A *= s.Opacity * (1 + p.Highlight(e).Intensity)
	c.Text(g.Symbol, pos.X, pos.Y, s.Size, g.Rotation, ToColor(col))
}

// drawOrb draws a circular body. Halo strength follows the pulse phase and
// the pointer highlight.
func (r *Renderer) drawOrb(c Canvas, p *systems.Pool, e ecs.Entity) {
	pos, s, pulse := p.Position(e), p.Style(e), p.Pulse(e)
	hl := p.Highlight(e).Intensity
	radius := s.Size * pulse.Factor() * (1 + 0.3*hl)

	glow := s.Glow*(0.6+0.4*math.Sin(pulse.Phase)) + hl
	if glow > 0 {
		for k := glowRings; k >= 1; k-- {
			col := s.Color
			col.A *= s.Opacity * glow * 0.12
			c.FillCircle(pos.X, pos.Y, radius*(1+0.7*float64(k)), ToColor(col))
		}
	}

	col := s.Color
	col.A *= s.Opacity
	c.FillCircle(pos.X, pos.Y, radius, ToColor(col))

	if p.Motion(e).Kind == components.KindFlowNode {
		ring := s.Color
		ring.A *= s.Opacity * 0.6
		c.StrokeCircle(pos.X, pos.Y, radius*1.4, 1, ToColor(ring))
	}
	if s.Core {
		c.FillCircle(pos.X, pos.Y, radius*0.4, ToColor(white.WithAlpha(s.Opacity)))
	}
}

func (r *Renderer) drawOverlays(c Canvas, p *systems.Pool, packets []components.Packet, w, h, t float64) {
	for _, e := range p.Order() {
		m := p.Motion(e)
		switch m.Kind {
		case components.KindSignalWave:
			r.drawSpark(c, p, e, w)
		case components.KindTypedLine:
			r.drawTypedLine(c, p, e, t)
		default:
			r.drawHighlightLabel(c, p, e)
		}
	}

	r.drawDataLabel(c, w, h)

	pc := &r.theme.Packets
	for i := range packets {
		pos, ok := systems.PacketPosition(p, &packets[i])
		if !ok {
			continue
		}
		size := packets[i].Size
		c.FillCircle(pos.X, pos.Y, size*packetHaloSize, ConfigColor(pc.Color, 0.25))
		c.FillCircle(pos.X, pos.Y, size, ConfigColor(pc.Color, 1))
	}
}

// drawSpark occasionally flashes a bright point somewhere on a wave.
func (r *Renderer) drawSpark(c Canvas, p *systems.Pool, e ecs.Entity, w float64) {
	wave := p.Wave(e)
	if wave == nil || r.rng.Float64() >= wave.SparkChance {
		return
	}
	x := r.rng.Float64() * w
	y := wave.Y(x)
	size := sparkBaseSize + r.rng.Float64()*sparkBaseSize
	col := p.Style(e).Color
	c.FillCircle(x, y, size*3, ToColor(col.WithAlpha(0.3)))
	c.FillCircle(x, y, size, ToColor(white.WithAlpha(0.8)))
}

// drawDataLabel occasionally shows one of the theme's floating labels.
func (r *Renderer) drawDataLabel(c Canvas, w, h float64) {
	lc := &r.theme.Labels
	if len(lc.Texts) == 0 || r.rng.Float64() >= lc.Chance {
		return
	}
	text := lc.Texts[r.rng.Intn(len(lc.Texts))]
	x := r.rng.Float64() * math.Max(w-150, 1)
	y := 20 + r.rng.Float64()*math.Max(h-40, 1)
	size := lc.Size
	if size <= 0 {
		size = 12
	}
	c.Text(text, x, y, size, 0, ConfigColor(lc.Color, lc.Opacity))
}

// drawHighlightLabel reveals a node's label while the pointer is near.
func (r *Renderer) drawHighlightLabel(c Canvas, p *systems.Pool, e ecs.Entity) {
	hl := p.Highlight(e).Intensity
	if hl <= 0 {
		return
	}
	node := p.Node(e)
	if node == nil || node.Label == "" {
		return
	}
	pos, s := p.Position(e), p.Style(e)
	col := s.Color
	col.A = hl
	c.Text(node.Label, pos.X+s.Size+4, pos.Y-s.Size-labelFontSize, labelFontSize, 0, ToColor(col))
}

// drawTypedLine draws the visible prefix and a blinking cursor.
func (r *Renderer) drawTypedLine(c Canvas, p *systems.Pool, e ecs.Entity, t float64) {
	tt := p.Typing(e)
	if tt == nil {
		return
	}
	pos, s := p.Position(e), p.Style(e)
	text := tt.Text()
	if int(t*cursorBlinkHz)%2 == 0 {
		text += "_"
	}
	if text == "" {
		return
	}
	col := s.Color
	col.A *= s.Opacity
	c.Text(text, pos.X, pos.Y, s.Size, 0, ToColor(col))
}
