package systems

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/ambient/components"
	"github.com/pthm-cable/ambient/config"
)

// minSize is the fallback size for samples that stay non-positive.
const minSize = 0.5

// Seeder creates the entities of one theme. Every random draw goes through
// the injected source, so a fixed seed reproduces the exact pool.
type Seeder struct {
	rng      *rand.Rand
	attempts int
}

// NewSeeder creates a seeder. attempts bounds how often an invalid sample is
// redrawn before it is clamped.
func NewSeeder(rng *rand.Rand, attempts int) *Seeder {
	if attempts < 1 {
		attempts = 1
	}
	return &Seeder{rng: rng, attempts: attempts}
}

// SeedTheme seeds every kind of the theme in declaration order.
func (s *Seeder) SeedTheme(p *Pool, th *config.ThemeConfig, b Bounds) error {
	for i := range th.Kinds {
		if err := s.Seed(p, &th.Kinds[i], th.Palette, b); err != nil {
			return fmt.Errorf("seeding %s: %w", th.Kinds[i].Kind, err)
		}
	}
	return nil
}

// Seed creates kc.Count entities of one kind inside b.
func (s *Seeder) Seed(p *Pool, kc *config.KindConfig, palette []config.Color, b Bounds) error {
	if !b.Valid() {
		return fmt.Errorf("invalid surface %vx%v", b.Width, b.Height)
	}
	kind, ok := components.ParseKind(kc.Kind)
	if !ok {
		return fmt.Errorf("unknown kind %q", kc.Kind)
	}

	colors := kc.Colors
	if len(colors) == 0 {
		colors = palette
	}

	for i := 0; i < kc.Count; i++ {
		switch kind {
		case components.KindSignalWave:
			s.seedWave(p, kc, colors, b, i)
		case components.KindFlowPoint:
			s.seedFlowPoint(p, kc, colors, b)
		case components.KindFlowNode:
			s.seedNode(p, kc, colors, b)
		case components.KindGlyph:
			s.seedGlyph(p, kc, colors, b)
		case components.KindTypedLine:
			s.seedTypedLine(p, kc, b, i)
		default:
			e := s.spawn(p, kind, kc, colors, s.position(b))
			if kc.Graph {
				p.AddNode(e, components.Node{Tier: components.TierData, Importance: 0.5})
			}
		}
	}
	return nil
}

// spawn creates an entity with common components sampled from kc.
func (s *Seeder) spawn(p *Pool, kind components.Kind, kc *config.KindConfig, colors []config.Color, pos components.Position) ecs.Entity {
	vx := kc.VelocityX.Sample(s.rng)
	vy := kc.VelocityY.Sample(s.rng)

	style := components.Style{
		Color:   s.pickColor(colors),
		Size:    s.size(kc.Size),
		Opacity: s.opacity(kc.Opacity),
		Glow:    math.Max(kc.Glow, 0),
		Core:    kc.Core,
	}
	pulse := components.Pulse{
		Phase:  s.rng.Float64() * twoPi,
		Speed:  kc.PulseSpeed.Sample(s.rng),
		Amount: clampFloat(kc.PulseAmount, 0, 0.95),
	}
	motion := components.Motion{
		Kind:           kind,
		Boundary:       components.ParseBoundary(kc.Boundary),
		Margin:         kc.Margin,
		BaseVX:         vx,
		BaseVY:         vy,
		MaxSpeed:       kc.MaxSpeed,
		Drag:           clamp01(kc.Drag),
		LinkPull:       kc.LinkPull,
		Drift:          components.ParseDriftMode(kc.Drift.Mode),
		DriftAmplitude: kc.Drift.Amplitude,
		DriftScale:     kc.Drift.Scale,
		DriftSpeed:     kc.Drift.Speed,
		Interaction:    components.ParseInteractionMode(kc.Interaction.Mode),
		Radius:         kc.Interaction.Radius,
		Strength:       kc.Interaction.Strength,
		Highlights:     kc.Interaction.Highlight,
	}

	e := p.Spawn(pos, components.Velocity{X: vx, Y: vy}, style, pulse, motion)
	p.AddTrail(e, kc.TrailLength)
	return e
}

// seedWave places wave i on an evenly spaced baseline.
func (s *Seeder) seedWave(p *Pool, kc *config.KindConfig, colors []config.Color, b Bounds, i int) {
	baseline := b.Height / float64(kc.Count+1) * float64(i+1)
	e := s.spawn(p, components.KindSignalWave, kc, colors, components.Position{X: 0, Y: baseline})

	thickness := kc.Wave.Thickness.Sample(s.rng)
	if thickness <= 0 {
		thickness = 1
	}
	p.Style(e).Size = thickness
	p.AddWave(e, components.Wave{
		Baseline:    baseline,
		Amplitude:   kc.Wave.Amplitude.Sample(s.rng),
		Frequency:   kc.Wave.Frequency.Sample(s.rng),
		Phase:       s.rng.Float64() * twoPi,
		Speed:       kc.Wave.Speed.Sample(s.rng),
		Thickness:   thickness,
		SparkChance: clamp01(kc.Wave.SparkChance),
	})
}

// seedFlowPoint binds a point to a random wave and puts it on the trace.
func (s *Seeder) seedFlowPoint(p *Pool, kc *config.KindConfig, colors []config.Color, b Bounds) {
	pos := s.position(b)
	wave := -1
	if n := p.WaveCount(); n > 0 {
		wave = s.rng.Intn(n)
		pos.Y = clampFloat(p.WaveAt(wave).Y(pos.X), 0, math.Nextafter(b.Height, 0))
	}
	e := s.spawn(p, components.KindFlowPoint, kc, colors, pos)
	p.AddRider(e, wave)
}

// nodeTiers scales size and importance by tier.
var nodeTiers = [...]struct {
	size, importance float64
}{
	components.TierPrimary:   {1.0, 1.0},
	components.TierSecondary: {0.75, 0.6},
	components.TierData:      {0.5, 0.3},
}

func (s *Seeder) seedNode(p *Pool, kc *config.KindConfig, colors []config.Color, b Bounds) {
	e := s.spawn(p, components.KindFlowNode, kc, colors, s.position(b))

	tier := components.Tier(s.rng.Intn(len(nodeTiers)))
	st := p.Style(e)
	st.Size = math.Max(st.Size*nodeTiers[tier].size, minSize)

	node := components.Node{Tier: tier, Importance: nodeTiers[tier].importance}
	if len(kc.Labels) > 0 {
		node.Label = kc.Labels[s.rng.Intn(len(kc.Labels))]
	}
	if kc.Graph {
		p.AddNode(e, node)
	}
}

func (s *Seeder) seedGlyph(p *Pool, kc *config.KindConfig, colors []config.Color, b Bounds) {
	if kc.Glyph.Color != (config.Color{}) {
		colors = []config.Color{kc.Glyph.Color}
	}
	e := s.spawn(p, components.KindGlyph, kc, colors, s.position(b))

	g := components.Glyph{
		Symbols:   kc.Glyph.Symbols,
		Rotation:  s.rng.Float64() * twoPi,
		Spin:      kc.Glyph.Spin.Sample(s.rng),
		Reshuffle: clamp01(kc.Glyph.Reshuffle),
	}
	if len(g.Symbols) > 0 {
		g.Symbol = g.Symbols[s.rng.Intn(len(g.Symbols))]
	}
	p.AddGlyph(e, g)
	if kc.Graph {
		p.AddNode(e, components.Node{Tier: components.TierData, Importance: 0.3})
	}
}

// seedTypedLine stacks typed lines down the left side. Each line starts on
// a different text so they do not type in lockstep.
func (s *Seeder) seedTypedLine(p *Pool, kc *config.KindConfig, b Bounds, i int) {
	pos := components.Position{
		X: b.Width * 0.05,
		Y: b.Height / float64(kc.Count+1) * float64(i+1),
	}
	colors := []config.Color{kc.Typing.Color}
	e := s.spawn(p, components.KindTypedLine, kc, colors, pos)

	t := components.TypedText{
		Lines:             kc.Typing.Lines,
		TicksPerChar:      max(kc.Typing.TicksPerChar, 1),
		HoldTicks:         max(kc.Typing.HoldTicks, 0),
		EraseTicksPerChar: max(kc.Typing.EraseTicksPerChar, 1),
	}
	if len(t.Lines) > 0 {
		t.Line = i % len(t.Lines)
	}
	p.AddTyping(e, t)
}

// position samples a point in [0, W) x [0, H).
func (s *Seeder) position(b Bounds) components.Position {
	x := s.sample(config.Range{Min: 0, Max: b.Width}, func(v float64) bool { return v >= 0 && v < b.Width }, 0)
	y := s.sample(config.Range{Min: 0, Max: b.Height}, func(v float64) bool { return v >= 0 && v < b.Height }, 0)
	return components.Position{
		X: clampFloat(x, 0, math.Nextafter(b.Width, 0)),
		Y: clampFloat(y, 0, math.Nextafter(b.Height, 0)),
	}
}

func (s *Seeder) size(r config.Range) float64 {
	v := s.sample(r, func(v float64) bool { return v > 0 }, minSize)
	return math.Max(v, minSize)
}

func (s *Seeder) opacity(r config.Range) float64 {
	v := s.sample(r, func(v float64) bool { return v >= 0 && v <= 1 }, 1)
	return clamp01(v)
}

// sample draws from r until ok accepts the value, then falls back to a
// clamped last draw (or fallback when the draw is not finite).
func (s *Seeder) sample(r config.Range, ok func(float64) bool, fallback float64) float64 {
	var v float64
	for i := 0; i < s.attempts; i++ {
		v = r.Sample(s.rng)
		if ok(v) {
			return v
		}
	}
	if !finite(v) {
		return fallback
	}
	return v
}

func (s *Seeder) pickColor(colors []config.Color) components.RGBA {
	if len(colors) == 0 {
		return components.RGBA{R: 1, G: 1, B: 1, A: 1}
	}
	c := colors[s.rng.Intn(len(colors))]
	return components.RGB8(c.R, c.G, c.B)
}
