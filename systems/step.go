package systems

import (
	"math/rand"

	"github.com/pthm-cable/ambient/components"
)

// StepStats summarizes one simulation step.
type StepStats struct {
	Moved       int // entities integrated
	Highlighted int // entities within a highlighting pointer radius
}

// Stepper advances the pool by one time increment. It owns the cosmetic
// drift field and the random source for glyph reshuffles, so the pool itself
// stays plain data.
type Stepper struct {
	drift *DriftField
	rng   *rand.Rand
	time  float64 // accumulated ticks, drives noise drift

	// Per-node link pull, computed from pre-step positions
	pullX, pullY []float64
}

// NewStepper creates a stepper. rng drives glyph reshuffles; seed drives the
// noise field.
func NewStepper(rng *rand.Rand, seed int64) *Stepper {
	return &Stepper{
		drift: NewDriftField(seed),
		rng:   rng,
	}
}

// Step mutates every entity in insertion order: pointer impulse, link pull,
// drag and speed clamp, integration with drift, boundary policy, phase
// counters, trail. Edges are read-only here.
func (s *Stepper) Step(p *Pool, dt float64, b Bounds, ptr Pointer, edges []components.Connection) StepStats {
	var stats StepStats
	if !b.Valid() || dt <= 0 || !finite(dt) {
		return stats
	}
	s.time += dt
	s.computeLinkPull(p, edges)

	for _, e := range p.Order() {
		m := p.Motion(e)
		pulse := p.Pulse(e)
		pulse.Phase = wrapPhase(pulse.Phase + pulse.Speed*dt)

		switch m.Kind {
		case components.KindSignalWave:
			w := p.Wave(e)
			w.Phase = wrapPhase(w.Phase + w.Speed*dt)
			continue
		case components.KindTypedLine:
			AdvanceTyping(p.Typing(e))
			continue
		}

		pos := p.Position(e)
		vel := p.Velocity(e)
		hl := p.Highlight(e)

		// Pointer impulse only nudges velocity
		fx, fy, h := Influence(*pos, ptr, m)
		vel.X += fx * dt
		vel.Y += fy * dt
		hl.Intensity = h
		if h > 0 {
			stats.Highlighted++
		}

		if node := p.Node(e); node != nil && m.LinkPull != 0 && node.Index < len(s.pullX) {
			vel.X += s.pullX[node.Index] * dt
			vel.Y += s.pullY[node.Index] * dt
		}

		if m.Drag > 0 {
			k := clamp01(m.Drag * dt)
			vel.X += (m.BaseVX - vel.X) * k
			vel.Y += (m.BaseVY - vel.Y) * k
		}
		vel.X, vel.Y = clampMagnitude(vel.X, vel.Y, m.MaxSpeed)

		dx, dy := s.drift.Offset(m, *pos, pulse.Phase, s.time, dt)
		pos.X += vel.X*dt + dx
		pos.Y += vel.Y*dt + dy

		// Flow points ride their wave's trace
		if r := p.Rider(e); r != nil {
			if w := p.WaveAt(r.Wave); w != nil {
				pos.Y = clampFloat(w.Y(pos.X), -m.Margin, b.Height+m.Margin-1e-9)
			}
		}

		ApplyBoundary(pos, vel, m, b)

		if g := p.Glyph(e); g != nil {
			g.Rotation = wrapPhase(g.Rotation + g.Spin*dt)
			if g.Reshuffle > 0 && len(g.Symbols) > 0 && s.rng.Float64() < g.Reshuffle {
				g.Symbol = g.Symbols[s.rng.Intn(len(g.Symbols))]
			}
		}

		if tr := p.Trail(e); tr != nil {
			tr.Push(*pos)
		}
		stats.Moved++
	}
	return stats
}

// computeLinkPull accumulates a spring pull toward connected neighbors,
// weighted by edge strength and each node's LinkPull factor.
func (s *Stepper) computeLinkPull(p *Pool, edges []components.Connection) {
	n := p.NodeCount()
	s.pullX = resize(s.pullX, n)
	s.pullY = resize(s.pullY, n)
	if len(edges) == 0 {
		return
	}

	nodes := p.Nodes()
	for _, c := range edges {
		if c.A >= n || c.B >= n {
			continue
		}
		pa := p.Position(nodes[c.A])
		pb := p.Position(nodes[c.B])
		dx := pb.X - pa.X
		dy := pb.Y - pa.Y

		ka := p.Motion(nodes[c.A]).LinkPull * c.Strength
		kb := p.Motion(nodes[c.B]).LinkPull * c.Strength
		s.pullX[c.A] += dx * ka
		s.pullY[c.A] += dy * ka
		s.pullX[c.B] -= dx * kb
		s.pullY[c.B] -= dy * kb
	}
}

// resize returns buf with length n, zeroed.
func resize(buf []float64, n int) []float64 {
	if cap(buf) < n {
		return make([]float64, n)
	}
	buf = buf[:n]
	clear(buf)
	return buf
}
