package systems

import (
	"math"
	"math/rand"
	"testing"

	"github.com/pthm-cable/ambient/components"
	"github.com/pthm-cable/ambient/config"
)

func init() {
	// Initialize config for tests
	config.MustInit("")
}

func newTestStepper() *Stepper {
	return NewStepper(rand.New(rand.NewSource(1)), 1)
}

func spawnMover(p *Pool, x, y, vx, vy float64, boundary components.Boundary, margin float64) *components.Position {
	e := p.Spawn(
		components.Position{X: x, Y: y},
		components.Velocity{X: vx, Y: vy},
		components.Style{Size: 2, Opacity: 1},
		components.Pulse{},
		components.Motion{Kind: components.KindStar, Boundary: boundary, Margin: margin, BaseVX: vx, BaseVY: vy},
	)
	return p.Position(e)
}

func TestWrapReentersFromOppositeEdge(t *testing.T) {
	p := NewPool()
	b := Bounds{Width: 800, Height: 600}
	pos := spawnMover(p, b.Width-1, 300, 5, 0, components.BoundaryWrap, 0)

	newTestStepper().Step(p, 1, b, Pointer{}, nil)

	// (oldX + vx) - width
	if math.Abs(pos.X-4) > 1e-9 {
		t.Errorf("expected x = 4 after wrap, got %v", pos.X)
	}
	if pos.X >= b.Width {
		t.Errorf("entity escaped to %v", pos.X)
	}
}

func TestWrapMargin(t *testing.T) {
	tests := []struct {
		name            string
		v, size, margin float64
		want            float64
	}{
		{"inside", 100, 800, 50, 100},
		{"inside margin right", 820, 800, 50, 820},
		{"inside margin left", -20, 800, 50, -20},
		{"past right margin", 855, 800, 50, -45},
		{"past left margin", -53, 800, 50, 847},
		{"exactly right edge", 850, 800, 50, -50},
		{"many spans", 800 + 3*900 + 10, 800, 50, 810},
		{"many spans into left margin", 850 + 3*900 + 10, 800, 50, -40},
		{"many spans from the left", -50 - 2*900 - 5, 800, 50, 845},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := wrapAxis(tt.v, tt.size, tt.margin)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("wrapAxis(%v) = %v, want %v", tt.v, got, tt.want)
			}
		})
	}
}

func TestBounceReflectsVelocity(t *testing.T) {
	p := NewPool()
	b := Bounds{Width: 800, Height: 600}
	e := p.Spawn(
		components.Position{X: 798, Y: 2},
		components.Velocity{X: 5, Y: -5},
		components.Style{Size: 2, Opacity: 1},
		components.Pulse{},
		components.Motion{Boundary: components.BoundaryBounce, BaseVX: 5, BaseVY: -5},
	)

	newTestStepper().Step(p, 1, b, Pointer{}, nil)

	pos, vel := p.Position(e), p.Velocity(e)
	if pos.X != 797 || pos.Y != 3 {
		t.Errorf("expected reflected position (797, 3), got (%v, %v)", pos.X, pos.Y)
	}
	if vel.X != -5 || vel.Y != 5 {
		t.Errorf("expected reflected velocity (-5, 5), got (%v, %v)", vel.X, vel.Y)
	}
	if m := p.Motion(e); m.BaseVX != -5 || m.BaseVY != 5 {
		t.Errorf("expected base velocity to follow the bounce, got (%v, %v)", m.BaseVX, m.BaseVY)
	}
}

func TestBounceClampsStalePositions(t *testing.T) {
	p := NewPool()
	pos := spawnMover(p, 1200, 900, 0, 0, components.BoundaryBounce, 0)

	// Surface shrank under the entity
	newTestStepper().Step(p, 1, Bounds{Width: 400, Height: 300}, Pointer{}, nil)

	if pos.X < 0 || pos.X > 400 || pos.Y < 0 || pos.Y > 300 {
		t.Errorf("stale position not corrected: (%v, %v)", pos.X, pos.Y)
	}
}

func TestStepInvariants(t *testing.T) {
	cfg := config.Cfg()
	b := Bounds{Width: 640, Height: 480}

	for _, name := range cfg.ThemeNames() {
		t.Run(name, func(t *testing.T) {
			th, _ := cfg.ThemeByName(name)
			rng := rand.New(rand.NewSource(7))
			p := NewPool()
			if err := NewSeeder(rng, 8).SeedTheme(p, th, b); err != nil {
				t.Fatalf("SeedTheme: %v", err)
			}
			topo := NewTopology(th.Topology)
			edges := topo.Build(p, b, rng)
			st := NewStepper(rng, 7)

			for i := 0; i < 500; i++ {
				// Sweep the pointer across the surface, with invalid samples mixed in
				ptr := Pointer{X: float64(i % 640), Y: float64(i % 480), Present: i%5 != 0}
				if i%7 == 0 {
					ptr.X = math.NaN()
				}
				st.Step(p, 1, b, ptr, edges)
				edges = topo.Refresh(p, b)
			}

			for _, e := range p.Order() {
				pos, s, m := p.Position(e), p.Style(e), p.Motion(e)
				switch m.Boundary {
				case components.BoundaryWrap:
					if pos.X < -m.Margin || pos.X >= b.Width+m.Margin || pos.Y < -m.Margin || pos.Y >= b.Height+m.Margin {
						t.Errorf("%s escaped wrap bounds: (%v, %v)", m.Kind, pos.X, pos.Y)
					}
				case components.BoundaryBounce:
					if pos.X < 0 || pos.X > b.Width || pos.Y < 0 || pos.Y > b.Height {
						t.Errorf("%s escaped bounce bounds: (%v, %v)", m.Kind, pos.X, pos.Y)
					}
				}
				if s.Size <= 0 || s.Opacity < 0 || s.Opacity > 1 {
					t.Errorf("%s style out of range: size %v opacity %v", m.Kind, s.Size, s.Opacity)
				}
				if ph := p.Pulse(e).Phase; ph < 0 || ph >= twoPi {
					t.Errorf("pulse phase %v outside [0, 2π)", ph)
				}
				if tr := p.Trail(e); tr != nil && tr.Len() > tr.Cap() {
					t.Errorf("trail len %d exceeds cap %d", tr.Len(), tr.Cap())
				}
				if h := p.Highlight(e).Intensity; h < 0 || h > 1 {
					t.Errorf("highlight %v outside [0, 1]", h)
				}
			}
			for _, c := range edges {
				if c.A == c.B || c.Strength < 0 || c.Strength > 1 {
					t.Errorf("invalid edge %+v", c)
				}
			}
		})
	}
}

func TestStepTrailFollowsPosition(t *testing.T) {
	p := NewPool()
	b := Bounds{Width: 800, Height: 600}
	e := p.Spawn(
		components.Position{X: 10, Y: 10},
		components.Velocity{X: 1},
		components.Style{Size: 1, Opacity: 1},
		components.Pulse{},
		components.Motion{BaseVX: 1},
	)
	p.AddTrail(e, 4)

	st := newTestStepper()
	for i := 0; i < 10; i++ {
		st.Step(p, 1, b, Pointer{}, nil)
	}

	tr := p.Trail(e)
	if tr.Len() != 4 {
		t.Fatalf("expected 4 trail points, got %d", tr.Len())
	}
	// Oldest first: x = 17, 18, 19, 20
	for i := 0; i < 4; i++ {
		if got, want := tr.At(i).X, float64(17+i); got != want {
			t.Errorf("trail[%d].X = %v, want %v", i, got, want)
		}
	}
}

func TestStepIgnoresInvalidInput(t *testing.T) {
	p := NewPool()
	pos := spawnMover(p, 100, 100, 1, 0, components.BoundaryWrap, 0)

	st := newTestStepper()
	st.Step(p, 1, Bounds{Width: math.NaN(), Height: 600}, Pointer{}, nil)
	st.Step(p, math.Inf(1), Bounds{Width: 800, Height: 600}, Pointer{}, nil)
	if pos.X != 100 {
		t.Errorf("invalid bounds or dt moved entity to %v", pos.X)
	}
}

func TestFlowPointRidesWave(t *testing.T) {
	p := NewPool()
	b := Bounds{Width: 800, Height: 600}
	w := p.Spawn(components.Position{Y: 300}, components.Velocity{}, components.Style{Size: 1, Opacity: 1},
		components.Pulse{}, components.Motion{Kind: components.KindSignalWave})
	idx := p.AddWave(w, components.Wave{Baseline: 300, Amplitude: 50, Frequency: 0.01, Speed: 0.02})

	e := p.Spawn(components.Position{X: 100, Y: 300}, components.Velocity{X: 2}, components.Style{Size: 1, Opacity: 1},
		components.Pulse{}, components.Motion{Kind: components.KindFlowPoint, Margin: 50, BaseVX: 2})
	p.AddRider(e, idx)

	newTestStepper().Step(p, 1, b, Pointer{}, nil)

	pos := p.Position(e)
	want := p.WaveAt(idx).Y(pos.X)
	if math.Abs(pos.Y-want) > 1e-9 {
		t.Errorf("flow point at y=%v, wave trace at %v", pos.Y, want)
	}
	if got := p.WaveAt(idx).Phase; math.Abs(got-0.02) > 1e-12 {
		t.Errorf("wave phase = %v, want 0.02", got)
	}
}
