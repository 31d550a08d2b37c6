package systems

import (
	"math/rand"
	"testing"

	"github.com/pthm-cable/ambient/components"
	"github.com/pthm-cable/ambient/config"
)

func seedActive(t *testing.T, seed int64, b Bounds) *Pool {
	t.Helper()
	p := NewPool()
	rng := rand.New(rand.NewSource(seed))
	if err := NewSeeder(rng, 8).SeedTheme(p, config.Cfg().ActiveTheme(), b); err != nil {
		t.Fatalf("SeedTheme: %v", err)
	}
	return p
}

func TestSeedDeterministic(t *testing.T) {
	b := Bounds{Width: 1280, Height: 720}
	a := seedActive(t, 42, b)
	c := seedActive(t, 42, b)

	if a.Len() != c.Len() {
		t.Fatalf("pool sizes differ: %d vs %d", a.Len(), c.Len())
	}
	for i := range a.Order() {
		ea, ec := a.Order()[i], c.Order()[i]
		if *a.Position(ea) != *c.Position(ec) || *a.Velocity(ea) != *c.Velocity(ec) || *a.Style(ea) != *c.Style(ec) {
			t.Fatalf("entity %d differs between identical seeds", i)
		}
	}
}

func TestSeedCountsAndValidity(t *testing.T) {
	b := Bounds{Width: 800, Height: 600}
	th := config.Cfg().ActiveTheme()
	p := seedActive(t, 1, b)

	want := 0
	for _, k := range th.Kinds {
		want += k.Count
	}
	if p.Len() != want {
		t.Errorf("expected %d entities, got %d", want, p.Len())
	}

	for _, e := range p.Order() {
		pos, s := p.Position(e), p.Style(e)
		if pos.X < 0 || pos.X >= b.Width || pos.Y < 0 || pos.Y >= b.Height {
			t.Errorf("%s seeded outside surface: (%v, %v)", p.Motion(e).Kind, pos.X, pos.Y)
		}
		if s.Size <= 0 {
			t.Errorf("non-positive size %v", s.Size)
		}
		if s.Opacity < 0 || s.Opacity > 1 {
			t.Errorf("opacity %v outside [0,1]", s.Opacity)
		}
	}
}

func TestSeedClampsBadRanges(t *testing.T) {
	kc := &config.KindConfig{
		Kind:    "star",
		Count:   50,
		Size:    config.Range{Min: -5, Max: -1},
		Opacity: config.Range{Min: 1.5, Max: 3},
	}
	p := NewPool()
	err := NewSeeder(rand.New(rand.NewSource(1)), 4).Seed(p, kc, nil, Bounds{Width: 100, Height: 100})
	if err != nil {
		t.Fatalf("Seed: %v", err)
	}
	for _, e := range p.Order() {
		s := p.Style(e)
		if s.Size <= 0 || s.Opacity != 1 {
			t.Fatalf("expected clamped style, got size %v opacity %v", s.Size, s.Opacity)
		}
	}
}

func TestSeedWavesAndRiders(t *testing.T) {
	b := Bounds{Width: 900, Height: 900}
	p := seedActive(t, 3, b)

	if p.WaveCount() != 8 {
		t.Fatalf("expected 8 waves, got %d", p.WaveCount())
	}
	for i := 0; i < p.WaveCount(); i++ {
		if got, want := p.WaveAt(i).Baseline, b.Height/9*float64(i+1); got != want {
			t.Errorf("wave %d baseline %v, want %v", i, got, want)
		}
	}

	riders := 0
	for _, e := range p.Order() {
		if r := p.Rider(e); r != nil {
			riders++
			if r.Wave < 0 || r.Wave >= p.WaveCount() {
				t.Errorf("rider bound to invalid wave %d", r.Wave)
			}
		}
	}
	if riders != 25 {
		t.Errorf("expected 25 riders, got %d", riders)
	}
}

func TestSeedRejectsInvalidSurface(t *testing.T) {
	kc := &config.KindConfig{Kind: "star", Count: 1, Size: config.Range{Min: 1, Max: 1}}
	err := NewSeeder(rand.New(rand.NewSource(1)), 1).Seed(NewPool(), kc, nil, Bounds{})
	if err == nil {
		t.Fatal("expected error for zero-sized surface")
	}
}

func TestPoolRelease(t *testing.T) {
	p := seedActive(t, 1, Bounds{Width: 400, Height: 300})
	if p.Len() == 0 || p.NodeCount() == 0 {
		t.Fatal("expected seeded entities and nodes")
	}
	p.Release()
	if p.Len() != 0 || p.NodeCount() != 0 || p.WaveCount() != 0 {
		t.Errorf("pool not empty after release")
	}
	if got := p.HighlightedCount(); got != 0 {
		t.Errorf("highlighted count %d after release", got)
	}
}

func TestPoolOptionalComponents(t *testing.T) {
	p := NewPool()
	bare := p.Spawn(components.Position{X: 1, Y: 1}, components.Velocity{}, components.Style{Size: 1, Opacity: 1}, components.Pulse{}, components.Motion{Kind: components.KindStar})
	full := p.Spawn(components.Position{X: 2, Y: 2}, components.Velocity{}, components.Style{Size: 1, Opacity: 1}, components.Pulse{}, components.Motion{Kind: components.KindFlowNode})
	p.AddTrail(full, 4)
	p.AddWave(full, components.Wave{Baseline: 10})
	p.AddRider(full, 0)
	p.AddGlyph(full, components.Glyph{Symbol: "x"})
	p.AddTyping(full, components.TypedText{})
	p.AddNode(full, components.Node{Importance: 1})

	if p.Trail(bare) != nil || p.Wave(bare) != nil || p.Rider(bare) != nil ||
		p.Glyph(bare) != nil || p.Typing(bare) != nil || p.Node(bare) != nil {
		t.Error("entity without payloads reported one")
	}
	if p.Trail(full) == nil || p.Wave(full) == nil || p.Rider(full) == nil ||
		p.Glyph(full) == nil || p.Typing(full) == nil || p.Node(full) == nil {
		t.Fatal("entity with payloads is missing one")
	}
	if p.Wave(full).Baseline != 10 || p.Node(full).Index != 0 {
		t.Errorf("payload values lost: wave %+v node %+v", *p.Wave(full), *p.Node(full))
	}
}
