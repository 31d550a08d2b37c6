package renderer

import (
	"math"
	"math/rand"
	"testing"

	"github.com/pthm-cable/ambient/components"
	"github.com/pthm-cable/ambient/config"
	"github.com/pthm-cable/ambient/systems"
)

func init() {
	// Initialize config for tests
	config.MustInit("")
}

type scene struct {
	pool    *systems.Pool
	edges   []components.Connection
	packets []components.Packet
}

func seedScene(t *testing.T, theme string, b systems.Bounds) (*config.ThemeConfig, scene) {
	t.Helper()
	th, err := config.Cfg().ThemeByName(theme)
	if err != nil {
		t.Fatal(err)
	}
	rng := rand.New(rand.NewSource(1))
	p := systems.NewPool()
	if err := systems.NewSeeder(rng, 8).SeedTheme(p, th, b); err != nil {
		t.Fatal(err)
	}
	edges := systems.NewTopology(th.Topology).Build(p, b, rng)

	ps := systems.NewPacketSystem(th.Packets)
	if len(edges) > 0 {
		ps.Emit(edges[0].A, edges[0].B, 0.1)
	}
	return th, scene{pool: p, edges: edges, packets: ps.Packets}
}

func TestRenderLayerOrder(t *testing.T) {
	for _, name := range config.Cfg().ThemeNames() {
		t.Run(name, func(t *testing.T) {
			b := systems.Bounds{Width: 800, Height: 600}
			th, sc := seedScene(t, name, b)
			rec := NewRecorder(b.Width, b.Height)

			NewRenderer(th, rand.New(rand.NewSource(1))).Render(rec, sc.pool, sc.edges, sc.packets, 0)

			if len(rec.Ops) == 0 {
				t.Fatal("nothing drawn")
			}
			if rec.Ops[0].Layer != LayerBackground {
				t.Errorf("first op on layer %s, want background", rec.Ops[0].Layer)
			}
			for i := 1; i < len(rec.Ops); i++ {
				if rec.Ops[i].Layer < rec.Ops[i-1].Layer {
					t.Fatalf("op %d on layer %s drawn after layer %s", i, rec.Ops[i].Layer, rec.Ops[i-1].Layer)
				}
			}
		})
	}
}

func TestRenderDoesNotMutatePool(t *testing.T) {
	b := systems.Bounds{Width: 800, Height: 600}
	th, sc := seedScene(t, "neural", b)

	before := make([]components.Position, 0, sc.pool.Len())
	for _, e := range sc.pool.Order() {
		before = append(before, *sc.pool.Position(e))
	}

	r := NewRenderer(th, rand.New(rand.NewSource(1)))
	for i := 0; i < 5; i++ {
		r.Render(NewRecorder(b.Width, b.Height), sc.pool, sc.edges, sc.packets, float64(i))
	}

	for i, e := range sc.pool.Order() {
		if *sc.pool.Position(e) != before[i] {
			t.Fatalf("entity %d moved during render", i)
		}
	}
}

func TestRenderEmptySurface(t *testing.T) {
	th, sc := seedScene(t, "signal", systems.Bounds{Width: 800, Height: 600})
	rec := NewRecorder(0, 600)
	NewRenderer(th, rand.New(rand.NewSource(1))).Render(rec, sc.pool, sc.edges, nil, 0)
	if len(rec.Ops) != 0 {
		t.Errorf("expected no draw calls on a zero-width surface, got %d", len(rec.Ops))
	}
}

func TestRenderCounts(t *testing.T) {
	b := systems.Bounds{Width: 800, Height: 600}
	th, sc := seedScene(t, "worldmap", b)
	rec := NewRecorder(b.Width, b.Height)
	NewRenderer(th, rand.New(rand.NewSource(1))).Render(rec, sc.pool, sc.edges, sc.packets, 0)

	edgeLines := 0
	for _, op := range rec.Ops {
		if op.Layer == LayerEdges && op.Kind == OpLine {
			edgeLines++
		}
	}
	if edgeLines != len(sc.edges) {
		t.Errorf("expected %d edge lines, got %d", len(sc.edges), edgeLines)
	}
	if got, want := rec.Count(OpPolyline), len(th.Outline.Paths); got != want {
		t.Errorf("expected %d outline polylines, got %d", want, got)
	}
	// Grid: columns+1 vertical and rows+1 horizontal lines
	gridLines := 0
	for _, op := range rec.Ops {
		if op.Layer == LayerStructure && op.Kind == OpLine {
			gridLines++
		}
	}
	if want := th.Grid.Columns + 1 + th.Grid.Rows + 1; gridLines != want {
		t.Errorf("expected %d grid lines, got %d", want, gridLines)
	}
}

func TestHighlightLabelOnlyWhenHighlighted(t *testing.T) {
	th := &config.ThemeConfig{Name: "test"}
	p := systems.NewPool()
	e := p.Spawn(components.Position{X: 100, Y: 100}, components.Velocity{},
		components.Style{Color: components.RGBA{R: 1, A: 1}, Size: 4, Opacity: 1},
		components.Pulse{}, components.Motion{Kind: components.KindFlowNode})
	p.AddNode(e, components.Node{Label: "FFT"})

	labels := func() int {
		rec := NewRecorder(400, 400)
		NewRenderer(th, rand.New(rand.NewSource(1))).Render(rec, p, nil, nil, 0)
		n := 0
		for _, op := range rec.Ops {
			if op.Kind == OpText && op.Text == "FFT" {
				n++
			}
		}
		return n
	}

	if n := labels(); n != 0 {
		t.Errorf("label drawn without highlight")
	}
	p.Highlight(e).Intensity = 0.7
	if n := labels(); n != 1 {
		t.Errorf("expected label when highlighted, got %d", n)
	}
}

func TestToColorClamps(t *testing.T) {
	tests := []struct {
		in   components.RGBA
		want Color
	}{
		{components.RGBA{R: 1, G: 0.5, B: 0, A: 1}, Color{255, 128, 0, 255}},
		{components.RGBA{R: 2, G: -1, B: 0.2, A: 1.7}, Color{255, 0, 51, 255}},
		{components.RGBA{R: math.NaN(), G: math.Inf(1), B: math.Inf(-1), A: 0}, Color{0, 255, 0, 0}},
	}
	for _, tt := range tests {
		if got := ToColor(tt.in); got != tt.want {
			t.Errorf("ToColor(%+v) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}

func TestGradientAt(t *testing.T) {
	stops := []GradientStop{
		{Offset: 0, Color: Color{0, 0, 0, 255}},
		{Offset: 0.5, Color: Color{200, 100, 0, 255}},
		{Offset: 1, Color: Color{200, 100, 100, 255}},
	}
	if got := gradientAt(stops, 0.25); got != (Color{100, 50, 0, 255}) {
		t.Errorf("gradientAt(0.25) = %+v", got)
	}
	if got := gradientAt(stops, -1); got != stops[0].Color {
		t.Errorf("gradientAt below range = %+v", got)
	}
	if got := gradientAt(stops, 2); got != stops[2].Color {
		t.Errorf("gradientAt above range = %+v", got)
	}
}

func TestImageCanvasRender(t *testing.T) {
	c, err := NewImageCanvas(320, 200)
	if err != nil {
		t.Fatalf("NewImageCanvas: %v", err)
	}
	b := systems.Bounds{Width: 320, Height: 200}
	th, sc := seedScene(t, "coderain", b)
	NewRenderer(th, rand.New(rand.NewSource(1))).Render(c, sc.pool, sc.edges, sc.packets, 0)

	img := c.Image()
	if img.Bounds().Dx() != 320 || img.Bounds().Dy() != 200 {
		t.Fatalf("unexpected image bounds %v", img.Bounds())
	}
	// Background is opaque
	if _, _, _, a := img.At(5, 5).RGBA(); a == 0 {
		t.Error("expected opaque background pixel")
	}

	if _, err := NewImageCanvas(0, 10); err == nil {
		t.Error("expected error for zero-width canvas")
	}
}
