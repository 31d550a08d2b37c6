package engine

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/pthm-cable/ambient/config"
	"github.com/pthm-cable/ambient/renderer"
	"github.com/pthm-cable/ambient/telemetry"
)

func init() {
	config.MustInit("")
}

func newTestEngine(t *testing.T, theme string) (*Engine, *renderer.Recorder) {
	t.Helper()
	e := New(config.Cfg(), Options{Theme: theme, Seed: 42})
	rec := renderer.NewRecorder(800, 600)
	if err := e.Start(rec); err != nil {
		t.Fatalf("Start: %v", err)
	}
	return e, rec
}

func TestStartUnavailableSurface(t *testing.T) {
	tests := []struct {
		name   string
		canvas renderer.Canvas
	}{
		{"nil canvas", nil},
		{"zero size", renderer.NewRecorder(0, 0)},
		{"zero height", renderer.NewRecorder(800, 0)},
		{"NaN width", renderer.NewRecorder(math.NaN(), 600)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := New(config.Cfg(), Options{Seed: 1})
			if err := e.Start(tt.canvas); !errors.Is(err, ErrSurfaceUnavailable) {
				t.Fatalf("Start = %v, want ErrSurfaceUnavailable", err)
			}
			if e.State() != StateUninitialized {
				t.Errorf("state = %v, want uninitialized", e.State())
			}
			if e.Frame() {
				t.Error("inert engine drew a frame")
			}
		})
	}
}

func TestStartUnknownTheme(t *testing.T) {
	e := New(config.Cfg(), Options{Theme: "vaporwave", Seed: 1})
	if err := e.Start(renderer.NewRecorder(800, 600)); err == nil {
		t.Fatal("expected error for unknown theme")
	}
	if e.State() != StateUninitialized {
		t.Errorf("state = %v, want uninitialized", e.State())
	}
}

func TestStartTwice(t *testing.T) {
	e, rec := newTestEngine(t, "signal")
	if err := e.Start(rec); !errors.Is(err, ErrAlreadyStarted) {
		t.Errorf("second Start = %v, want ErrAlreadyStarted", err)
	}
	e.Stop()
	if err := e.Start(rec); !errors.Is(err, ErrStopped) {
		t.Errorf("Start after Stop = %v, want ErrStopped", err)
	}
}

func TestFrameDrawsEveryTheme(t *testing.T) {
	for _, name := range config.Cfg().ThemeNames() {
		t.Run(name, func(t *testing.T) {
			e, rec := newTestEngine(t, name)
			defer e.Stop()

			for i := 0; i < 30; i++ {
				rec.Reset()
				if !e.Frame() {
					t.Fatalf("frame %d not drawn", i)
				}
				if len(rec.Ops) == 0 {
					t.Fatalf("frame %d recorded no draw ops", i)
				}
			}

			s := e.Snapshot()
			if s.Frame != 30 || s.Theme != name || s.State != StateRunning {
				t.Errorf("snapshot = %+v", s)
			}
			if s.Entities == 0 {
				t.Error("no entities seeded")
			}
		})
	}
}

// stopDuringSize stops the engine from another goroutine while Start is
// reading the surface size, and waits until the stop is visible.
type stopDuringSize struct {
	*renderer.Recorder
	e *Engine
}

func (c stopDuringSize) Size() (float64, float64) {
	go c.e.Stop()
	for c.e.State() != StateStopped {
		time.Sleep(time.Millisecond)
	}
	return c.Recorder.Size()
}

func TestStopDuringStart(t *testing.T) {
	e := New(config.Cfg(), Options{Theme: "neural", Seed: 3})
	c := stopDuringSize{Recorder: renderer.NewRecorder(800, 600), e: e}

	if err := e.Start(c); !errors.Is(err, ErrStopped) {
		t.Fatalf("Start = %v, want ErrStopped", err)
	}
	if e.State() != StateStopped {
		t.Fatalf("state = %v, want stopped", e.State())
	}

	c.Reset()
	if e.Frame() {
		t.Error("Frame drew after Stop raced with Start")
	}
	if len(c.Ops) != 0 {
		t.Errorf("Frame recorded %d ops", len(c.Ops))
	}
	if s := e.Snapshot(); s.Entities != 0 {
		t.Errorf("pool kept %d entities", s.Entities)
	}
}

func TestStopIdempotent(t *testing.T) {
	e, rec := newTestEngine(t, "neural")
	e.Frame()

	e.Stop()
	e.Stop()

	if e.State() != StateStopped {
		t.Fatalf("state = %v, want stopped", e.State())
	}

	rec.Reset()
	if e.Frame() {
		t.Error("Frame after Stop reported drawing")
	}
	if len(rec.Ops) != 0 {
		t.Errorf("Frame after Stop drew %d ops", len(rec.Ops))
	}

	s := e.Snapshot()
	if s.Entities != 0 || s.Frame != 1 {
		t.Errorf("snapshot after Stop = %+v", s)
	}
}

func TestStopBeforeStart(t *testing.T) {
	e := New(config.Cfg(), Options{Seed: 1})
	e.Stop()
	e.Stop()
	if e.State() != StateStopped {
		t.Errorf("state = %v, want stopped", e.State())
	}
}

func TestEventsAfterStopIgnored(t *testing.T) {
	e, _ := newTestEngine(t, "constellation")
	e.Stop()

	e.Resize(1024, 768)
	e.PointerMove(10, 10)
	e.PointerLeave()

	if e.surface.Load() != nil {
		t.Error("resize after Stop was recorded")
	}
	if p := e.pointer.Load(); p.Present {
		t.Errorf("pointer after Stop = %+v", *p)
	}
	if s := e.Snapshot(); s.Width != 800 || s.Height != 600 {
		t.Errorf("bounds changed after Stop: %vx%v", s.Width, s.Height)
	}
}

func TestResize(t *testing.T) {
	e, _ := newTestEngine(t, "worldmap")
	defer e.Stop()

	e.Resize(1024, 768)
	e.Resize(640, 480) // last write wins
	if s := e.Snapshot(); s.Width != 800 {
		t.Errorf("resize applied before the next frame: width %v", s.Width)
	}
	e.Frame()
	if s := e.Snapshot(); s.Width != 640 || s.Height != 480 {
		t.Errorf("bounds = %vx%v, want 640x480", s.Width, s.Height)
	}

	for _, size := range [][2]float64{{0, 480}, {-5, 10}, {math.NaN(), 100}, {math.Inf(1), 100}} {
		e.Resize(size[0], size[1])
	}
	e.Frame()
	if s := e.Snapshot(); s.Width != 640 || s.Height != 480 {
		t.Errorf("invalid resize changed bounds to %vx%v", s.Width, s.Height)
	}
}

func TestInvalidPointerIsNoSignal(t *testing.T) {
	e, _ := newTestEngine(t, "neural")
	defer e.Stop()

	e.PointerMove(math.NaN(), 100)
	e.Frame()
	if s := e.Snapshot(); s.Highlighted != 0 {
		t.Errorf("NaN pointer highlighted %d entities", s.Highlighted)
	}

	e.PointerMove(400, math.Inf(-1))
	e.Frame()
	if s := e.Snapshot(); s.Highlighted != 0 {
		t.Errorf("infinite pointer highlighted %d entities", s.Highlighted)
	}
}

func TestRun(t *testing.T) {
	t.Run("not started", func(t *testing.T) {
		e := New(config.Cfg(), Options{Seed: 1})
		if err := e.Run(context.Background(), nil); !errors.Is(err, ErrNotStarted) {
			t.Errorf("Run = %v, want ErrNotStarted", err)
		}
	})

	t.Run("closed ticks", func(t *testing.T) {
		e, _ := newTestEngine(t, "signal")
		defer e.Stop()

		ticks := make(chan time.Time, 5)
		for i := 0; i < 5; i++ {
			ticks <- time.Now()
		}
		close(ticks)

		if err := e.Run(context.Background(), ticks); err != nil {
			t.Fatalf("Run = %v", err)
		}
		if f := e.Snapshot().Frame; f != 5 {
			t.Errorf("frames = %d, want 5", f)
		}
	})

	t.Run("context cancel", func(t *testing.T) {
		e, _ := newTestEngine(t, "signal")
		defer e.Stop()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if err := e.Run(ctx, make(chan time.Time)); !errors.Is(err, context.Canceled) {
			t.Errorf("Run = %v, want context.Canceled", err)
		}
	})

	t.Run("stop from another goroutine", func(t *testing.T) {
		e, _ := newTestEngine(t, "neural")

		ticker := time.NewTicker(time.Millisecond)
		defer ticker.Stop()

		done := make(chan error, 1)
		go func() { done <- e.Run(context.Background(), ticker.C) }()

		time.Sleep(20 * time.Millisecond)
		e.Stop()

		select {
		case err := <-done:
			if err != nil {
				t.Errorf("Run = %v, want nil after Stop", err)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("Run did not return after Stop")
		}
	})
}

func TestConcurrentEvents(t *testing.T) {
	e, _ := newTestEngine(t, "constellation")

	var wg sync.WaitGroup
	stop := make(chan struct{})
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; ; i++ {
			select {
			case <-stop:
				return
			default:
			}
			e.PointerMove(float64(i%800), float64(i%600))
			e.Resize(float64(600+i%400), float64(400+i%300))
			if i%7 == 0 {
				e.PointerLeave()
			}
		}
	}()

	for i := 0; i < 100; i++ {
		e.Frame()
	}
	e.Stop()
	close(stop)
	wg.Wait()

	if e.Frame() {
		t.Error("frame drawn after Stop")
	}
}

func TestStatsFlush(t *testing.T) {
	cfg := *config.Cfg()
	cfg.Telemetry.StatsWindow = 10

	var windows []telemetry.WindowStats
	e := New(&cfg, Options{
		Theme:         "worldmap",
		Seed:          7,
		StatsCallback: func(s telemetry.WindowStats) { windows = append(windows, s) },
	})
	if err := e.Start(renderer.NewRecorder(800, 600)); err != nil {
		t.Fatal(err)
	}
	defer e.Stop()

	for i := 0; i < 35; i++ {
		e.Frame()
	}

	if len(windows) != 3 {
		t.Fatalf("got %d windows, want 3", len(windows))
	}
	for i, w := range windows {
		if w.WindowEndFrame != int64(10*(i+1)) {
			t.Errorf("window %d ends at %d", i, w.WindowEndFrame)
		}
		if w.Theme != "worldmap" || w.Edges == 0 || w.Nodes == 0 {
			t.Errorf("window %d = %+v", i, w)
		}
	}
}

func TestStatsCallbackCanStop(t *testing.T) {
	cfg := *config.Cfg()
	cfg.Telemetry.StatsWindow = 5

	var e *Engine
	windows := 0
	e = New(&cfg, Options{
		Theme: "constellation",
		Seed:  9,
		StatsCallback: func(telemetry.WindowStats) {
			windows++
			_ = e.Snapshot()
			e.Tune(Tuning{SpawnChance: 0.5})
			if windows == 2 {
				e.Stop()
			}
		},
	})
	if err := e.Start(renderer.NewRecorder(800, 600)); err != nil {
		t.Fatal(err)
	}

	done := make(chan int, 1)
	go func() {
		drawn := 0
		for i := 0; i < 50; i++ {
			if e.Frame() {
				drawn++
			}
		}
		done <- drawn
	}()

	select {
	case drawn := <-done:
		if drawn != 10 {
			t.Errorf("drew %d frames, want 10", drawn)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Frame blocked while the stats callback called into the engine")
	}
	if e.State() != StateStopped {
		t.Errorf("state = %v, want stopped", e.State())
	}
	if windows != 2 {
		t.Errorf("got %d windows, want 2", windows)
	}
}

func TestTune(t *testing.T) {
	e, _ := newTestEngine(t, "neural")
	defer e.Stop()

	e.Tune(Tuning{Radius: 50, Strength: 0.2, Cutoff: 90, SpawnChance: 1})
	got := e.Tuning()
	if got.Radius != 50 || got.Strength != 0.2 || got.Cutoff != 90 || got.SpawnChance != 1 {
		t.Errorf("Tuning = %+v", got)
	}

	e.Tune(Tuning{Radius: math.NaN(), Strength: -1, Cutoff: math.Inf(1), SpawnChance: 0.5})
	got = e.Tuning()
	if got.Radius != 50 || got.Strength != 0.2 || got.Cutoff != 90 || got.SpawnChance != 0.5 {
		t.Errorf("Tuning after partial update = %+v", got)
	}
}

func TestDeterministicSeed(t *testing.T) {
	run := func() []renderer.Op {
		e, rec := newTestEngine(t, "constellation")
		defer e.Stop()
		for i := 0; i < 10; i++ {
			rec.Reset()
			e.Frame()
		}
		return append([]renderer.Op(nil), rec.Ops...)
	}

	a, b := run(), run()
	if len(a) != len(b) {
		t.Fatalf("op counts differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i].Kind != b[i].Kind || a[i].X != b[i].X || a[i].Y != b[i].Y {
			t.Fatalf("op %d differs: %+v vs %+v", i, a[i], b[i])
		}
	}
}
