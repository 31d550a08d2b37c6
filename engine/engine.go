// Package engine owns the frame loop and surface lifecycle: it seeds a pool
// for one theme, advances it once per display refresh and draws it onto a
// caller-supplied canvas until stopped.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pthm-cable/ambient/components"
	"github.com/pthm-cable/ambient/config"
	"github.com/pthm-cable/ambient/renderer"
	"github.com/pthm-cable/ambient/systems"
	"github.com/pthm-cable/ambient/telemetry"
)

var (
	// ErrSurfaceUnavailable is returned by Start when the canvas is missing
	// or reports a non-positive size. The engine stays inert.
	ErrSurfaceUnavailable = errors.New("engine: drawing surface unavailable")
	// ErrAlreadyStarted is returned by Start on a running engine.
	ErrAlreadyStarted = errors.New("engine: already started")
	// ErrStopped is returned by Start and Run once the engine is stopped.
	ErrStopped = errors.New("engine: stopped")
	// ErrNotStarted is returned by Run before Start.
	ErrNotStarted = errors.New("engine: not started")
)

// State is the lifecycle state.
type State int32

const (
	StateUninitialized State = iota
	StateRunning
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Options configures an engine.
type Options struct {
	Theme    string // empty = the config's active theme
	Seed     int64  // 0 = time-based
	LogStats bool   // log window and perf stats at each flush

	// Output receives CSV rows at each stats flush. May be nil.
	Output *telemetry.OutputManager
	// StatsCallback, if set, is called with every flushed window after the
	// frame lock is released. It may call back into the engine.
	StatsCallback func(telemetry.WindowStats)
}

// resizable is implemented by canvases that own their backing store.
type resizable interface {
	Resize(width, height int)
}

// Engine runs one theme on one canvas. Frame, Stop and the tuning setters
// are serialized; Resize and pointer events are lock-free last-write-wins
// stores consumed by the next frame.
type Engine struct {
	cfg    *config.Config
	theme  *config.ThemeConfig
	opts   Options
	logger *slog.Logger

	state atomic.Int32
	mu    sync.Mutex

	surface atomic.Pointer[systems.Bounds]
	pointer atomic.Pointer[systems.Pointer]

	canvas   renderer.Canvas
	rng      *rand.Rand
	pool     *systems.Pool
	stepper  *systems.Stepper
	topo     *systems.Topology
	packets  *systems.PacketSystem
	renderer *renderer.Renderer

	bounds    systems.Bounds
	frame     int64
	clock     float64
	lastStats systems.StepStats

	perf      *telemetry.PerfCollector
	collector *telemetry.Collector
}

// New creates an uninitialized engine. The theme is resolved at Start.
func New(cfg *config.Config, opts Options) *Engine {
	if opts.Seed == 0 {
		opts.Seed = time.Now().UnixNano()
	}
	e := &Engine{
		cfg:       cfg,
		opts:      opts,
		logger:    slog.Default().With("component", "engine"),
		perf:      telemetry.NewPerfCollector(cfg.Telemetry.PerfWindow),
		collector: telemetry.NewCollector(cfg.Telemetry.StatsWindow, cfg.Engine.TimeStep),
	}
	e.pointer.Store(&systems.Pointer{})
	return e
}

// State returns the current lifecycle state.
func (e *Engine) State() State {
	return State(e.state.Load())
}

// Seed returns the seed used for all random sources.
func (e *Engine) Seed() int64 { return e.opts.Seed }

// Start seeds the pool at the canvas's current size and enters Running.
// A nil or zero-sized canvas yields ErrSurfaceUnavailable and leaves the
// engine uninitialized.
func (e *Engine) Start(c renderer.Canvas) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch e.State() {
	case StateRunning:
		return ErrAlreadyStarted
	case StateStopped:
		return ErrStopped
	}

	if c == nil {
		return ErrSurfaceUnavailable
	}
	w, h := c.Size()
	b := systems.Bounds{Width: w, Height: h}
	if !b.Valid() {
		return ErrSurfaceUnavailable
	}

	name := e.opts.Theme
	if name == "" {
		name = e.cfg.Theme
	}
	theme, err := e.cfg.ThemeByName(name)
	if err != nil {
		return fmt.Errorf("starting engine: %w", err)
	}

	seed := e.opts.Seed
	rng := rand.New(rand.NewSource(seed))
	pool := systems.NewPool()
	if err := systems.NewSeeder(rng, e.cfg.Engine.SeedAttempts).SeedTheme(pool, theme, b); err != nil {
		pool.Release()
		return fmt.Errorf("seeding theme %q: %w", theme.Name, err)
	}

	// A Stop that raced with seeding wins; the fresh pool is dropped.
	if !e.state.CompareAndSwap(int32(StateUninitialized), int32(StateRunning)) {
		pool.Release()
		return ErrStopped
	}

	e.theme = theme
	e.canvas = c
	e.rng = rng
	e.pool = pool
	e.bounds = b
	e.stepper = systems.NewStepper(rand.New(rand.NewSource(seed+1)), seed)
	e.topo = systems.NewTopology(theme.Topology)
	edges := e.topo.Build(pool, b, rng)
	e.packets = systems.NewPacketSystem(theme.Packets)
	e.renderer = renderer.NewRenderer(theme, rand.New(rand.NewSource(seed+2)))
	e.surface.Store(nil)

	e.logger.Info("engine started",
		"theme", theme.Name,
		"seed", seed,
		"width", w,
		"height", h,
		"entities", pool.Len(),
		"edges", len(edges),
	)
	return nil
}

// Frame runs one simulate-then-render cycle. It reports whether anything
// was drawn; outside Running it is a no-op.
func (e *Engine) Frame() bool {
	drawn, window := e.advance()
	// The callback runs without the frame lock so it may call Stop,
	// Snapshot or Tune.
	if window != nil && e.opts.StatsCallback != nil {
		e.opts.StatsCallback(*window)
	}
	return drawn
}

// advance steps and renders one frame under the frame lock. It returns the
// stats window completed by this frame, if any.
func (e *Engine) advance() (bool, *telemetry.WindowStats) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.State() != StateRunning {
		return false, nil
	}
	e.applyResize()
	ptr := *e.pointer.Load()

	e.perf.StartFrame()

	e.perf.StartPhase(telemetry.PhaseMotion)
	e.lastStats = e.stepper.Step(e.pool, e.cfg.Engine.DT, e.bounds, ptr, e.topo.Edges())

	e.perf.StartPhase(telemetry.PhaseTopology)
	edges := e.topo.Refresh(e.pool, e.bounds)

	e.perf.StartPhase(telemetry.PhasePackets)
	e.packets.Update(edges, e.rng)

	e.perf.StartPhase(telemetry.PhaseRender)
	e.renderer.Render(e.canvas, e.pool, edges, e.packets.Packets, e.clock)

	e.perf.EndFrame()

	e.frame++
	e.clock += e.cfg.Engine.TimeStep
	e.collector.RecordFrame(e.lastStats.Highlighted, ptr.Valid())
	return true, e.flushTelemetry()
}

// applyResize moves a pending surface size into the simulation bounds.
// Entities keep their positions; boundary policies correct them over the
// following frames.
func (e *Engine) applyResize() {
	next := e.surface.Swap(nil)
	if next == nil || *next == e.bounds {
		return
	}
	e.bounds = *next
	if r, ok := e.canvas.(resizable); ok {
		r.Resize(int(next.Width), int(next.Height))
	}
	e.logger.Debug("surface resized", "width", next.Width, "height", next.Height)
}

// Run drives Frame from ticks until ctx is done, ticks is closed or the
// engine stops. Hosts with their own refresh loop call Frame directly.
func (e *Engine) Run(ctx context.Context, ticks <-chan time.Time) error {
	switch e.State() {
	case StateUninitialized:
		return ErrNotStarted
	case StateStopped:
		return ErrStopped
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case _, ok := <-ticks:
			if !ok {
				return nil
			}
			if !e.Frame() {
				return nil
			}
		}
	}
}

// Resize records a new surface size for the next frame. Non-finite or
// non-positive sizes are ignored, as is any call after Stop.
func (e *Engine) Resize(width, height float64) {
	if e.State() == StateStopped {
		return
	}
	b := systems.Bounds{Width: width, Height: height}
	if !b.Valid() {
		return
	}
	e.surface.Store(&b)
}

// PointerMove records the pointer position for the next frame. A
// non-finite position counts as no pointer for that frame.
func (e *Engine) PointerMove(x, y float64) {
	if e.State() == StateStopped {
		return
	}
	e.pointer.Store(&systems.Pointer{X: x, Y: y, Present: true})
}

// PointerLeave clears the pointer.
func (e *Engine) PointerLeave() {
	if e.State() == StateStopped {
		return
	}
	e.pointer.Store(&systems.Pointer{})
}

// Stop ends the frame loop and releases the pool. It is idempotent and may
// be called from any goroutine; a frame already in progress completes first.
func (e *Engine) Stop() {
	prev := State(e.state.Swap(int32(StateStopped)))
	if prev == StateStopped {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.pool != nil {
		e.pool.Release()
		e.pool = nil
	}
	if e.packets != nil {
		e.packets.Reset()
	}
	e.canvas = nil
	e.surface.Store(nil)
	e.pointer.Store(&systems.Pointer{})

	e.logger.Info("engine stopped", "previous", prev.String(), "frames", e.frame)
}

// flushTelemetry closes a stats window when one is complete and writes it
// to the log and CSV output. The caller holds the frame lock.
func (e *Engine) flushTelemetry() *telemetry.WindowStats {
	if !e.collector.ShouldFlush(e.frame) {
		return nil
	}

	stats := e.collector.Flush(e.frame, telemetry.SceneSnapshot{
		Theme:            e.theme.Name,
		Entities:         e.pool.Len(),
		Nodes:            e.pool.NodeCount(),
		Edges:            e.topo.Edges(),
		PacketsSpawned:   e.packets.Spawned,
		PacketsCompleted: e.packets.Completed,
		PacketsLive:      e.packets.Count(),
	})
	perfStats := e.perf.Stats()

	if e.opts.LogStats {
		stats.LogStats()
		perfStats.LogStats()
	}
	if err := e.opts.Output.WriteStats(stats); err != nil {
		e.logger.Error("failed to write stats", "error", err)
	}
	if err := e.opts.Output.WritePerf(perfStats, e.frame); err != nil {
		e.logger.Error("failed to write perf", "error", err)
	}
	return &stats
}

// RecordPresent marks that the host presented a frame, for FPS tracking.
func (e *Engine) RecordPresent() {
	e.mu.Lock()
	e.perf.RecordPresent()
	e.mu.Unlock()
}

// Snapshot is a read-only summary of the running scene.
type Snapshot struct {
	State       State
	Theme       string
	Frame       int64
	Clock       float64
	Width       float64
	Height      float64
	Entities    int
	Nodes       int
	Edges       int
	Packets     int
	Highlighted int
	Perf        telemetry.PerfStats
}

// Snapshot returns the current scene summary.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	s := Snapshot{
		State:  e.State(),
		Frame:  e.frame,
		Clock:  e.clock,
		Width:  e.bounds.Width,
		Height: e.bounds.Height,
		Perf:   e.perf.Stats(),
	}
	if e.theme != nil {
		s.Theme = e.theme.Name
	}
	if e.pool != nil {
		s.Entities = e.pool.Len()
		s.Nodes = e.pool.NodeCount()
		s.Edges = len(e.topo.Edges())
		s.Packets = e.packets.Count()
		s.Highlighted = e.pool.HighlightedCount()
	}
	return s
}

// Tuning holds the live-adjustable parameters exposed to the preview tool.
type Tuning struct {
	Radius      float64 // pointer influence radius, all kinds
	Strength    float64 // pointer impulse strength, all kinds
	Cutoff      float64 // proximity cutoff
	SpawnChance float64 // packet spawn probability per frame
}

// Tuning reads the current parameters. Radius and Strength come from the
// first entity with an interaction mode.
func (e *Engine) Tuning() Tuning {
	e.mu.Lock()
	defer e.mu.Unlock()

	var t Tuning
	if e.State() != StateRunning {
		return t
	}
	t.Cutoff = e.topo.Cutoff()
	t.SpawnChance = e.packets.SpawnChance()
	for _, ent := range e.pool.Order() {
		m := e.pool.Motion(ent)
		if m.Interaction != components.InteractNone || m.Highlights {
			t.Radius, t.Strength = m.Radius, m.Strength
			break
		}
	}
	return t
}

// Tune applies new parameters to the running scene. Non-finite or negative
// values leave the corresponding parameter unchanged.
func (e *Engine) Tune(t Tuning) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.State() != StateRunning {
		return
	}
	usable := func(v float64) bool { return v >= 0 && !math.IsInf(v, 0) && !math.IsNaN(v) }

	if usable(t.Radius) || usable(t.Strength) {
		for _, ent := range e.pool.Order() {
			m := e.pool.Motion(ent)
			if m.Interaction == components.InteractNone && !m.Highlights {
				continue
			}
			if usable(t.Radius) {
				m.Radius = t.Radius
			}
			if usable(t.Strength) {
				m.Strength = t.Strength
			}
		}
	}
	if usable(t.Cutoff) {
		e.topo.SetCutoff(t.Cutoff)
	}
	if usable(t.SpawnChance) {
		e.packets.SetSpawnChance(t.SpawnChance)
	}
}
