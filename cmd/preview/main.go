// Theme preview tool - runs a theme full-window with sliders for the
// pointer and graph parameters.
//
// Usage: go run ./cmd/preview [-theme neural] [-config my.yaml]
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"slices"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/ambient/config"
	"github.com/pthm-cable/ambient/engine"
	"github.com/pthm-cable/ambient/renderer"
)

const (
	windowWidth  = 1280
	windowHeight = 720
	panelWidth   = 300
)

func main() {
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	theme := flag.String("theme", "", "Initial theme (empty = config theme)")
	flag.Parse()

	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()
	names := cfg.ThemeNames()
	current := slices.Index(names, cfg.Theme)
	if *theme != "" {
		if current = slices.Index(names, *theme); current < 0 {
			slog.Error("unknown theme", "theme", *theme, "themes", names)
			os.Exit(1)
		}
	}

	rl.SetConfigFlags(rl.FlagWindowResizable | rl.FlagMsaa4xHint)
	rl.InitWindow(windowWidth, windowHeight, "Ambient Theme Preview")
	defer rl.CloseWindow()
	rl.SetTargetFPS(int32(cfg.Screen.TargetFPS))

	// One atlas with every theme's runes so themes can be switched live.
	var runes []rune
	for i := range cfg.Themes {
		runes = append(runes, cfg.Themes[i].Runes()...)
	}
	canvas := renderer.NewRaylibCanvas(runes)
	defer canvas.Close()

	var seed int64 = 1
	eng := startEngine(cfg, names[current], seed, canvas)
	tuning := eng.Tuning()

	for !rl.WindowShouldClose() {
		if rl.IsWindowResized() {
			eng.Resize(float64(rl.GetScreenWidth()), float64(rl.GetScreenHeight()))
		}
		panelX := float32(rl.GetScreenWidth() - panelWidth)
		mouse := rl.GetMousePosition()
		if rl.IsCursorOnScreen() && mouse.X < panelX {
			eng.PointerMove(float64(mouse.X), float64(mouse.Y))
		} else {
			eng.PointerLeave()
		}

		rl.BeginDrawing()
		eng.Frame()

		rl.DrawRectangle(int32(panelX), 0, panelWidth, int32(rl.GetScreenHeight()), rl.Fade(rl.Black, 0.7))
		x := panelX + 15
		y := float32(15)

		rl.DrawText(fmt.Sprintf("Theme: %s", names[current]), int32(x), int32(y), 20, rl.RayWhite)
		y += 35

		next := tuning
		next.Radius = slider("Pointer radius", &y, x, tuning.Radius, 0, 400, "%.0f")
		next.Strength = slider("Pointer strength", &y, x, tuning.Strength, 0, 2, "%.2f")
		next.Cutoff = slider("Proximity cutoff", &y, x, tuning.Cutoff, 10, 400, "%.0f")
		next.SpawnChance = slider("Packet spawn chance", &y, x, tuning.SpawnChance, 0, 1, "%.2f")
		if next != tuning {
			eng.Tune(next)
			tuning = eng.Tuning()
		}
		y += 10

		if gui.Button(rl.Rectangle{X: x, Y: y, Width: 130, Height: 30}, "Next Theme") {
			current = (current + 1) % len(names)
			eng.Stop()
			eng = startEngine(cfg, names[current], seed, canvas)
			tuning = eng.Tuning()
		}
		if gui.Button(rl.Rectangle{X: x + 140, Y: y, Width: 130, Height: 30}, "Reseed") {
			seed++
			eng.Stop()
			eng = startEngine(cfg, names[current], seed, canvas)
			eng.Tune(tuning)
			tuning = eng.Tuning()
		}
		y += 50

		snap := eng.Snapshot()
		stats := []string{
			fmt.Sprintf("seed %d  frame %d", seed, snap.Frame),
			fmt.Sprintf("entities %d  nodes %d", snap.Entities, snap.Nodes),
			fmt.Sprintf("edges %d  packets %d", snap.Edges, snap.Packets),
			fmt.Sprintf("highlighted %d", snap.Highlighted),
			fmt.Sprintf("frame avg %dus  p99 %dus", snap.Perf.AvgFrame.Microseconds(), snap.Perf.P99Frame.Microseconds()),
			fmt.Sprintf("fps %d", rl.GetFPS()),
		}
		for _, line := range stats {
			rl.DrawText(line, int32(x), int32(y), 14, rl.LightGray)
			y += 18
		}

		rl.DrawText("Press C to copy YAML to clipboard", int32(x), int32(rl.GetScreenHeight()-30), 12, rl.Gray)
		if rl.IsKeyPressed(rl.KeyC) {
			rl.SetClipboardText(tuningYAML(tuning))
		}

		rl.EndDrawing()
		eng.RecordPresent()
	}
	eng.Stop()
}

// startEngine starts a fresh engine on the shared canvas. Engines are
// single-use, so switching theme or seed means a new one.
func startEngine(cfg *config.Config, theme string, seed int64, canvas *renderer.RaylibCanvas) *engine.Engine {
	eng := engine.New(cfg, engine.Options{Theme: theme, Seed: seed})
	if err := eng.Start(canvas); err != nil {
		slog.Error("failed to start engine", "theme", theme, "error", err)
	}
	return eng
}

// slider draws a labelled slider bar and advances y past it.
func slider(label string, y *float32, x float32, value, lo, hi float64, format string) float64 {
	rl.DrawText(label, int32(x), int32(*y), 14, rl.Gray)
	*y += 18
	v := gui.SliderBar(
		rl.Rectangle{X: x, Y: *y, Width: panelWidth - 90, Height: 20},
		"", "",
		float32(value), float32(lo), float32(hi),
	)
	rl.DrawText(fmt.Sprintf(format, value), int32(x+panelWidth-80), int32(*y+2), 16, rl.RayWhite)
	*y += 35
	if float64(v) == float64(float32(value)) {
		return value
	}
	return float64(v)
}

func tuningYAML(t engine.Tuning) string {
	return fmt.Sprintf(`interaction:
  radius: %.0f
  strength: %.2f
topology:
  cutoff: %.0f
packets:
  spawn_chance: %.2f`, t.Radius, t.Strength, t.Cutoff, t.SpawnChance)
}
