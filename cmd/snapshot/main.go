// Snapshot tool - renders themes off-screen and writes one PNG per theme.
//
// Usage: go run ./cmd/snapshot -out shots [-theme worldmap] [-frames 240]
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/pthm-cable/ambient/config"
	"github.com/pthm-cable/ambient/engine"
	"github.com/pthm-cable/ambient/renderer"
)

func main() {
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	theme := flag.String("theme", "", "Theme to render (empty = all themes)")
	outDir := flag.String("out", "snapshots", "Directory for PNG files")
	frames := flag.Int("frames", 180, "Frames to simulate before capturing")
	width := flag.Int("width", 0, "Image width (0 = config screen width)")
	height := flag.Int("height", 0, "Image height (0 = config screen height)")
	seed := flag.Int64("seed", 1, "RNG seed")
	pointerX := flag.Float64("pointer-x", -1, "Pointer x during capture (negative = no pointer)")
	pointerY := flag.Float64("pointer-y", -1, "Pointer y during capture")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	w, h := *width, *height
	if w <= 0 {
		w = cfg.Screen.Width
	}
	if h <= 0 {
		h = cfg.Screen.Height
	}

	themes := cfg.ThemeNames()
	if *theme != "" {
		if _, err := cfg.ThemeByName(*theme); err != nil {
			slog.Error("invalid theme", "error", err, "themes", themes)
			os.Exit(1)
		}
		themes = []string{*theme}
	}

	if err := os.MkdirAll(*outDir, 0755); err != nil {
		slog.Error("failed to create output directory", "error", err)
		os.Exit(1)
	}

	failed := 0
	for _, name := range themes {
		path := filepath.Join(*outDir, name+".png")
		if err := capture(cfg, name, *seed, w, h, *frames, *pointerX, *pointerY, path); err != nil {
			slog.Error("snapshot failed", "theme", name, "error", err)
			failed++
			continue
		}
		slog.Info("snapshot written", "theme", name, "path", path)
	}
	if failed > 0 {
		os.Exit(1)
	}
}

// capture runs one theme for the given number of frames and saves the last.
func capture(cfg *config.Config, theme string, seed int64, w, h, frames int, px, py float64, path string) error {
	canvas, err := renderer.NewImageCanvas(w, h)
	if err != nil {
		return err
	}

	eng := engine.New(cfg, engine.Options{Theme: theme, Seed: seed})
	if err := eng.Start(canvas); err != nil {
		return fmt.Errorf("starting engine: %w", err)
	}
	defer eng.Stop()

	if px >= 0 && py >= 0 {
		eng.PointerMove(px, py)
	}
	for i := 0; i < max(frames, 1); i++ {
		eng.Frame()
	}

	if err := canvas.SavePNG(path); err != nil {
		return fmt.Errorf("saving %s: %w", path, err)
	}
	return nil
}
