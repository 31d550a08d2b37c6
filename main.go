package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/ambient/config"
	"github.com/pthm-cable/ambient/engine"
	"github.com/pthm-cable/ambient/renderer"
	"github.com/pthm-cable/ambient/telemetry"
)

func main() {
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	theme := flag.String("theme", "", "Theme to run (empty = config theme)")
	headless := flag.Bool("headless", false, "Render off-screen without a window")
	logStats := flag.Bool("log-stats", false, "Output stats via slog")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	snapshot := flag.String("snapshot", "", "Headless only: write the last frame to this PNG")
	seed := flag.Int64("seed", 0, "RNG seed (0 = time-based)")
	maxFrames := flag.Int("max-frames", 0, "Stop after N frames (0 = unlimited)")
	debug := flag.Bool("debug", false, "Enable debug logging")

	flag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})))

	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()
	if *theme != "" {
		if _, err := cfg.ThemeByName(*theme); err != nil {
			slog.Error("invalid theme", "error", err, "themes", cfg.ThemeNames())
			os.Exit(1)
		}
		cfg.Theme = *theme
	}

	output, err := telemetry.NewOutputManager(*outputDir)
	if err != nil {
		slog.Error("failed to create output directory", "error", err)
		os.Exit(1)
	}
	defer output.Close()
	if err := output.WriteConfig(cfg); err != nil {
		slog.Error("failed to write config snapshot", "error", err)
	}

	eng := engine.New(cfg, engine.Options{
		Seed:     *seed,
		LogStats: *logStats,
		Output:   output,
	})
	defer eng.Stop()

	if *headless {
		runHeadless(cfg, eng, *maxFrames, *snapshot)
		return
	}
	runWindowed(cfg, eng, *maxFrames)
}

// runHeadless renders into an in-memory image at the configured screen
// size, paced by a ticker at the target FPS unless a frame limit is set.
func runHeadless(cfg *config.Config, eng *engine.Engine, maxFrames int, snapshot string) {
	canvas, err := renderer.NewImageCanvas(cfg.Screen.Width, cfg.Screen.Height)
	if err != nil {
		slog.Error("failed to create image canvas", "error", err)
		return
	}
	if err := eng.Start(canvas); err != nil {
		slog.Error("failed to start engine", "error", err)
		return
	}

	slog.Info("starting headless render",
		"theme", cfg.Theme,
		"seed", eng.Seed(),
		"max_frames", maxFrames,
	)

	if maxFrames > 0 {
		for i := 0; i < maxFrames; i++ {
			if !eng.Frame() {
				break
			}
		}
		slog.Info("max frames reached", "frame", eng.Snapshot().Frame)
	} else {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		fps := max(cfg.Screen.TargetFPS, 1)
		ticker := time.NewTicker(time.Second / time.Duration(fps))
		defer ticker.Stop()

		if err := eng.Run(ctx, ticker.C); err != nil && ctx.Err() == nil {
			slog.Error("frame loop ended", "error", err)
		}
	}

	if snapshot != "" {
		if err := canvas.SavePNG(snapshot); err != nil {
			slog.Error("failed to write snapshot", "error", err)
			return
		}
		slog.Info("snapshot written", "path", snapshot)
	}
}

// runWindowed hosts the engine in a resizable raylib window. Window resize
// and cursor movement are forwarded as engine events.
func runWindowed(cfg *config.Config, eng *engine.Engine, maxFrames int) {
	rl.SetConfigFlags(rl.FlagWindowResizable | rl.FlagMsaa4xHint)
	rl.InitWindow(int32(cfg.Screen.Width), int32(cfg.Screen.Height), "Ambient")
	defer rl.CloseWindow()

	rl.SetTargetFPS(int32(cfg.Screen.TargetFPS))

	canvas := renderer.NewRaylibCanvas(cfg.ActiveTheme().Runes())
	defer canvas.Close()

	if err := eng.Start(canvas); err != nil {
		slog.Error("failed to start engine", "error", err)
		return
	}

	for !rl.WindowShouldClose() {
		if rl.IsWindowResized() {
			eng.Resize(float64(rl.GetScreenWidth()), float64(rl.GetScreenHeight()))
		}
		if rl.IsCursorOnScreen() {
			m := rl.GetMousePosition()
			eng.PointerMove(float64(m.X), float64(m.Y))
		} else {
			eng.PointerLeave()
		}

		rl.BeginDrawing()
		drawn := eng.Frame()
		rl.EndDrawing()
		eng.RecordPresent()

		if !drawn {
			break
		}
		if maxFrames > 0 && eng.Snapshot().Frame >= int64(maxFrames) {
			break
		}
	}
}
