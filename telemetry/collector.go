package telemetry

import "github.com/pthm-cable/ambient/components"

// Collector accumulates per-frame observations and produces WindowStats.
type Collector struct {
	windowFrames int64
	timeStep     float64

	windowStart int64

	frames         int
	highlightedSum int
	highlightedMax int
	pointerFrames  int

	// Cumulative packet counters seen at the last flush.
	lastSpawned   int
	lastCompleted int
}

// NewCollector creates a collector that flushes every windowFrames frames.
// timeStep is the render clock advance per frame, used for ClockSec.
func NewCollector(windowFrames int, timeStep float64) *Collector {
	if windowFrames < 1 {
		windowFrames = 1
	}
	return &Collector{
		windowFrames: int64(windowFrames),
		timeStep:     timeStep,
	}
}

// RecordFrame records one frame's pointer engagement.
func (c *Collector) RecordFrame(highlighted int, pointerPresent bool) {
	c.frames++
	c.highlightedSum += highlighted
	if highlighted > c.highlightedMax {
		c.highlightedMax = highlighted
	}
	if pointerPresent {
		c.pointerFrames++
	}
}

// ShouldFlush reports whether a full window has elapsed at frame.
func (c *Collector) ShouldFlush(frame int64) bool {
	return frame-c.windowStart >= c.windowFrames
}

// SceneSnapshot is the scene state sampled at flush time.
type SceneSnapshot struct {
	Theme    string
	Entities int
	Nodes    int
	Edges    []components.Connection

	// Cumulative packet counters and current live count.
	PacketsSpawned   int
	PacketsCompleted int
	PacketsLive      int
}

// Flush produces a WindowStats and resets counters for the next window.
func (c *Collector) Flush(frame int64, scene SceneSnapshot) WindowStats {
	strengths := make([]float64, len(scene.Edges))
	for i, e := range scene.Edges {
		strengths[i] = e.Strength
	}
	mean, std, p10, p50, p90 := ComputeDistribution(strengths)

	var hlMean float64
	if c.frames > 0 {
		hlMean = float64(c.highlightedSum) / float64(c.frames)
	}

	stats := WindowStats{
		WindowStartFrame: c.windowStart,
		WindowEndFrame:   frame,
		ClockSec:         float64(frame) * c.timeStep,
		Theme:            scene.Theme,

		Entities: scene.Entities,
		Nodes:    scene.Nodes,
		Edges:    len(scene.Edges),

		StrengthMean: mean,
		StrengthStd:  std,
		StrengthP10:  p10,
		StrengthP50:  p50,
		StrengthP90:  p90,

		PacketsSpawned:   max(0, scene.PacketsSpawned-c.lastSpawned),
		PacketsCompleted: max(0, scene.PacketsCompleted-c.lastCompleted),
		PacketsLive:      scene.PacketsLive,

		HighlightedMean: hlMean,
		HighlightedMax:  c.highlightedMax,
		PointerFrames:   c.pointerFrames,
	}

	c.windowStart = frame
	c.frames = 0
	c.highlightedSum = 0
	c.highlightedMax = 0
	c.pointerFrames = 0
	c.lastSpawned = scene.PacketsSpawned
	c.lastCompleted = scene.PacketsCompleted

	return stats
}

// WindowFrames returns the number of frames per window.
func (c *Collector) WindowFrames() int64 {
	return c.windowFrames
}
