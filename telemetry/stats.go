package telemetry

import (
	"log/slog"
	"math"
	"slices"

	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated scene statistics for one window of frames.
type WindowStats struct {
	WindowStartFrame int64   `csv:"-"`
	WindowEndFrame   int64   `csv:"window_end"`
	ClockSec         float64 `csv:"clock"`
	Theme            string  `csv:"theme"`

	// Scene size at window end
	Entities int `csv:"entities"`
	Nodes    int `csv:"nodes"`
	Edges    int `csv:"edges"`

	// Connection strength distribution at window end
	StrengthMean float64 `csv:"strength_mean"`
	StrengthStd  float64 `csv:"strength_std"`
	StrengthP10  float64 `csv:"strength_p10"`
	StrengthP50  float64 `csv:"strength_p50"`
	StrengthP90  float64 `csv:"strength_p90"`

	// Packet traffic during window
	PacketsSpawned   int `csv:"packets_spawned"`
	PacketsCompleted int `csv:"packets_completed"`
	PacketsLive      int `csv:"packets_live"`

	// Pointer engagement
	HighlightedMean float64 `csv:"highlighted_mean"`
	HighlightedMax  int     `csv:"highlighted_max"`
	PointerFrames   int     `csv:"pointer_frames"`
}

// Percentile returns the p-th quantile of a sorted slice, interpolating
// between ranks. Returns 0 for an empty slice.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}
	idx := p * float64(n-1)
	lo := int(idx)
	if lo+1 >= n {
		return sorted[n-1]
	}
	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[lo+1]*frac
}

// ComputeDistribution returns the mean, standard deviation and deciles of
// values. The input is not modified.
func ComputeDistribution(values []float64) (mean, std, p10, p50, p90 float64) {
	n := len(values)
	if n == 0 {
		return 0, 0, 0, 0, 0
	}

	mean, std = stat.MeanStdDev(values, nil)
	if n == 1 || math.IsNaN(std) {
		std = 0
	}

	sorted := slices.Clone(values)
	slices.Sort(sorted)

	p10 = Percentile(sorted, 0.10)
	p50 = Percentile(sorted, 0.50)
	p90 = Percentile(sorted, 0.90)
	return mean, std, p10, p50, p90
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int64("window_start", s.WindowStartFrame),
		slog.Int64("window_end", s.WindowEndFrame),
		slog.Float64("clock", s.ClockSec),
		slog.String("theme", s.Theme),
		slog.Int("entities", s.Entities),
		slog.Int("nodes", s.Nodes),
		slog.Int("edges", s.Edges),
		slog.Float64("strength_mean", s.StrengthMean),
		slog.Float64("strength_std", s.StrengthStd),
		slog.Float64("strength_p50", s.StrengthP50),
		slog.Int("packets_spawned", s.PacketsSpawned),
		slog.Int("packets_completed", s.PacketsCompleted),
		slog.Int("packets_live", s.PacketsLive),
		slog.Float64("highlighted_mean", s.HighlightedMean),
		slog.Int("highlighted_max", s.HighlightedMax),
		slog.Int("pointer_frames", s.PointerFrames),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats",
		"window_end", s.WindowEndFrame,
		"theme", s.Theme,
		"entities", s.Entities,
		"edges", s.Edges,
		"strength_mean", s.StrengthMean,
		"strength_p50", s.StrengthP50,
		"packets_spawned", s.PacketsSpawned,
		"packets_completed", s.PacketsCompleted,
		"packets_live", s.PacketsLive,
		"highlighted_mean", s.HighlightedMean,
		"pointer_frames", s.PointerFrames,
	)
}
