package telemetry

import (
	"log/slog"
	"slices"
	"time"

	"gonum.org/v1/gonum/stat"
)

// Phase names for one engine frame.
const (
	PhaseMotion   = "motion"
	PhaseTopology = "topology"
	PhasePackets  = "packets"
	PhaseRender   = "render"
)

// Phases lists the frame phases in execution order.
var Phases = []string{PhaseMotion, PhaseTopology, PhasePackets, PhaseRender}

// PerfSample holds timing data for a single frame.
type PerfSample struct {
	FrameDuration time.Duration
	Phases        map[string]time.Duration
}

// PerfCollector tracks frame timings over a rolling window.
type PerfCollector struct {
	windowSize    int
	samples       []PerfSample
	writeIndex    int
	sampleCount   int
	currentPhases map[string]time.Duration
	frameStart    time.Time
	phaseStart    time.Time
	lastPhase     string

	// Wall-clock spacing between presented frames.
	lastPresent  time.Time
	presentDelta time.Duration
}

// NewPerfCollector creates a collector averaging over windowSize frames.
func NewPerfCollector(windowSize int) *PerfCollector {
	if windowSize < 1 {
		windowSize = 60
	}
	return &PerfCollector{
		windowSize:    windowSize,
		samples:       make([]PerfSample, windowSize),
		currentPhases: make(map[string]time.Duration),
	}
}

// StartFrame begins timing a new frame.
func (p *PerfCollector) StartFrame() {
	p.frameStart = time.Now()
	p.currentPhases = make(map[string]time.Duration)
	p.lastPhase = ""
}

// StartPhase closes the running phase, if any, and starts timing phase.
func (p *PerfCollector) StartPhase(phase string) {
	now := time.Now()
	if p.lastPhase != "" {
		p.currentPhases[p.lastPhase] += now.Sub(p.phaseStart)
	}
	p.phaseStart = now
	p.lastPhase = phase
}

// EndFrame closes the last phase and records the sample.
func (p *PerfCollector) EndFrame() {
	now := time.Now()
	if p.lastPhase != "" {
		p.currentPhases[p.lastPhase] += now.Sub(p.phaseStart)
	}

	p.samples[p.writeIndex] = PerfSample{
		FrameDuration: now.Sub(p.frameStart),
		Phases:        p.currentPhases,
	}
	p.writeIndex = (p.writeIndex + 1) % p.windowSize
	if p.sampleCount < p.windowSize {
		p.sampleCount++
	}
}

// RecordPresent records the time a frame reached the screen.
func (p *PerfCollector) RecordPresent() {
	now := time.Now()
	if !p.lastPresent.IsZero() {
		p.presentDelta = now.Sub(p.lastPresent)
	}
	p.lastPresent = now
}

// SampleCount returns the number of frames in the window.
func (p *PerfCollector) SampleCount() int {
	return p.sampleCount
}

// PerfStats holds aggregated performance statistics.
type PerfStats struct {
	AvgFrame time.Duration
	MinFrame time.Duration
	MaxFrame time.Duration

	// Empirical frame-time quantiles.
	P50Frame time.Duration
	P90Frame time.Duration
	P99Frame time.Duration

	PhaseAvg map[string]time.Duration
	PhasePct map[string]float64

	FramesPerSecond float64

	PresentDelta time.Duration
	FPS          float64
}

// Stats computes aggregated statistics over the current window.
func (p *PerfCollector) Stats() PerfStats {
	var fps float64
	if p.presentDelta > 0 {
		fps = float64(time.Second) / float64(p.presentDelta)
	}

	out := PerfStats{
		PhaseAvg:     make(map[string]time.Duration),
		PhasePct:     make(map[string]float64),
		PresentDelta: p.presentDelta,
		FPS:          fps,
	}
	if p.sampleCount == 0 {
		return out
	}

	var total time.Duration
	durations := make([]float64, 0, p.sampleCount)
	phaseSum := make(map[string]time.Duration)

	for i := 0; i < p.sampleCount; i++ {
		s := p.samples[i]
		total += s.FrameDuration
		durations = append(durations, float64(s.FrameDuration))

		if i == 0 || s.FrameDuration < out.MinFrame {
			out.MinFrame = s.FrameDuration
		}
		if s.FrameDuration > out.MaxFrame {
			out.MaxFrame = s.FrameDuration
		}
		for phase, dur := range s.Phases {
			phaseSum[phase] += dur
		}
	}

	out.AvgFrame = total / time.Duration(p.sampleCount)

	slices.Sort(durations)
	out.P50Frame = time.Duration(stat.Quantile(0.50, stat.Empirical, durations, nil))
	out.P90Frame = time.Duration(stat.Quantile(0.90, stat.Empirical, durations, nil))
	out.P99Frame = time.Duration(stat.Quantile(0.99, stat.Empirical, durations, nil))

	for phase, sum := range phaseSum {
		out.PhaseAvg[phase] = sum / time.Duration(p.sampleCount)
		if out.AvgFrame > 0 {
			out.PhasePct[phase] = float64(out.PhaseAvg[phase]) / float64(out.AvgFrame) * 100
		}
	}

	if out.AvgFrame > 0 {
		out.FramesPerSecond = float64(time.Second) / float64(out.AvgFrame)
	}
	return out
}

// LogStats logs performance statistics.
func (s PerfStats) LogStats() {
	attrs := []any{
		"avg_frame_us", s.AvgFrame.Microseconds(),
		"p50_frame_us", s.P50Frame.Microseconds(),
		"p99_frame_us", s.P99Frame.Microseconds(),
		"max_frame_us", s.MaxFrame.Microseconds(),
		"frames_per_sec", int(s.FramesPerSecond),
	}
	if s.FPS > 0 {
		attrs = append(attrs, "fps", int(s.FPS))
	}
	for _, phase := range Phases {
		if pct, ok := s.PhasePct[phase]; ok && pct > 0.1 {
			attrs = append(attrs, phase+"_pct", float64(int(pct*10))/10.0)
		}
	}
	slog.Info("perf", attrs...)
}

// LogValue implements slog.LogValuer for structured logging.
func (s PerfStats) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int64("avg_frame_us", s.AvgFrame.Microseconds()),
		slog.Int64("min_frame_us", s.MinFrame.Microseconds()),
		slog.Int64("max_frame_us", s.MaxFrame.Microseconds()),
		slog.Int64("p50_frame_us", s.P50Frame.Microseconds()),
		slog.Int64("p90_frame_us", s.P90Frame.Microseconds()),
		slog.Int64("p99_frame_us", s.P99Frame.Microseconds()),
		slog.Float64("frames_per_sec", s.FramesPerSecond),
	}
	if s.FPS > 0 {
		attrs = append(attrs, slog.Float64("fps", s.FPS))
	}
	for _, phase := range Phases {
		attrs = append(attrs, slog.Float64(phase+"_pct", s.PhasePct[phase]))
	}
	return slog.GroupValue(attrs...)
}

// PerfStatsCSV is a flat struct for CSV export of performance stats.
type PerfStatsCSV struct {
	Frame        int64   `csv:"frame"`
	AvgFrameUS   int64   `csv:"avg_frame_us"`
	MinFrameUS   int64   `csv:"min_frame_us"`
	MaxFrameUS   int64   `csv:"max_frame_us"`
	P50FrameUS   int64   `csv:"p50_frame_us"`
	P90FrameUS   int64   `csv:"p90_frame_us"`
	P99FrameUS   int64   `csv:"p99_frame_us"`
	FramesPerSec float64 `csv:"frames_per_sec"`
	FPS          float64 `csv:"fps"`
	MotionPct    float64 `csv:"motion_pct"`
	TopologyPct  float64 `csv:"topology_pct"`
	PacketsPct   float64 `csv:"packets_pct"`
	RenderPct    float64 `csv:"render_pct"`
}

// ToCSV converts PerfStats to a flat CSV row.
func (s PerfStats) ToCSV(frame int64) PerfStatsCSV {
	return PerfStatsCSV{
		Frame:        frame,
		AvgFrameUS:   s.AvgFrame.Microseconds(),
		MinFrameUS:   s.MinFrame.Microseconds(),
		MaxFrameUS:   s.MaxFrame.Microseconds(),
		P50FrameUS:   s.P50Frame.Microseconds(),
		P90FrameUS:   s.P90Frame.Microseconds(),
		P99FrameUS:   s.P99Frame.Microseconds(),
		FramesPerSec: s.FramesPerSecond,
		FPS:          s.FPS,
		MotionPct:    s.PhasePct[PhaseMotion],
		TopologyPct:  s.PhasePct[PhaseTopology],
		PacketsPct:   s.PhasePct[PhasePackets],
		RenderPct:    s.PhasePct[PhaseRender],
	}
}
