package components

import "math"

// Wave is the payload of a signal wave: a sine trace across the surface.
type Wave struct {
	Baseline    float64 // y of the trace centre line
	Amplitude   float64
	Frequency   float64 // radians per pixel
	Phase       float64 // radians in [0, 2π)
	Speed       float64 // phase advance per tick
	Thickness   float64
	SparkChance float64 // per-frame chance of a spark overlay
}

// Y returns the trace height at x.
func (w *Wave) Y(x float64) float64 {
	return w.Baseline + math.Sin(x*w.Frequency+w.Phase)*w.Amplitude
}

// Rider binds a flow point to the wave it travels along.
type Rider struct {
	Wave int // index into the pool's wave list, -1 when unbound
}

// Glyph is the payload of a floating glyph.
type Glyph struct {
	Symbol    string
	Symbols   []string // set the symbol is reshuffled from
	Rotation  float64  // radians in [0, 2π)
	Spin      float64  // radians per tick
	Reshuffle float64  // per-tick chance of a new symbol
}

// TypingState is the phase of a typed line.
type TypingState uint8

const (
	Typing TypingState = iota
	Holding
	Erasing
)

// String returns a display name.
func (s TypingState) String() string {
	switch s {
	case Typing:
		return "typing"
	case Holding:
		return "holding"
	case Erasing:
		return "erasing"
	}
	return "unknown"
}

// TypedText is the payload of a typed line.
type TypedText struct {
	Lines   []string
	Line    int // index of the current line
	Visible int // runes currently shown
	State   TypingState
	Ticks   int // ticks spent in the current character or hold

	TicksPerChar      int
	HoldTicks         int
	EraseTicksPerChar int
}

// Current returns the full text of the current line.
func (t *TypedText) Current() string {
	if len(t.Lines) == 0 {
		return ""
	}
	return t.Lines[t.Line%len(t.Lines)]
}

// Text returns the visible prefix of the current line.
func (t *TypedText) Text() string {
	r := []rune(t.Current())
	if t.Visible > len(r) {
		return string(r)
	}
	return string(r[:t.Visible])
}

// Tier ranks graph nodes. Primary nodes are larger and carry labels.
type Tier uint8

const (
	TierPrimary Tier = iota
	TierSecondary
	TierData
)

// Node marks an entity that takes part in the topology.
type Node struct {
	Index      int // position in the pool's node list, the id used by Connection
	Tier       Tier
	Importance float64 // in [0, 1]
	Label      string
}

// Connection is an undirected edge between two node indices, with A < B.
type Connection struct {
	A, B     int
	Strength float64 // in [0, 1]
}

// Packet is an ephemeral transfer travelling along a connection.
type Packet struct {
	From, To int     // node indices, direction of travel
	Start    float64 // progress at spawn
	Speed    float64 // progress per step
	Steps    int     // steps taken since spawn
	Size     float64
}

// Progress returns the travelled fraction in [0, 1]. It is derived from the
// step count so a packet finishes after exactly ceil((1-Start)/Speed) steps.
func (p *Packet) Progress() float64 {
	v := p.Start + float64(p.Steps)*p.Speed
	if v > 1 {
		return 1
	}
	return v
}

// Done reports whether the packet has reached its target.
func (p *Packet) Done() bool {
	return p.Start+float64(p.Steps)*p.Speed >= 1-1e-9
}
