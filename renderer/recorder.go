package renderer

import "github.com/pthm-cable/ambient/components"

// OpKind names a recorded canvas call.
type OpKind uint8

const (
	OpGradient OpKind = iota
	OpRect
	OpCircle
	OpRing
	OpLine
	OpPolyline
	OpText
)

// Op is one recorded canvas call.
type Op struct {
	Kind  OpKind
	Layer Layer
	X, Y  float64
	Color Color
	Text  string
	Stops []GradientStop
}

// Recorder is a Canvas that records calls instead of drawing. It is used by
// tests and for counting draw calls in telemetry.
type Recorder struct {
	W, H  float64
	Ops   []Op
	layer Layer
}

// NewRecorder creates a recorder reporting the given size.
func NewRecorder(w, h float64) *Recorder {
	return &Recorder{W: w, H: h}
}

// Reset drops recorded ops.
func (r *Recorder) Reset() {
	r.Ops = r.Ops[:0]
	r.layer = LayerBackground
}

// Count returns the number of recorded ops of the given kind.
func (r *Recorder) Count(kind OpKind) int {
	n := 0
	for _, op := range r.Ops {
		if op.Kind == kind {
			n++
		}
	}
	return n
}

func (r *Recorder) BeginLayer(l Layer) { r.layer = l }

func (r *Recorder) Size() (float64, float64) { return r.W, r.H }

func (r *Recorder) record(op Op) {
	op.Layer = r.layer
	r.Ops = append(r.Ops, op)
}

func (r *Recorder) FillGradient(x0, y0, x1, y1 float64, stops []GradientStop) {
	r.record(Op{Kind: OpGradient, X: x0, Y: y0, Stops: append([]GradientStop(nil), stops...)})
}

func (r *Recorder) FillRect(x, y, w, h float64, c Color) {
	r.record(Op{Kind: OpRect, X: x, Y: y, Color: c})
}

func (r *Recorder) FillCircle(x, y, rad float64, c Color) {
	r.record(Op{Kind: OpCircle, X: x, Y: y, Color: c})
}

func (r *Recorder) StrokeCircle(x, y, rad, width float64, c Color) {
	r.record(Op{Kind: OpRing, X: x, Y: y, Color: c})
}

func (r *Recorder) Line(x0, y0, x1, y1, width float64, c Color) {
	r.record(Op{Kind: OpLine, X: x0, Y: y0, Color: c})
}

func (r *Recorder) Polyline(pts []components.Position, width float64, c Color) {
	op := Op{Kind: OpPolyline, Color: c}
	if len(pts) > 0 {
		op.X, op.Y = pts[0].X, pts[0].Y
	}
	r.record(op)
}

func (r *Recorder) Text(s string, x, y, size, rotation float64, c Color) {
	r.record(Op{Kind: OpText, X: x, Y: y, Color: c, Text: s})
}
