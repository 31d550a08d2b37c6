package systems

import (
	"math"

	"github.com/ojrac/opensimplex-go"

	"github.com/pthm-cable/ambient/components"
)

// DriftField produces the cosmetic oscillation added on top of integrated
// motion. It never feeds back into velocity.
type DriftField struct {
	noise opensimplex.Noise
}

// NewDriftField creates a drift field with a seeded noise source.
func NewDriftField(seed int64) *DriftField {
	return &DriftField{noise: opensimplex.New(seed)}
}

// Offset returns the drift displacement for one tick of length dt.
// Sine drift follows the entity's pulse phase; noise drift samples a
// time-evolving OpenSimplex field at the entity's position.
func (f *DriftField) Offset(m *components.Motion, pos components.Position, phase, t, dt float64) (dx, dy float64) {
	if m.DriftAmplitude == 0 {
		return 0, 0
	}
	switch m.Drift {
	case components.DriftSine:
		return math.Cos(phase) * m.DriftAmplitude * dt, math.Sin(phase*0.5) * m.DriftAmplitude * dt
	case components.DriftNoise:
		scale := m.DriftScale
		if scale == 0 {
			scale = 0.005
		}
		angle := f.noise.Eval3(pos.X*scale, pos.Y*scale, t*m.DriftSpeed) * twoPi
		return math.Cos(angle) * m.DriftAmplitude * dt, math.Sin(angle) * m.DriftAmplitude * dt
	}
	return 0, 0
}
