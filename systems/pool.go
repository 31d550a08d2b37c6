package systems

import (
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/ambient/components"
)

// Pool is the entity pool: an ECS world plus the insertion order that the
// simulation step follows. Entities live until Release.
type Pool struct {
	world *ecs.World

	mapper *ecs.Map6[
		components.Position,
		components.Velocity,
		components.Style,
		components.Pulse,
		components.Motion,
		components.Highlight,
	]
	highlightFilter *ecs.Filter1[components.Highlight]

	posMap       *ecs.Map1[components.Position]
	velMap       *ecs.Map1[components.Velocity]
	styleMap     *ecs.Map1[components.Style]
	pulseMap     *ecs.Map1[components.Pulse]
	motionMap    *ecs.Map1[components.Motion]
	highlightMap *ecs.Map1[components.Highlight]
	trailMap     *ecs.Map1[components.Trail]
	waveMap      *ecs.Map1[components.Wave]
	riderMap     *ecs.Map1[components.Rider]
	glyphMap     *ecs.Map1[components.Glyph]
	typingMap    *ecs.Map1[components.TypedText]
	nodeMap      *ecs.Map1[components.Node]

	order []ecs.Entity // insertion order
	nodes []ecs.Entity // topology participants, indexed by Node.Index
	waves []ecs.Entity // signal waves, indexed by Rider.Wave
}

// NewPool creates an empty pool.
func NewPool() *Pool {
	world := ecs.NewWorld()

	return &Pool{
		world: world,
		mapper: ecs.NewMap6[
			components.Position,
			components.Velocity,
			components.Style,
			components.Pulse,
			components.Motion,
			components.Highlight,
		](world),
		highlightFilter: ecs.NewFilter1[components.Highlight](world),
		posMap:          ecs.NewMap1[components.Position](world),
		velMap:          ecs.NewMap1[components.Velocity](world),
		styleMap:        ecs.NewMap1[components.Style](world),
		pulseMap:        ecs.NewMap1[components.Pulse](world),
		motionMap:       ecs.NewMap1[components.Motion](world),
		highlightMap:    ecs.NewMap1[components.Highlight](world),
		trailMap:        ecs.NewMap1[components.Trail](world),
		waveMap:         ecs.NewMap1[components.Wave](world),
		riderMap:        ecs.NewMap1[components.Rider](world),
		glyphMap:        ecs.NewMap1[components.Glyph](world),
		typingMap:       ecs.NewMap1[components.TypedText](world),
		nodeMap:         ecs.NewMap1[components.Node](world),
	}
}

// Spawn creates an entity with the common components and records it in
// insertion order.
func (p *Pool) Spawn(pos components.Position, vel components.Velocity, style components.Style, pulse components.Pulse, motion components.Motion) ecs.Entity {
	hl := components.Highlight{}
	e := p.mapper.NewEntity(&pos, &vel, &style, &pulse, &motion, &hl)
	p.order = append(p.order, e)
	return e
}

// AddTrail attaches an empty trail of the given capacity.
func (p *Pool) AddTrail(e ecs.Entity, capacity int) {
	if capacity <= 0 {
		return
	}
	tr := components.NewTrail(capacity)
	p.trailMap.Add(e, &tr)
}

// AddWave attaches a wave payload and registers the wave for riders.
func (p *Pool) AddWave(e ecs.Entity, w components.Wave) int {
	p.waveMap.Add(e, &w)
	p.waves = append(p.waves, e)
	return len(p.waves) - 1
}

// AddRider binds e to wave index wave.
func (p *Pool) AddRider(e ecs.Entity, wave int) {
	r := components.Rider{Wave: wave}
	p.riderMap.Add(e, &r)
}

// AddGlyph attaches a glyph payload.
func (p *Pool) AddGlyph(e ecs.Entity, g components.Glyph) {
	p.glyphMap.Add(e, &g)
}

// AddTyping attaches a typed-text payload.
func (p *Pool) AddTyping(e ecs.Entity, t components.TypedText) {
	p.typingMap.Add(e, &t)
}

// AddNode registers e as a topology node and assigns its index.
func (p *Pool) AddNode(e ecs.Entity, n components.Node) int {
	n.Index = len(p.nodes)
	p.nodeMap.Add(e, &n)
	p.nodes = append(p.nodes, e)
	return n.Index
}

// Len returns the number of entities.
func (p *Pool) Len() int { return len(p.order) }

// Order returns entities in insertion order. The slice must not be modified.
func (p *Pool) Order() []ecs.Entity { return p.order }

// Nodes returns topology nodes by index. The slice must not be modified.
func (p *Pool) Nodes() []ecs.Entity { return p.nodes }

// NodeCount returns the number of topology nodes.
func (p *Pool) NodeCount() int { return len(p.nodes) }

// NodePosition returns the current position of node i.
func (p *Pool) NodePosition(i int) components.Position {
	return *p.posMap.Get(p.nodes[i])
}

// NodePositions appends the current node positions to dst.
func (p *Pool) NodePositions(dst []components.Position) []components.Position {
	for _, e := range p.nodes {
		dst = append(dst, *p.posMap.Get(e))
	}
	return dst
}

// WaveAt returns wave i, or nil when out of range.
func (p *Pool) WaveAt(i int) *components.Wave {
	if i < 0 || i >= len(p.waves) {
		return nil
	}
	return p.waveMap.Get(p.waves[i])
}

// WaveCount returns the number of signal waves.
func (p *Pool) WaveCount() int { return len(p.waves) }

// Component accessors. Optional payloads return nil when absent.

func (p *Pool) Position(e ecs.Entity) *components.Position   { return p.posMap.Get(e) }
func (p *Pool) Velocity(e ecs.Entity) *components.Velocity   { return p.velMap.Get(e) }
func (p *Pool) Style(e ecs.Entity) *components.Style         { return p.styleMap.Get(e) }
func (p *Pool) Pulse(e ecs.Entity) *components.Pulse         { return p.pulseMap.Get(e) }
func (p *Pool) Motion(e ecs.Entity) *components.Motion       { return p.motionMap.Get(e) }
func (p *Pool) Highlight(e ecs.Entity) *components.Highlight { return p.highlightMap.Get(e) }

func (p *Pool) Trail(e ecs.Entity) *components.Trail {
	if !p.trailMap.HasAll(e) {
		return nil
	}
	return p.trailMap.Get(e)
}

func (p *Pool) Wave(e ecs.Entity) *components.Wave {
	if !p.waveMap.HasAll(e) {
		return nil
	}
	return p.waveMap.Get(e)
}

func (p *Pool) Rider(e ecs.Entity) *components.Rider {
	if !p.riderMap.HasAll(e) {
		return nil
	}
	return p.riderMap.Get(e)
}

func (p *Pool) Glyph(e ecs.Entity) *components.Glyph {
	if !p.glyphMap.HasAll(e) {
		return nil
	}
	return p.glyphMap.Get(e)
}

func (p *Pool) Typing(e ecs.Entity) *components.TypedText {
	if !p.typingMap.HasAll(e) {
		return nil
	}
	return p.typingMap.Get(e)
}

func (p *Pool) Node(e ecs.Entity) *components.Node {
	if !p.nodeMap.HasAll(e) {
		return nil
	}
	return p.nodeMap.Get(e)
}

// HighlightedCount returns how many entities the pointer currently lights up.
func (p *Pool) HighlightedCount() int {
	n := 0
	query := p.highlightFilter.Query()
	for query.Next() {
		hl := query.Get()
		if hl.Intensity > 0 {
			n++
		}
	}
	return n
}

// Release drops every entity. The pool is empty afterwards.
func (p *Pool) Release() {
	for _, e := range p.order {
		p.world.RemoveEntity(e)
	}
	p.order = nil
	p.nodes = nil
	p.waves = nil
}
