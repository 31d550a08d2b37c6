package systems

import (
	"math/rand"

	"github.com/pthm-cable/ambient/components"
	"github.com/pthm-cable/ambient/config"
)

// defaultPacketSpeed is used when the configured speed range is not positive.
const defaultPacketSpeed = 0.02

// PacketSystem manages data packets travelling along connections.
type PacketSystem struct {
	Packets []components.Packet
	cfg     config.PacketConfig

	// Lifetime counters, read by telemetry
	Spawned   int
	Completed int
	Dropped   int // travelling when their connection dissolved

	edgeSet map[[2]int]struct{}
}

// NewPacketSystem creates a packet system.
func NewPacketSystem(cfg config.PacketConfig) *PacketSystem {
	return &PacketSystem{
		Packets: make([]components.Packet, 0, max(cfg.Max, 0)),
		cfg:     cfg,
		edgeSet: make(map[[2]int]struct{}),
	}
}

// SetSpawnChance overrides the per-frame spawn probability.
func (s *PacketSystem) SetSpawnChance(c float64) {
	s.cfg.SpawnChance = clamp01(c)
}

// SpawnChance returns the per-frame spawn probability.
func (s *PacketSystem) SpawnChance() float64 { return s.cfg.SpawnChance }

// Update advances live packets, removes the ones that arrived or whose
// connection is no longer in edges, then maybe spawns one new packet on a
// random edge. Removal keeps insertion order.
func (s *PacketSystem) Update(edges []components.Connection, rng *rand.Rand) {
	clear(s.edgeSet)
	for _, c := range edges {
		s.edgeSet[[2]int{c.A, c.B}] = struct{}{}
	}

	alive := 0
	for i := range s.Packets {
		pkt := &s.Packets[i]
		if _, ok := s.edgeSet[edgeKey(pkt.From, pkt.To)]; !ok {
			s.Dropped++
			continue
		}
		pkt.Steps++
		if pkt.Done() {
			s.Completed++
			continue
		}
		s.Packets[alive] = s.Packets[i]
		alive++
	}
	s.Packets = s.Packets[:alive]

	if len(edges) == 0 || len(s.Packets) >= s.cfg.Max {
		return
	}
	if rng.Float64() >= s.cfg.SpawnChance {
		return
	}

	c := edges[rng.Intn(len(edges))]
	from, to := c.A, c.B
	if rng.Intn(2) == 1 {
		from, to = to, from
	}
	speed := s.cfg.Speed.Sample(rng)
	if speed <= 0 {
		speed = defaultPacketSpeed
	}
	s.Emit(from, to, speed)
}

// edgeKey orders a packet's endpoints the way Connection stores them.
func edgeKey(from, to int) [2]int {
	if from > to {
		from, to = to, from
	}
	return [2]int{from, to}
}

// Emit adds a packet at progress 0 unless the cap is reached.
func (s *PacketSystem) Emit(from, to int, speed float64) bool {
	if len(s.Packets) >= s.cfg.Max || speed <= 0 {
		return false
	}
	size := s.cfg.Size
	if size <= 0 {
		size = 2
	}
	s.Packets = append(s.Packets, components.Packet{From: from, To: to, Speed: speed, Size: size})
	s.Spawned++
	return true
}

// PacketPosition interpolates a packet between the current positions of its
// endpoints. ok is false when an endpoint index is out of range.
func PacketPosition(p *Pool, pkt *components.Packet) (pos components.Position, ok bool) {
	n := p.NodeCount()
	if pkt.From < 0 || pkt.From >= n || pkt.To < 0 || pkt.To >= n {
		return pos, false
	}
	a := p.NodePosition(pkt.From)
	b := p.NodePosition(pkt.To)
	t := pkt.Progress()
	return components.Position{X: a.X + (b.X-a.X)*t, Y: a.Y + (b.Y-a.Y)*t}, true
}

// Count returns the number of live packets.
func (s *PacketSystem) Count() int {
	return len(s.Packets)
}

// Reset drops all live packets.
func (s *PacketSystem) Reset() {
	s.Packets = s.Packets[:0]
}
