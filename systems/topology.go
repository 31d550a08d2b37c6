package systems

import (
	"math"
	"math/rand"
	"slices"

	"gonum.org/v1/gonum/spatial/kdtree"

	"github.com/pthm-cable/ambient/components"
	"github.com/pthm-cable/ambient/config"
)

// Strategy selects how connections are built.
type Strategy uint8

const (
	StrategyNone        Strategy = iota
	StrategyProximity            // pairs within a cutoff, refreshed every frame
	StrategyFixedDegree          // k nearest plus random peers, built once at seed
)

// ParseStrategy maps a config name to a Strategy.
func ParseStrategy(s string) Strategy {
	switch s {
	case "proximity":
		return StrategyProximity
	case "fixed_degree":
		return StrategyFixedDegree
	}
	return StrategyNone
}

// Topology maintains the connection graph between pool nodes.
type Topology struct {
	strategy  Strategy
	cutoff    float64
	neighbors int
	longRange int

	edges []components.Connection
	grid  *SpatialGrid
	pts   []components.Position
}

// NewTopology creates a topology builder from config.
func NewTopology(cfg config.TopologyConfig) *Topology {
	return &Topology{
		strategy:  ParseStrategy(cfg.Strategy),
		cutoff:    cfg.Cutoff,
		neighbors: cfg.Neighbors,
		longRange: cfg.LongRange,
	}
}

// Strategy returns the configured strategy.
func (t *Topology) Strategy() Strategy { return t.strategy }

// Cutoff returns the proximity cutoff distance.
func (t *Topology) Cutoff() float64 { return t.cutoff }

// SetCutoff changes the proximity cutoff used by later refreshes.
func (t *Topology) SetCutoff(d float64) {
	if d > 0 && finite(d) {
		t.cutoff = d
	}
}

// Edges returns the current connections. The slice must not be modified.
func (t *Topology) Edges() []components.Connection { return t.edges }

// Build computes the initial graph at seed time. Fixed-degree graphs are
// built here once and kept; proximity graphs get their first refresh.
func (t *Topology) Build(p *Pool, b Bounds, rng *rand.Rand) []components.Connection {
	switch t.strategy {
	case StrategyFixedDegree:
		t.pts = p.NodePositions(t.pts[:0])
		importance := make([]float64, len(t.pts))
		for i, e := range p.Nodes() {
			importance[i] = p.Node(e).Importance
		}
		t.edges = FixedDegree(t.pts, importance, t.neighbors, t.longRange, rng)
	default:
		t.Refresh(p, b)
	}
	return t.edges
}

// Refresh recomputes proximity edges from current positions. Fixed-degree
// and empty topologies are returned unchanged.
func (t *Topology) Refresh(p *Pool, b Bounds) []components.Connection {
	if t.strategy != StrategyProximity || t.cutoff <= 0 {
		return t.edges
	}
	if t.grid == nil || !t.grid.Matches(b.Width, b.Height, t.cutoff) {
		t.grid = NewSpatialGrid(b.Width, b.Height, t.cutoff)
	}
	t.pts = p.NodePositions(t.pts[:0])
	t.edges = Proximity(t.pts, t.cutoff, t.grid, t.edges[:0])
	return t.edges
}

// ProximityStrength is 1 - d/cutoff inside the cutoff and 0 at or beyond it.
func ProximityStrength(d, cutoff float64) float64 {
	if cutoff <= 0 || d >= cutoff {
		return 0
	}
	return clamp01(1 - d/cutoff)
}

// Proximity appends an edge for every unordered pair closer than cutoff,
// ordered by (A, B). The grid must use cutoff as its cell size; its contents
// are replaced.
func Proximity(pts []components.Position, cutoff float64, grid *SpatialGrid, dst []components.Connection) []components.Connection {
	grid.Clear()
	for i, pt := range pts {
		grid.Insert(i, pt.X, pt.Y)
	}

	cutSq := cutoff * cutoff
	start := len(dst)
	for i, a := range pts {
		grid.ForEachNear(a.X, a.Y, func(j int) {
			if j <= i {
				return
			}
			b := pts[j]
			dSq := distanceSq(a.X, a.Y, b.X, b.Y)
			if dSq >= cutSq {
				return
			}
			dst = append(dst, components.Connection{A: i, B: j, Strength: ProximityStrength(math.Sqrt(dSq), cutoff)})
		})
	}
	sortConnections(dst[start:])
	return dst
}

// nodePoint is a kd-tree point that remembers its node index, since the
// tree reorders its input while building.
type nodePoint struct {
	X, Y  float64
	Index int
}

func (p nodePoint) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	q := c.(nodePoint)
	if d == 0 {
		return p.X - q.X
	}
	return p.Y - q.Y
}

func (p nodePoint) Dims() int { return 2 }

func (p nodePoint) Distance(c kdtree.Comparable) float64 {
	q := c.(nodePoint)
	return distanceSq(p.X, p.Y, q.X, q.Y)
}

// nodePoints implements kdtree.Interface.
type nodePoints []nodePoint

func (p nodePoints) Index(i int) kdtree.Comparable         { return p[i] }
func (p nodePoints) Len() int                              { return len(p) }
func (p nodePoints) Pivot(d kdtree.Dim) int                { return nodePlane{nodePoints: p, Dim: d}.Pivot() }
func (p nodePoints) Slice(start, end int) kdtree.Interface { return p[start:end] }

// nodePlane implements kdtree.SortSlicer along one dimension.
type nodePlane struct {
	kdtree.Dim
	nodePoints
}

func (p nodePlane) Less(i, j int) bool {
	if p.Dim == 0 {
		return p.nodePoints[i].X < p.nodePoints[j].X
	}
	return p.nodePoints[i].Y < p.nodePoints[j].Y
}
func (p nodePlane) Pivot() int { return kdtree.Partition(p, kdtree.MedianOfMedians(p)) }
func (p nodePlane) Slice(start, end int) kdtree.SortSlicer {
	p.nodePoints = p.nodePoints[start:end]
	return p
}
func (p nodePlane) Swap(i, j int) {
	p.nodePoints[i], p.nodePoints[j] = p.nodePoints[j], p.nodePoints[i]
}

// FixedDegree links every node to its k nearest neighbors plus longRange
// random peers, then joins any disconnected components through their
// closest pair so the graph is globally reachable. Strength mixes distance
// relative to the longest edge with the endpoints' mean importance.
func FixedDegree(pts []components.Position, importance []float64, k, longRange int, rng *rand.Rand) []components.Connection {
	n := len(pts)
	if n < 2 {
		return nil
	}
	k = min(max(k, 1), n-1)

	points := make(nodePoints, n)
	for i, pt := range pts {
		points[i] = nodePoint{X: pt.X, Y: pt.Y, Index: i}
	}
	// New reorders its argument; keep the original order for queries
	tree := kdtree.New(slices.Clone(points), false)

	seen := make(map[[2]int]bool, n*(k+longRange))
	var pairs [][2]int
	link := func(a, b int) {
		if a == b {
			return
		}
		if a > b {
			a, b = b, a
		}
		key := [2]int{a, b}
		if seen[key] {
			return
		}
		seen[key] = true
		pairs = append(pairs, key)
	}

	for _, q := range points {
		// One extra slot because the query point finds itself
		keep := kdtree.NewNKeeper(k + 1)
		tree.NearestSet(keep, q)
		for _, c := range keep.Heap {
			if c.Comparable == nil {
				continue
			}
			link(q.Index, c.Comparable.(nodePoint).Index)
		}
	}

	if rng != nil {
		for i := 0; i < n; i++ {
			for j := 0; j < longRange; j++ {
				link(i, rng.Intn(n))
			}
		}
	}

	for _, extra := range bridgeComponents(pts, pairs) {
		link(extra[0], extra[1])
	}

	longest := 0.0
	for _, pr := range pairs {
		longest = math.Max(longest, distance(pts[pr[0]].X, pts[pr[0]].Y, pts[pr[1]].X, pts[pr[1]].Y))
	}

	edges := make([]components.Connection, len(pairs))
	for i, pr := range pairs {
		d := distance(pts[pr[0]].X, pts[pr[0]].Y, pts[pr[1]].X, pts[pr[1]].Y)
		closeness := 1.0
		if longest > 0 {
			closeness = 1 - d/longest
		}
		imp := 0.5
		if len(importance) == n {
			imp = (importance[pr[0]] + importance[pr[1]]) / 2
		}
		edges[i] = components.Connection{A: pr[0], B: pr[1], Strength: clamp01(0.5*closeness + 0.5*imp)}
	}
	sortConnections(edges)
	return edges
}

// bridgeComponents returns the extra pairs needed to connect every
// component, each joining a component to the nearest node already reached.
func bridgeComponents(pts []components.Position, pairs [][2]int) [][2]int {
	n := len(pts)
	parent := make([]int, n)
	for i := range parent {
		parent[i] = i
	}
	find := func(i int) int {
		for parent[i] != i {
			parent[i] = parent[parent[i]]
			i = parent[i]
		}
		return i
	}
	for _, pr := range pairs {
		parent[find(pr[0])] = find(pr[1])
	}

	var extra [][2]int
	for {
		root := find(0)
		bestD := math.Inf(1)
		best := [2]int{-1, -1}
		for i := 0; i < n; i++ {
			if find(i) != root {
				continue
			}
			for j := 0; j < n; j++ {
				if find(j) == root {
					continue
				}
				d := distanceSq(pts[i].X, pts[i].Y, pts[j].X, pts[j].Y)
				if d < bestD {
					bestD, best = d, [2]int{i, j}
				}
			}
		}
		if best[0] < 0 {
			return extra
		}
		extra = append(extra, best)
		parent[find(best[1])] = root
	}
}

func sortConnections(edges []components.Connection) {
	slices.SortFunc(edges, func(a, b components.Connection) int {
		if a.A != b.A {
			return a.A - b.A
		}
		return a.B - b.B
	})
}
