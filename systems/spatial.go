// Package systems provides the simulation systems that advance the entity pool.
package systems

// SpatialGrid buckets point indices into square cells for neighbor lookups.
// Positions outside the covered area are clamped into the border cells, so
// entities sitting in a wrap margin still find their neighbors.
type SpatialGrid struct {
	cellSize float64
	radius   float64 // requested query radius

	cols     int
	rows     int
	width    float64
	height   float64
	cells    [][]int // flat grid of point indices
}

// maxGridSide caps the cells per axis. Larger surfaces get coarser cells.
const maxGridSide = 256

// NewSpatialGrid creates a spatial grid covering the given surface size.
// Cells are at least cellSize wide, so ForEachNear with that radius stays
// exact however large the surface is.
func NewSpatialGrid(width, height, cellSize float64) *SpatialGrid {
	radius := cellSize
	cellSize = max(cellSize, width/maxGridSide, height/maxGridSide)
	cols := int(width/cellSize) + 1
	rows := int(height/cellSize) + 1

	cells := make([][]int, cols*rows)
	for i := range cells {
		cells[i] = make([]int, 0, 8)
	}

	return &SpatialGrid{
		cellSize: cellSize,
		radius:   radius,
		cols:     cols,
		rows:     rows,
		width:    width,
		height:   height,
		cells:    cells,
	}
}

// Matches reports whether the grid was built for the given geometry.
func (g *SpatialGrid) Matches(width, height, cellSize float64) bool {
	return g.width == width && g.height == height && g.radius == cellSize
}

// Clear removes all points from the grid.
func (g *SpatialGrid) Clear() {
	for i := range g.cells {
		g.cells[i] = g.cells[i][:0]
	}
}

// Insert adds point index i at the given position.
func (g *SpatialGrid) Insert(i int, x, y float64) {
	col, row := g.cell(x, y)
	idx := row*g.cols + col
	g.cells[idx] = append(g.cells[idx], i)
}

// ForEachNear calls fn for every point index stored in the 3x3 block of
// cells around (x, y). This covers every point within the radius the grid
// was built for.
func (g *SpatialGrid) ForEachNear(x, y float64, fn func(i int)) {
	col, row := g.cell(x, y)
	for dr := -1; dr <= 1; dr++ {
		r := row + dr
		if r < 0 || r >= g.rows {
			continue
		}
		for dc := -1; dc <= 1; dc++ {
			c := col + dc
			if c < 0 || c >= g.cols {
				continue
			}
			for _, i := range g.cells[r*g.cols+c] {
				fn(i)
			}
		}
	}
}

// cell returns the clamped cell coordinates for a position.
func (g *SpatialGrid) cell(x, y float64) (col, row int) {
	col = int(x / g.cellSize)
	row = int(y / g.cellSize)

	// Clamp to valid range
	if col < 0 {
		col = 0
	} else if col >= g.cols {
		col = g.cols - 1
	}
	if row < 0 {
		row = 0
	} else if row >= g.rows {
		row = g.rows - 1
	}
	return col, row
}
