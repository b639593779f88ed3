package core

// Grid is the static level geometry: a bounded rectangle with a wall mask.
// Grids are immutable once the level is built; searchers share one instance.
type Grid struct {
	rows, cols int
	walls      []bool // row-major
}

// NewGrid creates an empty grid with the given dimensions.
func NewGrid(rows, cols int) *Grid {
	return &Grid{
		rows:  rows,
		cols:  cols,
		walls: make([]bool, rows*cols),
	}
}

// Rows returns the number of rows.
func (g *Grid) Rows() int { return g.rows }

// Cols returns the number of columns.
func (g *Grid) Cols() int { return g.cols }

// InBounds reports whether c lies within the grid.
func (g *Grid) InBounds(c Cell) bool {
	return c.R >= 0 && c.R < g.rows && c.C >= 0 && c.C < g.cols
}

// Wall reports whether c is a wall. Out-of-bounds cells count as walls.
func (g *Grid) Wall(c Cell) bool {
	if !g.InBounds(c) {
		return true
	}
	return g.walls[c.R*g.cols+c.C]
}

// SetWall marks c as a wall. Only the level builder calls this; the grid is
// treated as read-only afterwards.
func (g *Grid) SetWall(c Cell) {
	if g.InBounds(c) {
		g.walls[c.R*g.cols+c.C] = true
	}
}

// Free reports whether c is inside the grid and not a wall.
func (g *Grid) Free(c Cell) bool {
	return g.InBounds(c) && !g.Wall(c)
}

// Neighbors returns the free 4-connected neighbors of c in direction order.
func (g *Grid) Neighbors(c Cell) []Cell {
	out := make([]Cell, 0, 4)
	for _, d := range Directions {
		n := c.Add(d.Delta())
		if g.Free(n) {
			out = append(out, n)
		}
	}
	return out
}
