package algo

import "github.com/elektrokombinacija/warehouse-mapf/internal/core"

// Unreachable marks cells a distance table cannot reach.
const Unreachable = 1 << 30

// DistanceTable holds exact wall-aware shortest distances to a single goal
// cell, precomputed by BFS. It is an admissible and consistent heuristic for
// any entity that has to end on the goal cell.
type DistanceTable struct {
	goal core.Cell
	cols int
	dist []int
}

// NewDistanceTable runs a BFS from goal over the grid. Cells in extraWalls
// are treated as blocked in addition to the grid's wall mask.
func NewDistanceTable(g *core.Grid, goal core.Cell, extraWalls map[core.Cell]bool) *DistanceTable {
	dt := &DistanceTable{
		goal: goal,
		cols: g.Cols(),
		dist: make([]int, g.Rows()*g.Cols()),
	}
	for i := range dt.dist {
		dt.dist[i] = Unreachable
	}
	if !g.Free(goal) || extraWalls[goal] {
		return dt
	}
	dt.dist[goal.R*dt.cols+goal.C] = 0

	queue := []core.Cell{goal}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		next := dt.dist[cur.R*dt.cols+cur.C] + 1
		for _, d := range core.Directions {
			n := cur.Add(d.Delta())
			if !g.Free(n) || extraWalls[n] {
				continue
			}
			idx := n.R*dt.cols + n.C
			if dt.dist[idx] > next {
				dt.dist[idx] = next
				queue = append(queue, n)
			}
		}
	}
	return dt
}

// Dist returns the shortest wall-aware distance from c to the goal, or
// Unreachable.
func (dt *DistanceTable) Dist(c core.Cell) int {
	return dt.dist[c.R*dt.cols+c.C]
}

// Goal returns the table's goal cell.
func (dt *DistanceTable) Goal() core.Cell { return dt.goal }
