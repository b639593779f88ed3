package algo

import (
	"sort"

	"github.com/elektrokombinacija/warehouse-mapf/internal/core"
)

// detector scans a joint solution for pairwise conflicts. Box positions are
// reconstructed by replaying each agent's actions against the level's
// initial box placements; a box move is attributed to the pushing or pulling
// agent, and a resting box to its assigned owner.
type detector struct {
	level  *core.Level
	owners map[core.BoxIndex]core.AgentID
}

// FindConflicts enumerates all pairwise conflicts in the joint solution
// under the virtual-tail convention. The result is deterministic for a
// fixed routes map.
func FindConflicts(level *core.Level, routes map[core.AgentID]*Route, owners map[core.BoxIndex]core.AgentID) []Conflict {
	d := &detector{level: level, owners: owners}
	return d.scan(routes)
}

func (d *detector) scan(routes map[core.AgentID]*Route) []Conflict {
	agents := sortedAgentIDs(routes)
	maxT := 0
	for _, r := range routes {
		if len(r.Path) > 0 && r.Path[len(r.Path)-1].Time > maxT {
			maxT = r.Path[len(r.Path)-1].Time
		}
	}

	boxPos, mover := d.replayBoxes(agents, routes, maxT)

	var conflicts []Conflict
	emit := func(c Conflict) { conflicts = append(conflicts, c) }

	for t := 0; t <= maxT; t++ {
		d.vertexConflicts(agents, routes, boxPos, mover, t, emit)
		if t < maxT {
			d.transitionConflicts(agents, routes, boxPos, mover, t, emit)
		}
	}
	return conflicts
}

// replayBoxes computes every box's cell at each time step and, for steps
// where a box moved, the agent that moved it.
func (d *detector) replayBoxes(agents []core.AgentID, routes map[core.AgentID]*Route, maxT int) ([][]core.Cell, [][]core.AgentID) {
	nBoxes := len(d.level.Boxes)
	boxPos := make([][]core.Cell, maxT+1)
	mover := make([][]core.AgentID, maxT+1)

	boxPos[0] = make([]core.Cell, nBoxes)
	mover[0] = make([]core.AgentID, nBoxes)
	for i, b := range d.level.Boxes {
		boxPos[0][i] = b.Start
	}

	for t := 0; t < maxT; t++ {
		cur := make([]core.Cell, nBoxes)
		copy(cur, boxPos[t])
		mv := make([]core.AgentID, nBoxes)

		for _, id := range agents {
			r := routes[id]
			act := actionAt(r, t)
			if act.Type != core.ActionPush && act.Type != core.ActionPull {
				continue
			}
			agentPos := r.Path.LocationAt(t)
			var from core.Cell
			if act.Type == core.ActionPush {
				from = agentPos.Add(act.AgentDelta)
			} else {
				from = agentPos.Sub(act.BoxDelta)
			}
			agent, _ := d.level.AgentByID(id)
			bi := d.boxIndexAt(boxPos[t], from, agent.Color)
			if bi < 0 {
				continue
			}
			if act.Type == core.ActionPush {
				cur[bi] = from.Add(act.BoxDelta)
			} else {
				cur[bi] = agentPos
			}
			mv[bi] = id
		}
		boxPos[t+1] = cur
		mover[t+1] = mv
	}
	return boxPos, mover
}

func (d *detector) boxIndexAt(positions []core.Cell, cell core.Cell, color core.Color) int {
	for i, p := range positions {
		if p == cell && d.level.Boxes[i].Color == color {
			return i
		}
	}
	return -1
}

// attributed returns the agent answering for a box at time t: the mover when
// the box just moved, otherwise its assigned owner. ok is false for boxes
// nobody can move.
func (d *detector) attributed(mover [][]core.AgentID, bi, t int) (core.AgentID, bool) {
	if t >= 0 && t < len(mover) && mover[t][bi] != 0 {
		return mover[t][bi], true
	}
	owner, ok := d.owners[core.BoxIndex(bi)]
	return owner, ok
}

func (d *detector) vertexConflicts(agents []core.AgentID, routes map[core.AgentID]*Route,
	boxPos [][]core.Cell, mover [][]core.AgentID, t int, emit func(Conflict)) {

	// Agent-agent.
	for i := 0; i < len(agents); i++ {
		for j := i + 1; j < len(agents); j++ {
			pi := routes[agents[i]].Path.LocationAt(t)
			pj := routes[agents[j]].Path.LocationAt(t)
			if pi == pj {
				emit(Conflict{Kind: ConflictVertex, A1: agents[i], A2: agents[j], Cell: pi, Time: t})
			}
		}
	}

	// Box-box.
	for i := 0; i < len(boxPos[t]); i++ {
		for j := i + 1; j < len(boxPos[t]); j++ {
			if boxPos[t][i] != boxPos[t][j] {
				continue
			}
			ai, ok1 := d.attributed(mover, i, t)
			aj, ok2 := d.attributed(mover, j, t)
			if ok1 && ok2 && ai != aj {
				emit(Conflict{Kind: ConflictBoxBox, A1: ai, A2: aj, Cell: boxPos[t][i], Time: t})
			}
		}
	}

	// Agent-box.
	for _, id := range agents {
		p := routes[id].Path.LocationAt(t)
		for bi := range boxPos[t] {
			if boxPos[t][bi] != p {
				continue
			}
			m, ok := d.attributed(mover, bi, t)
			if ok && m != id {
				emit(Conflict{Kind: ConflictAgentBox, A1: id, A2: m, Cell: p, Time: t})
			}
		}
	}
}

func (d *detector) transitionConflicts(agents []core.AgentID, routes map[core.AgentID]*Route,
	boxPos [][]core.Cell, mover [][]core.AgentID, t int, emit func(Conflict)) {

	// Agent-agent swaps and follows.
	for i := 0; i < len(agents); i++ {
		for j := i + 1; j < len(agents); j++ {
			a, b := agents[i], agents[j]
			pa0, pa1 := routes[a].Path.LocationAt(t), routes[a].Path.LocationAt(t+1)
			pb0, pb1 := routes[b].Path.LocationAt(t), routes[b].Path.LocationAt(t+1)

			if pa1 == pb0 && pb1 == pa0 && pa0 != pa1 {
				emit(Conflict{Kind: ConflictEdgeSwap, A1: a, A2: b, Cell: pa0, Cell2: pb0, Time: t + 1})
				continue
			}
			// Trailing into a cell the other occupied at t.
			if pa1 == pb0 && pa1 != pa0 {
				emit(Conflict{Kind: ConflictFollow, A1: b, A2: a, Cell: pa1, Time: t + 1})
			}
			if pb1 == pa0 && pb1 != pb0 {
				emit(Conflict{Kind: ConflictFollow, A1: a, A2: b, Cell: pb1, Time: t + 1})
			}
		}
	}

	// Box-box follows and swaps, attributed to the responsible agents.
	for i := range boxPos[t] {
		for j := range boxPos[t] {
			if i == j {
				continue
			}
			if boxPos[t+1][j] != boxPos[t][i] || boxPos[t+1][j] == boxPos[t][j] {
				continue
			}
			am, ok1 := d.attributed(mover, j, t+1)
			ao, ok2 := d.attributed(mover, i, t+1)
			if ok1 && ok2 && am != ao {
				emit(Conflict{Kind: ConflictBoxBox, A1: am, A2: ao, Cell: boxPos[t+1][j], Time: t + 1})
			}
		}
	}

	// Agent-box interactions across the step.
	for _, id := range agents {
		p0 := routes[id].Path.LocationAt(t)
		p1 := routes[id].Path.LocationAt(t + 1)
		for bi := range boxPos[t] {
			b0, b1 := boxPos[t][bi], boxPos[t+1][bi]
			// Agent moves into the box's cell at t.
			if p1 == b0 && p1 != p0 {
				m, ok := d.attributed(mover, bi, t+1)
				if ok && m != id {
					emit(Conflict{Kind: ConflictAgentBox, A1: id, A2: m, Cell: p1, Time: t + 1})
				}
			}
			// Box moves into the agent's cell at t.
			if b1 == p0 && b1 != b0 {
				m, ok := d.attributed(mover, bi, t+1)
				if ok && m != id {
					emit(Conflict{Kind: ConflictAgentBox, A1: m, A2: id, Cell: b1, Time: t + 1})
				}
			}
		}
	}
}

func actionAt(r *Route, t int) *core.Action {
	if t < len(r.Actions) {
		return r.Actions[t]
	}
	return core.NoOp
}

func sortedAgentIDs(routes map[core.AgentID]*Route) []core.AgentID {
	ids := make([]core.AgentID, 0, len(routes))
	for id := range routes {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
