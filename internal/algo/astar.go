package algo

import (
	"container/heap"
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/elektrokombinacija/warehouse-mapf/internal/core"
)

// Low-level failure modes. ErrNoPath means the constraint set (or geometry)
// admits no path within the horizon; ErrNodeBudget means the search ran out
// of expansions before deciding.
var (
	ErrNoPath     = errors.New("low level: no path satisfies the constraints")
	ErrNodeBudget = errors.New("low level: node budget exhausted")
)

// lowLevelSearcher runs space-time A* for one agent and the boxes it is
// responsible for. The searcher is reused across CT replans so the distance
// tables are built once.
type lowLevelSearcher struct {
	level *core.Level
	agent core.Agent
	boxes []core.Box // owned boxes, level order

	static map[core.Cell]bool // boxes no agent can move, treated as walls

	agentDist *DistanceTable                   // nil when the agent has no goal
	boxDist   map[core.BoxIndex]*DistanceTable // per owned box with a goal
}

func newLowLevelSearcher(level *core.Level, agent core.Agent, boxes []core.Box) *lowLevelSearcher {
	static := make(map[core.Cell]bool)
	for _, c := range level.StaticBoxCells() {
		static[c] = true
	}

	s := &lowLevelSearcher{
		level:   level,
		agent:   agent,
		boxes:   boxes,
		static:  static,
		boxDist: make(map[core.BoxIndex]*DistanceTable),
	}
	if agent.HasGoal {
		s.agentDist = NewDistanceTable(level.Grid, agent.Goal, static)
	}
	for _, b := range boxes {
		if b.HasGoal {
			s.boxDist[b.Index] = NewDistanceTable(level.Grid, b.Goal, static)
		}
	}
	return s
}

// llNode is a space-time search node: agent cell plus owned box cells at a
// time step. g equals time because every step is exactly one action.
type llNode struct {
	agent  core.Cell
	boxes  []core.Cell // owned box cells, fixed order
	time   int
	h      int
	action *core.Action // action that produced this node; nil at the root
	parent *llNode
	seq    int
	index  int
}

func (n *llNode) f() int { return n.time + n.h }

type llHeap []*llNode

func (h llHeap) Len() int { return len(h) }
func (h llHeap) Less(i, j int) bool {
	a, b := h[i], h[j]
	if a.f() != b.f() {
		return a.f() < b.f()
	}
	// Prefer deeper nodes, then break ties on (time, row, col) and finally
	// on generation order so the search is fully deterministic.
	if a.time != b.time {
		return a.time > b.time
	}
	if a.agent.R != b.agent.R {
		return a.agent.R < b.agent.R
	}
	if a.agent.C != b.agent.C {
		return a.agent.C < b.agent.C
	}
	return a.seq < b.seq
}
func (h llHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}
func (h *llHeap) Push(x any) {
	n := x.(*llNode)
	n.index = len(*h)
	*h = append(*h, n)
}
func (h *llHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	old[n-1] = nil
	*h = old[0 : n-1]
	return x
}

// findPath runs the search under the agent's filtered constraint set.
// It returns a Route whose path ends in a state where the agent and every
// owned box sit on their goals and no later constraint can evict them.
func (s *lowLevelSearcher) findPath(constraints []Constraint, horizon, nodeBudget int) (*Route, error) {
	forbidden := make(map[uint64]bool, len(constraints))
	maxConstraintTime := 0
	for _, c := range constraints {
		forbidden[s.cellTimeKey(c.Cell, c.Time)] = true
		if c.Time > maxConstraintTime {
			maxConstraintTime = c.Time
		}
	}

	boxCells := make([]core.Cell, len(s.boxes))
	for i, b := range s.boxes {
		boxCells[i] = b.Start
	}

	root := &llNode{
		agent: s.agent.Start,
		boxes: boxCells,
	}
	root.h = s.heuristic(root, constraints)

	open := &llHeap{}
	heap.Init(open)
	heap.Push(open, root)

	gScore := map[string]int{s.stateKey(root): 0}
	closed := make(map[string]bool)

	expanded := 0
	seq := 0

	for open.Len() > 0 {
		cur := heap.Pop(open).(*llNode)
		key := s.stateKey(cur)
		if closed[key] {
			continue
		}
		closed[key] = true

		if s.isGoal(cur, constraints) {
			return s.extractRoute(cur), nil
		}

		expanded++
		if expanded > nodeBudget {
			return nil, ErrNodeBudget
		}
		if cur.time >= horizon {
			continue
		}

		for _, a := range core.Actions {
			next, ok := s.apply(cur, a, forbidden)
			if !ok {
				continue
			}
			nkey := s.stateKey(next)
			if closed[nkey] {
				continue
			}
			if g, seen := gScore[nkey]; seen && g <= next.time {
				continue
			}
			gScore[nkey] = next.time
			next.h = s.heuristic(next, constraints)
			seq++
			next.seq = seq
			heap.Push(open, next)
		}
	}

	return nil, ErrNoPath
}

// apply attempts one catalogue action on a node. Only the agent's own boxes
// are visible here; other agents and their boxes are the high level's
// problem, surfaced back as constraints.
func (s *lowLevelSearcher) apply(cur *llNode, a *core.Action, forbidden map[uint64]bool) (*llNode, bool) {
	t := cur.time + 1

	switch a.Type {
	case core.ActionNoOp:
		if forbidden[s.cellTimeKey(cur.agent, t)] || s.anyBoxForbidden(cur.boxes, -1, t, forbidden) {
			return nil, false
		}
		return &llNode{agent: cur.agent, boxes: cur.boxes, time: t, action: a, parent: cur}, true

	case core.ActionMove:
		dest := cur.agent.Add(a.AgentDelta)
		if !s.cellOpen(dest) || s.boxAt(cur.boxes, dest) >= 0 {
			return nil, false
		}
		if forbidden[s.cellTimeKey(dest, t)] || s.anyBoxForbidden(cur.boxes, -1, t, forbidden) {
			return nil, false
		}
		return &llNode{agent: dest, boxes: cur.boxes, time: t, action: a, parent: cur}, true

	case core.ActionPush:
		boxPos := cur.agent.Add(a.AgentDelta)
		bi := s.boxAt(cur.boxes, boxPos)
		if bi < 0 {
			return nil, false
		}
		boxDest := boxPos.Add(a.BoxDelta)
		if !s.cellOpen(boxDest) || s.boxAt(cur.boxes, boxDest) >= 0 {
			return nil, false
		}
		if forbidden[s.cellTimeKey(boxPos, t)] || forbidden[s.cellTimeKey(boxDest, t)] ||
			s.anyBoxForbidden(cur.boxes, bi, t, forbidden) {
			return nil, false
		}
		boxes := cloneCells(cur.boxes)
		boxes[bi] = boxDest
		return &llNode{agent: boxPos, boxes: boxes, time: t, action: a, parent: cur}, true

	case core.ActionPull:
		boxPos := cur.agent.Sub(a.BoxDelta)
		bi := s.boxAt(cur.boxes, boxPos)
		if bi < 0 {
			return nil, false
		}
		agentDest := cur.agent.Add(a.AgentDelta)
		if !s.cellOpen(agentDest) || s.boxAt(cur.boxes, agentDest) >= 0 {
			return nil, false
		}
		if forbidden[s.cellTimeKey(agentDest, t)] || forbidden[s.cellTimeKey(cur.agent, t)] ||
			s.anyBoxForbidden(cur.boxes, bi, t, forbidden) {
			return nil, false
		}
		boxes := cloneCells(cur.boxes)
		boxes[bi] = cur.agent
		return &llNode{agent: agentDest, boxes: boxes, time: t, action: a, parent: cur}, true
	}

	return nil, false
}

func (s *lowLevelSearcher) cellOpen(c core.Cell) bool {
	return s.level.Grid.Free(c) && !s.static[c]
}

// boxAt returns the index into the owned-box slice occupying c, or -1.
func (s *lowLevelSearcher) boxAt(boxes []core.Cell, c core.Cell) int {
	for i, b := range boxes {
		if b == c {
			return i
		}
	}
	return -1
}

// anyBoxForbidden checks the stationary boxes against the constraint set at
// time t. The moving box (index skip) is checked at its destination by the
// caller.
func (s *lowLevelSearcher) anyBoxForbidden(boxes []core.Cell, skip, t int, forbidden map[uint64]bool) bool {
	for i, b := range boxes {
		if i == skip {
			continue
		}
		if forbidden[s.cellTimeKey(b, t)] {
			return true
		}
	}
	return false
}

// isGoal checks the termination condition: everything on its goal, and no
// constraint at a later time step can evict the agent or a box from where it
// now rests. This generalizes the last-goal-constraint rule to agents
// without goals, whose terminal cell is wherever the path ends.
func (s *lowLevelSearcher) isGoal(n *llNode, constraints []Constraint) bool {
	if s.agent.HasGoal && n.agent != s.agent.Goal {
		return false
	}
	for i, b := range s.boxes {
		if b.HasGoal && n.boxes[i] != b.Goal {
			return false
		}
	}
	for _, c := range constraints {
		if c.Time <= n.time {
			continue
		}
		if c.Cell == n.agent {
			return false
		}
		for _, bc := range n.boxes {
			if c.Cell == bc {
				return false
			}
		}
	}
	return true
}

// heuristic is the admissible lower bound: the largest of the remaining
// wall-aware goal distances and the wait forced by the latest constraint
// still sitting on a goal cell. Every term is consistent, so the max is.
func (s *lowLevelSearcher) heuristic(n *llNode, constraints []Constraint) int {
	h := 0
	if s.agentDist != nil {
		if d := s.agentDist.Dist(n.agent); d > h {
			h = d
		}
	}
	for i, b := range s.boxes {
		dt := s.boxDist[b.Index]
		if dt == nil {
			continue
		}
		if d := dt.Dist(n.boxes[i]); d > h {
			h = d
		}
	}
	for _, c := range constraints {
		if c.Time <= n.time {
			continue
		}
		if s.onGoalCells(c.Cell) {
			if w := c.Time - n.time; w > h {
				h = w
			}
		}
	}
	return h
}

func (s *lowLevelSearcher) onGoalCells(c core.Cell) bool {
	if s.agent.HasGoal && c == s.agent.Goal {
		return true
	}
	for _, b := range s.boxes {
		if b.HasGoal && c == b.Goal {
			return true
		}
	}
	return false
}

func (s *lowLevelSearcher) extractRoute(goal *llNode) *Route {
	depth := goal.time
	path := make(core.AgentPath, depth+1)
	actions := make([]*core.Action, depth)
	for n := goal; n != nil; n = n.parent {
		path[n.time] = core.PathEntry{Cell: n.agent, Time: n.time}
		if n.action != nil {
			actions[n.time-1] = n.action
		}
	}
	boxes := make([]core.BoxIndex, len(s.boxes))
	for i, b := range s.boxes {
		boxes[i] = b.Index
	}
	return &Route{Agent: s.agent.ID, Path: path, Actions: actions, Boxes: boxes}
}

func (s *lowLevelSearcher) cellTimeKey(c core.Cell, t int) uint64 {
	return uint64(c.R*s.level.Grid.Cols()+c.C)<<32 | uint64(uint32(t))
}

// stateKey packs (agent cell, box cells, time) into a closed-set key.
func (s *lowLevelSearcher) stateKey(n *llNode) string {
	buf := make([]byte, 0, 4*(len(n.boxes)+2))
	var tmp [4]byte
	put := func(v int) {
		binary.BigEndian.PutUint32(tmp[:], uint32(v))
		buf = append(buf, tmp[:]...)
	}
	put(n.agent.R*s.level.Grid.Cols() + n.agent.C)
	for _, b := range n.boxes {
		put(b.R*s.level.Grid.Cols() + b.C)
	}
	put(n.time)
	return string(buf)
}

func cloneCells(cells []core.Cell) []core.Cell {
	out := make([]core.Cell, len(cells))
	copy(out, cells)
	return out
}
