package algo

import (
	"container/heap"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/elektrokombinacija/warehouse-mapf/internal/core"
	"github.com/elektrokombinacija/warehouse-mapf/internal/stats"
)

// StatusFunc receives periodic search progress: CT nodes expanded, current
// frontier size, and nodes generated. It must not influence search order.
type StatusFunc func(expanded, frontier, generated int)

// CBS is the two-level Conflict-Based Search planner. The high level runs a
// best-first search over a constraint tree ordered by sum of individual
// costs; the low level replans a single agent per branch.
type CBS struct {
	level  *core.Level
	opts   Options
	log    *logrus.Entry
	status StatusFunc

	owners    map[core.BoxIndex]core.AgentID
	searchers map[core.AgentID]*lowLevelSearcher
}

// NewCBS builds a CBS solver for a validated level.
func NewCBS(level *core.Level, opts Options, log *logrus.Entry) *CBS {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	c := &CBS{
		level:     level,
		opts:      opts.withDefaults(),
		log:       log.WithField("solver", "cbs"),
		owners:    assignBoxes(level),
		searchers: make(map[core.AgentID]*lowLevelSearcher),
	}
	for _, a := range level.Agents {
		c.searchers[a.ID] = newLowLevelSearcher(level, a, ownedBoxes(level, c.owners, a.ID))
	}
	return c
}

// SetStatus installs a status callback.
func (c *CBS) SetStatus(fn StatusFunc) { c.status = fn }

func (c *CBS) Name() string { return "CBS" }

// ctNode is a constraint-tree node. Constraints and routes are immutable
// after construction; routes are shared with the parent for every agent
// that was not replanned.
type ctNode struct {
	constraints []Constraint
	routes      map[core.AgentID]*Route
	cost        int
	conflicts   []Conflict
	seq         int
	index       int
}

type ctHeap []*ctNode

func (h ctHeap) Len() int { return len(h) }
func (h ctHeap) Less(i, j int) bool {
	a, b := h[i], h[j]
	if a.cost != b.cost {
		return a.cost < b.cost
	}
	if len(a.constraints) != len(b.constraints) {
		return len(a.constraints) < len(b.constraints)
	}
	if len(a.conflicts) != len(b.conflicts) {
		return len(a.conflicts) < len(b.conflicts)
	}
	return a.seq < b.seq
}
func (h ctHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}
func (h *ctHeap) Push(x any) {
	n := x.(*ctNode)
	n.index = len(*h)
	*h = append(*h, n)
}
func (h *ctHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	old[n-1] = nil
	*h = old[0 : n-1]
	return x
}

// Solve runs the constraint-tree search.
func (c *CBS) Solve() *Result {
	start := time.Now()
	finish := func(r *Result, expanded, generated int) *Result {
		r.Stats = SearchStats{Expanded: expanded, Generated: generated, Elapsed: time.Since(start)}
		return r
	}

	// A box with a goal but no agent of its color can never reach it.
	for _, b := range c.level.Boxes {
		if b.HasGoal && b.Start != b.Goal && !c.level.HasAgentOfColor(b.Color) {
			c.log.WithField("box", string(b.ID)).Warn("box goal has no agent of matching color")
			return finish(&Result{Reason: ReasonInfeasibleInitial}, 0, 0)
		}
	}

	root := &ctNode{routes: make(map[core.AgentID]*Route, len(c.level.Agents))}
	for _, a := range c.level.Agents {
		route, err := c.searchers[a.ID].findPath(nil, c.opts.Horizon, c.opts.NodeBudget)
		if err != nil {
			c.log.WithField("agent", string(a.ID)).WithError(err).Warn("no initial path")
			return finish(&Result{Reason: ReasonInfeasibleInitial}, 0, 0)
		}
		root.routes[a.ID] = route
		root.cost += route.Cost()
	}
	root.conflicts = FindConflicts(c.level, root.routes, c.owners)

	open := &ctHeap{}
	heap.Init(open)
	heap.Push(open, root)

	seen := map[string]bool{constraintSetKey(root.constraints): true}
	expanded, generated, seq := 0, 1, 0

	for open.Len() > 0 {
		if expanded >= c.opts.ExpansionBudget {
			return finish(&Result{Reason: ReasonLimitExpansions}, expanded, generated)
		}
		if !c.opts.Deadline.IsZero() && time.Now().After(c.opts.Deadline) {
			return finish(&Result{Reason: ReasonLimitTime}, expanded, generated)
		}
		if c.opts.MaxMemoryMB > 0 && stats.Usage() > c.opts.MaxMemoryMB {
			return finish(&Result{Reason: ReasonLimitMemory}, expanded, generated)
		}

		node := heap.Pop(open).(*ctNode)
		expanded++
		if c.status != nil && expanded%c.opts.StatusEvery == 0 {
			c.status(expanded, open.Len(), generated)
		}

		if len(node.conflicts) == 0 {
			plan, paths := Assemble(c.level, node.routes)
			if c.status != nil {
				c.status(expanded, open.Len(), generated)
			}
			return finish(&Result{
				Solved:     true,
				Plan:       plan,
				Paths:      paths,
				SumOfCosts: node.cost,
			}, expanded, generated)
		}

		conflict := selectConflict(node.conflicts)
		c1, c2 := conflict.Constraints()
		for _, constraint := range []Constraint{c1, c2} {
			child := c.branch(node, constraint, seen)
			if child == nil {
				continue
			}
			seq++
			child.seq = seq
			generated++
			heap.Push(open, child)
		}
	}

	return finish(&Result{Reason: ReasonLimitOpenEmpty}, expanded, generated)
}

// branch builds the child CT node for one constraint: inherit the parent's
// constraints plus the new one, replan only the constrained agent, and keep
// every other route by reference.
func (c *CBS) branch(parent *ctNode, constraint Constraint, seen map[string]bool) *ctNode {
	// Re-adding a constraint the node already carries cannot change any
	// path; the sibling child resolves the conflict.
	for _, existing := range parent.constraints {
		if existing == constraint {
			return nil
		}
	}

	constraints := make([]Constraint, len(parent.constraints)+1)
	copy(constraints, parent.constraints)
	constraints[len(parent.constraints)] = constraint

	key := constraintSetKey(constraints)
	if seen[key] {
		return nil
	}
	seen[key] = true

	searcher, ok := c.searchers[constraint.Agent]
	if !ok {
		panic(fmt.Sprintf("internal invariant violation: constraint names unknown agent %q", byte(constraint.Agent)))
	}

	route, err := searcher.findPath(filterConstraints(constraints, constraint.Agent), c.opts.Horizon, c.opts.NodeBudget)
	if err == ErrNodeBudget {
		c.log.WithFields(logrus.Fields{
			"agent":       string(constraint.Agent),
			"constraints": len(constraints),
		}).Warn("low-level node budget hit; branch pruned")
		return nil
	}
	if err != nil {
		return nil
	}
	c.verifyRoute(route, constraints)

	routes := make(map[core.AgentID]*Route, len(parent.routes))
	for id, r := range parent.routes {
		routes[id] = r
	}
	old := parent.routes[constraint.Agent]
	routes[constraint.Agent] = route

	child := &ctNode{
		constraints: constraints,
		routes:      routes,
		cost:        parent.cost - old.Cost() + route.Cost(),
	}
	child.conflicts = FindConflicts(c.level, routes, c.owners)
	return child
}

// verifyRoute asserts that a freshly planned route honours every constraint
// on its agent. A violation is a planner bug, not a plannable condition.
func (c *CBS) verifyRoute(route *Route, constraints []Constraint) {
	for _, con := range constraints {
		if con.Agent != route.Agent {
			continue
		}
		if route.Path.LocationAt(con.Time) == con.Cell {
			panic(fmt.Sprintf("internal invariant violation: agent %q occupies %v at %d despite constraint",
				byte(route.Agent), con.Cell, con.Time))
		}
	}
	if len(route.Path) == 0 {
		panic(fmt.Sprintf("internal invariant violation: empty path for agent %q", byte(route.Agent)))
	}
}

// selectConflict picks the conflict to branch on: earliest, then by kind
// priority, then by the smaller agent pair.
func selectConflict(conflicts []Conflict) Conflict {
	best := conflicts[0]
	for _, c := range conflicts[1:] {
		if c.less(best) {
			best = c
		}
	}
	return best
}

// assignBoxes gives every movable box a responsible agent of its color, the
// one nearest by wall-aware distance from its start (ties to the smaller
// agent id). Ownership determines which low-level search carries the box.
func assignBoxes(level *core.Level) map[core.BoxIndex]core.AgentID {
	owners := make(map[core.BoxIndex]core.AgentID)

	tables := make(map[core.AgentID]*DistanceTable, len(level.Agents))
	for _, a := range level.Agents {
		tables[a.ID] = NewDistanceTable(level.Grid, a.Start, nil)
	}

	for _, b := range level.Boxes {
		agents := level.AgentsOfColor(b.Color)
		if len(agents) == 0 {
			continue
		}
		best := agents[0]
		bestDist := tables[best.ID].Dist(b.Start)
		for _, a := range agents[1:] {
			if d := tables[a.ID].Dist(b.Start); d < bestDist {
				best, bestDist = a, d
			}
		}
		owners[b.Index] = best.ID
	}
	return owners
}

func ownedBoxes(level *core.Level, owners map[core.BoxIndex]core.AgentID, id core.AgentID) []core.Box {
	var out []core.Box
	for _, b := range level.Boxes {
		if owners[b.Index] == id {
			out = append(out, b)
		}
	}
	return out
}
