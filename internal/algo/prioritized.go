package algo

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/elektrokombinacija/warehouse-mapf/internal/core"
)

// Prioritized is a non-optimal baseline: agents plan one at a time in id
// order, and every planned route becomes a set of constraints for the agents
// after it. Fast, but a bad ordering can fail on instances CBS solves.
type Prioritized struct {
	level *core.Level
	opts  Options
	log   *logrus.Entry

	owners    map[core.BoxIndex]core.AgentID
	searchers map[core.AgentID]*lowLevelSearcher
}

// NewPrioritized builds the baseline solver.
func NewPrioritized(level *core.Level, opts Options, log *logrus.Entry) *Prioritized {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	p := &Prioritized{
		level:     level,
		opts:      opts.withDefaults(),
		log:       log.WithField("solver", "prioritized"),
		owners:    assignBoxes(level),
		searchers: make(map[core.AgentID]*lowLevelSearcher),
	}
	for _, a := range level.Agents {
		p.searchers[a.ID] = newLowLevelSearcher(level, a, ownedBoxes(level, p.owners, a.ID))
	}
	return p
}

func (p *Prioritized) Name() string { return "Prioritized" }

// Solve plans agents in id order. Each planned agent's cells (and its boxes'
// cells) are blocked for all later agents, at every step of the route and at
// the following step to rule out trailing, with the terminal cells blocked
// through the horizon.
func (p *Prioritized) Solve() *Result {
	start := time.Now()
	routes := make(map[core.AgentID]*Route, len(p.level.Agents))
	cost := 0

	var reserved []Constraint
	for _, a := range p.level.Agents {
		constraints := filterConstraints(reserved, a.ID)
		route, err := p.searchers[a.ID].findPath(constraints, p.opts.Horizon, p.opts.NodeBudget)
		if err != nil {
			p.log.WithField("agent", string(a.ID)).WithError(err).Warn("prioritized planning failed")
			return &Result{
				Reason: ReasonInfeasibleInitial,
				Stats:  SearchStats{Elapsed: time.Since(start)},
			}
		}
		routes[a.ID] = route
		cost += route.Cost()
		reserved = append(reserved, p.reserve(route)...)
	}

	plan, paths := Assemble(p.level, routes)
	return &Result{
		Solved:     true,
		Plan:       plan,
		Paths:      paths,
		SumOfCosts: cost,
		Stats:      SearchStats{Elapsed: time.Since(start)},
	}
}

// reserve converts a planned route into constraints for every later agent.
func (p *Prioritized) reserve(route *Route) []Constraint {
	var later []core.AgentID
	for _, a := range p.level.Agents {
		if a.ID > route.Agent {
			later = append(later, a.ID)
		}
	}
	if len(later) == 0 {
		return nil
	}

	occupied := p.occupancy(route)

	var out []Constraint
	for _, id := range later {
		for _, oc := range occupied {
			out = append(out, Constraint{Agent: id, Cell: oc.Cell, Time: oc.Time})
		}
	}
	return out
}

// occupancy lists every (cell, time) the route's agent or boxes use,
// including one extra step per cell against trailing and the terminal cells
// through the horizon.
func (p *Prioritized) occupancy(route *Route) []core.PathEntry {
	var out []core.PathEntry
	add := func(c core.Cell, t int) {
		out = append(out, core.PathEntry{Cell: c, Time: t})
		out = append(out, core.PathEntry{Cell: c, Time: t + 1})
	}

	boxCells := make(map[core.BoxIndex]core.Cell, len(route.Boxes))
	for _, bi := range route.Boxes {
		boxCells[bi] = p.level.Boxes[bi].Start
	}

	end := route.Path[len(route.Path)-1].Time
	for t := 0; t <= end; t++ {
		add(route.Path.LocationAt(t), t)
		if t > 0 {
			p.advanceBoxes(route, boxCells, t-1)
		}
		for _, c := range boxCells {
			add(c, t)
		}
	}

	// Terminal cells stay occupied forever; block them through the horizon.
	for t := end + 1; t <= p.opts.Horizon; t++ {
		out = append(out, core.PathEntry{Cell: route.Path.LocationAt(end), Time: t})
		for _, c := range boxCells {
			out = append(out, core.PathEntry{Cell: c, Time: t})
		}
	}
	return out
}

// advanceBoxes applies the route's action at step t to the tracked box cells.
func (p *Prioritized) advanceBoxes(route *Route, boxCells map[core.BoxIndex]core.Cell, t int) {
	act := actionAt(route, t)
	if act.Type != core.ActionPush && act.Type != core.ActionPull {
		return
	}
	agentPos := route.Path.LocationAt(t)
	var from core.Cell
	if act.Type == core.ActionPush {
		from = agentPos.Add(act.AgentDelta)
	} else {
		from = agentPos.Sub(act.BoxDelta)
	}
	for bi, c := range boxCells {
		if c != from {
			continue
		}
		if act.Type == core.ActionPush {
			boxCells[bi] = from.Add(act.BoxDelta)
		} else {
			boxCells[bi] = agentPos
		}
		return
	}
}
