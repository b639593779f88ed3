package algo

import (
	"github.com/elektrokombinacija/warehouse-mapf/internal/core"
)

// Assemble flattens per-agent routes into the time-indexed joint plan: every
// agent's action sequence is padded with NoOp up to the longest route, and
// each time step becomes one row in stable agent order. Pure and
// deterministic.
func Assemble(level *core.Level, routes map[core.AgentID]*Route) (core.Plan, core.SolutionPaths) {
	horizon := 0
	for _, r := range routes {
		if r.Cost() > horizon {
			horizon = r.Cost()
		}
	}

	plan := make(core.Plan, horizon)
	for t := 0; t < horizon; t++ {
		row := make(core.JointAction, len(level.Agents))
		for i, a := range level.Agents {
			row[i] = actionAt(routes[a.ID], t)
		}
		plan[t] = row
	}

	paths := make(core.SolutionPaths, len(routes))
	for id, r := range routes {
		paths[id] = padPath(r.Path, horizon)
	}
	return plan, paths
}

// padPath extends a path with rest entries at its final cell up to horizon.
func padPath(p core.AgentPath, horizon int) core.AgentPath {
	if len(p) == 0 || p[len(p)-1].Time >= horizon {
		return p
	}
	out := make(core.AgentPath, 0, horizon+1)
	out = append(out, p...)
	last := p[len(p)-1].Cell
	for t := p[len(p)-1].Time + 1; t <= horizon; t++ {
		out = append(out, core.PathEntry{Cell: last, Time: t})
	}
	return out
}
