package core

import "strings"

// PathEntry is an agent's cell at a time step.
type PathEntry struct {
	Cell Cell
	Time int
}

// AgentPath is a single agent's trajectory, one entry per time step starting
// at 0. After the last entry the agent rests at its final cell indefinitely
// (the virtual tail).
type AgentPath []PathEntry

// LocationAt returns the agent's cell at time t under the virtual-tail
// convention. For t before the path starts the first cell is returned.
func (p AgentPath) LocationAt(t int) Cell {
	if len(p) == 0 {
		return Cell{}
	}
	if t <= 0 {
		return p[0].Cell
	}
	if t >= len(p) {
		return p[len(p)-1].Cell
	}
	return p[t].Cell
}

// Cost is the number of actions along the path.
func (p AgentPath) Cost() int {
	if len(p) <= 1 {
		return 0
	}
	return len(p) - 1
}

// SolutionPaths maps each agent to its path.
type SolutionPaths map[AgentID]AgentPath

// SumOfCosts is the SIC objective: total action count across agents.
func (s SolutionPaths) SumOfCosts() int {
	total := 0
	for _, p := range s {
		total += p.Cost()
	}
	return total
}

// MaxTime returns the last recorded time step across all paths.
func (s SolutionPaths) MaxTime() int {
	maxT := 0
	for _, p := range s {
		if len(p) > 0 && p[len(p)-1].Time > maxT {
			maxT = p[len(p)-1].Time
		}
	}
	return maxT
}

// JointAction is one plan row: exactly one primitive action per agent, in
// stable agent order.
type JointAction []*Action

// RowSeparator joins the actions of a row on the wire.
const RowSeparator = "|"

// Format renders the row in the server wire format.
func (j JointAction) Format() string {
	names := make([]string, len(j))
	for i, a := range j {
		names[i] = a.Name
	}
	return strings.Join(names, RowSeparator)
}

// Plan is a time-indexed joint plan, one row per time step.
type Plan []JointAction

// Format renders the whole plan, one row per line.
func (p Plan) Format() string {
	var b strings.Builder
	for i, row := range p {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(row.Format())
	}
	return b.String()
}
