// Package algo implements the two-level Conflict-Based Search planner.
package algo

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/elektrokombinacija/warehouse-mapf/internal/core"
)

// Solver is the interface for joint planners.
type Solver interface {
	// Solve attempts to find a conflict-free joint plan.
	Solve() *Result

	// Name returns the algorithm name.
	Name() string
}

// Constraint forbids an agent from occupying a cell at a time step. The
// constraint binds the agent and every box it is responsible for: a plan
// where either the agent or one of its boxes sits on the cell at that time
// violates it.
type Constraint struct {
	Agent core.AgentID
	Cell  core.Cell
	Time  int
}

// Less orders constraints canonically by (agent, time, row, col).
func (c Constraint) Less(o Constraint) bool {
	if c.Agent != o.Agent {
		return c.Agent < o.Agent
	}
	if c.Time != o.Time {
		return c.Time < o.Time
	}
	if c.Cell.R != o.Cell.R {
		return c.Cell.R < o.Cell.R
	}
	return c.Cell.C < o.Cell.C
}

// ConflictKind classifies pairwise conflicts. The order doubles as the
// selection priority: vertex conflicts are resolved before swaps, and so on.
type ConflictKind int

const (
	ConflictVertex ConflictKind = iota
	ConflictEdgeSwap
	ConflictFollow
	ConflictAgentBox
	ConflictBoxBox
)

func (k ConflictKind) String() string {
	return [...]string{"Vertex", "EdgeSwap", "Follow", "AgentBox", "BoxBox"}[k]
}

// Conflict is a pairwise collision in a joint plan. A1 and A2 are the agents
// the branching step constrains; for box conflicts they are the attributed
// movers (or owners, for a box that did not move).
type Conflict struct {
	Kind ConflictKind
	A1   core.AgentID
	A2   core.AgentID
	Cell core.Cell // contested cell
	// EdgeSwap only: Cell is A1's cell at t, Cell2 is A2's cell at t; the
	// constraints land on the destination cells at Time = t+1.
	Cell2 core.Cell
	Time  int // time step the generated constraints apply to
}

// Constraints derives the disjunctive constraint pair: the first goes to the
// left child, the second to the right child.
func (c Conflict) Constraints() (Constraint, Constraint) {
	if c.Kind == ConflictEdgeSwap {
		return Constraint{Agent: c.A1, Cell: c.Cell2, Time: c.Time},
			Constraint{Agent: c.A2, Cell: c.Cell, Time: c.Time}
	}
	return Constraint{Agent: c.A1, Cell: c.Cell, Time: c.Time},
		Constraint{Agent: c.A2, Cell: c.Cell, Time: c.Time}
}

// less orders conflicts by the selection policy: earliest time, then kind
// priority, then the smaller agent pair.
func (c Conflict) less(o Conflict) bool {
	if c.Time != o.Time {
		return c.Time < o.Time
	}
	if c.Kind != o.Kind {
		return c.Kind < o.Kind
	}
	ca, cb := orderedPair(c.A1, c.A2)
	oa, ob := orderedPair(o.A1, o.A2)
	if ca != oa {
		return ca < oa
	}
	return cb < ob
}

func orderedPair(a, b core.AgentID) (core.AgentID, core.AgentID) {
	if a > b {
		return b, a
	}
	return a, b
}

// Route is one agent's plan under a constraint set: the agent's path, the
// actions that produce it, and the boxes the agent is responsible for.
// Routes are immutable once returned by the low level and are shared by
// reference between CT nodes that did not replan the agent.
type Route struct {
	Agent   core.AgentID
	Path    core.AgentPath
	Actions []*core.Action
	Boxes   []core.BoxIndex
}

// Cost is the number of actions on the route.
func (r *Route) Cost() int { return len(r.Actions) }

// Reason explains a NoSolution outcome.
type Reason string

const (
	ReasonNone              Reason = ""
	ReasonInfeasibleInitial Reason = "infeasible_initial"
	ReasonLimitExpansions   Reason = "limit_expansions"
	ReasonLimitTime         Reason = "limit_time"
	ReasonLimitOpenEmpty    Reason = "limit_open_empty"
	ReasonLimitMemory       Reason = "limit_memory"
)

// SearchStats summarizes a high-level search run.
type SearchStats struct {
	Expanded  int
	Generated int
	Elapsed   time.Duration
}

// Result is the terminal outcome of a solve: either a conflict-free joint
// plan with its SIC, or a NoSolution reason.
type Result struct {
	Solved     bool
	Plan       core.Plan
	Paths      core.SolutionPaths
	SumOfCosts int
	Reason     Reason
	Stats      SearchStats
}

// Options bounds a solve. Zero values select the defaults.
type Options struct {
	ExpansionBudget int       // max CT expansions
	NodeBudget      int       // max low-level expansions per replan
	Horizon         int       // max time step the low level may reach
	Deadline        time.Time // wall-clock cutoff; zero disables
	StatusEvery     int       // status line cadence in CT expansions
	MaxMemoryMB     float64   // memory trip; 0 disables
}

// DefaultOptions returns the planner control defaults.
func DefaultOptions() Options {
	return Options{
		ExpansionBudget: 50000,
		NodeBudget:      1 << 20,
		Horizon:         512,
		StatusEvery:     1000,
	}
}

func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.ExpansionBudget <= 0 {
		o.ExpansionBudget = def.ExpansionBudget
	}
	if o.NodeBudget <= 0 {
		o.NodeBudget = def.NodeBudget
	}
	if o.Horizon <= 0 {
		o.Horizon = def.Horizon
	}
	if o.StatusEvery <= 0 {
		o.StatusEvery = def.StatusEvery
	}
	return o
}

// constraintSetKey builds the canonical form of a constraint multiset, used
// to suppress duplicate CT nodes. Stable across insertion order.
func constraintSetKey(constraints []Constraint) string {
	sorted := make([]Constraint, len(constraints))
	copy(sorted, constraints)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Less(sorted[j]) })

	var b strings.Builder
	b.Grow(len(sorted) * 12)
	for _, c := range sorted {
		b.WriteByte(byte(c.Agent))
		b.WriteString(strconv.Itoa(c.Time))
		b.WriteByte(';')
		b.WriteString(strconv.Itoa(c.Cell.R))
		b.WriteByte(',')
		b.WriteString(strconv.Itoa(c.Cell.C))
		b.WriteByte('|')
	}
	return b.String()
}

// filterConstraints returns the constraints that apply to one agent.
func filterConstraints(all []Constraint, agent core.AgentID) []Constraint {
	var out []Constraint
	for _, c := range all {
		if c.Agent == agent {
			out = append(out, c)
		}
	}
	return out
}
