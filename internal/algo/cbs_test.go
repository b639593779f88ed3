package algo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elektrokombinacija/warehouse-mapf/internal/core"
	"github.com/elektrokombinacija/warehouse-mapf/internal/sim"
)

func testOptions() Options {
	return Options{
		ExpansionBudget: 20000,
		NodeBudget:      200000,
		Horizon:         64,
	}
}

// requireSolved asserts a conflict-free, executable solution.
func requireSolved(t *testing.T, level *core.Level, result *Result) {
	t.Helper()
	require.True(t, result.Solved, "reason: %s", result.Reason)

	_, err := sim.Validate(level, result.Plan)
	require.NoError(t, err, "plan must replay cleanly")

	// Path validity: each path starts at the agent's start and is contiguous.
	for _, a := range level.Agents {
		path := result.Paths[a.ID]
		require.NotEmpty(t, path)
		assert.Equal(t, a.Start, path[0].Cell)
		for i := 1; i < len(path); i++ {
			step := path[i].Cell.Sub(path[i-1].Cell)
			assert.LessOrEqual(t, abs(step.R)+abs(step.C), 1,
				"agent %q jumps at step %d", byte(a.ID), i)
			assert.False(t, level.Grid.Wall(path[i].Cell),
				"agent %q enters a wall", byte(a.ID))
		}
		if a.HasGoal {
			assert.Equal(t, a.Goal, path[len(path)-1].Cell)
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

const corridorBayLevel = `
#domain
hospital
#levelname
corridor-bay
#colors
blue: 0
red: 1
#initial
+++++
++ ++
+0 1+
+++++
#goal
+++++
++ ++
+1 0+
+++++
#end
`

func TestCBSCorridorSwapWithBay(t *testing.T) {
	level := mustLevel(t, corridorBayLevel)
	result := NewCBS(level, testOptions(), nil).Solve()
	requireSolved(t, level, result)
	assert.Empty(t, FindConflicts(level, mustRoutesFromResult(t, level, result), assignBoxes(level)))
}

func TestCBSPassThroughLane(t *testing.T) {
	level := mustLevel(t, `
#domain
hospital
#levelname
lane-bay
#colors
blue: 0
red: 1
#initial
++++++++++
++++ +++++
+0      1+
++++++++++
#goal
++++++++++
++++ +++++
+1      0+
++++++++++
#end
`)
	result := NewCBS(level, testOptions(), nil).Solve()
	requireSolved(t, level, result)
	// The direct paths cost 7 each; passing through the bay costs the
	// yielding agent the detour plus the waits the trailing rule forces.
	assert.Greater(t, result.SumOfCosts, 14)
	assert.LessOrEqual(t, result.SumOfCosts, 24)
}

func TestCBSVertexOnlyCrossing(t *testing.T) {
	level := mustLevel(t, `
#domain
hospital
#levelname
crossing
#colors
blue: 0
red: 1
#initial
+++++++
+0    +
+     +
+     +
+     +
+1    +
+++++++
#goal
+++++++
+    1+
+     +
+     +
+     +
+    0+
+++++++
#end
`)
	result := NewCBS(level, testOptions(), nil).Solve()
	requireSolved(t, level, result)
	assert.Equal(t, 16, result.SumOfCosts, "crossing must not cost extra moves")
}

func TestCBSInfeasibleSwapNoBay(t *testing.T) {
	level := mustLevel(t, `
#domain
hospital
#levelname
swap
#colors
blue: 0
red: 1
#initial
+++++
+0 1+
+++++
#goal
+++++
+1 0+
+++++
#end
`)
	opts := testOptions()
	opts.Horizon = 8
	opts.ExpansionBudget = 5000

	result := NewCBS(level, opts, nil).Solve()
	assert.False(t, result.Solved)
	assert.Contains(t, []Reason{ReasonLimitOpenEmpty, ReasonLimitExpansions}, result.Reason)
}

func TestCBSBoxPush(t *testing.T) {
	level := mustLevel(t, `
#domain
hospital
#levelname
push
#colors
blue: 0, A
#initial
+++++++
+0A   +
+++++++
#goal
+++++++
+0  A +
+++++++
#end
`)
	result := NewCBS(level, testOptions(), nil).Solve()
	requireSolved(t, level, result)

	assert.Contains(t, result.Plan.Format(), "Push(E,E)")

	state, err := sim.Validate(level, result.Plan)
	require.NoError(t, err)
	assert.Equal(t, core.Cell{R: 1, C: 4}, state.Boxes[0])
	assert.Equal(t, core.Cell{R: 1, C: 1}, state.Agents[0])
}

func TestCBSInfeasibleInitial(t *testing.T) {
	// The agent is walled off from its goal.
	level := mustLevel(t, `
#domain
hospital
#levelname
sealed
#colors
blue: 0
#initial
+++++
+0+ +
+++++
#goal
+++++
+ +0+
+++++
#end
`)
	result := NewCBS(level, testOptions(), nil).Solve()
	assert.False(t, result.Solved)
	assert.Equal(t, ReasonInfeasibleInitial, result.Reason)
}

func TestCBSLimitExpansions(t *testing.T) {
	level := mustLevel(t, corridorBayLevel)
	opts := testOptions()
	opts.ExpansionBudget = 1

	result := NewCBS(level, opts, nil).Solve()
	assert.False(t, result.Solved)
	assert.Equal(t, ReasonLimitExpansions, result.Reason)
}

func TestCBSLimitTime(t *testing.T) {
	level := mustLevel(t, corridorBayLevel)
	opts := testOptions()
	opts.Deadline = time.Now().Add(-time.Second)

	result := NewCBS(level, opts, nil).Solve()
	assert.False(t, result.Solved)
	assert.Equal(t, ReasonLimitTime, result.Reason)
}

func TestCBSDeterminism(t *testing.T) {
	level := mustLevel(t, corridorBayLevel)

	first := NewCBS(level, testOptions(), nil).Solve()
	second := NewCBS(level, testOptions(), nil).Solve()
	require.True(t, first.Solved)
	require.True(t, second.Solved)
	assert.Equal(t, first.Plan.Format(), second.Plan.Format(),
		"two identical runs must emit identical plans")
	assert.Equal(t, first.SumOfCosts, second.SumOfCosts)
	assert.Equal(t, first.Stats.Expanded, second.Stats.Expanded)
}

func TestCBSStatusCallback(t *testing.T) {
	level := mustLevel(t, corridorBayLevel)
	cbs := NewCBS(level, Options{StatusEvery: 1, ExpansionBudget: 20000, NodeBudget: 200000, Horizon: 64}, nil)

	calls := 0
	cbs.SetStatus(func(expanded, frontier, generated int) {
		calls++
		assert.GreaterOrEqual(t, expanded, 1)
		assert.GreaterOrEqual(t, generated, 1)
	})
	result := cbs.Solve()
	require.True(t, result.Solved)
	assert.Positive(t, calls)
}

// mustRoutesFromResult reconstructs routes from a solved plan so the
// detector can be run against the final solution.
func mustRoutesFromResult(t *testing.T, level *core.Level, result *Result) map[core.AgentID]*Route {
	t.Helper()
	routes := make(map[core.AgentID]*Route, len(level.Agents))
	for i, a := range level.Agents {
		actions := make([]*core.Action, len(result.Plan))
		for tstep, row := range result.Plan {
			actions[tstep] = row[i]
		}
		routes[a.ID] = &Route{
			Agent:   a.ID,
			Path:    result.Paths[a.ID],
			Actions: actions,
			Boxes:   nil,
		}
	}
	return routes
}
