package algo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elektrokombinacija/warehouse-mapf/internal/sim"
)

func TestPrioritizedSolvesOpenCrossing(t *testing.T) {
	level := mustLevel(t, `
#domain
hospital
#levelname
open
#colors
blue: 0
red: 1
#initial
++++++
+0   +
+   1+
++++++
#goal
++++++
+   0+
+1   +
++++++
#end
`)
	result := NewPrioritized(level, testOptions(), nil).Solve()
	require.True(t, result.Solved, "reason: %s", result.Reason)

	_, err := sim.Validate(level, result.Plan)
	require.NoError(t, err)

	routes := mustRoutesFromResult(t, level, result)
	assert.Empty(t, FindConflicts(level, routes, assignBoxes(level)))
}

func TestPrioritizedNotNecessarilyOptimal(t *testing.T) {
	level := mustLevel(t, corridorBayLevel)
	prioritized := NewPrioritized(level, testOptions(), nil).Solve()
	if !prioritized.Solved {
		t.Skip("ordering failed on this instance; acceptable for the baseline")
	}

	cbs := NewCBS(level, testOptions(), nil).Solve()
	require.True(t, cbs.Solved)
	assert.GreaterOrEqual(t, prioritized.SumOfCosts, cbs.SumOfCosts,
		"the baseline can never beat the optimal SIC")
}
