package algo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elektrokombinacija/warehouse-mapf/internal/core"
)

func TestAssemblePadsShorterRoutes(t *testing.T) {
	level := agentsOnlyLevel(t)
	routes := map[core.AgentID]*Route{
		'0': walkRoute(t, '0',
			core.Cell{R: 1, C: 1}, core.Cell{R: 1, C: 2}, core.Cell{R: 1, C: 3}),
		'1': walkRoute(t, '1', core.Cell{R: 2, C: 4}, core.Cell{R: 2, C: 3}),
	}

	plan, paths := Assemble(level, routes)
	require.Len(t, plan, 2)

	// Agent order is stable: agent 0 first in every row.
	assert.Equal(t, "Move(E)|Move(W)", plan[0].Format())
	assert.Equal(t, "Move(E)|NoOp", plan[1].Format())

	// The shorter path is padded to the common horizon with rest entries.
	require.Len(t, paths['1'], 3)
	assert.Equal(t, core.Cell{R: 2, C: 3}, paths['1'][2].Cell)
	assert.Equal(t, 2, paths['1'][2].Time)
}

func TestAssembleEmptyHorizon(t *testing.T) {
	level := agentsOnlyLevel(t)
	routes := map[core.AgentID]*Route{
		'0': walkRoute(t, '0', core.Cell{R: 1, C: 1}),
		'1': walkRoute(t, '1', core.Cell{R: 2, C: 4}),
	}
	plan, paths := Assemble(level, routes)
	assert.Empty(t, plan, "all agents already home")
	assert.Len(t, paths['0'], 1)
}

func TestAssembleDeterministic(t *testing.T) {
	level := agentsOnlyLevel(t)
	routes := map[core.AgentID]*Route{
		'0': walkRoute(t, '0', core.Cell{R: 1, C: 1}, core.Cell{R: 1, C: 2}),
		'1': walkRoute(t, '1', core.Cell{R: 2, C: 4}, core.Cell{R: 2, C: 3}),
	}
	a, _ := Assemble(level, routes)
	b, _ := Assemble(level, routes)
	assert.Equal(t, a.Format(), b.Format())
}
