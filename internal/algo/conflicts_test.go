package algo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elektrokombinacija/warehouse-mapf/internal/core"
)

// walkRoute builds a route from a cell sequence of adjacent (or equal) cells.
func walkRoute(t *testing.T, id core.AgentID, cells ...core.Cell) *Route {
	t.Helper()
	path := make(core.AgentPath, len(cells))
	actions := make([]*core.Action, 0, len(cells)-1)
	for i, c := range cells {
		path[i] = core.PathEntry{Cell: c, Time: i}
		if i == 0 {
			continue
		}
		delta := c.Sub(cells[i-1])
		found := core.NoOp
		if delta != (core.Cell{}) {
			for _, a := range core.Actions {
				if a.Type == core.ActionMove && a.AgentDelta == delta {
					found = a
					break
				}
			}
			require.NotEqual(t, core.NoOp, found, "cells %v and %v are not adjacent", cells[i-1], c)
		}
		actions = append(actions, found)
	}
	return &Route{Agent: id, Path: path, Actions: actions}
}

func agentsOnlyLevel(t *testing.T) *core.Level {
	return mustLevel(t, `
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
}

func kinds(conflicts []Conflict) map[ConflictKind]int {
	out := map[ConflictKind]int{}
	for _, c := range conflicts {
		out[c.Kind]++
	}
	return out
}

func TestDetectNoConflict(t *testing.T) {
	level := agentsOnlyLevel(t)
	routes := map[core.AgentID]*Route{
		'0': walkRoute(t, '0', core.Cell{R: 1, C: 1}, core.Cell{R: 1, C: 2}),
		'1': walkRoute(t, '1', core.Cell{R: 2, C: 4}, core.Cell{R: 2, C: 3}),
	}
	assert.Empty(t, FindConflicts(level, routes, nil))
}

func TestDetectVertexConflict(t *testing.T) {
	level := agentsOnlyLevel(t)
	routes := map[core.AgentID]*Route{
		'0': walkRoute(t, '0', core.Cell{R: 1, C: 1}, core.Cell{R: 1, C: 2}),
		'1': walkRoute(t, '1', core.Cell{R: 1, C: 3}, core.Cell{R: 1, C: 2}),
	}
	conflicts := FindConflicts(level, routes, nil)
	require.NotEmpty(t, conflicts)
	assert.Positive(t, kinds(conflicts)[ConflictVertex])

	sel := selectConflict(conflicts)
	assert.Equal(t, ConflictVertex, sel.Kind)
	assert.Equal(t, core.Cell{R: 1, C: 2}, sel.Cell)
	assert.Equal(t, 1, sel.Time)

	c1, c2 := sel.Constraints()
	assert.Equal(t, Constraint{Agent: '0', Cell: sel.Cell, Time: 1}, c1)
	assert.Equal(t, Constraint{Agent: '1', Cell: sel.Cell, Time: 1}, c2)
}

func TestDetectEdgeSwapConflict(t *testing.T) {
	level := agentsOnlyLevel(t)
	routes := map[core.AgentID]*Route{
		'0': walkRoute(t, '0', core.Cell{R: 1, C: 1}, core.Cell{R: 1, C: 2}),
		'1': walkRoute(t, '1', core.Cell{R: 1, C: 2}, core.Cell{R: 1, C: 1}),
	}
	conflicts := FindConflicts(level, routes, nil)
	require.NotEmpty(t, conflicts)
	assert.Positive(t, kinds(conflicts)[ConflictEdgeSwap])

	var swap Conflict
	for _, c := range conflicts {
		if c.Kind == ConflictEdgeSwap {
			swap = c
			break
		}
	}
	// Each agent is barred from its destination at arrival time.
	c1, c2 := swap.Constraints()
	assert.Equal(t, Constraint{Agent: '0', Cell: core.Cell{R: 1, C: 2}, Time: 1}, c1)
	assert.Equal(t, Constraint{Agent: '1', Cell: core.Cell{R: 1, C: 1}, Time: 1}, c2)
}

func TestDetectFollowConflict(t *testing.T) {
	level := agentsOnlyLevel(t)
	// Agent 1 trails straight into the cell agent 0 vacates.
	routes := map[core.AgentID]*Route{
		'0': walkRoute(t, '0', core.Cell{R: 1, C: 2}, core.Cell{R: 1, C: 3}),
		'1': walkRoute(t, '1', core.Cell{R: 1, C: 1}, core.Cell{R: 1, C: 2}),
	}
	conflicts := FindConflicts(level, routes, nil)
	require.NotEmpty(t, conflicts)
	assert.Positive(t, kinds(conflicts)[ConflictFollow])

	sel := selectConflict(conflicts)
	assert.Equal(t, ConflictFollow, sel.Kind)
	assert.Equal(t, core.Cell{R: 1, C: 2}, sel.Cell)
	assert.Equal(t, 1, sel.Time)
}

func TestDetectVirtualTailConflict(t *testing.T) {
	level := agentsOnlyLevel(t)
	// Agent 1's path ends at (1,3); agent 0 arrives there two steps later.
	routes := map[core.AgentID]*Route{
		'0': walkRoute(t, '0',
			core.Cell{R: 1, C: 1}, core.Cell{R: 1, C: 2}, core.Cell{R: 1, C: 3}),
		'1': walkRoute(t, '1', core.Cell{R: 1, C: 3}),
	}
	conflicts := FindConflicts(level, routes, nil)
	require.NotEmpty(t, conflicts, "resting agents must still collide")
}

func TestDetectAgentBoxConflict(t *testing.T) {
	level := mustLevel(t, `
#domain
hospital
#levelname
agentbox
#colors
blue: 0, A
red: 1
#initial
+++++++
+0A 1 +
+++++++
#goal
+++++++
+ 0 A +
+++++++
#end
`)
	owners := assignBoxes(level)
	s := searcherFor(level, '0')
	route0, err := s.findPath(nil, 64, 100000)
	require.NoError(t, err)

	routes := map[core.AgentID]*Route{
		'0': route0,
		'1': walkRoute(t, '1', core.Cell{R: 1, C: 4}),
	}
	conflicts := FindConflicts(level, routes, owners)
	require.NotEmpty(t, conflicts)
	assert.Positive(t, kinds(conflicts)[ConflictAgentBox],
		"pushing a box onto a resting agent must conflict")
}

func TestDetectBoxBoxConflict(t *testing.T) {
	level := mustLevel(t, `
#domain
hospital
#levelname
boxbox
#colors
blue: 0, A
red: 1, B
#initial
++++++++
+0A B  +
+   1  +
++++++++
#goal
++++++++
+   A  +
+   1  +
++++++++
#end
`)
	owners := assignBoxes(level)
	s := searcherFor(level, '0')
	route0, err := s.findPath(nil, 64, 100000)
	require.NoError(t, err)

	routes := map[core.AgentID]*Route{
		'0': route0,
		'1': walkRoute(t, '1', core.Cell{R: 2, C: 4}),
	}
	conflicts := FindConflicts(level, routes, owners)
	require.NotEmpty(t, conflicts)
	assert.Positive(t, kinds(conflicts)[ConflictBoxBox],
		"pushing a box onto a resting box must conflict")
}
