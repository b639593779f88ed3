package core

import "testing"

func TestAgentPathLocationAt(t *testing.T) {
	p := AgentPath{
		{Cell: Cell{R: 1, C: 1}, Time: 0},
		{Cell: Cell{R: 1, C: 2}, Time: 1},
		{Cell: Cell{R: 2, C: 2}, Time: 2},
	}

	if got := p.LocationAt(0); got != (Cell{R: 1, C: 1}) {
		t.Errorf("t=0: got %v", got)
	}
	if got := p.LocationAt(2); got != (Cell{R: 2, C: 2}) {
		t.Errorf("t=2: got %v", got)
	}
	// Virtual tail: the agent rests at its last cell indefinitely.
	if got := p.LocationAt(100); got != (Cell{R: 2, C: 2}) {
		t.Errorf("t=100: got %v", got)
	}
}

func TestAgentPathCost(t *testing.T) {
	if c := (AgentPath{}).Cost(); c != 0 {
		t.Errorf("empty path cost = %d", c)
	}
	single := AgentPath{{Cell: Cell{R: 1, C: 1}, Time: 0}}
	if c := single.Cost(); c != 0 {
		t.Errorf("single-entry path cost = %d", c)
	}
	three := AgentPath{
		{Cell: Cell{R: 0, C: 0}, Time: 0},
		{Cell: Cell{R: 0, C: 1}, Time: 1},
		{Cell: Cell{R: 0, C: 2}, Time: 2},
	}
	if c := three.Cost(); c != 2 {
		t.Errorf("three-entry path cost = %d", c)
	}
}

func TestSumOfCosts(t *testing.T) {
	paths := SolutionPaths{
		'0': {{Cell: Cell{}, Time: 0}, {Cell: Cell{C: 1}, Time: 1}},
		'1': {{Cell: Cell{R: 2}, Time: 0}},
	}
	if soc := paths.SumOfCosts(); soc != 1 {
		t.Errorf("sum of costs = %d", soc)
	}
	if maxT := paths.MaxTime(); maxT != 1 {
		t.Errorf("max time = %d", maxT)
	}
}

func TestJointActionFormat(t *testing.T) {
	row := JointAction{MoveN, NoOp, PushEE}
	if got := row.Format(); got != "Move(N)|NoOp|Push(E,E)" {
		t.Errorf("row format = %q", got)
	}

	plan := Plan{
		{MoveE, MoveW},
		{NoOp, PullSS},
	}
	want := "Move(E)|Move(W)\nNoOp|Pull(S,S)"
	if got := plan.Format(); got != want {
		t.Errorf("plan format = %q", got)
	}
}
