// Package sim executes joint plans against a level, enforcing the domain's
// action legality and joint conflict rules step by step.
package sim

import (
	"github.com/pkg/errors"

	"github.com/elektrokombinacija/warehouse-mapf/internal/core"
)

// State is the mutable world state during plan execution.
type State struct {
	level  *core.Level
	Agents []core.Cell // indexed like level.Agents
	Boxes  []core.Cell // indexed by core.BoxIndex
	Time   int
}

// NewState places every entity at its start cell.
func NewState(level *core.Level) *State {
	s := &State{
		level:  level,
		Agents: make([]core.Cell, len(level.Agents)),
		Boxes:  make([]core.Cell, len(level.Boxes)),
	}
	for i, a := range level.Agents {
		s.Agents[i] = a.Start
	}
	for i, b := range level.Boxes {
		s.Boxes[i] = b.Start
	}
	return s
}

type occupant struct {
	isAgent bool
	idx     int
}

func (s *State) occupancy() map[core.Cell]occupant {
	occ := make(map[core.Cell]occupant, len(s.Agents)+len(s.Boxes))
	for i, c := range s.Agents {
		occ[c] = occupant{isAgent: true, idx: i}
	}
	for i, c := range s.Boxes {
		occ[c] = occupant{idx: i}
	}
	return occ
}

// Apply executes one joint-action row. Every action is checked against the
// current state; entering a cell occupied at the start of the step is
// illegal even when its occupant moves away, which enforces the vertex,
// swap, and follow rules in one place.
func (s *State) Apply(row core.JointAction) error {
	if len(row) != len(s.Agents) {
		return errors.Errorf("row has %d actions for %d agents", len(row), len(s.Agents))
	}
	occ := s.occupancy()

	type move struct {
		agentIdx  int
		agentDest core.Cell
		boxIdx    int // -1 when no box moves
		boxDest   core.Cell
	}
	moves := make([]move, len(row))
	claimed := make(map[core.Cell]int)

	claim := func(c core.Cell, agentIdx int) error {
		if prev, dup := claimed[c]; dup {
			return errors.Errorf("agents %q and %q both claim %v",
				byte(s.level.Agents[prev].ID), byte(s.level.Agents[agentIdx].ID), c)
		}
		claimed[c] = agentIdx
		return nil
	}

	for i, act := range row {
		agent := s.level.Agents[i]
		pos := s.Agents[i]
		m := move{agentIdx: i, agentDest: pos, boxIdx: -1}

		switch act.Type {
		case core.ActionNoOp:

		case core.ActionMove:
			dest := pos.Add(act.AgentDelta)
			if !s.level.Grid.Free(dest) {
				return errors.Errorf("agent %q moves into a wall at %v", byte(agent.ID), dest)
			}
			if _, busy := occ[dest]; busy {
				return errors.Errorf("agent %q moves into occupied cell %v", byte(agent.ID), dest)
			}
			m.agentDest = dest

		case core.ActionPush:
			boxCell := pos.Add(act.AgentDelta)
			o, ok := occ[boxCell]
			if !ok || o.isAgent {
				return errors.Errorf("agent %q pushes but no box at %v", byte(agent.ID), boxCell)
			}
			if s.level.Boxes[o.idx].Color != agent.Color {
				return errors.Errorf("agent %q pushes box of different color at %v", byte(agent.ID), boxCell)
			}
			boxDest := boxCell.Add(act.BoxDelta)
			if !s.level.Grid.Free(boxDest) {
				return errors.Errorf("agent %q pushes box into a wall at %v", byte(agent.ID), boxDest)
			}
			if _, busy := occ[boxDest]; busy {
				return errors.Errorf("agent %q pushes box into occupied cell %v", byte(agent.ID), boxDest)
			}
			m.agentDest = boxCell
			m.boxIdx = o.idx
			m.boxDest = boxDest

		case core.ActionPull:
			boxCell := pos.Sub(act.BoxDelta)
			o, ok := occ[boxCell]
			if !ok || o.isAgent {
				return errors.Errorf("agent %q pulls but no box at %v", byte(agent.ID), boxCell)
			}
			if s.level.Boxes[o.idx].Color != agent.Color {
				return errors.Errorf("agent %q pulls box of different color at %v", byte(agent.ID), boxCell)
			}
			dest := pos.Add(act.AgentDelta)
			if !s.level.Grid.Free(dest) {
				return errors.Errorf("agent %q pulls into a wall at %v", byte(agent.ID), dest)
			}
			if _, busy := occ[dest]; busy {
				return errors.Errorf("agent %q pulls into occupied cell %v", byte(agent.ID), dest)
			}
			m.agentDest = dest
			m.boxIdx = o.idx
			m.boxDest = pos
		}

		if m.agentDest != pos {
			if err := claim(m.agentDest, i); err != nil {
				return err
			}
		}
		if m.boxIdx >= 0 {
			if err := claim(m.boxDest, i); err != nil {
				return err
			}
		}
		moves[i] = m
	}

	for _, m := range moves {
		s.Agents[m.agentIdx] = m.agentDest
		if m.boxIdx >= 0 {
			s.Boxes[m.boxIdx] = m.boxDest
		}
	}
	s.Time++
	return nil
}

// GoalsSatisfied reports whether every agent and box with a goal is on it.
// Any box of the right symbol satisfies a box goal cell.
func (s *State) GoalsSatisfied() bool {
	for i, a := range s.level.Agents {
		if a.HasGoal && s.Agents[i] != a.Goal {
			return false
		}
	}
	for _, b := range s.level.Boxes {
		if !b.HasGoal {
			continue
		}
		satisfied := false
		for j, other := range s.level.Boxes {
			if other.ID == b.ID && s.Boxes[j] == b.Goal {
				satisfied = true
				break
			}
		}
		if !satisfied {
			return false
		}
	}
	return true
}

// Validate replays a complete plan from the initial state and checks that
// every step is legal and the terminal state satisfies all goals.
func Validate(level *core.Level, plan core.Plan) (*State, error) {
	s := NewState(level)
	for t, row := range plan {
		if err := s.Apply(row); err != nil {
			return nil, errors.Wrapf(err, "step %d", t)
		}
	}
	if !s.GoalsSatisfied() {
		return nil, errors.New("terminal state does not satisfy all goals")
	}
	return s, nil
}
