package core

import (
	"fmt"

	"github.com/pkg/errors"
)

// Level is a complete problem instance: static geometry plus the initial and
// goal placements of agents and boxes. Levels are immutable after
// construction; every searcher receives a shared handle.
type Level struct {
	Domain string
	Name   string

	Grid   *Grid
	Agents []Agent // sorted by ID
	Boxes  []Box   // row-major discovery order, Index == slice position
}

// AgentByID finds an agent by symbol.
func (l *Level) AgentByID(id AgentID) (Agent, bool) {
	for _, a := range l.Agents {
		if a.ID == id {
			return a, true
		}
	}
	return Agent{}, false
}

// AgentsOfColor returns the agents of a color in ID order.
func (l *Level) AgentsOfColor(c Color) []Agent {
	var out []Agent
	for _, a := range l.Agents {
		if a.Color == c {
			out = append(out, a)
		}
	}
	return out
}

// HasAgentOfColor reports whether any agent shares the color. Boxes whose
// color no agent carries can never move.
func (l *Level) HasAgentOfColor(c Color) bool {
	for _, a := range l.Agents {
		if a.Color == c {
			return true
		}
	}
	return false
}

// StaticBoxCells returns the cells of boxes no agent can ever move. The low
// level treats these as additional walls.
func (l *Level) StaticBoxCells() []Cell {
	var out []Cell
	for _, b := range l.Boxes {
		if !l.HasAgentOfColor(b.Color) {
			out = append(out, b.Start)
		}
	}
	return out
}

// Validate checks instance consistency: symbols in range, agents sorted and
// unique, entities on free cells, goals in bounds.
func (l *Level) Validate() error {
	if l.Grid == nil || l.Grid.Rows() == 0 || l.Grid.Cols() == 0 {
		return errors.New("level has an empty grid")
	}
	var prev AgentID
	for i, a := range l.Agents {
		if !IsAgentSymbol(byte(a.ID)) {
			return errors.Errorf("invalid agent symbol %q", byte(a.ID))
		}
		if i > 0 && a.ID <= prev {
			return errors.Errorf("agents not sorted or duplicated at %q", byte(a.ID))
		}
		prev = a.ID
		if !l.Grid.Free(a.Start) {
			return errors.Errorf("agent %q starts on a wall at %v", byte(a.ID), a.Start)
		}
		if a.HasGoal && !l.Grid.Free(a.Goal) {
			return errors.Errorf("agent %q goal is a wall at %v", byte(a.ID), a.Goal)
		}
	}
	seen := make(map[Cell]byte, len(l.Agents)+len(l.Boxes))
	for _, a := range l.Agents {
		seen[a.Start] = byte(a.ID)
	}
	for i, b := range l.Boxes {
		if !IsBoxSymbol(byte(b.ID)) {
			return errors.Errorf("invalid box symbol %q", byte(b.ID))
		}
		if b.Index != BoxIndex(i) {
			return errors.Errorf("box %q has index %d at position %d", byte(b.ID), b.Index, i)
		}
		if !l.Grid.Free(b.Start) {
			return errors.Errorf("box %q starts on a wall at %v", byte(b.ID), b.Start)
		}
		if other, ok := seen[b.Start]; ok {
			return errors.Errorf("box %q overlaps entity %q at %v", byte(b.ID), other, b.Start)
		}
		seen[b.Start] = byte(b.ID)
		if b.HasGoal && !l.Grid.Free(b.Goal) {
			return errors.Errorf("box %q goal is a wall at %v", byte(b.ID), b.Goal)
		}
	}
	return nil
}

func (l *Level) String() string {
	return fmt.Sprintf("Level(%s, %s, %dx%d, %d agents, %d boxes)",
		l.Domain, l.Name, l.Grid.Rows(), l.Grid.Cols(), len(l.Agents), len(l.Boxes))
}
