// Package levelio reads and writes hospital-domain level files.
//
// A level file has five sections, each introduced by a header line:
//
//	#domain / #levelname / #colors / #initial / #goal, closed by #end.
//
// Walls are '+', agents '0'-'9', boxes 'A'-'Z'. The goal section repeats the
// layout with goal cells marked by the entity symbol.
package levelio

import (
	"bufio"
	"io"
	"strings"

	"github.com/pkg/errors"

	"github.com/elektrokombinacija/warehouse-mapf/internal/core"
)

const wallRune = '+'

// Parse reads a level and returns a validated immutable core.Level. Lines
// are consumed one at a time so that, on a live server connection, nothing
// past the closing #end header is read.
func Parse(r io.Reader) (*core.Level, error) {
	br, ok := r.(*bufio.Reader)
	if !ok {
		br = bufio.NewReader(r)
	}

	p := &parser{r: br}
	level, err := p.parse()
	if err != nil {
		return nil, errors.Wrap(err, "malformed level")
	}
	if err := level.Validate(); err != nil {
		return nil, errors.Wrap(err, "malformed level")
	}
	return level, nil
}

type parser struct {
	r    *bufio.Reader
	line string
}

func (p *parser) next() bool {
	line, err := p.r.ReadString('\n')
	if line == "" && err != nil {
		return false
	}
	p.line = strings.TrimRight(line, "\r\n")
	return true
}

func (p *parser) expectHeader(name string) error {
	if !p.next() {
		return errors.Errorf("unexpected end of input, wanted %s", name)
	}
	if strings.TrimSpace(p.line) != name {
		return errors.Errorf("expected %s, got %q", name, p.line)
	}
	return nil
}

func (p *parser) parse() (*core.Level, error) {
	if err := p.expectHeader("#domain"); err != nil {
		return nil, err
	}
	if !p.next() {
		return nil, errors.New("missing domain")
	}
	domain := strings.TrimSpace(p.line)

	if err := p.expectHeader("#levelname"); err != nil {
		return nil, err
	}
	if !p.next() {
		return nil, errors.New("missing level name")
	}
	name := strings.TrimSpace(p.line)

	if err := p.expectHeader("#colors"); err != nil {
		return nil, err
	}
	agentColors, boxColors, err := p.parseColors()
	if err != nil {
		return nil, err
	}

	// parseColors stops on the #initial header.
	initialLines, err := p.parseLayout()
	if err != nil {
		return nil, err
	}
	goalLines, err := p.parseLayout()
	if err != nil {
		return nil, err
	}

	return buildLevel(domain, name, agentColors, boxColors, initialLines, goalLines)
}

// parseColors reads "color: e1, e2, ..." lines until the next header.
func (p *parser) parseColors() (map[core.AgentID]core.Color, map[core.BoxID]core.Color, error) {
	agentColors := make(map[core.AgentID]core.Color)
	boxColors := make(map[core.BoxID]core.Color)

	for p.next() {
		if strings.HasPrefix(p.line, "#") {
			if strings.TrimSpace(p.line) != "#initial" {
				return nil, nil, errors.Errorf("expected #initial, got %q", p.line)
			}
			return agentColors, boxColors, nil
		}
		colorStr, entities, ok := strings.Cut(p.line, ":")
		if !ok {
			return nil, nil, errors.Errorf("bad color line %q", p.line)
		}
		color, ok := core.ParseColor(colorStr)
		if !ok {
			return nil, nil, errors.Errorf("unknown color %q", colorStr)
		}
		for _, ent := range strings.Split(entities, ",") {
			ent = strings.TrimSpace(ent)
			if len(ent) != 1 {
				return nil, nil, errors.Errorf("bad entity %q in color line", ent)
			}
			switch b := ent[0]; {
			case core.IsAgentSymbol(b):
				agentColors[core.AgentID(b)] = color
			case core.IsBoxSymbol(b):
				boxColors[core.BoxID(b)] = color
			default:
				return nil, nil, errors.Errorf("bad entity symbol %q", ent)
			}
		}
	}
	return nil, nil, errors.New("unexpected end of input in #colors")
}

// parseLayout reads layout lines until the next header line.
func (p *parser) parseLayout() ([]string, error) {
	var lines []string
	for p.next() {
		if strings.HasPrefix(p.line, "#") {
			if len(lines) == 0 {
				return nil, errors.New("empty layout section")
			}
			return lines, nil
		}
		lines = append(lines, p.line)
	}
	return nil, errors.New("unexpected end of input in layout section")
}

func buildLevel(domain, name string,
	agentColors map[core.AgentID]core.Color, boxColors map[core.BoxID]core.Color,
	initialLines, goalLines []string) (*core.Level, error) {

	rows := len(initialLines)
	cols := 0
	for _, l := range initialLines {
		if len(l) > cols {
			cols = len(l)
		}
	}
	grid := core.NewGrid(rows, cols)

	agentStarts := make(map[core.AgentID]core.Cell)
	var boxes []core.Box

	for r, line := range initialLines {
		for c := 0; c < len(line); c++ {
			cell := core.Cell{R: r, C: c}
			switch b := line[c]; {
			case b == wallRune:
				grid.SetWall(cell)
			case core.IsAgentSymbol(b):
				id := core.AgentID(b)
				if _, dup := agentStarts[id]; dup {
					return nil, errors.Errorf("agent %q appears twice", b)
				}
				agentStarts[id] = cell
			case core.IsBoxSymbol(b):
				boxes = append(boxes, core.Box{
					Index: core.BoxIndex(len(boxes)),
					ID:    core.BoxID(b),
					Start: cell,
				})
			}
		}
	}

	agentGoals := make(map[core.AgentID]core.Cell)
	boxGoals := make(map[core.BoxID][]core.Cell)
	for r, line := range goalLines {
		for c := 0; c < len(line); c++ {
			cell := core.Cell{R: r, C: c}
			switch b := line[c]; {
			case core.IsAgentSymbol(b):
				id := core.AgentID(b)
				if _, dup := agentGoals[id]; dup {
					return nil, errors.Errorf("agent goal %q appears twice", b)
				}
				agentGoals[id] = cell
			case core.IsBoxSymbol(b):
				id := core.BoxID(b)
				boxGoals[id] = append(boxGoals[id], cell)
			}
		}
	}

	var agents []core.Agent
	for id := core.AgentID('0'); id <= '9'; id++ {
		start, ok := agentStarts[id]
		if !ok {
			continue
		}
		color, ok := agentColors[id]
		if !ok {
			return nil, errors.Errorf("agent %q has no color", byte(id))
		}
		a := core.Agent{ID: id, Color: color, Start: start}
		if goal, ok := agentGoals[id]; ok {
			a.Goal, a.HasGoal = goal, true
		}
		agents = append(agents, a)
	}
	if len(agents) == 0 {
		return nil, errors.New("level has no agents")
	}
	for id := range agentGoals {
		if _, ok := agentStarts[id]; !ok {
			return nil, errors.Errorf("goal for missing agent %q", byte(id))
		}
	}

	// Pair the i-th goal cell of a symbol with the i-th box of that symbol,
	// both in row-major order.
	assigned := make(map[core.BoxID]int)
	for i := range boxes {
		b := &boxes[i]
		color, ok := boxColors[b.ID]
		if !ok {
			return nil, errors.Errorf("box %q has no color", byte(b.ID))
		}
		b.Color = color
		goals := boxGoals[b.ID]
		if n := assigned[b.ID]; n < len(goals) {
			b.Goal, b.HasGoal = goals[n], true
			assigned[b.ID] = n + 1
		}
	}
	for id, goals := range boxGoals {
		if assigned[id] < len(goals) {
			return nil, errors.Errorf("more %q goals than boxes", byte(id))
		}
	}

	return &core.Level{
		Domain: domain,
		Name:   name,
		Grid:   grid,
		Agents: agents,
		Boxes:  boxes,
	}, nil
}
