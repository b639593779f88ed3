package main

import (
	"math/rand"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/elektrokombinacija/warehouse-mapf/internal/core"
	"github.com/elektrokombinacija/warehouse-mapf/internal/levelio"
)

func newGenCmd(root *rootOptions) *cobra.Command {
	var (
		rows, cols  int
		agents      int
		boxes       int
		colors      int
		wallDensity float64
		seed        int64
		name        string
		out         string
	)

	cmd := &cobra.Command{
		Use:   "gen",
		Short: "Generate a random warehouse level",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if agents < 1 || agents > 10 {
				return errors.New("agents must be between 1 and 10")
			}
			if colors < 1 || colors > agents {
				colors = agents
			}
			level, err := generateLevel(rows, cols, agents, boxes, colors, wallDensity, seed, name)
			if err != nil {
				return err
			}

			w := os.Stdout
			if out != "" {
				f, err := os.Create(out)
				if err != nil {
					return errors.Wrap(err, "creating output file")
				}
				defer f.Close()
				w = f
			}
			if err := levelio.Write(w, level); err != nil {
				return err
			}
			root.log.WithField("level", level.String()).Info("level generated")
			return nil
		},
	}

	cmd.Flags().IntVar(&rows, "rows", 10, "grid rows")
	cmd.Flags().IntVar(&cols, "cols", 10, "grid columns")
	cmd.Flags().IntVar(&agents, "agents", 2, "number of agents (1-10)")
	cmd.Flags().IntVar(&boxes, "boxes", 2, "number of boxes")
	cmd.Flags().IntVar(&colors, "colors", 0, "number of colors (default: one per agent)")
	cmd.Flags().Float64Var(&wallDensity, "wall-density", 0.1, "interior wall probability")
	cmd.Flags().Int64Var(&seed, "seed", 1, "random seed")
	cmd.Flags().StringVar(&name, "name", "generated", "level name")
	cmd.Flags().StringVar(&out, "out", "", "output file (default stdout)")
	return cmd
}

var genPalette = []core.Color{
	core.Blue, core.Red, core.Green, core.Orange, core.Purple,
	core.Cyan, core.Pink, core.Grey, core.Lightblue, core.Brown,
}

// generateLevel builds a bordered grid with random interior walls and places
// all entities inside one connected region so every placement is reachable.
func generateLevel(rows, cols, nAgents, nBoxes, nColors int, density float64, seed int64, name string) (*core.Level, error) {
	if rows < 3 || cols < 3 {
		return nil, errors.New("grid must be at least 3x3")
	}
	rng := rand.New(rand.NewSource(seed))

	grid := core.NewGrid(rows, cols)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			cell := core.Cell{R: r, C: c}
			border := r == 0 || c == 0 || r == rows-1 || c == cols-1
			if border || rng.Float64() < density {
				grid.SetWall(cell)
			}
		}
	}

	region := largestRegion(grid)
	// Two cells per agent and per box: a start and a goal.
	if len(region) < 2*(nAgents+nBoxes) {
		return nil, errors.New("not enough free space; lower wall density or entity counts")
	}
	rng.Shuffle(len(region), func(i, j int) { region[i], region[j] = region[j], region[i] })

	next := 0
	take := func() core.Cell {
		c := region[next]
		next++
		return c
	}

	level := &core.Level{Domain: "hospital", Name: name, Grid: grid}
	for i := 0; i < nAgents; i++ {
		level.Agents = append(level.Agents, core.Agent{
			ID:      core.AgentID('0' + i),
			Color:   genPalette[i%nColors],
			Start:   take(),
			Goal:    take(),
			HasGoal: true,
		})
	}
	for i := 0; i < nBoxes; i++ {
		color := genPalette[rng.Intn(nColors)]
		level.Boxes = append(level.Boxes, core.Box{
			Index:   core.BoxIndex(i),
			ID:      core.BoxID('A' + i%26),
			Color:   color,
			Start:   take(),
			Goal:    take(),
			HasGoal: true,
		})
	}
	sortBoxesRowMajor(level)

	if err := level.Validate(); err != nil {
		return nil, err
	}
	return level, nil
}

// largestRegion returns the biggest 4-connected free region.
func largestRegion(grid *core.Grid) []core.Cell {
	visited := make(map[core.Cell]bool)
	var best []core.Cell

	for r := 0; r < grid.Rows(); r++ {
		for c := 0; c < grid.Cols(); c++ {
			start := core.Cell{R: r, C: c}
			if !grid.Free(start) || visited[start] {
				continue
			}
			var region []core.Cell
			queue := []core.Cell{start}
			visited[start] = true
			for len(queue) > 0 {
				cur := queue[0]
				queue = queue[1:]
				region = append(region, cur)
				for _, n := range grid.Neighbors(cur) {
					if !visited[n] {
						visited[n] = true
						queue = append(queue, n)
					}
				}
			}
			if len(region) > len(best) {
				best = region
			}
		}
	}
	return best
}

// sortBoxesRowMajor restores the row-major box order Parse produces and
// renumbers the indices accordingly.
func sortBoxesRowMajor(level *core.Level) {
	boxes := level.Boxes
	for i := 1; i < len(boxes); i++ {
		for j := i; j > 0; j-- {
			a, b := boxes[j-1].Start, boxes[j].Start
			if a.R < b.R || (a.R == b.R && a.C < b.C) {
				break
			}
			boxes[j-1], boxes[j] = boxes[j], boxes[j-1]
		}
	}
	for i := range boxes {
		boxes[i].Index = core.BoxIndex(i)
	}
}
