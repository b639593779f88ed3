package levelio

import (
	"fmt"
	"io"
	"sort"

	"github.com/elektrokombinacija/warehouse-mapf/internal/core"
)

// Write renders a level in the file format Parse reads.
func Write(w io.Writer, level *core.Level) error {
	if _, err := fmt.Fprintf(w, "#domain\n%s\n#levelname\n%s\n#colors\n", level.Domain, level.Name); err != nil {
		return err
	}

	byColor := make(map[core.Color][]byte)
	for _, a := range level.Agents {
		byColor[a.Color] = append(byColor[a.Color], byte(a.ID))
	}
	seenBox := make(map[core.BoxID]bool)
	for _, b := range level.Boxes {
		if !seenBox[b.ID] {
			seenBox[b.ID] = true
			byColor[b.Color] = append(byColor[b.Color], byte(b.ID))
		}
	}
	colors := make([]string, 0, len(byColor))
	for c := range byColor {
		colors = append(colors, string(c))
	}
	sort.Strings(colors)
	for _, c := range colors {
		symbols := byColor[core.Color(c)]
		sort.Slice(symbols, func(i, j int) bool { return symbols[i] < symbols[j] })
		line := make([]string, len(symbols))
		for i, s := range symbols {
			line[i] = string(s)
		}
		if _, err := fmt.Fprintf(w, "%s: %s\n", c, joinComma(line)); err != nil {
			return err
		}
	}

	if _, err := io.WriteString(w, "#initial\n"); err != nil {
		return err
	}
	if err := writeLayout(w, level, true); err != nil {
		return err
	}
	if _, err := io.WriteString(w, "#goal\n"); err != nil {
		return err
	}
	if err := writeLayout(w, level, false); err != nil {
		return err
	}
	_, err := io.WriteString(w, "#end\n")
	return err
}

func writeLayout(w io.Writer, level *core.Level, initial bool) error {
	rows, cols := level.Grid.Rows(), level.Grid.Cols()
	grid := make([][]byte, rows)
	for r := range grid {
		grid[r] = make([]byte, cols)
		for c := range grid[r] {
			if level.Grid.Wall(core.Cell{R: r, C: c}) {
				grid[r][c] = '+'
			} else {
				grid[r][c] = ' '
			}
		}
	}
	for _, a := range level.Agents {
		if initial {
			grid[a.Start.R][a.Start.C] = byte(a.ID)
		} else if a.HasGoal {
			grid[a.Goal.R][a.Goal.C] = byte(a.ID)
		}
	}
	for _, b := range level.Boxes {
		if initial {
			grid[b.Start.R][b.Start.C] = byte(b.ID)
		} else if b.HasGoal {
			grid[b.Goal.R][b.Goal.C] = byte(b.ID)
		}
	}
	for _, row := range grid {
		if _, err := fmt.Fprintf(w, "%s\n", row); err != nil {
			return err
		}
	}
	return nil
}

func joinComma(parts []string) string {
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += ", "
		}
		out += p
	}
	return out
}
