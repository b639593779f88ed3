package vis

import (
	"image"
	"image/color"

	"gioui.org/layout"
	"gioui.org/op/clip"
	"gioui.org/op/paint"

	"github.com/elektrokombinacija/warehouse-mapf/internal/core"
)

var (
	colorBackground = color.NRGBA{R: 30, G: 30, B: 35, A: 255}
	colorFloor      = color.NRGBA{R: 48, G: 52, B: 58, A: 255}
	colorWall       = color.NRGBA{R: 20, G: 20, B: 24, A: 255}
	colorGoal       = color.NRGBA{R: 90, G: 120, B: 90, A: 255}
)

// entityColors maps domain colors to screen colors.
var entityColors = map[core.Color]color.NRGBA{
	core.Blue:      {R: 90, G: 160, B: 255, A: 255},
	core.Red:       {R: 235, G: 90, B: 90, A: 255},
	core.Cyan:      {R: 100, G: 220, B: 220, A: 255},
	core.Purple:    {R: 180, G: 110, B: 235, A: 255},
	core.Green:     {R: 110, G: 210, B: 110, A: 255},
	core.Orange:    {R: 245, G: 160, B: 70, A: 255},
	core.Pink:      {R: 245, G: 130, B: 190, A: 255},
	core.Grey:      {R: 150, G: 150, B: 150, A: 255},
	core.Lightblue: {R: 160, G: 200, B: 245, A: 255},
	core.Brown:     {R: 160, G: 120, B: 80, A: 255},
}

func entityColor(c core.Color) color.NRGBA {
	if col, ok := entityColors[c]; ok {
		return col
	}
	return color.NRGBA{R: 200, G: 200, B: 200, A: 255}
}

// scene positions the grid inside the window.
type scene struct {
	cell float32
	offX float32
	offY float32
}

func newScene(gtx layout.Context, grid *core.Grid) scene {
	w := float32(gtx.Constraints.Max.X)
	h := float32(gtx.Constraints.Max.Y)
	cell := w / float32(grid.Cols())
	if other := h / float32(grid.Rows()); other < cell {
		cell = other
	}
	return scene{
		cell: cell,
		offX: (w - cell*float32(grid.Cols())) / 2,
		offY: (h - cell*float32(grid.Rows())) / 2,
	}
}

func (s scene) rect(c core.Cell, inset float32) image.Rectangle {
	x0 := s.offX + float32(c.C)*s.cell + inset
	y0 := s.offY + float32(c.R)*s.cell + inset
	x1 := s.offX + float32(c.C+1)*s.cell - inset
	y1 := s.offY + float32(c.R+1)*s.cell - inset
	return image.Rect(int(x0), int(y0), int(x1), int(y1))
}

func fillRect(gtx layout.Context, r image.Rectangle, col color.NRGBA) {
	paint.FillShape(gtx.Ops, col, clip.Rect(r).Op())
}

func strokeRect(gtx layout.Context, r image.Rectangle, width float32, col color.NRGBA) {
	rr := clip.RRect{Rect: r}
	paint.FillShape(gtx.Ops, col, clip.Stroke{Path: rr.Path(gtx.Ops), Width: width}.Op())
}

func fillCircle(gtx layout.Context, cx, cy, radius float32, col color.NRGBA) {
	r := image.Rect(int(cx-radius), int(cy-radius), int(cx+radius), int(cy+radius))
	paint.FillShape(gtx.Ops, col, clip.Ellipse(r).Op())
}

// drawLevel renders the static level: floor, walls, and goal markers.
func drawLevel(gtx layout.Context, s scene, level *core.Level) {
	paint.Fill(gtx.Ops, colorBackground)

	for r := 0; r < level.Grid.Rows(); r++ {
		for c := 0; c < level.Grid.Cols(); c++ {
			cell := core.Cell{R: r, C: c}
			col := colorFloor
			if level.Grid.Wall(cell) {
				col = colorWall
			}
			fillRect(gtx, s.rect(cell, 1), col)
		}
	}

	for _, a := range level.Agents {
		if a.HasGoal {
			strokeRect(gtx, s.rect(a.Goal, s.cell*0.12), 2, colorGoal)
		}
	}
	for _, b := range level.Boxes {
		if b.HasGoal {
			strokeRect(gtx, s.rect(b.Goal, s.cell*0.12), 2, entityColor(b.Color))
		}
	}
}

// drawEntities renders agents and boxes at the given cells.
func drawEntities(gtx layout.Context, s scene, level *core.Level, agents, boxes []core.Cell) {
	for i, b := range level.Boxes {
		fillRect(gtx, s.rect(boxes[i], s.cell*0.18), entityColor(b.Color))
	}
	for i, a := range level.Agents {
		c := agents[i]
		cx := s.offX + (float32(c.C)+0.5)*s.cell
		cy := s.offY + (float32(c.R)+0.5)*s.cell
		fillCircle(gtx, cx, cy, s.cell*0.32, entityColor(a.Color))
	}
}
