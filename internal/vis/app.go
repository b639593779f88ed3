// Package vis implements a Gio-based playback visualizer for solved plans.
package vis

import (
	"gioui.org/app"
	"gioui.org/io/event"
	"gioui.org/io/key"
	"gioui.org/op"

	"github.com/elektrokombinacija/warehouse-mapf/internal/core"
	"github.com/elektrokombinacija/warehouse-mapf/internal/sim"
)

// App renders a level and plays a joint plan back with keyboard transport:
// space toggles playback, the arrow keys step, Home rewinds.
type App struct {
	level    *core.Level
	playback *Playback

	// Entity positions per plan step, step 0 being the initial state.
	agentFrames [][]core.Cell
	boxFrames   [][]core.Cell
}

// NewApp precomputes the entity positions for every step of the plan.
func NewApp(level *core.Level, plan core.Plan) (*App, error) {
	a := &App{
		level:    level,
		playback: NewPlayback(len(plan)),
	}

	state := sim.NewState(level)
	a.pushFrame(state)
	for _, row := range plan {
		if err := state.Apply(row); err != nil {
			return nil, err
		}
		a.pushFrame(state)
	}
	return a, nil
}

func (a *App) pushFrame(state *sim.State) {
	agents := make([]core.Cell, len(state.Agents))
	copy(agents, state.Agents)
	boxes := make([]core.Cell, len(state.Boxes))
	copy(boxes, state.Boxes)
	a.agentFrames = append(a.agentFrames, agents)
	a.boxFrames = append(a.boxFrames, boxes)
}

// Run starts the application event loop.
func (a *App) Run(w *app.Window) error {
	var ops op.Ops
	tag := new(int)

	for {
		switch e := w.Event().(type) {
		case app.DestroyEvent:
			return e.Err

		case app.FrameEvent:
			gtx := app.NewContext(&ops, e)

			for {
				ev, ok := gtx.Event(key.Filter{Focus: tag})
				if !ok {
					break
				}
				if ke, ok := ev.(key.Event); ok && ke.State == key.Press {
					a.handleKey(ke)
				}
			}
			event.Op(gtx.Ops, tag)

			s := newScene(gtx, a.level.Grid)
			drawLevel(gtx, s, a.level)
			step := a.playback.Step()
			drawEntities(gtx, s, a.level, a.agentFrames[step], a.boxFrames[step])

			e.Frame(gtx.Ops)

			if a.playback.Playing {
				a.playback.Advance()
				w.Invalidate()
			}
		}
	}
}

func (a *App) handleKey(e key.Event) {
	switch e.Name {
	case key.NameSpace:
		a.playback.TogglePlay()
	case key.NameLeftArrow:
		a.playback.StepBack()
	case key.NameRightArrow:
		a.playback.StepForward()
	case key.NameHome:
		a.playback.Reset()
	}
}
