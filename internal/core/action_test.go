package core

import "testing"

func TestActionCatalogueSize(t *testing.T) {
	if len(Actions) != 29 {
		t.Errorf("expected 29 actions, got %d", len(Actions))
	}

	counts := map[ActionType]int{}
	for _, a := range Actions {
		counts[a.Type]++
	}
	if counts[ActionNoOp] != 1 || counts[ActionMove] != 4 ||
		counts[ActionPush] != 12 || counts[ActionPull] != 12 {
		t.Errorf("unexpected catalogue shape: %v", counts)
	}
}

func TestActionDeltas(t *testing.T) {
	if NoOp.AgentDelta != (Cell{}) || NoOp.BoxDelta != (Cell{}) {
		t.Error("NoOp must have zero deltas")
	}
	for _, a := range Actions {
		switch a.Type {
		case ActionMove:
			if a.BoxDelta != (Cell{}) {
				t.Errorf("%s: move must not displace a box", a.Name)
			}
		case ActionPush, ActionPull:
			// The box never moves through the agent.
			opposite := Cell{R: -a.AgentDelta.R, C: -a.AgentDelta.C}
			if a.BoxDelta == opposite {
				t.Errorf("%s: box delta opposes agent delta", a.Name)
			}
			if a.BoxDelta == (Cell{}) {
				t.Errorf("%s: push/pull must displace a box", a.Name)
			}
		}
	}
}

func TestActionNames(t *testing.T) {
	cases := map[string]*Action{
		"NoOp":      NoOp,
		"Move(N)":   MoveN,
		"Push(E,E)": PushEE,
		"Pull(W,S)": PullWS,
	}
	for name, want := range cases {
		got, ok := ActionByName(name)
		if !ok || got != want {
			t.Errorf("ActionByName(%q) = %v, %v", name, got, ok)
		}
	}
	if _, ok := ActionByName("Push(N,S)"); ok {
		t.Error("Push(N,S) must not exist in the catalogue")
	}
}

func TestDirectionDeltas(t *testing.T) {
	if (MoveN.AgentDelta != Cell{R: -1}) || (MoveS.AgentDelta != Cell{R: 1}) ||
		(MoveE.AgentDelta != Cell{C: 1}) || (MoveW.AgentDelta != Cell{C: -1}) {
		t.Error("move deltas do not match the row-major convention")
	}
	for _, d := range Directions {
		if d.Opposite().Opposite() != d {
			t.Errorf("%v: opposite is not an involution", d)
		}
	}
}
