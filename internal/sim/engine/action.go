package engine

import "fmt"

// Action is one agent's input for a single step. The zero value is NoOp so a
// missing action defaults to doing nothing.
type Action uint8

const (
	NoOp Action = iota
	Forward
	Backward
	StepLeft
	StepRight
	TurnLeft
	TurnRight
	Zap

	actionCount
)

var actionNames = [actionCount]string{
	NoOp:      "NOOP",
	Forward:   "FORWARD",
	Backward:  "BACKWARD",
	StepLeft:  "STEP_LEFT",
	StepRight: "STEP_RIGHT",
	TurnLeft:  "TURN_LEFT",
	TurnRight: "TURN_RIGHT",
	Zap:       "ZAP",
}

func (a Action) Valid() bool { return a < actionCount }

func (a Action) String() string {
	if !a.Valid() {
		return fmt.Sprintf("Action(%d)", uint8(a))
	}
	return actionNames[a]
}

// ParseAction maps a wire/log name back to an Action.
func ParseAction(s string) (Action, error) {
	for a, name := range actionNames {
		if s == name {
			return Action(a), nil
		}
	}
	return 0, fmt.Errorf("unknown action %q", s)
}

// Actions lists every valid action, in wire order.
func Actions() []Action {
	out := make([]Action, actionCount)
	for i := range out {
		out[i] = Action(i)
	}
	return out
}
