// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package harvest

// State is the lifecycle position of one query run.
type State int

const (
	StateIdle State = iota
	StateFetching
	StateParsing
	StateDispatching
	StateAwaiting
	StateDone
	StateFailed
)

var stateNames = [...]string{
	StateIdle:        "idle",
	StateFetching:    "fetching",
	StateParsing:     "parsing",
	StateDispatching: "dispatching",
	StateAwaiting:    "awaiting",
	StateDone:        "done",
	StateFailed:      "failed",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed
}
