// ABOUTME: Lifecycle states of a decode pipeline
// ABOUTME: Defines the legal transitions between Idle, Paused, Playing, EOS, Error and Stopped
package decoder

// State is a pipeline lifecycle state.
type State int

const (
	StateIdle State = iota
	StatePaused
	StatePlaying
	StateEOS
	StateError
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePaused:
		return "paused"
	case StatePlaying:
		return "playing"
	case StateEOS:
		return "eos"
	case StateError:
		return "error"
	case StateStopped:
		return "stopped"
	}
	return "unknown"
}

// Stopped is reachable from everywhere, including itself.
var transitions = map[State][]State{
	StateIdle:    {StatePaused, StateError},
	StatePaused:  {StatePlaying, StateError},
	StatePlaying: {StateEOS, StateError},
}

func canTransition(from, to State) bool {
	if to == StateStopped {
		return true
	}
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}
