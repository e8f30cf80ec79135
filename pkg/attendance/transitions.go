package attendance

// State is a step of the check-in flow.
type State int

// Flow states.
const (
	StateIdle State = iota
	StateAcquiring
	StateReady
	StateCapturing
	StateSubmitting
	StateFailed
)

var stateNames = map[State]string{
	StateIdle:       "idle",
	StateAcquiring:  "acquiring",
	StateReady:      "ready",
	StateCapturing:  "capturing",
	StateSubmitting: "submitting",
	StateFailed:     "failed",
}

// String returns the state name.
func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}

// transitions lists the legal next states of each state. Every state may
// return to Idle; that is how cancel and teardown release the camera.
var transitions = map[State][]State{
	StateIdle:       {StateAcquiring},
	StateAcquiring:  {StateReady, StateFailed, StateIdle},
	StateReady:      {StateCapturing, StateIdle},
	StateCapturing:  {StateSubmitting, StateReady, StateIdle},
	StateSubmitting: {StateIdle, StateReady},
	StateFailed:     {StateAcquiring, StateIdle},
}

func canTransition(from, to State) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
