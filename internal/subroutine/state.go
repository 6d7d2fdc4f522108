// internal/subroutine/state.go
package subroutine

// State is a step of one controller invocation.
type State int

const (
	StateIdle State = iota
	StateIndexSet
	StateEnableAsserted
	StateAwaitingStart
	StateRunning
	StateAwaitingStop
	StateCancelling
	StateStopped
	StateCompleted
	StateEarlyStopped
	StateError
)

var stateNames = [...]string{
	StateIdle:           "idle",
	StateIndexSet:       "index-set",
	StateEnableAsserted: "enable-asserted",
	StateAwaitingStart:  "awaiting-start",
	StateRunning:        "running",
	StateAwaitingStop:   "awaiting-stop",
	StateCancelling:     "cancelling",
	StateStopped:        "stopped",
	StateCompleted:      "completed",
	StateEarlyStopped:   "early-stopped",
	StateError:          "error",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// Outcome is the successful end of an invocation.
type Outcome int

const (
	// Incomplete is the zero value, carried by results of failed invocations.
	Incomplete Outcome = iota
	// Completed: ran to natural completion, no cancellation requested.
	Completed
	// StoppedEarly: cancellation was delivered and honoured.
	StoppedEarly
	// TooLate: cancellation was requested but the run completed first.
	TooLate
)

func (o Outcome) String() string {
	switch o {
	case Completed:
		return "completed"
	case StoppedEarly:
		return "stopped-early"
	case TooLate:
		return "too-late"
	default:
		return "incomplete"
	}
}
