// internal/poller/types.go
package poller

// Observe reads one boolean from the device.
// A failure aborts the wait; the poller never retries through it.
type Observe func() (bool, error)

// Outcome is how a wait ended.
type Outcome int

const (
	// Reached: the observation matched the target before the deadline.
	Reached Outcome = iota
	// DeadlineElapsed: the deadline passed first.
	DeadlineElapsed
	// Failed: an observation errored or the context ended.
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Reached:
		return "reached"
	case DeadlineElapsed:
		return "deadline elapsed"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}
