// internal/scenario/scenario.go
package scenario

import (
	"fmt"
	"time"

	"github.com/tamzrod/modbus-armcheck/internal/subroutine"
)

// OutOfBoundsIndex is the index probed by KindOutOfBounds.
// No real arm is expected to define it.
const OutOfBoundsIndex uint16 = 65535

// Kind selects what a scenario exercises.
type Kind int

const (
	KindSingle Kind = iota
	KindUpTo
	KindOutOfBounds
	KindEarlyStop
	KindEarlyStopUpTo
	KindEarlyStopSweep
)

var kindNames = map[Kind]string{
	KindSingle:         "single",
	KindUpTo:           "up_to",
	KindOutOfBounds:    "out_of_bounds",
	KindEarlyStop:      "early_stop",
	KindEarlyStopUpTo:  "early_stop_up_to",
	KindEarlyStopSweep: "early_stop_sweep",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Kinds lists every kind in menu order.
func Kinds() []Kind {
	return []Kind{KindSingle, KindUpTo, KindOutOfBounds, KindEarlyStop, KindEarlyStopUpTo, KindEarlyStopSweep}
}

// ParseKind accepts the names produced by Kind.String.
func ParseKind(s string) (Kind, error) {
	for k, name := range kindNames {
		if name == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("scenario: unknown kind %q", s)
}

// Cancels reports whether the kind runs with an early-cancel delay.
func (k Kind) Cancels() bool {
	return k == KindEarlyStop || k == KindEarlyStopUpTo || k == KindEarlyStopSweep
}

// Scenario is one user-selected test.
//
// Index is the subroutine for single and early_stop kinds, and the
// inclusive upper bound for the up_to kinds. Delay is used by early_stop
// and early_stop_up_to only.
type Scenario struct {
	Kind  Kind
	Index uint16
	Delay time.Duration
}

func (s Scenario) String() string {
	switch s.Kind {
	case KindSingle:
		return fmt.Sprintf("run subroutine #%d", s.Index)
	case KindUpTo:
		return fmt.Sprintf("run subroutines #0 through #%d", s.Index)
	case KindOutOfBounds:
		return fmt.Sprintf("run out-of-range subroutine #%d", OutOfBoundsIndex)
	case KindEarlyStop:
		return fmt.Sprintf("stop subroutine #%d early after %v", s.Index, s.Delay)
	case KindEarlyStopUpTo:
		return fmt.Sprintf("stop subroutines #0 through #%d early after %v", s.Index, s.Delay)
	case KindEarlyStopSweep:
		return fmt.Sprintf("stop subroutine #%d early with increasing delays", s.Index)
	default:
		return s.Kind.String()
	}
}

// Attempt is one controller invocation made by a scenario.
type Attempt struct {
	Index  uint16
	Cancel bool
	Delay  time.Duration
	Result subroutine.Result
	Err    error
	Class  subroutine.Class
}

// Summary aggregates the attempts of one scenario.
type Summary struct {
	Scenario Scenario
	Attempts []Attempt

	Passed       int // completed, stopped early or too late
	Failed       int
	StoppedEarly int
	TooLate      int

	// Aborted is set when a failure ended the scenario before it ran every
	// index or delay it would otherwise have covered.
	Aborted bool
}

// OK reports whether every attempt succeeded.
func (s *Summary) OK() bool { return s.Failed == 0 }

// Last returns the most recent attempt.
func (s *Summary) Last() (Attempt, bool) {
	if len(s.Attempts) == 0 {
		return Attempt{}, false
	}
	return s.Attempts[len(s.Attempts)-1], true
}

func (s *Summary) record(a Attempt) {
	s.Attempts = append(s.Attempts, a)
	switch a.Class {
	case subroutine.ClassCompleted:
		s.Passed++
	case subroutine.ClassStoppedEarly:
		s.Passed++
		s.StoppedEarly++
	case subroutine.ClassTooLate:
		s.Passed++
		s.TooLate++
	default:
		s.Failed++
	}
}
