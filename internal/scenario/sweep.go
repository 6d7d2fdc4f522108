// internal/scenario/sweep.go
package scenario

import (
	"errors"
	"time"
)

// ErrSweepExhausted: the delay sweep ran MaxIterations without reaching
// a delay at which the subroutine finished first.
var ErrSweepExhausted = errors.New("scenario: sweep exhausted")

// Sweep shapes the increasing-delay early-stop scenario.
//
// Each iteration adds the current increment to the delay, then multiplies
// the increment by Factor while it is still below Ceiling.
type Sweep struct {
	Start           time.Duration
	Factor          int
	Ceiling         time.Duration
	MaxIterations   int
	StopOnEarlyStop bool
}

func DefaultSweep() Sweep {
	return Sweep{
		Start:         time.Microsecond,
		Factor:        4,
		Ceiling:       time.Second,
		MaxIterations: 32,
	}
}

// Delays returns the first n delays of the sweep.
func (s Sweep) Delays(n int) []time.Duration {
	out := make([]time.Duration, 0, n)
	it := s.iter()
	for i := 0; i < n; i++ {
		out = append(out, it.next())
	}
	return out
}

func (s Sweep) iter() *sweepIter {
	return &sweepIter{s: s, inc: s.Start}
}

type sweepIter struct {
	s     Sweep
	delay time.Duration
	inc   time.Duration
}

func (it *sweepIter) next() time.Duration {
	it.delay += it.inc
	if it.inc < it.s.Ceiling {
		it.inc *= time.Duration(it.s.Factor)
	}
	return it.delay
}
