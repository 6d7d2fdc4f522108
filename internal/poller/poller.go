// internal/poller/poller.go
package poller

import (
	"context"
	"errors"
	"time"
)

// Bounds for the sleep between observations.
const (
	MinInterval = time.Millisecond
	MaxInterval = 10 * time.Millisecond
)

// Config is the minimal runtime config the poller needs.
type Config struct {
	Interval time.Duration
}

// Poller waits for a boolean observation to reach a target.
// It knows nothing about what is observed.
type Poller struct {
	cfg Config
}

// New creates a poller with immutable config.
func New(cfg Config) (*Poller, error) {
	if cfg.Interval < MinInterval || cfg.Interval > MaxInterval {
		return nil, errors.New("poller: interval must be within 1ms..10ms")
	}
	return &Poller{cfg: cfg}, nil
}

// Interval returns the sleep between observations.
func (p *Poller) Interval() time.Duration { return p.cfg.Interval }

// WaitUntil observes until the value equals target or deadline passes.
//
// deadline carries a monotonic reading and is captured once by the caller.
// The deadline is checked before every observation, so a deadline already
// in the past returns DeadlineElapsed without touching the device. The call
// never returns later than deadline plus one observation.
//
// ctx only ends the wait on shutdown; it is reported as Failed.
func (p *Poller) WaitUntil(ctx context.Context, observe Observe, target bool, deadline time.Time) (Outcome, error) {
	var timer *time.Timer

	for {
		if !time.Now().Before(deadline) {
			return DeadlineElapsed, nil
		}

		v, err := observe()
		if err != nil {
			return Failed, err
		}
		if v == target {
			return Reached, nil
		}

		wait := time.Until(deadline)
		if wait <= 0 {
			return DeadlineElapsed, nil
		}
		if wait > p.cfg.Interval {
			wait = p.cfg.Interval
		}
		if timer == nil {
			timer = time.NewTimer(wait)
			defer timer.Stop()
		} else {
			timer.Reset(wait)
		}

		select {
		case <-ctx.Done():
			return Failed, ctx.Err()
		case <-timer.C:
		}
	}
}

// WaitFor is WaitUntil with a deadline of now+timeout.
func (p *Poller) WaitFor(ctx context.Context, observe Observe, target bool, timeout time.Duration) (Outcome, error) {
	return p.WaitUntil(ctx, observe, target, time.Now().Add(timeout))
}
