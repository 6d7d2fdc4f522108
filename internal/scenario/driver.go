// internal/scenario/driver.go
package scenario

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/tamzrod/modbus-armcheck/internal/logging"
	"github.com/tamzrod/modbus-armcheck/internal/subroutine"
)

// Runner is the controller surface a scenario needs.
type Runner interface {
	Run(ctx context.Context, idx uint16) (subroutine.Result, error)
	RunWithCancel(ctx context.Context, idx uint16, delay time.Duration) (subroutine.Result, error)
}

// Disabler clears enable after a failed attempt.
type Disabler interface {
	SetEnable(on bool) error
}

// Observer is told about every attempt as soon as it ends.
type Observer interface {
	Observe(a Attempt)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Attempt)

func (f ObserverFunc) Observe(a Attempt) { f(a) }

// AnomalyPolicy decides what a multi-attempt scenario does after the
// completion post-check reports that the device restarted.
// Every other failure always ends the scenario.
type AnomalyPolicy int

const (
	AbortOnAnomaly AnomalyPolicy = iota
	ContinueOnAnomaly
)

func (p AnomalyPolicy) String() string {
	if p == ContinueOnAnomaly {
		return "continue"
	}
	return "abort"
}

type Options struct {
	Sweep     Sweep
	OnAnomaly AnomalyPolicy
	Observers []Observer
}

// Driver runs scenarios sequentially against one controller.
type Driver struct {
	run  Runner
	dev  Disabler
	opts Options
	log  *slog.Logger
}

// New creates a driver. dev may be nil.
func New(run Runner, dev Disabler, opts Options, log *slog.Logger) *Driver {
	return &Driver{
		run:  run,
		dev:  dev,
		opts: opts,
		log:  logging.For(log, logging.ComponentScenario),
	}
}

// Execute runs sc to its end.
//
// Attempt failures are reported in the summary, not as an error. The
// returned error is ctx.Err() on shutdown, ErrSweepExhausted when the
// sweep never reached a too-late delay, or a bad scenario.
func (d *Driver) Execute(ctx context.Context, sc Scenario) (Summary, error) {
	sum := Summary{Scenario: sc}
	d.log.Info("scenario started", "kind", sc.Kind, "scenario", sc.String())

	var err error
	switch sc.Kind {
	case KindSingle:
		d.attempt(ctx, &sum, sc.Index, false, 0)
	case KindOutOfBounds:
		d.attempt(ctx, &sum, OutOfBoundsIndex, false, 0)
	case KindEarlyStop:
		d.attempt(ctx, &sum, sc.Index, true, sc.Delay)
	case KindUpTo:
		err = d.upTo(ctx, &sum, sc.Index, false, 0)
	case KindEarlyStopUpTo:
		err = d.upTo(ctx, &sum, sc.Index, true, sc.Delay)
	case KindEarlyStopSweep:
		err = d.sweep(ctx, &sum, sc.Index)
	default:
		return sum, fmt.Errorf("scenario: unsupported kind %v", sc.Kind)
	}

	if err == nil {
		err = ctx.Err()
	}

	d.log.Info("scenario finished",
		"kind", sc.Kind,
		"attempts", len(sum.Attempts),
		"passed", sum.Passed,
		"failed", sum.Failed,
		"stopped_early", sum.StoppedEarly,
		"too_late", sum.TooLate,
		"aborted", sum.Aborted,
	)
	return sum, err
}

func (d *Driver) upTo(ctx context.Context, sum *Summary, last uint16, cancel bool, delay time.Duration) error {
	for i := 0; i <= int(last); i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		a := d.attempt(ctx, sum, uint16(i), cancel, delay)
		if a.Err != nil && !d.tolerate(a) {
			sum.Aborted = i < int(last)
			return nil
		}
	}
	return nil
}

func (d *Driver) sweep(ctx context.Context, sum *Summary, idx uint16) error {
	it := d.opts.Sweep.iter()
	for i, n := 0, d.opts.Sweep.MaxIterations; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		delay := it.next()
		d.log.Debug("sweep delay", "index", idx, "delay", delay)

		a := d.attempt(ctx, sum, idx, true, delay)
		switch {
		case a.Err != nil:
			if !d.tolerate(a) {
				sum.Aborted = true
				return nil
			}
		case a.Class == subroutine.ClassTooLate:
			d.log.Info("minimum actuation time bracketed", "index", idx, "delay", delay)
			return nil
		case a.Class == subroutine.ClassStoppedEarly && d.opts.Sweep.StopOnEarlyStop:
			return nil
		}
	}
	return ErrSweepExhausted
}

// tolerate reports whether a failed attempt lets the scenario go on.
func (d *Driver) tolerate(a Attempt) bool {
	return d.opts.OnAnomaly == ContinueOnAnomaly && subroutine.IsAnomaly(a.Err)
}

func (d *Driver) attempt(ctx context.Context, sum *Summary, idx uint16, cancel bool, delay time.Duration) Attempt {
	var (
		res subroutine.Result
		err error
	)
	if cancel {
		res, err = d.run.RunWithCancel(ctx, idx, delay)
	} else {
		res, err = d.run.Run(ctx, idx)
	}

	a := Attempt{
		Index:  idx,
		Cancel: cancel,
		Delay:  delay,
		Result: res,
		Err:    err,
		Class:  subroutine.Classify(res, err),
	}
	sum.record(a)

	switch a.Class {
	case subroutine.ClassCompleted:
		d.log.Info("subroutine completed", "index", idx, "elapsed", res.Elapsed)
	case subroutine.ClassStoppedEarly:
		d.log.Info("subroutine stopped early", "index", idx, "delay", delay, "elapsed", res.Elapsed)
	case subroutine.ClassTooLate:
		d.log.Warn("subroutine completed before it could be stopped early", "index", idx, "delay", delay)
	default:
		d.log.Error("subroutine failed", "index", idx, "class", a.Class, "error", err)
	}

	if err != nil && d.dev != nil {
		if werr := d.dev.SetEnable(false); werr != nil {
			d.log.Warn("could not clear enable", "index", idx, "error", werr)
		}
	}

	for _, o := range d.opts.Observers {
		o.Observe(a)
	}
	return a
}
