// internal/subroutine/controller.go
package subroutine

import (
	"context"
	"log/slog"
	"time"

	"github.com/tamzrod/modbus-armcheck/internal/logging"
	"github.com/tamzrod/modbus-armcheck/internal/poller"
)

// Device is the capability set the controller drives.
// arm.Facade satisfies it over any bus.
type Device interface {
	SetIndex(idx uint16) error
	SetEnable(on bool) error
	ReadRunning() (bool, error)
}

// ProgramSelector is implemented by devices that need a select pulse
// between writing the index and asserting enable.
type ProgramSelector interface {
	SelectProgram(on bool) error
}

// Config holds the fixed horizons of one invocation.
type Config struct {
	StartTimeout      time.Duration
	CompletionTimeout time.Duration
	StopGrace         time.Duration
	SettleDelay       time.Duration
}

// DefaultConfig returns the horizons used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		StartTimeout:      time.Second,
		CompletionTimeout: 60 * time.Second,
		StopGrace:         time.Second,
		SettleDelay:       100 * time.Millisecond,
	}
}

// Result describes a finished invocation.
type Result struct {
	Index   uint16
	Outcome Outcome

	// Elapsed runs from enable asserted to running observed false.
	// Zero when the invocation failed before that point.
	Elapsed time.Duration

	Trace []State
}

// Controller runs subroutines one at a time against a single device.
// It is not safe for concurrent invocations.
type Controller struct {
	dev  Device
	poll *poller.Poller
	cfg  Config
	log  *slog.Logger
}

func New(dev Device, p *poller.Poller, cfg Config, log *slog.Logger) *Controller {
	return &Controller{
		dev:  dev,
		poll: p,
		cfg:  cfg,
		log:  logging.For(log, logging.ComponentController),
	}
}

// Run executes idx to natural completion.
func (c *Controller) Run(ctx context.Context, idx uint16) (Result, error) {
	return c.invoke(ctx, idx, 0, false)
}

// RunWithCancel executes idx and clears enable once delay has passed since
// enable was asserted, unless the run finished first.
func (c *Controller) RunWithCancel(ctx context.Context, idx uint16, delay time.Duration) (Result, error) {
	return c.invoke(ctx, idx, delay, true)
}

func (c *Controller) invoke(ctx context.Context, idx uint16, delay time.Duration, cancellable bool) (Result, error) {
	inv := &invocation{
		ctx:         ctx,
		c:           c,
		log:         c.log.With("index", idx),
		cancellable: cancellable,
		res:         Result{Index: idx},
	}
	if cancellable {
		inv.log = inv.log.With("cancel_after", delay)
	}

	err := inv.execute(idx, delay)
	if err != nil {
		inv.enter(StateError)
		inv.log.Warn("subroutine failed", "error", err)
		inv.forceDisable()
		return inv.res, err
	}

	inv.log.Info("subroutine finished", "outcome", inv.res.Outcome, "elapsed", inv.res.Elapsed)
	return inv.res, nil
}

// invocation is the per-call state of one run.
type invocation struct {
	ctx         context.Context
	c           *Controller
	log         *slog.Logger
	cancellable bool

	state     State
	enabledAt time.Time
	cancelAt  time.Time

	res Result
}

func (i *invocation) enter(s State) {
	i.state = s
	i.res.Trace = append(i.res.Trace, s)
	i.log.Debug("state", "state", s)
}

func (i *invocation) fail(err error) error {
	return &StepError{Index: i.res.Index, State: i.state, Err: err}
}

func (i *invocation) execute(idx uint16, delay time.Duration) error {
	dev := i.c.dev
	sel, _ := dev.(ProgramSelector)

	i.enter(StateIdle)
	if err := dev.SetIndex(idx); err != nil {
		return i.fail(err)
	}
	i.enter(StateIndexSet)

	if sel != nil {
		if err := sel.SelectProgram(true); err != nil {
			return i.fail(err)
		}
	}

	if err := dev.SetEnable(true); err != nil {
		return i.fail(err)
	}
	i.enabledAt = time.Now()
	if i.cancellable {
		i.cancelAt = i.enabledAt.Add(delay)
	}
	i.enter(StateEnableAsserted)

	if sel != nil {
		if err := sel.SelectProgram(false); err != nil {
			return i.fail(err)
		}
	}

	i.enter(StateAwaitingStart)
	i.log.Debug("waiting for running", "timeout", i.c.cfg.StartTimeout)
	cancelled, err := i.await(PhaseStart, true, i.c.cfg.StartTimeout)
	if err != nil {
		return err
	}
	if cancelled {
		return i.cancel()
	}
	i.enter(StateRunning)

	i.enter(StateAwaitingStop)
	i.log.Debug("running, waiting for completion", "timeout", i.c.cfg.CompletionTimeout)
	cancelled, err = i.await(PhaseStop, false, i.c.cfg.CompletionTimeout)
	if err != nil {
		return err
	}
	if cancelled {
		return i.cancel()
	}
	i.res.Elapsed = time.Since(i.enabledAt)
	i.enter(StateStopped)

	return i.acknowledge()
}

// await races the phase horizon against the cancellation instant.
// It reports true when the cancellation instant came first.
func (i *invocation) await(phase Phase, target bool, horizon time.Duration) (bool, error) {
	deadline := time.Now().Add(horizon)
	racing := i.cancellable && !deadline.Before(i.cancelAt)
	if racing {
		deadline = i.cancelAt
	}

	out, err := i.c.poll.WaitUntil(i.ctx, i.c.dev.ReadRunning, target, deadline)
	switch out {
	case poller.Reached:
		return false, nil
	case poller.DeadlineElapsed:
		if !racing {
			return false, &TimeoutError{Index: i.res.Index, Phase: phase, Waited: horizon}
		}
		if phase == PhaseStart {
			return true, nil
		}
		// The last sleep was clipped to the cancellation instant. A run that
		// ended inside that gap finished first.
		running, err := i.c.dev.ReadRunning()
		if err != nil {
			return false, i.fail(err)
		}
		return running, nil
	default:
		return false, i.fail(err)
	}
}

// cancel clears enable and requires running to drop within the grace period.
func (i *invocation) cancel() error {
	i.enter(StateCancelling)
	i.log.Debug("cancellation instant reached, clearing enable")

	if err := i.c.dev.SetEnable(false); err != nil {
		return i.fail(err)
	}

	out, err := i.c.poll.WaitFor(i.ctx, i.c.dev.ReadRunning, false, i.c.cfg.StopGrace)
	switch out {
	case poller.Reached:
	case poller.DeadlineElapsed:
		return &PostconditionError{Index: i.res.Index, Reason: ReasonIgnoredStop, After: i.c.cfg.StopGrace}
	default:
		return i.fail(err)
	}

	i.res.Elapsed = time.Since(i.enabledAt)
	i.enter(StateStopped)
	i.enter(StateEarlyStopped)
	i.res.Outcome = StoppedEarly
	return nil
}

// acknowledge clears enable after a natural stop and checks the device
// does not start again on its own.
func (i *invocation) acknowledge() error {
	if err := i.c.dev.SetEnable(false); err != nil {
		return i.fail(err)
	}

	if err := sleep(i.ctx, i.c.cfg.SettleDelay); err != nil {
		return i.fail(err)
	}

	running, err := i.c.dev.ReadRunning()
	if err != nil {
		return i.fail(err)
	}
	if running {
		return &PostconditionError{Index: i.res.Index, Reason: ReasonRestarted, After: i.c.cfg.SettleDelay}
	}

	i.enter(StateCompleted)
	i.res.Outcome = Completed
	if i.cancellable {
		i.res.Outcome = TooLate
	}
	return nil
}

// forceDisable is the best-effort safety write after a failure.
// It runs even when ctx is already done.
func (i *invocation) forceDisable() {
	if err := i.c.dev.SetEnable(false); err != nil {
		i.log.Warn("could not clear enable after failure", "error", err)
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
