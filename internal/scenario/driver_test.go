// internal/scenario/driver_test.go
package scenario

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tamzrod/modbus-armcheck/internal/bus"
	cfg "github.com/tamzrod/modbus-armcheck/internal/config"
	"github.com/tamzrod/modbus-armcheck/internal/subroutine"
)

type call struct {
	idx    uint16
	cancel bool
	delay  time.Duration
}

// fakeRunner answers from a script keyed by call number, falling back to
// the decide function.
type fakeRunner struct {
	calls  []call
	decide func(c call) (subroutine.Result, error)
}

func (f *fakeRunner) Run(_ context.Context, idx uint16) (subroutine.Result, error) {
	c := call{idx: idx}
	f.calls = append(f.calls, c)
	return f.decide(c)
}

func (f *fakeRunner) RunWithCancel(_ context.Context, idx uint16, delay time.Duration) (subroutine.Result, error) {
	c := call{idx: idx, cancel: true, delay: delay}
	f.calls = append(f.calls, c)
	return f.decide(c)
}

type fakeDisabler struct{ writes []bool }

func (f *fakeDisabler) SetEnable(on bool) error {
	f.writes = append(f.writes, on)
	return nil
}

func ok(c call) (subroutine.Result, error) {
	return subroutine.Result{Index: c.idx, Outcome: subroutine.Completed}, nil
}

// actuation models a device whose subroutines take d: any cancel delay
// at or beyond d is too late.
func actuation(d time.Duration) func(c call) (subroutine.Result, error) {
	return func(c call) (subroutine.Result, error) {
		if !c.cancel {
			return subroutine.Result{Index: c.idx, Outcome: subroutine.Completed}, nil
		}
		if c.delay >= d {
			return subroutine.Result{Index: c.idx, Outcome: subroutine.TooLate}, nil
		}
		return subroutine.Result{Index: c.idx, Outcome: subroutine.StoppedEarly}, nil
	}
}

func anomaly(c call) error {
	return &subroutine.PostconditionError{Index: c.idx, Reason: subroutine.ReasonRestarted}
}

func newDriver(r Runner, dev Disabler, opts Options) *Driver {
	if opts.Sweep == (Sweep{}) {
		opts.Sweep = DefaultSweep()
	}
	return New(r, dev, opts, nil)
}

func TestExecute_Single(t *testing.T) {
	r := &fakeRunner{decide: ok}
	d := newDriver(r, nil, Options{})

	sum, err := d.Execute(context.Background(), Scenario{Kind: KindSingle, Index: 3})
	if err != nil || !sum.OK() || sum.Passed != 1 {
		t.Fatalf("sum=%+v err=%v", sum, err)
	}
	if len(r.calls) != 1 || r.calls[0] != (call{idx: 3}) {
		t.Fatalf("calls: got=%v", r.calls)
	}
}

func TestExecute_UpToIsInclusive(t *testing.T) {
	r := &fakeRunner{decide: ok}
	d := newDriver(r, nil, Options{})

	sum, err := d.Execute(context.Background(), Scenario{Kind: KindUpTo, Index: 3})
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if len(r.calls) != 4 || sum.Passed != 4 {
		t.Fatalf("calls=%v passed=%d", r.calls, sum.Passed)
	}
	for i, c := range r.calls {
		if c.idx != uint16(i) || c.cancel {
			t.Fatalf("call %d: got=%+v", i, c)
		}
	}
}

func TestExecute_UpToAbortsOnFirstFailure(t *testing.T) {
	dev := &fakeDisabler{}
	r := &fakeRunner{decide: func(c call) (subroutine.Result, error) {
		if c.idx == 1 {
			return subroutine.Result{Index: 1}, &subroutine.TimeoutError{Index: 1, Phase: subroutine.PhaseStart}
		}
		return ok(c)
	}}
	d := newDriver(r, dev, Options{})

	sum, err := d.Execute(context.Background(), Scenario{Kind: KindUpTo, Index: 5})
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if len(r.calls) != 2 || sum.Failed != 1 || !sum.Aborted {
		t.Fatalf("calls=%d sum=%+v", len(r.calls), sum)
	}
	if last, _ := sum.Last(); last.Class != subroutine.ClassTimedOut {
		t.Fatalf("class: got=%v", last.Class)
	}
	if len(dev.writes) != 1 || dev.writes[0] {
		t.Fatalf("expected one enable=false write, got %v", dev.writes)
	}
}

func TestExecute_AnomalyPolicyAbort(t *testing.T) {
	r := &fakeRunner{decide: func(c call) (subroutine.Result, error) {
		if c.idx == 1 {
			return subroutine.Result{Index: 1}, anomaly(c)
		}
		return ok(c)
	}}
	d := newDriver(r, nil, Options{OnAnomaly: AbortOnAnomaly})

	sum, _ := d.Execute(context.Background(), Scenario{Kind: KindUpTo, Index: 3})
	if len(r.calls) != 2 || !sum.Aborted {
		t.Fatalf("calls=%d aborted=%v", len(r.calls), sum.Aborted)
	}
	if last, _ := sum.Last(); last.Class != subroutine.ClassPostcondition {
		t.Fatalf("class: got=%v", last.Class)
	}
}

func TestExecute_AnomalyPolicyContinue(t *testing.T) {
	r := &fakeRunner{decide: func(c call) (subroutine.Result, error) {
		if c.idx == 1 {
			return subroutine.Result{Index: 1}, anomaly(c)
		}
		return ok(c)
	}}
	d := newDriver(r, nil, Options{OnAnomaly: ContinueOnAnomaly})

	sum, err := d.Execute(context.Background(), Scenario{Kind: KindUpTo, Index: 3})
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if len(r.calls) != 4 || sum.Failed != 1 || sum.Passed != 3 || sum.Aborted {
		t.Fatalf("calls=%d sum=%+v", len(r.calls), sum)
	}
}

func TestExecute_ContinuePolicyStillAbortsOnTransport(t *testing.T) {
	r := &fakeRunner{decide: func(c call) (subroutine.Result, error) {
		if c.idx == 0 {
			err := bus.Wrap("read coils", 9, bus.KindTransport, errors.New("link down"))
			return subroutine.Result{}, &subroutine.StepError{State: subroutine.StateAwaitingStart, Err: err}
		}
		return ok(c)
	}}
	d := newDriver(r, nil, Options{OnAnomaly: ContinueOnAnomaly})

	sum, _ := d.Execute(context.Background(), Scenario{Kind: KindUpTo, Index: 3})
	if len(r.calls) != 1 || !sum.Aborted {
		t.Fatalf("calls=%d aborted=%v", len(r.calls), sum.Aborted)
	}
	if last, _ := sum.Last(); last.Class != subroutine.ClassTransport {
		t.Fatalf("class: got=%v", last.Class)
	}
}

func TestExecute_OutOfBounds(t *testing.T) {
	r := &fakeRunner{decide: func(c call) (subroutine.Result, error) {
		return subroutine.Result{Index: c.idx}, &subroutine.TimeoutError{Index: c.idx, Phase: subroutine.PhaseStart}
	}}
	d := newDriver(r, &fakeDisabler{}, Options{})

	sum, err := d.Execute(context.Background(), Scenario{Kind: KindOutOfBounds})
	if err != nil {
		t.Fatalf("a failing probe is reported, not returned: err=%v", err)
	}
	if r.calls[0].idx != OutOfBoundsIndex || sum.Failed != 1 {
		t.Fatalf("calls=%v sum=%+v", r.calls, sum)
	}
}

func TestExecute_EarlyStop(t *testing.T) {
	r := &fakeRunner{decide: actuation(time.Second)}
	d := newDriver(r, nil, Options{})

	sum, err := d.Execute(context.Background(), Scenario{Kind: KindEarlyStop, Index: 2, Delay: 30 * time.Millisecond})
	if err != nil || sum.StoppedEarly != 1 {
		t.Fatalf("sum=%+v err=%v", sum, err)
	}
	if r.calls[0] != (call{idx: 2, cancel: true, delay: 30 * time.Millisecond}) {
		t.Fatalf("call: got=%+v", r.calls[0])
	}
}

func TestExecute_EarlyStopUpTo(t *testing.T) {
	r := &fakeRunner{decide: actuation(time.Second)}
	d := newDriver(r, nil, Options{})

	sum, err := d.Execute(context.Background(), Scenario{Kind: KindEarlyStopUpTo, Index: 2, Delay: time.Millisecond})
	if err != nil || sum.StoppedEarly != 3 {
		t.Fatalf("sum=%+v err=%v", sum, err)
	}
}

func TestExecute_TooLateIsNotAFailure(t *testing.T) {
	r := &fakeRunner{decide: actuation(10 * time.Millisecond)}
	d := newDriver(r, nil, Options{})

	sum, _ := d.Execute(context.Background(), Scenario{Kind: KindEarlyStopUpTo, Index: 1, Delay: time.Second})
	if !sum.OK() || sum.TooLate != 2 || len(r.calls) != 2 {
		t.Fatalf("sum=%+v", sum)
	}
}

func TestSweep_StopsAtFirstTooLate(t *testing.T) {
	r := &fakeRunner{decide: actuation(50 * time.Millisecond)}
	d := newDriver(r, nil, Options{})

	sum, err := d.Execute(context.Background(), Scenario{Kind: KindEarlyStopSweep, Index: 3})
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	last, _ := sum.Last()
	if last.Class != subroutine.ClassTooLate {
		t.Fatalf("last class: got=%v", last.Class)
	}
	if want := 87381 * time.Microsecond; last.Delay != want {
		t.Fatalf("too-late delay: got=%v want=%v", last.Delay, want)
	}
	for _, a := range sum.Attempts[:len(sum.Attempts)-1] {
		if a.Delay >= 50*time.Millisecond || a.Class != subroutine.ClassStoppedEarly {
			t.Fatalf("attempt before the bracket: %+v", a)
		}
	}
}

func TestSweep_DelaysStrictlyIncrease(t *testing.T) {
	ds := DefaultSweep().Delays(20)
	want := []time.Duration{1, 5, 21, 85, 341}
	for i, w := range want {
		if ds[i] != w*time.Microsecond {
			t.Fatalf("delay %d: got=%v want=%v", i, ds[i], w*time.Microsecond)
		}
	}
	for i := 1; i < len(ds); i++ {
		if ds[i] <= ds[i-1] {
			t.Fatalf("delays not increasing at %d: %v", i, ds)
		}
	}
	// past the ceiling the increment is frozen
	if step := ds[19] - ds[18]; step != ds[18]-ds[17] {
		t.Fatalf("increment kept growing past the ceiling: %v", ds[17:])
	}
}

func TestSweep_Exhausted(t *testing.T) {
	r := &fakeRunner{decide: actuation(time.Hour)}
	s := DefaultSweep()
	s.MaxIterations = 5
	d := newDriver(r, nil, Options{Sweep: s})

	sum, err := d.Execute(context.Background(), Scenario{Kind: KindEarlyStopSweep, Index: 3})
	if !errors.Is(err, ErrSweepExhausted) {
		t.Fatalf("err=%v", err)
	}
	if len(sum.Attempts) != 5 {
		t.Fatalf("attempts: got=%d", len(sum.Attempts))
	}
}

func TestSweep_StopOnEarlyStop(t *testing.T) {
	r := &fakeRunner{decide: actuation(time.Hour)}
	s := DefaultSweep()
	s.StopOnEarlyStop = true
	d := newDriver(r, nil, Options{Sweep: s})

	sum, err := d.Execute(context.Background(), Scenario{Kind: KindEarlyStopSweep, Index: 3})
	if err != nil || len(sum.Attempts) != 1 || sum.StoppedEarly != 1 {
		t.Fatalf("sum=%+v err=%v", sum, err)
	}
}

func TestSweep_StopsOnFailure(t *testing.T) {
	r := &fakeRunner{decide: func(c call) (subroutine.Result, error) {
		if c.delay > 20*time.Microsecond {
			return subroutine.Result{}, &subroutine.PostconditionError{Reason: subroutine.ReasonIgnoredStop}
		}
		return actuation(time.Hour)(c)
	}}
	d := newDriver(r, &fakeDisabler{}, Options{OnAnomaly: ContinueOnAnomaly})

	sum, err := d.Execute(context.Background(), Scenario{Kind: KindEarlyStopSweep, Index: 3})
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if len(sum.Attempts) != 3 || !sum.Aborted || sum.Failed != 1 {
		t.Fatalf("sum=%+v", sum)
	}
}

func TestExecute_ObserversSeeEveryAttempt(t *testing.T) {
	r := &fakeRunner{decide: ok}
	var seen []uint16
	d := newDriver(r, nil, Options{Observers: []Observer{
		ObserverFunc(func(a Attempt) { seen = append(seen, a.Index) }),
	}})

	if _, err := d.Execute(context.Background(), Scenario{Kind: KindUpTo, Index: 2}); err != nil {
		t.Fatalf("err=%v", err)
	}
	if len(seen) != 3 || seen[2] != 2 {
		t.Fatalf("seen: got=%v", seen)
	}
}

func TestExecute_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	r := &fakeRunner{decide: func(c call) (subroutine.Result, error) {
		cancel()
		return ok(c)
	}}
	d := newDriver(r, nil, Options{})

	sum, err := d.Execute(ctx, Scenario{Kind: KindUpTo, Index: 10})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err=%v", err)
	}
	if len(sum.Attempts) != 1 {
		t.Fatalf("attempts after cancel: got=%d", len(sum.Attempts))
	}
}

func TestParseKind(t *testing.T) {
	for _, k := range Kinds() {
		got, err := ParseKind(k.String())
		if err != nil || got != k {
			t.Fatalf("%v: got=%v err=%v", k, got, err)
		}
	}
	if _, err := ParseKind("everything"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestFromConfig(t *testing.T) {
	if _, ok, err := FromConfig(cfg.ScenarioConfig{}); ok || err != nil {
		t.Fatalf("empty kind: ok=%v err=%v", ok, err)
	}
	sc, ok, err := FromConfig(cfg.ScenarioConfig{Kind: "early_stop", Index: 3, DelayMs: 40})
	if err != nil || !ok {
		t.Fatalf("ok=%v err=%v", ok, err)
	}
	if sc.Kind != KindEarlyStop || sc.Delay != 40*time.Millisecond {
		t.Fatalf("got=%+v", sc)
	}

	o := OptionsFromConfig(
		cfg.SweepConfig{StartUs: 1, Factor: 4, CeilingMs: 1000, MaxIterations: 32},
		cfg.PolicyConfig{OnAnomaly: cfg.AnomalyContinue},
	)
	if o.Sweep != DefaultSweep() || o.OnAnomaly != ContinueOnAnomaly {
		t.Fatalf("options: got=%+v", o)
	}
}
