// internal/scenario/integration_test.go
package scenario_test

import (
	"context"
	"testing"
	"time"

	"github.com/tamzrod/modbus-armcheck/internal/arm"
	"github.com/tamzrod/modbus-armcheck/internal/bus/memory"
	"github.com/tamzrod/modbus-armcheck/internal/peripheral"
	"github.com/tamzrod/modbus-armcheck/internal/poller"
	"github.com/tamzrod/modbus-armcheck/internal/scenario"
	"github.com/tamzrod/modbus-armcheck/internal/store"
	"github.com/tamzrod/modbus-armcheck/internal/subroutine"
)

func simulatedDriver(t *testing.T, run time.Duration, restart bool, opts scenario.Options) *scenario.Driver {
	t.Helper()
	m := arm.AddressMap{EnableCoil: 8, RunningKind: arm.RunningOnCoil, RunningAddr: 9, IndexRegister: 8}

	st := store.New(nil)
	peripheral.Seed(st, m)
	a := peripheral.NewArm(st, m, peripheral.Config{
		Tick:                time.Millisecond,
		StartLatency:        2 * time.Millisecond,
		StopLatency:         2 * time.Millisecond,
		DefaultRunTime:      run,
		RestartWhileEnabled: restart,
	}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = a.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	p, err := poller.New(poller.Config{Interval: time.Millisecond})
	if err != nil {
		t.Fatalf("poller: %v", err)
	}
	f := arm.New(memory.New(st), m)
	c := subroutine.DefaultConfig()
	c.SettleDelay = 20 * time.Millisecond
	ctl := subroutine.New(f, p, c, nil)

	if opts.Sweep == (scenario.Sweep{}) {
		opts.Sweep = scenario.DefaultSweep()
	}
	return scenario.New(ctl, f, opts, nil)
}

func TestSimulated_SweepBracketsActuationTime(t *testing.T) {
	d := simulatedDriver(t, 50*time.Millisecond, false, scenario.Options{})

	sum, err := d.Execute(context.Background(), scenario.Scenario{Kind: scenario.KindEarlyStopSweep, Index: 0})
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	last, _ := sum.Last()
	if last.Class != subroutine.ClassTooLate {
		t.Fatalf("last: %+v", last)
	}
	if last.Delay < 50*time.Millisecond {
		t.Fatalf("too late reported at %v, before the run could finish", last.Delay)
	}
	if sum.StoppedEarly == 0 || sum.Failed != 0 {
		t.Fatalf("sum=%+v", sum)
	}
}

func TestSimulated_UpToWithAnomaly(t *testing.T) {
	for _, tc := range []struct {
		name     string
		policy   scenario.AnomalyPolicy
		attempts int
	}{
		{"abort", scenario.AbortOnAnomaly, 1},
		{"continue", scenario.ContinueOnAnomaly, 3},
	} {
		t.Run(tc.name, func(t *testing.T) {
			d := simulatedDriver(t, 20*time.Millisecond, true, scenario.Options{OnAnomaly: tc.policy})

			sum, err := d.Execute(context.Background(), scenario.Scenario{Kind: scenario.KindUpTo, Index: 2})
			if err != nil {
				t.Fatalf("err=%v", err)
			}
			if len(sum.Attempts) != tc.attempts {
				t.Fatalf("attempts: got=%d want=%d", len(sum.Attempts), tc.attempts)
			}
			for _, a := range sum.Attempts {
				if a.Class != subroutine.ClassPostcondition {
					t.Fatalf("attempt %d: class=%v err=%v", a.Index, a.Class, a.Err)
				}
			}
		})
	}
}

func TestSimulated_OutOfBoundsDoesNotBreakProtocol(t *testing.T) {
	d := simulatedDriver(t, 20*time.Millisecond, false, scenario.Options{})

	sum, err := d.Execute(context.Background(), scenario.Scenario{Kind: scenario.KindOutOfBounds})
	if err != nil || !sum.OK() {
		t.Fatalf("sum=%+v err=%v", sum, err)
	}

	// the device still answers a normal run afterwards
	sum, err = d.Execute(context.Background(), scenario.Scenario{Kind: scenario.KindSingle, Index: 1})
	if err != nil || !sum.OK() {
		t.Fatalf("follow-up run: sum=%+v err=%v", sum, err)
	}
}
