// internal/peripheral/arm.go
package peripheral

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/tamzrod/modbus-armcheck/internal/arm"
	"github.com/tamzrod/modbus-armcheck/internal/logging"
	"github.com/tamzrod/modbus-armcheck/internal/poller"
	"github.com/tamzrod/modbus-armcheck/internal/store"
)

// Config describes the simulated arm's timing and faults.
type Config struct {
	Tick           time.Duration
	StartLatency   time.Duration
	StopLatency    time.Duration
	DefaultRunTime time.Duration

	// RunTimes holds per-subroutine run times.
	RunTimes map[uint16]time.Duration

	// RejectUnknown: indexes absent from RunTimes never assert running.
	RejectUnknown bool

	// IgnoreStop: dropping enable does not end a run.
	IgnoreStop bool

	// RestartWhileEnabled: a run that completes with enable still high is
	// followed by another one, as level-triggered firmware would do.
	RestartWhileEnabled bool
}

type phase int

const (
	phaseIdle phase = iota
	phaseStarting
	phaseRunning
	phaseStopping
)

// Arm is the behaviour model of a robot arm controller.
// It reads enable and the index register from the store and writes only
// the running signal.
type Arm struct {
	st  *store.Store
	m   arm.AddressMap
	cfg Config
	log *slog.Logger

	mu         sync.Mutex
	phase      phase
	prevEnable bool
	index      uint16
	runTime    time.Duration
	startAt    time.Time
	endAt      time.Time
	stopAt     time.Time
	pinned     bool // a restarted run ignores enable
	runs       int
}

func NewArm(st *store.Store, m arm.AddressMap, cfg Config, log *slog.Logger) *Arm {
	if cfg.Tick <= 0 {
		cfg.Tick = time.Millisecond
	}
	return &Arm{
		st:  st,
		m:   m,
		cfg: cfg,
		log: logging.For(log, logging.ComponentPeripheral),
	}
}

// Seed defines every address the map uses and clears them.
func Seed(st *store.Store, m arm.AddressMap) {
	st.DefineCoils(m.EnableCoil)
	st.WriteCoil(m.EnableCoil, false)

	if m.RunningKind == arm.RunningOnDiscreteInput {
		st.DefineInputs(m.RunningAddr)
		st.WriteInput(m.RunningAddr, false)
	} else {
		st.DefineCoils(m.RunningAddr)
		st.WriteCoil(m.RunningAddr, false)
	}

	if m.ProgramSelectCoil != nil {
		st.DefineCoils(*m.ProgramSelectCoil)
		st.WriteCoil(*m.ProgramSelectCoil, false)
	}

	st.DefineRegisters(m.IndexRegister)
	_ = st.WriteRegister(m.IndexRegister, 0)
}

// Run steps the model every tick until ctx is done.
func (a *Arm) Run(ctx context.Context) error {
	a.log.Info("simulated arm started", "tick", a.cfg.Tick)
	poller.Tick(ctx, a.cfg.Tick, a.Step)
	a.log.Info("simulated arm stopped")
	return nil
}

// Runs returns how many runs have started, restarts included.
func (a *Arm) Runs() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.runs
}

// LastIndex returns the index latched by the most recent run.
func (a *Arm) LastIndex() uint16 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.index
}

// Step advances the model to now.
func (a *Arm) Step(now time.Time) {
	enable := a.st.ReadCoil(a.m.EnableCoil)

	a.mu.Lock()
	defer a.mu.Unlock()

	rising := enable && !a.prevEnable
	a.prevEnable = enable

	switch a.phase {
	case phaseIdle:
		if rising {
			a.begin(now)
		}

	case phaseStarting:
		if !enable && !a.pinned {
			a.log.Debug("enable dropped before start", "index", a.index)
			a.phase = phaseIdle
			return
		}
		if !now.Before(a.startAt) {
			a.setRunning(true)
			a.phase = phaseRunning
		}

	case phaseRunning:
		if !now.Before(a.endAt) {
			a.finish(now, enable)
			return
		}
		if !enable && !a.pinned && !a.cfg.IgnoreStop {
			a.stopAt = now.Add(a.cfg.StopLatency)
			a.phase = phaseStopping
		}

	case phaseStopping:
		if !now.Before(a.stopAt) {
			a.log.Debug("run stopped", "index", a.index)
			a.setRunning(false)
			a.phase = phaseIdle
		}
	}
}

func (a *Arm) begin(now time.Time) {
	idx, err := a.st.ReadRegister(a.m.IndexRegister)
	if err != nil {
		a.log.Warn("index register unreadable", "error", err)
		return
	}

	run, known := a.cfg.RunTimes[idx]
	if !known {
		if a.cfg.RejectUnknown {
			a.log.Warn("unknown subroutine, not starting", "index", idx)
			return
		}
		run = a.cfg.DefaultRunTime
	}

	a.index = idx
	a.runTime = run
	a.pinned = false
	a.schedule(now)
	a.log.Debug("run latched", "index", idx, "run_time", run)
}

func (a *Arm) schedule(now time.Time) {
	a.startAt = now.Add(a.cfg.StartLatency)
	a.endAt = a.startAt.Add(a.runTime)
	a.phase = phaseStarting
	a.runs++
}

func (a *Arm) finish(now time.Time, enable bool) {
	a.setRunning(false)
	a.phase = phaseIdle
	a.pinned = false
	a.log.Debug("run completed", "index", a.index)

	if enable && a.cfg.RestartWhileEnabled {
		a.log.Debug("enable still high, running again", "index", a.index)
		a.pinned = true
		a.schedule(now)
	}
}

func (a *Arm) setRunning(v bool) {
	if a.m.RunningKind == arm.RunningOnDiscreteInput {
		a.st.WriteInput(a.m.RunningAddr, v)
		return
	}
	a.st.WriteCoil(a.m.RunningAddr, v)
}
