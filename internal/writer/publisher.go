// internal/writer/publisher.go
package writer

import (
	"log/slog"
	"sync"

	"github.com/tamzrod/modbus-armcheck/internal/logging"
	"github.com/tamzrod/modbus-armcheck/internal/scenario"
	"github.com/tamzrod/modbus-armcheck/internal/status"
)

// Publisher folds scenario attempts into a run status snapshot and hands
// it to a StatusWriter. Delivery failures are logged; they never fail a
// scenario.
type Publisher struct {
	sw  StatusWriter
	log *slog.Logger

	mu     sync.Mutex
	snap   status.Snapshot
	passed int
	failed int
}

var _ scenario.Observer = (*Publisher)(nil)

func NewPublisher(sw StatusWriter, log *slog.Logger) *Publisher {
	return &Publisher{
		sw:   sw,
		log:  logging.For(log, logging.ComponentStatus),
		snap: status.Snapshot{Health: status.HealthUnknown},
	}
}

// Announce writes the boot snapshot so the block carries its name before
// the first attempt.
func (p *Publisher) Announce() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.deliver()
}

// Observe implements scenario.Observer.
func (p *Publisher) Observe(a scenario.Attempt) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if a.Class.OK() {
		p.passed++
		p.snap.Health = status.HealthOK
	} else {
		p.failed++
		p.snap.Health = status.HealthError
	}

	p.snap.LastClass = a.Class.Code()
	p.snap.LastIndex = a.Index
	p.snap.Passed = status.Count(p.passed)
	p.snap.Failed = status.Count(p.failed)
	p.snap.ElapsedMs = status.Millis(a.Result.Elapsed)
	p.snap.DelayMs = 0
	if a.Cancel {
		p.snap.DelayMs = status.Millis(a.Delay)
	}

	p.deliver()
}

// Snapshot returns the last folded snapshot.
func (p *Publisher) Snapshot() status.Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snap
}

func (p *Publisher) deliver() {
	if err := p.sw.WriteStatus(p.snap); err != nil {
		p.log.Warn("status write failed", "error", err)
	}
}
