// internal/writer/status_writer.go
package writer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tamzrod/modbus-armcheck/internal/status"
)

// StatusWriter is the delivery-only contract for run status.
// It receives a snapshot and writes it verbatim.
type StatusWriter interface {
	WriteStatus(s status.Snapshot) error
}

// runStatusWriter is the concrete implementation used by the tester.
type runStatusWriter struct {
	plan StatusPlan
	cli  endpointClient

	needFull bool
	last     [status.LiveSlots]uint16
}

// NewStatusWriter builds a status writer for plan over cli.
func NewStatusWriter(plan StatusPlan, cli endpointClient) (*runStatusWriter, error) {
	if cli == nil {
		return nil, fmt.Errorf("status writer: missing client for endpoint %s", plan.Endpoint)
	}
	return &runStatusWriter{
		plan:     plan,
		cli:      cli,
		needFull: true, // full re-assert on first successful write
		last:     status.Encode(status.Snapshot{Health: status.HealthUnknown}),
	}, nil
}

// WriteStatus delivers a run status snapshot.
// On any write failure, the next call re-asserts the full block.
func (sw *runStatusWriter) WriteStatus(s status.Snapshot) error {
	if sw == nil {
		return errors.New("status writer: disabled")
	}

	base := sw.baseAddr()

	// ------------------------------------------------------------
	// Full block write (identity re-assert)
	// ------------------------------------------------------------
	if sw.needFull {
		regs := status.EncodeBlock(s, sw.plan.Name)
		if err := sw.cli.WriteRegisters(sw.plan.UnitID, base, regs); err != nil {
			return fmt.Errorf("status writer: full block write failed: %w", err)
		}
		sw.needFull = false
		sw.last = status.Encode(s)
		return nil
	}

	// ------------------------------------------------------------
	// Incremental: one write per changed slot
	// ------------------------------------------------------------
	next := status.Encode(s)
	var errs []string

	for slot := range next {
		if sw.last[slot] == next[slot] {
			continue
		}
		if err := sw.cli.WriteRegisters(sw.plan.UnitID, base+uint16(slot), []uint16{next[slot]}); err != nil {
			errs = append(errs, fmt.Sprintf("slot%d write failed: %v", slot, err))
			continue
		}
		sw.last[slot] = next[slot]
	}

	if len(errs) > 0 {
		// Any partial failure introduces doubt; re-assert on next call.
		sw.needFull = true
		return errors.New("status writer: " + strings.Join(errs, " | "))
	}
	return nil
}

func (sw *runStatusWriter) baseAddr() uint16 {
	// Each block owns a fixed SlotsPerBlock range.
	return sw.plan.BaseSlot * status.SlotsPerBlock
}
