// internal/config/validate.go
package config

import (
	"fmt"
)

// Validate checks configuration correctness.
// It performs declarative validation only.
// It MUST NOT mutate configuration.
// Zero values mean "use the default" and always pass.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config: nil")
	}
	a := cfg.Armcheck

	// ------------------------------------------------------------
	// DEVICE
	// ------------------------------------------------------------

	switch a.Device.Driver {
	case "", DriverSimulated, DriverLoopback:
	case DriverGoburrow, DriverSimonvetter:
		if a.Device.Endpoint == "" {
			return fmt.Errorf("device: driver %q requires an endpoint", a.Device.Driver)
		}
	default:
		return fmt.Errorf("device: unknown driver %q", a.Device.Driver)
	}

	switch a.Device.Mode {
	case "", ModeTCP:
	case ModeRTU:
		if a.Device.Driver == DriverLoopback {
			return fmt.Errorf("device: loopback driver is tcp only")
		}
	default:
		return fmt.Errorf("device: unknown mode %q", a.Device.Mode)
	}

	if a.Device.TimeoutMs < 0 {
		return fmt.Errorf("device: timeout_ms must be >= 0")
	}

	switch a.Device.Serial.Parity {
	case "", "N", "E", "O":
	default:
		return fmt.Errorf("device: serial parity must be N, E or O, got %q", a.Device.Serial.Parity)
	}

	// ------------------------------------------------------------
	// ADDRESS MAP
	// ------------------------------------------------------------

	am := a.AddressMap
	switch am.Variant {
	case "", VariantBench, VariantArm:
	case VariantCustom:
		if am.EnableCoil == nil || am.RunningAddress == nil || am.IndexRegister == nil {
			return fmt.Errorf("address_map: custom variant requires enable_coil, running_address and index_register")
		}
	default:
		return fmt.Errorf("address_map: unknown variant %q", am.Variant)
	}

	switch am.RunningKind {
	case "", RunningCoil, RunningDiscreteInput:
	default:
		return fmt.Errorf("address_map: unknown running_kind %q", am.RunningKind)
	}

	if am.EnableCoil != nil && am.ProgramSelectCoil != nil && *am.EnableCoil == *am.ProgramSelectCoil {
		return fmt.Errorf("address_map: enable_coil and program_select_coil collide at %d", *am.EnableCoil)
	}

	// ------------------------------------------------------------
	// TIMING
	// ------------------------------------------------------------

	t := a.Timing
	for name, v := range map[string]int{
		"start_timeout_ms":      t.StartTimeoutMs,
		"completion_timeout_ms": t.CompletionTimeoutMs,
		"stop_grace_ms":         t.StopGraceMs,
		"settle_ms":             t.SettleMs,
	} {
		if v < 0 {
			return fmt.Errorf("timing: %s must be >= 0", name)
		}
	}

	// Short enough not to miss fast transitions, long enough not to
	// saturate the transport.
	if t.PollIntervalMs != 0 && (t.PollIntervalMs < 1 || t.PollIntervalMs > 10) {
		return fmt.Errorf("timing: poll_interval_ms must be within 1..10, got %d", t.PollIntervalMs)
	}

	// ------------------------------------------------------------
	// SWEEP
	// ------------------------------------------------------------

	s := a.Sweep
	if s.StartUs < 0 || s.CeilingMs < 0 || s.MaxIterations < 0 {
		return fmt.Errorf("sweep: start_us, ceiling_ms and max_iterations must be >= 0")
	}
	if s.Factor != 0 && s.Factor < 2 {
		return fmt.Errorf("sweep: factor must be >= 2, got %d", s.Factor)
	}

	// ------------------------------------------------------------
	// POLICY
	// ------------------------------------------------------------

	switch a.Policy.OnAnomaly {
	case "", AnomalyAbort, AnomalyContinue:
	default:
		return fmt.Errorf("policy: unknown on_anomaly %q", a.Policy.OnAnomaly)
	}

	// ------------------------------------------------------------
	// SIMULATOR
	// ------------------------------------------------------------

	sim := a.Simulator
	if sim.TickUs < 0 || sim.StartLatencyMs < 0 || sim.StopLatencyMs < 0 || sim.DefaultRunMs < 0 {
		return fmt.Errorf("simulator: latencies and tick must be >= 0")
	}
	for idx, ms := range sim.Routines {
		if ms <= 0 {
			return fmt.Errorf("simulator: routine %d run time must be > 0", idx)
		}
	}

	// ------------------------------------------------------------
	// STATUS BLOCK (OPT-IN)
	// ------------------------------------------------------------

	if st := a.Status; st != nil {
		if st.Endpoint == "" {
			return fmt.Errorf("status: endpoint required when status is set")
		}
		// name sanity (ASCII only)
		for i := 0; i < len(st.Name); i++ {
			if st.Name[i] > 0x7F {
				return fmt.Errorf("status: name must contain ASCII characters only")
			}
		}
	}

	// ------------------------------------------------------------
	// SCENARIO
	// ------------------------------------------------------------

	if a.Scenario.DelayMs < 0 {
		return fmt.Errorf("scenario: delay_ms must be >= 0")
	}

	return nil
}
