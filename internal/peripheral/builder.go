// internal/peripheral/builder.go
package peripheral

import (
	"time"

	cfg "github.com/tamzrod/modbus-armcheck/internal/config"
)

// ConfigFromSimulator converts normalized simulator config.
func ConfigFromSimulator(s cfg.SimulatorConfig) Config {
	ms := func(v int) time.Duration { return time.Duration(v) * time.Millisecond }

	runs := make(map[uint16]time.Duration, len(s.Routines))
	for idx, v := range s.Routines {
		runs[idx] = ms(v)
	}

	return Config{
		Tick:                time.Duration(s.TickUs) * time.Microsecond,
		StartLatency:        ms(s.StartLatencyMs),
		StopLatency:         ms(s.StopLatencyMs),
		DefaultRunTime:      ms(s.DefaultRunMs),
		RunTimes:            runs,
		RejectUnknown:       s.RejectUnknown,
		IgnoreStop:          s.IgnoreStop,
		RestartWhileEnabled: s.RestartWhileEnabled,
	}
}
