// internal/scenario/builder.go
package scenario

import (
	"time"

	cfg "github.com/tamzrod/modbus-armcheck/internal/config"
)

// OptionsFromConfig converts normalized sweep and policy config.
// Observers are attached by the caller.
func OptionsFromConfig(s cfg.SweepConfig, p cfg.PolicyConfig) Options {
	o := Options{
		Sweep: Sweep{
			Start:           time.Duration(s.StartUs) * time.Microsecond,
			Factor:          s.Factor,
			Ceiling:         time.Duration(s.CeilingMs) * time.Millisecond,
			MaxIterations:   s.MaxIterations,
			StopOnEarlyStop: s.StopOnEarlyStop,
		},
	}
	if p.OnAnomaly == cfg.AnomalyContinue {
		o.OnAnomaly = ContinueOnAnomaly
	}
	return o
}

// FromConfig converts the configured scenario. An empty kind is reported
// as ok=false so the caller can prompt instead.
func FromConfig(c cfg.ScenarioConfig) (sc Scenario, ok bool, err error) {
	if c.Kind == "" {
		return Scenario{}, false, nil
	}
	k, err := ParseKind(c.Kind)
	if err != nil {
		return Scenario{}, false, err
	}
	return Scenario{
		Kind:  k,
		Index: c.Index,
		Delay: time.Duration(c.DelayMs) * time.Millisecond,
	}, true, nil
}
