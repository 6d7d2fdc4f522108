// internal/subroutine/builder.go
package subroutine

import (
	"time"

	cfg "github.com/tamzrod/modbus-armcheck/internal/config"
)

// ConfigFromTiming converts normalized timing config.
func ConfigFromTiming(t cfg.TimingConfig) Config {
	ms := func(v int) time.Duration { return time.Duration(v) * time.Millisecond }
	return Config{
		StartTimeout:      ms(t.StartTimeoutMs),
		CompletionTimeout: ms(t.CompletionTimeoutMs),
		StopGrace:         ms(t.StopGraceMs),
		SettleDelay:       ms(t.SettleMs),
	}
}
