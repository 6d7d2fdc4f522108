// internal/poller/builder.go
package poller

import (
	"time"

	cfg "github.com/tamzrod/modbus-armcheck/internal/config"
)

// Build constructs a Poller from normalized timing config.
func Build(t cfg.TimingConfig) (*Poller, error) {
	return New(Config{
		Interval: time.Duration(t.PollIntervalMs) * time.Millisecond,
	})
}
