// internal/poller/runner.go
package poller

import (
	"context"
	"time"
)

// Tick calls fn on every interval until ctx is done.
// One goroutine, no overlap: a slow fn delays the next tick.
func Tick(ctx context.Context, interval time.Duration, fn func(now time.Time)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			fn(now)
		}
	}
}
