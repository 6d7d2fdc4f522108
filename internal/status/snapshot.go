// internal/status/snapshot.go
package status

// Snapshot represents exactly what the writer is allowed to deliver.
// It contains no logic and no memory of the past beyond current totals.
type Snapshot struct {
	Health    uint16
	LastClass uint16
	LastIndex uint16
	Passed    uint16
	Failed    uint16
	ElapsedMs uint16
	DelayMs   uint16
}
