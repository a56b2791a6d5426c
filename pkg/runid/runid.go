// Package runid hands out the process-wide run identifier logged alongside
// every stage's startup and heartbeat messages, so one pipeline run's log
// lines can be told apart from any other's when logs from several runs are
// aggregated together.
package runid

import (
	"sync"

	"github.com/google/uuid"
)

// RunID identifies one run of the pipeline.
type RunID = uuid.UUID

var (
	current     RunID
	currentOnce sync.Once
	mu          sync.RWMutex
)

// Get returns the current run ID, generating a UUIDv7 the first time it is
// called. A v7 UUID embeds a millisecond timestamp, so run IDs also sort in
// start order.
func Get() RunID {
	currentOnce.Do(func() {
		current = uuid.Must(uuid.NewV7())
	})

	mu.RLock()
	defer mu.RUnlock()
	return current
}

// Reset generates and installs a new run ID, for use by the replay harness
// which starts a fresh logical run per invocation without restarting the
// process.
func Reset() RunID {
	// Consume the one-time initialization so a later Get cannot replace the
	// ID installed here.
	currentOnce.Do(func() {})

	mu.Lock()
	defer mu.Unlock()

	current = uuid.Must(uuid.NewV7())
	return current
}
