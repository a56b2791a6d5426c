package execution

// Metrics is a snapshot of the execution stage's lifecycle counters,
// summarizing an in-flight engine's health for the heartbeat path.
type Metrics struct {
	Sent        uint64
	Errors      uint64
	Truncations uint64
	Dispatcher  Stats
}

// Snapshot collects the engine's current counters.
func (e *Engine) Snapshot() Metrics {
	return Metrics{
		Sent:        e.SentCount(),
		Errors:      e.ErrorCount(),
		Truncations: e.audit.Truncations(),
		Dispatcher:  e.dispatcher.Stats(),
	}
}
