// Package config holds the pipeline's static parameterization: one flat
// struct per stage, assembled from environment variables at startup rather
// than a hot-reloadable settings layer. Static and loaded once by design:
// configuration reload is explicitly out of scope.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/peter-kozarec/sage/pkg/analytics"
	"github.com/peter-kozarec/sage/pkg/risk"
)

// QueueCapacities sizes the three inter-stage SPSC queues (Q1, Q2, Q3). Each
// must be a power of two.
type QueueCapacities struct {
	TickToAnalytics   int
	SignalToRisk      int
	OrderToExecution  int
}

// Config aggregates every stage's static parameters plus the ambient
// process-level settings (logging, audit path, DuckDB source).
type Config struct {
	Environment string // "dev" or "prod", selects the logger encoder

	Queues QueueCapacities

	Analytics analytics.Config
	Risk      risk.Config

	AuditLogPath    string
	AuditSyncPeriod time.Duration

	ExchangeWSURL string // wsfeed endpoint; empty means use the synthetic source
	ReplayDBPath  string // DuckDB source path; empty means live/synthetic mode

	HeartbeatPeriod time.Duration
}

// Default returns the configuration used when no environment overrides are
// present: synthetic feed, dev logger, conservative risk limits.
func Default() Config {
	return Config{
		Environment: "dev",
		Queues: QueueCapacities{
			TickToAnalytics:  4096,
			SignalToRisk:     1024,
			OrderToExecution: 1024,
		},
		Analytics:       analytics.DefaultConfig(),
		Risk:            risk.DefaultConfig(),
		AuditLogPath:    "audit.log",
		AuditSyncPeriod: 50 * time.Millisecond,
		HeartbeatPeriod: time.Second,
	}
}

// FromEnv overlays environment variables onto Default() rather than reading
// a config file.
func FromEnv() Config {
	cfg := Default()

	if v := os.Getenv("SAGE_ENV"); v != "" {
		cfg.Environment = v
	}
	if v := os.Getenv("SAGE_AUDIT_LOG_PATH"); v != "" {
		cfg.AuditLogPath = v
	}
	if v := os.Getenv("SAGE_EXCHANGE_WS_URL"); v != "" {
		cfg.ExchangeWSURL = v
	}
	if v := os.Getenv("SAGE_REPLAY_DB_PATH"); v != "" {
		cfg.ReplayDBPath = v
	}
	if v := os.Getenv("SAGE_AUDIT_SYNC_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.AuditSyncPeriod = time.Duration(n) * time.Second
		}
	}

	return cfg
}
