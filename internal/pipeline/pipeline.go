// Package pipeline wires the pipeline's four in-process stages --
// analytics, risk, execution, plus whatever connector.Source feeds it --
// over the bounded SPSC queues in pkg/queue, one stage per goroutine with
// context-driven shutdown, the Go realization of the component design's
// concurrency model.
package pipeline

import (
	"context"
	"runtime"
	"time"

	"go.uber.org/zap"

	"github.com/peter-kozarec/sage/internal/config"
	"github.com/peter-kozarec/sage/internal/obs"
	"github.com/peter-kozarec/sage/pkg/analytics"
	"github.com/peter-kozarec/sage/pkg/connector"
	"github.com/peter-kozarec/sage/pkg/envelope"
	"github.com/peter-kozarec/sage/pkg/execution"
	"github.com/peter-kozarec/sage/pkg/execution/sandbox"
	"github.com/peter-kozarec/sage/pkg/queue"
	"github.com/peter-kozarec/sage/pkg/risk"
)

// idleBackoff is how long an empty-queue poll sleeps before retrying. The
// SPSC queue is non-blocking by design, so every consumer loop backs off
// briefly on an empty pop rather than spinning the core at 100%.
const idleBackoff = 50 * time.Microsecond

// Pipeline owns every stage and the queues between them.
type Pipeline struct {
	cfg config.Config
	log *zap.Logger

	tickQ  *queue.SPSC[envelope.Envelope]
	sigQ   *queue.SPSC[envelope.Envelope]
	orderQ *queue.SPSC[envelope.Envelope]

	analytics *analytics.Engine
	risk      *risk.Gate
	exec      *execution.Engine
	dispatch  *execution.Dispatcher
	sim       *sandbox.Simulator
	audit     *execution.AuditLog

	analyticsTel *obs.StageTelemetry
	riskTel      *obs.StageTelemetry
	execTel      *obs.StageTelemetry
}

// New assembles a Pipeline. The caller owns the returned audit log's
// lifetime via Close, called after Run's context is done.
func New(cfg config.Config, log *zap.Logger) (*Pipeline, error) {
	audit, err := execution.OpenAuditLog(cfg.AuditLogPath)
	if err != nil {
		return nil, err
	}

	dispatcher := execution.NewDispatcher(256, log)
	sim := sandbox.NewSimulator(dispatcher)
	execEngine := execution.NewEngine(audit, sim, dispatcher, nil, log)
	execEngine.BindDispatcher()

	return &Pipeline{
		cfg:          cfg,
		log:          log,
		tickQ:        queue.New[envelope.Envelope](cfg.Queues.TickToAnalytics),
		sigQ:         queue.New[envelope.Envelope](cfg.Queues.SignalToRisk),
		orderQ:       queue.New[envelope.Envelope](cfg.Queues.OrderToExecution),
		analytics:    analytics.New(cfg.Analytics),
		risk:         risk.New(cfg.Risk),
		exec:         execEngine,
		dispatch:     dispatcher,
		sim:          sim,
		audit:        audit,
		analyticsTel: obs.NewStageTelemetry("analytics", log),
		riskTel:      obs.NewStageTelemetry("risk", log),
		execTel:      obs.NewStageTelemetry("execution", log),
	}, nil
}

// Close releases the audit log. Call after Run's context has been
// cancelled and its goroutines have drained.
func (p *Pipeline) Close() error {
	return p.audit.Close()
}

// Run starts every stage goroutine and blocks until ctx is cancelled, then
// gives stages a moment to drain before returning.
func (p *Pipeline) Run(ctx context.Context, src connector.Source) {
	stop := make(chan struct{})
	go func() {
		<-ctx.Done()
		close(stop)
	}()

	go p.runIngest(ctx, src)
	go p.runAnalytics(ctx)
	go p.runRisk(ctx)
	go p.runExecution(ctx)
	go p.dispatch.Run(ctx)
	go p.audit.RunSyncLoop(p.cfg.AuditSyncPeriod, stop)
	go p.runHeartbeat(ctx)

	<-ctx.Done()
	time.Sleep(idleBackoff * 4)
}

// runIngest pulls envelopes from src and pushes ticks onto Q1, dropping
// anything that is not a tick (the connector contract only emits Tick and
// Heartbeat kinds) until the source is exhausted or ctx is cancelled.
func (p *Pipeline) runIngest(ctx context.Context, src connector.Source) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	for {
		if ctx.Err() != nil {
			return
		}
		env, ok, err := src.Next(ctx)
		if err != nil {
			p.log.Error("connector source error", zap.Error(err))
			return
		}
		if !ok {
			p.log.Info("connector source exhausted")
			return
		}
		if env.Kind != envelope.KindTick {
			continue
		}
		if env.ReceiptNanos == 0 {
			env.ReceiptNanos = time.Now().UnixNano()
		}
		p.sim.OnTick(env.Tick)
		for !p.tickQ.TryPush(env) {
			if ctx.Err() != nil {
				return
			}
			time.Sleep(idleBackoff)
		}
	}
}

// runAnalytics pops ticks off Q1, runs the analytics engine, and pushes any
// emitted signal onto Q2.
func (p *Pipeline) runAnalytics(ctx context.Context) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	var env envelope.Envelope
	for {
		if ctx.Err() != nil {
			return
		}
		if !p.tickQ.TryPop(&env) {
			time.Sleep(idleBackoff)
			continue
		}

		start := time.Now()
		now := start.UnixNano()
		sig, ok := p.analytics.Process(env.Tick, now, env.ReceiptNanos)
		p.analyticsTel.Observe(envelope.KindTick, time.Since(start))
		if !ok {
			continue
		}

		out := envelope.Envelope{ReceiptNanos: now, Kind: envelope.KindSignal, Signal: sig}
		for !p.sigQ.TryPush(out) {
			if ctx.Err() != nil {
				return
			}
			time.Sleep(idleBackoff)
		}
	}
}

// runRisk pops signals off Q2, mints an order id via the execution engine,
// evaluates the gate, and pushes an approved order onto Q3.
func (p *Pipeline) runRisk(ctx context.Context) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	var env envelope.Envelope
	for {
		if ctx.Err() != nil {
			return
		}
		if !p.sigQ.TryPop(&env) {
			time.Sleep(idleBackoff)
			continue
		}

		start := time.Now()
		now := start.UnixNano()
		orderID := p.exec.NextOrderID()
		order, reason := p.risk.Evaluate(env.Signal, orderID, now)
		p.riskTel.Observe(envelope.KindSignal, time.Since(start))
		if reason != risk.RejectNone {
			continue
		}

		out := envelope.Envelope{ReceiptNanos: now, Kind: envelope.KindOrderRequest, Order: order}
		for !p.orderQ.TryPush(out) {
			if ctx.Err() != nil {
				return
			}
			time.Sleep(idleBackoff)
		}
	}
}

// runExecution pops approved orders off Q3, submits them, and tells the
// sandbox simulator to fill them against its last known tick.
func (p *Pipeline) runExecution(ctx context.Context) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	var env envelope.Envelope
	for {
		if ctx.Err() != nil {
			return
		}
		if !p.orderQ.TryPop(&env) {
			time.Sleep(idleBackoff)
			continue
		}

		start := time.Now()
		now := start.UnixNano()
		orderID := p.exec.Submit(ctx, env.Order, now)
		env.Order.OrderID = orderID
		p.sim.Fill(orderID, env.Order)
		p.execTel.Observe(envelope.KindOrderRequest, time.Since(start))
	}
}

// runHeartbeat periodically logs stage telemetry summaries, standing in for
// the pipeline's internal Heartbeat envelopes.
func (p *Pipeline) runHeartbeat(ctx context.Context) {
	period := p.cfg.HeartbeatPeriod
	if period <= 0 {
		period = time.Second
	}
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.analyticsTel.LogSummary()
			p.riskTel.LogSummary()
			p.execTel.LogSummary()
			p.log.Info("risk gate metrics", zap.Any("metrics", p.risk.Metrics()))
			p.log.Info("analytics metrics", zap.Any("metrics", p.analytics.Metrics()))
			p.log.Info("dispatcher stats", zap.Any("stats", p.dispatch.Stats()))
		}
	}
}
