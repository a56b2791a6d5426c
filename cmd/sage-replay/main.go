package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/peter-kozarec/sage/internal/config"
	"github.com/peter-kozarec/sage/internal/obs"
	"github.com/peter-kozarec/sage/internal/pipeline"
	"github.com/peter-kozarec/sage/pkg/replay"
	"github.com/peter-kozarec/sage/pkg/runid"
)

// replaySymbol and replayExchangeID identify the historical series this
// harness replays; a fuller CLI would take these as flags.
const (
	replaySymbol     = "eurusd"
	replaySymbolID   = 1
	replayExchangeID = 1
)

func main() {
	cfg := config.FromEnv()
	if cfg.ReplayDBPath == "" {
		cfg.ReplayDBPath = "replay.duckdb"
	}

	logger := obs.NewDevLogger()
	defer logger.Sync()
	logger = logger.With(zap.String("run_id", runid.Reset().String()))

	logger.Info("sage-replay starting", zap.String("db", cfg.ReplayDBPath))
	defer logger.Info("sage-replay stopped")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	reader := replay.NewReader(cfg.ReplayDBPath)
	if err := reader.Open(); err != nil {
		logger.Fatal("unable to open replay database", zap.Error(err))
	}
	defer reader.Close()

	from := time.Unix(0, 0)
	to := time.Now()
	cursor, err := reader.Source(ctx, replaySymbolID, replaySymbol, replayExchangeID, from, to)
	if err != nil {
		logger.Fatal("unable to open replay cursor", zap.Error(err))
	}
	defer cursor.Close()

	p, err := pipeline.New(cfg, logger)
	if err != nil {
		logger.Fatal("unable to build pipeline", zap.Error(err))
	}
	defer func() {
		if err := p.Close(); err != nil {
			logger.Error("error closing pipeline", zap.Error(err))
		}
	}()

	p.Run(ctx, cursor)
}
