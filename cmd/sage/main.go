package main

import (
	"context"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/peter-kozarec/sage/internal/config"
	"github.com/peter-kozarec/sage/internal/obs"
	"github.com/peter-kozarec/sage/internal/pipeline"
	"github.com/peter-kozarec/sage/pkg/connector"
	"github.com/peter-kozarec/sage/pkg/connector/wsfeed"
	"github.com/peter-kozarec/sage/pkg/runid"
)

func main() {
	cfg := config.FromEnv()

	logger := obs.NewDevLogger()
	if cfg.Environment == "prod" {
		logger = obs.NewProdLogger()
	}
	defer logger.Sync()
	logger = logger.With(zap.String("run_id", runid.Get().String()))

	logger.Info("sage starting", zap.String("environment", cfg.Environment))
	defer logger.Info("sage stopped")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	p, err := pipeline.New(cfg, logger)
	if err != nil {
		logger.Fatal("unable to build pipeline", zap.Error(err))
	}
	defer func() {
		if err := p.Close(); err != nil {
			logger.Error("error closing pipeline", zap.Error(err))
		}
	}()

	src := buildSource(cfg)

	logger.Info("pipeline running; press ctrl-c to stop")
	p.Run(ctx, src)
}

// buildSource picks the connector source per cfg: a websocket feed if an
// exchange URL is configured, otherwise a synthetic EURUSD-like generator.
// Any connector.Source is interchangeable here as long as it honors the
// symbol_id/price/quantity invariants every downstream stage assumes.
func buildSource(cfg config.Config) connector.Source {
	if cfg.ExchangeWSURL != "" {
		logger := obs.NewDevLogger()
		feed, err := wsfeed.Dial(cfg.ExchangeWSURL, logger)
		if err == nil {
			return feed
		}
		logger.Warn("unable to dial exchange websocket feed, falling back to synthetic", zap.Error(err))
	}

	return connector.NewEURUSDSource(1, rand.New(rand.NewSource(time.Now().UnixNano())), 0, 0.08, 0)
}
