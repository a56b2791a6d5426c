package connector

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/peter-kozarec/sage/pkg/envelope"
	"github.com/peter-kozarec/sage/pkg/fixed"
)

const syntheticExchangeID uint16 = 1

// SyntheticConfig parameterizes a geometric-Brownian-motion mid-price path
// that alternates bid/ask ticks around it.
type SyntheticConfig struct {
	SymbolID uint32
	Rng      *rand.Rand

	StartPrice float64
	Mu         float64 // annualized drift
	Sigma      float64 // annualized volatility
	DeltaT     float64 // year-fraction per step

	AvgTickInterval time.Duration // 0 disables pacing (emit as fast as polled)
	TickVariability float64       // fraction of AvgTickInterval to jitter by

	AvgVolume      float64
	VolumeVariance float64 // fraction

	BaseSpread       float64
	MinSpread        float64
	MaxSpread        float64
	SpreadVolatility float64 // fraction

	PriceDigits  int
	VolumeDigits int

	Steps int64 // 0 means unbounded
}

// SyntheticSource emits an alternating bid/ask tick stream for one symbol
// following a GBM mid-price path.
type SyntheticSource struct {
	cfg SyntheticConfig

	t             int64
	lastPrice     float64
	currentSpread float64

	pending     envelope.Envelope
	havePending bool
}

// NewSyntheticSource builds a generator, filling unset fields with sensible
// defaults (30% timing jitter, unit average volume, 10% spread volatility).
// An unset AvgTickInterval stays 0, so pacing is off.
func NewSyntheticSource(cfg SyntheticConfig) *SyntheticSource {
	if cfg.Rng == nil {
		cfg.Rng = rand.New(rand.NewSource(1))
	}
	if cfg.TickVariability == 0 {
		cfg.TickVariability = 0.3
	}
	if cfg.AvgVolume == 0 {
		cfg.AvgVolume = 1
	}
	if cfg.VolumeVariance == 0 {
		cfg.VolumeVariance = 0.5
	}
	if cfg.BaseSpread == 0 {
		cfg.BaseSpread = cfg.StartPrice * 0.0001
	}
	if cfg.MinSpread == 0 {
		cfg.MinSpread = cfg.BaseSpread * 0.5
	}
	if cfg.MaxSpread == 0 {
		cfg.MaxSpread = cfg.BaseSpread * 1.5
	}
	if cfg.SpreadVolatility == 0 {
		cfg.SpreadVolatility = 0.1
	}
	if cfg.PriceDigits == 0 {
		cfg.PriceDigits = 5
	}
	return &SyntheticSource{
		cfg:           cfg,
		lastPrice:     cfg.StartPrice,
		currentSpread: cfg.BaseSpread,
	}
}

// Next advances the path by one step on the first call of a pair and returns
// the bid tick, then returns the matching ask tick on the following call
// without advancing the path further.
func (s *SyntheticSource) Next(ctx context.Context) (envelope.Envelope, bool, error) {
	if err := ctx.Err(); err != nil {
		return envelope.Envelope{}, false, err
	}

	if s.havePending {
		s.havePending = false
		return s.pending, true, nil
	}

	if s.cfg.Steps > 0 && s.t >= s.cfg.Steps {
		return envelope.Envelope{}, false, nil
	}

	if s.cfg.AvgTickInterval > 0 {
		if !sleepJittered(ctx, s.cfg.Rng, s.cfg.AvgTickInterval, s.cfg.TickVariability) {
			return envelope.Envelope{}, false, ctx.Err()
		}
	}

	s.step()
	s.t++

	now := time.Now().UnixNano()
	bidPrice := round(s.lastPrice-s.currentSpread/2, s.cfg.PriceDigits)
	askPrice := round(s.lastPrice+s.currentSpread/2, s.cfg.PriceDigits)
	if bidPrice <= 0 {
		bidPrice = round(s.lastPrice, s.cfg.PriceDigits)
	}

	bid := envelope.Envelope{
		ReceiptNanos: now,
		Kind:         envelope.KindTick,
		Tick: envelope.TickPayload{
			Price:      fixed.FromFloat64(bidPrice),
			Quantity:   fixed.FromFloat64(round(s.generateVolume(), s.cfg.VolumeDigits)),
			SymbolID:   s.cfg.SymbolID,
			ExchangeID: syntheticExchangeID,
			Flags:      envelope.TickFlagBid,
		},
	}
	ask := envelope.Envelope{
		ReceiptNanos: now,
		Kind:         envelope.KindTick,
		Tick: envelope.TickPayload{
			Price:      fixed.FromFloat64(askPrice),
			Quantity:   fixed.FromFloat64(round(s.generateVolume(), s.cfg.VolumeDigits)),
			SymbolID:   s.cfg.SymbolID,
			ExchangeID: syntheticExchangeID,
			Flags:      envelope.TickFlagAsk,
		},
	}

	s.pending = ask
	s.havePending = true
	return bid, true, nil
}

// step advances the mid-price one tick under GBM and lets the spread
// random-walk within its configured band.
func (s *SyntheticSource) step() {
	z := s.cfg.Rng.NormFloat64()
	drift := (s.cfg.Mu - 0.5*s.cfg.Sigma*s.cfg.Sigma) * s.cfg.DeltaT
	diffusion := s.cfg.Sigma * math.Sqrt(s.cfg.DeltaT) * z
	s.lastPrice *= math.Exp(drift + diffusion)

	if s.cfg.SpreadVolatility <= 0 {
		return
	}
	change := s.cfg.Rng.NormFloat64() * s.cfg.SpreadVolatility
	next := s.currentSpread * (1.0 + change)
	switch {
	case next < s.cfg.MinSpread:
		s.currentSpread = s.cfg.MinSpread
	case next > s.cfg.MaxSpread:
		s.currentSpread = s.cfg.MaxSpread
	default:
		s.currentSpread = next
	}
}

func (s *SyntheticSource) generateVolume() float64 {
	variation := s.cfg.Rng.NormFloat64() * s.cfg.VolumeVariance
	vol := s.cfg.AvgVolume * math.Exp(variation)
	if vol <= 0 {
		vol = 1
	}
	return vol
}

func round(v float64, digits int) float64 {
	scale := math.Pow(10, float64(digits))
	return math.Round(v*scale) / scale
}

// sleepJittered pauses for an exponentially-distributed interval with mean
// avg, clamped to [avg*(1-variability), avg*(1+3*variability)], returning
// false if ctx is cancelled first.
func sleepJittered(ctx context.Context, rng *rand.Rand, avg time.Duration, variability float64) bool {
	interval := avg
	if variability > 0 {
		lambda := 1.0 / float64(avg.Nanoseconds())
		ns := rng.ExpFloat64() / lambda
		min := float64(avg.Nanoseconds()) * (1.0 - variability)
		max := float64(avg.Nanoseconds()) * (1.0 + variability*3)
		if ns < min {
			ns = min
		} else if ns > max {
			ns = max
		}
		interval = time.Duration(int64(ns))
	}

	timer := time.NewTimer(interval)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
