package connector

import (
	"math/rand"
	"time"
)

// NewEURUSDSource returns a SyntheticSource parameterized for a EURUSD-like
// series: tight spread, roughly one tick per second, low per-tick volume.
func NewEURUSDSource(symbolID uint32, rng *rand.Rand, mu, sigma float64, steps int64) *SyntheticSource {
	const (
		startPrice = 1.0550
		fullSpread = 0.00003
		minSpread  = 0.00001
		maxSpread  = 0.00006

		avgTickInterval  = time.Second
		tickVariability  = 0.45
		avgVolume        = 1
		volumeVariance   = 0.65
		spreadVolatility = 0.12

		secondsPerYear = 365.25 * 24 * 3600
	)

	return NewSyntheticSource(SyntheticConfig{
		SymbolID:   symbolID,
		Rng:        rng,
		StartPrice: startPrice,
		Mu:         mu,
		Sigma:      sigma,
		DeltaT:     avgTickInterval.Seconds() / secondsPerYear,

		AvgTickInterval: avgTickInterval,
		TickVariability: tickVariability,

		AvgVolume:      avgVolume,
		VolumeVariance: volumeVariance,

		BaseSpread:       fullSpread,
		MinSpread:        minSpread,
		MaxSpread:        maxSpread,
		SpreadVolatility: spreadVolatility,

		PriceDigits:  5,
		VolumeDigits: 2,

		Steps: steps,
	})
}
