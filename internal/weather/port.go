// Package weather provides the forecast provider port, the heat-index math,
// and the heat-policy evaluator applied to outdoor venues.
package weather

import (
	"context"
	"time"
)

// Reading is one weather sample. HeatIndexF from the provider is ignored; the
// index is recomputed locally to eliminate provider dependence.
type Reading struct {
	TemperatureF float64   `json:"temperature_f"`
	Humidity     float64   `json:"humidity"`
	HeatIndexF   float64   `json:"heat_index_f"`
	Conditions   string    `json:"conditions"`
	WindMph      float64   `json:"wind_mph"`
	At           time.Time `json:"at"`
}

// Provider serves forecast and current-condition lookups. Implementations:
// the HTTP client in production, Mock in tests.
type Provider interface {
	// GetForecast returns the forecast sample closest to targetTime.
	GetForecast(ctx context.Context, city, state string, targetTime time.Time) (*Reading, error)
	GetCurrent(ctx context.Context, city, state string) (*Reading, error)
}

// ClosestReading picks the sample with the smallest |At - target|.
func ClosestReading(samples []Reading, target time.Time) *Reading {
	if len(samples) == 0 {
		return nil
	}
	best := &samples[0]
	bestDelta := absDuration(samples[0].At.Sub(target))
	for i := 1; i < len(samples); i++ {
		if d := absDuration(samples[i].At.Sub(target)); d < bestDelta {
			best, bestDelta = &samples[i], d
		}
	}
	return best
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
