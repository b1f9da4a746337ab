// Package travel estimates door-to-door travel time between venues. The
// default estimator is a haversine fallback; a route provider port lets a
// real routing service slot in later without touching callers.
package travel

import (
	"context"
	"math"
	"time"

	"github.com/courtly/leaguecore/internal/config"
	"github.com/courtly/leaguecore/internal/domain"
)

const earthRadiusKm = 6371.0

// HaversineKm returns the great-circle distance between two points.
func HaversineKm(a, b domain.GeoPoint) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusKm * math.Asin(math.Sqrt(h))
}

// KmToMiles converts kilometers to statute miles.
func KmToMiles(km float64) float64 { return km * 0.621371 }

// RouteProvider resolves travel time between two points. Implementations may
// call an external routing service.
type RouteProvider interface {
	TravelTime(ctx context.Context, from, to domain.GeoPoint) (time.Duration, error)
}

// Estimator computes travel estimates, preferring the route provider and
// falling back to haversine distance at a fixed pace.
type Estimator struct {
	routes         RouteProvider // optional
	minutesPerMile float64
	floor          time.Duration
	noGeoDefault   time.Duration
}

// NewEstimator builds an estimator with the standard pace: 2 min/mile with a
// 15-minute floor, and a flat 30 minutes when either endpoint has no
// coordinates.
func NewEstimator(routes RouteProvider) *Estimator {
	return &Estimator{
		routes:         routes,
		minutesPerMile: config.DefaultMinutesPerMile,
		floor:          config.DefaultTravelFloorMin * time.Minute,
		noGeoDefault:   config.DefaultNoGeoTravelMin * time.Minute,
	}
}

// Between estimates travel time between venues.
func (e *Estimator) Between(ctx context.Context, from, to *domain.Venue) time.Duration {
	if from == nil || to == nil || from.ID == to.ID {
		return 0
	}
	if from.Geo == nil || to.Geo == nil {
		return e.noGeoDefault
	}
	if e.routes != nil {
		if d, err := e.routes.TravelTime(ctx, *from.Geo, *to.Geo); err == nil {
			return d
		}
		// Route provider failure falls through to the haversine estimate.
	}
	return e.FromDistanceKm(HaversineKm(*from.Geo, *to.Geo))
}

// FromDistanceKm converts a distance to a travel duration at the configured
// pace, clamped to the floor.
func (e *Estimator) FromDistanceKm(km float64) time.Duration {
	minutes := KmToMiles(km) * e.minutesPerMile
	d := time.Duration(minutes * float64(time.Minute))
	if d < e.floor {
		return e.floor
	}
	return d
}

// DistanceKm returns the haversine distance between two venues, or -1 when
// either lacks coordinates.
func DistanceKm(from, to *domain.Venue) float64 {
	if from == nil || to == nil || from.Geo == nil || to.Geo == nil {
		return -1
	}
	return HaversineKm(*from.Geo, *to.Geo)
}
