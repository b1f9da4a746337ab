package travel

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/courtly/leaguecore/internal/domain"
)

// Downtown Phoenix to Tempe, roughly 13 km apart.
var (
	downtown = domain.GeoPoint{Lat: 33.4484, Lng: -112.0740}
	tempe    = domain.GeoPoint{Lat: 33.4255, Lng: -111.9400}
)

func TestHaversineKnownDistance(t *testing.T) {
	km := HaversineKm(downtown, tempe)
	assert.InDelta(t, 12.7, km, 1.0)

	assert.Equal(t, 0.0, HaversineKm(downtown, downtown))
}

func TestBetweenFallbacks(t *testing.T) {
	e := NewEstimator(nil)
	ctx := context.Background()

	a := &domain.Venue{ID: "a", Geo: &downtown}
	b := &domain.Venue{ID: "b", Geo: &tempe}
	noGeo := &domain.Venue{ID: "c"}

	assert.Equal(t, time.Duration(0), e.Between(ctx, nil, b))
	assert.Equal(t, time.Duration(0), e.Between(ctx, a, a))
	assert.Equal(t, 30*time.Minute, e.Between(ctx, a, noGeo))

	// ~13 km at 2 min/mile is under the floor for short hops but above it here.
	d := e.Between(ctx, a, b)
	assert.Greater(t, d, 15*time.Minute)
	assert.Less(t, d, 30*time.Minute)
}

func TestFromDistanceKmFloor(t *testing.T) {
	e := NewEstimator(nil)
	assert.Equal(t, 15*time.Minute, e.FromDistanceKm(1))

	// 40 km is about 25 miles, 50 minutes at the standard pace.
	d := e.FromDistanceKm(40)
	assert.InDelta(t, 50, d.Minutes(), 2)
}
