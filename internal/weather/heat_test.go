package weather

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/courtly/leaguecore/internal/domain"
)

var phoenix = time.FixedZone("MST", -7*3600)

func outdoorVenue() *domain.Venue {
	return &domain.Venue{ID: "v1", Name: "Sunnyslope Park", Type: domain.VenueOutdoor, City: "Phoenix", State: "AZ"}
}

type stubProvider struct {
	reading *Reading
	err     error
}

func (s *stubProvider) GetForecast(_ context.Context, _, _ string, _ time.Time) (*Reading, error) {
	return s.reading, s.err
}

func (s *stubProvider) GetCurrent(_ context.Context, _, _ string) (*Reading, error) {
	return s.reading, s.err
}

func TestHeatIndexBelowRegressionRange(t *testing.T) {
	assert.Equal(t, 75.0, HeatIndexF(75, 50))
}

func TestHeatIndexPhoenixAfternoon(t *testing.T) {
	// 112F at 18% humidity, a typical July afternoon.
	hi := HeatIndexF(112, 18)
	assert.InDelta(t, 113.3, hi, 0.5)
}

func TestHeatIndexLowHumidityAdjustment(t *testing.T) {
	// Below 13% humidity the adjustment pulls the index down.
	withAdj := HeatIndexF(100, 10)
	without := HeatIndexF(100, 13)
	assert.Less(t, withAdj-without, 0.0)
}

func TestEvaluateIndoorVenueAlwaysAllowed(t *testing.T) {
	e := NewEvaluator(&stubProvider{err: fmt.Errorf("should not be called")}, DefaultPolicyConfig(), nil)
	indoor := &domain.Venue{ID: "v2", Type: domain.VenueIndoor}

	res := e.Evaluate(context.Background(), indoor, time.Date(2026, 7, 4, 13, 0, 0, 0, phoenix), nil)
	assert.True(t, res.Allowed)
	assert.Equal(t, LevelNone, res.Level)
}

func TestEvaluateDangerDuringDangerousHours(t *testing.T) {
	// 96F at 50% humidity computes to roughly 108F heat index.
	reading := &Reading{TemperatureF: 96, Humidity: 50}
	e := NewEvaluator(&stubProvider{}, DefaultPolicyConfig(), nil)

	res := e.Evaluate(context.Background(), outdoorVenue(), time.Date(2026, 7, 4, 13, 0, 0, 0, phoenix), reading)
	assert.Equal(t, LevelDanger, res.Level)
	assert.False(t, res.Allowed)
	assert.False(t, res.AutomaticCancellation)
	assert.NotEmpty(t, res.Recommendations)
}

func TestEvaluateSameIndexAllowedInEvening(t *testing.T) {
	// Identical conditions outside 11:00-18:00 downgrade to WARNING with
	// restrictions instead of a refusal.
	reading := &Reading{TemperatureF: 96, Humidity: 50}
	e := NewEvaluator(&stubProvider{}, DefaultPolicyConfig(), nil)

	res := e.Evaluate(context.Background(), outdoorVenue(), time.Date(2026, 7, 4, 19, 30, 0, 0, phoenix), reading)
	assert.Equal(t, LevelWarning, res.Level)
	assert.True(t, res.Allowed)
	assert.NotEmpty(t, res.Restrictions)
}

func TestEvaluateExtremeAutoCancels(t *testing.T) {
	// 108F at 40% humidity pushes the index past 115F.
	reading := &Reading{TemperatureF: 108, Humidity: 40}
	e := NewEvaluator(&stubProvider{}, DefaultPolicyConfig(), nil)

	res := e.Evaluate(context.Background(), outdoorVenue(), time.Date(2026, 7, 4, 19, 30, 0, 0, phoenix), reading)
	assert.Equal(t, LevelExtreme, res.Level)
	assert.False(t, res.Allowed)
	assert.True(t, res.AutomaticCancellation)
}

func TestEvaluateCautionOutsideDangerousHours(t *testing.T) {
	reading := &Reading{TemperatureF: 90, Humidity: 60}
	e := NewEvaluator(&stubProvider{}, DefaultPolicyConfig(), nil)

	res := e.Evaluate(context.Background(), outdoorVenue(), time.Date(2026, 7, 4, 19, 30, 0, 0, phoenix), reading)
	assert.Equal(t, LevelCaution, res.Level)
	assert.True(t, res.Allowed)
}

func TestEvaluateProviderFailureRefusesSlot(t *testing.T) {
	e := NewEvaluator(&stubProvider{err: fmt.Errorf("upstream down")}, DefaultPolicyConfig(), nil)

	res := e.Evaluate(context.Background(), outdoorVenue(), time.Date(2026, 7, 4, 9, 0, 0, 0, phoenix), nil)
	assert.False(t, res.Allowed)
	assert.Equal(t, LevelWarning, res.Level)
}

func TestEvaluateOngoingProviderFailureContinues(t *testing.T) {
	e := NewEvaluator(&stubProvider{err: fmt.Errorf("upstream down")}, DefaultPolicyConfig(), nil)

	res := e.EvaluateOngoing(context.Background(), outdoorVenue(), time.Date(2026, 7, 4, 13, 0, 0, 0, phoenix))
	assert.True(t, res.Allowed)
	assert.Equal(t, LevelWarning, res.Level)
}

func TestClosestReading(t *testing.T) {
	base := time.Date(2026, 7, 4, 12, 0, 0, 0, phoenix)
	samples := []Reading{
		{TemperatureF: 100, At: base.Add(-3 * time.Hour)},
		{TemperatureF: 108, At: base.Add(-30 * time.Minute)},
		{TemperatureF: 111, At: base.Add(2 * time.Hour)},
	}
	got := ClosestReading(samples, base)
	assert.Equal(t, 108.0, got.TemperatureF)

	assert.Nil(t, ClosestReading(nil, base))
}
