package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSeasonStatusTransitions(t *testing.T) {
	assert.True(t, SeasonUpcoming.CanTransition(SeasonRegistrationOpen))
	assert.True(t, SeasonRegistrationOpen.CanTransition(SeasonUpcoming))
	assert.True(t, SeasonActive.CanTransition(SeasonCompleted))
	assert.False(t, SeasonCompleted.CanTransition(SeasonActive))
	assert.False(t, SeasonUpcoming.CanTransition(SeasonCompleted))
}

func TestGameStatusTransitions(t *testing.T) {
	assert.True(t, GameScheduled.CanTransition(GamePostponed))
	assert.True(t, GamePostponed.CanTransition(GameScheduled))
	assert.True(t, GameInProgress.CanTransition(GameForfeited))
	assert.False(t, GameCompleted.CanTransition(GameScheduled))
	assert.False(t, GameScheduled.CanTransition(GameCompleted))

	assert.True(t, GameCancelled.Terminal())
	assert.False(t, GamePostponed.Terminal())
}

func TestSeasonValidate(t *testing.T) {
	s := &Season{
		Name:      "Spring",
		StartDate: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
	}
	assert.Error(t, s.Validate())

	s.EndDate = time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	assert.NoError(t, s.Validate())

	s.RegistrationStart = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s.RegistrationDeadline = time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	assert.Error(t, s.Validate(), "registration must close before the season starts")
}

func TestBlackoutCovers(t *testing.T) {
	b := &BlackoutDate{
		StartDate:     time.Date(2026, 3, 6, 0, 0, 0, 0, time.UTC),
		EndDate:       time.Date(2026, 3, 8, 0, 0, 0, 0, time.UTC),
		AffectsVenues: []string{"v1"},
	}

	inRange := time.Date(2026, 3, 7, 13, 0, 0, 0, time.UTC)
	assert.True(t, b.Covers(inRange, "v1", "d1"))
	assert.False(t, b.Covers(inRange, "v2", "d1"))
	assert.False(t, b.Covers(time.Date(2026, 3, 9, 9, 0, 0, 0, time.UTC), "v1", "d1"))

	// Empty scope lists apply to everything.
	b.AffectsVenues = nil
	assert.True(t, b.Covers(inRange, "anything", "d9"))
}

func TestOverlapMath(t *testing.T) {
	base := time.Date(2026, 3, 7, 9, 0, 0, 0, time.UTC)

	assert.True(t, Overlaps(base, base.Add(time.Hour), base.Add(30*time.Minute), base.Add(90*time.Minute)))
	// Touching endpoints do not overlap.
	assert.False(t, Overlaps(base, base.Add(time.Hour), base.Add(time.Hour), base.Add(2*time.Hour)))

	assert.Equal(t, 30, OverlapMinutes(base, base.Add(time.Hour), base.Add(30*time.Minute), base.Add(2*time.Hour)))
	assert.Equal(t, 0, OverlapMinutes(base, base.Add(time.Hour), base.Add(time.Hour), base.Add(2*time.Hour)))
}

func TestRolePayShares(t *testing.T) {
	assert.Equal(t, 1.0, RoleHeadReferee.PayMultiplier())
	assert.Equal(t, 0.8, RoleAssistantReferee.PayMultiplier())
	assert.Equal(t, 0.6, RoleScorekeeper.PayMultiplier())
	assert.Equal(t, 0.5, RoleClockOperator.PayMultiplier())
	assert.Equal(t, 2, RoleAssistantReferee.MaxPerGame())
}

func TestParseEnumsRejectUnknown(t *testing.T) {
	_, err := ParseSeasonStatus("PAUSED")
	assert.Error(t, err)
	_, err = ParseGameType("EXHIBITION")
	assert.Error(t, err)
	_, err = ParseWeekday("SATURDAY")
	assert.Error(t, err)
	_, err = ParseRole("OWNER")
	assert.Error(t, err)

	status, err := ParseGameStatus("POSTPONED")
	assert.NoError(t, err)
	assert.Equal(t, GamePostponed, status)
}
