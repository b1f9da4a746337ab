package schedule

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/courtly/leaguecore/internal/clock"
	"github.com/courtly/leaguecore/internal/domain"
)

func testSeason(start, end time.Time) *domain.Season {
	return &domain.Season{
		ID:        "s1",
		Name:      "Spring 2026",
		StartDate: start,
		EndDate:   end,
		Status:    domain.SeasonUpcoming,
		Timezone:  "America/Phoenix",
	}
}

func testInputs(teams int, start, end time.Time) Inputs {
	return Inputs{
		Season: testSeason(start, end),
		Teams:  teamList(teams),
		Venues: []domain.Venue{
			{ID: "v1", Name: "Main Gym", Type: domain.VenueIndoor, Active: true},
		},
	}
}

func TestGenerateFourTeamsTwoSaturdays(t *testing.T) {
	// 2026-03-07 and 2026-03-14 are Saturdays; three times per day gives six
	// slots, exactly enough for the six round-robin games on one court.
	loc, err := time.LoadLocation("America/Phoenix")
	require.NoError(t, err)
	start := time.Date(2026, 3, 7, 0, 0, 0, 0, loc)
	end := time.Date(2026, 3, 14, 0, 0, 0, 0, loc)

	gen := NewGenerator(nil, nil, clock.NewFrozen(start), nil, 3)
	plan, err := gen.Generate(context.Background(), testInputs(4, start, end), Params{})
	require.NoError(t, err)

	assert.True(t, plan.Success)
	assert.Empty(t, plan.Warnings)
	assert.Equal(t, 6, plan.Statistics.TotalGames)
	assert.Equal(t, 6, plan.Statistics.Scheduled)
	assert.Equal(t, 6, plan.Statistics.VenueUtilization["v1"])

	// No two games share the venue at the same start.
	starts := make(map[int64]bool)
	for _, g := range plan.Games {
		assert.False(t, starts[g.ScheduledStart.Unix()], "venue double-booked at %s", g.ScheduledStart)
		starts[g.ScheduledStart.Unix()] = true
	}

	// Chronological numbering.
	require.Len(t, plan.Games, 6)
	assert.Equal(t, "G001", plan.Games[0].GameNumber)
	assert.Equal(t, "G006", plan.Games[5].GameNumber)
	for i := 1; i < len(plan.Games); i++ {
		assert.False(t, plan.Games[i].ScheduledStart.Before(plan.Games[i-1].ScheduledStart))
	}
}

func TestGenerateSingleDayCapacityShortfall(t *testing.T) {
	// One Saturday with three slots cannot host six games on one court; the
	// overflow surfaces as warnings, not failure.
	loc, _ := time.LoadLocation("America/Phoenix")
	day := time.Date(2026, 3, 7, 0, 0, 0, 0, loc)

	gen := NewGenerator(nil, nil, clock.NewFrozen(day), nil, 2)
	plan, err := gen.Generate(context.Background(), testInputs(4, day, day), Params{})
	require.NoError(t, err)

	assert.True(t, plan.Success)
	assert.Equal(t, 3, plan.Statistics.Scheduled)
	assert.Len(t, plan.Warnings, 3)
}

func TestGenerateRespectsBlackouts(t *testing.T) {
	loc, _ := time.LoadLocation("America/Phoenix")
	start := time.Date(2026, 3, 7, 0, 0, 0, 0, loc)
	end := time.Date(2026, 3, 14, 0, 0, 0, 0, loc)

	in := testInputs(2, start, end)
	in.Blackouts = []domain.BlackoutDate{{
		ID:        "b1",
		SeasonID:  "s1",
		Reason:    "facility closed",
		StartDate: start,
		EndDate:   start,
	}}

	gen := NewGenerator(nil, nil, clock.NewFrozen(start), nil, 1)
	plan, err := gen.Generate(context.Background(), in, Params{RespectBlackoutDates: true})
	require.NoError(t, err)

	require.Len(t, plan.Games, 1)
	assert.Equal(t, 14, plan.Games[0].ScheduledStart.In(loc).Day())
}

func TestGenerateWeeklyCapLimitsPlacement(t *testing.T) {
	loc, _ := time.LoadLocation("America/Phoenix")
	start := time.Date(2026, 3, 7, 0, 0, 0, 0, loc)
	end := time.Date(2026, 3, 14, 0, 0, 0, 0, loc)

	gen := NewGenerator(nil, nil, clock.NewFrozen(start), nil, 1)
	plan, err := gen.Generate(context.Background(), testInputs(4, start, end), Params{
		MaxGamesPerDay: 1,
	})
	require.NoError(t, err)

	// One game per team per day over two Saturdays caps each team at two
	// games, so at most four of the six matchups fit.
	perTeamPerDay := make(map[string]int)
	for _, g := range plan.Games {
		day := g.ScheduledStart.In(loc).Format("2006-01-02")
		perTeamPerDay[g.HomeTeamID+day]++
		perTeamPerDay[g.AwayTeamID+day]++
	}
	for key, count := range perTeamPerDay {
		assert.LessOrEqual(t, count, 1, "daily cap exceeded for %s", key)
	}
	assert.LessOrEqual(t, plan.Statistics.Scheduled, 4)
}

func TestGenerateSkipsUnderfilledDivision(t *testing.T) {
	loc, _ := time.LoadLocation("America/Phoenix")
	start := time.Date(2026, 3, 7, 0, 0, 0, 0, loc)

	in := testInputs(2, start, start)
	in.Teams = append(in.Teams, domain.Team{ID: "solo", Name: "Solo", DivisionID: "d2"})

	gen := NewGenerator(nil, nil, clock.NewFrozen(start), nil, 1)
	plan, err := gen.Generate(context.Background(), in, Params{})
	require.NoError(t, err)

	assert.Len(t, plan.Games, 1)
	require.Len(t, plan.Warnings, 1)
	assert.Contains(t, plan.Warnings[0], "d2")
}

func TestGenerateCancelledContextIsPartial(t *testing.T) {
	loc, _ := time.LoadLocation("America/Phoenix")
	start := time.Date(2026, 3, 7, 0, 0, 0, 0, loc)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	gen := NewGenerator(nil, nil, clock.NewFrozen(start), nil, 1)
	plan, err := gen.Generate(ctx, testInputs(4, start, start), Params{})
	require.NoError(t, err)
	assert.False(t, plan.Success)
}
