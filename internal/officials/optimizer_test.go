package officials

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/courtly/leaguecore/internal/clock"
	"github.com/courtly/leaguecore/internal/conflict"
	"github.com/courtly/leaguecore/internal/domain"
)

var phoenix = time.FixedZone("MST", -7*3600)

func newTestOptimizer() *Optimizer {
	return NewOptimizer(nil, clock.NewFrozen(time.Date(2026, 3, 1, 8, 0, 0, 0, phoenix)), nil)
}

func scheduledGame(id, number string, start time.Time, gt domain.GameType) domain.Game {
	return domain.Game{
		ID: id, GameNumber: number, VenueID: "v1",
		HomeTeamID: "t1", AwayTeamID: "t2",
		GameType: gt, ScheduledStart: start, DurationMinutes: 60,
		Status: domain.GameScheduled,
	}
}

func official(id, name string, cert domain.CertificationLevel, rate float64, roles ...domain.OfficialRole) domain.Official {
	return domain.Official{
		ID: id, Name: name, Certification: cert, Specialties: roles,
		HourlyRate: rate, MaxGamesPerDay: 4, MaxGamesPerWeek: 12,
		Active: true,
	}
}

func fullCrew() []domain.Official {
	return []domain.Official{
		official("o1", "Alice Reyes", domain.CertAdvanced, 30, domain.RoleHeadReferee, domain.RoleAssistantReferee),
		official("o2", "Ben Okafor", domain.CertIntermediate, 18, domain.RoleScorekeeper),
		official("o3", "Cara Diaz", domain.CertBeginner, 15, domain.RoleClockOperator),
	}
}

func TestOptimizeStaffsRegularGame(t *testing.T) {
	start := time.Date(2026, 3, 7, 9, 0, 0, 0, phoenix)
	res := newTestOptimizer().Optimize(context.Background(), Input{
		Games:     []domain.Game{scheduledGame("g1", "G001", start, domain.GameRegular)},
		Officials: fullCrew(),
		Location:  phoenix,
	}, DefaultConstraints())

	assert.True(t, res.Success)
	assert.Equal(t, 1, res.Statistics.FullyStaffed)
	require.Len(t, res.Assignments, 3)

	byRole := make(map[domain.OfficialRole]domain.Assignment)
	for _, a := range res.Assignments {
		byRole[a.Role] = a
		assert.Equal(t, domain.AssignmentPending, a.Status)
	}
	assert.Equal(t, "o1", byRole[domain.RoleHeadReferee].OfficialID)
	assert.Equal(t, "o2", byRole[domain.RoleScorekeeper].OfficialID)
	assert.Equal(t, "o3", byRole[domain.RoleClockOperator].OfficialID)

	// Head referee: 30/h at full role share for a one-hour game.
	assert.Equal(t, 30.0, byRole[domain.RoleHeadReferee].PayRate)
	assert.Equal(t, 30.0, byRole[domain.RoleHeadReferee].EstimatedPay)
	// Scorekeeper gets the 0.6 role share.
	assert.Equal(t, 10.8, byRole[domain.RoleScorekeeper].PayRate)
}

func TestChampionshipPayPremiums(t *testing.T) {
	// 40/h head referee, championship premium 1.5x, competitive division 1.2x.
	div := &domain.Division{ID: "d1", SkillLevel: domain.SkillCompetitive}
	rate := payRate(&domain.Official{HourlyRate: 40}, domain.RoleHeadReferee, domain.GameChampionship, div)
	assert.Equal(t, 72.0, rate)

	// Playoff assistant: 40 * 0.8 * 1.25 * 1.2.
	rate = payRate(&domain.Official{HourlyRate: 40}, domain.RoleAssistantReferee, domain.GamePlayoff, div)
	assert.Equal(t, 48.0, rate)
}

func TestChampionshipRequiresAssistantAndExpert(t *testing.T) {
	start := time.Date(2026, 3, 7, 9, 0, 0, 0, phoenix)
	crew := fullCrew() // head referee is only ADVANCED

	res := newTestOptimizer().Optimize(context.Background(), Input{
		Games:     []domain.Game{scheduledGame("g1", "G001", start, domain.GameChampionship)},
		Officials: crew,
		Location:  phoenix,
	}, DefaultConstraints())

	// EXPERT head referee is missing; the game cannot be fully staffed.
	assert.False(t, res.Success)
	assert.Equal(t, []string{"g1"}, res.Unassigned)
	assert.GreaterOrEqual(t, res.Statistics.UnfilledRoles, 1)

	var mismatches int
	for _, c := range res.Conflicts {
		if c.Type == conflict.SkillMismatch {
			mismatches++
		}
	}
	assert.GreaterOrEqual(t, mismatches, 2) // per-role HIGH plus per-game CRITICAL
}

func TestDailyCapLimitsOneReferee(t *testing.T) {
	day := time.Date(2026, 3, 7, 9, 0, 0, 0, phoenix)
	games := make([]domain.Game, 4)
	for i := range games {
		games[i] = scheduledGame(fmt.Sprintf("g%d", i+1), fmt.Sprintf("G00%d", i+1),
			day.Add(time.Duration(i)*2*time.Hour), domain.GameRegular)
	}

	crew := fullCrew()
	crew[0].MaxGamesPerDay = 3 // the only head referee

	res := newTestOptimizer().Optimize(context.Background(), Input{
		Games:     games,
		Officials: crew,
		Location:  phoenix,
	}, DefaultConstraints())

	// Three games get a head referee; the fourth goes unstaffed.
	assert.False(t, res.Success)
	assert.Equal(t, []string{"g4"}, res.Unassigned)
	assert.Equal(t, 3, res.Statistics.FullyStaffed)
	assert.Equal(t, 1, res.Statistics.UnfilledRoles)

	headRefGames := 0
	for _, a := range res.Assignments {
		if a.OfficialID == "o1" {
			headRefGames++
		}
	}
	assert.Equal(t, 3, headRefGames)
}

func TestHigherScoringCandidateWins(t *testing.T) {
	start := time.Date(2026, 3, 7, 9, 0, 0, 0, phoenix)
	officials := []domain.Official{
		official("o1", "Cheap Intermediate", domain.CertIntermediate, 20, domain.RoleHeadReferee),
		official("o2", "Pricey Advanced", domain.CertAdvanced, 25, domain.RoleHeadReferee),
		official("o3", "Scorer", domain.CertBeginner, 15, domain.RoleScorekeeper),
		official("o4", "Clock", domain.CertBeginner, 15, domain.RoleClockOperator),
	}

	res := newTestOptimizer().Optimize(context.Background(), Input{
		Games:     []domain.Game{scheduledGame("g1", "G001", start, domain.GameRegular)},
		Officials: officials,
		Location:  phoenix,
	}, DefaultConstraints())

	for _, a := range res.Assignments {
		if a.Role == domain.RoleHeadReferee {
			// Certification outweighs the rate difference.
			assert.Equal(t, "o2", a.OfficialID)
		}
	}
}

func TestAvailabilityWindows(t *testing.T) {
	rules := []domain.OfficialAvailability{
		{DayOfWeek: domain.Saturday, StartTime: "09:00", EndTime: "12:00", Kind: domain.OfficialUnavailable, Recurring: true},
		{DayOfWeek: domain.Saturday, StartTime: "12:00", EndTime: "18:00", Kind: domain.OfficialAvailable, Recurring: true},
	}
	morning := time.Date(2026, 3, 7, 10, 0, 0, 0, phoenix)
	afternoon := time.Date(2026, 3, 7, 13, 0, 0, 0, phoenix)
	sunday := time.Date(2026, 3, 8, 10, 0, 0, 0, phoenix)

	assert.False(t, availableAt(rules, morning, morning.Add(time.Hour), phoenix))
	assert.True(t, availableAt(rules, afternoon, afternoon.Add(time.Hour), phoenix))
	// No rules apply to Sunday, so the official is available.
	assert.True(t, availableAt(rules, sunday, sunday.Add(time.Hour), phoenix))
	// No declared windows at all means available.
	assert.True(t, availableAt(nil, morning, morning.Add(time.Hour), phoenix))
}

func TestSpecificDateOverride(t *testing.T) {
	date := time.Date(2026, 3, 7, 0, 0, 0, 0, phoenix)
	rules := []domain.OfficialAvailability{
		{StartTime: "00:00", EndTime: "24:00", Kind: domain.OfficialUnavailable, Recurring: false, SpecificDate: &date},
	}
	onDate := time.Date(2026, 3, 7, 10, 0, 0, 0, phoenix)
	nextWeek := time.Date(2026, 3, 14, 10, 0, 0, 0, phoenix)

	assert.False(t, availableAt(rules, onDate, onDate.Add(time.Hour), phoenix))
	assert.True(t, availableAt(rules, nextWeek, nextWeek.Add(time.Hour), phoenix))
}

func TestExistingOverlapSurfacesAsCritical(t *testing.T) {
	start := time.Date(2026, 3, 7, 9, 0, 0, 0, phoenix)
	g1 := scheduledGame("g1", "G001", start, domain.GameRegular)
	g2 := scheduledGame("g2", "G002", start.Add(30*time.Minute), domain.GameRegular)
	g2.VenueID = "v2"

	res := newTestOptimizer().Optimize(context.Background(), Input{
		Games:     []domain.Game{g1, g2},
		Officials: fullCrew(),
		Existing: []domain.Assignment{
			{ID: "a1", GameID: "g1", OfficialID: "o1", Role: domain.RoleHeadReferee, Status: domain.AssignmentConfirmed},
			{ID: "a2", GameID: "g2", OfficialID: "o1", Role: domain.RoleHeadReferee, Status: domain.AssignmentConfirmed},
		},
		Location: phoenix,
	}, DefaultConstraints())

	var doubleBooked bool
	for _, c := range res.Conflicts {
		if c.Type == conflict.OfficialDoubleBook {
			doubleBooked = true
			assert.Equal(t, conflict.SeverityCritical, c.Severity)
			assert.Equal(t, []string{"o1"}, c.AffectedOfficials)
		}
	}
	assert.True(t, doubleBooked)
	assert.False(t, res.Success)
}

func TestRestWaivedForBackToBackSameVenue(t *testing.T) {
	w := &workload{games: []domain.Game{
		scheduledGame("g1", "G001", time.Date(2026, 3, 7, 9, 0, 0, 0, phoenix), domain.GameRegular),
	}}
	next := scheduledGame("g2", "G002", time.Date(2026, 3, 7, 10, 0, 0, 0, phoenix), domain.GameRegular)

	cons := DefaultConstraints()
	assert.True(t, restSatisfied(w, next, cons))

	// A different venue with zero gap violates the 30-minute rest rule.
	next.VenueID = "v2"
	assert.False(t, restSatisfied(w, next, cons))

	cons.AllowBackToBack = false
	next.VenueID = "v1"
	assert.False(t, restSatisfied(w, next, cons))
}

func TestGamesInWeekUsesRollingWindow(t *testing.T) {
	w := &workload{games: []domain.Game{
		scheduledGame("g1", "G001", time.Date(2026, 3, 1, 9, 0, 0, 0, phoenix), domain.GameRegular),
		scheduledGame("g2", "G002", time.Date(2026, 3, 9, 9, 0, 0, 0, phoenix), domain.GameRegular),
	}}

	// The held games are 8 days apart, so no 7-day window contains both. A
	// candidate between them shares a window with at most one of them.
	assert.Equal(t, 1, w.gamesInWeek(time.Date(2026, 3, 5, 9, 0, 0, 0, phoenix)))

	// Tight cluster: both held games fall in every window around the middle.
	w.games = []domain.Game{
		scheduledGame("g1", "G001", time.Date(2026, 3, 1, 9, 0, 0, 0, phoenix), domain.GameRegular),
		scheduledGame("g2", "G002", time.Date(2026, 3, 4, 9, 0, 0, 0, phoenix), domain.GameRegular),
	}
	assert.Equal(t, 2, w.gamesInWeek(time.Date(2026, 3, 3, 9, 0, 0, 0, phoenix)))

	// Empty slate.
	w.games = nil
	assert.Equal(t, 0, w.gamesInWeek(time.Date(2026, 3, 3, 9, 0, 0, 0, phoenix)))
}

func TestWeeklyCapAllowsSpreadOutGames(t *testing.T) {
	// The crew is capped at 2 games per week and already works games 8 days
	// apart. A game between them shares a rolling week with only one held
	// game on either side, so it must still be staffable.
	prev := scheduledGame("gprev", "G001", time.Date(2026, 3, 1, 9, 0, 0, 0, phoenix), domain.GameRegular)
	mid := scheduledGame("gmid", "G002", time.Date(2026, 3, 5, 9, 0, 0, 0, phoenix), domain.GameRegular)
	next := scheduledGame("gnext", "G003", time.Date(2026, 3, 9, 9, 0, 0, 0, phoenix), domain.GameRegular)

	var existing []domain.Assignment
	for i, gameID := range []string{"gprev", "gnext"} {
		for j, hold := range []struct {
			officialID string
			role       domain.OfficialRole
		}{
			{"o1", domain.RoleHeadReferee},
			{"o2", domain.RoleScorekeeper},
			{"o3", domain.RoleClockOperator},
		} {
			existing = append(existing, domain.Assignment{
				ID: fmt.Sprintf("a%d%d", i, j), GameID: gameID,
				OfficialID: hold.officialID, Role: hold.role,
				Status: domain.AssignmentConfirmed,
			})
		}
	}

	cons := DefaultConstraints()
	cons.MaxGamesPerWeek = 2

	res := newTestOptimizer().Optimize(context.Background(), Input{
		Games:     []domain.Game{prev, mid, next},
		Officials: fullCrew(),
		Existing:  existing,
		Location:  phoenix,
	}, cons)

	assert.True(t, res.Success)
	assert.Equal(t, 3, res.Statistics.FullyStaffed)
	require.Len(t, res.Assignments, 3)
	byRole := make(map[domain.OfficialRole]domain.Assignment)
	for _, a := range res.Assignments {
		assert.Equal(t, "gmid", a.GameID)
		byRole[a.Role] = a
	}
	assert.Equal(t, "o1", byRole[domain.RoleHeadReferee].OfficialID)
}
