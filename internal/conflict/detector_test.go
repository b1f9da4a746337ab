package conflict

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/courtly/leaguecore/internal/clock"
	"github.com/courtly/leaguecore/internal/domain"
	"github.com/courtly/leaguecore/internal/travel"
)

var phoenix = time.FixedZone("MST", -7*3600)

func newTestDetector() *Detector {
	return New(DefaultConfig(), nil, clock.NewFrozen(time.Date(2026, 3, 1, 8, 0, 0, 0, phoenix)))
}

func game(id, number, venueID, home, away string, start time.Time, minutes int) domain.Game {
	return domain.Game{
		ID: id, GameNumber: number, VenueID: venueID,
		HomeTeamID: home, AwayTeamID: away,
		ScheduledStart: start, DurationMinutes: minutes,
		Status: domain.GameScheduled,
	}
}

func detect(t *testing.T, in Input) []Conflict {
	t.Helper()
	out, err := newTestDetector().Detect(context.Background(), in)
	require.NoError(t, err)
	return out
}

func byType(conflicts []Conflict, typ Type) []Conflict {
	var out []Conflict
	for _, c := range conflicts {
		if c.Type == typ {
			out = append(out, c)
		}
	}
	return out
}

func TestVenueDoubleBookingWithBuffer(t *testing.T) {
	// Second game starts exactly when the first ends; the 30-minute buffer
	// still makes that a double booking.
	start := time.Date(2026, 3, 7, 9, 0, 0, 0, phoenix)
	in := Input{
		Games: []domain.Game{
			game("g1", "G001", "v1", "t1", "t2", start, 60),
			game("g2", "G002", "v1", "t3", "t4", start.Add(60*time.Minute), 60),
		},
		Location: phoenix,
	}

	found := byType(detect(t, in), VenueDoubleBooking)
	require.Len(t, found, 1)
	assert.Equal(t, SeverityHigh, found[0].Severity)
	assert.ElementsMatch(t, []string{"g1", "g2"}, found[0].AffectedGames)
	assert.Equal(t, 30, found[0].Metadata["overlap_minutes"])
}

func TestTeamDoubleBookingIsCritical(t *testing.T) {
	start := time.Date(2026, 3, 7, 9, 0, 0, 0, phoenix)
	in := Input{
		Games: []domain.Game{
			game("g1", "G001", "v1", "t1", "t2", start, 60),
			game("g2", "G002", "v2", "t1", "t3", start, 60),
		},
		Location: phoenix,
	}

	found := byType(detect(t, in), TeamDoubleBooking)
	require.Len(t, found, 1)
	assert.Equal(t, SeverityCritical, found[0].Severity)
	assert.Equal(t, []string{"t1"}, found[0].AffectedTeams)
	assert.Equal(t, 60, found[0].Metadata["overlap_minutes"])
}

func TestInsufficientRestTime(t *testing.T) {
	// 3 hours between a team's games, against a 12-hour minimum.
	start := time.Date(2026, 3, 7, 9, 0, 0, 0, phoenix)
	in := Input{
		Games: []domain.Game{
			game("g1", "G001", "v1", "t1", "t2", start, 60),
			game("g2", "G002", "v1", "t1", "t3", start.Add(4*time.Hour), 60),
		},
		Location: phoenix,
	}

	found := byType(detect(t, in), InsufficientRestTime)
	require.Len(t, found, 1)
	assert.Equal(t, SeverityMedium, found[0].Severity)
	assert.InDelta(t, 3.0, found[0].Metadata["rest_hours"], 0.01)
}

func TestHeatPolicyViolationOutdoorSummerAfternoon(t *testing.T) {
	in := Input{
		Games: []domain.Game{
			game("g1", "G001", "out", "t1", "t2", time.Date(2026, 7, 4, 13, 0, 0, 0, phoenix), 60),
			game("g2", "G002", "out", "t3", "t4", time.Date(2026, 7, 4, 19, 0, 0, 0, phoenix), 60),
			game("g3", "G003", "in", "t5", "t6", time.Date(2026, 7, 4, 13, 0, 0, 0, phoenix), 60),
			game("g4", "G004", "out", "t7", "t8", time.Date(2026, 1, 10, 13, 0, 0, 0, phoenix), 60),
		},
		Venues: map[string]*domain.Venue{
			"out": {ID: "out", Name: "Desert Park", Type: domain.VenueOutdoor},
			"in":  {ID: "in", Name: "Main Gym", Type: domain.VenueIndoor},
		},
		Location: phoenix,
	}

	// Only the outdoor summer game inside 11:00-18:00 trips the rule.
	found := byType(detect(t, in), HeatPolicyViolation)
	require.Len(t, found, 1)
	assert.Equal(t, []string{"g1"}, found[0].AffectedGames)
}

func TestOfficialDoubleBooking(t *testing.T) {
	start := time.Date(2026, 3, 7, 9, 0, 0, 0, phoenix)
	in := Input{
		Games: []domain.Game{
			game("g1", "G001", "v1", "t1", "t2", start, 60),
			game("g2", "G002", "v2", "t3", "t4", start.Add(30*time.Minute), 60),
		},
		Assignments: []domain.Assignment{
			{ID: "a1", GameID: "g1", OfficialID: "o1", Role: domain.RoleHeadReferee, Status: domain.AssignmentConfirmed},
			{ID: "a2", GameID: "g2", OfficialID: "o1", Role: domain.RoleHeadReferee, Status: domain.AssignmentPending},
		},
		Location: phoenix,
	}

	found := byType(detect(t, in), OfficialDoubleBook)
	require.Len(t, found, 1)
	assert.Equal(t, SeverityCritical, found[0].Severity)
	assert.Equal(t, []string{"o1"}, found[0].AffectedOfficials)
}

func TestDeclinedAssignmentsIgnored(t *testing.T) {
	start := time.Date(2026, 3, 7, 9, 0, 0, 0, phoenix)
	in := Input{
		Games: []domain.Game{
			game("g1", "G001", "v1", "t1", "t2", start, 60),
			game("g2", "G002", "v2", "t3", "t4", start, 60),
		},
		Assignments: []domain.Assignment{
			{ID: "a1", GameID: "g1", OfficialID: "o1", Status: domain.AssignmentConfirmed},
			{ID: "a2", GameID: "g2", OfficialID: "o1", Status: domain.AssignmentDeclined},
		},
		Location: phoenix,
	}

	assert.Empty(t, byType(detect(t, in), OfficialDoubleBook))
}

func TestVenueAvailabilityWindow(t *testing.T) {
	// Saturday 08:00-12:00 open; a 13:00 game falls outside.
	in := Input{
		Games: []domain.Game{
			game("g1", "G001", "v1", "t1", "t2", time.Date(2026, 3, 7, 13, 0, 0, 0, phoenix), 60),
			game("g2", "G002", "v1", "t3", "t4", time.Date(2026, 3, 7, 9, 0, 0, 0, phoenix), 60),
		},
		Venues: map[string]*domain.Venue{"v1": {ID: "v1", Name: "Main Gym", Type: domain.VenueIndoor}},
		Availability: map[string][]domain.VenueAvailability{
			"v1": {{ID: "r1", VenueID: "v1", DayOfWeek: domain.Saturday, StartTime: "08:00", EndTime: "12:00", Kind: domain.AvailabilityAvailable}},
		},
		Location: phoenix,
	}

	found := byType(detect(t, in), VenueUnavailable)
	require.Len(t, found, 1)
	assert.Equal(t, []string{"g1"}, found[0].AffectedGames)
}

func TestHigherPriorityMaintenanceWins(t *testing.T) {
	rules := []domain.VenueAvailability{
		{ID: "r1", DayOfWeek: domain.Saturday, StartTime: "08:00", EndTime: "20:00", Kind: domain.AvailabilityAvailable, Priority: 1},
		{ID: "r2", DayOfWeek: domain.Saturday, StartTime: "09:00", EndTime: "11:00", Kind: domain.AvailabilityMaintenance, Priority: 5},
	}
	start := time.Date(2026, 3, 7, 9, 30, 0, 0, phoenix)

	ok, kind := WindowAllowed(rules, start, start.Add(time.Hour))
	assert.False(t, ok)
	assert.Equal(t, domain.AvailabilityMaintenance, kind)

	evening := time.Date(2026, 3, 7, 15, 0, 0, 0, phoenix)
	ok, _ = WindowAllowed(rules, evening, evening.Add(time.Hour))
	assert.True(t, ok)
}

func TestBlackoutConflict(t *testing.T) {
	day := time.Date(2026, 3, 7, 9, 0, 0, 0, phoenix)
	in := Input{
		Games: []domain.Game{
			game("g1", "G001", "v1", "t1", "t2", day, 60),
		},
		Blackouts: []domain.BlackoutDate{{
			ID: "b1", Reason: "spring break",
			StartDate: time.Date(2026, 3, 6, 0, 0, 0, 0, phoenix),
			EndDate:   time.Date(2026, 3, 8, 0, 0, 0, 0, phoenix),
		}},
		Location: phoenix,
	}

	found := byType(detect(t, in), BlackoutDate)
	require.Len(t, found, 1)
	assert.Equal(t, "b1", found[0].Metadata["blackout_id"])
}

func TestCancelledGamesExcluded(t *testing.T) {
	start := time.Date(2026, 3, 7, 9, 0, 0, 0, phoenix)
	cancelled := game("g2", "G002", "v1", "t3", "t4", start, 60)
	cancelled.Status = domain.GameCancelled
	in := Input{
		Games: []domain.Game{
			game("g1", "G001", "v1", "t1", "t2", start, 60),
			cancelled,
		},
		Location: phoenix,
	}

	assert.Empty(t, detect(t, in))
}

func TestConflictsSortedBySeverityThenTime(t *testing.T) {
	early := time.Date(2026, 3, 7, 9, 0, 0, 0, phoenix)
	late := time.Date(2026, 3, 14, 9, 0, 0, 0, phoenix)
	in := Input{
		Games: []domain.Game{
			// HIGH venue overlap late in the month.
			game("g1", "G001", "v1", "t1", "t2", late, 60),
			game("g2", "G002", "v1", "t3", "t4", late.Add(30*time.Minute), 60),
			// CRITICAL team overlap early in the month.
			game("g3", "G003", "v2", "t5", "t6", early, 60),
			game("g4", "G004", "v3", "t5", "t7", early, 60),
		},
		Location: phoenix,
	}

	out := detect(t, in)
	require.NotEmpty(t, out)
	assert.Equal(t, SeverityCritical, out[0].Severity)
	for i := 1; i < len(out); i++ {
		assert.GreaterOrEqual(t, out[i-1].Severity.Rank(), out[i].Severity.Rank())
	}
}

func TestDetectGameConflictsForReschedule(t *testing.T) {
	d := newTestDetector()
	venue := &domain.Venue{ID: "v1", Name: "Main Gym"}
	start := time.Date(2026, 3, 7, 9, 0, 0, 0, phoenix)
	existing := game("g1", "G001", "v1", "t1", "t2", start, 60)

	out := d.DetectGameConflicts(venue, start.Add(30*time.Minute), time.Hour,
		[]string{"t1", "t9"}, "", []domain.Game{existing}, []domain.Game{existing})
	require.Len(t, out, 2)
	// CRITICAL team overlap sorts ahead of the HIGH venue overlap.
	assert.Equal(t, TeamDoubleBooking, out[0].Type)
	assert.Equal(t, VenueDoubleBooking, out[1].Type)

	// Excluding the existing game clears both.
	out = d.DetectGameConflicts(venue, start.Add(30*time.Minute), time.Hour,
		[]string{"t1"}, "g1", []domain.Game{existing}, []domain.Game{existing})
	assert.Empty(t, out)
}

func TestDetectTieOrderIsStableAcrossRuns(t *testing.T) {
	// Eight venues with an identical overlapping pair at the same start: every
	// conflict ties on severity and time, so order must come from the input,
	// not map iteration.
	start := time.Date(2026, 3, 7, 9, 0, 0, 0, phoenix)
	var games []domain.Game
	for i := 1; i <= 8; i++ {
		v := fmt.Sprintf("v%d", i)
		games = append(games,
			game(fmt.Sprintf("g%da", i), fmt.Sprintf("G%03d", i*2-1), v,
				fmt.Sprintf("ta%d", i), fmt.Sprintf("tb%d", i), start, 60),
			game(fmt.Sprintf("g%db", i), fmt.Sprintf("G%03d", i*2), v,
				fmt.Sprintf("tc%d", i), fmt.Sprintf("td%d", i), start.Add(30*time.Minute), 60),
		)
	}
	in := Input{Games: games, Location: phoenix}

	order := func(conflicts []Conflict) []string {
		var out []string
		for _, c := range byType(conflicts, VenueDoubleBooking) {
			out = append(out, c.AffectedVenues...)
		}
		return out
	}

	first := order(detect(t, in))
	require.Len(t, first, 8)
	assert.IsIncreasing(t, first)
	for run := 0; run < 50; run++ {
		require.Equal(t, first, order(detect(t, in)), "run %d reordered tied conflicts", run)
	}
}

type ctxCapturingRoutes struct {
	mu   sync.Mutex
	seen []context.Context
}

func (c *ctxCapturingRoutes) TravelTime(ctx context.Context, from, to domain.GeoPoint) (time.Duration, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seen = append(c.seen, ctx)
	return 2 * time.Hour, nil
}

func TestTravelCheckThreadsCallerContext(t *testing.T) {
	routes := &ctxCapturingRoutes{}
	d := New(DefaultConfig(), travel.NewEstimator(routes), clock.NewFrozen(time.Date(2026, 3, 1, 8, 0, 0, 0, phoenix)))

	geoA := domain.GeoPoint{Lat: 33.44, Lng: -112.07}
	geoB := domain.GeoPoint{Lat: 33.42, Lng: -111.94}
	start := time.Date(2026, 3, 7, 9, 0, 0, 0, phoenix)
	in := Input{
		Games: []domain.Game{
			game("g1", "G001", "v1", "t1", "t2", start, 60),
			game("g2", "G002", "v2", "t1", "t3", start.Add(90*time.Minute), 60),
		},
		Venues: map[string]*domain.Venue{
			"v1": {ID: "v1", Geo: &geoA},
			"v2": {ID: "v2", Geo: &geoB},
		},
		Location: phoenix,
	}

	type ctxKey struct{}
	ctx := context.WithValue(context.Background(), ctxKey{}, "caller")
	_, err := d.Detect(ctx, in)
	require.NoError(t, err)

	require.NotEmpty(t, routes.seen)
	for _, seen := range routes.seen {
		assert.Equal(t, "caller", seen.Value(ctxKey{}))
	}
}
