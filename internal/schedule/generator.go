package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/courtly/leaguecore/internal/clock"
	"github.com/courtly/leaguecore/internal/config"
	"github.com/courtly/leaguecore/internal/conflict"
	"github.com/courtly/leaguecore/internal/domain"
	"github.com/courtly/leaguecore/internal/weather"
)

// VenuePreference ranks a venue for a division. Higher priority wins.
type VenuePreference struct {
	DivisionID string `json:"division_id"`
	VenueID    string `json:"venue_id"`
	Priority   int    `json:"priority"`
}

// Params are the knobs for one generation run.
type Params struct {
	Algorithm                 Algorithm        `json:"algorithm"`
	PreferredDays             []domain.Weekday `json:"preferred_days"`
	PreferredTimes            []string         `json:"preferred_times"`
	GameDurationMinutes       int              `json:"game_duration_minutes"`
	BufferMinutes             int              `json:"buffer_minutes"`
	MaxGamesPerDay            int              `json:"max_games_per_day"`
	MaxGamesPerWeek           int              `json:"max_games_per_week"`
	EnforceHeatPolicy         bool             `json:"enforce_heat_policy"`
	AllowOverlappingDivisions bool             `json:"allow_overlapping_divisions"`
	RespectBlackoutDates      bool             `json:"respect_blackout_dates"`
	VenuePreferences          []VenuePreference `json:"venue_preferences,omitempty"`
}

func (p *Params) normalize() {
	if p.Algorithm == "" {
		p.Algorithm = RoundRobin
	}
	if p.GameDurationMinutes <= 0 {
		p.GameDurationMinutes = config.DefaultGameDuration
	}
	if p.BufferMinutes < 0 {
		p.BufferMinutes = config.DefaultBufferMinutes
	}
	if len(p.PreferredDays) == 0 {
		p.PreferredDays = []domain.Weekday{domain.Saturday}
	}
	if len(p.PreferredTimes) == 0 {
		p.PreferredTimes = []string{"09:00", "11:00", "13:00"}
	}
}

// ScheduledGame is one placed matchup in a plan.
type ScheduledGame struct {
	ID                string                 `json:"id"`
	HomeTeamID        string                 `json:"home_team_id"`
	HomeTeamName      string                 `json:"home_team_name"`
	AwayTeamID        string                 `json:"away_team_id"`
	AwayTeamName      string                 `json:"away_team_name"`
	DivisionID        string                 `json:"division_id"`
	VenueID           string                 `json:"venue_id"`
	GameNumber        string                 `json:"game_number"`
	GameType          domain.GameType        `json:"game_type"`
	ScheduledStart    time.Time              `json:"scheduled_start"`
	EstimatedDuration int                    `json:"estimated_duration"`
	Conflicts         []conflict.Conflict    `json:"conflicts,omitempty"`
	HeatWarning       *weather.PolicyResult  `json:"heat_warning,omitempty"`
}

// Statistics summarize a run.
type Statistics struct {
	TotalGames       int            `json:"total_games"`
	Scheduled        int            `json:"scheduled"`
	WithConflicts    int            `json:"with_conflicts"`
	WithHeatWarnings int            `json:"with_heat_warnings"`
	VenueUtilization map[string]int `json:"venue_utilization"`
	GenerationTimeMs int64          `json:"generation_time_ms"`
}

// Plan is a generation result. It is not persisted; the API layer caches it
// and a later publish step inserts the rows atomically.
type Plan struct {
	SeasonID    string              `json:"season_id"`
	Games       []ScheduledGame     `json:"games"`
	Warnings    []string            `json:"warnings,omitempty"`
	Conflicts   []conflict.Conflict `json:"conflicts,omitempty"`
	Statistics  Statistics          `json:"statistics"`
	Success     bool                `json:"success"`
	GeneratedAt time.Time           `json:"generated_at"`
}

// Inputs carries the season data one run works over.
type Inputs struct {
	Season       *domain.Season
	Teams        []domain.Team
	Venues       []domain.Venue
	Availability map[string][]domain.VenueAvailability
	Blackouts    []domain.BlackoutDate
}

// Generator places matchups into (time, venue) slots. Dependencies arrive at
// construction; the heat evaluator may be nil when the feature is off.
type Generator struct {
	detector *conflict.Detector
	heat     *weather.Evaluator
	clk      clock.Clock
	logger   *slog.Logger
	workers  int
}

// NewGenerator builds a generator with bounded placement concurrency.
func NewGenerator(det *conflict.Detector, heat *weather.Evaluator, clk clock.Clock, logger *slog.Logger, workers int) *Generator {
	if clk == nil {
		clk = clock.Real{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	if workers < 1 {
		workers = config.DefaultPlacerWorkers
	}
	return &Generator{detector: det, heat: heat, clk: clk, logger: logger, workers: workers}
}

// Generate builds the full plan: matchups, prioritization, slot enumeration,
// concurrent placement, then a conflict/heat post-pass.
func (g *Generator) Generate(ctx context.Context, in Inputs, params Params) (*Plan, error) {
	start := g.clk.Now()
	params.normalize()
	loc := in.Season.Location()

	plan := &Plan{
		SeasonID:    in.Season.ID,
		Success:     true,
		GeneratedAt: start.UTC(),
	}

	// Matchup construction per division.
	byDivision := make(map[string][]domain.Team)
	for _, t := range in.Teams {
		byDivision[t.DivisionID] = append(byDivision[t.DivisionID], t)
	}
	var matchups []Matchup
	for _, divisionID := range sortedKeys(byDivision) {
		teams := byDivision[divisionID]
		if len(teams) < 2 {
			plan.Warnings = append(plan.Warnings,
				fmt.Sprintf("division %s skipped: fewer than 2 teams", divisionID))
			continue
		}
		ms, err := BuildMatchups(teams, divisionID, params.Algorithm)
		if err != nil {
			return nil, err
		}
		matchups = append(matchups, ms...)
	}
	matchups = prioritize(matchups, in.Season.ID)
	plan.Statistics.TotalGames = len(matchups)

	// Slot enumeration across the season window.
	slots, err := enumerateSlots(in.Season.StartDate, in.Season.EndDate,
		params.PreferredDays, params.PreferredTimes, loc)
	if err != nil {
		return nil, err
	}
	if len(slots) == 0 {
		plan.Warnings = append(plan.Warnings, "no candidate slots: check preferred days against the season window")
	}

	book := newBookings(&params, in, loc)

	// Placement loop: workers pull matchups; the check+append step per
	// resource set is a critical section inside bookings.
	type placed struct {
		game ScheduledGame
		ok   bool
		m    Matchup
	}
	work := make(chan Matchup)
	results := make(chan placed, len(matchups))

	var wg sync.WaitGroup
	workers := g.workers
	if workers > len(matchups) && len(matchups) > 0 {
		workers = len(matchups)
	}
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for m := range work {
				game, ok := g.place(ctx, m, slots, book, &params, in)
				results <- placed{game: game, ok: ok, m: m}
			}
		}()
	}

	deadlineHit := false
feed:
	for _, m := range matchups {
		select {
		case <-ctx.Done():
			deadlineHit = true
			break feed
		case work <- m:
		}
	}
	close(work)
	wg.Wait()
	close(results)

	for r := range results {
		if r.ok {
			plan.Games = append(plan.Games, r.game)
		} else {
			plan.Warnings = append(plan.Warnings, fmt.Sprintf(
				"could not place %s vs %s (division %s): no slot satisfied all constraints",
				r.m.HomeTeam.Name, r.m.AwayTeam.Name, r.m.DivisionID))
		}
	}
	if deadlineHit {
		plan.Success = false
		plan.Warnings = append(plan.Warnings, "generation deadline exceeded; plan is partial")
	}

	// Deterministic ordering and game numbers.
	sort.SliceStable(plan.Games, func(i, j int) bool {
		a, b := plan.Games[i], plan.Games[j]
		if !a.ScheduledStart.Equal(b.ScheduledStart) {
			return a.ScheduledStart.Before(b.ScheduledStart)
		}
		if a.DivisionID != b.DivisionID {
			return a.DivisionID < b.DivisionID
		}
		return a.HomeTeamID < b.HomeTeamID
	})
	for i := range plan.Games {
		plan.Games[i].GameNumber = fmt.Sprintf("G%03d", i+1)
	}

	g.postPass(ctx, plan, in, &params, loc)

	plan.Statistics.Scheduled = len(plan.Games)
	plan.Statistics.VenueUtilization = make(map[string]int)
	for _, sg := range plan.Games {
		plan.Statistics.VenueUtilization[sg.VenueID]++
		if len(sg.Conflicts) > 0 {
			plan.Statistics.WithConflicts++
		}
		if sg.HeatWarning != nil && sg.HeatWarning.Level != weather.LevelNone {
			plan.Statistics.WithHeatWarnings++
		}
	}
	plan.Statistics.GenerationTimeMs = g.clk.Now().Sub(start).Milliseconds()

	g.logger.Info("schedule generated",
		"season", in.Season.ID,
		"matchups", plan.Statistics.TotalGames,
		"placed", plan.Statistics.Scheduled,
		"warnings", len(plan.Warnings),
		"elapsed_ms", plan.Statistics.GenerationTimeMs)
	return plan, nil
}

// place scans slots in order and commits the first that satisfies every
// constraint.
func (g *Generator) place(ctx context.Context, m Matchup, slots []Slot, book *bookings, params *Params, in Inputs) (ScheduledGame, bool) {
	duration := time.Duration(params.GameDurationMinutes) * time.Minute

	for _, slot := range slots {
		if ctx.Err() != nil {
			return ScheduledGame{}, false
		}
		if params.RespectBlackoutDates && book.blackedOut(slot.Start, m.DivisionID) {
			continue
		}
		if !teamFree(m.HomeTeam, slot.Start) || !teamFree(m.AwayTeam, slot.Start) {
			continue
		}

		for _, venue := range book.candidateVenues(m.DivisionID) {
			if params.RespectBlackoutDates && book.venueBlackedOut(slot.Start, venue.ID, m.DivisionID) {
				continue
			}
			if !book.venueOpenAt(venue.ID, slot.Start, duration) {
				continue
			}
			if params.EnforceHeatPolicy && venue.Outdoor() && g.heat != nil {
				res := g.heat.Evaluate(ctx, &venue, slot.Start, nil)
				if !res.Allowed {
					continue
				}
			}
			if !book.tryCommit(m, venue.ID, slot.Start, duration) {
				continue
			}
			return ScheduledGame{
				ID:                uuid.NewString(),
				HomeTeamID:        m.HomeTeam.ID,
				HomeTeamName:      m.HomeTeam.Name,
				AwayTeamID:        m.AwayTeam.ID,
				AwayTeamName:      m.AwayTeam.Name,
				DivisionID:        m.DivisionID,
				VenueID:           venue.ID,
				GameType:          m.GameType,
				ScheduledStart:    slot.Start.UTC(),
				EstimatedDuration: params.GameDurationMinutes,
			}, true
		}
	}
	return ScheduledGame{}, false
}

// postPass runs the detector over the placements and stamps heat warnings.
// The placement loop is greedy, so residual travel and rest conflicts are
// expected here rather than prevented there.
func (g *Generator) postPass(ctx context.Context, plan *Plan, in Inputs, params *Params, loc *time.Location) {
	if len(plan.Games) == 0 {
		return
	}

	venueMap := make(map[string]*domain.Venue, len(in.Venues))
	for i := range in.Venues {
		venueMap[in.Venues[i].ID] = &in.Venues[i]
	}

	games := make([]domain.Game, len(plan.Games))
	for i, sg := range plan.Games {
		games[i] = domain.Game{
			ID:              sg.ID,
			SeasonID:        plan.SeasonID,
			DivisionID:      sg.DivisionID,
			HomeTeamID:      sg.HomeTeamID,
			AwayTeamID:      sg.AwayTeamID,
			VenueID:         sg.VenueID,
			GameNumber:      sg.GameNumber,
			GameType:        sg.GameType,
			ScheduledStart:  sg.ScheduledStart,
			DurationMinutes: sg.EstimatedDuration,
			Status:          domain.GameScheduled,
		}
	}

	if g.detector != nil {
		detected, err := g.detector.Detect(ctx, conflict.Input{
			Games:        games,
			Venues:       venueMap,
			Availability: in.Availability,
			Blackouts:    in.Blackouts,
			Location:     loc,
		})
		if err != nil {
			plan.Warnings = append(plan.Warnings, fmt.Sprintf("conflict post-pass aborted: %v", err))
		} else {
			plan.Conflicts = detected
			byGame := make(map[string][]conflict.Conflict)
			for _, c := range detected {
				for _, gid := range c.AffectedGames {
					byGame[gid] = append(byGame[gid], c)
				}
			}
			for i := range plan.Games {
				plan.Games[i].Conflicts = byGame[plan.Games[i].ID]
			}
		}
	}

	if g.heat != nil {
		for i := range plan.Games {
			venue, ok := venueMap[plan.Games[i].VenueID]
			if !ok || !venue.Outdoor() {
				continue
			}
			res := g.heat.Evaluate(ctx, venue, plan.Games[i].ScheduledStart.In(loc), nil)
			if res.Level != weather.LevelNone {
				r := res
				plan.Games[i].HeatWarning = &r
			}
		}
	}
}

// teamFree applies team-declared blackout dates.
func teamFree(t domain.Team, slot time.Time) bool {
	for _, b := range t.BlackoutDates {
		if sameDate(b, slot) {
			return false
		}
	}
	return true
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.In(a.Location()).Date()
	return ay == by && am == bm && ad == bd
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
