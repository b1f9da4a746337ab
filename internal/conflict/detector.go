package conflict

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/courtly/leaguecore/internal/clock"
	"github.com/courtly/leaguecore/internal/config"
	"github.com/courtly/leaguecore/internal/domain"
	"github.com/courtly/leaguecore/internal/travel"
)

// Config holds detector thresholds.
type Config struct {
	BufferMinutes      int
	MinRestHours       int
	MaxTravelMinutes   int
	DangerousHourStart int
	DangerousHourEnd   int
}

// DefaultConfig mirrors the platform defaults: 30-minute venue buffer,
// 12-hour rest, 45-minute travel ceiling, dangerous hours 11:00-18:00.
func DefaultConfig() Config {
	return Config{
		BufferMinutes:      config.DefaultBufferMinutes,
		MinRestHours:       config.DefaultMinRestHours,
		MaxTravelMinutes:   config.DefaultMaxTravelMin,
		DangerousHourStart: config.DangerousHoursStart,
		DangerousHourEnd:   config.DangerousHoursEnd,
	}
}

// Input is everything one detection pass looks at.
type Input struct {
	Games        []domain.Game
	Venues       map[string]*domain.Venue
	Availability map[string][]domain.VenueAvailability // keyed by venue ID
	Blackouts    []domain.BlackoutDate
	Assignments  []domain.Assignment
	Location     *time.Location // season timezone for local-hour rules
}

func (in *Input) location() *time.Location {
	if in.Location != nil {
		return in.Location
	}
	loc, err := time.LoadLocation(config.DefaultTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Detector evaluates a season's game set. Side-effect-free and deterministic:
// the independent checks run concurrently and merge in a fixed order.
type Detector struct {
	cfg    Config
	travel *travel.Estimator
	clk    clock.Clock
}

// New builds a detector. A nil estimator gets the haversine default; a nil
// clock gets the wall clock.
func New(cfg Config, est *travel.Estimator, clk clock.Clock) *Detector {
	if est == nil {
		est = travel.NewEstimator(nil)
	}
	if clk == nil {
		clk = clock.Real{}
	}
	return &Detector{cfg: cfg, travel: est, clk: clk}
}

// Detect runs every check and returns the merged, sorted conflict list.
func (d *Detector) Detect(ctx context.Context, in Input) ([]Conflict, error) {
	active := activeGames(in.Games)

	checks := []func(context.Context, Input, []domain.Game) []Conflict{
		d.checkVenueDoubleBookings,
		d.checkTeamDoubleBookings,
		d.checkRestTime,
		d.checkTravelTime,
		d.checkHeatPolicy,
		d.checkOfficialDoubleBookings,
		d.checkVenueAvailability,
		d.checkBlackouts,
	}

	results := make([][]Conflict, len(checks))
	g, gctx := errgroup.WithContext(ctx)
	for i, check := range checks {
		i, check := i, check
		g.Go(func() error {
			results[i] = check(gctx, in, active)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Merge in fixed check order so ties sort deterministically.
	var merged []Conflict
	for _, r := range results {
		merged = append(merged, r...)
	}
	Sort(merged)
	return merged, nil
}

// DetectGameConflicts evaluates one proposed placement against existing
// games: the venue overlap and team overlap guards used by reschedule and
// publish. venueGames are the non-cancelled games already at the venue;
// teamGames are the involved teams' other games.
func (d *Detector) DetectGameConflicts(venue *domain.Venue, start time.Time, duration time.Duration, teamIDs []string, excludeGameID string, venueGames, teamGames []domain.Game) []Conflict {
	var out []Conflict
	buffer := time.Duration(d.cfg.BufferMinutes) * time.Minute
	end := start.Add(duration)
	bufferedEnd := end.Add(buffer)

	for _, g := range venueGames {
		if g.ID == excludeGameID || g.Status == domain.GameCancelled {
			continue
		}
		gEnd := g.End().Add(buffer)
		if domain.Overlaps(start, bufferedEnd, g.ScheduledStart, gEnd) {
			out = append(out, d.newConflict(VenueDoubleBooking, SeverityHigh,
				fmt.Sprintf("venue %s already hosts game %s in this window", venue.Name, g.GameNumber),
				withGames(g.ID), withVenues(venue.ID), at(start)))
		}
	}

	for _, g := range teamGames {
		if g.ID == excludeGameID || g.Status == domain.GameCancelled {
			continue
		}
		for _, teamID := range teamIDs {
			if !g.Involves(teamID) {
				continue
			}
			if domain.Overlaps(start, end, g.ScheduledStart, g.End()) {
				out = append(out, d.newConflict(TeamDoubleBooking, SeverityCritical,
					fmt.Sprintf("team %s already plays game %s in this window", teamID, g.GameNumber),
					withGames(g.ID), withTeams(teamID), at(start), withMeta(map[string]any{
						"overlap_minutes": domain.OverlapMinutes(start, end, g.ScheduledStart, g.End()),
					})))
			}
		}
	}

	Sort(out)
	return out
}

// newConflict fills the envelope fields shared by every rule.
func (d *Detector) newConflict(t Type, sev Severity, desc string, opts ...conflictOpt) Conflict {
	suggested, resolutions := resolutionsFor(t)
	c := Conflict{
		ID:                  uuid.NewString(),
		Type:                t,
		Severity:            sev,
		Description:         desc,
		SuggestedResolution: suggested,
		ResolutionOptions:   resolutions,
		CreatedAt:           d.clk.Now().UTC(),
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

type conflictOpt func(*Conflict)

func withGames(ids ...string) conflictOpt {
	return func(c *Conflict) { c.AffectedGames = append(c.AffectedGames, ids...) }
}

func withTeams(ids ...string) conflictOpt {
	return func(c *Conflict) { c.AffectedTeams = append(c.AffectedTeams, ids...) }
}

func withVenues(ids ...string) conflictOpt {
	return func(c *Conflict) { c.AffectedVenues = append(c.AffectedVenues, ids...) }
}

func withOfficials(ids ...string) conflictOpt {
	return func(c *Conflict) { c.AffectedOfficials = append(c.AffectedOfficials, ids...) }
}

func at(t time.Time) conflictOpt {
	return func(c *Conflict) { c.ScheduledTime = t }
}

func withMeta(m map[string]any) conflictOpt {
	return func(c *Conflict) { c.Metadata = m }
}

func activeGames(games []domain.Game) []domain.Game {
	out := make([]domain.Game, 0, len(games))
	for _, g := range games {
		if g.Status != domain.GameCancelled {
			out = append(out, g)
		}
	}
	return out
}
