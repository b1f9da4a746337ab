// Package officials assigns referees, scorekeepers, and clock operators to
// games and prices the assignments. Optimization is greedy over games in
// priority order; it never persists, the API layer owns that.
package officials

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/courtly/leaguecore/internal/clock"
	"github.com/courtly/leaguecore/internal/conflict"
	"github.com/courtly/leaguecore/internal/domain"
	"github.com/courtly/leaguecore/internal/travel"
)

// Constraints tune one optimization run.
type Constraints struct {
	MaxDistanceKm   float64 `json:"max_distance_km"`
	MaxGamesPerDay  int     `json:"max_games_per_day"`
	MaxGamesPerWeek int     `json:"max_games_per_week"`
	MinRestMinutes  int     `json:"min_rest_minutes"`
	AllowBackToBack bool    `json:"allow_back_to_back"` // same venue, zero gap
}

// DefaultConstraints mirror the platform defaults.
func DefaultConstraints() Constraints {
	return Constraints{
		MaxDistanceKm:   50,
		MaxGamesPerDay:  4,
		MaxGamesPerWeek: 12,
		MinRestMinutes:  30,
		AllowBackToBack: true,
	}
}

// Input is everything one run looks at.
type Input struct {
	Games        []domain.Game
	Divisions    map[string]*domain.Division
	Venues       map[string]*domain.Venue
	Officials    []domain.Official
	Availability map[string][]domain.OfficialAvailability // keyed by official ID
	Existing     []domain.Assignment                      // confirmed or pending assignments to respect
	Location     *time.Location
}

// Statistics summarize a run.
type Statistics struct {
	TotalGames         int     `json:"total_games"`
	FullyStaffed       int     `json:"fully_staffed"`
	AssignmentsCreated int     `json:"assignments_created"`
	UnfilledRoles      int     `json:"unfilled_roles"`
	TotalEstimatedPay  float64 `json:"total_estimated_pay"`
}

// Result is one optimization outcome.
type Result struct {
	Assignments []domain.Assignment `json:"assignments"`
	Unassigned  []string            `json:"unassigned_games,omitempty"`
	Conflicts   []conflict.Conflict `json:"conflicts,omitempty"`
	Statistics  Statistics          `json:"statistics"`
	Success     bool                `json:"success"`
}

// Optimizer builds assignment plans.
type Optimizer struct {
	travel *travel.Estimator
	clk    clock.Clock
	logger *slog.Logger
}

func NewOptimizer(est *travel.Estimator, clk clock.Clock, logger *slog.Logger) *Optimizer {
	if est == nil {
		est = travel.NewEstimator(nil)
	}
	if clk == nil {
		clk = clock.Real{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Optimizer{travel: est, clk: clk, logger: logger}
}

// workload tracks one official's committed games across the run, including
// pre-existing assignments.
type workload struct {
	official *domain.Official
	games    []domain.Game
}

func (w *workload) gamesOn(day time.Time, loc *time.Location) int {
	y, m, d := day.In(loc).Date()
	n := 0
	for _, g := range w.games {
		gy, gm, gd := g.ScheduledStart.In(loc).Date()
		if gy == y && gm == m && gd == d {
			n++
		}
	}
	return n
}

// gamesInWeek returns the most games already held in any rolling 7-day
// window that would also contain a game starting at the given time.
func (w *workload) gamesInWeek(at time.Time) int {
	const week = 7 * 24 * time.Hour
	times := make([]time.Time, 0, len(w.games)+1)
	for _, g := range w.games {
		times = append(times, g.ScheduledStart)
	}
	times = append(times, at)
	sort.Slice(times, func(i, j int) bool { return times[i].Before(times[j]) })

	most := 0
	lo := 0
	for hi := range times {
		for times[hi].Sub(times[lo]) >= week {
			lo++
		}
		// Only windows containing the candidate count against it.
		if times[lo].After(at) || times[hi].Before(at) {
			continue
		}
		if n := hi - lo + 1; n > most {
			most = n
		}
	}
	// The candidate itself is in every counted window.
	return most - 1
}

// Optimize assigns officials to every role each game requires, highest-stakes
// games first, best-scoring candidate per role.
func (o *Optimizer) Optimize(ctx context.Context, in Input, cons Constraints) *Result {
	loc := in.Location
	if loc == nil {
		loc = time.UTC
	}
	now := o.clk.Now()

	games := make([]domain.Game, 0, len(in.Games))
	for _, g := range in.Games {
		if g.Status == domain.GameScheduled {
			games = append(games, g)
		}
	}
	sort.SliceStable(games, func(i, j int) bool {
		a, b := games[i], games[j]
		if !a.ScheduledStart.Equal(b.ScheduledStart) {
			return a.ScheduledStart.Before(b.ScheduledStart)
		}
		if a.GameType.Importance() != b.GameType.Importance() {
			return a.GameType.Importance() > b.GameType.Importance()
		}
		return a.GameNumber < b.GameNumber
	})

	gameByID := make(map[string]domain.Game, len(games))
	for _, g := range games {
		gameByID[g.ID] = g
	}

	loads := make(map[string]*workload, len(in.Officials))
	officials := make([]*domain.Official, 0, len(in.Officials))
	for i := range in.Officials {
		off := &in.Officials[i]
		if !off.Active {
			continue
		}
		officials = append(officials, off)
		loads[off.ID] = &workload{official: off}
	}
	sort.Slice(officials, func(i, j int) bool { return officials[i].ID < officials[j].ID })

	filled := make(map[string]map[domain.OfficialRole]int)
	for _, a := range in.Existing {
		if a.Status == domain.AssignmentDeclined || a.Status == domain.AssignmentCancelled {
			continue
		}
		if w, ok := loads[a.OfficialID]; ok {
			if g, ok := gameByID[a.GameID]; ok {
				w.games = append(w.games, g)
			}
		}
		if filled[a.GameID] == nil {
			filled[a.GameID] = make(map[domain.OfficialRole]int)
		}
		filled[a.GameID][a.Role]++
	}

	res := &Result{}
	res.Statistics.TotalGames = len(games)

	for _, game := range games {
		division := in.Divisions[game.DivisionID]
		venue := in.Venues[game.VenueID]
		roles := requiredRoles(game, division)

		staffed := true
		for _, role := range roles {
			// Roles already covered by live assignments stay as they are.
			if filled[game.ID][role] > 0 {
				continue
			}
			cand := o.bestCandidate(officials, loads, in.Availability, game, venue, role, division, cons, loc)
			if cand == nil {
				staffed = false
				res.Statistics.UnfilledRoles++
				c := conflict.NewConflict(conflict.SkillMismatch, conflict.SeverityHigh,
					fmt.Sprintf("no qualified %s available for game %s", role, game.GameNumber), now)
				c.AffectedGames = []string{game.ID}
				c.ScheduledTime = game.ScheduledStart
				c.Metadata = map[string]any{"role": string(role)}
				res.Conflicts = append(res.Conflicts, c)
				continue
			}

			rate := payRate(cand, role, game.GameType, division)
			hours := float64(game.DurationMinutes) / 60.0
			res.Assignments = append(res.Assignments, domain.Assignment{
				ID:           uuid.NewString(),
				GameID:       game.ID,
				OfficialID:   cand.ID,
				OfficialName: cand.Name,
				Role:         role,
				Status:       domain.AssignmentPending,
				AssignedAt:   now.UTC(),
				PayRate:      rate,
				EstimatedPay: round2(rate * hours),
			})
			loads[cand.ID].games = append(loads[cand.ID].games, game)
		}

		if staffed {
			res.Statistics.FullyStaffed++
		} else {
			res.Unassigned = append(res.Unassigned, game.ID)
			c := conflict.NewConflict(conflict.SkillMismatch, conflict.SeverityCritical,
				fmt.Sprintf("game %s cannot be fully staffed", game.GameNumber), now)
			c.AffectedGames = []string{game.ID}
			c.ScheduledTime = game.ScheduledStart
			res.Conflicts = append(res.Conflicts, c)
		}
	}

	res.Conflicts = append(res.Conflicts, o.crossCheck(ctx, loads, in.Venues, now)...)
	conflict.Sort(res.Conflicts)

	res.Statistics.AssignmentsCreated = len(res.Assignments)
	for _, a := range res.Assignments {
		res.Statistics.TotalEstimatedPay = round2(res.Statistics.TotalEstimatedPay + a.EstimatedPay)
	}
	res.Success = len(res.Unassigned) == 0 && !hasCritical(res.Conflicts)

	o.logger.Info("officials optimization finished",
		"games", res.Statistics.TotalGames,
		"assignments", res.Statistics.AssignmentsCreated,
		"unfilled_roles", res.Statistics.UnfilledRoles,
		"success", res.Success)
	return res
}

// requiredRoles lists the roles one game must staff. Upper-division and
// non-regular games add an assistant referee.
func requiredRoles(game domain.Game, division *domain.Division) []domain.OfficialRole {
	roles := []domain.OfficialRole{
		domain.RoleHeadReferee,
		domain.RoleScorekeeper,
		domain.RoleClockOperator,
	}
	needsAssistant := game.GameType != domain.GameRegular && game.GameType != domain.GameScrimmage
	if division != nil && division.SkillLevel.RequiresAssistantReferee() {
		needsAssistant = true
	}
	if needsAssistant {
		roles = append(roles, domain.RoleAssistantReferee)
	}
	return roles
}

// requiredCertification is the minimum level per role, raised for
// higher-stakes games.
func requiredCertification(role domain.OfficialRole, gt domain.GameType) domain.CertificationLevel {
	switch role {
	case domain.RoleHeadReferee:
		switch gt {
		case domain.GameChampionship:
			return domain.CertExpert
		case domain.GamePlayoff:
			return domain.CertAdvanced
		}
		return domain.CertIntermediate
	case domain.RoleAssistantReferee:
		if gt == domain.GameChampionship || gt == domain.GamePlayoff {
			return domain.CertIntermediate
		}
		return domain.CertBeginner
	}
	return domain.CertBeginner
}

// bestCandidate filters and scores the pool for one (game, role), returning
// nil when nobody qualifies. Ties break on official ID for determinism.
func (o *Optimizer) bestCandidate(pool []*domain.Official, loads map[string]*workload, avail map[string][]domain.OfficialAvailability, game domain.Game, venue *domain.Venue, role domain.OfficialRole, division *domain.Division, cons Constraints, loc *time.Location) *domain.Official {
	minCert := requiredCertification(role, game.GameType)

	var best *domain.Official
	var bestScore float64
	for _, off := range pool {
		if !off.HasSpecialty(role) {
			continue
		}
		if off.Certification.Rank() < minCert.Rank() {
			continue
		}
		if !availableAt(avail[off.ID], game.ScheduledStart, game.End(), loc) {
			continue
		}

		dist := o.distanceKm(off, venue)
		radius := off.TravelRadiusKm
		if cons.MaxDistanceKm > 0 && (radius <= 0 || cons.MaxDistanceKm < radius) {
			radius = cons.MaxDistanceKm
		}
		if dist >= 0 && radius > 0 && dist > radius {
			continue
		}

		w := loads[off.ID]
		if !withinCaps(w, off, game, cons, loc) {
			continue
		}
		if !restSatisfied(w, game, cons) {
			continue
		}

		score := scoreCandidate(off, dist)
		if best == nil || score > bestScore {
			best, bestScore = off, score
		}
	}
	return best
}

// scoreCandidate favors certification, then proximity, then cost.
func scoreCandidate(off *domain.Official, distKm float64) float64 {
	s := 10 * float64(off.Certification.Rank())
	if distKm >= 0 && distKm < 50 {
		s += 50 - distKm
	}
	if off.HourlyRate < 100 {
		s += 0.1 * (100 - off.HourlyRate)
	}
	return s
}

func (o *Optimizer) distanceKm(off *domain.Official, venue *domain.Venue) float64 {
	if off.Geo == nil || venue == nil || venue.Geo == nil {
		return -1
	}
	return travel.HaversineKm(*off.Geo, *venue.Geo)
}

func withinCaps(w *workload, off *domain.Official, game domain.Game, cons Constraints, loc *time.Location) bool {
	dayCap := off.MaxGamesPerDay
	if dayCap <= 0 || (cons.MaxGamesPerDay > 0 && cons.MaxGamesPerDay < dayCap) {
		dayCap = cons.MaxGamesPerDay
	}
	if dayCap > 0 && w.gamesOn(game.ScheduledStart, loc) >= dayCap {
		return false
	}

	weekCap := off.MaxGamesPerWeek
	if weekCap <= 0 || (cons.MaxGamesPerWeek > 0 && cons.MaxGamesPerWeek < weekCap) {
		weekCap = cons.MaxGamesPerWeek
	}
	if weekCap > 0 && w.gamesInWeek(game.ScheduledStart) >= weekCap {
		return false
	}
	return true
}

// restSatisfied rejects overlapping games outright and enforces the minimum
// gap, waived for back-to-back games at the same venue when allowed.
func restSatisfied(w *workload, game domain.Game, cons Constraints) bool {
	rest := time.Duration(cons.MinRestMinutes) * time.Minute
	for _, g := range w.games {
		if domain.Overlaps(game.ScheduledStart, game.End(), g.ScheduledStart, g.End()) {
			return false
		}
		var gap time.Duration
		if g.End().Before(game.ScheduledStart) || g.End().Equal(game.ScheduledStart) {
			gap = game.ScheduledStart.Sub(g.End())
		} else {
			gap = g.ScheduledStart.Sub(game.End())
		}
		if gap < rest {
			if cons.AllowBackToBack && g.VenueID == game.VenueID {
				continue
			}
			return false
		}
	}
	return true
}

// AvailableAt reports whether the declared windows admit working the
// [start, end) interval. Used by the availability-check endpoint.
func AvailableAt(rules []domain.OfficialAvailability, start, end time.Time, loc *time.Location) bool {
	return availableAt(rules, start, end, loc)
}

// availableAt checks declared windows. No declared windows means available;
// an UNAVAILABLE window overlapping the game blocks; otherwise an AVAILABLE
// or PREFERRED window must contain the game.
func availableAt(rules []domain.OfficialAvailability, start, end time.Time, loc *time.Location) bool {
	if len(rules) == 0 {
		return true
	}
	local := start.In(loc)
	startHM := local.Format("15:04")
	endHM := end.In(loc).Format("15:04")
	if end.In(loc).Day() != local.Day() {
		endHM = "24:00"
	}

	applies := func(r domain.OfficialAvailability) bool {
		if r.Recurring {
			idx, ok := r.DayOfWeek.TimeWeekday()
			return ok && time.Weekday(idx) == local.Weekday()
		}
		if r.SpecificDate == nil {
			return false
		}
		ry, rm, rd := r.SpecificDate.In(loc).Date()
		ly, lm, ld := local.Date()
		return ry == ly && rm == lm && rd == ld
	}

	relevant := false
	covered := false
	for _, r := range rules {
		if !applies(r) {
			continue
		}
		relevant = true
		if r.Kind == domain.OfficialUnavailable {
			if r.StartTime < endHM && startHM < r.EndTime {
				return false
			}
			continue
		}
		if r.StartTime <= startHM && endHM <= r.EndTime {
			covered = true
		}
	}
	if !relevant {
		return true
	}
	return covered
}

// payRate composes the hourly rate from the base, role share, game-type
// premium, and division skill premium.
func payRate(off *domain.Official, role domain.OfficialRole, gt domain.GameType, division *domain.Division) float64 {
	rate := off.HourlyRate * role.PayMultiplier()
	switch gt {
	case domain.GameChampionship:
		rate *= 1.5
	case domain.GamePlayoff:
		rate *= 1.25
	}
	if division != nil {
		rate *= division.SkillLevel.PayMultiplier()
	}
	return round2(rate)
}

// crossCheck sweeps every official's final slate for overlaps and infeasible
// travel between consecutive games. These mostly surface interactions with
// pre-existing assignments the greedy loop had to respect.
func (o *Optimizer) crossCheck(ctx context.Context, loads map[string]*workload, venues map[string]*domain.Venue, now time.Time) []conflict.Conflict {
	ids := make([]string, 0, len(loads))
	for id := range loads {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var out []conflict.Conflict
	for _, id := range ids {
		w := loads[id]
		if len(w.games) < 2 {
			continue
		}
		games := make([]domain.Game, len(w.games))
		copy(games, w.games)
		sort.Slice(games, func(i, j int) bool { return games[i].ScheduledStart.Before(games[j].ScheduledStart) })

		for i := 0; i < len(games)-1; i++ {
			a, b := games[i], games[i+1]
			if domain.Overlaps(a.ScheduledStart, a.End(), b.ScheduledStart, b.End()) {
				c := conflict.NewConflict(conflict.OfficialDoubleBook, conflict.SeverityCritical,
					fmt.Sprintf("official %s is booked for overlapping games %s and %s",
						w.official.Name, a.GameNumber, b.GameNumber), now)
				c.AffectedGames = []string{a.ID, b.ID}
				c.AffectedOfficials = []string{id}
				c.ScheduledTime = b.ScheduledStart
				out = append(out, c)
				continue
			}
			if a.VenueID == b.VenueID {
				continue
			}
			gap := b.ScheduledStart.Sub(a.End())
			est := o.travel.Between(ctx, venues[a.VenueID], venues[b.VenueID])
			if est > gap {
				c := conflict.NewConflict(conflict.TravelTimeConflict, conflict.SeverityHigh,
					fmt.Sprintf("official %s has %d minutes between venues needing %d minutes of travel",
						w.official.Name, int(gap.Minutes()), int(est.Minutes())), now)
				c.AffectedGames = []string{a.ID, b.ID}
				c.AffectedOfficials = []string{id}
				c.ScheduledTime = b.ScheduledStart
				out = append(out, c)
			}
		}
	}
	return out
}

func hasCritical(conflicts []conflict.Conflict) bool {
	for _, c := range conflicts {
		if c.Severity == conflict.SeverityCritical {
			return true
		}
	}
	return false
}

func round2(f float64) float64 {
	return float64(int64(f*100+0.5)) / 100
}
