package conflict

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/courtly/leaguecore/internal/domain"
)

// checkVenueDoubleBookings flags pairs of games at one venue whose buffered
// intervals [start, start+duration+buffer) overlap. Venues are visited in
// sorted ID order so equal-severity ties keep a stable order across runs.
func (d *Detector) checkVenueDoubleBookings(ctx context.Context, in Input, games []domain.Game) []Conflict {
	buffer := time.Duration(d.cfg.BufferMinutes) * time.Minute
	byVenue := make(map[string][]domain.Game)
	for _, g := range games {
		byVenue[g.VenueID] = append(byVenue[g.VenueID], g)
	}

	var out []Conflict
	for _, venueID := range sortedKeys(byVenue) {
		vg := byVenue[venueID]
		sort.SliceStable(vg, func(i, j int) bool { return vg[i].ScheduledStart.Before(vg[j].ScheduledStart) })
		for i := 0; i < len(vg); i++ {
			aEnd := vg[i].End().Add(buffer)
			for j := i + 1; j < len(vg); j++ {
				if !vg[j].ScheduledStart.Before(aEnd) {
					break
				}
				out = append(out, d.newConflict(VenueDoubleBooking, SeverityHigh,
					fmt.Sprintf("games %s and %s overlap at venue %s",
						vg[i].GameNumber, vg[j].GameNumber, venueName(in, venueID)),
					withGames(vg[i].ID, vg[j].ID), withVenues(venueID),
					at(vg[j].ScheduledStart),
					withMeta(map[string]any{
						"overlap_minutes": domain.OverlapMinutes(
							vg[i].ScheduledStart, aEnd, vg[j].ScheduledStart, vg[j].End().Add(buffer)),
						"buffer_minutes": d.cfg.BufferMinutes,
					})))
			}
		}
	}
	return out
}

// checkTeamDoubleBookings flags a team appearing in two games whose play
// windows (no buffer) overlap.
func (d *Detector) checkTeamDoubleBookings(ctx context.Context, in Input, games []domain.Game) []Conflict {
	var out []Conflict
	byTeam := gamesByTeam(games)
	for _, teamID := range sortedKeys(byTeam) {
		tg := byTeam[teamID]
		for i := 0; i < len(tg); i++ {
			for j := i + 1; j < len(tg); j++ {
				if !tg[j].ScheduledStart.Before(tg[i].End()) {
					break
				}
				out = append(out, d.newConflict(TeamDoubleBooking, SeverityCritical,
					fmt.Sprintf("team %s plays games %s and %s at overlapping times",
						teamID, tg[i].GameNumber, tg[j].GameNumber),
					withGames(tg[i].ID, tg[j].ID), withTeams(teamID),
					at(tg[j].ScheduledStart),
					withMeta(map[string]any{
						"overlap_minutes": domain.OverlapMinutes(
							tg[i].ScheduledStart, tg[i].End(), tg[j].ScheduledStart, tg[j].End()),
					})))
			}
		}
	}
	return out
}

// checkRestTime flags gaps below the minimum rest between a team's
// consecutive games.
func (d *Detector) checkRestTime(ctx context.Context, in Input, games []domain.Game) []Conflict {
	minRest := time.Duration(d.cfg.MinRestHours) * time.Hour
	var out []Conflict
	byTeam := gamesByTeam(games)
	for _, teamID := range sortedKeys(byTeam) {
		tg := byTeam[teamID]
		for i := 0; i+1 < len(tg); i++ {
			gap := tg[i+1].ScheduledStart.Sub(tg[i].End())
			if gap >= 0 && gap < minRest {
				out = append(out, d.newConflict(InsufficientRestTime, SeverityMedium,
					fmt.Sprintf("team %s has %.1fh rest between games %s and %s (minimum %dh)",
						teamID, gap.Hours(), tg[i].GameNumber, tg[i+1].GameNumber, d.cfg.MinRestHours),
					withGames(tg[i].ID, tg[i+1].ID), withTeams(teamID),
					at(tg[i+1].ScheduledStart),
					withMeta(map[string]any{"rest_hours": gap.Hours()})))
			}
		}
	}
	return out
}

// checkTravelTime flags consecutive games at different venues where the
// travel estimate exceeds both the available gap and the configured ceiling.
func (d *Detector) checkTravelTime(ctx context.Context, in Input, games []domain.Game) []Conflict {
	maxTravel := time.Duration(d.cfg.MaxTravelMinutes) * time.Minute
	var out []Conflict
	byTeam := gamesByTeam(games)
	for _, teamID := range sortedKeys(byTeam) {
		tg := byTeam[teamID]
		for i := 0; i+1 < len(tg); i++ {
			a, b := tg[i], tg[i+1]
			if a.VenueID == b.VenueID {
				continue
			}
			est := d.travel.Between(ctx, in.Venues[a.VenueID], in.Venues[b.VenueID])
			gap := b.ScheduledStart.Sub(a.End())
			if est > gap && est > maxTravel {
				out = append(out, d.newConflict(TravelTimeConflict, SeverityMedium,
					fmt.Sprintf("team %s needs ~%.0f min travel between games %s and %s but has %.0f min",
						teamID, est.Minutes(), a.GameNumber, b.GameNumber, gap.Minutes()),
					withGames(a.ID, b.ID), withTeams(teamID),
					withVenues(a.VenueID, b.VenueID), at(b.ScheduledStart),
					withMeta(map[string]any{
						"travel_minutes": est.Minutes(),
						"gap_minutes":    gap.Minutes(),
					})))
			}
		}
	}
	return out
}

// checkHeatPolicy flags outdoor games in the hot season (May-October) that
// start inside dangerous hours.
func (d *Detector) checkHeatPolicy(ctx context.Context, in Input, games []domain.Game) []Conflict {
	loc := in.location()
	var out []Conflict
	for _, g := range games {
		venue, ok := in.Venues[g.VenueID]
		if !ok || !venue.Outdoor() {
			continue
		}
		local := g.ScheduledStart.In(loc)
		month := local.Month()
		if month < time.May || month > time.October {
			continue
		}
		h := local.Hour()
		if h >= d.cfg.DangerousHourStart && h < d.cfg.DangerousHourEnd {
			out = append(out, d.newConflict(HeatPolicyViolation, SeverityHigh,
				fmt.Sprintf("game %s starts at %s at outdoor venue %s during dangerous heat hours",
					g.GameNumber, local.Format("15:04"), venue.Name),
				withGames(g.ID), withVenues(venue.ID), at(g.ScheduledStart),
				withMeta(map[string]any{"local_hour": h, "month": int(month)})))
		}
	}
	return out
}

// checkOfficialDoubleBookings flags one official assigned to two overlapping
// games.
func (d *Detector) checkOfficialDoubleBookings(ctx context.Context, in Input, games []domain.Game) []Conflict {
	gameByID := make(map[string]*domain.Game, len(games))
	for i := range games {
		gameByID[games[i].ID] = &games[i]
	}

	byOfficial := make(map[string][]*domain.Game)
	for _, a := range in.Assignments {
		if a.Status == domain.AssignmentDeclined || a.Status == domain.AssignmentCancelled {
			continue
		}
		if g, ok := gameByID[a.GameID]; ok {
			byOfficial[a.OfficialID] = append(byOfficial[a.OfficialID], g)
		}
	}

	var out []Conflict
	officialIDs := sortedKeys(byOfficial)
	for _, officialID := range officialIDs {
		og := byOfficial[officialID]
		sort.SliceStable(og, func(i, j int) bool { return og[i].ScheduledStart.Before(og[j].ScheduledStart) })
		for i := 0; i+1 < len(og); i++ {
			for j := i + 1; j < len(og); j++ {
				if !og[j].ScheduledStart.Before(og[i].End()) {
					break
				}
				out = append(out, d.newConflict(OfficialDoubleBook, SeverityCritical,
					fmt.Sprintf("official %s is assigned to overlapping games %s and %s",
						officialID, og[i].GameNumber, og[j].GameNumber),
					withGames(og[i].ID, og[j].ID), withOfficials(officialID),
					at(og[j].ScheduledStart)))
			}
		}
	}
	return out
}

// checkVenueAvailability flags games outside the venue's effective rules or
// overlapping BLOCKED/MAINTENANCE windows. Overlapping rules resolve by
// priority, higher wins.
func (d *Detector) checkVenueAvailability(ctx context.Context, in Input, games []domain.Game) []Conflict {
	if len(in.Availability) == 0 {
		return nil
	}
	loc := in.location()
	var out []Conflict
	for _, g := range games {
		rules := in.Availability[g.VenueID]
		if len(rules) == 0 {
			continue
		}
		local := g.ScheduledStart.In(loc)
		end := g.End().In(loc)
		if ok, kind := WindowAllowed(rules, local, end); !ok {
			desc := fmt.Sprintf("game %s at %s falls outside venue availability",
				g.GameNumber, local.Format("Mon 15:04"))
			if kind != "" {
				desc = fmt.Sprintf("game %s at %s overlaps a %s window",
					g.GameNumber, local.Format("Mon 15:04"), kind)
			}
			out = append(out, d.newConflict(VenueUnavailable, SeverityHigh, desc,
				withGames(g.ID), withVenues(g.VenueID), at(g.ScheduledStart)))
		}
	}
	return out
}

// WindowAllowed resolves availability for [start, end) on start's weekday.
// Returns the blocking kind when a BLOCKED/MAINTENANCE rule wins.
func WindowAllowed(rules []domain.VenueAvailability, start, end time.Time) (bool, domain.AvailabilityKind) {
	day := weekdayOf(start)
	startHM := start.Format("15:04")
	endHM := end.Format("15:04")
	if end.Day() != start.Day() {
		endHM = "24:00"
	}

	var winner *domain.VenueAvailability
	for i := range rules {
		r := &rules[i]
		if r.DayOfWeek != day || !r.EffectiveOn(start) {
			continue
		}
		// Rule must overlap the candidate window at all to matter.
		if r.EndTime <= startHM || r.StartTime >= endHM {
			continue
		}
		if winner == nil || r.Priority > winner.Priority {
			winner = r
		}
	}
	if winner == nil {
		return false, ""
	}
	if winner.Kind != domain.AvailabilityAvailable {
		return false, winner.Kind
	}
	// The winning AVAILABLE rule must fully contain the window.
	if startHM < winner.StartTime || endHM > winner.EndTime {
		return false, ""
	}
	return true, ""
}

// checkBlackouts flags games on dates inside a blackout affecting their
// venue and/or division.
func (d *Detector) checkBlackouts(ctx context.Context, in Input, games []domain.Game) []Conflict {
	if len(in.Blackouts) == 0 {
		return nil
	}
	loc := in.location()
	var out []Conflict
	for _, g := range games {
		local := g.ScheduledStart.In(loc)
		for _, b := range in.Blackouts {
			if b.Covers(local, g.VenueID, g.DivisionID) {
				out = append(out, d.newConflict(BlackoutDate, SeverityHigh,
					fmt.Sprintf("game %s on %s falls inside blackout %q",
						g.GameNumber, local.Format("2006-01-02"), b.Reason),
					withGames(g.ID), withVenues(g.VenueID), at(g.ScheduledStart),
					withMeta(map[string]any{"blackout_id": b.ID})))
			}
		}
	}
	return out
}

// --------------------------------------------------------------------------
// Helpers
// --------------------------------------------------------------------------

// gamesByTeam groups games per participating team, sorted by start.
func gamesByTeam(games []domain.Game) map[string][]domain.Game {
	byTeam := make(map[string][]domain.Game)
	for _, g := range games {
		byTeam[g.HomeTeamID] = append(byTeam[g.HomeTeamID], g)
		byTeam[g.AwayTeamID] = append(byTeam[g.AwayTeamID], g)
	}
	for teamID := range byTeam {
		tg := byTeam[teamID]
		sort.SliceStable(tg, func(i, j int) bool { return tg[i].ScheduledStart.Before(tg[j].ScheduledStart) })
		byTeam[teamID] = tg
	}
	return byTeam
}

func weekdayOf(t time.Time) domain.Weekday {
	switch t.Weekday() {
	case time.Monday:
		return domain.Monday
	case time.Tuesday:
		return domain.Tuesday
	case time.Wednesday:
		return domain.Wednesday
	case time.Thursday:
		return domain.Thursday
	case time.Friday:
		return domain.Friday
	case time.Saturday:
		return domain.Saturday
	default:
		return domain.Sunday
	}
}

func venueName(in Input, venueID string) string {
	if v, ok := in.Venues[venueID]; ok {
		return v.Name
	}
	return venueID
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
