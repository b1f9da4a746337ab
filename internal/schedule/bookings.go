package schedule

import (
	"sort"
	"sync"
	"time"

	"github.com/courtly/leaguecore/internal/conflict"
	"github.com/courtly/leaguecore/internal/domain"
)

type interval struct {
	start time.Time
	end   time.Time
}

// bookings is the shared placement state. Workers race on it; tryCommit holds
// the per-resource locks for the whole check+append step so no two matchups
// can claim the same venue window or team window.
type bookings struct {
	params *Params
	loc    *time.Location

	venues       []domain.Venue
	availability map[string][]domain.VenueAvailability
	blackouts    []domain.BlackoutDate
	teamWeekCap  map[string]int

	lockMu sync.Mutex
	locks  map[string]*sync.Mutex

	venueGames map[string][]interval
	teamGames  map[string][]interval

	slotMu        sync.Mutex
	slotDivisions map[int64]string // slot start unix -> division holding it
}

func newBookings(params *Params, in Inputs, loc *time.Location) *bookings {
	caps := make(map[string]int, len(in.Teams))
	for _, t := range in.Teams {
		caps[t.ID] = t.MaxGamesPerWeek
	}
	return &bookings{
		params:        params,
		loc:           loc,
		venues:        in.Venues,
		availability:  in.Availability,
		blackouts:     in.Blackouts,
		teamWeekCap:   caps,
		locks:         make(map[string]*sync.Mutex),
		venueGames:    make(map[string][]interval),
		teamGames:     make(map[string][]interval),
		slotDivisions: make(map[int64]string),
	}
}

// candidateVenues lists active venues for a division, preferences first by
// descending priority, remaining venues after in input order.
func (b *bookings) candidateVenues(divisionID string) []domain.Venue {
	byID := make(map[string]domain.Venue, len(b.venues))
	for _, v := range b.venues {
		if v.Active {
			byID[v.ID] = v
		}
	}

	var prefs []VenuePreference
	for _, p := range b.params.VenuePreferences {
		if p.DivisionID == divisionID || p.DivisionID == "" {
			prefs = append(prefs, p)
		}
	}
	sort.SliceStable(prefs, func(i, j int) bool { return prefs[i].Priority > prefs[j].Priority })

	out := make([]domain.Venue, 0, len(byID))
	seen := make(map[string]bool, len(byID))
	for _, p := range prefs {
		if v, ok := byID[p.VenueID]; ok && !seen[p.VenueID] {
			out = append(out, v)
			seen[p.VenueID] = true
		}
	}
	for _, v := range b.venues {
		if v.Active && !seen[v.ID] {
			out = append(out, v)
		}
	}
	return out
}

// blackedOut reports whether a league- or division-wide blackout covers the
// date. Venue-scoped blackouts are checked per venue in venueBlackedOut.
func (b *bookings) blackedOut(slot time.Time, divisionID string) bool {
	for i := range b.blackouts {
		bd := &b.blackouts[i]
		if len(bd.AffectsVenues) > 0 {
			continue
		}
		if bd.Covers(slot, "", divisionID) {
			return true
		}
	}
	return false
}

func (b *bookings) venueBlackedOut(slot time.Time, venueID, divisionID string) bool {
	for i := range b.blackouts {
		bd := &b.blackouts[i]
		if len(bd.AffectsVenues) == 0 {
			continue
		}
		if bd.Covers(slot, venueID, divisionID) {
			return true
		}
	}
	return false
}

// venueOpenAt applies the venue's recurring availability rules to the window.
// A venue with no rules is treated as always open.
func (b *bookings) venueOpenAt(venueID string, start time.Time, duration time.Duration) bool {
	rules := b.availability[venueID]
	if len(rules) == 0 {
		return true
	}
	effective := rules[:0:0]
	for _, r := range rules {
		if r.EffectiveOn(start) {
			effective = append(effective, r)
		}
	}
	if len(effective) == 0 {
		return true
	}
	local := start.In(b.loc)
	ok, _ := conflict.WindowAllowed(effective, local, local.Add(duration))
	return ok
}

// tryCommit atomically checks and records one placement. It returns false when
// any shared-state constraint fails; the caller moves to the next candidate.
func (b *bookings) tryCommit(m Matchup, venueID string, start time.Time, duration time.Duration) bool {
	if !b.params.AllowOverlappingDivisions && !b.claimSlotDivision(start, m.DivisionID) {
		return false
	}

	unlock := b.lockAll(venueID, m.HomeTeam.ID, m.AwayTeam.ID)
	defer unlock()

	buffer := time.Duration(b.params.BufferMinutes) * time.Minute
	end := start.Add(duration)

	for _, iv := range b.venueGames[venueID] {
		if domain.Overlaps(start, end.Add(buffer), iv.start, iv.end.Add(buffer)) {
			return false
		}
	}
	for _, teamID := range []string{m.HomeTeam.ID, m.AwayTeam.ID} {
		for _, iv := range b.teamGames[teamID] {
			if domain.Overlaps(start, end, iv.start, iv.end) {
				return false
			}
		}
		if !b.withinDailyCap(teamID, start) || !b.withinWeeklyCap(teamID, start) {
			return false
		}
	}

	iv := interval{start: start, end: end}
	b.venueGames[venueID] = append(b.venueGames[venueID], iv)
	b.teamGames[m.HomeTeam.ID] = append(b.teamGames[m.HomeTeam.ID], iv)
	b.teamGames[m.AwayTeam.ID] = append(b.teamGames[m.AwayTeam.ID], iv)
	return true
}

// claimSlotDivision reserves a start time for one division when division
// overlap is disallowed. A slot already held by the same division stays
// usable.
func (b *bookings) claimSlotDivision(start time.Time, divisionID string) bool {
	b.slotMu.Lock()
	defer b.slotMu.Unlock()
	key := start.Unix()
	held, ok := b.slotDivisions[key]
	if ok {
		return held == divisionID
	}
	b.slotDivisions[key] = divisionID
	return true
}

func (b *bookings) withinDailyCap(teamID string, start time.Time) bool {
	if b.params.MaxGamesPerDay <= 0 {
		return true
	}
	y, mo, d := start.In(b.loc).Date()
	count := 0
	for _, iv := range b.teamGames[teamID] {
		iy, im, id := iv.start.In(b.loc).Date()
		if iy == y && im == mo && id == d {
			count++
		}
	}
	return count < b.params.MaxGamesPerDay
}

// withinWeeklyCap enforces the rolling 7-day limit: with the candidate added,
// no 7-day window may exceed the cap. A team's own declared cap tightens the
// run-wide one.
func (b *bookings) withinWeeklyCap(teamID string, start time.Time) bool {
	limit := b.params.MaxGamesPerWeek
	if own := b.teamWeekCap[teamID]; own > 0 && (limit <= 0 || own < limit) {
		limit = own
	}
	if limit <= 0 {
		return true
	}

	times := make([]time.Time, 0, len(b.teamGames[teamID])+1)
	for _, iv := range b.teamGames[teamID] {
		times = append(times, iv.start)
	}
	times = append(times, start)
	sort.Slice(times, func(i, j int) bool { return times[i].Before(times[j]) })

	const week = 7 * 24 * time.Hour
	lo := 0
	for hi := range times {
		for times[hi].Sub(times[lo]) >= week {
			lo++
		}
		if hi-lo+1 > limit {
			return false
		}
	}
	return true
}

// lockAll acquires the venue and team locks in sorted ID order.
func (b *bookings) lockAll(ids ...string) func() {
	sort.Strings(ids)
	held := make([]*sync.Mutex, 0, len(ids))
	for _, id := range ids {
		held = append(held, b.lockFor(id))
	}
	for _, mu := range held {
		mu.Lock()
	}
	return func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].Unlock()
		}
	}
}

func (b *bookings) lockFor(id string) *sync.Mutex {
	b.lockMu.Lock()
	defer b.lockMu.Unlock()
	mu, ok := b.locks[id]
	if !ok {
		mu = &sync.Mutex{}
		b.locks[id] = mu
	}
	return mu
}
