package cache

import "fmt"

// Keys builds the tenant-prefixed key namespace. All keys for a tenant share
// the "{tenant}:" prefix so a tenant's projections can be dropped wholesale.
type Keys struct {
	Tenant string
}

func (k Keys) prefix(rest string) string {
	return k.Tenant + ":" + rest
}

// Schedule is the cached generation plan for a season (optionally one
// division's slice of it).
func (k Keys) Schedule(seasonID, divisionID string) string {
	if divisionID == "" {
		return k.prefix("schedule:" + seasonID)
	}
	return k.prefix("schedule:" + seasonID + ":" + divisionID)
}

// SchedulePrefix covers every schedule projection for the season.
func (k Keys) SchedulePrefix(seasonID string) string {
	return k.prefix("schedule:" + seasonID)
}

func (k Keys) Conflicts(seasonID string) string {
	return k.prefix("conflicts:" + seasonID)
}

func (k Keys) VenueAvailability(venueID, date string) string {
	return k.prefix(fmt.Sprintf("venue:%s:availability:%s", venueID, date))
}

func (k Keys) VenuePrefix(venueID string) string {
	return k.prefix("venue:" + venueID)
}

func (k Keys) Heat(venueID, date string) string {
	return k.prefix(fmt.Sprintf("heat:%s:%s", venueID, date))
}

// Public projections carry the tenant twice: once in the namespace prefix and
// once in the key body, matching the public URL shape.

func (k Keys) PublicStandings(seasonID, divisionID string) string {
	return k.prefix(fmt.Sprintf("public:standings:%s:%s:%s", k.Tenant, orAll(seasonID), orAll(divisionID)))
}

func (k Keys) PublicSchedule(filterHash string) string {
	return k.prefix(fmt.Sprintf("public:schedule:%s:%s", k.Tenant, filterHash))
}

func (k Keys) PublicTeam(teamID string) string {
	return k.prefix(fmt.Sprintf("public:team:%s:%s", k.Tenant, teamID))
}

func (k Keys) PublicGame(gameID string) string {
	return k.prefix(fmt.Sprintf("public:game:%s:%s", k.Tenant, gameID))
}

func (k Keys) PublicCalendar(filterHash string) string {
	return k.prefix(fmt.Sprintf("public:calendar:%s:%s", k.Tenant, filterHash))
}

// PublicPrefix covers every public projection for the tenant.
func (k Keys) PublicPrefix() string {
	return k.prefix("public:")
}

// All covers every key for the tenant.
func (k Keys) All() string {
	return k.Tenant + ":"
}

func orAll(s string) string {
	if s == "" {
		return "all"
	}
	return s
}
