// Package conflict implements the multi-dimensional schedule conflict
// detector. Detection is a pure function over a game set plus ancillary data:
// no side effects, deterministic output order.
package conflict

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// Type enumerates the conflict categories.
type Type string

const (
	VenueDoubleBooking   Type = "VENUE_DOUBLE_BOOKING"
	TeamDoubleBooking    Type = "TEAM_DOUBLE_BOOKING"
	InsufficientRestTime Type = "INSUFFICIENT_REST_TIME"
	TravelTimeConflict   Type = "TRAVEL_TIME_CONFLICT"
	HeatPolicyViolation  Type = "HEAT_POLICY_VIOLATION"
	OfficialDoubleBook   Type = "OFFICIAL_DOUBLE_BOOKING"
	VenueUnavailable     Type = "VENUE_UNAVAILABLE"
	BlackoutDate         Type = "BLACKOUT_DATE"
	SkillMismatch        Type = "SKILL_MISMATCH"
)

// Severity orders conflicts for triage.
type Severity string

const (
	SeverityLow      Severity = "LOW"
	SeverityMedium   Severity = "MEDIUM"
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
)

// Rank returns the numeric ordering, CRITICAL highest.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 4
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	}
	return 0
}

// ResolutionStrategy names a way out of a conflict.
type ResolutionStrategy string

const (
	ResolveReschedule    ResolutionStrategy = "RESCHEDULE_GAME"
	ResolveChangeVenue   ResolutionStrategy = "CHANGE_VENUE"
	ResolveSwapHomeAway  ResolutionStrategy = "SWAP_HOME_AWAY"
	ResolveSplitGameTime ResolutionStrategy = "SPLIT_GAME_TIME"
	ResolveManual        ResolutionStrategy = "MANUAL_RESOLUTION"
)

// Effort grades how invasive a resolution is.
type Effort string

const (
	EffortLow    Effort = "LOW"
	EffortMedium Effort = "MEDIUM"
	EffortHigh   Effort = "HIGH"
)

// Resolution is one suggested fix.
type Resolution struct {
	Strategy    ResolutionStrategy `json:"strategy"`
	Description string             `json:"description"`
	Effort      Effort             `json:"effort"`
}

// Conflict is one detected problem.
type Conflict struct {
	ID                  string         `json:"id"`
	Type                Type           `json:"type"`
	Severity            Severity       `json:"severity"`
	Description         string         `json:"description"`
	AffectedGames       []string       `json:"affected_games,omitempty"`
	AffectedTeams       []string       `json:"affected_teams,omitempty"`
	AffectedVenues      []string       `json:"affected_venues,omitempty"`
	AffectedOfficials   []string       `json:"affected_officials,omitempty"`
	ScheduledTime       time.Time      `json:"scheduled_time"`
	SuggestedResolution string         `json:"suggested_resolution,omitempty"`
	ResolutionOptions   []Resolution   `json:"resolution_options,omitempty"`
	Metadata            map[string]any `json:"metadata,omitempty"`
	CreatedAt           time.Time      `json:"created_at"`
}

// Sort orders conflicts by severity (CRITICAL first) then ascending by
// scheduled time. Ties keep input order.
func Sort(conflicts []Conflict) {
	sort.SliceStable(conflicts, func(i, j int) bool {
		if conflicts[i].Severity.Rank() != conflicts[j].Severity.Rank() {
			return conflicts[i].Severity.Rank() > conflicts[j].Severity.Rank()
		}
		return conflicts[i].ScheduledTime.Before(conflicts[j].ScheduledTime)
	})
}

// NewConflict builds a conflict envelope with the canned resolution menu for
// its type. Affected-entity fields are the caller's to fill.
func NewConflict(t Type, sev Severity, desc string, createdAt time.Time) Conflict {
	suggested, options := resolutionsFor(t)
	return Conflict{
		ID:                  uuid.NewString(),
		Type:                t,
		Severity:            sev,
		Description:         desc,
		SuggestedResolution: suggested,
		ResolutionOptions:   options,
		CreatedAt:           createdAt.UTC(),
	}
}

// resolutionsFor returns the canned resolution menu per conflict type.
func resolutionsFor(t Type) (suggested string, options []Resolution) {
	switch t {
	case VenueDoubleBooking:
		return "Move one game to another venue or time slot", []Resolution{
			{ResolveChangeVenue, "Move one game to a free venue in the same window", EffortLow},
			{ResolveReschedule, "Shift one game to the next open slot", EffortMedium},
			{ResolveSplitGameTime, "Stagger start times to clear the overlap plus buffer", EffortMedium},
		}
	case TeamDoubleBooking:
		return "Reschedule one of the team's games", []Resolution{
			{ResolveReschedule, "Move the later game to another slot", EffortMedium},
			{ResolveManual, "Review the matchup list for a duplicate entry", EffortHigh},
		}
	case InsufficientRestTime:
		return "Widen the gap between the team's games", []Resolution{
			{ResolveReschedule, "Push the second game later in the day or week", EffortLow},
			{ResolveSwapHomeAway, "Swap home/away to borrow the opponent's slot", EffortMedium},
		}
	case TravelTimeConflict:
		return "Reduce travel by co-locating or spacing the games", []Resolution{
			{ResolveChangeVenue, "Place both games at the same venue", EffortMedium},
			{ResolveReschedule, "Space the games to cover the travel estimate", EffortLow},
		}
	case HeatPolicyViolation:
		return "Move the game outside dangerous hours or indoors", []Resolution{
			{ResolveReschedule, "Shift the start before 11:00 or after 18:00 local", EffortLow},
			{ResolveChangeVenue, "Move to an indoor or hybrid venue", EffortMedium},
		}
	case OfficialDoubleBook:
		return "Reassign one game to another official", []Resolution{
			{ResolveManual, "Re-run officials optimization for the affected window", EffortLow},
			{ResolveReschedule, "Move one game so the official can cover both", EffortMedium},
		}
	case VenueUnavailable:
		return "Pick a slot inside the venue's availability window", []Resolution{
			{ResolveReschedule, "Move the game into the venue's open hours", EffortLow},
			{ResolveChangeVenue, "Move to a venue open at this time", EffortMedium},
		}
	case BlackoutDate:
		return "Move the game off the blackout date", []Resolution{
			{ResolveReschedule, "Shift to the next non-blackout date", EffortLow},
		}
	case SkillMismatch:
		return "Recruit or certify an official for the required role", []Resolution{
			{ResolveManual, "Assign manually or adjust certification requirements", EffortHigh},
			{ResolveReschedule, "Move the game to a time a qualified official can cover", EffortMedium},
		}
	}
	return "", []Resolution{{ResolveManual, "Review manually", EffortHigh}}
}
