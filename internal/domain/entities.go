package domain

import (
	"fmt"
	"time"
)

// Season is a time-bounded competition owned by a tenant.
type Season struct {
	ID                   string       `json:"id"`
	OrganizationID       string       `json:"organization_id"`
	LeagueID             string       `json:"league_id"`
	Name                 string       `json:"name"`
	Slug                 string       `json:"slug"`
	StartDate            time.Time    `json:"start_date"`
	EndDate              time.Time    `json:"end_date"`
	RegistrationStart    time.Time    `json:"registration_start"`
	RegistrationDeadline time.Time    `json:"registration_deadline"`
	Status               SeasonStatus `json:"status"`
	Fee                  float64      `json:"fee"`
	Currency             string       `json:"currency"`
	MaxGamesPerTeam      int          `json:"max_games_per_team"`
	PlayoffsEnabled      bool         `json:"playoffs_enabled"`
	Timezone             string       `json:"timezone"`
	CreatedAt            time.Time    `json:"created_at"`
	UpdatedAt            time.Time    `json:"updated_at"`
}

// Validate checks the season date invariants.
func (s *Season) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("season name is required")
	}
	if s.EndDate.Before(s.StartDate) {
		return fmt.Errorf("season end_date %s before start_date %s",
			s.EndDate.Format("2006-01-02"), s.StartDate.Format("2006-01-02"))
	}
	if !s.RegistrationStart.IsZero() && !s.RegistrationDeadline.IsZero() {
		if s.RegistrationDeadline.Before(s.RegistrationStart) {
			return fmt.Errorf("registration_deadline before registration_start")
		}
		if s.StartDate.Before(s.RegistrationDeadline) {
			return fmt.Errorf("registration_deadline after season start_date")
		}
	}
	return nil
}

// Location returns the season's IANA timezone, defaulting to America/Phoenix.
// Phoenix does not observe DST, which keeps slot arithmetic stable year-round.
func (s *Season) Location() *time.Location {
	tz := s.Timezone
	if tz == "" {
		tz = "America/Phoenix"
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return time.FixedZone("MST", -7*3600)
	}
	return loc
}

// Division groups teams sharing age, gender, and skill constraints.
type Division struct {
	ID                string     `json:"id"`
	OrganizationID    string     `json:"organization_id"`
	LeagueID          string     `json:"league_id"`
	Name              string     `json:"name"`
	Code              string     `json:"code"`
	MinAge            int        `json:"min_age"`
	MaxAge            int        `json:"max_age"`
	SkillLevel        SkillLevel `json:"skill_level"`
	Gender            string     `json:"gender"`
	MaxTeams          int        `json:"max_teams"`
	MaxPlayersPerTeam int        `json:"max_players_per_team"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

func (d *Division) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("division name is required")
	}
	if d.MinAge > d.MaxAge {
		return fmt.Errorf("division min_age %d exceeds max_age %d", d.MinAge, d.MaxAge)
	}
	return nil
}

// GeoPoint is an optional venue coordinate used for travel estimation.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Venue is a playing location. OUTDOOR venues are subject to heat policy.
type Venue struct {
	ID             string    `json:"id"`
	OrganizationID string    `json:"organization_id"`
	Name           string    `json:"name"`
	Type           VenueType `json:"type"`
	AddressLine    string    `json:"address_line"`
	City           string    `json:"city"`
	State          string    `json:"state"`
	PostalCode     string    `json:"postal_code"`
	Geo            *GeoPoint `json:"geo,omitempty"`
	Capacity       int       `json:"capacity"`
	Active         bool      `json:"active"`
	RentalRate     float64   `json:"rental_rate"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Outdoor reports whether the heat policy applies at this venue.
func (v *Venue) Outdoor() bool { return v.Type == VenueOutdoor }

// VenueAvailability is a recurring weekly availability rule. Overlapping
// rules resolve by Priority, higher wins.
type VenueAvailability struct {
	ID            string           `json:"id"`
	VenueID       string           `json:"venue_id"`
	DayOfWeek     Weekday          `json:"day_of_week"`
	StartTime     string           `json:"start_time"` // "HH:MM" local
	EndTime       string           `json:"end_time"`
	Kind          AvailabilityKind `json:"kind"`
	Priority      int              `json:"priority"`
	EffectiveDate time.Time        `json:"effective_date"`
	ExpiryDate    *time.Time       `json:"expiry_date,omitempty"`
}

func (a *VenueAvailability) Validate() error {
	if a.StartTime >= a.EndTime {
		return fmt.Errorf("availability start_time %q not before end_time %q", a.StartTime, a.EndTime)
	}
	if _, err := ParseWeekday(string(a.DayOfWeek)); err != nil {
		return err
	}
	return nil
}

// EffectiveOn reports whether the rule applies on the given date. A rule
// whose expiry has passed is treated as inactive.
func (a *VenueAvailability) EffectiveOn(date time.Time) bool {
	day := date.Truncate(24 * time.Hour)
	if !a.EffectiveDate.IsZero() && day.Before(a.EffectiveDate.Truncate(24*time.Hour)) {
		return false
	}
	if a.ExpiryDate != nil && day.After(a.ExpiryDate.Truncate(24*time.Hour)) {
		return false
	}
	return true
}

// BlackoutDate blocks scheduling in a date range. Empty venue/division lists
// mean the blackout applies to all.
type BlackoutDate struct {
	ID               string    `json:"id"`
	OrganizationID   string    `json:"organization_id"`
	SeasonID         string    `json:"season_id"`
	Reason           string    `json:"reason"`
	StartDate        time.Time `json:"start_date"`
	EndDate          time.Time `json:"end_date"`
	AffectsVenues    []string  `json:"affects_venues"`
	AffectsDivisions []string  `json:"affects_divisions"`
	CreatedAt        time.Time `json:"created_at"`
}

func (b *BlackoutDate) Validate() error {
	if b.EndDate.Before(b.StartDate) {
		return fmt.Errorf("blackout end_date before start_date")
	}
	return nil
}

// Covers reports whether the blackout applies to the given date, venue, and
// division.
func (b *BlackoutDate) Covers(date time.Time, venueID, divisionID string) bool {
	day := atMidnight(date)
	if day.Before(atMidnight(b.StartDate)) || day.After(atMidnight(b.EndDate)) {
		return false
	}
	if len(b.AffectsVenues) > 0 && !contains(b.AffectsVenues, venueID) {
		return false
	}
	if len(b.AffectsDivisions) > 0 && !contains(b.AffectsDivisions, divisionID) {
		return false
	}
	return true
}

// Team is an opaque reference owned by the external team directory; the core
// carries only what scheduling needs.
type Team struct {
	ID              string      `json:"id"`
	Name            string      `json:"name"`
	DivisionID      string      `json:"division_id"`
	PreferredVenues []string    `json:"preferred_venues,omitempty"`
	BlackoutDates   []time.Time `json:"blackout_dates,omitempty"`
	MaxGamesPerWeek int         `json:"max_games_per_week,omitempty"`
}

// Game is a scheduled matchup.
type Game struct {
	ID                string     `json:"id"`
	OrganizationID    string     `json:"organization_id"`
	SeasonID          string     `json:"season_id"`
	DivisionID        string     `json:"division_id"`
	HomeTeamID        string     `json:"home_team_id"`
	HomeTeamName      string     `json:"home_team_name"`
	AwayTeamID        string     `json:"away_team_id"`
	AwayTeamName      string     `json:"away_team_name"`
	VenueID           string     `json:"venue_id"`
	CourtID           string     `json:"court_id,omitempty"`
	GameNumber        string     `json:"game_number"`
	GameType          GameType   `json:"game_type"`
	ScheduledStart    time.Time  `json:"scheduled_start"`
	DurationMinutes   int        `json:"duration_minutes"`
	Status            GameStatus `json:"status"`
	HomeScore         *int       `json:"home_score,omitempty"`
	AwayScore         *int       `json:"away_score,omitempty"`
	HeatPolicyApplied bool       `json:"heat_policy_applied"`
	Notes             string     `json:"notes,omitempty"`
	CancelledReason   string     `json:"cancelled_reason,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

func (g *Game) Validate() error {
	if g.HomeTeamID == g.AwayTeamID {
		return fmt.Errorf("game home and away team are the same: %s", g.HomeTeamID)
	}
	if g.DurationMinutes <= 0 {
		return fmt.Errorf("game duration must be positive, got %d", g.DurationMinutes)
	}
	return nil
}

// End returns the scheduled end time.
func (g *Game) End() time.Time {
	return g.ScheduledStart.Add(time.Duration(g.DurationMinutes) * time.Minute)
}

// Involves reports whether the team plays in this game.
func (g *Game) Involves(teamID string) bool {
	return g.HomeTeamID == teamID || g.AwayTeamID == teamID
}

// Official is a referee, scorekeeper, or clock operator available for
// assignment.
type Official struct {
	ID              string             `json:"id"`
	OrganizationID  string             `json:"organization_id"`
	Name            string             `json:"name"`
	Email           string             `json:"email"`
	Phone           string             `json:"phone"`
	Certification   CertificationLevel `json:"certification"`
	Specialties     []OfficialRole     `json:"specialties"`
	MaxGamesPerDay  int                `json:"max_games_per_day"`
	MaxGamesPerWeek int                `json:"max_games_per_week"`
	TravelRadiusKm  float64            `json:"travel_radius_km"`
	HourlyRate      float64            `json:"hourly_rate"`
	Geo             *GeoPoint          `json:"geo,omitempty"`
	Active          bool               `json:"active"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
}

// HasSpecialty reports whether the official covers the role.
func (o *Official) HasSpecialty(role OfficialRole) bool {
	for _, s := range o.Specialties {
		if s == role {
			return true
		}
	}
	return false
}

// OfficialAvailability is a weekly or date-specific availability window.
type OfficialAvailability struct {
	ID           string                   `json:"id"`
	OfficialID   string                   `json:"official_id"`
	DayOfWeek    Weekday                  `json:"day_of_week"`
	StartTime    string                   `json:"start_time"`
	EndTime      string                   `json:"end_time"`
	Kind         OfficialAvailabilityKind `json:"kind"`
	Recurring    bool                     `json:"recurring"`
	SpecificDate *time.Time               `json:"specific_date,omitempty"`
}

// Assignment binds an official to a game in a role.
type Assignment struct {
	ID           string           `json:"id"`
	GameID       string           `json:"game_id"`
	OfficialID   string           `json:"official_id"`
	OfficialName string           `json:"official_name"`
	Role         OfficialRole     `json:"role"`
	Status       AssignmentStatus `json:"status"`
	AssignedAt   time.Time        `json:"assigned_at"`
	ConfirmedAt  *time.Time       `json:"confirmed_at,omitempty"`
	PayRate      float64          `json:"pay_rate"`
	EstimatedPay float64          `json:"estimated_pay"`
	ActualPay    *float64         `json:"actual_pay,omitempty"`
}

// GenerationStatus classifies a schedule generation run.
type GenerationStatus string

const (
	GenerationSucceeded GenerationStatus = "SUCCEEDED"
	GenerationPartial   GenerationStatus = "PARTIAL"
	GenerationFailed    GenerationStatus = "FAILED"
)

// ScheduleGenerationLog is the audit record written per generation run.
type ScheduleGenerationLog struct {
	ID               string           `json:"id"`
	OrganizationID   string           `json:"organization_id"`
	SeasonID         string           `json:"season_id"`
	RequestedBy      string           `json:"requested_by"`
	Status           GenerationStatus `json:"status"`
	TotalGames       int              `json:"total_games"`
	ScheduledGames   int              `json:"scheduled_games"`
	ConflictCount    int              `json:"conflict_count"`
	HeatWarningCount int              `json:"heat_warning_count"`
	DurationMillis   int64            `json:"duration_ms"`
	Warnings         []string         `json:"warnings,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
}

// --------------------------------------------------------------------------
// Helpers
// --------------------------------------------------------------------------

func atMidnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

// Overlaps reports whether [aStart, aEnd) and [bStart, bEnd) intersect.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// OverlapMinutes returns the length of the intersection in whole minutes,
// or 0 when the windows do not intersect.
func OverlapMinutes(aStart, aEnd, bStart, bEnd time.Time) int {
	start := aStart
	if bStart.After(start) {
		start = bStart
	}
	end := aEnd
	if bEnd.Before(end) {
		end = bEnd
	}
	if !start.Before(end) {
		return 0
	}
	return int(end.Sub(start) / time.Minute)
}
