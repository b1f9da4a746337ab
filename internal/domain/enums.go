// Package domain defines the entities and closed enumerations shared by the
// scheduling core. Every "type" field from the data model is a named string
// type with an explicit value set; parsers reject anything outside the set so
// new variants are deliberate, compile-visible additions.
package domain

import "fmt"

// --------------------------------------------------------------------------
// Season
// --------------------------------------------------------------------------

type SeasonStatus string

const (
	SeasonUpcoming         SeasonStatus = "UPCOMING"
	SeasonRegistrationOpen SeasonStatus = "REGISTRATION_OPEN"
	SeasonActive           SeasonStatus = "ACTIVE"
	SeasonCompleted        SeasonStatus = "COMPLETED"
)

// CanTransition reports whether a season may move from s to next.
// Transitions are monotonic except UPCOMING <-> REGISTRATION_OPEN;
// COMPLETED is terminal.
func (s SeasonStatus) CanTransition(next SeasonStatus) bool {
	switch s {
	case SeasonUpcoming:
		return next == SeasonRegistrationOpen || next == SeasonActive
	case SeasonRegistrationOpen:
		return next == SeasonUpcoming || next == SeasonActive
	case SeasonActive:
		return next == SeasonCompleted
	default:
		return false
	}
}

func ParseSeasonStatus(s string) (SeasonStatus, error) {
	switch SeasonStatus(s) {
	case SeasonUpcoming, SeasonRegistrationOpen, SeasonActive, SeasonCompleted:
		return SeasonStatus(s), nil
	}
	return "", fmt.Errorf("invalid season status %q", s)
}

// --------------------------------------------------------------------------
// Venue
// --------------------------------------------------------------------------

type VenueType string

const (
	VenueIndoor  VenueType = "INDOOR"
	VenueOutdoor VenueType = "OUTDOOR"
	VenueHybrid  VenueType = "HYBRID"
)

func ParseVenueType(s string) (VenueType, error) {
	switch VenueType(s) {
	case VenueIndoor, VenueOutdoor, VenueHybrid:
		return VenueType(s), nil
	}
	return "", fmt.Errorf("invalid venue type %q", s)
}

type AvailabilityKind string

const (
	AvailabilityAvailable   AvailabilityKind = "AVAILABLE"
	AvailabilityBlocked     AvailabilityKind = "BLOCKED"
	AvailabilityMaintenance AvailabilityKind = "MAINTENANCE"
)

func ParseAvailabilityKind(s string) (AvailabilityKind, error) {
	switch AvailabilityKind(s) {
	case AvailabilityAvailable, AvailabilityBlocked, AvailabilityMaintenance:
		return AvailabilityKind(s), nil
	}
	return "", fmt.Errorf("invalid availability kind %q", s)
}

// --------------------------------------------------------------------------
// Game
// --------------------------------------------------------------------------

type GameType string

const (
	GameRegular      GameType = "REGULAR"
	GamePlayoff      GameType = "PLAYOFF"
	GameChampionship GameType = "CHAMPIONSHIP"
	GameScrimmage    GameType = "SCRIMMAGE"
)

// Importance orders game types for assignment priority. Higher first.
func (t GameType) Importance() int {
	switch t {
	case GameChampionship:
		return 5
	case GamePlayoff:
		return 4
	case GameScrimmage:
		return 0
	default:
		return 1
	}
}

func ParseGameType(s string) (GameType, error) {
	switch GameType(s) {
	case GameRegular, GamePlayoff, GameChampionship, GameScrimmage:
		return GameType(s), nil
	}
	return "", fmt.Errorf("invalid game type %q", s)
}

type GameStatus string

const (
	GameScheduled  GameStatus = "SCHEDULED"
	GameInProgress GameStatus = "IN_PROGRESS"
	GameCompleted  GameStatus = "COMPLETED"
	GameCancelled  GameStatus = "CANCELLED"
	GameForfeited  GameStatus = "FORFEITED"
	GamePostponed  GameStatus = "POSTPONED"
)

// CanTransition enforces the game status DAG:
// SCHEDULED -> {IN_PROGRESS, CANCELLED, POSTPONED};
// IN_PROGRESS -> {COMPLETED, FORFEITED, CANCELLED};
// POSTPONED -> {SCHEDULED, CANCELLED};
// COMPLETED, FORFEITED, CANCELLED are terminal.
func (s GameStatus) CanTransition(next GameStatus) bool {
	switch s {
	case GameScheduled:
		return next == GameInProgress || next == GameCancelled || next == GamePostponed
	case GameInProgress:
		return next == GameCompleted || next == GameForfeited || next == GameCancelled
	case GamePostponed:
		return next == GameScheduled || next == GameCancelled
	default:
		return false
	}
}

func (s GameStatus) Terminal() bool {
	return s == GameCompleted || s == GameForfeited || s == GameCancelled
}

func ParseGameStatus(s string) (GameStatus, error) {
	switch GameStatus(s) {
	case GameScheduled, GameInProgress, GameCompleted, GameCancelled, GameForfeited, GamePostponed:
		return GameStatus(s), nil
	}
	return "", fmt.Errorf("invalid game status %q", s)
}

// --------------------------------------------------------------------------
// Officials
// --------------------------------------------------------------------------

type CertificationLevel string

const (
	CertBeginner     CertificationLevel = "BEGINNER"
	CertIntermediate CertificationLevel = "INTERMEDIATE"
	CertAdvanced     CertificationLevel = "ADVANCED"
	CertExpert       CertificationLevel = "EXPERT"
)

// Rank returns the numeric ordering used for scoring and minimum-level checks.
func (c CertificationLevel) Rank() int {
	switch c {
	case CertBeginner:
		return 1
	case CertIntermediate:
		return 2
	case CertAdvanced:
		return 3
	case CertExpert:
		return 4
	}
	return 0
}

func ParseCertificationLevel(s string) (CertificationLevel, error) {
	switch CertificationLevel(s) {
	case CertBeginner, CertIntermediate, CertAdvanced, CertExpert:
		return CertificationLevel(s), nil
	}
	return "", fmt.Errorf("invalid certification level %q", s)
}

type OfficialRole string

const (
	RoleHeadReferee      OfficialRole = "HEAD_REFEREE"
	RoleAssistantReferee OfficialRole = "ASSISTANT_REFEREE"
	RoleScorekeeper      OfficialRole = "SCOREKEEPER"
	RoleClockOperator    OfficialRole = "CLOCK_OPERATOR"
)

// MaxPerGame is how many assignments a game may carry for the role.
func (r OfficialRole) MaxPerGame() int {
	if r == RoleAssistantReferee {
		return 2
	}
	return 1
}

// PayMultiplier is the role's share of the base hourly rate.
func (r OfficialRole) PayMultiplier() float64 {
	switch r {
	case RoleHeadReferee:
		return 1.0
	case RoleAssistantReferee:
		return 0.8
	case RoleScorekeeper:
		return 0.6
	case RoleClockOperator:
		return 0.5
	}
	return 0
}

func ParseOfficialRole(s string) (OfficialRole, error) {
	switch OfficialRole(s) {
	case RoleHeadReferee, RoleAssistantReferee, RoleScorekeeper, RoleClockOperator:
		return OfficialRole(s), nil
	}
	return "", fmt.Errorf("invalid official role %q", s)
}

type OfficialAvailabilityKind string

const (
	OfficialAvailable   OfficialAvailabilityKind = "AVAILABLE"
	OfficialPreferred   OfficialAvailabilityKind = "PREFERRED"
	OfficialUnavailable OfficialAvailabilityKind = "UNAVAILABLE"
)

func ParseOfficialAvailabilityKind(s string) (OfficialAvailabilityKind, error) {
	switch OfficialAvailabilityKind(s) {
	case OfficialAvailable, OfficialPreferred, OfficialUnavailable:
		return OfficialAvailabilityKind(s), nil
	}
	return "", fmt.Errorf("invalid official availability kind %q", s)
}

type AssignmentStatus string

const (
	AssignmentPending   AssignmentStatus = "PENDING"
	AssignmentConfirmed AssignmentStatus = "CONFIRMED"
	AssignmentDeclined  AssignmentStatus = "DECLINED"
	AssignmentCancelled AssignmentStatus = "CANCELLED"
)

func ParseAssignmentStatus(s string) (AssignmentStatus, error) {
	switch AssignmentStatus(s) {
	case AssignmentPending, AssignmentConfirmed, AssignmentDeclined, AssignmentCancelled:
		return AssignmentStatus(s), nil
	}
	return "", fmt.Errorf("invalid assignment status %q", s)
}

// --------------------------------------------------------------------------
// Skill level (division)
// --------------------------------------------------------------------------

type SkillLevel string

const (
	SkillRecreational SkillLevel = "RECREATIONAL"
	SkillIntermediate SkillLevel = "INTERMEDIATE"
	SkillAdvanced     SkillLevel = "ADVANCED"
	SkillCompetitive  SkillLevel = "COMPETITIVE"
)

// PayMultiplier reflects higher officiating demands in upper divisions.
func (l SkillLevel) PayMultiplier() float64 {
	switch l {
	case SkillCompetitive:
		return 1.2
	case SkillAdvanced:
		return 1.1
	default:
		return 1.0
	}
}

// RequiresAssistantReferee reports whether division play at this level
// staffs a second referee.
func (l SkillLevel) RequiresAssistantReferee() bool {
	return l == SkillAdvanced || l == SkillCompetitive
}

func ParseSkillLevel(s string) (SkillLevel, error) {
	switch SkillLevel(s) {
	case SkillRecreational, SkillIntermediate, SkillAdvanced, SkillCompetitive:
		return SkillLevel(s), nil
	}
	return "", fmt.Errorf("invalid skill level %q", s)
}

// --------------------------------------------------------------------------
// Roles (principal)
// --------------------------------------------------------------------------

type Role string

const (
	RoleAdmin     Role = "ADMIN"
	RoleScheduler Role = "SCHEDULER"
	RoleCoach     Role = "COACH"
	RoleViewer    Role = "VIEWER"
)

func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleAdmin, RoleScheduler, RoleCoach, RoleViewer:
		return Role(s), nil
	}
	return "", fmt.Errorf("invalid role %q", s)
}

type Weekday string

const (
	Monday    Weekday = "MON"
	Tuesday   Weekday = "TUE"
	Wednesday Weekday = "WED"
	Thursday  Weekday = "THU"
	Friday    Weekday = "FRI"
	Saturday  Weekday = "SAT"
	Sunday    Weekday = "SUN"
)

var weekdayIndex = map[Weekday]int{
	Sunday: 0, Monday: 1, Tuesday: 2, Wednesday: 3, Thursday: 4, Friday: 5, Saturday: 6,
}

// TimeWeekday maps to time.Weekday's numbering (Sunday == 0).
func (d Weekday) TimeWeekday() (int, bool) {
	n, ok := weekdayIndex[d]
	return n, ok
}

func ParseWeekday(s string) (Weekday, error) {
	switch Weekday(s) {
	case Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday:
		return Weekday(s), nil
	}
	return "", fmt.Errorf("invalid weekday %q", s)
}
