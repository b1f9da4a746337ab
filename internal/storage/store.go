package storage

import (
	"context"
	"time"

	"github.com/courtly/leaguecore/internal/domain"
)

// GameFilter narrows game listings. Zero values mean "no filter".
type GameFilter struct {
	SeasonID   string
	DivisionID string
	TeamID     string
	VenueID    string
	Status     domain.GameStatus
	DateFrom   time.Time
	DateTo     time.Time
	Limit      int
}

// AssignmentFilter narrows assignment listings.
type AssignmentFilter struct {
	GameID     string
	OfficialID string
	Status     domain.AssignmentStatus
	DateFrom   time.Time
	DateTo     time.Time
}

// SeasonRepo is tenant-scoped CRUD over seasons.
type SeasonRepo interface {
	List(ctx context.Context, tenant string) ([]domain.Season, error)
	Get(ctx context.Context, tenant, id string) (*domain.Season, error)
	Create(ctx context.Context, s *domain.Season) error
	Update(ctx context.Context, s *domain.Season) error
	Delete(ctx context.Context, tenant, id string) error
}

type DivisionRepo interface {
	List(ctx context.Context, tenant string) ([]domain.Division, error)
	Get(ctx context.Context, tenant, id string) (*domain.Division, error)
	Create(ctx context.Context, d *domain.Division) error
	Update(ctx context.Context, d *domain.Division) error
	Delete(ctx context.Context, tenant, id string) error
}

type VenueRepo interface {
	List(ctx context.Context, tenant string) ([]domain.Venue, error)
	ListActive(ctx context.Context, tenant string) ([]domain.Venue, error)
	Get(ctx context.Context, tenant, id string) (*domain.Venue, error)
	Create(ctx context.Context, v *domain.Venue) error
	Update(ctx context.Context, v *domain.Venue) error
	Delete(ctx context.Context, tenant, id string) error
}

type VenueAvailabilityRepo interface {
	ListByVenue(ctx context.Context, venueID string) ([]domain.VenueAvailability, error)
	Set(ctx context.Context, venueID string, rules []domain.VenueAvailability) error
}

type BlackoutRepo interface {
	ListBySeason(ctx context.Context, tenant, seasonID string) ([]domain.BlackoutDate, error)
	Create(ctx context.Context, b *domain.BlackoutDate) error
	Delete(ctx context.Context, tenant, id string) error
}

// GameRepo covers game CRUD plus the scheduling-specific queries.
type GameRepo interface {
	List(ctx context.Context, tenant string, f GameFilter) ([]domain.Game, error)
	Get(ctx context.Context, tenant, id string) (*domain.Game, error)
	Create(ctx context.Context, g *domain.Game) error
	Update(ctx context.Context, g *domain.Game) error
	Delete(ctx context.Context, tenant, id string) error

	// FindConflictsAt returns non-cancelled games at the venue whose buffered
	// interval overlaps [start, start+duration+buffer).
	FindConflictsAt(ctx context.Context, tenant, venueID string, start time.Time, duration, buffer time.Duration, excludeGameID string) ([]domain.Game, error)

	// BulkInsert atomically inserts all rows; a partially published schedule
	// is forbidden.
	BulkInsert(ctx context.Context, games []domain.Game) error

	// ExistsForVenue reports whether any non-cancelled game references the
	// venue. Guards venue deletion.
	ExistsForVenue(ctx context.Context, tenant, venueID string) (bool, error)
}

type OfficialRepo interface {
	List(ctx context.Context, tenant string) ([]domain.Official, error)
	ListActive(ctx context.Context, tenant string) ([]domain.Official, error)
	Get(ctx context.Context, tenant, id string) (*domain.Official, error)
	Create(ctx context.Context, o *domain.Official) error
	Update(ctx context.Context, o *domain.Official) error
	Delete(ctx context.Context, tenant, id string) error
}

type OfficialAvailabilityRepo interface {
	ListByOfficial(ctx context.Context, officialID string) ([]domain.OfficialAvailability, error)
	Set(ctx context.Context, officialID string, windows []domain.OfficialAvailability) error
}

type AssignmentRepo interface {
	List(ctx context.Context, tenant string, f AssignmentFilter) ([]domain.Assignment, error)
	Get(ctx context.Context, tenant, id string) (*domain.Assignment, error)
	Create(ctx context.Context, a *domain.Assignment) error
	BulkInsert(ctx context.Context, tenant string, as []domain.Assignment) error
	UpdateStatus(ctx context.Context, tenant, id string, status domain.AssignmentStatus, confirmedAt *time.Time) error
	Delete(ctx context.Context, tenant, id string) error
}

type GenerationLogRepo interface {
	Create(ctx context.Context, l *domain.ScheduleGenerationLog) error
	ListBySeason(ctx context.Context, tenant, seasonID string) ([]domain.ScheduleGenerationLog, error)
}

// PublishTx is the unit of work behind schedule publishing: insert all games
// and flip the season status in one transaction.
type PublishTx interface {
	PublishSchedule(ctx context.Context, tenant, seasonID string, games []domain.Game) error
	// RescheduleGame moves the game row. The venue-overlap guard runs inside
	// the same transaction: the venue row is locked, the buffered target
	// window is re-checked under the lock, and the update aborts with a
	// Conflict error when another game holds it. Two concurrent moves into
	// the same window serialize on the venue lock and the loser fails.
	RescheduleGame(ctx context.Context, g *domain.Game, bufferMinutes int) error
}

// Store aggregates the repositories. Implementations must scope every query
// to the tenant passed by the caller.
type Store interface {
	Seasons() SeasonRepo
	Divisions() DivisionRepo
	Venues() VenueRepo
	VenueAvailability() VenueAvailabilityRepo
	Blackouts() BlackoutRepo
	Games() GameRepo
	Officials() OfficialRepo
	OfficialAvailability() OfficialAvailabilityRepo
	Assignments() AssignmentRepo
	GenerationLogs() GenerationLogRepo
	Publish() PublishTx
}
