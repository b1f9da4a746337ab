package postgres

import "github.com/courtly/leaguecore/internal/storage"

// Store is the pgx-backed implementation of storage.Store.
type Store struct {
	pool *Pool
}

// NewStore wraps the pool as a storage.Store.
func NewStore(pool *Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) Seasons() storage.SeasonRepo           { return &seasonRepo{s.pool} }
func (s *Store) Divisions() storage.DivisionRepo       { return &divisionRepo{s.pool} }
func (s *Store) Venues() storage.VenueRepo             { return &venueRepo{s.pool} }
func (s *Store) Blackouts() storage.BlackoutRepo       { return &blackoutRepo{s.pool} }
func (s *Store) Games() storage.GameRepo               { return &gameRepo{s.pool} }
func (s *Store) Officials() storage.OfficialRepo       { return &officialRepo{s.pool} }
func (s *Store) Assignments() storage.AssignmentRepo   { return &assignmentRepo{s.pool} }
func (s *Store) Publish() storage.PublishTx            { return &publishTx{s.pool} }
func (s *Store) GenerationLogs() storage.GenerationLogRepo {
	return &generationLogRepo{s.pool}
}
func (s *Store) VenueAvailability() storage.VenueAvailabilityRepo {
	return &venueAvailabilityRepo{s.pool}
}
func (s *Store) OfficialAvailability() storage.OfficialAvailabilityRepo {
	return &officialAvailabilityRepo{s.pool}
}
