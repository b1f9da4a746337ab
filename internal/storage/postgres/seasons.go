package postgres

import (
	"context"
	"time"

	"github.com/courtly/leaguecore/internal/domain"
)

type seasonRepo struct {
	pool *Pool
}

const seasonCols = `id, organization_id, league_id, name, slug, start_date, end_date,
	registration_start, registration_deadline, status, fee, currency,
	max_games_per_team, playoffs_enabled, timezone, created_at, updated_at`

func scanSeason(row interface{ Scan(...any) error }) (*domain.Season, error) {
	var s domain.Season
	var status string
	err := row.Scan(
		&s.ID, &s.OrganizationID, &s.LeagueID, &s.Name, &s.Slug,
		&s.StartDate, &s.EndDate, &s.RegistrationStart, &s.RegistrationDeadline,
		&status, &s.Fee, &s.Currency, &s.MaxGamesPerTeam, &s.PlayoffsEnabled,
		&s.Timezone, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	s.Status = domain.SeasonStatus(status)
	return &s, nil
}

func (r *seasonRepo) List(ctx context.Context, tenant string) ([]domain.Season, error) {
	const op = "seasons.list"
	rows, err := r.pool.Query(ctx,
		`SELECT `+seasonCols+` FROM seasons WHERE organization_id = $1 ORDER BY start_date DESC`, tenant)
	if err != nil {
		return nil, mapErr(op, err)
	}
	defer rows.Close()

	var out []domain.Season
	for rows.Next() {
		s, err := scanSeason(rows)
		if err != nil {
			return nil, mapErr(op, err)
		}
		out = append(out, *s)
	}
	return out, mapErr(op, rows.Err())
}

func (r *seasonRepo) Get(ctx context.Context, tenant, id string) (*domain.Season, error) {
	const op = "seasons.get"
	s, err := scanSeason(r.pool.QueryRow(ctx,
		`SELECT `+seasonCols+` FROM seasons WHERE organization_id = $1 AND id = $2`, tenant, id))
	if err != nil {
		return nil, mapErr(op, err)
	}
	return s, nil
}

func (r *seasonRepo) Create(ctx context.Context, s *domain.Season) error {
	const op = "seasons.create"
	now := time.Now().UTC()
	s.CreatedAt, s.UpdatedAt = now, now
	_, err := r.pool.Exec(ctx, `
		INSERT INTO seasons (`+seasonCols+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)`,
		s.ID, s.OrganizationID, s.LeagueID, s.Name, s.Slug,
		s.StartDate, s.EndDate, s.RegistrationStart, s.RegistrationDeadline,
		string(s.Status), s.Fee, s.Currency, s.MaxGamesPerTeam, s.PlayoffsEnabled,
		s.Timezone, s.CreatedAt, s.UpdatedAt)
	return mapErr(op, err)
}

func (r *seasonRepo) Update(ctx context.Context, s *domain.Season) error {
	const op = "seasons.update"
	s.UpdatedAt = time.Now().UTC()
	tag, err := r.pool.Exec(ctx, `
		UPDATE seasons SET
			name = $3, slug = $4, start_date = $5, end_date = $6,
			registration_start = $7, registration_deadline = $8, status = $9,
			fee = $10, currency = $11, max_games_per_team = $12,
			playoffs_enabled = $13, timezone = $14, updated_at = $15
		WHERE organization_id = $1 AND id = $2`,
		s.OrganizationID, s.ID, s.Name, s.Slug, s.StartDate, s.EndDate,
		s.RegistrationStart, s.RegistrationDeadline, string(s.Status),
		s.Fee, s.Currency, s.MaxGamesPerTeam, s.PlayoffsEnabled,
		s.Timezone, s.UpdatedAt)
	if err != nil {
		return mapErr(op, err)
	}
	if tag.RowsAffected() == 0 {
		return notFound(op, "season", s.ID)
	}
	return nil
}

func (r *seasonRepo) Delete(ctx context.Context, tenant, id string) error {
	const op = "seasons.delete"
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM seasons WHERE organization_id = $1 AND id = $2`, tenant, id)
	if err != nil {
		return mapErr(op, err)
	}
	if tag.RowsAffected() == 0 {
		return notFound(op, "season", id)
	}
	return nil
}
