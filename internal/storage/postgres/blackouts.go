package postgres

import (
	"context"
	"time"

	"github.com/courtly/leaguecore/internal/domain"
)

type blackoutRepo struct {
	pool *Pool
}

func (r *blackoutRepo) ListBySeason(ctx context.Context, tenant, seasonID string) ([]domain.BlackoutDate, error) {
	const op = "blackout_dates.list"
	rows, err := r.pool.Query(ctx, `
		SELECT id, organization_id, season_id, reason, start_date, end_date,
		       affects_venues, affects_divisions, created_at
		FROM blackout_dates
		WHERE organization_id = $1 AND season_id = $2
		ORDER BY start_date`, tenant, seasonID)
	if err != nil {
		return nil, mapErr(op, err)
	}
	defer rows.Close()

	var out []domain.BlackoutDate
	for rows.Next() {
		var b domain.BlackoutDate
		if err := rows.Scan(&b.ID, &b.OrganizationID, &b.SeasonID, &b.Reason,
			&b.StartDate, &b.EndDate, &b.AffectsVenues, &b.AffectsDivisions,
			&b.CreatedAt); err != nil {
			return nil, mapErr(op, err)
		}
		out = append(out, b)
	}
	return out, mapErr(op, rows.Err())
}

func (r *blackoutRepo) Create(ctx context.Context, b *domain.BlackoutDate) error {
	const op = "blackout_dates.create"
	b.CreatedAt = time.Now().UTC()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO blackout_dates
			(id, organization_id, season_id, reason, start_date, end_date,
			 affects_venues, affects_divisions, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		b.ID, b.OrganizationID, b.SeasonID, b.Reason, b.StartDate, b.EndDate,
		b.AffectsVenues, b.AffectsDivisions, b.CreatedAt)
	return mapErr(op, err)
}

func (r *blackoutRepo) Delete(ctx context.Context, tenant, id string) error {
	const op = "blackout_dates.delete"
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM blackout_dates WHERE organization_id = $1 AND id = $2`, tenant, id)
	if err != nil {
		return mapErr(op, err)
	}
	if tag.RowsAffected() == 0 {
		return notFound(op, "blackout", id)
	}
	return nil
}

// --------------------------------------------------------------------------
// Generation log
// --------------------------------------------------------------------------

type generationLogRepo struct {
	pool *Pool
}

func (r *generationLogRepo) Create(ctx context.Context, l *domain.ScheduleGenerationLog) error {
	const op = "generation_logs.create"
	l.CreatedAt = time.Now().UTC()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO schedule_generation_logs
			(id, organization_id, season_id, requested_by, status, total_games,
			 scheduled_games, conflict_count, heat_warning_count, duration_ms,
			 warnings, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		l.ID, l.OrganizationID, l.SeasonID, l.RequestedBy, string(l.Status),
		l.TotalGames, l.ScheduledGames, l.ConflictCount, l.HeatWarningCount,
		l.DurationMillis, l.Warnings, l.CreatedAt)
	return mapErr(op, err)
}

func (r *generationLogRepo) ListBySeason(ctx context.Context, tenant, seasonID string) ([]domain.ScheduleGenerationLog, error) {
	const op = "generation_logs.list"
	rows, err := r.pool.Query(ctx, `
		SELECT id, organization_id, season_id, requested_by, status, total_games,
		       scheduled_games, conflict_count, heat_warning_count, duration_ms,
		       warnings, created_at
		FROM schedule_generation_logs
		WHERE organization_id = $1 AND season_id = $2
		ORDER BY created_at DESC`, tenant, seasonID)
	if err != nil {
		return nil, mapErr(op, err)
	}
	defer rows.Close()

	var out []domain.ScheduleGenerationLog
	for rows.Next() {
		var l domain.ScheduleGenerationLog
		var status string
		if err := rows.Scan(&l.ID, &l.OrganizationID, &l.SeasonID, &l.RequestedBy,
			&status, &l.TotalGames, &l.ScheduledGames, &l.ConflictCount,
			&l.HeatWarningCount, &l.DurationMillis, &l.Warnings, &l.CreatedAt); err != nil {
			return nil, mapErr(op, err)
		}
		l.Status = domain.GenerationStatus(status)
		out = append(out, l)
	}
	return out, mapErr(op, rows.Err())
}
