package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/courtly/leaguecore/internal/domain"
	"github.com/courtly/leaguecore/internal/storage"
)

type gameRepo struct {
	pool *Pool
}

const gameCols = `id, organization_id, season_id, division_id,
	home_team_id, home_team_name, away_team_id, away_team_name,
	venue_id, court_id, game_number, game_type, scheduled_start,
	duration_minutes, status, home_score, away_score,
	heat_policy_applied, notes, cancelled_reason, created_at, updated_at`

func scanGame(row interface{ Scan(...any) error }) (*domain.Game, error) {
	var g domain.Game
	var gtype, status string
	var courtID, notes, cancelledReason *string
	err := row.Scan(
		&g.ID, &g.OrganizationID, &g.SeasonID, &g.DivisionID,
		&g.HomeTeamID, &g.HomeTeamName, &g.AwayTeamID, &g.AwayTeamName,
		&g.VenueID, &courtID, &g.GameNumber, &gtype, &g.ScheduledStart,
		&g.DurationMinutes, &status, &g.HomeScore, &g.AwayScore,
		&g.HeatPolicyApplied, &notes, &cancelledReason, &g.CreatedAt, &g.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	g.GameType = domain.GameType(gtype)
	g.Status = domain.GameStatus(status)
	if courtID != nil {
		g.CourtID = *courtID
	}
	if notes != nil {
		g.Notes = *notes
	}
	if cancelledReason != nil {
		g.CancelledReason = *cancelledReason
	}
	return &g, nil
}

func (r *gameRepo) List(ctx context.Context, tenant string, f storage.GameFilter) ([]domain.Game, error) {
	const op = "games.list"
	defer r.pool.observe("games", op, time.Now())

	sql := `SELECT ` + gameCols + ` FROM games WHERE organization_id = $1`
	args := []any{tenant}
	add := func(clause string, v any) {
		args = append(args, v)
		sql += fmt.Sprintf(" AND %s $%d", clause, len(args))
	}
	if f.SeasonID != "" {
		add("season_id =", f.SeasonID)
	}
	if f.DivisionID != "" {
		add("division_id =", f.DivisionID)
	}
	if f.VenueID != "" {
		add("venue_id =", f.VenueID)
	}
	if f.Status != "" {
		add("status =", string(f.Status))
	}
	if f.TeamID != "" {
		args = append(args, f.TeamID)
		sql += fmt.Sprintf(" AND (home_team_id = $%d OR away_team_id = $%d)", len(args), len(args))
	}
	if !f.DateFrom.IsZero() {
		add("scheduled_start >=", f.DateFrom)
	}
	if !f.DateTo.IsZero() {
		add("scheduled_start <", f.DateTo)
	}
	sql += " ORDER BY scheduled_start"
	if f.Limit > 0 {
		sql += fmt.Sprintf(" LIMIT %d", f.Limit)
	}

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, mapErr(op, err)
	}
	defer rows.Close()

	var out []domain.Game
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, mapErr(op, err)
		}
		out = append(out, *g)
	}
	return out, mapErr(op, rows.Err())
}

func (r *gameRepo) Get(ctx context.Context, tenant, id string) (*domain.Game, error) {
	const op = "games.get"
	g, err := scanGame(r.pool.QueryRow(ctx,
		`SELECT `+gameCols+` FROM games WHERE organization_id = $1 AND id = $2`, tenant, id))
	if err != nil {
		return nil, mapErr(op, err)
	}
	return g, nil
}

func (r *gameRepo) Create(ctx context.Context, g *domain.Game) error {
	const op = "games.create"
	now := time.Now().UTC()
	g.CreatedAt, g.UpdatedAt = now, now
	_, err := r.pool.Exec(ctx, insertGameSQL, gameInsertArgs(g)...)
	return mapErr(op, err)
}

const insertGameSQL = `
	INSERT INTO games (` + gameCols + `)
	VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22)`

func gameInsertArgs(g *domain.Game) []any {
	return []any{
		g.ID, g.OrganizationID, g.SeasonID, g.DivisionID,
		g.HomeTeamID, g.HomeTeamName, g.AwayTeamID, g.AwayTeamName,
		g.VenueID, nullable(g.CourtID), g.GameNumber, string(g.GameType), g.ScheduledStart,
		g.DurationMinutes, string(g.Status), g.HomeScore, g.AwayScore,
		g.HeatPolicyApplied, nullable(g.Notes), nullable(g.CancelledReason),
		g.CreatedAt, g.UpdatedAt,
	}
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func (r *gameRepo) Update(ctx context.Context, g *domain.Game) error {
	const op = "games.update"
	g.UpdatedAt = time.Now().UTC()
	tag, err := r.pool.Exec(ctx, `
		UPDATE games SET
			venue_id = $3, court_id = $4, scheduled_start = $5, duration_minutes = $6,
			status = $7, home_score = $8, away_score = $9, heat_policy_applied = $10,
			notes = $11, cancelled_reason = $12, updated_at = $13
		WHERE organization_id = $1 AND id = $2`,
		g.OrganizationID, g.ID, g.VenueID, nullable(g.CourtID),
		g.ScheduledStart, g.DurationMinutes, string(g.Status),
		g.HomeScore, g.AwayScore, g.HeatPolicyApplied,
		nullable(g.Notes), nullable(g.CancelledReason), g.UpdatedAt)
	if err != nil {
		return mapErr(op, err)
	}
	if tag.RowsAffected() == 0 {
		return notFound(op, "game", g.ID)
	}
	return nil
}

func (r *gameRepo) Delete(ctx context.Context, tenant, id string) error {
	const op = "games.delete"
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM games WHERE organization_id = $1 AND id = $2`, tenant, id)
	if err != nil {
		return mapErr(op, err)
	}
	if tag.RowsAffected() == 0 {
		return notFound(op, "game", id)
	}
	return nil
}

// FindConflictsAt returns non-cancelled games at the venue whose buffered
// interval overlaps the proposed buffered interval.
func (r *gameRepo) FindConflictsAt(ctx context.Context, tenant, venueID string, start time.Time, duration, buffer time.Duration, excludeGameID string) ([]domain.Game, error) {
	const op = "games.find_conflicts_at"
	defer r.pool.observe("games", op, time.Now())

	proposedEnd := start.Add(duration + buffer)
	bufferMin := int(buffer / time.Minute)

	rows, err := r.pool.Query(ctx, `
		SELECT `+gameCols+` FROM games
		WHERE organization_id = $1 AND venue_id = $2
		  AND status <> 'CANCELLED'
		  AND id <> COALESCE($5, '')
		  AND scheduled_start < $4
		  AND scheduled_start + make_interval(mins => duration_minutes + $6) > $3
		ORDER BY scheduled_start`,
		tenant, venueID, start, proposedEnd, excludeGameID, bufferMin)
	if err != nil {
		return nil, mapErr(op, err)
	}
	defer rows.Close()

	var out []domain.Game
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, mapErr(op, err)
		}
		out = append(out, *g)
	}
	return out, mapErr(op, rows.Err())
}

// BulkInsert inserts all rows in one transaction. A partially published
// schedule is forbidden.
func (r *gameRepo) BulkInsert(ctx context.Context, games []domain.Game) error {
	const op = "games.bulk_insert"
	defer r.pool.observe("games", op, time.Now())

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return mapErr(op, err)
	}
	defer tx.Rollback(ctx)

	if err := bulkInsertGames(ctx, tx, games); err != nil {
		return mapErr(op, err)
	}
	return mapErr(op, tx.Commit(ctx))
}

func bulkInsertGames(ctx context.Context, tx pgx.Tx, games []domain.Game) error {
	now := time.Now().UTC()
	batch := &pgx.Batch{}
	for i := range games {
		g := &games[i]
		g.CreatedAt, g.UpdatedAt = now, now
		batch.Queue(insertGameSQL, gameInsertArgs(g)...)
	}
	br := tx.SendBatch(ctx, batch)
	defer br.Close()
	for range games {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return br.Close()
}

func (r *gameRepo) ExistsForVenue(ctx context.Context, tenant, venueID string) (bool, error) {
	const op = "games.exists_for_venue"
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM games
			WHERE organization_id = $1 AND venue_id = $2 AND status <> 'CANCELLED'
		)`, tenant, venueID).Scan(&exists)
	if err != nil {
		return false, mapErr(op, err)
	}
	return exists, nil
}
