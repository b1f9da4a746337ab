package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/courtly/leaguecore/internal/domain"
	"github.com/courtly/leaguecore/internal/storage"
)

type publishTx struct {
	pool *Pool
}

// PublishSchedule inserts all games and flips the season to ACTIVE in one
// transaction. Either everything lands or nothing does.
func (p *publishTx) PublishSchedule(ctx context.Context, tenant, seasonID string, games []domain.Game) error {
	const op = "publish.schedule"
	defer p.pool.observe("games", op, time.Now())

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return mapErr(op, err)
	}
	defer tx.Rollback(ctx)

	var status string
	err = tx.QueryRow(ctx,
		`SELECT status FROM seasons WHERE organization_id = $1 AND id = $2 FOR UPDATE`,
		tenant, seasonID).Scan(&status)
	if err != nil {
		return mapErr(op, err)
	}
	current := domain.SeasonStatus(status)
	if current != domain.SeasonActive && !current.CanTransition(domain.SeasonActive) {
		return storage.NewError(storage.KindInvariant, op,
			fmt.Errorf("season %s cannot move from %s to ACTIVE", seasonID, current))
	}

	if err := bulkInsertGames(ctx, tx, games); err != nil {
		return mapErr(op, err)
	}

	if _, err := tx.Exec(ctx, `
		UPDATE seasons SET status = 'ACTIVE', updated_at = NOW()
		WHERE organization_id = $1 AND id = $2`, tenant, seasonID); err != nil {
		return mapErr(op, err)
	}

	return mapErr(op, tx.Commit(ctx))
}

// RescheduleGame updates the game row with the venue-overlap guard in the
// same transaction. The venue row lock serializes concurrent moves into the
// venue; the overlap re-check under that lock catches a window another move
// committed after the caller's advisory check.
func (p *publishTx) RescheduleGame(ctx context.Context, g *domain.Game, bufferMinutes int) error {
	const op = "publish.reschedule"
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return mapErr(op, err)
	}
	defer tx.Rollback(ctx)

	var cur string
	err = tx.QueryRow(ctx,
		`SELECT status FROM games WHERE organization_id = $1 AND id = $2 FOR UPDATE`,
		g.OrganizationID, g.ID).Scan(&cur)
	if err != nil {
		return mapErr(op, err)
	}
	if domain.GameStatus(cur).Terminal() {
		return storage.NewError(storage.KindInvariant, op,
			fmt.Errorf("game %s is %s and cannot be rescheduled", g.ID, cur))
	}

	if _, err := tx.Exec(ctx,
		`SELECT 1 FROM venues WHERE organization_id = $1 AND id = $2 FOR UPDATE`,
		g.OrganizationID, g.VenueID); err != nil {
		return mapErr(op, err)
	}

	end := g.ScheduledStart.Add(time.Duration(g.DurationMinutes+bufferMinutes) * time.Minute)
	var clash int
	err = tx.QueryRow(ctx, `
		SELECT COUNT(*) FROM games
		WHERE organization_id = $1 AND venue_id = $2 AND id <> $3
		  AND status NOT IN ('CANCELLED')
		  AND scheduled_start < $4
		  AND $5 < scheduled_start + (duration_minutes + $6) * interval '1 minute'`,
		g.OrganizationID, g.VenueID, g.ID, end, g.ScheduledStart, bufferMinutes).Scan(&clash)
	if err != nil {
		return mapErr(op, err)
	}
	if clash > 0 {
		return storage.NewError(storage.KindConflict, op,
			fmt.Errorf("venue %s already hosts a game overlapping %s",
				g.VenueID, g.ScheduledStart.Format(time.RFC3339)))
	}

	g.UpdatedAt = time.Now().UTC()
	if _, err := tx.Exec(ctx, `
		UPDATE games SET
			venue_id = $3, scheduled_start = $4, status = $5, notes = $6, updated_at = $7
		WHERE organization_id = $1 AND id = $2`,
		g.OrganizationID, g.ID, g.VenueID, g.ScheduledStart,
		string(g.Status), nullable(g.Notes), g.UpdatedAt); err != nil {
		return mapErr(op, err)
	}
	return mapErr(op, tx.Commit(ctx))
}
