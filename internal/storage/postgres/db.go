// Package postgres implements the storage port on pgxpool.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/courtly/leaguecore/internal/config"
	"github.com/courtly/leaguecore/internal/storage"
)

// Pool wraps pgxpool.Pool with application-specific helpers.
type Pool struct {
	*pgxpool.Pool
	logger *slog.Logger
}

// New creates and validates a new connection pool.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	poolCfg.MinConns = int32(cfg.DBPoolMinConns)
	poolCfg.MaxConns = int32(cfg.DBPoolMaxConns)
	poolCfg.MaxConnLifetime = cfg.DBPoolMaxLife
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	// Verify connectivity
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Pool{Pool: pool, logger: logger}, nil
}

// HealthCheck runs a trivial query to verify the database is reachable.
func (p *Pool) HealthCheck(ctx context.Context) error {
	var n int
	return p.QueryRow(ctx, "SELECT 1").Scan(&n)
}

// observe logs schedule-projection queries that exceed the slow threshold,
// labeled by table and operation.
func (p *Pool) observe(table, op string, start time.Time) {
	elapsed := time.Since(start)
	if elapsed > config.SlowQueryThreshold {
		p.logger.Warn("slow query", "table", table, "op", op, "elapsed_ms", elapsed.Milliseconds())
	}
}

func notFound(op, entity, id string) error {
	return storage.NotFound(op, entity, id)
}

// --------------------------------------------------------------------------
// Error mapping: pgconn SQLSTATE codes to the storage taxonomy
// --------------------------------------------------------------------------

func mapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return storage.NewError(storage.KindNotFound, op, err)
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return storage.NewError(storage.KindTransient, op, err)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return storage.NewError(storage.KindConflict, op, err)
		case "23514", "23503", "23502": // check, foreign key, not null
			return storage.NewError(storage.KindInvariant, op, err)
		}
		// Class 08 = connection exceptions, 57 = operator intervention
		if len(pgErr.Code) >= 2 {
			switch pgErr.Code[:2] {
			case "08", "57":
				return storage.NewError(storage.KindTransient, op, err)
			}
		}
	}
	if pgconn.Timeout(err) {
		return storage.NewError(storage.KindTransient, op, err)
	}
	return storage.NewError(storage.KindFatal, op, err)
}
