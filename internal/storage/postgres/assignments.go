package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/courtly/leaguecore/internal/domain"
	"github.com/courtly/leaguecore/internal/storage"
)

type assignmentRepo struct {
	pool *Pool
}

const assignmentCols = `a.id, a.game_id, a.official_id, a.official_name, a.role,
	a.status, a.assigned_at, a.confirmed_at, a.pay_rate, a.estimated_pay, a.actual_pay`

func scanAssignment(row interface{ Scan(...any) error }) (*domain.Assignment, error) {
	var a domain.Assignment
	var role, status string
	err := row.Scan(
		&a.ID, &a.GameID, &a.OfficialID, &a.OfficialName, &role,
		&status, &a.AssignedAt, &a.ConfirmedAt, &a.PayRate, &a.EstimatedPay, &a.ActualPay,
	)
	if err != nil {
		return nil, err
	}
	a.Role = domain.OfficialRole(role)
	a.Status = domain.AssignmentStatus(status)
	return &a, nil
}

// List joins through games so every query stays tenant-scoped.
func (r *assignmentRepo) List(ctx context.Context, tenant string, f storage.AssignmentFilter) ([]domain.Assignment, error) {
	const op = "assignments.list"
	defer r.pool.observe("assignments", op, time.Now())

	sql := `SELECT ` + assignmentCols + `
		FROM assignments a
		JOIN games g ON g.id = a.game_id
		WHERE g.organization_id = $1`
	args := []any{tenant}
	add := func(clause string, v any) {
		args = append(args, v)
		sql += fmt.Sprintf(" AND %s $%d", clause, len(args))
	}
	if f.GameID != "" {
		add("a.game_id =", f.GameID)
	}
	if f.OfficialID != "" {
		add("a.official_id =", f.OfficialID)
	}
	if f.Status != "" {
		add("a.status =", string(f.Status))
	}
	if !f.DateFrom.IsZero() {
		add("g.scheduled_start >=", f.DateFrom)
	}
	if !f.DateTo.IsZero() {
		add("g.scheduled_start <", f.DateTo)
	}
	sql += " ORDER BY g.scheduled_start, a.role"

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, mapErr(op, err)
	}
	defer rows.Close()

	var out []domain.Assignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, mapErr(op, err)
		}
		out = append(out, *a)
	}
	return out, mapErr(op, rows.Err())
}

func (r *assignmentRepo) Get(ctx context.Context, tenant, id string) (*domain.Assignment, error) {
	const op = "assignments.get"
	a, err := scanAssignment(r.pool.QueryRow(ctx, `
		SELECT `+assignmentCols+`
		FROM assignments a
		JOIN games g ON g.id = a.game_id
		WHERE g.organization_id = $1 AND a.id = $2`, tenant, id))
	if err != nil {
		return nil, mapErr(op, err)
	}
	return a, nil
}

const insertAssignmentSQL = `
	INSERT INTO assignments
		(id, game_id, official_id, official_name, role, status, assigned_at,
		 confirmed_at, pay_rate, estimated_pay, actual_pay)
	VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`

func (r *assignmentRepo) Create(ctx context.Context, a *domain.Assignment) error {
	const op = "assignments.create"
	_, err := r.pool.Exec(ctx, insertAssignmentSQL,
		a.ID, a.GameID, a.OfficialID, a.OfficialName, string(a.Role),
		string(a.Status), a.AssignedAt, a.ConfirmedAt,
		a.PayRate, a.EstimatedPay, a.ActualPay)
	return mapErr(op, err)
}

func (r *assignmentRepo) BulkInsert(ctx context.Context, tenant string, as []domain.Assignment) error {
	const op = "assignments.bulk_insert"
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return mapErr(op, err)
	}
	defer tx.Rollback(ctx)

	for _, a := range as {
		if _, err := tx.Exec(ctx, insertAssignmentSQL,
			a.ID, a.GameID, a.OfficialID, a.OfficialName, string(a.Role),
			string(a.Status), a.AssignedAt, a.ConfirmedAt,
			a.PayRate, a.EstimatedPay, a.ActualPay); err != nil {
			return mapErr(op, err)
		}
	}
	return mapErr(op, tx.Commit(ctx))
}

func (r *assignmentRepo) UpdateStatus(ctx context.Context, tenant, id string, status domain.AssignmentStatus, confirmedAt *time.Time) error {
	const op = "assignments.update_status"
	tag, err := r.pool.Exec(ctx, `
		UPDATE assignments a SET status = $3, confirmed_at = COALESCE($4, a.confirmed_at)
		FROM games g
		WHERE a.id = $2 AND g.id = a.game_id AND g.organization_id = $1`,
		tenant, id, string(status), confirmedAt)
	if err != nil {
		return mapErr(op, err)
	}
	if tag.RowsAffected() == 0 {
		return notFound(op, "assignment", id)
	}
	return nil
}

func (r *assignmentRepo) Delete(ctx context.Context, tenant, id string) error {
	const op = "assignments.delete"
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM assignments a
		USING games g
		WHERE a.id = $2 AND g.id = a.game_id AND g.organization_id = $1`,
		tenant, id)
	if err != nil {
		return mapErr(op, err)
	}
	if tag.RowsAffected() == 0 {
		return notFound(op, "assignment", id)
	}
	return nil
}
