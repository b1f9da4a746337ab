package postgres

import (
	"context"
	"time"

	"github.com/courtly/leaguecore/internal/domain"
)

type divisionRepo struct {
	pool *Pool
}

const divisionCols = `id, organization_id, league_id, name, code, min_age, max_age,
	skill_level, gender, max_teams, max_players_per_team, created_at, updated_at`

func scanDivision(row interface{ Scan(...any) error }) (*domain.Division, error) {
	var d domain.Division
	var skill string
	err := row.Scan(
		&d.ID, &d.OrganizationID, &d.LeagueID, &d.Name, &d.Code,
		&d.MinAge, &d.MaxAge, &skill, &d.Gender,
		&d.MaxTeams, &d.MaxPlayersPerTeam, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	d.SkillLevel = domain.SkillLevel(skill)
	return &d, nil
}

func (r *divisionRepo) List(ctx context.Context, tenant string) ([]domain.Division, error) {
	const op = "divisions.list"
	rows, err := r.pool.Query(ctx,
		`SELECT `+divisionCols+` FROM divisions WHERE organization_id = $1 ORDER BY name`, tenant)
	if err != nil {
		return nil, mapErr(op, err)
	}
	defer rows.Close()

	var out []domain.Division
	for rows.Next() {
		d, err := scanDivision(rows)
		if err != nil {
			return nil, mapErr(op, err)
		}
		out = append(out, *d)
	}
	return out, mapErr(op, rows.Err())
}

func (r *divisionRepo) Get(ctx context.Context, tenant, id string) (*domain.Division, error) {
	const op = "divisions.get"
	d, err := scanDivision(r.pool.QueryRow(ctx,
		`SELECT `+divisionCols+` FROM divisions WHERE organization_id = $1 AND id = $2`, tenant, id))
	if err != nil {
		return nil, mapErr(op, err)
	}
	return d, nil
}

func (r *divisionRepo) Create(ctx context.Context, d *domain.Division) error {
	const op = "divisions.create"
	now := time.Now().UTC()
	d.CreatedAt, d.UpdatedAt = now, now
	_, err := r.pool.Exec(ctx, `
		INSERT INTO divisions (`+divisionCols+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`,
		d.ID, d.OrganizationID, d.LeagueID, d.Name, d.Code,
		d.MinAge, d.MaxAge, string(d.SkillLevel), d.Gender,
		d.MaxTeams, d.MaxPlayersPerTeam, d.CreatedAt, d.UpdatedAt)
	return mapErr(op, err)
}

func (r *divisionRepo) Update(ctx context.Context, d *domain.Division) error {
	const op = "divisions.update"
	d.UpdatedAt = time.Now().UTC()
	tag, err := r.pool.Exec(ctx, `
		UPDATE divisions SET
			name = $3, code = $4, min_age = $5, max_age = $6, skill_level = $7,
			gender = $8, max_teams = $9, max_players_per_team = $10, updated_at = $11
		WHERE organization_id = $1 AND id = $2`,
		d.OrganizationID, d.ID, d.Name, d.Code, d.MinAge, d.MaxAge,
		string(d.SkillLevel), d.Gender, d.MaxTeams, d.MaxPlayersPerTeam, d.UpdatedAt)
	if err != nil {
		return mapErr(op, err)
	}
	if tag.RowsAffected() == 0 {
		return notFound(op, "division", d.ID)
	}
	return nil
}

func (r *divisionRepo) Delete(ctx context.Context, tenant, id string) error {
	const op = "divisions.delete"
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM divisions WHERE organization_id = $1 AND id = $2`, tenant, id)
	if err != nil {
		return mapErr(op, err)
	}
	if tag.RowsAffected() == 0 {
		return notFound(op, "division", id)
	}
	return nil
}
