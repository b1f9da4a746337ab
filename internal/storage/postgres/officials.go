package postgres

import (
	"context"
	"time"

	"github.com/courtly/leaguecore/internal/domain"
)

type officialRepo struct {
	pool *Pool
}

const officialCols = `id, organization_id, name, email, phone, certification,
	specialties, max_games_per_day, max_games_per_week, travel_radius_km,
	hourly_rate, lat, lng, active, created_at, updated_at`

func scanOfficial(row interface{ Scan(...any) error }) (*domain.Official, error) {
	var o domain.Official
	var cert string
	var specialties []string
	var lat, lng *float64
	err := row.Scan(
		&o.ID, &o.OrganizationID, &o.Name, &o.Email, &o.Phone, &cert,
		&specialties, &o.MaxGamesPerDay, &o.MaxGamesPerWeek, &o.TravelRadiusKm,
		&o.HourlyRate, &lat, &lng, &o.Active, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	o.Certification = domain.CertificationLevel(cert)
	for _, s := range specialties {
		o.Specialties = append(o.Specialties, domain.OfficialRole(s))
	}
	if lat != nil && lng != nil {
		o.Geo = &domain.GeoPoint{Lat: *lat, Lng: *lng}
	}
	return &o, nil
}

func specialtyStrings(o *domain.Official) []string {
	out := make([]string, len(o.Specialties))
	for i, s := range o.Specialties {
		out[i] = string(s)
	}
	return out
}

func (r *officialRepo) List(ctx context.Context, tenant string) ([]domain.Official, error) {
	return r.list(ctx, "officials.list",
		`SELECT `+officialCols+` FROM officials WHERE organization_id = $1 ORDER BY name`, tenant)
}

func (r *officialRepo) ListActive(ctx context.Context, tenant string) ([]domain.Official, error) {
	return r.list(ctx, "officials.list_active",
		`SELECT `+officialCols+` FROM officials WHERE organization_id = $1 AND active ORDER BY name`, tenant)
}

func (r *officialRepo) list(ctx context.Context, op, sql string, args ...any) ([]domain.Official, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, mapErr(op, err)
	}
	defer rows.Close()

	var out []domain.Official
	for rows.Next() {
		o, err := scanOfficial(rows)
		if err != nil {
			return nil, mapErr(op, err)
		}
		out = append(out, *o)
	}
	return out, mapErr(op, rows.Err())
}

func (r *officialRepo) Get(ctx context.Context, tenant, id string) (*domain.Official, error) {
	const op = "officials.get"
	o, err := scanOfficial(r.pool.QueryRow(ctx,
		`SELECT `+officialCols+` FROM officials WHERE organization_id = $1 AND id = $2`, tenant, id))
	if err != nil {
		return nil, mapErr(op, err)
	}
	return o, nil
}

func (r *officialRepo) Create(ctx context.Context, o *domain.Official) error {
	const op = "officials.create"
	now := time.Now().UTC()
	o.CreatedAt, o.UpdatedAt = now, now
	var lat, lng *float64
	if o.Geo != nil {
		lat, lng = &o.Geo.Lat, &o.Geo.Lng
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO officials (`+officialCols+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)`,
		o.ID, o.OrganizationID, o.Name, o.Email, o.Phone, string(o.Certification),
		specialtyStrings(o), o.MaxGamesPerDay, o.MaxGamesPerWeek, o.TravelRadiusKm,
		o.HourlyRate, lat, lng, o.Active, o.CreatedAt, o.UpdatedAt)
	return mapErr(op, err)
}

func (r *officialRepo) Update(ctx context.Context, o *domain.Official) error {
	const op = "officials.update"
	o.UpdatedAt = time.Now().UTC()
	var lat, lng *float64
	if o.Geo != nil {
		lat, lng = &o.Geo.Lat, &o.Geo.Lng
	}
	tag, err := r.pool.Exec(ctx, `
		UPDATE officials SET
			name = $3, email = $4, phone = $5, certification = $6, specialties = $7,
			max_games_per_day = $8, max_games_per_week = $9, travel_radius_km = $10,
			hourly_rate = $11, lat = $12, lng = $13, active = $14, updated_at = $15
		WHERE organization_id = $1 AND id = $2`,
		o.OrganizationID, o.ID, o.Name, o.Email, o.Phone, string(o.Certification),
		specialtyStrings(o), o.MaxGamesPerDay, o.MaxGamesPerWeek, o.TravelRadiusKm,
		o.HourlyRate, lat, lng, o.Active, o.UpdatedAt)
	if err != nil {
		return mapErr(op, err)
	}
	if tag.RowsAffected() == 0 {
		return notFound(op, "official", o.ID)
	}
	return nil
}

func (r *officialRepo) Delete(ctx context.Context, tenant, id string) error {
	const op = "officials.delete"
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM officials WHERE organization_id = $1 AND id = $2`, tenant, id)
	if err != nil {
		return mapErr(op, err)
	}
	if tag.RowsAffected() == 0 {
		return notFound(op, "official", id)
	}
	return nil
}

// --------------------------------------------------------------------------
// Official availability
// --------------------------------------------------------------------------

type officialAvailabilityRepo struct {
	pool *Pool
}

func (r *officialAvailabilityRepo) ListByOfficial(ctx context.Context, officialID string) ([]domain.OfficialAvailability, error) {
	const op = "official_availability.list"
	rows, err := r.pool.Query(ctx, `
		SELECT id, official_id, day_of_week, start_time, end_time, kind, recurring, specific_date
		FROM official_availability
		WHERE official_id = $1
		ORDER BY day_of_week, start_time`, officialID)
	if err != nil {
		return nil, mapErr(op, err)
	}
	defer rows.Close()

	var out []domain.OfficialAvailability
	for rows.Next() {
		var a domain.OfficialAvailability
		var day, kind string
		if err := rows.Scan(&a.ID, &a.OfficialID, &day, &a.StartTime, &a.EndTime,
			&kind, &a.Recurring, &a.SpecificDate); err != nil {
			return nil, mapErr(op, err)
		}
		a.DayOfWeek = domain.Weekday(day)
		a.Kind = domain.OfficialAvailabilityKind(kind)
		out = append(out, a)
	}
	return out, mapErr(op, rows.Err())
}

func (r *officialAvailabilityRepo) Set(ctx context.Context, officialID string, windows []domain.OfficialAvailability) error {
	const op = "official_availability.set"
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return mapErr(op, err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM official_availability WHERE official_id = $1`, officialID); err != nil {
		return mapErr(op, err)
	}
	for _, a := range windows {
		if _, err := tx.Exec(ctx, `
			INSERT INTO official_availability
				(id, official_id, day_of_week, start_time, end_time, kind, recurring, specific_date)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
			a.ID, officialID, string(a.DayOfWeek), a.StartTime, a.EndTime,
			string(a.Kind), a.Recurring, a.SpecificDate); err != nil {
			return mapErr(op, err)
		}
	}
	return mapErr(op, tx.Commit(ctx))
}
