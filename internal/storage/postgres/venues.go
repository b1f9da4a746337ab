package postgres

import (
	"context"
	"time"

	"github.com/courtly/leaguecore/internal/domain"
)

type venueRepo struct {
	pool *Pool
}

const venueCols = `id, organization_id, name, type, address_line, city, state,
	postal_code, lat, lng, capacity, active, rental_rate, created_at, updated_at`

func scanVenue(row interface{ Scan(...any) error }) (*domain.Venue, error) {
	var v domain.Venue
	var vtype string
	var lat, lng *float64
	err := row.Scan(
		&v.ID, &v.OrganizationID, &v.Name, &vtype,
		&v.AddressLine, &v.City, &v.State, &v.PostalCode,
		&lat, &lng, &v.Capacity, &v.Active, &v.RentalRate,
		&v.CreatedAt, &v.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	v.Type = domain.VenueType(vtype)
	if lat != nil && lng != nil {
		v.Geo = &domain.GeoPoint{Lat: *lat, Lng: *lng}
	}
	return &v, nil
}

func venueGeoParams(v *domain.Venue) (lat, lng *float64) {
	if v.Geo != nil {
		lat, lng = &v.Geo.Lat, &v.Geo.Lng
	}
	return
}

func (r *venueRepo) List(ctx context.Context, tenant string) ([]domain.Venue, error) {
	return r.list(ctx, "venues.list",
		`SELECT `+venueCols+` FROM venues WHERE organization_id = $1 ORDER BY name`, tenant)
}

func (r *venueRepo) ListActive(ctx context.Context, tenant string) ([]domain.Venue, error) {
	return r.list(ctx, "venues.list_active",
		`SELECT `+venueCols+` FROM venues WHERE organization_id = $1 AND active ORDER BY name`, tenant)
}

func (r *venueRepo) list(ctx context.Context, op, sql string, args ...any) ([]domain.Venue, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, mapErr(op, err)
	}
	defer rows.Close()

	var out []domain.Venue
	for rows.Next() {
		v, err := scanVenue(rows)
		if err != nil {
			return nil, mapErr(op, err)
		}
		out = append(out, *v)
	}
	return out, mapErr(op, rows.Err())
}

func (r *venueRepo) Get(ctx context.Context, tenant, id string) (*domain.Venue, error) {
	const op = "venues.get"
	v, err := scanVenue(r.pool.QueryRow(ctx,
		`SELECT `+venueCols+` FROM venues WHERE organization_id = $1 AND id = $2`, tenant, id))
	if err != nil {
		return nil, mapErr(op, err)
	}
	return v, nil
}

func (r *venueRepo) Create(ctx context.Context, v *domain.Venue) error {
	const op = "venues.create"
	now := time.Now().UTC()
	v.CreatedAt, v.UpdatedAt = now, now
	lat, lng := venueGeoParams(v)
	_, err := r.pool.Exec(ctx, `
		INSERT INTO venues (`+venueCols+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)`,
		v.ID, v.OrganizationID, v.Name, string(v.Type),
		v.AddressLine, v.City, v.State, v.PostalCode,
		lat, lng, v.Capacity, v.Active, v.RentalRate, v.CreatedAt, v.UpdatedAt)
	return mapErr(op, err)
}

func (r *venueRepo) Update(ctx context.Context, v *domain.Venue) error {
	const op = "venues.update"
	v.UpdatedAt = time.Now().UTC()
	lat, lng := venueGeoParams(v)
	tag, err := r.pool.Exec(ctx, `
		UPDATE venues SET
			name = $3, type = $4, address_line = $5, city = $6, state = $7,
			postal_code = $8, lat = $9, lng = $10, capacity = $11, active = $12,
			rental_rate = $13, updated_at = $14
		WHERE organization_id = $1 AND id = $2`,
		v.OrganizationID, v.ID, v.Name, string(v.Type),
		v.AddressLine, v.City, v.State, v.PostalCode,
		lat, lng, v.Capacity, v.Active, v.RentalRate, v.UpdatedAt)
	if err != nil {
		return mapErr(op, err)
	}
	if tag.RowsAffected() == 0 {
		return notFound(op, "venue", v.ID)
	}
	return nil
}

func (r *venueRepo) Delete(ctx context.Context, tenant, id string) error {
	const op = "venues.delete"
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM venues WHERE organization_id = $1 AND id = $2`, tenant, id)
	if err != nil {
		return mapErr(op, err)
	}
	if tag.RowsAffected() == 0 {
		return notFound(op, "venue", id)
	}
	return nil
}

// --------------------------------------------------------------------------
// Venue availability
// --------------------------------------------------------------------------

type venueAvailabilityRepo struct {
	pool *Pool
}

func (r *venueAvailabilityRepo) ListByVenue(ctx context.Context, venueID string) ([]domain.VenueAvailability, error) {
	const op = "venue_availability.list"
	rows, err := r.pool.Query(ctx, `
		SELECT id, venue_id, day_of_week, start_time, end_time, kind, priority,
		       effective_date, expiry_date
		FROM venue_availability
		WHERE venue_id = $1
		ORDER BY day_of_week, priority DESC, start_time`, venueID)
	if err != nil {
		return nil, mapErr(op, err)
	}
	defer rows.Close()

	var out []domain.VenueAvailability
	for rows.Next() {
		var a domain.VenueAvailability
		var day, kind string
		if err := rows.Scan(&a.ID, &a.VenueID, &day, &a.StartTime, &a.EndTime,
			&kind, &a.Priority, &a.EffectiveDate, &a.ExpiryDate); err != nil {
			return nil, mapErr(op, err)
		}
		a.DayOfWeek = domain.Weekday(day)
		a.Kind = domain.AvailabilityKind(kind)
		out = append(out, a)
	}
	return out, mapErr(op, rows.Err())
}

// Set replaces a venue's availability rules atomically.
func (r *venueAvailabilityRepo) Set(ctx context.Context, venueID string, rules []domain.VenueAvailability) error {
	const op = "venue_availability.set"
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return mapErr(op, err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM venue_availability WHERE venue_id = $1`, venueID); err != nil {
		return mapErr(op, err)
	}
	for _, a := range rules {
		if _, err := tx.Exec(ctx, `
			INSERT INTO venue_availability
				(id, venue_id, day_of_week, start_time, end_time, kind, priority, effective_date, expiry_date)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
			a.ID, venueID, string(a.DayOfWeek), a.StartTime, a.EndTime,
			string(a.Kind), a.Priority, a.EffectiveDate, a.ExpiryDate); err != nil {
			return mapErr(op, err)
		}
	}
	return mapErr(op, tx.Commit(ctx))
}
