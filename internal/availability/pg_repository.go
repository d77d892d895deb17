package availability

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

func scanAvailability(row pgx.Row) (*Availability, error) {
	var a Availability
	err := row.Scan(
		&a.ID,
		&a.DoctorID,
		&a.DayOfWeek,
		&a.StartMinute,
		&a.EndMinute,
		&a.IsActive,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *PgRepository) ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]Availability, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, doctor_id, day_of_week, start_minute, end_minute, is_active, created_at, updated_at
		FROM availability
		WHERE doctor_id = $1
		ORDER BY day_of_week
	`, doctorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectAvailability(rows)
}

func (r *PgRepository) ListActive(ctx context.Context) ([]Availability, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, doctor_id, day_of_week, start_minute, end_minute, is_active, created_at, updated_at
		FROM availability
		WHERE is_active
		ORDER BY doctor_id, day_of_week
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectAvailability(rows)
}

func (r *PgRepository) Upsert(ctx context.Context, doctorID uuid.UUID, dayOfWeek int, w Window) (*Availability, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO availability (id, doctor_id, day_of_week, start_minute, end_minute, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now(), now())
		ON CONFLICT (doctor_id, day_of_week) DO UPDATE
		SET start_minute = EXCLUDED.start_minute,
		    end_minute   = EXCLUDED.end_minute,
		    is_active    = EXCLUDED.is_active,
		    updated_at   = now()
		RETURNING id, doctor_id, day_of_week, start_minute, end_minute, is_active, created_at, updated_at
	`, uuid.New(), doctorID, dayOfWeek, w.StartMinute, w.EndMinute, w.IsActive)

	return scanAvailability(row)
}

func collectAvailability(rows pgx.Rows) ([]Availability, error) {
	var result []Availability
	for rows.Next() {
		a, err := scanAvailability(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
