package appointment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

// Helpers

const appointmentColumns = `id, doctor_id, patient_id, patient_name, patient_email, patient_phone,
	service, scheduled_at, status, payment_status, payment_amount_cents, payment_updated_at,
	treatment_status, created_by, notes, created_at, updated_at`

func scanDoctor(row pgx.Row) (*Doctor, error) {
	var d Doctor
	var specialty *string

	err := row.Scan(
		&d.ID,
		&d.Name,
		&d.Email,
		&specialty,
		&d.CreatedAt,
		&d.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDoctorNotFound
		}
		return nil, err
	}

	d.Specialty = specialty
	return &d, nil
}

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	var email, phone *string

	err := row.Scan(
		&p.ID,
		&p.Name,
		&email,
		&phone,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPatientNotFound
		}
		return nil, err
	}

	p.Email = email
	p.Phone = phone
	return &p, nil
}

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment

	err := row.Scan(
		&a.ID,
		&a.DoctorID,
		&a.PatientID,
		&a.PatientName,
		&a.PatientEmail,
		&a.PatientPhone,
		&a.Service,
		&a.ScheduledAt,
		&a.Status,
		&a.PaymentStatus,
		&a.PaymentAmountCents,
		&a.PaymentUpdatedAt,
		&a.TreatmentStatus,
		&a.CreatedBy,
		&a.Notes,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}

	return &a, nil
}

func scanDetail(row pgx.Row) (*Detail, error) {
	var d Detail
	var (
		pID            *uuid.UUID
		pName          *string
		pEmail, pPhone *string
		dID            *uuid.UUID
		dName, dEmail  *string
		dSpecialty     *string
	)

	err := row.Scan(
		&d.ID,
		&d.DoctorID,
		&d.PatientID,
		&d.PatientName,
		&d.PatientEmail,
		&d.PatientPhone,
		&d.Service,
		&d.ScheduledAt,
		&d.Status,
		&d.PaymentStatus,
		&d.PaymentAmountCents,
		&d.PaymentUpdatedAt,
		&d.TreatmentStatus,
		&d.CreatedBy,
		&d.Notes,
		&d.CreatedAt,
		&d.UpdatedAt,
		&pID,
		&pName,
		&pEmail,
		&pPhone,
		&dID,
		&dName,
		&dEmail,
		&dSpecialty,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}

	if pID != nil {
		d.Patient = &Patient{ID: *pID, Name: derefStr(pName), Email: pEmail, Phone: pPhone}
	}
	if dID != nil {
		d.Doctor = &Doctor{ID: *dID, Name: derefStr(dName), Email: derefStr(dEmail), Specialty: dSpecialty}
	}

	return &d, nil
}

func derefStr(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

const detailQuery = `
	SELECT a.id, a.doctor_id, a.patient_id, a.patient_name, a.patient_email, a.patient_phone,
	       a.service, a.scheduled_at, a.status, a.payment_status, a.payment_amount_cents, a.payment_updated_at,
	       a.treatment_status, a.created_by, a.notes, a.created_at, a.updated_at,
	       p.id, p.name, p.email, p.phone,
	       d.id, d.name, d.email, d.specialty
	FROM appointments a
	LEFT JOIN patients p ON p.id = a.patient_id
	LEFT JOIN doctors d ON d.id = a.doctor_id
`

// Interface methods

func (r *PgRepository) GetDoctorByID(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, email, specialty, created_at, updated_at
		FROM doctors
		WHERE id = $1
	`, id)
	return scanDoctor(row)
}

func (r *PgRepository) ListDoctors(ctx context.Context) ([]Doctor, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, email, specialty, created_at, updated_at
		FROM doctors
		ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Doctor
	for rows.Next() {
		d, err := scanDoctor(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PgRepository) GetPatientByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, email, phone, created_at, updated_at
		FROM patients
		WHERE id = $1
	`, id)
	return scanPatient(row)
}

func (r *PgRepository) FindPatientByEmail(ctx context.Context, email string) (*Patient, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, email, phone, created_at, updated_at
		FROM patients
		WHERE lower(email) = lower($1)
	`, email)
	return scanPatient(row)
}

func (r *PgRepository) GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE id = $1
	`, id)
	return scanAppointment(row)
}

func (r *PgRepository) GetDetailByID(ctx context.Context, id uuid.UUID) (*Detail, error) {
	row := r.pool.QueryRow(ctx, detailQuery+` WHERE a.id = $1`, id)
	return scanDetail(row)
}

func (r *PgRepository) List(ctx context.Context, f Filter) ([]Detail, error) {
	var (
		conds []string
		args  []any
	)

	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if f.DoctorID != nil {
		add("a.doctor_id = $%d", *f.DoctorID)
	}
	if f.PatientID != nil {
		add("a.patient_id = $%d", *f.PatientID)
	}
	if f.From != nil {
		add("a.scheduled_at >= $%d", *f.From)
	}
	if f.To != nil {
		add("a.scheduled_at < $%d", *f.To)
	}
	if f.Status != nil {
		add("a.status = $%d", *f.Status)
	}
	if f.ExcludeCancelled {
		conds = append(conds, "a.status <> 'CANCELLED'")
	}

	q := detailQuery
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY a.scheduled_at"

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Detail
	for rows.Next() {
		d, err := scanDetail(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PgRepository) GetActiveByDoctorSlot(ctx context.Context, doctorID uuid.UUID, at time.Time) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE doctor_id = $1 AND scheduled_at = $2 AND status <> 'CANCELLED'
	`, doctorID, at)
	return scanAppointment(row)
}

// CreateConfirmed pairs the conflict check with the insert in one statement:
// the partial unique index on (doctor_id, scheduled_at) arbitrates concurrent
// inserts, so exactly one of two racing requests gets a row back.
func (r *PgRepository) CreateConfirmed(ctx context.Context, a *Appointment) (*Appointment, error) {
	id := uuid.New()

	var row pgx.Row
	if a.DoctorID != nil {
		row = r.pool.QueryRow(ctx, `
			INSERT INTO appointments (id, doctor_id, patient_id, patient_name, patient_email, patient_phone,
				service, scheduled_at, status, payment_status, payment_amount_cents, treatment_status,
				created_by, notes, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 'CONFIRMED', 'PENDING', NULL, 'PENDING', $9, $10, now(), now())
			ON CONFLICT (doctor_id, scheduled_at) WHERE status <> 'CANCELLED' AND doctor_id IS NOT NULL
			DO NOTHING
			RETURNING `+appointmentColumns+`
		`, id, a.DoctorID, a.PatientID, a.PatientName, a.PatientEmail, a.PatientPhone,
			a.Service, a.ScheduledAt, a.CreatedBy, a.Notes)
	} else {
		row = r.pool.QueryRow(ctx, `
			INSERT INTO appointments (id, doctor_id, patient_id, patient_name, patient_email, patient_phone,
				service, scheduled_at, status, payment_status, payment_amount_cents, treatment_status,
				created_by, notes, created_at, updated_at)
			VALUES ($1, NULL, $2, $3, $4, $5, $6, $7, 'CONFIRMED', 'PENDING', NULL, 'PENDING', $8, $9, now(), now())
			RETURNING `+appointmentColumns+`
		`, id, a.PatientID, a.PatientName, a.PatientEmail, a.PatientPhone,
			a.Service, a.ScheduledAt, a.CreatedBy, a.Notes)
	}

	created, err := scanAppointment(row)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			// ON CONFLICT DO NOTHING returned no row: the slot is held.
			return nil, ErrSlotTaken
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, ErrSlotTaken
		}
		return nil, err
	}

	return created, nil
}

func (r *PgRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE appointments
		SET status = $2,
		    updated_at = now()
		WHERE id = $1
		  AND status = $3
		RETURNING `+appointmentColumns+`
	`, id, to, from)

	return scanAppointment(row)
}

func (r *PgRepository) UpdatePayment(ctx context.Context, id uuid.UUID, from, to PaymentStatus, amountCents *int64) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE appointments
		SET payment_status = $2,
		    payment_amount_cents = COALESCE($3, payment_amount_cents),
		    payment_updated_at = now(),
		    updated_at = now()
		WHERE id = $1
		  AND payment_status = $4
		RETURNING `+appointmentColumns+`
	`, id, to, amountCents, from)

	return scanAppointment(row)
}

func (r *PgRepository) UpdateTreatment(ctx context.Context, id uuid.UUID, from, to TreatmentStatus) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE appointments
		SET treatment_status = $2,
		    updated_at = now()
		WHERE id = $1
		  AND treatment_status = $3
		RETURNING `+appointmentColumns+`
	`, id, to, from)

	return scanAppointment(row)
}

func (r *PgRepository) FindPastConfirmed(ctx context.Context, before time.Time) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE status = 'CONFIRMED'
		  AND scheduled_at < $1
	`, before)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
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

func (r *PgRepository) HasActiveAppointment(ctx context.Context, patientID uuid.UUID, after time.Time) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM appointments
			WHERE patient_id = $1
			  AND status NOT IN ('CANCELLED', 'COMPLETED')
			  AND scheduled_at >= $2
		)
	`, patientID, after).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

func (r *PgRepository) InsertEvent(ctx context.Context, ev EventLog) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO event_logs (event_type, appointment_id, payload, created_at)
		VALUES ($1, $2, $3, COALESCE($4, now()))
	`, ev.EventType, ev.AppointmentID, ev.Payload, nullableTime(ev.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert event log: %w", err)
	}

	return nil
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
