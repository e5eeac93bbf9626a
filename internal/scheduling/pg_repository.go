package scheduling

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hackgods/clinic-backend/internal/db"
)

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

func (r *PgRepository) q(ctx context.Context) db.Querier {
	return db.QuerierFrom(ctx, r.pool)
}

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	var triage *int

	err := row.Scan(
		&a.ID,
		&a.PatientID,
		&a.PractitionerID,
		&a.ScheduledAt,
		&a.Status,
		&a.ServiceType,
		&a.Reason,
		&triage,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}

	a.TriageLevel = triage
	return &a, nil
}

const appointmentColumns = `id, patient_id, practitioner_id, scheduled_at, status, service_type, reason, triage_level, created_at, updated_at`

func (r *PgRepository) GetAppointment(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row := r.q(ctx).QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE id = $1
	`, id)
	return scanAppointment(row)
}

func (r *PgRepository) InsertAppointment(ctx context.Context, a Appointment) (*Appointment, error) {
	id := uuid.New()

	row := r.q(ctx).QueryRow(ctx, `
		INSERT INTO appointments (id, patient_id, practitioner_id, scheduled_at, status, service_type, reason, triage_level, created_at, updated_at)
		VALUES ($1, $2, $3, $4, 'scheduled', $5, $6, $7, now(), now())
		RETURNING `+appointmentColumns+`
	`, id, a.PatientID, a.PractitionerID, a.ScheduledAt, a.ServiceType, a.Reason, a.TriageLevel)

	created, err := scanAppointment(row)
	if err != nil {
		if db.IsUniqueViolation(err, "appointments_practitioner_slot_key") {
			return nil, ErrDoubleBooking
		}
		return nil, err
	}

	return created, nil
}

func (r *PgRepository) RescheduleAppointment(ctx context.Context, id uuid.UUID, newAt time.Time) (*Appointment, error) {
	row := r.q(ctx).QueryRow(ctx, `
		UPDATE appointments
		SET scheduled_at = $2,
		    updated_at = now()
		WHERE id = $1
		  AND status = 'scheduled'
		RETURNING `+appointmentColumns+`
	`, id, newAt)

	updated, err := scanAppointment(row)
	if err != nil {
		if db.IsUniqueViolation(err, "appointments_practitioner_slot_key") {
			return nil, ErrDoubleBooking
		}
		return nil, err
	}

	return updated, nil
}

func (r *PgRepository) UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, from, to AppointmentStatus, reason *string) (*Appointment, error) {
	row := r.q(ctx).QueryRow(ctx, `
		UPDATE appointments
		SET status = $2,
		    reason = COALESCE($4, reason),
		    updated_at = now()
		WHERE id = $1
		  AND status = $3
		RETURNING `+appointmentColumns+`
	`, id, to, from, reason)

	return scanAppointment(row)
}

func (r *PgRepository) HasScheduledAt(ctx context.Context, practitionerID uuid.UUID, at time.Time) (bool, error) {
	var exists bool

	err := r.q(ctx).QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1
			FROM appointments
			WHERE practitioner_id = $1
			  AND scheduled_at = $2
			  AND status = 'scheduled'
		)
	`, practitionerID, at).Scan(&exists)
	if err != nil {
		return false, err
	}

	return exists, nil
}

func (r *PgRepository) ListAppointmentsByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]Appointment, error) {
	rows, err := r.q(ctx).Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE patient_id = $1
		ORDER BY scheduled_at DESC
		LIMIT $2 OFFSET $3
	`, patientID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectAppointments(rows)
}

func (r *PgRepository) ListAppointmentsByPractitioner(ctx context.Context, practitionerID uuid.UUID, from, to time.Time) ([]Appointment, error) {
	rows, err := r.q(ctx).Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE practitioner_id = $1
		  AND scheduled_at >= $2
		  AND scheduled_at < $3
		ORDER BY scheduled_at
	`, practitionerID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectAppointments(rows)
}

func collectAppointments(rows pgx.Rows) ([]Appointment, error) {
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
