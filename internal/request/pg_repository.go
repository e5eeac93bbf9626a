package request

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

const requestColumns = `id, client_id, patient_id, requested_at, service_type, reason, status,
		rejection_reason, appointment_id,
		approved_by, approved_at, rejected_by, rejected_at, cancelled_by, cancelled_at,
		created_at, updated_at`

func scanRequest(row pgx.Row) (*AppointmentRequest, error) {
	var req AppointmentRequest

	err := row.Scan(
		&req.ID,
		&req.ClientID,
		&req.PatientID,
		&req.RequestedAt,
		&req.ServiceType,
		&req.Reason,
		&req.Status,
		&req.RejectionReason,
		&req.AppointmentID,
		&req.ApprovedBy,
		&req.ApprovedAt,
		&req.RejectedBy,
		&req.RejectedAt,
		&req.CancelledBy,
		&req.CancelledAt,
		&req.CreatedAt,
		&req.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRequestNotFound
		}
		return nil, err
	}

	return &req, nil
}

func (r *PgRepository) GetRequest(ctx context.Context, id uuid.UUID) (*AppointmentRequest, error) {
	row := r.q(ctx).QueryRow(ctx, `
		SELECT `+requestColumns+`
		FROM appointment_requests
		WHERE id = $1
	`, id)
	return scanRequest(row)
}

func (r *PgRepository) InsertRequest(ctx context.Context, req AppointmentRequest) (*AppointmentRequest, error) {
	id := uuid.New()

	row := r.q(ctx).QueryRow(ctx, `
		INSERT INTO appointment_requests (id, client_id, patient_id, requested_at, service_type, reason, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, 'pending', now(), now())
		RETURNING `+requestColumns+`
	`, id, req.ClientID, req.PatientID, req.RequestedAt, req.ServiceType, req.Reason)

	created, err := scanRequest(row)
	if err != nil {
		if db.IsUniqueViolation(err, "appointment_requests_active_client_key") {
			return nil, ErrActiveRequestExists
		}
		return nil, err
	}

	return created, nil
}

func (r *PgRepository) ApproveRequest(ctx context.Context, id, appointmentID, approvedBy uuid.UUID) (*AppointmentRequest, error) {
	row := r.q(ctx).QueryRow(ctx, `
		UPDATE appointment_requests
		SET status = 'approved',
		    appointment_id = $2,
		    approved_by = $3,
		    approved_at = now(),
		    updated_at = now()
		WHERE id = $1
		  AND status = 'pending'
		RETURNING `+requestColumns+`
	`, id, appointmentID, approvedBy)

	return scanRequest(row)
}

func (r *PgRepository) RejectRequest(ctx context.Context, id uuid.UUID, reason string, rejectedBy uuid.UUID) (*AppointmentRequest, error) {
	row := r.q(ctx).QueryRow(ctx, `
		UPDATE appointment_requests
		SET status = 'rejected',
		    rejection_reason = $2,
		    rejected_by = $3,
		    rejected_at = now(),
		    updated_at = now()
		WHERE id = $1
		  AND status = 'pending'
		RETURNING `+requestColumns+`
	`, id, reason, rejectedBy)

	return scanRequest(row)
}

func (r *PgRepository) CancelRequest(ctx context.Context, id uuid.UUID, cancelledBy *uuid.UUID) (*AppointmentRequest, error) {
	row := r.q(ctx).QueryRow(ctx, `
		UPDATE appointment_requests
		SET status = 'cancelled',
		    cancelled_by = $2,
		    cancelled_at = now(),
		    updated_at = now()
		WHERE id = $1
		  AND status IN ('pending', 'approved')
		RETURNING `+requestColumns+`
	`, id, cancelledBy)

	return scanRequest(row)
}

func (r *PgRepository) ListRequestsByClient(ctx context.Context, clientID uuid.UUID, limit, offset int) ([]AppointmentRequest, error) {
	rows, err := r.q(ctx).Query(ctx, `
		SELECT `+requestColumns+`
		FROM appointment_requests
		WHERE client_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, clientID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectRequests(rows)
}

func (r *PgRepository) FindOverduePending(ctx context.Context, now time.Time) ([]AppointmentRequest, error) {
	rows, err := r.q(ctx).Query(ctx, `
		SELECT `+requestColumns+`
		FROM appointment_requests
		WHERE status = 'pending'
		  AND requested_at < $1
	`, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectRequests(rows)
}

func collectRequests(rows pgx.Rows) ([]AppointmentRequest, error) {
	var result []AppointmentRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *req)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}
