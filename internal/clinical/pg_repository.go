package clinical

import (
	"context"
	"errors"

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

func (r *PgRepository) GetCatalogService(ctx context.Context, id uuid.UUID) (*CatalogService, error) {
	var s CatalogService

	err := r.q(ctx).QueryRow(ctx, `
		SELECT id, name, base_price, active, created_at, updated_at
		FROM catalog_services
		WHERE id = $1
	`, id).Scan(
		&s.ID,
		&s.Name,
		&s.BasePrice,
		&s.Active,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrServiceNotFound
		}
		return nil, err
	}

	return &s, nil
}

func (r *PgRepository) InsertExecution(ctx context.Context, e ServiceExecution) (*ServiceExecution, error) {
	q := r.q(ctx)

	err := q.QueryRow(ctx, `
		INSERT INTO service_executions (id, appointment_id, service_id, executed_at, observations, total_cost, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())
		RETURNING created_at
	`, e.ID, e.AppointmentID, e.ServiceID, e.ExecutedAt, e.Observations, e.TotalCost).Scan(&e.CreatedAt)
	if err != nil {
		return nil, err
	}

	for _, s := range e.Supplies {
		_, err := q.Exec(ctx, `
			INSERT INTO service_execution_supplies (execution_id, product_id, quantity, unit_price)
			VALUES ($1, $2, $3, $4)
		`, e.ID, s.ProductID, s.Quantity, s.UnitPrice)
		if err != nil {
			return nil, err
		}
	}

	return &e, nil
}

func (r *PgRepository) GetExecution(ctx context.Context, id uuid.UUID) (*ServiceExecution, error) {
	var e ServiceExecution

	err := r.q(ctx).QueryRow(ctx, `
		SELECT id, appointment_id, service_id, executed_at, observations, total_cost, created_at
		FROM service_executions
		WHERE id = $1
	`, id).Scan(
		&e.ID,
		&e.AppointmentID,
		&e.ServiceID,
		&e.ExecutedAt,
		&e.Observations,
		&e.TotalCost,
		&e.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrExecutionNotFound
		}
		return nil, err
	}

	supplies, err := r.loadSupplies(ctx, e.ID)
	if err != nil {
		return nil, err
	}
	e.Supplies = supplies

	return &e, nil
}

func (r *PgRepository) ListExecutionsByAppointment(ctx context.Context, appointmentID uuid.UUID) ([]ServiceExecution, error) {
	rows, err := r.q(ctx).Query(ctx, `
		SELECT id, appointment_id, service_id, executed_at, observations, total_cost, created_at
		FROM service_executions
		WHERE appointment_id = $1
		ORDER BY executed_at
	`, appointmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []ServiceExecution
	for rows.Next() {
		var e ServiceExecution
		err := rows.Scan(&e.ID, &e.AppointmentID, &e.ServiceID, &e.ExecutedAt, &e.Observations, &e.TotalCost, &e.CreatedAt)
		if err != nil {
			return nil, err
		}
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range result {
		supplies, err := r.loadSupplies(ctx, result[i].ID)
		if err != nil {
			return nil, err
		}
		result[i].Supplies = supplies
	}

	return result, nil
}

func (r *PgRepository) loadSupplies(ctx context.Context, executionID uuid.UUID) ([]ConsumedSupply, error) {
	rows, err := r.q(ctx).Query(ctx, `
		SELECT product_id, quantity, unit_price
		FROM service_execution_supplies
		WHERE execution_id = $1
	`, executionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var supplies []ConsumedSupply
	for rows.Next() {
		var s ConsumedSupply
		if err := rows.Scan(&s.ProductID, &s.Quantity, &s.UnitPrice); err != nil {
			return nil, err
		}
		supplies = append(supplies, s)
	}

	return supplies, rows.Err()
}
