package billing

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

func scanInvoice(row pgx.Row) (*Invoice, error) {
	var inv Invoice
	var method *string

	err := row.Scan(
		&inv.ID,
		&inv.Number,
		&inv.CustomerID,
		&inv.Total,
		&inv.Status,
		&method,
		&inv.IssuedAt,
		&inv.CreatedAt,
		&inv.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvoiceNotFound
		}
		return nil, err
	}

	inv.PaymentMethod = method
	return &inv, nil
}

func (r *PgRepository) InsertInvoice(ctx context.Context, inv Invoice) (*Invoice, error) {
	tx, ok := db.TxFrom(ctx)
	if !ok {
		return r.insertInvoice(ctx, r.pool, inv)
	}

	// Inside an enclosing transaction a number collision must not poison it:
	// Postgres aborts the whole transaction on any statement error, which
	// would make the caller's retry fail too. Each attempt therefore runs
	// under its own savepoint, and only the savepoint is rolled back on error.
	sp, err := tx.Begin(ctx)
	if err != nil {
		return nil, err
	}

	created, err := r.insertInvoice(ctx, sp, inv)
	if err != nil {
		_ = sp.Rollback(ctx)
		return nil, err
	}

	if err := sp.Commit(ctx); err != nil {
		return nil, err
	}
	return created, nil
}

func (r *PgRepository) insertInvoice(ctx context.Context, q db.Querier, inv Invoice) (*Invoice, error) {
	id := uuid.New()

	row := q.QueryRow(ctx, `
		INSERT INTO invoices (id, number, customer_id, total, status, payment_method, issued_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NULL, $6, now(), now())
		RETURNING id, number, customer_id, total, status, payment_method, issued_at, created_at, updated_at
	`, id, inv.Number, inv.CustomerID, inv.Total, inv.Status, inv.IssuedAt)

	created, err := scanInvoice(row)
	if err != nil {
		if db.IsUniqueViolation(err, "invoices_number_key") {
			return nil, ErrNumberTaken
		}
		return nil, err
	}

	return created, nil
}

func (r *PgRepository) GetInvoice(ctx context.Context, id uuid.UUID) (*Invoice, error) {
	row := r.q(ctx).QueryRow(ctx, `
		SELECT id, number, customer_id, total, status, payment_method, issued_at, created_at, updated_at
		FROM invoices
		WHERE id = $1
	`, id)
	return scanInvoice(row)
}

func (r *PgRepository) ListInvoicesByCustomer(ctx context.Context, customerID uuid.UUID, limit, offset int) ([]Invoice, error) {
	rows, err := r.q(ctx).Query(ctx, `
		SELECT id, number, customer_id, total, status, payment_method, issued_at, created_at, updated_at
		FROM invoices
		WHERE customer_id = $1
		ORDER BY issued_at DESC
		LIMIT $2 OFFSET $3
	`, customerID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *inv)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PgRepository) UpdateInvoiceStatus(ctx context.Context, id uuid.UUID, from, to InvoiceStatus, paymentMethod *string) (*Invoice, error) {
	row := r.q(ctx).QueryRow(ctx, `
		UPDATE invoices
		SET status = $2,
		    payment_method = COALESCE($4, payment_method),
		    updated_at = now()
		WHERE id = $1
		  AND status = $3
		RETURNING id, number, customer_id, total, status, payment_method, issued_at, created_at, updated_at
	`, id, to, from, paymentMethod)

	return scanInvoice(row)
}
