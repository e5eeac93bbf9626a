package inventory

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

func scanProduct(row pgx.Row) (*Product, error) {
	var p Product

	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Stock,
		&p.UnitPrice,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}

	return &p, nil
}

func scanMovement(row pgx.Row) (*Movement, error) {
	var m Movement

	err := row.Scan(
		&m.ID,
		&m.ProductID,
		&m.Type,
		&m.Quantity,
		&m.PriorStock,
		&m.NewStock,
		&m.Reference,
		&m.ActorID,
		&m.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &m, nil
}

func (r *PgRepository) GetProduct(ctx context.Context, id uuid.UUID) (*Product, error) {
	row := r.q(ctx).QueryRow(ctx, `
		SELECT id, name, stock, unit_price, created_at, updated_at
		FROM products
		WHERE id = $1
	`, id)
	return scanProduct(row)
}

// DebitStock uses a guarded UPDATE so the balance check and the write are one
// atomic statement; a plain read-then-write would race under concurrent debits.
func (r *PgRepository) DebitStock(ctx context.Context, productID uuid.UUID, qty int) (int, int, error) {
	var updated int

	err := r.q(ctx).QueryRow(ctx, `
		UPDATE products
		SET stock = stock - $2,
		    updated_at = now()
		WHERE id = $1
		  AND stock >= $2
		RETURNING stock
	`, productID, qty).Scan(&updated)

	if errors.Is(err, pgx.ErrNoRows) {
		// Either the product is missing or the balance was too low.
		p, getErr := r.GetProduct(ctx, productID)
		if getErr != nil {
			return 0, 0, getErr
		}
		return 0, 0, &InsufficientStockError{
			ProductID: productID,
			Requested: qty,
			Available: p.Stock,
		}
	}
	if err != nil {
		return 0, 0, err
	}

	return updated + qty, updated, nil
}

func (r *PgRepository) CreditStock(ctx context.Context, productID uuid.UUID, qty int) (int, int, error) {
	var updated int

	err := r.q(ctx).QueryRow(ctx, `
		UPDATE products
		SET stock = stock + $2,
		    updated_at = now()
		WHERE id = $1
		RETURNING stock
	`, productID, qty).Scan(&updated)

	if errors.Is(err, pgx.ErrNoRows) {
		return 0, 0, ErrProductNotFound
	}
	if err != nil {
		return 0, 0, err
	}

	return updated - qty, updated, nil
}

func (r *PgRepository) InsertMovement(ctx context.Context, m Movement) (*Movement, error) {
	id := uuid.New()

	row := r.q(ctx).QueryRow(ctx, `
		INSERT INTO inventory_movements (id, product_id, type, quantity, prior_stock, new_stock, reference, actor_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())
		RETURNING id, product_id, type, quantity, prior_stock, new_stock, reference, actor_id, created_at
	`, id, m.ProductID, m.Type, m.Quantity, m.PriorStock, m.NewStock, m.Reference, m.ActorID)

	return scanMovement(row)
}

func (r *PgRepository) ListMovements(ctx context.Context, productID uuid.UUID, limit, offset int) ([]Movement, error) {
	rows, err := r.q(ctx).Query(ctx, `
		SELECT id, product_id, type, quantity, prior_stock, new_stock, reference, actor_id, created_at
		FROM inventory_movements
		WHERE product_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, productID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Movement
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *m)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PgRepository) CountProductsInStock(ctx context.Context) (int, error) {
	var count int

	err := r.q(ctx).QueryRow(ctx, `
		SELECT count(*)
		FROM products
		WHERE stock > 0
	`).Scan(&count)
	if err != nil {
		return 0, err
	}

	return count, nil
}
