package inventory

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// Ledger owns product stock. Every balance change writes a movement row in
// the same unit of work, so the ledger stays replayable.
type Ledger struct {
	repo Repository
	tx   TxRunner
}

func NewLedger(repo Repository, tx TxRunner) *Ledger {
	return &Ledger{
		repo: repo,
		tx:   tx,
	}
}

func (l *Ledger) GetProduct(ctx context.Context, id uuid.UUID) (*Product, error) {
	p, err := l.repo.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Debit removes qty units of a product. Fails with ErrInsufficientStock when
// the balance would go negative; the error carries requested and available.
func (l *Ledger) Debit(ctx context.Context, productID uuid.UUID, qty int, reference, actorID *uuid.UUID) (*Movement, error) {
	return l.move(ctx, productID, qty, MovementOut, reference, actorID)
}

// Credit adds qty units of a product.
func (l *Ledger) Credit(ctx context.Context, productID uuid.UUID, qty int, reference, actorID *uuid.UUID) (*Movement, error) {
	return l.move(ctx, productID, qty, MovementIn, reference, actorID)
}

// Adjust corrects the balance by delta, which may be negative. A negative
// adjustment still cannot drive stock below zero.
func (l *Ledger) Adjust(ctx context.Context, productID uuid.UUID, delta int, actorID *uuid.UUID) (*Movement, error) {
	if delta == 0 {
		return nil, ErrInvalidQuantity
	}

	var created *Movement
	err := l.tx.WithinTx(ctx, func(txCtx context.Context) error {
		var prior, updated int
		var err error
		if delta > 0 {
			prior, updated, err = l.repo.CreditStock(txCtx, productID, delta)
		} else {
			prior, updated, err = l.repo.DebitStock(txCtx, productID, -delta)
		}
		if err != nil {
			return err
		}

		m, err := l.repo.InsertMovement(txCtx, Movement{
			ProductID:  productID,
			Type:       MovementAdjustment,
			Quantity:   delta,
			PriorStock: prior,
			NewStock:   updated,
			ActorID:    actorID,
		})
		if err != nil {
			return fmt.Errorf("insert movement: %w", err)
		}

		created = m
		return nil
	})
	if err != nil {
		return nil, err
	}

	return created, nil
}

// CheckAvailable is a read-only probe. It gives no atomicity guarantee under
// concurrency; callers that need one must go through Debit.
func (l *Ledger) CheckAvailable(ctx context.Context, productID uuid.UUID, qty int) (bool, error) {
	if qty <= 0 {
		return false, ErrInvalidQuantity
	}

	p, err := l.repo.GetProduct(ctx, productID)
	if err != nil {
		return false, err
	}

	return p.Stock >= qty, nil
}

// AnyProductInStock reports whether at least one product has positive stock.
func (l *Ledger) AnyProductInStock(ctx context.Context) (bool, error) {
	count, err := l.repo.CountProductsInStock(ctx)
	if err != nil {
		return false, fmt.Errorf("count products in stock: %w", err)
	}
	return count > 0, nil
}

func (l *Ledger) ListMovements(ctx context.Context, productID uuid.UUID, limit, offset int) ([]Movement, error) {
	if limit <= 0 {
		limit = 20 // default
	}
	if limit > 100 {
		limit = 100 // max
	}
	if offset < 0 {
		offset = 0
	}

	movements, err := l.repo.ListMovements(ctx, productID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}
	return movements, nil
}

func (l *Ledger) move(ctx context.Context, productID uuid.UUID, qty int, typ MovementType, reference, actorID *uuid.UUID) (*Movement, error) {
	if qty <= 0 {
		return nil, ErrInvalidQuantity
	}

	var created *Movement
	err := l.tx.WithinTx(ctx, func(txCtx context.Context) error {
		var prior, updated int
		var err error
		switch typ {
		case MovementOut:
			prior, updated, err = l.repo.DebitStock(txCtx, productID, qty)
		case MovementIn:
			prior, updated, err = l.repo.CreditStock(txCtx, productID, qty)
		default:
			return fmt.Errorf("unsupported movement type %q", typ)
		}
		if err != nil {
			return err
		}

		m, err := l.repo.InsertMovement(txCtx, Movement{
			ProductID:  productID,
			Type:       typ,
			Quantity:   qty,
			PriorStock: prior,
			NewStock:   updated,
			Reference:  reference,
			ActorID:    actorID,
		})
		if err != nil {
			return fmt.Errorf("insert movement: %w", err)
		}

		created = m
		return nil
	})
	if err != nil {
		return nil, err
	}

	return created, nil
}
