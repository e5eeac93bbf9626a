package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrProductNotFound   = errors.New("product not found")
	ErrInvalidQuantity   = errors.New("quantity must be a positive integer")
	ErrInsufficientStock = errors.New("insufficient stock")
)

// InsufficientStockError reports which product ran short and by how much.
// errors.Is(err, ErrInsufficientStock) matches it.
type InsufficientStockError struct {
	ProductID uuid.UUID
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s: requested %d, available %d",
		e.ProductID, e.Requested, e.Available)
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

// Repository contains all DB interactions needed by the ledger.
type Repository interface {
	GetProduct(ctx context.Context, id uuid.UUID) (*Product, error)

	// DebitStock atomically decrements stock, refusing to go below zero.
	// Returns the prior and new balance.
	DebitStock(ctx context.Context, productID uuid.UUID, qty int) (prior, updated int, err error)
	CreditStock(ctx context.Context, productID uuid.UUID, qty int) (prior, updated int, err error)

	InsertMovement(ctx context.Context, m Movement) (*Movement, error)
	ListMovements(ctx context.Context, productID uuid.UUID, limit, offset int) ([]Movement, error)

	// CountProductsInStock counts products with stock > 0 across the whole
	// inventory. Consumed by the request workflow's coarse availability guard.
	CountProductsInStock(ctx context.Context) (int, error)
}

// TxRunner runs fn inside a single unit of work. Satisfied by db.TxManager.
type TxRunner interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}
