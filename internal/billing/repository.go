package billing

import (
	"context"

	"github.com/google/uuid"
)

// Repository contains all DB interactions needed by the invoice factory.
type Repository interface {
	// InsertInvoice persists a new invoice. Returns ErrNumberTaken when the
	// generated number collides with an existing one. A collision must leave
	// any enclosing transaction usable, so the caller can retry with a fresh
	// number inside the same transaction.
	InsertInvoice(ctx context.Context, inv Invoice) (*Invoice, error)

	GetInvoice(ctx context.Context, id uuid.UUID) (*Invoice, error)
	ListInvoicesByCustomer(ctx context.Context, customerID uuid.UUID, limit, offset int) ([]Invoice, error)

	// UpdateInvoiceStatus moves an invoice from one status to another as a
	// compare-and-set. No row matches when the invoice is missing or already
	// moved on.
	UpdateInvoiceStatus(ctx context.Context, id uuid.UUID, from, to InvoiceStatus, paymentMethod *string) (*Invoice, error)
}
