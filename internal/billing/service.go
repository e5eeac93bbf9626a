package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-backend/internal/events"
)

// Factory creates and transitions invoices. New invoices always start pending.
type Factory struct {
	repo      Repository
	publisher events.Publisher
}

func NewFactory(repo Repository, publisher events.Publisher) *Factory {
	return &Factory{
		repo:      repo,
		publisher: publisher,
	}
}

// Create issues a new pending invoice for a customer. The generated number is
// date-based with a random suffix; on collision a fresh number is generated
// and the insert retried until it lands.
func (f *Factory) Create(ctx context.Context, customerID uuid.UUID, total int64) (*Invoice, error) {
	if total < 0 {
		return nil, ErrInvalidAmount
	}

	now := time.Now()

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		created, err := f.repo.InsertInvoice(ctx, Invoice{
			Number:     NumberFor(now),
			CustomerID: customerID,
			Total:      total,
			Status:     StatusPending,
			IssuedAt:   now,
		})
		if errors.Is(err, ErrNumberTaken) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("insert invoice: %w", err)
		}

		events.Emit(ctx, f.publisher, events.Event{
			Type:     events.EventInvoiceIssued,
			EntityID: created.ID,
			Payload: map[string]any{
				"number": created.Number,
				"total":  created.Total,
			},
		})

		return created, nil
	}
}

// Pay registers a payment. Only pending invoices can be paid.
func (f *Factory) Pay(ctx context.Context, id uuid.UUID, method string) (*Invoice, error) {
	inv, err := f.repo.GetInvoice(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load invoice: %w", err)
	}

	if inv.Status != StatusPending {
		return nil, ErrInvalidStatusTransition
	}

	updated, err := f.repo.UpdateInvoiceStatus(ctx, inv.ID, StatusPending, StatusPaid, &method)
	if err != nil {
		if errors.Is(err, ErrInvoiceNotFound) {
			// Lost the race against a concurrent pay/void.
			return nil, ErrInvalidStatusTransition
		}
		return nil, fmt.Errorf("pay invoice: %w", err)
	}

	events.Emit(ctx, f.publisher, events.Event{
		Type:     events.EventInvoicePaid,
		EntityID: updated.ID,
		Payload:  map[string]any{"method": method},
	})

	return updated, nil
}

// Void cancels a pending invoice. Paid invoices can never be voided.
func (f *Factory) Void(ctx context.Context, id uuid.UUID) (*Invoice, error) {
	inv, err := f.repo.GetInvoice(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load invoice: %w", err)
	}

	if inv.Status != StatusPending {
		return nil, ErrInvalidStatusTransition
	}

	updated, err := f.repo.UpdateInvoiceStatus(ctx, inv.ID, StatusPending, StatusVoid, nil)
	if err != nil {
		if errors.Is(err, ErrInvoiceNotFound) {
			return nil, ErrInvalidStatusTransition
		}
		return nil, fmt.Errorf("void invoice: %w", err)
	}

	events.Emit(ctx, f.publisher, events.Event{
		Type:     events.EventInvoiceVoided,
		EntityID: updated.ID,
	})

	return updated, nil
}

func (f *Factory) GetInvoice(ctx context.Context, id uuid.UUID) (*Invoice, error) {
	inv, err := f.repo.GetInvoice(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get invoice: %w", err)
	}
	return inv, nil
}

func (f *Factory) ListInvoicesByCustomer(ctx context.Context, customerID uuid.UUID, limit, offset int) ([]Invoice, error) {
	if limit <= 0 {
		limit = 20 // default
	}
	if limit > 100 {
		limit = 100 // max
	}
	if offset < 0 {
		offset = 0
	}

	invoices, err := f.repo.ListInvoicesByCustomer(ctx, customerID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list invoices by customer: %w", err)
	}
	return invoices, nil
}
