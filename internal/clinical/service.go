package clinical

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-backend/internal/billing"
	"github.com/hackgods/clinic-backend/internal/directory"
	"github.com/hackgods/clinic-backend/internal/events"
	"github.com/hackgods/clinic-backend/internal/inventory"
	"github.com/hackgods/clinic-backend/internal/scheduling"
)

// StockLedger is the slice of the inventory ledger the saga consumes from.
type StockLedger interface {
	GetProduct(ctx context.Context, id uuid.UUID) (*inventory.Product, error)
	Debit(ctx context.Context, productID uuid.UUID, qty int, reference, actorID *uuid.UUID) (*inventory.Movement, error)
}

// InvoiceFactory issues the invoice for an execution.
type InvoiceFactory interface {
	Create(ctx context.Context, customerID uuid.UUID, total int64) (*billing.Invoice, error)
}

// AppointmentScheduler closes the appointment once the service is rendered.
type AppointmentScheduler interface {
	GetAppointment(ctx context.Context, id uuid.UUID) (*scheduling.Appointment, error)
	Complete(ctx context.Context, id uuid.UUID) (*scheduling.Appointment, error)
}

// PatientDirectory resolves the appointment's patient to its owning client,
// who is the invoice customer.
type PatientDirectory interface {
	GetPatient(ctx context.Context, id uuid.UUID) (*directory.Patient, error)
}

type SupplyInput struct {
	ProductID uuid.UUID
	Quantity  int
}

type ExecuteParams struct {
	AppointmentID uuid.UUID
	ServiceID     uuid.UUID
	Supplies      []SupplyInput
	// Cost overrides the derived total when positive; zero means "derive from
	// the service base price plus consumed supplies". Negative values are
	// rejected.
	Cost         int64
	Observations string
	ActorID      *uuid.UUID
}

type ExecuteResult struct {
	Execution *ServiceExecution
	Invoice   *billing.Invoice
}

// Saga orchestrates registering a rendered clinical service: debit inventory
// for every consumed supply, persist the execution record, issue the invoice,
// and complete the appointment. The whole sequence runs in one transaction;
// a failure at any step leaves nothing committed.
type Saga struct {
	repo      Repository
	ledger    StockLedger
	invoices  InvoiceFactory
	scheduler AppointmentScheduler
	patients  PatientDirectory
	tx        TxRunner
	publisher events.Publisher
	nowFn     func() time.Time
}

func NewSaga(
	repo Repository,
	ledger StockLedger,
	invoices InvoiceFactory,
	scheduler AppointmentScheduler,
	patients PatientDirectory,
	tx TxRunner,
	publisher events.Publisher,
) *Saga {
	return &Saga{
		repo:      repo,
		ledger:    ledger,
		invoices:  invoices,
		scheduler: scheduler,
		patients:  patients,
		tx:        tx,
		publisher: publisher,
		nowFn:     time.Now,
	}
}

func (s *Saga) Execute(ctx context.Context, p ExecuteParams) (*ExecuteResult, error) {
	if p.Cost < 0 {
		return nil, billing.ErrInvalidAmount
	}

	appt, err := s.scheduler.GetAppointment(ctx, p.AppointmentID)
	if err != nil {
		return nil, err
	}
	if appt.Status != scheduling.StatusScheduled {
		return nil, scheduling.ErrInvalidStatusTransition
	}

	service, err := s.repo.GetCatalogService(ctx, p.ServiceID)
	if err != nil {
		return nil, err
	}

	for _, supply := range p.Supplies {
		if supply.Quantity <= 0 {
			return nil, inventory.ErrInvalidQuantity
		}
	}

	executionID := uuid.New()
	var result ExecuteResult

	err = s.tx.WithinTx(ctx, func(txCtx context.Context) error {
		// Debit every consumed supply, freezing its unit price. Errors from
		// the ledger abort the transaction unwrapped so the caller can tell
		// a stock shortage from a state problem.
		supplies := make([]ConsumedSupply, 0, len(p.Supplies))
		var suppliesTotal int64

		for _, supply := range p.Supplies {
			product, err := s.ledger.GetProduct(txCtx, supply.ProductID)
			if err != nil {
				return err
			}

			if _, err := s.ledger.Debit(txCtx, supply.ProductID, supply.Quantity, &executionID, p.ActorID); err != nil {
				return err
			}

			supplies = append(supplies, ConsumedSupply{
				ProductID: supply.ProductID,
				Quantity:  supply.Quantity,
				UnitPrice: product.UnitPrice,
			})
			suppliesTotal += int64(supply.Quantity) * product.UnitPrice
		}

		total := p.Cost
		if total == 0 {
			total = service.BasePrice + suppliesTotal
		}

		execution, err := s.repo.InsertExecution(txCtx, ServiceExecution{
			ID:            executionID,
			AppointmentID: appt.ID,
			ServiceID:     service.ID,
			ExecutedAt:    s.nowFn(),
			Observations:  p.Observations,
			TotalCost:     total,
			Supplies:      supplies,
		})
		if err != nil {
			return fmt.Errorf("insert service execution: %w", err)
		}

		patient, err := s.patients.GetPatient(txCtx, appt.PatientID)
		if err != nil {
			return err
		}

		invoice, err := s.invoices.Create(txCtx, patient.OwnerID, total)
		if err != nil {
			return err
		}

		if _, err := s.scheduler.Complete(txCtx, appt.ID); err != nil {
			return err
		}

		result = ExecuteResult{
			Execution: execution,
			Invoice:   invoice,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	events.Emit(ctx, s.publisher, events.Event{
		Type:     events.EventServiceExecuted,
		EntityID: result.Execution.ID,
		Payload: map[string]any{
			"appointment_id": appt.ID.String(),
			"invoice_id":     result.Invoice.ID.String(),
			"total":          result.Execution.TotalCost,
		},
	})

	return &result, nil
}

func (s *Saga) GetExecution(ctx context.Context, id uuid.UUID) (*ServiceExecution, error) {
	e, err := s.repo.GetExecution(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get service execution: %w", err)
	}
	return e, nil
}

func (s *Saga) ListExecutionsByAppointment(ctx context.Context, appointmentID uuid.UUID) ([]ServiceExecution, error) {
	executions, err := s.repo.ListExecutionsByAppointment(ctx, appointmentID)
	if err != nil {
		return nil, fmt.Errorf("list executions by appointment: %w", err)
	}
	return executions, nil
}
