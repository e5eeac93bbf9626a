package clinical

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-backend/internal/billing"
	"github.com/hackgods/clinic-backend/internal/directory"
	"github.com/hackgods/clinic-backend/internal/events"
	"github.com/hackgods/clinic-backend/internal/inventory"
	"github.com/hackgods/clinic-backend/internal/scheduling"
)

// world backs every saga collaborator with one mutable state and gives
// WithinTx real rollback semantics: on error the pre-transaction snapshot is
// restored. That is what lets these tests assert all-or-nothing behavior.
type world struct {
	products    map[uuid.UUID]*inventory.Product
	movements   []inventory.Movement
	invoices    []*billing.Invoice
	executions  map[uuid.UUID]*ServiceExecution
	appointment *scheduling.Appointment
	services    map[uuid.UUID]*CatalogService
	patients    map[uuid.UUID]*directory.Patient

	invoiceErr error // forced failure for the rollback test
}

func (w *world) snapshot() *world {
	cp := &world{
		products:   make(map[uuid.UUID]*inventory.Product, len(w.products)),
		movements:  append([]inventory.Movement(nil), w.movements...),
		invoices:   append([]*billing.Invoice(nil), w.invoices...),
		executions: make(map[uuid.UUID]*ServiceExecution, len(w.executions)),
		services:   w.services,
		patients:   w.patients,
		invoiceErr: w.invoiceErr,
	}
	for id, p := range w.products {
		pc := *p
		cp.products[id] = &pc
	}
	for id, e := range w.executions {
		ec := *e
		cp.executions[id] = &ec
	}
	if w.appointment != nil {
		ac := *w.appointment
		cp.appointment = &ac
	}
	return cp
}

func (w *world) restore(snap *world) {
	w.products = snap.products
	w.movements = snap.movements
	w.invoices = snap.invoices
	w.executions = snap.executions
	w.appointment = snap.appointment
}

func (w *world) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	snap := w.snapshot()
	txCtx, flush := events.Hold(ctx)
	if err := fn(txCtx); err != nil {
		w.restore(snap)
		return err
	}
	flush()
	return nil
}

// StockLedger

func (w *world) GetProduct(_ context.Context, id uuid.UUID) (*inventory.Product, error) {
	p, ok := w.products[id]
	if !ok {
		return nil, inventory.ErrProductNotFound
	}
	cp := *p
	return &cp, nil
}

func (w *world) Debit(_ context.Context, productID uuid.UUID, qty int, reference, actorID *uuid.UUID) (*inventory.Movement, error) {
	if qty <= 0 {
		return nil, inventory.ErrInvalidQuantity
	}
	p, ok := w.products[productID]
	if !ok {
		return nil, inventory.ErrProductNotFound
	}
	if p.Stock < qty {
		return nil, &inventory.InsufficientStockError{
			ProductID: productID,
			Requested: qty,
			Available: p.Stock,
		}
	}

	m := inventory.Movement{
		ID:         uuid.New(),
		ProductID:  productID,
		Type:       inventory.MovementOut,
		Quantity:   qty,
		PriorStock: p.Stock,
		NewStock:   p.Stock - qty,
		Reference:  reference,
		ActorID:    actorID,
	}
	p.Stock -= qty
	w.movements = append(w.movements, m)
	return &m, nil
}

// InvoiceFactory

func (w *world) Create(_ context.Context, customerID uuid.UUID, total int64) (*billing.Invoice, error) {
	if w.invoiceErr != nil {
		return nil, w.invoiceErr
	}
	if total < 0 {
		return nil, billing.ErrInvalidAmount
	}
	inv := &billing.Invoice{
		ID:         uuid.New(),
		CustomerID: customerID,
		Total:      total,
		Status:     billing.StatusPending,
	}
	w.invoices = append(w.invoices, inv)
	cp := *inv
	return &cp, nil
}

// AppointmentScheduler

func (w *world) GetAppointment(_ context.Context, id uuid.UUID) (*scheduling.Appointment, error) {
	if w.appointment == nil || w.appointment.ID != id {
		return nil, scheduling.ErrAppointmentNotFound
	}
	cp := *w.appointment
	return &cp, nil
}

func (w *world) Complete(_ context.Context, id uuid.UUID) (*scheduling.Appointment, error) {
	if w.appointment == nil || w.appointment.ID != id {
		return nil, scheduling.ErrAppointmentNotFound
	}
	if w.appointment.Status != scheduling.StatusScheduled {
		return nil, scheduling.ErrInvalidStatusTransition
	}
	w.appointment.Status = scheduling.StatusCompleted
	cp := *w.appointment
	return &cp, nil
}

// PatientDirectory

func (w *world) GetPatient(_ context.Context, id uuid.UUID) (*directory.Patient, error) {
	p, ok := w.patients[id]
	if !ok {
		return nil, directory.ErrPatientNotFound
	}
	return p, nil
}

// Repository

func (w *world) GetCatalogService(_ context.Context, id uuid.UUID) (*CatalogService, error) {
	s, ok := w.services[id]
	if !ok {
		return nil, ErrServiceNotFound
	}
	return s, nil
}

func (w *world) InsertExecution(_ context.Context, e ServiceExecution) (*ServiceExecution, error) {
	e.CreatedAt = time.Now()
	w.executions[e.ID] = &e
	cp := e
	return &cp, nil
}

func (w *world) GetExecution(_ context.Context, id uuid.UUID) (*ServiceExecution, error) {
	e, ok := w.executions[id]
	if !ok {
		return nil, ErrExecutionNotFound
	}
	cp := *e
	return &cp, nil
}

func (w *world) ListExecutionsByAppointment(_ context.Context, appointmentID uuid.UUID) ([]ServiceExecution, error) {
	var result []ServiceExecution
	for _, e := range w.executions {
		if e.AppointmentID == appointmentID {
			result = append(result, *e)
		}
	}
	return result, nil
}

type sagaFixture struct {
	saga      *Saga
	world     *world
	ownerID   uuid.UUID
	patientID uuid.UUID
	apptID    uuid.UUID
	serviceID uuid.UUID
	productID uuid.UUID
}

func newSagaFixture(t *testing.T) *sagaFixture {
	t.Helper()

	ownerID := uuid.New()
	patientID := uuid.New()
	apptID := uuid.New()
	serviceID := uuid.New()
	productID := uuid.New()

	w := &world{
		products: map[uuid.UUID]*inventory.Product{
			productID: {ID: productID, Name: "Syringe 5ml", Stock: 5, UnitPrice: 10000},
		},
		executions: make(map[uuid.UUID]*ServiceExecution),
		appointment: &scheduling.Appointment{
			ID:        apptID,
			PatientID: patientID,
			Status:    scheduling.StatusScheduled,
		},
		services: map[uuid.UUID]*CatalogService{
			serviceID: {ID: serviceID, Name: "Vaccination", BasePrice: 45000, Active: true},
		},
		patients: map[uuid.UUID]*directory.Patient{
			patientID: {ID: patientID, OwnerID: ownerID, Name: "Rocky"},
		},
	}

	return &sagaFixture{
		saga:      NewSaga(w, w, w, w, w, w, events.NopPublisher{}),
		world:     w,
		ownerID:   ownerID,
		patientID: patientID,
		apptID:    apptID,
		serviceID: serviceID,
		productID: productID,
	}
}

func TestExecuteHappyPath(t *testing.T) {
	f := newSagaFixture(t)

	result, err := f.saga.Execute(context.Background(), ExecuteParams{
		AppointmentID: f.apptID,
		ServiceID:     f.serviceID,
		Supplies:      []SupplyInput{{ProductID: f.productID, Quantity: 2}},
		Cost:          85000,
		Observations:  "two doses administered",
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if f.world.products[f.productID].Stock != 3 {
		t.Errorf("stock = %d, want 3", f.world.products[f.productID].Stock)
	}

	if len(f.world.movements) != 1 {
		t.Fatalf("movements = %d, want 1", len(f.world.movements))
	}
	m := f.world.movements[0]
	if m.Type != inventory.MovementOut || m.Quantity != 2 {
		t.Errorf("movement = %s %d, want %s 2", m.Type, m.Quantity, inventory.MovementOut)
	}
	if m.Reference == nil || *m.Reference != result.Execution.ID {
		t.Error("movement does not reference the execution")
	}

	if len(f.world.invoices) != 1 {
		t.Fatalf("invoices = %d, want 1", len(f.world.invoices))
	}
	inv := f.world.invoices[0]
	if inv.Status != billing.StatusPending {
		t.Errorf("invoice status = %s, want %s", inv.Status, billing.StatusPending)
	}
	if inv.Total != 85000 {
		t.Errorf("invoice total = %d, want 85000", inv.Total)
	}
	if inv.CustomerID != f.ownerID {
		t.Errorf("invoice customer = %s, want the patient owner %s", inv.CustomerID, f.ownerID)
	}

	if f.world.appointment.Status != scheduling.StatusCompleted {
		t.Errorf("appointment status = %s, want %s", f.world.appointment.Status, scheduling.StatusCompleted)
	}

	exec := result.Execution
	if exec.TotalCost != 85000 {
		t.Errorf("execution total = %d, want 85000", exec.TotalCost)
	}
	if len(exec.Supplies) != 1 {
		t.Fatalf("execution supplies = %d, want 1", len(exec.Supplies))
	}
	if exec.Supplies[0].UnitPrice != 10000 {
		t.Errorf("frozen unit price = %d, want 10000", exec.Supplies[0].UnitPrice)
	}
}

func TestExecuteDerivesTotalFromBaseAndSupplies(t *testing.T) {
	f := newSagaFixture(t)

	result, err := f.saga.Execute(context.Background(), ExecuteParams{
		AppointmentID: f.apptID,
		ServiceID:     f.serviceID,
		Supplies:      []SupplyInput{{ProductID: f.productID, Quantity: 2}},
		// no explicit Cost: base 45000 + 2x10000
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if result.Execution.TotalCost != 65000 {
		t.Errorf("derived total = %d, want 65000", result.Execution.TotalCost)
	}
	if result.Invoice.Total != 65000 {
		t.Errorf("invoice total = %d, want 65000", result.Invoice.Total)
	}
}

func TestExecuteWithoutSupplies(t *testing.T) {
	f := newSagaFixture(t)

	result, err := f.saga.Execute(context.Background(), ExecuteParams{
		AppointmentID: f.apptID,
		ServiceID:     f.serviceID,
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if result.Execution.TotalCost != 45000 {
		t.Errorf("total = %d, want the service base price 45000", result.Execution.TotalCost)
	}
	if len(f.world.movements) != 0 {
		t.Errorf("movements = %d, want 0", len(f.world.movements))
	}
}

// A shortage on the second supply must leave the first debit uncommitted.
func TestExecuteRollsBackOnShortage(t *testing.T) {
	f := newSagaFixture(t)

	scarceID := uuid.New()
	f.world.products[scarceID] = &inventory.Product{ID: scarceID, Name: "Suture kit", Stock: 1, UnitPrice: 30000}

	_, err := f.saga.Execute(context.Background(), ExecuteParams{
		AppointmentID: f.apptID,
		ServiceID:     f.serviceID,
		Supplies: []SupplyInput{
			{ProductID: f.productID, Quantity: 2},
			{ProductID: scarceID, Quantity: 10},
		},
	})
	if !errors.Is(err, inventory.ErrInsufficientStock) {
		t.Fatalf("error = %v, want ErrInsufficientStock", err)
	}

	var detail *inventory.InsufficientStockError
	if !errors.As(err, &detail) || detail.ProductID != scarceID {
		t.Errorf("error does not identify the scarce product: %v", err)
	}

	if got := f.world.products[f.productID].Stock; got != 5 {
		t.Errorf("first product stock = %d, want 5 (rolled back)", got)
	}
	if got := f.world.products[scarceID].Stock; got != 1 {
		t.Errorf("scarce product stock = %d, want 1", got)
	}
	if len(f.world.movements) != 0 {
		t.Errorf("movements = %d, want 0", len(f.world.movements))
	}
	if len(f.world.invoices) != 0 {
		t.Errorf("invoices = %d, want 0", len(f.world.invoices))
	}
	if len(f.world.executions) != 0 {
		t.Errorf("executions = %d, want 0", len(f.world.executions))
	}
	if f.world.appointment.Status != scheduling.StatusScheduled {
		t.Errorf("appointment status = %s, want still scheduled", f.world.appointment.Status)
	}
}

type capturePublisher struct {
	events []events.Event
}

func (p *capturePublisher) Publish(e events.Event) { p.events = append(p.events, e) }
func (p *capturePublisher) Close() error           { return nil }

// A rolled-back execution must not announce itself; only a committed one does.
func TestExecutePublishesOnlyCommittedExecutions(t *testing.T) {
	f := newSagaFixture(t)
	pub := &capturePublisher{}
	f.saga = NewSaga(f.world, f.world, f.world, f.world, f.world, f.world, pub)

	f.world.invoiceErr = errors.New("billing unavailable")
	_, err := f.saga.Execute(context.Background(), ExecuteParams{
		AppointmentID: f.apptID,
		ServiceID:     f.serviceID,
		Supplies:      []SupplyInput{{ProductID: f.productID, Quantity: 1}},
	})
	if err == nil {
		t.Fatal("Execute succeeded despite invoice failure")
	}
	if len(pub.events) != 0 {
		t.Fatalf("rolled-back execution published %d events: %+v", len(pub.events), pub.events)
	}

	f.world.invoiceErr = nil
	result, err := f.saga.Execute(context.Background(), ExecuteParams{
		AppointmentID: f.apptID,
		ServiceID:     f.serviceID,
		Supplies:      []SupplyInput{{ProductID: f.productID, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if len(pub.events) != 1 || pub.events[0].Type != events.EventServiceExecuted {
		t.Fatalf("published = %+v, want one service-executed event", pub.events)
	}
	if pub.events[0].EntityID != result.Execution.ID {
		t.Errorf("event entity = %s, want execution %s", pub.events[0].EntityID, result.Execution.ID)
	}
}

func TestExecuteRollsBackOnInvoiceFailure(t *testing.T) {
	f := newSagaFixture(t)
	f.world.invoiceErr = errors.New("billing unavailable")

	_, err := f.saga.Execute(context.Background(), ExecuteParams{
		AppointmentID: f.apptID,
		ServiceID:     f.serviceID,
		Supplies:      []SupplyInput{{ProductID: f.productID, Quantity: 2}},
	})
	if err == nil {
		t.Fatal("Execute succeeded despite invoice failure")
	}

	if got := f.world.products[f.productID].Stock; got != 5 {
		t.Errorf("stock = %d, want 5 (rolled back)", got)
	}
	if len(f.world.executions) != 0 {
		t.Errorf("executions = %d, want 0", len(f.world.executions))
	}
	if f.world.appointment.Status != scheduling.StatusScheduled {
		t.Errorf("appointment status = %s, want still scheduled", f.world.appointment.Status)
	}
}

func TestListExecutionsByAppointment(t *testing.T) {
	f := newSagaFixture(t)

	result, err := f.saga.Execute(context.Background(), ExecuteParams{
		AppointmentID: f.apptID,
		ServiceID:     f.serviceID,
		Supplies:      []SupplyInput{{ProductID: f.productID, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	executions, err := f.saga.ListExecutionsByAppointment(context.Background(), f.apptID)
	if err != nil {
		t.Fatalf("ListExecutionsByAppointment: %v", err)
	}
	if len(executions) != 1 || executions[0].ID != result.Execution.ID {
		t.Fatalf("executions = %+v, want just the one registered", executions)
	}

	none, err := f.saga.ListExecutionsByAppointment(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("ListExecutionsByAppointment for unknown appointment: %v", err)
	}
	if len(none) != 0 {
		t.Fatalf("executions for unknown appointment = %d, want 0", len(none))
	}
}

func TestExecuteRequiresScheduledAppointment(t *testing.T) {
	for _, status := range []scheduling.AppointmentStatus{scheduling.StatusCompleted, scheduling.StatusCancelled} {
		f := newSagaFixture(t)
		f.world.appointment.Status = status

		_, err := f.saga.Execute(context.Background(), ExecuteParams{
			AppointmentID: f.apptID,
			ServiceID:     f.serviceID,
		})
		if !errors.Is(err, scheduling.ErrInvalidStatusTransition) {
			t.Errorf("status %s: error = %v, want ErrInvalidStatusTransition", status, err)
		}
	}
}

func TestExecuteValidatesInputs(t *testing.T) {
	t.Run("unknown appointment", func(t *testing.T) {
		f := newSagaFixture(t)
		_, err := f.saga.Execute(context.Background(), ExecuteParams{
			AppointmentID: uuid.New(),
			ServiceID:     f.serviceID,
		})
		if !errors.Is(err, scheduling.ErrAppointmentNotFound) {
			t.Errorf("error = %v, want ErrAppointmentNotFound", err)
		}
	})

	t.Run("unknown service", func(t *testing.T) {
		f := newSagaFixture(t)
		_, err := f.saga.Execute(context.Background(), ExecuteParams{
			AppointmentID: f.apptID,
			ServiceID:     uuid.New(),
		})
		if !errors.Is(err, ErrServiceNotFound) {
			t.Errorf("error = %v, want ErrServiceNotFound", err)
		}
	})

	t.Run("negative cost", func(t *testing.T) {
		f := newSagaFixture(t)
		_, err := f.saga.Execute(context.Background(), ExecuteParams{
			AppointmentID: f.apptID,
			ServiceID:     f.serviceID,
			Supplies:      []SupplyInput{{ProductID: f.productID, Quantity: 2}},
			Cost:          -100,
		})
		if !errors.Is(err, billing.ErrInvalidAmount) {
			t.Errorf("error = %v, want ErrInvalidAmount", err)
		}
		if f.world.products[f.productID].Stock != 5 {
			t.Error("validation failure touched stock")
		}
		if len(f.world.invoices) != 0 {
			t.Errorf("invoices = %d, want 0", len(f.world.invoices))
		}
	})

	t.Run("non-positive supply quantity", func(t *testing.T) {
		f := newSagaFixture(t)
		_, err := f.saga.Execute(context.Background(), ExecuteParams{
			AppointmentID: f.apptID,
			ServiceID:     f.serviceID,
			Supplies:      []SupplyInput{{ProductID: f.productID, Quantity: 0}},
		})
		if !errors.Is(err, inventory.ErrInvalidQuantity) {
			t.Errorf("error = %v, want ErrInvalidQuantity", err)
		}
		if f.world.products[f.productID].Stock != 5 {
			t.Error("validation failure touched stock")
		}
	})
}
