package request

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-backend/internal/directory"
	"github.com/hackgods/clinic-backend/internal/events"
	"github.com/hackgods/clinic-backend/internal/scheduling"
)

var (
	ErrActiveRequestExists      = errors.New("client already has an active appointment request")
	ErrPatientOwnershipMismatch = errors.New("patient does not belong to the requesting client")
	ErrPastDate                 = errors.New("requested date is in the past")
	ErrInsufficientLeadTime     = errors.New("requested time is below the minimum lead time")
	ErrOutsideBusinessHours     = errors.New("requested time is outside clinic business hours")
	ErrNoInventoryAvailable     = errors.New("no products in stock")
	ErrPractitionerInactive     = errors.New("practitioner is not active")
	ErrInvalidStatusTransition  = errors.New("invalid request status transition")
	ErrAlreadyCancelled         = errors.New("request is already cancelled")
)

// SchedulerAPI is the slice of the appointment scheduler the workflow uses to
// materialize and cascade appointments.
type SchedulerAPI interface {
	IsAvailable(ctx context.Context, practitionerID uuid.UUID, at time.Time) (bool, error)
	Schedule(ctx context.Context, p scheduling.ScheduleParams) (*scheduling.Appointment, error)
	Cancel(ctx context.Context, id uuid.UUID, note string) (*scheduling.Appointment, error)
}

// StockProbe answers the coarse "anything in stock at all" guard applied at
// request creation.
type StockProbe interface {
	AnyProductInStock(ctx context.Context) (bool, error)
}

// TxRunner runs fn inside a single unit of work. Satisfied by db.TxManager.
type TxRunner interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type CreateParams struct {
	ClientID    uuid.UUID
	PatientID   uuid.UUID
	RequestedAt time.Time
	ServiceType string
	Reason      string
}

// Workflow owns the appointment-request state machine:
// pending -> approved|rejected|cancelled, with cancelled also reachable from
// approved (cascading to the materialized appointment).
type Workflow struct {
	repo        Repository
	dir         directory.Directory
	scheduler   SchedulerAPI
	stock       StockProbe
	tx          TxRunner
	publisher   events.Publisher
	minLeadTime time.Duration
	nowFn       func() time.Time
}

func NewWorkflow(
	repo Repository,
	dir directory.Directory,
	scheduler SchedulerAPI,
	stock StockProbe,
	tx TxRunner,
	publisher events.Publisher,
	minLeadTime time.Duration,
) *Workflow {
	return &Workflow{
		repo:        repo,
		dir:         dir,
		scheduler:   scheduler,
		stock:       stock,
		tx:          tx,
		publisher:   publisher,
		minLeadTime: minLeadTime,
		nowFn:       time.Now,
	}
}

// Create files a new pending request on behalf of a client.
func (w *Workflow) Create(ctx context.Context, p CreateParams) (*AppointmentRequest, error) {
	if _, err := w.dir.GetClient(ctx, p.ClientID); err != nil {
		return nil, err
	}

	patient, err := w.dir.GetPatient(ctx, p.PatientID)
	if err != nil {
		return nil, err
	}
	if patient.OwnerID != p.ClientID {
		return nil, ErrPatientOwnershipMismatch
	}

	now := w.nowFn()

	if beforeToday(p.RequestedAt, now) {
		return nil, ErrPastDate
	}
	if p.RequestedAt.Before(now.Add(w.minLeadTime)) {
		return nil, ErrInsufficientLeadTime
	}

	// Coarse operational guard: refuse new requests when the whole inventory
	// is empty, regardless of the service being requested.
	inStock, err := w.stock.AnyProductInStock(ctx)
	if err != nil {
		return nil, err
	}
	if !inStock {
		return nil, ErrNoInventoryAvailable
	}

	created, err := w.repo.InsertRequest(ctx, AppointmentRequest{
		ClientID:    p.ClientID,
		PatientID:   p.PatientID,
		RequestedAt: p.RequestedAt,
		ServiceType: p.ServiceType,
		Reason:      p.Reason,
	})
	if err != nil {
		if errors.Is(err, ErrActiveRequestExists) {
			return nil, err
		}
		return nil, fmt.Errorf("insert request: %w", err)
	}

	events.Emit(ctx, w.publisher, events.Event{
		Type:     events.EventRequestCreated,
		EntityID: created.ID,
		Payload: map[string]any{
			"client_id":    created.ClientID.String(),
			"requested_at": created.RequestedAt,
		},
	})

	return created, nil
}

// Approve re-validates the requested slot, books the appointment, and marks
// the request approved. Any validation failure leaves the request pending.
// Scheduling and the status flip commit together or not at all.
func (w *Workflow) Approve(ctx context.Context, requestID, practitionerID, approverID uuid.UUID) (*AppointmentRequest, error) {
	req, err := w.repo.GetRequest(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("load request: %w", err)
	}

	if req.Status != StatusPending {
		return nil, ErrInvalidStatusTransition
	}

	practitioner, err := w.dir.GetPractitioner(ctx, practitionerID)
	if err != nil {
		return nil, err
	}
	if !practitioner.Active {
		return nil, ErrPractitionerInactive
	}

	now := w.nowFn()

	if req.RequestedAt.Before(now) {
		return nil, ErrPastDate
	}
	if req.RequestedAt.Before(now.Add(w.minLeadTime)) {
		return nil, ErrInsufficientLeadTime
	}
	if !WithinBusinessHours(req.RequestedAt) {
		return nil, ErrOutsideBusinessHours
	}

	available, err := w.scheduler.IsAvailable(ctx, practitionerID, req.RequestedAt)
	if err != nil {
		return nil, err
	}
	if !available {
		return nil, scheduling.ErrDoubleBooking
	}

	var approved *AppointmentRequest

	err = w.tx.WithinTx(ctx, func(txCtx context.Context) error {
		appt, err := w.scheduler.Schedule(txCtx, scheduling.ScheduleParams{
			PatientID:      req.PatientID,
			PractitionerID: practitionerID,
			At:             req.RequestedAt,
			ServiceType:    req.ServiceType,
			Reason:         req.Reason,
		})
		if err != nil {
			return err
		}

		updated, err := w.repo.ApproveRequest(txCtx, req.ID, appt.ID, approverID)
		if err != nil {
			if errors.Is(err, ErrRequestNotFound) {
				// Lost the race against a concurrent resolution.
				return ErrInvalidStatusTransition
			}
			return fmt.Errorf("approve request: %w", err)
		}

		approved = updated
		return nil
	})
	if err != nil {
		return nil, err
	}

	events.Emit(ctx, w.publisher, events.Event{
		Type:     events.EventRequestApproved,
		EntityID: approved.ID,
		Payload: map[string]any{
			"appointment_id": approved.AppointmentID.String(),
			"approved_by":    approverID.String(),
		},
	})

	return approved, nil
}

// Reject resolves a pending request negatively, keeping the reason.
func (w *Workflow) Reject(ctx context.Context, requestID uuid.UUID, reason string, rejecterID uuid.UUID) (*AppointmentRequest, error) {
	req, err := w.repo.GetRequest(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("load request: %w", err)
	}

	if req.Status != StatusPending {
		return nil, ErrInvalidStatusTransition
	}

	updated, err := w.repo.RejectRequest(ctx, req.ID, reason, rejecterID)
	if err != nil {
		if errors.Is(err, ErrRequestNotFound) {
			return nil, ErrInvalidStatusTransition
		}
		return nil, fmt.Errorf("reject request: %w", err)
	}

	events.Emit(ctx, w.publisher, events.Event{
		Type:     events.EventRequestRejected,
		EntityID: updated.ID,
		Payload:  map[string]any{"reason": reason},
	})

	return updated, nil
}

// Cancel withdraws a pending or approved request. An approved request
// cascades to its materialized appointment; if that appointment was already
// cancelled the cascade is a no-op.
func (w *Workflow) Cancel(ctx context.Context, requestID uuid.UUID, actorID *uuid.UUID) (*AppointmentRequest, error) {
	req, err := w.repo.GetRequest(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("load request: %w", err)
	}

	switch req.Status {
	case StatusCancelled:
		return nil, ErrAlreadyCancelled
	case StatusRejected:
		return nil, ErrInvalidStatusTransition
	}

	var cancelled *AppointmentRequest

	err = w.tx.WithinTx(ctx, func(txCtx context.Context) error {
		if req.Status == StatusApproved && req.AppointmentID != nil {
			if _, err := w.scheduler.Cancel(txCtx, *req.AppointmentID, "appointment request cancelled"); err != nil {
				return err
			}
		}

		updated, err := w.repo.CancelRequest(txCtx, req.ID, actorID)
		if err != nil {
			if errors.Is(err, ErrRequestNotFound) {
				return ErrInvalidStatusTransition
			}
			return fmt.Errorf("cancel request: %w", err)
		}

		cancelled = updated
		return nil
	})
	if err != nil {
		return nil, err
	}

	events.Emit(ctx, w.publisher, events.Event{
		Type:     events.EventRequestCancelled,
		EntityID: cancelled.ID,
	})

	return cancelled, nil
}

// ExpireOverduePending cancels pending requests whose requested time already
// passed without a resolution. Intended to be called by the reaper worker.
// Races with concurrent resolutions are tolerated, not errors.
func (w *Workflow) ExpireOverduePending(ctx context.Context) (int, error) {
	overdue, err := w.repo.FindOverduePending(ctx, w.nowFn())
	if err != nil {
		return 0, fmt.Errorf("find overdue pending requests: %w", err)
	}

	var cancelled int
	for _, req := range overdue {
		_, err := w.repo.CancelRequest(ctx, req.ID, nil)
		if err != nil {
			if errors.Is(err, ErrRequestNotFound) {
				continue
			}
			return cancelled, fmt.Errorf("cancel overdue request %s: %w", req.ID, err)
		}
		cancelled++

		events.Emit(ctx, w.publisher, events.Event{
			Type:     events.EventRequestCancelled,
			EntityID: req.ID,
			Payload:  map[string]any{"reason": "overdue"},
		})
	}

	return cancelled, nil
}

func (w *Workflow) GetRequest(ctx context.Context, id uuid.UUID) (*AppointmentRequest, error) {
	req, err := w.repo.GetRequest(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get request: %w", err)
	}
	return req, nil
}

func (w *Workflow) ListRequestsByClient(ctx context.Context, clientID uuid.UUID, limit, offset int) ([]AppointmentRequest, error) {
	if limit <= 0 {
		limit = 20 // default
	}
	if limit > 100 {
		limit = 100 // max
	}
	if offset < 0 {
		offset = 0
	}

	requests, err := w.repo.ListRequestsByClient(ctx, clientID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list requests by client: %w", err)
	}
	return requests, nil
}

// beforeToday compares calendar days in the request's own location.
func beforeToday(t, now time.Time) bool {
	y1, m1, d1 := t.Date()
	y2, m2, d2 := now.Date()
	if y1 != y2 {
		return y1 < y2
	}
	if m1 != m2 {
		return m1 < m2
	}
	return d1 < d2
}
