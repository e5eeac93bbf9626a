package scheduling

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-backend/internal/events"
	redisclient "github.com/hackgods/clinic-backend/internal/redis"
)

var (
	ErrDoubleBooking           = errors.New("practitioner already has a scheduled appointment at this time")
	ErrSlotBeingBooked         = errors.New("slot is currently being booked, please retry")
	ErrPastDateTime            = errors.New("appointment time is in the past")
	ErrInvalidStatusTransition = errors.New("invalid appointment status transition")
	ErrInvalidWindow           = errors.New("invalid time window")
)

type ScheduleParams struct {
	PatientID      uuid.UUID
	PractitionerID uuid.UUID
	At             time.Time
	ServiceType    string
	Reason         string
	TriageLevel    *int
}

// Scheduler owns the appointment lifecycle: scheduled -> completed|cancelled,
// both terminal. Double-booking is checked per practitioner and exact
// timestamp, not per interval.
type Scheduler struct {
	repo      Repository
	locker    redisclient.Locker
	publisher events.Publisher
	nowFn     func() time.Time
}

func NewScheduler(repo Repository, locker redisclient.Locker, publisher events.Publisher) *Scheduler {
	return &Scheduler{
		repo:      repo,
		locker:    locker,
		publisher: publisher,
		nowFn:     time.Now,
	}
}

// Schedule books a practitioner slot for a patient. The Redis lock keeps
// concurrent bookers for the same slot from racing to the unique index; the
// index remains the hard guarantee either way.
func (s *Scheduler) Schedule(ctx context.Context, p ScheduleParams) (*Appointment, error) {
	if p.At.Before(s.nowFn()) {
		return nil, ErrPastDateTime
	}

	var created *Appointment

	err := s.locker.WithScheduleLock(ctx, p.PractitionerID, p.At, func(lockCtx context.Context) error {
		appt, err := s.repo.InsertAppointment(lockCtx, Appointment{
			PatientID:      p.PatientID,
			PractitionerID: p.PractitionerID,
			ScheduledAt:    p.At,
			ServiceType:    p.ServiceType,
			Reason:         p.Reason,
			TriageLevel:    p.TriageLevel,
		})
		if err != nil {
			if errors.Is(err, ErrDoubleBooking) {
				return err
			}
			return fmt.Errorf("insert appointment: %w", err)
		}

		created = appt
		return nil
	})
	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrSlotBeingBooked
		}
		return nil, err
	}

	events.Emit(ctx, s.publisher, events.Event{
		Type:     events.EventAppointmentScheduled,
		EntityID: created.ID,
		Payload: map[string]any{
			"practitioner_id": created.PractitionerID.String(),
			"scheduled_at":    created.ScheduledAt,
		},
	})

	return created, nil
}

// Reschedule moves a scheduled appointment to a new time, re-running the
// past-date and double-booking checks against the new slot.
func (s *Scheduler) Reschedule(ctx context.Context, id uuid.UUID, newAt time.Time) (*Appointment, error) {
	appt, err := s.repo.GetAppointment(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load appointment: %w", err)
	}

	if appt.Status != StatusScheduled {
		return nil, ErrInvalidStatusTransition
	}

	if newAt.Before(s.nowFn()) {
		return nil, ErrPastDateTime
	}

	var updated *Appointment

	err = s.locker.WithScheduleLock(ctx, appt.PractitionerID, newAt, func(lockCtx context.Context) error {
		moved, err := s.repo.RescheduleAppointment(lockCtx, id, newAt)
		if err != nil {
			if errors.Is(err, ErrDoubleBooking) {
				return err
			}
			if errors.Is(err, ErrAppointmentNotFound) {
				// Lost the race against a concurrent cancel/complete.
				return ErrInvalidStatusTransition
			}
			return fmt.Errorf("reschedule appointment: %w", err)
		}

		updated = moved
		return nil
	})
	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrSlotBeingBooked
		}
		return nil, err
	}

	events.Emit(ctx, s.publisher, events.Event{
		Type:     events.EventAppointmentRescheduled,
		EntityID: updated.ID,
		Payload:  map[string]any{"scheduled_at": updated.ScheduledAt},
	})

	return updated, nil
}

// Cancel cancels an appointment that has not been completed. Cancelling an
// already-cancelled appointment is a no-op so that request-cascade callers
// can retry safely. The cancellation note is appended to the stored motive.
func (s *Scheduler) Cancel(ctx context.Context, id uuid.UUID, note string) (*Appointment, error) {
	appt, err := s.repo.GetAppointment(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load appointment: %w", err)
	}

	switch appt.Status {
	case StatusCompleted:
		return nil, ErrInvalidStatusTransition
	case StatusCancelled:
		return appt, nil
	}

	reason := appt.Reason
	if note != "" {
		if reason != "" {
			reason += " | "
		}
		reason += "cancelled: " + note
	}

	updated, err := s.repo.UpdateAppointmentStatus(ctx, id, StatusScheduled, StatusCancelled, &reason)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			return nil, ErrInvalidStatusTransition
		}
		return nil, fmt.Errorf("cancel appointment: %w", err)
	}

	events.Emit(ctx, s.publisher, events.Event{
		Type:     events.EventAppointmentCancelled,
		EntityID: updated.ID,
	})

	return updated, nil
}

// Complete marks a scheduled appointment as completed.
func (s *Scheduler) Complete(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	appt, err := s.repo.GetAppointment(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load appointment: %w", err)
	}

	if appt.Status != StatusScheduled {
		return nil, ErrInvalidStatusTransition
	}

	updated, err := s.repo.UpdateAppointmentStatus(ctx, id, StatusScheduled, StatusCompleted, nil)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			return nil, ErrInvalidStatusTransition
		}
		return nil, fmt.Errorf("complete appointment: %w", err)
	}

	events.Emit(ctx, s.publisher, events.Event{
		Type:     events.EventAppointmentCompleted,
		EntityID: updated.ID,
	})

	return updated, nil
}

// IsAvailable is a read-only probe used by the approval flow. Schedule remains
// the authority under concurrency.
func (s *Scheduler) IsAvailable(ctx context.Context, practitionerID uuid.UUID, at time.Time) (bool, error) {
	taken, err := s.repo.HasScheduledAt(ctx, practitionerID, at)
	if err != nil {
		return false, fmt.Errorf("check availability: %w", err)
	}
	return !taken, nil
}

func (s *Scheduler) GetAppointment(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	appt, err := s.repo.GetAppointment(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get appointment: %w", err)
	}
	return appt, nil
}

func (s *Scheduler) ListAppointmentsByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]Appointment, error) {
	if limit <= 0 {
		limit = 20 // default
	}
	if limit > 100 {
		limit = 100 // max
	}
	if offset < 0 {
		offset = 0
	}

	appointments, err := s.repo.ListAppointmentsByPatient(ctx, patientID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list appointments by patient: %w", err)
	}
	return appointments, nil
}

// ListAppointmentsByPractitioner returns a practitioner's agenda in
// [from, to). A zero "to" means one week from "from".
func (s *Scheduler) ListAppointmentsByPractitioner(ctx context.Context, practitionerID uuid.UUID, from, to time.Time) ([]Appointment, error) {
	if from.IsZero() {
		from = s.nowFn()
	}
	if to.IsZero() {
		to = from.AddDate(0, 0, 7)
	}
	if !to.After(from) {
		return nil, fmt.Errorf("%w: window end must be after start", ErrInvalidWindow)
	}

	appointments, err := s.repo.ListAppointmentsByPractitioner(ctx, practitionerID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list appointments by practitioner: %w", err)
	}
	return appointments, nil
}
