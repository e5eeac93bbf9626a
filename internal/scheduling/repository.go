package scheduling

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrAppointmentNotFound = errors.New("appointment not found")
)

// Repository contains all DB interactions needed by the scheduler.
type Repository interface {
	GetAppointment(ctx context.Context, id uuid.UUID) (*Appointment, error)

	// InsertAppointment persists a new scheduled appointment. Returns
	// ErrDoubleBooking when a scheduled appointment already exists for the
	// same practitioner and timestamp; the partial unique index closes the
	// race that an application-level check would leave open.
	InsertAppointment(ctx context.Context, a Appointment) (*Appointment, error)

	// RescheduleAppointment moves a scheduled appointment to a new timestamp
	// as a compare-and-set on status. No row matches when the appointment is
	// missing or no longer scheduled.
	RescheduleAppointment(ctx context.Context, id uuid.UUID, newAt time.Time) (*Appointment, error)

	// UpdateAppointmentStatus moves an appointment between statuses as a
	// compare-and-set. A non-nil reason replaces the stored motive.
	UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, from, to AppointmentStatus, reason *string) (*Appointment, error)

	// HasScheduledAt reports whether a scheduled appointment exists for the
	// practitioner at exactly this timestamp.
	HasScheduledAt(ctx context.Context, practitionerID uuid.UUID, at time.Time) (bool, error)

	ListAppointmentsByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]Appointment, error)
	ListAppointmentsByPractitioner(ctx context.Context, practitionerID uuid.UUID, from, to time.Time) ([]Appointment, error)
}
