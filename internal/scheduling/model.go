package scheduling

import (
	"time"

	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	StatusScheduled AppointmentStatus = "scheduled"
	StatusCompleted AppointmentStatus = "completed"
	StatusCancelled AppointmentStatus = "cancelled"
)

type Appointment struct {
	ID             uuid.UUID
	PatientID      uuid.UUID
	PractitionerID uuid.UUID
	ScheduledAt    time.Time
	Status         AppointmentStatus
	ServiceType    string
	// Reason holds the visit motive. Cancellation notes are appended here
	// rather than stored separately.
	Reason      string
	TriageLevel *int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
