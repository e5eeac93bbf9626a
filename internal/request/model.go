package request

import (
	"time"

	"github.com/google/uuid"
)

type RequestStatus string

const (
	StatusPending   RequestStatus = "pending"
	StatusApproved  RequestStatus = "approved"
	StatusRejected  RequestStatus = "rejected"
	StatusCancelled RequestStatus = "cancelled"
)

// AppointmentRequest is a client's ask for an appointment, pending staff
// review. Rows are never deleted; every resolution is a status change with
// its audit pair.
type AppointmentRequest struct {
	ID          uuid.UUID
	ClientID    uuid.UUID
	PatientID   uuid.UUID
	RequestedAt time.Time
	ServiceType string
	Reason      string
	Status      RequestStatus

	RejectionReason *string
	AppointmentID   *uuid.UUID

	ApprovedBy  *uuid.UUID
	ApprovedAt  *time.Time
	RejectedBy  *uuid.UUID
	RejectedAt  *time.Time
	CancelledBy *uuid.UUID
	CancelledAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}
