package request

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrRequestNotFound = errors.New("appointment request not found")
)

// Repository contains all DB interactions needed by the workflow.
type Repository interface {
	GetRequest(ctx context.Context, id uuid.UUID) (*AppointmentRequest, error)

	// InsertRequest persists a new pending request. Returns
	// ErrActiveRequestExists when the client already holds a pending or
	// approved request; the partial unique index makes two concurrent
	// creates impossible.
	InsertRequest(ctx context.Context, r AppointmentRequest) (*AppointmentRequest, error)

	// Status transitions, all compare-and-set on the current status.
	ApproveRequest(ctx context.Context, id, appointmentID, approvedBy uuid.UUID) (*AppointmentRequest, error)
	RejectRequest(ctx context.Context, id uuid.UUID, reason string, rejectedBy uuid.UUID) (*AppointmentRequest, error)
	CancelRequest(ctx context.Context, id uuid.UUID, cancelledBy *uuid.UUID) (*AppointmentRequest, error)

	ListRequestsByClient(ctx context.Context, clientID uuid.UUID, limit, offset int) ([]AppointmentRequest, error)

	// FindOverduePending lists pending requests whose requested time already
	// passed. Consumed by the reaper worker.
	FindOverduePending(ctx context.Context, now time.Time) ([]AppointmentRequest, error)
}
