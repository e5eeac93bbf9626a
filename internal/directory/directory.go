package directory

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrPatientNotFound      = errors.New("patient not found")
	ErrClientNotFound       = errors.New("client not found")
	ErrPractitionerNotFound = errors.New("practitioner not found")
)

type Patient struct {
	ID        uuid.UUID
	OwnerID   uuid.UUID
	Name      string
	Species   *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Client struct {
	ID        uuid.UUID
	Name      string
	Email     *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Practitioner struct {
	ID        uuid.UUID
	Name      string
	Specialty *string
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Directory resolves people references for ownership and availability checks.
type Directory interface {
	GetPatient(ctx context.Context, id uuid.UUID) (*Patient, error)
	GetClient(ctx context.Context, id uuid.UUID) (*Client, error)
	GetPractitioner(ctx context.Context, id uuid.UUID) (*Practitioner, error)
}
