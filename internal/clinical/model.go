package clinical

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrServiceNotFound   = errors.New("catalog service not found")
	ErrExecutionNotFound = errors.New("service execution not found")
)

// CatalogService is an entry of the clinic's service catalog (consultation,
// surgery, vaccination, ...).
type CatalogService struct {
	ID        uuid.UUID
	Name      string
	BasePrice int64
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ConsumedSupply records one product drawn from inventory during an
// execution, with the unit price frozen at consumption time.
type ConsumedSupply struct {
	ProductID uuid.UUID
	Quantity  int
	UnitPrice int64
}

// ServiceExecution is the record of a clinical service actually performed.
// Created once by the saga, immutable afterwards.
type ServiceExecution struct {
	ID            uuid.UUID
	AppointmentID uuid.UUID
	ServiceID     uuid.UUID
	ExecutedAt    time.Time
	Observations  string
	TotalCost     int64
	Supplies      []ConsumedSupply
	CreatedAt     time.Time
}
