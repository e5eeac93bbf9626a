package clinical

import (
	"context"

	"github.com/google/uuid"
)

// Repository contains all DB interactions needed by the saga.
type Repository interface {
	GetCatalogService(ctx context.Context, id uuid.UUID) (*CatalogService, error)

	InsertExecution(ctx context.Context, e ServiceExecution) (*ServiceExecution, error)
	GetExecution(ctx context.Context, id uuid.UUID) (*ServiceExecution, error)
	ListExecutionsByAppointment(ctx context.Context, appointmentID uuid.UUID) ([]ServiceExecution, error)
}

// TxRunner runs fn inside a single unit of work. Satisfied by db.TxManager.
type TxRunner interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}
