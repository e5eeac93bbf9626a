package inventory

import (
	"time"

	"github.com/google/uuid"
)

type MovementType string

const (
	MovementIn         MovementType = "in"
	MovementOut        MovementType = "out"
	MovementAdjustment MovementType = "adjustment"
)

type Product struct {
	ID        uuid.UUID
	Name      string
	Stock     int
	UnitPrice int64 // minor currency units
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Movement is one append-only ledger entry. Current stock is the running
// balance; the cached products.stock column is kept in the same transaction
// as every movement insert.
type Movement struct {
	ID         uuid.UUID
	ProductID  uuid.UUID
	Type       MovementType
	Quantity   int
	PriorStock int
	NewStock   int
	Reference  *uuid.UUID
	ActorID    *uuid.UUID
	CreatedAt  time.Time
}
