package billing

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

type InvoiceStatus string

const (
	StatusPending InvoiceStatus = "pending"
	StatusPaid    InvoiceStatus = "paid"
	StatusVoid    InvoiceStatus = "void"
)

var (
	ErrInvoiceNotFound         = errors.New("invoice not found")
	ErrInvalidAmount           = errors.New("invoice total must not be negative")
	ErrInvalidStatusTransition = errors.New("invalid invoice status transition")
	ErrNumberTaken             = errors.New("invoice number already taken")
)

type Invoice struct {
	ID            uuid.UUID
	Number        string
	CustomerID    uuid.UUID
	Total         int64 // minor currency units, never negative
	Status        InvoiceStatus
	PaymentMethod *string
	IssuedAt      time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
