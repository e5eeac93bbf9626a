package events

import (
	"time"

	"github.com/google/uuid"
)

// Lifecycle events emitted after state transitions commit. Delivery is
// best-effort: a lost event never fails the business operation that caused it.
const (
	EventRequestCreated   = "REQUEST_CREATED"
	EventRequestApproved  = "REQUEST_APPROVED"
	EventRequestRejected  = "REQUEST_REJECTED"
	EventRequestCancelled = "REQUEST_CANCELLED"

	EventAppointmentScheduled   = "APPOINTMENT_SCHEDULED"
	EventAppointmentRescheduled = "APPOINTMENT_RESCHEDULED"
	EventAppointmentCancelled   = "APPOINTMENT_CANCELLED"
	EventAppointmentCompleted   = "APPOINTMENT_COMPLETED"

	EventServiceExecuted = "SERVICE_EXECUTED"
	EventInvoiceIssued   = "INVOICE_ISSUED"
	EventInvoicePaid     = "INVOICE_PAID"
	EventInvoiceVoided   = "INVOICE_VOIDED"
)

type Event struct {
	Type       string         `json:"type"`
	EntityID   uuid.UUID      `json:"entity_id"`
	OccurredAt time.Time      `json:"occurred_at"`
	Payload    map[string]any `json:"payload,omitempty"`
}

// Publisher is the notification trigger point for lifecycle transitions.
// Callers must treat it as fire-and-forget.
type Publisher interface {
	Publish(event Event)
	Close() error
}

// NopPublisher drops every event. Used when no broker is configured and in tests.
type NopPublisher struct{}

func (NopPublisher) Publish(Event) {}

func (NopPublisher) Close() error { return nil }
