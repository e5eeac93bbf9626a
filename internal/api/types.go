package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-backend/internal/billing"
	"github.com/hackgods/clinic-backend/internal/clinical"
	"github.com/hackgods/clinic-backend/internal/inventory"
	"github.com/hackgods/clinic-backend/internal/request"
	"github.com/hackgods/clinic-backend/internal/scheduling"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

type ScheduleAppointmentRequest struct {
	PatientID      string    `json:"patient_id"`
	PractitionerID string    `json:"practitioner_id"`
	ScheduledAt    time.Time `json:"scheduled_at"`
	ServiceType    string    `json:"service_type"`
	Reason         string    `json:"reason"`
	TriageLevel    *int      `json:"triage_level,omitempty"`
}

type RescheduleAppointmentRequest struct {
	ScheduledAt time.Time `json:"scheduled_at"`
}

type CancelAppointmentRequest struct {
	Reason string `json:"reason"`
}

type AppointmentResponse struct {
	ID             uuid.UUID `json:"id"`
	PatientID      uuid.UUID `json:"patient_id"`
	PractitionerID uuid.UUID `json:"practitioner_id"`
	ScheduledAt    time.Time `json:"scheduled_at"`
	Status         string    `json:"status"`
	ServiceType    string    `json:"service_type"`
	Reason         string    `json:"reason"`
	TriageLevel    *int      `json:"triage_level,omitempty"`
}

func toAppointmentResponse(a *scheduling.Appointment) AppointmentResponse {
	return AppointmentResponse{
		ID:             a.ID,
		PatientID:      a.PatientID,
		PractitionerID: a.PractitionerID,
		ScheduledAt:    a.ScheduledAt,
		Status:         string(a.Status),
		ServiceType:    a.ServiceType,
		Reason:         a.Reason,
		TriageLevel:    a.TriageLevel,
	}
}

type CreateRequestRequest struct {
	ClientID    string    `json:"client_id"`
	PatientID   string    `json:"patient_id"`
	RequestedAt time.Time `json:"requested_at"`
	ServiceType string    `json:"service_type"`
	Reason      string    `json:"reason"`
}

type ApproveRequestRequest struct {
	PractitionerID string `json:"practitioner_id"`
	ApproverID     string `json:"approver_id"`
}

type RejectRequestRequest struct {
	Reason     string `json:"reason"`
	RejecterID string `json:"rejecter_id"`
}

type CancelRequestRequest struct {
	ActorID string `json:"actor_id,omitempty"`
}

type RequestResponse struct {
	ID              uuid.UUID  `json:"id"`
	ClientID        uuid.UUID  `json:"client_id"`
	PatientID       uuid.UUID  `json:"patient_id"`
	RequestedAt     time.Time  `json:"requested_at"`
	ServiceType     string     `json:"service_type"`
	Reason          string     `json:"reason"`
	Status          string     `json:"status"`
	RejectionReason *string    `json:"rejection_reason,omitempty"`
	AppointmentID   *uuid.UUID `json:"appointment_id,omitempty"`
	ApprovedAt      *time.Time `json:"approved_at,omitempty"`
	RejectedAt      *time.Time `json:"rejected_at,omitempty"`
	CancelledAt     *time.Time `json:"cancelled_at,omitempty"`
}

func toRequestResponse(r *request.AppointmentRequest) RequestResponse {
	return RequestResponse{
		ID:              r.ID,
		ClientID:        r.ClientID,
		PatientID:       r.PatientID,
		RequestedAt:     r.RequestedAt,
		ServiceType:     r.ServiceType,
		Reason:          r.Reason,
		Status:          string(r.Status),
		RejectionReason: r.RejectionReason,
		AppointmentID:   r.AppointmentID,
		ApprovedAt:      r.ApprovedAt,
		RejectedAt:      r.RejectedAt,
		CancelledAt:     r.CancelledAt,
	}
}

type ExecuteServiceRequest struct {
	AppointmentID string        `json:"appointment_id"`
	ServiceID     string        `json:"service_id"`
	Supplies      []SupplyInput `json:"supplies"`
	Cost          int64         `json:"cost"`
	Observations  string        `json:"observations"`
	ActorID       string        `json:"actor_id,omitempty"`
}

type SupplyInput struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type ExecutionResponse struct {
	ID            uuid.UUID        `json:"id"`
	AppointmentID uuid.UUID        `json:"appointment_id"`
	ServiceID     uuid.UUID        `json:"service_id"`
	ExecutedAt    time.Time        `json:"executed_at"`
	Observations  string           `json:"observations,omitempty"`
	TotalCost     int64            `json:"total_cost"`
	Supplies      []SupplyResponse `json:"supplies,omitempty"`
	InvoiceID     *uuid.UUID       `json:"invoice_id,omitempty"`
	InvoiceNumber string           `json:"invoice_number,omitempty"`
}

type SupplyResponse struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
	UnitPrice int64     `json:"unit_price"`
}

func toExecutionResponse(e *clinical.ServiceExecution) ExecutionResponse {
	resp := ExecutionResponse{
		ID:            e.ID,
		AppointmentID: e.AppointmentID,
		ServiceID:     e.ServiceID,
		ExecutedAt:    e.ExecutedAt,
		Observations:  e.Observations,
		TotalCost:     e.TotalCost,
	}
	for _, s := range e.Supplies {
		resp.Supplies = append(resp.Supplies, SupplyResponse{
			ProductID: s.ProductID,
			Quantity:  s.Quantity,
			UnitPrice: s.UnitPrice,
		})
	}
	return resp
}

type PayInvoiceRequest struct {
	Method string `json:"method"`
}

type InvoiceResponse struct {
	ID            uuid.UUID `json:"id"`
	Number        string    `json:"number"`
	CustomerID    uuid.UUID `json:"customer_id"`
	Total         int64     `json:"total"`
	Status        string    `json:"status"`
	PaymentMethod *string   `json:"payment_method,omitempty"`
	IssuedAt      time.Time `json:"issued_at"`
}

func toInvoiceResponse(inv *billing.Invoice) InvoiceResponse {
	return InvoiceResponse{
		ID:            inv.ID,
		Number:        inv.Number,
		CustomerID:    inv.CustomerID,
		Total:         inv.Total,
		Status:        string(inv.Status),
		PaymentMethod: inv.PaymentMethod,
		IssuedAt:      inv.IssuedAt,
	}
}

type AdjustStockRequest struct {
	Delta   int    `json:"delta"`
	ActorID string `json:"actor_id,omitempty"`
}

type ProductResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Stock     int       `json:"stock"`
	UnitPrice int64     `json:"unit_price"`
}

type MovementResponse struct {
	ID         uuid.UUID  `json:"id"`
	ProductID  uuid.UUID  `json:"product_id"`
	Type       string     `json:"type"`
	Quantity   int        `json:"quantity"`
	PriorStock int        `json:"prior_stock"`
	NewStock   int        `json:"new_stock"`
	Reference  *uuid.UUID `json:"reference,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

func toMovementResponse(m *inventory.Movement) MovementResponse {
	return MovementResponse{
		ID:         m.ID,
		ProductID:  m.ProductID,
		Type:       string(m.Type),
		Quantity:   m.Quantity,
		PriorStock: m.PriorStock,
		NewStock:   m.NewStock,
		Reference:  m.Reference,
		CreatedAt:  m.CreatedAt,
	}
}
