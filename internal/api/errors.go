package api

import (
	"errors"
	"net/http"

	"github.com/hackgods/clinic-backend/internal/billing"
	"github.com/hackgods/clinic-backend/internal/clinical"
	"github.com/hackgods/clinic-backend/internal/directory"
	"github.com/hackgods/clinic-backend/internal/inventory"
	redisclient "github.com/hackgods/clinic-backend/internal/redis"
	"github.com/hackgods/clinic-backend/internal/request"
	"github.com/hackgods/clinic-backend/internal/scheduling"
)

// handleDomainError maps domain sentinels to HTTP responses. Kinds stay
// distinguishable all the way out: a stock shortage never masquerades as a
// generic failure.
func handleDomainError(w http.ResponseWriter, err error) {
	switch {
	// Missing entities
	case errors.Is(err, scheduling.ErrAppointmentNotFound):
		writeError(w, http.StatusNotFound, "appointment_not_found", err.Error())
	case errors.Is(err, request.ErrRequestNotFound):
		writeError(w, http.StatusNotFound, "request_not_found", err.Error())
	case errors.Is(err, inventory.ErrProductNotFound):
		writeError(w, http.StatusNotFound, "product_not_found", err.Error())
	case errors.Is(err, billing.ErrInvoiceNotFound):
		writeError(w, http.StatusNotFound, "invoice_not_found", err.Error())
	case errors.Is(err, clinical.ErrServiceNotFound):
		writeError(w, http.StatusNotFound, "service_not_found", err.Error())
	case errors.Is(err, clinical.ErrExecutionNotFound):
		writeError(w, http.StatusNotFound, "execution_not_found", err.Error())
	case errors.Is(err, directory.ErrPatientNotFound):
		writeError(w, http.StatusNotFound, "patient_not_found", err.Error())
	case errors.Is(err, directory.ErrClientNotFound):
		writeError(w, http.StatusNotFound, "client_not_found", err.Error())
	case errors.Is(err, directory.ErrPractitionerNotFound):
		writeError(w, http.StatusNotFound, "practitioner_not_found", err.Error())

	// Domain conflicts
	case errors.Is(err, scheduling.ErrDoubleBooking):
		writeError(w, http.StatusConflict, "double_booking", err.Error())
	case errors.Is(err, request.ErrActiveRequestExists):
		writeError(w, http.StatusConflict, "active_request_exists", err.Error())
	case errors.Is(err, request.ErrAlreadyCancelled):
		writeError(w, http.StatusConflict, "already_cancelled", err.Error())
	case errors.Is(err, inventory.ErrInsufficientStock):
		writeError(w, http.StatusConflict, "insufficient_stock", err.Error())
	case errors.Is(err, scheduling.ErrSlotBeingBooked),
		errors.Is(err, redisclient.ErrLockNotAcquired):
		writeError(w, http.StatusConflict, "slot_being_booked", "slot is currently being booked, please retry shortly")

	// Invalid state transitions
	case errors.Is(err, scheduling.ErrInvalidStatusTransition),
		errors.Is(err, request.ErrInvalidStatusTransition),
		errors.Is(err, billing.ErrInvalidStatusTransition):
		writeError(w, http.StatusBadRequest, "invalid_status_transition", err.Error())

	// Validation failures
	case errors.Is(err, scheduling.ErrPastDateTime),
		errors.Is(err, request.ErrPastDate):
		writeError(w, http.StatusBadRequest, "past_date", err.Error())
	case errors.Is(err, request.ErrInsufficientLeadTime):
		writeError(w, http.StatusBadRequest, "insufficient_lead_time", err.Error())
	case errors.Is(err, request.ErrOutsideBusinessHours):
		writeError(w, http.StatusBadRequest, "outside_business_hours", err.Error())
	case errors.Is(err, request.ErrNoInventoryAvailable):
		writeError(w, http.StatusBadRequest, "no_inventory_available", err.Error())
	case errors.Is(err, request.ErrPractitionerInactive):
		writeError(w, http.StatusBadRequest, "practitioner_inactive", err.Error())
	case errors.Is(err, inventory.ErrInvalidQuantity):
		writeError(w, http.StatusBadRequest, "invalid_quantity", err.Error())
	case errors.Is(err, billing.ErrInvalidAmount):
		writeError(w, http.StatusBadRequest, "invalid_amount", err.Error())
	case errors.Is(err, scheduling.ErrInvalidWindow):
		writeError(w, http.StatusBadRequest, "invalid_window", err.Error())

	// Authorization-adjacent
	case errors.Is(err, request.ErrPatientOwnershipMismatch):
		writeError(w, http.StatusForbidden, "patient_ownership_mismatch", err.Error())

	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
