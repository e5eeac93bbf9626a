package api

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-backend/internal/billing"
)

func getInvoiceHandler(svc *billing.Factory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(w, r)
		if !ok {
			return
		}

		inv, err := svc.GetInvoice(r.Context(), id)
		if err != nil {
			handleDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toInvoiceResponse(inv))
	}
}

func listInvoicesHandler(svc *billing.Factory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		customerID, err := uuid.Parse(r.URL.Query().Get("customer_id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_customer_id", "customer_id must be a valid UUID")
			return
		}

		limit, offset := parsePage(r)

		invoices, err := svc.ListInvoicesByCustomer(r.Context(), customerID, limit, offset)
		if err != nil {
			handleDomainError(w, err)
			return
		}

		resp := make([]InvoiceResponse, 0, len(invoices))
		for i := range invoices {
			resp = append(resp, toInvoiceResponse(&invoices[i]))
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

func payInvoiceHandler(svc *billing.Factory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(w, r)
		if !ok {
			return
		}

		var req PayInvoiceRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		if req.Method == "" {
			writeError(w, http.StatusBadRequest, "missing_payment_method", "method is required")
			return
		}

		inv, err := svc.Pay(r.Context(), id, req.Method)
		if err != nil {
			handleDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toInvoiceResponse(inv))
	}
}

func voidInvoiceHandler(svc *billing.Factory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(w, r)
		if !ok {
			return
		}

		inv, err := svc.Void(r.Context(), id)
		if err != nil {
			handleDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toInvoiceResponse(inv))
	}
}
