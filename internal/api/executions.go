package api

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-backend/internal/clinical"
)

func executeServiceHandler(svc *clinical.Saga) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ExecuteServiceRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		appointmentID, err := uuid.Parse(req.AppointmentID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", "appointment_id must be a valid UUID")
			return
		}

		serviceID, err := uuid.Parse(req.ServiceID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_service_id", "service_id must be a valid UUID")
			return
		}

		supplies := make([]clinical.SupplyInput, 0, len(req.Supplies))
		for _, s := range req.Supplies {
			productID, err := uuid.Parse(s.ProductID)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_product_id", "product_id must be a valid UUID")
				return
			}
			supplies = append(supplies, clinical.SupplyInput{
				ProductID: productID,
				Quantity:  s.Quantity,
			})
		}

		var actorID *uuid.UUID
		if req.ActorID != "" {
			id, err := uuid.Parse(req.ActorID)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_actor_id", "actor_id must be a valid UUID")
				return
			}
			actorID = &id
		}

		result, err := svc.Execute(r.Context(), clinical.ExecuteParams{
			AppointmentID: appointmentID,
			ServiceID:     serviceID,
			Supplies:      supplies,
			Cost:          req.Cost,
			Observations:  req.Observations,
			ActorID:       actorID,
		})
		if err != nil {
			handleDomainError(w, err)
			return
		}

		resp := toExecutionResponse(result.Execution)
		resp.InvoiceID = &result.Invoice.ID
		resp.InvoiceNumber = result.Invoice.Number

		writeJSON(w, http.StatusCreated, resp)
	}
}

func listExecutionsHandler(svc *clinical.Saga) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		appointmentID, err := uuid.Parse(r.URL.Query().Get("appointment_id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", "appointment_id must be a valid UUID")
			return
		}

		executions, err := svc.ListExecutionsByAppointment(r.Context(), appointmentID)
		if err != nil {
			handleDomainError(w, err)
			return
		}

		resp := make([]ExecutionResponse, 0, len(executions))
		for i := range executions {
			resp = append(resp, toExecutionResponse(&executions[i]))
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

func getExecutionHandler(svc *clinical.Saga) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(w, r)
		if !ok {
			return
		}

		execution, err := svc.GetExecution(r.Context(), id)
		if err != nil {
			handleDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toExecutionResponse(execution))
	}
}
