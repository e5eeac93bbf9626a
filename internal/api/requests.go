package api

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-backend/internal/request"
)

func createRequestHandler(svc *request.Workflow) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateRequestRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		clientID, err := uuid.Parse(req.ClientID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_client_id", "client_id must be a valid UUID")
			return
		}

		patientID, err := uuid.Parse(req.PatientID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_patient_id", "patient_id must be a valid UUID")
			return
		}

		created, err := svc.Create(r.Context(), request.CreateParams{
			ClientID:    clientID,
			PatientID:   patientID,
			RequestedAt: req.RequestedAt,
			ServiceType: req.ServiceType,
			Reason:      req.Reason,
		})
		if err != nil {
			handleDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toRequestResponse(created))
	}
}

func getRequestHandler(svc *request.Workflow) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(w, r)
		if !ok {
			return
		}

		req, err := svc.GetRequest(r.Context(), id)
		if err != nil {
			handleDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toRequestResponse(req))
	}
}

func listRequestsHandler(svc *request.Workflow) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clientID, err := uuid.Parse(r.URL.Query().Get("client_id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_client_id", "client_id must be a valid UUID")
			return
		}

		limit, offset := parsePage(r)

		requests, err := svc.ListRequestsByClient(r.Context(), clientID, limit, offset)
		if err != nil {
			handleDomainError(w, err)
			return
		}

		resp := make([]RequestResponse, 0, len(requests))
		for i := range requests {
			resp = append(resp, toRequestResponse(&requests[i]))
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

func approveRequestHandler(svc *request.Workflow) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(w, r)
		if !ok {
			return
		}

		var req ApproveRequestRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		practitionerID, err := uuid.Parse(req.PractitionerID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_practitioner_id", "practitioner_id must be a valid UUID")
			return
		}

		approverID, err := uuid.Parse(req.ApproverID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_approver_id", "approver_id must be a valid UUID")
			return
		}

		approved, err := svc.Approve(r.Context(), id, practitionerID, approverID)
		if err != nil {
			handleDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toRequestResponse(approved))
	}
}

func rejectRequestHandler(svc *request.Workflow) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(w, r)
		if !ok {
			return
		}

		var req RejectRequestRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		rejecterID, err := uuid.Parse(req.RejecterID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_rejecter_id", "rejecter_id must be a valid UUID")
			return
		}

		rejected, err := svc.Reject(r.Context(), id, req.Reason, rejecterID)
		if err != nil {
			handleDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toRequestResponse(rejected))
	}
}

func cancelRequestHandler(svc *request.Workflow) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(w, r)
		if !ok {
			return
		}

		var req CancelRequestRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
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

		cancelled, err := svc.Cancel(r.Context(), id, actorID)
		if err != nil {
			handleDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toRequestResponse(cancelled))
	}
}
