package api

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-backend/internal/inventory"
)

func getProductHandler(svc *inventory.Ledger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(w, r)
		if !ok {
			return
		}

		p, err := svc.GetProduct(r.Context(), id)
		if err != nil {
			handleDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, ProductResponse{
			ID:        p.ID,
			Name:      p.Name,
			Stock:     p.Stock,
			UnitPrice: p.UnitPrice,
		})
	}
}

func listMovementsHandler(svc *inventory.Ledger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(w, r)
		if !ok {
			return
		}

		limit, offset := parsePage(r)

		movements, err := svc.ListMovements(r.Context(), id, limit, offset)
		if err != nil {
			handleDomainError(w, err)
			return
		}

		resp := make([]MovementResponse, 0, len(movements))
		for i := range movements {
			resp = append(resp, toMovementResponse(&movements[i]))
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

func adjustStockHandler(svc *inventory.Ledger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseIDParam(w, r)
		if !ok {
			return
		}

		var req AdjustStockRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		var actorID *uuid.UUID
		if req.ActorID != "" {
			aid, err := uuid.Parse(req.ActorID)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_actor_id", "actor_id must be a valid UUID")
				return
			}
			actorID = &aid
		}

		m, err := svc.Adjust(r.Context(), id, req.Delta, actorID)
		if err != nil {
			handleDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toMovementResponse(m))
	}
}
