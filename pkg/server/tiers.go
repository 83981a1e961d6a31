package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/clearsol/omtracker/pkg/log"
	"github.com/clearsol/omtracker/pkg/storage"
)

func (s *Server) handleListTiers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tiers, err := s.storage.ListRateTiers(ctx)
	if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to list rate tiers", slog.Any("error", err))
		writeJSONError(w, "failed to list rate tiers", http.StatusInternalServerError)
		return
	}
	writeJSON(w, tiers)
}

func (s *Server) handleUpdateTierRate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tierID := r.PathValue("tierID")

	var req struct {
		RatePerKWp float64 `json:"ratePerKWp"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.RatePerKWp < 0 {
		writeJSONError(w, "rate cannot be negative", http.StatusBadRequest)
		return
	}

	if err := s.storage.UpdateRateTierRate(ctx, tierID, req.RatePerKWp); err != nil {
		if errors.Is(err, storage.ErrTierNotFound) {
			writeJSONError(w, "rate tier not found", http.StatusNotFound)
			return
		}
		log.Ctx(ctx).ErrorContext(ctx, "failed to update rate tier", slog.String("tierID", tierID), slog.Any("error", err))
		writeJSONError(w, "failed to update rate tier", http.StatusInternalServerError)
		return
	}
	s.audit(ctx, r, "rate_tiers", tierID, "update", fmt.Sprintf("rate set to %.4f", req.RatePerKWp))
	log.Ctx(ctx).InfoContext(ctx, "rate tier updated", slog.String("tierID", tierID), slog.Float64("ratePerKWp", req.RatePerKWp))

	w.WriteHeader(http.StatusOK)
}
