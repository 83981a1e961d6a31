package server

import (
	"log/slog"
	"net/http"

	"github.com/clearsol/omtracker/pkg/fees"
	"github.com/clearsol/omtracker/pkg/log"
)

func (s *Server) handleListSPVs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	spvs, err := s.storage.ListSPVs(ctx)
	if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to list spvs", slog.Any("error", err))
		writeJSONError(w, "failed to list spvs", http.StatusInternalServerError)
		return
	}
	sites, err := s.storage.ListSites(ctx)
	if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to list sites", slog.Any("error", err))
		writeJSONError(w, "failed to list sites", http.StatusInternalServerError)
		return
	}
	tiers, err := s.storage.ListRateTiers(ctx)
	if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to list rate tiers", slog.Any("error", err))
		writeJSONError(w, "failed to list rate tiers", http.StatusInternalServerError)
		return
	}

	writeJSON(w, fees.SummarizeSPVs(spvs, sites, tiers))
}
