package server

import (
	"log/slog"
	"net/http"

	"github.com/clearsol/omtracker/pkg/fees"
	"github.com/clearsol/omtracker/pkg/log"
	"github.com/clearsol/omtracker/pkg/types"
)

type summaryResponse struct {
	types.PortfolioSummary
	Currency        string `json:"currency"`
	CurrencySymbol  string `json:"currencySymbol"`
	TotalMonthlyFmt string `json:"totalMonthlyFmt"`
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
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
	settings, err := s.getSettingsWithMigration(ctx)
	if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to get settings", slog.Any("error", err))
		writeJSONError(w, "failed to get settings", http.StatusInternalServerError)
		return
	}

	summary := fees.Summarize(sites, tiers)

	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, summaryResponse{
		PortfolioSummary: summary,
		Currency:         settings.Currency,
		CurrencySymbol:   settings.CurrencySymbol,
		TotalMonthlyFmt:  fees.Currency(summary.TotalMonthlyFee, settings.CurrencySymbol),
	})
}
