package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/clearsol/omtracker/pkg/fees"
	"github.com/clearsol/omtracker/pkg/log"
	"github.com/clearsol/omtracker/pkg/storage"
	"github.com/clearsol/omtracker/pkg/types"
	"github.com/google/uuid"
)

// audit records a mutation in the audit log. Failures are logged and
// swallowed so the mutation itself still succeeds.
func (s *Server) audit(ctx context.Context, r *http.Request, table, recordID, action, detail string) {
	entry := types.AuditEntry{
		Timestamp: time.Now().UTC(),
		Table:     table,
		RecordID:  recordID,
		Action:    action,
		Detail:    detail,
		UserEmail: s.getUser(r).Email,
	}
	if err := s.storage.InsertAudit(ctx, entry); err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to insert audit entry", slog.String("table", table), slog.String("action", action), slog.Any("error", err))
	}
}

func validateSite(site types.Site) error {
	if site.Name == "" {
		return errors.New("site name is required")
	}
	if site.SystemSizeKWp < 0 {
		return errors.New("system size cannot be negative")
	}
	if site.PMCost < 0 || site.CCTVCost < 0 || site.CleaningCost < 0 {
		return errors.New("costs cannot be negative")
	}
	return nil
}

// resolveSPV fills in the SPV ID from the code, if one is assigned. An
// unknown code is kept as-is so the site still groups under its code.
func (s *Server) resolveSPV(ctx context.Context, site *types.Site) {
	if site.SPVCode == "" {
		site.SPVID = ""
		return
	}
	spv, err := s.storage.GetSPVByCode(ctx, site.SPVCode)
	if err != nil {
		if !errors.Is(err, storage.ErrSPVNotFound) {
			log.Ctx(ctx).ErrorContext(ctx, "failed to look up spv", slog.String("code", site.SPVCode), slog.Any("error", err))
		}
		site.SPVID = ""
		return
	}
	site.SPVID = spv.ID
}

func (s *Server) handleListSites(w http.ResponseWriter, r *http.Request) {
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

	calcs := make([]types.SiteCalculation, len(sites))
	for i, site := range sites {
		calcs[i] = fees.CalculateSite(site, tiers)
	}

	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, calcs)
}

func (s *Server) handleGetSite(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	siteID := r.PathValue("siteID")

	site, err := s.storage.GetSite(ctx, siteID)
	if err != nil {
		if errors.Is(err, storage.ErrSiteNotFound) {
			writeJSONError(w, "site not found", http.StatusNotFound)
			return
		}
		log.Ctx(ctx).ErrorContext(ctx, "failed to get site", slog.String("siteID", siteID), slog.Any("error", err))
		writeJSONError(w, "failed to get site", http.StatusInternalServerError)
		return
	}
	tiers, err := s.storage.ListRateTiers(ctx)
	if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to list rate tiers", slog.Any("error", err))
		writeJSONError(w, "failed to list rate tiers", http.StatusInternalServerError)
		return
	}

	writeJSON(w, fees.CalculateSite(site, tiers))
}

func (s *Server) handleCreateSite(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var site types.Site
	if err := json.NewDecoder(r.Body).Decode(&site); err != nil {
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := validateSite(site); err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	now := time.Now().UTC()
	site.ID = uuid.NewString()
	site.CreatedAt = now
	site.UpdatedAt = now
	s.resolveSPV(ctx, &site)

	if err := s.storage.CreateSite(ctx, site); err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to create site", slog.Any("error", err))
		writeJSONError(w, "failed to create site", http.StatusInternalServerError)
		return
	}
	s.audit(ctx, r, "sites", site.ID, "create", fmt.Sprintf("created site %q", site.Name))
	log.Ctx(ctx).InfoContext(ctx, "site created", slog.String("siteID", site.ID), slog.String("name", site.Name))

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(site); err != nil {
		panic(http.ErrAbortHandler)
	}
}

func (s *Server) handleUpdateSite(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	siteID := r.PathValue("siteID")

	existing, err := s.storage.GetSite(ctx, siteID)
	if err != nil {
		if errors.Is(err, storage.ErrSiteNotFound) {
			writeJSONError(w, "site not found", http.StatusNotFound)
			return
		}
		log.Ctx(ctx).ErrorContext(ctx, "failed to get site", slog.String("siteID", siteID), slog.Any("error", err))
		writeJSONError(w, "failed to get site", http.StatusInternalServerError)
		return
	}

	var site types.Site
	if err := json.NewDecoder(r.Body).Decode(&site); err != nil {
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := validateSite(site); err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	site.ID = existing.ID
	site.CreatedAt = existing.CreatedAt
	site.UpdatedAt = time.Now().UTC()
	s.resolveSPV(ctx, &site)

	if err := s.storage.UpdateSite(ctx, site); err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to update site", slog.String("siteID", siteID), slog.Any("error", err))
		writeJSONError(w, "failed to update site", http.StatusInternalServerError)
		return
	}
	s.audit(ctx, r, "sites", site.ID, "update", fmt.Sprintf("updated site %q", site.Name))

	writeJSON(w, site)
}

func (s *Server) handleDeleteSite(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	siteID := r.PathValue("siteID")

	existing, err := s.storage.GetSite(ctx, siteID)
	if err != nil {
		if errors.Is(err, storage.ErrSiteNotFound) {
			writeJSONError(w, "site not found", http.StatusNotFound)
			return
		}
		log.Ctx(ctx).ErrorContext(ctx, "failed to get site", slog.String("siteID", siteID), slog.Any("error", err))
		writeJSONError(w, "failed to get site", http.StatusInternalServerError)
		return
	}

	if err := s.storage.DeleteSite(ctx, siteID); err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to delete site", slog.String("siteID", siteID), slog.Any("error", err))
		writeJSONError(w, "failed to delete site", http.StatusInternalServerError)
		return
	}
	s.audit(ctx, r, "sites", siteID, "delete", fmt.Sprintf("deleted site %q", existing.Name))
	log.Ctx(ctx).InfoContext(ctx, "site deleted", slog.String("siteID", siteID))

	w.WriteHeader(http.StatusOK)
}
