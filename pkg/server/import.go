package server

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/clearsol/omtracker/pkg/common"
	"github.com/clearsol/omtracker/pkg/importer"
	"github.com/clearsol/omtracker/pkg/log"
	"github.com/clearsol/omtracker/pkg/types"
	"github.com/google/uuid"
)

const maxImportBytes = 10 << 20

type importRequest struct {
	// CSV is the raw export contents. Mutually exclusive with URL.
	CSV string `json:"csv"`
	// URL points at a remote CSV export to fetch.
	URL string `json:"url"`
	// Preview parses without replacing the stored sites.
	Preview bool `json:"preview"`
}

type importResponse struct {
	Imported int          `json:"imported"`
	Preview  bool         `json:"preview"`
	Sites    []types.Site `json:"sites"`
}

// handleImport replaces the entire site list with the contents of a
// Portfolio Tracker CSV export. Existing sites are dropped, matching how the
// tracker sheet is re-imported wholesale each time it changes.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req importRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxImportBytes)).Decode(&req); err != nil {
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.CSV == "" && req.URL == "" {
		writeJSONError(w, "csv or url is required", http.StatusBadRequest)
		return
	}
	if req.CSV != "" && req.URL != "" {
		writeJSONError(w, "csv and url are mutually exclusive", http.StatusBadRequest)
		return
	}

	settings, err := s.getSettingsWithMigration(ctx)
	if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to get settings", slog.Any("error", err))
		writeJSONError(w, "failed to get settings", http.StatusInternalServerError)
		return
	}

	csvData := req.CSV
	if req.URL != "" {
		csvData, err = s.fetchCSV(r, req.URL)
		if err != nil {
			log.Ctx(ctx).ErrorContext(ctx, "failed to fetch csv", slog.String("url", req.URL), slog.Any("error", err))
			writeJSONError(w, fmt.Sprintf("failed to fetch csv: %v", err), http.StatusBadGateway)
			return
		}
	}

	sites, err := importer.ParseCSV(strings.NewReader(csvData), importer.Options{
		HeaderRows:      settings.ImportHeaderRows,
		SheetName:       settings.ImportSheetName,
		DefaultSiteType: settings.DefaultSiteType,
	})
	if err != nil {
		log.Ctx(ctx).WarnContext(ctx, "failed to parse csv", slog.Any("error", err))
		writeJSONError(w, fmt.Sprintf("failed to parse csv: %v", err), http.StatusBadRequest)
		return
	}
	if len(sites) == 0 {
		writeJSONError(w, "no sites found in csv", http.StatusBadRequest)
		return
	}

	now := time.Now().UTC()
	for i := range sites {
		sites[i].ID = uuid.NewString()
		sites[i].CreatedAt = now
		sites[i].UpdatedAt = now
		s.resolveSPV(ctx, &sites[i])
	}

	if req.Preview {
		writeJSON(w, importResponse{
			Imported: len(sites),
			Preview:  true,
			Sites:    sites,
		})
		return
	}

	if err := s.storage.ReplaceSites(ctx, sites); err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to replace sites", slog.Any("error", err))
		writeJSONError(w, "failed to import sites", http.StatusInternalServerError)
		return
	}
	s.audit(ctx, r, "sites", "", "import", fmt.Sprintf("replaced all sites with %d imported rows", len(sites)))
	log.Ctx(ctx).InfoContext(ctx, "sites imported", slog.Int("count", len(sites)))

	writeJSON(w, importResponse{
		Imported: len(sites),
		Sites:    sites,
	})
}

func (s *Server) fetchCSV(r *http.Request, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("invalid url: %w", err)
	}
	resp, err := common.HTTPClient(30 * time.Second).Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxImportBytes))
	if err != nil {
		return "", err
	}
	return string(body), nil
}
