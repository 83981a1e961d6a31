// Package importer parses Portfolio Tracker spreadsheet exports into site
// records. It normalizes loosely-typed cells at this boundary so the fee
// engine downstream only ever sees well-formed values.
package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/clearsol/omtracker/pkg/types"
)

// Column positions in the Portfolio Tracker sheet (0-indexed). Columns A, B,
// and J–U carry formulas the importer ignores.
const (
	colName         = 2  // C
	colSystemSize   = 3  // D
	colContract     = 4  // E
	colOnboardDate  = 5  // F
	colPMCost       = 6  // G
	colCCTVCost     = 7  // H
	colCleaningCost = 8  // I
	colSPVCode      = 21 // V
)

// Options controls how a sheet export is parsed.
type Options struct {
	// HeaderRows is how many leading rows to skip.
	HeaderRows int
	// SheetName is recorded on each imported site for provenance.
	SheetName string
	// DefaultSiteType is applied to every imported site.
	DefaultSiteType string
}

// ParseCSV reads a CSV export of the Portfolio Tracker sheet and returns the
// normalized site records. Rows without a site name are skipped; malformed
// numeric cells default to zero rather than failing the import. The returned
// sites carry no IDs or timestamps; the caller assigns those.
func ParseCSV(r io.Reader, opts Options) ([]types.Site, error) {
	cr := csv.NewReader(r)
	// sheet exports have ragged rows
	cr.FieldsPerRecord = -1

	var sites []types.Site
	rowNum := 0
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row %d: %w", rowNum+1, err)
		}
		rowNum++
		if rowNum <= opts.HeaderRows {
			continue
		}

		name := strings.TrimSpace(cell(record, colName))
		if name == "" {
			continue
		}

		contractStatus := "No"
		if strings.TrimSpace(cell(record, colContract)) == types.ContractStatusYes {
			contractStatus = types.ContractStatusYes
		}

		site := types.Site{
			Name:           name,
			SystemSizeKWp:  cellFloat(record, colSystemSize),
			SiteType:       opts.DefaultSiteType,
			ContractStatus: contractStatus,
			PMCost:         cellFloat(record, colPMCost),
			CCTVCost:       cellFloat(record, colCCTVCost),
			CleaningCost:   cellFloat(record, colCleaningCost),
			SPVCode:        strings.TrimSpace(cell(record, colSPVCode)),
			SourceSheet:    opts.SheetName,
			SourceRow:      rowNum,
		}

		if date := normalizeDate(cell(record, colOnboardDate)); date != "" {
			site.OnboardDate = &date
		}

		sites = append(sites, site)
	}
	return sites, nil
}

func cell(record []string, idx int) string {
	if idx >= len(record) {
		return ""
	}
	return record[idx]
}

func cellFloat(record []string, idx int) float64 {
	raw := strings.TrimSpace(cell(record, idx))
	if raw == "" {
		return 0
	}
	// tolerate currency formatting in cost cells
	raw = strings.NewReplacer(",", "", "£", "", "$", "").Replace(raw)
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0
	}
	return v
}

// normalizeDate converts the common sheet date formats to YYYY-MM-DD. A cell
// that doesn't parse is passed through untouched rather than dropped.
func normalizeDate(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	for _, layout := range []string{"2006-01-02", "02/01/2006", "2006-01-02 15:04:05", time.RFC3339} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return raw
}
