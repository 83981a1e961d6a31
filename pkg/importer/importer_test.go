package importer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func row(cells ...string) string {
	return strings.Join(cells, ",")
}

func TestParseCSV(t *testing.T) {
	// mirror the sheet layout: 4 header rows, data from row 5, site name in
	// column C, SPV code in column V
	pad := make([]string, 12) // J..U
	lines := []string{
		"Clearsol O&M Framework Tracker,,",
		",,",
		",,Site Name,Size (kWp),Contract,Onboard,PM,CCTV,Cleaning",
		",,",
		row(append([]string{"", "", "Alpha Park", "500.5", "Yes", "2023-04-01", "500", "200", "300"}, append(pad, "OS2")...)...),
		row(append([]string{"", "", "Beta Depot", "250", "No", "", "100", "0", "50"}, append(pad, "")...)...),
		// row without a name is skipped
		row("", "", "", "999", "Yes"),
		// short row with ragged columns
		row("", "", "Gamma Yard", "1000"),
	}

	sites, err := ParseCSV(strings.NewReader(strings.Join(lines, "\n")), Options{
		HeaderRows:      4,
		SheetName:       "Portfolio Tracker",
		DefaultSiteType: "Rooftop",
	})
	require.NoError(t, err)
	require.Len(t, sites, 3)

	alpha := sites[0]
	assert.Equal(t, "Alpha Park", alpha.Name)
	assert.Equal(t, 500.5, alpha.SystemSizeKWp)
	assert.Equal(t, "Yes", alpha.ContractStatus)
	assert.Equal(t, 500.0, alpha.PMCost)
	assert.Equal(t, 200.0, alpha.CCTVCost)
	assert.Equal(t, 300.0, alpha.CleaningCost)
	assert.Equal(t, "OS2", alpha.SPVCode)
	require.NotNil(t, alpha.OnboardDate)
	assert.Equal(t, "2023-04-01", *alpha.OnboardDate)
	assert.Equal(t, "Portfolio Tracker", alpha.SourceSheet)
	assert.Equal(t, 5, alpha.SourceRow)
	assert.Equal(t, "Rooftop", alpha.SiteType)

	beta := sites[1]
	assert.Equal(t, "No", beta.ContractStatus)
	assert.Nil(t, beta.OnboardDate)
	assert.Empty(t, beta.SPVCode)

	gamma := sites[2]
	assert.Equal(t, 1000.0, gamma.SystemSizeKWp)
	assert.Equal(t, "No", gamma.ContractStatus)
	assert.Equal(t, 0.0, gamma.PMCost)
	assert.Equal(t, 8, gamma.SourceRow)
}

func TestParseCSVNumericTolerance(t *testing.T) {
	lines := []string{
		row("", "", "Messy Site", "n/a", "Yes", "", `"£1,500"`, "not a number", "250"),
	}
	sites, err := ParseCSV(strings.NewReader(strings.Join(lines, "\n")), Options{})
	require.NoError(t, err)
	require.Len(t, sites, 1)
	assert.Equal(t, 0.0, sites[0].SystemSizeKWp)
	assert.Equal(t, 1500.0, sites[0].PMCost)
	assert.Equal(t, 0.0, sites[0].CCTVCost)
	assert.Equal(t, 250.0, sites[0].CleaningCost)
}

func TestParseCSVDateFormats(t *testing.T) {
	assert.Equal(t, "2023-04-01", normalizeDate("01/04/2023"))
	assert.Equal(t, "2023-04-01", normalizeDate("2023-04-01 00:00:00"))
	assert.Equal(t, "sometime 2023", normalizeDate("sometime 2023"))
	assert.Equal(t, "", normalizeDate("  "))
}

func TestParseCSVEmpty(t *testing.T) {
	sites, err := ParseCSV(strings.NewReader(""), Options{HeaderRows: 4})
	require.NoError(t, err)
	assert.Empty(t, sites)
}
