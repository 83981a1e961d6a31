package fees

import (
	"testing"

	"github.com/clearsol/omtracker/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSiteFixedCosts(t *testing.T) {
	assert.Equal(t, 1000.0, SiteFixedCosts(500, 200, 300))
	assert.Equal(t, 0.0, SiteFixedCosts(0, 0, 0))
	assert.Equal(t, 1001.50, SiteFixedCosts(500.50, 200.25, 300.75))
}

func TestPortfolioCost(t *testing.T) {
	assert.Equal(t, 1000.0, PortfolioCost(500, 2.0))
	assert.Equal(t, 1800.0, PortfolioCost(1000, 1.8))
	assert.Equal(t, 0.0, PortfolioCost(0, 2.0))
}

func TestFixedFee(t *testing.T) {
	assert.Equal(t, 2000.0, FixedFee(1000, 1000))
	assert.Equal(t, 500.0, FixedFee(500, 0))
}

func TestFeePerKWp(t *testing.T) {
	assert.Equal(t, 4.0, FeePerKWp(2000, 500, true))
	// uncontracted sites have no billable per-unit fee
	assert.Equal(t, 0.0, FeePerKWp(2000, 500, false))
	// zero size never divides
	assert.Equal(t, 0.0, FeePerKWp(2000, 0, true))
}

func TestMonthlyFee(t *testing.T) {
	assert.Equal(t, 100.0, MonthlyFee(1200))
	assert.InDelta(t, 83.33, MonthlyFee(1000), 0.005)
}

func TestCorrectiveDays(t *testing.T) {
	// 12 MW -> 1 day/month
	assert.Equal(t, 1.0, CorrectiveDays(12000))
	// 24 MW -> 2 days/month
	assert.Equal(t, 2.0, CorrectiveDays(24000))
	// 15 MW -> 1.25, which rounds half-to-even down to 1.2
	assert.Equal(t, 1.2, CorrectiveDays(15000))
	// 21 MW -> 1.75, half-to-even rounds up to 1.8
	assert.Equal(t, 1.8, CorrectiveDays(21000))
	assert.Equal(t, 0.0, CorrectiveDays(0))
}

func TestCalculateSite(t *testing.T) {
	site := types.Site{
		Name:           "Site A",
		SystemSizeKWp:  500,
		ContractStatus: "Yes",
		PMCost:         500,
		CCTVCost:       200,
		CleaningCost:   300,
	}

	calc := CalculateSite(site, DefaultRateTiers)
	require.Len(t, calc.Tiers, 3)

	assert.Equal(t, 1000.0, calc.SiteFixedCosts)

	// <20MW tier @ 2.0
	assert.Equal(t, "<20MW", calc.Tiers[0].TierName)
	assert.Equal(t, 1000.0, calc.Tiers[0].PortfolioCost)
	assert.Equal(t, 2000.0, calc.Tiers[0].FixedFee)
	assert.Equal(t, 4.0, calc.Tiers[0].FeePerKWp)

	// 20-30MW tier @ 1.8
	assert.Equal(t, 900.0, calc.Tiers[1].PortfolioCost)
	assert.Equal(t, 1900.0, calc.Tiers[1].FixedFee)
	assert.Equal(t, 3.8, calc.Tiers[1].FeePerKWp)

	// 30-40MW tier @ 1.7
	assert.Equal(t, 850.0, calc.Tiers[2].PortfolioCost)
	assert.Equal(t, 1850.0, calc.Tiers[2].FixedFee)
	assert.Equal(t, 3.7, calc.Tiers[2].FeePerKWp)

	// monthly fee uses the lowest tier's fixed fee
	assert.InDelta(t, 166.67, calc.MonthlyFee, 0.005)

	// the input site is not mutated, only referenced
	assert.Equal(t, site, calc.Site)
}

func TestCalculateSiteUncontracted(t *testing.T) {
	site := types.Site{
		Name:           "Site B",
		SystemSizeKWp:  500,
		ContractStatus: "No",
		PMCost:         500,
	}
	calc := CalculateSite(site, nil)
	require.Len(t, calc.Tiers, 3)
	// fixed fees still computed for display
	assert.Equal(t, 1500.0, calc.Tiers[0].FixedFee)
	// but per-unit and monthly fees are zero
	for _, tf := range calc.Tiers {
		assert.Equal(t, 0.0, tf.FeePerKWp)
	}
	assert.Equal(t, 0.0, calc.MonthlyFee)
}

func TestCalculateSiteZeroSize(t *testing.T) {
	calc := CalculateSite(types.Site{ContractStatus: "Yes", PMCost: 100}, DefaultRateTiers)
	assert.Equal(t, 0.0, calc.Tiers[0].PortfolioCost)
	assert.Equal(t, 100.0, calc.Tiers[0].FixedFee)
	assert.Equal(t, 0.0, calc.Tiers[0].FeePerKWp)
}

func TestSummarize(t *testing.T) {
	sites := []types.Site{
		{Name: "A", SystemSizeKWp: 1000, ContractStatus: "Yes", SPVCode: "OS2", PMCost: 600},
		{Name: "B", SystemSizeKWp: 500, ContractStatus: "Yes", SPVCode: "OS2"},
		{Name: "C", SystemSizeKWp: 750, ContractStatus: "No"},
	}

	summary := Summarize(sites, DefaultRateTiers)

	assert.Equal(t, 3, summary.TotalSites)
	assert.Equal(t, 2, summary.ContractedSites)
	assert.Equal(t, 2250.0, summary.TotalCapacityKWp)
	assert.Equal(t, 1500.0, summary.ContractedCapacityKWp)

	// 1.5 MW contracted resolves to the first tier
	assert.Equal(t, "<20MW", summary.CurrentTier)

	// A: (600 + 1000*2.0)/12, B: (0 + 500*2.0)/12; C excluded
	assert.InDelta(t, 2600.0/12+1000.0/12, summary.TotalMonthlyFee, 1e-9)

	// 1.5/12 = 0.125 days -> 0.1
	assert.Equal(t, 0.1, summary.CorrectiveDaysAllowed)

	assert.Equal(t, map[string]int{"OS2": 2, "Unassigned": 1}, summary.SitesBySPV)
}

func TestSummarizeEmpty(t *testing.T) {
	summary := Summarize(nil, nil)
	assert.Equal(t, 0, summary.TotalSites)
	assert.Equal(t, "<20MW", summary.CurrentTier)
	assert.Equal(t, 0.0, summary.TotalMonthlyFee)
	assert.Empty(t, summary.SitesBySPV)
}

func TestSummarizeIdempotent(t *testing.T) {
	sites := []types.Site{
		{Name: "A", SystemSizeKWp: 1000, ContractStatus: "Yes", SPVCode: "FS"},
		{Name: "B", SystemSizeKWp: 2000, ContractStatus: "No"},
	}
	first := Summarize(sites, DefaultRateTiers)
	second := Summarize(sites, DefaultRateTiers)
	assert.Equal(t, first, second)
}

func TestSummarizeSPVs(t *testing.T) {
	spvs := []types.SPV{
		{ID: "1", Code: "OS2", Name: "Olympus Solar 2 Ltd"},
		{ID: "2", Code: "FS", Name: "Fylde Solar Ltd"},
	}
	sites := []types.Site{
		{Name: "A", SystemSizeKWp: 1200, ContractStatus: "Yes", SPVCode: "OS2"},
		{Name: "B", SystemSizeKWp: 800, ContractStatus: "No", SPVCode: "OS2"},
		{Name: "C", SystemSizeKWp: 400, ContractStatus: "Yes"},
	}

	summaries := SummarizeSPVs(spvs, sites, DefaultRateTiers)
	require.Len(t, summaries, 2)

	assert.Equal(t, 2, summaries[0].TotalSites)
	assert.Equal(t, 1, summaries[0].ContractedSites)
	assert.Equal(t, 2000.0, summaries[0].TotalCapacityKWp)
	assert.Equal(t, 1200.0, summaries[0].ContractedCapacityKWp)
	assert.InDelta(t, 1200*2.0/12, summaries[0].TotalMonthlyFee, 1e-9)

	assert.Equal(t, 0, summaries[1].TotalSites)
}
