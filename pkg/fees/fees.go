// Package fees implements the contractual fee formulas for the O&M portfolio.
// Every function is a pure function of its inputs: nothing here touches
// storage, caches results, or mutates its arguments, and degenerate inputs
// (zero size, uncontracted site, empty tier table) substitute zero values or
// the built-in tier table rather than returning errors.
package fees

import (
	"math"

	"github.com/clearsol/omtracker/pkg/types"
)

// SiteFixedCosts sums a site's fixed annual costs.
func SiteFixedCosts(pmCost, cctvCost, cleaningCost float64) float64 {
	return pmCost + cctvCost + cleaningCost
}

// PortfolioCost is the capacity-priced component of a site's fee at the given
// tier rate.
func PortfolioCost(systemSizeKWp, ratePerKWp float64) float64 {
	return systemSizeKWp * ratePerKWp
}

// FixedFee is the site's fixed costs plus its portfolio cost.
func FixedFee(siteFixedCosts, portfolioCost float64) float64 {
	return siteFixedCosts + portfolioCost
}

// FeePerKWp is the fixed fee per unit of installed capacity. Uncontracted
// sites have no billable per-unit fee, and a zero-size site cannot be divided
// by; both cases yield exactly zero.
func FeePerKWp(fixedFee, systemSizeKWp float64, contracted bool) float64 {
	if !contracted || systemSizeKWp == 0 {
		return 0
	}
	return fixedFee / systemSizeKWp
}

// MonthlyFee spreads an annual fixed fee over twelve months.
func MonthlyFee(fixedFee float64) float64 {
	return fixedFee / 12
}

// CorrectiveDays is the monthly allowance of corrective maintenance days
// earned by the contracted capacity: one day per contracted megawatt per year,
// rounded to one decimal place. The rounding is half-to-even at the tenths
// digit (15000 kWp yields 1.2, not 1.3) and must stay that way to match the
// contract schedule.
func CorrectiveDays(contractedCapacityKWp float64) float64 {
	return math.RoundToEven(contractedCapacityKWp/1000/12*10) / 10
}

// CalculateSite computes the full fee breakdown for one site. The portfolio
// cost, fixed fee, and fee per kWp are evaluated at every configured tier so
// the dashboard can show what the site would cost under each band. The
// monthly fee is always priced at the first (lowest) tier's rate, independent
// of which tier the portfolio currently resolves to. An empty tier list uses
// DefaultRateTiers.
func CalculateSite(site types.Site, tiers []types.RateTier) types.SiteCalculation {
	if len(tiers) == 0 {
		tiers = DefaultRateTiers
	}

	fixedCosts := SiteFixedCosts(site.PMCost, site.CCTVCost, site.CleaningCost)
	contracted := site.Contracted()

	calc := types.SiteCalculation{
		Site:           site,
		SiteFixedCosts: fixedCosts,
		Tiers:          make([]types.TierFees, len(tiers)),
	}

	for i, tier := range tiers {
		portfolioCost := PortfolioCost(site.SystemSizeKWp, tier.RatePerKWp)
		fixedFee := FixedFee(fixedCosts, portfolioCost)
		calc.Tiers[i] = types.TierFees{
			TierID:        tier.ID,
			TierName:      tier.Name,
			RatePerKWp:    tier.RatePerKWp,
			PortfolioCost: portfolioCost,
			FixedFee:      fixedFee,
			FeePerKWp:     FeePerKWp(fixedFee, site.SystemSizeKWp, contracted),
		}
	}

	if contracted {
		calc.MonthlyFee = MonthlyFee(calc.Tiers[0].FixedFee)
	}

	return calc
}

// Summarize aggregates a site list into the portfolio-level dashboard
// figures. The current tier is resolved from contracted capacity in
// megawatts, while the total monthly fee sums the per-site lowest-tier
// monthly fees of contracted sites; the two deliberately use different rates.
func Summarize(sites []types.Site, tiers []types.RateTier) types.PortfolioSummary {
	summary := types.PortfolioSummary{
		TotalSites: len(sites),
		SitesBySPV: make(map[string]int),
	}

	for _, site := range sites {
		summary.TotalCapacityKWp += site.SystemSizeKWp
		if site.Contracted() {
			summary.ContractedSites++
			summary.ContractedCapacityKWp += site.SystemSizeKWp
			summary.TotalMonthlyFee += CalculateSite(site, tiers).MonthlyFee
		}

		spv := site.SPVCode
		if spv == "" {
			spv = "Unassigned"
		}
		summary.SitesBySPV[spv]++
	}

	summary.CurrentTier = ResolveTier(summary.ContractedCapacityKWp/1000, tiers).Name
	summary.CorrectiveDaysAllowed = CorrectiveDays(summary.ContractedCapacityKWp)

	return summary
}

// SummarizeSPVs rolls sites up per SPV for the SPVs page. Sites whose code
// doesn't match any registered SPV are not included; the dashboard's
// "Unassigned" bucket comes from Summarize instead.
func SummarizeSPVs(spvs []types.SPV, sites []types.Site, tiers []types.RateTier) []types.SPVSummary {
	summaries := make([]types.SPVSummary, len(spvs))
	for i, spv := range spvs {
		s := types.SPVSummary{SPV: spv}
		for _, site := range sites {
			if site.SPVCode != spv.Code {
				continue
			}
			s.TotalSites++
			s.TotalCapacityKWp += site.SystemSizeKWp
			if site.Contracted() {
				s.ContractedSites++
				s.ContractedCapacityKWp += site.SystemSizeKWp
				s.TotalMonthlyFee += CalculateSite(site, tiers).MonthlyFee
			}
		}
		summaries[i] = s
	}
	return summaries
}
