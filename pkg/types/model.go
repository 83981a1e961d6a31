package types

import "time"

// ContractStatusYes is the contract_status value for a billable site. Anything
// else (including the empty string) is treated as not under contract.
const ContractStatusYes = "Yes"

// RateTier represents one capacity band and the O&M rate charged per kWp while
// the portfolio's contracted capacity sits inside that band.
type RateTier struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	// MinCapacityMW is the inclusive lower bound of the band in megawatts.
	MinCapacityMW float64 `json:"minCapacityMW"`
	// MaxCapacityMW is the exclusive upper bound in megawatts. Nil means
	// unbounded above; only the last tier may be unbounded.
	MaxCapacityMW *float64 `json:"maxCapacityMW,omitempty"`
	RatePerKWp    float64  `json:"ratePerKWp"`
}

// Unbounded returns true if the tier has no upper capacity bound.
func (t RateTier) Unbounded() bool {
	return t.MaxCapacityMW == nil
}

// Site represents one physical solar installation under management.
type Site struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	SystemSizeKWp float64 `json:"systemSizeKWp"`
	SiteType      string  `json:"siteType"`
	// ContractStatus is "Yes" or "No".
	ContractStatus string  `json:"contractStatus"`
	OnboardDate    *string `json:"onboardDate,omitempty"`

	// Fixed annual costs
	PMCost       float64 `json:"pmCost"`
	CCTVCost     float64 `json:"cctvCost"`
	CleaningCost float64 `json:"cleaningCost"`

	// Owning SPV, if assigned
	SPVID   string `json:"spvID,omitempty"`
	SPVCode string `json:"spvCode,omitempty"`

	// Import provenance
	SourceSheet string `json:"sourceSheet,omitempty"`
	SourceRow   int    `json:"sourceRow,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Contracted returns true if the site is under a billable contract.
func (s Site) Contracted() bool {
	return s.ContractStatus == ContractStatusYes
}

// SPV represents a Special Purpose Vehicle, the legal entity that owns one or
// more sites.
type SPV struct {
	ID   string `json:"id"`
	Code string `json:"code"`
	Name string `json:"name"`
}

// TierFees holds one site's fee figures evaluated at a single rate tier.
type TierFees struct {
	TierID        string  `json:"tierID"`
	TierName      string  `json:"tierName"`
	RatePerKWp    float64 `json:"ratePerKWp"`
	PortfolioCost float64 `json:"portfolioCost"`
	FixedFee      float64 `json:"fixedFee"`
	FeePerKWp     float64 `json:"feePerKWp"`
}

// SiteCalculation is the computed fee breakdown for one site. It references
// the source site and is recomputed on every read, never persisted.
type SiteCalculation struct {
	Site           Site       `json:"site"`
	SiteFixedCosts float64    `json:"siteFixedCosts"`
	Tiers          []TierFees `json:"tiers"`
	// MonthlyFee is always priced at the lowest configured tier, regardless
	// of the portfolio's resolved tier. Zero when not contracted.
	MonthlyFee float64 `json:"monthlyFee"`
}

// PortfolioSummary holds the portfolio-level aggregates shown on the
// dashboard.
type PortfolioSummary struct {
	TotalSites            int            `json:"totalSites"`
	ContractedSites       int            `json:"contractedSites"`
	TotalCapacityKWp      float64        `json:"totalCapacityKWp"`
	ContractedCapacityKWp float64        `json:"contractedCapacityKWp"`
	CurrentTier           string         `json:"currentTier"`
	TotalMonthlyFee       float64        `json:"totalMonthlyFee"`
	CorrectiveDaysAllowed float64        `json:"correctiveDaysAllowed"`
	SitesBySPV            map[string]int `json:"sitesBySPV"`
}

// SPVSummary is the per-SPV rollup shown on the SPVs page.
type SPVSummary struct {
	SPV                   SPV     `json:"spv"`
	TotalSites            int     `json:"totalSites"`
	ContractedSites       int     `json:"contractedSites"`
	TotalCapacityKWp      float64 `json:"totalCapacityKWp"`
	ContractedCapacityKWp float64 `json:"contractedCapacityKWp"`
	TotalMonthlyFee       float64 `json:"totalMonthlyFee"`
}

// User represents a dashboard user.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Admin bool   `json:"-"`
}

// AuditEntry records a mutation to the stored portfolio data.
type AuditEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Table     string    `json:"table"`
	RecordID  string    `json:"recordID"`
	Action    string    `json:"action"`
	Detail    string    `json:"detail,omitempty"`
	UserEmail string    `json:"userEmail,omitempty"`
}
