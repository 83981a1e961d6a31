package fees

import (
	"github.com/clearsol/omtracker/pkg/types"
)

// DefaultRateTiers is the built-in rate table used whenever the configured
// tier list is empty. The storage seed writes these same values into an empty
// database.
var DefaultRateTiers = []types.RateTier{
	{ID: "1", Name: "<20MW", MinCapacityMW: 0, MaxCapacityMW: capMW(20), RatePerKWp: 2.0},
	{ID: "2", Name: "20-30MW", MinCapacityMW: 20, MaxCapacityMW: capMW(30), RatePerKWp: 1.8},
	{ID: "3", Name: "30-40MW", MinCapacityMW: 30, MaxCapacityMW: nil, RatePerKWp: 1.7},
}

func capMW(mw float64) *float64 {
	return &mw
}

// ResolveTier selects the applicable rate tier for the given total capacity in
// megawatts. Tiers must already be ordered ascending by MinCapacityMW; the
// first tier whose upper bound is absent or strictly greater than the capacity
// wins, so a capacity sitting exactly on a boundary belongs to the next tier
// up. An exhausted non-empty list falls back to the last tier and an empty
// list falls back to DefaultRateTiers, so the resolver always returns a tier.
func ResolveTier(totalCapacityMW float64, tiers []types.RateTier) types.RateTier {
	if len(tiers) == 0 {
		tiers = DefaultRateTiers
	}
	for _, t := range tiers {
		if t.MaxCapacityMW == nil || totalCapacityMW < *t.MaxCapacityMW {
			return t
		}
	}
	return tiers[len(tiers)-1]
}
