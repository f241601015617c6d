package plans

import (
	"strings"

	"github.com/a47williams/back-in-stock-app-sub000/app/models"
)

// Unlimited marks a tier without a monthly notification ceiling.
const Unlimited = -1

// ceilings maps a plan tier to its monthly notification ceiling.
var ceilings = map[string]int{
	models.PlanTrial:     25,
	models.PlanBasic:     100,
	models.PlanGrowth:    500,
	models.PlanUnlimited: Unlimited,
}

// MonthlyCeiling returns the notification ceiling for a plan tier. Unknown
// tiers fall back to the trial ceiling.
func MonthlyCeiling(plan string) int {
	if c, ok := ceilings[Normalize(plan)]; ok {
		return c
	}
	return ceilings[models.PlanTrial]
}

// Normalize maps arbitrary tier spellings to a known plan constant.
func Normalize(plan string) string {
	switch strings.ToLower(strings.TrimSpace(plan)) {
	case models.PlanBasic:
		return models.PlanBasic
	case models.PlanGrowth:
		return models.PlanGrowth
	case models.PlanUnlimited:
		return models.PlanUnlimited
	default:
		return models.PlanTrial
	}
}

// Rank orders tiers for upgrade comparisons.
func Rank(plan string) int {
	switch Normalize(plan) {
	case models.PlanUnlimited:
		return 3
	case models.PlanGrowth:
		return 2
	case models.PlanBasic:
		return 1
	default:
		return 0
	}
}

// FromBillingPriceRef maps a payment-provider price reference to an
// internal plan tier. References are configured as price lookup keys of the
// form "bis_<tier>_monthly".
func FromBillingPriceRef(ref string) (string, bool) {
	r := strings.ToLower(strings.TrimSpace(ref))
	switch {
	case strings.Contains(r, models.PlanUnlimited):
		return models.PlanUnlimited, true
	case strings.Contains(r, models.PlanGrowth):
		return models.PlanGrowth, true
	case strings.Contains(r, models.PlanBasic):
		return models.PlanBasic, true
	default:
		return "", false
	}
}
