package processors

import "github.com/username/istisna/backend/src/models"

// PercentageUsed returns how much of the yearly exemption limit the total
// consumes, clamped to 100 on the upper bound only. The total is never
// negative by construction, so no lower clamp is applied.
func PercentageUsed(total, limit float64) float64 {
	pct := (total / limit) * 100
	if pct > 100 {
		return 100
	}
	return pct
}

// Remaining returns the headroom left under the limit. Deliberately not
// clamped at zero: a negative value means the user exceeded the exemption and
// must see that, not a comforting zero.
func Remaining(total, limit float64) float64 {
	return limit - total
}

// ExemptionState derives the full progress snapshot for a ledger total.
func ExemptionState(total, limit float64, taxYear int) models.ExemptionState {
	return models.ExemptionState{
		Total:          total,
		PercentageUsed: PercentageUsed(total, limit),
		Remaining:      Remaining(total, limit),
		Limit:          limit,
		TaxYear:        taxYear,
	}
}
