package valuation

import "math"

// Variance compares the initial bulk valuation against the summed cut values,
// with and without allocated costs. A positive difference means the cuts sum
// to less than the initial valuation (rendered as a loss); negative means a
// gain.
type Variance struct {
	DifferenceUSD                 float64 `json:"difference_usd"`
	DifferencePercentage          float64 `json:"difference_percentage"`
	DifferenceWithCostsUSD        float64 `json:"difference_with_costs_usd"`
	DifferenceWithCostsPercentage float64 `json:"difference_with_costs_percentage"`
}

// Compare derives the variance from a valuation and a cost allocation.
// A zero initial valuation short-circuits the percentages to 0.
func Compare(res Result, costs CostResult) Variance {
	v := Variance{
		DifferenceUSD: res.TotalInitialUSD - res.TotalCutsUSD,
	}
	// TotalCostsUSD is already negative, so subtracting it pushes the
	// difference further toward loss.
	v.DifferenceWithCostsUSD = v.DifferenceUSD - costs.TotalCostsUSD

	if res.TotalInitialUSD != 0 {
		v.DifferencePercentage = Round2(v.DifferenceUSD / res.TotalInitialUSD * 100)
		v.DifferenceWithCostsPercentage = Round2(v.DifferenceWithCostsUSD / res.TotalInitialUSD * 100)
	}
	return v
}

// Round2 rounds to 2 decimals for presentation. Internal comparisons use the
// unrounded values.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
