package valuation

import (
	"github.com/vittorisantiago/beefvalue-sub000/internal/catalog"
	"github.com/vittorisantiago/beefvalue-sub000/internal/currency"
)

// CutLine is the computed valuation of one displayed cut.
type CutLine struct {
	Cut      catalog.Cut       `json:"cut"`
	Kg       float64           `json:"kg"`
	Price    float64           `json:"price"`
	Currency currency.Currency `json:"currency"`
	UnitUSD  float64           `json:"unit_usd"`
	ValueUSD float64           `json:"value_usd"`
	Notes    string            `json:"notes,omitempty"`
}

// Result aggregates the per-cut valuation of a session.
type Result struct {
	Lines        []CutLine `json:"lines"`
	TotalCutsUSD float64   `json:"total_cuts_usd"`
	// TotalPercentage is reported for sanity-checking against 100. The catalog
	// may legitimately sum slightly off 100, so it is never enforced.
	TotalPercentage float64 `json:"total_percentage"`
	TotalInitialUSD float64 `json:"total_initial_usd"`
}

// Valuate computes per-cut kilograms and USD value for every displayed cut,
// plus the aggregate totals and the operator's initial bulk valuation.
// Unrounded values; rounding is presentation-only.
func Valuate(s Session) Result {
	res := Result{TotalInitialUSD: s.Weight * s.USDPerKg}
	for _, cut := range s.DisplayCuts() {
		st := s.Cuts[cut.ID]
		price := st.Prices.Get(st.Currency)
		line := CutLine{
			Cut:      cut,
			Kg:       cut.Percentage / 100 * s.Weight,
			Price:    price,
			Currency: st.Currency,
			UnitUSD:  currency.ToUSD(price, st.Currency, s.Rate),
			Notes:    st.Notes,
		}
		if price > 0 {
			line.ValueUSD = line.UnitUSD * line.Kg
		}
		res.Lines = append(res.Lines, line)
		res.TotalCutsUSD += line.ValueUSD
		res.TotalPercentage += cut.Percentage
	}
	return res
}
