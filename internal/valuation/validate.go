package valuation

// Validation is the structured outcome of the two save gates. Missing prices
// are itemized per cut so the caller can render actionable messages; missing
// costs is a single aggregate flag ("each cut requires at least one cost").
type Validation struct {
	MissingPriceCuts []string `json:"missing_price_cuts,omitempty"`
	MissingCosts     bool     `json:"missing_costs"`
}

// CanSave reports whether both gates pass.
func (v Validation) CanSave() bool {
	return len(v.MissingPriceCuts) == 0 && !v.MissingCosts
}

// Validate recomputes both completeness gates from the current display
// resolution, never from cached state, so switching the business selection
// immediately invalidates stale results. Zero-exempt cuts (handling, bone,
// fat, trim) legitimately price at zero and are excluded from both gates.
func Validate(s Session) Validation {
	var v Validation
	for _, cut := range s.DisplayCuts() {
		if cut.ZeroExempt {
			continue
		}

		st := s.Cuts[cut.ID]
		if st.Prices.Get(st.Currency) <= 0 {
			v.MissingPriceCuts = append(v.MissingPriceCuts, cut.Name)
		}

		if rowsForCut(s, cut.ID) == 0 {
			v.MissingCosts = true
		}
	}
	return v
}

func rowsForCut(s Session, cutID string) int {
	count := 0
	for _, row := range s.CostRows {
		if row.CutID == cutID {
			count++
		}
	}
	return count
}
