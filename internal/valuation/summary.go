package valuation

// Summary bundles every derived view of a session: valuation, cost
// allocation, save gates, and variance. It is what the API returns on each
// recompute.
type Summary struct {
	Valuation  Result     `json:"valuation"`
	Costs      CostResult `json:"costs"`
	Validation Validation `json:"validation"`
	Variance   Variance   `json:"variance"`
	CanSave    bool       `json:"can_save"`
}

// Compute re-derives the full summary from the session. Idempotent: the same
// session always yields the same summary.
func Compute(s Session) Summary {
	res := Valuate(s)
	costs := AllocateCosts(s)
	validation := Validate(s)
	return Summary{
		Valuation:  res,
		Costs:      costs,
		Validation: validation,
		Variance:   Compare(res, costs),
		CanSave:    validation.CanSave(),
	}
}
