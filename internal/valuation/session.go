// Package valuation implements the quotation engine: pricing state over a cut
// catalog, per-cut and aggregate valuation, shared cost allocation, save-gate
// validation, and variance against the initial bulk valuation.
//
// All functions are pure over an explicit Session value. Mutating operations
// return a new snapshot and never touch the input, so recomputing on unchanged
// input always yields identical output.
package valuation

import (
	"github.com/vittorisantiago/beefvalue-sub000/internal/catalog"
	"github.com/vittorisantiago/beefvalue-sub000/internal/currency"
)

// maxNotesLen bounds free-text notes on cuts and cost rows.
const maxNotesLen = 500

// CutState is the per-session pricing overlay on one catalog cut.
type CutState struct {
	Prices   currency.PriceSet `json:"prices"`
	Currency currency.Currency `json:"currency"`
	Notes    string            `json:"notes"`
}

// CostRow assigns one cost item to one cut, with its own price entry.
// Rows are uniquely keyed by (CutID, CostItemID).
type CostRow struct {
	CutID      string            `json:"cut_id"`
	CostItemID string            `json:"cost_item_id"`
	Prices     currency.PriceSet `json:"prices"`
	Currency   currency.Currency `json:"currency"`
	Notes      string            `json:"notes"`
}

// TotalOverride is a single total amount for a cost item, divided evenly
// across all rows sharing that item when total-cost mode is on.
type TotalOverride struct {
	Value    float64           `json:"value"`
	Currency currency.Currency `json:"currency"`
}

// Session is the full in-memory state of one quotation edit. The caller owns
// it; the engine only derives values from it or returns updated snapshots.
type Session struct {
	Catalog  *catalog.Catalog
	Selected map[string]bool // business cut selection, toggles granularity

	Weight   float64 // media res weight in kg
	USDPerKg float64 // operator-entered bulk price
	Rate     float64 // ARS per USD, 0 while no rate is loaded

	Cuts         map[string]CutState
	CostRows     []CostRow
	Overrides    map[string]TotalOverride
	UseTotalCost bool
}

// NewSession returns an empty session over cat for a business with the given
// cut selection. Every catalog cut starts with zero prices in USD.
func NewSession(cat *catalog.Catalog, selected map[string]bool) Session {
	cuts := make(map[string]CutState)
	for _, cut := range cat.Cuts() {
		cuts[cut.ID] = CutState{Currency: currency.USD}
	}
	sel := make(map[string]bool, len(selected))
	for id, on := range selected {
		if on {
			sel[id] = true
		}
	}
	return Session{
		Catalog:   cat,
		Selected:  sel,
		Cuts:      cuts,
		Overrides: make(map[string]TotalOverride),
	}
}

// clone returns a deep copy so setters can update without aliasing the input.
func (s Session) clone() Session {
	n := s
	n.Selected = make(map[string]bool, len(s.Selected))
	for id, on := range s.Selected {
		n.Selected[id] = on
	}
	n.Cuts = make(map[string]CutState, len(s.Cuts))
	for id, st := range s.Cuts {
		n.Cuts[id] = st
	}
	n.CostRows = append([]CostRow(nil), s.CostRows...)
	n.Overrides = make(map[string]TotalOverride, len(s.Overrides))
	for id, o := range s.Overrides {
		n.Overrides[id] = o
	}
	return n
}

// DisplayCuts resolves the ordered cuts this session displays and prices.
func (s Session) DisplayCuts() []catalog.Cut {
	return s.Catalog.ResolveDisplayCuts(s.Selected)
}

// SetCutPrice stores amount under cur for cutID and enforces macro/sub-cut
// exclusivity: a positive price on a sub-cut zeroes its macro's prices, and a
// positive price on a macro zeroes every sub-cut's prices. Unknown cut ids and
// fixed-cost cuts are ignored.
func SetCutPrice(s Session, cutID string, amount float64, cur currency.Currency) Session {
	cut, ok := s.Catalog.Cut(cutID)
	if !ok || cut.FixedCost || !cur.Valid() {
		return s
	}

	n := s.clone()
	st := n.Cuts[cutID]
	st.Prices = currency.Only(cur, amount)
	st.Currency = cur
	n.Cuts[cutID] = st

	if amount > 0 {
		if cut.Macro != "" {
			zeroCutPrices(&n, cut.Macro)
		} else {
			for _, sub := range n.Catalog.SubCuts(cutID) {
				zeroCutPrices(&n, sub.ID)
			}
		}
	}
	return n
}

// SetCutCurrency switches the active denomination for cutID. The two inactive
// slots are forced to zero, which by the single-slot invariant leaves the cut
// with no price entered.
func SetCutCurrency(s Session, cutID string, cur currency.Currency) Session {
	cut, ok := s.Catalog.Cut(cutID)
	if !ok || cut.FixedCost || !cur.Valid() {
		return s
	}

	n := s.clone()
	st := n.Cuts[cutID]
	st.Prices = currency.Only(cur, st.Prices.Get(cur))
	st.Currency = cur
	n.Cuts[cutID] = st
	return n
}

// SetCutNotes stores free text for cutID, clipped to the notes bound.
func SetCutNotes(s Session, cutID, notes string) Session {
	if _, ok := s.Catalog.Cut(cutID); !ok {
		return s
	}

	n := s.clone()
	st := n.Cuts[cutID]
	st.Notes = clipNotes(notes)
	n.Cuts[cutID] = st
	return n
}

func zeroCutPrices(s *Session, cutID string) {
	st, ok := s.Cuts[cutID]
	if !ok {
		return
	}
	st.Prices = currency.PriceSet{}
	s.Cuts[cutID] = st
}

func clipNotes(notes string) string {
	if len(notes) > maxNotesLen {
		return notes[:maxNotesLen]
	}
	return notes
}
