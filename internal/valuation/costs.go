package valuation

import "github.com/vittorisantiago/beefvalue-sub000/internal/currency"

// CostLine is the computed allocation of one cost row.
type CostLine struct {
	CutID      string            `json:"cut_id"`
	CostItemID string            `json:"cost_item_id"`
	Price      float64           `json:"price"`
	Currency   currency.Currency `json:"currency"`
	USD        float64           `json:"usd"`
	Notes      string            `json:"notes,omitempty"`
}

// CostResult aggregates allocated costs. TotalCostsUSD is negative: costs
// subtract from net value.
type CostResult struct {
	Lines         []CostLine `json:"lines"`
	TotalCostsUSD float64    `json:"total_costs_usd"`
}

// EffectivePrice returns the price and currency a cost row contributes. In
// total-cost mode a row whose item has an override takes an even share of the
// override value across the rows that currently share that item; otherwise the
// row's own entry applies. The divisor is recomputed from the live row set, so
// adding or removing a sibling changes every sibling's share.
func EffectivePrice(s Session, row CostRow) (float64, currency.Currency) {
	if s.UseTotalCost {
		if o, ok := s.Overrides[row.CostItemID]; ok {
			n := rowsForItem(s, row.CostItemID)
			if n > 0 {
				return o.Value / float64(n), o.Currency
			}
		}
	}
	return row.Prices.Get(row.Currency), row.Currency
}

// AllocateCosts computes every row's USD contribution and the aggregate total.
func AllocateCosts(s Session) CostResult {
	var res CostResult
	for _, row := range s.CostRows {
		price, cur := EffectivePrice(s, row)
		usd := currency.ToUSD(price, cur, s.Rate)
		res.Lines = append(res.Lines, CostLine{
			CutID:      row.CutID,
			CostItemID: row.CostItemID,
			Price:      price,
			Currency:   cur,
			USD:        usd,
			Notes:      row.Notes,
		})
		res.TotalCostsUSD -= usd
	}
	return res
}

// AddCostSelection inserts one cost row per (cut, item) pair from the cross
// product of cutIDs and itemIDs that is not already present. Existing pairs
// are never overwritten or duplicated. Cut ids missing from the catalog are
// skipped.
func AddCostSelection(s Session, cutIDs, itemIDs []string) Session {
	n := s.clone()
	for _, cutID := range cutIDs {
		if _, ok := n.Catalog.Cut(cutID); !ok {
			continue
		}
		for _, itemID := range itemIDs {
			if findCostRow(n, cutID, itemID) >= 0 {
				continue
			}
			n.CostRows = append(n.CostRows, CostRow{
				CutID:      cutID,
				CostItemID: itemID,
				Currency:   currency.USD,
			})
		}
	}
	return n
}

// RemoveCostRow deletes the (cutID, itemID) row. If no rows remain for that
// cost item, its total override is removed as well so it cannot orphan.
func RemoveCostRow(s Session, cutID, itemID string) Session {
	i := findCostRow(s, cutID, itemID)
	if i < 0 {
		return s
	}

	n := s.clone()
	n.CostRows = append(n.CostRows[:i], n.CostRows[i+1:]...)
	if rowsForItem(n, itemID) == 0 {
		delete(n.Overrides, itemID)
	}
	return n
}

// SetCostRowPrice stores amount under cur on the (cutID, itemID) row,
// zeroing the inactive slots.
func SetCostRowPrice(s Session, cutID, itemID string, amount float64, cur currency.Currency) Session {
	i := findCostRow(s, cutID, itemID)
	if i < 0 || !cur.Valid() {
		return s
	}

	n := s.clone()
	n.CostRows[i].Prices = currency.Only(cur, amount)
	n.CostRows[i].Currency = cur
	return n
}

// SetCostRowCurrency switches the row's active denomination, forcing the
// inactive slots to zero.
func SetCostRowCurrency(s Session, cutID, itemID string, cur currency.Currency) Session {
	i := findCostRow(s, cutID, itemID)
	if i < 0 || !cur.Valid() {
		return s
	}

	n := s.clone()
	row := n.CostRows[i]
	n.CostRows[i].Prices = currency.Only(cur, row.Prices.Get(cur))
	n.CostRows[i].Currency = cur
	return n
}

// SetCostRowNotes stores free text on the row, clipped to the notes bound.
func SetCostRowNotes(s Session, cutID, itemID, notes string) Session {
	i := findCostRow(s, cutID, itemID)
	if i < 0 {
		return s
	}

	n := s.clone()
	n.CostRows[i].Notes = clipNotes(notes)
	return n
}

// SetTotalOverride records a single total value for itemID, used by total-cost
// mode. Ignored when no row currently references the item.
func SetTotalOverride(s Session, itemID string, value float64, cur currency.Currency) Session {
	if !cur.Valid() || rowsForItem(s, itemID) == 0 {
		return s
	}

	n := s.clone()
	n.Overrides[itemID] = TotalOverride{Value: value, Currency: cur}
	return n
}

// ClearTotalOverride removes the total for itemID, reverting its rows to
// their own stored prices.
func ClearTotalOverride(s Session, itemID string) Session {
	if _, ok := s.Overrides[itemID]; !ok {
		return s
	}

	n := s.clone()
	delete(n.Overrides, itemID)
	return n
}

func findCostRow(s Session, cutID, itemID string) int {
	for i, row := range s.CostRows {
		if row.CutID == cutID && row.CostItemID == itemID {
			return i
		}
	}
	return -1
}

func rowsForItem(s Session, itemID string) int {
	count := 0
	for _, row := range s.CostRows {
		if row.CostItemID == itemID {
			count++
		}
	}
	return count
}
