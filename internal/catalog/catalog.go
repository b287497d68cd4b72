// Package catalog holds the cut and cost-item reference data and the display
// resolution rules that decide which cuts a quotation prices.
package catalog

// Cut is a catalog entry. Cuts whose Macro is empty and that are listed in the
// macro order are macro-cuts; the rest hang under a macro or stand alone (the
// utility cut).
type Cut struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Percentage float64 `json:"percentage"`
	Macro      string  `json:"macro,omitempty"`
	FixedCost  bool    `json:"fixed_cost"`
	ZeroExempt bool    `json:"zero_exempt"`
}

// CostItem is an operational cost category that can be assigned to cuts.
type CostItem struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
}

// Catalog is the immutable cut reference data for one session.
type Catalog struct {
	cuts       []Cut
	byID       map[string]Cut
	macroOrder []string
	utilityID  string
}

// New builds a Catalog from cuts in catalog order. macroOrder fixes the order
// in which macro families are resolved; utilityID names the always-appended
// handling cut (may be absent from cuts).
func New(cuts []Cut, macroOrder []string, utilityID string) *Catalog {
	c := &Catalog{
		cuts:       append([]Cut(nil), cuts...),
		byID:       make(map[string]Cut, len(cuts)),
		macroOrder: append([]string(nil), macroOrder...),
		utilityID:  utilityID,
	}
	for _, cut := range c.cuts {
		c.byID[cut.ID] = cut
	}
	return c
}

// Cut returns the catalog entry for id.
func (c *Catalog) Cut(id string) (Cut, bool) {
	cut, ok := c.byID[id]
	return cut, ok
}

// Cuts returns all catalog entries in catalog order.
func (c *Catalog) Cuts() []Cut {
	return append([]Cut(nil), c.cuts...)
}

// SubCuts returns the priceable sub-cuts of macroID in catalog order.
// Fixed-cost cuts never take a manual price and are excluded.
func (c *Catalog) SubCuts(macroID string) []Cut {
	var subs []Cut
	for _, cut := range c.cuts {
		if cut.Macro == macroID && !cut.FixedCost {
			subs = append(subs, cut)
		}
	}
	return subs
}

// ResolveDisplayCuts returns the ordered cuts to display and price for a
// business that selected the given cut ids. Per macro family, selecting any
// sub-cut switches the whole family to fine granularity; selecting none keeps
// the macro itself. Selection only toggles granularity, it never picks
// individual sub-cuts. Macro ids with no catalog entry are skipped. The
// utility cut, if present, is always appended last.
func (c *Catalog) ResolveDisplayCuts(selected map[string]bool) []Cut {
	var out []Cut
	for _, macroID := range c.macroOrder {
		macro, ok := c.byID[macroID]
		if !ok {
			continue
		}
		subs := c.SubCuts(macroID)
		fine := false
		for _, sub := range subs {
			if selected[sub.ID] {
				fine = true
				break
			}
		}
		if fine {
			out = append(out, subs...)
		} else {
			out = append(out, macro)
		}
	}
	if util, ok := c.byID[c.utilityID]; ok {
		out = append(out, util)
	}
	return out
}
