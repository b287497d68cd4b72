package main

import (
	"database/sql"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vittorisantiago/beefvalue-sub000/internal/catalog"
)

// loadCatalog reads the full cut catalog. Macro resolution order is the
// catalog order of cuts that have no parent; the utility cut is flagged in
// the table rather than hardcoded by name.
func loadCatalog(database *sql.DB) (*catalog.Catalog, error) {
	rows, err := database.Query(`
		SELECT id, name, percentage, COALESCE(macro, ''), fixed_cost, zero_exempt, utility
		FROM cuts
		ORDER BY sort_order
	`)
	if err != nil {
		return nil, fmt.Errorf("query cuts: %w", err)
	}
	defer rows.Close()

	var (
		cuts       []catalog.Cut
		macroOrder []string
		utilityID  string
	)
	for rows.Next() {
		var cut catalog.Cut
		var utility bool
		if err := rows.Scan(&cut.ID, &cut.Name, &cut.Percentage, &cut.Macro, &cut.FixedCost, &cut.ZeroExempt, &utility); err != nil {
			return nil, fmt.Errorf("scan cut: %w", err)
		}
		cuts = append(cuts, cut)
		switch {
		case utility:
			utilityID = cut.ID
		case cut.Macro == "":
			macroOrder = append(macroOrder, cut.ID)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cuts: %w", err)
	}

	return catalog.New(cuts, macroOrder, utilityID), nil
}

func loadCostItems(database *sql.DB) ([]catalog.CostItem, error) {
	rows, err := database.Query(`
		SELECT id, name, category
		FROM cost_items
		ORDER BY category, name
	`)
	if err != nil {
		return nil, fmt.Errorf("query cost items: %w", err)
	}
	defer rows.Close()

	items := make([]catalog.CostItem, 0)
	for rows.Next() {
		var item catalog.CostItem
		if err := rows.Scan(&item.ID, &item.Name, &item.Category); err != nil {
			return nil, fmt.Errorf("scan cost item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cost items: %w", err)
	}

	return items, nil
}

func (s *server) costItem(id string) (catalog.CostItem, bool) {
	for _, item := range s.costItems {
		if item.ID == id {
			return item, true
		}
	}
	return catalog.CostItem{}, false
}

func (s *server) handleListCuts(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.catalog.Cuts())
}

func (s *server) handleListCostItems(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.costItems)
}

// handleDisplayCuts resolves the ordered cuts a business's quotations price.
func (s *server) handleDisplayCuts(w http.ResponseWriter, r *http.Request) {
	selected, err := s.businessCuts(chi.URLParam(r, "id"))
	if err != nil {
		if err == errBusinessNotFound {
			respondError(w, http.StatusNotFound, "business not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to load business")
		return
	}

	respondJSON(w, http.StatusOK, s.catalog.ResolveDisplayCuts(selected))
}
