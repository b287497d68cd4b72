package main

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/vittorisantiago/beefvalue-sub000/internal/currency"
	"github.com/vittorisantiago/beefvalue-sub000/internal/valuation"
)

type cutEntry struct {
	Price    float64           `json:"price"`
	Currency currency.Currency `json:"currency"`
	Notes    string            `json:"notes"`
}

type costRowEntry struct {
	CutID      string            `json:"cut_id"`
	CostItemID string            `json:"cost_item_id"`
	Price      float64           `json:"price"`
	Currency   currency.Currency `json:"currency"`
	Notes      string            `json:"notes"`
}

type overrideEntry struct {
	Value    float64           `json:"value"`
	Currency currency.Currency `json:"currency"`
}

// quotationPayload is the full editing state a client submits for preview or
// save. The engine re-derives everything from it; nothing computed client-side
// is trusted.
type quotationPayload struct {
	BusinessID   string                   `json:"business_id"`
	Title        string                   `json:"title"`
	Weight       float64                  `json:"weight"`
	USDPerKg     float64                  `json:"usd_per_kg"`
	ExchangeRate float64                  `json:"exchange_rate"`
	UseTotalCost bool                     `json:"use_total_cost"`
	Cuts         map[string]cutEntry      `json:"cuts"`
	CostRows     []costRowEntry           `json:"cost_rows"`
	Overrides    map[string]overrideEntry `json:"overrides"`
}

// buildSession turns a payload into an engine session. Cut entries are applied
// in catalog order so the macro/sub-cut exclusivity cascade is deterministic
// even for inconsistent input. Unknown cost items are skipped, not fatal.
func (s *server) buildSession(payload quotationPayload) (valuation.Session, error) {
	selected := map[string]bool{}
	if payload.BusinessID != "" {
		var err error
		selected, err = s.businessCuts(payload.BusinessID)
		if err != nil {
			return valuation.Session{}, err
		}
	}

	sess := valuation.NewSession(s.catalog, selected)
	sess.Weight = payload.Weight
	sess.USDPerKg = payload.USDPerKg
	sess.Rate = payload.ExchangeRate
	sess.UseTotalCost = payload.UseTotalCost

	for _, cut := range s.catalog.Cuts() {
		entry, ok := payload.Cuts[cut.ID]
		if !ok {
			continue
		}
		sess = valuation.SetCutPrice(sess, cut.ID, entry.Price, entry.Currency)
		if entry.Notes != "" {
			sess = valuation.SetCutNotes(sess, cut.ID, entry.Notes)
		}
	}

	for _, row := range payload.CostRows {
		if _, ok := s.costItem(row.CostItemID); !ok {
			slog.Warn("skipping cost row with unknown cost item", "cost_item_id", row.CostItemID)
			continue
		}
		sess = valuation.AddCostSelection(sess, []string{row.CutID}, []string{row.CostItemID})
		sess = valuation.SetCostRowPrice(sess, row.CutID, row.CostItemID, row.Price, row.Currency)
		if row.Notes != "" {
			sess = valuation.SetCostRowNotes(sess, row.CutID, row.CostItemID, row.Notes)
		}
	}

	for itemID, entry := range payload.Overrides {
		sess = valuation.SetTotalOverride(sess, itemID, entry.Value, entry.Currency)
	}

	return sess, nil
}

func decodeQuotationPayload(r *http.Request) (quotationPayload, error) {
	var payload quotationPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		return payload, fmt.Errorf("invalid request body")
	}
	payload.Title = strings.TrimSpace(payload.Title)
	if payload.Weight < 0 || payload.USDPerKg < 0 || payload.ExchangeRate < 0 {
		return payload, fmt.Errorf("weight, usd_per_kg and exchange_rate must not be negative")
	}
	return payload, nil
}

// handlePreviewQuotation recomputes the full summary without persisting.
func (s *server) handlePreviewQuotation(w http.ResponseWriter, r *http.Request) {
	payload, err := decodeQuotationPayload(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	sess, err := s.buildSession(payload)
	if err != nil {
		s.respondSessionError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, valuation.Compute(sess))
}

func (s *server) handleCreateQuotation(w http.ResponseWriter, r *http.Request) {
	payload, err := decodeQuotationPayload(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if payload.BusinessID == "" {
		respondError(w, http.StatusBadRequest, "business_id is required")
		return
	}

	sess, err := s.buildSession(payload)
	if err != nil {
		s.respondSessionError(w, err)
		return
	}

	summary := valuation.Compute(sess)
	if !summary.CanSave {
		respondJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error":      "quotation is incomplete",
			"validation": summary.Validation,
		})
		return
	}

	id := uuid.New().String()
	if err := s.saveQuotation(id, payload, summary, false); err != nil {
		slog.Error("failed to save quotation", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to save quotation")
		return
	}

	respondJSON(w, http.StatusCreated, map[string]any{"id": id, "summary": summary})
}

// handleUpdateQuotation fully replaces a quotation: the header row is
// rewritten and every line item is deleted and reinserted, never patched.
func (s *server) handleUpdateQuotation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var exists bool
	if err := s.db.QueryRow(`SELECT EXISTS(SELECT 1 FROM quotations WHERE id = ?)`, id).Scan(&exists); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to load quotation")
		return
	}
	if !exists {
		respondError(w, http.StatusNotFound, "quotation not found")
		return
	}

	payload, err := decodeQuotationPayload(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if payload.BusinessID == "" {
		respondError(w, http.StatusBadRequest, "business_id is required")
		return
	}

	sess, err := s.buildSession(payload)
	if err != nil {
		s.respondSessionError(w, err)
		return
	}

	summary := valuation.Compute(sess)
	if !summary.CanSave {
		respondJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error":      "quotation is incomplete",
			"validation": summary.Validation,
		})
		return
	}

	if err := s.saveQuotation(id, payload, summary, true); err != nil {
		slog.Error("failed to update quotation", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to update quotation")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"id": id, "summary": summary})
}

func (s *server) saveQuotation(id string, payload quotationPayload, summary valuation.Summary, update bool) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin quotation transaction: %w", err)
	}
	defer tx.Rollback()

	v := summary.Variance
	if update {
		_, err = tx.Exec(`
			UPDATE quotations
			SET
				business_id = ?,
				title = ?,
				weight = ?,
				usd_per_kg = ?,
				exchange_rate = ?,
				use_total_cost = ?,
				total_initial_usd = ?,
				total_cuts_usd = ?,
				total_costs_usd = ?,
				difference_usd = ?,
				difference_percentage = ?,
				difference_with_costs_usd = ?,
				difference_with_costs_percentage = ?,
				updated_at = CURRENT_TIMESTAMP
			WHERE id = ?
		`, payload.BusinessID, payload.Title, payload.Weight, payload.USDPerKg, payload.ExchangeRate,
			payload.UseTotalCost, summary.Valuation.TotalInitialUSD, summary.Valuation.TotalCutsUSD,
			summary.Costs.TotalCostsUSD, v.DifferenceUSD, v.DifferencePercentage,
			v.DifferenceWithCostsUSD, v.DifferenceWithCostsPercentage, id)
		if err != nil {
			return fmt.Errorf("update quotation: %w", err)
		}

		// Full replacement of line items.
		if _, err := tx.Exec(`DELETE FROM quotation_cuts WHERE quotation_id = ?`, id); err != nil {
			return fmt.Errorf("delete quotation cuts: %w", err)
		}
		if _, err := tx.Exec(`DELETE FROM quotation_cut_costs WHERE quotation_id = ?`, id); err != nil {
			return fmt.Errorf("delete quotation cut costs: %w", err)
		}
	} else {
		_, err = tx.Exec(`
			INSERT INTO quotations (
				id, business_id, title, weight, usd_per_kg, exchange_rate, use_total_cost,
				total_initial_usd, total_cuts_usd, total_costs_usd,
				difference_usd, difference_percentage,
				difference_with_costs_usd, difference_with_costs_percentage
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, id, payload.BusinessID, payload.Title, payload.Weight, payload.USDPerKg, payload.ExchangeRate,
			payload.UseTotalCost, summary.Valuation.TotalInitialUSD, summary.Valuation.TotalCutsUSD,
			summary.Costs.TotalCostsUSD, v.DifferenceUSD, v.DifferencePercentage,
			v.DifferenceWithCostsUSD, v.DifferenceWithCostsPercentage)
		if err != nil {
			return fmt.Errorf("insert quotation: %w", err)
		}
	}

	for _, line := range summary.Valuation.Lines {
		_, err := tx.Exec(`
			INSERT INTO quotation_cuts (quotation_id, cut_id, percentage, kg, price, currency, value_usd, notes)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, id, line.Cut.ID, line.Cut.Percentage, line.Kg, line.Price, string(line.Currency), line.ValueUSD, line.Notes)
		if err != nil {
			return fmt.Errorf("insert quotation cut: %w", err)
		}
	}

	for _, line := range summary.Costs.Lines {
		_, err := tx.Exec(`
			INSERT INTO quotation_cut_costs (quotation_id, cut_id, cost_item_id, price, currency, usd, notes)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, id, line.CutID, line.CostItemID, line.Price, string(line.Currency), line.USD, line.Notes)
		if err != nil {
			return fmt.Errorf("insert quotation cut cost: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit quotation transaction: %w", err)
	}
	return nil
}

type quotationListItem struct {
	ID            string  `json:"id"`
	CreatedAt     string  `json:"created_at"`
	Title         string  `json:"title"`
	BusinessName  string  `json:"business_name"`
	TotalInitial  float64 `json:"total_initial_usd"`
	TotalCuts     float64 `json:"total_cuts_usd"`
	DifferenceUSD float64 `json:"difference_usd"`
}

func (s *server) handleListQuotations(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	quotations, err := s.listQuotations(query)
	if err != nil {
		slog.Error("failed to list quotations", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to load quotations")
		return
	}

	respondJSON(w, http.StatusOK, quotations)
}

func (s *server) listQuotations(query string) ([]quotationListItem, error) {
	search := "%" + query + "%"
	rows, err := s.db.Query(`
		SELECT
			q.id,
			q.created_at,
			COALESCE(q.title, ''),
			b.name,
			q.total_initial_usd,
			q.total_cuts_usd,
			q.difference_usd
		FROM quotations q
		JOIN businesses b ON b.id = q.business_id
		WHERE (? = '' OR COALESCE(q.title, '') LIKE ? OR b.name LIKE ?)
		ORDER BY datetime(q.created_at) DESC, q.id DESC
	`, query, search, search)
	if err != nil {
		return nil, fmt.Errorf("query quotations: %w", err)
	}
	defer rows.Close()

	quotations := make([]quotationListItem, 0)
	for rows.Next() {
		var item quotationListItem
		if err := rows.Scan(&item.ID, &item.CreatedAt, &item.Title, &item.BusinessName,
			&item.TotalInitial, &item.TotalCuts, &item.DifferenceUSD); err != nil {
			return nil, fmt.Errorf("scan quotation: %w", err)
		}
		quotations = append(quotations, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate quotations: %w", err)
	}

	return quotations, nil
}

type quotationCutLine struct {
	CutID      string  `json:"cut_id"`
	Percentage float64 `json:"percentage"`
	Kg         float64 `json:"kg"`
	Price      float64 `json:"price"`
	Currency   string  `json:"currency"`
	ValueUSD   float64 `json:"value_usd"`
	Notes      string  `json:"notes,omitempty"`
}

type quotationCostLine struct {
	CutID      string  `json:"cut_id"`
	CostItemID string  `json:"cost_item_id"`
	Price      float64 `json:"price"`
	Currency   string  `json:"currency"`
	USD        float64 `json:"usd"`
	Notes      string  `json:"notes,omitempty"`
}

type quotationDetail struct {
	ID                            string              `json:"id"`
	CreatedAt                     string              `json:"created_at"`
	UpdatedAt                     string              `json:"updated_at"`
	Title                         string              `json:"title"`
	BusinessID                    string              `json:"business_id"`
	Weight                        float64             `json:"weight"`
	USDPerKg                      float64             `json:"usd_per_kg"`
	ExchangeRate                  float64             `json:"exchange_rate"`
	UseTotalCost                  bool                `json:"use_total_cost"`
	TotalInitialUSD               float64             `json:"total_initial_usd"`
	TotalCutsUSD                  float64             `json:"total_cuts_usd"`
	TotalCostsUSD                 float64             `json:"total_costs_usd"`
	DifferenceUSD                 float64             `json:"difference_usd"`
	DifferencePercentage          float64             `json:"difference_percentage"`
	DifferenceWithCostsUSD        float64             `json:"difference_with_costs_usd"`
	DifferenceWithCostsPercentage float64             `json:"difference_with_costs_percentage"`
	Cuts                          []quotationCutLine  `json:"cuts"`
	Costs                         []quotationCostLine `json:"costs"`
}

// handleGetQuotation reads the persisted snapshot without recomputing it.
func (s *server) handleGetQuotation(w http.ResponseWriter, r *http.Request) {
	detail, err := s.getQuotation(chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			respondError(w, http.StatusNotFound, "quotation not found")
			return
		}
		slog.Error("failed to load quotation", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to load quotation")
		return
	}

	respondJSON(w, http.StatusOK, detail)
}

func (s *server) getQuotation(id string) (quotationDetail, error) {
	var d quotationDetail
	err := s.db.QueryRow(`
		SELECT
			id, created_at, updated_at, COALESCE(title, ''), business_id,
			weight, usd_per_kg, exchange_rate, use_total_cost,
			total_initial_usd, total_cuts_usd, total_costs_usd,
			difference_usd, difference_percentage,
			difference_with_costs_usd, difference_with_costs_percentage
		FROM quotations
		WHERE id = ?
	`, id).Scan(
		&d.ID, &d.CreatedAt, &d.UpdatedAt, &d.Title, &d.BusinessID,
		&d.Weight, &d.USDPerKg, &d.ExchangeRate, &d.UseTotalCost,
		&d.TotalInitialUSD, &d.TotalCutsUSD, &d.TotalCostsUSD,
		&d.DifferenceUSD, &d.DifferencePercentage,
		&d.DifferenceWithCostsUSD, &d.DifferenceWithCostsPercentage,
	)
	if err != nil {
		return d, err
	}

	cutRows, err := s.db.Query(`
		SELECT cut_id, percentage, kg, price, currency, value_usd, COALESCE(notes, '')
		FROM quotation_cuts
		WHERE quotation_id = ?
	`, id)
	if err != nil {
		return d, fmt.Errorf("query quotation cuts: %w", err)
	}
	defer cutRows.Close()

	d.Cuts = make([]quotationCutLine, 0)
	for cutRows.Next() {
		var line quotationCutLine
		if err := cutRows.Scan(&line.CutID, &line.Percentage, &line.Kg, &line.Price, &line.Currency, &line.ValueUSD, &line.Notes); err != nil {
			return d, fmt.Errorf("scan quotation cut: %w", err)
		}
		d.Cuts = append(d.Cuts, line)
	}
	if err := cutRows.Err(); err != nil {
		return d, fmt.Errorf("iterate quotation cuts: %w", err)
	}

	costRows, err := s.db.Query(`
		SELECT cut_id, cost_item_id, price, currency, usd, COALESCE(notes, '')
		FROM quotation_cut_costs
		WHERE quotation_id = ?
	`, id)
	if err != nil {
		return d, fmt.Errorf("query quotation cut costs: %w", err)
	}
	defer costRows.Close()

	d.Costs = make([]quotationCostLine, 0)
	for costRows.Next() {
		var line quotationCostLine
		if err := costRows.Scan(&line.CutID, &line.CostItemID, &line.Price, &line.Currency, &line.USD, &line.Notes); err != nil {
			return d, fmt.Errorf("scan quotation cut cost: %w", err)
		}
		d.Costs = append(d.Costs, line)
	}
	if err := costRows.Err(); err != nil {
		return d, fmt.Errorf("iterate quotation cut costs: %w", err)
	}

	return d, nil
}

func (s *server) handleDeleteQuotation(w http.ResponseWriter, r *http.Request) {
	result, err := s.db.Exec(`DELETE FROM quotations WHERE id = ?`, chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to delete quotation")
		return
	}
	affected, err := result.RowsAffected()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to delete quotation")
		return
	}
	if affected == 0 {
		respondError(w, http.StatusNotFound, "quotation not found")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *server) respondSessionError(w http.ResponseWriter, err error) {
	if errors.Is(err, errBusinessNotFound) {
		respondError(w, http.StatusNotFound, "business not found")
		return
	}
	slog.Error("failed to build session", "error", err)
	respondError(w, http.StatusInternalServerError, "failed to build quotation session")
}
