package main

import (
	"math"
	"net/http"
	"testing"

	"github.com/vittorisantiago/beefvalue-sub000/internal/currency"
	"github.com/vittorisantiago/beefvalue-sub000/internal/valuation"
)

// completeQuotationPayload prices every coarse display cut and assigns each
// one a cost row, so the save gates pass. With a 300 kg carcass at 4 USD/kg
// the expected totals are: cuts 390 + 684 + 432 = 1506 USD against an initial
// 1200 USD, and 3 cost rows of 10 USD each.
func completeQuotationPayload(businessID, title string) quotationPayload {
	return quotationPayload{
		BusinessID:   businessID,
		Title:        title,
		Weight:       300,
		USDPerKg:     4,
		ExchangeRate: 1000,
		Cuts: map[string]cutEntry{
			"parrillero": {Price: 5, Currency: currency.USD},
			"ruedas":     {Price: 6, Currency: currency.USD},
			"delantero":  {Price: 4000, Currency: currency.ARS},
		},
		CostRows: []costRowEntry{
			{CutID: "parrillero", CostItemID: "frio", Price: 10, Currency: currency.USD},
			{CutID: "ruedas", CostItemID: "frio", Price: 10, Currency: currency.USD},
			{CutID: "delantero", CostItemID: "frio", Price: 10, Currency: currency.USD},
		},
	}
}

func createTestQuotation(t *testing.T, srv *server, businessID, title string) string {
	t.Helper()

	rec := doRequest(t, srv.routes(), http.MethodPost, "/api/quotations", completeQuotationPayload(businessID, title))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create quotation: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var created struct {
		ID string `json:"id"`
	}
	decodeJSON(t, rec, &created)
	if created.ID == "" {
		t.Fatal("create quotation: expected a generated id")
	}
	return created.ID
}

func TestPreviewQuotationComputesSummary(t *testing.T) {
	srv := newTestServer(t)
	businessID := createTestBusiness(t, srv, "Prevista", nil)

	rec := doRequest(t, srv.routes(), http.MethodPost, "/api/quotations/preview", completeQuotationPayload(businessID, ""))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var summary valuation.Summary
	decodeJSON(t, rec, &summary)

	if !nearlyEqualUSD(summary.Valuation.TotalInitialUSD, 1200) {
		t.Fatalf("expected initial 1200, got %v", summary.Valuation.TotalInitialUSD)
	}
	if !nearlyEqualUSD(summary.Valuation.TotalCutsUSD, 1506) {
		t.Fatalf("expected cuts total 1506, got %v", summary.Valuation.TotalCutsUSD)
	}
	if !nearlyEqualUSD(summary.Costs.TotalCostsUSD, -30) {
		t.Fatalf("expected costs total -30, got %v", summary.Costs.TotalCostsUSD)
	}
	if !nearlyEqualUSD(summary.Variance.DifferenceUSD, -306) {
		t.Fatalf("expected difference -306, got %v", summary.Variance.DifferenceUSD)
	}
	if !nearlyEqualUSD(summary.Variance.DifferenceWithCostsUSD, -276) {
		t.Fatalf("expected difference with costs -276, got %v", summary.Variance.DifferenceWithCostsUSD)
	}
	if !summary.CanSave {
		t.Fatalf("expected a saveable summary, got validation %+v", summary.Validation)
	}

	// Coarse resolution: three macros plus the handling cut.
	if len(summary.Valuation.Lines) != 4 {
		t.Fatalf("expected 4 valuation lines, got %d", len(summary.Valuation.Lines))
	}
}

func TestPreviewQuotationUnknownBusiness(t *testing.T) {
	srv := newTestServer(t)

	payload := completeQuotationPayload("missing", "")
	rec := doRequest(t, srv.routes(), http.MethodPost, "/api/quotations/preview", payload)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown business, got %d", rec.Code)
	}
}

func TestCreateQuotationRejectsIncomplete(t *testing.T) {
	srv := newTestServer(t)
	h := srv.routes()
	businessID := createTestBusiness(t, srv, "Incompleta", nil)

	missingPrice := completeQuotationPayload(businessID, "")
	delete(missingPrice.Cuts, "delantero")
	rec := doRequest(t, h, http.MethodPost, "/api/quotations", missingPrice)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for missing price, got %d: %s", rec.Code, rec.Body.String())
	}
	var detail struct {
		Validation valuation.Validation `json:"validation"`
	}
	decodeJSON(t, rec, &detail)
	if len(detail.Validation.MissingPriceCuts) != 1 || detail.Validation.MissingPriceCuts[0] != "Delantero" {
		t.Fatalf("expected Delantero itemized as unpriced, got %+v", detail.Validation)
	}

	missingCosts := completeQuotationPayload(businessID, "")
	missingCosts.CostRows = nil
	rec = doRequest(t, h, http.MethodPost, "/api/quotations", missingCosts)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for missing costs, got %d", rec.Code)
	}
	decodeJSON(t, rec, &detail)
	if !detail.Validation.MissingCosts {
		t.Fatalf("expected missing costs flagged, got %+v", detail.Validation)
	}

	rec = doRequest(t, h, http.MethodPost, "/api/quotations", quotationPayload{Weight: 1, USDPerKg: 1})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without business_id, got %d", rec.Code)
	}
}

func TestQuotationLifecycle(t *testing.T) {
	srv := newTestServer(t)
	h := srv.routes()
	businessID := createTestBusiness(t, srv, "Completa", nil)

	id := createTestQuotation(t, srv, businessID, "Lote enero")

	rec := doRequest(t, h, http.MethodGet, "/api/quotations/"+id, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var detail quotationDetail
	decodeJSON(t, rec, &detail)
	if detail.BusinessID != businessID || detail.Title != "Lote enero" {
		t.Fatalf("unexpected header: %+v", detail)
	}
	if !nearlyEqualUSD(detail.TotalCutsUSD, 1506) || !nearlyEqualUSD(detail.DifferenceUSD, -306) {
		t.Fatalf("unexpected persisted totals: %+v", detail)
	}
	if len(detail.Cuts) != 4 || len(detail.Costs) != 3 {
		t.Fatalf("expected 4 cut lines and 3 cost lines, got %d and %d", len(detail.Cuts), len(detail.Costs))
	}

	// Editing replaces every line item with the recomputed set.
	updated := completeQuotationPayload(businessID, "Lote enero rev")
	updated.Cuts["ruedas"] = cutEntry{Price: 7, Currency: currency.USD}
	rec = doRequest(t, h, http.MethodPut, "/api/quotations/"+id, updated)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = doRequest(t, h, http.MethodGet, "/api/quotations/"+id, nil)
	decodeJSON(t, rec, &detail)
	if detail.Title != "Lote enero rev" {
		t.Fatalf("expected updated title, got %q", detail.Title)
	}
	if !nearlyEqualUSD(detail.TotalCutsUSD, 1620) || !nearlyEqualUSD(detail.DifferenceUSD, -420) {
		t.Fatalf("unexpected totals after update: %+v", detail)
	}
	if len(detail.Cuts) != 4 || len(detail.Costs) != 3 {
		t.Fatalf("expected line items replaced, got %d cuts and %d costs", len(detail.Cuts), len(detail.Costs))
	}

	rec = doRequest(t, h, http.MethodDelete, "/api/quotations/"+id, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	rec = doRequest(t, h, http.MethodGet, "/api/quotations/"+id, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", rec.Code)
	}

	var orphans int
	if err := srv.db.QueryRow(`SELECT COUNT(*) FROM quotation_cuts WHERE quotation_id = ?`, id).Scan(&orphans); err != nil {
		t.Fatalf("count quotation cuts: %v", err)
	}
	if orphans != 0 {
		t.Fatalf("expected line items cascade-deleted, found %d", orphans)
	}
}

func TestUpdateQuotationUnknownID(t *testing.T) {
	srv := newTestServer(t)
	businessID := createTestBusiness(t, srv, "Sin Historia", nil)

	rec := doRequest(t, srv.routes(), http.MethodPut, "/api/quotations/missing", completeQuotationPayload(businessID, ""))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestListQuotationsFiltersByTitleAndBusiness(t *testing.T) {
	srv := newTestServer(t)
	businessID := createTestBusiness(t, srv, "Filtrada", nil)

	createTestQuotation(t, srv, businessID, "Lote enero")
	createTestQuotation(t, srv, businessID, "Lote febrero")

	all, err := srv.listQuotations("")
	if err != nil {
		t.Fatalf("listQuotations returned error: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 quotations, got %d", len(all))
	}

	byTitle, err := srv.listQuotations("febrero")
	if err != nil {
		t.Fatalf("listQuotations title filter returned error: %v", err)
	}
	if len(byTitle) != 1 || byTitle[0].Title != "Lote febrero" {
		t.Fatalf("expected 1 quotation filtered by title, got %+v", byTitle)
	}

	byBusiness, err := srv.listQuotations("Filtrada")
	if err != nil {
		t.Fatalf("listQuotations business filter returned error: %v", err)
	}
	if len(byBusiness) != 2 {
		t.Fatalf("expected 2 quotations filtered by business name, got %+v", byBusiness)
	}
}

func nearlyEqualUSD(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}
