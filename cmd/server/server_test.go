package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/vittorisantiago/beefvalue-sub000/internal/db"
	"github.com/vittorisantiago/beefvalue-sub000/internal/migrations"
	"github.com/vittorisantiago/beefvalue-sub000/internal/rates"
	"github.com/vittorisantiago/beefvalue-sub000/internal/seed"
)

func newTestServer(t *testing.T) *server {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "server-test.db")
	database, err := db.Open(dbPath)
	if err != nil {
		t.Fatalf("open sqlite database: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	if err := migrations.Up(database, "../../migrations"); err != nil {
		t.Fatalf("run migrations: %v", err)
	}
	if _, err := seed.Run(database); err != nil {
		t.Fatalf("run seed: %v", err)
	}

	cat, err := loadCatalog(database)
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	items, err := loadCostItems(database)
	if err != nil {
		t.Fatalf("load cost items: %v", err)
	}

	return &server{
		db:        database,
		catalog:   cat,
		costItems: items,
		rates:     rates.Static(1000),
	}
}

func doRequest(t *testing.T, h http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		reader = bytes.NewReader(buf)
	}

	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("decode response body: %v (body=%s)", err, rec.Body.String())
	}
}

func TestListCutsReturnsSeededCatalog(t *testing.T) {
	srv := newTestServer(t)
	h := srv.routes()

	rec := doRequest(t, h, http.MethodGet, "/api/cuts", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var cuts []struct {
		ID    string `json:"id"`
		Macro string `json:"macro"`
	}
	decodeJSON(t, rec, &cuts)
	if len(cuts) == 0 {
		t.Fatal("expected seeded cuts, got none")
	}

	byID := make(map[string]string)
	for _, c := range cuts {
		byID[c.ID] = c.Macro
	}
	for _, id := range []string{"parrillero", "ruedas", "delantero", "oreo"} {
		if _, ok := byID[id]; !ok {
			t.Fatalf("expected cut %q in catalog listing", id)
		}
	}
	if byID["asado"] != "parrillero" {
		t.Fatalf("expected asado under parrillero, got macro %q", byID["asado"])
	}
}

func TestListCostItemsReturnsSeededItems(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv.routes(), http.MethodGet, "/api/cost-items", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var items []struct {
		ID string `json:"id"`
	}
	decodeJSON(t, rec, &items)
	if len(items) != len(srv.costItems) {
		t.Fatalf("expected %d cost items, got %d", len(srv.costItems), len(items))
	}
}

type failingRates struct{}

func (failingRates) Latest(context.Context) (rates.Rate, error) {
	return rates.Rate{}, fmt.Errorf("upstream unavailable")
}

func TestGetRateReportsValueAndDegradesGracefully(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv.routes(), http.MethodGet, "/api/rate", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var ok struct {
		Available bool    `json:"available"`
		Value     float64 `json:"value"`
	}
	decodeJSON(t, rec, &ok)
	if !ok.Available || ok.Value != 1000 {
		t.Fatalf("expected available rate of 1000, got %+v", ok)
	}

	srv.rates = failingRates{}
	rec = doRequest(t, srv.routes(), http.MethodGet, "/api/rate", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected degraded 200, got %d", rec.Code)
	}
	var degraded struct {
		Available bool    `json:"available"`
		Value     float64 `json:"value"`
	}
	decodeJSON(t, rec, &degraded)
	if degraded.Available || degraded.Value != 0 {
		t.Fatalf("expected unavailable zero rate, got %+v", degraded)
	}
}
