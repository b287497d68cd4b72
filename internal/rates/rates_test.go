package rates

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHTTPProvider_ReadsSellRate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"compra": 1180.0, "venta": 1200.5}`))
	}))
	defer srv.Close()

	rate, err := NewHTTPProvider(srv.URL).Latest(context.Background())
	if err != nil {
		t.Fatalf("Latest returned error: %v", err)
	}
	if rate.Value != 1200.5 {
		t.Fatalf("rate = %v, want 1200.5", rate.Value)
	}
	if rate.FetchedAt.IsZero() {
		t.Fatal("expected FetchedAt to be set")
	}
}

func TestHTTPProvider_RejectsBadStatusAndBadPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	if _, err := NewHTTPProvider(srv.URL).Latest(context.Background()); err == nil {
		t.Fatal("expected error on non-200 status")
	}

	srv2 := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"venta": 0}`))
	}))
	defer srv2.Close()

	if _, err := NewHTTPProvider(srv2.URL).Latest(context.Background()); err == nil {
		t.Fatal("expected error on non-positive rate")
	}
}

func TestStaticProvider(t *testing.T) {
	rate, err := Static(950).Latest(context.Background())
	if err != nil {
		t.Fatalf("Latest returned error: %v", err)
	}
	if rate.Value != 950 {
		t.Fatalf("rate = %v, want 950", rate.Value)
	}
}
