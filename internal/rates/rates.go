// Package rates supplies the ARS/USD reference exchange rate. The valuation
// engine never fetches rates itself; the server asks a Provider at the session
// boundary and degrades to a zero rate when none is available.
package rates

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Rate is one exchange-rate observation.
type Rate struct {
	Value     float64   `json:"value"`
	FetchedAt time.Time `json:"fetched_at"`
}

// Provider supplies the latest ARS-per-USD rate.
type Provider interface {
	Latest(ctx context.Context) (Rate, error)
}

// HTTPProvider reads the rate from a dolarapi-style JSON endpoint.
type HTTPProvider struct {
	url    string
	client *http.Client
}

// NewHTTPProvider returns a provider polling the given endpoint.
func NewHTTPProvider(url string) *HTTPProvider {
	return &HTTPProvider{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

type dolarAPIResponse struct {
	Compra float64 `json:"compra"`
	Venta  float64 `json:"venta"`
}

// Latest fetches the current sell rate.
func (p *HTTPProvider) Latest(ctx context.Context) (Rate, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return Rate{}, fmt.Errorf("build rate request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return Rate{}, fmt.Errorf("fetch exchange rate: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Rate{}, fmt.Errorf("fetch exchange rate: unexpected status %d", resp.StatusCode)
	}

	var payload dolarAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return Rate{}, fmt.Errorf("decode exchange rate: %w", err)
	}
	if payload.Venta <= 0 {
		return Rate{}, fmt.Errorf("exchange rate endpoint returned %v", payload.Venta)
	}

	return Rate{Value: payload.Venta, FetchedAt: time.Now()}, nil
}

// Static is a fixed-rate provider, useful in tests and offline development.
type Static float64

// Latest returns the fixed rate.
func (s Static) Latest(context.Context) (Rate, error) {
	return Rate{Value: float64(s), FetchedAt: time.Now()}, nil
}
