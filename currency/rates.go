package currency

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"arcognition/models"
)

// RateCache fetches the FX rate table once and keeps it for the process
// lifetime. The guarded lazy fetch means concurrent first callers observe a
// single in-flight request; everyone else waits for its result. The cron
// refresher may replace the table later, but nothing here requires it.
type RateCache struct {
	base    string
	url     string
	client  *http.Client
	timeout time.Duration

	mu    sync.Mutex
	rates map[string]decimal.Decimal
}

// ratesResponse is the provider's wire shape: rates relative to the base
// currency, i.e. rates[code] units of code per 1 base unit.
type ratesResponse struct {
	Result string             `json:"result"`
	Rates  map[string]float64 `json:"rates"`
}

// NewRateCache creates a rate cache against the given provider endpoint.
// The table is fetched lazily on first use.
func NewRateCache(base, url string, timeout time.Duration) *RateCache {
	return &RateCache{
		base:    base,
		url:     url,
		client:  &http.Client{Timeout: timeout},
		timeout: timeout,
	}
}

// Base returns the base currency code.
func (rc *RateCache) Base() string {
	return rc.base
}

// Rate returns how many units of code one base unit buys. The base currency
// is the identity rate and never triggers a fetch.
func (rc *RateCache) Rate(ctx context.Context, code string) (decimal.Decimal, error) {
	if code == rc.base {
		return decimal.NewFromInt(1), nil
	}

	rc.mu.Lock()
	defer rc.mu.Unlock()

	if rc.rates == nil {
		rates, err := rc.fetch(ctx)
		if err != nil {
			return decimal.Zero, err
		}
		rc.rates = rates
	}

	rate, ok := rc.rates[code]
	if !ok || rate.IsZero() {
		return decimal.Zero, fmt.Errorf("%w: %s", models.ErrMissingRate, code)
	}
	return rate, nil
}

// Convert converts an amount in the given currency into the base currency,
// rounded to 2 decimal places. Identity when code is already the base.
// Returns models.ErrMissingRate when the table has no entry for code.
func (rc *RateCache) Convert(ctx context.Context, amount decimal.Decimal, code string) (decimal.Decimal, error) {
	rate, err := rc.Rate(ctx, code)
	if err != nil {
		return decimal.Zero, err
	}
	return amount.Div(rate).Round(2), nil
}

// Refresh re-fetches the rate table, keeping the old one on failure. Used by
// the scheduled refresher; callers never need to invoke it.
func (rc *RateCache) Refresh(ctx context.Context) error {
	rates, err := rc.fetch(ctx)
	if err != nil {
		return err
	}

	rc.mu.Lock()
	rc.rates = rates
	rc.mu.Unlock()

	log.Printf("rate table refreshed: %d currencies relative to %s", len(rates), rc.base)
	return nil
}

func (rc *RateCache) fetch(ctx context.Context) (map[string]decimal.Decimal, error) {
	ctx, cancel := context.WithTimeout(ctx, rc.timeout)
	defer cancel()

	url := fmt.Sprintf("%s/%s", rc.url, rc.base)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build rates request: %v", err)
	}

	resp, err := rc.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch rate table: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("rate provider returned status %d", resp.StatusCode)
	}

	var body ratesResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode rate table: %v", err)
	}
	if len(body.Rates) == 0 {
		return nil, fmt.Errorf("rate provider returned an empty table")
	}

	rates := make(map[string]decimal.Decimal, len(body.Rates))
	for code, rate := range body.Rates {
		rates[code] = decimal.NewFromFloat(rate)
	}
	log.Printf("fetched rate table: %d currencies relative to %s", len(rates), rc.base)
	return rates, nil
}
