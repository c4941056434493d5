// Package pricefeed resolves the spot price snapshot stored on newly
// created day rollups.
package pricefeed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ecash-community/metachronik/internal/indexing/metrics"
)

// ErrInvalidPrice is returned when the provider responds without a usable
// positive price.
var ErrInvalidPrice = errors.New("pricefeed: invalid price")

// Source resolves the current XEC/USD spot price.
type Source interface {
	CurrentPrice(ctx context.Context) (decimal.Decimal, error)
}

// Config holds price provider settings.
type Config struct {
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
}

const defaultBaseURL = "https://api.coingecko.com/api/v3"

// CoinGecko implements Source against the CoinGecko simple-price endpoint.
type CoinGecko struct {
	baseURL    string
	httpClient *http.Client
}

// NewCoinGecko creates a CoinGecko price source.
func NewCoinGecko(cfg Config) *CoinGecko {
	baseURL := cfg.URL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &CoinGecko{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// CurrentPrice fetches the current XEC/USD price. Zero, negative and
// missing prices are rejected; callers decide whether a missing price is
// fatal (for day rollups it is not, the snapshot is simply left NULL).
func (c *CoinGecko) CurrentPrice(ctx context.Context) (decimal.Decimal, error) {
	price, err := c.fetch(ctx)
	metrics.UpstreamCallsTotal.WithLabelValues("price").Inc()
	if err != nil {
		metrics.UpstreamErrorsTotal.WithLabelValues("price").Inc()
	}
	return price, err
}

func (c *CoinGecko) fetch(ctx context.Context) (decimal.Decimal, error) {
	url := c.baseURL + "/simple/price?ids=ecash&vs_currencies=usd"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("fetch price: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("fetch price: status %d", resp.StatusCode)
	}

	var payload struct {
		Ecash struct {
			USD *decimal.Decimal `json:"usd"`
		} `json:"ecash"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return decimal.Zero, fmt.Errorf("decode price: %w", err)
	}

	price := payload.Ecash.USD
	if price == nil || !price.IsPositive() {
		return decimal.Zero, ErrInvalidPrice
	}
	return *price, nil
}
