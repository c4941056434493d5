package chronik

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/ecash-community/metachronik/internal/indexing/metrics"
)

// ErrNotFound is returned for heights past the current tip.
var ErrNotFound = errors.New("chronik: not found")

// Config holds upstream client settings.
type Config struct {
	URL          string        `yaml:"url"`
	Timeout      time.Duration `yaml:"timeout"`
	PollInterval time.Duration `yaml:"poll_interval"`
}

// HTTPClient implements Client against the chronik JSON REST surface.
type HTTPClient struct {
	baseURL      string
	httpClient   *http.Client
	pollInterval time.Duration
}

// NewHTTPClient creates an upstream client. The returned client is safe for
// concurrent use.
func NewHTTPClient(cfg Config) *HTTPClient {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	pollInterval := cfg.PollInterval
	if pollInterval == 0 {
		pollInterval = 5 * time.Second
	}
	return &HTTPClient{
		baseURL: cfg.URL,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		pollInterval: pollInterval,
	}
}

// BlockchainInfo returns the current chain tip.
func (c *HTTPClient) BlockchainInfo(ctx context.Context) (*BlockchainInfo, error) {
	var info BlockchainInfo
	if err := c.get(ctx, "blockchain-info", "/blockchain-info", &info); err != nil {
		return nil, fmt.Errorf("blockchain info: %w", err)
	}
	return &info, nil
}

// BlockInfo returns the header summary for a height.
func (c *HTTPClient) BlockInfo(ctx context.Context, height int64) (*BlockInfo, error) {
	// The block endpoint wraps the header in a blockInfo field.
	var block struct {
		BlockInfo BlockInfo `json:"blockInfo"`
	}
	if err := c.get(ctx, "block", fmt.Sprintf("/block/%d", height), &block); err != nil {
		return nil, fmt.Errorf("block %d: %w", height, err)
	}
	return &block.BlockInfo, nil
}

// BlockTxs returns one page of a block's transaction list.
func (c *HTTPClient) BlockTxs(ctx context.Context, height int64, page, pageSize int) (*TxPage, error) {
	var txPage TxPage
	path := fmt.Sprintf("/block-txs/%d?page=%d&page_size=%d", height, page, pageSize)
	if err := c.get(ctx, "block-txs", path, &txPage); err != nil {
		return nil, fmt.Errorf("block txs %d page %d: %w", height, page, err)
	}
	return &txPage, nil
}

// get performs a GET with transient-failure backoff. 404 maps to
// ErrNotFound and is not retried; 5xx and transport errors are retried a
// few times before surfacing.
func (c *HTTPClient) get(ctx context.Context, method, path string, out any) error {
	metrics.UpstreamCallsTotal.WithLabelValues(method).Inc()
	backoff := retry.WithMaxRetries(3, retry.NewFibonacci(500*time.Millisecond))

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return retry.RetryableError(fmt.Errorf("request: %w", err))
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusNotFound:
			return ErrNotFound
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			return retry.RetryableError(fmt.Errorf("status %d", resp.StatusCode))
		case resp.StatusCode != http.StatusOK:
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			return fmt.Errorf("status %d: %s", resp.StatusCode, body)
		}

		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		return nil
	})
	if err != nil {
		metrics.UpstreamErrorsTotal.WithLabelValues(method).Inc()
	}
	return err
}
