package chronik

import (
	"context"
	"fmt"
)

// DefaultPageSize is the upstream page size for block transaction lists.
const DefaultPageSize = 200

// Fetcher retrieves a block's full transaction set, paginating when the set
// exceeds a single page.
type Fetcher struct {
	client   Client
	pageSize int
}

// NewFetcher creates a bulk transaction fetcher over the given client.
func NewFetcher(client Client) *Fetcher {
	return &Fetcher{client: client, pageSize: DefaultPageSize}
}

// BlockTxs returns the block's complete ordered transaction list, coinbase
// first. numTxs is the header's declared transaction count; when it fits in
// one page the whole list is fetched with a single call.
func (f *Fetcher) BlockTxs(ctx context.Context, height int64, numTxs int) ([]Tx, error) {
	if numTxs > 0 && numTxs <= f.pageSize {
		page, err := f.client.BlockTxs(ctx, height, 0, numTxs)
		if err != nil {
			return nil, fmt.Errorf("fetch block %d txs: %w", height, err)
		}
		return page.Txs, nil
	}

	var all []Tx
	for page := 0; ; page++ {
		resp, err := f.client.BlockTxs(ctx, height, page, f.pageSize)
		if err != nil {
			return nil, fmt.Errorf("fetch block %d txs page %d: %w", height, page, err)
		}
		if len(resp.Txs) == 0 {
			break
		}
		all = append(all, resp.Txs...)
		if len(resp.Txs) < f.pageSize {
			break
		}
	}
	return all, nil
}
