// Package chronik is the boundary to the upstream ledger-indexing service.
//
// The pipeline consumes it through the narrow Client interface: header and
// transaction reads plus a finalized-block event feed. Everything else the
// upstream service offers (address queries, UTXO state, script decoding) is
// out of scope here.
package chronik

import "context"

// EventType tags a subscription message.
type EventType string

const (
	// EventBlockFinalized signals a newly finalized block at Height.
	EventBlockFinalized EventType = "BLK_FINALIZED"
	// EventBlockInvalidated signals a block the upstream no longer
	// considers part of the chain. The pipeline ignores these: it only
	// ever acted on finalization.
	EventBlockInvalidated EventType = "BLK_INVALIDATED"
	// EventOther covers every non-block message kind.
	EventOther EventType = "OTHER"
)

// BlockEvent is one tagged message from the finalized-block feed.
type BlockEvent struct {
	Type   EventType
	Height int64
	Hash   string
}

// Subscription is a cancellable finalized-block event stream. The channel
// returned by Events is closed when the subscription ends; Err reports why.
type Subscription interface {
	Events() <-chan BlockEvent
	Err() error
	Close()
}

// Client is the upstream ledger client consumed by the pipeline.
type Client interface {
	// BlockchainInfo returns the current chain tip.
	BlockchainInfo(ctx context.Context) (*BlockchainInfo, error)

	// BlockInfo returns the header summary for a height.
	BlockInfo(ctx context.Context, height int64) (*BlockInfo, error)

	// BlockTxs returns one page of a block's ordered transaction list,
	// coinbase first on page zero.
	BlockTxs(ctx context.Context, height int64, page, pageSize int) (*TxPage, error)

	// Subscribe opens the finalized-block event feed. The subscription
	// re-issues itself after transport interruptions; callers only see a
	// closed channel when ctx is done or the feed is irrecoverable.
	Subscribe(ctx context.Context) (Subscription, error)
}
