package chronik

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// tipSubscription surfaces finalized blocks as a tagged event stream by
// watching the chain tip. Transport interruptions are absorbed internally:
// a failed tip query is retried on the next interval, and the next
// successful one emits every height finalized in between, so consumers see
// an at-least-once feed with no hidden reconnect state.
type tipSubscription struct {
	client   *HTTPClient
	events   chan BlockEvent
	cancel   context.CancelFunc
	interval time.Duration

	mu  sync.Mutex
	err error

	closeOnce sync.Once
}

// Subscribe opens the finalized-block feed. The initial tip query is the
// only call allowed to fail the subscription; after that the feed runs
// until ctx is done or Close is called.
func (c *HTTPClient) Subscribe(ctx context.Context) (Subscription, error) {
	info, err := c.BlockchainInfo(ctx)
	if err != nil {
		return nil, err
	}

	subCtx, cancel := context.WithCancel(ctx)
	sub := &tipSubscription{
		client:   c,
		events:   make(chan BlockEvent, 16),
		cancel:   cancel,
		interval: c.pollInterval,
	}
	go sub.run(subCtx, info.TipHeight)
	return sub, nil
}

func (s *tipSubscription) run(ctx context.Context, lastTip int64) {
	defer close(s.events)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.setErr(ctx.Err())
			return
		case <-ticker.C:
		}

		info, err := s.client.BlockchainInfo(ctx)
		if err != nil {
			slog.Debug("Tip query failed, will retry", "error", err)
			continue
		}

		if info.TipHeight < lastTip {
			// The upstream no longer reports our last tip; treat the
			// replaced heights as invalidated.
			for h := info.TipHeight + 1; h <= lastTip; h++ {
				if !s.emit(ctx, BlockEvent{Type: EventBlockInvalidated, Height: h}) {
					return
				}
			}
			lastTip = info.TipHeight
			continue
		}

		for h := lastTip + 1; h <= info.TipHeight; h++ {
			ev := BlockEvent{Type: EventBlockFinalized, Height: h}
			if h == info.TipHeight {
				ev.Hash = info.TipHash
			}
			if !s.emit(ctx, ev) {
				return
			}
		}
		lastTip = info.TipHeight
	}
}

func (s *tipSubscription) emit(ctx context.Context, ev BlockEvent) bool {
	select {
	case s.events <- ev:
		return true
	case <-ctx.Done():
		s.setErr(ctx.Err())
		return false
	}
}

func (s *tipSubscription) setErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err == nil {
		s.err = err
	}
}

// Events returns the event channel; closed when the subscription ends.
func (s *tipSubscription) Events() <-chan BlockEvent { return s.events }

// Err reports why the subscription ended, nil while it is live.
func (s *tipSubscription) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Close cancels the subscription.
func (s *tipSubscription) Close() {
	s.closeOnce.Do(s.cancel)
}
