package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	queueKey    = "metachronik:retry:heights"
	entryTTL    = 24 * time.Hour
	lockTTL     = 5 * time.Minute
	maxAttempts = 10
)

// FailedHeight is one queued retry entry.
type FailedHeight struct {
	ID        string    `json:"id"`
	Height    int64     `json:"height"`
	Reason    string    `json:"reason"`
	Attempts  int       `json:"attempts"`
	FirstSeen time.Time `json:"first_seen"`
	LastTried time.Time `json:"last_tried"`
}

// RetryQueue is a height-ordered queue of blocks that failed processing.
// Heights are the sorted-set score so the oldest gap is always retried
// first, and re-enqueueing an in-flight height is a cheap overwrite.
type RetryQueue struct {
	rdb *redis.Client
}

// NewRetryQueue creates a retry queue over an established client.
func NewRetryQueue(client *Client) *RetryQueue {
	return &RetryQueue{rdb: client.rdb}
}

func entryKey(height int64) string {
	return fmt.Sprintf("metachronik:retry:height:%d", height)
}

func heightLockKey(height int64) string {
	return fmt.Sprintf("metachronik:retry:lock:%d", height)
}

// EnqueueHeight records a failed height. A height already queued keeps its
// entry and attempt count; only the reason and timestamp move.
func (q *RetryQueue) EnqueueHeight(ctx context.Context, height int64, reason string) error {
	entry := FailedHeight{
		ID:        uuid.NewString(),
		Height:    height,
		Reason:    reason,
		FirstSeen: time.Now().UTC(),
	}

	if data, err := q.rdb.Get(ctx, entryKey(height)).Bytes(); err == nil {
		var existing FailedHeight
		if json.Unmarshal(data, &existing) == nil {
			entry.ID = existing.ID
			entry.Attempts = existing.Attempts
			entry.FirstSeen = existing.FirstSeen
		}
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal retry entry: %w", err)
	}
	if err := q.rdb.Set(ctx, entryKey(height), data, entryTTL).Err(); err != nil {
		return fmt.Errorf("failed to store retry entry: %w", err)
	}
	if err := q.rdb.ZAdd(ctx, queueKey, redis.Z{
		Score:  float64(height),
		Member: strconv.FormatInt(height, 10),
	}).Err(); err != nil {
		return fmt.Errorf("failed to enqueue height %d: %w", height, err)
	}
	return nil
}

// Next returns the lowest queued height whose processing lock could be
// acquired, or found=false when the queue is drained. The caller must
// finish with Ack or Requeue.
func (q *RetryQueue) Next(ctx context.Context) (entry *FailedHeight, found bool, err error) {
	members, err := q.rdb.ZRange(ctx, queueKey, 0, -1).Result()
	if err != nil {
		return nil, false, fmt.Errorf("zrange failed: %w", err)
	}

	for _, member := range members {
		height, err := strconv.ParseInt(member, 10, 64)
		if err != nil {
			q.rdb.ZRem(ctx, queueKey, member)
			continue
		}

		locked, err := q.rdb.SetNX(ctx, heightLockKey(height), "locked", lockTTL).Result()
		if err != nil {
			return nil, false, fmt.Errorf("setnx failed: %w", err)
		}
		if !locked {
			continue
		}

		data, err := q.rdb.Get(ctx, entryKey(height)).Bytes()
		if err == redis.Nil {
			// Entry expired, drop the orphaned queue member.
			q.rdb.ZRem(ctx, queueKey, member)
			q.rdb.Del(ctx, heightLockKey(height))
			continue
		}
		if err != nil {
			return nil, false, fmt.Errorf("get entry failed: %w", err)
		}

		var fh FailedHeight
		if err := json.Unmarshal(data, &fh); err != nil {
			q.rdb.ZRem(ctx, queueKey, member)
			q.rdb.Del(ctx, heightLockKey(height))
			continue
		}
		return &fh, true, nil
	}
	return nil, false, nil
}

// Ack removes a successfully retried height from the queue.
func (q *RetryQueue) Ack(ctx context.Context, height int64) error {
	pipe := q.rdb.TxPipeline()
	pipe.ZRem(ctx, queueKey, strconv.FormatInt(height, 10))
	pipe.Del(ctx, entryKey(height))
	pipe.Del(ctx, heightLockKey(height))
	_, err := pipe.Exec(ctx)
	return err
}

// Requeue releases a height after a failed retry, bumping its attempt
// count. Heights past the attempt cap are dropped; the next full
// reconciliation is their last resort.
func (q *RetryQueue) Requeue(ctx context.Context, entry *FailedHeight, reason string) (kept bool, err error) {
	entry.Attempts++
	entry.Reason = reason
	entry.LastTried = time.Now().UTC()

	if entry.Attempts >= maxAttempts {
		if err := q.Ack(ctx, entry.Height); err != nil {
			return false, err
		}
		return false, nil
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return false, fmt.Errorf("failed to marshal retry entry: %w", err)
	}
	pipe := q.rdb.TxPipeline()
	pipe.Set(ctx, entryKey(entry.Height), data, entryTTL)
	// The processing lock stays held as the retry backoff: Next skips
	// locked heights, so a failing height is picked up at most once per
	// lock TTL instead of burning every attempt in a single drain.
	pipe.Expire(ctx, heightLockKey(entry.Height), lockTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, err
	}
	return true, nil
}

// Depth returns the number of queued heights.
func (q *RetryQueue) Depth(ctx context.Context) (int64, error) {
	return q.rdb.ZCard(ctx, queueKey).Result()
}
