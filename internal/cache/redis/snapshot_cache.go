package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/quantex-labs/crossbot/internal/domain"
)

// SnapshotCache implements domain.SnapshotCache using Redis. The latest tick
// snapshot is stored as JSON at key "snapshot:{instrument}" so that a read
// surface in another process can serve it without reaching the evaluator.
type SnapshotCache struct {
	rdb *redis.Client
}

// NewSnapshotCache creates a SnapshotCache backed by the given Client.
func NewSnapshotCache(c *Client) *SnapshotCache {
	return &SnapshotCache{rdb: c.Underlying()}
}

func snapshotKey(instrument string) string {
	return "snapshot:" + instrument
}

// Set stores the snapshot, replacing any previous value for the instrument.
func (sc *SnapshotCache) Set(ctx context.Context, snap domain.Snapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("redis: marshal snapshot %s: %w", snap.Instrument, err)
	}
	if err := sc.rdb.Set(ctx, snapshotKey(snap.Instrument), payload, 0).Err(); err != nil {
		return fmt.Errorf("redis: set snapshot %s: %w", snap.Instrument, err)
	}
	return nil
}

// Get retrieves the latest snapshot for an instrument. It returns
// domain.ErrNotFound when no snapshot has been stored.
func (sc *SnapshotCache) Get(ctx context.Context, instrument string) (domain.Snapshot, error) {
	payload, err := sc.rdb.Get(ctx, snapshotKey(instrument)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.Snapshot{}, domain.ErrNotFound
		}
		return domain.Snapshot{}, fmt.Errorf("redis: get snapshot %s: %w", instrument, err)
	}

	var snap domain.Snapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		return domain.Snapshot{}, fmt.Errorf("redis: decode snapshot %s: %w", instrument, err)
	}
	return snap, nil
}

// Compile-time interface check.
var _ domain.SnapshotCache = (*SnapshotCache)(nil)
