package domain

import "context"

// SnapshotCache mirrors the latest tick snapshot in an external cache so the
// read surface can answer across process restarts. The in-process snapshot
// remains authoritative; cache writes are best-effort.
type SnapshotCache interface {
	Set(ctx context.Context, snap Snapshot) error
	Get(ctx context.Context, instrument string) (Snapshot, error)
}

// EventBus is an ephemeral pub/sub channel for tick and position events.
// The WebSocket hub subscribes to it and fans messages out to clients.
type EventBus interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
}
