package domain

import (
	"context"
	"time"
)

// ListOpts provides pagination for list queries.
type ListOpts struct {
	Limit  int
	Offset int
}

// PositionStore persists positions. The store is the system of record; the
// in-process cache held by the strategy layer is best-effort between a
// successful open and a successful close.
type PositionStore interface {
	// Create inserts a new position record.
	Create(ctx context.Context, pos Position) error

	// CloseOpen applies the exit fields to the position with the given id,
	// but only if its status is still open. It returns ErrPositionNotOpen
	// when no open row matched, which callers must treat as a lost-update
	// conflict rather than a storage failure.
	CloseOpen(ctx context.Context, id string, close PositionClose) error

	// GetLatestOpen returns the most recently created open position for the
	// instrument, or ErrNotFound when none exists.
	GetLatestOpen(ctx context.Context, instrument string) (Position, error)

	// ListHistory returns positions for the instrument, newest first.
	ListHistory(ctx context.Context, instrument string, opts ListOpts) ([]Position, error)

	// ListClosedBefore returns closed positions whose exit time is strictly
	// before the cutoff, for archival.
	ListClosedBefore(ctx context.Context, before time.Time) ([]Position, error)

	// TotalRealizedPnL sums the realized profit/loss of all closed positions
	// for the instrument.
	TotalRealizedPnL(ctx context.Context, instrument string) (float64, error)
}
