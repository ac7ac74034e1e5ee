package domain

import "time"

// PositionStatus tracks whether a position is open or closed.
type PositionStatus string

const (
	PositionStatusOpen   PositionStatus = "open"
	PositionStatusClosed PositionStatus = "closed"
)

// Side is the direction of a position.
type Side string

const (
	SideLong  Side = "long"
	SideShort Side = "short"
)

// Sign returns +1 for a long position and -1 for a short one. It is the
// multiplier applied to (exit - entry) when realizing PnL.
func (s Side) Sign() float64 {
	if s == SideShort {
		return -1
	}
	return 1
}

// Valid reports whether the side is one of the two known values.
func (s Side) Valid() bool {
	return s == SideLong || s == SideShort
}

// Position is the durable record of a single directional exposure for an
// instrument. It is created in status open by an entry decision and mutated
// exactly once, to closed, by an exit decision. Positions are never deleted.
type Position struct {
	ID         string         `json:"id"`
	Instrument string         `json:"instrument"`
	Status     PositionStatus `json:"status"`
	Side       Side           `json:"side"`
	Quantity   float64        `json:"quantity"`
	EntryPrice float64        `json:"entry_price"`
	EntryTime  time.Time      `json:"entry_time"`
	// EMA snapshot of the entry pair at the moment the position was opened.
	EntryEMAFast float64 `json:"entry_ema_fast"`
	EntryEMASlow float64 `json:"entry_ema_slow"`

	// Exit fields are populated only when Status is closed.
	ExitPrice   *float64   `json:"exit_price,omitempty"`
	ExitTime    *time.Time `json:"exit_time,omitempty"`
	ExitEMAFast *float64   `json:"exit_ema_fast,omitempty"`
	ExitEMASlow *float64   `json:"exit_ema_slow,omitempty"`
	ProfitLoss  *float64   `json:"profit_loss,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsOpen reports whether the position is currently open.
func (p Position) IsOpen() bool {
	return p.Status == PositionStatusOpen
}

// RealizedPnL computes the profit or loss of exiting the position at the
// given price: (exit - entry) * qty for longs, (entry - exit) * qty for
// shorts.
func (p Position) RealizedPnL(exitPrice float64) float64 {
	return (exitPrice - p.EntryPrice) * p.Quantity * p.Side.Sign()
}

// PositionClose carries the exit fields applied when transitioning a
// position from open to closed.
type PositionClose struct {
	ExitPrice   float64
	ExitTime    time.Time
	ExitEMAFast float64
	ExitEMASlow float64
	ProfitLoss  float64
}
