package strategy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/quantex-labs/crossbot/internal/domain"
)

// Manager owns the open/close state transitions for the single position the
// bot may hold on its instrument. It keeps the currently open position in
// memory so tick decisions never need a storage round trip; the durable
// store remains the system of record and the cache is reconciled from it at
// startup.
type Manager struct {
	store      domain.PositionStore
	bus        domain.EventBus
	instrument string
	qty        float64
	dryRun     bool
	logger     *slog.Logger

	mu   sync.Mutex
	open *domain.Position
}

// NewManager creates a Manager for the given instrument with a fixed unit
// quantity per position. When dryRun is true all decisions are computed and
// logged but nothing is written durably; the in-memory cache is then the
// only record. The bus is optional and may be nil.
func NewManager(
	store domain.PositionStore,
	bus domain.EventBus,
	instrument string,
	qty float64,
	dryRun bool,
	logger *slog.Logger,
) *Manager {
	return &Manager{
		store:      store,
		bus:        bus,
		instrument: instrument,
		qty:        qty,
		dryRun:     dryRun,
		logger:     logger.With(slog.String("component", "position_manager")),
	}
}

// Reconcile populates the in-memory cache from durable storage by loading
// the most recent open position for the instrument, if any. It must run
// before the evaluation loop starts so a restart neither loses track of nor
// duplicates an already-open position.
func (m *Manager) Reconcile(ctx context.Context) error {
	if m.dryRun || m.store == nil {
		return nil
	}

	pos, err := m.store.GetLatestOpen(ctx, m.instrument)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			m.logger.InfoContext(ctx, "no open position to reconcile",
				slog.String("instrument", m.instrument),
			)
			return nil
		}
		return fmt.Errorf("strategy: reconcile open position: %w", err)
	}

	m.mu.Lock()
	m.open = &pos
	m.mu.Unlock()

	m.logger.InfoContext(ctx, "reconciled open position from store",
		slog.String("position_id", pos.ID),
		slog.String("side", string(pos.Side)),
		slog.Float64("entry_price", pos.EntryPrice),
	)
	return nil
}

// Open constructs a new open position at the given price with the entry EMA
// snapshot, persists it, and replaces the in-memory cache.
func (m *Manager) Open(ctx context.Context, side domain.Side, price, emaFast, emaSlow float64) error {
	now := time.Now().UTC()
	pos := domain.Position{
		ID:           uuid.New().String(),
		Instrument:   m.instrument,
		Status:       domain.PositionStatusOpen,
		Side:         side,
		Quantity:     m.qty,
		EntryPrice:   price,
		EntryTime:    now,
		EntryEMAFast: emaFast,
		EntryEMASlow: emaSlow,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if !m.dryRun {
		if err := m.store.Create(ctx, pos); err != nil {
			return fmt.Errorf("strategy: create position: %w", err)
		}
	}

	m.mu.Lock()
	m.open = &pos
	m.mu.Unlock()

	m.logger.InfoContext(ctx, "position opened",
		slog.String("position_id", pos.ID),
		slog.String("side", string(side)),
		slog.Float64("entry_price", price),
		slog.Float64("qty", m.qty),
		slog.Bool("dry_run", m.dryRun),
	)

	m.publish(ctx, "position_opened", map[string]any{
		"position_id": pos.ID,
		"instrument":  pos.Instrument,
		"side":        string(pos.Side),
		"entry_price": pos.EntryPrice,
		"qty":         pos.Quantity,
	})
	return nil
}

// Close exits the cached open position at the given price. It is a no-op
// when nothing is cached as open. The durable update is conditional on the
// record still being open; if that fails the in-memory cache is no longer
// trustworthy, so it is cleared and a warning is surfaced, but the tick is
// not failed.
func (m *Manager) Close(ctx context.Context, price, emaFast, emaSlow float64) error {
	m.mu.Lock()
	pos := m.open
	m.mu.Unlock()
	if pos == nil {
		return nil
	}

	pnl := pos.RealizedPnL(price)
	now := time.Now().UTC()

	if !m.dryRun {
		err := m.store.CloseOpen(ctx, pos.ID, domain.PositionClose{
			ExitPrice:   price,
			ExitTime:    now,
			ExitEMAFast: emaFast,
			ExitEMASlow: emaSlow,
			ProfitLoss:  pnl,
		})
		if err != nil {
			if errors.Is(err, domain.ErrPositionNotOpen) {
				m.logger.WarnContext(ctx, "position was no longer open in store, clearing cache",
					slog.String("position_id", pos.ID),
				)
				m.clear()
				return nil
			}
			return fmt.Errorf("strategy: close position %s: %w", pos.ID, err)
		}
	}

	m.clear()

	m.logger.InfoContext(ctx, "position closed",
		slog.String("position_id", pos.ID),
		slog.String("side", string(pos.Side)),
		slog.Float64("exit_price", price),
		slog.Float64("realized_pnl", pnl),
		slog.Bool("dry_run", m.dryRun),
	)

	m.publish(ctx, "position_closed", map[string]any{
		"position_id":  pos.ID,
		"instrument":   pos.Instrument,
		"side":         string(pos.Side),
		"entry_price":  pos.EntryPrice,
		"exit_price":   price,
		"realized_pnl": pnl,
	})
	return nil
}

// OpenPosition returns a copy of the cached open position. The second return
// value is false when no position is cached as open.
func (m *Manager) OpenPosition() (domain.Position, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.open == nil {
		return domain.Position{}, false
	}
	return *m.open, true
}

func (m *Manager) clear() {
	m.mu.Lock()
	m.open = nil
	m.mu.Unlock()
}

// publish sends a position event on the bus. Bus failures are logged and
// never fail the lifecycle operation.
func (m *Manager) publish(ctx context.Context, event string, fields map[string]any) {
	if m.bus == nil {
		return
	}
	fields["event"] = event
	payload, _ := json.Marshal(fields)
	if err := m.bus.Publish(ctx, "positions", payload); err != nil {
		m.logger.WarnContext(ctx, "publish position event failed",
			slog.String("event", event),
			slog.String("error", err.Error()),
		)
	}
}
