package strategy

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/quantex-labs/crossbot/internal/domain"
	"github.com/quantex-labs/crossbot/internal/indicator"
)

// Params holds the strategy parameters for one evaluator instance.
type Params struct {
	Instrument string
	Interval   string
	// Entry pair governs opening a position, exit pair governs closing it.
	EntryFastPeriod int
	EntrySlowPeriod int
	ExitFastPeriod  int
	ExitSlowPeriod  int
	// WindowMargin is the number of extra bars fetched beyond the slowest
	// period so the EMA engine has warm-up samples for a stable trailing pair.
	WindowMargin int
	// FetchTimeout bounds the price-window request.
	FetchTimeout time.Duration
}

// minWindow is the shortest acceptable price window: anything below the
// slowest configured period aborts the tick.
func (p Params) minWindow() int {
	n := p.EntrySlowPeriod
	if p.ExitSlowPeriod > n {
		n = p.ExitSlowPeriod
	}
	return n
}

// Evaluator runs the crossover evaluation loop: one Tick fetches a price
// window, computes the four EMA series, detects entry and exit crossovers,
// applies the decision rules against the cached open position, and refreshes
// the snapshot. Ticks are serialized by a non-blocking guard; an overlapping
// trigger is dropped, never queued.
type Evaluator struct {
	params  Params
	source  domain.CandleSource
	manager *Manager
	cache   domain.SnapshotCache
	bus     domain.EventBus
	guard   *semaphore.Weighted
	logger  *slog.Logger

	mu   sync.RWMutex
	snap domain.Snapshot
}

// NewEvaluator creates an Evaluator. The snapshot cache and bus are optional
// mirrors and may be nil; the in-process snapshot is authoritative.
func NewEvaluator(
	params Params,
	source domain.CandleSource,
	manager *Manager,
	cache domain.SnapshotCache,
	bus domain.EventBus,
	logger *slog.Logger,
) *Evaluator {
	if params.FetchTimeout <= 0 {
		params.FetchTimeout = 10 * time.Second
	}
	return &Evaluator{
		params:  params,
		source:  source,
		manager: manager,
		cache:   cache,
		bus:     bus,
		guard:   semaphore.NewWeighted(1),
		logger:  logger.With(slog.String("component", "evaluator")),
	}
}

// Tick performs one evaluation cycle. It causes at most one position state
// transition and refreshes the snapshot whenever the price window could be
// evaluated. When another tick is already in flight it returns immediately
// without doing any work. Errors are returned for observability but callers
// in the scheduling path only log them; no tick failure stops the loop.
func (e *Evaluator) Tick(ctx context.Context) error {
	if !e.guard.TryAcquire(1) {
		e.logger.DebugContext(ctx, "tick already in flight, dropping trigger")
		return nil
	}
	defer e.guard.Release(1)

	closes, err := e.fetchWindow(ctx)
	if err != nil {
		e.logger.WarnContext(ctx, "tick aborted",
			slog.String("instrument", e.params.Instrument),
			slog.String("error", err.Error()),
		)
		return err
	}

	entryFast := indicator.EMA(e.params.EntryFastPeriod, closes)
	entrySlow := indicator.EMA(e.params.EntrySlowPeriod, closes)
	exitFast := indicator.EMA(e.params.ExitFastPeriod, closes)
	exitSlow := indicator.EMA(e.params.ExitSlowPeriod, closes)

	snap := domain.Snapshot{
		Instrument:   e.params.Instrument,
		Price:        closes[len(closes)-1],
		EntryEMAFast: last(entryFast),
		EntryEMASlow: last(entrySlow),
		ExitEMAFast:  last(exitFast),
		ExitEMASlow:  last(exitSlow),
		EntrySignal:  crossOf(entryFast, entrySlow),
		ExitSignal:   crossOf(exitFast, exitSlow),
		EvaluatedAt:  time.Now().UTC(),
	}

	decisionErr := e.decide(ctx, snap)

	// The snapshot is refreshed regardless of whether a trade action
	// occurred or succeeded.
	e.setSnapshot(ctx, snap)

	return decisionErr
}

// fetchWindow requests the price window under a bounded timeout and enforces
// the minimum-length rule.
func (e *Evaluator) fetchWindow(ctx context.Context) ([]float64, error) {
	need := e.params.minWindow()
	limit := need + e.params.WindowMargin

	fetchCtx, cancel := context.WithTimeout(ctx, e.params.FetchTimeout)
	defer cancel()

	closes, err := e.source.Closes(fetchCtx, e.params.Instrument, e.params.Interval, limit)
	if err != nil {
		return nil, fmt.Errorf("fetch price window: %w", err)
	}
	if len(closes) < need {
		return nil, fmt.Errorf("%w: got %d bars, need %d",
			domain.ErrInsufficientData, len(closes), need)
	}
	return closes, nil
}

// decide applies the entry/exit rules against the in-memory position cache.
// The cache is deliberately not re-read from storage here: the guard already
// serializes ticks, and a fresh read would reopen the race window within the
// same tick.
func (e *Evaluator) decide(ctx context.Context, snap domain.Snapshot) error {
	pos, held := e.manager.OpenPosition()

	if !held {
		switch snap.EntrySignal {
		case domain.CrossGolden:
			return e.manager.Open(ctx, domain.SideLong, snap.Price, snap.EntryEMAFast, snap.EntryEMASlow)
		case domain.CrossDeath:
			return e.manager.Open(ctx, domain.SideShort, snap.Price, snap.EntryEMAFast, snap.EntryEMASlow)
		}
		return nil
	}

	// Entry signals are ignored entirely while a position is open: no
	// pyramiding and no reversal mid-trade.
	switch {
	case pos.Side == domain.SideLong && snap.ExitSignal == domain.CrossDeath:
		return e.manager.Close(ctx, snap.Price, snap.ExitEMAFast, snap.ExitEMASlow)
	case pos.Side == domain.SideShort && snap.ExitSignal == domain.CrossGolden:
		return e.manager.Close(ctx, snap.Price, snap.ExitEMAFast, snap.ExitEMASlow)
	}
	return nil
}

// setSnapshot stores the snapshot in process memory and best-effort mirrors
// it to the external cache and the event bus.
func (e *Evaluator) setSnapshot(ctx context.Context, snap domain.Snapshot) {
	e.mu.Lock()
	e.snap = snap
	e.mu.Unlock()

	if e.cache != nil {
		if err := e.cache.Set(ctx, snap); err != nil {
			e.logger.WarnContext(ctx, "snapshot cache write failed",
				slog.String("error", err.Error()),
			)
		}
	}
	if e.bus != nil {
		payload, _ := json.Marshal(snap)
		if err := e.bus.Publish(ctx, "ticks", payload); err != nil {
			e.logger.WarnContext(ctx, "snapshot publish failed",
				slog.String("error", err.Error()),
			)
		}
	}
}

// Snapshot returns the most recent evaluation snapshot. The zero value is
// returned before the first completed tick.
func (e *Evaluator) Snapshot() domain.Snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.snap
}

// EnsureFresh triggers an on-demand tick when the snapshot is older than the
// threshold, then returns the current snapshot. A concurrent scheduled tick
// makes the on-demand trigger a no-op, which is the intended drop semantics.
func (e *Evaluator) EnsureFresh(ctx context.Context, threshold time.Duration) domain.Snapshot {
	if e.Snapshot().StaleAfter(time.Now(), threshold) {
		if err := e.Tick(ctx); err != nil {
			e.logger.WarnContext(ctx, "on-demand tick failed",
				slog.String("error", err.Error()),
			)
		}
	}
	return e.Snapshot()
}

// RunLoop runs ticks on a fixed cadence aligned to the top of each sampling
// interval until the context is cancelled. Tick errors are logged and the
// loop continues on the next cadence.
func (e *Evaluator) RunLoop(ctx context.Context, interval time.Duration) error {
	e.logger.Info("evaluation loop starting",
		slog.String("instrument", e.params.Instrument),
		slog.Duration("interval", interval),
	)

	// Align the first tick to the next interval boundary.
	wait := time.Until(time.Now().Truncate(interval).Add(interval))
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(wait):
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := e.Tick(ctx); err != nil && ctx.Err() == nil {
			e.logger.WarnContext(ctx, "scheduled tick failed",
				slog.String("error", err.Error()),
			)
		}

		select {
		case <-ctx.Done():
			e.logger.Info("evaluation loop stopped")
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func last(series []float64) float64 {
	if len(series) == 0 {
		return 0
	}
	return series[len(series)-1]
}

// crossOf feeds the trailing pair of a fast/slow EMA series into the
// detector. A series too short to have a previous sample yields no cross.
func crossOf(fast, slow []float64) domain.Cross {
	prevFast, lastFast, ok := indicator.LastTwo(fast)
	if !ok {
		return domain.CrossNone
	}
	prevSlow, lastSlow, ok := indicator.LastTwo(slow)
	if !ok {
		return domain.CrossNone
	}
	return DetectCross(prevFast, prevSlow, lastFast, lastSlow)
}
