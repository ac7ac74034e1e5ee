package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/quantex-labs/crossbot/internal/notify"
	"github.com/quantex-labs/crossbot/internal/server"
	"github.com/quantex-labs/crossbot/internal/server/handler"
	"github.com/quantex-labs/crossbot/internal/server/ws"
	"github.com/quantex-labs/crossbot/internal/strategy"
)

// archiveRetention is how long closed positions stay in Postgres before the
// archive loop moves them to object storage.
const archiveRetention = 30 * 24 * time.Hour

// buildStrategy constructs the position manager and evaluator from the wired
// dependencies and reconciles the manager's cache from durable storage.
func (a *App) buildStrategy(ctx context.Context, deps *Dependencies) (*strategy.Manager, *strategy.Evaluator, error) {
	manager := strategy.NewManager(
		deps.PositionStore,
		deps.EventBus,
		a.cfg.Strategy.Instrument,
		a.cfg.Strategy.Quantity,
		a.cfg.Strategy.DryRun,
		a.logger,
	)
	if err := manager.Reconcile(ctx); err != nil {
		return nil, nil, fmt.Errorf("app: reconcile: %w", err)
	}

	evaluator := strategy.NewEvaluator(
		strategy.Params{
			Instrument:      a.cfg.Strategy.Instrument,
			Interval:        a.cfg.Strategy.Interval,
			EntryFastPeriod: a.cfg.Strategy.EntryFastPeriod,
			EntrySlowPeriod: a.cfg.Strategy.EntrySlowPeriod,
			ExitFastPeriod:  a.cfg.Strategy.ExitFastPeriod,
			ExitSlowPeriod:  a.cfg.Strategy.ExitSlowPeriod,
			WindowMargin:    a.cfg.Strategy.WindowMargin,
			FetchTimeout:    a.cfg.Binance.FetchTimeout.Duration,
		},
		deps.Source,
		manager,
		deps.SnapshotCache,
		deps.EventBus,
		a.logger,
	)
	return manager, evaluator, nil
}

// RunMode starts the continuous evaluation loop together with the HTTP/WS
// server, notification watcher, and archive loop, and blocks until the
// context is cancelled.
func (a *App) RunMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting run mode")

	_, evaluator, err := a.buildStrategy(ctx, deps)
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return evaluator.RunLoop(ctx, a.cfg.Strategy.IntervalDuration())
	})

	// Notification watcher: forwards position events from the bus to the
	// configured senders. Needs the Redis bus.
	if deps.EventBus != nil && deps.Notifier != nil {
		g.Go(func() error {
			return notify.WatchPositions(ctx, deps.EventBus, deps.Notifier, a.logger)
		})
	}

	// Archive loop: once a day, move closed positions past retention to S3.
	if deps.Archiver != nil {
		g.Go(func() error {
			return a.runArchiveLoop(ctx, deps)
		})
	}

	// HTTP server.
	if a.cfg.Server.Enabled {
		a.startHTTPServer(ctx, g, deps, evaluator)
	}

	return g.Wait()
}

// OnceMode performs a single evaluation tick and exits. It is meant for cron
// style scheduling where the process is not long-lived.
func (a *App) OnceMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting once mode")

	_, evaluator, err := a.buildStrategy(ctx, deps)
	if err != nil {
		return err
	}

	if err := evaluator.Tick(ctx); err != nil {
		return fmt.Errorf("app: tick: %w", err)
	}

	snap := evaluator.Snapshot()
	a.logger.InfoContext(ctx, "tick complete",
		slog.String("instrument", snap.Instrument),
		slog.String("entry_signal", string(snap.EntrySignal)),
		slog.String("exit_signal", string(snap.ExitSignal)),
		slog.Float64("price", snap.Price),
	)
	return nil
}

// startHTTPServer adds the HTTP server goroutines to the given errgroup. The
// WebSocket hub is attached only when the Redis event bus is available; the
// position routes only when the store is wired (not in dry-run). The server
// is shut down gracefully when the context is cancelled.
func (a *App) startHTTPServer(
	ctx context.Context,
	g *errgroup.Group,
	deps *Dependencies,
	evaluator *strategy.Evaluator,
) {
	var hub *ws.Hub
	if deps.EventBus != nil {
		hub = ws.NewHub(deps.EventBus, a.logger, ws.Config{
			Mode:       a.cfg.Mode,
			Instrument: a.cfg.Strategy.Instrument,
			StartedAt:  time.Now().UTC(),
		})
		g.Go(func() error {
			return hub.Run(ctx)
		})
	}

	handlers := server.Handlers{
		Health: handler.NewHealthHandler(a.logger),
		Status: handler.NewStatusHandler(
			a.cfg.Mode,
			a.cfg.Strategy.Instrument,
			a.cfg.Strategy.DryRun,
		),
		Snapshot: handler.NewSnapshotHandler(
			evaluator,
			a.cfg.Strategy.SnapshotMaxAge.Duration,
			a.logger,
		),
	}
	if deps.PositionStore != nil {
		handlers.Positions = handler.NewPositionHandler(
			deps.PositionStore,
			a.cfg.Strategy.Instrument,
			a.logger,
		)
	}

	srv := server.NewServer(server.Config{
		Port:        a.cfg.Server.Port,
		CORSOrigins: a.cfg.Server.CORSOrigins,
		APIKey:      a.cfg.Server.APIKey,
	}, handlers, hub, a.logger)

	g.Go(func() error {
		return srv.Start()
	})

	g.Go(func() error {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutCtx)
	})
}

// runArchiveLoop archives closed positions past the retention window once a
// day. Archive failures are logged and retried on the next cycle; they never
// stop the bot.
func (a *App) runArchiveLoop(ctx context.Context, deps *Dependencies) error {
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		before := time.Now().UTC().Add(-archiveRetention)
		n, err := deps.Archiver.ArchivePositions(ctx, before)
		if err != nil {
			a.logger.WarnContext(ctx, "position archive failed",
				slog.String("error", err.Error()),
			)
			continue
		}
		if n > 0 {
			a.logger.InfoContext(ctx, "archived closed positions",
				slog.Int64("count", n),
				slog.Time("before", before),
			)
		}
	}
}
