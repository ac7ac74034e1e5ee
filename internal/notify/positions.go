package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/quantex-labs/crossbot/internal/domain"
)

// positionEvent mirrors the JSON payload published on the "positions" bus
// channel by the lifecycle manager.
type positionEvent struct {
	Event       string  `json:"event"`
	Instrument  string  `json:"instrument"`
	Side        string  `json:"side"`
	EntryPrice  float64 `json:"entry_price"`
	ExitPrice   float64 `json:"exit_price"`
	RealizedPnL float64 `json:"realized_pnl"`
}

// WatchPositions subscribes to the "positions" bus channel and forwards each
// open/close event through the notifier. It blocks until the context is
// cancelled and is meant to run in its own goroutine.
func WatchPositions(ctx context.Context, bus domain.EventBus, notifier *Notifier, logger *slog.Logger) error {
	msgs, err := bus.Subscribe(ctx, "positions")
	if err != nil {
		return fmt.Errorf("notify: subscribe positions: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case payload, ok := <-msgs:
			if !ok {
				return nil
			}

			var ev positionEvent
			if err := json.Unmarshal(payload, &ev); err != nil {
				logger.Warn("notify: bad position event payload",
					slog.String("error", err.Error()),
				)
				continue
			}

			title, message := formatPositionEvent(ev)
			if err := notifier.Notify(ctx, ev.Event, title, message); err != nil {
				logger.Warn("notify: position event delivery failed",
					slog.String("event", ev.Event),
					slog.String("error", err.Error()),
				)
			}
		}
	}
}

// formatPositionEvent renders a position event into a notification title and
// body.
func formatPositionEvent(ev positionEvent) (title, message string) {
	side := strings.ToUpper(ev.Side)

	switch ev.Event {
	case "position_opened":
		title = fmt.Sprintf("Opened %s %s", side, ev.Instrument)
		message = fmt.Sprintf("Entry price: %.8g", ev.EntryPrice)
	case "position_closed":
		title = fmt.Sprintf("Closed %s %s", side, ev.Instrument)
		message = fmt.Sprintf("Exit price: %.8g\nRealized PnL: %+.8g", ev.ExitPrice, ev.RealizedPnL)
	default:
		title = ev.Event
		message = ev.Instrument
	}
	return title, message
}
