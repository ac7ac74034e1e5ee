package notify

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
)

type recordingSender struct {
	mu     sync.Mutex
	titles []string
}

func (r *recordingSender) Send(_ context.Context, title, _ string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.titles = append(r.titles, title)
	return nil
}

func (r *recordingSender) Name() string { return "recording" }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNotifierEventFilter(t *testing.T) {
	sender := &recordingSender{}
	n := NewNotifier([]Sender{sender}, []string{"position_closed"}, testLogger())

	ctx := context.Background()
	if err := n.Notify(ctx, "position_opened", "Opened", "x"); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if err := n.Notify(ctx, "position_closed", "Closed", "x"); err != nil {
		t.Fatalf("Notify: %v", err)
	}

	if len(sender.titles) != 1 || sender.titles[0] != "Closed" {
		t.Errorf("delivered titles = %v, want only Closed", sender.titles)
	}
}

func TestFormatPositionEvent(t *testing.T) {
	tests := []struct {
		name      string
		ev        positionEvent
		wantTitle string
		wantIn    string
	}{
		{
			name: "opened",
			ev: positionEvent{
				Event:      "position_opened",
				Instrument: "BTCUSDT",
				Side:       "long",
				EntryPrice: 40000,
			},
			wantTitle: "Opened LONG BTCUSDT",
			wantIn:    "40000",
		},
		{
			name: "closed",
			ev: positionEvent{
				Event:       "position_closed",
				Instrument:  "BTCUSDT",
				Side:        "short",
				ExitPrice:   39000,
				RealizedPnL: 10,
			},
			wantTitle: "Closed SHORT BTCUSDT",
			wantIn:    "+10",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			title, message := formatPositionEvent(tt.ev)
			if title != tt.wantTitle {
				t.Errorf("title = %q, want %q", title, tt.wantTitle)
			}
			if !strings.Contains(message, tt.wantIn) {
				t.Errorf("message %q does not contain %q", message, tt.wantIn)
			}
		})
	}
}
