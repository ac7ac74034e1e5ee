package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v3"

	"github.com/quantex-labs/crossbot/internal/domain"
)

func newMockStore(t *testing.T) (*PositionStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("create mock pool: %v", err)
	}
	t.Cleanup(mock.Close)
	return NewPositionStore(mock), mock
}

func positionColumns() []string {
	return []string{
		"id", "instrument", "status", "side", "quantity",
		"entry_price", "entry_time", "entry_ema_fast", "entry_ema_slow",
		"exit_price", "exit_time", "exit_ema_fast", "exit_ema_slow", "profit_loss",
		"created_at", "updated_at",
	}
}

func TestPositionStoreCreate(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now().UTC()

	pos := domain.Position{
		ID:           "pos-1",
		Instrument:   "BTCUSDT",
		Status:       domain.PositionStatusOpen,
		Side:         domain.SideLong,
		Quantity:     0.5,
		EntryPrice:   40000,
		EntryTime:    now,
		EntryEMAFast: 39990,
		EntryEMASlow: 39950,
	}

	mock.ExpectExec(`INSERT INTO positions`).
		WithArgs("pos-1", "BTCUSDT", "open", "long", 0.5,
			40000.0, now, 39990.0, 39950.0).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	if err := store.Create(context.Background(), pos); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestPositionStoreCloseOpen(t *testing.T) {
	now := time.Now().UTC()
	close := domain.PositionClose{
		ExitPrice:   39000,
		ExitTime:    now,
		ExitEMAFast: 39010,
		ExitEMASlow: 39100,
		ProfitLoss:  -500,
	}

	t.Run("row still open", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectExec(`UPDATE positions SET`).
			WithArgs("pos-1", 39000.0, now, 39010.0, 39100.0, -500.0).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		if err := store.CloseOpen(context.Background(), "pos-1", close); err != nil {
			t.Fatalf("CloseOpen: %v", err)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Error(err)
		}
	})

	t.Run("row no longer open", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectExec(`UPDATE positions SET`).
			WithArgs("pos-1", 39000.0, now, 39010.0, 39100.0, -500.0).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		err := store.CloseOpen(context.Background(), "pos-1", close)
		if !errors.Is(err, domain.ErrPositionNotOpen) {
			t.Fatalf("err = %v, want ErrPositionNotOpen", err)
		}
	})
}

func TestPositionStoreGetLatestOpen(t *testing.T) {
	now := time.Now().UTC()

	t.Run("found", func(t *testing.T) {
		store, mock := newMockStore(t)
		rows := pgxmock.NewRows(positionColumns()).
			AddRow("pos-1", "BTCUSDT", "open", "long", 0.5,
				40000.0, now, 39990.0, 39950.0,
				nil, nil, nil, nil, nil,
				now, now)
		mock.ExpectQuery(`SELECT .+ FROM positions`).
			WithArgs("BTCUSDT").
			WillReturnRows(rows)

		pos, err := store.GetLatestOpen(context.Background(), "BTCUSDT")
		if err != nil {
			t.Fatalf("GetLatestOpen: %v", err)
		}
		if pos.ID != "pos-1" || pos.Side != domain.SideLong || !pos.IsOpen() {
			t.Errorf("unexpected position: %+v", pos)
		}
		if pos.ExitPrice != nil || pos.ProfitLoss != nil {
			t.Error("open position must have nil exit fields")
		}
	})

	t.Run("none open", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectQuery(`SELECT .+ FROM positions`).
			WithArgs("BTCUSDT").
			WillReturnRows(pgxmock.NewRows(positionColumns()))

		_, err := store.GetLatestOpen(context.Background(), "BTCUSDT")
		if !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("err = %v, want ErrNotFound", err)
		}
	})
}

func TestPositionStoreListHistory(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now().UTC()
	exitPrice, pnl := 41000.0, 500.0

	rows := pgxmock.NewRows(positionColumns()).
		AddRow("pos-2", "BTCUSDT", "closed", "long", 0.5,
			40000.0, now, 39990.0, 39950.0,
			&exitPrice, &now, &exitPrice, &exitPrice, &pnl,
			now, now).
		AddRow("pos-1", "BTCUSDT", "open", "short", 0.5,
			42000.0, now, 41990.0, 41950.0,
			nil, nil, nil, nil, nil,
			now, now)
	mock.ExpectQuery(`SELECT .+ FROM positions`).
		WithArgs("BTCUSDT", 10).
		WillReturnRows(rows)

	positions, err := store.ListHistory(context.Background(), "BTCUSDT", domain.ListOpts{Limit: 10})
	if err != nil {
		t.Fatalf("ListHistory: %v", err)
	}
	if len(positions) != 2 {
		t.Fatalf("got %d positions, want 2", len(positions))
	}
	if positions[0].ProfitLoss == nil || *positions[0].ProfitLoss != 500 {
		t.Errorf("closed position pnl = %v", positions[0].ProfitLoss)
	}
}

func TestPositionStoreTotalRealizedPnL(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT COALESCE\(SUM\(profit_loss\), 0\) FROM positions`).
		WithArgs("BTCUSDT").
		WillReturnRows(pgxmock.NewRows([]string{"coalesce"}).AddRow(123.45))

	total, err := store.TotalRealizedPnL(context.Background(), "BTCUSDT")
	if err != nil {
		t.Fatalf("TotalRealizedPnL: %v", err)
	}
	if total != 123.45 {
		t.Errorf("total = %v, want 123.45", total)
	}
}
