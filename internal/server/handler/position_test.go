package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/quantex-labs/crossbot/internal/domain"
)

// stubStore serves canned positions for handler tests.
type stubStore struct {
	open    *domain.Position
	history []domain.Position
	pnl     float64
}

func (s *stubStore) Create(context.Context, domain.Position) error { return nil }

func (s *stubStore) CloseOpen(context.Context, string, domain.PositionClose) error { return nil }

func (s *stubStore) GetLatestOpen(context.Context, string) (domain.Position, error) {
	if s.open == nil {
		return domain.Position{}, domain.ErrNotFound
	}
	return *s.open, nil
}

func (s *stubStore) ListHistory(context.Context, string, domain.ListOpts) ([]domain.Position, error) {
	return s.history, nil
}

func (s *stubStore) ListClosedBefore(context.Context, time.Time) ([]domain.Position, error) {
	return nil, nil
}

func (s *stubStore) TotalRealizedPnL(context.Context, string) (float64, error) {
	return s.pnl, nil
}

func TestListHistory(t *testing.T) {
	store := &stubStore{history: []domain.Position{
		{ID: "pos-2", Instrument: "BTCUSDT", Status: domain.PositionStatusClosed, Side: domain.SideLong},
		{ID: "pos-1", Instrument: "BTCUSDT", Status: domain.PositionStatusClosed, Side: domain.SideShort},
	}}
	h := NewPositionHandler(store, "BTCUSDT", discardLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/positions?limit=10", nil)
	rec := httptest.NewRecorder()
	h.ListHistory(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp listPositionsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(resp.Positions) != 2 || resp.Positions[0].ID != "pos-2" {
		t.Errorf("unexpected positions: %+v", resp.Positions)
	}
}

func TestListHistoryEmptyIsArray(t *testing.T) {
	h := NewPositionHandler(&stubStore{}, "BTCUSDT", discardLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/positions", nil)
	rec := httptest.NewRecorder()
	h.ListHistory(rec, req)

	if got := rec.Body.String(); got != `{"positions":[]}` {
		t.Errorf("body = %s, want empty array wrapper", got)
	}
}

func TestGetOpen(t *testing.T) {
	t.Run("open position", func(t *testing.T) {
		store := &stubStore{open: &domain.Position{
			ID:         "pos-1",
			Instrument: "BTCUSDT",
			Status:     domain.PositionStatusOpen,
			Side:       domain.SideLong,
		}}
		h := NewPositionHandler(store, "BTCUSDT", discardLogger())

		req := httptest.NewRequest(http.MethodGet, "/api/positions/open", nil)
		rec := httptest.NewRecorder()
		h.GetOpen(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
	})

	t.Run("none open", func(t *testing.T) {
		h := NewPositionHandler(&stubStore{}, "BTCUSDT", discardLogger())

		req := httptest.NewRequest(http.MethodGet, "/api/positions/open", nil)
		rec := httptest.NewRecorder()
		h.GetOpen(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Fatalf("status = %d, want 404", rec.Code)
		}
	})
}

func TestGetPnL(t *testing.T) {
	h := NewPositionHandler(&stubStore{pnl: -12.5}, "BTCUSDT", discardLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/pnl", nil)
	rec := httptest.NewRecorder()
	h.GetPnL(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp struct {
		Instrument  string  `json:"instrument"`
		RealizedPnL float64 `json:"realized_pnl"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if resp.RealizedPnL != -12.5 {
		t.Errorf("realized_pnl = %v, want -12.5", resp.RealizedPnL)
	}
}
