package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/quantex-labs/crossbot/internal/domain"
)

// fakeProvider returns a canned snapshot and records whether it was asked.
type fakeProvider struct {
	snap  domain.Snapshot
	calls int
}

func (f *fakeProvider) EnsureFresh(_ context.Context, _ time.Duration) domain.Snapshot {
	f.calls++
	return f.snap
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestGetSnapshot(t *testing.T) {
	provider := &fakeProvider{snap: domain.Snapshot{
		Instrument:  "BTCUSDT",
		Price:       40000,
		EntrySignal: domain.CrossNone,
		ExitSignal:  domain.CrossNone,
		EvaluatedAt: time.Now().UTC(),
	}}
	h := NewSnapshotHandler(provider, 70*time.Second, discardLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/snapshot", nil)
	rec := httptest.NewRecorder()
	h.GetSnapshot(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if provider.calls != 1 {
		t.Errorf("provider called %d times, want 1", provider.calls)
	}

	var snap domain.Snapshot
	if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if snap.Instrument != "BTCUSDT" || snap.Price != 40000 {
		t.Errorf("unexpected snapshot: %+v", snap)
	}
}

func TestGetSnapshotNoneAvailable(t *testing.T) {
	// A zero snapshot means no tick has ever completed, not even the
	// on-demand one the provider just attempted.
	h := NewSnapshotHandler(&fakeProvider{}, 70*time.Second, discardLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/snapshot", nil)
	rec := httptest.NewRecorder()
	h.GetSnapshot(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}
