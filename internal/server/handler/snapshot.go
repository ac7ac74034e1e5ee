package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/quantex-labs/crossbot/internal/domain"
)

// SnapshotProvider is the slice of the evaluator the snapshot handler needs:
// it returns the latest snapshot, running an on-demand tick first when the
// cached one is older than the threshold.
type SnapshotProvider interface {
	EnsureFresh(ctx context.Context, threshold time.Duration) domain.Snapshot
}

// SnapshotHandler serves the latest evaluation snapshot.
type SnapshotHandler struct {
	provider  SnapshotProvider
	threshold time.Duration
	logger    *slog.Logger
}

// NewSnapshotHandler creates a SnapshotHandler with the given staleness threshold.
func NewSnapshotHandler(provider SnapshotProvider, threshold time.Duration, logger *slog.Logger) *SnapshotHandler {
	return &SnapshotHandler{
		provider:  provider,
		threshold: threshold,
		logger:    logger,
	}
}

// GetSnapshot responds with the latest tick snapshot, triggering a fresh tick
// first when the cached one has gone stale. A 404 means no tick has completed
// yet and the on-demand one failed too.
// GET /api/snapshot
func (h *SnapshotHandler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	snap := h.provider.EnsureFresh(r.Context(), h.threshold)
	if snap.EvaluatedAt.IsZero() {
		writeError(w, http.StatusNotFound, "no evaluation has completed yet")
		return
	}

	writeJSON(w, http.StatusOK, snap)
}
