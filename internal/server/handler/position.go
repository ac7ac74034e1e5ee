package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/quantex-labs/crossbot/internal/domain"
)

// PositionHandler serves position-related HTTP endpoints.
type PositionHandler struct {
	store      domain.PositionStore
	instrument string
	logger     *slog.Logger
}

// NewPositionHandler creates a PositionHandler for the configured instrument.
func NewPositionHandler(store domain.PositionStore, instrument string, logger *slog.Logger) *PositionHandler {
	return &PositionHandler{
		store:      store,
		instrument: instrument,
		logger:     logHandler(logger, "positions"),
	}
}

// listPositionsResponse wraps the list positions response.
type listPositionsResponse struct {
	Positions []domain.Position `json:"positions"`
}

// ListHistory returns the position history for the instrument, newest first.
// GET /api/positions?limit=50&offset=0
func (h *PositionHandler) ListHistory(w http.ResponseWriter, r *http.Request) {
	opts := parseListOpts(r)

	positions, err := h.store.ListHistory(r.Context(), h.instrument, opts)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: list positions failed",
			slog.String("instrument", h.instrument),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to list positions")
		return
	}

	if positions == nil {
		positions = []domain.Position{}
	}

	writeJSON(w, http.StatusOK, listPositionsResponse{Positions: positions})
}

// GetOpen returns the currently open position, or 404 when none is open.
// GET /api/positions/open
func (h *PositionHandler) GetOpen(w http.ResponseWriter, r *http.Request) {
	pos, err := h.store.GetLatestOpen(r.Context(), h.instrument)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "no open position")
			return
		}
		h.logger.ErrorContext(r.Context(), "handler: get open position failed",
			slog.String("instrument", h.instrument),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to get open position")
		return
	}

	writeJSON(w, http.StatusOK, pos)
}

// GetPnL returns the aggregate realized profit/loss of all closed positions.
// GET /api/pnl
func (h *PositionHandler) GetPnL(w http.ResponseWriter, r *http.Request) {
	total, err := h.store.TotalRealizedPnL(r.Context(), h.instrument)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: total pnl failed",
			slog.String("instrument", h.instrument),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to compute pnl")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"instrument":   h.instrument,
		"realized_pnl": total,
	})
}
