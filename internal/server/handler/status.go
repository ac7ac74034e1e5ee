package handler

import (
	"net/http"
	"time"
)

// StatusHandler serves the backend status (mode, instrument) for dashboards.
type StatusHandler struct {
	Mode       string
	Instrument string
	DryRun     bool
	StartedAt  time.Time
}

// NewStatusHandler creates a StatusHandler with the given runtime metadata.
func NewStatusHandler(mode, instrument string, dryRun bool) *StatusHandler {
	return &StatusHandler{
		Mode:       mode,
		Instrument: instrument,
		DryRun:     dryRun,
		StartedAt:  time.Now().UTC(),
	}
}

// GetStatus responds with the current backend mode and strategy parameters.
// GET /api/status
func (h *StatusHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"mode":           h.Mode,
		"instrument":     h.Instrument,
		"dry_run":        h.DryRun,
		"uptime_seconds": int64(time.Since(h.StartedAt).Seconds()),
	})
}
