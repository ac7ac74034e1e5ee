package domain

import "time"

// Cross classifies a moving-average crossover event between two consecutive
// samples of a fast/slow pair.
type Cross string

const (
	// CrossNone means no crossover occurred, including all tie cases.
	CrossNone Cross = "none"
	// CrossGolden means the fast line crossed from below to above the slow line.
	CrossGolden Cross = "golden"
	// CrossDeath means the fast line crossed from above to below the slow line.
	CrossDeath Cross = "death"
)

// Snapshot is the result of one evaluation tick: the latest price, the
// trailing values of all four EMA series, and both detected signals. It is
// overwritten on every tick and exists only to answer read queries cheaply
// and to decide staleness.
type Snapshot struct {
	Instrument   string    `json:"instrument"`
	Price        float64   `json:"price"`
	EntryEMAFast float64   `json:"entry_ema_fast"`
	EntryEMASlow float64   `json:"entry_ema_slow"`
	ExitEMAFast  float64   `json:"exit_ema_fast"`
	ExitEMASlow  float64   `json:"exit_ema_slow"`
	EntrySignal  Cross     `json:"entry_signal"`
	ExitSignal   Cross     `json:"exit_signal"`
	EvaluatedAt  time.Time `json:"evaluated_at"`
}

// StaleAfter reports whether the snapshot is older than the given threshold
// at the supplied reference time. A zero snapshot is always stale.
func (s Snapshot) StaleAfter(now time.Time, threshold time.Duration) bool {
	if s.EvaluatedAt.IsZero() {
		return true
	}
	return now.Sub(s.EvaluatedAt) > threshold
}
