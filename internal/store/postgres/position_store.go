package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/quantex-labs/crossbot/internal/domain"
)

// querier is the subset of pgxpool.Pool the store needs. Keeping it narrow
// lets tests substitute a mock pool.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PositionStore implements domain.PositionStore using PostgreSQL.
type PositionStore struct {
	pool querier
}

// NewPositionStore creates a new PositionStore backed by the given connection pool.
func NewPositionStore(pool querier) *PositionStore {
	return &PositionStore{pool: pool}
}

const positionSelectCols = `id, instrument, status, side, quantity,
	entry_price, entry_time, entry_ema_fast, entry_ema_slow,
	exit_price, exit_time, exit_ema_fast, exit_ema_slow, profit_loss,
	created_at, updated_at`

func scanPositionRow(row pgx.Row) (domain.Position, error) {
	var p domain.Position
	var status, side string

	err := row.Scan(
		&p.ID, &p.Instrument, &status, &side, &p.Quantity,
		&p.EntryPrice, &p.EntryTime, &p.EntryEMAFast, &p.EntryEMASlow,
		&p.ExitPrice, &p.ExitTime, &p.ExitEMAFast, &p.ExitEMASlow, &p.ProfitLoss,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return domain.Position{}, err
	}
	p.Status = domain.PositionStatus(status)
	p.Side = domain.Side(side)
	return p, nil
}

func scanPositionRows(rows pgx.Rows) ([]domain.Position, error) {
	var positions []domain.Position
	for rows.Next() {
		var p domain.Position
		var status, side string

		if err := rows.Scan(
			&p.ID, &p.Instrument, &status, &side, &p.Quantity,
			&p.EntryPrice, &p.EntryTime, &p.EntryEMAFast, &p.EntryEMASlow,
			&p.ExitPrice, &p.ExitTime, &p.ExitEMAFast, &p.ExitEMASlow, &p.ProfitLoss,
			&p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, err
		}
		p.Status = domain.PositionStatus(status)
		p.Side = domain.Side(side)
		positions = append(positions, p)
	}
	return positions, rows.Err()
}

// Create inserts a new position.
func (s *PositionStore) Create(ctx context.Context, p domain.Position) error {
	const query = `
		INSERT INTO positions (
			id, instrument, status, side, quantity,
			entry_price, entry_time, entry_ema_fast, entry_ema_slow,
			created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8, $9,
			NOW(), NOW()
		)`

	_, err := s.pool.Exec(ctx, query,
		p.ID, p.Instrument, string(p.Status), string(p.Side), p.Quantity,
		p.EntryPrice, p.EntryTime, p.EntryEMAFast, p.EntryEMASlow,
	)
	if err != nil {
		return fmt.Errorf("postgres: create position %s: %w", p.ID, err)
	}
	return nil
}

// CloseOpen applies the exit fields to a position, transitioning it to
// closed. The update is conditional on the row still being open; a zero
// rows-affected result means another writer got there first and surfaces as
// domain.ErrPositionNotOpen.
func (s *PositionStore) CloseOpen(ctx context.Context, id string, close domain.PositionClose) error {
	const query = `
		UPDATE positions SET
			status        = 'closed',
			exit_price    = $2,
			exit_time     = $3,
			exit_ema_fast = $4,
			exit_ema_slow = $5,
			profit_loss   = $6,
			updated_at    = NOW()
		WHERE id = $1 AND status = 'open'`

	tag, err := s.pool.Exec(ctx, query,
		id, close.ExitPrice, close.ExitTime,
		close.ExitEMAFast, close.ExitEMASlow, close.ProfitLoss,
	)
	if err != nil {
		return fmt.Errorf("postgres: close position %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrPositionNotOpen
	}
	return nil
}

// GetLatestOpen returns the most recently created open position for the instrument.
func (s *PositionStore) GetLatestOpen(ctx context.Context, instrument string) (domain.Position, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+positionSelectCols+` FROM positions
		 WHERE status = 'open' AND instrument = $1
		 ORDER BY created_at DESC
		 LIMIT 1`, instrument)

	p, err := scanPositionRow(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Position{}, domain.ErrNotFound
		}
		return domain.Position{}, fmt.Errorf("postgres: get latest open position for %s: %w", instrument, err)
	}
	return p, nil
}

// ListHistory returns positions for the given instrument, newest first, with pagination.
func (s *PositionStore) ListHistory(ctx context.Context, instrument string, opts domain.ListOpts) ([]domain.Position, error) {
	query := `SELECT ` + positionSelectCols + ` FROM positions
		 WHERE instrument = $1
		 ORDER BY created_at DESC`
	args := []any{instrument}
	argIdx := 2

	if opts.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIdx)
		args = append(args, opts.Limit)
		argIdx++
	}
	if opts.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argIdx)
		args = append(args, opts.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list position history: %w", err)
	}
	defer rows.Close()

	positions, err := scanPositionRows(rows)
	if err != nil {
		return nil, fmt.Errorf("postgres: scan position history: %w", err)
	}
	return positions, nil
}

// ListClosedBefore returns closed positions whose exit time is strictly
// before the cutoff, oldest first, for archival.
func (s *PositionStore) ListClosedBefore(ctx context.Context, before time.Time) ([]domain.Position, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+positionSelectCols+` FROM positions
		 WHERE status = 'closed' AND exit_time < $1
		 ORDER BY exit_time ASC`, before)
	if err != nil {
		return nil, fmt.Errorf("postgres: list closed positions: %w", err)
	}
	defer rows.Close()

	positions, err := scanPositionRows(rows)
	if err != nil {
		return nil, fmt.Errorf("postgres: scan closed positions: %w", err)
	}
	return positions, nil
}

// TotalRealizedPnL sums the realized profit/loss of all closed positions for the instrument.
func (s *PositionStore) TotalRealizedPnL(ctx context.Context, instrument string) (float64, error) {
	var total float64
	err := s.pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(profit_loss), 0) FROM positions
		 WHERE instrument = $1 AND status = 'closed'`, instrument,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("postgres: total realized pnl for %s: %w", instrument, err)
	}
	return total, nil
}
