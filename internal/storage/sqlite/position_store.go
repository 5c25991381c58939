package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"

	"solana-sniper/internal/domain"
	"solana-sniper/internal/storage"
)

const schema = `
CREATE TABLE IF NOT EXISTS positions (
    position_id          TEXT PRIMARY KEY,
    pool_id              TEXT NOT NULL,
    mint                 TEXT NOT NULL,
    symbol               TEXT NOT NULL DEFAULT '',
    base_mint            TEXT NOT NULL,
    initial_price        REAL    NOT NULL,
    initial_token_amount INTEGER NOT NULL,
    initial_base_amount  INTEGER NOT NULL,
    created_at           INTEGER NOT NULL,

    tp1_done             INTEGER NOT NULL DEFAULT 0,
    take_profit_done     INTEGER NOT NULL DEFAULT 0,
    stop_loss_done       INTEGER NOT NULL DEFAULT 0,
    exited               INTEGER NOT NULL DEFAULT 0,
    withdrawal_pending   INTEGER NOT NULL DEFAULT 0,

    unclaimed_fees       REAL NOT NULL DEFAULT 0,
    position_value       REAL NOT NULL DEFAULT 0,
    entry_mcap           REAL NOT NULL DEFAULT 0,
    current_mcap         REAL NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_positions_open ON positions(exited, created_at);
CREATE INDEX IF NOT EXISTS idx_positions_mint ON positions(mint);
`

// PositionStore implements storage.PositionStore on a local SQLite file.
// Pure Go driver, no CGo; the default backend when no Postgres DSN is
// configured.
type PositionStore struct {
	db *sql.DB
}

// NewPositionStore opens (or creates) the database at the given path and
// applies the schema.
func NewPositionStore(path string) (*PositionStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %q: %w", path, err)
	}
	// SQLite is single-writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply sqlite schema: %w", err)
	}

	return &PositionStore{db: db}, nil
}

// Compile-time interface check.
var _ storage.PositionStore = (*PositionStore)(nil)

// Close closes the database.
func (s *PositionStore) Close() error {
	return s.db.Close()
}

// Upsert inserts or fully replaces the position record.
func (s *PositionStore) Upsert(ctx context.Context, p *domain.Position) error {
	if p == nil || p.ID == "" {
		return storage.ErrInvalidInput
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO positions (
			position_id, pool_id, mint, symbol, base_mint,
			initial_price, initial_token_amount, initial_base_amount, created_at,
			tp1_done, take_profit_done, stop_loss_done, exited, withdrawal_pending,
			unclaimed_fees, position_value, entry_mcap, current_mcap
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(position_id) DO UPDATE SET
			pool_id              = excluded.pool_id,
			mint                 = excluded.mint,
			symbol               = excluded.symbol,
			base_mint            = excluded.base_mint,
			initial_price        = excluded.initial_price,
			initial_token_amount = excluded.initial_token_amount,
			initial_base_amount  = excluded.initial_base_amount,
			created_at           = excluded.created_at,
			tp1_done             = excluded.tp1_done,
			take_profit_done     = excluded.take_profit_done,
			stop_loss_done       = excluded.stop_loss_done,
			exited               = excluded.exited,
			withdrawal_pending   = excluded.withdrawal_pending,
			unclaimed_fees       = excluded.unclaimed_fees,
			position_value       = excluded.position_value,
			entry_mcap           = excluded.entry_mcap,
			current_mcap         = excluded.current_mcap
	`,
		p.ID, p.PoolID, p.Mint, p.Symbol, p.BaseMint,
		p.InitialPrice, int64(p.InitialTokenAmount), int64(p.InitialBaseAmount), p.CreatedAt,
		boolToInt(p.TP1Done), boolToInt(p.TakeProfitDone), boolToInt(p.StopLossDone),
		boolToInt(p.Exited), boolToInt(p.WithdrawalPending),
		p.UnclaimedFees, p.PositionValue, p.EntryMcap, p.CurrentMcap,
	)
	if err != nil {
		return fmt.Errorf("upsert position %s: %w", p.ID, err)
	}
	return nil
}

// GetByID retrieves a position. Returns ErrNotFound if not exists.
func (s *PositionStore) GetByID(ctx context.Context, id string) (*domain.Position, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+` WHERE position_id = ?`, id)

	p, err := scanPosition(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get position by id: %w", err)
	}
	return p, nil
}

// GetOpenPositions retrieves non-exited positions ordered by created_at ASC.
func (s *PositionStore) GetOpenPositions(ctx context.Context) ([]*domain.Position, error) {
	rows, err := s.db.QueryContext(ctx,
		selectColumns+` WHERE exited = 0 ORDER BY created_at ASC, position_id ASC`)
	if err != nil {
		return nil, fmt.Errorf("get open positions: %w", err)
	}
	defer rows.Close()

	return scanPositions(rows)
}

// GetAll retrieves every position ordered by created_at ASC.
func (s *PositionStore) GetAll(ctx context.Context) ([]*domain.Position, error) {
	rows, err := s.db.QueryContext(ctx,
		selectColumns+` ORDER BY created_at ASC, position_id ASC`)
	if err != nil {
		return nil, fmt.Errorf("get all positions: %w", err)
	}
	defer rows.Close()

	return scanPositions(rows)
}

const selectColumns = `
	SELECT position_id, pool_id, mint, symbol, base_mint,
	       initial_price, initial_token_amount, initial_base_amount, created_at,
	       tp1_done, take_profit_done, stop_loss_done, exited, withdrawal_pending,
	       unclaimed_fees, position_value, entry_mcap, current_mcap
	FROM positions
`

// scanPosition scans one row using the given Scan func.
func scanPosition(scan func(dest ...any) error) (*domain.Position, error) {
	var p domain.Position
	var tokenAmount, baseAmount int64
	var tp1, tp, sl, exited, pending int

	err := scan(
		&p.ID, &p.PoolID, &p.Mint, &p.Symbol, &p.BaseMint,
		&p.InitialPrice, &tokenAmount, &baseAmount, &p.CreatedAt,
		&tp1, &tp, &sl, &exited, &pending,
		&p.UnclaimedFees, &p.PositionValue, &p.EntryMcap, &p.CurrentMcap,
	)
	if err != nil {
		return nil, err
	}

	p.InitialTokenAmount = uint64(tokenAmount)
	p.InitialBaseAmount = uint64(baseAmount)
	p.TP1Done = tp1 == 1
	p.TakeProfitDone = tp == 1
	p.StopLossDone = sl == 1
	p.Exited = exited == 1
	p.WithdrawalPending = pending == 1
	return &p, nil
}

// scanPositions scans all rows.
func scanPositions(rows *sql.Rows) ([]*domain.Position, error) {
	var positions []*domain.Position
	for rows.Next() {
		p, err := scanPosition(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan position row: %w", err)
		}
		positions = append(positions, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate position rows: %w", err)
	}
	return positions, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
