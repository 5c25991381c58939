package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"solana-sniper/internal/domain"
	"solana-sniper/internal/storage"
)

// PositionStore implements storage.PositionStore using PostgreSQL.
type PositionStore struct {
	pool *Pool
}

// NewPositionStore creates a new PositionStore.
func NewPositionStore(pool *Pool) *PositionStore {
	return &PositionStore{pool: pool}
}

// Compile-time interface check.
var _ storage.PositionStore = (*PositionStore)(nil)

const positionColumns = `
	position_id, pool_id, mint, symbol, base_mint,
	initial_price, initial_token_amount, initial_base_amount, created_at,
	tp1_done, take_profit_done, stop_loss_done, exited, withdrawal_pending,
	unclaimed_fees, position_value, entry_mcap, current_mcap
`

// Upsert inserts or fully replaces the position record. Keyed by
// position_id so the same write can be retried after a crash.
func (s *PositionStore) Upsert(ctx context.Context, p *domain.Position) error {
	if p == nil || p.ID == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO positions (` + positionColumns + `)
		VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8, $9,
			$10, $11, $12, $13, $14,
			$15, $16, $17, $18
		)
		ON CONFLICT (position_id) DO UPDATE SET
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
	`

	_, err := s.pool.Exec(ctx, query,
		p.ID, p.PoolID, p.Mint, p.Symbol, p.BaseMint,
		p.InitialPrice, int64(p.InitialTokenAmount), int64(p.InitialBaseAmount), p.CreatedAt,
		p.TP1Done, p.TakeProfitDone, p.StopLossDone, p.Exited, p.WithdrawalPending,
		p.UnclaimedFees, p.PositionValue, p.EntryMcap, p.CurrentMcap,
	)
	if err != nil {
		return fmt.Errorf("upsert position: %w", err)
	}
	return nil
}

// GetByID retrieves a position by its ID. Returns ErrNotFound if not exists.
func (s *PositionStore) GetByID(ctx context.Context, id string) (*domain.Position, error) {
	query := `
		SELECT ` + positionColumns + `
		FROM positions
		WHERE position_id = $1
	`

	row := s.pool.QueryRow(ctx, query, id)
	p, err := scanPosition(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get position by id: %w", err)
	}
	return p, nil
}

// GetOpenPositions retrieves all positions with exited = false.
func (s *PositionStore) GetOpenPositions(ctx context.Context) ([]*domain.Position, error) {
	query := `
		SELECT ` + positionColumns + `
		FROM positions
		WHERE exited = FALSE
		ORDER BY created_at ASC, position_id ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get open positions: %w", err)
	}
	defer rows.Close()

	return scanPositions(rows)
}

// GetAll retrieves all positions.
func (s *PositionStore) GetAll(ctx context.Context) ([]*domain.Position, error) {
	query := `
		SELECT ` + positionColumns + `
		FROM positions
		ORDER BY created_at ASC, position_id ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get all positions: %w", err)
	}
	defer rows.Close()

	return scanPositions(rows)
}

// scanPosition scans a single row into a Position.
func scanPosition(row pgx.Row) (*domain.Position, error) {
	var p domain.Position
	var tokenAmount, baseAmount int64

	err := row.Scan(
		&p.ID, &p.PoolID, &p.Mint, &p.Symbol, &p.BaseMint,
		&p.InitialPrice, &tokenAmount, &baseAmount, &p.CreatedAt,
		&p.TP1Done, &p.TakeProfitDone, &p.StopLossDone, &p.Exited, &p.WithdrawalPending,
		&p.UnclaimedFees, &p.PositionValue, &p.EntryMcap, &p.CurrentMcap,
	)
	if err != nil {
		return nil, err
	}

	p.InitialTokenAmount = uint64(tokenAmount)
	p.InitialBaseAmount = uint64(baseAmount)
	return &p, nil
}

// scanPositions scans multiple rows into a slice of Position.
func scanPositions(rows pgx.Rows) ([]*domain.Position, error) {
	var positions []*domain.Position

	for rows.Next() {
		p, err := scanPosition(rows)
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
