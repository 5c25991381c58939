// Package exit defines the withdrawal primitive used by the position
// monitor to realize take-profit and stop-loss decisions.
package exit

import (
	"context"

	"solana-sniper/internal/domain"
)

// Result reports a confirmed withdrawal.
type Result struct {
	TxSignature string
}

// Executor withdraws liquidity from a position's pool. Implementations
// must let an in-flight submission complete even when the engine is
// shutting down; a signed, broadcast transaction cannot be aborted.
type Executor interface {
	// Withdraw removes percent (0-100] of the wallet's remaining
	// liquidity in the position's pool. Swap fees accrued to the pool
	// are realized proportionally by the same call.
	Withdraw(ctx context.Context, position *domain.Position, percent float64) (*Result, error)
}
