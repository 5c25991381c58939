package venue

import (
	"context"
	"fmt"

	"solana-sniper/internal/domain"
	"solana-sniper/internal/monitor"
	"solana-sniper/internal/pool"
	"solana-sniper/internal/solana"
)

// PoolPricer reads the current pool price from the vault balances.
// The result is normalized to base-asset per target-asset under the
// same canonical ordering rule provisioning used, so price direction
// stays consistent with the recorded initial price.
type PoolPricer struct {
	rpc       solana.RPCClient
	programID string
	ammConfig string
}

// PoolPricerOptions configures the pricer.
type PoolPricerOptions struct {
	RPC       solana.RPCClient
	ProgramID string // CPMM program
	AMMConfig string
}

// NewPoolPricer creates the vault-balance pricer.
func NewPoolPricer(opts PoolPricerOptions) *PoolPricer {
	return &PoolPricer{rpc: opts.RPC, programID: opts.ProgramID, ammConfig: opts.AMMConfig}
}

// Compile-time interface check.
var _ monitor.Pricer = (*PoolPricer)(nil)

// Price returns the spot price of the position's pool.
func (pr *PoolPricer) Price(ctx context.Context, position *domain.Position) (float64, error) {
	mint0, mint1, err := solana.CanonicalOrder(position.Mint, position.BaseMint)
	if err != nil {
		return 0, domain.NewFailure(domain.ChainSubmissionFailed, err)
	}
	addrs, err := deriveCPMMAddresses(pr.programID, pr.ammConfig, mint0, mint1)
	if err != nil {
		return 0, domain.NewFailure(domain.ChainSubmissionFailed, err)
	}

	bal0, err := pr.rpc.GetTokenAccountBalance(ctx, addrs.vault0)
	if err != nil {
		return 0, domain.NewFailure(domain.TransientNetwork, fmt.Errorf("vault0 balance: %w", err))
	}
	bal1, err := pr.rpc.GetTokenAccountBalance(ctx, addrs.vault1)
	if err != nil {
		return 0, domain.NewFailure(domain.TransientNetwork, fmt.Errorf("vault1 balance: %w", err))
	}

	baseBal, targetBal := bal0, bal1
	if mint0 == position.Mint {
		baseBal, targetBal = bal1, bal0
	}
	if targetBal == 0 {
		return 0, domain.Failf(domain.InsufficientLiquidity,
			"pool %s target vault is empty", position.PoolID)
	}

	baseDecimals, err := pool.MintDecimals(ctx, pr.rpc, position.BaseMint)
	if err != nil {
		return 0, err
	}
	targetDecimals, err := pool.MintDecimals(ctx, pr.rpc, position.Mint)
	if err != nil {
		return 0, err
	}

	return pool.PriceFromAmounts(baseBal, baseDecimals, targetBal, targetDecimals), nil
}
