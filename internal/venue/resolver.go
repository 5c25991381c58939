package venue

import (
	"context"
	"fmt"
	"time"

	"solana-sniper/internal/domain"
	"solana-sniper/internal/solana"
)

// PoolInitResolver turns a pool-initialization transaction signature
// into a candidate event: it reads the transaction's account keys,
// finds the freshly created AMM pool account among them and decodes it
// to recover the non-base mint. Satisfies discovery.CandidateResolver.
type PoolInitResolver struct {
	rpc      solana.RPCClient
	baseMint string
}

// NewPoolInitResolver creates a resolver. baseMint is the quote asset
// the engine trades from (wrapped SOL).
func NewPoolInitResolver(rpc solana.RPCClient, baseMint string) *PoolInitResolver {
	return &PoolInitResolver{rpc: rpc, baseMint: baseMint}
}

// ResolveCandidate resolves one transaction into a candidate event.
func (r *PoolInitResolver) ResolveCandidate(ctx context.Context, txSignature string) (*domain.CandidateEvent, error) {
	keys, err := r.rpc.GetTransactionAccounts(ctx, txSignature)
	if err != nil {
		return nil, domain.NewFailure(domain.TransientNetwork,
			fmt.Errorf("fetch tx %s: %w", txSignature, err))
	}
	if len(keys) == 0 {
		return nil, domain.Failf(domain.TransientNetwork, "tx %s not yet visible", txSignature)
	}

	for _, key := range keys {
		info, err := r.rpc.GetAccountInfo(ctx, key)
		if err != nil || info == nil || len(info.Data) != raydiumAMMAccountSize {
			continue
		}
		pool, err := decodeRaydiumPool(key, info.Data)
		if err != nil {
			continue
		}

		mint := pool.BaseMint
		if mint == r.baseMint {
			mint = pool.QuoteMint
		}
		if mint == r.baseMint {
			continue
		}

		poolID := pool.ID
		return &domain.CandidateEvent{
			Mint:         mint,
			Pair:         &poolID,
			VenueHint:    "raydium",
			DiscoveredAt: time.Now().UnixMilli(),
		}, nil
	}

	return nil, domain.Failf(domain.TransientNetwork,
		"no amm pool account found in tx %s", txSignature)
}
