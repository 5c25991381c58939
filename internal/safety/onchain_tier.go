package safety

import (
	"context"
	"encoding/binary"
	"fmt"

	"solana-sniper/internal/domain"
	"solana-sniper/internal/solana"
)

// SPL token mint account layout.
const (
	mintAccountSize          = 82
	mintAuthorityOptionOff   = 0  // u32 LE, 0 = none
	mintSupplyOff            = 36 // u64 LE
	mintDecimalsOff          = 44
	freezeAuthorityOptionOff = 46 // u32 LE, 0 = none
)

// OnChainTier is the last-resort heuristic: it reads the mint account
// authority flags and the largest holder accounts directly from the
// chain. Always able to answer when the RPC is reachable.
type OnChainTier struct {
	rpc        solana.RPCClient
	thresholds Thresholds
}

// NewOnChainTier creates the on-chain heuristic tier.
func NewOnChainTier(rpc solana.RPCClient, thresholds Thresholds) *OnChainTier {
	return &OnChainTier{rpc: rpc, thresholds: thresholds}
}

// Compile-time interface check.
var _ Tier = (*OnChainTier)(nil)

func (t *OnChainTier) Name() string { return domain.TierOnChain }

// Check decodes the mint account and inspects holder distribution.
func (t *OnChainTier) Check(ctx context.Context, mint string, _ *string) (*domain.SafetyVerdict, error) {
	tier := t.Name()

	info, err := t.rpc.GetAccountInfo(ctx, mint)
	if err != nil {
		return nil, fmt.Errorf("fetch mint account: %w", err)
	}
	if info == nil {
		v := domain.Reject(tier, "mint account does not exist")
		return &v, nil
	}
	if len(info.Data) < mintAccountSize {
		return nil, fmt.Errorf("mint account data too short: %d bytes", len(info.Data))
	}

	freezeEnabled := binary.LittleEndian.Uint32(info.Data[freezeAuthorityOptionOff:]) != 0
	if freezeEnabled {
		v := domain.Reject(tier, "freeze authority enabled",
			"holder accounts can be frozen by the mint operator")
		return &v, nil
	}

	mintEnabled := binary.LittleEndian.Uint32(info.Data[mintAuthorityOptionOff:]) != 0
	supply := binary.LittleEndian.Uint64(info.Data[mintSupplyOff:])
	if supply == 0 {
		v := domain.Reject(tier, "mint has zero supply")
		return &v, nil
	}

	holders, err := t.rpc.GetTokenLargestAccounts(ctx, mint)
	if err != nil {
		return nil, fmt.Errorf("fetch largest accounts: %w", err)
	}
	if len(holders) > t.thresholds.TopHolderCount {
		holders = holders[:t.thresholds.TopHolderCount]
	}

	if reason, risk := t.inspectHolders(holders, supply); reason != "" {
		v := domain.Reject(tier, reason, risk)
		return &v, nil
	}

	verdict := domain.Accept(tier)
	if mintEnabled {
		verdict.Warnings = append(verdict.Warnings, "mint authority still enabled")
	}
	return &verdict, nil
}

// inspectHolders applies the concentration and bundle rules. Returns a
// non-empty reason on reject.
func (t *OnChainTier) inspectHolders(holders []solana.TokenAccountBalance, supply uint64) (reason, risk string) {
	duplicates := make(map[uint64]int)

	for i, h := range holders {
		pct := float64(h.Amount) / float64(supply) * 100
		if i == 0 && pct > t.thresholds.MaxHolderPct {
			return fmt.Sprintf("top holder owns %.1f%% of supply (limit %.1f%%)", pct, t.thresholds.MaxHolderPct),
				"supply concentrated in a single wallet"
		}
		if h.Amount > 0 {
			duplicates[h.Amount]++
		}
	}

	// Distinct wallets rarely hold bit-identical balances unless they
	// are controlled by one actor.
	for amount, count := range duplicates {
		if count >= t.thresholds.BundleDuplicates {
			return fmt.Sprintf("%d top holders share the identical balance %d", count, amount),
				"bundled wallets cornering supply at launch"
		}
	}
	return "", ""
}
