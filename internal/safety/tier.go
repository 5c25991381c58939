// Package safety implements the tiered verification gate that decides
// whether a candidate asset may be acquired.
package safety

import (
	"context"

	"solana-sniper/internal/domain"
)

// Tier is one verification data source. Tiers are tried in a fixed
// priority order; the first definitive verdict wins.
//
// A returned error means the tier genuinely could not answer (network
// failure, missing data) and the gate should escalate. An unsafe
// verdict is definitive, not an error.
type Tier interface {
	Name() string
	Check(ctx context.Context, mint string, pair *string) (*domain.SafetyVerdict, error)
}

// Thresholds carries the decision rules shared by tiers. Values come
// from configuration, never hard-coded in tier logic.
type Thresholds struct {
	MinLPLockedPct   float64 // LP locked/burned below this => hard reject
	MaxHolderPct     float64 // single-wallet share above this => hard reject
	BundleDuplicates int     // identical balances among top holders => reject
	TopHolderCount   int     // how many largest accounts to inspect
	MaxScore         float64 // reputation risk score above this => reject
	MinLiquidityUSD  float64 // pair liquidity below this => reject
}
