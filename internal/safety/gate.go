package safety

import (
	"context"
	"log"
	"time"

	"solana-sniper/internal/config"
	"solana-sniper/internal/domain"
	"solana-sniper/internal/solana"
)

// Gate runs verification tiers in priority order. The first tier that
// returns a definitive verdict decides; later tiers are not invoked.
// If no tier can answer, the gate fails closed: the determining
// property (liquidity lock) cannot be established without external
// data, and acquiring an unverifiable asset is the costlier mistake.
type Gate struct {
	tiers   []Tier
	retries int
	backoff time.Duration
	sleep   func(ctx context.Context, d time.Duration) error
}

// GateOptions configures a Gate.
type GateOptions struct {
	Tiers   []Tier
	Retries int           // transient retries within a tier before escalating
	Backoff time.Duration // fixed delay between retries
}

// NewGate creates a safety gate.
func NewGate(opts GateOptions) *Gate {
	if opts.Retries <= 0 {
		opts.Retries = 2
	}
	if opts.Backoff <= 0 {
		opts.Backoff = 2 * time.Second
	}
	return &Gate{
		tiers:   opts.Tiers,
		retries: opts.Retries,
		backoff: opts.Backoff,
		sleep:   sleepCtx,
	}
}

// NewGateFromConfig builds the gate with the tiers, thresholds and
// retry policy the configuration selects.
func NewGateFromConfig(cfg *config.Config, rpc solana.RPCClient) *Gate {
	thresholds := Thresholds{
		MinLPLockedPct:   cfg.Safety.MinLPLockedPct,
		MaxHolderPct:     cfg.Safety.MaxHolderPct,
		BundleDuplicates: cfg.Safety.BundleDuplicates,
		TopHolderCount:   cfg.Safety.TopHolderCount,
		MaxScore:         cfg.Safety.MaxScore,
		MinLiquidityUSD:  cfg.Safety.MinLiquidityUSD,
	}

	var tiers []Tier
	if cfg.Safety.EnableReputation {
		tiers = append(tiers, NewReputationTier(cfg.Safety.ReputationURL, thresholds, nil))
	}
	if cfg.Safety.EnablePairMeta {
		tiers = append(tiers, NewPairMetaTier(cfg.Safety.PairMetaURL, thresholds, nil))
	}
	if cfg.Safety.EnableOnChain {
		tiers = append(tiers, NewOnChainTier(rpc, thresholds))
	}

	return NewGate(GateOptions{
		Tiers:   tiers,
		Retries: cfg.Safety.TierRetries,
		Backoff: cfg.TierBackoff(),
	})
}

// Evaluate runs the tiers against a candidate mint.
func (g *Gate) Evaluate(ctx context.Context, mint string, pair *string) domain.SafetyVerdict {
	for _, tier := range g.tiers {
		verdict, err := g.checkWithRetry(ctx, tier, mint, pair)
		if err != nil {
			log.Printf("safety tier %s could not answer for %s: %v", tier.Name(), mint, err)
			continue
		}
		return *verdict
	}

	return domain.Reject(domain.TierNone, "no verification tier could answer",
		"liquidity lock status could not be established")
}

// checkWithRetry retries a tier on failure with fixed backoff, bounded
// by the attempt count.
func (g *Gate) checkWithRetry(ctx context.Context, tier Tier, mint string, pair *string) (*domain.SafetyVerdict, error) {
	var lastErr error
	for attempt := 0; attempt <= g.retries; attempt++ {
		if attempt > 0 {
			if err := g.sleep(ctx, g.backoff); err != nil {
				return nil, err
			}
		}

		verdict, err := tier.Check(ctx, mint, pair)
		if err == nil {
			return verdict, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}
	return nil, lastErr
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
