package venue

import (
	"context"
	"fmt"
	"log"

	"solana-sniper/internal/domain"
	"solana-sniper/internal/solana"
)

// Router acquires the target asset for a budget using the venues in
// order. A venue's failure escalates to the next venue only when it is
// classified transient; a definitive "no fill" answer fails the
// candidate outright, since retrying it elsewhere with stale
// assumptions wastes budget.
type Router struct {
	venues  []Venue
	rpc     solana.RPCClient
	wallet  solana.Wallet
	retries int
}

// RouterOptions configures the execution router.
type RouterOptions struct {
	Venues  []Venue
	RPC     solana.RPCClient
	Wallet  solana.Wallet
	Retries int // attempts per venue, bounded to cap fee spend
}

// NewRouter creates an execution router.
func NewRouter(opts RouterOptions) *Router {
	if opts.Retries <= 0 {
		opts.Retries = 2
	}
	return &Router{
		venues:  opts.Venues,
		rpc:     opts.RPC,
		wallet:  opts.Wallet,
		retries: opts.Retries,
	}
}

// Acquire runs the order through the venue ladder. AcquiredAmount is
// always the measured post-swap balance minus the pre-swap balance,
// never a venue's quoted estimate.
func (r *Router) Acquire(ctx context.Context, req SwapRequest) domain.AcquisitionResult {
	targetAccount, err := solana.DeriveAssociatedTokenAccount(r.wallet.Pubkey(), req.OutputMint)
	if err != nil {
		return failedAcquisition("", domain.NewFailure(domain.ChainSubmissionFailed, err))
	}

	preBalance, err := r.rpc.GetTokenAccountBalance(ctx, targetAccount)
	if err != nil {
		return failedAcquisition("", domain.NewFailure(domain.TransientNetwork,
			fmt.Errorf("pre-swap balance: %w", err)))
	}

	var lastErr *domain.Failure
	for _, v := range r.venues {
		outcome, err := r.tryVenue(ctx, v, req)
		if err == nil {
			postBalance, balErr := r.rpc.GetTokenAccountBalance(ctx, targetAccount)
			if balErr != nil {
				// The swap confirmed; only the measurement failed.
				return failedAcquisition(v.Name(), domain.NewFailure(domain.PersistenceFailure,
					fmt.Errorf("post-swap balance after tx %s: %w", outcome.TxSignature, balErr)))
			}
			acquired := postBalance - preBalance
			if outcome.QuotedOut != 0 && acquired != outcome.QuotedOut {
				log.Printf("venue %s quoted %d, measured %d for %s",
					v.Name(), outcome.QuotedOut, acquired, req.OutputMint)
			}
			return domain.AcquisitionResult{
				Success:        true,
				AcquiredAmount: acquired,
				VenueUsed:      v.Name(),
				TxSignature:    outcome.TxSignature,
			}
		}

		lastErr = asFailure(err)
		if !domain.Transient(lastErr.Kind) {
			return failedAcquisition(v.Name(), lastErr)
		}
		log.Printf("venue %s failed (%s), escalating: %v", v.Name(), lastErr.Kind, err)
	}

	if lastErr == nil {
		lastErr = domain.Failf(domain.NoRoute, "no venues configured")
	}
	return failedAcquisition("", lastErr)
}

// tryVenue runs one venue with its bounded retry budget. Only transient
// failures are retried.
func (r *Router) tryVenue(ctx context.Context, v Venue, req SwapRequest) (*SwapOutcome, error) {
	var lastErr error
	for attempt := 0; attempt < r.retries; attempt++ {
		outcome, err := v.Swap(ctx, req)
		if err == nil {
			return outcome, nil
		}
		lastErr = err

		if !domain.Transient(domain.KindOf(err)) || ctx.Err() != nil {
			return nil, err
		}
	}
	return nil, lastErr
}

func asFailure(err error) *domain.Failure {
	if f, ok := err.(*domain.Failure); ok {
		return f
	}
	return domain.NewFailure(domain.KindOf(err), err)
}

func failedAcquisition(venue string, f *domain.Failure) domain.AcquisitionResult {
	return domain.AcquisitionResult{Success: false, VenueUsed: venue, Err: f}
}
