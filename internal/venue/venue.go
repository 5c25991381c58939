// Package venue implements the execution venues and the router that
// acquires a target asset for a budget with fallback between them.
package venue

import (
	"context"
)

// SwapRequest is one acquisition order handed to a venue.
type SwapRequest struct {
	InputMint      string
	OutputMint     string
	AmountLamports uint64 // input amount in raw units
	MaxSlippageBps int
	PairAddress    *string // known pool, if any
}

// SwapOutcome is a venue's report of a submitted, confirmed swap.
// Amounts are deliberately absent: the router measures balances itself
// and never trusts a venue's own accounting.
type SwapOutcome struct {
	TxSignature string
	QuotedOut   uint64 // venue's estimate, for logging only
}

// Venue is one execution path. Errors must be classified into the
// domain failure taxonomy before they cross this boundary.
type Venue interface {
	Name() string
	Swap(ctx context.Context, req SwapRequest) (*SwapOutcome, error)
}
