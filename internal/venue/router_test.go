package venue

import (
	"context"
	"testing"

	"solana-sniper/internal/domain"
	"solana-sniper/internal/solana"
)

const (
	testWallet     = "5Q544fKrFoe6tsEbD7S8EmxGTJYAKtTVhAW5Q5pge4j1"
	testOutputMint = "So11111111111111111111111111111111111111112"
	testInputMint  = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
)

type fakeBalanceRPC struct {
	solana.RPCClient

	balances []uint64
	calls    int
}

func (f *fakeBalanceRPC) GetTokenAccountBalance(ctx context.Context, account string) (uint64, error) {
	if f.calls >= len(f.balances) {
		return f.balances[len(f.balances)-1], nil
	}
	b := f.balances[f.calls]
	f.calls++
	return b, nil
}

type fakeWallet struct{}

func (fakeWallet) Pubkey() string { return testWallet }
func (fakeWallet) SignTransaction(ctx context.Context, unsignedTx string) (string, error) {
	return unsignedTx, nil
}

type scriptedVenue struct {
	name    string
	outcome *SwapOutcome
	errs    []error
	calls   int
}

func (v *scriptedVenue) Name() string { return v.name }

func (v *scriptedVenue) Swap(ctx context.Context, req SwapRequest) (*SwapOutcome, error) {
	v.calls++
	if len(v.errs) > 0 {
		err := v.errs[0]
		v.errs = v.errs[1:]
		return nil, err
	}
	return v.outcome, nil
}

func newTestRequest() SwapRequest {
	return SwapRequest{
		InputMint:      testInputMint,
		OutputMint:     testOutputMint,
		AmountLamports: 1_000_000,
		MaxSlippageBps: 500,
	}
}

func TestRouterMeasuresAcquiredAmount(t *testing.T) {
	rpc := &fakeBalanceRPC{balances: []uint64{0, 950}}
	v := &scriptedVenue{name: "agg", outcome: &SwapOutcome{TxSignature: "sig1", QuotedOut: 1000}}

	r := NewRouter(RouterOptions{Venues: []Venue{v}, RPC: rpc, Wallet: fakeWallet{}})
	res := r.Acquire(context.Background(), newTestRequest())

	if !res.Success {
		t.Fatalf("acquire failed: %v", res.Err)
	}
	if res.AcquiredAmount != 950 {
		t.Errorf("acquired = %d, want measured 950 not quoted 1000", res.AcquiredAmount)
	}
	if res.VenueUsed != "agg" {
		t.Errorf("venue = %q, want agg", res.VenueUsed)
	}
	if res.TxSignature != "sig1" {
		t.Errorf("signature = %q, want sig1", res.TxSignature)
	}
}

func TestRouterEscalatesOnTransientFailure(t *testing.T) {
	rpc := &fakeBalanceRPC{balances: []uint64{100, 600}}
	primary := &scriptedVenue{name: "agg", errs: []error{
		domain.Failf(domain.TransientNetwork, "timeout"),
		domain.Failf(domain.RateLimited, "429"),
	}}
	fallback := &scriptedVenue{name: "direct", outcome: &SwapOutcome{TxSignature: "sig2"}}

	r := NewRouter(RouterOptions{
		Venues:  []Venue{primary, fallback},
		RPC:     rpc,
		Wallet:  fakeWallet{},
		Retries: 2,
	})
	res := r.Acquire(context.Background(), newTestRequest())

	if !res.Success {
		t.Fatalf("acquire failed: %v", res.Err)
	}
	if primary.calls != 2 {
		t.Errorf("primary attempts = %d, want the full retry budget of 2", primary.calls)
	}
	if res.VenueUsed != "direct" {
		t.Errorf("venue = %q, want fallback direct", res.VenueUsed)
	}
	if res.AcquiredAmount != 500 {
		t.Errorf("acquired = %d, want 500", res.AcquiredAmount)
	}
}

func TestRouterDefinitiveFailureDoesNotEscalate(t *testing.T) {
	rpc := &fakeBalanceRPC{balances: []uint64{0}}
	primary := &scriptedVenue{name: "agg", errs: []error{
		domain.Failf(domain.NoRoute, "could not find any route"),
	}}
	fallback := &scriptedVenue{name: "direct", outcome: &SwapOutcome{TxSignature: "sig3"}}

	r := NewRouter(RouterOptions{
		Venues: []Venue{primary, fallback},
		RPC:    rpc,
		Wallet: fakeWallet{},
	})
	res := r.Acquire(context.Background(), newTestRequest())

	if res.Success {
		t.Fatal("expected failure on definitive NoRoute")
	}
	if res.Err.Kind != domain.NoRoute {
		t.Errorf("kind = %s, want %s", res.Err.Kind, domain.NoRoute)
	}
	if primary.calls != 1 {
		t.Errorf("primary attempts = %d, want 1 (no local retry of definitive answer)", primary.calls)
	}
	if fallback.calls != 0 {
		t.Errorf("fallback called %d times, want 0", fallback.calls)
	}
}

func TestRouterNoVenues(t *testing.T) {
	rpc := &fakeBalanceRPC{balances: []uint64{0}}
	r := NewRouter(RouterOptions{RPC: rpc, Wallet: fakeWallet{}})

	res := r.Acquire(context.Background(), newTestRequest())
	if res.Success {
		t.Fatal("expected failure with no venues configured")
	}
	if res.Err.Kind != domain.NoRoute {
		t.Errorf("kind = %s, want %s", res.Err.Kind, domain.NoRoute)
	}
}
