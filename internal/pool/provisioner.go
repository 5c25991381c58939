// Package pool provisions liquidity pools from acquired assets and
// constructs the positions that track them.
package pool

import (
	"context"
	"fmt"
	"log"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"solana-sniper/internal/domain"
	"solana-sniper/internal/solana"
)

// SPL mint account layout, for reading token decimals.
const (
	mintAccountSize    = 82
	mintDecimalsOffset = 44
)

// CreateRequest asks the chain for a new pool. Mint0/Mint1 and their
// amounts are already in canonical order.
type CreateRequest struct {
	Mint0   string
	Mint1   string
	Amount0 uint64
	Amount1 uint64
}

// CreateResult reports a successful pool creation.
type CreateResult struct {
	PoolID      string
	TxSignature string
}

// Creator is the chain primitive that creates and seeds a pool.
type Creator interface {
	CreatePool(ctx context.Context, req CreateRequest) (*CreateResult, error)
}

// ProvisionRequest describes one provisioning run: the acquired target
// asset and the base asset to pair it with.
type ProvisionRequest struct {
	TargetMint   string
	TargetAmount uint64 // raw units, as measured by the router
	BaseMint     string
	BaseAmount   uint64 // raw units
	Symbol       string
	EntryMcap    float64
}

// Provisioner creates a pool from an acquisition and builds the
// position record. Liquidity is seeded once, fully, at creation time.
// A creation failure after a successful acquisition is reported to the
// caller but never rolled back: the acquired asset stays in the wallet.
type Provisioner struct {
	creator Creator
	rpc     solana.RPCClient
	now     func() time.Time
}

// ProvisionerOptions configures a Provisioner.
type ProvisionerOptions struct {
	Creator Creator
	RPC     solana.RPCClient
	Now     func() time.Time // test hook
}

// NewProvisioner creates a pool provisioner.
func NewProvisioner(opts ProvisionerOptions) *Provisioner {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Provisioner{creator: opts.Creator, rpc: opts.RPC, now: opts.Now}
}

// Provision orders the pair canonically, creates the pool and returns
// the new position. The position exists only if creation succeeded.
func (p *Provisioner) Provision(ctx context.Context, req ProvisionRequest) (*domain.Position, error) {
	if req.TargetAmount == 0 || req.BaseAmount == 0 {
		return nil, domain.Failf(domain.InsufficientLiquidity,
			"cannot seed pool with zero amounts (target=%d base=%d)", req.TargetAmount, req.BaseAmount)
	}

	mint0, mint1, err := solana.CanonicalOrder(req.TargetMint, req.BaseMint)
	if err != nil {
		return nil, domain.NewFailure(domain.ChainSubmissionFailed, err)
	}
	amount0, amount1 := req.TargetAmount, req.BaseAmount
	if mint0 == req.BaseMint {
		amount0, amount1 = req.BaseAmount, req.TargetAmount
	}

	initialPrice, err := p.initialPrice(ctx, req)
	if err != nil {
		return nil, err
	}

	result, err := p.creator.CreatePool(ctx, CreateRequest{
		Mint0:   mint0,
		Mint1:   mint1,
		Amount0: amount0,
		Amount1: amount1,
	})
	if err != nil {
		// The acquired asset remains in the wallet; nothing to roll back.
		return nil, domain.NewFailure(domain.KindOf(err),
			fmt.Errorf("create pool %s/%s: %w", mint0, mint1, err))
	}

	position := &domain.Position{
		ID:                 uuid.NewString(),
		PoolID:             result.PoolID,
		Mint:               req.TargetMint,
		Symbol:             req.Symbol,
		BaseMint:           req.BaseMint,
		InitialPrice:       initialPrice,
		InitialTokenAmount: req.TargetAmount,
		InitialBaseAmount:  req.BaseAmount,
		CreatedAt:          p.now().UnixMilli(),
		EntryMcap:          req.EntryMcap,
		CurrentMcap:        req.EntryMcap,
	}
	log.Printf("pool %s created (tx %s), position %s at initial price %.12f",
		result.PoolID, result.TxSignature, position.ID, initialPrice)
	return position, nil
}

// initialPrice computes base-asset per target-asset from the deposited
// raw amounts, adjusted for both mints' decimals.
func (p *Provisioner) initialPrice(ctx context.Context, req ProvisionRequest) (float64, error) {
	targetDecimals, err := MintDecimals(ctx, p.rpc, req.TargetMint)
	if err != nil {
		return 0, err
	}
	baseDecimals, err := MintDecimals(ctx, p.rpc, req.BaseMint)
	if err != nil {
		return 0, err
	}
	return PriceFromAmounts(req.BaseAmount, baseDecimals, req.TargetAmount, targetDecimals), nil
}

// PriceFromAmounts divides the decimal-adjusted base amount by the
// decimal-adjusted target amount using exact arithmetic, yielding
// base-asset per target-asset.
func PriceFromAmounts(baseAmount uint64, baseDecimals uint8, targetAmount uint64, targetDecimals uint8) float64 {
	base := decimal.NewFromBigInt(new(big.Int).SetUint64(baseAmount), -int32(baseDecimals))
	target := decimal.NewFromBigInt(new(big.Int).SetUint64(targetAmount), -int32(targetDecimals))
	if target.IsZero() {
		return 0
	}
	price, _ := base.Div(target).Float64()
	return price
}

// MintDecimals reads a token mint's decimals from its account bytes.
func MintDecimals(ctx context.Context, rpc solana.RPCClient, mint string) (uint8, error) {
	info, err := rpc.GetAccountInfo(ctx, mint)
	if err != nil {
		return 0, domain.NewFailure(domain.TransientNetwork,
			fmt.Errorf("fetch mint %s: %w", mint, err))
	}
	if info == nil || len(info.Data) < mintAccountSize {
		return 0, domain.Failf(domain.ChainSubmissionFailed, "mint %s: malformed account", mint)
	}
	return info.Data[mintDecimalsOffset], nil
}
