package venue

import (
	"context"
	"encoding/binary"
	"fmt"

	"solana-sniper/internal/domain"
	"solana-sniper/internal/exit"
	"solana-sniper/internal/solana"
)

const (
	token2022ProgramID = "TokenzQdBNbLqP5VEhdkAS6EPFLC1PHnBqCXEpPxuEb"
	memoProgramID      = "MemoSq4gqABAXKb96qnH8TysNcWxMyWCqXgDLGmfcHr"
)

// cpmmWithdrawDiscriminator is the anchor discriminator of the
// withdraw instruction.
var cpmmWithdrawDiscriminator = []byte{183, 18, 70, 156, 148, 109, 161, 34}

// LiquidityWithdrawer burns a share of the wallet's LP tokens against
// the pool, returning both sides plus the accrued fees to the wallet.
type LiquidityWithdrawer struct {
	rpc       solana.RPCClient
	wallet    solana.Wallet
	relay     *Relay
	programID string
	ammConfig string
}

// LiquidityWithdrawerOptions configures the withdrawer.
type LiquidityWithdrawerOptions struct {
	RPC       solana.RPCClient
	Wallet    solana.Wallet
	Relay     *Relay
	ProgramID string // CPMM program
	AMMConfig string // fee-tier config account
}

// NewLiquidityWithdrawer creates the chain-backed exit executor.
func NewLiquidityWithdrawer(opts LiquidityWithdrawerOptions) *LiquidityWithdrawer {
	return &LiquidityWithdrawer{
		rpc:       opts.RPC,
		wallet:    opts.Wallet,
		relay:     opts.Relay,
		programID: opts.ProgramID,
		ammConfig: opts.AMMConfig,
	}
}

// Compile-time interface check.
var _ exit.Executor = (*LiquidityWithdrawer)(nil)

// Withdraw burns percent of the wallet's remaining LP balance. The
// submission runs on a context detached from engine cancellation: once
// signed and broadcast, the transaction must be allowed to land.
func (w *LiquidityWithdrawer) Withdraw(ctx context.Context, position *domain.Position, percent float64) (*exit.Result, error) {
	if percent <= 0 || percent > 100 {
		return nil, domain.Failf(domain.ChainSubmissionFailed, "withdraw percent %v out of range", percent)
	}

	mint0, mint1, err := solana.CanonicalOrder(position.Mint, position.BaseMint)
	if err != nil {
		return nil, domain.NewFailure(domain.ChainSubmissionFailed, err)
	}
	addrs, err := deriveCPMMAddresses(w.programID, w.ammConfig, mint0, mint1)
	if err != nil {
		return nil, domain.NewFailure(domain.ChainSubmissionFailed, err)
	}
	if addrs.poolState != position.PoolID {
		return nil, domain.Failf(domain.ChainSubmissionFailed,
			"derived pool %s does not match position pool %s", addrs.poolState, position.PoolID)
	}

	owner := w.wallet.Pubkey()
	lpAccount, err := solana.DeriveAssociatedTokenAccount(owner, addrs.lpMint)
	if err != nil {
		return nil, domain.NewFailure(domain.ChainSubmissionFailed, err)
	}

	lpBalance, err := w.rpc.GetTokenAccountBalance(ctx, lpAccount)
	if err != nil {
		return nil, domain.NewFailure(domain.TransientNetwork, fmt.Errorf("lp balance: %w", err))
	}
	lpAmount := uint64(float64(lpBalance) * percent / 100)
	if lpAmount == 0 {
		return nil, domain.Failf(domain.InsufficientLiquidity,
			"no lp balance to withdraw for pool %s", position.PoolID)
	}

	unsignedTx, err := w.composeWithdrawTx(ctx, mint0, mint1, addrs, lpAccount, lpAmount)
	if err != nil {
		return nil, err
	}

	signedTx, err := w.wallet.SignTransaction(ctx, unsignedTx)
	if err != nil {
		return nil, domain.NewFailure(domain.ChainSubmissionFailed, fmt.Errorf("sign withdraw tx: %w", err))
	}

	// Detached from engine cancellation from this point on.
	submitCtx := context.WithoutCancel(ctx)
	sig, err := w.relay.Submit(submitCtx, signedTx)
	if err != nil {
		return nil, err
	}
	if err := w.rpc.ConfirmTransaction(submitCtx, sig); err != nil {
		return nil, domain.NewFailure(domain.ChainSubmissionFailed,
			fmt.Errorf("withdraw tx %s not confirmed: %w", sig, err))
	}

	return &exit.Result{TxSignature: sig}, nil
}

func (w *LiquidityWithdrawer) composeWithdrawTx(ctx context.Context, mint0, mint1 string,
	addrs *poolAddresses, lpAccount string, lpAmount uint64) (string, error) {

	owner := w.wallet.Pubkey()

	token0Account, err := solana.DeriveAssociatedTokenAccount(owner, mint0)
	if err != nil {
		return "", domain.NewFailure(domain.ChainSubmissionFailed, err)
	}
	token1Account, err := solana.DeriveAssociatedTokenAccount(owner, mint1)
	if err != nil {
		return "", domain.NewFailure(domain.ChainSubmissionFailed, err)
	}

	blockhash, err := w.rpc.GetLatestBlockhash(ctx)
	if err != nil {
		return "", domain.NewFailure(domain.TransientNetwork, fmt.Errorf("latest blockhash: %w", err))
	}

	// Minimum-out amounts are zero: an exit prioritizes landing over
	// withdraw-side slippage protection.
	data := make([]byte, 0, 32)
	data = append(data, cpmmWithdrawDiscriminator...)
	data = binary.LittleEndian.AppendUint64(data, lpAmount)
	data = binary.LittleEndian.AppendUint64(data, 0)
	data = binary.LittleEndian.AppendUint64(data, 0)

	withdraw := instruction{
		programID: w.programID,
		accounts: []accountMeta{
			{pubkey: owner, isSigner: true, isWritable: true},
			{pubkey: addrs.authority},
			{pubkey: addrs.poolState, isWritable: true},
			{pubkey: lpAccount, isWritable: true},
			{pubkey: token0Account, isWritable: true},
			{pubkey: token1Account, isWritable: true},
			{pubkey: addrs.vault0, isWritable: true},
			{pubkey: addrs.vault1, isWritable: true},
			{pubkey: solana.TokenProgramID},
			{pubkey: token2022ProgramID},
			{pubkey: mint0},
			{pubkey: mint1},
			{pubkey: addrs.lpMint, isWritable: true},
			{pubkey: memoProgramID},
		},
		data: data,
	}

	tx, err := buildLegacyTx(owner, blockhash, []instruction{withdraw})
	if err != nil {
		return "", domain.NewFailure(domain.ChainSubmissionFailed, err)
	}
	return tx, nil
}
