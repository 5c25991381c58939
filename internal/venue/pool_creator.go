package venue

import (
	"context"
	"encoding/binary"
	"fmt"

	"solana-sniper/internal/domain"
	"solana-sniper/internal/pool"
	"solana-sniper/internal/solana"
)

// CPMM program constants for pool creation.
const (
	cpmmAuthoritySeed   = "vault_and_lp_mint_auth_seed"
	cpmmPoolSeed        = "pool"
	cpmmLPMintSeed      = "pool_lp_mint"
	cpmmVaultSeed       = "pool_vault"
	cpmmObservationSeed = "observation"

	rentSysvarID = "SysvarRent111111111111111111111111111111111"
)

// cpmmInitializeDiscriminator is the anchor discriminator of the
// initialize instruction.
var cpmmInitializeDiscriminator = []byte{175, 175, 109, 31, 13, 152, 155, 237}

// ChainPoolCreator creates and seeds a constant-product pool on chain.
// The pool state address is a PDA of (config, mint0, mint1), so a
// repeated creation attempt for the same pair lands on the same pool.
type ChainPoolCreator struct {
	rpc           solana.RPCClient
	wallet        solana.Wallet
	relay         *Relay
	programID     string
	ammConfig     string
	createPoolFee string
}

// ChainPoolCreatorOptions configures the creator.
type ChainPoolCreatorOptions struct {
	RPC           solana.RPCClient
	Wallet        solana.Wallet
	Relay         *Relay
	ProgramID     string // CPMM program
	AMMConfig     string // fee-tier config account
	CreatePoolFee string // protocol fee receiver
}

// NewChainPoolCreator creates the chain-backed pool creator.
func NewChainPoolCreator(opts ChainPoolCreatorOptions) *ChainPoolCreator {
	return &ChainPoolCreator{
		rpc:           opts.RPC,
		wallet:        opts.Wallet,
		relay:         opts.Relay,
		programID:     opts.ProgramID,
		ammConfig:     opts.AMMConfig,
		createPoolFee: opts.CreatePoolFee,
	}
}

// Compile-time interface check.
var _ pool.Creator = (*ChainPoolCreator)(nil)

// CreatePool derives the pool PDAs, composes the initialize
// transaction with the full deposit amounts and submits it.
func (c *ChainPoolCreator) CreatePool(ctx context.Context, req pool.CreateRequest) (*pool.CreateResult, error) {
	addrs, err := deriveCPMMAddresses(c.programID, c.ammConfig, req.Mint0, req.Mint1)
	if err != nil {
		return nil, domain.NewFailure(domain.ChainSubmissionFailed, err)
	}

	unsignedTx, err := c.composeInitializeTx(ctx, req, addrs)
	if err != nil {
		return nil, err
	}

	signedTx, err := c.wallet.SignTransaction(ctx, unsignedTx)
	if err != nil {
		return nil, domain.NewFailure(domain.ChainSubmissionFailed, fmt.Errorf("sign pool tx: %w", err))
	}

	sig, err := c.relay.Submit(ctx, signedTx)
	if err != nil {
		return nil, err
	}

	if err := c.rpc.ConfirmTransaction(ctx, sig); err != nil {
		return nil, domain.NewFailure(domain.ChainSubmissionFailed,
			fmt.Errorf("pool tx %s not confirmed: %w", sig, err))
	}

	return &pool.CreateResult{PoolID: addrs.poolState, TxSignature: sig}, nil
}

type poolAddresses struct {
	authority   string
	poolState   string
	lpMint      string
	vault0      string
	vault1      string
	observation string
}

// deriveCPMMAddresses computes every PDA of the pool for the ordered
// mint pair.
func deriveCPMMAddresses(programID, ammConfig, mint0, mint1 string) (*poolAddresses, error) {
	configRaw, err := solana.DecodePubkey(ammConfig)
	if err != nil {
		return nil, fmt.Errorf("amm config: %w", err)
	}
	mint0Raw, err := solana.DecodePubkey(mint0)
	if err != nil {
		return nil, err
	}
	mint1Raw, err := solana.DecodePubkey(mint1)
	if err != nil {
		return nil, err
	}

	authority, err := solana.FindProgramAddress(
		[][]byte{[]byte(cpmmAuthoritySeed)}, programID)
	if err != nil {
		return nil, fmt.Errorf("derive authority: %w", err)
	}

	poolState, err := solana.FindProgramAddress(
		[][]byte{[]byte(cpmmPoolSeed), configRaw, mint0Raw, mint1Raw}, programID)
	if err != nil {
		return nil, fmt.Errorf("derive pool state: %w", err)
	}
	poolRaw, err := solana.DecodePubkey(poolState)
	if err != nil {
		return nil, err
	}

	lpMint, err := solana.FindProgramAddress(
		[][]byte{[]byte(cpmmLPMintSeed), poolRaw}, programID)
	if err != nil {
		return nil, fmt.Errorf("derive lp mint: %w", err)
	}
	vault0, err := solana.FindProgramAddress(
		[][]byte{[]byte(cpmmVaultSeed), poolRaw, mint0Raw}, programID)
	if err != nil {
		return nil, fmt.Errorf("derive vault0: %w", err)
	}
	vault1, err := solana.FindProgramAddress(
		[][]byte{[]byte(cpmmVaultSeed), poolRaw, mint1Raw}, programID)
	if err != nil {
		return nil, fmt.Errorf("derive vault1: %w", err)
	}
	observation, err := solana.FindProgramAddress(
		[][]byte{[]byte(cpmmObservationSeed), poolRaw}, programID)
	if err != nil {
		return nil, fmt.Errorf("derive observation: %w", err)
	}

	return &poolAddresses{
		authority:   authority,
		poolState:   poolState,
		lpMint:      lpMint,
		vault0:      vault0,
		vault1:      vault1,
		observation: observation,
	}, nil
}

func (c *ChainPoolCreator) composeInitializeTx(ctx context.Context, req pool.CreateRequest,
	addrs *poolAddresses) (string, error) {

	owner := c.wallet.Pubkey()

	token0Account, err := solana.DeriveAssociatedTokenAccount(owner, req.Mint0)
	if err != nil {
		return "", domain.NewFailure(domain.ChainSubmissionFailed, err)
	}
	token1Account, err := solana.DeriveAssociatedTokenAccount(owner, req.Mint1)
	if err != nil {
		return "", domain.NewFailure(domain.ChainSubmissionFailed, err)
	}
	lpAccount, err := solana.DeriveAssociatedTokenAccount(owner, addrs.lpMint)
	if err != nil {
		return "", domain.NewFailure(domain.ChainSubmissionFailed, err)
	}

	blockhash, err := c.rpc.GetLatestBlockhash(ctx)
	if err != nil {
		return "", domain.NewFailure(domain.TransientNetwork, fmt.Errorf("latest blockhash: %w", err))
	}

	data := make([]byte, 0, 32)
	data = append(data, cpmmInitializeDiscriminator...)
	data = binary.LittleEndian.AppendUint64(data, req.Amount0)
	data = binary.LittleEndian.AppendUint64(data, req.Amount1)
	data = binary.LittleEndian.AppendUint64(data, 0) // openTime: immediate

	initialize := instruction{
		programID: c.programID,
		accounts: []accountMeta{
			{pubkey: owner, isSigner: true, isWritable: true},
			{pubkey: c.ammConfig},
			{pubkey: addrs.authority},
			{pubkey: addrs.poolState, isWritable: true},
			{pubkey: req.Mint0},
			{pubkey: req.Mint1},
			{pubkey: addrs.lpMint, isWritable: true},
			{pubkey: token0Account, isWritable: true},
			{pubkey: token1Account, isWritable: true},
			{pubkey: lpAccount, isWritable: true},
			{pubkey: addrs.vault0, isWritable: true},
			{pubkey: addrs.vault1, isWritable: true},
			{pubkey: c.createPoolFee, isWritable: true},
			{pubkey: addrs.observation, isWritable: true},
			{pubkey: solana.TokenProgramID},
			{pubkey: solana.TokenProgramID},
			{pubkey: solana.TokenProgramID},
			{pubkey: solana.AssociatedTokenProgramID},
			{pubkey: systemProgramID},
			{pubkey: rentSysvarID},
		},
		data: data,
	}

	tx, err := buildLegacyTx(owner, blockhash, []instruction{initialize})
	if err != nil {
		return "", domain.NewFailure(domain.ChainSubmissionFailed, err)
	}
	return tx, nil
}
