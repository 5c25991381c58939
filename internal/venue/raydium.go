package venue

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"solana-sniper/internal/domain"
	"solana-sniper/internal/solana"
)

// Raydium constants.
const (
	// raydiumAuthority is the fixed AMM authority PDA for the v4 program.
	raydiumAuthority = "5Q544fKrFoe6tsEbD7S8EmxGTJYAKtTVhAW5Q5pge4j1"
	systemProgramID  = "11111111111111111111111111111111"

	swapBaseInDiscriminator = 9
	ataCreateIdempotent     = 1
)

const metadataRequestTimeout = 10 * time.Second

// DirectAMMVenue swaps against a Raydium AMM v4 pool without an
// aggregator. Used only when the primary venue fails with a transient
// classification. Pool resolution tries the pair metadata API first,
// then falls back to a deterministic on-chain account-filter query
// decoding the raw pool bytes.
type DirectAMMVenue struct {
	rpc         solana.RPCClient
	wallet      solana.Wallet
	relay       *Relay
	programID   string
	pairMetaURL string
	client      *http.Client
}

// DirectAMMOptions configures the direct venue.
type DirectAMMOptions struct {
	RPC         solana.RPCClient
	Wallet      solana.Wallet
	Relay       *Relay
	ProgramID   string // Raydium AMM v4 program
	PairMetaURL string // metadata API for pool resolution
	HTTPClient  *http.Client
}

// NewDirectAMMVenue creates the direct AMM venue.
func NewDirectAMMVenue(opts DirectAMMOptions) *DirectAMMVenue {
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: metadataRequestTimeout}
	}
	return &DirectAMMVenue{
		rpc:         opts.RPC,
		wallet:      opts.Wallet,
		relay:       opts.Relay,
		programID:   opts.ProgramID,
		pairMetaURL: opts.PairMetaURL,
		client:      opts.HTTPClient,
	}
}

// Compile-time interface check.
var _ Venue = (*DirectAMMVenue)(nil)

func (v *DirectAMMVenue) Name() string { return domain.VenueDirectAMM }

// Swap resolves the pool, composes the swap transaction and submits it.
func (v *DirectAMMVenue) Swap(ctx context.Context, req SwapRequest) (*SwapOutcome, error) {
	pool, err := v.resolvePool(ctx, req)
	if err != nil {
		return nil, err
	}

	market, vaultSigner, err := v.fetchMarket(ctx, pool)
	if err != nil {
		return nil, err
	}

	minOut, estimate, err := v.estimateMinOut(ctx, pool, req)
	if err != nil {
		return nil, err
	}

	unsignedTx, err := v.composeSwapTx(ctx, pool, market, vaultSigner, req, minOut)
	if err != nil {
		return nil, err
	}

	signedTx, err := v.wallet.SignTransaction(ctx, unsignedTx)
	if err != nil {
		return nil, domain.NewFailure(domain.ChainSubmissionFailed, fmt.Errorf("sign swap tx: %w", err))
	}

	sig, err := v.relay.Submit(ctx, signedTx)
	if err != nil {
		return nil, err
	}

	if err := v.rpc.ConfirmTransaction(ctx, sig); err != nil {
		return nil, domain.NewFailure(domain.ChainSubmissionFailed,
			fmt.Errorf("swap tx %s not confirmed: %w", sig, err))
	}

	return &SwapOutcome{TxSignature: sig, QuotedOut: estimate}, nil
}

// resolvePool locates and decodes the AMM pool for the order's pair.
func (v *DirectAMMVenue) resolvePool(ctx context.Context, req SwapRequest) (*RaydiumPool, error) {
	target := req.OutputMint
	if target == solana.WrappedSOLMint {
		target = req.InputMint
	}

	if req.PairAddress != nil && *req.PairAddress != "" {
		return v.fetchPool(ctx, *req.PairAddress)
	}

	if poolID, err := v.resolveViaMetadata(ctx, target); err == nil {
		return v.fetchPool(ctx, poolID)
	}

	return v.resolveOnChain(ctx, target)
}

func (v *DirectAMMVenue) fetchPool(ctx context.Context, poolID string) (*RaydiumPool, error) {
	info, err := v.rpc.GetAccountInfo(ctx, poolID)
	if err != nil {
		return nil, domain.NewFailure(domain.TransientNetwork, fmt.Errorf("fetch pool %s: %w", poolID, err))
	}
	if info == nil {
		return nil, domain.Failf(domain.NoRoute, "pool account %s does not exist", poolID)
	}
	pool, err := decodeRaydiumPool(poolID, info.Data)
	if err != nil {
		return nil, domain.NewFailure(domain.NoRoute, err)
	}
	return pool, nil
}

// resolveViaMetadata asks the pair metadata API for the deepest raydium
// pair of the mint.
func (v *DirectAMMVenue) resolveViaMetadata(ctx context.Context, mint string) (string, error) {
	endpoint := fmt.Sprintf("%s/tokens/%s", v.pairMetaURL, mint)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", err
	}

	resp, err := v.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("metadata lookup: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return "", fmt.Errorf("metadata lookup: unexpected status %d", resp.StatusCode)
	}

	var parsed struct {
		Pairs []struct {
			ChainID     string `json:"chainId"`
			DexID       string `json:"dexId"`
			PairAddress string `json:"pairAddress"`
			Liquidity   struct {
				USD float64 `json:"usd"`
			} `json:"liquidity"`
		} `json:"pairs"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode metadata lookup: %w", err)
	}

	var best string
	var bestLiq float64
	for _, p := range parsed.Pairs {
		if p.ChainID != "solana" || p.DexID != "raydium" {
			continue
		}
		if best == "" || p.Liquidity.USD > bestLiq {
			best, bestLiq = p.PairAddress, p.Liquidity.USD
		}
	}
	if best == "" {
		return "", fmt.Errorf("no raydium pair listed for %s", mint)
	}
	return best, nil
}

// resolveOnChain scans program accounts for a pool holding the mint on
// either side.
func (v *DirectAMMVenue) resolveOnChain(ctx context.Context, mint string) (*RaydiumPool, error) {
	for _, offset := range []int{offBaseMint, offQuoteMint} {
		accounts, err := v.rpc.GetProgramAccounts(ctx, v.programID, []solana.AccountFilter{
			{DataSize: raydiumAMMAccountSize},
			{MemcmpOffset: offset, MemcmpBytes: mint},
		})
		if err != nil {
			return nil, domain.NewFailure(domain.TransientNetwork, fmt.Errorf("program account scan: %w", err))
		}
		if len(accounts) == 0 {
			continue
		}
		pool, err := decodeRaydiumPool(accounts[0].Pubkey, accounts[0].Data)
		if err != nil {
			return nil, domain.NewFailure(domain.NoRoute, err)
		}
		return pool, nil
	}
	return nil, domain.Failf(domain.NoRoute, "no amm pool found for mint %s", mint)
}

// fetchMarket loads the order-book market the pool trades against and
// derives its vault signer.
func (v *DirectAMMVenue) fetchMarket(ctx context.Context, pool *RaydiumPool) (*SerumMarket, string, error) {
	info, err := v.rpc.GetAccountInfo(ctx, pool.MarketID)
	if err != nil {
		return nil, "", domain.NewFailure(domain.TransientNetwork, fmt.Errorf("fetch market: %w", err))
	}
	if info == nil {
		return nil, "", domain.Failf(domain.NoRoute, "market account %s does not exist", pool.MarketID)
	}

	market, err := decodeSerumMarket(pool.MarketID, info.Data)
	if err != nil {
		return nil, "", domain.NewFailure(domain.NoRoute, err)
	}

	marketRaw, err := solana.DecodePubkey(pool.MarketID)
	if err != nil {
		return nil, "", domain.NewFailure(domain.NoRoute, err)
	}
	nonce := make([]byte, 8)
	binary.LittleEndian.PutUint64(nonce, market.VaultSignerNonce)

	vaultSigner, err := solana.CreateProgramAddress([][]byte{marketRaw, nonce}, pool.MarketProgramID)
	if err != nil {
		return nil, "", domain.NewFailure(domain.NoRoute, fmt.Errorf("derive vault signer: %w", err))
	}
	return market, vaultSigner, nil
}

// estimateMinOut derives a slippage floor from the constant-product
// vault balances. Returns the floor and the raw estimate.
func (v *DirectAMMVenue) estimateMinOut(ctx context.Context, pool *RaydiumPool, req SwapRequest) (uint64, uint64, error) {
	inVault, outVault := pool.BaseVault, pool.QuoteVault
	if req.InputMint == pool.QuoteMint {
		inVault, outVault = pool.QuoteVault, pool.BaseVault
	}

	inBal, err := v.rpc.GetTokenAccountBalance(ctx, inVault)
	if err != nil {
		return 0, 0, domain.NewFailure(domain.TransientNetwork, fmt.Errorf("input vault balance: %w", err))
	}
	outBal, err := v.rpc.GetTokenAccountBalance(ctx, outVault)
	if err != nil {
		return 0, 0, domain.NewFailure(domain.TransientNetwork, fmt.Errorf("output vault balance: %w", err))
	}
	if inBal == 0 || outBal == 0 {
		return 0, 0, domain.Failf(domain.InsufficientLiquidity, "pool %s has an empty vault", pool.ID)
	}

	estimate := uint64(float64(outBal) * float64(req.AmountLamports) /
		float64(inBal+req.AmountLamports))
	minOut := uint64(float64(estimate) * (1 - float64(req.MaxSlippageBps)/10_000))
	if minOut == 0 {
		minOut = 1
	}
	return minOut, estimate, nil
}

// composeSwapTx builds the unsigned swap transaction: an idempotent
// destination-ATA create followed by the swap-base-in instruction.
func (v *DirectAMMVenue) composeSwapTx(ctx context.Context, pool *RaydiumPool, market *SerumMarket,
	vaultSigner string, req SwapRequest, minOut uint64) (string, error) {

	owner := v.wallet.Pubkey()

	source, err := solana.DeriveAssociatedTokenAccount(owner, req.InputMint)
	if err != nil {
		return "", domain.NewFailure(domain.ChainSubmissionFailed, err)
	}
	dest, err := solana.DeriveAssociatedTokenAccount(owner, req.OutputMint)
	if err != nil {
		return "", domain.NewFailure(domain.ChainSubmissionFailed, err)
	}

	blockhash, err := v.rpc.GetLatestBlockhash(ctx)
	if err != nil {
		return "", domain.NewFailure(domain.TransientNetwork, fmt.Errorf("latest blockhash: %w", err))
	}

	createDest := instruction{
		programID: solana.AssociatedTokenProgramID,
		accounts: []accountMeta{
			{pubkey: owner, isSigner: true, isWritable: true},
			{pubkey: dest, isWritable: true},
			{pubkey: owner},
			{pubkey: req.OutputMint},
			{pubkey: systemProgramID},
			{pubkey: solana.TokenProgramID},
		},
		data: []byte{ataCreateIdempotent},
	}

	data := make([]byte, 17)
	data[0] = swapBaseInDiscriminator
	binary.LittleEndian.PutUint64(data[1:], req.AmountLamports)
	binary.LittleEndian.PutUint64(data[9:], minOut)

	swap := instruction{
		programID: v.programID,
		accounts: []accountMeta{
			{pubkey: solana.TokenProgramID},
			{pubkey: pool.ID, isWritable: true},
			{pubkey: raydiumAuthority},
			{pubkey: pool.OpenOrders, isWritable: true},
			{pubkey: pool.TargetOrders, isWritable: true},
			{pubkey: pool.BaseVault, isWritable: true},
			{pubkey: pool.QuoteVault, isWritable: true},
			{pubkey: pool.MarketProgramID},
			{pubkey: pool.MarketID, isWritable: true},
			{pubkey: market.Bids, isWritable: true},
			{pubkey: market.Asks, isWritable: true},
			{pubkey: market.EventQueue, isWritable: true},
			{pubkey: market.BaseVault, isWritable: true},
			{pubkey: market.QuoteVault, isWritable: true},
			{pubkey: vaultSigner},
			{pubkey: source, isWritable: true},
			{pubkey: dest, isWritable: true},
			{pubkey: owner, isSigner: true, isWritable: true},
		},
		data: data,
	}

	tx, err := buildLegacyTx(owner, blockhash, []instruction{createDest, swap})
	if err != nil {
		return "", domain.NewFailure(domain.ChainSubmissionFailed, err)
	}
	return tx, nil
}
