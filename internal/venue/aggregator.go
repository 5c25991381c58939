package venue

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"solana-sniper/internal/domain"
	"solana-sniper/internal/solana"
)

const aggregatorRequestTimeout = 10 * time.Second

// AggregatorVenue executes swaps through an aggregation API (Jupiter
// style quote + swap-build endpoints). It is the primary venue: widest
// routing, but a shared public service, so requests are rate limited
// and its failures decide whether the direct venue is tried at all.
type AggregatorVenue struct {
	baseURL     string
	tipLamports uint64
	client      *http.Client
	limiter     *rate.Limiter
	wallet      solana.Wallet
	relay       *Relay
	rpc         solana.RPCClient
}

// AggregatorOptions configures the aggregator venue.
type AggregatorOptions struct {
	BaseURL      string
	TipLamports  uint64  // priority tip included in the built transaction
	RateLimitRPS float64 // request budget against the shared API
	HTTPClient   *http.Client
	Wallet       solana.Wallet
	Relay        *Relay
	RPC          solana.RPCClient
}

// NewAggregatorVenue creates the aggregator venue.
func NewAggregatorVenue(opts AggregatorOptions) *AggregatorVenue {
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: aggregatorRequestTimeout}
	}
	if opts.RateLimitRPS <= 0 {
		opts.RateLimitRPS = 5
	}
	return &AggregatorVenue{
		baseURL:     opts.BaseURL,
		tipLamports: opts.TipLamports,
		client:      opts.HTTPClient,
		limiter:     rate.NewLimiter(rate.Limit(opts.RateLimitRPS), 1),
		wallet:      opts.Wallet,
		relay:       opts.Relay,
		rpc:         opts.RPC,
	}
}

// Compile-time interface check.
var _ Venue = (*AggregatorVenue)(nil)

func (v *AggregatorVenue) Name() string { return domain.VenueAggregator }

// aggregatorQuote is the tagged quote result. Raw is kept verbatim for
// the swap-build call; typed fields are validated at this boundary.
type aggregatorQuote struct {
	Raw       json.RawMessage
	OutAmount uint64
}

// Swap quotes, builds, signs and submits one swap.
func (v *AggregatorVenue) Swap(ctx context.Context, req SwapRequest) (*SwapOutcome, error) {
	quote, err := v.fetchQuote(ctx, req)
	if err != nil {
		return nil, err
	}

	unsignedTx, err := v.buildSwapTx(ctx, quote)
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

	return &SwapOutcome{TxSignature: sig, QuotedOut: quote.OutAmount}, nil
}

// fetchQuote requests a route for the order.
func (v *AggregatorVenue) fetchQuote(ctx context.Context, req SwapRequest) (*aggregatorQuote, error) {
	if err := v.limiter.Wait(ctx); err != nil {
		return nil, domain.NewFailure(domain.TransientNetwork, err)
	}

	endpoint := fmt.Sprintf("%s/quote?inputMint=%s&outputMint=%s&amount=%d&slippageBps=%d",
		v.baseURL, req.InputMint, req.OutputMint, req.AmountLamports, req.MaxSlippageBps)

	body, err := v.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	var parsed struct {
		OutAmount string `json:"outAmount"`
		Error     string `json:"error"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, domain.NewFailure(domain.TransientNetwork, fmt.Errorf("decode quote: %w", err))
	}
	if parsed.Error != "" {
		if kind, definitive := classifyQuoteBody(parsed.Error); definitive {
			return nil, domain.Failf(kind, "aggregator quote: %s", parsed.Error)
		}
		return nil, domain.Failf(domain.TransientNetwork, "aggregator quote: %s", parsed.Error)
	}

	out, err := strconv.ParseUint(parsed.OutAmount, 10, 64)
	if err != nil {
		return nil, domain.NewFailure(domain.TransientNetwork, fmt.Errorf("quote outAmount %q: %w", parsed.OutAmount, err))
	}

	return &aggregatorQuote{Raw: json.RawMessage(body), OutAmount: out}, nil
}

// buildSwapTx asks the aggregator to compose the unsigned transaction,
// with the priority tip folded in.
func (v *AggregatorVenue) buildSwapTx(ctx context.Context, quote *aggregatorQuote) (string, error) {
	if err := v.limiter.Wait(ctx); err != nil {
		return "", domain.NewFailure(domain.TransientNetwork, err)
	}

	payload, err := json.Marshal(map[string]interface{}{
		"quoteResponse": quote.Raw,
		"userPublicKey": v.wallet.Pubkey(),
		"prioritizationFeeLamports": map[string]uint64{
			"jitoTipLamports": v.tipLamports,
		},
		"wrapAndUnwrapSol": true,
	})
	if err != nil {
		return "", domain.NewFailure(domain.TransientNetwork, fmt.Errorf("marshal swap request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.baseURL+"/swap", bytes.NewReader(payload))
	if err != nil {
		return "", domain.NewFailure(domain.TransientNetwork, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := v.client.Do(req)
	if err != nil {
		return "", domain.NewFailure(classifyTransportErr(err), fmt.Errorf("swap build request: %w", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", domain.NewFailure(domain.TransientNetwork, err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", domain.Failf(classifyHTTPStatus(resp.StatusCode),
			"swap build: status %d: %s", resp.StatusCode, truncate(body))
	}

	var parsed struct {
		SwapTransaction string `json:"swapTransaction"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", domain.NewFailure(domain.TransientNetwork, fmt.Errorf("decode swap build: %w", err))
	}
	if parsed.SwapTransaction == "" {
		return "", domain.Failf(domain.TransientNetwork, "swap build returned no transaction")
	}
	return parsed.SwapTransaction, nil
}

func (v *AggregatorVenue) get(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, domain.NewFailure(domain.TransientNetwork, err)
	}

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, domain.NewFailure(classifyTransportErr(err), err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, domain.NewFailure(domain.TransientNetwork, err)
	}

	if resp.StatusCode != http.StatusOK {
		if kind, definitive := classifyQuoteBody(string(body)); definitive {
			return nil, domain.Failf(kind, "aggregator: %s", truncate(body))
		}
		return nil, domain.Failf(classifyHTTPStatus(resp.StatusCode),
			"aggregator: status %d: %s", resp.StatusCode, truncate(body))
	}
	return body, nil
}

func truncate(body []byte) string {
	const max = 200
	if len(body) > max {
		return string(body[:max]) + "..."
	}
	return string(body)
}
