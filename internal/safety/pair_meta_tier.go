package safety

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"solana-sniper/internal/domain"
)

const pairMetaRequestTimeout = 10 * time.Second

// PairMetaTier consults a pair metadata API (DexScreener-style token
// lookup) as a secondary reputation source. The API sees markets, not
// authorities, so this tier is definitive only when the market itself
// disqualifies the token: no tradeable pair, or liquidity below the
// floor. A healthy-looking pair cannot prove the LP lock, so the tier
// reports "cannot answer" and lets the gate escalate.
type PairMetaTier struct {
	baseURL    string
	thresholds Thresholds
	client     *http.Client
}

// NewPairMetaTier creates the pair metadata tier.
func NewPairMetaTier(baseURL string, thresholds Thresholds, client *http.Client) *PairMetaTier {
	if client == nil {
		client = &http.Client{Timeout: pairMetaRequestTimeout}
	}
	return &PairMetaTier{baseURL: baseURL, thresholds: thresholds, client: client}
}

// Compile-time interface check.
var _ Tier = (*PairMetaTier)(nil)

func (t *PairMetaTier) Name() string { return domain.TierPairMeta }

type tokenPairsResponse struct {
	Pairs []struct {
		ChainID     string `json:"chainId"`
		PairAddress string `json:"pairAddress"`
		Liquidity   struct {
			USD float64 `json:"usd"`
		} `json:"liquidity"`
		Labels []string `json:"labels"`
	} `json:"pairs"`
}

// Check looks the mint up and applies the market-level rules.
func (t *PairMetaTier) Check(ctx context.Context, mint string, pair *string) (*domain.SafetyVerdict, error) {
	endpoint := fmt.Sprintf("%s/tokens/%s", t.baseURL, mint)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build token lookup request: %w", err)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token lookup request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("token lookup request: unexpected status %d", resp.StatusCode)
	}

	var parsed tokenPairsResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode token lookup: %w", err)
	}

	return t.judge(&parsed, pair)
}

func (t *PairMetaTier) judge(parsed *tokenPairsResponse, pair *string) (*domain.SafetyVerdict, error) {
	tier := t.Name()

	var bestLiquidity float64
	found := false
	for _, p := range parsed.Pairs {
		if p.ChainID != "solana" {
			continue
		}
		if pair != nil && *pair != "" && p.PairAddress != *pair {
			continue
		}
		found = true
		if p.Liquidity.USD > bestLiquidity {
			bestLiquidity = p.Liquidity.USD
		}
	}

	if !found {
		v := domain.Reject(tier, "no tradeable pair found for mint",
			"token has no visible market")
		return &v, nil
	}
	if bestLiquidity < t.thresholds.MinLiquidityUSD {
		v := domain.Reject(tier,
			fmt.Sprintf("pair liquidity $%.0f below floor $%.0f", bestLiquidity, t.thresholds.MinLiquidityUSD),
			"pool too shallow to absorb the budget")
		return &v, nil
	}

	// Market looks viable but this source cannot prove the LP lock.
	return nil, fmt.Errorf("pair metadata cannot establish LP lock status")
}
