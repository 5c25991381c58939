package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"solana-sniper/internal/domain"
)

// Defaults for the pair scan source.
const (
	DefaultScanInterval = 30 * time.Second
	DefaultScanQuery    = "SOL"
	defaultMaxPairAge   = 24 * time.Hour
	scanRequestTimeout  = 15 * time.Second
)

// PairScanSourceOptions configures a PairScanSource.
type PairScanSourceOptions struct {
	BaseURL         string        // metadata API root, e.g. https://api.dexscreener.com
	Query           string        // search query, default "SOL"
	Interval        time.Duration // poll interval, default 30s
	MinLiquidityUSD float64       // pairs below this are skipped
	MaxPairAge      time.Duration // pairs older than this are skipped
	HTTPClient      *http.Client
}

// PairScanSource polls a pair metadata search endpoint and emits one
// CandidateEvent per freshly created Solana pair seen in the response.
// Dedup across polls is the cooldown's job, not this source's.
type PairScanSource struct {
	baseURL  string
	query    string
	interval time.Duration
	minLiq   float64
	maxAge   time.Duration
	client   *http.Client
}

// NewPairScanSource creates a pair scan source.
func NewPairScanSource(opts PairScanSourceOptions) *PairScanSource {
	if opts.Query == "" {
		opts.Query = DefaultScanQuery
	}
	if opts.Interval <= 0 {
		opts.Interval = DefaultScanInterval
	}
	if opts.MaxPairAge <= 0 {
		opts.MaxPairAge = defaultMaxPairAge
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: scanRequestTimeout}
	}
	return &PairScanSource{
		baseURL:  opts.BaseURL,
		query:    opts.Query,
		interval: opts.Interval,
		minLiq:   opts.MinLiquidityUSD,
		maxAge:   opts.MaxPairAge,
		client:   opts.HTTPClient,
	}
}

// Compile-time interface check.
var _ CandidateSource = (*PairScanSource)(nil)

// Events starts polling and returns the event channel. The channel is
// closed when ctx is cancelled.
func (s *PairScanSource) Events(ctx context.Context) (<-chan *domain.CandidateEvent, error) {
	if s.baseURL == "" {
		return nil, fmt.Errorf("pair scan source: base url required")
	}

	out := make(chan *domain.CandidateEvent, 64)

	go func() {
		defer close(out)

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			events, err := s.scan(ctx)
			if err != nil {
				log.Printf("pair scan failed: %v", err)
			}
			for _, ev := range events {
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			}

			select {
			case <-ticker.C:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, nil
}

// searchResponse mirrors the /latest/dex/search payload.
type searchResponse struct {
	Pairs []pairInfo `json:"pairs"`
}

type pairInfo struct {
	ChainID     string `json:"chainId"`
	DexID       string `json:"dexId"`
	PairAddress string `json:"pairAddress"`
	BaseToken   struct {
		Address string `json:"address"`
		Symbol  string `json:"symbol"`
	} `json:"baseToken"`
	Volume struct {
		H24 float64 `json:"h24"`
	} `json:"volume"`
	Liquidity struct {
		USD float64 `json:"usd"`
	} `json:"liquidity"`
	MarketCap     float64 `json:"marketCap"`
	FDV           float64 `json:"fdv"`
	PairCreatedAt int64   `json:"pairCreatedAt"` // ms
}

func (s *PairScanSource) scan(ctx context.Context) ([]*domain.CandidateEvent, error) {
	endpoint := fmt.Sprintf("%s/latest/dex/search?q=%s", s.baseURL, url.QueryEscape(s.query))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build search request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("search request: unexpected status %d", resp.StatusCode)
	}

	var parsed searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	return s.filterPairs(parsed.Pairs, time.Now()), nil
}

// filterPairs converts fresh Solana pairs into candidate events.
func (s *PairScanSource) filterPairs(pairs []pairInfo, now time.Time) []*domain.CandidateEvent {
	var events []*domain.CandidateEvent
	for _, p := range pairs {
		if p.ChainID != "solana" || p.PairAddress == "" || p.BaseToken.Address == "" {
			continue
		}
		if p.Liquidity.USD < s.minLiq {
			continue
		}
		created := time.UnixMilli(p.PairCreatedAt)
		if p.PairCreatedAt == 0 || now.Sub(created) > s.maxAge {
			continue
		}

		mcap := p.MarketCap
		if mcap == 0 {
			mcap = p.FDV
		}

		pair := p.PairAddress
		events = append(events, &domain.CandidateEvent{
			Mint:         p.BaseToken.Address,
			Pair:         &pair,
			VenueHint:    p.DexID,
			VolumeUSD:    p.Volume.H24,
			LiquidityUSD: p.Liquidity.USD,
			MarketCapUSD: mcap,
			DiscoveredAt: now.UnixMilli(),
		})
	}
	return events
}
