package discovery

import (
	"testing"
	"time"
)

func TestFilterPairs(t *testing.T) {
	now := time.UnixMilli(1704067200000)
	fresh := now.Add(-time.Hour).UnixMilli()
	stale := now.Add(-48 * time.Hour).UnixMilli()

	src := NewPairScanSource(PairScanSourceOptions{
		BaseURL:         "http://example.invalid",
		MinLiquidityUSD: 1000,
	})

	pairs := []pairInfo{
		solanaPair("Mint1", "pair1", 5000, fresh),
		solanaPair("Mint2", "pair2", 500, fresh),  // below min liquidity
		solanaPair("Mint3", "pair3", 5000, stale), // too old
		func() pairInfo {
			p := solanaPair("Mint4", "pair4", 5000, fresh)
			p.ChainID = "ethereum"
			return p
		}(),
		func() pairInfo {
			p := solanaPair("Mint5", "pair5", 5000, fresh)
			p.MarketCap = 0
			p.FDV = 77777
			return p
		}(),
	}

	events := src.filterPairs(pairs, now)
	if len(events) != 2 {
		t.Fatalf("Expected 2 events, got %d", len(events))
	}

	if events[0].Mint != "Mint1" {
		t.Errorf("Expected Mint1 first, got %s", events[0].Mint)
	}
	if events[0].Pair == nil || *events[0].Pair != "pair1" {
		t.Error("Pair address not carried through")
	}
	if events[0].VenueHint != "raydium" {
		t.Errorf("VenueHint mismatch: %s", events[0].VenueHint)
	}

	// FDV used when market cap is missing
	if events[1].MarketCapUSD != 77777 {
		t.Errorf("Expected FDV fallback, got %f", events[1].MarketCapUSD)
	}
}

func solanaPair(mint, pair string, liq float64, createdAt int64) pairInfo {
	var p pairInfo
	p.ChainID = "solana"
	p.DexID = "raydium"
	p.PairAddress = pair
	p.BaseToken.Address = mint
	p.BaseToken.Symbol = "TKN"
	p.Volume.H24 = 10000
	p.Liquidity.USD = liq
	p.MarketCap = 50000
	p.PairCreatedAt = createdAt
	return p
}
