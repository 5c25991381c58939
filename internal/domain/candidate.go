package domain

// CandidateEvent represents a newly discovered token pending evaluation.
// Immutable; the orchestrator consumes at most one event per pair address
// within the configured cooldown window.
type CandidateEvent struct {
	Mint         string  // token mint address
	Pair         *string // pool/pair address if known (nullable)
	VenueHint    string  // suggested execution venue ("" = none)
	VolumeUSD    float64 // observed 24h volume at discovery
	LiquidityUSD float64 // observed pool liquidity at discovery
	MarketCapUSD float64 // observed market cap at discovery
	DiscoveredAt int64   // Unix timestamp in milliseconds
}

// PairKey returns the dedup key for cooldown tracking. Falls back to the
// mint when the pair address is unknown at discovery time.
func (c *CandidateEvent) PairKey() string {
	if c.Pair != nil && *c.Pair != "" {
		return *c.Pair
	}
	return c.Mint
}
