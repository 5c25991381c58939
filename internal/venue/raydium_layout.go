package venue

import (
	"encoding/binary"
	"fmt"

	"github.com/mr-tron/base58"
)

// Raydium AMM V4 account layout. The pool state account is 752 bytes;
// the fields the engine needs sit at these documented offsets.
const (
	raydiumAMMAccountSize = 752

	offBaseVault       = 336
	offQuoteVault      = 368
	offBaseMint        = 400
	offQuoteMint       = 432
	offLPMint          = 464
	offOpenOrders      = 496
	offMarketID        = 528
	offMarketProgramID = 560
	offTargetOrders    = 592
)

// Serum market state v3 layout (including the 5-byte account-flag
// padding prefix).
const (
	serumMarketMinSize = 349

	offSerumVaultSignerNonce = 45 // u64 LE
	offSerumBaseVault        = 117
	offSerumQuoteVault       = 165
	offSerumEventQueue       = 253
	offSerumBids             = 285
	offSerumAsks             = 317
)

// RaydiumPool is the decoded AMM pool state.
type RaydiumPool struct {
	ID              string // pool account address
	BaseVault       string
	QuoteVault      string
	BaseMint        string
	QuoteMint       string
	LPMint          string
	OpenOrders      string
	TargetOrders    string
	MarketID        string
	MarketProgramID string
}

// SerumMarket is the decoded order-book market the pool trades against.
type SerumMarket struct {
	VaultSignerNonce uint64
	BaseVault        string
	QuoteVault       string
	EventQueue       string
	Bids             string
	Asks             string
}

// decodeRaydiumPool decodes the raw AMM account bytes.
func decodeRaydiumPool(poolID string, data []byte) (*RaydiumPool, error) {
	if len(data) != raydiumAMMAccountSize {
		return nil, fmt.Errorf("amm account %s: expected %d bytes, got %d",
			poolID, raydiumAMMAccountSize, len(data))
	}
	return &RaydiumPool{
		ID:              poolID,
		BaseVault:       pubkeyAt(data, offBaseVault),
		QuoteVault:      pubkeyAt(data, offQuoteVault),
		BaseMint:        pubkeyAt(data, offBaseMint),
		QuoteMint:       pubkeyAt(data, offQuoteMint),
		LPMint:          pubkeyAt(data, offLPMint),
		OpenOrders:      pubkeyAt(data, offOpenOrders),
		TargetOrders:    pubkeyAt(data, offTargetOrders),
		MarketID:        pubkeyAt(data, offMarketID),
		MarketProgramID: pubkeyAt(data, offMarketProgramID),
	}, nil
}

// decodeSerumMarket decodes the market account bytes.
func decodeSerumMarket(marketID string, data []byte) (*SerumMarket, error) {
	if len(data) < serumMarketMinSize {
		return nil, fmt.Errorf("market account %s: expected at least %d bytes, got %d",
			marketID, serumMarketMinSize, len(data))
	}
	return &SerumMarket{
		VaultSignerNonce: binary.LittleEndian.Uint64(data[offSerumVaultSignerNonce:]),
		BaseVault:        pubkeyAt(data, offSerumBaseVault),
		QuoteVault:       pubkeyAt(data, offSerumQuoteVault),
		EventQueue:       pubkeyAt(data, offSerumEventQueue),
		Bids:             pubkeyAt(data, offSerumBids),
		Asks:             pubkeyAt(data, offSerumAsks),
	}, nil
}

func pubkeyAt(data []byte, offset int) string {
	return base58.Encode(data[offset : offset+32])
}
