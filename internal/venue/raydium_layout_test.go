package venue

import (
	"encoding/binary"
	"testing"

	"github.com/mr-tron/base58"
)

func fillKey(data []byte, offset int, seed byte) string {
	key := make([]byte, 32)
	for i := range key {
		key[i] = seed
	}
	copy(data[offset:], key)
	return base58.Encode(key)
}

func TestDecodeRaydiumPool(t *testing.T) {
	data := make([]byte, raydiumAMMAccountSize)
	wantBaseVault := fillKey(data, offBaseVault, 1)
	wantQuoteVault := fillKey(data, offQuoteVault, 2)
	wantBaseMint := fillKey(data, offBaseMint, 3)
	wantQuoteMint := fillKey(data, offQuoteMint, 4)
	wantLPMint := fillKey(data, offLPMint, 5)
	wantOpenOrders := fillKey(data, offOpenOrders, 6)
	wantMarket := fillKey(data, offMarketID, 7)
	wantMarketProgram := fillKey(data, offMarketProgramID, 8)
	wantTargetOrders := fillKey(data, offTargetOrders, 9)

	pool, err := decodeRaydiumPool("poolID", data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	if pool.ID != "poolID" {
		t.Errorf("ID = %s", pool.ID)
	}
	checks := []struct {
		name, got, want string
	}{
		{"BaseVault", pool.BaseVault, wantBaseVault},
		{"QuoteVault", pool.QuoteVault, wantQuoteVault},
		{"BaseMint", pool.BaseMint, wantBaseMint},
		{"QuoteMint", pool.QuoteMint, wantQuoteMint},
		{"LPMint", pool.LPMint, wantLPMint},
		{"OpenOrders", pool.OpenOrders, wantOpenOrders},
		{"MarketID", pool.MarketID, wantMarket},
		{"MarketProgramID", pool.MarketProgramID, wantMarketProgram},
		{"TargetOrders", pool.TargetOrders, wantTargetOrders},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %s, want %s", c.name, c.got, c.want)
		}
	}
}

func TestDecodeRaydiumPoolWrongSize(t *testing.T) {
	if _, err := decodeRaydiumPool("poolID", make([]byte, 100)); err == nil {
		t.Error("expected error for truncated account data")
	}
	if _, err := decodeRaydiumPool("poolID", make([]byte, raydiumAMMAccountSize+1)); err == nil {
		t.Error("expected error for oversized account data")
	}
}

func TestDecodeSerumMarket(t *testing.T) {
	data := make([]byte, 400)
	binary.LittleEndian.PutUint64(data[offSerumVaultSignerNonce:], 7)
	wantBase := fillKey(data, offSerumBaseVault, 10)
	wantQuote := fillKey(data, offSerumQuoteVault, 11)
	wantQueue := fillKey(data, offSerumEventQueue, 12)
	wantBids := fillKey(data, offSerumBids, 13)
	wantAsks := fillKey(data, offSerumAsks, 14)

	m, err := decodeSerumMarket("marketID", data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if m.VaultSignerNonce != 7 {
		t.Errorf("nonce = %d, want 7", m.VaultSignerNonce)
	}
	if m.BaseVault != wantBase || m.QuoteVault != wantQuote {
		t.Error("vault keys decoded at wrong offsets")
	}
	if m.EventQueue != wantQueue || m.Bids != wantBids || m.Asks != wantAsks {
		t.Error("order book keys decoded at wrong offsets")
	}
}

func TestDecodeSerumMarketTooShort(t *testing.T) {
	if _, err := decodeSerumMarket("marketID", make([]byte, serumMarketMinSize-1)); err == nil {
		t.Error("expected error for truncated market data")
	}
}
