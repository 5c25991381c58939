package solana

import "testing"

const (
	testMintA = "So11111111111111111111111111111111111111112" // wrapped SOL
	testMintB = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v" // USDC
	testOwner = "4Nd1mBQtrMJVYVfKf2PJy9NZUZdTAsp7D4xWLs4gDB4T"
)

func TestDecodePubkey(t *testing.T) {
	raw, err := DecodePubkey(testMintA)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if len(raw) != 32 {
		t.Fatalf("expected 32 bytes, got %d", len(raw))
	}

	if _, err := DecodePubkey("not-base58-0OIl"); err == nil {
		t.Fatal("expected error for invalid base58")
	}
	if _, err := DecodePubkey("abc"); err == nil {
		t.Fatal("expected error for short pubkey")
	}
}

func TestCanonicalOrder_Deterministic(t *testing.T) {
	first1, second1, err := CanonicalOrder(testMintA, testMintB)
	if err != nil {
		t.Fatal(err)
	}
	first2, second2, err := CanonicalOrder(testMintB, testMintA)
	if err != nil {
		t.Fatal(err)
	}

	// Argument order must not matter.
	if first1 != first2 || second1 != second2 {
		t.Fatalf("ordering depends on argument order: (%s,%s) vs (%s,%s)",
			first1, second1, first2, second2)
	}

	rawFirst, _ := DecodePubkey(first1)
	rawSecond, _ := DecodePubkey(second1)
	for i := range rawFirst {
		if rawFirst[i] < rawSecond[i] {
			break
		}
		if rawFirst[i] > rawSecond[i] {
			t.Fatal("first mint is byte-wise greater than second")
		}
	}
}

func TestDeriveAssociatedTokenAccount_Deterministic(t *testing.T) {
	ata1, err := DeriveAssociatedTokenAccount(testOwner, testMintB)
	if err != nil {
		t.Fatalf("derive failed: %v", err)
	}
	ata2, err := DeriveAssociatedTokenAccount(testOwner, testMintB)
	if err != nil {
		t.Fatalf("derive failed: %v", err)
	}
	if ata1 != ata2 {
		t.Fatalf("derivation not deterministic: %s vs %s", ata1, ata2)
	}
	if !ValidPubkey(ata1) {
		t.Fatalf("derived ATA %q is not a valid pubkey", ata1)
	}
	if ata1 == testOwner || ata1 == testMintB {
		t.Fatal("derived ATA collides with an input")
	}
}
