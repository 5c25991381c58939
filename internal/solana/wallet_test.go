package solana

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"testing"

	"github.com/mr-tron/base58"
)

func TestKeypairWalletSignTransaction(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	w, err := NewKeypairWallet(base58.Encode(priv))
	if err != nil {
		t.Fatal(err)
	}
	if w.Pubkey() != base58.Encode(pub) {
		t.Errorf("pubkey = %s, want %s", w.Pubkey(), base58.Encode(pub))
	}

	message := []byte("message bytes under signature")
	unsigned := make([]byte, 0, 1+64+len(message))
	unsigned = append(unsigned, 1)
	unsigned = append(unsigned, make([]byte, 64)...)
	unsigned = append(unsigned, message...)

	signed, err := w.SignTransaction(context.Background(), base64.StdEncoding.EncodeToString(unsigned))
	if err != nil {
		t.Fatal(err)
	}

	raw, err := base64.StdEncoding.DecodeString(signed)
	if err != nil {
		t.Fatal(err)
	}
	if !ed25519.Verify(pub, raw[65:], raw[1:65]) {
		t.Error("signature does not verify over the message")
	}
}

func TestKeypairWalletRejectsBadKeys(t *testing.T) {
	if _, err := NewKeypairWallet("not-base58-!!"); err == nil {
		t.Error("expected error for malformed base58")
	}
	if _, err := NewKeypairWallet(base58.Encode(make([]byte, 32))); err == nil {
		t.Error("expected error for a 32-byte key")
	}
}
