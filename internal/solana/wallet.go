package solana

import (
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"fmt"

	"github.com/mr-tron/base58"
)

// KeypairWallet signs transactions with an in-process ed25519 keypair.
type KeypairWallet struct {
	priv   ed25519.PrivateKey
	pubkey string
}

// NewKeypairWallet parses a base58-encoded 64-byte secret key.
func NewKeypairWallet(secretKey string) (*KeypairWallet, error) {
	raw, err := base58.Decode(secretKey)
	if err != nil {
		return nil, fmt.Errorf("decode secret key: %w", err)
	}
	if len(raw) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("secret key: expected %d bytes, got %d", ed25519.PrivateKeySize, len(raw))
	}
	priv := ed25519.PrivateKey(raw)
	pub := priv.Public().(ed25519.PublicKey)
	return &KeypairWallet{priv: priv, pubkey: base58.Encode(pub)}, nil
}

// Compile-time interface check.
var _ Wallet = (*KeypairWallet)(nil)

// Pubkey returns the wallet's base58 public key.
func (w *KeypairWallet) Pubkey() string { return w.pubkey }

// SignTransaction fills the first signature slot of a base64-encoded
// legacy transaction. The wire form is a compact-u16 signature count,
// the signature slots, then the message the signature covers.
func (w *KeypairWallet) SignTransaction(ctx context.Context, unsignedTx string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(unsignedTx)
	if err != nil {
		return "", fmt.Errorf("decode transaction: %w", err)
	}
	if len(raw) < 1+ed25519.SignatureSize+1 {
		return "", fmt.Errorf("transaction too short: %d bytes", len(raw))
	}
	if raw[0] != 1 {
		return "", fmt.Errorf("expected a single-signer transaction, got %d slots", raw[0])
	}

	message := raw[1+ed25519.SignatureSize:]
	sig := ed25519.Sign(w.priv, message)
	copy(raw[1:1+ed25519.SignatureSize], sig)

	return base64.StdEncoding.EncodeToString(raw), nil
}
