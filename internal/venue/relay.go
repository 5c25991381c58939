package venue

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/mr-tron/base58"

	"solana-sniper/internal/domain"
	"solana-sniper/internal/solana"
)

const relayRequestTimeout = 10 * time.Second

// Relay submits signed transactions through a priority block-engine
// channel (single-transaction bundle carrying the tip), with direct RPC
// broadcast as fallback. A broadcast transaction cannot be recalled, so
// the fallback reuses the exact same signed payload.
type Relay struct {
	url    string
	client *http.Client
	rpc    solana.RPCClient
}

// NewRelay creates a relay submitter.
func NewRelay(url string, rpc solana.RPCClient, client *http.Client) *Relay {
	if client == nil {
		client = &http.Client{Timeout: relayRequestTimeout}
	}
	return &Relay{url: url, client: client, rpc: rpc}
}

// Submit sends the signed transaction via the relay; on relay failure
// it falls back to direct broadcast. Returns the transaction signature.
func (r *Relay) Submit(ctx context.Context, signedTx string) (string, error) {
	sig, err := signatureFromSignedTx(signedTx)
	if err != nil {
		return "", domain.NewFailure(domain.ChainSubmissionFailed, err)
	}

	if err := r.sendBundle(ctx, signedTx); err == nil {
		return sig, nil
	} else {
		log.Printf("relay submission failed, broadcasting directly: %v", err)
	}

	if _, err := r.rpc.SendTransaction(ctx, signedTx); err != nil {
		return "", domain.NewFailure(domain.ChainSubmissionFailed,
			fmt.Errorf("relay and direct broadcast both failed: %w", err))
	}
	return sig, nil
}

// sendBundle posts a single-transaction bundle to the block engine.
func (r *Relay) sendBundle(ctx context.Context, signedTx string) error {
	payload, err := json.Marshal(map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  "sendBundle",
		"params":  []interface{}{[]string{signedTx}, map[string]string{"encoding": "base64"}},
	})
	if err != nil {
		return fmt.Errorf("marshal bundle: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url+"/bundles", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build bundle request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("bundle request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("bundle request: unexpected status %d", resp.StatusCode)
	}

	var parsed struct {
		Result string `json:"result"`
		Error  *struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return fmt.Errorf("decode bundle response: %w", err)
	}
	if parsed.Error != nil {
		return fmt.Errorf("bundle rejected: %s", parsed.Error.Message)
	}
	return nil
}

// signatureFromSignedTx extracts the fee payer's signature from a
// base64-encoded signed transaction.
func signatureFromSignedTx(signedTx string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(signedTx)
	if err != nil {
		return "", fmt.Errorf("decode signed tx: %w", err)
	}
	// compact-u16 signature count, then 64-byte signatures
	if len(raw) < 1+64 || raw[0] == 0 {
		return "", fmt.Errorf("signed tx carries no signature")
	}
	sig := raw[1 : 1+64]
	if bytes.Equal(sig, make([]byte, 64)) {
		return "", fmt.Errorf("signed tx signature slot is zeroed")
	}
	return base58.Encode(sig), nil
}
