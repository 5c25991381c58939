package venue

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"solana-sniper/internal/domain"
	"solana-sniper/internal/solana"
)

type confirmRPC struct {
	solana.RPCClient

	confirmed []string
}

func (c *confirmRPC) ConfirmTransaction(ctx context.Context, signature string) error {
	c.confirmed = append(c.confirmed, signature)
	return nil
}

func (c *confirmRPC) SendTransaction(ctx context.Context, signedTx string) (string, error) {
	return "ignored", nil
}

type passthroughWallet struct{}

func (passthroughWallet) Pubkey() string { return testWallet }

// SignTransaction marks the signature slot so the relay accepts it.
func (passthroughWallet) SignTransaction(ctx context.Context, tx string) (string, error) {
	signed, _ := signedTxFixture()
	return signed, nil
}

func newAggregatorFixture(t *testing.T, handler http.HandlerFunc) (*AggregatorVenue, *confirmRPC) {
	t.Helper()
	api := httptest.NewServer(handler)
	t.Cleanup(api.Close)

	relaySrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"jsonrpc":"2.0","result":"bundleid","id":1}`))
	}))
	t.Cleanup(relaySrv.Close)

	rpc := &confirmRPC{}
	v := NewAggregatorVenue(AggregatorOptions{
		BaseURL:      api.URL,
		TipLamports:  1000,
		RateLimitRPS: 1000,
		HTTPClient:   api.Client(),
		Wallet:       passthroughWallet{},
		Relay:        NewRelay(relaySrv.URL, rpc, relaySrv.Client()),
		RPC:          rpc,
	})
	return v, rpc
}

func TestAggregatorSwapHappyPath(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/quote":
			json.NewEncoder(w).Encode(map[string]any{
				"inputMint": testInputMint, "outAmount": "12345",
			})
		case r.URL.Path == "/swap":
			var req struct {
				UserPublicKey string `json:"userPublicKey"`
			}
			json.NewDecoder(r.Body).Decode(&req)
			if req.UserPublicKey != testWallet {
				t.Errorf("userPublicKey = %s", req.UserPublicKey)
			}
			json.NewEncoder(w).Encode(map[string]string{"swapTransaction": "dW5zaWduZWQ="})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}

	v, rpc := newAggregatorFixture(t, handler)
	outcome, err := v.Swap(context.Background(), newTestRequest())
	if err != nil {
		t.Fatalf("swap: %v", err)
	}
	if outcome.QuotedOut != 12345 {
		t.Errorf("QuotedOut = %d, want 12345", outcome.QuotedOut)
	}
	if len(rpc.confirmed) != 1 || rpc.confirmed[0] != outcome.TxSignature {
		t.Errorf("confirmed = %v, want the submitted signature", rpc.confirmed)
	}
}

func TestAggregatorNoRouteIsDefinitive(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"error": "Could not find any route"})
	}

	v, _ := newAggregatorFixture(t, handler)
	_, err := v.Swap(context.Background(), newTestRequest())
	if domain.KindOf(err) != domain.NoRoute {
		t.Errorf("kind = %s, want %s (err %v)", domain.KindOf(err), domain.NoRoute, err)
	}
}

func TestAggregatorRateLimitClassified(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}

	v, _ := newAggregatorFixture(t, handler)
	_, err := v.Swap(context.Background(), newTestRequest())
	if domain.KindOf(err) != domain.RateLimited {
		t.Errorf("kind = %s, want %s (err %v)", domain.KindOf(err), domain.RateLimited, err)
	}
}
