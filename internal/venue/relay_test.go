package venue

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mr-tron/base58"

	"solana-sniper/internal/solana"
)

// signedTxFixture builds a base64 transaction with one non-zero
// signature slot.
func signedTxFixture() (encoded, signature string) {
	raw := make([]byte, 1+64+10)
	raw[0] = 1
	for i := 1; i <= 64; i++ {
		raw[i] = byte(i)
	}
	return base64.StdEncoding.EncodeToString(raw), base58.Encode(raw[1:65])
}

type fakeSendRPC struct {
	solana.RPCClient

	sends int
	err   error
}

func (f *fakeSendRPC) SendTransaction(ctx context.Context, signedTx string) (string, error) {
	f.sends++
	if f.err != nil {
		return "", f.err
	}
	return "ignored", nil
}

func TestRelaySubmitViaBundle(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/bundles" {
			t.Errorf("path = %s, want /bundles", r.URL.Path)
		}
		w.Write([]byte(`{"jsonrpc":"2.0","result":"bundleid","id":1}`))
	}))
	defer srv.Close()

	rpc := &fakeSendRPC{}
	tx, wantSig := signedTxFixture()

	sig, err := NewRelay(srv.URL, rpc, srv.Client()).Submit(context.Background(), tx)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if sig != wantSig {
		t.Errorf("signature = %s, want %s", sig, wantSig)
	}
	if rpc.sends != 0 {
		t.Errorf("direct broadcasts = %d, want 0 when the bundle lands", rpc.sends)
	}
}

func TestRelayFallsBackToDirectBroadcast(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	rpc := &fakeSendRPC{}
	tx, wantSig := signedTxFixture()

	sig, err := NewRelay(srv.URL, rpc, srv.Client()).Submit(context.Background(), tx)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if sig != wantSig {
		t.Errorf("signature = %s, want the payload's own %s", sig, wantSig)
	}
	if rpc.sends != 1 {
		t.Errorf("direct broadcasts = %d, want 1", rpc.sends)
	}
}

func TestRelayFailsWhenBothPathsFail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	rpc := &fakeSendRPC{err: errors.New("node rejected")}
	tx, _ := signedTxFixture()

	if _, err := NewRelay(srv.URL, rpc, srv.Client()).Submit(context.Background(), tx); err == nil {
		t.Error("expected error when relay and broadcast both fail")
	}
}

func TestRelayRejectsUnsignedTransaction(t *testing.T) {
	raw := make([]byte, 1+64+10)
	raw[0] = 1 // slot present but zeroed

	rpc := &fakeSendRPC{}
	_, err := NewRelay("http://unused", rpc, nil).Submit(context.Background(),
		base64.StdEncoding.EncodeToString(raw))
	if err == nil {
		t.Error("expected error for a transaction with a zeroed signature")
	}
}
