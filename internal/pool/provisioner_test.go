package pool

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mr-tron/base58"

	"solana-sniper/internal/domain"
	"solana-sniper/internal/solana"
)

type captureCreator struct {
	req    *CreateRequest
	result *CreateResult
	err    error
}

func (c *captureCreator) CreatePool(ctx context.Context, req CreateRequest) (*CreateResult, error) {
	c.req = &req
	if c.err != nil {
		return nil, c.err
	}
	return c.result, nil
}

type fakeMintRPC struct {
	solana.RPCClient

	decimals map[string]uint8
}

func (f *fakeMintRPC) GetAccountInfo(ctx context.Context, pubkey string) (*solana.AccountInfo, error) {
	dec, ok := f.decimals[pubkey]
	if !ok {
		return nil, nil
	}
	data := make([]byte, mintAccountSize)
	data[mintDecimalsOffset] = dec
	return &solana.AccountInfo{Data: data}, nil
}

func testMint(seed byte) string {
	raw := make([]byte, 32)
	for i := range raw {
		raw[i] = seed
	}
	return base58.Encode(raw)
}

func newTestProvisioner(creator Creator, rpc solana.RPCClient) *Provisioner {
	return NewProvisioner(ProvisionerOptions{
		Creator: creator,
		RPC:     rpc,
		Now:     func() time.Time { return time.UnixMilli(1_700_000_000_000) },
	})
}

func TestProvisionCanonicalOrdering(t *testing.T) {
	// target's address bytes are greater than the base's, so the base
	// must come first no matter the argument order.
	target := testMint(9)
	base := testMint(1)
	rpc := &fakeMintRPC{decimals: map[string]uint8{target: 6, base: 9}}

	creator := &captureCreator{result: &CreateResult{PoolID: "pool1", TxSignature: "sig"}}
	p := newTestProvisioner(creator, rpc)

	pos, err := p.Provision(context.Background(), ProvisionRequest{
		TargetMint:   target,
		TargetAmount: 4_000_000,
		BaseMint:     base,
		BaseAmount:   2_000_000_000,
	})
	if err != nil {
		t.Fatalf("provision: %v", err)
	}

	if creator.req.Mint0 != base || creator.req.Mint1 != target {
		t.Errorf("order = (%s, %s), want base first", creator.req.Mint0, creator.req.Mint1)
	}
	if creator.req.Amount0 != 2_000_000_000 || creator.req.Amount1 != 4_000_000 {
		t.Errorf("amounts = (%d, %d), want amounts to follow their mints",
			creator.req.Amount0, creator.req.Amount1)
	}

	rawBase, _ := base58.Decode(creator.req.Mint0)
	rawTarget, _ := base58.Decode(creator.req.Mint1)
	if bytes.Compare(rawBase, rawTarget) > 0 {
		t.Error("mint0 must compare byte-wise less than or equal to mint1")
	}

	if pos.PoolID != "pool1" || pos.Mint != target || pos.BaseMint != base {
		t.Errorf("position fields wrong: %+v", pos)
	}
	if pos.ID == "" {
		t.Error("position ID not assigned")
	}
	if pos.CreatedAt != 1_700_000_000_000 {
		t.Errorf("CreatedAt = %d", pos.CreatedAt)
	}
}

func TestProvisionPriceFromAmounts(t *testing.T) {
	// 2.0 base (9 decimals) against 4.0 target (6 decimals) = 0.5
	got := PriceFromAmounts(2_000_000_000, 9, 4_000_000, 6)
	if got != 0.5 {
		t.Errorf("price = %v, want 0.5", got)
	}

	if got := PriceFromAmounts(1, 9, 0, 6); got != 0 {
		t.Errorf("price with zero target = %v, want 0", got)
	}
}

func TestProvisionCreationFailureNotRolledBack(t *testing.T) {
	target := testMint(9)
	base := testMint(1)
	rpc := &fakeMintRPC{decimals: map[string]uint8{target: 6, base: 9}}

	creator := &captureCreator{err: domain.Failf(domain.ChainSubmissionFailed, "blockhash expired")}
	p := newTestProvisioner(creator, rpc)

	pos, err := p.Provision(context.Background(), ProvisionRequest{
		TargetMint:   target,
		TargetAmount: 100,
		BaseMint:     base,
		BaseAmount:   100,
	})
	if pos != nil {
		t.Error("no position may exist when pool creation failed")
	}
	var f *domain.Failure
	if !errors.As(err, &f) || f.Kind != domain.ChainSubmissionFailed {
		t.Errorf("err = %v, want classified ChainSubmissionFailed", err)
	}
}

func TestProvisionRejectsZeroAmounts(t *testing.T) {
	p := newTestProvisioner(&captureCreator{}, &fakeMintRPC{})
	_, err := p.Provision(context.Background(), ProvisionRequest{
		TargetMint: testMint(9), BaseMint: testMint(1),
		TargetAmount: 0, BaseAmount: 100,
	})
	if domain.KindOf(err) != domain.InsufficientLiquidity {
		t.Errorf("err = %v, want InsufficientLiquidity", err)
	}
}
