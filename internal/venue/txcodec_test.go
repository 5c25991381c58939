package venue

import (
	"bytes"
	"encoding/base64"
	"testing"
)

func TestAppendCompactU16(t *testing.T) {
	cases := []struct {
		v    int
		want []byte
	}{
		{0, []byte{0x00}},
		{1, []byte{0x01}},
		{0x7f, []byte{0x7f}},
		{0x80, []byte{0x80, 0x01}},
		{0x3fff, []byte{0xff, 0x7f}},
		{0x4000, []byte{0x80, 0x80, 0x01}},
	}
	for _, tc := range cases {
		got := appendCompactU16(nil, tc.v)
		if !bytes.Equal(got, tc.want) {
			t.Errorf("compactU16(%d) = %x, want %x", tc.v, got, tc.want)
		}
	}
}

func TestCompileAccountKeysOrdering(t *testing.T) {
	feePayer := "5Q544fKrFoe6tsEbD7S8EmxGTJYAKtTVhAW5Q5pge4j1"
	program := "11111111111111111111111111111111"
	writable := "So11111111111111111111111111111111111111112"
	readonly := "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"

	keys, err := compileAccountKeys(feePayer, []instruction{{
		programID: program,
		accounts: []accountMeta{
			{pubkey: readonly},
			{pubkey: writable, isWritable: true},
			{pubkey: feePayer, isSigner: true, isWritable: true},
		},
	}})
	if err != nil {
		t.Fatalf("compile: %v", err)
	}

	if len(keys) != 4 {
		t.Fatalf("got %d keys, want 4", len(keys))
	}
	if keys[0].pubkey != feePayer {
		t.Errorf("keys[0] = %s, want fee payer first", keys[0].pubkey)
	}
	if keys[1].pubkey != writable {
		t.Errorf("keys[1] = %s, want writable non-signer before readonly", keys[1].pubkey)
	}
	for _, k := range keys[2:] {
		if k.isWritable || k.isSigner {
			t.Errorf("key %s should be readonly non-signer", k.pubkey)
		}
	}
}

func TestCompileAccountKeysMergesFlags(t *testing.T) {
	feePayer := "5Q544fKrFoe6tsEbD7S8EmxGTJYAKtTVhAW5Q5pge4j1"
	program := "11111111111111111111111111111111"
	acct := "So11111111111111111111111111111111111111112"

	keys, err := compileAccountKeys(feePayer, []instruction{{
		programID: program,
		accounts: []accountMeta{
			{pubkey: acct},
			{pubkey: acct, isWritable: true},
		},
	}})
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if len(keys) != 3 {
		t.Fatalf("got %d keys, want duplicate account merged into 3", len(keys))
	}
	for _, k := range keys {
		if k.pubkey == acct && !k.isWritable {
			t.Error("merged account lost its writable flag")
		}
	}
}

func TestBuildLegacyTxWireFormat(t *testing.T) {
	feePayer := "5Q544fKrFoe6tsEbD7S8EmxGTJYAKtTVhAW5Q5pge4j1"
	program := "11111111111111111111111111111111"
	blockhash := "So11111111111111111111111111111111111111112"

	encoded, err := buildLegacyTx(feePayer, blockhash, []instruction{{
		programID: program,
		accounts:  []accountMeta{{pubkey: feePayer, isSigner: true, isWritable: true}},
		data:      []byte{1, 2, 3},
	}})
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		t.Fatalf("decode base64: %v", err)
	}

	if raw[0] != 1 {
		t.Errorf("signature count = %d, want 1", raw[0])
	}
	if !bytes.Equal(raw[1:65], make([]byte, 64)) {
		t.Error("signature slot must be zeroed for an unsigned transaction")
	}

	msg := raw[65:]
	if msg[0] != 1 {
		t.Errorf("numRequiredSignatures = %d, want 1", msg[0])
	}
	if msg[1] != 0 {
		t.Errorf("numReadonlySigned = %d, want 0", msg[1])
	}
	if msg[2] != 1 {
		t.Errorf("numReadonlyUnsigned = %d, want 1 (the program id)", msg[2])
	}
	// compact key count, 2 keys of 32 bytes, 32-byte blockhash
	if msg[3] != 2 {
		t.Errorf("account count = %d, want 2", msg[3])
	}
	if len(msg) < 4+2*32+32 {
		t.Fatalf("message too short: %d bytes", len(msg))
	}
}
