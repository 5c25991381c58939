package venue

import (
	"encoding/base64"
	"fmt"
	"sort"

	"solana-sniper/internal/solana"
)

// Minimal legacy-transaction encoding, enough to compose a single swap
// instruction. The wallet fills in the signature over the message.

type accountMeta struct {
	pubkey     string
	isSigner   bool
	isWritable bool
}

type instruction struct {
	programID string
	accounts  []accountMeta
	data      []byte
}

// buildLegacyTx serializes an unsigned legacy transaction (one zeroed
// signature slot followed by the compiled message) as base64.
func buildLegacyTx(feePayer, blockhash string, instrs []instruction) (string, error) {
	keys, err := compileAccountKeys(feePayer, instrs)
	if err != nil {
		return "", err
	}

	index := make(map[string]int, len(keys))
	var numReadonlyUnsigned int
	for i, k := range keys {
		index[k.pubkey] = i
		if !k.isSigner && !k.isWritable {
			numReadonlyUnsigned++
		}
	}

	msg := make([]byte, 0, 512)
	// header: required signatures, readonly signed, readonly unsigned
	msg = append(msg, 1, 0, byte(numReadonlyUnsigned))

	msg = appendCompactU16(msg, len(keys))
	for _, k := range keys {
		raw, err := solana.DecodePubkey(k.pubkey)
		if err != nil {
			return "", err
		}
		msg = append(msg, raw...)
	}

	hashRaw, err := solana.DecodePubkey(blockhash)
	if err != nil {
		return "", fmt.Errorf("blockhash: %w", err)
	}
	msg = append(msg, hashRaw...)

	msg = appendCompactU16(msg, len(instrs))
	for _, ins := range instrs {
		msg = append(msg, byte(index[ins.programID]))
		msg = appendCompactU16(msg, len(ins.accounts))
		for _, a := range ins.accounts {
			msg = append(msg, byte(index[a.pubkey]))
		}
		msg = appendCompactU16(msg, len(ins.data))
		msg = append(msg, ins.data...)
	}

	// unsigned wire form: one zeroed signature slot + message
	tx := make([]byte, 0, 1+64+len(msg))
	tx = appendCompactU16(tx, 1)
	tx = append(tx, make([]byte, 64)...)
	tx = append(tx, msg...)

	return base64.StdEncoding.EncodeToString(tx), nil
}

// compileAccountKeys merges flags per pubkey and orders them as the
// runtime requires: fee payer, writable signers, readonly signers,
// writable non-signers, readonly non-signers.
func compileAccountKeys(feePayer string, instrs []instruction) ([]accountMeta, error) {
	merged := map[string]*accountMeta{
		feePayer: {pubkey: feePayer, isSigner: true, isWritable: true},
	}
	var order []string
	order = append(order, feePayer)

	add := func(m accountMeta) {
		existing, ok := merged[m.pubkey]
		if !ok {
			copy := m
			merged[m.pubkey] = &copy
			order = append(order, m.pubkey)
			return
		}
		existing.isSigner = existing.isSigner || m.isSigner
		existing.isWritable = existing.isWritable || m.isWritable
	}

	for _, ins := range instrs {
		for _, a := range ins.accounts {
			add(a)
		}
		add(accountMeta{pubkey: ins.programID})
	}

	keys := make([]accountMeta, 0, len(order))
	for _, pk := range order {
		keys = append(keys, *merged[pk])
	}

	rank := func(m accountMeta) int {
		switch {
		case m.pubkey == feePayer:
			return 0
		case m.isSigner && m.isWritable:
			return 1
		case m.isSigner:
			return 2
		case m.isWritable:
			return 3
		default:
			return 4
		}
	}
	sort.SliceStable(keys, func(i, j int) bool {
		return rank(keys[i]) < rank(keys[j])
	})

	if len(keys) > 256 {
		return nil, fmt.Errorf("too many accounts: %d", len(keys))
	}
	return keys, nil
}

func appendCompactU16(b []byte, v int) []byte {
	for {
		if v < 0x80 {
			return append(b, byte(v))
		}
		b = append(b, byte(v&0x7f)|0x80)
		v >>= 7
	}
}
