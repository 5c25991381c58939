package solana

import (
	"bytes"
	"crypto/sha256"
	"fmt"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
)

// Well-known program IDs.
const (
	TokenProgramID           = "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA"
	AssociatedTokenProgramID = "ATokenGPvbdGVxr1b2hvZbsiqW5xWH25efTNsLJA8knL"
	WrappedSOLMint           = "So11111111111111111111111111111111111111112"
)

// DecodePubkey decodes a base58 address and validates its length.
func DecodePubkey(address string) ([]byte, error) {
	raw, err := base58.Decode(address)
	if err != nil {
		return nil, fmt.Errorf("decode pubkey %q: %w", address, err)
	}
	if len(raw) != 32 {
		return nil, fmt.Errorf("pubkey %q: expected 32 bytes, got %d", address, len(raw))
	}
	return raw, nil
}

// ValidPubkey reports whether address is a well-formed base58 pubkey.
func ValidPubkey(address string) bool {
	_, err := DecodePubkey(address)
	return err == nil
}

// CanonicalOrder returns the two mints ordered by byte-wise comparison of
// their decoded addresses. The AMM requires this ordering; callers must
// use the same rule when interpreting pool sides.
func CanonicalOrder(mintA, mintB string) (first, second string, err error) {
	rawA, err := DecodePubkey(mintA)
	if err != nil {
		return "", "", err
	}
	rawB, err := DecodePubkey(mintB)
	if err != nil {
		return "", "", err
	}
	if bytes.Compare(rawA, rawB) <= 0 {
		return mintA, mintB, nil
	}
	return mintB, mintA, nil
}

// DeriveAssociatedTokenAccount derives the associated token account for
// (owner, mint) under the SPL associated token program.
func DeriveAssociatedTokenAccount(owner, mint string) (string, error) {
	ownerRaw, err := DecodePubkey(owner)
	if err != nil {
		return "", err
	}
	mintRaw, err := DecodePubkey(mint)
	if err != nil {
		return "", err
	}
	tokenProgRaw, err := DecodePubkey(TokenProgramID)
	if err != nil {
		return "", err
	}
	ataProgRaw, err := DecodePubkey(AssociatedTokenProgramID)
	if err != nil {
		return "", err
	}

	addr, err := findProgramAddress([][]byte{ownerRaw, tokenProgRaw, mintRaw}, ataProgRaw)
	if err != nil {
		return "", fmt.Errorf("derive ATA for %s/%s: %w", owner, mint, err)
	}
	return addr, nil
}

// CreateProgramAddress derives the PDA for the exact seed list without a
// bump search. Fails if the result lands on the curve.
func CreateProgramAddress(seeds [][]byte, programID string) (string, error) {
	programRaw, err := DecodePubkey(programID)
	if err != nil {
		return "", err
	}

	data := make([]byte, 0, 128)
	for _, seed := range seeds {
		data = append(data, seed...)
	}
	data = append(data, programRaw...)
	data = append(data, []byte("ProgramDerivedAddress")...)

	hash := sha256.Sum256(data)
	if isOnCurve(hash[:]) {
		return "", fmt.Errorf("derived address is on curve")
	}
	return base58.Encode(hash[:]), nil
}

// FindProgramAddress derives the PDA for the seed list, searching bump
// seeds from 255 downward.
func FindProgramAddress(seeds [][]byte, programID string) (string, error) {
	programRaw, err := DecodePubkey(programID)
	if err != nil {
		return "", err
	}
	return findProgramAddress(seeds, programRaw)
}

// findProgramAddress searches bump seeds from 255 downward for the first
// off-curve hash, per the Solana PDA algorithm.
func findProgramAddress(seeds [][]byte, programID []byte) (string, error) {
	for bump := 255; bump >= 0; bump-- {
		data := make([]byte, 0, 128)
		for _, seed := range seeds {
			data = append(data, seed...)
		}
		data = append(data, byte(bump))
		data = append(data, programID...)
		data = append(data, []byte("ProgramDerivedAddress")...)

		hash := sha256.Sum256(data)
		if !isOnCurve(hash[:]) {
			return base58.Encode(hash[:]), nil
		}
	}
	return "", fmt.Errorf("no off-curve address found")
}

// isOnCurve reports whether the 32-byte point lies on the ed25519 curve.
func isOnCurve(point []byte) bool {
	if len(point) != 32 {
		return false
	}
	_, err := new(edwards25519.Point).SetBytes(point)
	return err == nil
}
