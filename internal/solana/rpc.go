// Package solana provides the chain client: a JSON-RPC 2.0 HTTP client,
// a WebSocket log subscription client and pubkey utilities.
package solana

import "context"

// RPCClient defines the chain operations the engine depends on.
type RPCClient interface {
	// GetBalance returns the lamport balance of an account.
	GetBalance(ctx context.Context, pubkey string) (uint64, error)

	// GetTokenAccountBalance returns the raw token balance of a token account.
	// Returns 0 with no error if the account does not exist yet.
	GetTokenAccountBalance(ctx context.Context, account string) (uint64, error)

	// GetAccountInfo retrieves account info. Returns nil if not found.
	GetAccountInfo(ctx context.Context, pubkey string) (*AccountInfo, error)

	// GetTokenLargestAccounts returns the largest token accounts for a mint.
	GetTokenLargestAccounts(ctx context.Context, mint string) ([]TokenAccountBalance, error)

	// GetProgramAccounts returns accounts owned by a program matching filters.
	GetProgramAccounts(ctx context.Context, programID string, filters []AccountFilter) ([]ProgramAccount, error)

	// GetLatestBlockhash returns a recent blockhash for transaction building.
	GetLatestBlockhash(ctx context.Context) (string, error)

	// GetTransactionAccounts returns the account keys of a confirmed
	// transaction. Returns nil if the transaction is unknown.
	GetTransactionAccounts(ctx context.Context, signature string) ([]string, error)

	// SendTransaction broadcasts a signed, base64-encoded transaction and
	// returns its signature.
	SendTransaction(ctx context.Context, signedTx string) (string, error)

	// ConfirmTransaction blocks until the signature reaches confirmed
	// commitment or the context expires.
	ConfirmTransaction(ctx context.Context, signature string) error
}

// Wallet signs transactions. The key handling lives outside the engine.
type Wallet interface {
	// Pubkey returns the wallet's base58 public key.
	Pubkey() string

	// SignTransaction signs a base64-encoded unsigned transaction and
	// returns the signed base64 payload.
	SignTransaction(ctx context.Context, unsignedTx string) (string, error)
}

// AccountInfo represents Solana account information.
type AccountInfo struct {
	Lamports   uint64
	Owner      string
	Data       []byte // decoded account bytes
	Executable bool
}

// TokenAccountBalance is one entry from getTokenLargestAccounts.
type TokenAccountBalance struct {
	Address string
	Amount  uint64 // raw units
}

// AccountFilter narrows a getProgramAccounts scan.
type AccountFilter struct {
	DataSize     int    // 0 = no dataSize filter
	MemcmpOffset int    // used when MemcmpBytes is set
	MemcmpBytes  string // base58-encoded bytes to match
}

// ProgramAccount is one result from getProgramAccounts.
type ProgramAccount struct {
	Pubkey string
	Data   []byte
}
