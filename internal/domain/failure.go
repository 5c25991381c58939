package domain

import (
	"errors"
	"fmt"
)

// FailureKind classifies external failures into the engine taxonomy.
// Every component maps raw errors into one of these at its boundary.
type FailureKind string

const (
	// TransientNetwork covers timeouts, resets and 5xx responses.
	// Retried locally, then escalated to the next fallback.
	TransientNetwork FailureKind = "TRANSIENT_NETWORK"

	// RateLimited covers 429 responses. Retried with exponential backoff
	// local to the call.
	RateLimited FailureKind = "RATE_LIMITED"

	// AuthRejected covers 401/403. The venue is disabled for a cooldown.
	AuthRejected FailureKind = "AUTH_REJECTED"

	// NoRoute means the venue definitively has no path to fill the order.
	// Never retried on the same venue.
	NoRoute FailureKind = "NO_ROUTE"

	// InsufficientLiquidity means the pool cannot absorb the order at the
	// requested slippage. Never retried on the same venue.
	InsufficientLiquidity FailureKind = "INSUFFICIENT_LIQUIDITY"

	// SafetyRejected is the expected filtering outcome, not an error.
	SafetyRejected FailureKind = "SAFETY_REJECTED"

	// ChainSubmissionFailed means a signed transaction could not land.
	// The budget spend is abandoned; no automatic re-spend.
	ChainSubmissionFailed FailureKind = "CHAIN_SUBMISSION_FAILED"

	// PersistenceFailure covers store errors. Logged, never fatal to the
	// monitor loop.
	PersistenceFailure FailureKind = "PERSISTENCE_FAILURE"
)

// Failure is a classified error crossing a component boundary.
type Failure struct {
	Kind FailureKind
	Err  error
}

func (f *Failure) Error() string {
	if f.Err == nil {
		return string(f.Kind)
	}
	return fmt.Sprintf("%s: %v", f.Kind, f.Err)
}

func (f *Failure) Unwrap() error { return f.Err }

// NewFailure wraps err with a taxonomy kind.
func NewFailure(kind FailureKind, err error) *Failure {
	return &Failure{Kind: kind, Err: err}
}

// Failf builds a classified failure from a format string.
func Failf(kind FailureKind, format string, args ...interface{}) *Failure {
	return &Failure{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// KindOf extracts the failure kind from an error chain. Unclassified
// errors are treated as transient so callers err on the side of retrying
// locally rather than burning a fallback venue.
func KindOf(err error) FailureKind {
	var f *Failure
	if errors.As(err, &f) {
		return f.Kind
	}
	return TransientNetwork
}

// Transient reports whether the failure justifies escalating to a
// fallback venue. Definitive "no fill" answers do not.
func Transient(kind FailureKind) bool {
	switch kind {
	case TransientNetwork, RateLimited, AuthRejected:
		return true
	default:
		return false
	}
}
