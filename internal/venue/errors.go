package venue

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"

	"solana-sniper/internal/domain"
)

// classifyHTTPStatus maps a venue HTTP status into the failure taxonomy.
func classifyHTTPStatus(status int) domain.FailureKind {
	switch {
	case status == http.StatusTooManyRequests:
		return domain.RateLimited
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return domain.AuthRejected
	case status >= 500:
		return domain.TransientNetwork
	default:
		return domain.TransientNetwork
	}
}

// classifyTransportErr maps a transport-level error (timeout, reset,
// cancellation) into the taxonomy.
func classifyTransportErr(err error) domain.FailureKind {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return domain.TransientNetwork
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return domain.TransientNetwork
	}
	return domain.TransientNetwork
}

// classifyQuoteBody inspects an aggregator error payload for definitive
// "no fill" answers that must never be retried on the same venue.
func classifyQuoteBody(body string) (domain.FailureKind, bool) {
	lower := strings.ToLower(body)
	switch {
	case strings.Contains(lower, "no route"),
		strings.Contains(lower, "could not find any route"),
		strings.Contains(lower, "route_not_found"):
		return domain.NoRoute, true
	case strings.Contains(lower, "insufficient liquidity"),
		strings.Contains(lower, "not enough liquidity"):
		return domain.InsufficientLiquidity, true
	}
	return "", false
}
