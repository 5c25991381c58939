package venue

import (
	"testing"

	"solana-sniper/internal/domain"
)

func TestClassifyHTTPStatus(t *testing.T) {
	cases := []struct {
		status int
		want   domain.FailureKind
	}{
		{429, domain.RateLimited},
		{401, domain.AuthRejected},
		{403, domain.AuthRejected},
		{500, domain.TransientNetwork},
		{502, domain.TransientNetwork},
		{400, domain.TransientNetwork},
	}
	for _, tc := range cases {
		if got := classifyHTTPStatus(tc.status); got != tc.want {
			t.Errorf("status %d: got %s, want %s", tc.status, got, tc.want)
		}
	}
}

func TestClassifyQuoteBody(t *testing.T) {
	cases := []struct {
		body       string
		wantKind   domain.FailureKind
		definitive bool
	}{
		{`{"error":"Could not find any route"}`, domain.NoRoute, true},
		{`{"errorCode":"ROUTE_NOT_FOUND"}`, domain.NoRoute, true},
		{`{"error":"insufficient liquidity for this trade"}`, domain.InsufficientLiquidity, true},
		{`{"error":"internal server error"}`, "", false},
	}
	for _, tc := range cases {
		kind, definitive := classifyQuoteBody(tc.body)
		if kind != tc.wantKind || definitive != tc.definitive {
			t.Errorf("body %q: got (%s, %v), want (%s, %v)",
				tc.body, kind, definitive, tc.wantKind, tc.definitive)
		}
	}
}
