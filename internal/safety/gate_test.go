package safety

import (
	"context"
	"errors"
	"testing"
	"time"

	"solana-sniper/internal/config"
	"solana-sniper/internal/domain"
)

type stubTier struct {
	name    string
	verdict *domain.SafetyVerdict
	err     error
	calls   int
}

func (s *stubTier) Name() string { return s.name }

func (s *stubTier) Check(_ context.Context, _ string, _ *string) (*domain.SafetyVerdict, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.verdict, nil
}

func newTestGate(tiers ...Tier) *Gate {
	g := NewGate(GateOptions{Tiers: tiers, Retries: 1, Backoff: time.Millisecond})
	g.sleep = func(context.Context, time.Duration) error { return nil }
	return g
}

func TestGate_FirstDefinitiveVerdictWins(t *testing.T) {
	safe := domain.Accept("tier1")
	tier1 := &stubTier{name: "tier1", verdict: &safe}
	tier2 := &stubTier{name: "tier2", err: errors.New("should not be called")}

	verdict := newTestGate(tier1, tier2).Evaluate(context.Background(), "Mint1", nil)

	if !verdict.Safe {
		t.Error("Expected safe verdict from tier1")
	}
	if tier2.calls != 0 {
		t.Errorf("tier2 invoked %d times after tier1 answered", tier2.calls)
	}
}

func TestGate_EscalatesOnTierFailure(t *testing.T) {
	reject := domain.Reject("tier2", "LP not locked")
	tier1 := &stubTier{name: "tier1", err: errors.New("timeout")}
	tier2 := &stubTier{name: "tier2", verdict: &reject}
	tier3 := &stubTier{name: "tier3", err: errors.New("should not be called")}

	verdict := newTestGate(tier1, tier2, tier3).Evaluate(context.Background(), "Mint1", nil)

	if verdict.Safe {
		t.Error("Expected unsafe verdict")
	}
	if verdict.TierSource != "tier2" {
		t.Errorf("Expected tier2 as source, got %s", verdict.TierSource)
	}
	if tier3.calls != 0 {
		t.Error("tier3 must not be invoked after tier2 answered definitively")
	}
	// Retries = 1 means two attempts on the failing tier
	if tier1.calls != 2 {
		t.Errorf("Expected 2 attempts on tier1, got %d", tier1.calls)
	}
}

func TestGate_FailsClosedWhenNoTierAnswers(t *testing.T) {
	tier1 := &stubTier{name: "tier1", err: errors.New("down")}
	tier2 := &stubTier{name: "tier2", err: errors.New("down")}

	verdict := newTestGate(tier1, tier2).Evaluate(context.Background(), "Mint1", nil)

	if verdict.Safe {
		t.Error("Gate must fail closed when no tier can answer")
	}
	if verdict.TierSource != domain.TierNone {
		t.Errorf("Expected TierNone, got %s", verdict.TierSource)
	}
}

func TestNewGateFromConfigBuildsEnabledTiers(t *testing.T) {
	cfg := config.Default() // enables all three tiers
	g := NewGateFromConfig(cfg, nil)

	if len(g.tiers) != 3 {
		t.Fatalf("tiers = %d, want 3", len(g.tiers))
	}
	wantOrder := []string{domain.TierReputation, domain.TierPairMeta, domain.TierOnChain}
	for i, tier := range g.tiers {
		if tier.Name() != wantOrder[i] {
			t.Errorf("tier %d = %s, want %s", i, tier.Name(), wantOrder[i])
		}
	}

	cfg.Safety.EnablePairMeta = false
	if g := NewGateFromConfig(cfg, nil); len(g.tiers) != 2 {
		t.Errorf("tiers = %d after disabling one, want 2", len(g.tiers))
	}
}

func TestGate_UnsafeVerdictIsDefinitive(t *testing.T) {
	reject := domain.Reject("tier1", "freeze authority enabled")
	tier1 := &stubTier{name: "tier1", verdict: &reject}
	tier2 := &stubTier{name: "tier2"}

	verdict := newTestGate(tier1, tier2).Evaluate(context.Background(), "Mint1", nil)

	if verdict.Safe {
		t.Error("Expected reject")
	}
	if tier2.calls != 0 {
		t.Error("Unsafe verdict is definitive; tier2 must not run")
	}
}
