package domain

// Tier sources for SafetyVerdict.TierSource.
const (
	TierReputation = "REPUTATION_API"
	TierPairMeta   = "PAIR_METADATA_API"
	TierOnChain    = "ONCHAIN_HEURISTIC"
	TierNone       = "NONE" // no tier could answer; gate failed closed
)

// SafetyVerdict is the outcome of a gate evaluation.
// Produced fresh per evaluation and never persisted.
type SafetyVerdict struct {
	Safe        bool
	Reason      string
	TierSource  string   // which tier produced the definitive answer
	Score       *float64 // tier-specific risk score (nullable)
	LPLockedPct *float64 // percent of LP locked or burned (nullable)
	Risks       []string // human-readable risk descriptions
	Warnings    []string // non-fatal findings (e.g. mint authority enabled)
}

// Reject builds an unsafe verdict.
func Reject(tier, reason string, risks ...string) SafetyVerdict {
	return SafetyVerdict{Safe: false, Reason: reason, TierSource: tier, Risks: risks}
}

// Accept builds a safe verdict.
func Accept(tier string) SafetyVerdict {
	return SafetyVerdict{Safe: true, Reason: "passed", TierSource: tier}
}
