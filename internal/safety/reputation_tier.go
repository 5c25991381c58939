package safety

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"solana-sniper/internal/domain"
)

const reputationRequestTimeout = 10 * time.Second

// ReputationTier queries a token reputation report API (RugCheck-style
// report: risk score, named risks, LP lock percentage, authorities).
type ReputationTier struct {
	baseURL    string
	thresholds Thresholds
	client     *http.Client
}

// NewReputationTier creates the reputation tier.
func NewReputationTier(baseURL string, thresholds Thresholds, client *http.Client) *ReputationTier {
	if client == nil {
		client = &http.Client{Timeout: reputationRequestTimeout}
	}
	return &ReputationTier{baseURL: baseURL, thresholds: thresholds, client: client}
}

// Compile-time interface check.
var _ Tier = (*ReputationTier)(nil)

func (t *ReputationTier) Name() string { return domain.TierReputation }

// reputationReport mirrors the report payload fields the gate needs.
type reputationReport struct {
	Score float64 `json:"score"`
	Token struct {
		MintAuthority   *string `json:"mintAuthority"`
		FreezeAuthority *string `json:"freezeAuthority"`
	} `json:"token"`
	Markets []struct {
		LP struct {
			LPLockedPct float64 `json:"lpLockedPct"`
		} `json:"lp"`
	} `json:"markets"`
	Risks []struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		Level       string `json:"level"`
	} `json:"risks"`
}

// Check fetches the report and applies the decision rules.
func (t *ReputationTier) Check(ctx context.Context, mint string, _ *string) (*domain.SafetyVerdict, error) {
	report, err := t.fetchReport(ctx, mint)
	if err != nil {
		return nil, err
	}
	verdict := t.judge(report)
	return &verdict, nil
}

func (t *ReputationTier) fetchReport(ctx context.Context, mint string) (*reputationReport, error) {
	endpoint := fmt.Sprintf("%s/tokens/%s/report", t.baseURL, mint)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build report request: %w", err)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("report request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("report request: unexpected status %d", resp.StatusCode)
	}

	var report reputationReport
	if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
		return nil, fmt.Errorf("decode report: %w", err)
	}
	return &report, nil
}

// judge applies the hard-reject rules to a fetched report.
func (t *ReputationTier) judge(report *reputationReport) domain.SafetyVerdict {
	tier := t.Name()

	if report.Token.FreezeAuthority != nil {
		return domain.Reject(tier, "freeze authority enabled",
			"holder accounts can be frozen by the mint operator")
	}

	lpLocked := maxLPLockedPct(report)
	if lpLocked < t.thresholds.MinLPLockedPct {
		v := domain.Reject(tier,
			fmt.Sprintf("LP locked %.1f%% below required %.1f%%", lpLocked, t.thresholds.MinLPLockedPct),
			"liquidity is not demonstrably locked or burned")
		v.LPLockedPct = &lpLocked
		v.Score = &report.Score
		return v
	}

	if report.Score > t.thresholds.MaxScore {
		v := domain.Reject(tier,
			fmt.Sprintf("risk score %.0f above limit %.0f", report.Score, t.thresholds.MaxScore))
		for _, r := range report.Risks {
			v.Risks = append(v.Risks, fmt.Sprintf("%s: %s", r.Name, r.Description))
		}
		v.Score = &report.Score
		v.LPLockedPct = &lpLocked
		return v
	}

	for _, r := range report.Risks {
		if r.Level == "danger" {
			v := domain.Reject(tier, fmt.Sprintf("danger risk: %s", r.Name),
				fmt.Sprintf("%s: %s", r.Name, r.Description))
			v.Score = &report.Score
			v.LPLockedPct = &lpLocked
			return v
		}
	}

	verdict := domain.Accept(tier)
	verdict.Score = &report.Score
	verdict.LPLockedPct = &lpLocked

	// Mint authority alone with locked LP is a warning, not a reject
	if report.Token.MintAuthority != nil {
		verdict.Warnings = append(verdict.Warnings, "mint authority still enabled")
	}
	return verdict
}

// maxLPLockedPct returns the best lock percentage across markets; a
// token locked on any one market passes the lock rule.
func maxLPLockedPct(report *reputationReport) float64 {
	var best float64
	for _, m := range report.Markets {
		if m.LP.LPLockedPct > best {
			best = m.LP.LPLockedPct
		}
	}
	return best
}
