// Package config loads engine configuration from a YAML file with
// .env overrides. All decision thresholds live here, not in code.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the full engine configuration.
type Config struct {
	RPC     RPCConfig     `yaml:"rpc"`
	Trade   TradeConfig   `yaml:"trade"`
	Safety  SafetyConfig  `yaml:"safety"`
	Monitor MonitorConfig `yaml:"monitor"`
	Storage StorageConfig `yaml:"storage"`
	Venues  VenuesConfig  `yaml:"venues"`
}

// RPCConfig holds chain endpoints.
type RPCConfig struct {
	HTTPEndpoint string `yaml:"http_endpoint"`
	WSEndpoint   string `yaml:"ws_endpoint"`
}

// TradeConfig controls acquisition and provisioning.
type TradeConfig struct {
	BudgetLamports     uint64  `yaml:"budget_lamports"`      // base-asset spend per candidate
	MaxSlippageBps     int     `yaml:"max_slippage_bps"`     // e.g. 300 = 3%
	CooldownMinutes    int     `yaml:"cooldown_minutes"`     // one candidate per pair per window
	TipLamports        uint64  `yaml:"tip_lamports"`         // priority relay tip
	VenueRetries       int     `yaml:"venue_retries"`        // attempts per venue before escalating
	BaseMint           string  `yaml:"base_mint"`            // wrapped SOL by default
	PoolSeedShare      float64 `yaml:"pool_seed_share"`      // share of acquired tokens seeded (1.0 = all)
	BaseDepositLamport uint64  `yaml:"base_deposit_lamports"`
}

// SafetyConfig controls the tiered gate. Thresholds are documented here
// rather than hard-coded in the tiers.
type SafetyConfig struct {
	ReputationURL      string  `yaml:"reputation_url"`
	PairMetaURL        string  `yaml:"pair_meta_url"`
	EnableReputation   bool    `yaml:"enable_reputation"`
	EnablePairMeta     bool    `yaml:"enable_pair_meta"`
	EnableOnChain      bool    `yaml:"enable_onchain"`
	MinLPLockedPct     float64 `yaml:"min_lp_locked_pct"`     // below => hard reject
	MaxHolderPct       float64 `yaml:"max_holder_pct"`        // single wallet share => hard reject
	BundleDuplicates   int     `yaml:"bundle_duplicates"`     // identical balances among top holders => reject
	TopHolderCount     int     `yaml:"top_holder_count"`      // how many largest accounts to inspect
	TierRetries        int     `yaml:"tier_retries"`          // transient retries within a tier
	TierBackoffSeconds int     `yaml:"tier_backoff_seconds"`  // fixed backoff between retries
	MaxScore           float64 `yaml:"max_score"`             // reputation score above => reject
	MinLiquidityUSD    float64 `yaml:"min_liquidity_usd"`     // pair liquidity below => reject
}

// MonitorConfig controls the position monitor loop.
type MonitorConfig struct {
	IntervalSeconds  int     `yaml:"interval_seconds"`
	TP1ROIPct        float64 `yaml:"tp1_roi_pct"`       // e.g. 100 = +100%
	TP1WithdrawPct   float64 `yaml:"tp1_withdraw_pct"`  // share withdrawn at TP1
	TakeProfitROIPct float64 `yaml:"take_profit_roi_pct"`
	TPWithdrawPct    float64 `yaml:"tp_withdraw_pct"`
	StopLossROIPct   float64 `yaml:"stop_loss_roi_pct"` // negative, e.g. -2
	EnableStopLoss   *bool   `yaml:"enable_stop_loss"`
}

// StorageConfig selects the position store backend.
type StorageConfig struct {
	Backend       string `yaml:"backend"` // sqlite | postgres | memory
	SQLitePath    string `yaml:"sqlite_path"`
	PostgresDSN   string `yaml:"postgres_dsn"`
	ClickhouseDSN string `yaml:"clickhouse_dsn"` // optional ROI analytics
}

// VenuesConfig holds execution venue endpoints.
type VenuesConfig struct {
	AggregatorURL string  `yaml:"aggregator_url"`
	RelayURL      string  `yaml:"relay_url"`
	AMMProgramID  string  `yaml:"amm_program_id"`
	CPMMProgramID string  `yaml:"cpmm_program_id"` // pool creation program
	CPMMConfig    string  `yaml:"cpmm_config"`     // fee-tier config account
	CreatePoolFee string  `yaml:"create_pool_fee"` // protocol fee receiver
	RateLimitRPS  float64 `yaml:"rate_limit_rps"`  // aggregator request budget
}

// Load reads the YAML file at path and applies env overrides.
// A missing .env file is not an error.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
	}

	applyEnvOverrides(&cfg)
	SetDefaults(&cfg)
	return &cfg, nil
}

// LoadOrDefault loads the file at path, or returns the defaults when
// path is empty.
func LoadOrDefault(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}
	return Load(path)
}

// Default returns a configuration with every default applied, for use
// when no config file is given.
func Default() *Config {
	var cfg Config
	_ = godotenv.Load()
	applyEnvOverrides(&cfg)
	SetDefaults(&cfg)
	return &cfg
}

// MonitorInterval returns the monitor period as a Duration.
func (c *Config) MonitorInterval() time.Duration {
	return time.Duration(c.Monitor.IntervalSeconds) * time.Second
}

// Cooldown returns the candidate dedup window as a Duration.
func (c *Config) Cooldown() time.Duration {
	return time.Duration(c.Trade.CooldownMinutes) * time.Minute
}

// TierBackoff returns the fixed per-tier retry delay.
func (c *Config) TierBackoff() time.Duration {
	return time.Duration(c.Safety.TierBackoffSeconds) * time.Second
}

// StopLossEnabled reports whether the stop-loss trigger is active.
func (c *Config) StopLossEnabled() bool {
	if c.Monitor.EnableStopLoss == nil {
		return true // enabled unless explicitly turned off
	}
	return *c.Monitor.EnableStopLoss
}

// applyEnvOverrides overrides secrets and endpoints from the environment.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("RPC_HTTP_ENDPOINT"); v != "" {
		cfg.RPC.HTTPEndpoint = v
	}
	if v := os.Getenv("RPC_WS_ENDPOINT"); v != "" {
		cfg.RPC.WSEndpoint = v
	}
	if v := os.Getenv("POSTGRES_DSN"); v != "" {
		cfg.Storage.PostgresDSN = v
	}
	if v := os.Getenv("CLICKHOUSE_DSN"); v != "" {
		cfg.Storage.ClickhouseDSN = v
	}
	if v := os.Getenv("BUDGET_LAMPORTS"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			cfg.Trade.BudgetLamports = n
		}
	}
}

// SetDefaults fills every unset field with its documented default.
func SetDefaults(cfg *Config) {
	if cfg.Trade.BudgetLamports == 0 {
		cfg.Trade.BudgetLamports = 100_000_000 // 0.1 SOL
	}
	if cfg.Trade.MaxSlippageBps <= 0 {
		cfg.Trade.MaxSlippageBps = 300
	}
	if cfg.Trade.CooldownMinutes <= 0 {
		cfg.Trade.CooldownMinutes = 30
	}
	if cfg.Trade.TipLamports == 0 {
		cfg.Trade.TipLamports = 1_000_000
	}
	if cfg.Trade.VenueRetries <= 0 {
		cfg.Trade.VenueRetries = 2
	}
	if cfg.Trade.BaseMint == "" {
		cfg.Trade.BaseMint = "So11111111111111111111111111111111111111112"
	}
	if cfg.Trade.PoolSeedShare <= 0 {
		cfg.Trade.PoolSeedShare = 1.0
	}
	if cfg.Trade.BaseDepositLamport == 0 {
		cfg.Trade.BaseDepositLamport = 50_000_000
	}

	if cfg.Safety.ReputationURL == "" {
		cfg.Safety.ReputationURL = "https://api.rugcheck.xyz/v1"
	}
	if cfg.Safety.PairMetaURL == "" {
		cfg.Safety.PairMetaURL = "https://api.dexscreener.com/latest/dex"
	}
	if !cfg.Safety.EnableReputation && !cfg.Safety.EnablePairMeta && !cfg.Safety.EnableOnChain {
		cfg.Safety.EnableReputation = true
		cfg.Safety.EnablePairMeta = true
		cfg.Safety.EnableOnChain = true
	}
	if cfg.Safety.MinLPLockedPct <= 0 {
		cfg.Safety.MinLPLockedPct = 80
	}
	if cfg.Safety.MaxHolderPct <= 0 {
		cfg.Safety.MaxHolderPct = 60
	}
	if cfg.Safety.BundleDuplicates <= 0 {
		cfg.Safety.BundleDuplicates = 3
	}
	if cfg.Safety.TopHolderCount <= 0 {
		cfg.Safety.TopHolderCount = 20
	}
	if cfg.Safety.TierRetries <= 0 {
		cfg.Safety.TierRetries = 2
	}
	if cfg.Safety.TierBackoffSeconds <= 0 {
		cfg.Safety.TierBackoffSeconds = 2
	}
	if cfg.Safety.MaxScore <= 0 {
		cfg.Safety.MaxScore = 5000
	}
	if cfg.Safety.MinLiquidityUSD <= 0 {
		cfg.Safety.MinLiquidityUSD = 1000
	}

	if cfg.Monitor.IntervalSeconds <= 0 {
		cfg.Monitor.IntervalSeconds = 30
	}
	if cfg.Monitor.TP1ROIPct <= 0 {
		cfg.Monitor.TP1ROIPct = 100
	}
	if cfg.Monitor.TP1WithdrawPct <= 0 {
		cfg.Monitor.TP1WithdrawPct = 50
	}
	if cfg.Monitor.TakeProfitROIPct <= 0 {
		cfg.Monitor.TakeProfitROIPct = 700
	}
	if cfg.Monitor.TPWithdrawPct <= 0 {
		cfg.Monitor.TPWithdrawPct = 100
	}
	if cfg.Monitor.StopLossROIPct == 0 {
		cfg.Monitor.StopLossROIPct = -2
	}

	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = "sqlite"
	}
	if cfg.Storage.SQLitePath == "" {
		cfg.Storage.SQLitePath = "sniper.db"
	}

	if cfg.Venues.AggregatorURL == "" {
		cfg.Venues.AggregatorURL = "https://quote-api.jup.ag/v6"
	}
	if cfg.Venues.RelayURL == "" {
		cfg.Venues.RelayURL = "https://mainnet.block-engine.jito.wtf/api/v1"
	}
	if cfg.Venues.AMMProgramID == "" {
		cfg.Venues.AMMProgramID = "675kPX9MHTjS2zt1qfr1NYHuzeLXfQM9H24wFSUt1Mp8"
	}
	if cfg.Venues.CPMMProgramID == "" {
		cfg.Venues.CPMMProgramID = "CPMMoo8L3F4NbTegBCKVNunggL7H1ZpdTHKxQB5qKP1C"
	}
	if cfg.Venues.CPMMConfig == "" {
		cfg.Venues.CPMMConfig = "D4FPEruKEHrG5TenZ2mpDGEfu1iUvTiqBxvpU8HLBvC2"
	}
	if cfg.Venues.CreatePoolFee == "" {
		cfg.Venues.CreatePoolFee = "DNXgeM9EiiaAbaWvwjHj9fQQLAX5ZsfHyvmYUNRAdNC8"
	}
	if cfg.Venues.RateLimitRPS <= 0 {
		cfg.Venues.RateLimitRPS = 5
	}
}
