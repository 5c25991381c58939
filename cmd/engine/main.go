// The engine binary runs the full trade lifecycle: candidate discovery,
// safety gating, acquisition, pool provisioning and position monitoring.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"solana-sniper/internal/config"
	"solana-sniper/internal/discovery"
	"solana-sniper/internal/monitor"
	"solana-sniper/internal/observability"
	"solana-sniper/internal/orchestrator"
	"solana-sniper/internal/pool"
	"solana-sniper/internal/safety"
	"solana-sniper/internal/solana"
	"solana-sniper/internal/storage"
	chstore "solana-sniper/internal/storage/clickhouse"
	"solana-sniper/internal/storage/memory"
	"solana-sniper/internal/storage/migrations"
	"solana-sniper/internal/storage/postgres"
	"solana-sniper/internal/storage/sqlite"
	"solana-sniper/internal/venue"
)

const shutdownGrace = 15 * time.Second

func main() {
	var (
		configPath  string
		metricsAddr string
	)
	flag.StringVar(&configPath, "config", "", "path to the YAML config file")
	flag.StringVar(&metricsAddr, "metrics-addr", ":9090", "prometheus scrape address")
	flag.Parse()

	if err := run(configPath, metricsAddr); err != nil {
		log.Fatalf("engine: %v", err)
	}
}

func run(configPath, metricsAddr string) error {
	cfg, err := config.LoadOrDefault(configPath)
	if err != nil {
		return err
	}

	secret := os.Getenv("WALLET_PRIVATE_KEY")
	if secret == "" {
		return fmt.Errorf("WALLET_PRIVATE_KEY is not set")
	}
	wallet, err := solana.NewKeypairWallet(secret)
	if err != nil {
		return fmt.Errorf("load wallet: %w", err)
	}
	log.Printf("engine: wallet %s", wallet.Pubkey())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rpc := solana.NewHTTPClient(cfg.RPC.HTTPEndpoint)

	store, closeStore, err := buildPositionStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	snapshots, err := buildSnapshotStore(ctx, cfg)
	if err != nil {
		return err
	}

	relay := venue.NewRelay(cfg.Venues.RelayURL, rpc, nil)
	router := venue.NewRouter(venue.RouterOptions{
		Venues: []venue.Venue{
			venue.NewAggregatorVenue(venue.AggregatorOptions{
				BaseURL:      cfg.Venues.AggregatorURL,
				TipLamports:  cfg.Trade.TipLamports,
				RateLimitRPS: cfg.Venues.RateLimitRPS,
				Wallet:       wallet,
				Relay:        relay,
				RPC:          rpc,
			}),
			venue.NewDirectAMMVenue(venue.DirectAMMOptions{
				RPC:         rpc,
				Wallet:      wallet,
				Relay:       relay,
				ProgramID:   cfg.Venues.AMMProgramID,
				PairMetaURL: cfg.Safety.PairMetaURL,
			}),
		},
		RPC:     rpc,
		Wallet:  wallet,
		Retries: cfg.Trade.VenueRetries,
	})

	provisioner := pool.NewProvisioner(pool.ProvisionerOptions{
		Creator: venue.NewChainPoolCreator(venue.ChainPoolCreatorOptions{
			RPC:           rpc,
			Wallet:        wallet,
			Relay:         relay,
			ProgramID:     cfg.Venues.CPMMProgramID,
			AMMConfig:     cfg.Venues.CPMMConfig,
			CreatePoolFee: cfg.Venues.CreatePoolFee,
		}),
		RPC: rpc,
	})

	metrics := observability.NewMetrics()
	metricsSrv := serveMetrics(metricsAddr, metrics)
	defer metricsSrv.Close()

	mon := monitor.New(monitor.Options{
		Store:     store,
		Snapshots: snapshots,
		Metrics:   metrics,
		Pricer: venue.NewPoolPricer(venue.PoolPricerOptions{
			RPC:       rpc,
			ProgramID: cfg.Venues.CPMMProgramID,
			AMMConfig: cfg.Venues.CPMMConfig,
		}),
		Executor: venue.NewLiquidityWithdrawer(venue.LiquidityWithdrawerOptions{
			RPC:       rpc,
			Wallet:    wallet,
			Relay:     relay,
			ProgramID: cfg.Venues.CPMMProgramID,
			AMMConfig: cfg.Venues.CPMMConfig,
		}),
		Interval:         cfg.MonitorInterval(),
		TP1ROIPct:        cfg.Monitor.TP1ROIPct,
		TP1WithdrawPct:   cfg.Monitor.TP1WithdrawPct,
		TakeProfitROIPct: cfg.Monitor.TakeProfitROIPct,
		TPWithdrawPct:    cfg.Monitor.TPWithdrawPct,
		StopLossROIPct:   cfg.Monitor.StopLossROIPct,
		EnableStopLoss:   cfg.StopLossEnabled(),
	})

	source, closeSource, err := buildCandidateSource(ctx, cfg, rpc)
	if err != nil {
		return err
	}
	defer closeSource()

	engine := orchestrator.New(orchestrator.Options{
		Source:         source,
		Cooldown:       discovery.NewCooldown(cfg.Cooldown()),
		Gate:           safety.NewGateFromConfig(cfg, rpc),
		Router:         router,
		Provisioner:    provisioner,
		Store:          store,
		Monitor:        mon,
		Metrics:        metrics,
		Sink:           observability.LogSink{},
		BaseMint:       cfg.Trade.BaseMint,
		BudgetLamports: cfg.Trade.BudgetLamports,
		BaseDeposit:    cfg.Trade.BaseDepositLamport,
		SlippageBps:    cfg.Trade.MaxSlippageBps,
		PoolSeedShare:  cfg.Trade.PoolSeedShare,
	})

	done := make(chan error, 1)
	go func() { done <- engine.Run(ctx) }()

	select {
	case err := <-done:
		if err != nil && ctx.Err() == nil {
			return err
		}
	case <-ctx.Done():
		log.Printf("engine: shutting down, waiting up to %s for in-flight work", shutdownGrace)
		select {
		case <-done:
		case <-time.After(shutdownGrace):
			log.Print("engine: forced exit after grace period")
			os.Exit(1)
		}
	}
	return nil
}

// buildPositionStore selects the backend and runs its migrations.
func buildPositionStore(ctx context.Context, cfg *config.Config) (storage.PositionStore, func(), error) {
	switch cfg.Storage.Backend {
	case "memory":
		return memory.NewPositionStore(), func() {}, nil
	case "postgres":
		dbPool, err := postgres.NewPool(ctx, cfg.Storage.PostgresDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		if err := migrations.RunPostgresMigrations(ctx, dbPool); err != nil {
			dbPool.Close()
			return nil, nil, fmt.Errorf("migrate postgres: %w", err)
		}
		return postgres.NewPositionStore(dbPool), dbPool.Close, nil
	case "sqlite":
		store, err := sqlite.NewPositionStore(cfg.Storage.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite: %w", err)
		}
		return store, func() { store.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

// buildSnapshotStore wires the optional ROI analytics store.
func buildSnapshotStore(ctx context.Context, cfg *config.Config) (storage.RoiSnapshotStore, error) {
	if cfg.Storage.ClickhouseDSN == "" {
		return nil, nil
	}
	conn, err := migrations.RunClickhouseMigrations(ctx, cfg.Storage.ClickhouseDSN)
	if err != nil {
		return nil, fmt.Errorf("migrate clickhouse: %w", err)
	}
	return chstore.NewRoiSnapshotStore(conn), nil
}

// buildCandidateSource prefers the log subscription when a WebSocket
// endpoint is configured, falling back to metadata polling.
func buildCandidateSource(ctx context.Context, cfg *config.Config, rpc solana.RPCClient) (discovery.CandidateSource, func(), error) {
	if cfg.RPC.WSEndpoint != "" {
		ws, err := solana.DialWS(ctx, cfg.RPC.WSEndpoint, nil)
		if err != nil {
			return nil, nil, fmt.Errorf("dial websocket: %w", err)
		}
		resolver := venue.NewPoolInitResolver(rpc, cfg.Trade.BaseMint)
		source := discovery.NewLogSource(ws, resolver, []string{cfg.Venues.AMMProgramID})
		return source, func() { ws.Close() }, nil
	}

	source := discovery.NewPairScanSource(discovery.PairScanSourceOptions{
		BaseURL:         cfg.Safety.PairMetaURL,
		MinLiquidityUSD: cfg.Safety.MinLiquidityUSD,
	})
	return source, func() {}, nil
}

func serveMetrics(addr string, metrics *observability.Metrics) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("engine: metrics server: %v", err)
		}
	}()
	return srv
}
