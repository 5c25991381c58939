// The positions binary prints the position book from the configured
// store.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/olekukonko/tablewriter"

	"solana-sniper/internal/config"
	"solana-sniper/internal/domain"
	"solana-sniper/internal/storage"
	"solana-sniper/internal/storage/postgres"
	"solana-sniper/internal/storage/sqlite"
)

func main() {
	var (
		configPath string
		showAll    bool
	)
	flag.StringVar(&configPath, "config", "", "path to the YAML config file")
	flag.BoolVar(&showAll, "all", false, "include exited positions")
	flag.Parse()

	if err := run(configPath, showAll); err != nil {
		log.Fatalf("positions: %v", err)
	}
}

func run(configPath string, showAll bool) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	var positions []*domain.Position
	if showAll {
		positions, err = store.GetAll(ctx)
	} else {
		positions, err = store.GetOpenPositions(ctx)
	}
	if err != nil {
		return fmt.Errorf("load positions: %w", err)
	}
	if len(positions) == 0 {
		fmt.Println("no positions")
		return nil
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Symbol", "Mint", "Pool", "Entry Price", "Value", "Flags", "Created")
	for _, p := range positions {
		table.Append(
			p.Symbol,
			shorten(p.Mint),
			shorten(p.PoolID),
			fmt.Sprintf("%.9f", p.InitialPrice),
			fmt.Sprintf("%.2f", p.PositionValue),
			flags(p),
			time.UnixMilli(p.CreatedAt).UTC().Format("2006-01-02 15:04"),
		)
	}
	table.Render()
	return nil
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

// openStore connects read-only style to the engine's backend. The
// memory backend has nothing to show from a separate process.
func openStore(ctx context.Context, cfg *config.Config) (storage.PositionStore, func(), error) {
	switch cfg.Storage.Backend {
	case "postgres":
		dbPool, err := postgres.NewPool(ctx, cfg.Storage.PostgresDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		return postgres.NewPositionStore(dbPool), dbPool.Close, nil
	case "sqlite":
		store, err := sqlite.NewPositionStore(cfg.Storage.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite: %w", err)
		}
		return store, func() { store.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("backend %q holds no inspectable positions", cfg.Storage.Backend)
	}
}

func flags(p *domain.Position) string {
	out := ""
	if p.TP1Done {
		out += "TP1 "
	}
	if p.TakeProfitDone {
		out += "TP "
	}
	if p.StopLossDone {
		out += "SL "
	}
	if p.WithdrawalPending {
		out += "PENDING "
	}
	if p.Exited {
		out += "EXITED"
	}
	if out == "" {
		return "OPEN"
	}
	return out
}

func shorten(addr string) string {
	if len(addr) <= 12 {
		return addr
	}
	return addr[:4] + ".." + addr[len(addr)-4:]
}
