// The safetycheck binary runs the tiered safety gate once for a mint
// and prints the verdict.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"solana-sniper/internal/config"
	"solana-sniper/internal/safety"
	"solana-sniper/internal/solana"
)

func main() {
	var (
		configPath string
		pair       string
	)
	flag.StringVar(&configPath, "config", "", "path to the YAML config file")
	flag.StringVar(&pair, "pair", "", "known pair address (optional)")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: safetycheck [-config file] [-pair address] <mint>")
		os.Exit(2)
	}
	mint := flag.Arg(0)
	if !solana.ValidPubkey(mint) {
		log.Fatalf("safetycheck: %q is not a valid mint address", mint)
	}

	cfg, err := config.LoadOrDefault(configPath)
	if err != nil {
		log.Fatalf("safetycheck: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	rpc := solana.NewHTTPClient(cfg.RPC.HTTPEndpoint)
	gate := safety.NewGateFromConfig(cfg, rpc)

	var pairArg *string
	if pair != "" {
		pairArg = &pair
	}

	verdict := gate.Evaluate(ctx, mint, pairArg)

	status := "REJECTED"
	if verdict.Safe {
		status = "SAFE"
	}
	fmt.Printf("%s  %s\n", status, mint)
	fmt.Printf("  tier:   %s\n", verdict.TierSource)
	fmt.Printf("  reason: %s\n", verdict.Reason)
	if verdict.Score != nil {
		fmt.Printf("  score:  %.0f\n", *verdict.Score)
	}
	if verdict.LPLockedPct != nil {
		fmt.Printf("  lp locked: %.1f%%\n", *verdict.LPLockedPct)
	}
	for _, r := range verdict.Risks {
		fmt.Printf("  risk: %s\n", r)
	}
	for _, w := range verdict.Warnings {
		fmt.Printf("  warning: %s\n", w)
	}

	if !verdict.Safe {
		os.Exit(1)
	}
}
