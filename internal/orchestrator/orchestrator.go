// Package orchestrator wires discovery, safety, execution, provisioning
// and persistence into the candidate evaluation pipeline and schedules
// the position monitor beside it.
package orchestrator

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"solana-sniper/internal/discovery"
	"solana-sniper/internal/domain"
	"solana-sniper/internal/monitor"
	"solana-sniper/internal/observability"
	"solana-sniper/internal/pool"
	"solana-sniper/internal/safety"
	"solana-sniper/internal/storage"
	"solana-sniper/internal/venue"
)

// Engine is the trade lifecycle orchestrator. All collaborators are
// injected; nothing is constructed at import time.
type Engine struct {
	source      discovery.CandidateSource
	cooldown    *discovery.Cooldown
	gate        *safety.Gate
	router      *venue.Router
	provisioner *pool.Provisioner
	store       storage.PositionStore
	monitor     *monitor.Monitor
	metrics     *observability.Metrics
	sink        observability.Sink

	baseMint       string
	budgetLamports uint64
	baseDeposit    uint64
	slippageBps    int
	poolSeedShare  float64
}

// Options configures the engine. Source and Monitor may be nil for a
// one-shot evaluation (the safetycheck binary).
type Options struct {
	Source      discovery.CandidateSource
	Cooldown    *discovery.Cooldown
	Gate        *safety.Gate
	Router      *venue.Router
	Provisioner *pool.Provisioner
	Store       storage.PositionStore
	Monitor     *monitor.Monitor
	Metrics     *observability.Metrics
	Sink        observability.Sink

	BaseMint       string
	BudgetLamports uint64
	BaseDeposit    uint64  // base-asset raw amount seeded into the new pool
	SlippageBps    int
	PoolSeedShare  float64 // share (0,1] of the acquired amount seeded; 0 = all
}

// New creates the engine.
func New(opts Options) *Engine {
	if opts.Sink == nil {
		opts.Sink = observability.LogSink{}
	}
	if opts.PoolSeedShare <= 0 || opts.PoolSeedShare > 1 {
		opts.PoolSeedShare = 1
	}
	return &Engine{
		source:         opts.Source,
		cooldown:       opts.Cooldown,
		gate:           opts.Gate,
		router:         opts.Router,
		provisioner:    opts.Provisioner,
		store:          opts.Store,
		monitor:        opts.Monitor,
		metrics:        opts.Metrics,
		sink:           opts.Sink,
		baseMint:       opts.BaseMint,
		budgetLamports: opts.BudgetLamports,
		baseDeposit:    opts.BaseDeposit,
		slippageBps:    opts.SlippageBps,
		poolSeedShare:  opts.PoolSeedShare,
	}
}

// Run consumes candidate events and sweeps positions until the context
// is cancelled. Candidates are evaluated one at a time; the monitor
// runs on its own independent period.
func (e *Engine) Run(ctx context.Context) error {
	events, err := e.source.Events(ctx)
	if err != nil {
		return fmt.Errorf("orchestrator: start candidate source: %w", err)
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		e.monitor.Run(ctx)
	}()

	for {
		select {
		case <-ctx.Done():
			wg.Wait()
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				wg.Wait()
				return nil
			}
			e.Evaluate(ctx, ev)
		}
	}
}

// Evaluate runs one candidate through the full pipeline. Every failure
// is terminal for this candidate only.
func (e *Engine) Evaluate(ctx context.Context, ev *domain.CandidateEvent) {
	if !e.cooldown.Admit(ev.PairKey()) {
		return
	}

	e.metrics.CandidatesEvaluated.Inc()
	e.sink.Emit(observability.Event{Kind: "CANDIDATE", Mint: ev.Mint,
		Message: fmt.Sprintf("evaluating (pair %s)", ev.PairKey())})

	verdict := e.gate.Evaluate(ctx, ev.Mint, ev.Pair)
	if !verdict.Safe {
		e.metrics.CandidatesRejected.WithLabelValues(verdict.TierSource).Inc()
		e.sink.Emit(observability.Event{Kind: "REJECTED", Mint: ev.Mint,
			Message: fmt.Sprintf("%s (%s)", verdict.Reason, verdict.TierSource)})
		return
	}
	for _, w := range verdict.Warnings {
		log.Printf("orchestrator: %s warning: %s", ev.Mint, w)
	}

	start := time.Now()
	acq := e.router.Acquire(ctx, venue.SwapRequest{
		InputMint:      e.baseMint,
		OutputMint:     ev.Mint,
		AmountLamports: e.budgetLamports,
		MaxSlippageBps: e.slippageBps,
		PairAddress:    ev.Pair,
	})
	e.metrics.VenueLatency.WithLabelValues(acq.VenueUsed).Observe(time.Since(start).Seconds())
	if !acq.Success {
		e.metrics.Acquisitions.WithLabelValues(acq.VenueUsed, "failure").Inc()
		e.sink.Emit(observability.Event{Kind: "ERROR", Mint: ev.Mint,
			Message: fmt.Sprintf("acquisition failed: %v", acq.Err)})
		return
	}
	e.metrics.Acquisitions.WithLabelValues(acq.VenueUsed, "success").Inc()
	e.sink.Emit(observability.Event{Kind: "ACQUIRED", Mint: ev.Mint,
		Message: fmt.Sprintf("%d raw units via %s (tx %s)", acq.AcquiredAmount, acq.VenueUsed, acq.TxSignature)})

	position, err := e.provisioner.Provision(ctx, pool.ProvisionRequest{
		TargetMint:   ev.Mint,
		TargetAmount: uint64(float64(acq.AcquiredAmount) * e.poolSeedShare),
		BaseMint:     e.baseMint,
		BaseAmount:   e.baseDeposit,
		Symbol:       shortMint(ev.Mint),
		EntryMcap:    ev.MarketCapUSD,
	})
	if err != nil {
		// The acquired asset stays in the wallet. Surfaced, not fatal.
		e.sink.Emit(observability.Event{Kind: "ERROR", Mint: ev.Mint,
			Message: fmt.Sprintf("pool provisioning failed, asset remains in wallet: %v", err)})
		return
	}
	e.sink.Emit(observability.Event{Kind: "POOL_CREATED", Mint: ev.Mint,
		Message: fmt.Sprintf("pool %s, position %s", position.PoolID, position.ID)})

	if err := e.store.Upsert(ctx, position); err != nil {
		e.sink.Emit(observability.Event{Kind: "ERROR", Mint: ev.Mint,
			Message: fmt.Sprintf("persist position %s: %v", position.ID,
				domain.NewFailure(domain.PersistenceFailure, err))})
		return
	}
	e.metrics.OpenPositions.Inc()
}

func shortMint(mint string) string {
	if len(mint) <= 8 {
		return mint
	}
	return mint[:8]
}
