// Package monitor runs the position lifecycle loop: price each open
// position on a fixed period, apply the take-profit and stop-loss
// trigger ladder and latch exits exactly once.
package monitor

import (
	"context"
	"fmt"
	"log"
	"time"

	"solana-sniper/internal/domain"
	"solana-sniper/internal/exit"
	"solana-sniper/internal/observability"
	"solana-sniper/internal/storage"
)

// Pricer fetches the current pool price of a position, normalized to
// base-asset per target-asset.
type Pricer interface {
	Price(ctx context.Context, position *domain.Position) (float64, error)
}

// Monitor sweeps open positions sequentially. Sequential processing
// bounds the outbound request rate and guarantees no two evaluations
// of the same position overlap.
type Monitor struct {
	store     storage.PositionStore
	snapshots storage.RoiSnapshotStore
	pricer    Pricer
	executor  exit.Executor
	metrics   *observability.Metrics

	interval       time.Duration
	tp1ROIPct      float64
	tp1WithdrawPct float64
	tpROIPct       float64
	tpWithdrawPct  float64
	slROIPct       float64
	slEnabled      bool

	// Positions whose exit outcome is latched in memory but whose final
	// store write failed. Keyed by position ID; retried on later sweeps.
	unpersisted map[string]*domain.Position

	now func() time.Time
}

// Options configures a Monitor. Snapshots is optional; when set, every
// evaluated cycle records an ROI snapshot best-effort.
type Options struct {
	Store     storage.PositionStore
	Snapshots storage.RoiSnapshotStore
	Pricer    Pricer
	Executor  exit.Executor
	Metrics   *observability.Metrics // optional

	Interval         time.Duration
	TP1ROIPct        float64 // e.g. 100 = trigger at +100%
	TP1WithdrawPct   float64
	TakeProfitROIPct float64
	TPWithdrawPct    float64
	StopLossROIPct   float64 // negative
	EnableStopLoss   bool

	Now func() time.Time // test hook
}

// New creates a position monitor.
func New(opts Options) *Monitor {
	if opts.Interval <= 0 {
		opts.Interval = 30 * time.Second
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Monitor{
		store:          opts.Store,
		snapshots:      opts.Snapshots,
		pricer:         opts.Pricer,
		executor:       opts.Executor,
		metrics:        opts.Metrics,
		unpersisted:    make(map[string]*domain.Position),
		interval:       opts.Interval,
		tp1ROIPct:      opts.TP1ROIPct,
		tp1WithdrawPct: opts.TP1WithdrawPct,
		tpROIPct:       opts.TakeProfitROIPct,
		tpWithdrawPct:  opts.TPWithdrawPct,
		slROIPct:       opts.StopLossROIPct,
		slEnabled:      opts.EnableStopLoss,
		now:            opts.Now,
	}
}

// Run sweeps on the fixed period until the context is cancelled.
// Cancellation stops scheduling of future sweeps; an in-flight
// withdrawal completes on its own detached context.
func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep(ctx)
		}
	}
}

// Sweep evaluates every open position once, sequentially. A failure on
// one position never aborts the rest; the next sweep simply retries.
func (m *Monitor) Sweep(ctx context.Context) {
	positions, err := m.store.GetOpenPositions(ctx)
	if err != nil {
		log.Printf("monitor: list open positions: %v", err)
		return
	}

	for _, p := range positions {
		if err := m.evaluate(ctx, p); err != nil {
			log.Printf("monitor: position %s (%s): %v", p.ID, p.Symbol, err)
		}
		if ctx.Err() != nil {
			return
		}
	}
}

// evaluate runs one cycle for one position.
func (m *Monitor) evaluate(ctx context.Context, p *domain.Position) error {
	// A pending withdrawal means a previous cycle is still in flight.
	// Skip without touching the network or the record, unless the only
	// missing piece is the final store write of a latched exit.
	if p.WithdrawalPending {
		return m.flushUnpersisted(ctx, p.ID)
	}

	start := time.Now()
	price, err := m.pricer.Price(ctx, p)
	if m.metrics != nil {
		m.metrics.RPCLatency.Observe(time.Since(start).Seconds())
	}
	if err != nil {
		return fmt.Errorf("fetch price: %w", err)
	}
	if p.InitialPrice <= 0 {
		return fmt.Errorf("position has no initial price")
	}
	roiPct := (price - p.InitialPrice) / p.InitialPrice * 100

	m.recordSnapshot(ctx, p, price, roiPct)

	action := m.decide(p, roiPct)
	if action == nil {
		p.PositionValue = m.estimateValue(p, roiPct)
		p.CurrentMcap = p.EntryMcap * (1 + roiPct/100)
		if err := m.store.Upsert(ctx, p); err != nil {
			log.Printf("monitor: persist valuation for %s: %v",
				p.ID, domain.NewFailure(domain.PersistenceFailure, err))
		}
		return nil
	}

	return m.execute(ctx, p, action, roiPct)
}

// decide applies the trigger ladder. The full take-profit dominates
// TP1 when both thresholds are crossed in the same cycle, so a single
// withdrawal closes the position.
func (m *Monitor) decide(p *domain.Position, roiPct float64) *domain.ExitAction {
	switch {
	case !p.TakeProfitDone && roiPct >= m.tpROIPct:
		return &domain.ExitAction{Type: domain.ExitTP2, Percent: m.tpWithdrawPct}
	case !p.TP1Done && roiPct >= m.tp1ROIPct:
		return &domain.ExitAction{Type: domain.ExitTP1, Percent: m.tp1WithdrawPct}
	case m.slEnabled && !p.StopLossDone && roiPct <= m.slROIPct:
		return &domain.ExitAction{Type: domain.ExitStopLoss, Percent: 100}
	}
	return nil
}

// execute runs one withdrawal under the pending-flag protocol: the
// flag is persisted before submission and cleared only once the
// outcome is known. Exit flags latch only after confirmed success.
func (m *Monitor) execute(ctx context.Context, p *domain.Position, action *domain.ExitAction, roiPct float64) error {
	p.WithdrawalPending = true
	if err := m.store.Upsert(ctx, p); err != nil {
		p.WithdrawalPending = false
		return domain.NewFailure(domain.PersistenceFailure,
			fmt.Errorf("persist pending flag: %w", err))
	}

	result, err := m.executor.Withdraw(ctx, p, action.Percent)
	if err != nil {
		p.WithdrawalPending = false
		if upErr := m.store.Upsert(ctx, p); upErr != nil {
			log.Printf("monitor: clear pending flag for %s: %v", p.ID, upErr)
		}
		return fmt.Errorf("withdraw %s: %w", action.Type, err)
	}

	action.TriggeredAt = m.now().UnixMilli()
	if err := p.ApplyExit(action.Type); err != nil {
		return err
	}
	p.WithdrawalPending = false
	p.PositionValue = m.estimateValue(p, roiPct)
	p.CurrentMcap = p.EntryMcap * (1 + roiPct/100)

	if m.metrics != nil {
		m.metrics.Exits.WithLabelValues(action.Type).Inc()
		if p.Exited {
			m.metrics.OpenPositions.Dec()
		}
	}

	if err := m.store.Upsert(ctx, p); err != nil {
		// The withdrawal landed; only the record is stale. Keep the
		// latched copy and retry the write on later sweeps.
		m.unpersisted[p.ID] = p
		return domain.NewFailure(domain.PersistenceFailure,
			fmt.Errorf("persist exit %s (tx %s): %w", action.Type, result.TxSignature, err))
	}

	log.Printf("monitor: %s %s at ROI %+.1f%% (withdrew %.0f%%, tx %s)",
		action.Type, p.Symbol, roiPct, action.Percent, result.TxSignature)
	return nil
}

// flushUnpersisted retries the final store write for an exit whose
// withdrawal already landed. With no entry there is nothing to do: the
// pending flag belongs to an in-flight withdrawal.
func (m *Monitor) flushUnpersisted(ctx context.Context, id string) error {
	latched, ok := m.unpersisted[id]
	if !ok {
		return nil
	}
	if err := m.store.Upsert(ctx, latched); err != nil {
		return domain.NewFailure(domain.PersistenceFailure,
			fmt.Errorf("retry persisting exit: %w", err))
	}
	delete(m.unpersisted, id)
	return nil
}

// recordSnapshot appends one ROI sample to the analytics store.
// Best-effort: a write failure is logged and never fails the cycle.
func (m *Monitor) recordSnapshot(ctx context.Context, p *domain.Position, price, roiPct float64) {
	if m.snapshots == nil {
		return
	}
	snap := &domain.RoiSnapshot{
		PositionID:  p.ID,
		TimestampMs: m.now().UnixMilli(),
		Price:       price,
		ROIPct:      roiPct,
		Value:       m.estimateValue(p, roiPct),
	}
	if err := m.snapshots.InsertBulk(ctx, []*domain.RoiSnapshot{snap}); err != nil {
		log.Printf("monitor: roi snapshot for %s: %v",
			p.ID, domain.NewFailure(domain.PersistenceFailure, err))
	}
}

// estimateValue approximates the remaining position value in base
// units from the deposit and the share still in the pool.
func (m *Monitor) estimateValue(p *domain.Position, roiPct float64) float64 {
	share := 1.0
	if p.TP1Done {
		share -= m.tp1WithdrawPct / 100
	}
	if share < 0 {
		share = 0
	}
	return float64(p.InitialBaseAmount) * (1 + roiPct/100) * share
}
