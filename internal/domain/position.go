package domain

import "fmt"

// Exit action types.
const (
	ExitTP1       = "TP1"
	ExitTP2       = "TP2"
	ExitStopLoss  = "STOP_LOSS"
	ExitFullClose = "FULL_CLOSE"
	ExitManual    = "MANUAL"
)

// ExitAction records a withdrawal decision taken by the monitor.
type ExitAction struct {
	Type        string  // TP1 | TP2 | STOP_LOSS | FULL_CLOSE | MANUAL
	Percent     float64 // share of remaining liquidity withdrawn (0-100]
	TriggeredAt int64   // Unix timestamp in milliseconds
}

// Position is a tracked liquidity position. Created only after a
// successful acquisition and a successful pool-creation call.
//
// The latch flags (TP1Done, TakeProfitDone, StopLossDone, Exited) only
// transition false->true. Exited is terminal: once set, no further field
// may change. WithdrawalPending must be persisted before any withdrawal
// is submitted and cleared only once the outcome is known; it is the
// sole guard against double-submission.
type Position struct {
	ID                 string // primary key
	PoolID             string
	Mint               string
	Symbol             string
	BaseMint           string
	InitialPrice       float64 // base-asset per target-asset at creation
	InitialTokenAmount uint64  // raw units deposited
	InitialBaseAmount  uint64  // raw units deposited
	CreatedAt          int64   // Unix timestamp in milliseconds

	TP1Done           bool
	TakeProfitDone    bool
	StopLossDone      bool
	Exited            bool
	WithdrawalPending bool

	UnclaimedFees float64
	PositionValue float64
	EntryMcap     float64
	CurrentMcap   float64
}

// ErrPositionExited is returned when a mutation is attempted on a
// terminal position.
var ErrPositionExited = fmt.Errorf("position already exited")

// Open reports whether the position is still under management.
func (p *Position) Open() bool {
	return !p.Exited
}

// ApplyExit latches the flags for a completed exit action. Returns
// ErrPositionExited if the position is already terminal.
func (p *Position) ApplyExit(action string) error {
	if p.Exited {
		return ErrPositionExited
	}
	switch action {
	case ExitTP1:
		p.TP1Done = true
	case ExitTP2:
		p.TakeProfitDone = true
		p.Exited = true
	case ExitStopLoss:
		p.StopLossDone = true
		p.Exited = true
	case ExitFullClose, ExitManual:
		p.Exited = true
	default:
		return fmt.Errorf("unknown exit action %q", action)
	}
	return nil
}
