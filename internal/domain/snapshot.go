package domain

// RoiSnapshot is one monitor-cycle observation of an open position,
// recorded for offline analysis. Append-only.
type RoiSnapshot struct {
	PositionID  string
	TimestampMs int64
	Price       float64 // normalized base-per-target
	ROIPct      float64
	Value       float64 // estimated position value in base units
}
